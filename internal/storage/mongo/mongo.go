// Package mongo provides the MongoDB-backed ItemStore.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/iggydv12/gogrocery/internal/models"
	"github.com/iggydv12/gogrocery/internal/storage"
)

const keyIndexName = "item_key_unique"

// Options locate the grocery collection.
type Options struct {
	URI        string
	Database   string
	Collection string
}

// Storage is an ItemStore over one MongoDB collection.
type Storage struct {
	opts   Options
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewStorage creates a Storage (not yet connected).
func NewStorage(opts Options, logger *zap.Logger) *Storage {
	return &Storage{opts: opts, logger: logger}
}

// Init connects, pings the primary and ensures the unique index on item_key.
func (s *Storage) Init(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.opts.URI))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("mongo ping: %w", err)
	}

	coll := client.Database(s.opts.Database).Collection(s.opts.Collection)

	// Documents written before item_key existed are left out of the index.
	index := mongo.IndexModel{
		Keys: bson.D{{Key: "item_key", Value: 1}},
		Options: options.Index().
			SetName(keyIndexName).
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"item_key": bson.M{"$exists": true}}),
	}
	if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("mongo create index: %w", err)
	}

	s.client = client
	s.coll = coll
	s.logger.Info("MongoDB storage connected",
		zap.String("database", s.opts.Database),
		zap.String("collection", s.opts.Collection),
	)
	return nil
}

// Close disconnects the client.
func (s *Storage) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(context.Background())
	s.client = nil
	return err
}

// Drop removes the whole database.
func (s *Storage) Drop(ctx context.Context) error {
	return s.coll.Database().Drop(ctx)
}

// FindOneByName matches on the folded item_key, the same key the unique index
// enforces. Documents written before item_key existed are still matched by a
// case-insensitive, literal item_name.
func (s *Storage) FindOneByName(ctx context.Context, name string) (*models.GroceryItem, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"item_key": storage.FoldKey(name)},
		bson.M{"item_name": primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(name) + "$",
			Options: "i",
		}},
	}}

	var doc storage.Document
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find one: %w", err)
	}
	item := doc.Item()
	return &item, nil
}

// FindAll returns every document projected to the public fields.
func (s *Storage) FindAll(ctx context.Context) ([]models.GroceryItem, error) {
	projection := bson.M{"_id": 1, "item_name": 1, "quantity": 1, "date": 1}
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	items := []models.GroceryItem{}
	for cur.Next(ctx) {
		var doc storage.Document
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode: %w", err)
		}
		items = append(items, doc.Item())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo cursor: %w", err)
	}
	return items, nil
}

// InsertOne inserts the document; a unique index violation maps to ErrDuplicateKey.
func (s *Storage) InsertOne(ctx context.Context, item models.GroceryItem) (string, error) {
	doc := storage.NewDocument(item)
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", storage.ErrDuplicateKey
		}
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	return doc.ID.Hex(), nil
}

// DeleteManyByName deletes every document whose item_name equals name.
func (s *Storage) DeleteManyByName(ctx context.Context, name string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"item_name": name})
	if err != nil {
		return 0, fmt.Errorf("mongo delete: %w", err)
	}
	return res.DeletedCount, nil
}

// UpdateOneQuantity sets quantity on the first document whose item_name equals name.
func (s *Storage) UpdateOneQuantity(ctx context.Context, name string, quantity int) (int64, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"item_name": name},
		bson.M{"$set": bson.M{"quantity": quantity}},
	)
	if err != nil {
		return 0, fmt.Errorf("mongo update: %w", err)
	}
	return res.MatchedCount, nil
}
