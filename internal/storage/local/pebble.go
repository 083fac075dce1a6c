package local

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/iggydv12/gogrocery/internal/models"
	"github.com/iggydv12/gogrocery/internal/storage"
)

// PebbleStorage is a Pebble LSM-tree backed ItemStore.
type PebbleStorage struct {
	// mu serializes writers so index checks and batch commits are atomic.
	mu     sync.Mutex
	db     *pebble.DB
	path   string
	logger *zap.Logger
}

// NewPebbleStorage creates a PebbleStorage instance (not yet opened).
func NewPebbleStorage(dbPath string, logger *zap.Logger) *PebbleStorage {
	return &PebbleStorage{
		path:   dbPath,
		logger: logger,
	}
}

// Init opens the Pebble database.
func (p *PebbleStorage) Init(ctx context.Context) error {
	opts := &pebble.Options{
		Logger: &pebbleLogger{p.logger},
	}
	db, err := pebble.Open(p.path, opts)
	if err != nil {
		return fmt.Errorf("pebble open %s: %w", p.path, err)
	}
	p.db = db
	p.logger.Info("Pebble storage opened", zap.String("path", p.path))
	return nil
}

// Close flushes and closes the database.
func (p *PebbleStorage) Close() error {
	if p.db != nil {
		err := p.db.Close()
		p.db = nil
		return err
	}
	return nil
}

// FindOneByName resolves name through the folded-name index.
func (p *PebbleStorage) FindOneByName(ctx context.Context, name string) (*models.GroceryItem, error) {
	doc, err := p.lookup(storage.FoldKey(name))
	if err != nil {
		return nil, err
	}
	item := doc.Item()
	return &item, nil
}

// FindAll scans the item/ keyspace in id order.
func (p *PebbleStorage) FindAll(ctx context.Context) ([]models.GroceryItem, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(itemPrefix),
		UpperBound: prefixUpperBound(itemPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	items := []models.GroceryItem{}
	for iter.First(); iter.Valid(); iter.Next() {
		var doc storage.Document
		if err := bson.Unmarshal(iter.Value(), &doc); err != nil {
			p.logger.Warn("skipping undecodable document", zap.ByteString("key", iter.Key()), zap.Error(err))
			continue
		}
		items = append(items, doc.Item())
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return items, nil
}

// InsertOne writes the document and its index entry in one batch.
func (p *PebbleStorage) InsertOne(ctx context.Context, item models.GroceryItem) (string, error) {
	doc := storage.NewDocument(item)
	data, err := bson.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_, closer, err := p.db.Get(nameKey(doc.ItemKey))
	if err == nil {
		closer.Close()
		return "", storage.ErrDuplicateKey
	}
	if !errors.Is(err, pebble.ErrNotFound) {
		return "", fmt.Errorf("pebble get check: %w", err)
	}

	id := doc.ID.Hex()
	batch := p.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(itemKey(id), data, nil); err != nil {
		return "", err
	}
	if err := batch.Set(nameKey(doc.ItemKey), []byte(id), nil); err != nil {
		return "", err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return "", fmt.Errorf("pebble commit: %w", err)
	}
	return id, nil
}

// DeleteManyByName removes the document named exactly name along with its index entry.
// The unique index means at most one document can match.
func (p *PebbleStorage) DeleteManyByName(ctx context.Context, name string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.lookup(storage.FoldKey(name))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if doc.ItemName != name {
		return 0, nil
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(itemKey(doc.ID.Hex()), nil); err != nil {
		return 0, err
	}
	if err := batch.Delete(nameKey(doc.ItemKey), nil); err != nil {
		return 0, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("pebble commit: %w", err)
	}
	return 1, nil
}

// UpdateOneQuantity rewrites the document named exactly name with the new quantity.
func (p *PebbleStorage) UpdateOneQuantity(ctx context.Context, name string, quantity int) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.lookup(storage.FoldKey(name))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if doc.ItemName != name {
		return 0, nil
	}

	doc.Quantity = quantity
	data, err := bson.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal: %w", err)
	}
	if err := p.db.Set(itemKey(doc.ID.Hex()), data, pebble.Sync); err != nil {
		return 0, fmt.Errorf("pebble set: %w", err)
	}
	return 1, nil
}

// lookup follows the name index to the stored document.
func (p *PebbleStorage) lookup(folded string) (storage.Document, error) {
	var doc storage.Document

	id, err := p.get(nameKey(folded))
	if err != nil {
		return doc, err
	}
	data, err := p.get(itemKey(string(id)))
	if err != nil {
		return doc, err
	}
	if err := bson.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("unmarshal: %w", err)
	}
	return doc, nil
}

// get copies the value out of Pebble's buffer before releasing it.
func (p *PebbleStorage) get(key []byte) ([]byte, error) {
	data, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// pebbleLogger adapts zap.Logger to the pebble.Logger interface.
type pebbleLogger struct {
	z *zap.Logger
}

func (l *pebbleLogger) Infof(format string, args ...any) {
	l.z.Sugar().Infof(format, args...)
}

func (l *pebbleLogger) Errorf(format string, args ...any) {
	l.z.Sugar().Errorf(format, args...)
}

func (l *pebbleLogger) Fatalf(format string, args ...any) {
	l.z.Sugar().Fatalf(format, args...)
}
