// Package storage defines the ItemStore interface over the grocery collection
// and the document shape shared by the persistent backends.
package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/cases"

	"github.com/iggydv12/gogrocery/internal/models"
)

var (
	// ErrNotFound is returned by FindOneByName when no document matches.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned by InsertOne when the folded item name is taken.
	ErrDuplicateKey = errors.New("duplicate item key")
)

// ItemStore is a single grocery collection.
// Implementations must be safe for concurrent use.
type ItemStore interface {
	// Init opens the underlying store.
	Init(ctx context.Context) error
	// Close releases the underlying store.
	Close() error
	// FindOneByName returns the item whose name equals name ignoring case.
	FindOneByName(ctx context.Context, name string) (*models.GroceryItem, error)
	// FindAll returns every item in the store's natural order.
	FindAll(ctx context.Context) ([]models.GroceryItem, error)
	// InsertOne stores a new item and returns its assigned id.
	// Returns ErrDuplicateKey if an item with the same folded name exists.
	InsertOne(ctx context.Context, item models.GroceryItem) (string, error)
	// DeleteManyByName removes every item named exactly name.
	DeleteManyByName(ctx context.Context, name string) (int64, error)
	// UpdateOneQuantity sets the quantity of the item named exactly name
	// and returns the number of matched items.
	UpdateOneQuantity(ctx context.Context, name string, quantity int) (int64, error)
}

// FoldKey is the uniqueness key for an item name: its Unicode case folding,
// so "ΛΑΣ" and "λας" share a key where lowercasing alone would not.
// A Caser is stateful, hence one per call.
func FoldKey(name string) string {
	return cases.Fold().String(name)
}

// Document is the persisted form of a GroceryItem.
type Document struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	ItemName string             `bson:"item_name"`
	ItemKey  string             `bson:"item_key,omitempty"`
	Quantity int                `bson:"quantity"`
	Date     time.Time          `bson:"date"`
}

// NewDocument builds a document for item with a freshly assigned id.
func NewDocument(item models.GroceryItem) Document {
	return Document{
		ID:       primitive.NewObjectID(),
		ItemName: item.ItemName,
		ItemKey:  FoldKey(item.ItemName),
		Quantity: item.Quantity,
		Date:     item.Date,
	}
}

// Item converts the document to its external representation.
func (d Document) Item() models.GroceryItem {
	return models.GroceryItem{
		ID:       d.ID.Hex(),
		ItemName: d.ItemName,
		Quantity: d.Quantity,
		Date:     d.Date.UTC(),
	}
}
