// Package memory provides an in-memory ItemStore.
package memory

import (
	"context"
	"sync"

	"github.com/iggydv12/gogrocery/internal/models"
	"github.com/iggydv12/gogrocery/internal/storage"
)

// Store keeps documents in insertion order behind a sync.RWMutex.
// Data is lost when the process exits.
type Store struct {
	mu   sync.RWMutex
	docs []storage.Document
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// Init is a no-op.
func (s *Store) Init(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// FindOneByName returns the first item whose folded name equals the folded name.
func (s *Store) FindOneByName(ctx context.Context, name string) (*models.GroceryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := storage.FoldKey(name)
	for _, d := range s.docs {
		if d.ItemKey == key {
			item := d.Item()
			return &item, nil
		}
	}
	return nil, storage.ErrNotFound
}

// FindAll returns a copy of every item.
func (s *Store) FindAll(ctx context.Context) ([]models.GroceryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.GroceryItem, 0, len(s.docs))
	for _, d := range s.docs {
		items = append(items, d.Item())
	}
	return items, nil
}

// InsertOne appends item unless its folded name is already present.
// The check and the append happen under one write lock.
func (s *Store) InsertOne(ctx context.Context, item models.GroceryItem) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := storage.NewDocument(item)
	for _, d := range s.docs {
		if d.ItemKey == doc.ItemKey {
			return "", storage.ErrDuplicateKey
		}
	}
	s.docs = append(s.docs, doc)
	return doc.ID.Hex(), nil
}

// DeleteManyByName removes every document named exactly name.
func (s *Store) DeleteManyByName(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	kept := s.docs[:0]
	for _, d := range s.docs {
		if d.ItemName == name {
			deleted++
			continue
		}
		kept = append(kept, d)
	}
	s.docs = kept
	return deleted, nil
}

// UpdateOneQuantity sets the quantity of the first document named exactly name.
func (s *Store) UpdateOneQuantity(ctx context.Context, name string, quantity int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.docs {
		if s.docs[i].ItemName == name {
			s.docs[i].Quantity = quantity
			return 1, nil
		}
	}
	return 0, nil
}
