// Package grocery implements the grocery list operations over an ItemStore.
package grocery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iggydv12/gogrocery/internal/models"
	"github.com/iggydv12/gogrocery/internal/storage"
)

// UpdateOutcome tells an in-place update apart from an upsert.
type UpdateOutcome int

const (
	// Updated means an existing item had its quantity changed.
	Updated UpdateOutcome = iota
	// Inserted means no item matched and a new one was created.
	Inserted
)

func (o UpdateOutcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case Inserted:
		return "inserted"
	default:
		return "unknown"
	}
}

// Service applies grocery list policy on top of an ItemStore.
type Service struct {
	store     storage.ItemStore
	validator *Validator
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a Service over store.
func NewService(store storage.ItemStore, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		validator: NewValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// AddItem inserts a new item and returns its id.
// Names are unique ignoring case.
func (s *Service) AddItem(ctx context.Context, in ItemInput) (string, error) {
	in, err := s.validator.Validate(in)
	if err != nil {
		return "", err
	}

	_, err = s.store.FindOneByName(ctx, in.ItemName)
	switch {
	case err == nil:
		return "", fmt.Errorf("%w: %q", ErrDuplicateItem, in.ItemName)
	case !errors.Is(err, storage.ErrNotFound):
		return "", s.unavailable("find item", err)
	}

	id, err := s.insert(ctx, in)
	if err != nil {
		return "", err
	}
	s.logger.Info("item added", zap.String("item_name", in.ItemName), zap.String("id", id))
	return id, nil
}

// ListItems returns every item. The result is never nil.
func (s *Service) ListItems(ctx context.Context) ([]models.GroceryItem, error) {
	items, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, s.unavailable("list items", err)
	}
	if items == nil {
		items = []models.GroceryItem{}
	}
	return items, nil
}

// DeleteItem removes every item named exactly name.
// An empty name is passed through and simply matches nothing.
func (s *Service) DeleteItem(ctx context.Context, name string) error {
	n, err := s.store.DeleteManyByName(ctx, name)
	if err != nil {
		return s.unavailable("delete item", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	s.logger.Info("item deleted", zap.String("item_name", name), zap.Int64("count", n))
	return nil
}

// UpdateItem sets the quantity of the item named exactly in.ItemName.
// When nothing matches the item is inserted instead; that insert still returns
// ErrDuplicateItem if a case variant of the name already exists.
func (s *Service) UpdateItem(ctx context.Context, in ItemInput) (UpdateOutcome, error) {
	in, err := s.validator.Validate(in)
	if err != nil {
		return Updated, &ValidationError{Detail: "No fields to update"}
	}

	matched, err := s.store.UpdateOneQuantity(ctx, in.ItemName, *in.Quantity)
	if err != nil {
		return Updated, s.unavailable("update item", err)
	}
	if matched > 0 {
		s.logger.Info("item updated", zap.String("item_name", in.ItemName), zap.Int("quantity", *in.Quantity))
		return Updated, nil
	}

	id, err := s.insert(ctx, in)
	if err != nil {
		return Updated, err
	}
	s.logger.Info("item not found, inserted instead", zap.String("item_name", in.ItemName), zap.String("id", id))
	return Inserted, nil
}

// insert stamps the creation date and maps a unique key conflict to ErrDuplicateItem.
// Dates are kept at millisecond precision, which is what BSON stores.
func (s *Service) insert(ctx context.Context, in ItemInput) (string, error) {
	item := models.GroceryItem{
		ItemName: in.ItemName,
		Quantity: *in.Quantity,
		Date:     s.now().UTC().Truncate(time.Millisecond),
	}
	id, err := s.store.InsertOne(ctx, item)
	if errors.Is(err, storage.ErrDuplicateKey) {
		return "", fmt.Errorf("%w: %q", ErrDuplicateItem, in.ItemName)
	}
	if err != nil {
		return "", s.unavailable("insert item", err)
	}
	return id, nil
}

func (s *Service) unavailable(op string, err error) error {
	s.logger.Error("store operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
