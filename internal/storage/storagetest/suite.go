// Package storagetest holds the behavioural checks every ItemStore must pass.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iggydv12/gogrocery/internal/models"
	"github.com/iggydv12/gogrocery/internal/storage"
)

// Run exercises an ItemStore. newStore must return an initialised, empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.ItemStore) {
	t.Helper()

	t.Run("InsertAndFindFold", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.InsertOne(ctx, item("Apple", 10))
		require.NoError(t, err)
		assert.Len(t, id, 24)

		got, err := s.FindOneByName(ctx, "aPPLE")
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "Apple", got.ItemName)
		assert.Equal(t, 10, got.Quantity)
	})

	t.Run("FindMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.FindOneByName(context.Background(), "nothing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("FindDoesNotTreatNameAsPattern", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.InsertOne(ctx, item("a+b", 1))
		require.NoError(t, err)

		_, err = s.FindOneByName(ctx, "aab")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = s.FindOneByName(ctx, "A+B")
		assert.NoError(t, err)
	})

	t.Run("InsertDuplicateFold", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.InsertOne(ctx, item("Milk", 1))
		require.NoError(t, err)

		_, err = s.InsertOne(ctx, item("MILK", 2))
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("InsertDuplicateUnicodeFold", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.InsertOne(ctx, item("ΛΑΣ", 1))
		require.NoError(t, err)

		// Final sigma folds to the same key as capital sigma.
		_, err = s.InsertOne(ctx, item("λας", 2))
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)

		got, err := s.FindOneByName(ctx, "λας")
		require.NoError(t, err)
		assert.Equal(t, "ΛΑΣ", got.ItemName)
	})

	t.Run("ConcurrentInsertSameKey", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			success int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.InsertOne(ctx, item("Bread", 1)); err == nil {
					mu.Lock()
					success++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, success)
	})

	t.Run("FindAll", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		items, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)

		for _, name := range []string{"Eggs", "Flour", "Sugar"} {
			_, err := s.InsertOne(ctx, item(name, 3))
			require.NoError(t, err)
		}
		items, err = s.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, items, 3)

		names := make([]string, 0, len(items))
		for _, it := range items {
			names = append(names, it.ItemName)
			assert.NotEmpty(t, it.ID)
			assert.False(t, it.Date.IsZero())
		}
		assert.ElementsMatch(t, []string{"Eggs", "Flour", "Sugar"}, names)
	})

	t.Run("DeleteExactCase", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.InsertOne(ctx, item("Grapes", 2))
		require.NoError(t, err)

		n, err := s.DeleteManyByName(ctx, "grapes")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		n, err = s.DeleteManyByName(ctx, "Grapes")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = s.FindOneByName(ctx, "Grapes")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		// The name is free again once deleted.
		_, err = s.InsertOne(ctx, item("GRAPES", 4))
		assert.NoError(t, err)
	})

	t.Run("UpdateQuantityOnly", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		orig := item("Lemon", 1)
		id, err := s.InsertOne(ctx, orig)
		require.NoError(t, err)

		n, err := s.UpdateOneQuantity(ctx, "lemon", 9)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		n, err = s.UpdateOneQuantity(ctx, "Lemon", 15)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := s.FindOneByName(ctx, "Lemon")
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "Lemon", got.ItemName)
		assert.Equal(t, 15, got.Quantity)
		assert.True(t, orig.Date.Equal(got.Date))
	})
}

func item(name string, quantity int) models.GroceryItem {
	return models.GroceryItem{
		ItemName: name,
		Quantity: quantity,
		Date:     time.Now().UTC().Truncate(time.Millisecond),
	}
}
