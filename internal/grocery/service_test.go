package grocery_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iggydv12/gogrocery/internal/grocery"
	"github.com/iggydv12/gogrocery/internal/models"
	"github.com/iggydv12/gogrocery/internal/storage"
	"github.com/iggydv12/gogrocery/internal/storage/memory"
)

func newService(t *testing.T) (*grocery.Service, storage.ItemStore) {
	t.Helper()
	store := memory.New()
	return grocery.NewService(store, zap.NewNop()), store
}

func findByName(t *testing.T, items []models.GroceryItem, name string) []models.GroceryItem {
	t.Helper()
	var out []models.GroceryItem
	for _, it := range items {
		if it.ItemName == name {
			out = append(out, it)
		}
	}
	return out
}

func TestAddThenList(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	id, err := svc.AddItem(ctx, grocery.ItemInput{ItemName: "Apple", Quantity: intPtr(10)})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	matches := findByName(t, items, "Apple")
	require.Len(t, matches, 1)
	assert.Equal(t, id, matches[0].ID)
	assert.Equal(t, 10, matches[0].Quantity)
	assert.True(t, matches[0].Date.After(before))
}

func TestListEmptyIsNotNil(t *testing.T) {
	svc, _ := newService(t)
	items, err := svc.ListItems(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestAddDuplicateAnyCase(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, grocery.ItemInput{ItemName: "Banana", Quantity: intPtr(5)})
	require.NoError(t, err)

	for _, name := range []string{"Banana", "banana", "BANANA"} {
		_, err = svc.AddItem(ctx, grocery.ItemInput{ItemName: name, Quantity: intPtr(1)})
		assert.ErrorIs(t, err, grocery.ErrDuplicateItem, name)
	}
}

func TestAddValidationDoesNotTouchStore(t *testing.T) {
	store := &failingStore{err: errors.New("must not be called")}
	svc := grocery.NewService(store, zap.NewNop())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, grocery.ItemInput{ItemName: "   ", Quantity: intPtr(1)})
	assert.ErrorIs(t, err, grocery.ErrValidation)
	_, err = svc.AddItem(ctx, grocery.ItemInput{ItemName: "Apple"})
	assert.ErrorIs(t, err, grocery.ErrValidation)
	assert.Zero(t, store.calls)
}

func TestDeleteRemovesExactCaseOnly(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, grocery.ItemInput{ItemName: "Grapes", Quantity: intPtr(2)})
	require.NoError(t, err)

	err = svc.DeleteItem(ctx, "grapes")
	assert.ErrorIs(t, err, grocery.ErrNotFound)

	require.NoError(t, svc.DeleteItem(ctx, "Grapes"))
	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, svc.DeleteItem(ctx, "Grapes"), grocery.ErrNotFound)
}

func TestDeleteEmptyNameIsNotFound(t *testing.T) {
	svc, _ := newService(t)
	err := svc.DeleteItem(context.Background(), "")
	assert.ErrorIs(t, err, grocery.ErrNotFound)
	assert.NotErrorIs(t, err, grocery.ErrValidation)
}

func TestUpdateExistingChangesQuantityOnly(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	id, err := svc.AddItem(ctx, grocery.ItemInput{ItemName: "Lemon", Quantity: intPtr(1)})
	require.NoError(t, err)
	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	orig := findByName(t, items, "Lemon")[0]

	outcome, err := svc.UpdateItem(ctx, grocery.ItemInput{ItemName: "Lemon", Quantity: intPtr(15)})
	require.NoError(t, err)
	assert.Equal(t, grocery.Updated, outcome)

	items, err = svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, "Lemon", items[0].ItemName)
	assert.Equal(t, 15, items[0].Quantity)
	assert.True(t, orig.Date.Equal(items[0].Date))
}

func TestUpdateMissingInsertsInstead(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	outcome, err := svc.UpdateItem(ctx, grocery.ItemInput{ItemName: "New Item", Quantity: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, grocery.Inserted, outcome)

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	matches := findByName(t, items, "New Item")
	require.Len(t, matches, 1)
	assert.Equal(t, 5, matches[0].Quantity)
	assert.False(t, matches[0].Date.IsZero())
}

func TestUpdateMissWithCaseVariantIsDuplicate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, grocery.ItemInput{ItemName: "apple", Quantity: intPtr(1)})
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, grocery.ItemInput{ItemName: "Apple", Quantity: intPtr(2)})
	assert.ErrorIs(t, err, grocery.ErrDuplicateItem)
}

func TestAddRejectsUnicodeCaseVariant(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, grocery.ItemInput{ItemName: "ſalt", Quantity: intPtr(1)})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, grocery.ItemInput{ItemName: "Salt", Quantity: intPtr(1)})
	assert.ErrorIs(t, err, grocery.ErrDuplicateItem)

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestUpdateRejectsMissingFields(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, in := range []grocery.ItemInput{
		{ItemName: "", Quantity: intPtr(0)},
		{ItemName: "Lemon"},
		{},
	} {
		_, err := svc.UpdateItem(ctx, in)
		require.ErrorIs(t, err, grocery.ErrValidation)
		var ve *grocery.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "No fields to update", ve.Detail)
	}
}

func TestStoreFailuresAreUnavailable(t *testing.T) {
	cause := errors.New("connection refused")
	svc := grocery.NewService(&failingStore{err: cause}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, grocery.ItemInput{ItemName: "Apple", Quantity: intPtr(1)})
	assert.ErrorIs(t, err, grocery.ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)

	_, err = svc.ListItems(ctx)
	assert.ErrorIs(t, err, grocery.ErrStoreUnavailable)

	err = svc.DeleteItem(ctx, "Apple")
	assert.ErrorIs(t, err, grocery.ErrStoreUnavailable)

	_, err = svc.UpdateItem(ctx, grocery.ItemInput{ItemName: "Apple", Quantity: intPtr(1)})
	assert.ErrorIs(t, err, grocery.ErrStoreUnavailable)
}

func TestScenarioAddDuplicateDeleteTwice(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	id, err := svc.AddItem(ctx, grocery.ItemInput{ItemName: "Apple", Quantity: intPtr(10)})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = svc.AddItem(ctx, grocery.ItemInput{ItemName: "apple", Quantity: intPtr(3)})
	assert.ErrorIs(t, err, grocery.ErrDuplicateItem)

	assert.NoError(t, svc.DeleteItem(ctx, "Apple"))
	assert.ErrorIs(t, svc.DeleteItem(ctx, "Apple"), grocery.ErrNotFound)
}

// failingStore fails every call with err.
type failingStore struct {
	err   error
	calls int
}

func (f *failingStore) Init(ctx context.Context) error { return nil }
func (f *failingStore) Close() error                   { return nil }

func (f *failingStore) FindOneByName(ctx context.Context, name string) (*models.GroceryItem, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) FindAll(ctx context.Context) ([]models.GroceryItem, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) InsertOne(ctx context.Context, item models.GroceryItem) (string, error) {
	f.calls++
	return "", f.err
}

func (f *failingStore) DeleteManyByName(ctx context.Context, name string) (int64, error) {
	f.calls++
	return 0, f.err
}

func (f *failingStore) UpdateOneQuantity(ctx context.Context, name string, quantity int) (int64, error) {
	f.calls++
	return 0, f.err
}
