package stock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/repository/memory"
)

func newTestStore(transactions bool, items ...domain.StockItem) *memory.Store {
	return memory.NewStore(items, transactions)
}

func quantityOf(t *testing.T, store *memory.Store, itemID string) int64 {
	t.Helper()
	item, err := store.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	return item.Quantity
}

func TestUpdater_Deduct(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		itemID        string
		qty           int64
		expectedLeft  int64
		expectedError error
	}{
		{name: "success", itemID: "A", qty: 4, expectedLeft: 6},
		{name: "takes the last unit", itemID: "A", qty: 10, expectedLeft: 0},
		{name: "insufficient stock", itemID: "A", qty: 11, expectedLeft: 10, expectedError: domain.ErrInsufficientStock},
		{name: "missing item", itemID: "B", qty: 1, expectedError: domain.ErrNotFound},
		{name: "zero quantity", itemID: "A", qty: 0, expectedLeft: 10, expectedError: domain.ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(false, domain.StockItem{ID: "A", Quantity: 10})
			updater := NewUpdater(store, zap.NewNop())

			item, err := updater.Deduct(ctx, tt.itemID, tt.qty)

			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.expectedLeft, item.Quantity)
			}
			if tt.itemID == "A" {
				require.Equal(t, tt.expectedLeft, quantityOf(t, store, "A"))
			}
		})
	}
}

func TestUpdater_Deduct_InsufficientCarriesNumbers(t *testing.T) {
	store := newTestStore(false, domain.StockItem{ID: "A", Quantity: 2})
	updater := NewUpdater(store, zap.NewNop())

	_, err := updater.Deduct(context.Background(), "A", 3)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "A", insufficient.ItemID)
	assert.Equal(t, int64(2), insufficient.Available)
	assert.Equal(t, int64(3), insufficient.Requested)
	assert.Contains(t, err.Error(), "insufficient stock: available=2 requested=3")
}

func TestUpdater_Restore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(false, domain.StockItem{ID: "A", Quantity: 0})
	updater := NewUpdater(store, zap.NewNop())

	item, err := updater.Restore(ctx, "A", 4)
	require.NoError(t, err)
	require.Equal(t, int64(4), item.Quantity)

	_, err = updater.Restore(ctx, "missing", 1)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "missing", notFound.ItemID)

	_, err = updater.Restore(ctx, "A", -1)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestUpdater_Apply_UnknownOperation(t *testing.T) {
	updater := NewUpdater(newTestStore(false, domain.StockItem{ID: "A", Quantity: 1}), zap.NewNop())

	_, err := updater.Apply(context.Background(), domain.StockMutation{ItemID: "A", Quantity: 1, Operation: "swap"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown stock operation")
}

func TestUpdater_ConcurrentDeductions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(false, domain.StockItem{ID: "A", Quantity: 5})
	updater := NewUpdater(store, zap.NewNop())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = updater.Deduct(ctx, "A", 3)
		}(i)
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, insufficient)
	require.Equal(t, int64(2), quantityOf(t, store, "A"))
}

func TestUpdater_ManyConcurrentDeductionsNeverOversell(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(false, domain.StockItem{ID: "A", Quantity: 37})
	updater := NewUpdater(store, zap.NewNop())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		deducted int64
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(qty int64) {
			defer wg.Done()
			if _, err := updater.Deduct(ctx, "A", qty); err == nil {
				mu.Lock()
				deducted += qty
				mu.Unlock()
			}
		}(int64(i%4 + 1))
	}
	wg.Wait()

	left := quantityOf(t, store, "A")
	require.GreaterOrEqual(t, left, int64(0))
	require.Equal(t, int64(37), left+deducted)
}
