package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/repository"
)

func TestStore_DecrementIfAvailable(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		itemID       string
		qty          int64
		expectedOK   bool
		expectedLeft int64
	}{
		{name: "enough stock", itemID: "A", qty: 4, expectedOK: true, expectedLeft: 6},
		{name: "exact stock", itemID: "A", qty: 10, expectedOK: true, expectedLeft: 0},
		{name: "not enough stock", itemID: "A", qty: 11, expectedOK: false, expectedLeft: 10},
		{name: "missing item", itemID: "missing", qty: 1, expectedOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore([]domain.StockItem{{ID: "A", Quantity: 10}}, true)

			item, ok, err := store.DecrementIfAvailable(ctx, tt.itemID, tt.qty)
			require.NoError(t, err)
			require.Equal(t, tt.expectedOK, ok)
			if ok {
				require.Equal(t, tt.expectedLeft, item.Quantity)
			}

			if tt.itemID == "A" {
				got, err := store.GetItem(ctx, "A")
				require.NoError(t, err)
				require.Equal(t, tt.expectedLeft, got.Quantity)
			}
		})
	}
}

func TestStore_Increment_NotFound(t *testing.T) {
	store := NewStore(nil, true)

	_, err := store.Increment(context.Background(), "missing", 1)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_ConcurrentDecrementNeverNegative(t *testing.T) {
	ctx := context.Background()
	store := NewStore([]domain.StockItem{{ID: "A", Quantity: 50}}, true)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := store.DecrementIfAvailable(ctx, "A", 1)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	item, err := store.GetItem(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, 50, succeeded)
	require.Equal(t, int64(0), item.Quantity)
}

func TestStore_WithTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commit keeps all writes", func(t *testing.T) {
		store := NewStore([]domain.StockItem{{ID: "A", Quantity: 10}, {ID: "B", Quantity: 5}}, true)

		err := store.WithTransaction(ctx, func(txCtx context.Context) error {
			if _, _, err := store.DecrementIfAvailable(txCtx, "A", 4); err != nil {
				return err
			}
			_, _, err := store.DecrementIfAvailable(txCtx, "B", 2)
			return err
		})
		require.NoError(t, err)

		a, _ := store.GetItem(ctx, "A")
		b, _ := store.GetItem(ctx, "B")
		require.Equal(t, int64(6), a.Quantity)
		require.Equal(t, int64(3), b.Quantity)
	})

	t.Run("error rolls back all writes", func(t *testing.T) {
		store := NewStore([]domain.StockItem{{ID: "A", Quantity: 10}, {ID: "B", Quantity: 5}}, true)
		boom := errors.New("boom")

		err := store.WithTransaction(ctx, func(txCtx context.Context) error {
			if _, _, err := store.DecrementIfAvailable(txCtx, "A", 4); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		a, _ := store.GetItem(ctx, "A")
		require.Equal(t, int64(10), a.Quantity)
	})

	t.Run("unsupported when transactions are off", func(t *testing.T) {
		store := NewStore(nil, false)

		err := store.WithTransaction(ctx, func(context.Context) error { return nil })
		require.ErrorIs(t, err, repository.ErrTransactionsUnsupported)
		require.ErrorIs(t, store.ProbeTransaction(ctx), repository.ErrTransactionsUnsupported)
	})
}
