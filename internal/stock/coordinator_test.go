package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/stock/internal/capability"
	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/repository/memory"
)

func deduct(itemID string, qty int64) domain.StockMutation {
	return domain.StockMutation{ItemID: itemID, Quantity: qty, Operation: domain.OperationDeduct}
}

func newCoordinator(store *memory.Store) *Coordinator {
	detector := capability.NewDetector(store, capability.NewState(), zap.NewNop())
	return NewCoordinator(NewUpdater(store, zap.NewNop()), store, detector, zap.NewNop())
}

func TestCoordinator_Transactional(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		mutations   []domain.StockMutation
		expectedA   int64
		expectedB   int64
		expectedErr error
	}{
		{
			name:      "all applied",
			mutations: []domain.StockMutation{deduct("A", 4), deduct("B", 2)},
			expectedA: 6,
			expectedB: 3,
		},
		{
			name:        "second item short rolls back the first",
			mutations:   []domain.StockMutation{deduct("A", 4), deduct("B", 6)},
			expectedA:   10,
			expectedB:   5,
			expectedErr: domain.ErrInsufficientStock,
		},
		{
			name:        "missing item rolls back everything",
			mutations:   []domain.StockMutation{deduct("A", 1), deduct("B", 1), deduct("C", 1)},
			expectedA:   10,
			expectedB:   5,
			expectedErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(true, domain.StockItem{ID: "A", Quantity: 10}, domain.StockItem{ID: "B", Quantity: 5})
			coordinator := newCoordinator(store)
			require.Equal(t, domain.ModeTransactional, coordinator.Mode(ctx))

			applied, err := coordinator.Apply(ctx, tt.mutations)

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				var aborted *domain.ReservationAbortedError
				require.ErrorAs(t, err, &aborted)
				assert.Equal(t, domain.ModeTransactional, aborted.Mode)
				assert.Empty(t, aborted.Applied)
				assert.Empty(t, applied)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.mutations, applied)
			}
			require.Equal(t, tt.expectedA, quantityOf(t, store, "A"))
			require.Equal(t, tt.expectedB, quantityOf(t, store, "B"))
		})
	}
}

func TestCoordinator_Sequential_ReturnsAppliedPrefix(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(false,
		domain.StockItem{ID: "A", Quantity: 10},
		domain.StockItem{ID: "B", Quantity: 5},
		domain.StockItem{ID: "C", Quantity: 1},
	)
	coordinator := newCoordinator(store)
	require.Equal(t, domain.ModeSequential, coordinator.Mode(ctx))

	applied, err := coordinator.Apply(ctx, []domain.StockMutation{deduct("A", 4), deduct("B", 2), deduct("C", 2), deduct("A", 1)})

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var aborted *domain.ReservationAbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Equal(t, domain.ModeSequential, aborted.Mode)
	assert.Equal(t, "C", aborted.Failed.ItemID)
	assert.Equal(t, []domain.StockMutation{deduct("A", 4), deduct("B", 2)}, aborted.Applied)
	assert.Equal(t, aborted.Applied, applied)

	// префикс остаётся списанным, пока вызывающий его не компенсирует
	require.Equal(t, int64(6), quantityOf(t, store, "A"))
	require.Equal(t, int64(3), quantityOf(t, store, "B"))
	require.Equal(t, int64(1), quantityOf(t, store, "C"))
}

func TestCoordinator_FallsBackWhenTransactionsDisappear(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(true, domain.StockItem{ID: "A", Quantity: 10})
	coordinator := newCoordinator(store)
	require.Equal(t, domain.ModeTransactional, coordinator.Mode(ctx))

	// переключение на узел без транзакций после кеширования capability
	store.SetTransactions(false)

	applied, err := coordinator.Apply(ctx, []domain.StockMutation{deduct("A", 3)})
	require.NoError(t, err)
	require.Len(t, applied, 1)
	require.Equal(t, int64(7), quantityOf(t, store, "A"))
	require.Equal(t, domain.ModeSequential, coordinator.Mode(ctx))
}

func TestCoordinator_EmptyBatch(t *testing.T) {
	coordinator := newCoordinator(newTestStore(true))

	applied, err := coordinator.Apply(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, applied)
}

func TestCoordinator_NilTransactorIsSequential(t *testing.T) {
	store := newTestStore(true, domain.StockItem{ID: "A", Quantity: 1})
	detector := capability.NewDetector(store, nil, zap.NewNop())
	coordinator := NewCoordinator(NewUpdater(store, zap.NewNop()), nil, detector, zap.NewNop())

	require.Equal(t, domain.ModeSequential, coordinator.Mode(context.Background()))
}

func restore(itemID string, qty int64) domain.StockMutation {
	return domain.StockMutation{ItemID: itemID, Quantity: qty, Operation: domain.OperationRestore}
}

func TestCoordinator_RestoreAttemptsEveryItem(t *testing.T) {
	for _, transactions := range []bool{true, false} {
		store := newTestStore(transactions,
			domain.StockItem{ID: "A", Quantity: 6},
			domain.StockItem{ID: "C", Quantity: 4},
		)
		coordinator := newCoordinator(store)

		result := coordinator.Restore(context.Background(), []domain.StockMutation{
			restore("C", 1),
			restore("B", 2),
			restore("A", 4),
		})

		assert.Equal(t, []domain.StockMutation{restore("C", 1), restore("A", 4)}, result.Restored)
		assert.Equal(t, []domain.StockMutation{restore("B", 2)}, result.Pending)
		require.Len(t, result.Errors, 1)
		require.ErrorIs(t, result.Err(), domain.ErrNotFound)
		assert.False(t, result.Retryable())

		require.Equal(t, int64(10), quantityOf(t, store, "A"))
		require.Equal(t, int64(5), quantityOf(t, store, "C"))
	}
}

func TestRestoreResult_Retryable(t *testing.T) {
	tests := []struct {
		name     string
		result   RestoreResult
		expected bool
	}{
		{name: "nothing failed", result: RestoreResult{Restored: []domain.StockMutation{restore("A", 1)}}},
		{
			name:     "transient failure, nothing applied",
			result:   RestoreResult{Pending: []domain.StockMutation{restore("A", 1)}, Errors: []error{errors.New("timeout")}},
			expected: true,
		},
		{
			name:   "only missing items",
			result: RestoreResult{Pending: []domain.StockMutation{restore("A", 1)}, Errors: []error{&domain.NotFoundError{ItemID: "A"}}},
		},
		{
			name: "partially applied",
			result: RestoreResult{
				Restored: []domain.StockMutation{restore("A", 1)},
				Pending:  []domain.StockMutation{restore("B", 1)},
				Errors:   []error{errors.New("timeout")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.Retryable())
		})
	}
}

func TestCoordinator_RestoreRejectsDeductions(t *testing.T) {
	store := newTestStore(false, domain.StockItem{ID: "A", Quantity: 6})
	coordinator := newCoordinator(store)

	result := coordinator.Restore(context.Background(), []domain.StockMutation{deduct("A", 1)})

	require.Len(t, result.Pending, 1)
	require.Error(t, result.Err())
	require.Equal(t, int64(6), quantityOf(t, store, "A"))
}
