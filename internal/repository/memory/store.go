package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/repository"
)

// Store реализует StockStore, Transactor и StorageCapabilityProbe в памяти
// Используется для локального запуска и тестов
// Транзакция эмулируется: блокировка держится весь callback, при ошибке откат к снимку
type Store struct {
	mu    sync.RWMutex
	items map[string]domain.StockItem

	txMu         sync.RWMutex
	transactions bool
}

type txKey struct{ store *Store }

// NewStore создаёт хранилище с начальными товарами
// transactions включает WithTransaction: true эмулирует replica set, false - standalone
func NewStore(items []domain.StockItem, transactions bool) *Store {
	s := &Store{
		items:        make(map[string]domain.StockItem, len(items)),
		transactions: transactions,
	}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

// SetTransactions переключает поддержку транзакций, например для эмуляции смены топологии
func (s *Store) SetTransactions(enabled bool) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.transactions = enabled
}

func (s *Store) transactionsEnabled() bool {
	s.txMu.RLock()
	defer s.txMu.RUnlock()
	return s.transactions
}

// Put вставляет или заменяет товар
// Только для правки каталога, резервирование его не вызывает
func (s *Store) Put(item domain.StockItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *Store) inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(*Store)
	return v == s
}

// lock берёт блокировку на запись, если ctx не внутри транзакции этого хранилища
// Транзакция держит блокировку сама на весь callback
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// GetItem возвращает копию товара или ErrNotFound
func (s *Store) GetItem(ctx context.Context, itemID string) (domain.StockItem, error) {
	if !s.inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}

	item, exists := s.items[itemID]
	if !exists {
		return domain.StockItem{}, repository.ErrNotFound
	}
	return item, nil
}

// DecrementIfAvailable проверяет и уменьшает остаток под одной блокировкой
func (s *Store) DecrementIfAvailable(ctx context.Context, itemID string, qty int64) (domain.StockItem, bool, error) {
	unlock := s.lock(ctx)
	defer unlock()

	item, exists := s.items[itemID]
	if !exists || item.Quantity < qty {
		return domain.StockItem{}, false, nil
	}

	item.Quantity -= qty
	item.UpdatedAt = time.Now()
	s.items[itemID] = item
	return item, true, nil
}

// Increment добавляет qty к существующему товару
func (s *Store) Increment(ctx context.Context, itemID string, qty int64) (domain.StockItem, error) {
	unlock := s.lock(ctx)
	defer unlock()

	item, exists := s.items[itemID]
	if !exists {
		return domain.StockItem{}, repository.ErrNotFound
	}

	item.Quantity += qty
	item.UpdatedAt = time.Now()
	s.items[itemID] = item
	return item, nil
}

// WithTransaction выполняет fn под блокировкой хранилища
// Любая ошибка восстанавливает снимок, сделанный до fn
// Вложенные вызовы присоединяются к внешней транзакции
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactionsEnabled() {
		return fmt.Errorf("memory store: %w", repository.ErrTransactionsUnsupported)
	}
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]domain.StockItem, len(s.items))
	for k, v := range s.items {
		snapshot[k] = v
	}

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.items = snapshot
		return err
	}
	return nil
}

// Topology ничего не решает заранее, решает пробная транзакция
func (s *Store) Topology(ctx context.Context) (repository.TopologyHint, error) {
	return repository.TopologyHint{Kind: repository.TopologyUnknown, Version: "memory"}, nil
}

// ProbeTransaction выполняет пустое чтение в транзакции
func (s *Store) ProbeTransaction(ctx context.Context) error {
	return s.WithTransaction(ctx, func(ctx context.Context) error {
		_ = len(s.items)
		return nil
	})
}
