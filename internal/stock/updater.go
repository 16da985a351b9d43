package stock

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/repository"
)

// Updater применяет одиночные изменения остатков
// Каждый вызов - одна условная операция хранилища, поэтому два параллельных списания
// одного товара не могут оба пройти проверку остатка
//
// Если в ctx есть транзакция, открытая Transactor хранилища, запись выполняется в ней
type Updater struct {
	store  repository.StockStore
	logger *zap.Logger
}

// NewUpdater создаёт updater поверх хранилища
func NewUpdater(store repository.StockStore, logger *zap.Logger) *Updater {
	return &Updater{
		store:  store,
		logger: logger,
	}
}

// Deduct уменьшает остаток на qty, если доступно не меньше qty
// Возвращает NotFoundError или InsufficientStockError, если списание не прошло
func (u *Updater) Deduct(ctx context.Context, itemID string, qty int64) (domain.StockItem, error) {
	if qty <= 0 {
		return domain.StockItem{}, &domain.InvalidQuantityError{ItemID: itemID, Quantity: qty}
	}

	item, ok, err := u.store.DecrementIfAvailable(ctx, itemID, qty)
	if err != nil {
		return domain.StockItem{}, fmt.Errorf("deduct %s: %w", itemID, err)
	}
	if ok {
		u.logger.Debug("stock deducted",
			zap.String("item_id", itemID),
			zap.Int64("quantity", qty),
			zap.Int64("remaining", item.Quantity),
		)
		return item, nil
	}

	// Условие не сработало: выясняем, нет товара или просто не хватает
	current, err := u.store.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.StockItem{}, &domain.NotFoundError{ItemID: itemID}
		}
		return domain.StockItem{}, fmt.Errorf("deduct %s: re-read after guard miss: %w", itemID, err)
	}

	u.logger.Debug("stock deduction rejected",
		zap.String("item_id", itemID),
		zap.Int64("available", current.Quantity),
		zap.Int64("requested", qty),
	)
	return domain.StockItem{}, &domain.InsufficientStockError{
		ItemID:    itemID,
		Available: current.Quantity,
		Requested: qty,
	}
}

// Restore увеличивает остаток на qty без условий
func (u *Updater) Restore(ctx context.Context, itemID string, qty int64) (domain.StockItem, error) {
	if qty <= 0 {
		return domain.StockItem{}, &domain.InvalidQuantityError{ItemID: itemID, Quantity: qty}
	}

	item, err := u.store.Increment(ctx, itemID, qty)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.StockItem{}, &domain.NotFoundError{ItemID: itemID}
		}
		return domain.StockItem{}, fmt.Errorf("restore %s: %w", itemID, err)
	}

	u.logger.Debug("stock restored",
		zap.String("item_id", itemID),
		zap.Int64("quantity", qty),
		zap.Int64("remaining", item.Quantity),
	)
	return item, nil
}

// Apply передаёт m в Deduct или Restore по типу операции
func (u *Updater) Apply(ctx context.Context, m domain.StockMutation) (domain.StockItem, error) {
	switch m.Operation {
	case domain.OperationDeduct:
		return u.Deduct(ctx, m.ItemID, m.Quantity)
	case domain.OperationRestore:
		return u.Restore(ctx, m.ItemID, m.Quantity)
	default:
		return domain.StockItem{}, fmt.Errorf("unknown stock operation %q", m.Operation)
	}
}
