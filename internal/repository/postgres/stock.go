package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/repository"
)

// StockRepository реализует StockStore на PostgreSQL
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository создаёт репозиторий
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

const stockColumns = `id, name, quantity, unit_price, updated_at`

func scanStockItem(row pgx.Row) (domain.StockItem, error) {
	var item domain.StockItem
	err := row.Scan(&item.ID, &item.Name, &item.Quantity, &item.UnitPrice, &item.UpdatedAt)
	return item, err
}

// GetItem возвращает товар или ErrNotFound
func (r *StockRepository) GetItem(ctx context.Context, itemID string) (domain.StockItem, error) {
	item, err := scanStockItem(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+stockColumns+` FROM stock_items WHERE id = $1`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StockItem{}, repository.ErrNotFound
		}
		return domain.StockItem{}, fmt.Errorf("select stock item: %w", err)
	}
	return item, nil
}

// DecrementIfAvailable - один UPDATE с условием на остаток
// Нет строки значит товара нет или не хватает
func (r *StockRepository) DecrementIfAvailable(ctx context.Context, itemID string, qty int64) (domain.StockItem, bool, error) {
	item, err := scanStockItem(conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE stock_items
		 SET quantity = quantity - $2, updated_at = now()
		 WHERE id = $1 AND quantity >= $2
		 RETURNING `+stockColumns,
		itemID, qty))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StockItem{}, false, nil
		}
		return domain.StockItem{}, false, fmt.Errorf("decrement stock: %w", err)
	}
	return item, true, nil
}

// Increment добавляет qty одним UPDATE
// Возвращает ErrNotFound, если товара нет
func (r *StockRepository) Increment(ctx context.Context, itemID string, qty int64) (domain.StockItem, error) {
	item, err := scanStockItem(conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE stock_items
		 SET quantity = quantity + $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+stockColumns,
		itemID, qty))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StockItem{}, repository.ErrNotFound
		}
		return domain.StockItem{}, fmt.Errorf("increment stock: %w", err)
	}
	return item, nil
}

// Upsert записывает товар как есть
// Только для наполнения каталога
func (r *StockRepository) Upsert(ctx context.Context, item domain.StockItem) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO stock_items (id, name, quantity, unit_price)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   quantity = EXCLUDED.quantity,
		   unit_price = EXCLUDED.unit_price,
		   updated_at = now()`,
		item.ID, item.Name, item.Quantity, item.UnitPrice)
	if err != nil {
		return fmt.Errorf("upsert stock item: %w", err)
	}
	return nil
}
