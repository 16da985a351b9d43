package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/repository"
)

// OrderRepository реализует OrderStore на PostgreSQL
type OrderRepository struct {
	pool       *pgxpool.Pool
	transactor *Transactor
}

// NewOrderRepository создаёт репозиторий
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool, transactor: NewTransactor(pool)}
}

// Create пишет orders и order_items в одной транзакции
func (r *OrderRepository) Create(ctx context.Context, in domain.NewOrder) (domain.Order, error) {
	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	order := domain.Order{
		ID:       uuid.NewString(),
		UserID:   in.UserID,
		Status:   domain.OrderStatusCreated,
		Items:    append([]domain.OrderItem(nil), in.Items...),
		Amount:   in.Amount,
		Metadata: in.Metadata,
	}

	err := r.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.pool)

		var createdAt time.Time
		err := q.QueryRow(ctx,
			`INSERT INTO orders (id, user_id, status, amount, metadata)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING created_at`,
			order.ID, order.UserID, order.Status, order.Amount, metadata).Scan(&createdAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		order.CreatedAt = createdAt

		for _, it := range order.Items {
			_, err = q.Exec(ctx,
				`INSERT INTO order_items (order_id, item_id, name, quantity, unit_price)
				 VALUES ($1, $2, $3, $4, $5)`,
				order.ID, it.ItemID, it.Name, it.Quantity, it.UnitPrice)
			if err != nil {
				return fmt.Errorf("insert order item %s: %w", it.ItemID, err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// GetByID загружает заказ с позициями, отсортированными по item_id
func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (domain.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return domain.Order{}, repository.ErrNotFound
	}

	q := conn(ctx, r.pool)

	var order domain.Order
	err := q.QueryRow(ctx,
		`SELECT id::text, user_id, status, amount, metadata, created_at
		 FROM orders
		 WHERE id = $1`,
		orderID).Scan(&order.ID, &order.UserID, &order.Status, &order.Amount, &order.Metadata, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, repository.ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT item_id, name, quantity, unit_price
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY item_id`,
		orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	order.Items = make([]domain.OrderItem, 0)
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ItemID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return domain.Order{}, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, it)
	}
	if err := rows.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("read order items: %w", err)
	}

	return order, nil
}
