package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/repository"
)

// OrderRepository реализует OrderStore в памяти
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

// NewOrderRepository создаёт пустое in-memory хранилище заказов
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]domain.Order),
	}
}

// Create сохраняет заказ под новым uuid
func (r *OrderRepository) Create(ctx context.Context, in domain.NewOrder) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order := domain.Order{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Status:    domain.OrderStatusCreated,
		Items:     append([]domain.OrderItem(nil), in.Items...),
		Amount:    in.Amount,
		Metadata:  in.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	r.orders[order.ID] = order
	return order, nil
}

// GetByID возвращает копию заказа или ErrNotFound
func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, exists := r.orders[orderID]
	if !exists {
		return domain.Order{}, repository.ErrNotFound
	}
	return order, nil
}
