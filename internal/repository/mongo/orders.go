package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/repository"
)

const ordersCollection = "orders"

type orderItemDocument struct {
	ItemID    string `bson:"item_id"`
	Name      string `bson:"name"`
	Quantity  int64  `bson:"quantity"`
	UnitPrice int64  `bson:"unit_price"`
}

// OrderDocument представляет заказ в коллекции orders
type OrderDocument struct {
	OrderID   string              `bson:"order_id"`
	UserID    string              `bson:"user_id"`
	Status    string              `bson:"status"`
	Items     []orderItemDocument `bson:"items"`
	Amount    int64               `bson:"amount"`
	Metadata  map[string]string   `bson:"metadata,omitempty"`
	CreatedAt time.Time           `bson:"created_at"`
}

// OrderRepository реализует OrderStore на MongoDB
type OrderRepository struct {
	col *mongo.Collection
}

// NewOrderRepository создаёт репозиторий
// Создаёт уникальный индекс на order_id
func NewOrderRepository(client *mongo.Client, dbName string) *OrderRepository {
	col := client.Database(dbName).Collection(ordersCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "order_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &OrderRepository{col: col}
}

// Create вставляет заказ под новым uuid
func (r *OrderRepository) Create(ctx context.Context, in domain.NewOrder) (domain.Order, error) {
	doc := OrderDocument{
		OrderID:   uuid.NewString(),
		UserID:    in.UserID,
		Status:    domain.OrderStatusCreated,
		Items:     make([]orderItemDocument, 0, len(in.Items)),
		Amount:    in.Amount,
		Metadata:  in.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	for _, it := range in.Items {
		doc.Items = append(doc.Items, orderItemDocument{
			ItemID:    it.ItemID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return doc.toDomain(), nil
}

// GetByID возвращает заказ или ErrNotFound
func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (domain.Order, error) {
	var doc OrderDocument
	err := r.col.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Order{}, repository.ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("find order: %w", err)
	}
	return doc.toDomain(), nil
}

func (d OrderDocument) toDomain() domain.Order {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, domain.OrderItem{
			ItemID:    it.ItemID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return domain.Order{
		ID:        d.OrderID,
		UserID:    d.UserID,
		Status:    d.Status,
		Items:     items,
		Amount:    d.Amount,
		Metadata:  d.Metadata,
		CreatedAt: d.CreatedAt,
	}
}
