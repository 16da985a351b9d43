package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/repository"
)

const stockCollection = "stock_items"

// StockDocument представляет товар в коллекции stock_items
type StockDocument struct {
	ItemID    string    `bson:"item_id"`
	Name      string    `bson:"name"`
	Quantity  int64     `bson:"quantity"`
	UnitPrice int64     `bson:"unit_price"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d StockDocument) toDomain() domain.StockItem {
	return domain.StockItem{
		ID:        d.ItemID,
		Name:      d.Name,
		Quantity:  d.Quantity,
		UnitPrice: d.UnitPrice,
		UpdatedAt: d.UpdatedAt,
	}
}

// StockRepository реализует StockStore на MongoDB
// Если ctx - mongo.SessionContext, операции выполняются в транзакции сессии
type StockRepository struct {
	client *mongo.Client
	col    *mongo.Collection
}

// NewStockRepository создаёт репозиторий
// Создаёт уникальный индекс на item_id
func NewStockRepository(client *mongo.Client, dbName string) *StockRepository {
	col := client.Database(dbName).Collection(stockCollection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "item_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// существующий индекс не ошибка
	_, _ = col.Indexes().CreateOne(ctx, indexModel)

	return &StockRepository{
		client: client,
		col:    col,
	}
}

// GetItem возвращает товар или ErrNotFound
func (r *StockRepository) GetItem(ctx context.Context, itemID string) (domain.StockItem, error) {
	var doc StockDocument
	err := r.col.FindOne(ctx, bson.M{"item_id": itemID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.StockItem{}, repository.ErrNotFound
		}
		return domain.StockItem{}, fmt.Errorf("find stock item: %w", err)
	}
	return doc.toDomain(), nil
}

// DecrementIfAvailable выполняет один FindOneAndUpdate с условием quantity >= qty
// Проверка и уменьшение атомарны
func (r *StockRepository) DecrementIfAvailable(ctx context.Context, itemID string, qty int64) (domain.StockItem, bool, error) {
	filter := bson.M{
		"item_id":  itemID,
		"quantity": bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc": bson.M{"quantity": -qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc StockDocument
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// товара нет или не хватает, различает вызывающий повторным чтением
			return domain.StockItem{}, false, nil
		}
		return domain.StockItem{}, false, fmt.Errorf("decrement stock: %w", err)
	}
	return doc.toDomain(), true, nil
}

// Increment добавляет qty через $inc
// Возвращает ErrNotFound, если товара нет
func (r *StockRepository) Increment(ctx context.Context, itemID string, qty int64) (domain.StockItem, error) {
	update := bson.M{
		"$inc": bson.M{"quantity": qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc StockDocument
	err := r.col.FindOneAndUpdate(ctx, bson.M{"item_id": itemID}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.StockItem{}, repository.ErrNotFound
		}
		return domain.StockItem{}, fmt.Errorf("increment stock: %w", err)
	}
	return doc.toDomain(), nil
}

// Upsert записывает товар как есть
// Только для наполнения каталога
func (r *StockRepository) Upsert(ctx context.Context, item domain.StockItem) error {
	doc := StockDocument{
		ItemID:    item.ID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := r.col.ReplaceOne(ctx, bson.M{"item_id": item.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert stock item: %w", err)
	}
	return nil
}
