package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=ItemCatalog --dir=. --output=./mocks --outpkg=mocks

// ItemCatalog читает текущие остатки
// Каталог редактируется не здесь
type ItemCatalog interface {
	// GetItem возвращает товар или ErrNotFound
	GetItem(ctx context.Context, itemID string) (domain.StockItem, error)
}

// StockStore - сторона хранилища для атомарного updater
// Оба метода записи обязаны быть одной неделимой операцией хранилища
// Если в ctx есть транзакция Transactor того же хранилища, запись выполняется в ней
type StockStore interface {
	ItemCatalog

	// DecrementIfAvailable уменьшает quantity на qty, только если quantity >= qty
	// ok == false, если запись не подошла: товара нет или остатка не хватает
	DecrementIfAvailable(ctx context.Context, itemID string, qty int64) (item domain.StockItem, ok bool, err error)

	// Increment увеличивает quantity на qty
	// Возвращает ErrNotFound, если товара нет
	Increment(ctx context.Context, itemID string, qty int64) (domain.StockItem, error)
}

// Transactor выполняет fn внутри одной транзакции хранилища
// fn получает контекст, который нужно передавать в вызовы StockStore
// Ошибка из fn откатывает транзакцию
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TopologyKind - что хранилище сообщает о своём развёртывании
type TopologyKind string

const (
	TopologyUnknown    TopologyKind = "unknown"
	TopologyStandalone TopologyKind = "standalone"
	TopologyReplicaSet TopologyKind = "replica_set"
	TopologySharded    TopologyKind = "sharded"
	TopologyRelational TopologyKind = "relational"
)

// TopologyHint - быстрая подсказка до пробной транзакции
type TopologyHint struct {
	Kind    TopologyKind
	Version string
	// Unsupported == true, если хранилище уже знает, что транзакций нет
	// Например standalone сервер или слишком старая версия
	Unsupported bool
	Reason      string
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=StorageCapabilityProbe --dir=. --output=./mocks --outpkg=mocks

// StorageCapabilityProbe используется только детектором транзакций
type StorageCapabilityProbe interface {
	// Topology смотрит на хранилище без открытия транзакции
	Topology(ctx context.Context) (TopologyHint, error)
	// ProbeTransaction открывает транзакцию, делает одно чтение и коммитит
	ProbeTransaction(ctx context.Context) error
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=OrderStore --dir=. --output=./mocks --outpkg=mocks

// OrderStore сохраняет заказы
// Не входит в ядро резервирования
type OrderStore interface {
	// Create сохраняет новый заказ и возвращает его с ID
	Create(ctx context.Context, order domain.NewOrder) (domain.Order, error)
	// GetByID возвращает заказ или ErrNotFound
	GetByID(ctx context.Context, orderID string) (domain.Order, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=RestoreGuard --dir=. --output=./mocks --outpkg=mocks

// RestoreGuard гарантирует не более одного RestoreStockForOrder на заказ
type RestoreGuard interface {
	// Claim занимает key на ttl
	// Возвращает false, если key уже занят
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release освобождает key для следующего Claim
	Release(ctx context.Context, key string) error
}

// ErrNotFound возвращается хранилищами, если товара или заказа нет
// errors.Is(ErrNotFound, domain.ErrNotFound) == true
var ErrNotFound = domain.ErrNotFound

// ErrTransactionsUnsupported оборачивается пробой и транзакторами, если хранилище
// сообщает, что не умеет многодокументные транзакции
var ErrTransactionsUnsupported = errors.New("transactions are not supported by this deployment")
