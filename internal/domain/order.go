package domain

import "time"

// Статусы заказа, которые пишут хранилища заказов
const (
	OrderStatusCreated = "created"
)

// RequestedItem - одна строка входящего запроса заказа
type RequestedItem struct {
	ItemID   string
	Name     string
	Quantity int64
}

// OrderItem - позиция заказа с ценой
// Цена берётся из снимка каталога, сделанного при валидации
type OrderItem struct {
	ItemID    string
	Name      string
	Quantity  int64
	UnitPrice int64
}

// Total возвращает количество, умноженное на цену за единицу
// Переполнение отсекает валидатор до создания позиции
func (i OrderItem) Total() int64 {
	return i.Quantity * i.UnitPrice
}

// NewOrder передаётся в OrderStore после успешного резервирования
type NewOrder struct {
	UserID   string
	Items    []OrderItem
	Amount   int64
	Metadata map[string]string
}

// Order - сохранённый заказ в том виде, в каком его вернул OrderStore
type Order struct {
	ID        string
	UserID    string
	Status    string
	Items     []OrderItem
	Amount    int64
	Metadata  map[string]string
	CreatedAt time.Time
}

// OrderAmount суммирует стоимость всех позиций
func OrderAmount(items []OrderItem) int64 {
	var amount int64
	for _, it := range items {
		amount += it.Total()
	}
	return amount
}

// WorkflowState - шаг машины состояний оформления заказа
type WorkflowState string

const (
	StateValidating   WorkflowState = "validating"
	StateReserving    WorkflowState = "reserving"
	StateCreating     WorkflowState = "creating"
	StateCompensating WorkflowState = "compensating"
	StateCompleted    WorkflowState = "completed"
	StateFailed       WorkflowState = "failed"
)
