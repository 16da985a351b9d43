package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound совпадает с любой ошибкой об отсутствующем товаре или заказе
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock совпадает с любой InsufficientStockError
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity совпадает с InvalidQuantityError и QuantityOverflowError
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrEmptyOrder возвращается, если в запросе заказа нет позиций
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// ErrAlreadyRestored возвращается при повторном восстановлении остатков по заказу
	ErrAlreadyRestored = errors.New("stock already restored for order")
)

// NotFoundError сообщает, что товар с указанным ID не существует
type NotFoundError struct {
	ItemID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item %s: item not found", e.ItemID)
}

// Is позволяет проверять ошибку через errors.Is(err, ErrNotFound)
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InsufficientStockError сообщает, что на складе меньше единиц, чем запрошено
// Available содержит остаток на момент проверки
type InsufficientStockError struct {
	ItemID    string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("item %s: insufficient stock: available=%d requested=%d", e.ItemID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InvalidQuantityError сообщает о неположительном количестве в запросе
type InvalidQuantityError struct {
	ItemID   string
	Quantity int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("item %s: quantity must be positive, got %d", e.ItemID, e.Quantity)
}

func (e *InvalidQuantityError) Is(target error) bool {
	return target == ErrInvalidQuantity
}

// QuantityOverflowError сообщает, что суммарное количество или стоимость позиции не помещается в int64
// Для errors.Is ведёт себя как ErrInvalidQuantity
type QuantityOverflowError struct {
	ItemID string
}

func (e *QuantityOverflowError) Error() string {
	return fmt.Sprintf("item %s: quantity or amount out of range", e.ItemID)
}

func (e *QuantityOverflowError) Is(target error) bool {
	return target == ErrInvalidQuantity
}

// ValidationError собирает все ошибки по позициям, найденные до изменения остатков
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("order validation failed (%d problems): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap отдаёт все вложенные ошибки, errors.Is проверяет каждую
func (e *ValidationError) Unwrap() []error {
	return e.Errors
}

// ExecutionMode описывает стратегию, которой координатор применил пакет изменений
type ExecutionMode string

const (
	// ModeTransactional - все изменения в одной транзакции хранилища
	ModeTransactional ExecutionMode = "transactional"
	// ModeSequential - изменения по одному, без отката при ошибке
	ModeSequential    ExecutionMode = "sequential"
)

// ReservationAbortedError описывает прерванный пакет изменений
// В транзакционном режиме Applied всегда пустой
// В последовательном режиме Applied содержит изменения, успевшие примениться до Cause
type ReservationAbortedError struct {
	Mode    ExecutionMode
	Applied []StockMutation
	Failed  StockMutation
	Cause   error

	// Compensation заполняется, если откат Applied тоже не удался
	Compensation *CompensationFailure
}

func (e *ReservationAbortedError) Error() string {
	return fmt.Sprintf("stock batch aborted (%s mode, %d applied before failure on item %s): %v",
		e.Mode, len(e.Applied), e.Failed.ItemID, e.Cause)
}

func (e *ReservationAbortedError) Unwrap() error {
	return e.Cause
}

// OrderCreationError оборачивает ошибку OrderStore, полученную после резервирования
type OrderCreationError struct {
	Cause error

	// Compensation заполняется, если резерв не удалось вернуть полностью
	Compensation *CompensationFailure
}

func (e *OrderCreationError) Error() string {
	return fmt.Sprintf("order creation failed: %v", e.Cause)
}

func (e *OrderCreationError) Unwrap() error {
	return e.Cause
}

// CompensationFailure описывает остатки, которые не удалось вернуть на склад
// Такие расхождения требуют ручной сверки
// Логируется и отправляется в алерт, но не подменяет исходную ошибку
// Restored - что вернулось, Pending - что осталось списанным
type CompensationFailure struct {
	OrderID  string
	Reason   string
	Restored []StockMutation
	Pending  []StockMutation
	Cause    error
}

func (f *CompensationFailure) Error() string {
	return fmt.Sprintf("compensation failed (%s): %d mutations not restored: %v", f.Reason, len(f.Pending), f.Cause)
}

func (f *CompensationFailure) Unwrap() error {
	return f.Cause
}
