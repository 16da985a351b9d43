package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
)

// Типы событий, которые читает или пишет Stock Service
const (
	EventTypeOrderCancelled     = "order.cancelled"
	EventTypeCompensationFailed = "stock.compensation_failed"
)

// OrderCancelledEvent просит вернуть на склад остатки отменённого заказа
type OrderCancelledEvent struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	EventVersion int       `json:"event_version"`
	OccurredAt   time.Time `json:"occurred_at"`
	OrderID      string    `json:"order_id"`
	Reason       string    `json:"reason,omitempty"`
}

// ParseError описывает сообщение, которое никогда не удастся обработать
type ParseError struct {
	Field   string
	Message string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseOrderCancelledEvent декодирует и проверяет значение сообщения
// Пустой event_type допускается для старых продюсеров
func ParseOrderCancelledEvent(value []byte) (OrderCancelledEvent, error) {
	var event OrderCancelledEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return OrderCancelledEvent{}, &ParseError{Message: "invalid json: " + err.Error()}
	}
	if event.OrderID == "" {
		return event, &ParseError{Field: "order_id", Message: "order_id is required"}
	}
	if event.EventType != "" && event.EventType != EventTypeOrderCancelled {
		return event, &ParseError{Field: "event_type", Message: "unexpected event type " + event.EventType}
	}
	return event, nil
}

// AlertMutation - изменение остатка внутри алерта компенсации
type AlertMutation struct {
	ItemID    string `json:"item_id"`
	Quantity  int64  `json:"quantity"`
	Operation string `json:"operation"`
}

// CompensationFailedEvent сообщает операторам, какие остатки требуют ручной сверки
type CompensationFailedEvent struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	OrderID      string          `json:"order_id,omitempty"`
	Reason       string          `json:"reason"`
	Restored     []AlertMutation `json:"restored"`
	Pending      []AlertMutation `json:"pending"`
	Error        string          `json:"error"`
}

// alertMutations переводит изменения домена в формат события
func alertMutations(in []domain.StockMutation) []AlertMutation {
	out := make([]AlertMutation, 0, len(in))
	for _, m := range in {
		out = append(out, AlertMutation{
			ItemID:    m.ItemID,
			Quantity:  m.Quantity,
			Operation: string(m.Operation),
		})
	}
	return out
}
