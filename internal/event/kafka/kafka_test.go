package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
)

func TestParseOrderCancelledEvent(t *testing.T) {
	tests := []struct {
		name          string
		value         string
		expectedOrder string
		expectedField string
		expectedError bool
	}{
		{
			name:          "valid",
			value:         `{"event_id":"e-1","event_type":"order.cancelled","event_version":1,"occurred_at":"2026-01-02T03:04:05Z","order_id":"o-1"}`,
			expectedOrder: "o-1",
		},
		{
			name:          "event type may be omitted",
			value:         `{"order_id":"o-2"}`,
			expectedOrder: "o-2",
		},
		{
			name:          "missing order id",
			value:         `{"event_id":"e-1"}`,
			expectedError: true,
			expectedField: "order_id",
		},
		{
			name:          "other event type",
			value:         `{"event_type":"order.paid","order_id":"o-3"}`,
			expectedError: true,
			expectedField: "event_type",
		},
		{
			name:          "broken json",
			value:         `{"order_id":`,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ParseOrderCancelledEvent([]byte(tt.value))

			if tt.expectedError {
				var parseErr *ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Equal(t, tt.expectedField, parseErr.Field)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expectedOrder, event.OrderID)
		})
	}
}

type restorerFunc func(ctx context.Context, orderID string) error

func (f restorerFunc) RestoreStockForOrder(ctx context.Context, orderID string) error {
	return f(ctx, orderID)
}

func newTestConsumer(restorer StockRestorer) *OrderCancelledConsumer {
	return &OrderCancelledConsumer{
		logger:      zap.NewNop(),
		restorer:    restorer,
		maxAttempts: 3,
		backoffBase: time.Millisecond,
	}
}

func TestOrderCancelledConsumer_ProcessMessage(t *testing.T) {
	ctx := context.Background()
	msg := kafka.Message{Topic: "order.cancelled", Value: []byte(`{"order_id":"o-1"}`)}

	tests := []struct {
		name           string
		value          []byte
		errs           []error
		expectedCommit bool
		expectedCalls  int
	}{
		{name: "restored", errs: []error{nil}, expectedCommit: true, expectedCalls: 1},
		{name: "transient error then success", errs: []error{errors.New("timeout"), nil}, expectedCommit: true, expectedCalls: 2},
		{name: "already restored", errs: []error{fmt.Errorf("order o-1: %w", domain.ErrAlreadyRestored)}, expectedCommit: true, expectedCalls: 1},
		{name: "unknown order", errs: []error{fmt.Errorf("get order o-1: %w", domain.ErrNotFound)}, expectedCommit: true, expectedCalls: 1},
		{
			name: "partial restore is not retried",
			errs: []error{fmt.Errorf("restore stock for order o-1: %w", &domain.CompensationFailure{
				OrderID:  "o-1",
				Restored: []domain.StockMutation{{ItemID: "A", Quantity: 4, Operation: domain.OperationRestore}},
				Pending:  []domain.StockMutation{{ItemID: "B", Quantity: 2, Operation: domain.OperationRestore}},
				Cause:    errors.New("increment B: connection reset"),
			})},
			expectedCommit: true,
			expectedCalls:  1,
		},
		{
			name:           "retries exhausted",
			errs:           []error{errors.New("db down"), errors.New("db down"), errors.New("db down")},
			expectedCommit: false,
			expectedCalls:  3,
		},
		{name: "poison pill", value: []byte(`not json`), expectedCommit: true, expectedCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			consumer := newTestConsumer(restorerFunc(func(_ context.Context, orderID string) error {
				require.Equal(t, "o-1", orderID)
				err := tt.errs[calls]
				calls++
				return err
			}))

			m := msg
			if tt.value != nil {
				m.Value = tt.value
			}

			require.Equal(t, tt.expectedCommit, consumer.processMessage(ctx, m))
			require.Equal(t, tt.expectedCalls, calls)
		})
	}
}

type captureWriter struct {
	messages []kafka.Message
	err      error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestCompensationAlertPublisher(t *testing.T) {
	writer := &captureWriter{}
	publisher := &CompensationAlertPublisher{logger: zap.NewNop(), writer: writer, topic: "stock.compensation.failed"}

	err := publisher.AlertCompensationFailure(context.Background(), &domain.CompensationFailure{
		OrderID:  "o-1",
		Reason:   "order_creation_failed",
		Restored: []domain.StockMutation{{ItemID: "B", Quantity: 2, Operation: domain.OperationRestore}},
		Pending:  []domain.StockMutation{{ItemID: "A", Quantity: 4, Operation: domain.OperationRestore}},
		Cause:    errors.New("connection reset"),
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)
	assert.Equal(t, []byte("o-1"), writer.messages[0].Key)

	var event CompensationFailedEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
	assert.Equal(t, EventTypeCompensationFailed, event.EventType)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "connection reset", event.Error)
	assert.Equal(t, []AlertMutation{{ItemID: "A", Quantity: 4, Operation: "restore"}}, event.Pending)
	assert.Len(t, event.Restored, 1)
}

func TestCompensationAlertPublisher_WriteError(t *testing.T) {
	writer := &captureWriter{err: errors.New("broker unavailable")}
	publisher := &CompensationAlertPublisher{logger: zap.NewNop(), writer: writer, topic: "alerts"}

	err := publisher.AlertCompensationFailure(context.Background(), &domain.CompensationFailure{Reason: "order_cancellation"})
	require.EqualError(t, err, "broker unavailable")
}
