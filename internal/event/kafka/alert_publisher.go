package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/platform/observability"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CompensationAlertPublisher публикует CompensationFailedEvent для операторов
type CompensationAlertPublisher struct {
	logger *zap.Logger
	writer messageWriter
	topic  string
}

// NewCompensationAlertPublisher создаёт publisher, пишущий в topic
func NewCompensationAlertPublisher(logger *zap.Logger, brokers []string, topic string) *CompensationAlertPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &CompensationAlertPublisher{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

// AlertCompensationFailure публикует один алерт
// Ключ сообщения - order_id, если он известен, иначе event_id
func (p *CompensationAlertPublisher) AlertCompensationFailure(ctx context.Context, failure *domain.CompensationFailure) error {
	errorMsg := "unknown error"
	if failure.Cause != nil {
		errorMsg = failure.Cause.Error()
	}

	event := CompensationFailedEvent{
		EventID:      uuid.NewString(),
		EventType:    EventTypeCompensationFailed,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		OrderID:      failure.OrderID,
		Reason:       failure.Reason,
		Restored:     alertMutations(failure.Restored),
		Pending:      alertMutations(failure.Pending),
		Error:        errorMsg,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal compensation alert: %w", err)
	}

	key := []byte(event.EventID)
	if failure.OrderID != "" {
		key = []byte(failure.OrderID)
	}

	// Передаём trace в заголовках сообщения
	msg := kafka.Message{Key: key, Value: value}
	otel.GetTextMapPropagator().Inject(ctx, observability.NewHeaderCarrier(&msg))

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish compensation alert",
			zap.Error(err),
			zap.String("topic", p.topic),
			zap.String("event_id", event.EventID),
		)
		return err
	}

	p.logger.Info("compensation alert published",
		zap.String("topic", p.topic),
		zap.String("event_id", event.EventID),
		zap.String("order_id", failure.OrderID),
		zap.Int("pending", len(event.Pending)),
	)
	return nil
}

// Close закрывает writer
func (p *CompensationAlertPublisher) Close() error {
	p.logger.Info("closing compensation alert publisher")
	return p.writer.Close()
}
