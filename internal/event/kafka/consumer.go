package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/platform/observability"
)

const instrumentationName = "github.com/shestoi/GoBigTech/stock/internal/event/kafka"

// StockRestorer возвращает на склад остатки созданного заказа
type StockRestorer interface {
	RestoreStockForOrder(ctx context.Context, orderID string) error
}

// OrderCancelledConsumer читает отмены заказов и возвращает их остатки
// Offset коммитится только после восстановления или если оно никогда не пройдёт
type OrderCancelledConsumer struct {
	logger      *zap.Logger
	reader      *kafka.Reader
	restorer    StockRestorer
	maxAttempts int
	backoffBase time.Duration
}

// NewOrderCancelledConsumer создаёт reader consumer group на topic
func NewOrderCancelledConsumer(
	logger *zap.Logger,
	brokers []string,
	groupID, topic string,
	restorer StockRestorer,
	maxAttempts int,
	backoffBase time.Duration,
) *OrderCancelledConsumer {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoffBase <= 0 {
		backoffBase = time.Second
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	return &OrderCancelledConsumer{
		logger:      logger,
		reader:      reader,
		restorer:    restorer,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
	}
}

// Start читает сообщения до отмены ctx
// Offset коммитится вручную после обработки
func (c *OrderCancelledConsumer) Start(ctx context.Context) error {
	c.logger.Info("starting kafka consumer",
		zap.String("topic", c.reader.Config().Topic),
		zap.String("group_id", c.reader.Config().GroupID),
		zap.Int("max_retry_attempts", c.maxAttempts),
		zap.Duration("retry_backoff_base", c.backoffBase),
	)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer context cancelled, stopping")
				return nil
			}
			c.logger.Error("failed to fetch message from kafka", zap.Error(err))
			continue
		}

		// Не коммитим, сообщение придёт снова
		if !c.processMessage(ctx, m) {
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Error("failed to commit message offset",
				zap.Error(err),
				zap.String("topic", m.Topic),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
			)
		}
	}
}

// processMessage обрабатывает сообщение и сообщает, нужно ли коммитить offset
func (c *OrderCancelledConsumer) processMessage(ctx context.Context, m kafka.Message) bool {
	// Продолжаем trace продюсера из заголовков сообщения
	ctx = otel.GetTextMapPropagator().Extract(ctx, observability.NewHeaderCarrier(&m))
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, m.Topic+" process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", m.Topic),
			attribute.Int("messaging.kafka.partition", m.Partition),
			attribute.Int64("messaging.kafka.offset", m.Offset),
		),
	)
	defer span.End()

	event, err := ParseOrderCancelledEvent(m.Value)
	if err != nil {
		c.logger.Error("failed to parse order cancelled event",
			zap.Error(err),
			zap.String("topic", m.Topic),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
		)
		span.SetStatus(codes.Error, "poison pill")
		// poison pill: повтор не поможет, коммитим
		return true
	}

	span.SetAttributes(attribute.String("order_id", event.OrderID))
	observability.L(ctx, c.logger).Info("received order cancelled event",
		zap.String("event_id", event.EventID),
		zap.String("order_id", event.OrderID),
		zap.Int("partition", m.Partition),
		zap.Int64("offset", m.Offset),
	)

	if !c.handleWithRetry(ctx, event) {
		span.SetStatus(codes.Error, "retries exhausted")
		observability.L(ctx, c.logger).Error("failed to handle order cancelled event after all retries",
			zap.String("order_id", event.OrderID),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
		)
		return false
	}
	return true
}

// handleWithRetry повторяет временные ошибки с экспоненциальным backoff (base, 2*base, 4*base...)
func (c *OrderCancelledConsumer) handleWithRetry(ctx context.Context, event OrderCancelledEvent) bool {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := c.backoffBase * time.Duration(1<<uint(attempt-2))
			c.logger.Info("retrying order cancelled event",
				zap.String("order_id", event.OrderID),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)

			select {
			case <-ctx.Done():
				return false
			case <-time.After(backoff):
			}
		}

		err := c.restorer.RestoreStockForOrder(ctx, event.OrderID)
		switch {
		case err == nil:
			return true
		case errors.Is(err, domain.ErrAlreadyRestored):
			c.logger.Info("duplicate order cancelled event, stock already restored",
				zap.String("order_id", event.OrderID))
			return true
		case isPartialRestore(err):
			// уже отправлено на ручную сверку, повтор вернул бы остатки дважды
			c.logger.Warn("order cancelled event partially restored, left for reconciliation",
				zap.Error(err),
				zap.String("order_id", event.OrderID))
			return true
		case errors.Is(err, domain.ErrNotFound):
			// неизвестный заказ или товар, повтор не поможет
			c.logger.Error("order cancelled event references missing data",
				zap.Error(err),
				zap.String("order_id", event.OrderID))
			return true
		}

		lastErr = err
		c.logger.Warn("failed to handle order cancelled event",
			zap.Error(err),
			zap.String("order_id", event.OrderID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
		)
	}

	c.logger.Error("exhausted all retry attempts",
		zap.Error(lastErr),
		zap.String("order_id", event.OrderID),
		zap.Int("max_attempts", c.maxAttempts),
	)
	return false
}

// isPartialRestore проверяет, что восстановление было частичным и уже отправлено в алерт
func isPartialRestore(err error) bool {
	var failure *domain.CompensationFailure
	return errors.As(err, &failure)
}

// Close закрывает reader
func (c *OrderCancelledConsumer) Close() error {
	c.logger.Info("closing kafka consumer")
	return c.reader.Close()
}
