package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/repository"
	"github.com/shestoi/GoBigTech/stock/platform/observability"
)

const (
	operationPlaceOrder   = "place_order"
	operationRestoreStock = "restore_stock"

	reasonReservationAborted = "reservation_aborted"
	reasonOrderCreation      = "order_creation_failed"
	reasonOrderCancellation  = "order_cancellation"
)

// Config содержит дедлайны шагов
// Нулевое значение отключает соответствующий дедлайн
type Config struct {
	ReserveTimeout      time.Duration
	CreateTimeout       time.Duration
	CompensationTimeout time.Duration
	RestoreGuardTTL     time.Duration
}

// PlaceOrderInput - одна попытка оформления заказа
type PlaceOrderInput struct {
	UserID   string
	Items    []domain.RequestedItem
	Metadata map[string]string
}

// OrderStockWorkflow оформляет заказы с резервированием остатков
// Успешный путь: Validating -> Reserving -> Creating -> Completed
// При ошибке: Validating|Reserving -> Failed или Creating -> Compensating -> Failed
//
// Шаги одной попытки выполняются строго друг за другом
// Компенсация игнорирует отмену контекста вызывающего, чтобы не бросить возврат остатков на середине
type OrderStockWorkflow struct {
	validator   StockValidator
	coordinator StockCoordinator
	orders      repository.OrderStore
	guard       repository.RestoreGuard
	alerter     CompensationAlerter
	cfg         Config

	logger  *zap.Logger
	tracer  trace.Tracer
	metrics workflowMetrics
}

// NewOrderStockWorkflow собирает workflow
// guard и alerter необязательны
func NewOrderStockWorkflow(
	validator StockValidator,
	coordinator StockCoordinator,
	orders repository.OrderStore,
	guard repository.RestoreGuard,
	alerter CompensationAlerter,
	cfg Config,
	logger *zap.Logger,
) *OrderStockWorkflow {
	return &OrderStockWorkflow{
		validator:   validator,
		coordinator: coordinator,
		orders:      orders,
		guard:       guard,
		alerter:     alerter,
		cfg:         cfg,
		logger:      logger,
		tracer:      otel.Tracer(instrumentationName),
		metrics:     newWorkflowMetrics(),
	}
}

// PlaceOrder валидирует запрос, резервирует остатки и создаёт заказ
// При ошибке возвращается ошибка упавшего шага
// Неудачная компенсация прикрепляется к ней, но не подменяет её
func (w *OrderStockWorkflow) PlaceOrder(ctx context.Context, in PlaceOrderInput) (order domain.Order, err error) {
	ctx, span := w.tracer.Start(ctx, "OrderStockWorkflow.PlaceOrder",
		trace.WithAttributes(
			attribute.String("user_id", in.UserID),
			attribute.Int("items", len(in.Items)),
		),
	)
	defer span.End()

	log := observability.L(ctx, w.logger).With(zap.String("user_id", in.UserID))
	log.Info("PlaceOrder called", zap.Int("items", len(in.Items)))

	// state меняется только через enter, итог попадает в метрику
	mode := domain.ModeSequential
	state := domain.StateValidating
	enter := func(next domain.WorkflowState) {
		log.Debug("workflow transition", zap.String("from", string(state)), zap.String("to", string(next)))
		span.AddEvent(string(next))
		state = next
	}
	defer func() {
		w.metrics.outcome(ctx, operationPlaceOrder, string(state), string(mode))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Warn("order placement failed", zap.String("mode", string(mode)), zap.Error(err))
		}
	}()

	// Валидация
	result, err := w.validator.Validate(ctx, in.Items)
	if err != nil {
		enter(domain.StateFailed)
		return domain.Order{}, fmt.Errorf("validate order: %w", err)
	}
	if !result.Valid {
		enter(domain.StateFailed)
		return domain.Order{}, result.Err()
	}

	// Резервирование
	enter(domain.StateReserving)
	mode = w.coordinator.Mode(ctx)
	span.SetAttributes(attribute.String("stock.mode", string(mode)))

	reserveCtx, cancel := withOptionalTimeout(ctx, w.cfg.ReserveTimeout)
	applied, err := w.coordinator.Apply(reserveCtx, result.Plan)
	cancel()
	if err != nil {
		if len(applied) > 0 {
			// Последовательный режим остановился на середине, возвращаем ровно то, что списали
			failure := w.compensate(ctx, "", reasonReservationAborted, applied)
			var aborted *domain.ReservationAbortedError
			if failure != nil && errors.As(err, &aborted) {
				aborted.Compensation = failure
			}
		}
		enter(domain.StateFailed)
		return domain.Order{}, err
	}

	// Создание заказа
	enter(domain.StateCreating)
	createCtx, cancel := withOptionalTimeout(ctx, w.cfg.CreateTimeout)
	order, err = w.orders.Create(createCtx, domain.NewOrder{
		UserID:   in.UserID,
		Items:    result.Items,
		Amount:   domain.OrderAmount(result.Items),
		Metadata: in.Metadata,
	})
	cancel()
	// Заказ не создан, возвращаем весь резерв
	if err != nil {
		enter(domain.StateCompensating)
		failure := w.compensate(ctx, "", reasonOrderCreation, applied)
		enter(domain.StateFailed)
		return domain.Order{}, &domain.OrderCreationError{Cause: err, Compensation: failure}
	}

	enter(domain.StateCompleted)
	span.SetAttributes(attribute.String("order_id", order.ID))
	log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.Int64("amount", order.Amount),
		zap.String("mode", string(mode)),
	)
	return order, nil
}

// RestoreStockForOrder возвращает на склад остатки уже созданного заказа, например при отмене
// Позиции восстанавливаются по одной, ошибка по одной не оставляет остальные списанными
// Если часть позиций вернуть не удалось, ошибка оборачивает *domain.CompensationFailure
// С RestoreGuard повторный вызов для того же заказа возвращает ErrAlreadyRestored
func (w *OrderStockWorkflow) RestoreStockForOrder(ctx context.Context, orderID string) (err error) {
	ctx, span := w.tracer.Start(ctx, "OrderStockWorkflow.RestoreStockForOrder",
		trace.WithAttributes(attribute.String("order_id", orderID)),
	)
	defer span.End()

	log := observability.L(ctx, w.logger).With(zap.String("order_id", orderID))
	log.Info("RestoreStockForOrder called")

	outcome := "failed"
	defer func() {
		w.metrics.outcome(ctx, operationRestoreStock, outcome, "")
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	// Занимаем ключ заказа до изменения остатков
	claimed := false
	if w.guard != nil {
		ok, err := w.guard.Claim(ctx, restoreGuardKey(orderID), w.cfg.RestoreGuardTTL)
		if err != nil {
			return fmt.Errorf("claim restore for order %s: %w", orderID, err)
		}
		if !ok {
			outcome = "duplicate"
			log.Info("stock already restored for order, skipping")
			return fmt.Errorf("order %s: %w", orderID, domain.ErrAlreadyRestored)
		}
		claimed = true
	}
	release := func() {
		if !claimed {
			return
		}
		if err := w.guard.Release(context.WithoutCancel(ctx), restoreGuardKey(orderID)); err != nil {
			log.Warn("failed to release restore claim", zap.Error(err))
		}
	}

	order, err := w.orders.GetByID(ctx, orderID)
	if err != nil {
		release()
		return fmt.Errorf("get order %s: %w", orderID, err)
	}

	// Строим восстановления по позициям заказа
	mutations := make([]domain.StockMutation, 0, len(order.Items))
	for _, it := range order.Items {
		if it.Quantity <= 0 {
			continue
		}
		mutations = append(mutations, domain.StockMutation{
			ItemID:    it.ItemID,
			Quantity:  it.Quantity,
			Operation: domain.OperationRestore,
		})
	}

	// Отмена вызывающего не прерывает возврат остатков
	restoreCtx, cancel := withOptionalTimeout(context.WithoutCancel(ctx), w.cfg.CompensationTimeout)
	defer cancel()

	result := w.coordinator.Restore(restoreCtx, mutations)
	if len(result.Pending) > 0 {
		if result.Retryable() {
			// Ничего не изменилось, повторная доставка может попробовать снова
			release()
			return fmt.Errorf("restore stock for order %s: %w", orderID, result.Err())
		}

		outcome = "partial"
		failure := &domain.CompensationFailure{
			OrderID:  orderID,
			Reason:   reasonOrderCancellation,
			Restored: result.Restored,
			Pending:  result.Pending,
			Cause:    result.Err(),
		}
		w.reportCompensationFailure(ctx, failure)

		// Ключ не освобождаем: повторная доставка не должна вернуть позиции дважды
		return fmt.Errorf("restore stock for order %s: %w", orderID, failure)
	}

	outcome = string(domain.StateCompleted)
	log.Info("stock restored for order", zap.Int("items", len(result.Restored)))
	return nil
}

// compensate возвращает применённые списания в обратном порядке
// Пробует каждую позицию, даже если предыдущая не вернулась
// Возвращает nil, если всё восстановлено
func (w *OrderStockWorkflow) compensate(ctx context.Context, orderID, reason string, applied []domain.StockMutation) *domain.CompensationFailure {
	restores := domain.Compensation(applied)
	if len(restores) == 0 {
		return nil
	}

	compCtx, cancel := withOptionalTimeout(context.WithoutCancel(ctx), w.cfg.CompensationTimeout)
	defer cancel()

	ctx, span := w.tracer.Start(compCtx, "OrderStockWorkflow.compensate",
		trace.WithAttributes(attribute.String("reason", reason), attribute.Int("mutations", len(restores))),
	)
	defer span.End()

	result := w.coordinator.Restore(ctx, restores)
	if len(result.Pending) == 0 {
		observability.L(ctx, w.logger).Info("reservation compensated",
			zap.String("reason", reason),
			zap.Int("restored", len(result.Restored)),
		)
		return nil
	}

	err := result.Err()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	failure := &domain.CompensationFailure{
		OrderID:  orderID,
		Reason:   reason,
		Restored: result.Restored,
		Pending:  result.Pending,
		Cause:    err,
	}
	w.reportCompensationFailure(ctx, failure)
	return failure
}

// reportCompensationFailure делает невозвращённый резерв видимым для операторов
// Пишет error-лог с compensation_failure=true, метрику и алерт
func (w *OrderStockWorkflow) reportCompensationFailure(ctx context.Context, failure *domain.CompensationFailure) {
	w.metrics.compensationFailure(ctx, failure.Reason)

	observability.L(ctx, w.logger).Error("stock compensation failed, manual reconciliation required",
		zap.Bool("compensation_failure", true),
		zap.String("order_id", failure.OrderID),
		zap.String("reason", failure.Reason),
		zap.Any("restored", failure.Restored),
		zap.Any("pending", failure.Pending),
		zap.Error(failure.Cause),
	)

	if w.alerter == nil {
		return
	}
	if err := w.alerter.AlertCompensationFailure(context.WithoutCancel(ctx), failure); err != nil {
		observability.L(ctx, w.logger).Error("failed to publish compensation alert",
			zap.Bool("compensation_failure", true),
			zap.String("order_id", failure.OrderID),
			zap.Error(err),
		)
	}
}

// restoreGuardKey возвращает ключ RestoreGuard для заказа
func restoreGuardKey(orderID string) string {
	return "stock:restore:" + orderID
}

// withOptionalTimeout добавляет дедлайн, если d > 0
func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
