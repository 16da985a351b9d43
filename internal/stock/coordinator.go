package stock

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/stock/internal/capability"
	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/repository"
)

// CapabilityDetector - часть capability.Detector, нужная координатору
type CapabilityDetector interface {
	Detect(ctx context.Context) bool
	Reset()
}

// Coordinator применяет пакет изменений остатков
//
// Если хранилище поддерживает транзакции, пакет применяется целиком или не применяется вовсе
// Без транзакций изменения идут по одному и первая ошибка останавливает пакет
// Вызывающий получает применённый префикс и сам отвечает за его компенсацию
type Coordinator struct {
	updater    *Updater
	transactor repository.Transactor
	detector   CapabilityDetector
	logger     *zap.Logger
}

// NewCoordinator создаёт координатор
// transactor может быть nil для хранилищ без транзакций
func NewCoordinator(updater *Updater, transactor repository.Transactor, detector CapabilityDetector, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		updater:    updater,
		transactor: transactor,
		detector:   detector,
		logger:     logger,
	}
}

// Mode возвращает стратегию, которую использует следующий Apply
func (c *Coordinator) Mode(ctx context.Context) domain.ExecutionMode {
	if c.transactor != nil && c.detector.Detect(ctx) {
		return domain.ModeTransactional
	}
	return domain.ModeSequential
}

// Apply выполняет изменения по порядку и возвращает применённые
// При ошибке возвращает *domain.ReservationAbortedError
// В транзакционном режиме Applied в ошибке всегда пустой
func (c *Coordinator) Apply(ctx context.Context, mutations []domain.StockMutation) ([]domain.StockMutation, error) {
	if len(mutations) == 0 {
		return nil, nil
	}

	// Без транзакций идём по одному
	if c.Mode(ctx) == domain.ModeSequential {
		return c.applySequential(ctx, mutations)
	}

	applied, err := c.applyTransactional(ctx, mutations)
	if err == nil {
		return applied, nil
	}

	var aborted *domain.ReservationAbortedError
	if errors.As(err, &aborted) && capability.IsTransactionsUnsupported(aborted.Cause) {
		// Хранилище перестало принимать транзакции (failover или переподключение к standalone)
		// Транзакция не закоммитилась, ничего не применено, пакет можно повторить
		c.logger.Warn("transaction rejected by store, re-detecting capability", zap.Error(aborted.Cause))
		c.detector.Reset()
		if c.Mode(ctx) == domain.ModeSequential {
			return c.applySequential(ctx, mutations)
		}
	}
	return nil, err
}

func (c *Coordinator) applyTransactional(ctx context.Context, mutations []domain.StockMutation) ([]domain.StockMutation, error) {
	var (
		applied []domain.StockMutation
		failed  domain.StockMutation
		cause   error
	)

	err := c.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		// Хранилище может повторить callback при временной ошибке, каждую попытку начинаем с нуля
		applied = applied[:0]
		failed, cause = domain.StockMutation{}, nil

		for _, m := range mutations {
			if _, err := c.updater.Apply(txCtx, m); err != nil {
				failed, cause = m, err
				return err
			}
			applied = append(applied, m)
		}
		return nil
	})
	if err != nil {
		if cause == nil {
			// Упал begin или commit, а не само изменение
			cause = err
		}
		c.logger.Info("stock batch rolled back",
			zap.String("mode", string(domain.ModeTransactional)),
			zap.String("failed_item_id", failed.ItemID),
			zap.Error(cause),
		)
		return nil, &domain.ReservationAbortedError{
			Mode:   domain.ModeTransactional,
			Failed: failed,
			Cause:  cause,
		}
	}

	return applied, nil
}

// applySequential применяет изменения вне транзакции и останавливается на первой ошибке
func (c *Coordinator) applySequential(ctx context.Context, mutations []domain.StockMutation) ([]domain.StockMutation, error) {
	applied := make([]domain.StockMutation, 0, len(mutations))
	for _, m := range mutations {
		if _, err := c.updater.Apply(ctx, m); err != nil {
			c.logger.Info("stock batch stopped",
				zap.String("mode", string(domain.ModeSequential)),
				zap.String("failed_item_id", m.ItemID),
				zap.Int("applied", len(applied)),
				zap.Error(err),
			)
			return applied, &domain.ReservationAbortedError{
				Mode:    domain.ModeSequential,
				Applied: applied,
				Failed:  m,
				Cause:   err,
			}
		}
		applied = append(applied, m)
	}
	return applied, nil
}

// RestoreResult - итог восстановления остатков по позициям
type RestoreResult struct {
	// Restored - применённые восстановления в порядке пакета
	Restored []domain.StockMutation
	// Pending - неудавшиеся восстановления в порядке пакета
	// Errors[i] относится к Pending[i]
	Pending []domain.StockMutation
	Errors  []error
}

// Err объединяет ошибки по позициям или возвращает nil, если всё восстановлено
func (r RestoreResult) Err() error {
	return errors.Join(r.Errors...)
}

// Retryable сообщает, можно ли безопасно повторить весь пакет
// Повтор имеет смысл, только если ничего не применено и хотя бы одна ошибка не NotFound
func (r RestoreResult) Retryable() bool {
	if len(r.Restored) > 0 {
		return false
	}
	for _, err := range r.Errors {
		if !errors.Is(err, domain.ErrNotFound) {
			return true
		}
	}
	return false
}

// Restore применяет восстановления по одному, каждое отдельной операцией хранилища
// Общая транзакция не используется, чтобы откат одной позиции не отменял остальные
// Ошибка по позиции не останавливает пакет: пробуем все, неудачные попадают в Pending
func (c *Coordinator) Restore(ctx context.Context, mutations []domain.StockMutation) RestoreResult {
	var result RestoreResult
	for _, m := range mutations {
		var err error
		if m.Operation != domain.OperationRestore {
			err = fmt.Errorf("item %s: restore batch got %q mutation", m.ItemID, m.Operation)
		} else {
			_, err = c.updater.Restore(ctx, m.ItemID, m.Quantity)
		}

		// Запоминаем ошибку и идём дальше
		if err != nil {
			c.logger.Warn("stock restore failed, continuing with the rest of the batch",
				zap.String("item_id", m.ItemID),
				zap.Int64("quantity", m.Quantity),
				zap.Error(err),
			)
			result.Pending = append(result.Pending, m)
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Restored = append(result.Restored, m)
	}
	return result
}
