package service

import (
	"context"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/stock"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=StockValidator --dir=. --output=./mocks --outpkg=mocks

// StockValidator проверяет запрос по текущим остаткам без записи
type StockValidator interface {
	Validate(ctx context.Context, items []domain.RequestedItem) (stock.ValidationResult, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=StockCoordinator --dir=. --output=./mocks --outpkg=mocks

// StockCoordinator применяет пакеты изменений остатков
type StockCoordinator interface {
	Apply(ctx context.Context, mutations []domain.StockMutation) ([]domain.StockMutation, error)
	// Restore пробует каждое восстановление отдельно и возвращает неудавшиеся
	Restore(ctx context.Context, mutations []domain.StockMutation) stock.RestoreResult
	Mode(ctx context.Context) domain.ExecutionMode
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=CompensationAlerter --dir=. --output=./mocks --outpkg=mocks

// CompensationAlerter уведомляет операторов об остатках, которые не удалось вернуть
type CompensationAlerter interface {
	AlertCompensationFailure(ctx context.Context, failure *domain.CompensationFailure) error
}
