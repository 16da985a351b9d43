package stock

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shestoi/GoBigTech/stock/internal/domain"
	"github.com/shestoi/GoBigTech/stock/internal/repository"
)

// ValidationResult - результат проверки запроса заказа по текущим остаткам
type ValidationResult struct {
	Valid  bool
	Errors []error
	// Plan содержит по одному списанию на товар в порядке первого появления
	Plan domain.ReservationPlan
	// Items - позиции заказа с ценами, соответствуют Plan
	Items []domain.OrderItem
}

// Err возвращает агрегированную ошибку валидации или nil
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &domain.ValidationError{Errors: r.Errors}
}

// Validator проверяет запрошенные позиции по каталогу и ничего не пишет
// Результат носит рекомендательный характер: остаток может измениться до резервирования
type Validator struct {
	catalog repository.ItemCatalog
}

// NewValidator создаёт валидатор поверх каталога
func NewValidator(catalog repository.ItemCatalog) *Validator {
	return &Validator{catalog: catalog}
}

// Validate проверяет все позиции и собирает все найденные проблемы
// error возвращается только при сбое каталога, отсутствующий товар попадает в result.Errors
func (v *Validator) Validate(ctx context.Context, items []domain.RequestedItem) (ValidationResult, error) {
	if len(items) == 0 {
		return ValidationResult{Errors: []error{domain.ErrEmptyOrder}}, nil
	}

	// Отсекаем неположительные количества до объединения дублей
	var result ValidationResult
	positive := make([]domain.RequestedItem, 0, len(items))
	for _, req := range items {
		if req.Quantity <= 0 {
			result.Errors = append(result.Errors, &domain.InvalidQuantityError{ItemID: req.ItemID, Quantity: req.Quantity})
			continue
		}
		positive = append(positive, req)
	}

	merged, overflowed := mergeRequested(positive)
	for _, id := range overflowed {
		result.Errors = append(result.Errors, &domain.QuantityOverflowError{ItemID: id})
	}

	// amount - сумма заказа, проверяем её на переполнение по мере роста
	var amount int64
	for _, req := range merged {
		item, err := v.catalog.GetItem(ctx, req.ItemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				result.Errors = append(result.Errors, &domain.NotFoundError{ItemID: req.ItemID})
				continue
			}
			return ValidationResult{}, fmt.Errorf("validate item %s: %w", req.ItemID, err)
		}

		if item.Quantity < req.Quantity {
			result.Errors = append(result.Errors, &domain.InsufficientStockError{
				ItemID:    req.ItemID,
				Available: item.Quantity,
				Requested: req.Quantity,
			})
			continue
		}

		lineTotal, ok := mulInt64(req.Quantity, item.UnitPrice)
		if !ok || amount > math.MaxInt64-lineTotal {
			result.Errors = append(result.Errors, &domain.QuantityOverflowError{ItemID: req.ItemID})
			continue
		}
		amount += lineTotal

		name := req.Name
		if name == "" {
			name = item.Name
		}
		result.Plan = append(result.Plan, domain.StockMutation{
			ItemID:    req.ItemID,
			Quantity:  req.Quantity,
			Operation: domain.OperationDeduct,
		})
		result.Items = append(result.Items, domain.OrderItem{
			ItemID:    req.ItemID,
			Name:      name,
			Quantity:  req.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	// Невалидный запрос не должен отдавать частичный план
	result.Valid = len(result.Errors) == 0
	if !result.Valid {
		result.Plan = nil
		result.Items = nil
	}
	return result, nil
}

// mergeRequested суммирует количества повторяющихся товаров, сохраняя порядок первого появления
// Товары, сумма которых переполняет int64, выкидываются и возвращаются в overflowed
func mergeRequested(items []domain.RequestedItem) (merged []domain.RequestedItem, overflowed []string) {
	index := make(map[string]int, len(items))
	dropped := make(map[string]bool)
	merged = make([]domain.RequestedItem, 0, len(items))
	for _, it := range items {
		if dropped[it.ItemID] {
			continue
		}
		if i, ok := index[it.ItemID]; ok {
			if merged[i].Quantity > math.MaxInt64-it.Quantity {
				dropped[it.ItemID] = true
				overflowed = append(overflowed, it.ItemID)
				continue
			}
			merged[i].Quantity += it.Quantity
			if merged[i].Name == "" {
				merged[i].Name = it.Name
			}
			continue
		}
		index[it.ItemID] = len(merged)
		merged = append(merged, it)
	}

	if len(dropped) == 0 {
		return merged, nil
	}
	kept := merged[:0]
	for _, it := range merged {
		if !dropped[it.ItemID] {
			kept = append(kept, it)
		}
	}
	return kept, overflowed
}

// mulInt64 перемножает неотрицательные a и b, false при переполнении
func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}
