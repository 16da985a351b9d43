package domain

import "time"

// StockItem - товар каталога и его остаток на складе
// Quantity не бывает отрицательным: уменьшается только условным декрементом
type StockItem struct {
	ID        string
	Name      string
	Quantity  int64
	UnitPrice int64 // в копейках
	UpdatedAt time.Time
}

// Operation - направление изменения остатка
type Operation string

const (
	// OperationDeduct уменьшает остаток, если его хватает
	OperationDeduct Operation = "deduct"
	// OperationRestore увеличивает остаток без условий
	OperationRestore Operation = "restore"
)

// StockMutation - одно изменение остатка одного товара
// Живёт только в рамках одного пакета резервирования или компенсации
type StockMutation struct {
	ItemID    string
	Quantity  int64
	Operation Operation
}

// Inverse возвращает изменение, отменяющее m
func (m StockMutation) Inverse() StockMutation {
	inv := m
	if m.Operation == OperationDeduct {
		inv.Operation = OperationRestore
	} else {
		inv.Operation = OperationDeduct
	}
	return inv
}

// ReservationPlan - упорядоченный список списаний, прошедших валидацию
type ReservationPlan []StockMutation

// TotalQuantity возвращает суммарное количество по всем изменениям плана
func (p ReservationPlan) TotalQuantity() int64 {
	var total int64
	for _, m := range p {
		total += m.Quantity
	}
	return total
}

// Compensation строит восстановления для применённых списаний в обратном порядке
// Изменения, не являющиеся списаниями, пропускаются
func Compensation(applied []StockMutation) []StockMutation {
	out := make([]StockMutation, 0, len(applied))
	for i := len(applied) - 1; i >= 0; i-- {
		if applied[i].Operation != OperationDeduct {
			continue
		}
		out = append(out, applied[i].Inverse())
	}
	return out
}

// Restores возвращает компенсирующий план для всего резерва
func (p ReservationPlan) Restores() []StockMutation {
	return Compensation(p)
}
