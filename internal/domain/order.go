package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderConfirmation фиксирует состав корзины на момент оформления заказа.
type OrderConfirmation struct {
	OrderID     string          `json:"order_id"`
	Items       []LineItem      `json:"items"`
	Total       decimal.Decimal `json:"total"`
	ConfirmedAt time.Time       `json:"confirmed_at"`
}

// ValidateInvariants проверяет базовые инварианты подтверждения и возвращает список замечаний.
func (o *OrderConfirmation) ValidateInvariants() []error {
	var errs []error

	if o.OrderID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrCartEmpty)
	}

	// Сверяем итог с суммой позиций: price * quantity.
	calc := decimal.Zero
	for _, item := range o.Items {
		if err := item.Validate(); err != nil {
			errs = append(errs, err)
		}
		calc = calc.Add(item.Subtotal())
	}
	if !calc.Equal(o.Total) {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
