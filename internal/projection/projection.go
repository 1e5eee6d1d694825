// Package projection выводит итоговую сумму и отображаемый вид корзины
// из полного списка сохранённых позиций. Пакет не хранит состояния.
package projection

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// EmptyCartIllustration показывается в превью, когда корзина пуста.
const EmptyCartIllustration = "./assets/images/illustration-empty-cart.svg"

// Total суммирует price * quantity по всем позициям без промежуточного округления.
func Total(items []domain.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// IsEmpty сообщает, что в корзине нет позиций.
func IsEmpty(items []domain.LineItem) bool {
	return len(items) == 0
}

// PreviewItem возвращает последнюю позицию в порядке ListAll.
// Порядок определяется хранилищем (по возрастанию ID), а не временем последнего изменения.
func PreviewItem(items []domain.LineItem) (domain.LineItem, bool) {
	if len(items) == 0 {
		return domain.LineItem{}, false
	}
	return items[len(items)-1], true
}

// LineSubtotal возвращает стоимость одной позиции.
func LineSubtotal(item domain.LineItem) decimal.Decimal {
	return item.Subtotal()
}

// FormatMoney округляет сумму до двух знаков только для отображения.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
