package domain

import "github.com/shopspring/decimal"

// LineItem описывает сохранённую позицию корзины, т.е. товар и его количество.
type LineItem struct {
	// ID назначается хранилищем при первой вставке и не меняется при обновлениях.
	ID int64 `json:"id"`
	Product
	// Quantity всегда >= 1: позиция с меньшим количеством удаляется.
	Quantity int `json:"quantity"`
}

// Subtotal возвращает стоимость позиции без округления.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Validate проверяет инварианты позиции.
func (i LineItem) Validate() error {
	if err := i.Product.Validate(); err != nil {
		return err
	}
	if i.Quantity < 1 {
		return ErrQuantityInvalid
	}
	return nil
}
