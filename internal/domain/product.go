package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Image хранит ссылки на четыре размера изображения товара.
type Image struct {
	Thumbnail string `json:"thumbnail"`
	Mobile    string `json:"mobile"`
	Tablet    string `json:"tablet"`
	Desktop   string `json:"desktop"`
}

// Product описывает неизменяемую запись каталога. Name служит бизнес-ключом.
type Product struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Image    Image           `json:"image"`
}

// Validate проверяет базовые инварианты товара.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrProductNameRequired
	}
	if p.Price.IsNegative() {
		return ErrProductPriceNegative
	}
	return nil
}
