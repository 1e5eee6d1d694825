// Package catalog загружает упорядоченный список товаров витрины.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

//go:embed data.json
var defaultData []byte

// Catalog хранит неизменяемый список товаров с поиском по имени.
type Catalog struct {
	products []domain.Product
	byName   map[string]int
}

// Default возвращает встроенный каталог десертов.
func Default() (*Catalog, error) {
	return Parse(defaultData)
}

// Load читает каталог из файла; пустой путь означает встроенный каталог.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse разбирает JSON-массив товаров и проверяет его.
func Parse(raw []byte) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var products []domain.Product
	if err := dec.Decode(&products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	return New(products)
}

// New строит каталог из списка, сохраняя исходный порядок.
func New(products []domain.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]domain.Product, 0, len(products)),
		byName:   make(map[string]int, len(products)),
	}

	for i, product := range products {
		if err := product.Validate(); err != nil {
			return nil, fmt.Errorf("product #%d %q: %w", i, product.Name, err)
		}
		if _, dup := c.byName[product.Name]; dup {
			return nil, fmt.Errorf("duplicate product name %q", product.Name)
		}
		c.byName[product.Name] = len(c.products)
		c.products = append(c.products, product)
	}

	return c, nil
}

// List возвращает копию товаров в порядке источника.
func (c *Catalog) List() []domain.Product {
	result := make([]domain.Product, len(c.products))
	copy(result, c.products)
	return result
}

// Find ищет товар по точному имени.
func (c *Catalog) Find(name string) (domain.Product, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[idx], true
}

// Len возвращает число товаров.
func (c *Catalog) Len() int {
	return len(c.products)
}
