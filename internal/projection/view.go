package projection

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ViewLine описывает строку корзины, готовую к отрисовке.
type ViewLine struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
	Thumbnail string `json:"thumbnail"`
}

// Preview описывает картинку-превью корзины.
type Preview struct {
	Image string `json:"image"`
	Alt   string `json:"alt"`
}

// View является производным представлением корзины и всегда пересчитывается из хранилища.
type View struct {
	Items   []ViewLine `json:"items"`
	Count   int        `json:"count"`
	Units   int        `json:"units"`
	Total   string     `json:"total"`
	Preview Preview    `json:"preview"`
	Empty   bool       `json:"empty"`
}

// Build строит View из списка позиций в порядке ListAll.
func Build(items []domain.LineItem) View {
	view := View{
		Items: make([]ViewLine, 0, len(items)),
		Count: len(items),
		Total: FormatMoney(Total(items)),
		Empty: IsEmpty(items),
	}

	for _, item := range items {
		view.Units += item.Quantity
		view.Items = append(view.Items, ViewLine{
			ID:        item.ID,
			Name:      item.Name,
			Category:  item.Category,
			Quantity:  item.Quantity,
			UnitPrice: FormatMoney(item.Price),
			Subtotal:  FormatMoney(LineSubtotal(item)),
			Thumbnail: item.Image.Thumbnail,
		})
	}

	if last, ok := PreviewItem(items); ok {
		view.Preview = Preview{Image: last.Image.Thumbnail, Alt: last.Name}
	} else {
		view.Preview = Preview{Image: EmptyCartIllustration, Alt: "Empty Cart"}
	}

	return view
}

// Receipt описывает отображаемое подтверждение заказа.
type Receipt struct {
	OrderID     string     `json:"order_id"`
	ConfirmedAt time.Time  `json:"confirmed_at"`
	Items       []ViewLine `json:"items"`
	Units       int        `json:"units"`
	Total       string     `json:"total"`
}

// BuildReceipt строит Receipt из подтверждения заказа.
func BuildReceipt(confirmation domain.OrderConfirmation) Receipt {
	view := Build(confirmation.Items)
	return Receipt{
		OrderID:     confirmation.OrderID,
		ConfirmedAt: confirmation.ConfirmedAt,
		Items:       view.Items,
		Units:       view.Units,
		Total:       FormatMoney(confirmation.Total),
	}
}

// ProductCard описывает товар витрины с ценой для отображения.
type ProductCard struct {
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Price    string       `json:"price"`
	Image    domain.Image `json:"image"`
}

// Cards строит карточки товаров в порядке каталога.
func Cards(products []domain.Product) []ProductCard {
	cards := make([]ProductCard, 0, len(products))
	for _, p := range products {
		cards = append(cards, ProductCard{
			Name:     p.Name,
			Category: p.Category,
			Price:    FormatMoney(p.Price),
			Image:    p.Image,
		})
	}
	return cards
}
