package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/projection"
)

// EventType определяет тип события
type EventType string

// EventTypeOrderConfirmed публикуется после успешного оформления заказа.
const EventTypeOrderConfirmed EventType = "order.confirmed"

// TopicOrderEvents используется по умолчанию для событий заказов.
const TopicOrderEvents = "storefront.order.events"

// OrderLine описывает позицию заказа в событии.
type OrderLine struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

// OrderConfirmedEvent содержит полезную нагрузку события order.confirmed.
type OrderConfirmedEvent struct {
	EventType   EventType   `json:"event_type"`
	OrderID     string      `json:"order_id"`
	Lines       []OrderLine `json:"lines"`
	Total       string      `json:"total"`
	ConfirmedAt time.Time   `json:"confirmed_at"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewOrderConfirmedEvent строит событие из подтверждения заказа.
// Денежные суммы передаются строками с двумя знаками после запятой.
func NewOrderConfirmedEvent(confirmation domain.OrderConfirmation) *OrderConfirmedEvent {
	lines := make([]OrderLine, 0, len(confirmation.Items))
	for _, item := range confirmation.Items {
		lines = append(lines, OrderLine{
			Name:      item.Name,
			Category:  item.Category,
			Quantity:  item.Quantity,
			UnitPrice: projection.FormatMoney(item.Price),
			Subtotal:  projection.FormatMoney(projection.LineSubtotal(item)),
		})
	}

	return &OrderConfirmedEvent{
		EventType:   EventTypeOrderConfirmed,
		OrderID:     confirmation.OrderID,
		Lines:       lines,
		Total:       projection.FormatMoney(confirmation.Total),
		ConfirmedAt: confirmation.ConfirmedAt,
		Timestamp:   time.Now().UTC(),
	}
}
