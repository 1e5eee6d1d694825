package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func testConfirmation() domain.OrderConfirmation {
	waffle := domain.LineItem{
		ID: 1,
		Product: domain.Product{
			Name:     "Waffle with Berries",
			Category: "Waffle",
			Price:    decimal.RequireFromString("6.5"),
		},
		Quantity: 2,
	}
	return domain.OrderConfirmation{
		OrderID:     "order-123",
		Items:       []domain.LineItem{waffle},
		Total:       decimal.RequireFromString("13"),
		ConfirmedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestProducer_PublishOrderConfirmed(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, "")

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicOrderEvents {
			return fmt.Errorf("unexpected topic %s", msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "order-123" {
			return fmt.Errorf("unexpected key %s", key)
		}

		raw, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var event OrderConfirmedEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return err
		}
		if event.EventType != EventTypeOrderConfirmed || event.Total != "13.00" {
			return fmt.Errorf("unexpected event %+v", event)
		}
		if len(event.Lines) != 1 || event.Lines[0].UnitPrice != "6.50" || event.Lines[0].Subtotal != "13.00" {
			return fmt.Errorf("unexpected lines %+v", event.Lines)
		}
		return nil
	})

	if err := producer.PublishOrderConfirmed(context.Background(), testConfirmation()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishOrderConfirmed_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, "custom.topic")

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.PublishOrderConfirmed(context.Background(), testConfirmation())
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_CanceledContextSkipsSend(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := producer.PublishOrderConfirmed(ctx, testConfirmation()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewOrderConfirmedEvent(t *testing.T) {
	event := NewOrderConfirmedEvent(testConfirmation())

	if event.OrderID != "order-123" {
		t.Errorf("expected order id order-123, got %s", event.OrderID)
	}
	if event.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if event.Lines[0].Name != "Waffle with Berries" || event.Lines[0].Quantity != 2 {
		t.Errorf("unexpected line: %+v", event.Lines[0])
	}
}

func TestNoopPublisher(t *testing.T) {
	publisher := NewNoopPublisher(nil)
	if err := publisher.PublishOrderConfirmed(context.Background(), testConfirmation()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
