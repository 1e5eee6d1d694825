package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Producer публикует события заказов в Kafka.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *log.Entry
}

// NewProducer создает новый Kafka producer
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // обязательно для идемпотентного producer

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return newProducer(producer, topic), nil
}

func newProducer(producer sarama.SyncProducer, topic string) *Producer {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   log.WithField("component", "kafka-producer"),
	}
}

// PublishOrderConfirmed отправляет order.confirmed с ключом OrderID.
func (p *Producer) PublishOrderConfirmed(ctx context.Context, confirmation domain.OrderConfirmation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.publish(confirmation.OrderID, NewOrderConfirmedEvent(confirmation))
}

func (p *Producer) publish(key string, event any) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(eventData),
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic": p.topic,
			"key":   key,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"topic":     p.topic,
		"key":       key,
		"partition": partition,
		"offset":    offset,
	}).Debug("message sent to kafka")

	return nil
}

// Close закрывает producer
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

// NoopPublisher используется, когда брокеры Kafka не настроены: событие только логируется.
type NoopPublisher struct {
	logger *log.Entry
}

// NewNoopPublisher создаёт публикатор-заглушку.
func NewNoopPublisher(logger *log.Entry) *NoopPublisher {
	if logger == nil {
		logger = log.WithField("component", "noop-publisher")
	}
	return &NoopPublisher{logger: logger}
}

// PublishOrderConfirmed логирует событие и ничего не отправляет.
func (p *NoopPublisher) PublishOrderConfirmed(ctx context.Context, confirmation domain.OrderConfirmation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.WithFields(log.Fields{
		"order_id": confirmation.OrderID,
		"items":    len(confirmation.Items),
		"total":    confirmation.Total.StringFixed(2),
	}).Info("order confirmed (kafka disabled)")
	return nil
}

var (
	_ domain.EventPublisher = (*Producer)(nil)
	_ domain.EventPublisher = (*NoopPublisher)(nil)
)
