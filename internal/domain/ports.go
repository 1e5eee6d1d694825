package domain

import (
	"context"
	"time"
)

// EventPublisher публикует события подтверждённых заказов.
type EventPublisher interface {
	// PublishOrderConfirmed передаёт событие наружу; ключом события служит OrderID.
	PublishOrderConfirmed(ctx context.Context, confirmation OrderConfirmation) error
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
// Срок жизни записи и её просрочка считаются по часам самого репозитория.
type IdempotencyRepository interface {
	// CreateProcessing занимает ключ на ttl; ttl <= 0 означает DefaultIdempotencyTTL.
	CreateProcessing(key, requestHash string, ttl time.Duration) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte) error
	MarkFailed(key string, responseBody []byte) error
	// Release освобождает ключ, чтобы повтор с ним выполнился заново.
	Release(key string) error
	DeleteExpired(before time.Time, limit int) (int, error)
}
