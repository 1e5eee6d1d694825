// Package checkout подтверждает заказ: снимок корзины, событие order.confirmed, очистка.
package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/projection"
)

const (
	tracerName = "github.com/vladislavdragonenkov/storefront/internal/checkout"

	// OperationConfirm участвует в хеше запроса идемпотентности.
	// У оформления нет параметров, поэтому все запросы с одним ключом равнозначны;
	// запись с другим хешем означает, что ключ занят другой операцией.
	OperationConfirm = "checkout.confirm"

	// DefaultIdempotencyTTL задаёт срок хранения результата по ключу.
	DefaultIdempotencyTTL = domain.DefaultIdempotencyTTL
)

// Коды отказов, которые сохраняются по ключу и повторяются без нового оформления.
const (
	failureCartEmpty  = "cart_empty"
	failureNotCleared = "published_not_cleared"
)

// errClearAfterPublish: событие ушло, а корзина осталась. Повторять такое оформление нельзя.
var errClearAfterPublish = errors.New("order published but cart was not cleared")

type failurePayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Service оформляет заказ из текущего содержимого корзины.
type Service struct {
	mu sync.Mutex

	repo      domain.CartRepository
	publisher domain.EventPublisher
	idemRepo  domain.IdempotencyRepository
	metrics   *metrics.CartMetrics
	tracer    trace.Tracer
	logger    *log.Entry

	idempotencyTTL time.Duration
	now            func() time.Time
	newOrderID     func() string
}

// Option настраивает Service.
type Option func(*Service)

// WithIdempotencyTTL задаёт срок хранения результата по idempotency-key.
func WithIdempotencyTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

// WithClock подменяет источник времени для ConfirmedAt.
// Срок жизни ключей считает репозиторий идемпотентности.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithOrderIDGenerator подменяет генератор идентификаторов заказа.
func WithOrderIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newOrderID = gen }
}

// NewService собирает сервис оформления. idemRepo может быть nil: тогда ключи игнорируются.
func NewService(
	repo domain.CartRepository,
	publisher domain.EventPublisher,
	idemRepo domain.IdempotencyRepository,
	m *metrics.CartMetrics,
	logger *log.Entry,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = log.WithField("component", "checkout")
	}
	s := &Service{
		repo:           repo,
		publisher:      publisher,
		idemRepo:       idemRepo,
		metrics:        m,
		tracer:         otel.Tracer(tracerName),
		logger:         logger,
		idempotencyTTL: DefaultIdempotencyTTL,
		now:            func() time.Time { return time.Now().UTC() },
		newOrderID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Confirm оформляет заказ: пустая корзина даёт ErrCartEmpty,
// ошибка публикации прерывает оформление до очистки корзины.
func (s *Service) Confirm(ctx context.Context) (domain.OrderConfirmation, error) {
	ctx, span := s.tracer.Start(ctx, OperationConfirm)
	defer span.End()

	// Снимок, публикация и очистка не должны перемежаться с другим оформлением.
	s.mu.Lock()
	defer s.mu.Unlock()

	confirmation, err := s.confirmLocked(ctx)
	s.metrics.RecordCheckout(confirmation.Total.InexactFloat64(), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.OrderConfirmation{}, err
	}

	span.SetAttributes(
		attribute.String("order.id", confirmation.OrderID),
		attribute.Int("order.line_items", len(confirmation.Items)),
	)
	return confirmation, nil
}

func (s *Service) confirmLocked(ctx context.Context) (domain.OrderConfirmation, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return domain.OrderConfirmation{}, fmt.Errorf("snapshot cart: %w", err)
	}
	if projection.IsEmpty(items) {
		return domain.OrderConfirmation{}, domain.ErrCartEmpty
	}

	confirmation := domain.OrderConfirmation{
		OrderID:     s.newOrderID(),
		Items:       items,
		Total:       projection.Total(items),
		ConfirmedAt: s.now(),
	}
	if errs := confirmation.ValidateInvariants(); len(errs) > 0 {
		return domain.OrderConfirmation{}, fmt.Errorf("invalid order confirmation: %w", errors.Join(errs...))
	}

	logger := s.logger.WithField("order_id", confirmation.OrderID)

	if err := s.publisher.PublishOrderConfirmed(ctx, confirmation); err != nil {
		logger.WithError(err).Error("failed to publish order confirmed event")
		return domain.OrderConfirmation{}, fmt.Errorf("%w: %w", domain.ErrEventPublish, err)
	}

	// Событие уже отправлено: очистку нельзя прерывать отменой запроса.
	if err := s.repo.Clear(context.WithoutCancel(ctx)); err != nil {
		logger.WithError(err).Error("order published but cart was not cleared")
		return domain.OrderConfirmation{}, fmt.Errorf("%w: %w", errClearAfterPublish, err)
	}
	s.metrics.SetLineItems(0)

	logger.WithFields(log.Fields{
		"items": len(confirmation.Items),
		"total": projection.FormatMoney(confirmation.Total),
	}).Info("order confirmed")

	return confirmation, nil
}

// ConfirmIdempotent выполняет Confirm не более одного раза на ключ.
// Пустой ключ означает обычный Confirm.
func (s *Service) ConfirmIdempotent(ctx context.Context, key string) (domain.OrderConfirmation, error) {
	key = strings.TrimSpace(key)
	if key == "" || s.idemRepo == nil {
		return s.Confirm(ctx)
	}

	record, err := s.idemRepo.CreateProcessing(key, requestHash(OperationConfirm), s.idempotencyTTL)
	if err != nil {
		return s.replay(key, record, err)
	}

	confirmation, runErr := s.Confirm(ctx)
	if runErr != nil {
		s.settleFailure(key, runErr)
		return domain.OrderConfirmation{}, runErr
	}

	body, err := json.Marshal(confirmation)
	if err == nil {
		err = s.idemRepo.MarkDone(key, body)
	}
	if err != nil {
		s.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent checkout response")
	}

	return confirmation, nil
}

func (s *Service) replay(key string, record domain.IdempotencyRecord, createErr error) (domain.OrderConfirmation, error) {
	if !domain.IsIdempotencyConflict(createErr) {
		return domain.OrderConfirmation{}, fmt.Errorf("init idempotency key %s: %w", key, createErr)
	}
	if errors.Is(createErr, domain.ErrIdempotencyHashMismatch) {
		return domain.OrderConfirmation{}, createErr
	}

	switch record.Status {
	case domain.IdempotencyStatusDone:
		var confirmation domain.OrderConfirmation
		if err := json.Unmarshal(record.ResponseBody, &confirmation); err != nil {
			return domain.OrderConfirmation{}, fmt.Errorf("decode cached checkout response: %w", err)
		}
		s.logger.WithFields(log.Fields{
			"idempotency_key": key,
			"order_id":        confirmation.OrderID,
		}).Info("checkout replayed from idempotency cache")
		return confirmation, nil
	case domain.IdempotencyStatusProcessing:
		return domain.OrderConfirmation{}, domain.ErrCheckoutInProgress
	case domain.IdempotencyStatusFailed:
		return domain.OrderConfirmation{}, decodeFailure(record.ResponseBody)
	default:
		return domain.OrderConfirmation{}, fmt.Errorf("unknown idempotency status %q", record.Status)
	}
}

// settleFailure сохраняет по ключу только окончательные отказы.
// Остальные ошибки освобождают ключ, и повтор выполняется заново.
func (s *Service) settleFailure(key string, runErr error) {
	logger := s.logger.WithField("idempotency_key", key)

	var code string
	switch {
	case errors.Is(runErr, domain.ErrCartEmpty):
		code = failureCartEmpty
	case errors.Is(runErr, errClearAfterPublish):
		code = failureNotCleared
	default:
		if err := s.idemRepo.Release(key); err != nil {
			logger.WithError(err).Warn("failed to release idempotency key")
		}
		return
	}

	body, err := json.Marshal(failurePayload{Code: code, Message: runErr.Error()})
	if err == nil {
		err = s.idemRepo.MarkFailed(key, body)
	}
	if err != nil {
		logger.WithError(err).Warn("failed to store idempotency failure response")
	}
}

func decodeFailure(body []byte) error {
	var payload failurePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return errors.New("previous checkout with the same idempotency key failed")
	}

	if payload.Code == failureCartEmpty {
		return domain.ErrCartEmpty
	}
	return fmt.Errorf("previous checkout failed: %s", payload.Message)
}

func requestHash(operation string) string {
	sum := sha256.Sum256([]byte(operation))
	return hex.EncodeToString(sum[:])
}
