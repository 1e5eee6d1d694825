// Package cart связывает хранилище корзины с каталогом и отдаёт отображаемый вид
// после каждой операции.
package cart

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/projection"
)

const tracerName = "github.com/vladislavdragonenkov/storefront/internal/cart"

// Имена операций для метрик и спанов.
const (
	OpAdd      = "add"
	OpDecrease = "decrease"
	OpRemove   = "remove"
	OpClear    = "clear"
	OpView     = "view"
)

// Service выполняет операции корзины поверх CartRepository.
type Service struct {
	repo    domain.CartRepository
	catalog *catalog.Catalog
	metrics *metrics.CartMetrics
	tracer  trace.Tracer
	logger  *log.Entry
}

// NewService конструирует сервис; metrics и logger могут быть nil.
func NewService(repo domain.CartRepository, cat *catalog.Catalog, m *metrics.CartMetrics, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "cart-service")
	}
	return &Service{
		repo:    repo,
		catalog: cat,
		metrics: m,
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
	}
}

// Products возвращает товары каталога в исходном порядке.
func (s *Service) Products() []domain.Product {
	return s.catalog.List()
}

// Add добавляет товар каталога по имени; повторное добавление увеличивает количество.
func (s *Service) Add(ctx context.Context, name string) (projection.View, error) {
	product, ok := s.catalog.Find(name)
	if !ok {
		s.metrics.RecordOperation(OpAdd, 0, domain.ErrProductNotFound)
		return projection.View{}, fmt.Errorf("add %q: %w", name, domain.ErrProductNotFound)
	}

	return s.mutate(ctx, OpAdd, name, func(ctx context.Context) error {
		return s.repo.AddOrIncrement(ctx, product)
	})
}

// Decrease уменьшает количество позиции; позиция с количеством 1 удаляется.
func (s *Service) Decrease(ctx context.Context, name string) (projection.View, error) {
	return s.mutate(ctx, OpDecrease, name, func(ctx context.Context) error {
		return s.repo.DecrementOrRemove(ctx, name)
	})
}

// Remove удаляет позицию целиком.
func (s *Service) Remove(ctx context.Context, name string) (projection.View, error) {
	return s.mutate(ctx, OpRemove, name, func(ctx context.Context) error {
		return s.repo.Remove(ctx, name)
	})
}

// Clear очищает корзину.
func (s *Service) Clear(ctx context.Context) (projection.View, error) {
	return s.mutate(ctx, OpClear, "", s.repo.Clear)
}

// View читает корзину и строит её отображаемый вид.
func (s *Service) View(ctx context.Context) (projection.View, error) {
	ctx, span := s.tracer.Start(ctx, "cart."+OpView)
	defer span.End()

	start := time.Now()
	items, err := s.repo.ListAll(ctx)
	s.metrics.RecordOperation(OpView, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return projection.View{}, fmt.Errorf("list cart items: %w", err)
	}

	s.metrics.SetLineItems(len(items))
	view := projection.Build(items)
	span.SetAttributes(attribute.Int("cart.line_items", view.Count))
	return view, nil
}

// mutate выполняет изменение и перечитывает корзину целиком.
func (s *Service) mutate(ctx context.Context, op, name string, fn func(ctx context.Context) error) (projection.View, error) {
	ctx, span := s.tracer.Start(ctx, "cart."+op, trace.WithAttributes(attribute.String("cart.product", name)))
	defer span.End()

	logger := s.logger.WithFields(log.Fields{"operation": op, "product": name})

	start := time.Now()
	err := fn(ctx)
	s.metrics.RecordOperation(op, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithError(err).Error("cart operation failed")
		return projection.View{}, fmt.Errorf("cart %s: %w", op, err)
	}
	logger.Debug("cart operation applied")

	return s.View(ctx)
}
