package grpcsvc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/projection"
)

// IdempotencyKeyHeader задаёт ключ metadata для повторяемого оформления заказа.
const IdempotencyKeyHeader = "idempotency-key"

// CartService реализует gRPC API поверх сервисов корзины и оформления.
type CartService struct {
	cart     *cart.Service
	checkout *checkout.Service
	logger   *log.Entry
}

// NewCartService конструирует сервис с зависимостями.
func NewCartService(cartSvc *cart.Service, checkoutSvc *checkout.Service, logger *log.Entry) *CartService {
	if logger == nil {
		logger = log.WithField("component", "grpc-cart-service")
	}
	return &CartService{
		cart:     cartSvc,
		checkout: checkoutSvc,
		logger:   logger,
	}
}

// productList оборачивает список, т.к. ответ должен быть JSON-объектом.
type productList struct {
	Products []projection.ProductCard `json:"products"`
}

// ListProducts возвращает каталог.
func (s *CartService) ListProducts(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.toStruct("ListProducts", productList{Products: projection.Cards(s.cart.Products())})
}

// GetCart возвращает текущий вид корзины.
func (s *CartService) GetCart(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	view, err := s.cart.View(ctx)
	return s.viewResponse("GetCart", view, err)
}

// AddItem добавляет товар каталога по имени.
func (s *CartService) AddItem(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	name, err := productName(req)
	if err != nil {
		return nil, err
	}
	view, err := s.cart.Add(ctx, name)
	return s.viewResponse("AddItem", view, err)
}

// DecreaseItem уменьшает количество позиции.
func (s *CartService) DecreaseItem(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	name, err := productName(req)
	if err != nil {
		return nil, err
	}
	view, err := s.cart.Decrease(ctx, name)
	return s.viewResponse("DecreaseItem", view, err)
}

// RemoveItem удаляет позицию целиком.
func (s *CartService) RemoveItem(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	name, err := productName(req)
	if err != nil {
		return nil, err
	}
	view, err := s.cart.Remove(ctx, name)
	return s.viewResponse("RemoveItem", view, err)
}

// ClearCart очищает корзину без оформления заказа.
func (s *CartService) ClearCart(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	view, err := s.cart.Clear(ctx)
	return s.viewResponse("ClearCart", view, err)
}

// Checkout оформляет заказ; idempotency-key в metadata делает вызов повторяемым.
func (s *CartService) Checkout(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	confirmation, err := s.checkout.ConfirmIdempotent(ctx, readIdempotencyKey(ctx))
	if err != nil {
		return nil, s.toStatus("Checkout", err)
	}
	return s.toStruct("Checkout", projection.BuildReceipt(confirmation))
}

func (s *CartService) viewResponse(method string, view projection.View, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, s.toStatus(method, err)
	}
	return s.toStruct(method, view)
}

// toStruct переводит JSON-представление значения в google.protobuf.Struct.
func (s *CartService) toStruct(method string, v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.WithError(err).WithField("method", method).Error("failed to encode response")
		return nil, status.Error(codes.Internal, "failed to encode response")
	}

	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		s.logger.WithError(err).WithField("method", method).Error("failed to convert response")
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// toStatus сопоставляет доменные ошибки с кодами gRPC.
func (s *CartService) toStatus(method string, err error) error {
	switch {
	case domain.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrCartEmpty):
		return status.Error(codes.FailedPrecondition, "cart is empty")
	case errors.Is(err, domain.ErrCheckoutInProgress):
		return status.Error(codes.Aborted, "request with the same idempotency key is already processing")
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return status.Error(codes.AlreadyExists, "idempotency key is already used with different request")
	case errors.Is(err, domain.ErrEventPublish):
		s.logger.WithError(err).WithField("method", method).Error("order event publish failed")
		return status.Error(codes.Unavailable, "order event publish failed")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.WithError(err).WithField("method", method).Error("cart operation failed")
		return status.Error(codes.Internal, "internal error")
	}
}

func productName(req *wrapperspb.StringValue) (string, error) {
	name := strings.TrimSpace(req.GetValue())
	if name == "" {
		return "", status.Error(codes.InvalidArgument, "product name is required")
	}
	return name, nil
}

func readIdempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(IdempotencyKeyHeader)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

var _ CartServiceServer = (*CartService)(nil)
