// Package httpapi отдаёт корзину по HTTP для слоя отрисовки.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/projection"
)

const (
	// IdempotencyKeyHeader задаёт заголовок для повторяемого оформления заказа.
	IdempotencyKeyHeader = "Idempotency-Key"

	tracingServerName = "storefront-http"
)

// Handler обслуживает /api/* поверх сервисов корзины и оформления.
type Handler struct {
	cart     *cart.Service
	checkout *checkout.Service
	logger   *log.Entry
}

type addItemRequest struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter собирает маршруты API с middleware логирования.
func NewRouter(cartSvc *cart.Service, checkoutSvc *checkout.Service, logger *log.Entry) *mux.Router {
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	h := &Handler{cart: cartSvc, checkout: checkoutSvc, logger: logger}

	r := mux.NewRouter()
	r.Use(otelmux.Middleware(tracingServerName), requestIDMiddleware, loggingMiddleware(logger))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", h.listProducts).Methods(http.MethodGet)
	api.HandleFunc("/cart", h.getCart).Methods(http.MethodGet)
	api.HandleFunc("/cart", h.clearCart).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", h.addItem).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{name}/decrease", h.decreaseItem).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{name}", h.removeItem).Methods(http.MethodDelete)
	api.HandleFunc("/checkout", h.confirm).Methods(http.MethodPost)

	// Промахи внутри /api разрешает подроутер.
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = http.HandlerFunc(notFound)
		router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	}
	return r
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (h *Handler) listProducts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"products": projection.Cards(h.cart.Products())})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.cart.View(r.Context())
	h.respondView(w, r, view, err)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.cart.Clear(r.Context())
	h.respondView(w, r, view, err)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	view, err := h.cart.Add(r.Context(), name)
	h.respondView(w, r, view, err)
}

func (h *Handler) decreaseItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.cart.Decrease(r.Context(), itemName(r))
	h.respondView(w, r, view, err)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.cart.Remove(r.Context(), itemName(r))
	h.respondView(w, r, view, err)
}

func itemName(r *http.Request) string {
	return strings.TrimSpace(mux.Vars(r)["name"])
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	confirmation, err := h.checkout.ConfirmIdempotent(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projection.BuildReceipt(confirmation))
}

func (h *Handler) respondView(w http.ResponseWriter, r *http.Request, view projection.View, err error) {
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// writeDomainError сопоставляет доменные ошибки с HTTP-статусами.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrProductNameRequired), errors.Is(err, domain.ErrProductPriceNegative):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrCartEmpty):
		writeError(w, http.StatusConflict, "cart is empty")
	case errors.Is(err, domain.ErrCheckoutInProgress):
		writeError(w, http.StatusConflict, "request with the same idempotency key is already processing")
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		writeError(w, http.StatusUnprocessableEntity, "idempotency key is already used with different request")
	case errors.Is(err, domain.ErrEventPublish):
		requestLogger(h.logger, r).WithError(err).Error("order event publish failed")
		writeError(w, http.StatusServiceUnavailable, "order event publish failed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		requestLogger(h.logger, r).WithError(err).Error("cart operation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
