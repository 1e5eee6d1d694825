package domain

import "errors"

var (
	// ErrStoreNotInitialized возвращается при обращении к хранилищу до его открытия.
	ErrStoreNotInitialized = errors.New("cart store is not initialized")
	// Ошибка отсутствующего имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательной цены товара.
	ErrProductPriceNegative = errors.New("product price must be non-negative")
	// ErrProductNotFound возвращается, если товара нет в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// Ошибка при количестве позиции меньше единицы.
	ErrQuantityInvalid = errors.New("line item quantity must be at least one")
	// ErrDuplicateLineItem сигнализирует о нарушении уникального индекса по имени.
	ErrDuplicateLineItem = errors.New("line item with this name already exists")
	// ErrCartEmpty возвращается при попытке оформить пустую корзину.
	ErrCartEmpty = errors.New("cart is empty")
	// Ошибка отсутствующего идентификатора заказа в подтверждении.
	ErrOrderIDRequired = errors.New("order_id is required")
	// Ошибка несоответствия суммы подтверждения и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match items sum")
	// ErrEventPublish возвращается при ошибке публикации события о заказе.
	ErrEventPublish = errors.New("order event publish failed")
	// Ошибка отсутствующего idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// Ошибка отсутствующего хэша запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists: ключ уже использован тем же запросом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch: ключ уже использован другим запросом.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// ErrIdempotencyKeyNotFound возвращается, если запись по ключу отсутствует.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrCheckoutInProgress: оформление с тем же ключом ещё выполняется.
	ErrCheckoutInProgress = errors.New("checkout with the same idempotency key is in progress")
)

// IsNotFound проверяет, что ошибка означает отсутствие товара в каталоге.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

// IsIdempotencyConflict проверяет, связана ли ошибка с повторным использованием ключа.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}
