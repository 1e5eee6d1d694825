package domain

import "context"

// CartRepository описывает хранилище позиций корзины.
// Каждая операция выполняется как отдельная атомарная единица работы.
type CartRepository interface {
	// AddOrIncrement увеличивает количество существующей позиции или создаёт новую с quantity=1.
	AddOrIncrement(ctx context.Context, product Product) error
	// DecrementOrRemove уменьшает количество или удаляет позицию при quantity=1.
	// Отсутствие позиции не считается ошибкой.
	DecrementOrRemove(ctx context.Context, name string) error
	// Remove удаляет позицию по имени; отсутствие позиции не считается ошибкой.
	Remove(ctx context.Context, name string) error
	// ListAll возвращает все позиции в порядке хранилища (по возрастанию ID).
	ListAll(ctx context.Context) ([]LineItem, error)
	// Clear удаляет все позиции.
	Clear(ctx context.Context) error
}

// Pinger реализуется хранилищами, доступность которых можно проверить.
type Pinger interface {
	Ping(ctx context.Context) error
}
