package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// cartRepositoryInMemory реализует CartRepository в памяти процесса.
// items упорядочены по ID, byName играет роль уникального индекса.
type cartRepositoryInMemory struct {
	mu     sync.Mutex
	nextID int64
	items  []domain.LineItem
	byName map[string]int64
}

// NewCartRepository возвращает in-memory корзину для локальной разработки и тестов.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{
		byName: make(map[string]int64),
	}
}

// AddOrIncrement увеличивает количество или добавляет позицию с quantity=1.
func (r *cartRepositoryInMemory) AddOrIncrement(ctx context.Context, product domain.Product) error {
	if err := r.ready(ctx); err != nil {
		return err
	}
	if err := product.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byName[product.Name]; ok {
		idx := r.indexOf(id)
		r.items[idx].Quantity++
		return nil
	}

	// Счётчик только растёт: удалённые ID повторно не выдаются.
	r.nextID++
	r.items = append(r.items, domain.LineItem{
		ID:       r.nextID,
		Product:  product,
		Quantity: 1,
	})
	r.byName[product.Name] = r.nextID
	return nil
}

// DecrementOrRemove уменьшает количество; при quantity=1 удаляет позицию.
func (r *cartRepositoryInMemory) DecrementOrRemove(ctx context.Context, name string) error {
	if err := r.ready(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byName[name]
	if !ok {
		return nil
	}

	idx := r.indexOf(id)
	if r.items[idx].Quantity > 1 {
		r.items[idx].Quantity--
		return nil
	}
	r.deleteAt(idx)
	return nil
}

// Remove удаляет позицию по имени, если она есть.
func (r *cartRepositoryInMemory) Remove(ctx context.Context, name string) error {
	if err := r.ready(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byName[name]
	if !ok {
		return nil
	}
	r.deleteAt(r.indexOf(id))
	return nil
}

// ListAll возвращает копию позиций в порядке вставки.
func (r *cartRepositoryInMemory) ListAll(ctx context.Context) ([]domain.LineItem, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.LineItem, len(r.items))
	copy(result, r.items)
	return result, nil
}

// Clear удаляет все позиции, не сбрасывая счётчик ID.
func (r *cartRepositoryInMemory) Clear(ctx context.Context) error {
	if err := r.ready(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = nil
	clear(r.byName)
	return nil
}

// Ping всегда успешен для in-memory хранилища.
func (r *cartRepositoryInMemory) Ping(ctx context.Context) error {
	return r.ready(ctx)
}

func (r *cartRepositoryInMemory) ready(ctx context.Context) error {
	if r == nil || r.byName == nil {
		return domain.ErrStoreNotInitialized
	}
	return ctx.Err()
}

func (r *cartRepositoryInMemory) indexOf(id int64) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	// byName и items меняются только под одной блокировкой.
	panic(fmt.Sprintf("memory cart: index is out of sync for id %d", id))
}

func (r *cartRepositoryInMemory) deleteAt(idx int) {
	delete(r.byName, r.items[idx].Name)
	r.items = append(r.items[:idx], r.items[idx+1:]...)
}

var (
	_ domain.CartRepository = (*cartRepositoryInMemory)(nil)
	_ domain.Pinger         = (*cartRepositoryInMemory)(nil)
)
