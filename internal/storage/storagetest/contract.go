// Package storagetest содержит общий набор проверок для реализаций CartRepository.
// Пакет подключается только из _test.go файлов хранилищ.
package storagetest

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/projection"
)

// Factory создаёт пустое хранилище для одного подтеста.
type Factory func(t *testing.T) domain.CartRepository

// Product собирает товар с картинками в формате каталога.
func Product(name, price string) domain.Product {
	return domain.Product{
		Name:     name,
		Category: "Dessert",
		Price:    decimal.RequireFromString(price),
		Image: domain.Image{
			Thumbnail: "./assets/images/" + name + "-thumbnail.jpg",
			Mobile:    "./assets/images/" + name + "-mobile.jpg",
			Tablet:    "./assets/images/" + name + "-tablet.jpg",
			Desktop:   "./assets/images/" + name + "-desktop.jpg",
		},
	}
}

// RunCartRepository прогоняет контракт CartRepository на хранилище из newRepo.
func RunCartRepository(t *testing.T, newRepo Factory) {
	t.Helper()

	t.Run("AddSameNameAccumulatesQuantity", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		waffle := Product("Waffle with Berries", "6.50")

		for i := 0; i < 3; i++ {
			require.NoError(t, repo.AddOrIncrement(ctx, waffle))
		}

		items, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, 3, items[0].Quantity)
		require.Equal(t, "Waffle with Berries", items[0].Name)
		require.True(t, items[0].Price.Equal(decimal.RequireFromString("6.50")))
	})

	t.Run("RoundTripKeepsProductFields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		product := Product("Classic Tiramisu", "5.50")

		require.NoError(t, repo.AddOrIncrement(ctx, product))

		items, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.NotZero(t, items[0].ID)
		require.Equal(t, product.Name, items[0].Name)
		require.Equal(t, product.Category, items[0].Category)
		require.Equal(t, product.Image, items[0].Image)
		require.True(t, product.Price.Equal(items[0].Price))
		require.Equal(t, 1, items[0].Quantity)
	})

	t.Run("DecrementKeepsIDAndRemovesAtOne", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		baklava := Product("Pistachio Baklava", "4.00")

		require.NoError(t, repo.AddOrIncrement(ctx, baklava))
		require.NoError(t, repo.AddOrIncrement(ctx, baklava))

		before, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, before, 1)

		require.NoError(t, repo.DecrementOrRemove(ctx, baklava.Name))
		after, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, after, 1)
		require.Equal(t, before[0].ID, after[0].ID)
		require.Equal(t, 1, after[0].Quantity)

		require.NoError(t, repo.DecrementOrRemove(ctx, baklava.Name))
		empty, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Empty(t, empty)
	})

	t.Run("AbsentNamesAreNoOps", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.AddOrIncrement(ctx, Product("Red Velvet Cake", "4.50")))
		require.NoError(t, repo.DecrementOrRemove(ctx, "Nope"))
		require.NoError(t, repo.Remove(ctx, "Nope"))

		items, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, 1, items[0].Quantity)
	})

	t.Run("RemoveDeletesRegardlessOfQuantity", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		pie := Product("Lemon Meringue Pie", "5.00")

		for i := 0; i < 4; i++ {
			require.NoError(t, repo.AddOrIncrement(ctx, pie))
		}
		require.NoError(t, repo.Remove(ctx, pie.Name))

		items, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Empty(t, items)
	})

	t.Run("ClearEmptiesCartAndIDsAreNotReused", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.AddOrIncrement(ctx, Product("A", "1.00")))
		require.NoError(t, repo.AddOrIncrement(ctx, Product("B", "2.00")))

		before, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, before, 2)
		maxID := before[1].ID

		require.NoError(t, repo.Clear(ctx))
		items, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Empty(t, items)

		require.NoError(t, repo.AddOrIncrement(ctx, Product("A", "1.00")))
		items, err = repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Greater(t, items[0].ID, maxID)
	})

	t.Run("ListAllOrderedByID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, name := range []string{"C", "A", "B"} {
			require.NoError(t, repo.AddOrIncrement(ctx, Product(name, "1.00")))
		}
		// Повторное добавление не меняет порядок.
		require.NoError(t, repo.AddOrIncrement(ctx, Product("C", "1.00")))

		items, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, items, 3)
		require.Equal(t, []string{"C", "A", "B"}, []string{items[0].Name, items[1].Name, items[2].Name})
		require.Less(t, items[0].ID, items[1].ID)
		require.Less(t, items[1].ID, items[2].ID)
	})

	t.Run("WaffleAndBruleeScenario", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		waffle := Product("Waffle with Berries", "6.50")
		brulee := Product("Vanilla Bean Crème Brûlée", "7.00")

		total := func() string {
			items, err := repo.ListAll(ctx)
			require.NoError(t, err)
			return projection.FormatMoney(projection.Total(items))
		}

		require.NoError(t, repo.AddOrIncrement(ctx, waffle))
		require.NoError(t, repo.AddOrIncrement(ctx, waffle))
		require.NoError(t, repo.AddOrIncrement(ctx, brulee))
		require.Equal(t, "20.00", total())

		require.NoError(t, repo.DecrementOrRemove(ctx, waffle.Name))
		require.Equal(t, "13.50", total())

		require.NoError(t, repo.Remove(ctx, brulee.Name))
		require.Equal(t, "6.50", total())

		require.NoError(t, repo.Clear(ctx))
		require.Equal(t, "0.00", total())
	})

	t.Run("InvalidProductRejected", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.ErrorIs(t, repo.AddOrIncrement(ctx, Product("", "1.00")), domain.ErrProductNameRequired)
		require.ErrorIs(t, repo.AddOrIncrement(ctx, Product("X", "-1.00")), domain.ErrProductPriceNegative)

		items, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Empty(t, items)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		repo := newRepo(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, repo.AddOrIncrement(ctx, Product("A", "1.00")), context.Canceled)
	})

	t.Run("ConcurrentAddsAreNotLost", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		const workers = 8
		const perWorker = 5

		var wg sync.WaitGroup
		errs := make(chan error, workers*perWorker)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					errs <- repo.AddOrIncrement(ctx, Product("Salted Caramel Brownie", "4.50"))
				}
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		items, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, workers*perWorker, items[0].Quantity)
	})

	t.Run("ConcurrentAddAndClearKeepStoreConsistent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		const rounds = 25
		brownie := Product("Salted Caramel Brownie", "4.50")

		var wg sync.WaitGroup
		errs := make(chan error, 2*rounds)
		for i := 0; i < rounds; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				errs <- repo.AddOrIncrement(ctx, brownie)
			}()
			go func() {
				defer wg.Done()
				errs <- repo.Clear(ctx)
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		items, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.LessOrEqual(t, len(items), 1)
		if len(items) == 1 {
			require.LessOrEqual(t, items[0].Quantity, rounds)
		}

		require.NoError(t, repo.Clear(ctx))
		require.NoError(t, repo.AddOrIncrement(ctx, brownie))
		items, err = repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, 1, items[0].Quantity)
	})
}
