package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/storagetest"
)

func TestCartRepository_Contract(t *testing.T) {
	storagetest.RunCartRepository(t, func(t *testing.T) domain.CartRepository {
		return memory.NewCartRepository()
	})
}

func TestCartRepository_ListAllReturnsCopy(t *testing.T) {
	repo := memory.NewCartRepository()
	ctx := context.Background()

	require.NoError(t, repo.AddOrIncrement(ctx, storagetest.Product("Vanilla Panna Cotta", "6.50")))

	items, err := repo.ListAll(ctx)
	require.NoError(t, err)
	items[0].Quantity = 100

	again, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, again[0].Quantity)
}

func TestCartRepository_Ping(t *testing.T) {
	repo := memory.NewCartRepository()
	pinger, ok := repo.(domain.Pinger)
	require.True(t, ok)
	require.NoError(t, pinger.Ping(context.Background()))
}
