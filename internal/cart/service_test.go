package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/projection"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

func newService(t *testing.T, repo domain.CartRepository) *cart.Service {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)
	m := metrics.NewCartMetricsWithRegisterer(prometheus.NewRegistry())
	return cart.NewService(repo, cat, m, loggerForTests())
}

func TestService_WaffleAndBruleeScenario(t *testing.T) {
	svc := newService(t, memory.NewCartRepository())
	ctx := context.Background()

	_, err := svc.Add(ctx, "Waffle with Berries")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "Waffle with Berries")
	require.NoError(t, err)
	view, err := svc.Add(ctx, "Vanilla Bean Crème Brûlée")
	require.NoError(t, err)

	require.Equal(t, "20.00", view.Total)
	require.Equal(t, 2, view.Count)
	require.Equal(t, 3, view.Units)
	require.Equal(t, "13.00", view.Items[0].Subtotal)
	require.Equal(t, "Vanilla Bean Crème Brûlée", view.Preview.Alt)
	require.Equal(t, "./assets/images/image-creme-brulee-thumbnail.jpg", view.Preview.Image)

	view, err = svc.Decrease(ctx, "Waffle with Berries")
	require.NoError(t, err)
	require.Equal(t, "13.50", view.Total)

	view, err = svc.Remove(ctx, "Vanilla Bean Crème Brûlée")
	require.NoError(t, err)
	require.Equal(t, "6.50", view.Total)
	require.Equal(t, "Waffle with Berries", view.Preview.Alt)

	view, err = svc.Clear(ctx)
	require.NoError(t, err)
	require.True(t, view.Empty)
	require.Equal(t, "0.00", view.Total)
	require.Equal(t, projection.EmptyCartIllustration, view.Preview.Image)
	require.Equal(t, "Empty Cart", view.Preview.Alt)
}

func TestService_AddUnknownProduct(t *testing.T) {
	svc := newService(t, memory.NewCartRepository())

	_, err := svc.Add(context.Background(), "Chocolate Soufflé")
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	view, err := svc.View(context.Background())
	require.NoError(t, err)
	require.True(t, view.Empty)
}

func TestService_DecreaseAbsentIsNoop(t *testing.T) {
	svc := newService(t, memory.NewCartRepository())

	view, err := svc.Decrease(context.Background(), "Classic Tiramisu")
	require.NoError(t, err)
	require.True(t, view.Empty)
}

type failingRepo struct {
	domain.CartRepository
	err error
}

func (f failingRepo) AddOrIncrement(context.Context, domain.Product) error { return f.err }

func TestService_StoreFailureIsWrapped(t *testing.T) {
	storeErr := errors.New("disk I/O error")
	svc := newService(t, failingRepo{CartRepository: memory.NewCartRepository(), err: storeErr})

	_, err := svc.Add(context.Background(), "Pistachio Baklava")
	require.ErrorIs(t, err, storeErr)
}

func TestService_Products(t *testing.T) {
	svc := newService(t, memory.NewCartRepository())

	products := svc.Products()
	require.Len(t, products, 9)
	require.True(t, products[0].Price.Equal(decimal.RequireFromString("6.50")))
}
