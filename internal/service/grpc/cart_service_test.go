package grpcsvc_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	grpcsvc "github.com/vladislavdragonenkov/storefront/internal/service/grpc"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

const bufSize = 1024 * 1024

type stubPublisher struct {
	published int
	err       error
}

func (p *stubPublisher) PublishOrderConfirmed(context.Context, domain.OrderConfirmation) error {
	if p.err != nil {
		return p.err
	}
	p.published++
	return nil
}

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: false, DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

func newTestClient(t *testing.T, publisher domain.EventPublisher) grpcsvc.CartServiceClient {
	t.Helper()

	logger := loggerForTests()
	cat, err := catalog.Default()
	require.NoError(t, err)

	repo := memory.NewCartRepository()
	m := metrics.NewCartMetricsWithRegisterer(prometheus.NewRegistry())
	cartSvc := cart.NewService(repo, cat, m, logger)
	checkoutSvc := checkout.NewService(repo, publisher, memory.NewIdempotencyRepository(), m, logger)

	listener := bufconn.Listen(bufSize)
	server := grpc.NewServer()
	grpcsvc.RegisterCartServiceServer(server, grpcsvc.NewCartService(cartSvc, checkoutSvc, logger))

	go func() {
		if err := server.Serve(listener); err != nil {
			logger.WithError(err).Error("grpc serve failed")
		}
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return listener.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		server.Stop()
	})

	return grpcsvc.NewCartServiceClient(conn)
}

func TestCartService_ListProducts(t *testing.T) {
	client := newTestClient(t, &stubPublisher{})

	resp, err := client.ListProducts(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)

	products := resp.GetFields()["products"].GetListValue().GetValues()
	require.Len(t, products, 9)
	first := products[0].GetStructValue().GetFields()
	require.Equal(t, "Waffle with Berries", first["name"].GetStringValue())
	require.Equal(t, "6.50", first["price"].GetStringValue())
}

func TestCartService_AddDecreaseRemove(t *testing.T) {
	client := newTestClient(t, &stubPublisher{})
	ctx := context.Background()
	waffle := wrapperspb.String("Waffle with Berries")

	_, err := client.AddItem(ctx, waffle)
	require.NoError(t, err)
	_, err = client.AddItem(ctx, waffle)
	require.NoError(t, err)
	resp, err := client.AddItem(ctx, wrapperspb.String("Vanilla Bean Crème Brûlée"))
	require.NoError(t, err)

	view := resp.AsMap()
	require.Equal(t, "20.00", view["total"])
	require.EqualValues(t, 2, view["count"])

	resp, err = client.DecreaseItem(ctx, waffle)
	require.NoError(t, err)
	require.Equal(t, "13.50", resp.AsMap()["total"])

	resp, err = client.RemoveItem(ctx, wrapperspb.String("Vanilla Bean Crème Brûlée"))
	require.NoError(t, err)
	require.Equal(t, "6.50", resp.AsMap()["total"])

	resp, err = client.ClearCart(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	require.Equal(t, true, resp.AsMap()["empty"])

	resp, err = client.GetCart(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	require.Equal(t, "0.00", resp.AsMap()["total"])
}

func TestCartService_ErrorCodes(t *testing.T) {
	client := newTestClient(t, &stubPublisher{})
	ctx := context.Background()

	_, err := client.AddItem(ctx, wrapperspb.String("Chocolate Soufflé"))
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.AddItem(ctx, wrapperspb.String("  "))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Checkout(ctx, &emptypb.Empty{})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestCartService_CheckoutIdempotentReplay(t *testing.T) {
	publisher := &stubPublisher{}
	client := newTestClient(t, publisher)
	ctx := metadata.AppendToOutgoingContext(context.Background(), grpcsvc.IdempotencyKeyHeader, "checkout-1")

	_, err := client.AddItem(ctx, wrapperspb.String("Classic Tiramisu"))
	require.NoError(t, err)

	first, err := client.Checkout(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	require.Equal(t, "5.50", first.AsMap()["total"])
	require.NotEmpty(t, first.AsMap()["order_id"])

	second, err := client.Checkout(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	require.Equal(t, first.AsMap()["order_id"], second.AsMap()["order_id"])
	require.Equal(t, 1, publisher.published)

	cartResp, err := client.GetCart(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	require.Equal(t, true, cartResp.AsMap()["empty"])
}

func TestCartService_CheckoutPublishFailure(t *testing.T) {
	client := newTestClient(t, &stubPublisher{err: errors.New("broker down")})
	ctx := context.Background()

	_, err := client.AddItem(ctx, wrapperspb.String("Pistachio Baklava"))
	require.NoError(t, err)

	_, err = client.Checkout(ctx, &emptypb.Empty{})
	require.Equal(t, codes.Unavailable, status.Code(err))

	resp, err := client.GetCart(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	require.Equal(t, "4.00", resp.AsMap()["total"])
}
