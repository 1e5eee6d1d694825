package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/vladislavdragonenkov/storefront/internal/projection"
	grpcsvc "github.com/vladislavdragonenkov/storefront/internal/service/grpc"
)

const usage = `usage: cartctl [flags] <command> [product name]

commands:
  products          list catalog
  show              print cart
  add NAME          add one unit of product
  decrease NAME     remove one unit of product
  remove NAME       remove product line entirely
  clear             empty the cart
  checkout          confirm order
`

type config struct {
	addr           string
	timeout        time.Duration
	idempotencyKey string
	rawJSON        bool
	command        string
	name           string
}

func parseConfig(args []string) (config, error) {
	var cfg config

	fs := pflag.NewFlagSet("cartctl", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&cfg.addr, "addr", "a", "localhost:50051", "gRPC address of storefront")
	fs.DurationVarP(&cfg.timeout, "timeout", "t", 5*time.Second, "per-call timeout")
	fs.StringVarP(&cfg.idempotencyKey, "idempotency-key", "k", "", "idempotency key for checkout (default: random)")
	fs.BoolVar(&cfg.rawJSON, "json", false, "print raw JSON response")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return config{}, errors.New("command is required")
	}
	cfg.command = strings.ToLower(rest[0])
	cfg.name = strings.TrimSpace(strings.Join(rest[1:], " "))

	switch cfg.command {
	case "add", "decrease", "remove":
		if cfg.name == "" {
			return config{}, fmt.Errorf("%s requires a product name", cfg.command)
		}
	case "products", "show", "clear", "checkout":
	default:
		return config{}, fmt.Errorf("unknown command %q", cfg.command)
	}
	if cfg.timeout <= 0 {
		return config{}, errors.New("timeout must be > 0")
	}
	if cfg.command == "checkout" && strings.TrimSpace(cfg.idempotencyKey) == "" {
		cfg.idempotencyKey = uuid.NewString()
	}
	return cfg, nil
}

// execute выполняет одну команду и печатает результат в out.
func execute(ctx context.Context, client grpcsvc.CartServiceClient, cfg config, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		resp *structpb.Struct
		err  error
	)
	switch cfg.command {
	case "products":
		resp, err = client.ListProducts(ctx, &emptypb.Empty{})
	case "show":
		resp, err = client.GetCart(ctx, &emptypb.Empty{})
	case "add":
		resp, err = client.AddItem(ctx, wrapperspb.String(cfg.name))
	case "decrease":
		resp, err = client.DecreaseItem(ctx, wrapperspb.String(cfg.name))
	case "remove":
		resp, err = client.RemoveItem(ctx, wrapperspb.String(cfg.name))
	case "clear":
		resp, err = client.ClearCart(ctx, &emptypb.Empty{})
	case "checkout":
		ctx = metadata.AppendToOutgoingContext(ctx, grpcsvc.IdempotencyKeyHeader, cfg.idempotencyKey)
		resp, err = client.Checkout(ctx, &emptypb.Empty{})
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.command, err)
	}

	data, err := protojson.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if cfg.rawJSON {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	switch cfg.command {
	case "products":
		var list struct {
			Products []projection.ProductCard `json:"products"`
		}
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode products: %w", err)
		}
		return printProducts(out, list.Products)
	case "checkout":
		var receipt projection.Receipt
		if err := json.Unmarshal(data, &receipt); err != nil {
			return fmt.Errorf("decode receipt: %w", err)
		}
		return printReceipt(out, receipt)
	default:
		var view projection.View
		if err := json.Unmarshal(data, &view); err != nil {
			return fmt.Errorf("decode cart: %w", err)
		}
		return printCart(out, view)
	}
}

func printProducts(out io.Writer, products []projection.ProductCard) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tCATEGORY\tPRICE")
	for _, p := range products {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t$%s\n", p.Name, p.Category, p.Price)
	}
	return tw.Flush()
}

func printCart(out io.Writer, view projection.View) error {
	_, _ = fmt.Fprintf(out, "Your Cart (%d)\n", view.Count)
	if view.Empty {
		_, _ = fmt.Fprintln(out, "Your added items will appear here")
		_, err := fmt.Fprintf(out, "preview: %s\n", view.Preview.Image)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, item := range view.Items {
		_, _ = fmt.Fprintf(tw, "%s\t%dx\t@ $%s\t$%s\n", item.Name, item.Quantity, item.UnitPrice, item.Subtotal)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Order Total $%s\n", view.Total)
	_, err := fmt.Fprintf(out, "preview: %s (%s)\n", view.Preview.Image, view.Preview.Alt)
	return err
}

func printReceipt(out io.Writer, receipt projection.Receipt) error {
	_, _ = fmt.Fprintf(out, "Order Confirmed %s\n", receipt.OrderID)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, item := range receipt.Items {
		_, _ = fmt.Fprintf(tw, "%s\t%dx\t@ $%s\t$%s\n", item.Name, item.Quantity, item.UnitPrice, item.Subtotal)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "Order Total $%s\n", receipt.Total)
	return err
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "cartctl: %v\n\n%s", err, usage)
		os.Exit(2)
	}

	conn, err := grpc.NewClient(cfg.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "cartctl: dial %s: %v\n", cfg.addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := execute(context.Background(), grpcsvc.NewCartServiceClient(conn), cfg, os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "cartctl: %v\n", err)
		_ = conn.Close()
		os.Exit(1)
	}
}
