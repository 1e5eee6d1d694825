package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/projection"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.GRPCAddr = fmt.Sprintf("127.0.0.1:%d", findFreePort(t))
	cfg.HTTPAddr = fmt.Sprintf("127.0.0.1:%d", findFreePort(t))
	cfg.MetricsAddr = fmt.Sprintf("127.0.0.1:%d", findFreePort(t))
	cfg.SQLitePath = filepath.Join(t.TempDir(), "storefront.db")
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func TestRun_SQLiteServesCartAndShutsDown(t *testing.T) {
	cfg := testConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Run(ctx, cfg) }()

	base := "http://" + cfg.HTTPAddr
	waitForHTTP(t, base+"/api/cart")

	resp, err := http.Post(base+"/api/cart/items", "application/json", strings.NewReader(`{"name":"Waffle with Berries"}`))
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	var view projection.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	resp.Body.Close()
	if view.Total != "6.50" || view.Count != 1 {
		t.Fatalf("unexpected view: %+v", view)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestRun_MemoryGracefulShutdown(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageDriver = StorageDriverMemory

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	err := Run(ctx, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_InvalidStorageDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageDriver = "invalid-driver"

	err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "unsupported storage driver") {
		t.Fatalf("expected unsupported storage driver error, got %v", err)
	}
}

func TestRun_InvalidCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageDriver = StorageDriverMemory
	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.json")

	err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "load catalog") {
		t.Fatalf("expected load catalog error, got %v", err)
	}
}
