package app

import (
	"testing"
	"time"
)

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GRPCAddr != ":50051" {
		t.Errorf("expected GRPCAddr :50051, got %s", cfg.GRPCAddr)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected HTTPAddr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected MetricsAddr :9090, got %s", cfg.MetricsAddr)
	}
	if cfg.StorageDriver != StorageDriverSQLite {
		t.Errorf("expected StorageDriver %s, got %s", StorageDriverSQLite, cfg.StorageDriver)
	}
	if cfg.SQLitePath == "" {
		t.Error("expected SQLitePath to be set")
	}
	if cfg.CatalogPath != "" {
		t.Errorf("expected embedded catalog by default, got %q", cfg.CatalogPath)
	}
	if cfg.KafkaBrokers != "" {
		t.Errorf("expected kafka to be disabled by default, got %q", cfg.KafkaBrokers)
	}
	if cfg.KafkaTopic != "storefront.order.events" {
		t.Errorf("unexpected KafkaTopic %q", cfg.KafkaTopic)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Errorf("expected IdempotencyTTL 24h, got %s", cfg.IdempotencyTTL)
	}
	if cfg.IdempotencyCleanupInterval <= 0 {
		t.Error("expected IdempotencyCleanupInterval to be > 0")
	}
	if cfg.IdempotencyCleanupBatchSize <= 0 {
		t.Error("expected IdempotencyCleanupBatchSize to be > 0")
	}
	if cfg.ShutdownTimeout <= 0 {
		t.Error("expected ShutdownTimeout to be > 0")
	}
}

func TestConfig_ZeroValue(t *testing.T) {
	var cfg Config

	if cfg.GRPCAddr != "" || cfg.HTTPAddr != "" || cfg.MetricsAddr != "" {
		t.Errorf("zero value addresses should be empty, got %+v", cfg)
	}
	if cfg.StorageDriver != "" {
		t.Errorf("expected empty StorageDriver, got %s", cfg.StorageDriver)
	}
}

func TestConfig_Comparison(t *testing.T) {
	cfg1 := DefaultConfig()
	cfg2 := DefaultConfig()

	if cfg1 != cfg2 {
		t.Error("two DefaultConfig instances should be equal")
	}

	cfg2.StorageDriver = StorageDriverMemory
	if cfg1 == cfg2 {
		t.Error("modified config should not be equal to original")
	}
}
