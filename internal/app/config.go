package app

import "time"

// StorageDriver выбирает реализацию хранилища корзины.
type StorageDriver string

const (
	StorageDriverSQLite StorageDriver = "sqlite"
	StorageDriverMemory StorageDriver = "memory"
)

// Config описывает настройки запуска приложения.
type Config struct {
	GRPCAddr    string
	HTTPAddr    string
	MetricsAddr string

	StorageDriver StorageDriver
	SQLitePath    string
	CatalogPath   string

	KafkaBrokers string
	KafkaTopic   string
	OTLPEndpoint string

	IdempotencyTTL              time.Duration
	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int
	ShutdownTimeout             time.Duration
}

// DefaultConfig возвращает базовые адреса и параметры хранилища.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:                    ":50051",
		HTTPAddr:                    ":8080",
		MetricsAddr:                 ":9090",
		StorageDriver:               StorageDriverSQLite,
		SQLitePath:                  "storefront.db",
		KafkaTopic:                  "storefront.order.events",
		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  10 * time.Minute,
		IdempotencyCleanupBatchSize: 500,
		ShutdownTimeout:             5 * time.Second,
	}
}
