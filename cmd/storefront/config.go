package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/app"
)

const (
	envGRPCAddr                    = "STOREFRONT_GRPC_ADDR"
	envHTTPAddr                    = "STOREFRONT_HTTP_ADDR"
	envMetricsAddr                 = "STOREFRONT_METRICS_ADDR"
	envStorageDriver               = "STOREFRONT_STORAGE_DRIVER"
	envSQLitePath                  = "STOREFRONT_SQLITE_PATH"
	envCatalogPath                 = "STOREFRONT_CATALOG_PATH"
	envKafkaBrokers                = "STOREFRONT_KAFKA_BROKERS"
	envKafkaTopic                  = "STOREFRONT_KAFKA_TOPIC"
	envOTLPEndpoint                = "STOREFRONT_OTLP_ENDPOINT"
	envIdempotencyTTL              = "STOREFRONT_IDEMPOTENCY_TTL"
	envIdempotencyCleanupInterval  = "STOREFRONT_IDEMPOTENCY_CLEANUP_INTERVAL"
	envIdempotencyCleanupBatchSize = "STOREFRONT_IDEMPOTENCY_CLEANUP_BATCH_SIZE"
	envShutdownTimeout             = "STOREFRONT_SHUTDOWN_TIMEOUT"
	envLogLevel                    = "STOREFRONT_LOG_LEVEL"
	envLogJSON                     = "STOREFRONT_LOG_JSON"
)

type envLookup func(key string) (string, bool)

// loggingConfig содержит настройки логгера, они читаются до конфигурации приложения.
type loggingConfig struct {
	Level log.Level
	JSON  bool
}

// readConfigFromEnv собирает app.Config; некорректные значения заменяются значениями
// по умолчанию и возвращаются в виде предупреждений.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	readString := func(key string, dst *string) {
		if v, ok := lookupTrimmed(lookup, key); ok {
			*dst = v
		}
	}

	readString(envGRPCAddr, &cfg.GRPCAddr)
	readString(envHTTPAddr, &cfg.HTTPAddr)
	readString(envMetricsAddr, &cfg.MetricsAddr)
	readString(envSQLitePath, &cfg.SQLitePath)
	readString(envCatalogPath, &cfg.CatalogPath)
	readString(envKafkaBrokers, &cfg.KafkaBrokers)
	readString(envKafkaTopic, &cfg.KafkaTopic)
	readString(envOTLPEndpoint, &cfg.OTLPEndpoint)

	if v, ok := lookupTrimmed(lookup, envStorageDriver); ok {
		cfg.StorageDriver = app.StorageDriver(strings.ToLower(v))
	}

	positiveDuration := func(v time.Duration) bool { return v > 0 }
	readDuration := func(key string, dst *time.Duration) {
		v, ok := lookupTrimmed(lookup, key)
		if !ok {
			return
		}
		parsed, err := parseDuration(v, positiveDuration, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v; using default %s", key, err, *dst))
			return
		}
		*dst = parsed
	}

	readDuration(envIdempotencyTTL, &cfg.IdempotencyTTL)
	readDuration(envIdempotencyCleanupInterval, &cfg.IdempotencyCleanupInterval)
	readDuration(envShutdownTimeout, &cfg.ShutdownTimeout)

	if v, ok := lookupTrimmed(lookup, envIdempotencyCleanupBatchSize); ok {
		parsed, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v; using default %d", envIdempotencyCleanupBatchSize, err, cfg.IdempotencyCleanupBatchSize))
		} else {
			cfg.IdempotencyCleanupBatchSize = parsed
		}
	}

	return cfg, warnings
}

// readLoggingFromEnv разбирает уровень и формат логов.
func readLoggingFromEnv(lookup envLookup) (loggingConfig, []string) {
	cfg := loggingConfig{Level: log.InfoLevel}
	var warnings []string

	if v, ok := lookupTrimmed(lookup, envLogLevel); ok {
		level, err := log.ParseLevel(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v; using default %s", envLogLevel, err, cfg.Level))
		} else {
			cfg.Level = level
		}
	}
	if v, ok := lookupTrimmed(lookup, envLogJSON); ok {
		parsed, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v; using default false", envLogJSON, err))
		} else {
			cfg.JSON = parsed
		}
	}

	return cfg, warnings
}

func lookupTrimmed(lookup envLookup, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q", raw)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %d %s", value, rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q", raw)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %s %s", value, rule)
	}
	return value, nil
}
