package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/sqlite"
)

// runtimeDependencies содержит хранилища, выбранные по StorageDriver.
type runtimeDependencies struct {
	cartRepo        domain.CartRepository
	idempotencyRepo domain.IdempotencyRepository
	pinger          domain.Pinger
	closeFn         func() error
}

func (d runtimeDependencies) close(logger *log.Entry) {
	if d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
		return
	}
	logger.Info("storage closed")
}

// initRuntimeDependencies открывает хранилище; ошибка открытия фатальна для запуска.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		repo := memory.NewCartRepository()
		pinger, ok := repo.(domain.Pinger)
		if !ok {
			return runtimeDependencies{}, fmt.Errorf("memory cart repository %T does not support ping", repo)
		}
		logger.Warn("используется in-memory хранилище, корзина не переживёт перезапуск")
		return runtimeDependencies{
			cartRepo:        repo,
			idempotencyRepo: memory.NewIdempotencyRepository(),
			pinger:          pinger,
		}, nil
	case StorageDriverSQLite:
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			return runtimeDependencies{}, fmt.Errorf("sqlite path is required for storage driver %q", cfg.StorageDriver)
		}

		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return runtimeDependencies{}, fmt.Errorf("open sqlite store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return runtimeDependencies{}, fmt.Errorf("ensure sqlite schema: %w", err)
		}

		logger.WithField("path", path).Info("sqlite storage initialized")
		return runtimeDependencies{
			cartRepo:        sqlite.NewCartRepository(store),
			idempotencyRepo: sqlite.NewIdempotencyRepository(store),
			pinger:          store,
			closeFn:         store.Close,
		}, nil
	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
