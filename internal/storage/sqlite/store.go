// Package sqlite хранит корзину во встроенной базе SQLite через gorm.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultConnTimeout = 5 * time.Second
	defaultBusyTimeout = 5000
)

// Store владеет единственным подключением к файлу базы.
type Store struct {
	gdb   *gorm.DB
	sqlDB *sql.DB
}

// Open открывает (или создаёт) базу по пути path и проверяет доступность.
// Схема не применяется: для этого есть EnsureSchema и cmd/migrate.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	gdb, err := gorm.Open(gormsqlite.Open(buildDSN(path)), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sqlite handle: %w", err)
	}
	// Одна запись за раз: SQLite не поддерживает параллельных писателей.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{gdb: gdb, sqlDB: sqlDB}, nil
}

func buildDSN(path string) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_time_format=sqlite", path, defaultBusyTimeout)
}

// Gorm возвращает gorm-сессию; nil для неинициализированного Store.
func (s *Store) Gorm() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.gdb
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return domain.ErrStoreNotInitialized
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.sqlDB.PingContext(pingCtx)
}

// EnsureSchema применяет все up-миграции. Повторный вызов ничего не меняет.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает подключение к базе.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
