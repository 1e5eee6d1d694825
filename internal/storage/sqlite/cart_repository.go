package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// cartItemRecord соответствует строке таблицы cart_items.
type cartItemRecord struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	Name           string          `gorm:"not null"`
	Category       string          `gorm:"not null"`
	Price          decimal.Decimal `gorm:"type:text;not null"`
	ImageThumbnail string
	ImageMobile    string
	ImageTablet    string
	ImageDesktop   string
	Quantity       int `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (cartItemRecord) TableName() string {
	return "cart_items"
}

func newCartItemRecord(product domain.Product) cartItemRecord {
	return cartItemRecord{
		Name:           product.Name,
		Category:       product.Category,
		Price:          product.Price,
		ImageThumbnail: product.Image.Thumbnail,
		ImageMobile:    product.Image.Mobile,
		ImageTablet:    product.Image.Tablet,
		ImageDesktop:   product.Image.Desktop,
		Quantity:       1,
	}
}

func (r cartItemRecord) toDomain() domain.LineItem {
	return domain.LineItem{
		ID: r.ID,
		Product: domain.Product{
			Name:     r.Name,
			Category: r.Category,
			Price:    r.Price,
			Image: domain.Image{
				Thumbnail: r.ImageThumbnail,
				Mobile:    r.ImageMobile,
				Tablet:    r.ImageTablet,
				Desktop:   r.ImageDesktop,
			},
		},
		Quantity: r.Quantity,
	}
}

type cartRepository struct {
	mu sync.Mutex
	db *gorm.DB
}

// NewCartRepository создаёт SQLite-реализацию CartRepository поверх открытого Store.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.Gorm()}
}

func (r *cartRepository) AddOrIncrement(ctx context.Context, product domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	return r.inTx(ctx, "add or increment "+product.Name, func(tx *gorm.DB) error {
		existing, found, err := findByName(tx, product.Name)
		if err != nil {
			return err
		}
		if found {
			return tx.Model(&cartItemRecord{}).
				Where("id = ?", existing.ID).
				Update("quantity", gorm.Expr("quantity + ?", 1)).Error
		}

		record := newCartItemRecord(product)
		return tx.Create(&record).Error
	})
}

func (r *cartRepository) DecrementOrRemove(ctx context.Context, name string) error {
	return r.inTx(ctx, "decrement "+name, func(tx *gorm.DB) error {
		existing, found, err := findByName(tx, name)
		if err != nil || !found {
			return err
		}
		if existing.Quantity > 1 {
			return tx.Model(&cartItemRecord{}).
				Where("id = ?", existing.ID).
				Update("quantity", gorm.Expr("quantity - ?", 1)).Error
		}
		return tx.Delete(&cartItemRecord{}, existing.ID).Error
	})
}

func (r *cartRepository) Remove(ctx context.Context, name string) error {
	return r.inTx(ctx, "remove "+name, func(tx *gorm.DB) error {
		existing, found, err := findByName(tx, name)
		if err != nil || !found {
			return err
		}
		return tx.Delete(&cartItemRecord{}, existing.ID).Error
	})
}

func (r *cartRepository) ListAll(ctx context.Context) ([]domain.LineItem, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var records []cartItemRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}

	items := make([]domain.LineItem, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDomain())
	}
	return items, nil
}

func (r *cartRepository) Clear(ctx context.Context) error {
	return r.inTx(ctx, "clear", func(tx *gorm.DB) error {
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&cartItemRecord{}).Error
	})
}

func (r *cartRepository) Ping(ctx context.Context) error {
	if err := r.ready(ctx); err != nil {
		return err
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *cartRepository) ready(ctx context.Context) error {
	if r == nil || r.db == nil {
		return domain.ErrStoreNotInitialized
	}
	return ctx.Err()
}

// inTx выполняет поиск и изменение одной транзакцией под мьютексом коллекции.
func (r *cartRepository) inTx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	if err := r.ready(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.WithContext(ctx).Transaction(fn); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cart %s: %w", op, domain.ErrDuplicateLineItem)
		}
		return fmt.Errorf("cart %s: %w", op, err)
	}
	return nil
}

func findByName(tx *gorm.DB, name string) (cartItemRecord, bool, error) {
	var record cartItemRecord
	res := tx.Where("name = ?", name).Limit(1).Find(&record)
	if res.Error != nil {
		return cartItemRecord{}, false, res.Error
	}
	return record, res.RowsAffected > 0, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var (
	_ domain.CartRepository = (*cartRepository)(nil)
	_ domain.Pinger         = (*cartRepository)(nil)
)
