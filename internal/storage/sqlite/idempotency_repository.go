package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const opTimeout = 3 * time.Second

type idempotencyKeyRecord struct {
	Key          string `gorm:"column:idempotency_key;primaryKey"`
	RequestHash  string
	ResponseBody []byte
	Status       string
	TTLAt        time.Time `gorm:"column:ttl_at"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (idempotencyKeyRecord) TableName() string {
	return "idempotency_keys"
}

func (r idempotencyKeyRecord) toDomain() (domain.IdempotencyRecord, error) {
	status := domain.IdempotencyStatus(r.Status)
	if !status.Valid() {
		return domain.IdempotencyRecord{}, fmt.Errorf("invalid idempotency status %q for key %s", r.Status, r.Key)
	}
	return domain.IdempotencyRecord{
		Key:          r.Key,
		RequestHash:  r.RequestHash,
		ResponseBody: append([]byte(nil), r.ResponseBody...),
		Status:       status,
		TTLAt:        r.TTLAt.UTC(),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}, nil
}

type idempotencyRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// IdempotencyOption настраивает SQLite-репозиторий ключей.
type IdempotencyOption func(*idempotencyRepository)

// WithClock подменяет часы, по которым считаются TTL и просрочка ключей.
func WithClock(now func() time.Time) IdempotencyOption {
	return func(r *idempotencyRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewIdempotencyRepository создаёт SQLite-реализацию IdempotencyRepository.
func NewIdempotencyRepository(store *Store, opts ...IdempotencyOption) domain.IdempotencyRepository {
	r := &idempotencyRepository{
		db:  store.Gorm(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *idempotencyRepository) CreateProcessing(key, requestHash string, ttl time.Duration) (domain.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	requestHash = strings.TrimSpace(requestHash)

	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}
	if requestHash == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyRequestHashRequired
	}
	if r == nil || r.db == nil {
		return domain.IdempotencyRecord{}, domain.ErrStoreNotInitialized
	}

	if ttl <= 0 {
		ttl = domain.DefaultIdempotencyTTL
	}
	now := r.now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	record := idempotencyKeyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      string(domain.IdempotencyStatusProcessing),
		TTLAt:       now.Add(ttl),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var conflict domain.IdempotencyRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing idempotencyKeyRecord
		res := tx.Where("idempotency_key = ?", key).Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected > 0 {
			current, err := existing.toDomain()
			if err != nil {
				return err
			}
			if !current.Expired(now) {
				conflict = current
				if current.RequestHash != requestHash {
					return domain.ErrIdempotencyHashMismatch
				}
				return domain.ErrIdempotencyKeyAlreadyExists
			}
			// Просроченный ключ ещё не удалён воркером: занимаем его заново.
			return tx.Save(&record).Error
		}

		return tx.Create(&record).Error
	})
	if err != nil {
		if domain.IsIdempotencyConflict(err) {
			return conflict, err
		}
		return domain.IdempotencyRecord{}, fmt.Errorf("create idempotency record: %w", err)
	}

	return record.toDomain()
}

func (r *idempotencyRepository) Get(key string) (domain.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}
	if r == nil || r.db == nil {
		return domain.IdempotencyRecord{}, domain.ErrStoreNotInitialized
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var record idempotencyKeyRecord
	res := r.db.WithContext(ctx).Where("idempotency_key = ?", key).Limit(1).Find(&record)
	if res.Error != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("get idempotency record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
	}

	return record.toDomain()
}

func (r *idempotencyRepository) MarkDone(key string, responseBody []byte) error {
	return r.markStatus(key, domain.IdempotencyStatusDone, responseBody)
}

func (r *idempotencyRepository) MarkFailed(key string, responseBody []byte) error {
	return r.markStatus(key, domain.IdempotencyStatusFailed, responseBody)
}

func (r *idempotencyRepository) Release(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrIdempotencyKeyRequired
	}
	if r == nil || r.db == nil {
		return domain.ErrStoreNotInitialized
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res := r.db.WithContext(ctx).Where("idempotency_key = ?", key).Delete(&idempotencyKeyRecord{})
	if res.Error != nil {
		return fmt.Errorf("release idempotency key: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrIdempotencyKeyNotFound
	}
	return nil
}

func (r *idempotencyRepository) DeleteExpired(before time.Time, limit int) (int, error) {
	if r == nil || r.db == nil {
		return 0, domain.ErrStoreNotInitialized
	}
	if before.IsZero() {
		before = r.now()
	}
	before = before.UTC()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	db := r.db.WithContext(ctx)
	query := db.Where("ttl_at <= ?", before)
	if limit > 0 {
		expired := db.Model(&idempotencyKeyRecord{}).
			Select("idempotency_key").
			Where("ttl_at <= ?", before).
			Order("ttl_at ASC").
			Limit(limit)
		query = db.Where("idempotency_key IN (?)", expired)
	}

	res := query.Delete(&idempotencyKeyRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired idempotency records: %w", res.Error)
	}

	return int(res.RowsAffected), nil
}

func (r *idempotencyRepository) markStatus(key string, status domain.IdempotencyStatus, responseBody []byte) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrIdempotencyKeyRequired
	}
	if r == nil || r.db == nil {
		return domain.ErrStoreNotInitialized
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res := r.db.WithContext(ctx).
		Model(&idempotencyKeyRecord{}).
		Where("idempotency_key = ?", key).
		Updates(map[string]any{
			"response_body": responseBody,
			"status":        string(status),
			"updated_at":    r.now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("mark idempotency key status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrIdempotencyKeyNotFound
	}

	return nil
}

var _ domain.IdempotencyRepository = (*idempotencyRepository)(nil)
