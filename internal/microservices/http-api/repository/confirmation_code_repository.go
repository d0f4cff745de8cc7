package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewhub/internal/microservices/http-api/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConfirmationCodeRepository stores pending confirmation codes, one per email.
type ConfirmationCodeRepository interface {
	// Save stores codeHash for email, replacing any pending code.
	Save(ctx context.Context, email, codeHash string, ttl time.Duration) error
	// Find returns the pending, unexpired code for email or ErrNotFound.
	Find(ctx context.Context, email string) (*models.ConfirmationCode, error)
	// Consume deletes the pending code. Only one caller wins: the rest get ErrNotFound.
	Consume(ctx context.Context, email string) error
}

// confirmationCodeRepository is the GORM implementation of ConfirmationCodeRepository
type confirmationCodeRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewConfirmationCodeRepository creates a table-backed ConfirmationCodeRepository
func NewConfirmationCodeRepository(db *gorm.DB) ConfirmationCodeRepository {
	return &confirmationCodeRepository{db: db, now: time.Now}
}

func (r *confirmationCodeRepository) Save(ctx context.Context, email, codeHash string, ttl time.Duration) error {
	code := &models.ConfirmationCode{
		Email:     email,
		CodeHash:  codeHash,
		ExpiresAt: r.now().Add(ttl),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"code_hash", "expires_at", "created_at"}),
	}).Create(code).Error
	if err != nil {
		return fmt.Errorf("save confirmation code: %w", err)
	}
	return nil
}

func (r *confirmationCodeRepository) Find(ctx context.Context, email string) (*models.ConfirmationCode, error) {
	var code models.ConfirmationCode
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&code).Error; err != nil {
		return nil, translateError(err)
	}
	if code.Expired(r.now()) {
		return nil, ErrNotFound
	}
	return &code, nil
}

func (r *confirmationCodeRepository) Consume(ctx context.Context, email string) error {
	result := r.db.WithContext(ctx).Where("email = ?", email).Delete(&models.ConfirmationCode{})
	if result.Error != nil {
		return fmt.Errorf("consume confirmation code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// redisConfirmationCodeRepository keeps codes under confirmation:<email> and lets
// redis expire them.
type redisConfirmationCodeRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisConfirmationCodeRepository creates a redis-backed ConfirmationCodeRepository
func NewRedisConfirmationCodeRepository(client *redis.Client) ConfirmationCodeRepository {
	return &redisConfirmationCodeRepository{client: client, now: time.Now}
}

func confirmationKey(email string) string {
	return "confirmation:" + email
}

func (r *redisConfirmationCodeRepository) Save(ctx context.Context, email, codeHash string, ttl time.Duration) error {
	if err := r.client.Set(ctx, confirmationKey(email), codeHash, ttl).Err(); err != nil {
		return fmt.Errorf("redis save confirmation code: %w", err)
	}
	return nil
}

func (r *redisConfirmationCodeRepository) Find(ctx context.Context, email string) (*models.ConfirmationCode, error) {
	key := confirmationKey(email)
	hash, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get confirmation code: %w", err)
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ttl confirmation code: %w", err)
	}
	// the key may expire between GET and TTL
	if ttl == -2 {
		return nil, ErrNotFound
	}
	// -1 means no expiry was set; expiry is redis' job here, so report it as due now
	if ttl < 0 {
		ttl = 0
	}
	return &models.ConfirmationCode{
		Email:     email,
		CodeHash:  hash,
		ExpiresAt: r.now().Add(ttl),
	}, nil
}

func (r *redisConfirmationCodeRepository) Consume(ctx context.Context, email string) error {
	deleted, err := r.client.Del(ctx, confirmationKey(email)).Result()
	if err != nil {
		return fmt.Errorf("redis consume confirmation code: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}
