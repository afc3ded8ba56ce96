package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"makeitreel/internal/model"
)

// VerificationRepository persists email verification codes. Callers that need
// read-modify-write atomicity run their steps inside WithTransaction.
type VerificationRepository interface {
	WithTransaction(ctx context.Context, fn func(repo VerificationRepository) error) error
	FindLiveForUpdate(ctx context.Context, email string, now time.Time) (*model.VerificationCode, error)
	Upsert(ctx context.Context, code *model.VerificationCode) error
	UpdateAttempts(ctx context.Context, id uint, attempts int) error
	DeleteByEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type verificationRepository struct {
	db *gorm.DB
}

// NewVerificationRepository creates a new verification code repository.
func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

// WithTransaction executes a function within a database transaction.
func (r *verificationRepository) WithTransaction(ctx context.Context, fn func(repo VerificationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&verificationRepository{db: tx})
	})
}

// FindLiveForUpdate returns the unexpired code for email with a row lock.
// Returns gorm.ErrRecordNotFound when there is none.
func (r *verificationRepository) FindLiveForUpdate(ctx context.Context, email string, now time.Time) (*model.VerificationCode, error) {
	var code model.VerificationCode
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("email = ? AND expires_at > ?", email, now).
		Order("id DESC").
		First(&code).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// Upsert stores code as the only row for its email, replacing the value,
// expiry and attempt count of any previous one.
func (r *verificationRepository) Upsert(ctx context.Context, code *model.VerificationCode) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "attempts", "created_at"}),
	}).Create(code).Error
}

func (r *verificationRepository) UpdateAttempts(ctx context.Context, id uint, attempts int) error {
	return r.db.WithContext(ctx).Model(&model.VerificationCode{}).
		Where("id = ?", id).
		Update("attempts", attempts).Error
}

func (r *verificationRepository) DeleteByEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("email = ?", email).Delete(&model.VerificationCode{}).Error
}

func (r *verificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&model.VerificationCode{})
	return res.RowsAffected, res.Error
}
