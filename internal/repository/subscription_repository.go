package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "makeitreel/internal/errors"
	"makeitreel/internal/model"
)

// SubscriptionRepository defines subscription persistence operations.
type SubscriptionRepository interface {
	CreateActive(ctx context.Context, sub *model.Subscription) error
	FindActiveByUserID(ctx context.Context, userID uint) (*model.Subscription, error)
	Save(ctx context.Context, sub *model.Subscription) error
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// CreateActive inserts an active subscription unless the user already has one.
// The user's active rows are locked for the duration of the check.
func (r *subscriptionRepository) CreateActive(ctx context.Context, sub *model.Subscription) error {
	sub.Status = model.StatusActive
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []model.Subscription
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND status = ?", sub.UserID, model.StatusActive).
			Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			return apperrors.ErrActiveSubscriptionExists
		}
		err := tx.Create(sub).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrActiveSubscriptionExists
		}
		return err
	})
}

func (r *subscriptionRepository) FindActiveByUserID(ctx context.Context, userID uint) (*model.Subscription, error) {
	var sub model.Subscription
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.StatusActive).
		Order("created_at DESC").
		First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Save(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}
