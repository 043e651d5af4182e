package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sriox/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository defines methods for accessing subscription data.
type SubscriptionRepository interface {
	WithTx(tx *gorm.DB) SubscriptionRepository
	// GetActiveSubscription returns the user's active subscription with its plan, or nil.
	GetActiveSubscription(ctx context.Context, userID uuid.UUID) (*model.Subscription, error)
	CreateSubscription(ctx context.Context, s *model.Subscription) error
	// CancelSubscription marks the subscription canceled as of endDate.
	CancelSubscription(ctx context.Context, id uuid.UUID, endDate time.Time) error
	CountActive(ctx context.Context, userID uuid.UUID) (int64, error)
}

type subscriptionRepo struct {
	db *gorm.DB
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) WithTx(tx *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{db: tx}
}

func (r *subscriptionRepo) GetActiveSubscription(ctx context.Context, userID uuid.UUID) (*model.Subscription, error) {
	var s model.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ? AND status = ?", userID, model.SubscriptionActive).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch active subscription for user %s: %w", userID, err)
	}
	return &s, nil
}

func (r *subscriptionRepo) CreateSubscription(ctx context.Context, s *model.Subscription) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error; err != nil {
		return fmt.Errorf("create subscription for user %s: %w", s.UserID, err)
	}
	return nil
}

func (r *subscriptionRepo) CancelSubscription(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("id = ? AND status = ?", id, model.SubscriptionActive).
		Updates(map[string]any{"status": model.SubscriptionCanceled, "end_date": endDate})
	if res.Error != nil {
		return fmt.Errorf("cancel subscription %s: %w", id, res.Error)
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("cancel subscription %s: no active row", id)
	}
	return nil
}

func (r *subscriptionRepo) CountActive(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("user_id = ? AND status = ?", userID, model.SubscriptionActive).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count active subscriptions for user %s: %w", userID, err)
	}
	return count, nil
}
