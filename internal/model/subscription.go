package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

// Subscription links a user to a plan. A user has at most one active
// subscription, enforced by a partial unique index created in database.Migrate.
type Subscription struct {
	ID              uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID          uuid.UUID          `gorm:"type:uuid;not null;index" json:"plan_id"`
	Plan            Plan               `gorm:"foreignKey:PlanID" json:"plan"`
	Status          SubscriptionStatus `gorm:"size:20;not null;default:active" json:"status"`
	StartDate       time.Time          `gorm:"not null" json:"start_date"`
	EndDate         *time.Time         `json:"end_date,omitempty"`
	PaymentMethod   string             `gorm:"size:50" json:"payment_method,omitempty"`
	PaymentID       string             `gorm:"size:255" json:"payment_id,omitempty"`
	LastPaymentDate *time.Time         `json:"last_payment_date,omitempty"`
	NextPaymentDate *time.Time         `json:"next_payment_date,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	if s.StartDate.IsZero() {
		s.StartDate = time.Now()
	}
	return nil
}
