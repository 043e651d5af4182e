package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a tenant of the platform.
type User struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username   string     `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email      string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password   string     `gorm:"not null" json:"-"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	IsVerified bool       `gorm:"not null;default:false" json:"is_verified"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
