package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Site is an uploaded static site served at <subdomain>.<platform-domain>.
type Site struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Subdomain string    `gorm:"size:63;not null;uniqueIndex" json:"subdomain"`
	Path      string    `gorm:"not null" json:"path"`
	Size      int64     `gorm:"not null;default:0" json:"size"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Site) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
