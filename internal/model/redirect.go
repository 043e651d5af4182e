package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Redirect is a generated page at <platform-domain>/<name> pointing to TargetURL.
type Redirect struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name      string    `gorm:"size:63;not null;uniqueIndex" json:"name"`
	TargetURL string    `gorm:"type:text;not null" json:"target_url"`
	Path      string    `gorm:"not null" json:"path"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Redirect) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
