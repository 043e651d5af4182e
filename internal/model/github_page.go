package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GithubPage maps <subdomain>.<platform-domain> to a GitHub Pages repository.
type GithubPage struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User           *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Subdomain      string    `gorm:"size:63;not null;uniqueIndex" json:"subdomain"`
	GithubUsername string    `gorm:"size:100;not null" json:"github_username"`
	Repository     string    `gorm:"size:100;not null" json:"repository"`
	CustomDomain   string    `gorm:"not null" json:"custom_domain"`
	IsVerified     bool      `gorm:"not null;default:false" json:"is_verified"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (g *GithubPage) BeforeCreate(tx *gorm.DB) error {
	ensureID(&g.ID)
	return nil
}
