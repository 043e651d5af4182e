package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Unlimited is the quota value that disables a limit.
const Unlimited = -1

// Plan is a subscription tier. Rows are reference data seeded at startup.
type Plan struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name                string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	MaxSubdomains       int       `gorm:"not null" json:"max_subdomains"`
	MaxRedirects        int       `gorm:"not null" json:"max_redirects"`
	MaxGithubPages      int       `gorm:"not null" json:"max_github_pages"`
	MaxUploadSize       int64     `gorm:"not null" json:"max_upload_size"`
	AllowCustomBranding bool      `gorm:"not null;default:false" json:"allow_custom_branding"`
	Price               float64   `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Limit returns the quota field for the given resource kind.
func (p *Plan) Limit(kind ResourceKind) int {
	switch kind {
	case KindSite:
		return p.MaxSubdomains
	case KindRedirect:
		return p.MaxRedirects
	case KindGithubPage:
		return p.MaxGithubPages
	}
	return 0
}

// IsPaid reports whether the plan requires payment details.
func (p *Plan) IsPaid() bool {
	return p.Price > 0
}
