package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeadLetterMessage records a cleanup job or lifecycle event that exhausted
// its retries. Queue is the pgmq queue or Pub/Sub subscription it came from.
type DeadLetterMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Queue      string    `gorm:"size:100;not null;index" json:"queue"`
	Payload    string    `gorm:"type:text;not null" json:"payload"` // JSON
	Attributes string    `gorm:"type:text" json:"attributes,omitempty"`
	Error      string    `gorm:"type:text" json:"error"`
	Attempts   int       `gorm:"not null" json:"attempts"`
	CreatedAt  time.Time `json:"created_at"`
}

func (d *DeadLetterMessage) BeforeCreate(tx *gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
