package repository

import (
	"context"
	"fmt"

	"sriox/internal/model"

	"gorm.io/gorm"
)

type DLQRepository interface {
	Create(ctx context.Context, message *model.DeadLetterMessage) error
}

type dlqRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) DLQRepository {
	return &dlqRepository{db: db}
}

func (r *dlqRepository) Create(ctx context.Context, message *model.DeadLetterMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("record dead letter for queue %s: %w", message.Queue, err)
	}
	return nil
}
