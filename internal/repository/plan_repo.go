package repository

import (
	"context"
	"errors"
	"fmt"

	"sriox/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlanRepository defines methods for accessing plan reference data.
type PlanRepository interface {
	// UpsertPlan inserts the plan or overwrites the row with the same name.
	UpsertPlan(ctx context.Context, p *model.Plan) error
	GetPlanByID(ctx context.Context, id uuid.UUID) (*model.Plan, error)
	GetPlanByName(ctx context.Context, name string) (*model.Plan, error)
	ListPlans(ctx context.Context) ([]model.Plan, error)
}

type planRepo struct {
	db *gorm.DB
}

func NewPlanRepo(db *gorm.DB) PlanRepository {
	return &planRepo{db: db}
}

func (r *planRepo) UpsertPlan(ctx context.Context, p *model.Plan) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"max_subdomains", "max_redirects", "max_github_pages",
			"max_upload_size", "allow_custom_branding", "price", "updated_at",
		}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("upsert plan %s: %w", p.Name, err)
	}
	return nil
}

func (r *planRepo) GetPlanByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	var p model.Plan
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch plan %s: %w", id, err)
	}
	return &p, nil
}

func (r *planRepo) GetPlanByName(ctx context.Context, name string) (*model.Plan, error) {
	var p model.Plan
	if err := r.db.WithContext(ctx).First(&p, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch plan %s: %w", name, err)
	}
	return &p, nil
}

func (r *planRepo) ListPlans(ctx context.Context) ([]model.Plan, error) {
	var plans []model.Plan
	if err := r.db.WithContext(ctx).Order("price ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}
