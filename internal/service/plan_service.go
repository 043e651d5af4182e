package service

import (
	"context"

	"sriox/internal/apperr"
	"sriox/internal/model"
	"sriox/internal/repository"

	"github.com/rs/zerolog"
)

const (
	FreePlanName = "Free"
	ProPlanName  = "Pro"

	defaultMaxUploadSize = 35 << 20
)

// DefaultPlans are upserted by name at every boot.
func DefaultPlans() []model.Plan {
	return []model.Plan{
		{
			Name:           FreePlanName,
			MaxSubdomains:  2,
			MaxRedirects:   2,
			MaxGithubPages: 2,
			MaxUploadSize:  defaultMaxUploadSize,
			Price:          0,
		},
		{
			Name:                ProPlanName,
			MaxSubdomains:       model.Unlimited,
			MaxRedirects:        model.Unlimited,
			MaxGithubPages:      model.Unlimited,
			MaxUploadSize:       defaultMaxUploadSize,
			AllowCustomBranding: true,
			Price:               5.00,
		},
	}
}

type PlanService interface {
	EnsureDefaultPlans(ctx context.Context) error
	ListPlans(ctx context.Context) ([]model.Plan, error)
}

type planService struct {
	repo   repository.PlanRepository
	logger zerolog.Logger
}

func NewPlanService(repo repository.PlanRepository, logger zerolog.Logger) PlanService {
	return &planService{
		repo:   repo,
		logger: logger.With().Str("service", "PlanService").Logger(),
	}
}

func (s *planService) EnsureDefaultPlans(ctx context.Context) error {
	for _, p := range DefaultPlans() {
		if err := s.repo.UpsertPlan(ctx, &p); err != nil {
			s.logger.Error().Err(err).Str("plan", p.Name).Msg("Failed to seed plan")
			return err
		}
	}
	s.logger.Info().Int("plans", len(DefaultPlans())).Msg("Default plans ensured")
	return nil
}

func (s *planService) ListPlans(ctx context.Context) ([]model.Plan, error) {
	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, apperr.Internal("Error fetching plans", err)
	}
	return plans, nil
}
