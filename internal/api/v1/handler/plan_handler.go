package handler

import (
	"context"

	"sriox/internal/api/v1/dto"
	"sriox/internal/api/v1/operation"
	"sriox/internal/service"

	"github.com/rs/zerolog"
)

type PlanHandler struct {
	planService service.PlanService
	logger      zerolog.Logger
}

func NewPlanHandler(planService service.PlanService, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		logger:      logger,
	}
}

// ListPlans returns the available subscription plans
func (h *PlanHandler) ListPlans(ctx context.Context, input *operation.ListPlansInput) (*operation.ListPlansOutput, error) {
	plans, err := h.planService.ListPlans(ctx)
	if err != nil {
		return nil, serviceError(err)
	}

	out := make([]dto.PlanDTO, 0, len(plans))
	for i := range plans {
		out = append(out, toPlanDTO(&plans[i]))
	}
	return &operation.ListPlansOutput{
		Body: dto.PlanListResponseDTO{Success: true, Plans: out},
	}, nil
}
