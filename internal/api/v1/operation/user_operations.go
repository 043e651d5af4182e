package operation

import "sriox/internal/api/v1/dto"

type GetProfileInput struct {
	// No input needed - user ID comes from auth context
}

type GetProfileOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type UpdateProfileInput struct {
	Body dto.ProfileUpdateRequestDTO `json:"body"`
}

type UpdateProfileOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type ChangePasswordInput struct {
	Body dto.ChangePasswordRequestDTO `json:"body"`
}

type ChangePasswordOutput struct {
	Body dto.MessageResponseDTO `json:"body"`
}

type GetStatsInput struct {
	// No input needed - user ID comes from auth context
}

type GetStatsOutput struct {
	Body dto.StatsResponseDTO `json:"body"`
}

type UpgradePlanInput struct {
	Body dto.UpgradeRequestDTO `json:"body"`
}

type UpgradePlanOutput struct {
	Body dto.UpgradeResponseDTO `json:"body"`
}

type ListPlansInput struct{}

type ListPlansOutput struct {
	Body dto.PlanListResponseDTO `json:"body"`
}
