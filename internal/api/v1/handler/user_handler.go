package handler

import (
	"context"
	"fmt"

	"sriox/internal/api/v1/dto"
	"sriox/internal/api/v1/operation"
	"sriox/internal/quota"
	"sriox/internal/service"

	"github.com/rs/zerolog"
)

// UserHandler implements Huma-based account operations
type UserHandler struct {
	userService service.UserService
	logger      zerolog.Logger
}

func NewUserHandler(userService service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetProfile returns the authenticated user with their active subscription
func (h *UserHandler) GetProfile(ctx context.Context, input *operation.GetProfileInput) (*operation.GetProfileOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	user, sub, err := h.userService.Profile(ctx, userID)
	if err != nil {
		return nil, serviceError(err)
	}

	return &operation.GetProfileOutput{
		Body: dto.UserResponseDTO{Success: true, User: toUserDTO(user, sub)},
	}, nil
}

// UpdateProfile changes the username and/or email
func (h *UserHandler) UpdateProfile(ctx context.Context, input *operation.UpdateProfileInput) (*operation.UpdateProfileOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	user, err := h.userService.UpdateProfile(ctx, userID, service.ProfileUpdate{
		Username: input.Body.Username,
		Email:    input.Body.Email,
	})
	if err != nil {
		return nil, serviceError(err)
	}

	return &operation.UpdateProfileOutput{
		Body: dto.UserResponseDTO{
			Success: true,
			Message: "Profile updated successfully",
			User:    toUserDTO(user, nil),
		},
	}, nil
}

// ChangePassword replaces the password after checking the current one
func (h *UserHandler) ChangePassword(ctx context.Context, input *operation.ChangePasswordInput) (*operation.ChangePasswordOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	err = h.userService.ChangePassword(ctx, userID, service.PasswordChange{
		CurrentPassword: input.Body.CurrentPassword,
		NewPassword:     input.Body.NewPassword,
	})
	if err != nil {
		return nil, serviceError(err)
	}

	return &operation.ChangePasswordOutput{
		Body: dto.MessageResponseDTO{Success: true, Message: "Password changed successfully"},
	}, nil
}

// GetStats reports usage of each resource kind against the plan
func (h *UserHandler) GetStats(ctx context.Context, input *operation.GetStatsInput) (*operation.GetStatsOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := h.userService.Stats(ctx, userID)
	if err != nil {
		return nil, serviceError(err)
	}

	return &operation.GetStatsOutput{
		Body: dto.StatsResponseDTO{
			Success: true,
			Stats: dto.StatsDTO{
				Sites:       toUsageDTO(stats.Sites),
				Redirects:   toUsageDTO(stats.Redirects),
				GithubPages: toUsageDTO(stats.GithubPages),
				Plan:        stats.Plan.Name,
				IsPro:       stats.IsPro,
			},
		},
	}, nil
}

// UpgradePlan moves the user to another plan
func (h *UserHandler) UpgradePlan(ctx context.Context, input *operation.UpgradePlanInput) (*operation.UpgradePlanOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := h.userService.Upgrade(ctx, userID, service.PlanChange{
		PlanID:        input.Body.PlanID,
		PaymentMethod: input.Body.PaymentMethod,
		PaymentToken:  input.Body.PaymentToken,
	})
	if err != nil {
		return nil, serviceError(err)
	}

	return &operation.UpgradePlanOutput{
		Body: dto.UpgradeResponseDTO{
			Success:      true,
			Message:      fmt.Sprintf("Successfully upgraded to %s plan", sub.Plan.Name),
			Subscription: toSubscriptionDTO(sub),
		},
	}, nil
}

func toUsageDTO(u quota.Usage) dto.UsageDTO {
	return dto.UsageDTO{Used: u.Used, Limit: u.Limit, Percentage: u.Percentage}
}
