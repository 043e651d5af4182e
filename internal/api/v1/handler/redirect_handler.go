package handler

import (
	"context"

	"sriox/internal/api/v1/dto"
	"sriox/internal/api/v1/operation"
	"sriox/internal/model"
	"sriox/internal/service"

	"github.com/rs/zerolog"
)

type RedirectHandler struct {
	redirectService service.RedirectService
	logger          zerolog.Logger
}

func NewRedirectHandler(redirectService service.RedirectService, logger zerolog.Logger) *RedirectHandler {
	return &RedirectHandler{
		redirectService: redirectService,
		logger:          logger,
	}
}

func (h *RedirectHandler) output(r *model.Redirect, msg string) *operation.RedirectOutput {
	return &operation.RedirectOutput{
		Body: dto.RedirectResponseDTO{
			Success:  true,
			Message:  msg,
			Redirect: toRedirectDTO(r, h.redirectService.URL(r)),
		},
	}
}

// CreateRedirect publishes a redirect page under the platform domain
func (h *RedirectHandler) CreateRedirect(ctx context.Context, input *operation.CreateRedirectInput) (*operation.RedirectOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	r, err := h.redirectService.Create(ctx, userID, service.RedirectCreate{
		Name:      input.Body.Name,
		TargetURL: input.Body.TargetURL,
	})
	if err != nil {
		return nil, serviceError(err)
	}
	return h.output(r, "Redirect created successfully"), nil
}

// ListRedirects returns the caller's redirects
func (h *RedirectHandler) ListRedirects(ctx context.Context, input *operation.ListRedirectsInput) (*operation.ListRedirectsOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	redirects, err := h.redirectService.List(ctx, userID)
	if err != nil {
		return nil, serviceError(err)
	}

	out := make([]dto.RedirectDTO, 0, len(redirects))
	for i := range redirects {
		out = append(out, toRedirectDTO(&redirects[i], h.redirectService.URL(&redirects[i])))
	}
	return &operation.ListRedirectsOutput{
		Body: dto.RedirectListResponseDTO{Success: true, Count: len(out), Redirects: out},
	}, nil
}

// GetRedirect returns an active redirect by name. No authentication required.
func (h *RedirectHandler) GetRedirect(ctx context.Context, input *operation.GetRedirectInput) (*operation.RedirectOutput, error) {
	r, err := h.redirectService.GetPublic(ctx, input.Name)
	if err != nil {
		return nil, serviceError(err)
	}
	return h.output(r, ""), nil
}

// UpdateRedirect changes the target and/or toggles the redirect
func (h *RedirectHandler) UpdateRedirect(ctx context.Context, input *operation.UpdateRedirectInput) (*operation.RedirectOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(input.ID, "Redirect")
	if err != nil {
		return nil, err
	}

	r, err := h.redirectService.Update(ctx, id, userID, service.RedirectUpdate{
		TargetURL: input.Body.TargetURL,
		IsActive:  input.Body.IsActive,
	})
	if err != nil {
		return nil, serviceError(err)
	}
	return h.output(r, "Redirect updated successfully"), nil
}

// DeleteRedirect removes a redirect and its page
func (h *RedirectHandler) DeleteRedirect(ctx context.Context, input *operation.DeleteRedirectInput) (*operation.DeleteRedirectOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(input.ID, "Redirect")
	if err != nil {
		return nil, err
	}

	if err := h.redirectService.Delete(ctx, id, userID); err != nil {
		return nil, serviceError(err)
	}
	return &operation.DeleteRedirectOutput{
		Body: dto.MessageResponseDTO{Success: true, Message: "Redirect deleted successfully"},
	}, nil
}
