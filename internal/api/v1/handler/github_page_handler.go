package handler

import (
	"context"
	"errors"
	"net/http"

	"sriox/internal/api/v1/dto"
	"sriox/internal/api/v1/operation"
	"sriox/internal/apperr"
	"sriox/internal/model"
	"sriox/internal/service"

	"github.com/rs/zerolog"
)

type GithubPageHandler struct {
	githubPageService service.GithubPageService
	logger            zerolog.Logger
}

func NewGithubPageHandler(githubPageService service.GithubPageService, logger zerolog.Logger) *GithubPageHandler {
	return &GithubPageHandler{
		githubPageService: githubPageService,
		logger:            logger,
	}
}

func (h *GithubPageHandler) output(page *model.GithubPage, msg string, withSetup bool) *operation.GithubPageOutput {
	body := dto.GithubPageResponseDTO{
		Success:    true,
		Message:    msg,
		GithubPage: toGithubPageDTO(page),
	}
	if withSetup {
		body.SetupInstructions = h.githubPageService.SetupInstructions(page)
	}
	return &operation.GithubPageOutput{Body: body}
}

// CreateGithubPage maps a subdomain to a GitHub Pages repository
func (h *GithubPageHandler) CreateGithubPage(ctx context.Context, input *operation.CreateGithubPageInput) (*operation.GithubPageOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	page, err := h.githubPageService.Create(ctx, userID, service.GithubPageCreate{
		Subdomain:      input.Body.Subdomain,
		GithubUsername: input.Body.GithubUsername,
		Repository:     input.Body.Repository,
	})
	if err != nil {
		return nil, serviceError(err)
	}
	return h.output(page, "GitHub Pages mapping created successfully", true), nil
}

// ListGithubPages returns the caller's mappings
func (h *GithubPageHandler) ListGithubPages(ctx context.Context, input *operation.ListGithubPagesInput) (*operation.ListGithubPagesOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	pages, err := h.githubPageService.List(ctx, userID)
	if err != nil {
		return nil, serviceError(err)
	}

	out := make([]dto.GithubPageDTO, 0, len(pages))
	for i := range pages {
		out = append(out, toGithubPageDTO(&pages[i]))
	}
	return &operation.ListGithubPagesOutput{
		Body: dto.GithubPageListResponseDTO{Success: true, Count: len(out), GithubPages: out},
	}, nil
}

// GetGithubPage returns an active mapping by subdomain. No authentication required.
func (h *GithubPageHandler) GetGithubPage(ctx context.Context, input *operation.GetGithubPageInput) (*operation.GithubPageOutput, error) {
	page, err := h.githubPageService.GetPublic(ctx, input.Subdomain)
	if err != nil {
		return nil, serviceError(err)
	}
	return h.output(page, "", false), nil
}

// UpdateGithubPage re-points a mapping and/or toggles it
func (h *GithubPageHandler) UpdateGithubPage(ctx context.Context, input *operation.UpdateGithubPageInput) (*operation.GithubPageOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(input.ID, "GitHub page")
	if err != nil {
		return nil, err
	}

	page, err := h.githubPageService.Update(ctx, id, userID, service.GithubPageUpdate{
		GithubUsername: input.Body.GithubUsername,
		Repository:     input.Body.Repository,
		IsActive:       input.Body.IsActive,
	})
	if err != nil {
		return nil, serviceError(err)
	}
	return h.output(page, "GitHub Pages mapping updated successfully", !page.IsVerified), nil
}

// DeleteGithubPage removes a mapping with its DNS record and marker
func (h *GithubPageHandler) DeleteGithubPage(ctx context.Context, input *operation.GithubPageIDInput) (*operation.DeleteGithubPageOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(input.ID, "GitHub page")
	if err != nil {
		return nil, err
	}

	if err := h.githubPageService.Delete(ctx, id, userID); err != nil {
		return nil, serviceError(err)
	}
	return &operation.DeleteGithubPageOutput{
		Body: dto.MessageResponseDTO{Success: true, Message: "GitHub Pages mapping deleted successfully"},
	}, nil
}

// VerifyGithubPage checks the repository's CNAME file against the mapping
func (h *GithubPageHandler) VerifyGithubPage(ctx context.Context, input *operation.GithubPageIDInput) (*operation.GithubPageOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(input.ID, "GitHub page")
	if err != nil {
		return nil, err
	}

	page, err := h.githubPageService.Verify(ctx, id, userID)
	var verr *service.VerificationError
	if errors.As(err, &verr) {
		return nil, &verificationFailure{
			Message:         apperr.Message(err),
			ExpectedContent: verr.ExpectedContent,
			Instructions:    verr.Instructions,
		}
	}
	if err != nil {
		return nil, serviceError(err)
	}
	return h.output(page, "GitHub Pages mapping verified successfully", false), nil
}

// verificationFailure is the 400 body of a failed verify. It tells the
// caller what the CNAME file has to contain.
type verificationFailure struct {
	Success         bool     `json:"success"`
	Message         string   `json:"message"`
	IsVerified      bool     `json:"isVerified"`
	ExpectedContent string   `json:"expectedContent"`
	Instructions    []string `json:"instructions,omitempty"`
}

func (e *verificationFailure) Error() string             { return e.Message }
func (e *verificationFailure) GetStatus() int            { return http.StatusBadRequest }
func (e *verificationFailure) ContentType(string) string { return "application/json" }
