package operation

import "sriox/internal/api/v1/dto"

type CreateRedirectInput struct {
	Body dto.RedirectCreateRequestDTO `json:"body"`
}

type RedirectOutput struct {
	Body dto.RedirectResponseDTO `json:"body"`
}

type ListRedirectsInput struct{}

type ListRedirectsOutput struct {
	Body dto.RedirectListResponseDTO `json:"body"`
}

type GetRedirectInput struct {
	Name string `path:"name" doc:"Redirect name"`
}

type UpdateRedirectInput struct {
	ID   string                       `path:"id" doc:"Redirect ID"`
	Body dto.RedirectUpdateRequestDTO `json:"body"`
}

type DeleteRedirectInput struct {
	ID string `path:"id" doc:"Redirect ID"`
}

type DeleteRedirectOutput struct {
	Body dto.MessageResponseDTO `json:"body"`
}
