package operation

import "sriox/internal/api/v1/dto"

type CreateGithubPageInput struct {
	Body dto.GithubPageCreateRequestDTO `json:"body"`
}

type GithubPageOutput struct {
	Body dto.GithubPageResponseDTO `json:"body"`
}

type ListGithubPagesInput struct{}

type ListGithubPagesOutput struct {
	Body dto.GithubPageListResponseDTO `json:"body"`
}

type GetGithubPageInput struct {
	Subdomain string `path:"subdomain" doc:"GitHub page subdomain"`
}

type UpdateGithubPageInput struct {
	ID   string                         `path:"id" doc:"GitHub page ID"`
	Body dto.GithubPageUpdateRequestDTO `json:"body"`
}

type GithubPageIDInput struct {
	ID string `path:"id" doc:"GitHub page ID"`
}

type DeleteGithubPageOutput struct {
	Body dto.MessageResponseDTO `json:"body"`
}
