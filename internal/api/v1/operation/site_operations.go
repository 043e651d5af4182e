package operation

import "sriox/internal/api/v1/dto"

// Upload and update take multipart bodies and are served by raw handlers.

type ListSitesInput struct{}

type ListSitesOutput struct {
	Body dto.SiteListResponseDTO `json:"body"`
}

type GetSiteInput struct {
	Subdomain string `path:"subdomain" doc:"Site subdomain"`
}

type GetSiteOutput struct {
	Body dto.SiteResponseDTO `json:"body"`
}

type DeleteSiteInput struct {
	ID string `path:"id" doc:"Site ID"`
}

type DeleteSiteOutput struct {
	Body dto.MessageResponseDTO `json:"body"`
}
