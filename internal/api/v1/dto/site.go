package dto

import "time"

type SiteDTO struct {
	ID        string    `json:"id"`
	Subdomain string    `json:"subdomain"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	IsActive  bool      `json:"isActive"`
	Owner     string    `json:"owner,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SiteResponseDTO struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Site    SiteDTO `json:"site"`
}

type SiteListResponseDTO struct {
	Success bool      `json:"success"`
	Count   int       `json:"count"`
	Sites   []SiteDTO `json:"sites"`
}
