package dto

import "time"

type RedirectCreateRequestDTO struct {
	Name      string `json:"name" maxLength:"63"`
	TargetURL string `json:"targetUrl"`
}

type RedirectUpdateRequestDTO struct {
	TargetURL *string `json:"targetUrl,omitempty"`
	IsActive  *bool   `json:"isActive,omitempty"`
}

type RedirectDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TargetURL string    `json:"targetUrl"`
	URL       string    `json:"url"`
	IsActive  bool      `json:"isActive"`
	Owner     string    `json:"owner,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type RedirectResponseDTO struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Redirect RedirectDTO `json:"redirect"`
}

type RedirectListResponseDTO struct {
	Success   bool          `json:"success"`
	Count     int           `json:"count"`
	Redirects []RedirectDTO `json:"redirects"`
}
