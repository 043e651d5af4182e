package dto

import "time"

type GithubPageCreateRequestDTO struct {
	Subdomain      string `json:"subdomain" maxLength:"63"`
	GithubUsername string `json:"githubUsername"`
	Repository     string `json:"repository"`
}

type GithubPageUpdateRequestDTO struct {
	GithubUsername *string `json:"githubUsername,omitempty"`
	Repository     *string `json:"repository,omitempty"`
	IsActive       *bool   `json:"isActive,omitempty"`
}

type GithubPageDTO struct {
	ID             string    `json:"id"`
	Subdomain      string    `json:"subdomain"`
	GithubUsername string    `json:"githubUsername"`
	Repository     string    `json:"repository"`
	CustomDomain   string    `json:"customDomain"`
	IsVerified     bool      `json:"isVerified"`
	IsActive       bool      `json:"isActive"`
	Owner          string    `json:"owner,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type GithubPageResponseDTO struct {
	Success           bool          `json:"success"`
	Message           string        `json:"message,omitempty"`
	GithubPage        GithubPageDTO `json:"githubPage"`
	SetupInstructions []string      `json:"setupInstructions,omitempty"`
}

type GithubPageListResponseDTO struct {
	Success     bool            `json:"success"`
	Count       int             `json:"count"`
	GithubPages []GithubPageDTO `json:"githubPages"`
}
