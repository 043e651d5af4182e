package dto

import "time"

type UserDTO struct {
	ID           string           `json:"id"`
	Username     string           `json:"username"`
	Email        string           `json:"email"`
	IsVerified   bool             `json:"isVerified"`
	LastLogin    *time.Time       `json:"lastLogin,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	Subscription *SubscriptionDTO `json:"subscription,omitempty"`
}

type PlanDTO struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	MaxSubdomains       int     `json:"maxSubdomains"`
	MaxRedirects        int     `json:"maxRedirects"`
	MaxGithubPages      int     `json:"maxGithubPages"`
	MaxUploadSize       int64   `json:"maxUploadSize"`
	AllowCustomBranding bool    `json:"allowCustomBranding"`
	Price               float64 `json:"price"`
}

type SubscriptionDTO struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	Plan            PlanDTO    `json:"plan"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	NextPaymentDate *time.Time `json:"nextPaymentDate,omitempty"`
}

type UserResponseDTO struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	User    UserDTO `json:"user"`
}

type ProfileUpdateRequestDTO struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

type ChangePasswordRequestDTO struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" minLength:"6"`
}

type UsageDTO struct {
	Used       int64 `json:"used"`
	Limit      int   `json:"limit"`
	Percentage int   `json:"percentage"`
}

type StatsDTO struct {
	Sites       UsageDTO `json:"sites"`
	Redirects   UsageDTO `json:"redirects"`
	GithubPages UsageDTO `json:"githubPages"`
	Plan        string   `json:"plan"`
	IsPro       bool     `json:"isPro"`
}

type StatsResponseDTO struct {
	Success bool     `json:"success"`
	Stats   StatsDTO `json:"stats"`
}

type UpgradeRequestDTO struct {
	PlanID        string `json:"planId"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	PaymentToken  string `json:"paymentToken,omitempty"`
}

type UpgradeResponseDTO struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Subscription SubscriptionDTO `json:"subscription"`
}

type PlanListResponseDTO struct {
	Success bool      `json:"success"`
	Plans   []PlanDTO `json:"plans"`
}
