package operation

import "sriox/internal/api/v1/dto"

type RegisterInput struct {
	Body dto.RegisterRequestDTO `json:"body"`
}

type LoginInput struct {
	Body dto.LoginRequestDTO `json:"body"`
}

type AuthOutput struct {
	Body dto.AuthResponseDTO `json:"body"`
}
