package handler

import (
	"context"

	"sriox/internal/api/v1/dto"
	"sriox/internal/api/v1/operation"
	"sriox/internal/service"

	"github.com/rs/zerolog"
)

// AuthHandler implements Huma-based registration and login
type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
	logger      zerolog.Logger
}

func NewAuthHandler(authService service.AuthService, userService service.UserService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		logger:      logger,
	}
}

// Register creates an account on the free plan and returns a token
func (h *AuthHandler) Register(ctx context.Context, input *operation.RegisterInput) (*operation.AuthOutput, error) {
	session, err := h.authService.Register(ctx, service.Registration{
		Username: input.Body.Username,
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, serviceError(err)
	}
	return h.sessionOutput(ctx, session, "User registered successfully")
}

// Login exchanges credentials for a token
func (h *AuthHandler) Login(ctx context.Context, input *operation.LoginInput) (*operation.AuthOutput, error) {
	session, err := h.authService.Login(ctx, service.Credentials{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, serviceError(err)
	}
	return h.sessionOutput(ctx, session, "Login successful")
}

func (h *AuthHandler) sessionOutput(ctx context.Context, session *service.Session, msg string) (*operation.AuthOutput, error) {
	_, sub, err := h.userService.Profile(ctx, session.User.ID)
	if err != nil {
		return nil, serviceError(err)
	}
	return &operation.AuthOutput{
		Body: dto.AuthResponseDTO{
			Success: true,
			Message: msg,
			Token:   session.Token,
			User:    toUserDTO(session.User, sub),
		},
	}, nil
}
