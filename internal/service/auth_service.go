package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"sriox/internal/apperr"
	"sriox/internal/model"
	"sriox/internal/repository"
	"sriox/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is an issued token and the user it belongs to.
type Session struct {
	Token string
	User  *model.User
}

type AuthService interface {
	// Register creates the user with an active Free subscription.
	Register(ctx context.Context, in Registration) (*Session, error)
	Login(ctx context.Context, in Credentials) (*Session, error)
	// Authenticate resolves a bearer token to an active user.
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	db       *gorm.DB
	users    repository.UserRepository
	plans    repository.PlanRepository
	subs     repository.SubscriptionRepository
	validate *validator.Validate
	secret   string
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func NewAuthService(
	db *gorm.DB,
	users repository.UserRepository,
	plans repository.PlanRepository,
	subs repository.SubscriptionRepository,
	validate *validator.Validate,
	secret string,
	ttl time.Duration,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		db:       db,
		users:    users,
		plans:    plans,
		subs:     subs,
		validate: validate,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With().Str("service", "AuthService").Logger(),
	}
}

var (
	errUserExists = apperr.New(apperr.ErrNameTaken, "User already exists with this email or username")
	errNoFreePlan = errors.New("free plan is not seeded")
)

func (s *authService) Register(ctx context.Context, in Registration) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := check(s.validate, in); err != nil {
		return nil, err
	}

	if taken, err := s.users.EmailTaken(ctx, in.Email, uuid.Nil); err != nil {
		return nil, apperr.Internal("Error registering user", err)
	} else if taken {
		return nil, errUserExists
	}
	if taken, err := s.users.UsernameTaken(ctx, in.Username, uuid.Nil); err != nil {
		return nil, apperr.Internal("Error registering user", err)
	} else if taken {
		return nil, errUserExists
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("Error registering user", err)
	}

	free, err := s.plans.GetPlanByName(ctx, FreePlanName)
	if err != nil {
		return nil, apperr.Internal("Error registering user", err)
	}
	if free == nil {
		return nil, apperr.Internal("Error registering user", errNoFreePlan)
	}

	user := &model.User{Username: in.Username, Email: in.Email, Password: hash, IsActive: true}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).CreateUser(ctx, user); err != nil {
			return err
		}
		return s.subs.WithTx(tx).CreateSubscription(ctx, &model.Subscription{
			UserID:    user.ID,
			PlanID:    free.ID,
			Status:    model.SubscriptionActive,
			StartDate: s.now(),
		})
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, errUserExists
		}
		s.logger.Error().Err(err).Str("username", in.Username).Msg("Failed to register user")
		return nil, apperr.Internal("Error registering user", err)
	}

	token, err := util.IssueJWT(user.ID.String(), user.Username, s.secret, s.ttl)
	if err != nil {
		return nil, apperr.Internal("Error registering user", err)
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("User registered")
	return &Session{Token: token, User: user}, nil
}

func (s *authService) Login(ctx context.Context, in Credentials) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := check(s.validate, in); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperr.Internal("Error logging in", err)
	}
	if user == nil || !util.CheckPassword(user.Password, in.Password) {
		return nil, apperr.New(apperr.ErrUnauthenticated, "Invalid credentials")
	}
	if !user.IsActive {
		return nil, apperr.New(apperr.ErrUnauthenticated, "Account is inactive")
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to record last login")
	} else {
		user.LastLogin = &now
	}

	token, err := util.IssueJWT(user.ID.String(), user.Username, s.secret, s.ttl)
	if err != nil {
		return nil, apperr.Internal("Error logging in", err)
	}
	return &Session{Token: token, User: user}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := util.ValidateJWT(token, s.secret)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.ErrInvalidToken, Message: "Invalid token", Err: err}
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperr.New(apperr.ErrInvalidToken, "Invalid token")
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("Error authenticating", err)
	}
	if user == nil {
		return nil, apperr.New(apperr.ErrInvalidToken, "User not found")
	}
	if !user.IsActive {
		return nil, apperr.New(apperr.ErrUnauthenticated, "Account is inactive")
	}
	return user, nil
}
