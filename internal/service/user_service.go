package service

import (
	"context"
	"strings"
	"time"

	"sriox/internal/apperr"
	"sriox/internal/model"
	"sriox/internal/quota"
	"sriox/internal/repository"
	"sriox/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type ProfileUpdate struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50,username"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type PlanChange struct {
	PlanID        string `json:"planId" validate:"required,uuid"`
	PaymentMethod string `json:"paymentMethod"`
	PaymentToken  string `json:"paymentToken"`
}

// Stats is the caller's usage against their plan.
type Stats struct {
	Plan        *model.Plan
	IsPro       bool
	Sites       quota.Usage
	Redirects   quota.Usage
	GithubPages quota.Usage
}

type UserService interface {
	// Profile returns the user and their active subscription, which may be nil.
	Profile(ctx context.Context, userID uuid.UUID) (*model.User, *model.Subscription, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, in PasswordChange) error
	Stats(ctx context.Context, userID uuid.UUID) (*Stats, error)
	// Upgrade replaces the active subscription with one on the given plan.
	Upgrade(ctx context.Context, userID uuid.UUID, in PlanChange) (*model.Subscription, error)
}

type userService struct {
	db       *gorm.DB
	users    repository.UserRepository
	plans    repository.PlanRepository
	subs     repository.SubscriptionRepository
	quota    *quota.Evaluator
	validate *validator.Validate
	now      func() time.Time
	logger   zerolog.Logger
}

func NewUserService(
	db *gorm.DB,
	users repository.UserRepository,
	plans repository.PlanRepository,
	subs repository.SubscriptionRepository,
	evaluator *quota.Evaluator,
	validate *validator.Validate,
	logger zerolog.Logger,
) UserService {
	return &userService{
		db:       db,
		users:    users,
		plans:    plans,
		subs:     subs,
		quota:    evaluator,
		validate: validate,
		now:      time.Now,
		logger:   logger.With().Str("service", "UserService").Logger(),
	}
}

func (s *userService) user(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Error fetching user", err)
	}
	if u == nil {
		return nil, apperr.New(apperr.ErrNotFoundOrForbidden, "User not found")
	}
	return u, nil
}

func (s *userService) Profile(ctx context.Context, userID uuid.UUID) (*model.User, *model.Subscription, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	sub, err := s.subs.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, nil, apperr.Internal("Error fetching subscription", err)
	}
	return u, sub, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*model.User, error) {
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &email
	}
	if err := check(s.validate, in); err != nil {
		return nil, err
	}
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil && *in.Username != u.Username {
		taken, err := s.users.UsernameTaken(ctx, *in.Username, u.ID)
		if err != nil {
			return nil, apperr.Internal("Error updating profile", err)
		}
		if taken {
			return nil, apperr.New(apperr.ErrNameTaken, "Username is already taken")
		}
		u.Username = *in.Username
	}
	if in.Email != nil && *in.Email != u.Email {
		taken, err := s.users.EmailTaken(ctx, *in.Email, u.ID)
		if err != nil {
			return nil, apperr.Internal("Error updating profile", err)
		}
		if taken {
			return nil, apperr.New(apperr.ErrNameTaken, "Email is already in use")
		}
		u.Email = *in.Email
		u.IsVerified = false
	}

	if err := s.users.UpdateUser(ctx, u); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperr.New(apperr.ErrNameTaken, "Username or email is already in use")
		}
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to update profile")
		return nil, apperr.Internal("Error updating profile", err)
	}
	return u, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID uuid.UUID, in PasswordChange) error {
	if err := check(s.validate, in); err != nil {
		return err
	}
	u, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	if !util.CheckPassword(u.Password, in.CurrentPassword) {
		return apperr.New(apperr.ErrUnauthenticated, "Current password is incorrect")
	}
	hash, err := util.HashPassword(in.NewPassword)
	if err != nil {
		return apperr.Internal("Error changing password", err)
	}
	u.Password = hash
	if err := s.users.UpdateUser(ctx, u); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to change password")
		return apperr.Internal("Error changing password", err)
	}
	return nil
}

func (s *userService) Stats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	plan, usage, err := s.quota.Usage(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Plan:        plan,
		IsPro:       plan.IsPaid(),
		Sites:       usage[model.KindSite],
		Redirects:   usage[model.KindRedirect],
		GithubPages: usage[model.KindGithubPage],
	}, nil
}

// Upgrade cancels the active subscription and starts the new one in a single
// transaction. Payment capture is not performed; the token is recorded as
// the payment reference.
func (s *userService) Upgrade(ctx context.Context, userID uuid.UUID, in PlanChange) (*model.Subscription, error) {
	if err := check(s.validate, in); err != nil {
		return nil, err
	}
	planID, err := uuid.Parse(in.PlanID)
	if err != nil {
		return nil, apperr.New(apperr.ErrInvalidInput, "planId must be a valid id")
	}
	plan, err := s.plans.GetPlanByID(ctx, planID)
	if err != nil {
		return nil, apperr.Internal("Error upgrading plan", err)
	}
	if plan == nil {
		return nil, apperr.New(apperr.ErrNotFoundOrForbidden, "Plan not found")
	}

	current, err := s.subs.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Error upgrading plan", err)
	}
	if current != nil && current.PlanID == plan.ID {
		return nil, apperr.New(apperr.ErrInvalidInput, "You are already subscribed to this plan")
	}
	if plan.IsPaid() && (in.PaymentMethod == "" || in.PaymentToken == "") {
		return nil, apperr.New(apperr.ErrInvalidInput, "Payment method and token are required for paid plans")
	}

	now := s.now()
	next := &model.Subscription{
		UserID:    userID,
		PlanID:    plan.ID,
		Status:    model.SubscriptionActive,
		StartDate: now,
	}
	if plan.IsPaid() {
		due := now.AddDate(0, 1, 0)
		next.PaymentMethod = in.PaymentMethod
		next.PaymentID = in.PaymentToken
		next.LastPaymentDate = &now
		next.NextPaymentDate = &due
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subs := s.subs.WithTx(tx)
		if current != nil {
			if err := subs.CancelSubscription(ctx, current.ID, now); err != nil {
				return err
			}
		}
		return subs.CreateSubscription(ctx, next)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Str("plan", plan.Name).Msg("Failed to change plan")
		return nil, apperr.Internal("Error upgrading plan", err)
	}

	next.Plan = *plan
	s.logger.Info().Str("user_id", userID.String()).Str("plan", plan.Name).Msg("Plan changed")
	return next, nil
}
