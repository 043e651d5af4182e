package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sriox/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UsernameTaken and EmailTaken ignore the user identified by except.
	UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error)
	EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error)
	UpdateUser(ctx context.Context, u *model.User) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx *gorm.DB) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(u).Error; err != nil {
		return fmt.Errorf("create user %s: %w", u.Username, err)
	}
	return nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}
	return &u, nil
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user by email: %w", err)
	}
	return &u, nil
}

func (r *userRepo) UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error) {
	return r.taken(ctx, "username", username, except)
}

func (r *userRepo) EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	return r.taken(ctx, "email", email, except)
}

func (r *userRepo) taken(ctx context.Context, column, value string, except uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where(column+" = ? AND id <> ?", value, except).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check user %s: %w", column, err)
	}
	return count > 0, nil
}

func (r *userRepo) UpdateUser(ctx context.Context, u *model.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(u).Error; err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	return nil
}

func (r *userRepo) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_login", at).Error
	if err != nil {
		return fmt.Errorf("update last login for user %s: %w", id, err)
	}
	return nil
}
