package repository

import (
	"context"
	"errors"
	"fmt"

	"sriox/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResourceRepository is the store for one provisioned resource kind. Keys
// (subdomain or name) are unique across all users.
type ResourceRepository[T any] interface {
	WithTx(tx *gorm.DB) ResourceRepository[T]
	Create(ctx context.Context, rec *T) error
	Save(ctx context.Context, rec *T) error
	Delete(ctx context.Context, rec *T) error
	// GetOwned returns the record only if it belongs to userID, else nil.
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*T, error)
	// GetActiveByKey returns an active record with its owner preloaded, else nil.
	GetActiveByKey(ctx context.Context, key string) (*T, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]T, error)
	KeyExists(ctx context.Context, key string) (bool, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	// Keys lists every key in the namespace.
	Keys(ctx context.Context) ([]string, error)
}

type (
	SiteRepository       = ResourceRepository[model.Site]
	RedirectRepository   = ResourceRepository[model.Redirect]
	GithubPageRepository = ResourceRepository[model.GithubPage]
)

func NewSiteRepo(db *gorm.DB) SiteRepository {
	return &resourceRepo[model.Site]{db: db, noun: "site", keyColumn: "subdomain"}
}

func NewRedirectRepo(db *gorm.DB) RedirectRepository {
	return &resourceRepo[model.Redirect]{db: db, noun: "redirect", keyColumn: "name"}
}

func NewGithubPageRepo(db *gorm.DB) GithubPageRepository {
	return &resourceRepo[model.GithubPage]{db: db, noun: "github page", keyColumn: "subdomain"}
}

type resourceRepo[T any] struct {
	db        *gorm.DB
	noun      string
	keyColumn string
}

func (r *resourceRepo[T]) WithTx(tx *gorm.DB) ResourceRepository[T] {
	return &resourceRepo[T]{db: tx, noun: r.noun, keyColumn: r.keyColumn}
}

func (r *resourceRepo[T]) Create(ctx context.Context, rec *T) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
		return fmt.Errorf("create %s: %w", r.noun, err)
	}
	return nil
}

func (r *resourceRepo[T]) Save(ctx context.Context, rec *T) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(rec).Error; err != nil {
		return fmt.Errorf("update %s: %w", r.noun, err)
	}
	return nil
}

func (r *resourceRepo[T]) Delete(ctx context.Context, rec *T) error {
	res := r.db.WithContext(ctx).Delete(rec)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", r.noun, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %s: %w", r.noun, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *resourceRepo[T]) GetOwned(ctx context.Context, id, userID uuid.UUID) (*T, error) {
	var rec T
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch %s %s: %w", r.noun, id, err)
	}
	return &rec, nil
}

func (r *resourceRepo[T]) GetActiveByKey(ctx context.Context, key string) (*T, error) {
	var rec T
	err := r.db.WithContext(ctx).
		Preload("User").
		Where(r.keyColumn+" = ? AND is_active = ?", key, true).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch %s %s: %w", r.noun, key, err)
	}
	return &rec, nil
}

func (r *resourceRepo[T]) ListByUser(ctx context.Context, userID uuid.UUID) ([]T, error) {
	var recs []T
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list %ss for user %s: %w", r.noun, userID, err)
	}
	return recs, nil
}

func (r *resourceRepo[T]) KeyExists(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).Where(r.keyColumn+" = ?", key).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check %s %s: %w", r.noun, key, err)
	}
	return count > 0, nil
}

func (r *resourceRepo[T]) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count %ss for user %s: %w", r.noun, userID, err)
	}
	return count, nil
}

func (r *resourceRepo[T]) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.WithContext(ctx).Model(new(T)).Pluck(r.keyColumn, &keys).Error; err != nil {
		return nil, fmt.Errorf("list %s keys: %w", r.noun, err)
	}
	return keys, nil
}
