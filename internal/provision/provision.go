// Package provision runs the quota-enforced provisioning workflow shared by
// every resource kind: validate, check uniqueness, check quota, perform the
// kind's side effect, persist in a transaction, and undo the side effect if
// persisting fails.
package provision

import (
	"context"
	"time"

	"sriox/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// State is a step of a single provisioning request.
type State int

const (
	Validating State = iota
	CheckingOwnership
	CheckingUniqueness
	CheckingQuota
	ExecutingSideEffect
	Persisting
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Validating:
		return "validating"
	case CheckingOwnership:
		return "checking_ownership"
	case CheckingUniqueness:
		return "checking_uniqueness"
	case CheckingQuota:
		return "checking_quota"
	case ExecutingSideEffect:
		return "executing_side_effect"
	case Persisting:
		return "persisting"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	}
	return "unknown"
}

// Effect is a side effect already performed against the filesystem or an
// external service. Either hook may be nil.
type Effect struct {
	// Rollback reverses the effect when the record could not be persisted.
	Rollback func(ctx context.Context) error
	// Commit finalizes the effect once the record is persisted, e.g. drops backups.
	Commit func(ctx context.Context) error
	// Artifacts are the paths a failed Rollback leaves behind.
	Artifacts []string
}

// Provisioner describes one resource kind. C and U are the create and update
// inputs, R the stored record. An Apply method that fails must leave nothing
// behind.
type Provisioner[C, U, R any] interface {
	Kind() model.ResourceKind
	// Noun names the kind in messages ("site"), Title starts a sentence with
	// it ("Site"). KeyLabel names its key ("Subdomain").
	Noun() string
	Title() string
	KeyLabel() string
	Key(in C) string
	Describe(rec *R) (id uuid.UUID, key string)

	ValidateCreate(in C) error
	Taken(ctx context.Context, key string) (bool, error)
	ApplyCreate(ctx context.Context, in C) (Effect, error)
	PersistCreate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, in C) (*R, error)

	// Load returns the record only when userID owns it, else nil.
	Load(ctx context.Context, id, userID uuid.UUID) (*R, error)

	ValidateUpdate(in U) error
	ApplyUpdate(ctx context.Context, cur *R, in U) (Effect, error)
	PersistUpdate(ctx context.Context, tx *gorm.DB, cur *R, in U) error

	ApplyDelete(ctx context.Context, cur *R) (Effect, error)
	PersistDelete(ctx context.Context, tx *gorm.DB, cur *R) error
}

// QuotaChecker refuses creation beyond the user's plan.
type QuotaChecker interface {
	Check(ctx context.Context, userID uuid.UUID, kind model.ResourceKind) error
}

// CleanupJob is an artifact left on disk by a failed rollback.
type CleanupJob struct {
	Kind   model.ResourceKind `json:"kind"`
	Key    string             `json:"key"`
	Paths  []string           `json:"paths"`
	Reason string             `json:"reason"`
}

// CleanupQueue hands failed rollbacks to the background cleanup worker.
type CleanupQueue interface {
	Enqueue(ctx context.Context, job CleanupJob) error
}

// Event is published after a request commits.
type Event struct {
	Type       string             `json:"type"`
	Kind       model.ResourceKind `json:"kind"`
	ResourceID uuid.UUID          `json:"resource_id"`
	UserID     uuid.UUID          `json:"user_id"`
	Key        string             `json:"key"`
	At         time.Time          `json:"at"`
}

// Notifier delivers lifecycle events. Delivery failures never fail a request.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}
