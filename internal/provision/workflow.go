package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sriox/internal/apperr"
	"sriox/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Deps are the collaborators shared by every workflow.
type Deps struct {
	DB       *gorm.DB
	Quota    QuotaChecker
	Cleanup  CleanupQueue
	Notifier Notifier
	Logger   zerolog.Logger
}

// Workflow drives create, update and delete for one resource kind.
type Workflow[C, U, R any] struct {
	p        Provisioner[C, U, R]
	db       *gorm.DB
	quota    QuotaChecker
	cleanup  CleanupQueue
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func New[C, U, R any](p Provisioner[C, U, R], deps Deps) *Workflow[C, U, R] {
	return &Workflow[C, U, R]{
		p:        p,
		db:       deps.DB,
		quota:    deps.Quota,
		cleanup:  deps.Cleanup,
		notifier: deps.Notifier,
		logger:   deps.Logger.With().Str("workflow", string(p.Kind())).Logger(),
		now:      time.Now,
	}
}

// run tracks the state of one request for logging.
type run struct {
	log   zerolog.Logger
	state State
}

func (r *run) enter(s State) {
	r.log.Debug().Str("from", r.state.String()).Str("to", s.String()).Msg("Provisioning state transition")
	r.state = s
}

func (w *Workflow[C, U, R]) begin(op string, userID uuid.UUID, key string) *run {
	log := w.logger.With().Str("op", op).Str("user_id", userID.String())
	if key != "" {
		log = log.Str("key", key)
	}
	return &run{log: log.Logger(), state: Validating}
}

// Create provisions a new resource owned by userID.
func (w *Workflow[C, U, R]) Create(ctx context.Context, userID uuid.UUID, in C) (*R, error) {
	key := w.p.Key(in)
	r := w.begin("create", userID, key)

	if err := w.p.ValidateCreate(in); err != nil {
		return nil, w.fail(r, err, apperr.ErrInvalidInput)
	}

	r.enter(CheckingUniqueness)
	taken, err := w.p.Taken(ctx, key)
	if err != nil {
		return nil, w.fail(r, err, apperr.ErrInternal)
	}
	if taken {
		return nil, w.fail(r, w.nameTaken(), apperr.ErrNameTaken)
	}

	r.enter(CheckingQuota)
	if err := w.quota.Check(ctx, userID, w.p.Kind()); err != nil {
		return nil, w.fail(r, err, apperr.ErrInternal)
	}

	r.enter(ExecutingSideEffect)
	eff, err := w.p.ApplyCreate(ctx, in)
	if err != nil {
		return nil, w.fail(r, err, apperr.ErrInternal)
	}

	r.enter(Persisting)
	var rec *R
	err = w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = w.p.PersistCreate(ctx, tx, userID, in)
		return err
	})
	if err != nil {
		w.rollback(ctx, r, key, eff, err)
		if repository.IsUniqueViolation(err) {
			return nil, w.fail(r, w.nameTaken(), apperr.ErrNameTaken)
		}
		return nil, w.fail(r, err, apperr.ErrInternal)
	}

	w.commit(ctx, r, eff, "created", userID, rec)
	return rec, nil
}

// Update mutates a resource owned by userID. Ownership replaces the
// uniqueness and quota checks.
func (w *Workflow[C, U, R]) Update(ctx context.Context, id, userID uuid.UUID, in U) (*R, error) {
	r := w.begin("update", userID, "")

	if err := w.p.ValidateUpdate(in); err != nil {
		return nil, w.fail(r, err, apperr.ErrInvalidInput)
	}

	r.enter(CheckingOwnership)
	cur, err := w.load(ctx, id, userID)
	if err != nil {
		return nil, w.fail(r, err, apperr.ErrInternal)
	}
	_, key := w.p.Describe(cur)

	r.enter(ExecutingSideEffect)
	eff, err := w.p.ApplyUpdate(ctx, cur, in)
	if err != nil {
		return nil, w.fail(r, err, apperr.ErrInternal)
	}

	r.enter(Persisting)
	err = w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return w.p.PersistUpdate(ctx, tx, cur, in)
	})
	if err != nil {
		w.rollback(ctx, r, key, eff, err)
		return nil, w.fail(r, err, apperr.ErrInternal)
	}

	w.commit(ctx, r, eff, "updated", userID, cur)
	return cur, nil
}

// Delete removes a resource owned by userID together with its artifacts.
func (w *Workflow[C, U, R]) Delete(ctx context.Context, id, userID uuid.UUID) error {
	r := w.begin("delete", userID, "")

	r.enter(CheckingOwnership)
	cur, err := w.load(ctx, id, userID)
	if err != nil {
		return w.fail(r, err, apperr.ErrInternal)
	}
	_, key := w.p.Describe(cur)

	r.enter(ExecutingSideEffect)
	eff, err := w.p.ApplyDelete(ctx, cur)
	if err != nil {
		return w.fail(r, err, apperr.ErrInternal)
	}

	r.enter(Persisting)
	err = w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return w.p.PersistDelete(ctx, tx, cur)
	})
	if err != nil {
		w.rollback(ctx, r, key, eff, err)
		return w.fail(r, err, apperr.ErrInternal)
	}

	w.commit(ctx, r, eff, "deleted", userID, cur)
	return nil
}

func (w *Workflow[C, U, R]) load(ctx context.Context, id, userID uuid.UUID) (*R, error) {
	cur, err := w.p.Load(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, apperr.Newf(apperr.ErrNotFoundOrForbidden, "%s not found or you don't have permission", w.p.Title())
	}
	return cur, nil
}

func (w *Workflow[C, U, R]) nameTaken() error {
	return apperr.Newf(apperr.ErrNameTaken, "%s is already taken", w.p.KeyLabel())
}

// fail moves the request to RolledBack and makes sure err carries a taxonomy
// entry, using kind for errors that do not.
func (w *Workflow[C, U, R]) fail(r *run, err error, kind error) error {
	from := r.state
	r.enter(RolledBack)
	if !apperr.Classified(err) {
		if errors.Is(kind, apperr.ErrInternal) {
			err = apperr.Internal(fmt.Sprintf("Error processing %s", w.p.Noun()), err)
		} else {
			err = &apperr.Error{Kind: kind, Message: err.Error()}
		}
	}
	if apperr.Status(err) >= 500 {
		r.log.Error().Err(err).Str("failed_in", from.String()).Msg("Provisioning failed")
	} else {
		r.log.Info().Err(err).Str("failed_in", from.String()).Msg("Provisioning refused")
	}
	return err
}

// rollback undoes eff after a failed transaction. A failed undo is queued for
// the cleanup worker.
func (w *Workflow[C, U, R]) rollback(ctx context.Context, r *run, key string, eff Effect, cause error) {
	r.log.Warn().Err(cause).Msg("Persisting failed, rolling back side effect")
	if eff.Rollback == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	err := eff.Rollback(ctx)
	if err == nil {
		return
	}
	r.log.Error().Err(err).Strs("artifacts", eff.Artifacts).Msg("Failed to roll back side effect")
	if len(eff.Artifacts) == 0 || w.cleanup == nil {
		return
	}
	job := CleanupJob{Kind: w.p.Kind(), Key: key, Paths: eff.Artifacts, Reason: err.Error()}
	if err := w.cleanup.Enqueue(ctx, job); err != nil {
		r.log.Error().Err(err).Msg("Failed to enqueue artifact cleanup")
	}
}

func (w *Workflow[C, U, R]) commit(ctx context.Context, r *run, eff Effect, verb string, userID uuid.UUID, rec *R) {
	r.enter(Committed)
	ctx = context.WithoutCancel(ctx)
	if eff.Commit != nil {
		// The record is already persisted; leftovers are swept by the reconciler.
		if err := eff.Commit(ctx); err != nil {
			r.log.Error().Err(err).Msg("Failed to finalize side effect")
		}
	}
	if w.notifier != nil {
		id, key := w.p.Describe(rec)
		w.notifier.Notify(ctx, Event{
			Type:       string(w.p.Kind()) + "." + verb,
			Kind:       w.p.Kind(),
			ResourceID: id,
			UserID:     userID,
			Key:        key,
			At:         w.now(),
		})
	}
}
