// Package reconcile removes on-disk artifacts that no record refers to. They
// are left behind when the process dies between a side effect and its commit.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sriox/internal/model"

	"github.com/rs/zerolog"
)

// KeySource lists every key of one resource kind.
type KeySource interface {
	Keys(ctx context.Context) ([]string, error)
}

// Target is one artifact directory. Artifacts are directories named <key>
// when Ext is empty, else files named <key><Ext>.
type Target struct {
	Kind model.ResourceKind
	Dir  string
	Ext  string
	Keys KeySource
}

type Reconciler struct {
	targets []Target
	grace   time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

func New(targets []Target, grace time.Duration, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		targets: targets,
		grace:   grace,
		now:     time.Now,
		logger:  logger.With().Str("orchestrator", "reconcile").Logger(),
	}
}

// Run sweeps immediately and then every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) error {
	r.logger.Info().Dur("interval", interval).Dur("grace", r.grace).Msg("Starting reconcile orchestrator")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if n, err := r.Sweep(ctx); err != nil {
			r.logger.Error().Err(err).Msg("Sweep failed")
		} else if n > 0 {
			r.logger.Info().Int("removed", n).Msg("Removed orphaned artifacts")
		}
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Shutting down reconcile orchestrator")
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep removes orphans older than the grace period and returns how many
// were removed. Each target is swept even when an earlier one fails.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	now := r.now()
	removed := 0
	var errs []error
	for _, t := range r.targets {
		n, err := r.sweepTarget(ctx, t, now)
		removed += n
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Kind, err))
		}
	}
	return removed, errors.Join(errs...)
}

func (r *Reconciler) sweepTarget(ctx context.Context, t Target, now time.Time) (int, error) {
	entries, err := os.ReadDir(t.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", t.Dir, err)
	}

	keys, err := t.Keys.Keys(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}

	removed := 0
	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(t.Dir, name)

		if strings.HasPrefix(name, ".") {
			n, err := r.sweepScratch(path, e, now)
			removed += n
			if err != nil {
				return removed, err
			}
			continue
		}

		key, ok := artifactKey(t, e)
		if !ok || known[key] || !r.expired(e, now) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
		r.logger.Info().Str("kind", string(t.Kind)).Str("key", key).Str("path", path).Msg("Removed orphaned artifact")
		removed++
	}
	return removed, nil
}

// sweepScratch clears expired staging, trash and temp-file leftovers.
func (r *Reconciler) sweepScratch(path string, e fs.DirEntry, now time.Time) (int, error) {
	if !e.IsDir() {
		if strings.HasSuffix(e.Name(), ".tmp") && r.expired(e, now) {
			if err := os.Remove(path); err != nil {
				return 0, fmt.Errorf("remove %s: %w", path, err)
			}
			return 1, nil
		}
		return 0, nil
	}

	children, err := os.ReadDir(path)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", path, err)
	}
	removed := 0
	for _, c := range children {
		if !r.expired(c, now) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(path, c.Name())); err != nil {
			return removed, fmt.Errorf("remove %s: %w", c.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func artifactKey(t Target, e fs.DirEntry) (string, bool) {
	if t.Ext == "" {
		return e.Name(), e.IsDir()
	}
	if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), t.Ext) {
		return "", false
	}
	return strings.TrimSuffix(e.Name(), t.Ext), true
}

func (r *Reconciler) expired(e fs.DirEntry, now time.Time) bool {
	info, err := e.Info()
	if err != nil {
		return false
	}
	return now.Sub(info.ModTime()) > r.grace
}
