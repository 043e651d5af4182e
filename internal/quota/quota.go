// Package quota decides whether a user's plan admits one more resource of a kind.
package quota

import (
	"context"
	"fmt"

	"sriox/internal/apperr"
	"sriox/internal/model"
	"sriox/internal/repository"

	"github.com/google/uuid"
)

// Counter counts a user's existing resources of one kind.
type Counter interface {
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Allowed is the quota rule: -1 is unlimited, otherwise count must stay below limit.
func Allowed(limit int, count int64) bool {
	return limit == model.Unlimited || count < int64(limit)
}

// Usage is one kind's consumption against the plan limit.
type Usage struct {
	Used       int64
	Limit      int
	Percentage int
}

type Evaluator struct {
	subs     repository.SubscriptionRepository
	counters map[model.ResourceKind]Counter
}

func NewEvaluator(subs repository.SubscriptionRepository, counters map[model.ResourceKind]Counter) *Evaluator {
	return &Evaluator{subs: subs, counters: counters}
}

// CanProvision reports whether userID may create one more resource of kind.
// The check is not serialized against concurrent creates by the same user.
func (e *Evaluator) CanProvision(ctx context.Context, userID uuid.UUID, kind model.ResourceKind) (bool, error) {
	plan, err := e.activePlan(ctx, userID)
	if err != nil {
		return false, err
	}
	count, err := e.count(ctx, userID, kind)
	if err != nil {
		return false, err
	}
	return Allowed(plan.Limit(kind), count), nil
}

// Check is CanProvision returning ErrQuotaExceeded on refusal.
func (e *Evaluator) Check(ctx context.Context, userID uuid.UUID, kind model.ResourceKind) error {
	ok, err := e.CanProvision(ctx, userID, kind)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Newf(apperr.ErrQuotaExceeded, "You have reached the maximum number of %s for your plan", plural(kind))
	}
	return nil
}

// Usage reports consumption for every kind together with the active plan.
func (e *Evaluator) Usage(ctx context.Context, userID uuid.UUID) (*model.Plan, map[model.ResourceKind]Usage, error) {
	plan, err := e.activePlan(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	usage := make(map[model.ResourceKind]Usage, len(model.ResourceKinds))
	for _, kind := range model.ResourceKinds {
		count, err := e.count(ctx, userID, kind)
		if err != nil {
			return nil, nil, err
		}
		limit := plan.Limit(kind)
		u := Usage{Used: count, Limit: limit}
		if limit > 0 {
			u.Percentage = int(count * 100 / int64(limit))
		}
		usage[kind] = u
	}
	return plan, usage, nil
}

func (e *Evaluator) activePlan(ctx context.Context, userID uuid.UUID) (*model.Plan, error) {
	sub, err := e.subs.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Error checking plan limits", err)
	}
	if sub == nil {
		return nil, apperr.New(apperr.ErrNoActiveSubscription, "No active subscription found")
	}
	return &sub.Plan, nil
}

func (e *Evaluator) count(ctx context.Context, userID uuid.UUID, kind model.ResourceKind) (int64, error) {
	c, ok := e.counters[kind]
	if !ok {
		return 0, apperr.Internal("Error checking plan limits", fmt.Errorf("no counter for resource kind %q", kind))
	}
	n, err := c.CountByUser(ctx, userID)
	if err != nil {
		return 0, apperr.Internal("Error checking plan limits", err)
	}
	return n, nil
}

func plural(kind model.ResourceKind) string {
	switch kind {
	case model.KindSite:
		return "sites"
	case model.KindRedirect:
		return "redirects"
	case model.KindGithubPage:
		return "GitHub Pages"
	}
	return string(kind)
}
