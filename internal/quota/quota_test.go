package quota

import (
	"context"
	"errors"
	"testing"

	"sriox/internal/apperr"
	"sriox/internal/database/databasetest"
	"sriox/internal/model"
	"sriox/internal/repository"

	"github.com/google/uuid"
)

type fixedCounter int64

func (c fixedCounter) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return int64(c), nil
}

func TestAllowed(t *testing.T) {
	cases := []struct {
		limit int
		count int64
		want  bool
	}{
		{2, 0, true},
		{2, 1, true},
		{2, 2, false},
		{2, 3, false},
		{0, 0, false},
		{-1, 0, true},
		{-1, 1_000_000, true},
	}
	for _, tc := range cases {
		if got := Allowed(tc.limit, tc.count); got != tc.want {
			t.Errorf("Allowed(%d, %d) = %v, want %v", tc.limit, tc.count, got, tc.want)
		}
	}
}

func seedUser(t *testing.T, ctx context.Context, subs repository.SubscriptionRepository, users repository.UserRepository, plans repository.PlanRepository, plan *model.Plan) uuid.UUID {
	t.Helper()
	if err := plans.UpsertPlan(ctx, plan); err != nil {
		t.Fatalf("upsert plan: %v", err)
	}
	stored, err := plans.GetPlanByName(ctx, plan.Name)
	if err != nil || stored == nil {
		t.Fatalf("get plan: %v", err)
	}
	u := &model.User{Username: "alice", Email: "alice@example.com", Password: "x", IsActive: true}
	if err := users.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := subs.CreateSubscription(ctx, &model.Subscription{UserID: u.ID, PlanID: stored.ID, Status: model.SubscriptionActive}); err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	return u.ID
}

func TestCheckAtLimitIsRefused(t *testing.T) {
	ctx := context.Background()
	db := databasetest.New(t)
	subs := repository.NewSubscriptionRepo(db)
	userID := seedUser(t, ctx, subs, repository.NewUserRepo(db), repository.NewPlanRepo(db),
		&model.Plan{Name: "Free", MaxSubdomains: 2, MaxRedirects: 2, MaxGithubPages: 2})

	eval := NewEvaluator(subs, map[model.ResourceKind]Counter{
		model.KindSite:     fixedCounter(2),
		model.KindRedirect: fixedCounter(1),
	})

	if err := eval.Check(ctx, userID, model.KindSite); !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded at count == limit, got %v", err)
	}
	if err := eval.Check(ctx, userID, model.KindRedirect); err != nil {
		t.Fatalf("expected redirect to be allowed, got %v", err)
	}
}

func TestUnlimitedIsNeverRefused(t *testing.T) {
	ctx := context.Background()
	db := databasetest.New(t)
	subs := repository.NewSubscriptionRepo(db)
	userID := seedUser(t, ctx, subs, repository.NewUserRepo(db), repository.NewPlanRepo(db),
		&model.Plan{Name: "Pro", MaxSubdomains: -1, MaxRedirects: -1, MaxGithubPages: -1, Price: 5})

	eval := NewEvaluator(subs, map[model.ResourceKind]Counter{model.KindGithubPage: fixedCounter(10_000)})
	ok, err := eval.CanProvision(ctx, userID, model.KindGithubPage)
	if err != nil {
		t.Fatalf("CanProvision returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected unlimited plan to allow provisioning")
	}
}

func TestNoActiveSubscription(t *testing.T) {
	ctx := context.Background()
	db := databasetest.New(t)
	eval := NewEvaluator(repository.NewSubscriptionRepo(db), map[model.ResourceKind]Counter{model.KindSite: fixedCounter(0)})

	_, err := eval.CanProvision(ctx, uuid.New(), model.KindSite)
	if !errors.Is(err, apperr.ErrNoActiveSubscription) {
		t.Fatalf("expected ErrNoActiveSubscription, got %v", err)
	}
}

func TestUsage(t *testing.T) {
	ctx := context.Background()
	db := databasetest.New(t)
	subs := repository.NewSubscriptionRepo(db)
	userID := seedUser(t, ctx, subs, repository.NewUserRepo(db), repository.NewPlanRepo(db),
		&model.Plan{Name: "Free", MaxSubdomains: 2, MaxRedirects: 4, MaxGithubPages: -1})

	eval := NewEvaluator(subs, map[model.ResourceKind]Counter{
		model.KindSite:       fixedCounter(1),
		model.KindRedirect:   fixedCounter(1),
		model.KindGithubPage: fixedCounter(3),
	})
	plan, usage, err := eval.Usage(ctx, userID)
	if err != nil {
		t.Fatalf("Usage returned error: %v", err)
	}
	if plan.Name != "Free" {
		t.Fatalf("unexpected plan %q", plan.Name)
	}
	if u := usage[model.KindSite]; u.Used != 1 || u.Limit != 2 || u.Percentage != 50 {
		t.Fatalf("unexpected site usage %+v", u)
	}
	if u := usage[model.KindRedirect]; u.Percentage != 25 {
		t.Fatalf("unexpected redirect usage %+v", u)
	}
	if u := usage[model.KindGithubPage]; u.Limit != -1 || u.Percentage != 0 {
		t.Fatalf("unexpected github page usage %+v", u)
	}
}
