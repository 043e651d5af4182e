package repository

import (
	"context"
	"testing"
	"time"

	"sriox/internal/database/databasetest"
	"sriox/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", Password: "x", IsActive: true}
	if err := NewUserRepo(db).CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestResourceRepoOwnershipAndKeys(t *testing.T) {
	db := databasetest.New(t)
	repo := NewRedirectRepo(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	rec := &model.Redirect{UserID: alice.ID, Name: "docs", TargetURL: "https://example.com", Path: "/x/docs.html", IsActive: true}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if got, err := repo.GetOwned(ctx, rec.ID, bob.ID); err != nil || got != nil {
		t.Errorf("GetOwned for other user = %v, %v", got, err)
	}
	if got, err := repo.GetOwned(ctx, rec.ID, alice.ID); err != nil || got == nil {
		t.Fatalf("GetOwned = %v, %v", got, err)
	}

	dup := &model.Redirect{UserID: bob.ID, Name: "docs", TargetURL: "https://x.example.com", Path: "/x/docs.html", IsActive: true}
	if err := repo.Create(ctx, dup); !IsUniqueViolation(err) {
		t.Errorf("duplicate key err = %v, want unique violation", err)
	}

	if ok, _ := repo.KeyExists(ctx, "docs"); !ok {
		t.Error("KeyExists(docs) = false")
	}
	if n, _ := repo.CountByUser(ctx, alice.ID); n != 1 {
		t.Errorf("CountByUser = %d, want 1", n)
	}
	keys, err := repo.Keys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != "docs" {
		t.Errorf("Keys = %v, %v", keys, err)
	}

	public, err := repo.GetActiveByKey(ctx, "docs")
	if err != nil || public == nil || public.User == nil || public.User.Username != "alice" {
		t.Fatalf("GetActiveByKey = %+v, %v", public, err)
	}

	rec.IsActive = false
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if got, _ := repo.GetActiveByKey(ctx, "docs"); got != nil {
		t.Error("inactive record resolved by key")
	}

	if err := repo.Delete(ctx, rec); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := repo.Delete(ctx, rec); err == nil {
		t.Error("second delete succeeded")
	}
}

func TestResourceRepoWithTxRollsBack(t *testing.T) {
	db := databasetest.New(t)
	repo := NewSiteRepo(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.WithTx(tx).Create(ctx, &model.Site{UserID: alice.ID, Subdomain: "blog", Path: "/x/blog", IsActive: true}); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	if err == nil {
		t.Fatal("transaction unexpectedly committed")
	}
	if ok, _ := repo.KeyExists(ctx, "blog"); ok {
		t.Error("rolled back create is visible")
	}
}

func TestOneActiveSubscriptionPerUser(t *testing.T) {
	db := databasetest.New(t)
	ctx := context.Background()
	plans := NewPlanRepo(db)
	subs := NewSubscriptionRepo(db)
	alice := seedUser(t, db, "alice")

	plan := &model.Plan{Name: "Free", MaxSubdomains: 2, MaxRedirects: 2, MaxGithubPages: 2, MaxUploadSize: 1 << 20}
	if err := plans.UpsertPlan(ctx, plan); err != nil {
		t.Fatalf("UpsertPlan returned error: %v", err)
	}
	stored, err := plans.GetPlanByName(ctx, "Free")
	if err != nil || stored == nil {
		t.Fatalf("GetPlanByName = %v, %v", stored, err)
	}

	first := &model.Subscription{UserID: alice.ID, PlanID: stored.ID, Status: model.SubscriptionActive}
	if err := subs.CreateSubscription(ctx, first); err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	second := &model.Subscription{UserID: alice.ID, PlanID: stored.ID, Status: model.SubscriptionActive}
	if err := subs.CreateSubscription(ctx, second); !IsUniqueViolation(err) {
		t.Fatalf("second active subscription err = %v, want unique violation", err)
	}

	if err := subs.CancelSubscription(ctx, first.ID, time.Now()); err != nil {
		t.Fatalf("CancelSubscription returned error: %v", err)
	}
	if err := subs.CancelSubscription(ctx, first.ID, time.Now()); err == nil {
		t.Error("canceling twice succeeded")
	}
	if active, _ := subs.GetActiveSubscription(ctx, alice.ID); active != nil {
		t.Errorf("active subscription after cancel = %+v", active)
	}
	if err := subs.CreateSubscription(ctx, second); err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	active, err := subs.GetActiveSubscription(ctx, alice.ID)
	if err != nil || active == nil || active.Plan.Name != "Free" {
		t.Errorf("GetActiveSubscription = %+v, %v", active, err)
	}
}

func TestUserTaken(t *testing.T) {
	db := databasetest.New(t)
	users := NewUserRepo(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	if taken, _ := users.UsernameTaken(ctx, "alice", uuid.Nil); !taken {
		t.Error("UsernameTaken(alice) = false")
	}
	if taken, _ := users.UsernameTaken(ctx, "alice", alice.ID); taken {
		t.Error("own username reported as taken")
	}
	if taken, _ := users.EmailTaken(ctx, "bob@example.com", uuid.Nil); taken {
		t.Error("EmailTaken(bob) = true")
	}
	if err := users.TouchLastLogin(ctx, alice.ID, time.Now()); err != nil {
		t.Fatalf("TouchLastLogin returned error: %v", err)
	}
	got, _ := users.GetUserByID(ctx, alice.ID)
	if got.LastLogin == nil {
		t.Error("last login not stored")
	}
	if missing, err := users.GetUserByEmail(ctx, "nobody@example.com"); err != nil || missing != nil {
		t.Errorf("GetUserByEmail(missing) = %v, %v", missing, err)
	}
}
