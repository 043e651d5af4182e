package service

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"sriox/internal/database/databasetest"
	"sriox/internal/model"
	"sriox/internal/provision"
	"sriox/internal/quota"
	"sriox/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	users   repository.UserRepository
	plans   repository.PlanRepository
	subs    repository.SubscriptionRepository
	sites   repository.SiteRepository
	redirs  repository.RedirectRepository
	pages   repository.GithubPageRepository
	quota   *quota.Evaluator
	deps    provision.Deps
	dataDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := databasetest.New(t)
	e := &testEnv{
		db:      db,
		users:   repository.NewUserRepo(db),
		plans:   repository.NewPlanRepo(db),
		subs:    repository.NewSubscriptionRepo(db),
		sites:   repository.NewSiteRepo(db),
		redirs:  repository.NewRedirectRepo(db),
		pages:   repository.NewGithubPageRepo(db),
		dataDir: t.TempDir(),
	}
	if err := NewPlanService(e.plans, zerolog.Nop()).EnsureDefaultPlans(context.Background()); err != nil {
		t.Fatalf("seed plans: %v", err)
	}
	e.quota = quota.NewEvaluator(e.subs, map[model.ResourceKind]quota.Counter{
		model.KindSite:       e.sites,
		model.KindRedirect:   e.redirs,
		model.KindGithubPage: e.pages,
	})
	e.deps = provision.Deps{DB: db, Quota: e.quota, Logger: zerolog.Nop()}
	return e
}

// newUser creates an active user subscribed to the named plan.
func (e *testEnv) newUser(t *testing.T, username, planName string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	u := &model.User{Username: username, Email: username + "@example.com", Password: "x", IsActive: true}
	if err := e.users.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	plan, err := e.plans.GetPlanByName(ctx, planName)
	if err != nil || plan == nil {
		t.Fatalf("plan %s: %v", planName, err)
	}
	sub := &model.Subscription{UserID: u.ID, PlanID: plan.ID, Status: model.SubscriptionActive}
	if err := e.subs.CreateSubscription(ctx, sub); err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	return u.ID
}

func (e *testEnv) path(parts ...string) string {
	return filepath.Join(append([]string{e.dataDir}, parts...)...)
}

func buildZip(t *testing.T, files map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := io.WriteString(w, body); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

type fakeArchives struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeArchives() *fakeArchives {
	return &fakeArchives{objects: map[string][]byte{}}
}

func (f *fakeArchives) PutArchive(ctx context.Context, subdomain string, body io.Reader, size int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[subdomain] = data
	return nil
}

func (f *fakeArchives) DeleteArchive(ctx context.Context, subdomain string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, subdomain)
	f.deleted = append(f.deleted, subdomain)
	return nil
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }
