package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"sriox/internal/apperr"
	"sriox/internal/hostfs"
	"sriox/internal/provision"
	"sriox/internal/redirectpage"
)

type recordingNotifier struct{ events []provision.Event }

func (n *recordingNotifier) Notify(ctx context.Context, ev provision.Event) {
	n.events = append(n.events, ev)
}

func newRedirectService(t *testing.T, e *testEnv) RedirectService {
	t.Helper()
	pages, err := hostfs.NewFiles(e.path("subpages"), ".html")
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	return NewRedirectService(e.redirs, pages, redirectpage.NewRenderer("sriox.test"), NewValidator(), "sriox.test", e.deps)
}

func readPage(t *testing.T, e *testEnv, name string) string {
	t.Helper()
	data, err := os.ReadFile(e.path("subpages", name+".html"))
	if err != nil {
		t.Fatalf("read page %s: %v", name, err)
	}
	return string(data)
}

func TestRedirectCreateWritesPage(t *testing.T) {
	e := newTestEnv(t)
	notifier := &recordingNotifier{}
	e.deps.Notifier = notifier
	svc := newRedirectService(t, e)
	user := e.newUser(t, "alice", FreePlanName)
	ctx := context.Background()

	r, err := svc.Create(ctx, user, RedirectCreate{Name: "Docs", TargetURL: "https://example.com/docs"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if r.Name != "docs" || !r.IsActive {
		t.Errorf("record = %+v", r)
	}
	if !strings.Contains(readPage(t, e, "docs"), `href="https://example.com/docs"`) {
		t.Error("page does not link to the target")
	}
	if got := svc.URL(r); got != "https://sriox.test/docs" {
		t.Errorf("URL = %q", got)
	}
	if len(notifier.events) != 1 || notifier.events[0].Type != "redirect.created" || notifier.events[0].Key != "docs" {
		t.Errorf("events = %+v", notifier.events)
	}
}

func TestRedirectCreateRejectsInput(t *testing.T) {
	e := newTestEnv(t)
	svc := newRedirectService(t, e)
	user := e.newUser(t, "alice", FreePlanName)
	ctx := context.Background()

	for _, in := range []RedirectCreate{
		{Name: "docs", TargetURL: "not a url"},
		{Name: "docs", TargetURL: "javascript:alert(1)"},
		{Name: "has space", TargetURL: "https://example.com"},
		{Name: "", TargetURL: "https://example.com"},
	} {
		if _, err := svc.Create(ctx, user, in); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Create(%+v) err = %v, want ErrInvalidInput", in, err)
		}
	}
	entries, _ := os.ReadDir(e.path("subpages"))
	if len(entries) != 0 {
		t.Errorf("rejected creates wrote %d files", len(entries))
	}
}

func TestRedirectNameTakenAndQuota(t *testing.T) {
	e := newTestEnv(t)
	svc := newRedirectService(t, e)
	alice := e.newUser(t, "alice", FreePlanName)
	bob := e.newUser(t, "bob", FreePlanName)
	ctx := context.Background()

	if _, err := svc.Create(ctx, alice, RedirectCreate{Name: "a", TargetURL: "https://a.example.com"}); err != nil {
		t.Fatalf("create a: %v", err)
	}
	_, err := svc.Create(ctx, bob, RedirectCreate{Name: "a", TargetURL: "https://evil.example.com"})
	if !errors.Is(err, apperr.ErrNameTaken) || apperr.Message(err) != "Redirect name is already taken" {
		t.Fatalf("err = %v, want name taken", err)
	}
	if !strings.Contains(readPage(t, e, "a"), "https://a.example.com") {
		t.Error("existing page overwritten")
	}

	if _, err := svc.Create(ctx, alice, RedirectCreate{Name: "b", TargetURL: "https://b.example.com"}); err != nil {
		t.Fatalf("create b: %v", err)
	}
	_, err = svc.Create(ctx, alice, RedirectCreate{Name: "c", TargetURL: "https://c.example.com"})
	if !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if apperr.Status(err) != 403 {
		t.Errorf("status = %d, want 403", apperr.Status(err))
	}
}

func TestRedirectUpdateRegeneratesPage(t *testing.T) {
	e := newTestEnv(t)
	svc := newRedirectService(t, e)
	user := e.newUser(t, "alice", FreePlanName)
	ctx := context.Background()

	r, err := svc.Create(ctx, user, RedirectCreate{Name: "go", TargetURL: "https://old.example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := svc.Update(ctx, r.ID, user, RedirectUpdate{TargetURL: strPtr("https://new.example.com")})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.TargetURL != "https://new.example.com" {
		t.Errorf("target = %q", updated.TargetURL)
	}
	page := readPage(t, e, "go")
	if !strings.Contains(page, "https://new.example.com") || strings.Contains(page, "https://old.example.com") {
		t.Error("page was not regenerated")
	}

	if _, err := svc.Update(ctx, r.ID, user, RedirectUpdate{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.GetPublic(ctx, "go"); !errors.Is(err, apperr.ErrNotFoundOrForbidden) {
		t.Errorf("inactive redirect resolved: %v", err)
	}

	if _, err := svc.Update(ctx, r.ID, user, RedirectUpdate{TargetURL: strPtr("ftp://x")}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("invalid target err = %v", err)
	}
}

func TestRedirectDelete(t *testing.T) {
	e := newTestEnv(t)
	svc := newRedirectService(t, e)
	alice := e.newUser(t, "alice", FreePlanName)
	bob := e.newUser(t, "bob", FreePlanName)
	ctx := context.Background()

	r, err := svc.Create(ctx, alice, RedirectCreate{Name: "go", TargetURL: "https://example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, r.ID, bob); !errors.Is(err, apperr.ErrNotFoundOrForbidden) {
		t.Fatalf("foreign delete err = %v", err)
	}
	if err := svc.Delete(ctx, r.ID, alice); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := os.Stat(e.path("subpages", "go.html")); !os.IsNotExist(err) {
		t.Error("page survived delete")
	}
	list, _ := svc.List(ctx, alice)
	if len(list) != 0 {
		t.Errorf("got %d redirects after delete", len(list))
	}
}
