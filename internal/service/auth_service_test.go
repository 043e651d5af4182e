package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"sriox/internal/apperr"
	"sriox/internal/util"

	"github.com/rs/zerolog"
)

const testSecret = "test-secret"

func newAuthService(e *testEnv) AuthService {
	return NewAuthService(e.db, e.users, e.plans, e.subs, NewValidator(), testSecret, time.Hour, zerolog.Nop())
}

func TestRegisterCreatesFreeSubscription(t *testing.T) {
	e := newTestEnv(t)
	svc := newAuthService(e)
	ctx := context.Background()

	sess, err := svc.Register(ctx, Registration{Username: "alice", Email: " Alice@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if sess.Token == "" || sess.User.Email != "alice@example.com" {
		t.Errorf("session = %+v", sess)
	}
	if sess.User.Password == "secret1" {
		t.Error("password stored in plain text")
	}
	claims, err := util.ValidateJWT(sess.Token, testSecret)
	if err != nil || claims.Subject != sess.User.ID.String() {
		t.Errorf("token claims = %+v, %v", claims, err)
	}

	sub, err := e.subs.GetActiveSubscription(ctx, sess.User.ID)
	if err != nil || sub == nil {
		t.Fatalf("active subscription = %v, %v", sub, err)
	}
	if sub.Plan.Name != FreePlanName {
		t.Errorf("plan = %q, want %s", sub.Plan.Name, FreePlanName)
	}
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	e := newTestEnv(t)
	svc := newAuthService(e)
	ctx := context.Background()

	if _, err := svc.Register(ctx, Registration{Username: "alice", Email: "alice@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name string
		in   Registration
		want error
	}{
		{"same email", Registration{Username: "alice2", Email: "ALICE@example.com", Password: "secret1"}, apperr.ErrNameTaken},
		{"same username", Registration{Username: "alice", Email: "other@example.com", Password: "secret1"}, apperr.ErrNameTaken},
		{"short password", Registration{Username: "bob", Email: "bob@example.com", Password: "123"}, apperr.ErrInvalidInput},
		{"bad email", Registration{Username: "bob", Email: "bob", Password: "secret1"}, apperr.ErrInvalidInput},
		{"bad username", Registration{Username: "b!", Email: "bob@example.com", Password: "secret1"}, apperr.ErrInvalidInput},
		{"underscore username", Registration{Username: "john_doe", Email: "john@example.com", Password: "secret1"}, nil},
		{"hyphen username", Registration{Username: "jane-doe", Email: "jane@example.com", Password: "secret1"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	e := newTestEnv(t)
	svc := newAuthService(e)
	ctx := context.Background()

	reg, err := svc.Register(ctx, Registration{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, Credentials{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.Login(ctx, Credentials{Email: "nobody@example.com", Password: "secret1"}); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("unknown email err = %v", err)
	}

	sess, err := svc.Login(ctx, Credentials{Email: "Alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if sess.User.LastLogin == nil {
		t.Error("last login not recorded")
	}

	user, err := svc.Authenticate(ctx, sess.Token)
	if err != nil || user.ID != reg.User.ID {
		t.Fatalf("Authenticate = %v, %v", user, err)
	}

	if _, err := svc.Authenticate(ctx, "garbage"); !errors.Is(err, apperr.ErrInvalidToken) {
		t.Errorf("garbage token err = %v", err)
	}
	forged, _ := util.IssueJWT(reg.User.ID.String(), "alice", "other-secret", time.Hour)
	if _, err := svc.Authenticate(ctx, forged); !errors.Is(err, apperr.ErrInvalidToken) {
		t.Errorf("forged token err = %v", err)
	}

	user.IsActive = false
	if err := e.users.UpdateUser(ctx, user); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, sess.Token); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("inactive user err = %v", err)
	}
	if _, err := svc.Login(ctx, Credentials{Email: "alice@example.com", Password: "secret1"}); apperr.Message(err) != "Account is inactive" {
		t.Errorf("inactive login err = %v", err)
	}
}
