package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{New(ErrInvalidInput, "bad"), http.StatusBadRequest},
		{ErrMissingIndexDocument, http.StatusBadRequest},
		{ErrVerificationFailed, http.StatusBadRequest},
		{New(ErrNameTaken, "taken"), http.StatusConflict},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrInvalidToken, http.StatusUnauthorized},
		{ErrNotFoundOrForbidden, http.StatusNotFound},
		{ErrRepositoryNotFound, http.StatusNotFound},
		{ErrQuotaExceeded, http.StatusForbidden},
		{ErrNoActiveSubscription, http.StatusForbidden},
		{Internal("boom", errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("unclassified"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", New(ErrNameTaken, "taken")), http.StatusConflict},
	}
	for _, tc := range cases {
		if got := Status(tc.err); got != tc.want {
			t.Errorf("Status(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestInternalKeepsCauseAndGenericMessage(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("Error uploading site", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable")
	}
	if Message(err) != "Error uploading site" {
		t.Fatalf("unexpected message %q", Message(err))
	}
}

func TestMessageFallsBackForSentinels(t *testing.T) {
	if got := Message(ErrMissingIndexDocument); got != "index.html not found in the root of the zip file" {
		t.Fatalf("unexpected message %q", got)
	}
}
