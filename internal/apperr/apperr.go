// Package apperr is the error taxonomy shared by the services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNameTaken            = errors.New("name taken")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrInvalidToken         = errors.New("invalid token")
	ErrNotFoundOrForbidden  = errors.New("not found or forbidden")
	ErrQuotaExceeded        = errors.New("quota exceeded")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrRepositoryNotFound   = errors.New("repository not found")
	ErrInternal             = errors.New("internal failure")

	// ErrMissingIndexDocument is InvalidInput class.
	ErrMissingIndexDocument = fmt.Errorf("%w: missing index document", ErrInvalidInput)
	// ErrVerificationFailed is InvalidInput class.
	ErrVerificationFailed = fmt.Errorf("%w: verification failed", ErrInvalidInput)
)

// Error pairs a taxonomy entry with a user-facing message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func New(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure with a generic message.
func Internal(message string, err error) error {
	return &Error{Kind: ErrInternal, Message: message, Err: err}
}

// Classified reports whether err already carries a taxonomy entry.
func Classified(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return true
	}
	for _, kind := range []error{
		ErrInvalidInput, ErrNameTaken, ErrUnauthenticated, ErrInvalidToken, ErrNotFoundOrForbidden,
		ErrQuotaExceeded, ErrNoActiveSubscription, ErrRepositoryNotFound, ErrInternal,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Message returns the user-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	switch {
	case errors.Is(err, ErrMissingIndexDocument):
		return "index.html not found in the root of the zip file"
	case errors.Is(err, ErrVerificationFailed):
		return "Verification failed"
	case errors.Is(err, ErrInvalidInput):
		return "Invalid input"
	case errors.Is(err, ErrNameTaken):
		return "Name is already taken"
	case errors.Is(err, ErrUnauthenticated):
		return "Authentication required"
	case errors.Is(err, ErrInvalidToken):
		return "Invalid token"
	case errors.Is(err, ErrNotFoundOrForbidden):
		return "Not found"
	case errors.Is(err, ErrQuotaExceeded):
		return "Plan limit reached"
	case errors.Is(err, ErrNoActiveSubscription):
		return "No active subscription found"
	case errors.Is(err, ErrRepositoryNotFound):
		return "GitHub repository not found or not accessible"
	}
	return "Internal server error"
}

// Status maps err to its HTTP status code. Unclassified errors are internal.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFoundOrForbidden), errors.Is(err, ErrRepositoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrQuotaExceeded), errors.Is(err, ErrNoActiveSubscription):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
