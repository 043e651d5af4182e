package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"sriox/internal/apperr"
	"sriox/internal/middleware"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
)

// APIError is the envelope of every failed request. Detail is only set for
// internal failures.
type APIError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
	status  int
}

func (e *APIError) Error() string  { return e.Message }
func (e *APIError) GetStatus() int { return e.status }

// ContentType keeps errors as plain JSON instead of problem+json.
func (e *APIError) ContentType(string) string { return "application/json" }

// NewError is installed as huma.NewError so that framework errors (schema
// validation, malformed bodies) use the same envelope. Schema violations are
// reported as 400.
func NewError(status int, msg string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}
	e := &APIError{Message: msg, status: status}
	var first error
	for _, err := range errs {
		if err != nil {
			first = err
			break
		}
	}
	switch {
	case first == nil:
	case status >= http.StatusInternalServerError:
		e.Detail = first.Error()
	default:
		e.Message = msg + ": " + first.Error()
	}
	return e
}

// serviceError converts a service failure into its HTTP form.
func serviceError(err error) error {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		return huma.NewError(status, apperr.Message(err), err)
	}
	return huma.NewError(status, apperr.Message(err))
}

// Helper to extract user ID from context (injected by auth middleware)
func getUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	if err := middleware.AuthError(ctx); err != nil {
		return uuid.Nil, serviceError(err)
	}
	raw, ok := ctx.Value(middleware.UserContextKey).(string)
	if !ok || raw == "" {
		return uuid.Nil, huma.Error401Unauthorized("Authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, huma.Error401Unauthorized("Invalid token")
	}
	return id, nil
}

// parseID treats a malformed ID like a missing resource.
func parseID(raw, noun string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, huma.Error404NotFound(noun + " not found or you don't have permission")
	}
	return id, nil
}

// writeJSON and writeError serve the raw (non-huma) routes.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	var se huma.StatusError
	if !errors.As(err, &se) {
		se = huma.NewError(http.StatusInternalServerError, "Internal server error", err)
	}
	writeJSON(w, se.GetStatus(), se)
}
