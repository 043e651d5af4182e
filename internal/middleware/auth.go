package middleware

import (
	"context"
	"net/http"
	"strings"

	"sriox/internal/apperr"
	"sriox/internal/model"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const (
	UserContextKey = contextKey("user")
	authErrorKey   = contextKey("auth_error")
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// AuthMiddleware resolves the bearer token when one is sent and stores the
// user ID under UserContextKey. Requests without a token pass through; a
// rejected token is kept for the route to report via AuthError.
func AuthMiddleware(auth Authenticator, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				logger.Debug().Msg("Invalid authorization header")
				next.ServeHTTP(w, r.WithContext(withAuthError(r.Context(), apperr.New(apperr.ErrInvalidToken, "Invalid authorization header"))))
				return
			}

			user, err := auth.Authenticate(r.Context(), parts[1])
			if err != nil {
				logger.Debug().Err(err).Msg("Token rejected")
				next.ServeHTTP(w, r.WithContext(withAuthError(r.Context(), err)))
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user.ID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func withAuthError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, authErrorKey, err)
}

// AuthError returns why the request's bearer token was rejected, or nil.
func AuthError(ctx context.Context) error {
	err, _ := ctx.Value(authErrorKey).(error)
	return err
}
