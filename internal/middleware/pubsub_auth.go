package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/idtoken"
)

// TokenValidator checks a Google-signed OIDC token for an audience.
type TokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// PubSubAuthMiddleware validates the OIDC token of a Pub/Sub push request
// and requires it to be issued to expectedEmail. It bypasses authentication
// if isLocalDev is true.
func PubSubAuthMiddleware(isLocalDev bool, audience, expectedEmail string, validate TokenValidator, logger zerolog.Logger) func(http.Handler) http.Handler {
	if validate == nil {
		validate = idtoken.Validate
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isLocalDev {
				logger.Debug().Msg("Skipping Pub/Sub authentication for local environment")
				next.ServeHTTP(w, r)
				return
			}

			if audience == "" || expectedEmail == "" {
				logger.Error().Msg("Pub/Sub auth middleware configured without an audience or expected email; requests will be denied")
				http.Error(w, "Configuration error: audience or email not set", http.StatusInternalServerError)
				return
			}

			parts := strings.Split(r.Header.Get("Authorization"), " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				logger.Warn().Msg("Missing or malformed Authorization header in Pub/Sub push request")
				http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
				return
			}

			payload, err := validate(r.Context(), parts[1], audience)
			if err != nil {
				logger.Error().Err(err).Msg("Failed to validate Pub/Sub JWT")
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			email, _ := payload.Claims["email"].(string)
			if email != expectedEmail {
				logger.Warn().
					Str("token_email", email).
					Str("expected_email", expectedEmail).
					Msg("Pub/Sub JWT email does not match expected service account")
				http.Error(w, "Forbidden: token email does not match expected service account", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
