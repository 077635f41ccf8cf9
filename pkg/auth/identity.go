package auth

import (
	"context"
	"net/http"

	"github.com/TheGoodall/forum/pkg/logger"
	"github.com/TheGoodall/forum/pkg/utils"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "sessionId"

// SecConfig mirrors the security-related configuration used to drive
// CORS and rate limiting behavior. Put here so limiter.go and gateway.go
// can reference the shared type.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
}

// Validator resolves a session token to a user id. An empty user id with
// a nil error means the token is unknown or expired.
type Validator interface {
	Validate(token string) (string, error)
}

type ctxUserKey struct{}

// WithUser returns a context carrying the authenticated user id.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, userID)
}

// UserFromContext returns the authenticated user id or empty string.
func UserFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxUserKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RequireUser rejects requests whose session did not resolve to a user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == "" {
			logger.Warn("request_unauthorized", "path", r.URL.Path, "remote", r.RemoteAddr)
			utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
