package auth

import (
	"net"
	"net/http"
	"strings"

	"github.com/TheGoodall/forum/pkg/logger"
	"github.com/TheGoodall/forum/pkg/utils"
)

// credentialEndpoint reports whether the path takes a password and should
// be rate limited per client ip.
func credentialEndpoint(path string) bool {
	return path == "/v1/login" || path == "/v1/register"
}

// SessionMiddleware logs each request, answers CORS preflights, resolves
// the session cookie into the request context and rate limits credential
// endpoints. Requests without a valid session pass through with no user
// set; handlers that need one wrap themselves in RequireUser.
func SessionMiddleware(cfg SecConfig, sessions Validator) func(http.Handler) http.Handler {
	// limiters keyed by remote ip
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// log request (redacts sensitive headers)
			logger.LogRequest(r)

			// cors preflight; credentials required for cookie auth
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
				w.Header().Set("Access-Control-Max-Age", "600")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if r.Method == http.MethodPost && credentialEndpoint(r.URL.Path) {
				ip := clientIP(r)
				if !limiters.Allow(ip) {
					logger.Warn("rate_limited", "ip", ip, "path", r.URL.Path)
					utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
					return
				}
			}

			if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
				userID, verr := sessions.Validate(c.Value)
				if verr != nil {
					logger.Error("session_validate_failed", "error", verr)
					utils.JSONError(w, http.StatusInternalServerError, "internal error")
					return
				}
				if userID != "" {
					r = r.WithContext(WithUser(r.Context(), userID))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	if len(allowed) == 0 {
		return false
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
