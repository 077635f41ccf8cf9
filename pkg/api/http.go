// Package api assembles the board's HTTP surface.
package api

import (
	"net/http"

	"github.com/TheGoodall/forum/pkg/api/handlers"
	"github.com/TheGoodall/forum/pkg/auth"
	"github.com/TheGoodall/forum/pkg/config"
	"github.com/TheGoodall/forum/pkg/store"
	"github.com/TheGoodall/forum/pkg/telemetry"
	"github.com/TheGoodall/forum/pkg/thread"

	"github.com/gorilla/mux"
)

// Deps carries the stores the handlers operate on.
type Deps struct {
	Posts    *store.PostStore
	Accounts *store.AccountStore
	Sessions *store.SessionStore
	Threads  *thread.Assembler
}

// Handler builds the full router: health and metrics endpoints plus the
// versioned board API, wrapped in session and telemetry middleware.
func Handler(cfg *config.Config, d Deps) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	r.Handle("/metrics", telemetry.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	ph := &handlers.Posts{
		Store:          d.Posts,
		Threads:        d.Threads,
		MaxContentSize: cfg.Board.MaxContentSize.Int64(),
	}
	ph.Register(v1)
	ah := &handlers.Accounts{
		Accounts:      d.Accounts,
		Sessions:      d.Sessions,
		SessionExpiry: cfg.Session.Expiry.Duration(),
		SecureCookies: cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "",
	}
	ah.Register(v1)

	secCfg := auth.SecConfig{
		AllowedOrigins: append([]string{}, cfg.Security.CORS.AllowedOrigins...),
		RPS:            cfg.Security.RateLimit.RPS,
		Burst:          cfg.Security.RateLimit.Burst,
	}
	wrapped := auth.SessionMiddleware(secCfg, d.Sessions)(r)
	return telemetry.Middleware(wrapped)
}

// healthz handles the /healthz endpoint.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
