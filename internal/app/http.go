package app

import (
	"net/http"

	"github.com/TheGoodall/forum/pkg/api"
	"github.com/TheGoodall/forum/pkg/logger"

	"github.com/dustin/go-humanize"
)

// setupHandler builds the full HTTP handler: the board API plus the
// readiness probe, which needs the live database handle.
func (a *App) setupHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/readyz", a.readyzHandler)
	mux.Handle("/", api.Handler(a.cfg, api.Deps{
		Posts:    a.posts,
		Accounts: a.accounts,
		Sessions: a.sessions,
		Threads:  a.threads,
	}))
	return mux
}

// readyzHandler handles the /readyz endpoint.
func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if a.db == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","disk":"` + humanize.Bytes(a.db.DiskUsage()) + `"}`))
}

// startHTTP starts the HTTP server in a goroutine and returns a channel
// that will carry any server error.
func (a *App) startHTTP() <-chan error {
	a.srv = &http.Server{Addr: a.cfg.Addr(), Handler: a.setupHandler()}

	errCh := make(chan error, 1)
	go func() {
		cert := a.cfg.Server.TLS.CertFile
		key := a.cfg.Server.TLS.KeyFile
		logger.Info("http_listening", "addr", a.srv.Addr, "tls", cert != "")
		var err error
		if cert != "" && key != "" {
			err = a.srv.ListenAndServeTLS(cert, key)
		} else {
			err = a.srv.ListenAndServe()
		}
		if err == http.ErrServerClosed {
			err = nil
		}
		errCh <- err
	}()
	return errCh
}
