// Package app wires the stores, sweeper and HTTP server together.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/TheGoodall/forum/internal/sweeper"
	"github.com/TheGoodall/forum/pkg/banner"
	"github.com/TheGoodall/forum/pkg/config"
	"github.com/TheGoodall/forum/pkg/kv"
	"github.com/TheGoodall/forum/pkg/logger"
	"github.com/TheGoodall/forum/pkg/store"
	"github.com/TheGoodall/forum/pkg/thread"
)

const defaultRootContent = "Welcome to the board. Reply to this post to start a thread."

// App encapsulates the server components and lifecycle.
type App struct {
	cfg     *config.Config
	version string
	source  string

	db       *kv.Pebble
	posts    *store.PostStore
	accounts *store.AccountStore
	sessions *store.SessionStore
	threads  *thread.Assembler

	srv *http.Server
}

// New validates the config, opens the database, builds the stores and
// bootstraps the root post. It does not start the sweeper or the HTTP
// server; call Run to start those and block until shutdown.
func New(cfg *config.Config, version, source string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := kv.OpenPebble(cfg.Server.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", cfg.Server.DBPath, err)
	}

	posts := store.NewPostStore(db)
	accounts := store.NewAccountStore(db)
	sessions := store.NewSessionStore(db, accounts, cfg.Session.Expiry.Duration())

	rootContent := cfg.Board.RootContent
	if rootContent == "" {
		rootContent = defaultRootContent
	}
	if err := posts.EnsureRoot(rootContent, ""); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to bootstrap root post: %w", err)
	}

	return &App{
		cfg:      cfg,
		version:  version,
		source:   source,
		db:       db,
		posts:    posts,
		accounts: accounts,
		sessions: sessions,
		threads:  thread.NewAssembler(posts, accounts),
	}, nil
}

// Run starts the sweeper and the HTTP server, and blocks until ctx is
// canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	banner.Print(a.cfg, a.version, a.source)

	stopSweeper, err := sweeper.Start(ctx, a.cfg.Sweeper, a.sessions)
	if err != nil {
		return err
	}
	defer stopSweeper()

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		a.stop()
		return nil
	case err := <-errCh:
		a.stop()
		return err
	}
}

// stop drains in-flight requests and closes the database.
func (a *App) stop() {
	if a.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http_shutdown_incomplete", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		logger.Error("db_close_failed", "error", err)
	} else {
		logger.Info("db_closed")
	}
}
