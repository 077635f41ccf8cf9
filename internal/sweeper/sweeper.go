// Package sweeper purges expired session records on a cron schedule.
// Lookups already prune lazily; the sweeper keeps the session keyspace
// from accumulating records for tokens that are never presented again.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/TheGoodall/forum/pkg/config"
	"github.com/TheGoodall/forum/pkg/logger"
	"github.com/TheGoodall/forum/pkg/store"
	"github.com/TheGoodall/forum/pkg/telemetry"
)

const defaultBatchSize = 1000

// Start starts the sweep scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg config.SweeperConfig, sessions *store.SessionStore) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("sweeper_disabled")
		return func() {}, nil
	}

	// map empty cron to default hourly
	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("sweeper_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid sweeper cron expression: %s", cfg.Cron)
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	logger.Info("sweeper_enabled", "cron", cronExpr, "batch", batch)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, batch, sessions)
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured
// cron expression and sleeps until that time.
func runScheduler(ctx context.Context, cronExpr string, batch int, sessions *store.SessionStore) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweeper_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("sweeper_stopping")
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			runOnce(batch, sessions)
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		}
	}
}

// RunImmediate triggers a single sweep, for tests and admin triggers.
func RunImmediate(batch int, sessions *store.SessionStore) int {
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return runOnce(batch, sessions)
}

func runOnce(batch int, sessions *store.SessionStore) int {
	start := time.Now()
	total := 0
	cursor := ""
	for {
		n, next, err := sessions.PurgeExpired(cursor, batch)
		if err != nil {
			logger.Error("sweeper_purge_failed", "error", err)
			break
		}
		total += n
		// the cursor moves past live records too, so one sweep covers
		// the whole keyspace even when nothing in a batch is stale
		if next == "" {
			break
		}
		cursor = next
	}
	if total > 0 {
		telemetry.SessionsPurged(total)
	}
	logger.Info("sweeper_run_complete", "purged", total, "elapsed", time.Since(start).String())
	return total
}
