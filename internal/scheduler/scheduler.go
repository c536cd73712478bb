// Package scheduler drives periodic reconciliation of every registered
// tenant on a cron schedule, per §2's scheduled-refresh responsibility.
// It wires github.com/robfig/cron/v3, declared but never used by the
// teacher, into the one place this repo actually needs a cron expression
// parsed and run.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"calproxy/internal/fetch"
	appLog "calproxy/internal/log"
	"calproxy/internal/reconcile"
	"calproxy/internal/store"
	"calproxy/internal/tenant"
)

// Scheduler periodically reconciles every registered tenant.
type Scheduler struct {
	store     store.Store
	fetcher   *fetch.Fetcher
	defaultTZ string
	cron      *cron.Cron
}

// New constructs a Scheduler bound to st. schedule is a standard
// five-field cron expression (e.g. "*/15 * * * *"); defaultTZ is used for
// any tenant without its own timezone override.
func New(st store.Store, fetcher *fetch.Fetcher, defaultTZ, schedule string) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{store: st, fetcher: fetcher, defaultTZ: defaultTZ, cron: c}

	if _, err := c.AddFunc(schedule, s.runAll); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the cron scheduler. It runs until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	go func() {
		<-ctx.Done()
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
	}()
}

// RunOnce reconciles every registered tenant immediately, outside the
// cron schedule. Used for --once style startup runs.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runAllWithContext(ctx)
}

func (s *Scheduler) runAll() {
	s.runAllWithContext(context.Background())
}

func (s *Scheduler) runAllWithContext(ctx context.Context) {
	runID := uuid.NewString()

	ids, err := tenant.List(ctx, s.store)
	if err != nil {
		appLog.Error("scheduler: failed to list tenants", err, "run_id", runID)
		return
	}

	appLog.Info("scheduler: run starting", "run_id", runID, "tenant_count", len(ids))
	started := time.Now()

	for _, id := range ids {
		s.runTenant(ctx, runID, id)
	}

	appLog.Info("scheduler: run complete", "run_id", runID, "duration_ms", time.Since(started).Milliseconds())
}

func (s *Scheduler) runTenant(ctx context.Context, runID, id string) {
	t, err := tenant.Get(ctx, s.store, id)
	if err != nil {
		appLog.Error("scheduler: tenant lookup failed", err, "run_id", runID, "tenant", id)
		return
	}

	defaultTZ := t.Timezone
	if defaultTZ == "" {
		defaultTZ = s.defaultTZ
	}

	fetched, err := s.fetcher.Fetch(ctx, t.SourceURL)
	var unreachable bool
	switch {
	case err != nil:
		appLog.Error("scheduler: upstream fetch failed, falling back to last-known-good", err, "run_id", runID, "tenant", id)
		unreachable = true
	case fetched.StatusCode < 200 || fetched.StatusCode >= 300:
		appLog.Info("scheduler: upstream returned non-2xx, falling back to last-known-good",
			"run_id", runID, "tenant", id, "status", fetched.StatusCode)
		unreachable = true
	}

	if unreachable {
		if _, err := reconcile.Fallback(ctx, s.store, id); err != nil {
			appLog.Error("scheduler: upstream unreachable and no last-known-good snapshot", err, "run_id", runID, "tenant", id)
		}
		return
	}

	if _, err := reconcile.Reconcile(ctx, s.store, id, defaultTZ, fetched.Body); err != nil {
		appLog.Error("scheduler: reconciliation failed", err, "run_id", runID, "tenant", id)
	}
}
