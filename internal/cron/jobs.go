package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/sealdrop/internal/history"
	"github.com/flemzord/sealdrop/internal/prefs"
)

// Prober runs a connectivity probe with the stored credentials.
type Prober interface {
	TestConfigured(ctx context.Context) error
}

// ProbeJob periodically checks that the bot token and chat are usable.
// Ticks are skipped while the credentials are blank.
type ProbeJob struct {
	Prober       Prober
	Prefs        prefs.Reader
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "@every 30m"
}

var _ Job = (*ProbeJob)(nil)

// Name implements Job.
func (j *ProbeJob) Name() string { return "connectivity_probe" }

// Schedule implements Job.
func (j *ProbeJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "@every 30m"
}

// Run probes connectivity. A failed probe is already recorded by the
// prober, so it is logged here and not returned.
func (j *ProbeJob) Run(ctx context.Context) error {
	if !prefs.Load(j.Prefs).Configured() {
		j.Logger.Debug("cron: delivery not configured, skipping probe")
		return nil
	}
	if err := j.Prober.TestConfigured(ctx); err != nil {
		j.Logger.Warn("cron: connectivity probe failed", "error", err)
	}
	return nil
}

// PruneJob deletes delivery records older than Retention.
type PruneJob struct {
	Store        history.Store
	Retention    time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "@daily"
	Now          func() time.Time
}

var _ Job = (*PruneJob)(nil)

// Name implements Job.
func (j *PruneJob) Name() string { return "history_prune" }

// Schedule implements Job.
func (j *PruneJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "@daily"
}

// Run prunes old history records.
func (j *PruneJob) Run(ctx context.Context) error {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	pruned, err := j.Store.PruneBefore(ctx, now().Add(-j.Retention))
	if err != nil {
		return fmt.Errorf("cron: prune history: %w", err)
	}
	if pruned > 0 {
		j.Logger.Info("cron: pruned delivery history", "count", pruned, "retention", j.Retention)
	}
	return nil
}
