// Package cron runs periodic background tasks: connectivity probes and
// delivery history pruning.
package cron

import (
	"context"

	"github.com/robfig/cron/v3"
)

// Job defines a periodic background task.
type Job interface {
	// Name returns a unique identifier for this job (used for logging and dedup).
	Name() string

	// Schedule returns a 5-field cron expression (e.g. "*/5 * * * *") or a
	// descriptor such as "@daily" or "@every 30m".
	Schedule() string

	// Run executes the job. Implementations should check ctx.Done() for
	// graceful cancellation.
	Run(ctx context.Context) error
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a schedule expression accepted by Job.Schedule.
func ParseSchedule(expr string) (cron.Schedule, error) {
	return parser.Parse(expr)
}
