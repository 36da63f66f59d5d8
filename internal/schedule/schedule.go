// Package schedule repeats the audit on a cron schedule.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/robfig/cron/v3"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/logging"
)

// Job is one scheduled audit run.
type Job func(ctx context.Context)

// Scheduler runs a Job on a standard five-field cron expression (descriptors
// such as @daily and @every are accepted). Overlapping runs are skipped.
type Scheduler struct {
	expr string
	cron *cron.Cron
	log  log15.Logger
}

// New validates expr and returns a Scheduler that logs through log.
func New(expr string, log log15.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(expr); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}

	cl := logging.CronLogger{Log: log}
	return &Scheduler{
		expr: expr,
		log:  log,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}, nil
}

// Run schedules job and blocks until ctx is cancelled. It then stops the
// scheduler and waits for an in-flight run to finish.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	if _, err := s.cron.AddFunc(s.expr, func() { job(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule audit: %w", err)
	}

	s.cron.Start()
	s.log.Info("scheduler started", "schedule", s.expr, "next_run", s.NextRun())

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}

// NextRun returns the next activation time, or the zero time when nothing
// is scheduled yet.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
