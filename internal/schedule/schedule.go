// Package schedule runs a job on a recurring schedule, never overlapping runs.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context)

// Parse builds a schedule from either an interval or a standard five-field
// cron expression. A cron expression wins when both are given.
func Parse(every time.Duration, cronSpec string) (cron.Schedule, error) {
	if cronSpec != "" {
		sched, err := cron.ParseStandard(cronSpec)
		if err != nil {
			return nil, fmt.Errorf("invalid cron spec %q: %w", cronSpec, err)
		}
		return sched, nil
	}
	if every < time.Second {
		return nil, fmt.Errorf("interval must be at least 1s, got %s", every)
	}
	return cron.Every(every), nil
}

// Runner serialises executions of a job.
type Runner struct {
	job     Job
	logger  *slog.Logger
	running atomic.Bool
	wg      sync.WaitGroup
	skipped atomic.Int64
}

// NewRunner wraps job.
func NewRunner(job Job, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{job: job, logger: logger}
}

// Tick starts the job in the background unless a previous run is still going.
// It reports whether a run was started.
func (r *Runner) Tick(ctx context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		r.skipped.Add(1)
		r.logger.Warn("Previous run still in progress, skipping tick")
		return false
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.running.Store(false)
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("Scheduled run panicked", "panic", p)
			}
		}()
		r.job(ctx)
	}()
	return true
}

// Skipped returns how many ticks were dropped because a run was in progress.
func (r *Runner) Skipped() int64 {
	return r.skipped.Load()
}

// Wait blocks until the current run, if any, has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Run ticks runner on sched until ctx is cancelled, then waits for the run in
// progress. Jobs get a context that outlives ctx so an interrupted schedule
// still lets the current cycle finish cleanly. With immediate set, the first
// run starts right away.
func Run(ctx context.Context, sched cron.Schedule, runner *Runner, immediate bool) {
	jobCtx := context.WithoutCancel(ctx)

	c := cron.New()
	c.Schedule(sched, cron.FuncJob(func() { runner.Tick(jobCtx) }))
	c.Start()

	if immediate {
		runner.Tick(jobCtx)
	}

	<-ctx.Done()
	c.Stop()
	runner.logger.Info("Scheduler stopping, waiting for the current run")
	runner.Wait()
}
