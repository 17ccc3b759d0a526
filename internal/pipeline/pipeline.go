// Package pipeline runs one ingestion cycle: fetch from every source, merge
// into the stored collection and persist the result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lepinkainen/catalogue/internal/aggregator"
	"github.com/lepinkainen/catalogue/internal/merge"
	"github.com/lepinkainen/catalogue/internal/record"
	"github.com/lepinkainen/catalogue/internal/store"
)

// ExportFunc receives the records admitted by a run.
type ExportFunc func(ctx context.Context, records []record.Record) error

// Options configures a run.
type Options struct {
	StorePath string
	// LockPath defaults to store.LockPath(StorePath).
	LockPath string
	Sources  []aggregator.Source

	Concurrency   int
	SourceTimeout time.Duration

	// DryRun merges without saving or exporting.
	DryRun bool

	// Export is called with the accepted records after a successful save.
	// Its failure is logged and does not fail the run.
	Export ExportFunc

	// MergeOptions are passed to the merge engine.
	MergeOptions []merge.Option
	// Now defaults to time.Now.
	Now func() time.Time
}

// Summary reports the outcome of a run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Added   int
	Skipped int
	Total   int

	Rejected   []string
	Rejections []merge.Rejection
	PerSource  []aggregator.SourceResult
	Errors     []aggregator.SourceError

	BackupPath string
	DryRun     bool
}

// Run executes one cycle. It fails only when the collection cannot be locked,
// loaded or saved; source and export failures are reported in the summary and
// the log.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	runID := uuid.NewString()
	logger := slog.With("run_id", runID)

	summary := &Summary{
		RunID:     runID,
		StartedAt: now().UTC(),
		DryRun:    opts.DryRun,
	}

	lockPath := opts.LockPath
	if lockPath == "" {
		lockPath = store.LockPath(opts.StorePath)
	}
	lock, err := store.AcquireLock(lockPath, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("Failed to release lock", "path", lockPath, "error", err)
		}
	}()

	st := store.New(opts.StorePath)
	existing, err := st.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded collection", "path", st.Path(), "records", len(existing))

	agg := aggregator.New(opts.Sources,
		aggregator.WithConcurrency(opts.Concurrency),
		aggregator.WithTimeout(opts.SourceTimeout),
		aggregator.WithLogger(logger),
	)
	fetched := agg.FetchAll(ctx)
	summary.PerSource = fetched.PerSource
	summary.Errors = fetched.Errors

	engineOpts := append([]merge.Option{merge.WithClock(now), merge.WithLogger(logger)}, opts.MergeOptions...)
	result := merge.NewEngine(engineOpts...).Merge(existing, fetched.Records)

	summary.Added = len(result.Accepted)
	summary.Skipped = len(result.Rejected)
	summary.Total = len(result.Collection)
	summary.Rejected = result.Rejected
	summary.Rejections = result.Rejections

	if opts.DryRun {
		logger.Info("Dry run, collection not saved", "added", summary.Added, "skipped", summary.Skipped)
		summary.FinishedAt = now().UTC()
		return summary, nil
	}

	backup, err := st.Save(result.Collection)
	if err != nil {
		return nil, fmt.Errorf("failed to save collection: %w", err)
	}
	summary.BackupPath = backup

	if opts.Export != nil && len(result.Accepted) > 0 {
		if err := opts.Export(ctx, result.Accepted); err != nil {
			logger.Warn("Export failed", "error", err)
		}
	}

	summary.FinishedAt = now().UTC()
	logger.Info("Run complete",
		"added", summary.Added,
		"skipped", summary.Skipped,
		"total", summary.Total,
		"source_errors", len(summary.Errors),
		"duration", summary.FinishedAt.Sub(summary.StartedAt))

	return summary, nil
}
