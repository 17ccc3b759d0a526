// Package aggregator fetches records from every configured source, tolerating
// failures of individual sources.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/catalogue/internal/errors"
	"github.com/lepinkainen/catalogue/internal/record"
)

// Source produces records from one external provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]record.Record, error)
}

// SourceResult is the outcome of one source.
type SourceResult struct {
	Source   string
	Count    int
	Duration time.Duration
	Err      error
}

// SourceError tags a failure with the source that produced it.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// Result is the combined output of all sources.
type Result struct {
	// PerSource is in source declaration order.
	PerSource []SourceResult
	// Records is the concatenation of every source's records, in declaration order.
	Records []record.Record
	Total   int
	Errors  []SourceError
}

// Aggregator runs sources concurrently.
type Aggregator struct {
	sources     []Source
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConcurrency bounds the number of sources fetched at once. Values < 1 mean
// one worker per source.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		a.concurrency = n
	}
}

// WithTimeout bounds each source's Fetch. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		a.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an aggregator over sources, which are reported in the given order.
func New(sources []Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources: sources,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sources returns the configured sources.
func (a *Aggregator) Sources() []Source {
	return a.sources
}

// FetchAll calls every source. A source that fails, times out or panics is
// recorded in Result.Errors and contributes no records; FetchAll itself never
// fails.
func (a *Aggregator) FetchAll(ctx context.Context) Result {
	results := make([]SourceResult, len(a.sources))
	records := make([][]record.Record, len(a.sources))

	var g errgroup.Group
	limit := a.concurrency
	if limit < 1 {
		limit = len(a.sources)
	}
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, src := range a.sources {
		g.Go(func() error {
			results[i], records[i] = a.fetchOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{PerSource: results}
	for i, sr := range results {
		if sr.Err != nil {
			res.Errors = append(res.Errors, SourceError{Source: sr.Source, Err: sr.Err})
			continue
		}
		res.Records = append(res.Records, records[i]...)
	}
	res.Total = len(res.Records)

	return res
}

func (a *Aggregator) fetchOne(ctx context.Context, src Source) (result SourceResult, records []record.Record) {
	name := src.Name()
	result.Source = name
	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)
		if r := recover(); r != nil {
			a.logger.Debug("Source panic stack", "source", name, "stack", string(debug.Stack()))
			result.Err = fmt.Errorf("panic: %v", r)
			result.Count = 0
			records = nil
		}
		if result.Err != nil {
			attrs := []any{"source", name, "error", result.Err, "duration", result.Duration}
			if wait, ok := errors.RetryAfter(result.Err); ok {
				attrs = append(attrs, "retry_after", wait)
			}
			a.logger.Warn("Source failed", attrs...)
			return
		}
		a.logger.Info("Source fetched", "source", name, "records", result.Count, "duration", result.Duration)
	}()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	fetched, err := src.Fetch(ctx)
	if err != nil {
		result.Err = err
		return result, nil
	}

	records = make([]record.Record, len(fetched))
	for i, r := range fetched {
		if record.Value(r.DownloadSource) == "" {
			r.DownloadSource = record.Str(name)
		}
		records[i] = r
	}
	result.Count = len(records)
	return result, records
}
