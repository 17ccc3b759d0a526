// Package ratelimit spaces out requests to the remote record sources.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Limiter lets one request through per interval.
type Limiter struct {
	name     string
	interval time.Duration
	limiter  *rate.Limiter
}

// Every returns a limiter for the named source allowing one request per
// interval. An interval <= 0 disables limiting.
func Every(name string, interval time.Duration) *Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Limiter{
		name:     name,
		interval: max(interval, 0),
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until the next request may be sent or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
	}
	if waited := time.Since(start); waited > 10*time.Millisecond {
		slog.Debug("Rate limited", "source", l.name, "waited", waited.Round(time.Millisecond))
	}
	return nil
}

// Name is the source the limiter throttles.
func (l *Limiter) Name() string { return l.name }

// Interval is the minimum spacing between requests; zero means unlimited.
func (l *Limiter) Interval() time.Duration { return l.interval }
