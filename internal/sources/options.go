package sources

import (
	"strings"
	"time"

	"github.com/lepinkainen/catalogue/internal/ratelimit"
)

// Option is a functional option for configuring an adapter's Client.
type Option func(*Client)

// Apply applies opts to c.
func (c *Client) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithBaseURL sets a custom base URL, mainly for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.BaseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.HTTPClient = doer
		}
	}
}

// WithRateLimiter sets a custom rate limiter for the client.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.Limiter = limiter
		}
	}
}

// WithRequestDelay spaces consecutive requests by d. Zero disables spacing.
func WithRequestDelay(d time.Duration) Option {
	return func(c *Client) {
		c.Limiter = ratelimit.Every(c.Name, d)
	}
}

// WithCache caches response bodies in the given cache table.
func WithCache(table string) Option {
	return func(c *Client) {
		c.CacheTable = table
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.UserAgent = ua
		}
	}
}

// WithMaxAttempts sets how many times a failed request is tried.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}
