// Package sources holds the HTTP plumbing shared by the record source adapters
// in its sub-packages.
package sources

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/catalogue/internal/cache"
	"github.com/lepinkainen/catalogue/internal/errors"
	"github.com/lepinkainen/catalogue/internal/ratelimit"
)

const (
	// DefaultMaxItems caps records per source when no limit is configured.
	DefaultMaxItems = 100
	// DefaultUserAgent identifies the harvester to source APIs.
	DefaultUserAgent = "catalogue/1.0 (+https://github.com/lepinkainen/catalogue)"

	defaultTimeout     = 15 * time.Second
	defaultMaxAttempts = 2
	maxErrorBody       = 512
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is the HTTP client shared by the source adapters. It spaces out
// requests with a rate limiter, retries transport failures, and optionally
// caches raw response bodies in the sqlite cache.
type Client struct {
	Name       string
	BaseURL    string
	UserAgent  string
	HTTPClient HTTPDoer
	Limiter    *ratelimit.Limiter
	// CacheTable enables response caching when set.
	CacheTable  string
	MaxAttempts int
}

// NewClient returns a client for the named source with default settings.
func NewClient(name, baseURL string) *Client {
	return &Client{
		Name:        name,
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		UserAgent:   DefaultUserAgent,
		HTTPClient:  &http.Client{Timeout: defaultTimeout},
		Limiter:     ratelimit.Every(name, time.Second),
		MaxAttempts: defaultMaxAttempts,
	}
}

// GetJSON fetches path with query relative to BaseURL and decodes the body
// into target. Cached bodies are used when CacheTable is set.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, target any) error {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var (
		body []byte
		err  error
	)
	if c.CacheTable != "" {
		var raw json.RawMessage
		raw, _, err = cache.GetOrFetch(c.CacheTable, endpoint, func() (json.RawMessage, error) {
			return c.fetch(ctx, endpoint)
		})
		body = raw
	} else {
		body, err = c.fetch(ctx, endpoint)
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		return &errors.SourceError{Source: c.Name, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(backoffDelay(attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := c.do(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
		slog.Debug("Retrying source request", "source", c.Name, "attempt", attempt, "error", err)
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &errors.SourceError{Source: c.Name, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &errors.SourceError{
				Source:     c.Name,
				StatusCode: resp.StatusCode,
				Err:        &errors.RateLimitError{RetryAfter: retryAfter(resp.Header.Get("Retry-After"))},
			}
		}
		return nil, errors.NewSourceError(c.Name, resp.StatusCode, msg)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.SourceError{Source: c.Name, Err: fmt.Errorf("read response: %w", err)}
	}
	return body, nil
}

// isRetryable reports transport failures and server-side errors. Client
// errors, including rate limiting, are returned to the caller as is.
func isRetryable(err error) bool {
	var srcErr *errors.SourceError
	if !stdErrors.As(err, &srcErr) {
		return false
	}
	if srcErr.StatusCode >= 500 {
		return true
	}
	var urlErr *url.Error
	return srcErr.StatusCode == 0 && stdErrors.As(err, &urlErr) && !stdErrors.Is(err, context.Canceled)
}

func backoffDelay(attempt int) time.Duration {
	// exponential backoff capped at 10 seconds
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > 10*time.Second {
		return 10 * time.Second
	}
	return delay
}

func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
