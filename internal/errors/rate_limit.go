package errors

import (
	stdErrors "errors"
	"fmt"
	"time"
)

// RateLimitError reports that a service refused a request for being too
// frequent. RetryAfter is zero when the service gave no hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s)", e.RetryAfter)
	}
	return "rate limited"
}

// IsRateLimitError reports whether err is or wraps a RateLimitError.
func IsRateLimitError(err error) bool {
	var rl *RateLimitError
	return stdErrors.As(err, &rl)
}

// RetryAfter returns the retry hint carried by err, if it wraps a
// RateLimitError that has one.
func RetryAfter(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if !stdErrors.As(err, &rl) || rl.RetryAfter <= 0 {
		return 0, false
	}
	return rl.RetryAfter, true
}
