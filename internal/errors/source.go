package errors

import (
	stdErrors "errors"
	"fmt"
)

// SourceError is a failed request to an external record source.
type SourceError struct {
	Source     string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *SourceError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: HTTP %d: %v", e.Source, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: HTTP %d", e.Source, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	default:
		return e.Source + ": unknown error"
	}
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a SourceError for a non-2xx response.
func NewSourceError(source string, statusCode int, body string) *SourceError {
	var err error
	if body != "" {
		err = stdErrors.New(body)
	}
	return &SourceError{Source: source, StatusCode: statusCode, Err: err}
}

// IsSourceError checks if error is a SourceError
func IsSourceError(err error) bool {
	var srcErr *SourceError
	return stdErrors.As(err, &srcErr)
}
