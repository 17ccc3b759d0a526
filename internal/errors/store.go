package errors

import (
	stdErrors "errors"
	"fmt"
)

// StoreError is a failure reading or writing the persisted collection.
// It is the only error class that makes a run fail.
type StoreError struct {
	Op   string // "load", "save", "restore"
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err with the failed operation and path.
func NewStoreError(op, path string, err error) *StoreError {
	return &StoreError{Op: op, Path: path, Err: err}
}

// IsStoreError reports whether err is a StoreError (even when wrapped).
func IsStoreError(err error) bool {
	var storeErr *StoreError
	return stdErrors.As(err, &storeErr)
}
