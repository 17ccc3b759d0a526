package store

import (
	stdErrors "errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrLocked is returned when another run holds the collection lock.
var ErrLocked = stdErrors.New("collection is locked by another run")

// LockInfo is the YAML document stored in a lock file.
type LockInfo struct {
	PID        int       `yaml:"pid"`
	User       string    `yaml:"user"`
	Host       string    `yaml:"host"`
	RunID      string    `yaml:"run_id,omitempty"`
	AcquiredAt time.Time `yaml:"acquired_at"`
}

// LockedError reports who holds the lock. It matches ErrLocked with errors.Is.
type LockedError struct {
	Path   string
	Holder LockInfo
}

func (e *LockedError) Error() string {
	if e.Holder.PID == 0 {
		return fmt.Sprintf("%v (%s)", ErrLocked, e.Path)
	}
	return fmt.Sprintf("%v (%s held by pid %d on %s since %s)",
		ErrLocked, e.Path, e.Holder.PID, e.Holder.Host, e.Holder.AcquiredAt.Format(time.RFC3339))
}

func (e *LockedError) Unwrap() error {
	return ErrLocked
}

// Lock is a held single-writer lock on a collection.
type Lock struct {
	path string
	info LockInfo
}

// LockPath returns the default lock file for a store file.
func LockPath(storePath string) string {
	return storePath + ".lock"
}

// AcquireLock creates the lock file at path. It fails with a LockedError when
// the file already exists. Stale locks must be removed by hand.
func AcquireLock(path, runID string) (*Lock, error) {
	info := LockInfo{
		PID:        os.Getpid(),
		User:       currentUser(),
		Host:       hostname(),
		RunID:      runID,
		AcquiredAt: time.Now().UTC().Truncate(time.Second),
	}

	data, err := yaml.Marshal(&info)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			holder, _ := ReadLock(path)
			return nil, &LockedError{Path: path, Holder: holder}
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	return &Lock{path: path, info: info}, nil
}

// Info returns the document written to the lock file.
func (l *Lock) Info() LockInfo {
	return l.info
}

// Release removes the lock file. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// ReadLock parses an existing lock file.
func ReadLock(path string) (LockInfo, error) {
	var info LockInfo
	data, err := os.ReadFile(path)
	if err != nil {
		return info, err
	}
	if err := yaml.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("failed to parse lock file: %w", err)
	}
	return info, nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return os.Getenv("USERNAME")
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
