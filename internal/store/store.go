// Package store persists the catalogue collection as a pretty-printed JSON
// array, keeping a timestamped backup of the previous state on every save.
package store

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/catalogue/internal/errors"
	"github.com/lepinkainen/catalogue/internal/fileutil"
	"github.com/lepinkainen/catalogue/internal/record"
)

const backupInfix = ".backup-"

// JSONStore is a collection stored in a single JSON file.
type JSONStore struct {
	path string
	now  func() time.Time
}

// Option configures a JSONStore.
type Option func(*JSONStore)

// WithClock sets the time source used to name backups.
func WithClock(now func() time.Time) Option {
	return func(s *JSONStore) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a store backed by the file at path. The file does not need to exist.
func New(path string, opts ...Option) *JSONStore {
	s := &JSONStore{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the store file path.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the collection. A missing file yields an empty collection.
func (s *JSONStore) Load() ([]record.Record, error) {
	records, err := readCollection(s.path)
	if os.IsNotExist(err) {
		slog.Debug("Store file not found, starting with empty collection", "path", s.path)
		return []record.Record{}, nil
	}
	if err != nil {
		return nil, errors.NewStoreError("load", s.path, err)
	}
	return records, nil
}

// Save backs up the current store file, if any, and replaces it with records.
// It returns the backup path, or "" when no backup was made. A failed backup is
// logged and otherwise ignored; a failed write is returned as a StoreError.
func (s *JSONStore) Save(records []record.Record) (string, error) {
	if records == nil {
		records = []record.Record{}
	}

	backupPath := s.backup()

	if err := fileutil.WriteJSONFile(records, s.path); err != nil {
		return backupPath, errors.NewStoreError("save", s.path, err)
	}

	slog.Debug("Saved collection", "path", s.path, "records", len(records), "backup", backupPath)
	return backupPath, nil
}

// Restore replaces the store with the contents of a backup file. The current
// store is backed up first; that backup path is returned.
func (s *JSONStore) Restore(backupPath string) (string, error) {
	if _, err := readCollection(backupPath); err != nil {
		return "", errors.NewStoreError("restore", backupPath, err)
	}

	data, err := os.ReadFile(backupPath)
	if err != nil {
		return "", errors.NewStoreError("restore", backupPath, err)
	}

	current := s.backup()

	if err := fileutil.WriteFileAtomic(s.path, data, 0644); err != nil {
		return current, errors.NewStoreError("restore", s.path, err)
	}

	slog.Info("Restored collection from backup", "backup", backupPath, "path", s.path)
	return current, nil
}

// Backup describes one backup file.
type Backup struct {
	Path      string
	CreatedAt time.Time
	Size      int64
}

// Backups lists the backups of this store, newest first.
func (s *JSONStore) Backups() ([]Backup, error) {
	pattern := globEscape(s.path) + backupInfix + "*.json"
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	prefix := filepath.Base(s.path) + backupInfix
	backups := make([]Backup, 0, len(matches))
	seqs := make(map[string]int, len(matches))
	for _, m := range matches {
		stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), prefix), ".json")
		created, seq, ok := parseBackupStamp(stamp)
		if !ok {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		seqs[m] = seq
		backups = append(backups, Backup{
			Path:      m,
			CreatedAt: created,
			Size:      info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		a, b := backups[i], backups[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return seqs[a.Path] > seqs[b.Path]
	})
	return backups, nil
}

// BackupPath returns the backup file name for a save made at t.
func (s *JSONStore) BackupPath(t time.Time) string {
	return s.backupName(t, 0)
}

// backupName appends seq to the timestamp so that saves within the same
// millisecond get distinct backups.
func (s *JSONStore) backupName(t time.Time, seq int) string {
	stamp := strconv.FormatInt(t.UnixMilli(), 10)
	if seq > 0 {
		stamp += "-" + strconv.Itoa(seq)
	}
	return s.path + backupInfix + stamp + ".json"
}

// maxBackupSeq bounds the names tried for one millisecond.
const maxBackupSeq = 1000

// backup copies the current store file aside without overwriting an earlier
// backup. Failures, including the store not existing yet, are not errors.
func (s *JSONStore) backup() string {
	if !fileutil.FileExists(s.path) {
		return ""
	}

	now := s.now()
	for seq := 0; seq < maxBackupSeq; seq++ {
		dst := s.backupName(now, seq)
		err := fileutil.CopyFileNew(s.path, dst)
		if err == nil {
			return dst
		}
		if !stdErrors.Is(err, fs.ErrExist) {
			slog.Warn("Failed to back up collection", "path", s.path, "backup", dst, "error", err)
			return ""
		}
	}
	slog.Warn("Failed to back up collection: too many backups in one millisecond", "path", s.path)
	return ""
}

// parseBackupStamp splits "<millis>" or "<millis>-<seq>".
func parseBackupStamp(stamp string) (time.Time, int, bool) {
	millisPart, seqPart, hasSeq := strings.Cut(stamp, "-")
	millis, err := strconv.ParseInt(millisPart, 10, 64)
	if err != nil {
		return time.Time{}, 0, false
	}
	seq := 0
	if hasSeq {
		if seq, err = strconv.Atoi(seqPart); err != nil || seq <= 0 {
			return time.Time{}, 0, false
		}
	}
	return time.UnixMilli(millis), seq, true
}

func readCollection(path string) ([]record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []record.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse collection: %w", err)
	}
	if records == nil {
		records = []record.Record{}
	}
	return records, nil
}

func globEscape(path string) string {
	r := strings.NewReplacer("[", `\[`, "]", `\]`, "*", `\*`, "?", `\?`)
	return r.Replace(path)
}
