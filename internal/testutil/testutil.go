// Package testutil holds helpers shared by the catalogue's tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnv is a per-test scratch directory. Every path handed to its methods is
// resolved inside the directory and the test fails if it would escape it.
type TestEnv struct {
	t       *testing.T
	rootDir string
}

// NewTestEnv creates an environment rooted at t.TempDir().
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{t: t, rootDir: t.TempDir()}
}

// RootDir returns the environment's root directory.
func (e *TestEnv) RootDir() string {
	return e.rootDir
}

// Path resolves elem relative to the root. An absolute path already inside the
// root is returned cleaned.
func (e *TestEnv) Path(elem ...string) string {
	e.t.Helper()

	joined := filepath.Join(elem...)
	if !filepath.IsAbs(joined) || !e.contains(joined) {
		joined = filepath.Join(e.rootDir, joined)
	}
	joined = filepath.Clean(joined)

	if !e.contains(joined) {
		e.t.Fatalf("path %q escapes test sandbox %q", joined, e.rootDir)
	}
	return joined
}

func (e *TestEnv) contains(path string) bool {
	root := filepath.Clean(e.rootDir)
	path = filepath.Clean(path)
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// WriteFile writes content, creating parent directories.
func (e *TestEnv) WriteFile(path string, content []byte) {
	e.t.Helper()

	abs := e.Path(path)
	require.NoError(e.t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(e.t, os.WriteFile(abs, content, 0o644))
}

// WriteFileString writes content as a string.
func (e *TestEnv) WriteFileString(path, content string) {
	e.t.Helper()
	e.WriteFile(path, []byte(content))
}

// ReadFile returns the content of path, failing the test if it cannot be read.
func (e *TestEnv) ReadFile(path string) []byte {
	e.t.Helper()

	data, err := os.ReadFile(e.Path(path))
	require.NoError(e.t, err)
	return data
}

// ReadFileString returns the content of path as a string.
func (e *TestEnv) ReadFileString(path string) string {
	e.t.Helper()
	return string(e.ReadFile(path))
}

// MkdirAll creates a directory and its parents.
func (e *TestEnv) MkdirAll(path string) {
	e.t.Helper()
	require.NoError(e.t, os.MkdirAll(e.Path(path), 0o755))
}

// FileExists reports whether anything exists at path.
func (e *TestEnv) FileExists(path string) bool {
	e.t.Helper()
	_, err := os.Stat(e.Path(path))
	return err == nil
}

// RequireFileExists fails the test unless path exists.
func (e *TestEnv) RequireFileExists(path string) {
	e.t.Helper()
	require.True(e.t, e.FileExists(path), "expected %s to exist", e.Path(path))
}

// RequireFileNotExists fails the test if path exists.
func (e *TestEnv) RequireFileNotExists(path string) {
	e.t.Helper()
	require.False(e.t, e.FileExists(path), "expected %s not to exist", e.Path(path))
}

// ListFiles returns the names of the entries of dir, sorted.
func (e *TestEnv) ListFiles(dir string) []string {
	e.t.Helper()

	entries, err := os.ReadDir(e.Path(dir))
	require.NoError(e.t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

// AssertFileContains checks that the file at path contains substr.
func (e *TestEnv) AssertFileContains(path, substr string) {
	e.t.Helper()
	assert.Contains(e.t, e.ReadFileString(path), substr, "file %s", path)
}

// AssertFileEquals checks that the file at path holds exactly want.
func (e *TestEnv) AssertFileEquals(path, want string) {
	e.t.Helper()
	assert.Equal(e.t, want, e.ReadFileString(path), "file %s", path)
}

// String returns the root directory, for log output.
func (e *TestEnv) String() string {
	return "TestEnv(" + e.rootDir + ")"
}
