package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UpdateGoldenEnv rewrites golden files instead of comparing when set to "true".
const UpdateGoldenEnv = "UPDATE_GOLDEN"

// GoldenHelper compares test output against files under a testdata directory.
type GoldenHelper struct {
	t      *testing.T
	dir    string
	update bool
}

// NewGoldenHelper returns a helper reading golden files from dir.
func NewGoldenHelper(t *testing.T, dir string) *GoldenHelper {
	t.Helper()
	return &GoldenHelper{t: t, dir: dir, update: os.Getenv(UpdateGoldenEnv) == "true"}
}

// GoldenPath returns the path of the named golden file.
func (g *GoldenHelper) GoldenPath(name string) string {
	return filepath.Join(g.dir, name)
}

// IsUpdateMode reports whether golden files are being rewritten.
func (g *GoldenHelper) IsUpdateMode() bool {
	return g.update
}

// AssertGolden compares actual byte for byte with the named golden file.
func (g *GoldenHelper) AssertGolden(name string, actual []byte) {
	g.t.Helper()
	if g.write(name, actual) {
		return
	}
	assert.Equal(g.t, string(g.MustReadGolden(name)), string(actual), "golden file %s", name)
}

// AssertGoldenString is AssertGolden for strings.
func (g *GoldenHelper) AssertGoldenString(name, actual string) {
	g.t.Helper()
	g.AssertGolden(name, []byte(actual))
}

// AssertGoldenJSON compares JSON documents, ignoring formatting and key order.
func (g *GoldenHelper) AssertGoldenJSON(name string, actual []byte) {
	g.t.Helper()
	if g.write(name, actual) {
		return
	}
	assert.JSONEq(g.t, string(g.MustReadGolden(name)), string(actual), "golden file %s", name)
}

// MustReadGolden returns the content of the named golden file.
func (g *GoldenHelper) MustReadGolden(name string) []byte {
	g.t.Helper()
	data, err := os.ReadFile(g.GoldenPath(name))
	require.NoError(g.t, err, "failed to read golden file %s", name)
	return data
}

// Exists reports whether the named golden file exists.
func (g *GoldenHelper) Exists(name string) bool {
	_, err := os.Stat(g.GoldenPath(name))
	return err == nil
}

func (g *GoldenHelper) write(name string, data []byte) bool {
	g.t.Helper()
	if !g.update {
		return false
	}
	path := g.GoldenPath(name)
	require.NoError(g.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(g.t, os.WriteFile(path, data, 0o644))
	g.t.Logf("Updated golden file: %s", path)
	return true
}
