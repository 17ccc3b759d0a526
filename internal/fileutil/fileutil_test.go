package fileutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/lepinkainen/catalogue/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("catalogue.json", "[]")
	env.MkdirAll("backups")

	assert.True(t, FileExists(env.Path("catalogue.json")))
	assert.False(t, FileExists(env.Path("missing.json")))
	assert.False(t, FileExists(env.Path("backups")), "directories are not files")
}

func TestCopyFile(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "src.json")
	dst := filepath.Join(tempDir, "nested", "dst.json")
	require.NoError(t, os.WriteFile(src, []byte(`[1,2,3]`), 0644))

	require.NoError(t, CopyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, `[1,2,3]`, string(data))
}

func TestCopyFile_MissingSource(t *testing.T) {
	tempDir := t.TempDir()
	err := CopyFile(filepath.Join(tempDir, "missing"), filepath.Join(tempDir, "dst"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
	assert.False(t, FileExists(filepath.Join(tempDir, "dst")))
}

func TestCopyFileNew_RefusesExistingDestination(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "src.json")
	dst := filepath.Join(tempDir, "dst.json")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))

	require.NoError(t, CopyFileNew(src, dst))

	require.NoError(t, os.WriteFile(src, []byte("newer"), 0644))
	err := CopyFileNew(src, dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrExist)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestWriteFileAtomic_ReplacesContent(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	require.NoError(t, WriteFileAtomic(path, []byte("new"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should not be left behind")
}

func TestWriteFileAtomic_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "data.json")
	require.NoError(t, WriteFileAtomic(path, []byte("x"), 0644))
	assert.True(t, FileExists(path))
}
