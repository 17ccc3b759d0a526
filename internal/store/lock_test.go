package store

import (
	stdErrors "errors"
	"os"
	"testing"

	"github.com/lepinkainen/catalogue/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLockWritesYAMLDocument(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("catalogue.json.lock")

	lock, err := AcquireLock(path, "run-1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = lock.Release() })

	info, err := ReadLock(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), info.PID)
	assert.Equal(t, "run-1", info.RunID)
	assert.False(t, info.AcquiredAt.IsZero())
	assert.True(t, lock.Info().AcquiredAt.Equal(info.AcquiredAt))
	assert.Equal(t, lock.Info().Host, info.Host)
	env.AssertFileContains("catalogue.json.lock", "run_id: run-1")
}

func TestAcquireLockFailsWhenHeld(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("catalogue.json.lock")

	first, err := AcquireLock(path, "first")
	require.NoError(t, err)

	_, err = AcquireLock(path, "second")
	require.Error(t, err)
	assert.True(t, stdErrors.Is(err, ErrLocked))

	var locked *LockedError
	require.True(t, stdErrors.As(err, &locked))
	assert.Equal(t, "first", locked.Holder.RunID)

	require.NoError(t, first.Release())

	second, err := AcquireLock(path, "second")
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestReleaseTwiceIsNoop(t *testing.T) {
	env := testutil.NewTestEnv(t)
	lock, err := AcquireLock(env.Path("sub", "x.lock"), "")
	require.NoError(t, err)

	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())
	env.RequireFileNotExists("sub/x.lock")

	var nilLock *Lock
	assert.NoError(t, nilLock.Release())
}

func TestLockedErrorWithUnreadableHolder(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("held.lock", ": not yaml [")

	_, err := AcquireLock(env.Path("held.lock"), "")
	require.Error(t, err)
	assert.True(t, stdErrors.Is(err, ErrLocked))
	assert.Contains(t, err.Error(), "held.lock")
}

func TestLockPath(t *testing.T) {
	assert.Equal(t, "data/catalogue.json.lock", LockPath("data/catalogue.json"))
}
