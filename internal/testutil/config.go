package testutil

import (
	"testing"
	"time"

	"github.com/lepinkainen/catalogue/internal/config"
	"github.com/spf13/viper"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	StorePath         string
	LockFile          string
	MaxItems          int
	Concurrency       int
	RequestDelay      time.Duration
	SourceTimeout     time.Duration
	GoogleBooksAPIKey string
	CrossrefMailto    string
	DryRun            bool
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		StorePath:         config.StorePath,
		LockFile:          config.LockFile,
		MaxItems:          config.MaxItems,
		Concurrency:       config.Concurrency,
		RequestDelay:      config.RequestDelay,
		SourceTimeout:     config.SourceTimeout,
		GoogleBooksAPIKey: config.GoogleBooksAPIKey,
		CrossrefMailto:    config.CrossrefMailto,
		DryRun:            config.DryRun,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.StorePath = state.StorePath
	config.LockFile = state.LockFile
	config.MaxItems = state.MaxItems
	config.Concurrency = state.Concurrency
	config.RequestDelay = state.RequestDelay
	config.SourceTimeout = state.SourceTimeout
	config.GoogleBooksAPIKey = state.GoogleBooksAPIKey
	config.CrossrefMailto = state.CrossrefMailto
	config.DryRun = state.DryRun
}

// ResetConfig saves the current config state and schedules restoration
// when the test completes. It also resets viper.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetTestConfig points the store at the test environment and disables
// request spacing so tests run fast. Everything is restored on cleanup.
func SetTestConfig(t *testing.T, env *TestEnv) {
	t.Helper()

	ResetConfig(t)

	config.StorePath = env.Path("data", "catalogue.json")
	config.LockFile = ""
	config.MaxItems = 50
	config.Concurrency = 2
	config.RequestDelay = 0
	config.SourceTimeout = 5 * time.Second
	config.GoogleBooksAPIKey = ""
	config.CrossrefMailto = "test@example.org"
	config.DryRun = false

	viper.Set("store.path", config.StorePath)
	viper.Set("sources.request_delay", "0s")
}

// SetViperValue sets key for the duration of the test. A key that was unset
// before keeps the test value afterwards, since viper cannot unset keys; pair
// with ResetConfig when that matters.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	prev, had := viper.Get(key), viper.IsSet(key)
	viper.Set(key, value)
	t.Cleanup(func() {
		if had {
			viper.Set(key, prev)
		}
	})
}

// SetupTestCache configures viper for test caching with a temporary directory.
// It creates the cache directory and sets up viper configuration.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	cacheDir := env.Path("cache")
	env.MkdirAll("cache")

	viper.Set("cache.dbfile", env.Path("cache", "test-cache.db"))
	viper.Set("cache.ttl", "24h")

	return cacheDir
}

// SetupDatasetteDB enables local datastore export into the test environment.
// Returns the database path.
func SetupDatasetteDB(t *testing.T, env *TestEnv) string {
	t.Helper()

	dbPath := env.Path("test.db")

	SetViperValue(t, "datasette.enabled", true)
	SetViperValue(t, "datasette.mode", "local")
	SetViperValue(t, "datasette.dbfile", dbPath)

	return dbPath
}
