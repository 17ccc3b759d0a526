package cmd

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/catalogue/internal/config"
	"github.com/lepinkainen/catalogue/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetCmdState isolates config, viper and the package seams. It returns the
// buffer that replaces stdout.
func resetCmdState(t *testing.T) (*testutil.TestEnv, *bytes.Buffer) {
	t.Helper()

	env := testutil.NewTestEnv(t)
	testutil.SetTestConfig(t, env)
	config.SetDefaults()

	origRun, origSchedule, origOut := runPipeline, runSchedule, stdout
	buf := &bytes.Buffer{}
	stdout = buf
	t.Cleanup(func() {
		runPipeline, runSchedule, stdout = origRun, origSchedule, origOut
	})

	return env, buf
}

func parseCLI(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()

	originalArgs := os.Args
	os.Args = append([]string{"catalogue"}, args...)
	t.Cleanup(func() { os.Args = originalArgs })

	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("catalogue"),
		kong.UsageOnError(),
		kong.Exit(func(code int) {
			t.Fatalf("unexpected Kong exit %d", code)
		}),
	)
	ctx.BindTo(context.Background(), (*context.Context)(nil))

	return cli, ctx
}

func TestUpdateGlobalConfig(t *testing.T) {
	resetCmdState(t)

	cli, ctx := parseCLI(t,
		"--store", "/tmp/other.json",
		"--datasette",
		"--datasette-db", "/tmp/export.db",
		"--cache-db-file", "/tmp/cache.db",
		"--cache-ttl", "12h",
		"stats")

	updateGlobalConfig(ctx, cli)

	assert.Equal(t, "/tmp/other.json", config.StorePath)
	assert.Equal(t, "/tmp/other.json", viper.GetString("store.path"))
	assert.True(t, viper.GetBool("datasette.enabled"))
	assert.Equal(t, "/tmp/export.db", viper.GetString("datasette.dbfile"))
	assert.Equal(t, "/tmp/cache.db", viper.GetString("cache.dbfile"))
	assert.Equal(t, "12h", viper.GetString("cache.ttl"))
}

func TestUpdateGlobalConfigKeepsConfigWithoutFlags(t *testing.T) {
	resetCmdState(t)
	viper.Set("datasette.enabled", true)
	viper.Set("cache.ttl", "48h")
	storePath := config.StorePath

	cli, ctx := parseCLI(t, "stats")
	updateGlobalConfig(ctx, cli)

	assert.Equal(t, storePath, config.StorePath)
	assert.True(t, viper.GetBool("datasette.enabled"))
	assert.Equal(t, "48h", viper.GetString("cache.ttl"))
}

func TestNegatedDatasetteFlag(t *testing.T) {
	resetCmdState(t)
	viper.Set("datasette.enabled", true)

	cli, ctx := parseCLI(t, "--no-datasette", "sync")
	updateGlobalConfig(ctx, cli)

	assert.False(t, viper.GetBool("datasette.enabled"))
}

func TestEnvironmentVariableBinding(t *testing.T) {
	resetCmdState(t)

	t.Setenv("GOOGLE_BOOKS_API_KEY", "gb-key")
	t.Setenv("CROSSREF_MAILTO", "me@example.org")

	viper.AutomaticEnv()
	require.NoError(t, viper.BindEnv("googlebooks_api_key", "GOOGLE_BOOKS_API_KEY"))
	require.NoError(t, viper.BindEnv("crossref_mailto", "CROSSREF_MAILTO"))
	config.InitConfig()

	assert.Equal(t, "gb-key", config.GoogleBooksAPIKey)
	assert.Equal(t, "me@example.org", config.CrossrefMailto)
}

func TestInitLogging(t *testing.T) {
	for _, verbose := range []bool{false, true} {
		require.NotPanics(t, func() {
			initLogging(verbose)
		})
	}
}

func TestCommandStructure(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "cache", "invalidate", "crossref")
	assert.Equal(t, "crossref", cli.Cache.Invalidate.Source)

	_, kctx := parseCLI(t, "cache", "prune")
	assert.Equal(t, "cache prune", kctx.Command())

	cli, _ = parseCLI(t, "backups", "list")
	assert.NotNil(t, cli.Backups.List)
}
