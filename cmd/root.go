package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/catalogue/internal/cache"
	"github.com/lepinkainen/catalogue/internal/config"
	"github.com/lepinkainen/catalogue/internal/pipeline"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"
)

var (
	runPipeline           = pipeline.Run
	stdout      io.Writer = os.Stdout
)

// CLI represents the complete command structure for the catalogue application
type CLI struct {
	// Global flags
	Verbose bool   `short:"v" help:"Enable debug logging"`
	Store   string `help:"Path to the collection JSON file (overrides store.path)"`

	// Datasette flags
	Datasette   bool   `help:"Export newly added records to Datasette" negatable:""`
	DatasetteDB string `help:"Path to SQLite database file for export"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 24h)"`

	Sync     SyncCmd     `cmd:"" help:"Fetch from all sources and merge new records into the collection"`
	Schedule ScheduleCmd `cmd:"" help:"Run sync on a recurring schedule"`
	Stats    StatsCmd    `cmd:"" help:"Show collection statistics"`
	Backups  BackupsCmd  `cmd:"" help:"List or restore collection backups"`
	Cache    CacheCmd    `cmd:"" help:"Manage the HTTP response cache"`
}

// CacheCmd groups cache maintenance subcommands
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Drop all cached responses of one source"`
	Prune      cache.PruneCacheCmd      `cmd:"" help:"Drop cached responses older than the cache TTL"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(false)
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("catalogue"),
		kong.Description("Harvest bibliographic records from public sources into a deduplicated collection."),
		kong.UsageOnError(),
	)

	if cli.Verbose {
		initLogging(true)
	}
	updateGlobalConfig(ctx, &cli)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx.BindTo(sigCtx, (*context.Context)(nil))

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	config.SetDefaults()

	viper.SetEnvPrefix("catalogue")
	viper.AutomaticEnv()
	if err := viper.BindEnv("googlebooks_api_key", "GOOGLE_BOOKS_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
	if err := viper.BindEnv("crossref_mailto", "CROSSREF_MAILTO"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	config.InitConfig()
}

// updateGlobalConfig applies flags given on the command line on top of the
// configuration file.
func updateGlobalConfig(ctx *kong.Context, cli *CLI) {
	if cli.Store != "" {
		viper.Set("store.path", cli.Store)
		config.StorePath = cli.Store
	}
	if flagSet(ctx, "datasette") {
		viper.Set("datasette.enabled", cli.Datasette)
	}
	if cli.DatasetteDB != "" {
		viper.Set("datasette.dbfile", cli.DatasetteDB)
	}
	if cli.CacheDBFile != "" {
		viper.Set("cache.dbfile", cli.CacheDBFile)
	}
	if cli.CacheTTL != "" {
		viper.Set("cache.ttl", cli.CacheTTL)
	}
}

// flagSet reports whether a flag was given explicitly.
func flagSet(ctx *kong.Context, name string) bool {
	if ctx == nil {
		return false
	}
	for _, path := range ctx.Path {
		if path.Flag != nil && path.Flag.Name == name {
			return true
		}
	}
	return false
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
