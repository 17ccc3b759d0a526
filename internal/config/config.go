package config

import (
	"time"

	"github.com/spf13/viper"
)

// Source names, also used as config sub-keys and download_source tags.
const (
	SourceOpenLibrary = "openlibrary"
	SourceGoogleBooks = "googlebooks"
	SourceCrossref    = "crossref"
	SourceCSVFile     = "csvfile"
)

// SourceNames lists the sources in declaration order.
var SourceNames = []string{SourceOpenLibrary, SourceGoogleBooks, SourceCrossref, SourceCSVFile}

// Global configuration variables
var (
	// StorePath is the JSON file holding the collection
	StorePath string
	// LockFile guards StorePath against concurrent runs
	LockFile string
	// MaxItems caps the records each source returns per run
	MaxItems int
	// Concurrency bounds how many sources are fetched at once
	Concurrency int
	// SourceTimeout bounds a single source's fetch; zero means no limit
	SourceTimeout time.Duration
	// RequestDelay is the pause between repeated queries to the same source
	RequestDelay time.Duration
	// GoogleBooksAPIKey is optional; Google Books works without one at a lower quota
	GoogleBooksAPIKey string
	// CrossrefMailto identifies us to Crossref's polite pool
	CrossrefMailto string
	// DryRun merges without writing the store
	DryRun bool
)

// Source holds per-source settings.
type Source struct {
	Enabled bool
	Queries []string
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("store.path", "./data/catalogue.json")
	viper.SetDefault("store.lockfile", "")
	viper.SetDefault("sources.max_items", 100)
	viper.SetDefault("sources.concurrency", 4)
	viper.SetDefault("sources.request_delay", "1s")
	viper.SetDefault("sources.timeout", "2m")

	viper.SetDefault("sources.openlibrary.enabled", true)
	viper.SetDefault("sources.openlibrary.queries", []string{"science", "history"})
	viper.SetDefault("sources.googlebooks.enabled", true)
	viper.SetDefault("sources.googlebooks.queries", []string{"science", "history"})
	viper.SetDefault("sources.crossref.enabled", true)
	viper.SetDefault("sources.crossref.queries", []string{"open access"})
	viper.SetDefault("sources.csvfile.enabled", false)
	viper.SetDefault("sources.csvfile.path", "./data/import.csv")

	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "24h")

	viper.SetDefault("datasette.enabled", false)
	viper.SetDefault("datasette.mode", "local")
	viper.SetDefault("datasette.dbfile", "./catalogue.db")
	viper.SetDefault("datasette.url", "")
	viper.SetDefault("datasette.token", "")

	viper.SetDefault("schedule.every", "6h")
	viper.SetDefault("schedule.cron", "")
}

// InitConfig initializes the global configuration
func InitConfig() {
	SetDefaults()

	StorePath = viper.GetString("store.path")
	LockFile = viper.GetString("store.lockfile")
	MaxItems = viper.GetInt("sources.max_items")
	Concurrency = viper.GetInt("sources.concurrency")
	RequestDelay = viper.GetDuration("sources.request_delay")
	SourceTimeout = viper.GetDuration("sources.timeout")
	GoogleBooksAPIKey = viper.GetString("googlebooks_api_key")
	CrossrefMailto = viper.GetString("crossref_mailto")
}

// SourceConfig returns the settings of one source.
func SourceConfig(name string) Source {
	return Source{
		Enabled: viper.GetBool("sources." + name + ".enabled"),
		Queries: viper.GetStringSlice("sources." + name + ".queries"),
	}
}

// SetDryRun sets the DryRun flag
func SetDryRun(dryRun bool) {
	DryRun = dryRun
}
