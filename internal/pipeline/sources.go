package pipeline

import (
	"github.com/spf13/viper"

	"github.com/lepinkainen/catalogue/internal/aggregator"
	"github.com/lepinkainen/catalogue/internal/cache"
	"github.com/lepinkainen/catalogue/internal/config"
	"github.com/lepinkainen/catalogue/internal/export"
	"github.com/lepinkainen/catalogue/internal/sources"
	"github.com/lepinkainen/catalogue/internal/sources/crossref"
	"github.com/lepinkainen/catalogue/internal/sources/csvfile"
	"github.com/lepinkainen/catalogue/internal/sources/googlebooks"
	"github.com/lepinkainen/catalogue/internal/sources/openlibrary"
)

// ConfiguredSources builds the enabled sources, in declaration order, from the
// resolved configuration.
func ConfiguredSources() []aggregator.Source {
	var out []aggregator.Source
	for _, name := range config.SourceNames {
		sc := config.SourceConfig(name)
		if !sc.Enabled {
			continue
		}

		switch name {
		case config.SourceOpenLibrary:
			out = append(out, openlibrary.New(sc.Queries, config.MaxItems, httpOptions(cache.OpenLibraryTable)...))
		case config.SourceGoogleBooks:
			out = append(out, googlebooks.New(config.GoogleBooksAPIKey, sc.Queries, config.MaxItems, httpOptions(cache.GoogleBooksTable)...))
		case config.SourceCrossref:
			out = append(out, crossref.New(config.CrossrefMailto, sc.Queries, config.MaxItems, httpOptions(cache.CrossrefTable)...))
		case config.SourceCSVFile:
			out = append(out, csvfile.New(viper.GetString("sources.csvfile.path"), config.MaxItems))
		}
	}
	return out
}

func httpOptions(table string) []sources.Option {
	opts := []sources.Option{sources.WithRequestDelay(config.RequestDelay)}
	if viper.GetString("cache.dbfile") != "" {
		opts = append(opts, sources.WithCache(table))
	}
	return opts
}

// OptionsFromConfig returns run options for the resolved configuration.
func OptionsFromConfig() Options {
	return Options{
		StorePath:     config.StorePath,
		LockPath:      config.LockFile,
		Sources:       ConfiguredSources(),
		Concurrency:   config.Concurrency,
		SourceTimeout: config.SourceTimeout,
		DryRun:        config.DryRun,
		Export:        export.Write,
	}
}
