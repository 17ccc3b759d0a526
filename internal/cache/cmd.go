package cache

import (
	"fmt"
	"log/slog"
)

// InvalidateCacheCmd empties the cache table of one source.
type InvalidateCacheCmd struct {
	Source string `arg:"" help:"Cache source to invalidate: openlibrary, googlebooks, crossref" required:""`
}

func (i *InvalidateCacheCmd) Run() error {
	table, err := TableForSource(i.Source)
	if err != nil {
		return err
	}

	c, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	n, err := c.InvalidateSource(table)
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	slog.Info("Cache invalidated", "source", i.Source, "database", c.Path(), "rows_deleted", n)
	return nil
}

// PruneCacheCmd drops expired entries from every source table.
type PruneCacheCmd struct{}

func (p *PruneCacheCmd) Run() error {
	c, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	ttl := configuredTTL()
	var total int64
	for _, table := range Tables() {
		n, err := c.Prune(table, ttl)
		if err != nil {
			return fmt.Errorf("failed to prune %s: %w", table, err)
		}
		total += n
	}
	slog.Info("Cache pruned", "database", c.Path(), "ttl", ttl, "rows_deleted", total)
	return nil
}
