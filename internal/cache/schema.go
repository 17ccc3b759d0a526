package cache

import (
	"fmt"
	"sort"
	"strings"
)

// Cache tables, one per remote record source.
const (
	OpenLibraryTable = "openlibrary_cache"
	GoogleBooksTable = "googlebooks_cache"
	CrossrefTable    = "crossref_cache"
)

const tableSuffix = "_cache"

// tables is the whitelist of table names that may be interpolated into SQL.
var tables = map[string]bool{
	OpenLibraryTable: true,
	GoogleBooksTable: true,
	CrossrefTable:    true,
}

// cached_at holds unix milliseconds.
func tableSchema(table string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_cached_at ON %[1]s(cached_at);
`, table)
}

// Tables returns the known cache tables in name order.
func Tables() []string {
	out := make([]string, 0, len(tables))
	for t := range tables {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// TableForSource maps a source name such as "crossref" to its cache table.
func TableForSource(source string) (string, error) {
	table := source + tableSuffix
	if !tables[table] {
		names := make([]string, 0, len(tables))
		for _, t := range Tables() {
			names = append(names, strings.TrimSuffix(t, tableSuffix))
		}
		return "", fmt.Errorf("unknown cache source %q, valid sources are: %s", source, strings.Join(names, ", "))
	}
	return table, nil
}

func checkTable(table string) error {
	if !tables[table] {
		return fmt.Errorf("invalid cache table name: %s", table)
	}
	return nil
}
