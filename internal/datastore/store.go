// Package datastore writes flat rows to a local SQLite database or a remote
// Datasette instance.
package datastore

import (
	"context"
	"sort"
	"strings"
)

// Row is one flat row keyed by column name.
type Row = map[string]any

// Store is a destination for exported rows.
type Store interface {
	Connect(ctx context.Context) error
	// CreateTable runs schema; it must be idempotent.
	CreateTable(ctx context.Context, schema string) error
	// Insert adds rows to table. Rows whose primary key already exists are
	// left untouched.
	Insert(ctx context.Context, database, table string, rows []Row) error
	Close() error
}

// Columns returns the sorted union of the column names used by rows.
func Columns(rows []Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for col := range row {
			seen[col] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
