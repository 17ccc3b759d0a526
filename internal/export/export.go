// Package export mirrors newly admitted records into a datastore.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lepinkainen/catalogue/internal/datastore"
	"github.com/lepinkainen/catalogue/internal/record"
	"github.com/spf13/viper"
)

const (
	// Database is the datastore database name.
	Database = "catalogue"
	// Table receives one row per record.
	Table = "catalogue_records"
)

// Schema creates Table.
const Schema = `CREATE TABLE IF NOT EXISTS catalogue_records (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT,
	isbn TEXT,
	doi TEXT,
	source_id TEXT,
	barcode TEXT,
	download_source TEXT,
	material_type_code TEXT,
	language TEXT,
	publication_year INTEGER,
	access_type TEXT,
	url TEXT,
	created_at TEXT,
	updated_at TEXT
)`

// Modes accepted by datasette.mode.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Enabled reports whether export is switched on in the configuration.
func Enabled() bool {
	return viper.GetBool("datasette.enabled")
}

// Open returns the datastore selected by datasette.mode, connected.
func Open(ctx context.Context) (datastore.Store, error) {
	var store datastore.Store
	switch mode := viper.GetString("datasette.mode"); mode {
	case ModeLocal, "":
		store = datastore.NewLocal(viper.GetString("datasette.dbfile"))
	case ModeRemote:
		store = datastore.NewRemote(viper.GetString("datasette.url"), viper.GetString("datasette.token"))
	default:
		return nil, fmt.Errorf("invalid datasette mode: %s", mode)
	}

	if err := store.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to datastore: %w", err)
	}
	return store, nil
}

// WriteRecords inserts records into Table. Records whose id is already present
// are skipped, so re-exporting is harmless.
func WriteRecords(ctx context.Context, store datastore.Store, records []record.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := store.CreateTable(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	rows := make([]datastore.Row, len(records))
	for i, r := range records {
		rows[i] = RecordToMap(r)
	}

	if err := store.Insert(ctx, Database, Table, rows); err != nil {
		return fmt.Errorf("failed to insert records: %w", err)
	}
	slog.Info("Exported records to datastore", "table", Table, "count", len(rows))
	return nil
}

// Write opens the configured datastore, writes records and closes it. It is a
// no-op when export is disabled.
func Write(ctx context.Context, records []record.Record) error {
	if !Enabled() || len(records) == 0 {
		return nil
	}
	store, err := Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return WriteRecords(ctx, store, records)
}

// RecordToMap flattens a record into a row. Absent optional fields map to nil.
func RecordToMap(r record.Record) datastore.Row {
	return datastore.Row{
		"id":                 r.ID.Int(),
		"title":              r.Title,
		"author":             nullable(r.AuthorName()),
		"isbn":               ptr(r.ISBN),
		"doi":                ptr(r.DOI),
		"source_id":          ptr(r.SourceID),
		"barcode":            ptr(r.Barcode),
		"download_source":    ptr(r.DownloadSource),
		"material_type_code": ptr(r.MaterialTypeCode),
		"language":           ptr(r.Language),
		"publication_year":   year(r.PublicationYear),
		"access_type":        ptr(r.AccessType),
		"url":                ptr(r.URL),
		"created_at":         timestamp(r.CreatedAt),
		"updated_at":         timestamp(r.UpdatedAt),
	}
}

func ptr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func year(y *int) any {
	if y == nil {
		return nil
	}
	return *y
}

func timestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
