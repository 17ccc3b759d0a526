package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// LocalStore writes rows into a SQLite file that Datasette can serve directly.
type LocalStore struct {
	path string
	db   *sql.DB
}

// NewLocal returns a store for the database at path. Nothing is opened until
// Connect.
func NewLocal(path string) *LocalStore {
	return &LocalStore{path: path}
}

func (s *LocalStore) Connect(ctx context.Context) error {
	if s.path != ":memory:" && !strings.HasPrefix(s.path, "file:") {
		if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if s.path == ":memory:" {
		// every pooled connection would see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		return errors.Join(fmt.Errorf("failed to connect to %s: %w", s.path, err), db.Close())
	}
	s.db = db
	return nil
}

func (s *LocalStore) CreateTable(ctx context.Context, schema string) error {
	if s.db == nil {
		return errors.New("datastore not connected")
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Insert writes all rows in one transaction. The database argument is unused
// because the file itself is the database.
func (s *LocalStore) Insert(ctx context.Context, _, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	if s.db == nil {
		return errors.New("datastore not connected")
	}

	cols := Columns(rows)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	query := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (?%s)",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Repeat(", ?", len(cols)-1))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(cols))
	for n, row := range rows {
		for i, c := range cols {
			args[i] = row[c]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", n, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *LocalStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
