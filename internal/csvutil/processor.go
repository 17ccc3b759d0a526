// Package csvutil decodes CSV files whose first line names the columns.
package csvutil

import (
	"encoding/csv"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls how records are read.
type Options struct {
	// FieldsPerRecord is passed to csv.Reader when non-zero. A negative value
	// allows a variable number of fields.
	FieldsPerRecord int
	// SkipInvalid logs and skips malformed or rejected records instead of
	// failing the whole read.
	SkipInvalid bool
}

// Row is one CSV record addressed by header column name.
type Row struct {
	columns map[string]int
	fields  []string
	line    int
}

// Get returns the trimmed value of the named column (case-insensitive), or ""
// when the header lacks the column or the record is short.
func (r Row) Get(name string) string {
	i, ok := r.columns[strings.ToLower(name)]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// Has reports whether the header names the column.
func (r Row) Has(name string) bool {
	_, ok := r.columns[strings.ToLower(name)]
	return ok
}

// Line is the 1-based line the record starts on.
func (r Row) Line() int { return r.line }

// ReadFile opens path and decodes it with Read.
func ReadFile[T any](path string, parse func(Row) (T, error), opts Options) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = f.Close() }()

	items, err := Read(f, parse, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Read decodes every record after the header with parse. A leading byte
// order mark and surrounding spaces are stripped from the header names; when
// a name repeats, the first column wins.
func Read[T any](r io.Reader, parse func(Row) (T, error), opts Options) ([]T, error) {
	reader := csv.NewReader(r)
	if opts.FieldsPerRecord != 0 {
		reader.FieldsPerRecord = opts.FieldsPerRecord
	}

	header, err := reader.Read()
	if stdErrors.Is(err, io.EOF) {
		return nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := indexHeader(header)

	var items []T
	for {
		fields, err := reader.Read()
		if stdErrors.Is(err, io.EOF) {
			return items, nil
		}
		if err != nil {
			if opts.SkipInvalid {
				slog.Warn("Skipping malformed CSV record", "error", err)
				continue
			}
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		item, err := parse(Row{columns: columns, fields: fields, line: line})
		if err != nil {
			if opts.SkipInvalid {
				slog.Warn("Skipping invalid CSV record", "line", line, "error", err)
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, item)
	}
}

func indexHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	return columns
}
