// Package csvfile reads catalogue records from a local CSV export.
package csvfile

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lepinkainen/catalogue/internal/csvutil"
	"github.com/lepinkainen/catalogue/internal/record"
	"github.com/lepinkainen/catalogue/internal/sources"
)

// Name is the source name and download_source tag.
const Name = "csvfile"

// Source reads a CSV file with a header row. Recognised columns are title,
// author, isbn, doi, barcode, year, language, url, type and id; others are
// ignored.
type Source struct {
	path     string
	maxItems int
}

// New creates a CSV source reading path.
func New(path string, maxItems int) *Source {
	if maxItems <= 0 {
		maxItems = sources.DefaultMaxItems
	}
	return &Source{path: path, maxItems: maxItems}
}

// Name implements aggregator.Source.
func (s *Source) Name() string {
	return Name
}

// Fetch implements aggregator.Source.
func (s *Source) Fetch(ctx context.Context) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.path == "" {
		return nil, fmt.Errorf("%s: no file configured", Name)
	}

	records, err := csvutil.ReadFile(s.path, ParseRow, csvutil.Options{
		FieldsPerRecord: -1,
		SkipInvalid:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Name, err)
	}

	return sources.Limit(sources.DedupeBySourceID(records), s.maxItems), nil
}

// ParseRow converts one CSV row into a record. A row without a title or any
// identifier is rejected.
func ParseRow(row csvutil.Row) (record.Record, error) {
	r := record.Record{
		Title:            row.Get("title"),
		Author:           record.NewAuthor(row.Get("author")),
		ISBN:             record.Str(row.Get("isbn")),
		DOI:              record.Str(row.Get("doi")),
		Barcode:          record.Str(row.Get("barcode")),
		Language:         record.Str(row.Get("language")),
		URL:              record.Str(row.Get("url")),
		MaterialTypeCode: record.Str(row.Get("type")),
		DownloadSource:   record.Str(Name),
	}
	if id := row.Get("id"); id != "" {
		r.SourceID = record.Str("csv:" + id)
	}
	if y := row.Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return record.Record{}, fmt.Errorf("invalid year %q: %w", y, err)
		}
		r.PublicationYear = record.Year(year)
	}

	if r.Title == "" && r.ISBN == nil && r.DOI == nil && r.SourceID == nil && r.Barcode == nil {
		return record.Record{}, fmt.Errorf("row has no title or identifier")
	}
	return r, nil
}
