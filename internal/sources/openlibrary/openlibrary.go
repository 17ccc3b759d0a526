// Package openlibrary harvests book records from the Open Library search API.
package openlibrary

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/lepinkainen/catalogue/internal/record"
	"github.com/lepinkainen/catalogue/internal/sources"
)

const (
	// Name is the source name and download_source tag.
	Name = "openlibrary"

	defaultBaseURL = "https://openlibrary.org"
	maxPageSize    = 100
	searchFields   = "key,title,author_name,isbn,first_publish_year,language,ebook_access"
)

// SearchResponse matches search.json
type SearchResponse struct {
	NumFound int   `json:"numFound"`
	Docs     []Doc `json:"docs"`
}

// Doc is one search hit.
type Doc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_name"`
	ISBN             []string `json:"isbn"`
	FirstPublishYear int      `json:"first_publish_year"`
	Language         []string `json:"language"`
	EbookAccess      string   `json:"ebook_access"`
}

// Source searches Open Library by subject.
type Source struct {
	client   *sources.Client
	subjects []string
	maxItems int
}

// New creates an Open Library source for the given subjects.
func New(subjects []string, maxItems int, opts ...sources.Option) *Source {
	client := sources.NewClient(Name, defaultBaseURL)
	client.Apply(opts...)
	if maxItems <= 0 {
		maxItems = sources.DefaultMaxItems
	}
	return &Source{client: client, subjects: subjects, maxItems: maxItems}
}

// Name implements aggregator.Source.
func (s *Source) Name() string {
	return Name
}

// Fetch implements aggregator.Source.
func (s *Source) Fetch(ctx context.Context) ([]record.Record, error) {
	var out []record.Record
	for _, subject := range s.subjects {
		remaining := s.maxItems - len(out)
		if remaining <= 0 {
			break
		}
		records, err := s.searchSubject(ctx, subject, remaining)
		if err != nil {
			return nil, fmt.Errorf("search subject %q: %w", subject, err)
		}
		out = append(out, records...)
		out = sources.DedupeBySourceID(out)
	}
	return sources.Limit(out, s.maxItems), nil
}

// searchSubject pages with an explicit offset: the page parameter is
// resolved against the limit of the same request, so shrinking the limit on
// a later page would fetch earlier results again.
func (s *Source) searchSubject(ctx context.Context, subject string, want int) ([]record.Record, error) {
	var out []record.Record
	for offset := 0; len(out) < want; {
		limit := sources.PageSize(want-len(out), maxPageSize)
		query := url.Values{}
		query.Set("q", "subject:"+subject)
		query.Set("fields", searchFields)
		query.Set("limit", strconv.Itoa(limit))
		query.Set("offset", strconv.Itoa(offset))

		var resp SearchResponse
		if err := s.client.GetJSON(ctx, "/search.json", query, &resp); err != nil {
			return nil, err
		}
		for _, doc := range resp.Docs {
			out = append(out, doc.Record())
		}
		offset += len(resp.Docs)
		slog.Debug("Open Library page fetched", "subject", subject, "offset", offset, "docs", len(resp.Docs), "found", resp.NumFound)

		if len(resp.Docs) < limit || offset >= resp.NumFound {
			break
		}
	}
	return out, nil
}

// Record converts a search hit into a catalogue record.
func (d Doc) Record() record.Record {
	key := strings.TrimPrefix(d.Key, "/works/")
	r := record.Record{
		Title:            d.Title,
		Author:           record.JoinAuthors(d.AuthorNames),
		ISBN:             record.Str(pickISBN(d.ISBN)),
		SourceID:         record.Str(prefixed(key)),
		DownloadSource:   record.Str(Name),
		MaterialTypeCode: record.Str(record.MaterialBook),
		PublicationYear:  record.Year(d.FirstPublishYear),
		AccessType:       record.Str(accessType(d.EbookAccess)),
	}
	if len(d.Language) > 0 {
		r.Language = record.Str(d.Language[0])
	}
	if d.Key != "" {
		r.URL = record.Str(defaultBaseURL + d.Key)
	}
	return r
}

func prefixed(key string) string {
	if key == "" {
		return ""
	}
	return "ol:" + key
}

// pickISBN prefers an ISBN-13.
func pickISBN(isbns []string) string {
	for _, isbn := range isbns {
		if len(record.CanonicalISBN(isbn)) == 13 {
			return isbn
		}
	}
	if len(isbns) > 0 {
		return isbns[0]
	}
	return ""
}

func accessType(ebookAccess string) string {
	switch ebookAccess {
	case "public":
		return record.AccessOpen
	case "borrowable", "printdisabled":
		return record.AccessRestricted
	default:
		return record.AccessUnknown
	}
}
