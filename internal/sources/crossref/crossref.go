// Package crossref harvests scholarly works from the Crossref REST API.
package crossref

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lepinkainen/catalogue/internal/record"
	"github.com/lepinkainen/catalogue/internal/sources"
)

const (
	// Name is the source name and download_source tag.
	Name = "crossref"

	defaultBaseURL = "https://api.crossref.org"
	maxPageSize    = 100
)

// WorksResponse matches GET /works.
type WorksResponse struct {
	Status  string `json:"status"`
	Message struct {
		TotalResults int    `json:"total-results"`
		Items        []Work `json:"items"`
	} `json:"message"`
}

// Work is one Crossref work.
type Work struct {
	DOI      string    `json:"DOI"`
	Title    []string  `json:"title"`
	Author   []Person  `json:"author"`
	Type     string    `json:"type"`
	Issued   DateParts `json:"issued"`
	Language string    `json:"language"`
	URL      string    `json:"URL"`
	ISBN     []string  `json:"ISBN"`
	License  []struct {
		URL string `json:"URL"`
	} `json:"license"`
}

// Person is a Crossref contributor.
type Person struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
	ORCID  string `json:"ORCID"`
}

// DateParts is Crossref's [[year, month, day]] date encoding.
type DateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the year, or 0 when unknown.
func (d DateParts) Year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

// Source runs free-text queries against Crossref.
type Source struct {
	client   *sources.Client
	mailto   string
	queries  []string
	maxItems int
}

// New creates a Crossref source. mailto puts requests in Crossref's polite pool.
func New(mailto string, queries []string, maxItems int, opts ...sources.Option) *Source {
	client := sources.NewClient(Name, defaultBaseURL)
	if mailto != "" {
		client.UserAgent = sources.DefaultUserAgent + " mailto:" + mailto
	}
	client.Apply(opts...)
	if maxItems <= 0 {
		maxItems = sources.DefaultMaxItems
	}
	return &Source{client: client, mailto: mailto, queries: queries, maxItems: maxItems}
}

// Name implements aggregator.Source.
func (s *Source) Name() string {
	return Name
}

// Fetch implements aggregator.Source.
func (s *Source) Fetch(ctx context.Context) ([]record.Record, error) {
	var out []record.Record
	for _, q := range s.queries {
		if len(out) >= s.maxItems {
			break
		}
		records, err := s.search(ctx, q, s.maxItems-len(out))
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", q, err)
		}
		out = sources.DedupeBySourceID(append(out, records...))
	}
	return sources.Limit(out, s.maxItems), nil
}

func (s *Source) search(ctx context.Context, q string, want int) ([]record.Record, error) {
	var out []record.Record
	for offset := 0; len(out) < want; {
		rows := sources.PageSize(want-len(out), maxPageSize)
		query := url.Values{}
		query.Set("query", q)
		query.Set("rows", strconv.Itoa(rows))
		query.Set("offset", strconv.Itoa(offset))
		if s.mailto != "" {
			query.Set("mailto", s.mailto)
		}

		var resp WorksResponse
		if err := s.client.GetJSON(ctx, "/works", query, &resp); err != nil {
			return nil, err
		}
		items := resp.Message.Items
		for _, w := range items {
			out = append(out, w.Record())
		}

		offset += len(items)
		if len(items) < rows || offset >= resp.Message.TotalResults {
			break
		}
	}
	return out, nil
}

// Record converts a work into a catalogue record.
func (w Work) Record() record.Record {
	var title string
	if len(w.Title) > 0 {
		title = w.Title[0]
	}

	r := record.Record{
		Title:            title,
		Author:           authors(w.Author),
		DOI:              record.Str(w.DOI),
		DownloadSource:   record.Str(Name),
		MaterialTypeCode: record.Str(materialType(w.Type)),
		Language:         record.Str(w.Language),
		PublicationYear:  record.Year(w.Issued.Year()),
		AccessType:       record.Str(record.AccessUnknown),
		URL:              record.Str(w.URL),
	}
	if len(w.ISBN) > 0 {
		r.ISBN = record.Str(w.ISBN[0])
	}
	if doi := record.CanonicalDOI(w.DOI); doi != "" {
		r.SourceID = record.Str("crossref:" + doi)
	}
	for _, l := range w.License {
		if strings.Contains(strings.ToLower(l.URL), "creativecommons.org") {
			r.AccessType = record.Str(record.AccessOpen)
			break
		}
	}
	return r
}

// authors keeps structured name parts for a single author and joins display
// names when there are several.
func authors(people []Person) *record.Author {
	switch len(people) {
	case 0:
		return nil
	case 1:
		p := people[0]
		a := &record.Author{Name: p.Name, Given: p.Given, Family: p.Family, ORCID: p.ORCID}
		if a.String() == "" {
			return nil
		}
		return a
	}

	names := make([]string, 0, len(people))
	for _, p := range people {
		names = append(names, record.Author{Name: p.Name, Given: p.Given, Family: p.Family}.String())
	}
	return record.JoinAuthors(names)
}

func materialType(workType string) string {
	switch workType {
	case "journal-article", "proceedings-article", "posted-content", "peer-review":
		return record.MaterialArticle
	case "report", "report-component", "report-series":
		return record.MaterialReport
	case "dissertation":
		return record.MaterialThesis
	case "book", "monograph", "edited-book", "book-chapter", "reference-book":
		return record.MaterialBook
	default:
		return record.MaterialOther
	}
}
