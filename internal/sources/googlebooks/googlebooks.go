// Package googlebooks harvests book records from the Google Books volumes API.
package googlebooks

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
	Name = "googlebooks"

	defaultBaseURL = "https://www.googleapis.com/books/v1"
	maxPageSize    = 40
)

// VolumesResponse matches GET /volumes.
type VolumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Volume is one search hit.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
	AccessInfo AccessInfo `json:"accessInfo"`
}

// VolumeInfo holds the bibliographic part of a volume.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle"`
	Authors             []string             `json:"authors"`
	PublishedDate       string               `json:"publishedDate"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
	Language            string               `json:"language"`
	PrintType           string               `json:"printType"`
	InfoLink            string               `json:"infoLink"`
}

// IndustryIdentifier is an ISBN or other identifier.
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// AccessInfo describes how much of the volume can be read.
type AccessInfo struct {
	Viewability  string `json:"viewability"`
	PublicDomain bool   `json:"publicDomain"`
}

// Source searches Google Books by subject.
type Source struct {
	client   *sources.Client
	apiKey   string
	subjects []string
	maxItems int
}

// New creates a Google Books source. apiKey may be empty.
func New(apiKey string, subjects []string, maxItems int, opts ...sources.Option) *Source {
	client := sources.NewClient(Name, defaultBaseURL)
	client.Apply(opts...)
	if maxItems <= 0 {
		maxItems = sources.DefaultMaxItems
	}
	return &Source{client: client, apiKey: apiKey, subjects: subjects, maxItems: maxItems}
}

// Name implements aggregator.Source.
func (s *Source) Name() string {
	return Name
}

// Fetch implements aggregator.Source.
func (s *Source) Fetch(ctx context.Context) ([]record.Record, error) {
	var out []record.Record
	for _, subject := range s.subjects {
		if len(out) >= s.maxItems {
			break
		}
		records, err := s.searchSubject(ctx, subject, s.maxItems-len(out))
		if err != nil {
			return nil, fmt.Errorf("search subject %q: %w", subject, err)
		}
		out = sources.DedupeBySourceID(append(out, records...))
	}
	return sources.Limit(out, s.maxItems), nil
}

func (s *Source) searchSubject(ctx context.Context, subject string, want int) ([]record.Record, error) {
	var out []record.Record
	for start := 0; len(out) < want; {
		size := sources.PageSize(want-len(out), maxPageSize)
		query := url.Values{}
		query.Set("q", "subject:"+subject)
		query.Set("startIndex", strconv.Itoa(start))
		query.Set("maxResults", strconv.Itoa(size))
		query.Set("printType", "books")
		if s.apiKey != "" {
			query.Set("key", s.apiKey)
		}

		var resp VolumesResponse
		if err := s.client.GetJSON(ctx, "/volumes", query, &resp); err != nil {
			return nil, err
		}
		for _, v := range resp.Items {
			out = append(out, v.Record())
		}

		start += len(resp.Items)
		if len(resp.Items) < size || start >= resp.TotalItems {
			break
		}
	}
	return out, nil
}

// Record converts a volume into a catalogue record.
func (v Volume) Record() record.Record {
	info := v.VolumeInfo
	title := info.Title
	if info.Subtitle != "" {
		title = info.Title + ": " + info.Subtitle
	}

	r := record.Record{
		Title:            title,
		Author:           record.JoinAuthors(info.Authors),
		ISBN:             record.Str(isbn(info.IndustryIdentifiers)),
		DownloadSource:   record.Str(Name),
		MaterialTypeCode: record.Str(materialType(info.PrintType)),
		Language:         record.Str(info.Language),
		PublicationYear:  record.Year(year(info.PublishedDate)),
		AccessType:       record.Str(accessType(v.AccessInfo)),
		URL:              record.Str(info.InfoLink),
	}
	if v.ID != "" {
		r.SourceID = record.Str("gb:" + v.ID)
	}
	return r
}

// isbn prefers ISBN_13 over ISBN_10.
func isbn(ids []IndustryIdentifier) string {
	var isbn10 string
	for _, id := range ids {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = id.Identifier
			}
		}
	}
	return isbn10
}

// year extracts the year from "2004", "2004-05" or "2004-05-01".
func year(published string) int {
	head, _, _ := strings.Cut(strings.TrimSpace(published), "-")
	y, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return y
}

func materialType(printType string) string {
	switch printType {
	case "BOOK", "":
		return record.MaterialBook
	case "MAGAZINE":
		return record.MaterialArticle
	default:
		return record.MaterialOther
	}
}

func accessType(ai AccessInfo) string {
	switch {
	case ai.PublicDomain || ai.Viewability == "ALL_PAGES":
		return record.AccessOpen
	case ai.Viewability == "PARTIAL" || ai.Viewability == "NO_PAGES":
		return record.AccessRestricted
	default:
		return record.AccessUnknown
	}
}
