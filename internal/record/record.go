// Package record defines the canonical catalogue record shared by the source
// adapters, the merge engine and the persisted collection.
//
// Optional fields are pointers so that "absent" and "empty" stay distinct all the
// way from a source response to the JSON store.
package record

import (
	"encoding/json"
	"strings"
	"time"
)

// UntitledTitle replaces a missing or blank title.
const UntitledTitle = "Untitled"

// Material type codes.
const (
	MaterialBook    = "BOOK"
	MaterialArticle = "ARTICLE"
	MaterialReport  = "REPORT"
	MaterialThesis  = "THESIS"
	MaterialOther   = "OTHER"
)

// Access types.
const (
	AccessOpen       = "open"
	AccessRestricted = "restricted"
	AccessUnknown    = "unknown"
)

// Record is one bibliographic entry (book, paper, report).
type Record struct {
	ID     ID      `json:"id,omitzero"`
	Title  string  `json:"title"`
	Author *Author `json:"author,omitempty"`

	// Identity-bearing fields.
	ISBN     *string `json:"isbn,omitempty"`
	DOI      *string `json:"doi,omitempty"`
	SourceID *string `json:"source_id,omitempty"`
	Barcode  *string `json:"barcode,omitempty"`

	DownloadSource *string `json:"download_source,omitempty"`

	// Descriptive fields, used for statistics and filtering only.
	MaterialTypeCode *string `json:"material_type_code,omitempty"`
	Language         *string `json:"language,omitempty"`
	PublicationYear  *int    `json:"publication_year,omitempty"`
	AccessType       *string `json:"access_type,omitempty"`
	URL              *string `json:"url,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Extra holds stored fields this version does not know about, so that
	// re-saving a collection never drops them.
	Extra map[string]json.RawMessage `json:"-"`

	stored *stored
}

// AuthorName returns the display name of the author or "" when absent.
func (r Record) AuthorName() string {
	if r.Author == nil {
		return ""
	}
	return r.Author.String()
}

// Normalize applies the defaulting rules to r in place. It only ever replaces
// pointers, never writes through them, so a shallow copy of a record can be
// normalized without touching the original.
func (r *Record) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		r.Title = UntitledTitle
	}

	if r.Author != nil && r.Author.String() == "" {
		r.Author = nil
	}

	r.ISBN = Str(CanonicalISBN(Value(r.ISBN)))
	r.DOI = Str(CanonicalDOI(Value(r.DOI)))
	r.SourceID = Str(Value(r.SourceID))
	r.Barcode = Str(Value(r.Barcode))
	r.DownloadSource = Str(Value(r.DownloadSource))
	r.MaterialTypeCode = Str(strings.ToUpper(Value(r.MaterialTypeCode)))
	r.Language = Str(strings.ToLower(Value(r.Language)))
	r.AccessType = Str(strings.ToLower(Value(r.AccessType)))
	r.URL = Str(Value(r.URL))

	if r.PublicationYear != nil && *r.PublicationYear <= 0 {
		r.PublicationYear = nil
	}
}

// CanonicalISBN strips hyphens and spaces.
func CanonicalISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	return strings.ToUpper(strings.TrimSpace(isbn))
}

var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// CanonicalDOI lower-cases a DOI and removes resolver or scheme prefixes.
func CanonicalDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(doi, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(doi, prefix))
		}
	}
	return doi
}

// Str returns a pointer to the trimmed string, or nil when it is blank.
func Str(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences p, returning "" for nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Year returns a pointer to y, or nil when y is not a plausible year.
func Year(y int) *int {
	if y <= 0 {
		return nil
	}
	return &y
}
