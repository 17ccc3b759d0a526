// Package stats summarises a collection by its descriptive fields.
package stats

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/lepinkainen/catalogue/internal/record"
)

// Unknown labels records lacking the counted field.
const Unknown = "unknown"

// Count is one bucket of a breakdown.
type Count struct {
	Key   string
	Count int
}

// Stats describes a collection.
type Stats struct {
	Total    int
	WithISBN int
	WithDOI  int

	ByMaterialType []Count
	ByLanguage     []Count
	BySource       []Count
	ByAccessType   []Count
	// ByDecade uses keys like "1960s".
	ByDecade []Count
}

// Compute walks the collection once. Breakdowns are sorted by count, largest
// first, then by key.
func Compute(collection []record.Record) Stats {
	material := map[string]int{}
	language := map[string]int{}
	source := map[string]int{}
	access := map[string]int{}
	decade := map[string]int{}

	s := Stats{Total: len(collection)}
	for _, r := range collection {
		if record.Value(r.ISBN) != "" {
			s.WithISBN++
		}
		if record.Value(r.DOI) != "" {
			s.WithDOI++
		}
		material[label(r.MaterialTypeCode)]++
		language[label(r.Language)]++
		source[label(r.DownloadSource)]++
		access[label(r.AccessType)]++
		decade[decadeOf(r.PublicationYear)]++
	}

	s.ByMaterialType = sorted(material)
	s.ByLanguage = sorted(language)
	s.BySource = sorted(source)
	s.ByAccessType = sorted(access)
	s.ByDecade = sorted(decade)
	return s
}

func label(p *string) string {
	if v := record.Value(p); v != "" {
		return v
	}
	return Unknown
}

func decadeOf(year *int) string {
	if year == nil || *year <= 0 {
		return Unknown
	}
	return strconv.Itoa(*year/10*10) + "s"
}

func sorted(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}
