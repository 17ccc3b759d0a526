package stats

import (
	"testing"

	"github.com/lepinkainen/catalogue/internal/record"
	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	collection := []record.Record{
		{Title: "A", ISBN: record.Str("1"), MaterialTypeCode: record.Str("BOOK"), Language: record.Str("en"), DownloadSource: record.Str("openlibrary"), PublicationYear: record.Year(1965), AccessType: record.Str("open")},
		{Title: "B", ISBN: record.Str("2"), MaterialTypeCode: record.Str("BOOK"), Language: record.Str("fi"), DownloadSource: record.Str("googlebooks"), PublicationYear: record.Year(1969)},
		{Title: "C", DOI: record.Str("10.1/c"), MaterialTypeCode: record.Str("ARTICLE"), Language: record.Str("en"), DownloadSource: record.Str("crossref"), PublicationYear: record.Year(2021), AccessType: record.Str("open")},
		{Title: "D"},
	}

	s := Compute(collection)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.WithISBN)
	assert.Equal(t, 1, s.WithDOI)
	assert.Equal(t, []Count{{"BOOK", 2}, {"ARTICLE", 1}, {Unknown, 1}}, s.ByMaterialType)
	assert.Equal(t, []Count{{"en", 2}, {"fi", 1}, {Unknown, 1}}, s.ByLanguage)
	assert.Equal(t, []Count{{"crossref", 1}, {"googlebooks", 1}, {"openlibrary", 1}, {Unknown, 1}}, s.BySource)
	assert.Equal(t, []Count{{"open", 2}, {Unknown, 2}}, s.ByAccessType)
	assert.Equal(t, []Count{{"1960s", 2}, {"2020s", 1}, {Unknown, 1}}, s.ByDecade)
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil)
	assert.Zero(t, s.Total)
	assert.Empty(t, s.ByMaterialType)
	assert.Empty(t, s.ByDecade)
}
