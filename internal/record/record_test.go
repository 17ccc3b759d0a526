package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaultsTitleAndDropsBlanks(t *testing.T) {
	r := Record{
		Title:  "   ",
		Author: &Author{},
		ISBN:   Str("978-0-14-044793-4"),
		DOI:    Str("https://doi.org/10.1000/ABC"),
		URL:    strPtr("  "),
	}

	r.Normalize()

	assert.Equal(t, UntitledTitle, r.Title)
	assert.Nil(t, r.Author)
	assert.Equal(t, "9780140447934", Value(r.ISBN))
	assert.Equal(t, "10.1000/abc", Value(r.DOI))
	assert.Nil(t, r.URL)
}

func TestNormalizeDoesNotWriteThroughPointers(t *testing.T) {
	isbn := "978-1"
	original := Record{Title: "A", ISBN: &isbn}

	copied := original
	copied.Normalize()

	assert.Equal(t, "978-1", isbn)
	assert.Equal(t, "9781", Value(copied.ISBN))
}

func TestNormalizeDropsNonPositiveYear(t *testing.T) {
	zero := 0
	r := Record{Title: "A", PublicationYear: &zero}
	r.Normalize()
	assert.Nil(t, r.PublicationYear)
}

func TestCanonicalDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.1/B", "10.1/b"},
		{"doi:10.1/b", "10.1/b"},
		{"https://dx.doi.org/10.1/B", "10.1/b"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalDOI(tt.in))
		})
	}
}

func TestIDJSON(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"title":"x"}`), &r))
	assert.False(t, r.ID.IsZero())
	assert.Equal(t, int64(7), r.ID.Int())

	require.NoError(t, json.Unmarshal([]byte(`{"id":"abc","title":"x"}`), &r))
	assert.False(t, r.ID.IsZero())
	assert.Equal(t, int64(0), r.ID.Int())
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc","title":"x"}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"id":"12","title":"x"}`), &r))
	assert.Equal(t, int64(12), r.ID.Int())

	require.NoError(t, json.Unmarshal([]byte(`{"id":null,"title":"x"}`), &r))
	assert.True(t, r.ID.IsZero())
}

func TestUnadmittedRecordOmitsID(t *testing.T) {
	out, err := json.Marshal(Record{Title: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"x"}`, string(out))
}

func TestRecordPreservesUnknownFields(t *testing.T) {
	in := `{"id":1,"title":"x","shelf":"B12","tags":["a","b"]}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(in), &r))
	require.Contains(t, r.Extra, "shelf")

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestAuthorJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"string", `"Ursula K. Le Guin"`, "Ursula K. Le Guin"},
		{"object", `{"given":"Ada","family":"Lovelace"}`, "Ada Lovelace"},
		{"array", `["A. One", {"name":"B. Two"}]`, "A. One, B. Two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Author
			require.NoError(t, json.Unmarshal([]byte(tt.in), &a))
			assert.Equal(t, tt.want, a.String())
		})
	}
}

func TestAuthorMarshalsNameOnlyAsString(t *testing.T) {
	out, err := json.Marshal(Author{Name: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, `"Jane Doe"`, string(out))

	out, err = json.Marshal(Author{Given: "Jane", Family: "Doe", ORCID: "0000-0001"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Jane Doe","given":"Jane","family":"Doe","orcid":"0000-0001"}`, string(out))
}

func TestJoinAuthors(t *testing.T) {
	assert.Nil(t, JoinAuthors(nil))
	assert.Equal(t, "A, B", JoinAuthors([]string{" A ", "", "B"}).String())
}

func TestUnmarshalCoercesLooseTypes(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"title":42,"isbn":9780441013593,"publication_year":"1999","language":["en"],"created_at":"yesterday","author":7}`), &r))

	assert.Equal(t, "42", r.Title)
	assert.Equal(t, "9780441013593", Value(r.ISBN))
	require.NotNil(t, r.PublicationYear)
	assert.Equal(t, 1999, *r.PublicationYear)
	assert.Nil(t, r.Language)
	assert.Nil(t, r.CreatedAt)
	assert.Nil(t, r.Author)
	assert.Empty(t, r.Extra)
}

func TestUnmarshalRejectsNonObject(t *testing.T) {
	var r Record
	assert.Error(t, json.Unmarshal([]byte(`["not","a","record"]`), &r))
	assert.Error(t, json.Unmarshal([]byte(`"title"`), &r))
}

func TestMarshalKeepsStoredBytesOfUnchangedFields(t *testing.T) {
	in := `{"title":"Old","publication_year":"2020","author":[{"name":"A","orcid":"1"},{"name":"B"}],"id":9,"shelf":"C3"}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(in), &r))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))

	r.Title = "New"
	r.PublicationYear = Year(2021)
	r.DOI = Str("10.1/x")
	out, err = json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"New","publication_year":2021,"author":[{"name":"A","orcid":"1"},{"name":"B"}],"id":9,"shelf":"C3","doi":"10.1/x"}`, string(out))

	r.Author = nil
	out, err = json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "author")
}

func TestMarshalExtraWithoutStoredOrder(t *testing.T) {
	r := Record{ID: NewID(1), Title: "x", Extra: map[string]json.RawMessage{"z": []byte(`1`), "a": []byte(`2`), "title": []byte(`"shadow"`)}}
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"title":"x","a":2,"z":1}`, string(out))
}

func strPtr(s string) *string { return &s }
