package csvfile

import (
	"context"
	"testing"

	"github.com/lepinkainen/catalogue/internal/record"
	"github.com/lepinkainen/catalogue/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `id,Title,Author,ISBN,DOI,Year,Language,Type,shelf
1,Dune,Frank Herbert,978-0-441-01359-3,,1965,en,book,A1
2,A Paper,,,10.1000/xyz,2020,en,article,
1,Dune again,Frank Herbert,,,,,,
,,,,,,,,
3,Bad Year,,,,nineteen,,,
`

func TestFetch(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("export.csv", sample)

	got, err := New(env.Path("export.csv"), 0).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	dune := got[0]
	assert.Equal(t, "Dune", dune.Title)
	assert.Equal(t, "Frank Herbert", dune.AuthorName())
	assert.Equal(t, "978-0-441-01359-3", record.Value(dune.ISBN))
	assert.Equal(t, "csv:1", record.Value(dune.SourceID))
	assert.Equal(t, Name, record.Value(dune.DownloadSource))
	assert.Equal(t, "book", record.Value(dune.MaterialTypeCode))
	require.NotNil(t, dune.PublicationYear)
	assert.Equal(t, 1965, *dune.PublicationYear)

	paper := got[1]
	assert.Nil(t, paper.Author)
	assert.Equal(t, "10.1000/xyz", record.Value(paper.DOI))
	assert.Equal(t, "csv:2", record.Value(paper.SourceID))
}

func TestFetchHonoursMaxItems(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("export.csv", sample)

	got, err := New(env.Path("export.csv"), 1).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Dune", got[0].Title)
}

func TestFetchMissingFile(t *testing.T) {
	env := testutil.NewTestEnv(t)

	_, err := New(env.Path("nope.csv"), 0).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), Name)
}

func TestFetchNoPath(t *testing.T) {
	_, err := New("", 0).Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New("whatever.csv", 0).Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
