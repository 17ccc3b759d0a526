package aggregator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lepinkainen/catalogue/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name    string
	records []record.Record
	err     error
	delay   time.Duration
	panics  bool
	calls   atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) ([]record.Record, error) {
	f.calls.Add(1)
	if f.panics {
		panic("adapter exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.records, f.err
}

func titled(titles ...string) []record.Record {
	out := make([]record.Record, 0, len(titles))
	for _, t := range titles {
		out = append(out, record.Record{Title: t})
	}
	return out
}

func TestFetchAllConcatenatesInDeclarationOrder(t *testing.T) {
	slow := &fakeSource{name: "slow", records: titled("s1", "s2"), delay: 30 * time.Millisecond}
	fast := &fakeSource{name: "fast", records: titled("f1")}

	res := New([]Source{slow, fast}).FetchAll(context.Background())

	require.Len(t, res.Records, 3)
	assert.Equal(t, "s1", res.Records[0].Title)
	assert.Equal(t, "s2", res.Records[1].Title)
	assert.Equal(t, "f1", res.Records[2].Title)
	assert.Equal(t, 3, res.Total)
	assert.Empty(t, res.Errors)

	require.Len(t, res.PerSource, 2)
	assert.Equal(t, "slow", res.PerSource[0].Source)
	assert.Equal(t, 2, res.PerSource[0].Count)
	assert.Equal(t, "fast", res.PerSource[1].Source)
}

func TestFetchAllToleratesFailures(t *testing.T) {
	boom := errors.New("HTTP 503")
	sources := []Source{
		&fakeSource{name: "ok", records: titled("a")},
		&fakeSource{name: "broken", err: boom, records: titled("ignored")},
		&fakeSource{name: "panicky", panics: true},
		&fakeSource{name: "also-ok", records: titled("b")},
	}

	res := New(sources, WithConcurrency(1)).FetchAll(context.Background())

	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "broken", res.Errors[0].Source)
	assert.ErrorIs(t, res.Errors[0], boom)
	assert.Equal(t, "panicky", res.Errors[1].Source)
	assert.Contains(t, res.Errors[1].Error(), "adapter exploded")

	assert.Equal(t, 0, res.PerSource[1].Count)
	assert.Equal(t, 0, res.PerSource[2].Count)
}

func TestFetchAllTreatsTimeoutAsFailure(t *testing.T) {
	sources := []Source{
		&fakeSource{name: "hung", delay: time.Second},
		&fakeSource{name: "ok", records: titled("a")},
	}

	res := New(sources, WithTimeout(20*time.Millisecond)).FetchAll(context.Background())

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "hung", res.Errors[0].Source)
	assert.ErrorIs(t, res.Errors[0], context.DeadlineExceeded)
	assert.Equal(t, 1, res.Total)
}

func TestFetchAllTagsDownloadSource(t *testing.T) {
	src := &fakeSource{name: "openlibrary", records: []record.Record{
		{Title: "untagged"},
		{Title: "tagged", DownloadSource: record.Str("mirror")},
	}}

	res := New([]Source{src}).FetchAll(context.Background())

	require.Len(t, res.Records, 2)
	assert.Equal(t, "openlibrary", record.Value(res.Records[0].DownloadSource))
	assert.Equal(t, "mirror", record.Value(res.Records[1].DownloadSource))
	assert.Nil(t, src.records[0].DownloadSource, "source slice must not be modified")
}

func TestFetchAllBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	track := func(name string) Source {
		return sourceFunc{name: name, fn: func(ctx context.Context) ([]record.Record, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return nil, nil
		}}
	}

	sources := []Source{track("a"), track("b"), track("c"), track("d")}
	New(sources, WithConcurrency(2)).FetchAll(context.Background())

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestFetchAllNoSources(t *testing.T) {
	res := New(nil).FetchAll(context.Background())
	assert.Zero(t, res.Total)
	assert.Empty(t, res.PerSource)
	assert.Empty(t, res.Errors)
}

type sourceFunc struct {
	name string
	fn   func(ctx context.Context) ([]record.Record, error)
}

func (s sourceFunc) Name() string { return s.name }

func (s sourceFunc) Fetch(ctx context.Context) ([]record.Record, error) { return s.fn(ctx) }
