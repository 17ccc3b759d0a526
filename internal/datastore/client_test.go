package datastore

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/lepinkainen/catalogue/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type insertRequest struct {
	Path   string
	Auth   string
	Rows   []Row
	Ignore bool
}

// recordingServer answers every insert with status and keeps the requests.
func recordingServer(t *testing.T, status int, body string) (*RemoteStore, func() []insertRequest) {
	t.Helper()

	var (
		mu   sync.Mutex
		reqs []insertRequest
	)
	ts := testutil.NewIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload struct {
			Rows   []Row `json:"rows"`
			Ignore bool  `json:"ignore"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		mu.Lock()
		reqs = append(reqs, insertRequest{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Rows: payload.Rows, Ignore: payload.Ignore})
		mu.Unlock()

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))

	store := NewRemote(ts.URL+"/base", "secret", WithBatchSize(2))
	require.NoError(t, store.Connect(context.Background()))
	return store, func() []insertRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]insertRequest(nil), reqs...)
	}
}

func TestRemoteStore_InsertBatches(t *testing.T) {
	store, requests := recordingServer(t, http.StatusCreated, `{"ok":true}`)

	rows := []Row{{"id": 1}, {"id": 2}, {"id": 3}}
	require.NoError(t, store.Insert(context.Background(), "catalogue", "records", rows))

	reqs := requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[0].Rows, 2)
	assert.Len(t, reqs[1].Rows, 1)
	for _, r := range reqs {
		assert.Equal(t, "/base/-/insert/catalogue/records", r.Path)
		assert.Equal(t, "Bearer secret", r.Auth)
		assert.True(t, r.Ignore)
	}
}

func TestRemoteStore_InsertEmptyMakesNoRequest(t *testing.T) {
	store, requests := recordingServer(t, http.StatusOK, "")
	require.NoError(t, store.Insert(context.Background(), "catalogue", "records", nil))
	assert.Empty(t, requests())
}

func TestRemoteStore_APIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"json error", http.StatusForbidden, `{"ok":false,"errors":["Permission denied"]}`, "Permission denied"},
		{"single error", http.StatusBadRequest, `{"error":"no such table"}`, "no such table"},
		{"plain text", http.StatusBadGateway, "upstream down", "upstream down"},
		{"empty", http.StatusInternalServerError, "", "status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := recordingServer(t, tt.status, tt.body)
			err := store.Insert(context.Background(), "catalogue", "records", []Row{{"id": 1}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRemoteStore_InsertHonoursContext(t *testing.T) {
	store, requests := recordingServer(t, http.StatusOK, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, store.Insert(ctx, "catalogue", "records", []Row{{"id": 1}}))
	assert.Empty(t, requests())
}

func TestRemoteStore_RequiresConnect(t *testing.T) {
	store := NewRemote("http://127.0.0.1:1", "")
	assert.Error(t, store.Insert(context.Background(), "catalogue", "t", []Row{{"id": 1}}))
}

func TestRemoteStore_ConnectRejectsBadURL(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, NewRemote("ftp://example.com", "").Connect(ctx))
	assert.Error(t, NewRemote("://nope", "").Connect(ctx))
	assert.NoError(t, NewRemote("https://datasette.example.com", "").Connect(ctx))
}

func TestColumns(t *testing.T) {
	rows := []Row{{"b": 1, "a": 2}, {"c": 3}, {"a": 4}}
	assert.Equal(t, []string{"a", "b", "c"}, Columns(rows))
	assert.Empty(t, Columns(nil))
}
