package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// DefaultBatchSize caps the rows sent in one insert request.
const DefaultBatchSize = 100

// maxErrorBody bounds how much of a failed response is read into the error.
const maxErrorBody = 4 << 10

// RemoteStore posts rows to the insert API of a Datasette instance.
type RemoteStore struct {
	base      *url.URL
	rawURL    string
	token     string
	client    *http.Client
	batchSize int
}

// RemoteOption configures a RemoteStore.
type RemoteOption func(*RemoteStore)

// WithHTTPClient replaces the default client, which times out after 30s.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(s *RemoteStore) {
		if c != nil {
			s.client = c
		}
	}
}

// WithBatchSize sets how many rows go into one request.
func WithBatchSize(n int) RemoteOption {
	return func(s *RemoteStore) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewRemote returns a store for the Datasette instance at baseURL. token is
// sent as a bearer token when set.
func NewRemote(baseURL, token string, opts ...RemoteOption) *RemoteStore {
	s := &RemoteStore{
		rawURL:    baseURL,
		token:     token,
		client:    &http.Client{Timeout: 30 * time.Second},
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect only validates the base URL; no request is made.
func (s *RemoteStore) Connect(context.Context) error {
	u, err := url.Parse(s.rawURL)
	if err != nil {
		return fmt.Errorf("invalid datasette URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid datasette URL %q: scheme must be http or https", s.rawURL)
	}
	s.base = u
	return nil
}

// CreateTable does nothing: the insert API creates tables on first write.
func (s *RemoteStore) CreateTable(context.Context, string) error { return nil }

// Insert posts rows in batches of at most the configured batch size.
func (s *RemoteStore) Insert(ctx context.Context, database, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	if s.base == nil {
		return fmt.Errorf("datastore not connected")
	}

	endpoint := *s.base
	endpoint.Path = path.Join(endpoint.Path, "-/insert", database, table)

	for start := 0; start < len(rows); start += s.batchSize {
		end := min(start+s.batchSize, len(rows))
		if err := s.post(ctx, endpoint.String(), rows[start:end]); err != nil {
			return fmt.Errorf("rows %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}

func (s *RemoteStore) post(ctx context.Context, endpoint string, rows []Row) error {
	body, err := json.Marshal(map[string]any{"rows": rows, "ignore": true})
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return apiError(resp)
}

// apiError turns a failed response into an error, preferring the messages of
// a Datasette JSON error body.
func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var parsed struct {
		Error  string   `json:"error"`
		Errors []string `json:"errors"`
	}
	if json.Unmarshal(raw, &parsed) == nil {
		msgs := parsed.Errors
		if parsed.Error != "" {
			msgs = append([]string{parsed.Error}, msgs...)
		}
		if len(msgs) > 0 {
			return fmt.Errorf("datasette API error (status %d): %s", resp.StatusCode, strings.Join(msgs, "; "))
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return fmt.Errorf("datasette API error (status %d): %s", resp.StatusCode, text)
	}
	return fmt.Errorf("datasette API error: status %d", resp.StatusCode)
}

func (s *RemoteStore) Close() error { return nil }
