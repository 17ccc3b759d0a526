// Package cache keeps raw source responses in a small SQLite database so that
// repeated syncs within the TTL do not hit the remote services again.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/viper"
	_ "modernc.org/sqlite"
)

// DefaultCacheTTL applies when cache.ttl is unset or invalid. Search results
// change as the sources grow, so entries expire after a day.
const DefaultCacheTTL = 24 * time.Hour

// FetchFunc produces a value on a cache miss.
type FetchFunc[T any] func() (T, error)

// Entry is one cached response.
type Entry struct {
	Data     string
	CachedAt time.Time
}

// Age reports how old the entry is at now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CachedAt)
}

// CacheDB is a handle on the cache database. It is safe for concurrent use.
type CacheDB struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
	now  func() time.Time
}

var (
	shared     *CacheDB
	sharedErr  error
	sharedOnce sync.Once
)

// GetGlobalCache opens the database named by cache.dbfile on first use and
// returns the same handle afterwards.
func GetGlobalCache() (*CacheDB, error) {
	sharedOnce.Do(func() {
		path := viper.GetString("cache.dbfile")
		if path == "" {
			path = "./cache.db"
		}
		shared, sharedErr = NewCacheDB(path)
	})
	return shared, sharedErr
}

// ResetGlobalCache closes the shared handle so the next GetGlobalCache call
// reopens it, picking up configuration changes.
func ResetGlobalCache() error {
	var err error
	if shared != nil {
		err = shared.Close()
	}
	shared, sharedErr = nil, nil
	sharedOnce = sync.Once{}
	return err
}

// NewCacheDB opens the database at path and creates every known source table.
func NewCacheDB(path string) (*CacheDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(4)

	if err := db.Ping(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), db.Close())
	}

	c := &CacheDB{db: db, path: path, now: time.Now}
	if err := c.Ensure(Tables()...); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return c, nil
}

// Ensure creates the named tables if they do not exist yet.
func (c *CacheDB) Ensure(names ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range names {
		if err := checkTable(name); err != nil {
			return err
		}
		if _, err := c.db.Exec(tableSchema(name)); err != nil {
			return fmt.Errorf("failed to create cache table %s: %w", name, err)
		}
	}
	return nil
}

// Path is the database file the handle was opened on.
func (c *CacheDB) Path() string { return c.path }

// Close releases the database.
func (c *CacheDB) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Get returns the entry stored under key regardless of its age.
func (c *CacheDB) Get(table, key string) (Entry, bool, error) {
	if err := checkTable(table); err != nil {
		return Entry{}, false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		entry Entry
		ms    int64
	)
	q := fmt.Sprintf("SELECT data, cached_at FROM %s WHERE cache_key = ?", table)
	err := c.db.QueryRow(q, key).Scan(&entry.Data, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to query cache: %w", err)
	}
	entry.CachedAt = time.UnixMilli(ms).UTC()
	return entry, true, nil
}

// Set stores data under key, replacing any previous entry.
func (c *CacheDB) Set(table, key, data string) error {
	if err := checkTable(table); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	q := fmt.Sprintf("INSERT OR REPLACE INTO %s (cache_key, data, cached_at) VALUES (?, ?, ?)", table)
	if _, err := c.db.Exec(q, key, data, c.now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Count returns the number of entries in table.
func (c *CacheDB) Count(table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int64
	if err := c.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

// InvalidateSource empties table and returns how many entries were dropped.
func (c *CacheDB) InvalidateSource(table string) (int64, error) {
	return c.delete(table, "")
}

// Prune drops the entries of table older than ttl.
func (c *CacheDB) Prune(table string, ttl time.Duration) (int64, error) {
	return c.delete(table, "WHERE cached_at < ?", c.now().Add(-ttl).UnixMilli())
}

func (c *CacheDB) delete(table, where string, args ...any) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.Exec(fmt.Sprintf("DELETE FROM %s %s", table, where), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	slog.Debug("Cache entries deleted", "table", table, "rows", n)
	return n, nil
}

// GetOrFetch returns the fresh cached value for key, or calls fetch and stores
// its result. The boolean reports a cache hit. When the cache database cannot
// be opened, fetch is called directly.
func GetOrFetch[T any](table, key string, fetch FetchFunc[T]) (T, bool, error) {
	c, err := GetGlobalCache()
	if err != nil {
		slog.Warn("Cache unavailable, fetching directly", "error", err)
		v, err := fetch()
		return v, false, err
	}

	if v, ok := lookup[T](c, table, key, configuredTTL()); ok {
		return v, true, nil
	}

	slog.Debug("Cache miss", "table", table, "key", key)
	v, err := fetch()
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("failed to fetch data: %w", err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Failed to encode value for cache", "table", table, "key", key, "error", err)
		return v, false, nil
	}
	if err := c.Set(table, key, string(data)); err != nil {
		slog.Warn("Failed to cache data", "table", table, "key", key, "error", err)
	}
	return v, false, nil
}

func lookup[T any](c *CacheDB, table, key string, ttl time.Duration) (T, bool) {
	var v T
	entry, ok, err := c.Get(table, key)
	if err != nil {
		slog.Warn("Cache read failed", "table", table, "key", key, "error", err)
		return v, false
	}
	if !ok {
		return v, false
	}
	if age := entry.Age(c.now()); age > ttl {
		slog.Debug("Cache expired", "table", table, "key", key, "age", age)
		return v, false
	}
	if err := json.Unmarshal([]byte(entry.Data), &v); err != nil {
		slog.Warn("Discarding undecodable cache entry", "table", table, "key", key, "error", err)
		return v, false
	}
	slog.Debug("Cache hit", "table", table, "key", key)
	return v, true
}

// configuredTTL reads cache.ttl, falling back to DefaultCacheTTL.
func configuredTTL() time.Duration {
	raw := viper.GetString("cache.ttl")
	if raw == "" {
		return DefaultCacheTTL
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		slog.Warn("Invalid cache TTL, using default", "ttl", raw, "error", err)
		return DefaultCacheTTL
	}
	return ttl
}
