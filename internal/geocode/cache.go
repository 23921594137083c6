// Package geocode resolves free-text addresses to coordinates through an
// external provider, backed by a durable SQLite lookup cache that guarantees
// at most one provider call per unique address across process restarts.
package geocode

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"climate-stats/internal/models"
)

const cacheSchema = `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address   TEXT PRIMARY KEY,
		latitude  REAL NOT NULL,
		longitude REAL NOT NULL
	)
`

// Cache is a durable address-to-coordinates store over a single SQLite file.
// All operations are serialized on an internal mutex: the read-then-write
// discipline of the geocode path is not atomic, so the single handle must not
// be shared unguarded between callers.
//
// A Cache must not be used after Close.
type Cache struct {
	mu   sync.Mutex
	db   *sqlx.DB
	path string
}

// OpenCache opens (creating if necessary) the cache store at path, including
// any missing parent directories. Directory creation is idempotent.
func OpenCache(path string) (*Cache, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &models.StoreError{Op: "mkdir", Err: err}
		}
	}

	// busy_timeout covers concurrent process access; WAL keeps readers from
	// blocking the upsert path.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, &models.StoreError{Op: "open", Err: err}
	}

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, &models.StoreError{Op: "init schema", Err: err}
	}

	return &Cache{db: db, path: path}, nil
}

// Lookup returns the cached coordinates for address, or found=false when the
// key is absent. An empty store is a miss, never an error; a StoreError is
// returned only when the store itself cannot be read.
func (c *Cache) Lookup(ctx context.Context, address string) (entry models.GeocodeEntry, found bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.db.GetContext(ctx, &entry,
		"SELECT address, latitude, longitude FROM geocode_cache WHERE address = ?", address)

	if err == sql.ErrNoRows {
		return models.GeocodeEntry{}, false, nil
	}
	if err != nil {
		return models.GeocodeEntry{}, false, &models.StoreError{Op: "read", Err: err}
	}

	return entry, true, nil
}

// Store inserts or overwrites the coordinates for address. Last write wins.
func (c *Cache) Store(ctx context.Context, address string, latitude, longitude float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO geocode_cache (address, latitude, longitude) VALUES (?, ?, ?)",
		address, latitude, longitude)
	if err != nil {
		return &models.StoreError{Op: "write", Err: err}
	}

	return nil
}

// Clear removes every entry. The store stays open and usable afterward.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.ExecContext(ctx, "DELETE FROM geocode_cache"); err != nil {
		return &models.StoreError{Op: "clear", Err: err}
	}

	return nil
}

// Size returns the number of unique cached addresses.
func (c *Cache) Size(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var count int
	if err := c.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM geocode_cache"); err != nil {
		return 0, &models.StoreError{Op: "count", Err: err}
	}

	return count, nil
}

// Close releases the underlying store handle.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db.Close()
}
