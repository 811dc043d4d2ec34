// Package cache stores rendered grids keyed by file path and content hash.
// The durable tier is .siv/cache.db (SQLite); a bounded LRU sits in front of
// it so that repeated renders inside one process skip the database.
package cache

import (
	"database/sql"
	"path/filepath"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sourceisview/siv/internal/cell"
	"github.com/sourceisview/siv/internal/logger"
)

// FileName is the cache database inside the config directory.
const FileName = "cache.db"

// Cache manages the .siv/cache.db SQLite database and its memory tier.
// It is safe for concurrent use.
type Cache struct {
	db     *sql.DB
	dbPath string
	memory *lru.Cache[string, cell.Grid]
	log    *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Open opens or creates the cache database in dir. It initializes the
// schema if the database is new. memoryEntries bounds the in-process tier;
// zero disables it.
func Open(dir string, memoryEntries int) (*Cache, error) {
	dbPath := filepath.Join(dir, FileName)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open cache db")
	}
	// Renders run in parallel; a single connection serializes writers.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	c := &Cache{db: db, dbPath: dbPath, log: logger.Named("cache")}

	if memoryEntries > 0 {
		c.memory, err = lru.New[string, cell.Grid](memoryEntries)
		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, "create memory tier")
		}
	}

	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init schema")
	}

	return c, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Clear removes every cached grid from both tiers.
func (c *Cache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM grids"); err != nil {
		return errors.Wrap(err, "clear cache")
	}
	if c.memory != nil {
		c.memory.Purge()
	}
	return nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.dbPath
}

// Stats describes cache contents and the hit rate of this process.
type Stats struct {
	Path          string `yaml:"path" json:"path"`
	GridCount     int64  `yaml:"grids" json:"grids"`
	MemoryEntries int    `yaml:"memory_entries" json:"memory_entries"`
	Hits          int64  `yaml:"hits" json:"hits"`
	Misses        int64  `yaml:"misses" json:"misses"`
}

// GetStats returns statistics about the cache contents.
func (c *Cache) GetStats() (*Stats, error) {
	stats := Stats{
		Path:   c.dbPath,
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}

	if err := c.db.QueryRow("SELECT COUNT(*) FROM grids").Scan(&stats.GridCount); err != nil {
		return nil, errors.Wrap(err, "count grids")
	}
	if c.memory != nil {
		stats.MemoryEntries = c.memory.Len()
	}

	return &stats, nil
}

func memoryKey(path, hash string) string {
	return path + "\x00" + hash
}
