package cache

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/sourceisview/siv/internal/cell"
	"github.com/sourceisview/siv/internal/logger"
)

// Entry is the stored state of one file.
type Entry struct {
	FilePath    string
	ContentHash string
	RenderedAt  time.Time
}

// Get returns the grid stored for path when it was rendered from content
// with the given hash. ok is false on a miss, including a stale entry. The
// returned grid is a copy the caller may modify.
func (c *Cache) Get(path, hash string) (grid cell.Grid, ok bool, err error) {
	key := memoryKey(path, hash)
	if c.memory != nil {
		if g, found := c.memory.Get(key); found {
			c.hits.Add(1)
			c.log.Debug("memory hit", zap.String(logger.FieldFile, path))
			return g.Clone(), true, nil
		}
	}

	var stored, data string
	err = c.db.QueryRow("SELECT content_hash, grid FROM grids WHERE file_path = ?", path).Scan(&stored, &data)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && stored != hash) {
		c.misses.Add(1)
		c.log.Debug("cache miss", zap.String(logger.FieldFile, path), zap.String(logger.FieldHash, hash))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "get grid %s", path)
	}

	var rows [][]string
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, false, errors.Wrapf(err, "decode grid %s", path)
	}
	grid = cell.FromStrings(rows)

	if c.memory != nil {
		c.memory.Add(key, grid.Clone())
	}
	c.hits.Add(1)
	c.log.Debug("disk hit", zap.String(logger.FieldFile, path))
	return grid, true, nil
}

// Put stores grid as the rendering of path at the given content hash,
// replacing whatever was stored for path before.
func (c *Cache) Put(path, hash string, grid cell.Grid) error {
	data, err := json.Marshal(grid.Strings())
	if err != nil {
		return errors.Wrapf(err, "encode grid %s", path)
	}

	_, err = c.db.Exec(`
		INSERT OR REPLACE INTO grids (file_path, content_hash, grid, rendered_at)
		VALUES (?, ?, ?, ?)`,
		path, hash, string(data), time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return errors.Wrapf(err, "put grid %s", path)
	}

	if c.memory != nil {
		c.memory.Add(memoryKey(path, hash), grid.Clone())
	}
	return nil
}

// IsFileChanged checks if a file's content has changed since it was last
// rendered. Returns true if the file has changed or has never been rendered.
func (c *Cache) IsFileChanged(path, newHash string) (bool, error) {
	var oldHash string
	err := c.db.QueryRow("SELECT content_hash FROM grids WHERE file_path = ?", path).Scan(&oldHash)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "get file hash %s", path)
	}
	return oldHash != newHash, nil
}

// Entries lists the stored files ordered by path.
func (c *Cache) Entries() ([]Entry, error) {
	rows, err := c.db.Query(`
		SELECT file_path, content_hash, rendered_at FROM grids ORDER BY file_path`)
	if err != nil {
		return nil, errors.Wrap(err, "query entries")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var renderedAt string
		if err := rows.Scan(&entry.FilePath, &entry.ContentHash, &renderedAt); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		entry.RenderedAt, _ = time.Parse(time.RFC3339, renderedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rows")
	}
	return entries, nil
}

// Delete removes a file from both tiers, whatever hashes it was stored under.
func (c *Cache) Delete(path string) error {
	if _, err := c.db.Exec("DELETE FROM grids WHERE file_path = ?", path); err != nil {
		return errors.Wrapf(err, "delete grid %s", path)
	}
	c.forget(path)
	return nil
}

// forget drops every memory entry of path.
func (c *Cache) forget(path string) {
	if c.memory == nil {
		return
	}
	prefix := memoryKey(path, "")
	for _, key := range c.memory.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.memory.Remove(key)
		}
	}
}

// PruneStaleEntries removes entries for files no longer in the provided set.
func (c *Cache) PruneStaleEntries(validPaths map[string]bool) (int, error) {
	entries, err := c.Entries()
	if err != nil {
		return 0, err
	}

	var pruned int
	for _, entry := range entries {
		if !validPaths[entry.FilePath] {
			if err := c.Delete(entry.FilePath); err != nil {
				return pruned, err
			}
			pruned++
		}
	}

	if pruned > 0 {
		c.log.Info("pruned stale cache entries", zap.Int(logger.FieldCount, pruned))
	}
	return pruned, nil
}
