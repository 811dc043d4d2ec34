package cache

// schemaSQL defines the SQLite schema for the cache database.
// Tables:
//   - grids: the last rendered grid per file, valid while content_hash matches
const schemaSQL = `
CREATE TABLE IF NOT EXISTS grids (
    file_path TEXT PRIMARY KEY,
    content_hash TEXT NOT NULL,
    grid TEXT NOT NULL,
    rendered_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_grids_rendered_at ON grids(rendered_at DESC);
`

// initSchema creates the database tables and indexes if they don't exist.
func (c *Cache) initSchema() error {
	_, err := c.db.Exec(schemaSQL)
	return err
}
