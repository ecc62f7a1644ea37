package repo

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// One base table keyed by the full hash with a unique code column, plus
// one subtype table per kind sharing the key. Dedup and code resolution
// stay single-row lookups.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	hash_full TEXT PRIMARY KEY,
	code      TEXT NOT NULL UNIQUE,
	kind      TEXT NOT NULL,
	size_b    INTEGER NOT NULL,
	uid       INTEGER NOT NULL DEFAULT 0,
	perm      TEXT NOT NULL DEFAULT 'pub',
	upload_at INTEGER NOT NULL,
	origin_at INTEGER
);

CREATE TABLE IF NOT EXISTS text_items (
	hash_full TEXT PRIMARY KEY REFERENCES items(hash_full) ON DELETE CASCADE,
	format    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pic_items (
	hash_full TEXT PRIMARY KEY REFERENCES items(hash_full) ON DELETE CASCADE,
	format    TEXT NOT NULL,
	width     INTEGER NOT NULL,
	height    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS link_items (
	hash_full TEXT PRIMARY KEY REFERENCES items(hash_full) ON DELETE CASCADE,
	url       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_uid ON items(uid);
CREATE INDEX IF NOT EXISTS idx_items_kind ON items(kind);
CREATE INDEX IF NOT EXISTS idx_items_upload ON items(upload_at);
`

// DB is the SQLite-backed Repository.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
// The schema is idempotent, so Open is safe on an existing database.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("repo: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("repo: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("repo: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
