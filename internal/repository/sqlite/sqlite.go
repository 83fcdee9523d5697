// Package sqlite implements the repository interfaces on an embedded SQLite
// database via the pure-Go modernc.org/sqlite driver. No C toolchain, no
// separate database server; the whole store is a single file (or ":memory:"
// in tests).
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and provides the repository methods. The server
// owns the lifecycle: New at startup, Close during shutdown.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath, configures it for concurrent web-server
// use and creates the schema if needed.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight. Foreign keys are
	// off by default in SQLite; the exercises table depends on them.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers should defer this right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent
// so restarting against an existing file is safe.
//
// Exercises live in their own table rather than as a serialized blob on the
// user row. The seq column is an alias for the autoincrement rowid, so
// ORDER BY seq reproduces insertion order exactly, which is the only
// ordering guarantee the log endpoint makes.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			public_id       TEXT NOT NULL UNIQUE,
			username        TEXT NOT NULL UNIQUE,
			client_ip       TEXT NOT NULL DEFAULT '',
			client_language TEXT NOT NULL DEFAULT '',
			client_software TEXT NOT NULL DEFAULT '',
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS exercises (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			description TEXT NOT NULL,
			duration    REAL NOT NULL,
			date        DATETIME NOT NULL,
			done        INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_exercises_user_id ON exercises(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating exercises table: %w", err)
	}

	return nil
}
