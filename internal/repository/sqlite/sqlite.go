// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary builds
// without a C toolchain. The database lives in a single file; ":memory:"
// gives a throwaway database for tests.
//
// DATABASE/SQL OVERVIEW:
// Key types from the standard "database/sql" package:
//   - sql.DB      — a connection pool (NOT a single connection!)
//   - sql.Row     — a single result row
//   - sql.Rows    — multiple result rows (must be closed!)
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// BLANK IMPORT:
	// The sqlite package's init() registers a database/sql driver named "sqlite".
	_ "modernc.org/sqlite"

	"github.com/sakif/tasklist/internal/model"
)

const memoryPath = ":memory:"

// DB wraps a sql.DB connection pool and provides repository methods.
// It implements repository.Store (see item.go).
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/tasklist.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests, lost on close)
//
// sql.Open does not connect; Ping forces the first connection so a bad path
// or permissions problem surfaces here instead of on the first request.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate, empty database.
	// Pin the pool to one connection so all queries see the same tables.
	if dbPath == memoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) mode lets readers proceed while a writer
	// holds the lock. The setting is stored in the database file.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn appends per-connection pragmas. busy_timeout makes a writer wait for a
// concurrent writer's lock instead of failing immediately with SQLITE_BUSY.
func dsn(dbPath string) string {
	if dbPath == memoryPath || strings.Contains(dbPath, "?") {
		return dbPath
	}
	return dbPath + "?_pragma=busy_timeout(5000)"
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is still reachable. Used by GET /healthz.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
//
// seq records insertion order. It breaks ties between rows whose created_at
// values are equal, and AUTOINCREMENT guarantees it is never reused.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS items (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			text       TEXT NOT NULL CHECK (length(text) <= %d),
			created_at DATETIME NOT NULL,
			completed  INTEGER NOT NULL DEFAULT 0 CHECK (completed IN (0, 1))
		);
		CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at DESC, seq DESC);
	`, model.MaxTextLength))
	if err != nil {
		return fmt.Errorf("creating items table: %w", err)
	}
	return nil
}
