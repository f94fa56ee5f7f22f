// Package postgres implements the repository interfaces on PostgreSQL.
//
// pgx is registered as a database/sql driver through its stdlib package, so
// this backend shares the query-and-scan shape of the sqlite package. Only
// the placeholders ($1) and column types differ.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/sakif/tasklist/internal/model"
)

const (
	driverName = "pgx"
	// DefaultDSN is used when no DSN is configured.
	DefaultDSN = "postgres://localhost/tasklist?sslmode=disable"
)

// DB wraps a Postgres connection pool. It implements repository.Store.
type DB struct {
	conn *sql.DB
}

// New opens a pool, verifies connectivity and applies the schema.
func New(ctx context.Context, dsn string) (*DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the server is still reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// migrate creates the items table. seq is a BIGSERIAL used only to order
// rows that share a created_at value.
func (db *DB) migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS items (
			seq        BIGSERIAL PRIMARY KEY,
			id         TEXT NOT NULL UNIQUE,
			text       VARCHAR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			completed  BOOLEAN NOT NULL DEFAULT FALSE
		)`, model.MaxTextLength),
		`CREATE INDEX IF NOT EXISTS idx_items_created_at ON items (created_at DESC, seq DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// truncate empties the table. Tests use it to isolate runs against a
// shared database.
func (db *DB) truncate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `TRUNCATE items`)
	return err
}
