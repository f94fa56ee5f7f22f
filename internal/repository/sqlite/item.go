package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/model"
	"github.com/sakif/tasklist/internal/repository"
)

// Compile-time check that *DB satisfies the storage contract.
var _ repository.Store = (*DB)(nil)

const itemColumns = `id, text, created_at, completed`

// Create inserts a new item. ID and CreatedAt are assigned here and written
// back into the caller's struct.
//
// xid IDs are 20 URL-safe characters and sort by creation time.
// Timestamps are stored in UTC so the created_at column orders correctly.
func (db *DB) Create(ctx context.Context, item *model.Item) error {
	item.ID = xid.New().String()
	item.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO items (id, text, created_at, completed)
		 VALUES (?, ?, ?, ?)`,
		item.ID,
		item.Text,
		item.CreatedAt,
		item.Completed,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating item: %w", err)
	}

	return nil
}

// GetByID retrieves a single item. sql.ErrNoRows is translated into
// apperror.NotFound so callers never see driver errors for a missing row.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`,
		id,
	).Scan(&item.ID, &item.Text, &item.CreatedAt, &item.Completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("item", id)
		}
		return nil, fmt.Errorf("sqlite: getting item %s: %w", id, err)
	}

	return &item, nil
}

// List returns every item, newest first. seq DESC puts the later insert
// first when two rows share a created_at value.
func (db *DB) List(ctx context.Context) ([]model.Item, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items
		 ORDER BY created_at DESC, seq DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing items: %w", err)
	}
	// CRITICAL: rows holds a pooled connection until closed.
	defer rows.Close()

	items := make([]model.Item, 0)
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Text, &it.CreatedAt, &it.Completed); err != nil {
			return nil, fmt.Errorf("sqlite: scanning item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating items: %w", err)
	}

	return items, nil
}

// Update overwrites text and completed. id and created_at are immutable and
// never appear in the SET clause. Zero rows affected means the id is unknown.
func (db *DB) Update(ctx context.Context, item *model.Item) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE items SET text = ?, completed = ? WHERE id = ?`,
		item.Text,
		item.Completed,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating item %s: %w", item.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("item", item.ID)
	}

	return nil
}

// Delete removes the item with id if it exists and reports whether a row
// was removed. Deleting an unknown id succeeds.
func (db *DB) Delete(ctx context.Context, id string) (bool, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting item %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}
