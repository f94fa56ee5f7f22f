package postgres

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

var _ repository.Store = (*DB)(nil)

const itemColumns = `id, text, created_at, completed`

// Create inserts a new item and fills in its ID and CreatedAt.
// Postgres stores microseconds, so CreatedAt is truncated to match what a
// later read returns.
func (db *DB) Create(ctx context.Context, item *model.Item) error {
	item.ID = xid.New().String()
	item.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO items (id, text, created_at, completed) VALUES ($1, $2, $3, $4)`,
		item.ID, item.Text, item.CreatedAt, item.Completed,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating item: %w", err)
	}
	return nil
}

func (db *DB) GetByID(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id,
	).Scan(&item.ID, &item.Text, &item.CreatedAt, &item.Completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("item", id)
		}
		return nil, fmt.Errorf("postgres: getting item %s: %w", id, err)
	}
	item.CreatedAt = item.CreatedAt.UTC()
	return &item, nil
}

func (db *DB) List(ctx context.Context) ([]model.Item, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY created_at DESC, seq DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]model.Item, 0)
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Text, &it.CreatedAt, &it.Completed); err != nil {
			return nil, fmt.Errorf("postgres: scanning item row: %w", err)
		}
		it.CreatedAt = it.CreatedAt.UTC()
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating items: %w", err)
	}
	return items, nil
}

// Update relies on the row lock Postgres takes for UPDATE; concurrent
// updates to the same id apply in commit order.
func (db *DB) Update(ctx context.Context, item *model.Item) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE items SET text = $1, completed = $2 WHERE id = $3`,
		item.Text, item.Completed, item.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating item %s: %w", item.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("item", item.ID)
	}
	return nil
}

func (db *DB) Delete(ctx context.Context, id string) (bool, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("postgres: deleting item %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	return n > 0, nil
}
