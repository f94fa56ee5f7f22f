// Package repository declares the persistence contract for Items.
//
// Backends live in sub-packages (sqlite, postgres, memory) and are selected
// at startup by Open. The service layer depends only on ItemRepository.
package repository

import (
	"context"

	"github.com/sakif/tasklist/internal/model"
)

// ItemRepository is the storage contract every backend implements.
//
//   - Create assigns ID and CreatedAt and persists the item with the given
//     Text and Completed values.
//   - List returns every item, newest CreatedAt first; items created in the
//     same instant come back latest-insert first. Never nil.
//   - Update overwrites Text and Completed of the row with item.ID and
//     returns apperror.ErrNotFound when no row matched.
//   - Delete reports whether a row was removed. A missing row is not an error.
type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, id string) (*model.Item, error)
	List(ctx context.Context) ([]model.Item, error)
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id string) (bool, error)
}

// Store is an ItemRepository that owns a resource which must be released.
type Store interface {
	ItemRepository
	Ping(ctx context.Context) error
	Close() error
}
