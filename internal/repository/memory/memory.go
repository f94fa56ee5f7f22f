// Package memory is a process-local ItemRepository. Data is lost on exit.
// It backs STORAGE_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/model"
	"github.com/sakif/tasklist/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store keeps items in insertion order. Values are copied in and out so
// callers can never mutate stored state through a returned pointer.
type Store struct {
	mu    sync.RWMutex
	items []model.Item
	now   func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{now: time.Now}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Create(_ context.Context, item *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = xid.New().String()
	item.CreatedAt = s.now().UTC()
	s.items = append(s.items, *item)
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		found := s.items[i]
		return &found, nil
	}
	return nil, apperror.NotFound("item", id)
}

// List walks the slice backwards so the latest insert comes first, then
// stable-sorts by CreatedAt descending, which keeps that order for ties.
func (s *Store) List(_ context.Context) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Item, 0, len(s.items))
	for i := len(s.items) - 1; i >= 0; i-- {
		out = append(out, s.items[i])
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

func (s *Store) Update(_ context.Context, item *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(item.ID)
	if i < 0 {
		return apperror.NotFound("item", item.ID)
	}
	s.items[i].Text = item.Text
	s.items[i].Completed = item.Completed
	return nil
}

func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true, nil
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
