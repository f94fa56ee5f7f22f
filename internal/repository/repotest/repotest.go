// Package repotest is a contract test suite for repository.Store
// implementations. Each backend's tests call Run with a constructor that
// returns a fresh, empty store.
package repotest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/model"
	"github.com/sakif/tasklist/internal/repository"
)

// Run executes every contract case as a subtest. newStore is called once per
// subtest and must return an empty store; closing it is the caller's job
// (typically via t.Cleanup inside newStore).
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, s repository.Store)
	}{
		{"CreateAssignsIDAndTimestamp", testCreateAssignsIDAndTimestamp},
		{"CreateThenGet", testCreateThenGet},
		{"CreateMaxLengthMultibyte", testCreateMaxLengthMultibyte},
		{"GetByIDNotFound", testGetByIDNotFound},
		{"ListEmpty", testListEmpty},
		{"ListNewestFirst", testListNewestFirst},
		{"UpdateOverwritesFields", testUpdateOverwritesFields},
		{"UpdateKeepsCreatedAt", testUpdateKeepsCreatedAt},
		{"UpdateNotFound", testUpdateNotFound},
		{"DeleteIsIdempotent", testDeleteIsIdempotent},
		{"DeleteLeavesOthers", testDeleteLeavesOthers},
		{"IDsAreUnique", testIDsAreUnique},
		{"Ping", testPing},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

func mustCreate(t *testing.T, s repository.Store, text string) *model.Item {
	t.Helper()
	item := &model.Item{Text: text}
	require.NoError(t, s.Create(context.Background(), item))
	return item
}

func testCreateAssignsIDAndTimestamp(t *testing.T, s repository.Store) {
	item := mustCreate(t, s, "Buy groceries")

	assert.NotEmpty(t, item.ID)
	assert.False(t, item.CreatedAt.IsZero())
	assert.False(t, item.Completed)
}

func testCreateThenGet(t *testing.T, s repository.Store) {
	created := mustCreate(t, s, "Persist me")

	found, err := s.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Persist me", found.Text)
	assert.False(t, found.Completed)
	assert.True(t, created.CreatedAt.Equal(found.CreatedAt),
		"CreatedAt = %v, want %v", found.CreatedAt, created.CreatedAt)
}

func testCreateMaxLengthMultibyte(t *testing.T, s repository.Store) {
	text := strings.Repeat("é", model.MaxTextLength)
	created := mustCreate(t, s, text)

	found, err := s.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, text, found.Text)
}

func testGetByIDNotFound(t *testing.T, s repository.Store) {
	_, err := s.GetByID(context.Background(), "nonexistent-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func testListEmpty(t *testing.T, s repository.Store) {
	items, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func testListNewestFirst(t *testing.T, s repository.Store) {
	a := mustCreate(t, s, "A")
	b := mustCreate(t, s, "B")
	c := mustCreate(t, s, "C")

	items, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(items))
}

func testUpdateOverwritesFields(t *testing.T, s repository.Store) {
	ctx := context.Background()
	item := mustCreate(t, s, "Original")

	item.Text = "Modified"
	item.Completed = true
	require.NoError(t, s.Update(ctx, item))

	found, err := s.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Modified", found.Text)
	assert.True(t, found.Completed)

	item.Completed = false
	require.NoError(t, s.Update(ctx, item))

	found, err = s.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, found.Completed)
}

func testUpdateKeepsCreatedAt(t *testing.T, s repository.Store) {
	ctx := context.Background()
	item := mustCreate(t, s, "Task")
	original := item.CreatedAt

	update := *item
	update.Text = "Task v2"
	require.NoError(t, s.Update(ctx, &update))

	found, err := s.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, original.Equal(found.CreatedAt))
}

func testUpdateNotFound(t *testing.T, s repository.Store) {
	ctx := context.Background()
	err := s.Update(ctx, &model.Item{ID: "nonexistent", Text: "x", Completed: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items, "Update on a missing id must not create a row")
}

func testDeleteIsIdempotent(t *testing.T, s repository.Store) {
	ctx := context.Background()
	item := mustCreate(t, s, "Delete me")

	removed, err := s.Delete(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Delete(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(items), item.ID)
}

func testDeleteLeavesOthers(t *testing.T, s repository.Store) {
	ctx := context.Background()
	keep := mustCreate(t, s, "keep")
	drop := mustCreate(t, s, "drop")

	_, err := s.Delete(ctx, drop.ID)
	require.NoError(t, err)

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, ids(items))
}

func testIDsAreUnique(t *testing.T, s repository.Store) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		item := mustCreate(t, s, "task")
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
}

func testPing(t *testing.T, s repository.Store) {
	assert.NoError(t, s.Ping(context.Background()))
}

func ids(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
