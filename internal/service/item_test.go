package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/model"
	"github.com/sakif/tasklist/internal/repository/memory"
)

// =========================================================================
// FAKES
// =========================================================================

// fakeRecorder collects ItemOp calls as "op/outcome" strings.
type fakeRecorder struct {
	ops []string
}

func (r *fakeRecorder) ItemOp(op, outcome string) {
	r.ops = append(r.ops, op+"/"+outcome)
}

// failingRepo fails every call with err. It lets tests check that storage
// failures propagate without being mistaken for validation or not-found.
type failingRepo struct {
	err error
}

func (f failingRepo) Create(context.Context, *model.Item) error { return f.err }
func (f failingRepo) GetByID(context.Context, string) (*model.Item, error) {
	return nil, f.err
}
func (f failingRepo) List(context.Context) ([]model.Item, error)  { return nil, f.err }
func (f failingRepo) Update(context.Context, *model.Item) error   { return f.err }
func (f failingRepo) Delete(context.Context, string) (bool, error) { return false, f.err }

// =========================================================================
// TEST HELPERS
// =========================================================================

func newTestService(t *testing.T) (*ItemService, *memory.Store, *fakeRecorder) {
	t.Helper()
	repo := memory.New()
	rec := &fakeRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewItemService(repo, rec, logger), repo, rec
}

func strPtr(s string) *string { return &s }

// =========================================================================
// CREATE / LIST
// =========================================================================

func TestCreate_ThenListAll(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Buy groceries")
	require.NoError(t, err)

	items, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)
	assert.Equal(t, "Buy groceries", items[0].Text)
	assert.False(t, items[0].Completed)
	assert.False(t, items[0].CreatedAt.IsZero())
}

func TestCreate_TrimsWhitespace(t *testing.T) {
	svc, _, _ := newTestService(t)

	item, err := svc.Create(context.Background(), "  spaced out  ")
	require.NoError(t, err)
	assert.Equal(t, "spaced out", item.Text)
}

func TestCreate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "   \t"},
		{"too long", strings.Repeat("a", model.MaxTextLength+1)},
		{"too many multibyte characters", strings.Repeat("é", model.MaxTextLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, rec := newTestService(t)
			ctx := context.Background()

			_, err := svc.Create(ctx, tt.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrValidation)

			items, err := svc.ListAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, items, "a rejected create must not persist anything")
			assert.Equal(t, "create/invalid", rec.ops[0])
		})
	}
}

func TestCreate_MaxLengthMultibyteAccepted(t *testing.T) {
	svc, _, _ := newTestService(t)

	// 255 characters but 510 bytes: the bound is on characters.
	text := strings.Repeat("é", model.MaxTextLength)
	item, err := svc.Create(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, text, item.Text)
}

func TestListAll_Empty(t *testing.T) {
	svc, _, _ := newTestService(t)

	items, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestListAll_NewestFirst(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, text := range []string{"A", "B", "C"} {
		_, err := svc.Create(ctx, text)
		require.NoError(t, err)
	}

	items, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "C", items[0].Text)
	assert.Equal(t, "B", items[1].Text)
	assert.Equal(t, "A", items[2].Text)
}

// =========================================================================
// UPDATE
// =========================================================================

func TestUpdate_MarkCompleted(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Task")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, strPtr("Task"), true)
	require.NoError(t, err)
	assert.True(t, updated.Completed)
}

// An item that was completed and is then updated without the marker must
// end up incomplete: the flag is overwritten, never merged.
func TestUpdate_MarkerAbsentClearsCompleted(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Done task")
	require.NoError(t, err)
	_, err = svc.Update(ctx, created.ID, nil, true)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, strPtr("Done task"), false)
	require.NoError(t, err)
	assert.False(t, updated.Completed)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, stored.Completed)
}

func TestUpdate_TextAbsentKeepsText(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Original")
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, nil, true)
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", stored.Text)
	assert.True(t, stored.Completed)
}

func TestUpdate_ReplacesText(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Original")
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, strPtr(" Modified "), false)
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Modified", stored.Text)
	assert.True(t, created.CreatedAt.Equal(stored.CreatedAt), "created_at must not change")
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "nonexistent", strPtr("x"), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, []string{"update/not_found"}, rec.ops)

	items, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdate_BlankTextStillAppliesCompletion(t *testing.T) {
	svc, repo, rec := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Original")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, strPtr("   "), true)
	require.NoError(t, err)
	assert.Empty(t, updated.Text)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Text)
	assert.True(t, stored.Completed, "completion toggle must not be lost")
	assert.Equal(t, []string{"create/ok", "update/ok"}, rec.ops)
}

func TestUpdate_OverlongTextLeavesItemUnchanged(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Original")
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, strPtr(strings.Repeat("x", model.MaxTextLength+1)), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", stored.Text)
	assert.False(t, stored.Completed)
}

func TestUpdate_EmptyID(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), " ", nil, true)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// =========================================================================
// DELETE
// =========================================================================

func TestDelete_TwiceIsNoOp(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Delete me")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.NoError(t, svc.Delete(ctx, created.ID))

	items, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, []string{"create/ok", "delete/deleted", "delete/absent", "list/ok"}, rec.ops)
}

func TestDelete_UnknownAndBlankIDs(t *testing.T) {
	svc, _, _ := newTestService(t)

	assert.NoError(t, svc.Delete(context.Background(), "99999"))
	assert.NoError(t, svc.Delete(context.Background(), ""))
}

// =========================================================================
// STORAGE FAILURES
// =========================================================================

func TestStorageFailuresPropagate(t *testing.T) {
	boom := errors.New("disk on fire")
	rec := &fakeRecorder{}
	svc := NewItemService(failingRepo{err: boom}, rec, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	_, err := svc.ListAll(ctx)
	assert.ErrorIs(t, err, boom)

	_, err = svc.Create(ctx, "task")
	assert.ErrorIs(t, err, boom)

	_, err = svc.Update(ctx, "id", nil, false)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, apperror.ErrNotFound)

	err = svc.Delete(ctx, "id")
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"list/error", "create/error", "update/error", "delete/error"}, rec.ops)
}

func TestNilRecorder(t *testing.T) {
	svc := NewItemService(memory.New(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Create(context.Background(), "task")
	assert.NoError(t, err)
}
