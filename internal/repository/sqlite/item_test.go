package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sakif/tasklist/internal/model"
	"github.com/sakif/tasklist/internal/repository"
	"github.com/sakif/tasklist/internal/repository/repotest"
)

// newTestDB opens a fresh in-memory database. t.Cleanup closes it when the
// test (or subtest) finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store {
		return newTestDB(t)
	})
}

func TestCreate_RejectsOverlongTextAtSchemaLevel(t *testing.T) {
	db := newTestDB(t)

	item := &model.Item{Text: strings.Repeat("a", model.MaxTextLength+1)}
	if err := db.Create(context.Background(), item); err == nil {
		t.Fatal("Create() should fail the CHECK constraint for text over the bound")
	}

	items, err := db.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("List() returned %d items after rejected insert, want 0", len(items))
	}
}

// TestPersistence_ReopenFile checks that a file-backed database keeps its
// rows, including the completed flag, across a close and reopen.
func TestPersistence_ReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasklist.db")
	ctx := context.Background()

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	first := &model.Item{Text: "first"}
	second := &model.Item{Text: "second"}
	if err := db.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := db.Create(ctx, second); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second.Completed = true
	if err := db.Update(ctx, second); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { reopened.Close() })

	items, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("List() returned %d items, want 2", len(items))
	}
	if items[0].ID != second.ID || !items[0].Completed {
		t.Errorf("items[0] = %+v, want completed %q first", items[0], second.ID)
	}
	if items[1].ID != first.ID || items[1].Completed {
		t.Errorf("items[1] = %+v, want incomplete %q", items[1], first.ID)
	}
}

// TestList_TiesUseInsertionOrder writes rows with identical timestamps
// directly, bypassing Create, to exercise the seq tiebreaker.
func TestList_TiesUseInsertionOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ts := "2026-01-02 03:04:05"
	for _, id := range []string{"a", "b", "c"} {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO items (id, text, created_at, completed) VALUES (?, ?, ?, 0)`,
			id, "task "+id, ts,
		); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	items, err := db.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	got := []string{items[0].ID, items[1].ID, items[2].ID}
	want := []string{"c", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List() order = %v, want %v", got, want)
		}
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{":memory:", ":memory:"},
		{"data/tasklist.db", "data/tasklist.db?_pragma=busy_timeout(5000)"},
		{"data/x.db?_pragma=foreign_keys(1)", "data/x.db?_pragma=foreign_keys(1)"},
	}
	for _, tt := range tests {
		if got := dsn(tt.in); got != tt.want {
			t.Errorf("dsn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
