package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.Set(ctx, "grades.selected_system", "font"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "grades.selected_system", "vscale"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	value, found, err := store.Get(ctx, "grades.selected_system")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || value != "vscale" {
		t.Fatalf("get = %q, %v, want vscale, true", value, found)
	}
}

func TestGetMissingKey(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	value, found, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found || value != "" {
		t.Fatalf("get = %q, %v, want absent", value, found)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if _, found, _ := store.Get(ctx, "k"); found {
		t.Fatal("expected key to be deleted")
	}
}

func TestSetRejectsEmptyKey(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.Set(context.Background(), " ", "v"); err == nil {
		t.Fatal("expected empty key error")
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := store.Get(ctx, "k"); err == nil {
		t.Fatal("expected canceled context error")
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "grades.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set(context.Background(), "k", "persisted"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	value, found, err := reopened.Get(context.Background(), "k")
	if err != nil || !found || value != "persisted" {
		t.Fatalf("get after reopen = %q, %v, %v", value, found, err)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "grades.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
