package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "sessions.db"), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SetGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "sender-1", []byte(`{"turn":1}`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, found, err := store.Get(ctx, "sender-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("expected key to be found")
	}
	if string(value) != `{"turn":1}` {
		t.Errorf("value = %s", value)
	}
}

func TestSQLiteStore_Overwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.Set(ctx, "sender-1", []byte(`{"turn":1}`), time.Minute)
	if err := store.Set(ctx, "sender-1", []byte(`{"turn":2}`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, _, _ := store.Get(ctx, "sender-1")
	if string(value) != `{"turn":2}` {
		t.Errorf("value = %s, want last write", value)
	}
}

func TestSQLiteStore_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	if err := store.Set(ctx, "sender-1", []byte(`{}`), 600*time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	now = now.Add(599 * time.Second)
	if _, found, _ := store.Get(ctx, "sender-1"); !found {
		t.Fatal("expected key before expiry")
	}

	now = now.Add(time.Second)
	if _, found, _ := store.Get(ctx, "sender-1"); found {
		t.Fatal("expected key to be expired")
	}
}

func TestSQLiteStore_PurgesExpiredOnWrite(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_ = store.Set(ctx, "old", []byte(`{}`), time.Second)
	now = now.Add(time.Minute)
	_ = store.Set(ctx, "new", []byte(`{}`), time.Minute)

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("rows = %d, want 1 after purge", count)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.Set(ctx, "sender-1", []byte(`{}`), time.Minute)
	if err := store.Delete(ctx, "sender-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := store.Get(ctx, "sender-1"); found {
		t.Error("expected key to be deleted")
	}
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Set(ctx, "sender-1", []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, found, err := store.Get(ctx, "sender-1"); err != nil || !found {
		t.Errorf("Get() found = %v, err = %v", found, err)
	}
}
