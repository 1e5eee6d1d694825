package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openStoreForTest(t *testing.T) *Store {
	t.Helper()

	store := openRawStoreForTest(t, filepath.Join(t.TempDir(), "cart.db"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func openRawStoreForTest(t *testing.T, path string) *Store {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
