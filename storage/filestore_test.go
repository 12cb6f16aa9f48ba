package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestFileSnapshotStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "snapshot.json")
	store, err := NewFileSnapshotStore(path)
	if err != nil {
		t.Fatalf("NewFileSnapshotStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if _, err := store.LoadSnapshot(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadSnapshot() on empty store error = %v, want ErrNotFound", err)
	}

	if err := store.SaveSnapshot(ctx, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if err := store.SaveSnapshot(ctx, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("SaveSnapshot() overwrite error = %v", err)
	}

	data, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if string(data) != `{"a":2}` {
		t.Errorf("LoadSnapshot() = %s, want latest snapshot", data)
	}
}
