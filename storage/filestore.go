package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// FileSnapshotStore is a SnapshotStore backed by a single file on disk.
// Writes go through a temp file and rename, so a crash mid-write leaves the
// previous snapshot intact.
type FileSnapshotStore struct {
	mu   sync.Mutex
	path string
}

var _ SnapshotStore = (*FileSnapshotStore)(nil)

// NewFileSnapshotStore creates a file-backed snapshot store at path,
// creating parent directories as needed.
func NewFileSnapshotStore(path string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &FileSnapshotStore{path: path}, nil
}

// SaveSnapshot atomically replaces the stored snapshot.
func (s *FileSnapshotStore) SaveSnapshot(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// LoadSnapshot returns the stored snapshot, or ErrNotFound when no
// snapshot has been saved yet.
func (s *FileSnapshotStore) LoadSnapshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Close is a no-op for the file store.
func (s *FileSnapshotStore) Close() error {
	return nil
}
