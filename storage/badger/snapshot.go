package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docpipe/storage"
)

// SnapshotStore implements storage.SnapshotStore on top of a Backend.
// The snapshot lives under a single fixed key.
type SnapshotStore struct {
	backend *Backend
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a snapshot store over the backend.
func NewSnapshotStore(backend *Backend) (*SnapshotStore, error) {
	return &SnapshotStore{backend: backend}, nil
}

// SaveSnapshot durably replaces the stored snapshot.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, data []byte) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(snapshotKey), data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadSnapshot returns the stored snapshot.
func (s *SnapshotStore) LoadSnapshot(ctx context.Context) ([]byte, error) {
	var data []byte

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(snapshotKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			data = append(data, val...)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// Close releases resources held by the store.
func (s *SnapshotStore) Close() error {
	return nil
}
