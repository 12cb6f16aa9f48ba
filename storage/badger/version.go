package badger

import (
	"bytes"
	"context"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docpipe/core"
	"github.com/poiesic/docpipe/storage"
)

// VersionRepository implements storage.VersionRepository for BadgerDB.
type VersionRepository struct {
	backend *Backend
}

var _ storage.VersionRepository = (*VersionRepository)(nil)

// NewVersionRepository creates a new VersionRepository.
func NewVersionRepository(backend *Backend) (*VersionRepository, error) {
	return &VersionRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *VersionRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *VersionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutVersion stores a version record and maintains the content-hash and
// per-document indices.
func (r *VersionRepository) PutVersion(ctx context.Context, version *core.DocumentVersion) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := storage.MarshalVersion(version)
		if err != nil {
			return err
		}

		if err := tx.Set(makeVersionKey(version.VersionID), value); err != nil {
			return err
		}
		if err := tx.Set(makeVersionHashKey(version.ContentHash), []byte(version.VersionID)); err != nil {
			return err
		}
		if err := tx.Set(makeVersionDocKey(version.DocumentID, version.VersionID), []byte(version.VersionID)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// GetVersion retrieves a version by ID.
func (r *VersionRepository) GetVersion(ctx context.Context, versionID string) (*core.DocumentVersion, error) {
	var version *core.DocumentVersion

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		version, err = readVersion(tx, makeVersionKey(versionID))
		return err
	}, false)

	return version, err
}

// FindVersionByHash retrieves the version holding the given content hash.
func (r *VersionRepository) FindVersionByHash(ctx context.Context, contentHash string) (*core.DocumentVersion, error) {
	var version *core.DocumentVersion

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVersionHashKey(contentHash))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var versionID string
		if err := item.Value(func(val []byte) error {
			versionID = string(val)
			return nil
		}); err != nil {
			return err
		}

		version, err = readVersion(tx, makeVersionKey(versionID))
		return err
	}, false)

	return version, err
}

// GetDocumentVersions retrieves all versions of a document, newest first.
func (r *VersionRepository) GetDocumentVersions(ctx context.Context, documentID string) ([]*core.DocumentVersion, error) {
	var versions []*core.DocumentVersion

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeVersionDocScanPrefix(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var versionID string
			if err := iter.Item().Value(func(val []byte) error {
				versionID = string(val)
				return nil
			}); err != nil {
				return err
			}

			version, err := readVersion(tx, makeVersionKey(versionID))
			if err != nil {
				return err
			}
			versions = append(versions, version)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].CreatedAt.After(versions[j].CreatedAt)
	})

	return versions, nil
}

// ListVersions retrieves every stored version.
func (r *VersionRepository) ListVersions(ctx context.Context) ([]*core.DocumentVersion, error) {
	var versions []*core.DocumentVersion

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(versionPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				version, err := storage.UnmarshalVersion(val)
				if err != nil {
					return err
				}
				versions = append(versions, version)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return versions, nil
}

// DeleteVersion removes a version and its index entries.
func (r *VersionRepository) DeleteVersion(ctx context.Context, versionID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeVersionKey(versionID)
		version, err := readVersion(tx, key)
		if err != nil {
			return err
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		if err := tx.Delete(makeVersionDocKey(version.DocumentID, versionID)); err != nil {
			return err
		}

		// Drop the hash index entry only if it still points at this version.
		hashKey := makeVersionHashKey(version.ContentHash)
		if item, err := tx.Get(hashKey); err == nil {
			var indexed []byte
			if err := item.Value(func(val []byte) error {
				indexed = append(indexed, val...)
				return nil
			}); err != nil {
				return err
			}
			if bytes.Equal(indexed, []byte(versionID)) {
				if err := tx.Delete(hashKey); err != nil {
					return err
				}
			}
		}

		return tx.Commit()
	}, true)
}

// readVersion reads and deserializes a version record within a transaction.
func readVersion(tx *badger.Txn, key []byte) (*core.DocumentVersion, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var version *core.DocumentVersion
	err = item.Value(func(val []byte) error {
		version, err = storage.UnmarshalVersion(val)
		return err
	})
	if err != nil {
		return nil, err
	}

	return version, nil
}
