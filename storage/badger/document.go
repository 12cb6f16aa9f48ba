package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docpipe/core"
	"github.com/poiesic/docpipe/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutDocument stores a document record.
func (r *DocumentRepository) PutDocument(ctx context.Context, record *core.DocumentRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := storage.MarshalDocument(record)
		if err != nil {
			return err
		}
		if err := tx.Set(makeDocumentKey(record.DocumentID), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a document record by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, documentID string) (*core.DocumentRecord, error) {
	var record *core.DocumentRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(documentID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalDocument(val)
			return err
		})
	}, false)

	return record, err
}

// ListDocuments retrieves every document record.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.DocumentRecord, error) {
	var records []*core.DocumentRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalDocument(val)
				if err != nil {
					return err
				}
				records = append(records, record)
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

	return records, nil
}

// DeleteDocument removes a document record.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, documentID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(documentID)
		if _, err := tx.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
