package storage

import (
	"context"

	"github.com/poiesic/docpipe/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// VersionRepository provides operations for managing document versions.
type VersionRepository interface {
	Repository

	// PutVersion stores a version record, overwriting any existing record
	// with the same VersionID. Maintains the content-hash and per-document
	// indices.
	PutVersion(ctx context.Context, version *core.DocumentVersion) error

	// GetVersion retrieves a version by ID.
	// Returns ErrNotFound if the version doesn't exist.
	GetVersion(ctx context.Context, versionID string) (*core.DocumentVersion, error)

	// FindVersionByHash retrieves the version holding the given content hash.
	// Returns ErrNotFound if no version with that hash exists.
	FindVersionByHash(ctx context.Context, contentHash string) (*core.DocumentVersion, error)

	// GetDocumentVersions retrieves all versions of a document,
	// newest first. Returns an empty slice for an unknown document.
	GetDocumentVersions(ctx context.Context, documentID string) ([]*core.DocumentVersion, error)

	// ListVersions retrieves every stored version, in no particular order.
	ListVersions(ctx context.Context) ([]*core.DocumentVersion, error)

	// DeleteVersion removes a version and its index entries.
	// Returns ErrNotFound if the version doesn't exist.
	DeleteVersion(ctx context.Context, versionID string) error
}

// DocumentRepository provides operations for the per-document index records.
type DocumentRepository interface {
	Repository

	// PutDocument stores a document record, overwriting any existing record
	// with the same DocumentID.
	PutDocument(ctx context.Context, record *core.DocumentRecord) error

	// GetDocument retrieves a document record by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, documentID string) (*core.DocumentRecord, error)

	// ListDocuments retrieves every document record.
	ListDocuments(ctx context.Context) ([]*core.DocumentRecord, error)

	// DeleteDocument removes a document record.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, documentID string) error
}

// SnapshotStore persists an opaque state snapshot. It backs the progress
// tracker's crash recovery: the tracker serializes its state and expects to
// read the same bytes back after a restart.
type SnapshotStore interface {
	// SaveSnapshot durably replaces the stored snapshot.
	SaveSnapshot(ctx context.Context, data []byte) error

	// LoadSnapshot returns the stored snapshot.
	// Returns ErrNotFound when no snapshot has been saved.
	LoadSnapshot(ctx context.Context) ([]byte, error)

	// Close releases resources held by the store.
	Close() error
}
