package versioning

import "errors"

var (
	// ErrVersionRepositoryRequired indicates no version repository was provided.
	ErrVersionRepositoryRequired = errors.New("version repository is required")

	// ErrDocumentRepositoryRequired indicates no document repository was provided.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrVersionNotFound indicates the requested version does not exist.
	ErrVersionNotFound = errors.New("version not found")
)
