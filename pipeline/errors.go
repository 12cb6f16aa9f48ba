package pipeline

import "errors"

var (
	// ErrVersionManagerRequired is returned when versioning is enabled
	// without a version manager.
	ErrVersionManagerRequired = errors.New("version manager is required when versioning is enabled")
)
