package pipeline

import (
	"github.com/poiesic/docpipe/core"
)

// Config controls pipeline behavior.
type Config struct {
	// Chunking holds the chunker configuration.
	Chunking core.ChunkConfig

	// EnableVersioning persists a DocumentVersion per ingested document.
	EnableVersioning bool

	// EnableValidation runs the full validation suite on every document.
	EnableValidation bool

	// StopOnValidationError aborts ingestion before versioning when the
	// aggregate validation result is invalid.
	StopOnValidationError bool

	// EnableDeduplication short-circuits ingestion when byte-identical
	// content is already versioned.
	EnableDeduplication bool

	// ArchiveOldVersions prunes version history beyond
	// MaxVersionsPerDocument after each successful ingestion.
	ArchiveOldVersions bool

	// MaxVersionsPerDocument bounds retained versions per document when
	// ArchiveOldVersions is set.
	MaxVersionsPerDocument int
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Chunking:               core.DefaultChunkConfig(),
		EnableVersioning:       true,
		EnableValidation:       true,
		StopOnValidationError:  false,
		EnableDeduplication:    true,
		ArchiveOldVersions:     true,
		MaxVersionsPerDocument: 5,
	}
}
