package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/docpipe/core"
)

// Records are stored as JSON. The encoding is self-describing and stable
// across schema additions, which matters more here than byte economy:
// version records are written once and read rarely.

// MarshalVersion serializes a version record.
func MarshalVersion(version *core.DocumentVersion) ([]byte, error) {
	data, err := json.Marshal(version)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalVersion deserializes a version record.
func UnmarshalVersion(data []byte) (*core.DocumentVersion, error) {
	var version core.DocumentVersion
	if err := json.Unmarshal(data, &version); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &version, nil
}

// MarshalDocument serializes a document record.
func MarshalDocument(record *core.DocumentRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalDocument deserializes a document record.
func UnmarshalDocument(data []byte) (*core.DocumentRecord, error) {
	var record core.DocumentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}
