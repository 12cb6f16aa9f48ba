package versioning

import (
	"context"
	"reflect"
	"time"

	"github.com/poiesic/docpipe/core"
)

// VersionSummary identifies one side of a diff.
type VersionSummary struct {
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	CreatedAt   time.Time `json:"created_at"`
	FileSize    int64     `json:"file_size"`
	ContentHash string    `json:"content_hash"`
}

// MetadataChange holds the two values of a metadata key that differs.
type MetadataChange struct {
	Version1 any `json:"version1"`
	Version2 any `json:"version2"`
}

// VersionDiff describes how two versions differ.
type VersionDiff struct {
	Version1       VersionSummary            `json:"version1"`
	Version2       VersionSummary            `json:"version2"`
	ContentChanged bool                      `json:"content_changed"`
	SizeChanged    bool                      `json:"size_changed"`
	SizeDiff       int64                     `json:"size_diff"`
	NewerSecond    bool                      `json:"newer_second"`
	Metadata       map[string]MetadataChange `json:"metadata_differences"`
}

// Diff compares two versions by ID.
func (m *Manager) Diff(ctx context.Context, versionID1, versionID2 string) (*VersionDiff, error) {
	v1, err := m.GetVersion(ctx, versionID1)
	if err != nil {
		return nil, err
	}
	v2, err := m.GetVersion(ctx, versionID2)
	if err != nil {
		return nil, err
	}

	diff := &VersionDiff{
		Version1:       summarize(v1),
		Version2:       summarize(v2),
		ContentChanged: v1.ContentHash != v2.ContentHash,
		SizeChanged:    v1.FileSize != v2.FileSize,
		SizeDiff:       v2.FileSize - v1.FileSize,
		NewerSecond:    v2.CreatedAt.After(v1.CreatedAt),
		Metadata:       map[string]MetadataChange{},
	}

	keys := map[string]struct{}{}
	for k := range v1.Metadata {
		keys[k] = struct{}{}
	}
	for k := range v2.Metadata {
		keys[k] = struct{}{}
	}
	for k := range keys {
		val1, val2 := v1.Metadata[k], v2.Metadata[k]
		if !reflect.DeepEqual(val1, val2) {
			diff.Metadata[k] = MetadataChange{Version1: val1, Version2: val2}
		}
	}

	return diff, nil
}

func summarize(v *core.DocumentVersion) VersionSummary {
	return VersionSummary{
		ID:          v.VersionID,
		Number:      v.VersionNumber,
		CreatedAt:   v.CreatedAt,
		FileSize:    v.FileSize,
		ContentHash: v.ContentHash,
	}
}

// HistoryEntry is one row of a document's version history.
type HistoryEntry struct {
	VersionID         string             `json:"version_id"`
	VersionNumber     string             `json:"version_number"`
	CreatedAt         time.Time          `json:"created_at"`
	Status            core.VersionStatus `json:"status"`
	FileSize          int64              `json:"file_size"`
	HasProcessingInfo bool               `json:"has_processing_info"`
	ParentVersion     string             `json:"parent_version,omitempty"`
}

// History returns the version history of a document, newest first.
func (m *Manager) History(ctx context.Context, documentID string) ([]HistoryEntry, error) {
	versions, err := m.versions.GetDocumentVersions(ctx, documentID)
	if err != nil {
		return nil, err
	}

	history := make([]HistoryEntry, 0, len(versions))
	for _, v := range versions {
		history = append(history, HistoryEntry{
			VersionID:         v.VersionID,
			VersionNumber:     v.VersionNumber,
			CreatedAt:         v.CreatedAt,
			Status:            v.Status,
			FileSize:          v.FileSize,
			HasProcessingInfo: v.ProcessingInfo != nil,
			ParentVersion:     v.ParentVersion,
		})
	}

	return history, nil
}
