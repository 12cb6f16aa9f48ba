// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package versioning

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/docpipe/core"
	"github.com/poiesic/docpipe/storage"
)

// Manager maintains the version lineage of documents: content-hash
// deduplication, monotonically increasing version numbers, status
// transitions, and the per-document latest-version pointer.
type Manager struct {
	versions  storage.VersionRepository
	documents storage.DocumentRepository
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewManager creates a version manager over the given repositories.
func NewManager(versions storage.VersionRepository, documents storage.DocumentRepository, opts ...Option) (*Manager, error) {
	if versions == nil {
		return nil, ErrVersionRepositoryRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	m := &Manager{
		versions:  versions,
		documents: documents,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// DocumentID derives the stable document identifier from a filename: the
// lowercased basename with the extension removed. Re-ingesting a file with
// the same name always lands in the same lineage.
func DocumentID(filename string) string {
	base := filepath.Base(filename)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// versionID derives the version identifier from the document identity and
// the leading bytes of the content hash.
func versionID(documentID, contentHash string) string {
	short := contentHash
	if len(short) > 8 {
		short = short[:8]
	}
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(documentID + "_" + short))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// CreateVersion reads the file at filePath and registers it as a version of
// the document named by originalFilename. See CreateVersionFromContent.
func (m *Manager) CreateVersion(ctx context.Context, filePath, originalFilename string, metadata map[string]any, parentVersion string) (*core.DocumentVersion, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return m.CreateVersionFromContent(ctx, content, filePath, originalFilename, metadata, parentVersion)
}

// CreateVersionFromContent registers content as a version of the document
// named by originalFilename. If any version with the same content hash
// already exists, that version is returned unchanged and no new version is
// created.
func (m *Manager) CreateVersionFromContent(ctx context.Context, content []byte, filePath, originalFilename string, metadata map[string]any, parentVersion string) (*core.DocumentVersion, error) {
	contentHash := core.HashContent(content)

	existing, err := m.versions.FindVersionByHash(ctx, contentHash)
	if err == nil {
		m.logger.Info("version already exists for content",
			"content_hash", contentHash[:8],
			"version_id", existing.VersionID)
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	documentID := DocumentID(originalFilename)

	siblings, err := m.versions.GetDocumentVersions(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if metadata == nil {
		metadata = map[string]any{}
	}

	version := &core.DocumentVersion{
		VersionID:        versionID(documentID, contentHash),
		DocumentID:       documentID,
		VersionNumber:    nextVersionNumber(siblings),
		ContentHash:      contentHash,
		FilePath:         filePath,
		OriginalFilename: originalFilename,
		FileSize:         int64(len(content)),
		CreatedAt:        time.Now().UTC(),
		Status:           core.VersionActive,
		Metadata:         metadata,
		ParentVersion:    parentVersion,
	}

	if err := m.versions.PutVersion(ctx, version); err != nil {
		return nil, err
	}

	record, err := m.documents.GetDocument(ctx, documentID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		record = &core.DocumentRecord{
			DocumentID:       documentID,
			OriginalFilename: originalFilename,
			CreatedAt:        version.CreatedAt,
			LatestVersion:    version.VersionID,
			VersionCount:     1,
		}
	case err != nil:
		return nil, err
	default:
		record.LatestVersion = version.VersionID
		record.VersionCount++
	}
	if err := m.documents.PutDocument(ctx, record); err != nil {
		return nil, err
	}

	m.logger.Info("version created",
		"version_id", version.VersionID,
		"document_id", documentID,
		"version_number", version.VersionNumber)

	return version, nil
}

// GetVersion retrieves a version by ID.
func (m *Manager) GetVersion(ctx context.Context, versionID string) (*core.DocumentVersion, error) {
	version, err := m.versions.GetVersion(ctx, versionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, versionID)
	}
	return version, err
}

// FindVersionByHash retrieves the version holding the given content hash,
// or nil when none exists.
func (m *Manager) FindVersionByHash(ctx context.Context, contentHash string) (*core.DocumentVersion, error) {
	version, err := m.versions.FindVersionByHash(ctx, contentHash)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return version, err
}

// GetDocumentVersions returns all versions of a document, newest first.
func (m *Manager) GetDocumentVersions(ctx context.Context, documentID string) ([]*core.DocumentVersion, error) {
	return m.versions.GetDocumentVersions(ctx, documentID)
}

// ListVersions returns every stored version across all documents.
func (m *Manager) ListVersions(ctx context.Context) ([]*core.DocumentVersion, error) {
	return m.versions.ListVersions(ctx)
}

// GetLatestVersion returns the most recent version of a document, or nil
// when the document has no versions.
func (m *Manager) GetLatestVersion(ctx context.Context, documentID string) (*core.DocumentVersion, error) {
	versions, err := m.versions.GetDocumentVersions(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	return versions[0], nil
}

// UpdateProcessingInfo records the processing outcome on a version and
// derives its status from it: active on success, error on failure.
func (m *Manager) UpdateProcessingInfo(ctx context.Context, versionID string, result *core.ProcessingResult) error {
	version, err := m.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}

	version.ProcessingInfo = result
	if result.Success {
		version.Status = core.VersionActive
	} else {
		version.Status = core.VersionError
	}

	if err := m.versions.PutVersion(ctx, version); err != nil {
		return err
	}

	m.logger.Info("processing info updated", "version_id", versionID, "success", result.Success)
	return nil
}

// ArchiveVersion marks a version as archived.
func (m *Manager) ArchiveVersion(ctx context.Context, versionID string) error {
	return m.setStatus(ctx, versionID, core.VersionArchived)
}

// DeprecateVersion marks a version as deprecated.
func (m *Manager) DeprecateVersion(ctx context.Context, versionID string) error {
	return m.setStatus(ctx, versionID, core.VersionDeprecated)
}

func (m *Manager) setStatus(ctx context.Context, versionID string, status core.VersionStatus) error {
	version, err := m.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}

	version.Status = status
	if err := m.versions.PutVersion(ctx, version); err != nil {
		return err
	}

	m.logger.Info("version status changed", "version_id", versionID, "status", status)
	return nil
}

// DeleteVersion removes a version. The document record is repaired: the
// version count drops, the latest-version pointer moves to the next newest
// version, and the record itself is removed with the last version. When
// deleteFile is set the underlying file is removed as well; a failure there
// is logged, not returned.
func (m *Manager) DeleteVersion(ctx context.Context, versionID string, deleteFile bool) error {
	version, err := m.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}

	if deleteFile && version.FilePath != "" {
		if err := os.Remove(version.FilePath); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("failed to remove version file", "path", version.FilePath, "error", err)
		}
	}

	if err := m.versions.DeleteVersion(ctx, versionID); err != nil {
		return err
	}

	record, err := m.documents.GetDocument(ctx, version.DocumentID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	record.VersionCount--
	if record.LatestVersion == versionID {
		remaining, err := m.versions.GetDocumentVersions(ctx, version.DocumentID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			if err := m.documents.DeleteDocument(ctx, version.DocumentID); err != nil {
				return err
			}
			m.logger.Info("version deleted", "version_id", versionID, "document_removed", true)
			return nil
		}
		record.LatestVersion = remaining[0].VersionID
	}

	if err := m.documents.PutDocument(ctx, record); err != nil {
		return err
	}

	m.logger.Info("version deleted", "version_id", versionID)
	return nil
}

// CleanupOldVersions deletes versions of a document beyond the keepCount
// newest. Active versions are never deleted. Files of deleted versions are
// removed from disk.
func (m *Manager) CleanupOldVersions(ctx context.Context, documentID string, keepCount int) error {
	versions, err := m.versions.GetDocumentVersions(ctx, documentID)
	if err != nil {
		return err
	}

	if len(versions) <= keepCount {
		m.logger.Info("no old versions to remove",
			"document_id", documentID, "versions", len(versions))
		return nil
	}

	for _, version := range versions[keepCount:] {
		if version.Status == core.VersionActive {
			continue
		}
		if err := m.DeleteVersion(ctx, version.VersionID, true); err != nil {
			return err
		}
		m.logger.Info("old version removed", "version_id", version.VersionID)
	}

	return nil
}

// Statistics summarizes the version store.
type Statistics struct {
	TotalDocuments     int                        `json:"total_documents"`
	TotalVersions      int                        `json:"total_versions"`
	StatusDistribution map[core.VersionStatus]int `json:"status_distribution"`
	TotalStorageSize   int64                      `json:"total_storage_size"`
	ProcessedVersions  int                        `json:"processed_versions"`
	ProcessingRate     float64                    `json:"processing_rate"`
}

// GetStatistics computes store-wide version statistics.
func (m *Manager) GetStatistics(ctx context.Context) (*Statistics, error) {
	versions, err := m.versions.ListVersions(ctx)
	if err != nil {
		return nil, err
	}
	documents, err := m.documents.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		TotalDocuments: len(documents),
		TotalVersions:  len(versions),
		StatusDistribution: map[core.VersionStatus]int{
			core.VersionActive:     0,
			core.VersionArchived:   0,
			core.VersionDeprecated: 0,
			core.VersionProcessing: 0,
			core.VersionError:      0,
		},
	}

	for _, v := range versions {
		stats.StatusDistribution[v.Status]++
		stats.TotalStorageSize += v.FileSize
		if v.ProcessingInfo != nil {
			stats.ProcessedVersions++
		}
	}
	if len(versions) > 0 {
		stats.ProcessingRate = float64(stats.ProcessedVersions) / float64(len(versions))
	}

	return stats, nil
}
