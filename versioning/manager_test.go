package versioning

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/docpipe/core"
	"github.com/poiesic/docpipe/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	versionRepo, documentRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		versionRepo.Close()
		documentRepo.Close()
		backend.Close()
	})

	m, err := NewManager(versionRepo, documentRepo)
	require.NoError(t, err)
	return m
}

// createContentVersion registers content under filename, pausing briefly so
// creation timestamps stay strictly ordered.
func createContentVersion(t *testing.T, m *Manager, content, filename string) *core.DocumentVersion {
	t.Helper()

	v, err := m.CreateVersionFromContent(context.Background(), []byte(content), "/tmp/"+filename, filename, nil, "")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	return v
}

func TestNewManager_RequiresRepositories(t *testing.T) {
	_, err := NewManager(nil, nil)
	assert.ErrorIs(t, err, ErrVersionRepositoryRequired)
}

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "manual", DocumentID("Manual.PDF"))
	assert.Equal(t, "manual", DocumentID("/some/dir/manual.txt"))
	assert.Equal(t, "release notes", DocumentID("Release Notes.md"))
}

func TestCreateVersion_First(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	v := createContentVersion(t, m, "hello world", "doc.txt")

	assert.Equal(t, "1.0.0", v.VersionNumber)
	assert.Equal(t, "doc", v.DocumentID)
	assert.Equal(t, core.VersionActive, v.Status)
	assert.Equal(t, int64(len("hello world")), v.FileSize)
	assert.Len(t, v.VersionID, 16)

	latest, err := m.GetLatestVersion(ctx, "doc")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, v.VersionID, latest.VersionID)
}

func TestCreateVersion_DuplicateContent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first := createContentVersion(t, m, "same content", "doc.txt")
	second := createContentVersion(t, m, "same content", "doc.txt")

	assert.Equal(t, first.VersionID, second.VersionID)
	assert.Equal(t, "1.0.0", second.VersionNumber)

	versions, err := m.GetDocumentVersions(ctx, "doc")
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestCreateVersion_ModifiedContent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first := createContentVersion(t, m, "content one", "doc.txt")
	second := createContentVersion(t, m, "content two", "doc.txt")

	assert.NotEqual(t, first.VersionID, second.VersionID)
	assert.Equal(t, "1.0.0", first.VersionNumber)
	assert.Equal(t, "1.0.1", second.VersionNumber)

	latest, err := m.GetLatestVersion(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, second.VersionID, latest.VersionID)

	versions, err := m.GetDocumentVersions(ctx, "doc")
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestCreateVersion_FromFile(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("report body"), 0o644))

	v, err := m.CreateVersion(ctx, path, "report.txt", map[string]any{"source": "unit"}, "")
	require.NoError(t, err)
	assert.Equal(t, "report", v.DocumentID)
	assert.Equal(t, path, v.FilePath)
	assert.Equal(t, "unit", v.Metadata["source"])
}

func TestUpdateProcessingInfo(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	v := createContentVersion(t, m, "some content", "doc.txt")

	err := m.UpdateProcessingInfo(ctx, v.VersionID, &core.ProcessingResult{
		VersionID:   v.VersionID,
		ChunksCount: 5,
		Success:     true,
	})
	require.NoError(t, err)

	got, err := m.GetVersion(ctx, v.VersionID)
	require.NoError(t, err)
	assert.Equal(t, core.VersionActive, got.Status)
	require.NotNil(t, got.ProcessingInfo)
	assert.Equal(t, 5, got.ProcessingInfo.ChunksCount)

	err = m.UpdateProcessingInfo(ctx, v.VersionID, &core.ProcessingResult{
		VersionID:    v.VersionID,
		Success:      false,
		ErrorMessage: "parse failed",
	})
	require.NoError(t, err)

	got, err = m.GetVersion(ctx, v.VersionID)
	require.NoError(t, err)
	assert.Equal(t, core.VersionError, got.Status)
}

func TestStatusTransitions(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	v := createContentVersion(t, m, "archive me", "doc.txt")

	require.NoError(t, m.ArchiveVersion(ctx, v.VersionID))
	got, err := m.GetVersion(ctx, v.VersionID)
	require.NoError(t, err)
	assert.Equal(t, core.VersionArchived, got.Status)

	require.NoError(t, m.DeprecateVersion(ctx, v.VersionID))
	got, err = m.GetVersion(ctx, v.VersionID)
	require.NoError(t, err)
	assert.Equal(t, core.VersionDeprecated, got.Status)

	assert.ErrorIs(t, m.ArchiveVersion(ctx, "missing"), ErrVersionNotFound)
}

func TestDeleteVersion_RepairsLatestPointer(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first := createContentVersion(t, m, "v one", "doc.txt")
	second := createContentVersion(t, m, "v two", "doc.txt")

	require.NoError(t, m.DeleteVersion(ctx, second.VersionID, false))

	latest, err := m.GetLatestVersion(ctx, "doc")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, first.VersionID, latest.VersionID)

	// Deleting the last version removes the document entirely.
	require.NoError(t, m.DeleteVersion(ctx, first.VersionID, false))
	latest, err = m.GetLatestVersion(ctx, "doc")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestCleanupOldVersions_SkipsActive(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var ids []string
	for _, content := range []string{"one", "two", "three", "four"} {
		v := createContentVersion(t, m, content, "doc.txt")
		ids = append(ids, v.VersionID)
	}

	// Archive the two oldest; leave the third active.
	require.NoError(t, m.ArchiveVersion(ctx, ids[0]))
	require.NoError(t, m.ArchiveVersion(ctx, ids[1]))

	require.NoError(t, m.CleanupOldVersions(ctx, "doc", 1))

	versions, err := m.GetDocumentVersions(ctx, "doc")
	require.NoError(t, err)

	// Newest kept, active third kept, archived two removed.
	require.Len(t, versions, 2)
	assert.Equal(t, ids[3], versions[0].VersionID)
	assert.Equal(t, ids[2], versions[1].VersionID)
}

func TestDiff(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	v1, err := m.CreateVersionFromContent(ctx, []byte("short"), "", "doc.txt", map[string]any{"lang": "en"}, "")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	v2, err := m.CreateVersionFromContent(ctx, []byte("a longer body"), "", "doc.txt", map[string]any{"lang": "pt"}, "")
	require.NoError(t, err)

	diff, err := m.Diff(ctx, v1.VersionID, v2.VersionID)
	require.NoError(t, err)

	assert.True(t, diff.ContentChanged)
	assert.True(t, diff.SizeChanged)
	assert.Equal(t, int64(len("a longer body")-len("short")), diff.SizeDiff)
	assert.True(t, diff.NewerSecond)
	require.Contains(t, diff.Metadata, "lang")
	assert.Equal(t, "en", diff.Metadata["lang"].Version1)
	assert.Equal(t, "pt", diff.Metadata["lang"].Version2)
}

func TestHistory(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first := createContentVersion(t, m, "one", "doc.txt")
	second := createContentVersion(t, m, "two", "doc.txt")

	require.NoError(t, m.UpdateProcessingInfo(ctx, second.VersionID, &core.ProcessingResult{Success: true}))

	history, err := m.History(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, second.VersionID, history[0].VersionID)
	assert.True(t, history[0].HasProcessingInfo)
	assert.Equal(t, first.VersionID, history[1].VersionID)
	assert.False(t, history[1].HasProcessingInfo)
}

func TestGetStatistics(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	v1 := createContentVersion(t, m, "alpha", "a.txt")
	createContentVersion(t, m, "beta", "b.txt")

	require.NoError(t, m.UpdateProcessingInfo(ctx, v1.VersionID, &core.ProcessingResult{Success: true}))

	stats, err := m.GetStatistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 2, stats.TotalVersions)
	assert.Equal(t, 2, stats.StatusDistribution[core.VersionActive])
	assert.Equal(t, int64(len("alpha")+len("beta")), stats.TotalStorageSize)
	assert.Equal(t, 1, stats.ProcessedVersions)
	assert.InDelta(t, 0.5, stats.ProcessingRate, 0.001)
}

func TestNextVersionNumber(t *testing.T) {
	assert.Equal(t, "1.0.0", nextVersionNumber(nil))

	versions := []*core.DocumentVersion{
		{VersionNumber: "1.0.0"},
		{VersionNumber: "1.0.2"},
		{VersionNumber: "not-a-version"},
	}
	assert.Equal(t, "1.0.3", nextVersionNumber(versions))

	versions = []*core.DocumentVersion{
		{VersionNumber: "2.1.0"},
		{VersionNumber: "1.9.9"},
	}
	assert.Equal(t, "2.1.1", nextVersionNumber(versions))

	versions = []*core.DocumentVersion{{VersionNumber: "garbage"}}
	assert.Equal(t, "1.0.0", nextVersionNumber(versions))
}
