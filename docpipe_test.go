package docpipe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docpipe/pipeline"
)

func TestOpen(t *testing.T) {
	t.Run("create new store", func(t *testing.T) {
		store, err := Open(filepath.Join(t.TempDir(), "test_store"))
		require.NoError(t, err)
		require.NotNil(t, store)
		defer store.Close()

		assert.NotNil(t, store.VersionManager())
		assert.NotNil(t, store.ProgressTracker())
		assert.NotNil(t, store.VersionRepository())
		assert.NotNil(t, store.DocumentRepository())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0o644))

		store, err := Open(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("in-memory backend", func(t *testing.T) {
		store, err := Open("", WithInMemoryBackend())
		require.NoError(t, err)
		require.NoError(t, store.Close())
	})
}

func TestStore_EndToEnd(t *testing.T) {
	store, err := Open("", WithInMemoryBackend())
	require.NoError(t, err)
	defer store.Close()

	pl, err := store.NewPipeline(pipeline.DefaultConfig())
	require.NoError(t, err)
	defer pl.Release()

	content := []byte("The quarterly summary lists each project milestone. " +
		"Every team reported progress against the agreed plan. " +
		"The next review happens at the end of the month.")
	result := pl.IngestDocument(context.Background(), content, "summary.txt", nil)
	require.True(t, result.Success, "error: %s", result.ErrorMessage)
	require.NotNil(t, result.Version)
	assert.Equal(t, "1.0.0", result.Version.VersionNumber)

	// The version is queryable through the shared manager.
	version, err := store.VersionManager().GetVersion(context.Background(), result.Version.VersionID)
	require.NoError(t, err)
	assert.Equal(t, "summary.txt", version.OriginalFilename)

	// Tracking state is visible through the shared tracker.
	doc, err := store.ProgressTracker().GetDocumentProgress(result.TrackingID)
	require.NoError(t, err)
	assert.Equal(t, "summary.txt", doc.Filename)
}

func TestStore_PersistenceAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	store, err := Open(dir)
	require.NoError(t, err)

	pl, err := store.NewPipeline(pipeline.DefaultConfig())
	require.NoError(t, err)

	content := []byte("Persistent content survives process restarts and reopen cycles. " +
		"It is written once and read back afterwards.")
	result := pl.IngestDocument(context.Background(), content, "durable.txt", nil)
	require.True(t, result.Success, "error: %s", result.ErrorMessage)
	versionID := result.Version.VersionID
	trackingID := result.TrackingID

	pl.Release()
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	version, err := reopened.VersionManager().GetVersion(context.Background(), versionID)
	require.NoError(t, err)
	assert.Equal(t, "durable.txt", version.OriginalFilename)

	doc, err := reopened.ProgressTracker().GetDocumentProgress(trackingID)
	require.NoError(t, err)
	assert.Equal(t, "durable.txt", doc.Filename)
}
