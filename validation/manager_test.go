package validation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/docpipe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ValidPipeline(t *testing.T) {
	cfg := core.ChunkConfig{TargetSize: 100, Overlap: 20, MinSize: 10, Strategy: core.StrategyFixedSize}
	m, err := NewManager(cfg)
	require.NoError(t, err)

	content := "This is a well formed document with plain readable text. It contains several sentences of content."
	path := writeTempFile(t, "doc.txt", content)

	results := m.ValidateFullPipeline(path, content, perfectChunks(cfg), map[string]any{
		"filename":   "doc.txt",
		"file_size":  int64(len(content)),
		"created_at": "2026-01-02T10:00:00Z",
	})

	require.Len(t, results, 4)
	for component, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0, component)
		assert.LessOrEqual(t, r.Score, 1.0, component)
	}

	assert.True(t, m.IsPipelineValid(results))
	assert.Empty(t, m.CriticalIssues(results))

	score := m.OverallScore(results)
	assert.Greater(t, score, 0.8)
	assert.LessOrEqual(t, score, 1.0)
}

func TestManager_EmptyContentIsCritical(t *testing.T) {
	cfg := core.DefaultChunkConfig()
	m, err := NewManager(cfg)
	require.NoError(t, err)

	path := writeTempFile(t, "empty.txt", "")
	results := m.ValidateFullPipeline(path, "", nil, map[string]any{})

	assert.False(t, m.IsPipelineValid(results))
	critical := m.CriticalIssues(results)
	assert.NotEmpty(t, critical)

	report := m.BuildReport(results)
	assert.False(t, report.IsValid)
	assert.Contains(t, report.Recommendations, "CRITICAL: resolve critical issues in content")
	assert.Contains(t, report.Recommendations, "CRITICAL: resolve critical issues in chunks")
}

func TestManager_ReportAggregation(t *testing.T) {
	cfg := core.ChunkConfig{TargetSize: 100, Overlap: 20, MinSize: 10, Strategy: core.StrategyFixedSize}
	m, err := NewManager(cfg)
	require.NoError(t, err)

	content := "This is a well formed document with plain readable text in it."
	path := writeTempFile(t, "doc.txt", content)

	results := m.ValidateFullPipeline(path, content, perfectChunks(cfg), map[string]any{
		"filename":   "doc.txt",
		"file_size":  int64(len(content)),
		"created_at": "2026-01-02T10:00:00Z",
	})
	report := m.BuildReport(results)

	assert.Len(t, report.ComponentScores, 4)
	assert.Len(t, report.ComponentValidity, 4)
	assert.InDelta(t, m.OverallScore(results), report.OverallScore, 0.0001)
	assert.Equal(t, m.IsPipelineValid(results), report.IsValid)
}

func TestManager_ExportHistory(t *testing.T) {
	cfg := core.DefaultChunkConfig()
	m, err := NewManager(cfg)
	require.NoError(t, err)

	content := "History export test content with a few words in it."
	path := writeTempFile(t, "doc.txt", content)
	m.ValidateFullPipeline(path, content, nil, map[string]any{})

	out := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, m.ExportHistory(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var history []HistoryEntry
	require.NoError(t, json.Unmarshal(data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, path, history[0].FilePath)
}
