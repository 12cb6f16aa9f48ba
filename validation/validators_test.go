package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/docpipe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDocumentValidator_MissingFile(t *testing.T) {
	v := NewDocumentValidator()

	result := v.ValidateFile("/nonexistent/missing.txt")

	assert.False(t, result.IsValid)
	assert.Equal(t, 0.0, result.Score)
	assert.True(t, result.HasCriticalIssues())
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "file_exists", result.Issues[0].RuleName)
}

func TestDocumentValidator_ValidFile(t *testing.T) {
	v := NewDocumentValidator()
	path := writeTempFile(t, "notes.txt", "Plain readable text content for validation.")

	result := v.ValidateFile(path)

	assert.True(t, result.IsValid, "issues: %+v", result.Issues)
	assert.Equal(t, 1.0, result.Score)
	assert.Empty(t, result.Issues)
}

func TestDocumentValidator_UnsupportedType(t *testing.T) {
	v := NewDocumentValidator()
	path := writeTempFile(t, "binary.bin", "payload")

	result := v.ValidateFile(path)

	assert.False(t, result.IsValid)
	assert.True(t, result.HasErrors())
	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 1.0)
}

func TestDocumentValidator_EmptyFile(t *testing.T) {
	v := NewDocumentValidator()
	path := writeTempFile(t, "empty.txt", "")

	result := v.ValidateFile(path)

	// Zero bytes is a size warning, not a failure.
	assert.True(t, result.IsValid)
	assert.Equal(t, 1, result.Warnings)
}

func TestContentValidator_Empty(t *testing.T) {
	v := NewContentValidator()

	for _, content := range []string{"", "   \n\t  "} {
		result := v.ValidateContent(content)
		assert.False(t, result.IsValid)
		assert.Equal(t, 0.0, result.Score)
		assert.True(t, result.HasCriticalIssues())
	}
}

func TestContentValidator_GoodText(t *testing.T) {
	v := NewContentValidator()

	result := v.ValidateContent("This is a reasonable piece of document text with ordinary words and structure. " +
		"It has enough length and the characters are mostly word forming.")

	assert.True(t, result.IsValid, "issues: %+v", result.Issues)
	assert.GreaterOrEqual(t, result.Score, 0.8)
}

func TestContentValidator_TooShort(t *testing.T) {
	v := NewContentValidator()

	result := v.ValidateContent("tiny")

	assert.True(t, result.IsValid) // warnings only
	assert.GreaterOrEqual(t, result.Warnings, 1)
	hasLength := false
	for _, issue := range result.Issues {
		if issue.RuleName == "content_length" {
			hasLength = true
		}
	}
	assert.True(t, hasLength)
}

func TestContentValidator_MostlyBlank(t *testing.T) {
	v := NewContentValidator()

	content := "line one here\n\n\n\n\n\n\n\n\n\n\n\n\nline two here"
	result := v.ValidateContent(content)

	found := false
	for _, issue := range result.Issues {
		if issue.RuleName == "structure_integrity" {
			found = true
		}
	}
	assert.True(t, found, "issues: %+v", result.Issues)
}

func perfectChunks(cfg core.ChunkConfig) []core.Chunk {
	// Two chunks with exact configured overlap, sized within bounds and
	// ending at punctuation.
	text := strings.Repeat("word ", 15) + "end."
	return []core.Chunk{
		{
			ID: "doc.txt__chunk_0000", Text: text,
			StartOffset: 0, EndOffset: 100,
			Index: 0, TotalChunks: 2,
			Metadata: map[string]any{"doc_metadata": map[string]any{}},
		},
		{
			ID: "doc.txt__chunk_0001", Text: text,
			StartOffset: 100 - cfg.Overlap, EndOffset: 180 - cfg.Overlap,
			Index: 1, TotalChunks: 2,
			Metadata: map[string]any{"doc_metadata": map[string]any{}},
		},
	}
}

func TestChunkValidator_PerfectChunks(t *testing.T) {
	cfg := core.ChunkConfig{TargetSize: 100, Overlap: 20, MinSize: 10, Strategy: core.StrategyFixedSize}
	v := NewChunkValidator(cfg)

	result := v.ValidateChunks(perfectChunks(cfg))

	assert.True(t, result.IsValid, "issues: %+v", result.Issues)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, 9, result.TotalChecks) // 4 rules x 2 chunks + 1 overlap pair
}

func TestChunkValidator_NoChunks(t *testing.T) {
	v := NewChunkValidator(core.DefaultChunkConfig())

	result := v.ValidateChunks(nil)

	assert.False(t, result.IsValid)
	assert.Equal(t, 0.0, result.Score)
	assert.True(t, result.HasCriticalIssues())
}

func TestChunkValidator_EmptyChunk(t *testing.T) {
	cfg := core.ChunkConfig{TargetSize: 100, Overlap: 0, MinSize: 10, Strategy: core.StrategyFixedSize}
	v := NewChunkValidator(cfg)

	chunks := []core.Chunk{{
		ID: "x__chunk_0000", Text: "   ",
		StartOffset: 0, EndOffset: 3,
		Metadata: map[string]any{"k": "v"},
	}}
	result := v.ValidateChunks(chunks)

	assert.False(t, result.IsValid)
	assert.True(t, result.HasCriticalIssues())
}

func TestChunkValidator_OversizeAndMissingOverlap(t *testing.T) {
	cfg := core.ChunkConfig{TargetSize: 50, Overlap: 10, MinSize: 5, Strategy: core.StrategyFixedSize}
	v := NewChunkValidator(cfg)

	big := strings.Repeat("a", 100) + "."
	chunks := []core.Chunk{
		{Text: big, StartOffset: 0, EndOffset: 101, Metadata: map[string]any{"k": "v"}},
		{Text: "short tail here.", StartOffset: 150, EndOffset: 166, Metadata: map[string]any{"k": "v"}},
	}
	result := v.ValidateChunks(chunks)

	var rules []string
	for _, issue := range result.Issues {
		rules = append(rules, issue.RuleName)
	}
	assert.Contains(t, rules, "chunk_size_limits")
	assert.Contains(t, rules, "overlap_validation")
	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 1.0)
}

func TestMetadataValidator_Valid(t *testing.T) {
	v := NewMetadataValidator()

	result := v.ValidateMetadata(map[string]any{
		"filename":   "doc.txt",
		"file_size":  int64(1234),
		"created_at": "2026-01-02T10:00:00Z",
		"word_count": 200,
		"emails":     []string{"user@example.com"},
		"urls":       []string{"https://example.com/page"},
		"language":   "en",
		"keywords":   []string{"doc"},
	})

	assert.True(t, result.IsValid, "issues: %+v", result.Issues)
	assert.Equal(t, 1.0, result.Score)
}

func TestMetadataValidator_MissingRequired(t *testing.T) {
	v := NewMetadataValidator()

	result := v.ValidateMetadata(map[string]any{"filename": "doc.txt"})

	assert.False(t, result.IsValid)
	assert.True(t, result.HasErrors())
	require.NotEmpty(t, result.Issues)
	assert.Equal(t, "required_fields", result.Issues[0].RuleName)
}

func TestMetadataValidator_BadTypesAndFormats(t *testing.T) {
	v := NewMetadataValidator()

	result := v.ValidateMetadata(map[string]any{
		"filename":   "doc.txt",
		"file_size":  "not-a-number",
		"created_at": "2026-01-02T10:00:00Z",
		"emails":     []string{"not-an-email"},
		"phones":     []string{"abc"},
	})

	assert.False(t, result.IsValid)

	var rules []string
	for _, issue := range result.Issues {
		rules = append(rules, issue.RuleName)
	}
	assert.Contains(t, rules, "field_types")
	assert.Contains(t, rules, "emails_format")
	assert.Contains(t, rules, "phones_format")
}
