package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/poiesic/docpipe/core"
)

// Tolerances for chunk size and overlap checks. Both are heuristic bounds,
// kept as named constants rather than invariants.
const (
	chunkSizeTolerance = 1.5
	overlapTolerance   = 0.2
)

// chunkRuleCount is the number of per-chunk rules; overlap pairs are
// counted separately so a flawless chunking scores exactly 1.0.
const chunkRuleCount = 4

// ChunkValidator checks chunker output against the configuration that
// produced it.
type ChunkValidator struct {
	cfg core.ChunkConfig
}

// NewChunkValidator creates a chunk validator for the given configuration.
func NewChunkValidator(cfg core.ChunkConfig) *ChunkValidator {
	return &ChunkValidator{cfg: cfg}
}

// ValidateChunks validates a chunk sequence. An empty sequence is CRITICAL
// and short-circuits with a zero score.
func (v *ChunkValidator) ValidateChunks(chunks []core.Chunk) *Result {
	started := time.Now()

	if len(chunks) == 0 {
		issues := []Issue{{
			RuleName: "chunk_not_empty",
			Severity: SeverityCritical,
			Message:  "no chunks were generated",
			Details:  map[string]any{"chunks_count": 0},
		}}
		return newResult(LevelBasic, issues, chunkRuleCount, 0, started)
	}

	totalChecks := chunkRuleCount * len(chunks)
	if len(chunks) > 1 {
		totalChecks += len(chunks) - 1
	}

	var issues []Issue
	passed := 0

	for i, chunk := range chunks {
		location := fmt.Sprintf("Chunk %d", i)

		// Emptiness.
		if strings.TrimSpace(chunk.Text) == "" {
			issues = append(issues, Issue{
				RuleName: "chunk_not_empty",
				Severity: SeverityCritical,
				Message:  fmt.Sprintf("chunk %d is empty", i),
				Details:  map[string]any{"chunk_index": i, "chunk_id": chunk.ID},
				Location: location,
			})
		} else {
			passed++
		}

		// Size bounds.
		size := chunk.Len()
		switch {
		case size < v.cfg.MinSize:
			issues = append(issues, Issue{
				RuleName: "chunk_size_limits",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("chunk %d too small: %d characters", i, size),
				Details:  map[string]any{"chunk_index": i, "chunk_size": size, "min_size": v.cfg.MinSize},
				Location: location,
			})
		case float64(size) > float64(v.cfg.TargetSize)*chunkSizeTolerance:
			issues = append(issues, Issue{
				RuleName: "chunk_size_limits",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("chunk %d too large: %d characters", i, size),
				Details:  map[string]any{"chunk_index": i, "chunk_size": size, "target_size": v.cfg.TargetSize},
				Location: location,
			})
		default:
			passed++
		}

		// Positional metadata.
		switch {
		case len(chunk.Metadata) == 0:
			issues = append(issues, Issue{
				RuleName: "metadata_consistency",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("chunk %d has no metadata", i),
				Details:  map[string]any{"chunk_index": i},
				Location: location,
			})
		case chunk.StartOffset < 0 || chunk.EndOffset <= chunk.StartOffset:
			issues = append(issues, Issue{
				RuleName: "metadata_consistency",
				Severity: SeverityError,
				Message:  fmt.Sprintf("chunk %d has incoherent offsets: [%d, %d)", i, chunk.StartOffset, chunk.EndOffset),
				Details:  map[string]any{"chunk_index": i, "start_offset": chunk.StartOffset, "end_offset": chunk.EndOffset},
				Location: location,
			})
		default:
			passed++
		}

		// Sentence coherence: a chunk ending mid-sentence is informational.
		if endsCoherently(chunk.Text) {
			passed++
		} else {
			issues = append(issues, Issue{
				RuleName:     "content_coherence",
				Severity:     SeverityInfo,
				Message:      fmt.Sprintf("chunk %d may end mid-sentence", i),
				Details:      map[string]any{"chunk_index": i},
				Location:     location,
				SuggestedFix: "adjust chunk boundaries to end at punctuation",
			})
		}
	}

	// Pairwise overlap between consecutive chunks.
	if len(chunks) > 1 {
		expected := float64(v.cfg.Overlap)
		tolerance := expected * overlapTolerance

		for i := 0; i < len(chunks)-1; i++ {
			cur, next := chunks[i], chunks[i+1]
			location := fmt.Sprintf("Chunks %d-%d", i, i+1)

			if next.StartOffset < cur.EndOffset {
				overlap := float64(cur.EndOffset - next.StartOffset)
				if math.Abs(overlap-expected) > tolerance {
					issues = append(issues, Issue{
						RuleName: "overlap_validation",
						Severity: SeverityWarning,
						Message: fmt.Sprintf("inconsistent overlap between chunks %d and %d: %.0f chars (expected: %.0f)",
							i, i+1, overlap, expected),
						Details: map[string]any{
							"chunk_1":          i,
							"chunk_2":          i + 1,
							"actual_overlap":   overlap,
							"expected_overlap": expected,
						},
						Location: location,
					})
				} else {
					passed++
				}
			} else if v.cfg.Overlap > 0 {
				issues = append(issues, Issue{
					RuleName: "overlap_validation",
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("no overlap between chunks %d and %d", i, i+1),
					Details:  map[string]any{"chunk_1": i, "chunk_2": i + 1},
					Location: location,
				})
			} else {
				passed++
			}
		}
	}

	return newResult(LevelStandard, issues, totalChecks, passed, started)
}

// endsCoherently reports whether text plausibly ends a sentence or clause.
func endsCoherently(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || len(strings.Fields(text)) <= 1 {
		return true
	}
	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") ||
		strings.HasSuffix(text, "?") || strings.HasSuffix(text, ";") ||
		strings.HasSuffix(text, ":") || strings.HasSuffix(text, ")") ||
		strings.HasSuffix(text, "]") || strings.HasSuffix(text, "}")
}
