package chunking

import (
	"strings"

	"github.com/poiesic/docpipe/core"
)

// fixedSizeStrategy walks the text in windows of TargetSize runes,
// optionally shifting each window end back to the nearest newline or space.
// Consecutive windows share Overlap runes.
type fixedSizeStrategy struct{}

func (fixedSizeStrategy) Name() core.Strategy { return core.StrategyFixedSize }

func (fixedSizeStrategy) Split(text string, cfg core.ChunkConfig) []core.Chunk {
	return splitFixed([]rune(text), 0, cfg, core.StrategyFixedSize)
}

// splitFixed is the fixed-size walk shared with the paragraph and sentence
// fallbacks. base shifts all offsets, tag sets the strategy recorded on the
// produced chunks.
func splitFixed(runes []rune, base int, cfg core.ChunkConfig, tag core.Strategy) []core.Chunk {
	n := len(runes)

	// Text that fits in one window is returned whole, even below MinSize.
	if n <= cfg.TargetSize {
		return []core.Chunk{{
			Text:        string(runes),
			StartOffset: base,
			EndOffset:   base + n,
			Strategy:    tag,
		}}
	}

	var chunks []core.Chunk
	start := 0

	for start < n {
		end := start + cfg.TargetSize
		if end > n {
			end = n
		}

		// Not the last window: prefer breaking after the last newline or
		// space, unless that lands too close to the window start.
		if end < n && cfg.PreserveBoundaries {
			if bp := lastBreak(runes, start, end); bp > start+cfg.MinSize {
				end = bp + 1
			}
		}

		chunkText := strings.TrimSpace(string(runes[start:end]))
		if len([]rune(chunkText)) >= cfg.MinSize {
			chunks = append(chunks, core.Chunk{
				Text:        chunkText,
				StartOffset: base + start,
				EndOffset:   base + end,
				Strategy:    tag,
			})
		}

		next := end - cfg.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// lastBreak returns the index of the last newline or space in runes[start:end),
// or -1 when there is none.
func lastBreak(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == '\n' || runes[i] == ' ' {
			return i
		}
	}
	return -1
}
