package chunking

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/docpipe/core"
)

var paragraphSep = regexp.MustCompile(`\n\s*\n`)

// paragraphStrategy packs blank-line-separated paragraphs greedily into
// chunks of at most TargetSize runes. A paragraph that exceeds TargetSize on
// its own is delegated to the fixed-size walk and tagged as a split.
type paragraphStrategy struct{}

func (paragraphStrategy) Name() core.Strategy { return core.StrategyByParagraph }

func (paragraphStrategy) Split(text string, cfg core.ChunkConfig) []core.Chunk {
	var paragraphs []string
	for _, p := range paragraphSep.Split(text, -1) {
		if s := strings.TrimSpace(p); s != "" {
			paragraphs = append(paragraphs, s)
		}
	}

	var chunks []core.Chunk
	current := ""
	start := 0

	for _, para := range paragraphs {
		potential := para
		if current != "" {
			potential = current + "\n\n" + para
		}

		if utf8.RuneCountInString(potential) <= cfg.TargetSize {
			current = potential
			continue
		}

		if current != "" && utf8.RuneCountInString(current) >= cfg.MinSize {
			chunks = append(chunks, packedChunk(current, start, core.StrategyByParagraph))
			start += utf8.RuneCountInString(current) + 2
		}

		if utf8.RuneCountInString(para) > cfg.TargetSize {
			chunks = append(chunks, splitFixed([]rune(para), start, cfg, core.StrategyParagraphSplit)...)
			start += utf8.RuneCountInString(para) + 2
			current = ""
		} else {
			current = para
		}
	}

	if current != "" && utf8.RuneCountInString(current) >= cfg.MinSize {
		chunks = append(chunks, packedChunk(current, start, core.StrategyByParagraph))
	}

	return chunks
}

// packedChunk builds a chunk from already-assembled text at a given offset.
func packedChunk(text string, start int, tag core.Strategy) core.Chunk {
	return core.Chunk{
		Text:        text,
		StartOffset: start,
		EndOffset:   start + utf8.RuneCountInString(text),
		Strategy:    tag,
	}
}
