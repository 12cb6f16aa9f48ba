package chunking

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/docpipe/core"
)

// sentenceStrategy packs sentences greedily into chunks of at most
// TargetSize runes. A sentence boundary is a run of sentence-ending
// punctuation followed by whitespace and an uppercase letter. A sentence
// larger than TargetSize is delegated to the fixed-size walk and tagged as
// a split.
type sentenceStrategy struct{}

func (sentenceStrategy) Name() core.Strategy { return core.StrategyBySentence }

func (sentenceStrategy) Split(text string, cfg core.ChunkConfig) []core.Chunk {
	sentences := splitSentences(text)

	var chunks []core.Chunk
	current := ""
	start := 0

	for _, sentence := range sentences {
		potential := sentence
		if current != "" {
			potential = current + " " + sentence
		}

		if utf8.RuneCountInString(potential) <= cfg.TargetSize {
			current = potential
			continue
		}

		if current != "" && utf8.RuneCountInString(current) >= cfg.MinSize {
			chunks = append(chunks, packedChunk(current, start, core.StrategyBySentence))
			start += utf8.RuneCountInString(current) + 1
		}

		if utf8.RuneCountInString(sentence) > cfg.TargetSize {
			chunks = append(chunks, splitFixed([]rune(sentence), start, cfg, core.StrategySentenceSplit)...)
			start += utf8.RuneCountInString(sentence) + 1
			current = ""
		} else {
			current = sentence
		}
	}

	if current != "" && utf8.RuneCountInString(current) >= cfg.MinSize {
		chunks = append(chunks, packedChunk(current, start, core.StrategyBySentence))
	}

	return chunks
}

// splitSentences splits text on punctuation boundaries. The boundary is a
// run of '.', '!' or '?' followed by whitespace and an uppercase letter;
// the whitespace is consumed, the punctuation stays with its sentence.
func splitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	segStart := 0

	i := 0
	for i < len(runes) {
		if !isSentenceEnd(runes[i]) {
			i++
			continue
		}

		// Consume the punctuation run.
		end := i + 1
		for end < len(runes) && isSentenceEnd(runes[end]) {
			end++
		}

		// Require whitespace, then an uppercase letter.
		ws := end
		for ws < len(runes) && unicode.IsSpace(runes[ws]) {
			ws++
		}
		if ws == end || ws >= len(runes) || !unicode.IsUpper(runes[ws]) {
			i = end
			continue
		}

		if s := strings.TrimSpace(string(runes[segStart:end])); s != "" {
			sentences = append(sentences, s)
		}
		segStart = ws
		i = ws
	}

	if s := strings.TrimSpace(string(runes[segStart:])); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
