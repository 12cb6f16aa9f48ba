package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Content validator limits.
const (
	minContentLength = 10
	maxContentLength = 10_000_000

	minWordRatio         = 0.7
	maxSpecialCharsRatio = 0.3
	maxEmptyLineRatio    = 0.7
)

const contentCheckCount = 6

var (
	wordPattern    = regexp.MustCompile(`\b\w+\b`)
	specialPattern = regexp.MustCompile(`[^\w\s.,!?;:\-\(\)\[\]{}"']`)
)

// ContentValidator checks text extracted from a document: emptiness, length
// bounds, lexical quality, language, encoding, and gross structure.
type ContentValidator struct{}

// NewContentValidator creates a content validator.
func NewContentValidator() *ContentValidator {
	return &ContentValidator{}
}

// ValidateContent validates extracted text. Empty or whitespace-only
// content is CRITICAL and short-circuits the remaining checks with a zero
// score.
func (v *ContentValidator) ValidateContent(content string) *Result {
	started := time.Now()

	var issues []Issue
	passed := 0

	if strings.TrimSpace(content) == "" {
		issues = append(issues, Issue{
			RuleName: "content_not_empty",
			Severity: SeverityCritical,
			Message:  "content is empty or whitespace only",
			Details:  map[string]any{"content_length": len(content)},
		})
		return newResult(LevelBasic, issues, contentCheckCount, passed, started)
	}
	passed++

	content = strings.TrimSpace(content)
	length := utf8.RuneCountInString(content)

	// Length bounds.
	switch {
	case length < minContentLength:
		issues = append(issues, Issue{
			RuleName: "content_length",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("content too short: %d characters (minimum: %d)", length, minContentLength),
			Details:  map[string]any{"content_length": length, "min_length": minContentLength},
		})
	case length > maxContentLength:
		issues = append(issues, Issue{
			RuleName: "content_length",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("content too long: %d characters (maximum: %d)", length, maxContentLength),
			Details:  map[string]any{"content_length": length, "max_length": maxContentLength},
		})
	default:
		passed++
	}

	// Lexical quality: proportion of word-forming characters vs. special
	// characters.
	totalChars := length
	wordChars := 0
	for _, w := range wordPattern.FindAllString(content, -1) {
		wordChars += utf8.RuneCountInString(w)
	}
	wordRatio := float64(wordChars) / float64(totalChars)
	specialRatio := float64(len(specialPattern.FindAllString(content, -1))) / float64(totalChars)

	switch {
	case wordRatio < minWordRatio:
		issues = append(issues, Issue{
			RuleName:     "text_quality",
			Severity:     SeverityWarning,
			Message:      fmt.Sprintf("low word ratio: %.2f (minimum: %.2f)", wordRatio, minWordRatio),
			Details:      map[string]any{"word_ratio": wordRatio, "min_word_ratio": minWordRatio},
			SuggestedFix: "check that the document was extracted correctly",
		})
	case specialRatio > maxSpecialCharsRatio:
		issues = append(issues, Issue{
			RuleName: "text_quality",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("too many special characters: %.2f (maximum: %.2f)", specialRatio, maxSpecialCharsRatio),
			Details:  map[string]any{"special_chars_ratio": specialRatio, "max_special_chars_ratio": maxSpecialCharsRatio},
		})
	default:
		passed++
	}

	// Language detection is informative only and never fails the check.
	if lang := detectLanguage(content); lang != "" {
		issues = append(issues, Issue{
			RuleName: "language_detection",
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("detected language: %s", lang),
			Details:  map[string]any{"detected_language": lang},
		})
	}
	passed++

	// Encoding round-trip.
	if utf8.ValidString(content) {
		passed++
	} else {
		issues = append(issues, Issue{
			RuleName:     "encoding_consistency",
			Severity:     SeverityError,
			Message:      "content contains invalid UTF-8 sequences",
			SuggestedFix: "check the encoding of the original file",
		})
	}

	// Structure: a mostly-blank body usually means a broken extraction.
	lines := strings.Split(content, "\n")
	empty := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			empty++
		}
	}
	emptyRatio := float64(empty) / float64(len(lines))
	if emptyRatio > maxEmptyLineRatio {
		issues = append(issues, Issue{
			RuleName:     "structure_integrity",
			Severity:     SeverityWarning,
			Message:      fmt.Sprintf("too many empty lines: %.0f%% of the content", emptyRatio*100),
			Details:      map[string]any{"empty_lines_ratio": emptyRatio},
			SuggestedFix: "check that the document was extracted correctly",
		})
	} else {
		passed++
	}

	return newResult(LevelStandard, issues, contentCheckCount, passed, started)
}

// detectLanguage makes a rough stopword-based guess, good enough for an
// informative issue. Returns "" when no guess clears the bar.
func detectLanguage(content string) string {
	stopwords := map[string][]string{
		"en": {" the ", " and ", " of ", " to ", " is ", " in "},
		"pt": {" de ", " que ", " não ", " uma ", " para ", " com "},
		"es": {" el ", " la ", " los ", " una ", " por ", " como "},
	}

	sample := " " + strings.ToLower(content) + " "
	if len(sample) > 4096 {
		sample = sample[:4096]
	}

	best, bestHits := "", 0
	for lang, words := range stopwords {
		hits := 0
		for _, w := range words {
			hits += strings.Count(sample, w)
		}
		if hits > bestHits {
			best, bestHits = lang, hits
		}
	}

	if bestHits < 3 {
		return ""
	}
	return best
}
