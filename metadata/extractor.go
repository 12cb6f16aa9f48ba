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

// Package metadata extracts structured metadata from document text:
// text statistics, entities (emails, phones, URLs, dates), keyword
// frequency analysis, automatic categorization, and structural markers.
// The extractor is stateless and safe for concurrent use.
package metadata

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/docpipe/core"
)

const (
	maxDocumentKeywords = 10
	maxChunkKeywords    = 5
	minKeywordLength    = 3
	minKeywordFrequency = 2
	readingWordsPerMin  = 200
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?\(?\d{2}\)?[-.\s]?\d{4,5}[-.\s]?\d{4}`)
	urlPattern   = regexp.MustCompile(`https?://[A-Za-z0-9$\-_@.&+!*(),%/?#=~:;]+`)
	datePattern  = regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2})\b`)

	wordPattern       = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	paragraphPattern  = regexp.MustCompile(`\n\s*\n`)

	headerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^#{1,6}\s+`),
		regexp.MustCompile(`(?m)^.+\n={3,}`),
		regexp.MustCompile(`(?m)^.+\n-{3,}`),
	}
	listPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*[-*+]\s+`),
		regexp.MustCompile(`(?m)^\s*\d+\.\s+`),
		regexp.MustCompile(`(?m)^\s*[a-z]\)\s+`),
	}
	tablePattern = regexp.MustCompile(`\|.*\|.*\|`)
	codePatterns = []*regexp.Regexp{
		regexp.MustCompile("(?s)```.*?```"),
		regexp.MustCompile("`[^`]+`"),
		regexp.MustCompile(`(?m)^[ \t]{4,}\S`),
	}
)

// categoryKeywords maps a category label to the terms that vote for it.
// Portuguese terms are kept alongside English ones since the corpora this
// was built against mix both languages.
var categoryKeywords = map[string][]string{
	"policy":      {"policy", "politica", "procedure", "procedimento", "norma", "regulation", "guidelines", "diretrizes"},
	"financial":   {"budget", "orcamento", "financial", "financeiro", "cost", "custo", "revenue", "receita", "expense", "despesa", "accounting"},
	"hr":          {"human resources", "recursos humanos", "rh", "employee", "funcionario", "colaborador", "benefits", "beneficios", "salary", "salario"},
	"technical":   {"development", "desenvolvimento", "system", "sistema", "api", "code", "codigo", "technology", "tecnologia", "infrastructure", "infraestrutura"},
	"legal":       {"contract", "contrato", "legal", "juridico", "compliance", "regulamentacao"},
	"operational": {"process", "processo", "operation", "operacao", "workflow", "manual"},
}

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"o", "a", "os", "as", "um", "uma", "uns", "umas", "de", "da", "do", "das", "dos",
		"em", "na", "no", "nas", "nos", "por", "para", "com", "sem", "que", "se", "como",
		"mas", "ou", "e", "sao", "foi", "foram", "sera", "serao", "tem",
		"the", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with",
		"by", "from", "up", "about", "into", "through", "during", "before", "after",
		"above", "below", "between", "among", "that", "this", "these", "those",
		"is", "are", "was", "were", "be", "been", "has", "have", "had", "not",
	} {
		stopWords[w] = struct{}{}
	}
}

// Extractor derives metadata from document and chunk text.
type Extractor struct {
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithLogger sets the logger used by the extractor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		e.logger = logger
		return nil
	}
}

// NewExtractor creates a metadata extractor.
func NewExtractor(opts ...Option) (*Extractor, error) {
	e := &Extractor{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ExtractMetadata builds the full metadata map for a document. docMetadata
// carries parser output (filename, file_size and similar); userMetadata is
// optional caller-supplied context (category, department, tags).
func (e *Extractor) ExtractMetadata(text string, docMetadata, userMetadata map[string]any) map[string]any {
	md := map[string]any{
		"filename":     stringField(docMetadata, "filename", "unknown"),
		"file_size":    numericField(docMetadata, "file_size"),
		"created_at":   time.Now().UTC().Format(time.RFC3339),
		"content_hash": contentHash(text),
	}

	for k, v := range textStats(text) {
		md[k] = v
	}
	for k, v := range extractEntities(text) {
		md[k] = v
	}
	for k, v := range analyzeStructure(text) {
		md[k] = v
	}

	md["auto_category"] = classify(text)
	md["extracted_keywords"] = extractKeywords(text, maxDocumentKeywords)
	md["parser_metadata"] = docMetadata

	if userMetadata != nil {
		md["user_category"] = userMetadata["category"]
		md["department"] = userMetadata["department"]
		md["user_tags"] = asStringList(userMetadata["tags"])
		md["custom_metadata"] = userMetadata
	}

	md["all_tags"] = combineTags(md)

	e.logger.Debug("metadata extracted",
		"filename", md["filename"],
		"keywords", len(md["extracted_keywords"].([]string)),
	)
	return md
}

// EnrichChunkMetadata augments a chunk's metadata with per-chunk statistics,
// entities, keywords, structure markers, and a relevance score relative to
// the parent document.
func (e *Extractor) EnrichChunkMetadata(chunkText string, chunkMetadata, docMetadata map[string]any) map[string]any {
	enriched := make(map[string]any, len(chunkMetadata)+16)
	for k, v := range chunkMetadata {
		enriched[k] = v
	}

	for k, v := range textStats(chunkText) {
		enriched[k] = v
	}
	for k, v := range extractEntities(chunkText) {
		enriched[k] = v
	}
	for k, v := range analyzeStructure(chunkText) {
		enriched[k] = v
	}

	enriched["chunk_keywords"] = extractKeywords(chunkText, maxChunkKeywords)
	enriched["document_metadata"] = map[string]any{
		"filename":          docMetadata["filename"],
		"document_category": docMetadata["auto_category"],
		"document_tags":     asStringList(docMetadata["all_tags"]),
	}
	enriched["relevance_score"] = chunkRelevance(chunkText, docMetadata)

	return enriched
}

// ValidateMetadata normalizes an extracted metadata map: numeric fields are
// clamped to non-negative integers, list fields that are not lists become
// empty lists, and empty string fields become nil. Unknown fields pass
// through unchanged.
func (e *Extractor) ValidateMetadata(md map[string]any) map[string]any {
	validated := make(map[string]any, len(md))

	for _, field := range []string{"filename", "created_at", "content_hash"} {
		if v, ok := md[field]; ok {
			validated[field] = v
		} else {
			e.logger.Warn("required metadata field missing", "field", field)
		}
	}

	for _, field := range []string{"char_count", "word_count", "line_count", "file_size"} {
		if v, ok := md[field]; ok {
			n, ok := asInt(v)
			if !ok {
				e.logger.Warn("invalid numeric metadata value", "field", field, "value", v)
				n = 0
			}
			if n < 0 {
				n = 0
			}
			validated[field] = n
		}
	}

	for _, field := range []string{"emails", "phones", "urls", "dates", "extracted_keywords", "all_tags"} {
		if v, ok := md[field]; ok {
			validated[field] = asStringList(v)
		}
	}

	for _, field := range []string{"auto_category", "department", "language"} {
		if v, ok := md[field]; ok {
			if s, isStr := v.(string); isStr && s != "" {
				validated[field] = s
			} else if v == nil || (isStr && v == "") {
				validated[field] = nil
			} else {
				validated[field] = v
			}
		}
	}

	for k, v := range md {
		if _, done := validated[k]; !done {
			validated[k] = v
		}
	}
	return validated
}

// contentHash hashes whitespace-normalized lowercased text so trivially
// reformatted documents dedupe to the same version.
func contentHash(text string) string {
	normalized := whitespacePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
	return core.HashContent([]byte(normalized))
}

func textStats(text string) map[string]any {
	lines := strings.Split(text, "\n")
	words := strings.Fields(text)

	noSpaces := 0
	for _, r := range text {
		if !isSpace(r) {
			noSpaces++
		}
	}

	paragraphCount := 0
	for _, p := range paragraphPattern.Split(strings.TrimSpace(text), -1) {
		if strings.TrimSpace(p) != "" {
			paragraphCount++
		}
	}

	divisor := paragraphCount
	if divisor < 1 {
		divisor = 1
	}
	readingTime := len(words) / readingWordsPerMin
	if readingTime < 1 {
		readingTime = 1
	}

	return map[string]any{
		"char_count":              len([]rune(text)),
		"char_count_no_spaces":    noSpaces,
		"word_count":              len(words),
		"line_count":              len(lines),
		"paragraph_count":         paragraphCount,
		"avg_words_per_paragraph": float64(len(words)) / float64(divisor),
		"reading_time_minutes":    readingTime,
	}
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func extractEntities(text string) map[string]any {
	emails := uniqueMatches(emailPattern, text)
	phones := uniqueMatches(phonePattern, text)
	urls := uniqueMatches(urlPattern, text)
	dates := uniqueMatches(datePattern, text)

	return map[string]any{
		"emails":         emails,
		"phones":         phones,
		"urls":           urls,
		"dates":          dates,
		"total_entities": len(emails) + len(phones) + len(urls) + len(dates),
	}
}

func uniqueMatches(re *regexp.Regexp, text string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, m := range re.FindAllString(text, -1) {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// classify returns the category whose keywords occur most often, or ""
// when no category keyword appears at all.
func classify(text string) string {
	lower := strings.ToLower(text)

	best := ""
	bestScore := 0
	// Deterministic iteration so ties resolve stably.
	categories := make([]string, 0, len(categoryKeywords))
	for c := range categoryKeywords {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		score := 0
		for _, kw := range categoryKeywords[category] {
			score += countWordOccurrences(lower, kw)
		}
		if score > bestScore {
			best = category
			bestScore = score
		}
	}
	return best
}

func countWordOccurrences(lower, keyword string) int {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
	if err != nil {
		return 0
	}
	return len(re.FindAllString(lower, -1))
}

// extractKeywords returns up to max of the most frequent words of length
// >= 3 that are not stop words and occur at least twice.
func extractKeywords(text string, max int) []string {
	clean := wordPattern.ReplaceAllString(strings.ToLower(text), " ")

	freq := make(map[string]int)
	order := []string{}
	for _, word := range strings.Fields(clean) {
		if len([]rune(word)) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if freq[word] == 0 {
			order = append(order, word)
		}
		freq[word]++
	}

	// Stable sort keeps first-seen order among equal frequencies.
	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	out := []string{}
	for _, word := range order {
		if len(out) >= max {
			break
		}
		if freq[word] >= minKeywordFrequency {
			out = append(out, word)
		}
	}
	return out
}

func analyzeStructure(text string) map[string]any {
	structure := map[string]any{
		"has_headers":     false,
		"has_lists":       false,
		"has_tables":      false,
		"has_code_blocks": false,
	}

	for _, re := range headerPatterns {
		if re.MatchString(text) {
			structure["has_headers"] = true
			break
		}
	}
	for _, re := range listPatterns {
		if re.MatchString(text) {
			structure["has_lists"] = true
			break
		}
	}
	if tablePattern.MatchString(text) {
		structure["has_tables"] = true
	}
	for _, re := range codePatterns {
		if re.MatchString(text) {
			structure["has_code_blocks"] = true
			break
		}
	}
	return structure
}

// chunkRelevance scores a chunk against its parent document: document
// keywords present in the chunk, entity density, and structural markers,
// normalized per 100 words and capped at 10.
func chunkRelevance(chunkText string, docMetadata map[string]any) float64 {
	score := 0.0
	lower := strings.ToLower(chunkText)

	for _, kw := range asStringList(docMetadata["extracted_keywords"]) {
		if strings.Contains(lower, strings.ToLower(kw)) {
			score += 1.0
		}
	}

	entities := extractEntities(chunkText)
	score += float64(entities["total_entities"].(int)) * 0.5

	structure := analyzeStructure(chunkText)
	if structure["has_headers"].(bool) {
		score += 2.0
	}
	if structure["has_lists"].(bool) {
		score += 1.0
	}

	wordCount := float64(len(strings.Fields(chunkText)))
	divisor := wordCount / 100
	if divisor < 1 {
		divisor = 1
	}
	normalized := score / divisor
	if normalized > 10.0 {
		normalized = 10.0
	}
	return normalized
}

func combineTags(md map[string]any) []string {
	seen := make(map[string]struct{})
	tags := []string{}
	add := func(t string) {
		if _, dup := seen[t]; dup || t == "" {
			return
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}

	for _, t := range asStringList(md["user_tags"]) {
		add(t)
	}
	keywords := asStringList(md["extracted_keywords"])
	if len(keywords) > maxChunkKeywords {
		keywords = keywords[:maxChunkKeywords]
	}
	for _, t := range keywords {
		add(t)
	}
	return tags
}

func stringField(md map[string]any, key, fallback string) string {
	if md == nil {
		return fallback
	}
	if s, ok := md[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func numericField(md map[string]any, key string) int64 {
	if md == nil {
		return 0
	}
	n, _ := asInt(md[key])
	return n
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	default:
		return 0, false
	}
}

func asStringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
