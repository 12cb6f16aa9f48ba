package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const metadataCheckCount = 6

var (
	requiredMetadataFields = []string{"filename", "file_size", "created_at"}
	optionalMetadataFields = []string{"auto_category", "language", "keywords", "summary"}

	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^(\+55\s?)?(\(?\d{2}\)?\s?)?\d{4,5}[-\s]?\d{4}$`)
	urlPattern   = regexp.MustCompile(`(?i)^https?://[^\s/$.?#].[^\s]*$`)
)

// MetadataValidator checks extracted document metadata: required fields,
// field types, and the format of extracted emails, phones and URLs.
type MetadataValidator struct{}

// NewMetadataValidator creates a metadata validator.
func NewMetadataValidator() *MetadataValidator {
	return &MetadataValidator{}
}

// ValidateMetadata validates an extracted metadata map.
func (v *MetadataValidator) ValidateMetadata(metadata map[string]any) *Result {
	started := time.Now()

	var issues []Issue
	passed := 0

	// Required fields.
	var missing []string
	for _, field := range requiredMetadataFields {
		if val, ok := metadata[field]; !ok || val == nil {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, Issue{
			RuleName:     "required_fields",
			Severity:     SeverityError,
			Message:      fmt.Sprintf("required fields missing: %v", missing),
			Details:      map[string]any{"missing_fields": missing},
			SuggestedFix: fmt.Sprintf("add the fields: %s", strings.Join(missing, ", ")),
		})
	} else {
		passed++
	}

	// Field types.
	var typeErrors []string
	checkType := func(field string, ok bool, want string) {
		if !ok {
			typeErrors = append(typeErrors, fmt.Sprintf("%s: expected %s, got %T", field, want, metadata[field]))
		}
	}
	if val, present := metadata["file_size"]; present {
		checkType("file_size", isNumber(val), "number")
	}
	for _, field := range []string{"word_count", "char_count", "line_count"} {
		if val, present := metadata[field]; present {
			checkType(field, isInteger(val), "integer")
		}
	}
	if val, present := metadata["created_at"]; present {
		checkType("created_at", isTimestamp(val), "timestamp")
	}
	for _, field := range []string{"emails", "phones", "urls"} {
		if val, present := metadata[field]; present {
			_, ok := asStringList(val)
			checkType(field, ok, "string list")
		}
	}
	if len(typeErrors) > 0 {
		issues = append(issues, Issue{
			RuleName: "field_types",
			Severity: SeverityError,
			Message:  fmt.Sprintf("incorrect field types: %v", typeErrors),
			Details:  map[string]any{"type_errors": typeErrors},
		})
	} else {
		passed++
	}

	// Formats of extracted lists. Absence of a list is not a failure.
	passed += validateListFormat(&issues, metadata, "emails", emailPattern, "invalid emails")
	passed += validateListFormat(&issues, metadata, "phones", phonePattern, "invalid phones")
	passed += validateListFormat(&issues, metadata, "urls", urlPattern, "invalid urls")

	// Completeness over optional enrichment fields, informative only.
	present := 0
	for _, field := range optionalMetadataFields {
		if val, ok := metadata[field]; ok && val != nil && val != "" {
			present++
		}
	}
	completeness := float64(present) / float64(len(optionalMetadataFields))
	if completeness < 0.5 {
		issues = append(issues, Issue{
			RuleName: "completeness",
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("incomplete metadata: %.0f%% of optional fields present", completeness*100),
			Details:  map[string]any{"completeness_score": completeness, "optional_fields": optionalMetadataFields},
		})
	}
	passed++

	return newResult(LevelStandard, issues, metadataCheckCount, passed, started)
}

// validateListFormat checks every entry of a string-list field against a
// pattern. Returns 1 when the check passes, 0 when it raised an issue.
func validateListFormat(issues *[]Issue, metadata map[string]any, field string, pattern *regexp.Regexp, label string) int {
	val, present := metadata[field]
	if !present {
		return 1
	}
	list, ok := asStringList(val)
	if !ok {
		return 1 // Reported by the field-type check.
	}

	var invalid []string
	for _, entry := range list {
		if !pattern.MatchString(entry) {
			invalid = append(invalid, entry)
		}
	}
	if len(invalid) > 0 {
		*issues = append(*issues, Issue{
			RuleName: field + "_format",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%s: %v", label, invalid),
			Details:  map[string]any{"invalid_entries": invalid},
		})
		return 0
	}
	return 1
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

func isInteger(v any) bool {
	switch v.(type) {
	case int, int32, int64:
		return true
	}
	return false
}

func isTimestamp(v any) bool {
	switch v.(type) {
	case string, time.Time:
		return true
	}
	return false
}

func asStringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
