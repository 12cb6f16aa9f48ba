package validation

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Document validator limits.
const (
	minFileSize = 1
	maxFileSize = 100 * 1024 * 1024
)

const documentCheckCount = 7

var (
	allowedMIMETypes = []string{
		"text/plain",
		"text/markdown",
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	allowedExtensions = []string{".txt", ".md", ".pdf", ".docx"}

	filenamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\s]+$`)
)

// fallbackMIMETypes covers extensions the platform MIME table may not know.
var fallbackMIMETypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// DocumentValidator checks raw files before any parsing happens: existence,
// readability, size bounds, type, naming, and encoding.
type DocumentValidator struct{}

// NewDocumentValidator creates a document validator.
func NewDocumentValidator() *DocumentValidator {
	return &DocumentValidator{}
}

// ValidateFile validates the file at path. A missing file is CRITICAL and
// short-circuits the remaining checks with a zero score.
func (v *DocumentValidator) ValidateFile(path string) *Result {
	started := time.Now()

	var issues []Issue
	passed := 0

	info, err := os.Stat(path)
	if err != nil {
		issues = append(issues, Issue{
			RuleName: "file_exists",
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("file not found: %s", path),
			Details:  map[string]any{"file_path": path},
		})
		return newResult(LevelBasic, issues, documentCheckCount, passed, started)
	}
	passed++

	// Readability: open and read the leading bytes. The same bytes feed the
	// encoding check below.
	head, readErr := readHead(path, 10*1024)
	if readErr == nil {
		passed++
	} else {
		severity := SeverityError
		if os.IsPermission(readErr) {
			severity = SeverityCritical
		}
		issues = append(issues, Issue{
			RuleName:     "file_accessible",
			Severity:     severity,
			Message:      fmt.Sprintf("cannot read file: %s", path),
			Details:      map[string]any{"file_path": path, "error": readErr.Error()},
			SuggestedFix: "check the file permissions",
		})
	}

	// Size bounds.
	size := info.Size()
	switch {
	case size < minFileSize:
		issues = append(issues, Issue{
			RuleName: "file_size",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("file too small: %d bytes (minimum: %d)", size, minFileSize),
			Details:  map[string]any{"file_size": size, "min_size": minFileSize},
		})
	case size > maxFileSize:
		issues = append(issues, Issue{
			RuleName:     "file_size",
			Severity:     SeverityWarning,
			Message:      fmt.Sprintf("file too large: %d bytes (maximum: %d)", size, maxFileSize),
			Details:      map[string]any{"file_size": size, "max_size": maxFileSize},
			SuggestedFix: "consider splitting the file into smaller parts",
		})
	default:
		passed++
	}

	// MIME type.
	mimeType := detectMIME(path)
	if contains(allowedMIMETypes, mimeType) {
		passed++
	} else {
		issues = append(issues, Issue{
			RuleName:     "file_type",
			Severity:     SeverityError,
			Message:      fmt.Sprintf("unsupported file type: %s", mimeType),
			Details:      map[string]any{"detected_type": mimeType, "allowed_types": allowedMIMETypes},
			SuggestedFix: fmt.Sprintf("use one of the supported types: %s", strings.Join(allowedMIMETypes, ", ")),
		})
	}

	// Extension.
	ext := strings.ToLower(filepath.Ext(path))
	if contains(allowedExtensions, ext) {
		passed++
	} else {
		issues = append(issues, Issue{
			RuleName: "file_extension",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("extension not recommended: %s", ext),
			Details:  map[string]any{"detected_extension": ext, "allowed_extensions": allowedExtensions},
		})
	}

	// Filename character set.
	name := filepath.Base(path)
	if filenamePattern.MatchString(name) {
		passed++
	} else {
		issues = append(issues, Issue{
			RuleName:     "filename_format",
			Severity:     SeverityInfo,
			Message:      fmt.Sprintf("filename does not follow the recommended pattern: %s", name),
			Details:      map[string]any{"filename": name},
			SuggestedFix: "use only letters, digits, hyphens, underscores and dots",
		})
	}

	// Encoding detection for text files: the leading bytes must be valid
	// UTF-8. Binary formats skip this check as a pass.
	if strings.HasPrefix(mimeType, "text/") {
		if readErr == nil && utf8.Valid(head) {
			passed++
		} else {
			issues = append(issues, Issue{
				RuleName:     "encoding_detection",
				Severity:     SeverityWarning,
				Message:      "file encoding could not be confirmed as UTF-8",
				Details:      map[string]any{"file_path": path},
				SuggestedFix: "consider saving the file as UTF-8",
			})
		}
	} else {
		passed++
	}

	return newResult(LevelStandard, issues, documentCheckCount, passed, started)
}

// detectMIME resolves the MIME type for a path by extension, preferring the
// platform table and falling back to a built-in one. Parameters such as
// charset are stripped.
func detectMIME(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		mimeType = fallbackMIMETypes[ext]
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}

// readHead reads up to n leading bytes of the file. A file shorter than n
// bytes, including an empty one, is not an error.
func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	return buf[:read], err
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
