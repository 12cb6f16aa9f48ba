package validation

import "time"

// Severity is the escalation level of a validation issue.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Level describes how thorough a validation pass was.
type Level string

const (
	LevelBasic    Level = "basic"
	LevelStandard Level = "standard"
	LevelStrict   Level = "strict"
)

// Issue is a single problem found during validation.
type Issue struct {
	RuleName     string         `json:"rule_name"`
	Severity     Severity       `json:"severity"`
	Message      string         `json:"message"`
	Details      map[string]any `json:"details,omitempty"`
	Location     string         `json:"location,omitempty"`
	SuggestedFix string         `json:"suggested_fix,omitempty"`
}

// Result is the outcome of one validator run. Score is the fraction of
// checks that passed, in [0,1]. IsValid is false iff any issue carries
// CRITICAL or ERROR severity.
type Result struct {
	IsValid        bool          `json:"is_valid"`
	Issues         []Issue       `json:"issues"`
	Score          float64       `json:"score"`
	Level          Level         `json:"validation_level"`
	TotalChecks    int           `json:"total_checks"`
	PassedChecks   int           `json:"passed_checks"`
	FailedChecks   int           `json:"failed_checks"`
	Warnings       int           `json:"warnings"`
	Errors         int           `json:"errors"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// HasCriticalIssues reports whether any issue is CRITICAL.
func (r *Result) HasCriticalIssues() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// HasErrors reports whether any issue is ERROR.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// IssuesBySeverity returns the issues carrying the given severity.
func (r *Result) IssuesBySeverity(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// newResult assembles a Result from raw check counts and issues.
func newResult(level Level, issues []Issue, totalChecks, passedChecks int, started time.Time) *Result {
	r := &Result{
		Issues:         issues,
		Level:          level,
		TotalChecks:    totalChecks,
		PassedChecks:   passedChecks,
		FailedChecks:   totalChecks - passedChecks,
		ProcessingTime: time.Since(started),
	}

	if totalChecks > 0 {
		r.Score = float64(passedChecks) / float64(totalChecks)
	}
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityWarning:
			r.Warnings++
		case SeverityError:
			r.Errors++
		}
	}
	r.IsValid = !r.HasCriticalIssues() && !r.HasErrors()

	return r
}
