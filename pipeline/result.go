package pipeline

import (
	"time"

	"github.com/poiesic/docpipe/core"
	"github.com/poiesic/docpipe/validation"
)

// Result is the outcome of ingesting one document. It is the sole surface
// consumed by downstream systems.
type Result struct {
	Success           bool
	Duplicate         bool
	Version           *core.DocumentVersion
	Chunks            []core.Chunk
	Metadata          map[string]any
	ProcessingTime    time.Duration
	TrackingID        string
	ValidationResults validation.Results
	ValidationScore   float64
	ValidationIssues  []string
	ErrorMessage      string
}

// ToMap flattens the result for serialization to downstream consumers.
func (r *Result) ToMap() map[string]any {
	out := map[string]any{
		"success":         r.Success,
		"duplicate":       r.Duplicate,
		"chunks_count":    len(r.Chunks),
		"processing_time": r.ProcessingTime.Seconds(),
		"metadata":        r.Metadata,
	}
	if r.Version != nil {
		out["version_id"] = r.Version.VersionID
	}
	if r.TrackingID != "" {
		out["tracking_id"] = r.TrackingID
	}
	if r.ErrorMessage != "" {
		out["error_message"] = r.ErrorMessage
	}
	if r.ValidationResults != nil {
		componentScores := make(map[string]float64, len(r.ValidationResults))
		valid := true
		for component, vr := range r.ValidationResults {
			componentScores[component] = vr.Score
			valid = valid && vr.IsValid
		}
		out["validation"] = map[string]any{
			"score":            r.ValidationScore,
			"is_valid":         valid,
			"component_scores": componentScores,
			"issues":           r.ValidationIssues,
		}
	}
	return out
}

// BatchResult aggregates the per-document results of a batch ingestion.
type BatchResult struct {
	BatchID string
	Results []*Result
}

// Succeeded counts successful member results.
func (b *BatchResult) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r.Success {
			n++
		}
	}
	return n
}

// Failed counts failed member results.
func (b *BatchResult) Failed() int {
	return len(b.Results) - b.Succeeded()
}
