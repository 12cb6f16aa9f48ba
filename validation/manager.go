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


package validation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/poiesic/docpipe/core"
)

// Component names used as keys in Results.
const (
	ComponentDocument = "document"
	ComponentContent  = "content"
	ComponentChunks   = "chunks"
	ComponentMetadata = "metadata"
)

// Results maps component name to its validation result.
type Results map[string]*Result

// Manager runs the four validators over a processed document and
// aggregates their results.
type Manager struct {
	documents *DocumentValidator
	contents  *ContentValidator
	chunks    *ChunkValidator
	metadata  *MetadataValidator
	logger    *slog.Logger

	mu      sync.Mutex
	history []HistoryEntry
}

// HistoryEntry records one full-pipeline validation run.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	FilePath  string    `json:"file_path"`
	Results   Results   `json:"results"`
}

// Option configures a Manager.
type Option func(*Manager) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewManager creates a validation manager. The chunk validator checks
// chunker output against cfg.
func NewManager(cfg core.ChunkConfig, opts ...Option) (*Manager, error) {
	m := &Manager{
		documents: NewDocumentValidator(),
		contents:  NewContentValidator(),
		chunks:    NewChunkValidator(cfg),
		metadata:  NewMetadataValidator(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ValidateFullPipeline runs every validator over one processed document and
// records the run in the validation history.
func (m *Manager) ValidateFullPipeline(filePath, content string, chunks []core.Chunk, metadata map[string]any) Results {
	m.logger.Info("validating pipeline output", "file_path", filePath, "chunks", len(chunks))

	results := Results{
		ComponentDocument: m.documents.ValidateFile(filePath),
		ComponentContent:  m.contents.ValidateContent(content),
		ComponentChunks:   m.chunks.ValidateChunks(chunks),
		ComponentMetadata: m.metadata.ValidateMetadata(metadata),
	}

	m.mu.Lock()
	m.history = append(m.history, HistoryEntry{
		Timestamp: time.Now().UTC(),
		FilePath:  filePath,
		Results:   results,
	})
	m.mu.Unlock()

	return results
}

// OverallScore is the mean of the component scores.
func (m *Manager) OverallScore(results Results) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Score
	}
	return sum / float64(len(results))
}

// IsPipelineValid reports whether every component result is valid.
func (m *Manager) IsPipelineValid(results Results) bool {
	for _, r := range results {
		if !r.IsValid {
			return false
		}
	}
	return true
}

// CriticalIssues collects the CRITICAL issues across all components.
func (m *Manager) CriticalIssues(results Results) []Issue {
	var critical []Issue
	for _, r := range results {
		critical = append(critical, r.IssuesBySeverity(SeverityCritical)...)
	}
	return critical
}

// Report is the aggregated validation report for one document.
type Report struct {
	OverallScore      float64            `json:"overall_score"`
	IsValid           bool               `json:"is_valid"`
	TotalIssues       int                `json:"total_issues"`
	CriticalCount     int                `json:"critical_issues"`
	Errors            int                `json:"errors"`
	Warnings          int                `json:"warnings"`
	ComponentScores   map[string]float64 `json:"component_scores"`
	ComponentValidity map[string]bool    `json:"component_validity"`
	CriticalIssues    []Issue            `json:"critical_issue_list,omitempty"`
	Recommendations   []string           `json:"recommendations,omitempty"`
}

// BuildReport aggregates component results into a Report.
func (m *Manager) BuildReport(results Results) *Report {
	critical := m.CriticalIssues(results)

	report := &Report{
		OverallScore:      m.OverallScore(results),
		IsValid:           m.IsPipelineValid(results),
		CriticalCount:     len(critical),
		ComponentScores:   map[string]float64{},
		ComponentValidity: map[string]bool{},
		CriticalIssues:    critical,
	}

	for component, r := range results {
		report.TotalIssues += len(r.Issues)
		report.Errors += r.Errors
		report.Warnings += r.Warnings
		report.ComponentScores[component] = r.Score
		report.ComponentValidity[component] = r.IsValid
	}

	report.Recommendations = m.recommendations(results)
	return report
}

// recommendations derives actionable advice from component results.
func (m *Manager) recommendations(results Results) []string {
	var recs []string

	for _, component := range []string{ComponentDocument, ComponentContent, ComponentChunks, ComponentMetadata} {
		r, ok := results[component]
		if !ok {
			continue
		}
		if !r.IsValid {
			if r.HasCriticalIssues() {
				recs = append(recs, fmt.Sprintf("CRITICAL: resolve critical issues in %s", component))
			}
			if r.HasErrors() {
				recs = append(recs, fmt.Sprintf("fix the errors found in %s", component))
			}
		}
		if r.Score < 0.7 {
			recs = append(recs, fmt.Sprintf("improve the quality of %s (score: %.2f)", component, r.Score))
		}
	}

	if m.OverallScore(results) < 0.8 {
		recs = append(recs, "consider reviewing the ingestion process to improve overall quality")
	}

	return recs
}

// ExportHistory writes the validation history to path as JSON.
func (m *Manager) ExportHistory(path string) error {
	m.mu.Lock()
	history := make([]HistoryEntry, len(m.history))
	copy(history, m.history)
	m.mu.Unlock()

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
