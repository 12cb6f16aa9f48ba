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


package progress

import (
	"time"
)

// ProcessingStage identifies a phase of the ingestion pipeline.
type ProcessingStage string

const (
	StageUpload             ProcessingStage = "upload"
	StageParsing            ProcessingStage = "parsing"
	StageChunking           ProcessingStage = "chunking"
	StageMetadataExtraction ProcessingStage = "metadata_extraction"
	StageValidation         ProcessingStage = "validation"
	StageVersioning         ProcessingStage = "versioning"
	StageStorage            ProcessingStage = "storage"
	StageCompleted          ProcessingStage = "completed"
	StageFailed             ProcessingStage = "failed"
)

// pipelineStages lists the countable stages in order. COMPLETED and FAILED
// are terminal markers, not work stages, so they are excluded from
// progress fractions.
var pipelineStages = []ProcessingStage{
	StageUpload,
	StageParsing,
	StageChunking,
	StageMetadataExtraction,
	StageValidation,
	StageVersioning,
	StageStorage,
}

// ProcessingStatus is the lifecycle state of a document or stage.
type ProcessingStatus string

const (
	StatusQueued     ProcessingStatus = "queued"
	StatusInProgress ProcessingStatus = "in_progress"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
	StatusCancelled  ProcessingStatus = "cancelled"
)

// NotificationType classifies a notification.
type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifySuccess NotificationType = "success"
	NotifyWarning NotificationType = "warning"
	NotifyError   NotificationType = "error"
)

// StageProgress records the state of one pipeline stage for a document.
type StageProgress struct {
	Stage        ProcessingStage  `json:"stage"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	Percentage   float64          `json:"progress_percentage"`
	Status       ProcessingStatus `json:"status"`
	Details      map[string]any   `json:"details,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
}

// Duration returns the stage duration, or zero while the stage is open.
func (s *StageProgress) Duration() time.Duration {
	if s.CompletedAt == nil {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// DocumentProgress tracks a single document through the pipeline. It is
// owned by the Tracker; callers mutate it only through the Tracker API.
type DocumentProgress struct {
	DocumentID   string                               `json:"document_id"`
	Filename     string                               `json:"filename"`
	FileSize     int64                                `json:"file_size"`
	Status       ProcessingStatus                     `json:"status"`
	CurrentStage ProcessingStage                      `json:"current_stage"`
	Stages       map[ProcessingStage]*StageProgress   `json:"stages"`
	CreatedAt    time.Time                            `json:"created_at"`
	UpdatedAt    time.Time                            `json:"updated_at"`
	Metadata     map[string]any                       `json:"metadata,omitempty"`
}

// OverallProgress is the percentage of pipeline stages completed, 0 to 100.
func (d *DocumentProgress) OverallProgress() float64 {
	completed := 0
	for _, stage := range pipelineStages {
		if sp, ok := d.Stages[stage]; ok && sp.Status == StatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(pipelineStages)) * 100
}

// BatchProgress groups documents submitted together. Counters are derived
// from the referenced documents rather than stored.
type BatchProgress struct {
	BatchID        string                       `json:"batch_id"`
	TotalDocuments int                          `json:"total_documents"`
	Documents      map[string]*DocumentProgress `json:"-"`
	StartedAt      time.Time                    `json:"started_at"`
	CompletedAt    *time.Time                   `json:"completed_at,omitempty"`
}

func (b *BatchProgress) countByStatus(status ProcessingStatus) int {
	n := 0
	for _, doc := range b.Documents {
		if doc.Status == status {
			n++
		}
	}
	return n
}

// CompletedDocuments is the number of member documents that finished
// successfully.
func (b *BatchProgress) CompletedDocuments() int { return b.countByStatus(StatusCompleted) }

// FailedDocuments is the number of member documents that failed.
func (b *BatchProgress) FailedDocuments() int { return b.countByStatus(StatusFailed) }

// InProgressDocuments is the number of member documents still processing.
func (b *BatchProgress) InProgressDocuments() int { return b.countByStatus(StatusInProgress) }

// OverallProgress is the percentage of member documents completed, 0 to 100.
func (b *BatchProgress) OverallProgress() float64 {
	if b.TotalDocuments == 0 {
		return 100.0
	}
	return float64(b.CompletedDocuments()) / float64(b.TotalDocuments) * 100
}

// IsCompleted reports whether every member document reached a terminal
// state.
func (b *BatchProgress) IsCompleted() bool {
	return b.CompletedDocuments()+b.FailedDocuments() >= b.TotalDocuments
}

// Notification is a user-facing event emitted by the Tracker.
type Notification struct {
	ID         string           `json:"id"`
	Type       NotificationType `json:"type"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	DocumentID string           `json:"document_id,omitempty"`
	BatchID    string           `json:"batch_id,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
	Read       bool             `json:"read"`
	Metadata   map[string]any   `json:"metadata,omitempty"`
}

// ProcessingMetrics collects timing and quality figures for one document.
type ProcessingMetrics struct {
	DocumentID      string                   `json:"document_id"`
	Filename        string                   `json:"filename"`
	FileSize        int64                    `json:"file_size"`
	StartTime       time.Time                `json:"start_time"`
	EndTime         *time.Time               `json:"end_time,omitempty"`
	StageTimings    map[string]time.Time     `json:"stage_timings,omitempty"`
	StageDurations  map[string]time.Duration `json:"stage_durations,omitempty"`
	ChunksCreated   int                      `json:"chunks_created"`
	ValidationScore *float64                 `json:"validation_score,omitempty"`
	ErrorCount      int                      `json:"error_count"`
	WarningsCount   int                      `json:"warnings_count"`
}

// TotalDuration is the wall-clock processing time, or zero while the
// document is still in flight.
func (m *ProcessingMetrics) TotalDuration() time.Duration {
	if m.EndTime == nil {
		return 0
	}
	return m.EndTime.Sub(m.StartTime)
}

// ProcessingSpeed returns throughput in bytes per second, or zero when it
// cannot be computed yet.
func (m *ProcessingMetrics) ProcessingSpeed() float64 {
	d := m.TotalDuration()
	if d <= 0 || m.FileSize <= 0 {
		return 0
	}
	return float64(m.FileSize) / d.Seconds()
}

// Statistics summarizes the tracker's full document population.
type Statistics struct {
	TotalDocuments        int           `json:"total_documents"`
	CompletedDocuments    int           `json:"completed_documents"`
	FailedDocuments       int           `json:"failed_documents"`
	InProgressDocuments   int           `json:"in_progress_documents"`
	SuccessRate           float64       `json:"success_rate"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
	AverageSpeed          float64       `json:"average_processing_speed"`
	TotalBatches          int           `json:"total_batches"`
	ActiveBatches         int           `json:"active_batches"`
}
