package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/docpipe/storage"
)

// snapshotState is the persisted form of the tracker. Batches store member
// document ids only; the documents themselves live in the top-level map
// and are relinked on load.
type snapshotState struct {
	Documents     map[string]*DocumentProgress  `json:"documents"`
	Batches       map[string]*snapshotBatch     `json:"batches"`
	Notifications map[string]*Notification      `json:"notifications"`
	Metrics       map[string]*ProcessingMetrics `json:"metrics"`
	LastSaved     time.Time                     `json:"last_saved"`
}

type snapshotBatch struct {
	BatchID        string     `json:"batch_id"`
	TotalDocuments int        `json:"total_documents"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	DocumentIDs    []string   `json:"document_ids"`
}

func (t *Tracker) saveState(ctx context.Context) error {
	t.mu.Lock()
	state := snapshotState{
		Documents:     t.documents,
		Batches:       make(map[string]*snapshotBatch, len(t.batches)),
		Notifications: t.notifications,
		Metrics:       t.metrics,
		LastSaved:     time.Now().UTC(),
	}
	for id, batch := range t.batches {
		sb := &snapshotBatch{
			BatchID:        batch.BatchID,
			TotalDocuments: batch.TotalDocuments,
			StartedAt:      batch.StartedAt,
			CompletedAt:    batch.CompletedAt,
			DocumentIDs:    make([]string, 0, len(batch.Documents)),
		}
		for docID := range batch.Documents {
			sb.DocumentIDs = append(sb.DocumentIDs, docID)
		}
		state.Batches[id] = sb
	}

	data, err := json.Marshal(state)
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to serialize progress state: %w", err)
	}

	return t.snapshots.SaveSnapshot(ctx, data)
}

func (t *Tracker) loadState(ctx context.Context) error {
	data, err := t.snapshots.LoadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	var state snapshotState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to deserialize progress state: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for id, doc := range state.Documents {
		if doc.Stages == nil {
			doc.Stages = make(map[ProcessingStage]*StageProgress)
		}
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any)
		}
		t.documents[id] = doc
	}
	for id, n := range state.Notifications {
		t.notifications[id] = n
	}
	for id, m := range state.Metrics {
		if m.StageTimings == nil {
			m.StageTimings = make(map[string]time.Time)
		}
		if m.StageDurations == nil {
			m.StageDurations = make(map[string]time.Duration)
		}
		t.metrics[id] = m
	}
	for id, sb := range state.Batches {
		batch := &BatchProgress{
			BatchID:        sb.BatchID,
			TotalDocuments: sb.TotalDocuments,
			StartedAt:      sb.StartedAt,
			CompletedAt:    sb.CompletedAt,
			Documents:      make(map[string]*DocumentProgress, len(sb.DocumentIDs)),
		}
		for _, docID := range sb.DocumentIDs {
			if doc, ok := t.documents[docID]; ok {
				batch.Documents[docID] = doc
			}
		}
		t.batches[id] = batch
	}

	t.logger.Info("progress state restored",
		"documents", len(state.Documents),
		"batches", len(state.Batches),
	)
	return nil
}
