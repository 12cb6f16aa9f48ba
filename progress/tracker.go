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

// Package progress tracks the lifecycle of documents moving through the
// ingestion pipeline: per-document stage state, batch aggregation,
// notifications, and processing metrics. State mutations happen
// synchronously under a single lock; a background goroutine persists full
// snapshots to durable storage so the tracker survives restarts.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/docpipe/storage"
)

const defaultSnapshotInterval = 30 * time.Second

// NotificationCallback receives every notification the tracker emits.
// Callbacks run outside the tracker lock and must not call back into the
// tracker synchronously from another goroutine holding tracker state.
type NotificationCallback func(Notification)

// Tracker is the progress tracking engine.
type Tracker struct {
	mu            sync.Mutex
	documents     map[string]*DocumentProgress
	batches       map[string]*BatchProgress
	notifications map[string]*Notification
	metrics       map[string]*ProcessingMetrics
	callbacks     []NotificationCallback
	closed        bool

	snapshots        storage.SnapshotStore
	snapshotInterval time.Duration
	logger           *slog.Logger

	persistCh chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// Option configures a Tracker.
type Option func(*Tracker) error

// WithLogger sets the logger used by the tracker.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) error {
		t.logger = logger
		return nil
	}
}

// WithSnapshotInterval sets the period of the background full-state
// persistence.
func WithSnapshotInterval(interval time.Duration) Option {
	return func(t *Tracker) error {
		if interval <= 0 {
			return fmt.Errorf("snapshot interval must be positive, got %s", interval)
		}
		t.snapshotInterval = interval
		return nil
	}
}

// NewTracker creates a tracker backed by the given snapshot store. Any
// previously persisted state is reloaded before the tracker accepts
// updates.
func NewTracker(snapshots storage.SnapshotStore, opts ...Option) (*Tracker, error) {
	if snapshots == nil {
		return nil, ErrSnapshotStoreRequired
	}

	t := &Tracker{
		documents:        make(map[string]*DocumentProgress),
		batches:          make(map[string]*BatchProgress),
		notifications:    make(map[string]*Notification),
		metrics:          make(map[string]*ProcessingMetrics),
		snapshots:        snapshots,
		snapshotInterval: defaultSnapshotInterval,
		logger:           slog.Default(),
		persistCh:        make(chan struct{}, 1),
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	if err := t.loadState(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load progress state: %w", err)
	}

	go t.persistLoop()
	return t, nil
}

// AddNotificationCallback registers a callback invoked for every emitted
// notification.
func (t *Tracker) AddNotificationCallback(cb NotificationCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks = append(t.callbacks, cb)
}

// StartBatch begins tracking a batch and creates a QUEUED document record
// for each filename. It returns the batch id and the tracking ids
// assigned to the filenames in input order.
func (t *Tracker) StartBatch(filenames []string) (string, []string) {
	batchID := uuid.NewString()

	t.mu.Lock()
	batch := &BatchProgress{
		BatchID:        batchID,
		TotalDocuments: len(filenames),
		Documents:      make(map[string]*DocumentProgress, len(filenames)),
		StartedAt:      time.Now().UTC(),
	}
	t.batches[batchID] = batch

	docIDs := make([]string, 0, len(filenames))
	for _, filename := range filenames {
		doc := t.newDocumentLocked(filename, batchID, 0)
		batch.Documents[doc.DocumentID] = doc
		docIDs = append(docIDs, doc.DocumentID)
	}

	pending := t.notifyLocked(NotifyInfo,
		"batch started",
		fmt.Sprintf("processing of %d documents started", len(filenames)),
		"", batchID)
	t.mu.Unlock()

	t.fire(pending)
	t.requestPersist()
	return batchID, docIDs
}

// StartDocumentProcessing begins tracking a single document in the QUEUED
// state at the UPLOAD stage and returns its tracking id.
func (t *Tracker) StartDocumentProcessing(filename, batchID string, fileSize int64) string {
	t.mu.Lock()
	doc := t.newDocumentLocked(filename, batchID, fileSize)
	if batchID != "" {
		if batch, ok := t.batches[batchID]; ok {
			batch.Documents[doc.DocumentID] = doc
		}
	}
	t.mu.Unlock()

	t.requestPersist()
	return doc.DocumentID
}

func (t *Tracker) newDocumentLocked(filename, batchID string, fileSize int64) *DocumentProgress {
	now := time.Now().UTC()
	doc := &DocumentProgress{
		DocumentID:   uuid.NewString(),
		Filename:     filename,
		FileSize:     fileSize,
		Status:       StatusQueued,
		CurrentStage: StageUpload,
		Stages:       make(map[ProcessingStage]*StageProgress),
		CreatedAt:    now,
		UpdatedAt:    now,
		Metadata:     make(map[string]any),
	}
	if batchID != "" {
		doc.Metadata["batch_id"] = batchID
	}

	t.documents[doc.DocumentID] = doc
	t.metrics[doc.DocumentID] = &ProcessingMetrics{
		DocumentID:     doc.DocumentID,
		Filename:       filename,
		FileSize:       fileSize,
		StartTime:      now,
		StageTimings:   make(map[string]time.Time),
		StageDurations: make(map[string]time.Duration),
	}
	return doc
}

// UpdateDocumentProgress records a stage update for a tracked document.
// An empty status leaves the stage status untouched. The document status
// transitions follow from the update: a COMPLETED status at the COMPLETED
// stage finalizes the document successfully, a FAILED status at any stage
// finalizes it as failed, and the first update past UPLOAD moves a QUEUED
// document to IN_PROGRESS.
func (t *Tracker) UpdateDocumentProgress(documentID string, stage ProcessingStage, percentage float64, details map[string]any, status ProcessingStatus) error {
	t.mu.Lock()

	doc, ok := t.documents[documentID]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}

	now := time.Now().UTC()
	oldStage := doc.CurrentStage
	doc.UpdatedAt = now
	doc.CurrentStage = stage

	sp, ok := doc.Stages[stage]
	if !ok {
		sp = &StageProgress{
			Stage:     stage,
			StartedAt: now,
			Status:    StatusInProgress,
			Details:   make(map[string]any),
		}
		doc.Stages[stage] = sp
	}
	sp.Percentage = percentage
	for k, v := range details {
		sp.Details[k] = v
	}
	if status != "" {
		sp.Status = status
		if status == StatusCompleted {
			completed := now
			sp.CompletedAt = &completed
			sp.Percentage = 100.0
		}
		if status == StatusFailed {
			if msg, ok := details["error"].(string); ok {
				sp.ErrorMessage = msg
			}
		}
	}

	metrics := t.metrics[documentID]
	if metrics != nil && oldStage != stage {
		metrics.StageTimings[string(stage)] = now
		if started, ok := metrics.StageTimings[string(oldStage)]; ok {
			metrics.StageDurations[string(oldStage)] = now.Sub(started)
		}
	}

	var pending []Notification
	switch {
	case status == StatusCompleted && stage == StageCompleted:
		doc.Status = StatusCompleted
		if metrics != nil {
			end := now
			metrics.EndTime = &end
		}
		pending = append(pending, t.notifyLocked(NotifySuccess,
			"document processed",
			fmt.Sprintf("%q was processed successfully", doc.Filename),
			documentID, "")...)

	case status == StatusFailed:
		doc.Status = StatusFailed
		if metrics != nil {
			end := now
			metrics.EndTime = &end
			metrics.ErrorCount++
		}
		pending = append(pending, t.notifyLocked(NotifyError,
			"processing failed",
			fmt.Sprintf("error while processing %q", doc.Filename),
			documentID, "")...)

	case doc.Status == StatusQueued && stage != StageUpload:
		doc.Status = StatusInProgress
	}

	// A terminal document may have just finished its batch.
	if batchID, ok := doc.Metadata["batch_id"].(string); ok {
		if batch, found := t.batches[batchID]; found {
			if batch.IsCompleted() && batch.CompletedAt == nil {
				completed := now
				batch.CompletedAt = &completed
				pending = append(pending, t.notifyLocked(NotifySuccess,
					"batch completed",
					fmt.Sprintf("batch finished: %d succeeded, %d failed",
						batch.CompletedDocuments(), batch.FailedDocuments()),
					"", batchID)...)
			}
		}
	}

	t.mu.Unlock()

	t.fire(pending)
	t.requestPersist()
	return nil
}

// MetricsUpdate carries optional metric fields to apply to a document's
// ProcessingMetrics. Nil fields are left unchanged.
type MetricsUpdate struct {
	ChunksCreated   *int
	ValidationScore *float64
	ErrorCount      *int
	WarningsCount   *int
}

// UpdateDocumentMetrics applies a partial metrics update.
func (t *Tracker) UpdateDocumentMetrics(documentID string, update MetricsUpdate) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	metrics, ok := t.metrics[documentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}
	if update.ChunksCreated != nil {
		metrics.ChunksCreated = *update.ChunksCreated
	}
	if update.ValidationScore != nil {
		score := *update.ValidationScore
		metrics.ValidationScore = &score
	}
	if update.ErrorCount != nil {
		metrics.ErrorCount = *update.ErrorCount
	}
	if update.WarningsCount != nil {
		metrics.WarningsCount = *update.WarningsCount
	}
	return nil
}

// GetDocumentProgress returns the progress record for a tracking id.
func (t *Tracker) GetDocumentProgress(documentID string) (*DocumentProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc, ok := t.documents[documentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}
	return doc, nil
}

// GetBatchProgress returns the progress record for a batch id.
func (t *Tracker) GetBatchProgress(batchID string) (*BatchProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	batch, ok := t.batches[batchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	return batch, nil
}

// GetDocumentMetrics returns the metrics collected for a tracking id.
func (t *Tracker) GetDocumentMetrics(documentID string) (*ProcessingMetrics, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	metrics, ok := t.metrics[documentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}
	return metrics, nil
}

// GetStatistics summarizes all tracked documents and batches.
func (t *Tracker) GetStatistics() Statistics {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := Statistics{
		TotalDocuments: len(t.documents),
		TotalBatches:   len(t.batches),
	}

	for _, doc := range t.documents {
		switch doc.Status {
		case StatusCompleted:
			stats.CompletedDocuments++
		case StatusFailed:
			stats.FailedDocuments++
		case StatusInProgress:
			stats.InProgressDocuments++
		}
	}
	if stats.TotalDocuments > 0 {
		stats.SuccessRate = float64(stats.CompletedDocuments) / float64(stats.TotalDocuments) * 100
	}

	var totalDuration time.Duration
	var totalSpeed float64
	finished, withSpeed := 0, 0
	for _, m := range t.metrics {
		if m.EndTime == nil {
			continue
		}
		finished++
		totalDuration += m.TotalDuration()
		if speed := m.ProcessingSpeed(); speed > 0 {
			totalSpeed += speed
			withSpeed++
		}
	}
	if finished > 0 {
		stats.AverageProcessingTime = totalDuration / time.Duration(finished)
	}
	if withSpeed > 0 {
		stats.AverageSpeed = totalSpeed / float64(withSpeed)
	}

	for _, batch := range t.batches {
		if !batch.IsCompleted() {
			stats.ActiveBatches++
		}
	}
	return stats
}

// GetRecentDocuments returns up to limit documents ordered by most recent
// update.
func (t *Tracker) GetRecentDocuments(limit int) []*DocumentProgress {
	t.mu.Lock()
	defer t.mu.Unlock()

	docs := make([]*DocumentProgress, 0, len(t.documents))
	for _, doc := range t.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs
}

// GetNotifications returns up to limit notifications, newest first.
func (t *Tracker) GetNotifications(unreadOnly bool, limit int) []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Notification, 0, len(t.notifications))
	for _, n := range t.notifications {
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MarkNotificationRead marks a notification as read. Marking an already
// read notification is a no-op.
func (t *Tracker) MarkNotificationRead(notificationID string) error {
	t.mu.Lock()
	n, ok := t.notifications[notificationID]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotificationNotFound, notificationID)
	}
	n.Read = true
	t.mu.Unlock()

	t.requestPersist()
	return nil
}

// ClearOldData evicts documents, batches, notifications, and metrics not
// touched within the given number of days.
func (t *Tracker) ClearOldData(days int) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	t.mu.Lock()
	removedDocs, removedBatches, removedNotifs := 0, 0, 0
	for id, doc := range t.documents {
		if doc.UpdatedAt.Before(cutoff) {
			delete(t.documents, id)
			delete(t.metrics, id)
			removedDocs++
		}
	}
	for id, batch := range t.batches {
		if batch.StartedAt.Before(cutoff) {
			delete(t.batches, id)
			removedBatches++
		}
	}
	for id, n := range t.notifications {
		if n.Timestamp.Before(cutoff) {
			delete(t.notifications, id)
			removedNotifs++
		}
	}
	t.mu.Unlock()

	t.logger.Info("cleared old tracking data",
		"documents", removedDocs,
		"batches", removedBatches,
		"notifications", removedNotifs,
	)
	t.requestPersist()
}

// Close stops the background persistence worker and flushes a final
// snapshot. The tracker must not be used afterwards.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTrackerClosed
	}
	t.closed = true
	t.mu.Unlock()

	close(t.stopCh)
	<-t.doneCh

	return t.saveState(context.Background())
}

// notifyLocked records a notification and returns it for delivery after
// the lock is released. Callers must hold t.mu.
func (t *Tracker) notifyLocked(typ NotificationType, title, message, documentID, batchID string) []Notification {
	n := &Notification{
		ID:         uuid.NewString(),
		Type:       typ,
		Title:      title,
		Message:    message,
		DocumentID: documentID,
		BatchID:    batchID,
		Timestamp:  time.Now().UTC(),
		Metadata:   make(map[string]any),
	}
	t.notifications[n.ID] = n
	return []Notification{*n}
}

// fire delivers notifications to registered callbacks outside the lock.
func (t *Tracker) fire(pending []Notification) {
	if len(pending) == 0 {
		return
	}
	t.mu.Lock()
	callbacks := make([]NotificationCallback, len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.mu.Unlock()

	for _, n := range pending {
		for _, cb := range callbacks {
			cb(n)
		}
	}
}

// requestPersist signals the background worker; signals coalesce while a
// snapshot is in flight.
func (t *Tracker) requestPersist() {
	select {
	case t.persistCh <- struct{}{}:
	default:
	}
}

func (t *Tracker) persistLoop() {
	defer close(t.doneCh)

	ticker := time.NewTicker(t.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-t.persistCh:
		case <-ticker.C:
		}

		if err := t.saveState(context.Background()); err != nil {
			t.logger.Error("failed to persist progress snapshot", "error", err)
		}
	}
}
