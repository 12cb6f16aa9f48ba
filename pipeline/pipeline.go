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

// Package pipeline orchestrates document ingestion: parsing, duplicate
// detection, metadata enrichment, chunking, validation, and versioning,
// with per-stage progress tracking. A document flows through the pipeline
// synchronously; batches fan out over a worker pool.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docpipe/chunking"
	"github.com/poiesic/docpipe/core"
	"github.com/poiesic/docpipe/metadata"
	"github.com/poiesic/docpipe/parser"
	"github.com/poiesic/docpipe/progress"
	"github.com/poiesic/docpipe/validation"
	"github.com/poiesic/docpipe/versioning"
)

// Pipeline sequences the ingestion stages for documents. Failures never
// propagate as errors from Ingest methods; they are converted into failed
// Results carrying the original message.
type Pipeline struct {
	parser    *parser.Parser
	chunker   *chunking.Chunker
	extractor *metadata.Extractor
	validator *validation.Manager
	versions  *versioning.Manager
	tracker   *progress.Tracker
	batchPool *ants.Pool
	cfg       Config
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithPoolSize sets the worker pool size for batch processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.batchPool != nil {
			p.batchPool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.batchPool = pool
		return nil
	}
}

// NewPipeline creates an ingestion pipeline. The version manager is
// required when cfg.EnableVersioning is set; the tracker may be nil, in
// which case progress tracking is skipped.
func NewPipeline(versions *versioning.Manager, tracker *progress.Tracker, cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Chunking.Validate(); err != nil {
		return nil, err
	}
	if cfg.EnableVersioning && versions == nil {
		return nil, ErrVersionManagerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		versions:  versions,
		tracker:   tracker,
		batchPool: pool,
		cfg:       cfg,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	docParser, err := parser.New(parser.WithLogger(p.logger))
	if err != nil {
		p.Release()
		return nil, err
	}
	chunker, err := chunking.New(cfg.Chunking, chunking.WithLogger(p.logger))
	if err != nil {
		p.Release()
		return nil, err
	}
	extractor, err := metadata.NewExtractor(metadata.WithLogger(p.logger))
	if err != nil {
		p.Release()
		return nil, err
	}

	p.parser = docParser
	p.chunker = chunker
	p.extractor = extractor

	if cfg.EnableValidation {
		validator, err := validation.NewManager(cfg.Chunking, validation.WithLogger(p.logger))
		if err != nil {
			p.Release()
			return nil, err
		}
		p.validator = validator
	}

	p.logger.Info("ingestion pipeline initialized",
		"versioning", cfg.EnableVersioning,
		"validation", cfg.EnableValidation,
		"deduplication", cfg.EnableDeduplication,
		"strategy", cfg.Chunking.Strategy,
		"chunk_size", cfg.Chunking.TargetSize,
	)
	return p, nil
}

// IngestFile reads and ingests a document from the filesystem.
func (p *Pipeline) IngestFile(ctx context.Context, filePath string, userMetadata map[string]any) *Result {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return &Result{
			Success:      false,
			Metadata:     map[string]any{},
			ErrorMessage: fmt.Sprintf("failed to read %s: %v", filePath, err),
		}
	}
	return p.ingest(ctx, content, filepath.Base(filePath), filePath, userMetadata, "")
}

// IngestDocument ingests a document from raw bytes.
func (p *Pipeline) IngestDocument(ctx context.Context, content []byte, filename string, userMetadata map[string]any) *Result {
	return p.ingest(ctx, content, filename, "", userMetadata, "")
}

// ProcessBatch ingests multiple files concurrently over the worker pool
// and reports aggregate progress as one batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, filePaths []string, userMetadata map[string]any) *BatchResult {
	var batchID string
	trackingIDs := make([]string, len(filePaths))
	if p.tracker != nil {
		filenames := make([]string, len(filePaths))
		for i, path := range filePaths {
			filenames[i] = filepath.Base(path)
		}
		var ids []string
		batchID, ids = p.tracker.StartBatch(filenames)
		copy(trackingIDs, ids)
	}

	results := make([]*Result, len(filePaths))
	var wg sync.WaitGroup
	for i, path := range filePaths {
		i, path := i, path
		wg.Add(1)
		err := p.batchPool.Submit(func() {
			defer wg.Done()
			content, readErr := os.ReadFile(path)
			if readErr != nil {
				msg := fmt.Sprintf("failed to read %s: %v", path, readErr)
				p.trackFailure(trackingIDs[i], progress.StageUpload, msg)
				results[i] = &Result{
					Success:      false,
					TrackingID:   trackingIDs[i],
					Metadata:     map[string]any{},
					ErrorMessage: msg,
				}
				return
			}
			results[i] = p.ingest(ctx, content, filepath.Base(path), path, userMetadata, trackingIDs[i])
		})
		if err != nil {
			wg.Done()
			msg := fmt.Sprintf("failed to schedule %s: %v", path, err)
			p.trackFailure(trackingIDs[i], progress.StageUpload, msg)
			results[i] = &Result{
				Success:      false,
				TrackingID:   trackingIDs[i],
				Metadata:     map[string]any{},
				ErrorMessage: msg,
			}
		}
	}
	wg.Wait()

	return &BatchResult{BatchID: batchID, Results: results}
}

func (p *Pipeline) ingest(ctx context.Context, content []byte, filename, filePath string, userMetadata map[string]any, trackingID string) *Result {
	start := time.Now()

	if p.tracker != nil && trackingID == "" {
		trackingID = p.tracker.StartDocumentProcessing(filename, "", int64(len(content)))
	}
	p.track(trackingID, progress.StageUpload, 100, nil, progress.StatusCompleted)

	fail := func(stage progress.ProcessingStage, msg string, partial *Result) *Result {
		p.logger.Error("ingestion failed", "filename", filename, "error", msg)
		p.trackFailure(trackingID, stage, msg)
		if partial == nil {
			partial = &Result{Metadata: map[string]any{}}
		}
		partial.Success = false
		partial.TrackingID = trackingID
		partial.ProcessingTime = time.Since(start)
		partial.ErrorMessage = msg
		return partial
	}

	// Parse
	p.track(trackingID, progress.StageParsing, 0, nil, progress.StatusInProgress)
	parsed, err := p.parser.Parse(content, filename)
	if err != nil {
		return fail(progress.StageParsing, err.Error(), nil)
	}
	p.track(trackingID, progress.StageParsing, 100,
		map[string]any{"chars": len(parsed.Text)}, progress.StatusCompleted)

	// Dedup short-circuit
	if p.versions != nil && p.cfg.EnableDeduplication {
		existing, dupErr := p.versions.FindVersionByHash(ctx, core.HashContent(content))
		if dupErr != nil {
			p.logger.Warn("duplicate check failed", "filename", filename, "error", dupErr)
		} else if existing != nil {
			p.logger.Info("duplicate document detected",
				"filename", filename, "version_id", existing.VersionID)
			p.track(trackingID, progress.StageCompleted, 100,
				map[string]any{"duplicate_of": existing.VersionID}, progress.StatusCompleted)
			return p.duplicateResult(existing, trackingID, start)
		}
	}

	// Metadata extraction
	p.track(trackingID, progress.StageMetadataExtraction, 0, nil, progress.StatusInProgress)
	docMetadata := make(map[string]any, len(parsed.Metadata)+2)
	for k, v := range parsed.Metadata {
		docMetadata[k] = v
	}
	docMetadata["filename"] = filename
	docMetadata["file_size"] = int64(len(content))
	enhanced := p.extractor.ExtractMetadata(parsed.Text, docMetadata, userMetadata)
	p.track(trackingID, progress.StageMetadataExtraction, 100,
		map[string]any{"fields": len(enhanced)}, progress.StatusCompleted)

	// Chunking
	p.track(trackingID, progress.StageChunking, 0, nil, progress.StatusInProgress)
	chunks, err := p.chunker.ChunkDocument(parsed.Text, enhanced)
	if err != nil {
		return fail(progress.StageChunking, err.Error(), &Result{Metadata: enhanced})
	}
	p.track(trackingID, progress.StageChunking, 100,
		map[string]any{"chunks": len(chunks)}, progress.StatusCompleted)
	p.trackMetrics(trackingID, progress.MetricsUpdate{ChunksCreated: intPtr(len(chunks))})

	// Validation
	result := &Result{Metadata: enhanced}
	if p.validator != nil {
		p.track(trackingID, progress.StageValidation, 0, nil, progress.StatusInProgress)

		validationPath, cleanup, pathErr := p.validationPath(content, filename, filePath)
		if pathErr != nil {
			return fail(progress.StageValidation, pathErr.Error(), result)
		}
		if cleanup != nil {
			defer cleanup()
		}

		results := p.validator.ValidateFullPipeline(validationPath, parsed.Text, chunks, enhanced)
		result.ValidationResults = results
		result.ValidationScore = p.validator.OverallScore(results)
		for _, issue := range p.validator.CriticalIssues(results) {
			result.ValidationIssues = append(result.ValidationIssues, issue.Message)
		}
		p.trackMetrics(trackingID, progress.MetricsUpdate{ValidationScore: &result.ValidationScore})
		p.track(trackingID, progress.StageValidation, 100,
			map[string]any{"score": result.ValidationScore}, progress.StatusCompleted)

		if !p.validator.IsPipelineValid(results) && p.cfg.StopOnValidationError {
			msg := fmt.Sprintf("validation failed with %d critical issues", len(result.ValidationIssues))
			return fail(progress.StageValidation, msg, result)
		}
	}

	// Fatal conditions produce a failed result even without the
	// validation gate.
	if strings.TrimSpace(parsed.Text) == "" {
		return fail(progress.StageValidation, fmt.Sprintf("empty content in %s", filename), result)
	}
	if len(chunks) == 0 {
		return fail(progress.StageChunking, fmt.Sprintf("no chunks produced for %s", filename), result)
	}

	// Chunk enrichment
	for i := range chunks {
		chunks[i].Metadata = p.extractor.EnrichChunkMetadata(chunks[i].Text, chunks[i].Metadata, enhanced)
	}
	result.Chunks = chunks

	// Versioning and storage
	if p.versions != nil && p.cfg.EnableVersioning {
		p.track(trackingID, progress.StageVersioning, 0, nil, progress.StatusInProgress)
		version, verErr := p.versions.CreateVersionFromContent(ctx, content, filePath, filename, enhanced, "")
		if verErr != nil {
			return fail(progress.StageVersioning, verErr.Error(), result)
		}
		result.Version = version
		p.track(trackingID, progress.StageVersioning, 100,
			map[string]any{"version_id": version.VersionID}, progress.StatusCompleted)

		p.track(trackingID, progress.StageStorage, 0, nil, progress.StatusInProgress)
		chunksMetadata := make([]map[string]any, len(chunks))
		for i, chunk := range chunks {
			chunksMetadata[i] = chunk.Metadata
		}
		procResult := &core.ProcessingResult{
			VersionID:       version.VersionID,
			ChunksCount:     len(chunks),
			ProcessingTime:  time.Since(start),
			Success:         true,
			ChunksMetadata:  chunksMetadata,
			ValidationScore: result.ValidationScore,
		}
		if infoErr := p.versions.UpdateProcessingInfo(ctx, version.VersionID, procResult); infoErr != nil {
			p.logger.Warn("failed to record processing info",
				"version_id", version.VersionID, "error", infoErr)
		}
		result.Version.ProcessingInfo = procResult

		if p.cfg.ArchiveOldVersions {
			if cleanErr := p.versions.CleanupOldVersions(ctx, version.DocumentID, p.cfg.MaxVersionsPerDocument); cleanErr != nil {
				p.logger.Warn("failed to prune old versions",
					"document_id", version.DocumentID, "error", cleanErr)
			}
		}
		p.track(trackingID, progress.StageStorage, 100, nil, progress.StatusCompleted)
	}

	p.track(trackingID, progress.StageCompleted, 100, nil, progress.StatusCompleted)

	result.Success = true
	result.TrackingID = trackingID
	result.ProcessingTime = time.Since(start)

	p.logger.Info("ingestion completed",
		"filename", filename,
		"chunks", len(chunks),
		"duration", result.ProcessingTime,
	)
	return result
}

// duplicateResult builds a successful short-circuit result around an
// existing version. Chunks are reconstructed as lightweight references
// from the stored processing info, without text.
func (p *Pipeline) duplicateResult(existing *core.DocumentVersion, trackingID string, start time.Time) *Result {
	var chunks []core.Chunk
	if existing.ProcessingInfo != nil {
		for i, chunkMeta := range existing.ProcessingInfo.ChunksMetadata {
			chunks = append(chunks, core.Chunk{
				ID:          fmt.Sprintf("%s_chunk_%04d", existing.VersionID, i),
				Text:        "[referenced chunk]",
				Index:       i,
				TotalChunks: len(existing.ProcessingInfo.ChunksMetadata),
				Metadata:    chunkMeta,
			})
		}
	}
	return &Result{
		Success:        true,
		Duplicate:      true,
		Version:        existing,
		Chunks:         chunks,
		Metadata:       existing.Metadata,
		TrackingID:     trackingID,
		ProcessingTime: time.Since(start),
	}
}

// validationPath returns a readable file path for the document validator,
// writing the content to a temp file when no path is available.
func (p *Pipeline) validationPath(content []byte, filename, filePath string) (string, func(), error) {
	if filePath != "" {
		return filePath, nil, nil
	}
	tmp, err := os.CreateTemp("", "docpipe-*"+filepath.Ext(filename))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create validation temp file: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to write validation temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to close validation temp file: %w", err)
	}
	name := tmp.Name()
	return name, func() { os.Remove(name) }, nil
}

// SearchResult is one hit from a filename/metadata search.
type SearchResult struct {
	VersionID string
	Filename  string
	Score     float64
	CreatedAt time.Time
	Metadata  map[string]any
}

// SearchDocuments scores active versions against a case-insensitive query
// over filenames and metadata values and returns the best matches.
func (p *Pipeline) SearchDocuments(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if p.versions == nil {
		return nil, nil
	}

	versions, err := p.versions.ListVersions(ctx)
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var hits []SearchResult
	for _, version := range versions {
		if version.Status != core.VersionActive {
			continue
		}

		score := 0.0
		if strings.Contains(strings.ToLower(version.OriginalFilename), queryLower) {
			score = 2.0
		}
		for _, value := range version.Metadata {
			switch v := value.(type) {
			case string:
				if strings.Contains(strings.ToLower(v), queryLower) {
					score += 1.0
				}
			case []string:
				for _, item := range v {
					if strings.Contains(strings.ToLower(item), queryLower) {
						score += 0.5
					}
				}
			case []any:
				for _, item := range v {
					if s, ok := item.(string); ok && strings.Contains(strings.ToLower(s), queryLower) {
						score += 0.5
					}
				}
			}
		}

		if score > 0 {
			hits = append(hits, SearchResult{
				VersionID: version.VersionID,
				Filename:  version.OriginalFilename,
				Score:     score,
				CreatedAt: version.CreatedAt,
				Metadata:  version.Metadata,
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Statistics describes the pipeline configuration plus version-store
// figures when versioning is enabled.
type Statistics struct {
	ChunkingStrategy core.Strategy          `json:"chunking_strategy"`
	ChunkConfig      core.ChunkConfig       `json:"chunk_config"`
	Versioning       bool                   `json:"versioning_enabled"`
	Validation       bool                   `json:"validation_enabled"`
	VersionStats     *versioning.Statistics `json:"version_statistics,omitempty"`
}

// GetStatistics reports the pipeline's configuration and storage figures.
func (p *Pipeline) GetStatistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{
		ChunkingStrategy: p.cfg.Chunking.Strategy,
		ChunkConfig:      p.cfg.Chunking,
		Versioning:       p.cfg.EnableVersioning,
		Validation:       p.cfg.EnableValidation,
	}
	if p.versions != nil {
		versionStats, err := p.versions.GetStatistics(ctx)
		if err != nil {
			return nil, err
		}
		stats.VersionStats = versionStats
	}
	return stats, nil
}

// Release frees the batch worker pool. The pipeline should not be used
// after calling Release.
func (p *Pipeline) Release() {
	if p.batchPool != nil {
		p.batchPool.Release()
	}
}

func (p *Pipeline) track(trackingID string, stage progress.ProcessingStage, percentage float64, details map[string]any, status progress.ProcessingStatus) {
	if p.tracker == nil || trackingID == "" {
		return
	}
	if err := p.tracker.UpdateDocumentProgress(trackingID, stage, percentage, details, status); err != nil {
		p.logger.Warn("progress update failed", "tracking_id", trackingID, "error", err)
	}
}

func (p *Pipeline) trackFailure(trackingID string, stage progress.ProcessingStage, msg string) {
	if p.tracker == nil || trackingID == "" {
		return
	}
	err := p.tracker.UpdateDocumentProgress(trackingID, stage, 0,
		map[string]any{"error": msg}, progress.StatusFailed)
	if err != nil {
		p.logger.Warn("progress update failed", "tracking_id", trackingID, "error", err)
	}
}

func (p *Pipeline) trackMetrics(trackingID string, update progress.MetricsUpdate) {
	if p.tracker == nil || trackingID == "" {
		return
	}
	if err := p.tracker.UpdateDocumentMetrics(trackingID, update); err != nil {
		p.logger.Warn("metrics update failed", "tracking_id", trackingID, "error", err)
	}
}

func intPtr(n int) *int { return &n }
