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


package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// HashContent computes the 256-bit content hash used for document identity
// and deduplication. Byte-identical content always produces the same hash.
func HashContent(content []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Strategy selects the boundary strategy used to split document text.
type Strategy string

const (
	// StrategyFixedSize walks the text in windows of TargetSize characters.
	StrategyFixedSize Strategy = "fixed_size"
	// StrategyByParagraph packs blank-line-separated paragraphs into chunks.
	StrategyByParagraph Strategy = "by_paragraph"
	// StrategyBySentence packs sentences into chunks.
	StrategyBySentence Strategy = "by_sentence"

	// StrategyParagraphSplit marks chunks produced by the fixed-size fallback
	// for a paragraph that exceeded TargetSize on its own.
	StrategyParagraphSplit Strategy = "by_paragraph_split"
	// StrategySentenceSplit marks chunks produced by the fixed-size fallback
	// for a sentence that exceeded TargetSize on its own.
	StrategySentenceSplit Strategy = "by_sentence_split"
)

// Chunk is a bounded contiguous slice of document text with positional and
// derived metadata. Chunks are immutable once produced by the chunker;
// enrichment writes only to the Metadata map.
//
// StartOffset and EndOffset are rune offsets into the document text.
type Chunk struct {
	ID          string         `json:"chunk_id"`
	Text        string         `json:"text"`
	StartOffset int            `json:"start_offset"`
	EndOffset   int            `json:"end_offset"`
	Index       int            `json:"chunk_index"`
	TotalChunks int            `json:"total_chunks"`
	Strategy    Strategy       `json:"strategy"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Len returns the chunk text length in runes.
func (c *Chunk) Len() int {
	return len([]rune(c.Text))
}

// ChunkConfig configures the chunker.
type ChunkConfig struct {
	// TargetSize is the desired chunk size in runes.
	TargetSize int `json:"target_size"`
	// Overlap is the number of runes consecutive chunks share.
	// Must be strictly less than TargetSize.
	Overlap int `json:"overlap"`
	// Strategy selects the boundary strategy.
	Strategy Strategy `json:"strategy"`
	// PreserveBoundaries shifts window ends to the nearest preceding
	// newline or space when possible.
	PreserveBoundaries bool `json:"preserve_boundaries"`
	// MinSize is the smallest chunk the chunker will emit, except for the
	// sole chunk of a document shorter than TargetSize.
	MinSize int `json:"min_size"`
}

// DefaultChunkConfig returns the default chunking configuration.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		TargetSize:         1000,
		Overlap:            200,
		Strategy:           StrategyFixedSize,
		PreserveBoundaries: true,
		MinSize:            100,
	}
}

// Validate checks the configuration invariants.
func (c ChunkConfig) Validate() error {
	if c.TargetSize <= 0 {
		return ErrInvalidChunkConfig
	}
	if c.Overlap < 0 || c.Overlap >= c.TargetSize {
		return ErrInvalidChunkConfig
	}
	if c.MinSize < 0 || c.MinSize > c.TargetSize {
		return ErrInvalidChunkConfig
	}
	switch c.Strategy {
	case StrategyFixedSize, StrategyByParagraph, StrategyBySentence:
	default:
		return ErrUnknownStrategy
	}
	return nil
}

// VersionStatus is the lifecycle status of a document version.
type VersionStatus string

const (
	VersionActive     VersionStatus = "active"
	VersionArchived   VersionStatus = "archived"
	VersionDeprecated VersionStatus = "deprecated"
	VersionProcessing VersionStatus = "processing"
	VersionError      VersionStatus = "error"
)

// DocumentVersion is a single immutable version of a document, identified by
// the hash of its raw content. Two versions with the same content hash are
// the same logical version. Versions are mutated only through status
// transitions and processing-info updates, never overwritten.
type DocumentVersion struct {
	VersionID        string            `json:"version_id"`
	DocumentID       string            `json:"document_id"`
	VersionNumber    string            `json:"version_number"`
	ContentHash      string            `json:"content_hash"`
	FilePath         string            `json:"file_path"`
	OriginalFilename string            `json:"original_filename"`
	FileSize         int64             `json:"file_size"`
	CreatedAt        time.Time         `json:"created_at"`
	Status           VersionStatus     `json:"status"`
	Metadata         map[string]any    `json:"metadata,omitempty"`
	ProcessingInfo   *ProcessingResult `json:"processing_info,omitempty"`
	ParentVersion    string            `json:"parent_version,omitempty"`
}

// ProcessingResult records the outcome of processing a document version.
type ProcessingResult struct {
	VersionID       string           `json:"version_id"`
	ChunksCount     int              `json:"chunks_count"`
	ProcessingTime  time.Duration    `json:"processing_time"`
	Success         bool             `json:"success"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	ChunksMetadata  []map[string]any `json:"chunks_metadata,omitempty"`
	ValidationScore float64          `json:"validation_score,omitempty"`
}

// DocumentRecord is the per-document index entry maintained alongside the
// version records: the latest-version pointer and the version count.
type DocumentRecord struct {
	DocumentID       string    `json:"document_id"`
	OriginalFilename string    `json:"original_filename"`
	CreatedAt        time.Time `json:"created_at"`
	LatestVersion    string    `json:"latest_version"`
	VersionCount     int       `json:"version_count"`
}
