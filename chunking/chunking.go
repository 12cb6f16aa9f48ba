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


package chunking

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docpipe/core"
)

// Strategy splits document text into chunks. Implementations receive the
// full text and return chunks with text, offsets, and strategy tags set.
// Chunk IDs, indices, and totals are assigned by the Chunker afterwards.
type Strategy interface {
	Name() core.Strategy
	Split(text string, cfg core.ChunkConfig) []core.Chunk
}

// Chunker splits documents using a configured strategy and normalizes the
// result: undersized chunks are dropped, indices and IDs are assigned
// sequentially, and a document that produces no valid chunks yields a
// single chunk covering the whole text.
type Chunker struct {
	cfg      core.ChunkConfig
	strategy Strategy
	logger   *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a Chunker for the strategy named in cfg.
func New(cfg core.ChunkConfig, opts ...Option) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var strategy Strategy
	switch cfg.Strategy {
	case core.StrategyFixedSize:
		strategy = fixedSizeStrategy{}
	case core.StrategyByParagraph:
		strategy = paragraphStrategy{}
	case core.StrategyBySentence:
		strategy = sentenceStrategy{}
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownStrategy, cfg.Strategy)
	}

	c := &Chunker{
		cfg:      cfg,
		strategy: strategy,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Config returns the chunker configuration.
func (c *Chunker) Config() core.ChunkConfig {
	return c.cfg
}

// ChunkDocument splits text into chunks. Blank text yields no chunks and no
// error. Metadata is attached to every chunk; its "filename" key, when
// present, becomes the chunk ID prefix.
func (c *Chunker) ChunkDocument(text string, meta map[string]any) ([]core.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("empty text provided for chunking")
		return nil, nil
	}

	chunks := c.strategy.Split(text, c.cfg)

	// Drop chunks below the minimum size.
	valid := chunks[:0]
	for _, ch := range chunks {
		if len([]rune(strings.TrimSpace(ch.Text))) >= c.cfg.MinSize {
			valid = append(valid, ch)
		}
	}

	// A document that produced nothing usable still gets one chunk covering
	// the whole text, even below the minimum size.
	if len(valid) == 0 {
		valid = append(valid, core.Chunk{
			Text:        strings.TrimSpace(text),
			StartOffset: 0,
			EndOffset:   len([]rune(text)),
			Strategy:    c.cfg.Strategy,
		})
	}

	filename := filenameFrom(meta)
	for i := range valid {
		valid[i].Index = i
		valid[i].TotalChunks = len(valid)
		valid[i].ID = chunkID(filename, i)
		if valid[i].Metadata == nil {
			valid[i].Metadata = map[string]any{}
		}
		valid[i].Metadata["doc_metadata"] = meta
	}

	c.logger.Info("document chunked",
		"filename", filename,
		"strategy", c.cfg.Strategy,
		"chunks", len(valid))

	return valid, nil
}

// chunkID builds the stable per-document chunk identifier.
func chunkID(filename string, index int) string {
	return fmt.Sprintf("%s__chunk_%04d", filename, index)
}

func filenameFrom(meta map[string]any) string {
	if meta != nil {
		if name, ok := meta["filename"].(string); ok && name != "" {
			return name
		}
	}
	return "unknown"
}
