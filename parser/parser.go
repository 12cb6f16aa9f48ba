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

// Package parser extracts text and basic metadata from raw document
// bytes. Only text-oriented formats are handled here; rich binary formats
// (PDF, DOCX) belong to external extraction services.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned when no registered format handles
	// the file.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrUndecodableContent is returned when the bytes cannot be decoded
	// as text.
	ErrUndecodableContent = errors.New("content could not be decoded as text")
)

// Parsed is the output of a format parser.
type Parsed struct {
	Text     string
	Metadata map[string]any
	Pages    int
}

// Format parses one document format.
type Format interface {
	// Name identifies the format.
	Name() string
	// Supports reports whether the format handles the given filename.
	Supports(filename string) bool
	// Parse extracts text and metadata from raw bytes.
	Parse(content []byte, filename string) (*Parsed, error)
}

// Parser dispatches raw bytes to the first registered format supporting
// the filename.
type Parser struct {
	formats []Format
	logger  *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser) error

// WithLogger sets the logger used by the parser.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) error {
		p.logger = logger
		return nil
	}
}

// WithFormat registers an additional format ahead of the built-in ones.
func WithFormat(format Format) Option {
	return func(p *Parser) error {
		p.formats = append([]Format{format}, p.formats...)
		return nil
	}
}

// New creates a parser with the built-in text and markdown formats.
func New(opts ...Option) (*Parser, error) {
	p := &Parser{
		formats: []Format{
			&markdownFormat{},
			&textFormat{},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Parse extracts text from content using the format matching filename.
func (p *Parser) Parse(content []byte, filename string) (*Parsed, error) {
	for _, format := range p.formats {
		if !format.Supports(filename) {
			continue
		}
		parsed, err := format.Parse(content, filename)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filename, err)
		}
		p.logger.Debug("document parsed",
			"filename", filename,
			"format", format.Name(),
			"chars", len(parsed.Text),
		)
		return parsed, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
}

// SupportedExtensions lists the filename extensions the parser accepts.
func (p *Parser) SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown"}
}

func hasExtension(filename string, exts ...string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
