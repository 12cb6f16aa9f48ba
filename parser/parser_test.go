package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := New()
	require.NoError(t, err)
	return p
}

func TestParse_PlainText(t *testing.T) {
	p := newTestParser(t)

	parsed, err := p.Parse([]byte("hello world\nsecond line\n"), "notes.txt")
	require.NoError(t, err)

	assert.Equal(t, "hello world\nsecond line", parsed.Text)
	assert.Equal(t, "utf-8", parsed.Metadata["encoding"])
	assert.Equal(t, 2, parsed.Metadata["line_count"])
	assert.Equal(t, 1, parsed.Pages)
}

func TestParse_Windows1252Fallback(t *testing.T) {
	p := newTestParser(t)

	// "café" in Latin-1/Windows-1252, invalid as UTF-8.
	content := []byte{'c', 'a', 'f', 0xE9}
	parsed, err := p.Parse(content, "latin.txt")
	require.NoError(t, err)

	assert.Equal(t, "café", parsed.Text)
	assert.Equal(t, "windows-1252", parsed.Metadata["encoding"])
}

func TestParse_BinaryContentRejected(t *testing.T) {
	p := newTestParser(t)

	_, err := p.Parse([]byte{0x00, 0x01, 0x02, 'a'}, "blob.txt")
	assert.ErrorIs(t, err, ErrUndecodableContent)
}

func TestParse_Markdown(t *testing.T) {
	p := newTestParser(t)

	src := "# Release Notes\n\nSome text.\n\n## Changes\n- item\n"
	parsed, err := p.Parse([]byte(src), "RELEASE.md")
	require.NoError(t, err)

	assert.Equal(t, "markdown", parsed.Metadata["format"])
	assert.Equal(t, "Release Notes", parsed.Metadata["title"])
	assert.Equal(t, 2, parsed.Metadata["heading_count"])
}

func TestParse_MarkdownInvalidUTF8(t *testing.T) {
	p := newTestParser(t)

	_, err := p.Parse([]byte{0xFF, 0xFE, '#'}, "bad.md")
	assert.ErrorIs(t, err, ErrUndecodableContent)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	p := newTestParser(t)

	_, err := p.Parse([]byte("data"), "image.png")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

type csvFormat struct{}

func (csvFormat) Name() string                  { return "csv" }
func (csvFormat) Supports(filename string) bool { return hasExtension(filename, ".csv") }
func (csvFormat) Parse(content []byte, filename string) (*Parsed, error) {
	return &Parsed{Text: string(content), Metadata: map[string]any{"format": "csv"}, Pages: 1}, nil
}

func TestParse_CustomFormat(t *testing.T) {
	p, err := New(WithFormat(csvFormat{}))
	require.NoError(t, err)

	parsed, err := p.Parse([]byte("a,b,c"), "table.csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", parsed.Metadata["format"])
}
