package parser

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// textFormat handles plain .txt files. UTF-8 content passes through;
// anything else is decoded as Windows-1252, which covers the Latin-1
// range as well. Content with NUL bytes is rejected as binary.
type textFormat struct{}

func (f *textFormat) Name() string { return "text" }

func (f *textFormat) Supports(filename string) bool {
	return hasExtension(filename, ".txt")
}

func (f *textFormat) Parse(content []byte, filename string) (*Parsed, error) {
	text, encoding, err := decodeText(content)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	return &Parsed{
		Text: text,
		Metadata: map[string]any{
			"format":     "text",
			"encoding":   encoding,
			"char_count": utf8.RuneCountInString(text),
			"line_count": len(strings.Split(text, "\n")),
		},
		Pages: 1,
	}, nil
}

func decodeText(content []byte) (string, string, error) {
	if bytes.IndexByte(content, 0) >= 0 {
		return "", "", ErrUndecodableContent
	}
	if utf8.Valid(content) {
		return string(content), "utf-8", nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(content)
	if err != nil {
		return "", "", ErrUndecodableContent
	}
	return string(decoded), "windows-1252", nil
}
