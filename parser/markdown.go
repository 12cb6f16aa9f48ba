package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var headingPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// markdownFormat handles .md and .markdown files. The markdown source is
// kept verbatim as the text; headings are summarized into metadata.
type markdownFormat struct{}

func (f *markdownFormat) Name() string { return "markdown" }

func (f *markdownFormat) Supports(filename string) bool {
	return hasExtension(filename, ".md", ".markdown")
}

func (f *markdownFormat) Parse(content []byte, filename string) (*Parsed, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: markdown must be utf-8", ErrUndecodableContent)
	}

	text := strings.TrimSpace(string(content))

	headings := headingPattern.FindAllStringSubmatch(text, -1)
	title := ""
	if len(headings) > 0 {
		title = strings.TrimSpace(headings[0][2])
	}

	md := map[string]any{
		"format":        "markdown",
		"char_count":    utf8.RuneCountInString(text),
		"line_count":    len(strings.Split(text, "\n")),
		"heading_count": len(headings),
	}
	if title != "" {
		md["title"] = title
	}

	return &Parsed{
		Text:     text,
		Metadata: md,
		Pages:    1,
	}, nil
}
