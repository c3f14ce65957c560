package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Format selects a report renderer
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts markdown, md or json, case-insensitively. Empty means markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported report format %q: expected markdown or json", s)
	}
}

// Extension returns the file extension reports of this format are saved with
func (f Format) Extension() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".md"
}

// WriteJSON writes v as indented JSON followed by a newline
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// markdown accumulates report lines
type markdown struct {
	lines []string
}

func (m *markdown) line(format string, args ...interface{}) {
	m.lines = append(m.lines, fmt.Sprintf(format, args...))
}

// section starts a heading preceded by a blank line
func (m *markdown) section(level int, title string) {
	m.lines = append(m.lines, "", strings.Repeat("#", level)+" "+title)
}

func (m *markdown) bullets(items []string) {
	for _, item := range items {
		m.line("- %s", item)
	}
}

func (m *markdown) String() string {
	return strings.Join(m.lines, "\n") + "\n"
}
