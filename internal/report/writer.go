// Package report renders audit reports for files and terminals.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/a11y-audit/internal/types"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats in the order the CLI advertises them.
var Formats = []Format{FormatJSON, FormatYAML, FormatMarkdown}

// ParseFormat resolves a user-supplied format name. "yml" and "md" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want json, yaml or markdown)", s)
	}
}

// Writer writes one or more audit reports to its destination.
type Writer interface {
	Write(reports ...*types.AuditReport) error
}

// New returns the Writer for format.
func New(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output), nil
	case FormatYAML:
		return NewYAMLWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
