package report

import (
	"encoding/json"
	"io"

	"github.com/jonathan/a11y-audit/internal/types"
)

// JSONWriter writes reports as indented JSON. A single report is written as an
// object, several as an array. Markup in details is written unescaped.
type JSONWriter struct {
	baseWriter
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent sets the indentation string; empty means compact output.
func WithIndent(indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = indent
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output), indent: "  "}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *JSONWriter) Write(reports ...*types.AuditReport) error {
	enc := json.NewEncoder(w.output)
	enc.SetEscapeHTML(false)
	if w.indent != "" {
		enc.SetIndent("", w.indent)
	}
	if len(reports) == 1 {
		return enc.Encode(reports[0])
	}
	if reports == nil {
		reports = []*types.AuditReport{}
	}
	return enc.Encode(reports)
}
