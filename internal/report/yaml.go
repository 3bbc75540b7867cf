package report

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/a11y-audit/internal/types"
)

// YAMLWriter writes reports as YAML documents, one per report.
type YAMLWriter struct {
	baseWriter
}

// NewYAMLWriter creates a YAMLWriter that outputs to the given writer.
func NewYAMLWriter(output io.Writer) *YAMLWriter {
	return &YAMLWriter{baseWriter: newBaseWriter(output)}
}

func (w *YAMLWriter) Write(reports ...*types.AuditReport) error {
	enc := yaml.NewEncoder(w.output)
	enc.SetIndent(2)
	for _, r := range reports {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return enc.Close()
}
