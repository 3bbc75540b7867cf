// Package schemas provides JSON Schema validation for the documents the audit engine emits.
package schemas

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/a11y-audit/internal/types"
	schemafiles "github.com/jonathan/a11y-audit/schemas"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaContent))
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}
	return validate(schema, gojsonschema.NewStringLoader(jsonContent))
}

var (
	reportSchemaOnce sync.Once
	reportSchema     *gojsonschema.Schema
	reportSchemaErr  error
)

func loadReportSchema() (*gojsonschema.Schema, error) {
	reportSchemaOnce.Do(func() {
		content, err := schemafiles.Get(schemafiles.AuditReportFile)
		if err != nil {
			reportSchemaErr = &SchemaLoadError{Path: schemafiles.AuditReportFile, Message: "schema not embedded", Cause: err}
			return
		}
		reportSchema, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(content))
		if err != nil {
			reportSchemaErr = &SchemaLoadError{Path: schemafiles.AuditReportFile, Message: "invalid schema", Cause: err}
		}
	})
	return reportSchema, reportSchemaErr
}

// ValidateReportJSON validates a serialized audit report.
func ValidateReportJSON(data []byte) error {
	schema, err := loadReportSchema()
	if err != nil {
		return err
	}
	return validate(schema, gojsonschema.NewBytesLoader(data))
}

// ValidateReport validates an audit report as it would be serialized.
func ValidateReport(report *types.AuditReport) error {
	if report == nil {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: "report is nil"}}}
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return ValidateReportJSON(data)
}

func validate(schema *gojsonschema.Schema, document gojsonschema.JSONLoader) error {
	result, err := schema.Validate(document)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	if result.Valid() {
		return nil
	}

	// Build structured error
	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
