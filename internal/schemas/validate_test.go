package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/a11y-audit/internal/types"
)

func TestValidateJSONString_Valid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`
	jsonContent := `{"name": "test"}`

	err := ValidateJSONString(schemaContent, jsonContent)
	assert.NoError(t, err)
}

func TestValidateJSONString_Invalid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`
	jsonContent := `{"age": 30}`

	err := ValidateJSONString(schemaContent, jsonContent)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateJSONString_BadSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": 12}`, `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "url", Message: "is required"},
			{Field: "results.0.status", Message: "must be one of PASS, FAIL"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "url")
	assert.Contains(t, errorMsg, "results.0.status")
}

func validReport() *types.AuditReport {
	return &types.AuditReport{
		URL: "https://example.com",
		Results: []types.Result{
			types.NewResult("Images have alt text", []string{`<img src="a.png">`}),
			types.NewResult("Form fields have labels", nil),
			types.ErroredResult("ARIA attributes used properly", errors.New("boom")),
		},
		Logs: []string{},
	}
}

func TestValidateReport_Valid(t *testing.T) {
	assert.NoError(t, ValidateReport(validReport()))
}

func TestValidateReport_Nil(t *testing.T) {
	assert.Error(t, ValidateReport(nil))
}

func TestValidateReportJSON(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{
			name: "minimal",
			json: `{"url":"http://a.test","results":[{"check":"x","status":"PASS","details":[]}],"logs":[]}`,
		},
		{
			name:    "missing logs",
			json:    `{"url":"http://a.test","results":[{"check":"x","status":"PASS","details":[]}]}`,
			wantErr: true,
		},
		{
			name:    "non-http url",
			json:    `{"url":"ftp://a.test","results":[{"check":"x","status":"PASS","details":[]}],"logs":[]}`,
			wantErr: true,
		},
		{
			name:    "unknown status",
			json:    `{"url":"http://a.test","results":[{"check":"x","status":"WARN","details":[]}],"logs":[]}`,
			wantErr: true,
		},
		{
			name:    "pass with details",
			json:    `{"url":"http://a.test","results":[{"check":"x","status":"PASS","details":["<p></p>"]}],"logs":[]}`,
			wantErr: true,
		},
		{
			name:    "fail without details or error",
			json:    `{"url":"http://a.test","results":[{"check":"x","status":"FAIL","details":[]}],"logs":[]}`,
			wantErr: true,
		},
		{
			name:    "null details",
			json:    `{"url":"http://a.test","results":[{"check":"x","status":"PASS","details":null}],"logs":[]}`,
			wantErr: true,
		},
		{
			name:    "error on pass",
			json:    `{"url":"http://a.test","results":[{"check":"x","status":"PASS","details":[],"error":"boom"}],"logs":[]}`,
			wantErr: true,
		},
		{
			name:    "no results",
			json:    `{"url":"http://a.test","results":[],"logs":[]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReportJSON([]byte(tt.json))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "got %T: %v", err, err)
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}
