// Package types provides type definitions for structured data used throughout the a11y-audit system.
package types

import (
	"github.com/go-playground/validator/v10"
)

// Status is the outcome of a single check.
type Status string

const (
	// StatusPass means no offending element was found.
	StatusPass Status = "PASS"
	// StatusFail means at least one offending element was found, or the check could not be evaluated.
	StatusFail Status = "FAIL"
)

// InvalidURLMessage is the user-facing message returned when the audit target is missing or malformed.
const InvalidURLMessage = "Missing or invalid ?url="

// Result is the outcome of one accessibility check.
type Result struct {
	Check   string   `json:"check" yaml:"check"`
	Status  Status   `json:"status" yaml:"status"`
	Details []string `json:"details" yaml:"details"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewResult builds a Result whose status is derived from the offending markup.
// Details is never nil so it serializes as an empty array.
func NewResult(check string, details []string) Result {
	if details == nil {
		details = []string{}
	}
	status := StatusPass
	if len(details) > 0 {
		status = StatusFail
	}
	return Result{Check: check, Status: status, Details: details}
}

// ErroredResult records a check whose page evaluation failed.
func ErroredResult(check string, err error) Result {
	msg := "check evaluation failed"
	if err != nil {
		msg = err.Error()
	}
	return Result{Check: check, Status: StatusFail, Details: []string{}, Error: msg}
}

// Passed reports whether the result is a PASS.
func (r Result) Passed() bool {
	return r.Status == StatusPass
}

// AuditReport is the top-level output of one audit.
type AuditReport struct {
	URL     string   `json:"url" yaml:"url"`
	Results []Result `json:"results" yaml:"results"`
	Logs    []string `json:"logs" yaml:"logs"`
}

// Counts returns the number of passed and failed results.
func (r *AuditReport) Counts() (passed, failed int) {
	for _, res := range r.Results {
		if res.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// AuditRequest is the validated input of an audit.
type AuditRequest struct {
	URL string `json:"url" validate:"required,http_url"`
}

// Validate validates the AuditRequest using the validator.
func (r *AuditRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
