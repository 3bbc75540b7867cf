// Package server provides the HTTP API of the accessibility audit engine.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonathan/a11y-audit/internal/audit"
	"github.com/jonathan/a11y-audit/internal/browser"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *audit.ValidationError
		navigationErr *audit.NavigationError
		launchErr     *browser.LaunchError
	)
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &navigationErr):
		return http.StatusBadGateway
	case errors.As(err, &launchErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the client-facing message for an error.
func errorMessage(err error) string {
	var validationErr *audit.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	if err == nil {
		return "internal error"
	}
	return err.Error()
}
