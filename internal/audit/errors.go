package audit

import "fmt"

// ValidationError is returned when the audit target is missing or malformed.
// No browser is launched for such a request.
type ValidationError struct {
	URL     string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid audit request %q: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid audit request %q: %s", e.URL, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NavigationError is returned when the target page could not be loaded.
type NavigationError struct {
	URL   string
	Cause error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Cause)
}

func (e *NavigationError) Unwrap() error {
	return e.Cause
}
