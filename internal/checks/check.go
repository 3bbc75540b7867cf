// Package checks implements the accessibility rules run against a live page.
//
// Every rule works in two steps. An in-page collector from probe.js returns
// plain facts about the candidate elements, each tagged with a ref into the
// page-side node table. The Go rule decides which refs offend, and only those
// are resolved back to serialized markup for the report.
package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/a11y-audit/internal/scripts"
	"github.com/jonathan/a11y-audit/internal/types"
)

// Check names. They are the stable keys of the report.
const (
	NameSemanticHTML    = "Semantic HTML (no <div> buttons or headings)"
	NameKeyboardAccess  = "Interactive elements keyboard accessible"
	NameARIARoles       = "Custom ARIA roles used correctly"
	NameImageAlt        = "Images have alt text"
	NameARIAAttributes  = "ARIA attributes used properly"
	NameColorContrast   = "Text has sufficient color contrast (≥ 4.5:1)"
	NameFocusIndicators = "Visible focus indicators"
	NameFormLabels      = "Form fields have labels"
	NameErrorMessages   = "Error messages visible and understandable"
)

const probeGlobal = "window.__a11yAudit"

// Page is the live document a check inspects.
type Page interface {
	Evaluate(ctx context.Context, expression string, out any) error
	PressKey(ctx context.Context, key string) error
}

// Check is one accessibility rule.
type Check interface {
	Name() string
	Run(ctx context.Context, page Page) (types.Result, error)
}

// Suite returns every check in report order, with default timings.
func Suite() []Check {
	return NewSuite(DefaultKeySettleTime)
}

// NewSuite returns every check in report order. settle is the wait after each
// synthetic key press during focus traversal.
func NewSuite(settle time.Duration) []Check {
	return []Check{
		SemanticHTML{},
		KeyboardAccess{},
		ARIARoles{},
		ImageAlt{},
		ARIAAttributes{},
		ColorContrast{},
		FocusIndicators{MaxPresses: MaxTabPresses, Settle: settle},
		FormLabels{},
		ErrorMessages{},
	}
}

// Names returns the check names in report order.
func Names() []string {
	suite := Suite()
	names := make([]string, len(suite))
	for i, c := range suite {
		names[i] = c.Name()
	}
	return names
}

// InstallProbe defines the collector functions in the page. It must run after
// navigation and before any check.
func InstallProbe(ctx context.Context, page Page) error {
	src, err := scripts.Get(scripts.Probe)
	if err != nil {
		return err
	}
	var ok bool
	if err := page.Evaluate(ctx, src, &ok); err != nil {
		return fmt.Errorf("failed to install probe: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to install probe: unexpected result")
	}
	return nil
}

// collect calls a probe collector and decodes its result into out.
func collect(ctx context.Context, page Page, collector string, out any) error {
	expr := fmt.Sprintf("%s.%s()", probeGlobal, collector)
	if err := page.Evaluate(ctx, expr, out); err != nil {
		return fmt.Errorf("collector %s: %w", collector, err)
	}
	return nil
}

// markupExpression builds the expression that serializes the given refs.
func markupExpression(refs []int) string {
	data, _ := json.Marshal(refs)
	return fmt.Sprintf("%s.markup(%s)", probeGlobal, data)
}

// resolve turns offending refs into a Result, serializing only those elements.
func resolve(ctx context.Context, page Page, name string, refs []int) (types.Result, error) {
	if len(refs) == 0 {
		return types.NewResult(name, nil), nil
	}
	var markup []string
	if err := page.Evaluate(ctx, markupExpression(refs), &markup); err != nil {
		return types.Result{}, fmt.Errorf("resolving markup: %w", err)
	}
	if len(markup) != len(refs) {
		return types.Result{}, fmt.Errorf("resolving markup: got %d entries for %d elements", len(markup), len(refs))
	}
	return types.NewResult(name, markup), nil
}
