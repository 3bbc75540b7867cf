// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jonathan/a11y-audit/internal/audit"
	"github.com/jonathan/a11y-audit/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of offenders listed per check
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Widths are
// measured in terminal cells so the check glyphs line up.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", fit(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", fit(line, inner))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func fit(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "..."), width)
}

// PrintReport outputs a per-check summary of one audit with compact labels
// for the first offenders of each failed check.
func (p *Printer) PrintReport(report *types.AuditReport) {
	if report == nil {
		return
	}

	passed, failed := report.Counts()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL:      %s\n", report.URL))
	sb.WriteString(fmt.Sprintf("Checks:   %d passed, %d failed\n", passed, failed))
	sb.WriteString(fmt.Sprintf("Console:  %d message(s)\n", len(report.Logs)))

	for _, res := range report.Results {
		sb.WriteString("\n")
		if res.Passed() {
			sb.WriteString(fmt.Sprintf("✓ %s\n", res.Check))
			continue
		}
		sb.WriteString(fmt.Sprintf("✗ %s\n", res.Check))
		if res.Error != "" {
			sb.WriteString(fmt.Sprintf("    error: %s\n", res.Error))
			continue
		}
		count := min(len(res.Details), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("    • %s\n", ElementLabel(res.Details[i])))
		}
		if len(res.Details) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("    ... and %d more\n", len(res.Details)-maxItemsToShow))
		}
	}

	title := "AUDIT PASSED"
	if failed > 0 {
		title = "AUDIT FAILED"
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBatch outputs one summary box per audited URL, in input order.
// URLs whose audit could not run get a short error box instead.
func (p *Printer) PrintBatch(results []audit.BatchResult) {
	for _, r := range results {
		if r.Err != nil {
			p.PrintFailure(r.URL, r.Err)
			continue
		}
		p.PrintReport(r.Report)
	}
}

// PrintFailure outputs an audit that could not be completed.
func (p *Printer) PrintFailure(url string, err error) {
	if err == nil {
		return
	}
	p.printBox("AUDIT ERROR", fmt.Sprintf("URL:   %s\nError: %v", url, err))
}

// PrintProgress writes a single progress line. Check events carry the result
// and are marked with its outcome.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(event audit.ProgressEvent) {
	marker := "·"
	if res, ok := event.Content.(types.Result); ok {
		marker = "✓"
		if !res.Passed() {
			marker = "✗"
		}
	}
	fmt.Fprintf(p.out, "%s [%s] %s\n", marker, event.Step, event.Message)
}
