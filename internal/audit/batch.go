package audit

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/a11y-audit/internal/types"
)

// BatchResult is the outcome of one audit in a batch.
type BatchResult struct {
	URL    string
	Report *types.AuditReport
	Err    error
}

// RunBatch audits every url with independent sessions, at most the configured
// concurrency at a time. Results are in input order and a failed audit does
// not stop the others.
func (a *Auditor) RunBatch(ctx context.Context, urls []string) []BatchResult {
	results := make([]BatchResult, len(urls))

	var g errgroup.Group
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, url := range urls {
		g.Go(func() error {
			report, err := a.Run(ctx, url)
			results[i] = BatchResult{URL: url, Report: report, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Failed returns the batch entries whose audit did not complete.
func Failed(results []BatchResult) []BatchResult {
	var out []BatchResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
