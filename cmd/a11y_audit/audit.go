package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/a11y-audit/internal/audit"
	"github.com/jonathan/a11y-audit/internal/observability"
	"github.com/jonathan/a11y-audit/internal/report"
	"github.com/jonathan/a11y-audit/internal/schemas"
	"github.com/jonathan/a11y-audit/internal/types"
)

const formatSummary = "summary"

var (
	auditURLs             []string
	auditFormat           string
	auditOut              string
	auditValidate         bool
	auditVerbose          bool
	auditConcurrency      int
	auditFailOnViolations bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit one or more pages and print the report",
	Long: `Audit each --url in its own browser session and write the reports to stdout or --out.

Formats: json (default), yaml, markdown, summary. With several URLs, json writes an
array, yaml writes one document per report. The command exits non-zero when any audit
could not run, and with --fail-on-violations also when any check failed.`,
	Example: `  a11y_audit audit --url https://example.com
  a11y_audit audit --url https://a.test --url https://b.test --format markdown --out report.md`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringArrayVarP(&auditURLs, "url", "u", nil, "Page to audit (repeatable)")
	auditCmd.Flags().StringVarP(&auditFormat, "format", "f", "json", "Output format: json, yaml, markdown, summary")
	auditCmd.Flags().StringVarP(&auditOut, "out", "o", "", "Write the report to this file instead of stdout")
	auditCmd.Flags().BoolVar(&auditValidate, "validate", false, "Validate each report against the report schema before writing")
	auditCmd.Flags().BoolVarP(&auditVerbose, "verbose", "v", false, "Print progress to stderr")
	auditCmd.Flags().IntVar(&auditConcurrency, "concurrency", 0, "Audits run at once (env A11Y_MAX_CONCURRENCY)")
	auditCmd.Flags().BoolVar(&auditFailOnViolations, "fail-on-violations", false, "Exit non-zero when any check fails")

	_ = auditCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	// Reject bad input before any browser starts
	format := strings.ToLower(strings.TrimSpace(auditFormat))
	var writerFormat report.Format
	if format != formatSummary {
		f, err := report.ParseFormat(format)
		if err != nil {
			return err
		}
		writerFormat = f
	}
	urls := make([]string, 0, len(auditURLs))
	for _, raw := range auditURLs {
		u, err := audit.Validate(raw)
		if err != nil {
			return err
		}
		urls = append(urls, u)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.MaxConcurrency = auditConcurrency
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stderr := cmd.ErrOrStderr()
	progress := observability.NewPrinter(stderr)
	auditor := newAuditor(cfg, logger)

	var results []audit.BatchResult
	if len(urls) == 1 {
		var onProgress audit.ProgressCallback
		if auditVerbose {
			onProgress = progress.PrintProgress
		}
		rep, runErr := auditor.RunWithProgress(ctx, urls[0], onProgress)
		results = []audit.BatchResult{{URL: urls[0], Report: rep, Err: runErr}}
	} else {
		if auditVerbose {
			_, _ = fmt.Fprintf(stderr, "Auditing %d pages, %d at a time\n", len(urls), cfg.MaxConcurrency)
		}
		results = auditor.RunBatch(ctx, urls)
	}

	reports := make([]*types.AuditReport, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if auditValidate {
			if err := schemas.ValidateReport(r.Report); err != nil {
				return fmt.Errorf("report for %s does not match schema: %w", r.URL, err)
			}
		}
		reports = append(reports, r.Report)
	}

	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	if format == formatSummary {
		observability.NewPrinter(out).PrintBatch(results)
	} else {
		for _, r := range audit.Failed(results) {
			progress.PrintFailure(r.URL, r.Err)
		}
		w, err := report.New(writerFormat, out)
		if err != nil {
			return err
		}
		if len(reports) > 0 {
			if err := w.Write(reports...); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		}
	}

	if failed := audit.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d audit(s) could not run", len(failed), len(results))
	}
	if auditFailOnViolations {
		for _, rep := range reports {
			if _, failed := rep.Counts(); failed > 0 {
				return fmt.Errorf("accessibility violations found on %s", rep.URL)
			}
		}
	}
	return nil
}

func openOutput(cmd *cobra.Command) (io.Writer, func(), error) {
	if auditOut == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(auditOut)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
