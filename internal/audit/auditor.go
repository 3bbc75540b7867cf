// Package audit orchestrates a single accessibility audit: it validates the
// target, drives one browser session through navigation and runs the check
// suite against the loaded page.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/a11y-audit/internal/browser"
	"github.com/jonathan/a11y-audit/internal/checks"
	"github.com/jonathan/a11y-audit/internal/logging"
	"github.com/jonathan/a11y-audit/internal/types"
)

// Session is a launched browser tab the auditor drives.
type Session interface {
	checks.Page
	Navigate(ctx context.Context, url string) error
	Logs() []string
	Close() error
}

// Launcher starts a fresh Session.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context) (Session, error)

// Launch calls f.
func (f LauncherFunc) Launch(ctx context.Context) (Session, error) {
	return f(ctx)
}

// Chrome adapts a browser.Launcher.
func Chrome(l *browser.Launcher) Launcher {
	return LauncherFunc(func(ctx context.Context) (Session, error) {
		s, err := l.Launch(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Progress steps and categories.
const (
	StepLaunch   = "launch"
	StepNavigate = "navigate"
	StepProbe    = "probe"
	StepCheck    = "check"
	StepComplete = "complete"

	CategorySetup  = "setup"
	CategoryCheck  = "check"
	CategoryReport = "report"
)

// ProgressEvent represents a progress update during an audit
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	AuditID  string `json:"audit_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when audit progress occurs
type ProgressCallback func(event ProgressEvent)

// Auditor runs audits. It is safe for concurrent use; each audit gets its own session.
type Auditor struct {
	launcher    Launcher
	suite       []checks.Check
	logger      *zap.Logger
	timeout     time.Duration
	concurrency int
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithSuite replaces the default check suite.
func WithSuite(suite []checks.Check) Option {
	return func(a *Auditor) { a.suite = suite }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Auditor) { a.logger = logging.OrNop(logger).Named("audit") }
}

// WithTimeout bounds each audit. Zero means no bound beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(a *Auditor) { a.timeout = d }
}

// WithConcurrency limits how many audits RunBatch runs at once.
func WithConcurrency(n int) Option {
	return func(a *Auditor) { a.concurrency = n }
}

// New creates an Auditor that launches sessions with launcher.
func New(launcher Launcher, opts ...Option) *Auditor {
	a := &Auditor{
		launcher:    launcher,
		suite:       checks.Suite(),
		logger:      zap.NewNop(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Validate checks an audit target without launching anything.
func Validate(rawURL string) (string, error) {
	req := types.AuditRequest{URL: strings.TrimSpace(rawURL)}
	if err := req.Validate(); err != nil {
		return "", &ValidationError{URL: rawURL, Message: types.InvalidURLMessage, Cause: err}
	}
	return req.URL, nil
}

// Run audits url and returns the report.
func (a *Auditor) Run(ctx context.Context, url string) (*types.AuditReport, error) {
	return a.RunWithProgress(ctx, url, nil)
}

// RunWithProgress audits url, reporting each completed step to onProgress.
//
// Only validation, launch and navigation failures abort the audit. A check
// that fails to evaluate is recorded as a FAIL result carrying the error and
// the remaining checks still run. The browser is closed exactly once on every
// path after a successful launch.
func (a *Auditor) RunWithProgress(ctx context.Context, rawURL string, onProgress ProgressCallback) (*types.AuditReport, error) {
	target, err := Validate(rawURL)
	if err != nil {
		return nil, err
	}

	auditID := uuid.NewString()
	log := a.logger.With(zap.String("audit_id", auditID), zap.String("url", target))
	emit := func(step, category, message string, content any) {
		if onProgress != nil {
			onProgress(ProgressEvent{Step: step, Category: category, Message: message, AuditID: auditID, Content: content})
		}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	session, err := a.launcher.Launch(ctx)
	if err != nil {
		log.Error("browser launch failed", zap.Error(err))
		var launchErr *browser.LaunchError
		if !errors.As(err, &launchErr) {
			err = &browser.LaunchError{Message: "failed to start browser", Cause: err}
		}
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("browser close failed", zap.Error(cerr))
		}
	}()
	emit(StepLaunch, CategorySetup, "Browser launched", nil)

	if err := session.Navigate(ctx, target); err != nil {
		log.Error("navigation failed", zap.Error(err))
		return nil, &NavigationError{URL: target, Cause: err}
	}
	emit(StepNavigate, CategorySetup, "Page loaded and hydrated", nil)

	probeErr := checks.InstallProbe(ctx, session)
	if probeErr != nil {
		log.Warn("probe installation failed", zap.Error(probeErr))
	} else {
		emit(StepProbe, CategorySetup, "Probe installed", nil)
	}

	results := make([]types.Result, 0, len(a.suite))
	for i, check := range a.suite {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("audit of %s interrupted: %w", target, err)
		}

		var res types.Result
		if probeErr != nil {
			res = types.ErroredResult(check.Name(), fmt.Errorf("probe unavailable: %w", probeErr))
		} else {
			res, err = check.Run(ctx, session)
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("audit of %s interrupted: %w", target, ctx.Err())
				}
				log.Warn("check failed to evaluate", zap.String("check", check.Name()), zap.Error(err))
				res = types.ErroredResult(check.Name(), err)
			}
		}
		res.Check = check.Name()
		if res.Details == nil {
			res.Details = []string{}
		}
		results = append(results, res)

		emit(StepCheck, CategoryCheck, fmt.Sprintf("[%d/%d] %s: %s", i+1, len(a.suite), res.Check, res.Status), res)
	}

	logs := session.Logs()
	if logs == nil {
		logs = []string{}
	}
	report := &types.AuditReport{URL: target, Results: results, Logs: logs}

	passed, failed := report.Counts()
	log.Info("audit complete",
		zap.Int("passed", passed),
		zap.Int("failed", failed),
		zap.Int("console_messages", len(logs)),
		zap.Duration("duration", time.Since(start)),
	)
	emit(StepComplete, CategoryReport, fmt.Sprintf("%d passed, %d failed", passed, failed), report)
	return report, nil
}
