// Package browser drives a headless Chrome for audits: it launches the browser,
// rewrites the top-level document on its way in, waits for the page to settle
// and exposes the evaluation and keyboard capabilities checks need.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	cdpfetch "github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/a11y-audit/internal/logging"
	"github.com/jonathan/a11y-audit/internal/scripts"
)

// Default timings.
const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultHydrationDelay    = 2 * time.Second
	DefaultFetchTimeout      = 30 * time.Second
)

// Options configures the browser and the navigation lifecycle.
type Options struct {
	Headless          bool
	NoSandbox         bool
	ExecPath          string
	UserAgent         string
	NavigationTimeout time.Duration
	HydrationDelay    time.Duration
	FetchTimeout      time.Duration

	// Instrumentation is the script spliced into the top-level document.
	// Empty means the embedded listener-tracking script.
	Instrumentation string
}

// DefaultOptions returns headless, sandbox-less options with the default timings.
func DefaultOptions() Options {
	return Options{
		Headless:          true,
		NoSandbox:         true,
		NavigationTimeout: DefaultNavigationTimeout,
		HydrationDelay:    DefaultHydrationDelay,
		FetchTimeout:      DefaultFetchTimeout,
	}
}

// LaunchError reports a browser that could not be started or prepared.
type LaunchError struct {
	Message string
	Cause   error
}

func (e *LaunchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("browser launch failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("browser launch failed: %s", e.Message)
}

func (e *LaunchError) Unwrap() error {
	return e.Cause
}

// Launcher starts one browser per Launch call.
type Launcher struct {
	opts   Options
	logger *zap.Logger
}

// NewLauncher creates a Launcher. A nil logger disables logging.
func NewLauncher(opts Options, logger *zap.Logger) *Launcher {
	if opts.Instrumentation == "" {
		opts.Instrumentation = scripts.MustGet(scripts.Instrument)
	}
	return &Launcher{opts: opts, logger: logging.OrNop(logger).Named("browser")}
}

// Options returns the launcher's options.
func (l *Launcher) Options() Options {
	return l.opts
}

func (l *Launcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if l.opts.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if l.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.opts.ExecPath))
	}
	if l.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.opts.UserAgent))
	}
	return opts
}

// Launch starts a browser with one tab. Request interception, lifecycle events,
// console capture and CSP bypass are all active before Launch returns, so the
// first navigation is already covered. The caller must Close the session.
func (l *Launcher) Launch(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LaunchError{Message: "context done before launch", Cause: err}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), l.allocatorOptions()...)
	sugar := l.logger.Sugar()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	s := newSession(l.opts, l.logger, tabCtx, func() {
		tabCancel()
		allocCancel()
	})
	chromedp.ListenTarget(tabCtx, s.onEvent)

	// The first Run allocates the browser; it must use the tab context itself.
	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx,
		cdpfetch.Enable().WithPatterns([]*cdpfetch.RequestPattern{
			{URLPattern: "*", RequestStage: cdpfetch.RequestStageRequest},
		}),
		page.Enable(),
		page.SetLifecycleEventsEnabled(true),
		page.SetBypassCSP(true),
		runtime.Enable(),
	)
	stop()
	if err != nil {
		_ = s.Close()
		return nil, &LaunchError{Message: "failed to start browser", Cause: err}
	}

	c := chromedp.FromContext(tabCtx)
	if c == nil || c.Target == nil {
		_ = s.Close()
		return nil, &LaunchError{Message: "browser target unavailable"}
	}
	s.setMainFrame(cdp.FrameID(c.Target.TargetID))

	l.logger.Debug("browser launched",
		zap.Bool("headless", l.opts.Headless),
		zap.String("exec_path", l.opts.ExecPath),
	)
	return s, nil
}
