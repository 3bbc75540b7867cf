package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
)

// Session is one launched browser with a single tab.
type Session struct {
	opts   Options
	logger *zap.Logger

	tabCtx context.Context
	cancel func()

	closeOnce sync.Once
	closeErr  error

	mu          sync.Mutex
	mainFrameID cdp.FrameID
	logs        []string
	docErr      error

	idle *idleWatcher
}

func newSession(opts Options, logger *zap.Logger, tabCtx context.Context, cancel func()) *Session {
	return &Session{
		opts:   opts,
		logger: logger,
		tabCtx: tabCtx,
		cancel: cancel,
		logs:   []string{},
		idle:   newIdleWatcher(),
	}
}

func (s *Session) setMainFrame(id cdp.FrameID) {
	s.mu.Lock()
	s.mainFrameID = id
	s.mu.Unlock()
	s.idle.setFrame(id)
}

func (s *Session) mainFrame() cdp.FrameID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mainFrameID
}

// run executes actions on the tab, bounded by both the tab and ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate loads url, waits for the main frame to reach network idle and then
// for the hydration delay. The top-level document is re-fetched and
// instrumented on the way in.
func (s *Session) Navigate(ctx context.Context, url string) error {
	timeout := s.opts.NavigationTimeout
	if timeout <= 0 {
		timeout = DefaultNavigationTimeout
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.mu.Lock()
	s.docErr = nil
	s.mu.Unlock()
	idle := s.idle.arm()

	start := time.Now()
	if err := s.run(navCtx, chromedp.Navigate(url)); err != nil {
		if docErr := s.documentError(); docErr != nil {
			return fmt.Errorf("navigate %s: %w", url, docErr)
		}
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	select {
	case <-idle:
	case <-navCtx.Done():
		return fmt.Errorf("waiting for network idle on %s: %w", url, navCtx.Err())
	}
	s.logger.Debug("network idle",
		zap.String("url", url),
		zap.Duration("elapsed", time.Since(start)),
	)

	if s.opts.HydrationDelay > 0 {
		timer := time.NewTimer(s.opts.HydrationDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Evaluate runs a JavaScript expression in the page and decodes its JSON result into out.
// out may be nil when the result is not needed.
func (s *Session) Evaluate(ctx context.Context, expression string, out any) error {
	return s.run(ctx, chromedp.Evaluate(expression, out))
}

var namedKeys = map[string]string{
	"Tab":       kb.Tab,
	"Enter":     kb.Enter,
	"Escape":    kb.Escape,
	"Backspace": kb.Backspace,
}

// PressKey dispatches a synthetic key press to the focused element.
// Named keys such as "Tab" are translated, anything else is typed as-is.
func (s *Session) PressKey(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("empty key")
	}
	if k, ok := namedKeys[key]; ok {
		key = k
	}
	return s.run(ctx, chromedp.KeyEvent(key))
}

// Logs returns the console messages captured so far, in emission order.
func (s *Session) Logs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.logs))
	copy(out, s.logs)
	return out
}

// Close tears down the tab, the browser and its allocator. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if c := chromedp.FromContext(s.tabCtx); c != nil && c.Browser != nil {
			if err := chromedp.Cancel(s.tabCtx); err != nil && !errors.Is(err, context.Canceled) {
				s.closeErr = err
			}
		}
		s.cancel()
		s.logger.Debug("browser closed")
	})
	return s.closeErr
}

func (s *Session) appendLog(msg string) {
	s.mu.Lock()
	s.logs = append(s.logs, msg)
	s.mu.Unlock()
}

func (s *Session) setDocumentError(err error) {
	s.mu.Lock()
	s.docErr = err
	s.mu.Unlock()
}

func (s *Session) documentError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docErr
}
