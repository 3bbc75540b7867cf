package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	cdpfetch "github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/a11y-audit/internal/fetch"
	"github.com/jonathan/a11y-audit/internal/inject"
)

// onEvent is the tab's event listener. It must not block, so anything that
// talks back to the browser runs on its own goroutine.
func (s *Session) onEvent(ev any) {
	switch ev := ev.(type) {
	case *cdpfetch.EventRequestPaused:
		go s.handlePaused(ev)
	case *runtime.EventConsoleAPICalled:
		s.appendLog(consoleText(ev.Args))
	case *page.EventLifecycleEvent:
		s.idle.observe(ev.FrameID, ev.LoaderID, ev.Name)
	case *page.EventJavascriptDialogOpening:
		go s.dismissDialog(ev)
	}
}

func (s *Session) executor() (context.Context, bool) {
	c := chromedp.FromContext(s.tabCtx)
	if c == nil || c.Target == nil {
		return nil, false
	}
	return cdp.WithExecutor(s.tabCtx, c.Target), true
}

func (s *Session) handlePaused(ev *cdpfetch.EventRequestPaused) {
	ctx, ok := s.executor()
	if !ok {
		return
	}

	meta := inject.RequestMeta{
		URL:          ev.Request.URL,
		Method:       ev.Request.Method,
		ResourceType: string(ev.ResourceType),
		FrameID:      string(ev.FrameID),
		MainFrameID:  string(s.mainFrame()),
	}
	if !inject.IsTopLevelDocument(meta) {
		if err := cdpfetch.ContinueRequest(ev.RequestID).Do(ctx); err != nil {
			s.logger.Debug("continue request failed", zap.String("url", ev.Request.URL), zap.Error(err))
		}
		return
	}

	if err := s.fulfillDocument(ctx, ev); err != nil {
		s.logger.Warn("document interception failed", zap.String("url", ev.Request.URL), zap.Error(err))
		s.setDocumentError(err)
		if ferr := cdpfetch.FailRequest(ev.RequestID, network.ErrorReasonFailed).Do(ctx); ferr != nil {
			s.logger.Debug("fail request failed", zap.Error(ferr))
		}
	}
}

func (s *Session) fulfillDocument(ctx context.Context, ev *cdpfetch.EventRequestPaused) error {
	res, err := fetch.Document(ctx, ev.Request.URL, requestHeaders(ev.Request.Headers), &fetch.Options{
		Timeout:     s.opts.FetchTimeout,
		UserAgent:   s.opts.UserAgent,
		NoRedirects: true,
	})
	if err != nil {
		return err
	}

	body := res.Body
	if res.IsHTML() && !isRedirect(res.StatusCode) {
		body = inject.Splice(body, s.opts.Instrumentation)
	}

	s.logger.Debug("fulfilling document",
		zap.String("url", ev.Request.URL),
		zap.Int("status", res.StatusCode),
		zap.Int("bytes", len(body)),
	)
	return cdpfetch.FulfillRequest(ev.RequestID, int64(res.StatusCode)).
		WithResponseHeaders(responseHeaders(res.Header)).
		WithBody(base64.StdEncoding.EncodeToString([]byte(body))).
		Do(ctx)
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

func (s *Session) dismissDialog(ev *page.EventJavascriptDialogOpening) {
	ctx, ok := s.executor()
	if !ok {
		return
	}
	s.logger.Debug("dismissing dialog", zap.String("type", string(ev.Type)), zap.String("message", ev.Message))
	if err := page.HandleJavaScriptDialog(true).Do(ctx); err != nil {
		s.logger.Debug("dialog dismissal failed", zap.Error(err))
	}
}

// requestHeaders flattens CDP request headers into single string values.
func requestHeaders(h network.Headers) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// strippedResponseHeaders are dropped before the document is handed to the browser:
// CSP would block the inline instrumentation, and the body has already been
// decoded and rewritten so the framing headers no longer apply.
var strippedResponseHeaders = map[string]bool{
	"Content-Security-Policy":             true,
	"Content-Security-Policy-Report-Only": true,
	"Content-Length":                      true,
	"Content-Encoding":                    true,
	"Transfer-Encoding":                   true,
	"Connection":                          true,
}

// responseHeaders converts upstream headers to fulfill entries in a stable order.
func responseHeaders(h http.Header) []*cdpfetch.HeaderEntry {
	keys := make([]string, 0, len(h))
	for k := range h {
		if strippedResponseHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]*cdpfetch.HeaderEntry, 0, len(keys))
	for _, k := range keys {
		for _, v := range h[k] {
			entries = append(entries, &cdpfetch.HeaderEntry{Name: k, Value: v})
		}
	}
	return entries
}

// consoleText renders console arguments the way DevTools prints them on one line.
func consoleText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		switch {
		case len(arg.Value) > 0:
			var str string
			if err := json.Unmarshal(arg.Value, &str); err == nil {
				parts = append(parts, str)
			} else {
				parts = append(parts, string(arg.Value))
			}
		case arg.UnserializableValue != "":
			parts = append(parts, string(arg.UnserializableValue))
		case arg.Description != "":
			parts = append(parts, arg.Description)
		default:
			parts = append(parts, string(arg.Type))
		}
	}
	return strings.Join(parts, " ")
}

// idleWatcher turns lifecycle events into a one-shot signal: the main frame
// reached networkIdle for the document committed after arm was called.
type idleWatcher struct {
	mu     sync.Mutex
	frame  cdp.FrameID
	armed  bool
	loader cdp.LoaderID
	done   chan struct{}
}

func newIdleWatcher() *idleWatcher {
	return &idleWatcher{done: make(chan struct{})}
}

func (w *idleWatcher) setFrame(id cdp.FrameID) {
	w.mu.Lock()
	w.frame = id
	w.mu.Unlock()
}

// arm starts watching for a new document and returns the channel closed on idle.
func (w *idleWatcher) arm() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.armed = true
	w.loader = ""
	w.done = make(chan struct{})
	return w.done
}

func (w *idleWatcher) observe(frame cdp.FrameID, loader cdp.LoaderID, name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.armed || frame != w.frame {
		return
	}
	switch name {
	case "init":
		w.loader = loader
	case "networkIdle":
		if w.loader != "" && loader == w.loader {
			close(w.done)
			w.armed = false
		}
	}
}
