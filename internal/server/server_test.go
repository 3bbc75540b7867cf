package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/a11y-audit/internal/audit"
	"github.com/jonathan/a11y-audit/internal/browser"
	"github.com/jonathan/a11y-audit/internal/server/middleware"
	"github.com/jonathan/a11y-audit/internal/types"
)

// fakeRunner returns a canned report and replays progress events.
type fakeRunner struct {
	report *types.AuditReport
	err    error
	calls  []string
}

func (f *fakeRunner) RunWithProgress(_ context.Context, url string, onProgress audit.ProgressCallback) (*types.AuditReport, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	if onProgress != nil {
		onProgress(audit.ProgressEvent{Step: audit.StepLaunch, Category: audit.CategorySetup, Message: "Browser launched"})
		for _, res := range f.report.Results {
			onProgress(audit.ProgressEvent{Step: audit.StepCheck, Category: audit.CategoryCheck, Content: res})
		}
		onProgress(audit.ProgressEvent{Step: audit.StepComplete, Category: audit.CategoryReport, Content: f.report})
	}
	return f.report, nil
}

func sampleReport() *types.AuditReport {
	return &types.AuditReport{
		URL: "https://example.com",
		Results: []types.Result{
			types.NewResult("Images have alt text", []string{`<img src="logo.png">`}),
			types.NewResult("Form fields have labels", nil),
		},
		Logs: []string{"hydrated"},
	}
}

func newTestServer(runner Runner) *Server {
	return New(Config{Port: 0, Runner: runner})
}

// TestHealthEndpoint tests the /health endpoint
func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(&fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", resp["status"])
	}
}

// TestAuditEndpoint_InvalidURL tests that bad targets are rejected before any audit runs
func TestAuditEndpoint_InvalidURL(t *testing.T) {
	for _, target := range []string{"", "?url=", "?url=example.com", "?url=ftp%3A%2F%2Fexample.com"} {
		t.Run(target, func(t *testing.T) {
			runner := &fakeRunner{report: sampleReport()}
			s := newTestServer(runner)

			req := httptest.NewRequest(http.MethodGet, "/audit"+target, nil)
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
			if got := strings.TrimSpace(w.Body.String()); got != `{"error":"Missing or invalid ?url="}` {
				t.Errorf("unexpected body: %s", got)
			}
			if len(runner.calls) != 0 {
				t.Errorf("expected no audit to run, got %d", len(runner.calls))
			}
		})
	}
}

// TestAuditEndpoint_Success tests a completed audit is returned as JSON
func TestAuditEndpoint_Success(t *testing.T) {
	runner := &fakeRunner{report: sampleReport()}
	s := newTestServer(runner)

	req := httptest.NewRequest(http.MethodGet, "/audit?url=https%3A%2F%2Fexample.com", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if len(runner.calls) != 1 || runner.calls[0] != "https://example.com" {
		t.Errorf("unexpected runner calls: %v", runner.calls)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`<img src=\"logo.png\">`)) {
		t.Errorf("expected unescaped markup in body, got %s", w.Body.String())
	}

	var report types.AuditReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to parse report: %v", err)
	}
	if len(report.Results) != 2 || report.Results[0].Status != types.StatusFail {
		t.Errorf("unexpected results: %+v", report.Results)
	}
	if w.Header().Get(middleware.HeaderRequestID) == "" {
		t.Error("expected X-Request-ID header")
	}
}

// TestAuditEndpoint_Failures tests error mapping of failed audits
func TestAuditEndpoint_Failures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"navigation", &audit.NavigationError{URL: "https://a.test", Cause: errors.New("net::ERR_CONNECTION_REFUSED")}, http.StatusBadGateway},
		{"launch", &browser.LaunchError{Message: "failed to start browser"}, http.StatusServiceUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeRunner{err: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/audit?url=https://a.test", nil)
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if resp["error"] != tt.err.Error() {
				t.Errorf("expected error %q, got %q", tt.err.Error(), resp["error"])
			}
		})
	}
}

// TestAuditStream tests the SSE endpoint emits one event per check then the report
func TestAuditStream(t *testing.T) {
	s := newTestServer(&fakeRunner{report: sampleReport()})

	req := httptest.NewRequest(http.MethodGet, "/audit/stream?url=https://example.com", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %s", ct)
	}
	body := w.Body.String()
	if n := strings.Count(body, "event: check\n"); n != 2 {
		t.Errorf("expected 2 check events, got %d", n)
	}
	if n := strings.Count(body, "event: progress\n"); n != 1 {
		t.Errorf("expected 1 progress event, got %d", n)
	}
	if strings.Count(body, "event: complete\n") != 1 {
		t.Error("expected exactly one complete event")
	}
	if strings.Index(body, "event: complete") < strings.LastIndex(body, "event: check") {
		t.Error("complete must follow every check event")
	}
}

// TestAuditStream_Error tests failures are reported as an error event
func TestAuditStream_Error(t *testing.T) {
	s := newTestServer(&fakeRunner{err: &audit.NavigationError{URL: "https://a.test", Cause: errors.New("refused")}})

	req := httptest.NewRequest(http.MethodGet, "/audit/stream?url=https://a.test", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "event: error\n") {
		t.Errorf("expected error event, got %s", body)
	}
	if !strings.Contains(body, `"status":502`) {
		t.Errorf("expected status 502 in error event, got %s", body)
	}
}

// TestAuditStream_InvalidURL tests the stream endpoint validates before streaming
func TestAuditStream_InvalidURL(t *testing.T) {
	s := newTestServer(&fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/audit/stream", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Error("expected JSON error before streaming")
	}
}

// TestCORSMiddleware tests CORS headers are set
func TestCORSMiddleware(t *testing.T) {
	s := newTestServer(&fakeRunner{})

	handler := s.withCORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header Access-Control-Allow-Origin: *")
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected CORS header Access-Control-Allow-Methods")
	}
}

// TestCORSMiddleware_OPTIONS tests OPTIONS preflight request
func TestCORSMiddleware_OPTIONS(t *testing.T) {
	s := newTestServer(&fakeRunner{})

	handler := s.withCORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("should not reach here")) //nolint:errcheck
	}))

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200 for OPTIONS, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Error("OPTIONS response should have empty body")
	}
}

// TestSSEWriter tests SSE event writing
func TestSSEWriter(t *testing.T) {
	w := httptest.NewRecorder()

	sse, err := NewSSEWriter(w)
	if err != nil {
		t.Fatalf("failed to create SSE writer: %v", err)
	}

	event := map[string]string{"check": "Images have alt text", "markup": "<img>"}
	if err := sse.WriteEvent("check", event); err != nil {
		t.Fatalf("failed to write event: %v", err)
	}

	if !bytes.Contains(w.Body.Bytes(), []byte("event: check\n")) {
		t.Error("expected 'event: check' in output")
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"markup":"<img>"`)) {
		t.Errorf("expected unescaped markup, got %s", w.Body.String())
	}
	if !bytes.HasSuffix(w.Body.Bytes(), []byte("}\n\n")) {
		t.Error("expected event to end with a blank line")
	}
}

// TestJSONResponse tests jsonResponse helper
func TestJSONResponse(t *testing.T) {
	s := newTestServer(&fakeRunner{})
	w := httptest.NewRecorder()

	s.jsonResponse(w, http.StatusOK, map[string]string{"key": "value"})

	if w.Header().Get("Content-Type") != "application/json" {
		t.Error("expected Content-Type: application/json")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if resp["key"] != "value" {
		t.Errorf("expected key='value', got '%s'", resp["key"])
	}
}

// TestErrorResponse tests errorResponse helper
func TestErrorResponse(t *testing.T) {
	s := newTestServer(&fakeRunner{})
	w := httptest.NewRecorder()

	s.errorResponse(w, http.StatusBadRequest, "test error")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if resp["error"] != "test error" {
		t.Errorf("expected error='test error', got '%s'", resp["error"])
	}
}

// TestServe_GracefulShutdown tests the server stops when its context is canceled
func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := newTestServer(&fakeRunner{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
