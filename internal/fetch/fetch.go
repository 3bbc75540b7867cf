// Package fetch re-fetches the top-level document of an audited page so it can be
// rewritten before the browser parses it.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is used when the intercepted request carries no User-Agent.
const DefaultUserAgent = "Mozilla/5.0 (compatible; A11yAudit/1.0)"

// MaxBodySize bounds the document body read into memory. Larger documents are
// rejected rather than truncated.
const MaxBodySize = 16 << 20

// Result holds the raw document returned by the origin.
type Result struct {
	URL         string
	FinalURL    string
	Body        string
	ContentType string
	StatusCode  int
	Header      http.Header
}

// Error represents an error during document fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout     time.Duration
	UserAgent   string
	NoRedirects bool  // Return 3xx responses as-is instead of following them
	MaxBodySize int64 // Zero means MaxBodySize
	Client      *http.Client
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// skippedHeaders are never forwarded: the Go transport owns connection management
// and transparent decompression, so the browser's values would break the re-fetch.
var skippedHeaders = map[string]bool{
	"Accept-Encoding":   true,
	"Connection":        true,
	"Content-Length":    true,
	"Host":              true,
	"Keep-Alive":        true,
	"Proxy-Connection":  true,
	"Te":                true,
	"Trailer":           true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
}

// Document retrieves urlStr with the headers of the original browser request.
// A non-2xx status is not an error as long as the origin returned a body; the
// caller decides whether such a document is still worth rendering.
func Document(ctx context.Context, urlStr string, headers map[string]string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
		if opts.NoRedirects {
			client.CheckRedirect = func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	for key, value := range headers {
		if skippedHeaders[http.CanonicalHeaderKey(key)] || strings.HasPrefix(key, ":") {
			continue
		}
		req.Header.Set(key, value)
	}
	if req.Header.Get("User-Agent") == "" && opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	limit := opts.MaxBodySize
	if limit <= 0 {
		limit = MaxBodySize
	}
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to read response body",
			Cause:   err,
		}
	}
	if int64(len(bodyBytes)) > limit {
		return nil, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("document exceeds %d bytes", limit),
		}
	}

	result := &Result{
		URL:         urlStr,
		FinalURL:    resp.Request.URL.String(),
		Body:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
	}

	if resp.StatusCode >= http.StatusBadRequest && strings.TrimSpace(result.Body) == "" {
		return result, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("HTTP status %d without a document", resp.StatusCode),
		}
	}

	return result, nil
}

// IsHTML reports whether the content type describes an HTML document.
// An empty content type is treated as HTML, matching browser sniffing for documents.
func (r *Result) IsHTML() bool {
	ct := strings.ToLower(r.ContentType)
	return ct == "" || strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
