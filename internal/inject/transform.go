// Package inject rewrites the top-level HTML document so the instrumentation
// script runs before any of the page's own scripts.
package inject

import (
	"regexp"
	"strings"
)

var (
	headTag = regexp.MustCompile(`(?i)<head(\s[^>]*)?>`)
	htmlTag = regexp.MustCompile(`(?i)<html(\s[^>]*)?>`)
)

// RequestMeta is the subset of an intercepted request needed to decide whether to rewrite it.
type RequestMeta struct {
	URL          string
	Method       string
	ResourceType string // CDP resource type, e.g. "Document", "Script"
	FrameID      string
	MainFrameID  string
}

// IsTopLevelDocument reports whether the request fetches the main frame's document.
// Sub-resources, XHR and iframe documents are passed through untouched.
func IsTopLevelDocument(req RequestMeta) bool {
	if req.ResourceType != "Document" {
		return false
	}
	if req.Method != "" && !strings.EqualFold(req.Method, "GET") {
		return false
	}
	return req.MainFrameID == "" || req.FrameID == req.MainFrameID
}

// ScriptTag wraps source in an inline <script> element.
func ScriptTag(source string) string {
	return "<script>" + source + "</script>"
}

// Splice inserts an inline script immediately after the first <head> tag.
// Documents without <head> get the script after <html>, and documents with
// neither get it prepended, so it still parses before any page script.
func Splice(body, source string) string {
	tag := ScriptTag(source)
	if loc := headTag.FindStringIndex(body); loc != nil {
		return body[:loc[1]] + tag + body[loc[1]:]
	}
	if loc := htmlTag.FindStringIndex(body); loc != nil {
		return body[:loc[1]] + tag + body[loc[1]:]
	}
	return tag + body
}
