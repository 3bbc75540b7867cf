// Package scripts provides the JavaScript sources evaluated inside the audited page.
// Scripts are stored as .js files and embedded at compile time.
package scripts

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"
)

//go:embed *.js
var scriptFiles embed.FS

const (
	// Instrument wraps Element.prototype.addEventListener so listener registrations
	// can be recognized later. It is spliced into the document <head>.
	Instrument = "instrument.js"
	// Probe installs window.__a11yAudit, the collectors used by the checks.
	Probe = "probe.js"
)

// cache stores script sources to avoid repeated reads
var (
	cache   = make(map[string]string)
	cacheMu sync.RWMutex
)

// Get retrieves a script source by filename (e.g. "probe.js").
func Get(filename string) (string, error) {
	cacheMu.RLock()
	if src, exists := cache[filename]; exists {
		cacheMu.RUnlock()
		return src, nil
	}
	cacheMu.RUnlock()

	data, err := scriptFiles.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read script %s: %w", filename, err)
	}
	src := strings.TrimSpace(string(data))
	if src == "" {
		return "", fmt.Errorf("script %s is empty", filename)
	}

	cacheMu.Lock()
	cache[filename] = src
	cacheMu.Unlock()

	return src, nil
}

// MustGet retrieves a script source, panicking if it is missing.
// Use this for scripts that are required at initialization time.
func MustGet(filename string) string {
	src, err := Get(filename)
	if err != nil {
		panic(fmt.Sprintf("failed to load script: %v", err))
	}
	return src
}

// ClearCache clears the script cache. Useful for testing.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]string)
	cacheMu.Unlock()
}

// List returns the names of all embedded scripts.
func List() ([]string, error) {
	entries, err := scriptFiles.ReadDir(".")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
