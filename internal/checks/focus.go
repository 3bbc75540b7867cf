package checks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/a11y-audit/internal/types"
)

// MaxTabPresses bounds the keyboard traversal of a page.
const MaxTabPresses = 100

// DefaultKeySettleTime is the wait after each Tab press before reading focus.
const DefaultKeySettleTime = 50 * time.Millisecond

// KeyTab is the key used for traversal.
const KeyTab = "Tab"

// visibilityFacts is the rendering state shared by collectors that care whether
// an element can be seen.
type visibilityFacts struct {
	Display    string `json:"display"`
	Visibility string `json:"visibility"`
	Opacity    string `json:"opacity"`
	HasBox     bool   `json:"hasBox"`
}

// Visible reports whether the element is rendered and not hidden.
func (v visibilityFacts) Visible() bool {
	if v.Display == "none" || v.Visibility == "hidden" || !v.HasBox {
		return false
	}
	if op, err := strconv.ParseFloat(strings.TrimSpace(v.Opacity), 64); err == nil && op == 0 {
		return false
	}
	return true
}

type focusFacts struct {
	visibilityFacts
	Markup         string `json:"markup"`
	Tag            string `json:"tag"`
	OutlineStyle   string `json:"outlineStyle"`
	OutlineWidth   string `json:"outlineWidth"`
	BoxShadow      string `json:"boxShadow"`
	TextDecoration string `json:"textDecoration"`
}

// HasCue reports whether the focused element shows any focus indicator.
func (f focusFacts) HasCue() bool {
	outlineGone := f.OutlineStyle == "none" || roundsToZero(f.OutlineWidth)
	shadowGone := f.BoxShadow == "" || f.BoxShadow == "none"
	isLink := strings.EqualFold(f.Tag, "a")
	decorationGone := strings.ReplaceAll(f.TextDecoration, " ", "") == "none"
	return !(outlineGone && shadowGone && (!isLink || decorationGone))
}

func roundsToZero(width string) bool {
	w, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(width), "px"), 64)
	if err != nil {
		return false
	}
	return int(w+0.5) == 0
}

// FocusIndicators walks the page with the Tab key and flags visible elements
// that receive focus without any visual cue.
type FocusIndicators struct {
	MaxPresses int
	Settle     time.Duration
}

func (FocusIndicators) Name() string { return NameFocusIndicators }

func (c FocusIndicators) Run(ctx context.Context, page Page) (types.Result, error) {
	presses := c.MaxPresses
	if presses <= 0 {
		presses = MaxTabPresses
	}

	var reset bool
	if err := collect(ctx, page, "resetFocus", &reset); err != nil {
		return types.Result{}, err
	}

	visited := make(map[string]bool)
	details := []string{}
	for i := 0; i < presses; i++ {
		if err := page.PressKey(ctx, KeyTab); err != nil {
			return types.Result{}, fmt.Errorf("pressing %s: %w", KeyTab, err)
		}
		if err := sleep(ctx, c.Settle); err != nil {
			return types.Result{}, err
		}

		var focused *focusFacts
		if err := collect(ctx, page, "focused", &focused); err != nil {
			return types.Result{}, err
		}
		if focused == nil {
			continue
		}
		if visited[focused.Markup] {
			break
		}
		visited[focused.Markup] = true

		if focused.Visible() && !focused.HasCue() {
			details = append(details, focused.Markup)
		}
	}
	return types.NewResult(c.Name(), details), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
