package checks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// fakePage answers probe calls from canned JSON.
type fakePage struct {
	collectors map[string]string
	nodes      map[int]string
	focus      []string
	errs       map[string]error
	pressErr   error

	focusIdx int
	presses  int
	exprs    []string
}

func (p *fakePage) Evaluate(_ context.Context, expr string, out any) error {
	p.exprs = append(p.exprs, expr)

	prefix := probeGlobal + "."
	if !strings.HasPrefix(expr, prefix) {
		return decode("true", out)
	}
	call := strings.TrimPrefix(expr, prefix)
	name := call[:strings.IndexByte(call, '(')]
	if err := p.errs[name]; err != nil {
		return err
	}

	switch name {
	case "markup":
		var refs []int
		if err := json.Unmarshal([]byte(call[len(name)+1:len(call)-1]), &refs); err != nil {
			return err
		}
		markup := make([]string, len(refs))
		for i, ref := range refs {
			markup[i] = p.nodes[ref]
		}
		data, _ := json.Marshal(markup)
		return decode(string(data), out)
	case "focused":
		data := "null"
		if p.focusIdx < len(p.focus) {
			data = p.focus[p.focusIdx]
			p.focusIdx++
		}
		return decode(data, out)
	case "resetFocus":
		return decode("true", out)
	}

	data, ok := p.collectors[name]
	if !ok {
		data = "[]"
	}
	return decode(data, out)
}

func (p *fakePage) PressKey(_ context.Context, key string) error {
	if key != KeyTab {
		return fmt.Errorf("unexpected key %q", key)
	}
	p.presses++
	return p.pressErr
}

func decode(data string, out any) error {
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(data), out)
}

var errEvaluation = errors.New("evaluation failed: TypeError")

// focusJSON renders a focused-element snapshot.
func focusJSON(markup, tag, outlineStyle, outlineWidth, boxShadow, decoration string, visible bool) string {
	display := "inline-block"
	if !visible {
		display = "none"
	}
	data, _ := json.Marshal(map[string]any{
		"markup":         markup,
		"tag":            tag,
		"outlineStyle":   outlineStyle,
		"outlineWidth":   outlineWidth,
		"boxShadow":      boxShadow,
		"textDecoration": decoration,
		"display":        display,
		"visibility":     "visible",
		"opacity":        "1",
		"hasBox":         visible,
	})
	return string(data)
}
