package checks

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/a11y-audit/internal/types"
)

var headingRole = regexp.MustCompile(`(?i)^h[1-6]$`)

// AllowedRoles are the widget roles the audit accepts on custom elements.
var AllowedRoles = map[string]bool{
	"button":     true,
	"dialog":     true,
	"navigation": true,
	"tablist":    true,
	"tab":        true,
	"tabpanel":   true,
	"checkbox":   true,
	"menu":       true,
	"menuitem":   true,
}

// MinErrorTextLength is the shortest error message text considered understandable.
const MinErrorTextLength = 3

type genericFacts struct {
	Ref       int    `json:"ref"`
	Tag       string `json:"tag"`
	Role      string `json:"role"`
	Listeners int    `json:"listeners"`
}

// SemanticHTML flags div and span elements used as controls or headings.
type SemanticHTML struct{}

func (SemanticHTML) Name() string { return NameSemanticHTML }

func (c SemanticHTML) Run(ctx context.Context, page Page) (types.Result, error) {
	var elems []genericFacts
	if err := collect(ctx, page, "semantic", &elems); err != nil {
		return types.Result{}, err
	}

	// Decorated containers first, then heading impostors.
	var decorated, headings []int
	for _, el := range elems {
		if Classify(el.Tag, el.Listeners) == KindDecoratedGeneric {
			decorated = append(decorated, el.Ref)
		} else if headingRole.MatchString(el.Role) {
			headings = append(headings, el.Ref)
		}
	}
	return resolve(ctx, page, c.Name(), append(decorated, headings...))
}

type focusableFacts struct {
	Ref      int     `json:"ref"`
	HTML     bool    `json:"html"`
	TabIndex int     `json:"tabIndex"`
	Attr     *string `json:"tabindex"`
}

// KeyboardAccess flags interactive elements removed from the tab order.
type KeyboardAccess struct{}

func (KeyboardAccess) Name() string { return NameKeyboardAccess }

func (c KeyboardAccess) Run(ctx context.Context, page Page) (types.Result, error) {
	var elems []focusableFacts
	if err := collect(ctx, page, "keyboard", &elems); err != nil {
		return types.Result{}, err
	}
	var refs []int
	for _, el := range elems {
		if el.HTML && el.TabIndex < 0 && (el.Attr == nil || *el.Attr != "0") {
			refs = append(refs, el.Ref)
		}
	}
	return resolve(ctx, page, c.Name(), refs)
}

type roleFacts struct {
	Ref  int    `json:"ref"`
	Role string `json:"role"`
}

// ARIARoles flags role values outside AllowedRoles.
type ARIARoles struct{}

func (ARIARoles) Name() string { return NameARIARoles }

func (c ARIARoles) Run(ctx context.Context, page Page) (types.Result, error) {
	var elems []roleFacts
	if err := collect(ctx, page, "roles", &elems); err != nil {
		return types.Result{}, err
	}
	var refs []int
	for _, el := range elems {
		if el.Role != "" && !AllowedRoles[el.Role] {
			refs = append(refs, el.Ref)
		}
	}
	return resolve(ctx, page, c.Name(), refs)
}

type imageFacts struct {
	Ref int     `json:"ref"`
	Alt *string `json:"alt"`
}

// ImageAlt flags images without alternative text.
type ImageAlt struct{}

func (ImageAlt) Name() string { return NameImageAlt }

func (c ImageAlt) Run(ctx context.Context, page Page) (types.Result, error) {
	var elems []imageFacts
	if err := collect(ctx, page, "images", &elems); err != nil {
		return types.Result{}, err
	}
	var refs []int
	for _, el := range elems {
		if el.Alt == nil || strings.TrimSpace(*el.Alt) == "" {
			refs = append(refs, el.Ref)
		}
	}
	return resolve(ctx, page, c.Name(), refs)
}

type ariaFacts struct {
	Ref        int               `json:"ref"`
	Attributes map[string]string `json:"attributes"`
}

// ARIAAttributes flags elements carrying an empty aria-* attribute.
type ARIAAttributes struct{}

func (ARIAAttributes) Name() string { return NameARIAAttributes }

func (c ARIAAttributes) Run(ctx context.Context, page Page) (types.Result, error) {
	var elems []ariaFacts
	if err := collect(ctx, page, "aria", &elems); err != nil {
		return types.Result{}, err
	}
	var refs []int
	for _, el := range elems {
		for name, value := range el.Attributes {
			if strings.HasPrefix(name, "aria-") && strings.TrimSpace(value) == "" {
				refs = append(refs, el.Ref)
				break
			}
		}
	}
	return resolve(ctx, page, c.Name(), refs)
}

type labelFacts struct {
	Controls []struct {
		Ref int    `json:"ref"`
		ID  string `json:"id"`
	} `json:"controls"`
	LabelFor []string `json:"labelFor"`
}

// FormLabels flags form controls with no label pointing at them.
type FormLabels struct{}

func (FormLabels) Name() string { return NameFormLabels }

func (c FormLabels) Run(ctx context.Context, page Page) (types.Result, error) {
	var facts labelFacts
	if err := collect(ctx, page, "labels", &facts); err != nil {
		return types.Result{}, err
	}
	labelled := make(map[string]bool, len(facts.LabelFor))
	for _, id := range facts.LabelFor {
		labelled[id] = true
	}
	var refs []int
	for _, ctl := range facts.Controls {
		if ctl.ID == "" || !labelled[ctl.ID] {
			refs = append(refs, ctl.Ref)
		}
	}
	return resolve(ctx, page, c.Name(), refs)
}

type errorFacts struct {
	Ref  int    `json:"ref"`
	Text string `json:"text"`
}

// ErrorMessages flags error containers whose text is too short to explain anything.
type ErrorMessages struct{}

func (ErrorMessages) Name() string { return NameErrorMessages }

func (c ErrorMessages) Run(ctx context.Context, page Page) (types.Result, error) {
	var elems []errorFacts
	if err := collect(ctx, page, "errors", &elems); err != nil {
		return types.Result{}, err
	}
	var refs []int
	for _, el := range elems {
		if utf8.RuneCountInString(strings.TrimSpace(el.Text)) < MinErrorTextLength {
			refs = append(refs, el.Ref)
		}
	}
	return resolve(ctx, page, c.Name(), refs)
}
