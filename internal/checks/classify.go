package checks

import "strings"

// ElementKind classifies an element for the semantic HTML rule.
type ElementKind int

const (
	// KindPlain is an element with no interactive behavior.
	KindPlain ElementKind = iota
	// KindNativeControl is an element that is interactive by definition.
	KindNativeControl
	// KindDecoratedGeneric is a generic container that had event listeners attached.
	KindDecoratedGeneric
)

func (k ElementKind) String() string {
	switch k {
	case KindNativeControl:
		return "native-control"
	case KindDecoratedGeneric:
		return "decorated-generic"
	default:
		return "plain"
	}
}

var nativeControls = map[string]bool{
	"a":        true,
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"summary":  true,
	"option":   true,
}

var genericContainers = map[string]bool{
	"div":  true,
	"span": true,
}

// Classify derives the kind of an element from its tag and the number of
// recorded listener registrations.
func Classify(tag string, listeners int) ElementKind {
	tag = strings.ToLower(tag)
	switch {
	case nativeControls[tag]:
		return KindNativeControl
	case genericContainers[tag] && listeners > 0:
		return KindDecoratedGeneric
	default:
		return KindPlain
	}
}
