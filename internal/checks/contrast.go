package checks

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/a11y-audit/internal/types"
)

// MinContrastRatio is the WCAG AA threshold for normal text.
const MinContrastRatio = 4.5

// MaxContrastDetails caps how many offenders the contrast check reports.
const MaxContrastDetails = 10

// Color is an sRGB color with channels in 0..255 and alpha in 0..1.
type Color struct {
	R, G, B float64
	A       float64
}

var (
	White = Color{R: 255, G: 255, B: 255, A: 1}
	Black = Color{A: 1}
)

// ParseColor parses the color forms browsers report from getComputedStyle
// (rgb, rgba, including the space-separated syntax) plus hex and a few keywords.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return Color{}, fmt.Errorf("empty color")
	case "transparent":
		return Color{}, nil
	case "black":
		return Black, nil
	case "white":
		return White, nil
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}

	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return Color{}, fmt.Errorf("unsupported color %q", s)
	}
	fn := s[:open]
	if fn != "rgb" && fn != "rgba" {
		return Color{}, fmt.Errorf("unsupported color function %q", fn)
	}

	body := strings.NewReplacer(",", " ", "/", " ").Replace(s[open+1 : len(s)-1])
	fields := strings.Fields(body)
	if len(fields) != 3 && len(fields) != 4 {
		return Color{}, fmt.Errorf("malformed color %q", s)
	}

	c := Color{A: 1}
	channels := []*float64{&c.R, &c.G, &c.B}
	for i, dst := range channels {
		v, err := parseComponent(fields[i], 255)
		if err != nil {
			return Color{}, fmt.Errorf("malformed color %q: %w", s, err)
		}
		*dst = clamp(v, 0, 255)
	}
	if len(fields) == 4 {
		a, err := parseComponent(fields[3], 1)
		if err != nil {
			return Color{}, fmt.Errorf("malformed color %q: %w", s, err)
		}
		c.A = clamp(a, 0, 1)
	}
	return c, nil
}

func parseComponent(f string, scale float64) (float64, error) {
	if strings.HasSuffix(f, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
		return v / 100 * scale, err
	}
	return strconv.ParseFloat(f, 64)
}

func parseHex(h string) (Color, error) {
	switch len(h) {
	case 3, 4:
		expanded := make([]byte, 0, len(h)*2)
		for i := 0; i < len(h); i++ {
			expanded = append(expanded, h[i], h[i])
		}
		h = string(expanded)
	case 6, 8:
	default:
		return Color{}, fmt.Errorf("malformed hex color #%s", h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("malformed hex color #%s: %w", h, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return Color{
		R: float64(v >> 24 & 0xff),
		G: float64(v >> 16 & 0xff),
		B: float64(v >> 8 & 0xff),
		A: float64(v&0xff) / 255,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Over composites c on top of bg.
func (c Color) Over(bg Color) Color {
	if c.A >= 1 {
		return c
	}
	a := c.A + bg.A*(1-c.A)
	if a == 0 {
		return Color{}
	}
	mix := func(fg, b float64) float64 {
		return (fg*c.A + b*bg.A*(1-c.A)) / a
	}
	return Color{R: mix(c.R, bg.R), G: mix(c.G, bg.G), B: mix(c.B, bg.B), A: a}
}

func linearize(channel float64) float64 {
	c := channel / 255
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// RelativeLuminance returns the WCAG relative luminance of an opaque color.
func RelativeLuminance(c Color) float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

// ContrastRatio returns the WCAG contrast ratio between two colors, from 1 to 21.
// The order of the arguments does not matter.
func ContrastRatio(a, b Color) float64 {
	l1, l2 := RelativeLuminance(a), RelativeLuminance(b)
	return (math.Max(l1, l2) + 0.05) / (math.Min(l1, l2) + 0.05)
}

// TextContrast resolves the effective colors of text and returns their ratio.
// A translucent background is laid over white, then the foreground over that.
func TextContrast(fg, bg Color) float64 {
	back := bg.Over(White)
	return ContrastRatio(fg.Over(back), back)
}

// EffectiveBackground composites background layers, innermost first, down to
// the first opaque one. Layers beyond it are hidden; with no opaque layer the
// stack sits on white.
func EffectiveBackground(layers []Color) Color {
	last := len(layers) - 1
	for i, l := range layers {
		if l.A >= 1 {
			last = i
			break
		}
	}
	bg := White
	for i := last; i >= 0; i-- {
		bg = layers[i].Over(bg)
	}
	return bg
}

type textFacts struct {
	visibilityFacts
	Ref         int      `json:"ref"`
	Color       string   `json:"color"`
	Backgrounds []string `json:"backgrounds"`
}

// background parses the collected layers, skipping values it cannot read.
func (f textFacts) background() Color {
	layers := make([]Color, 0, len(f.Backgrounds))
	for _, s := range f.Backgrounds {
		if c, err := ParseColor(s); err == nil && c.A > 0 {
			layers = append(layers, c)
		}
	}
	return EffectiveBackground(layers)
}

// ColorContrast flags visible text whose contrast against its background is below MinContrastRatio.
type ColorContrast struct{}

func (ColorContrast) Name() string { return NameColorContrast }

func (c ColorContrast) Run(ctx context.Context, page Page) (types.Result, error) {
	var elems []textFacts
	if err := collect(ctx, page, "contrast", &elems); err != nil {
		return types.Result{}, err
	}

	var refs []int
	for _, el := range elems {
		if len(refs) == MaxContrastDetails {
			break
		}
		if !el.Visible() {
			continue
		}
		fg, err := ParseColor(el.Color)
		if err != nil || fg.A == 0 {
			continue
		}
		if TextContrast(fg, el.background()) < MinContrastRatio {
			refs = append(refs, el.Ref)
		}
	}
	return resolve(ctx, page, c.Name(), refs)
}
