package observability

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mattn/go-runewidth"
)

const maxLabelText = 24

// labelAttrs are the attributes that best identify an element, in preference order.
var labelAttrs = []string{"src", "href", "name", "type", "role", "for"}

// ElementLabel turns serialized markup into a compact selector-like label such as
// `img[src=logo.png]` or `button#save "Save"`. Markup that does not parse to an
// element is returned truncated.
func ElementLabel(markup string) string {
	markup = strings.TrimSpace(markup)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return runewidth.Truncate(markup, boxWidth-10, "...")
	}

	sel := doc.Find("head > *, body > *").First()
	if sel.Length() == 0 {
		return runewidth.Truncate(markup, boxWidth-10, "...")
	}

	var sb strings.Builder
	sb.WriteString(goquery.NodeName(sel))

	if id, ok := sel.Attr("id"); ok && id != "" {
		sb.WriteString("#" + id)
	} else if class, ok := sel.Attr("class"); ok {
		if fields := strings.Fields(class); len(fields) > 0 {
			sb.WriteString("." + fields[0])
		}
	}

	for _, name := range labelAttrs {
		if v, ok := sel.Attr(name); ok {
			sb.WriteString(fmt.Sprintf("[%s=%s]", name, v))
			break
		}
	}

	if text := strings.Join(strings.Fields(sel.Text()), " "); text != "" {
		sb.WriteString(fmt.Sprintf(" %q", runewidth.Truncate(text, maxLabelText, "...")))
	}

	return sb.String()
}
