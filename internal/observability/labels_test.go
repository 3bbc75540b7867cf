package observability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElementLabel(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{name: "image src", markup: `<img src="logo.png">`, want: "img[src=logo.png]"},
		{name: "id wins over class", markup: `<button id="save" class="btn primary">Save</button>`, want: `button#save "Save"`},
		{name: "first class", markup: `<div class="btn primary" onclick="x()">Go</div>`, want: `div.btn "Go"`},
		{name: "input name", markup: `<input type="text" name="email">`, want: "input[name=email]"},
		{name: "link", markup: `<a href="/about">About us</a>`, want: `a[href=/about] "About us"`},
		{name: "collapses whitespace", markup: "<p>\n  too   light\n</p>", want: `p "too light"`},
		{name: "head element", markup: `<title>Home</title>`, want: `title "Home"`},
		{name: "text only", markup: "just text", want: "just text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ElementLabel(tt.markup))
		})
	}
}

func TestElementLabel_TruncatesText(t *testing.T) {
	label := ElementLabel("<p>" + strings.Repeat("word ", 20) + "</p>")
	assert.True(t, strings.HasPrefix(label, `p "word word`))
	assert.Contains(t, label, `..."`)
}
