package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/jonathan/a11y-audit/internal/types"
)

const markupHighlight = markdown.SyntaxHighlight("html")

// MarkdownWriter writes reports as a Markdown document with a summary table per
// page and the offending markup of each failed check in HTML code blocks.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

func (w *MarkdownWriter) Write(reports ...*types.AuditReport) error {
	md := markdown.NewMarkdown(w.output)
	md.H1("Accessibility Audit")
	md.PlainText("")

	for _, r := range reports {
		w.writeReport(md, r)
	}
	return md.Build()
}

func (w *MarkdownWriter) writeReport(md *markdown.Markdown, r *types.AuditReport) {
	md.H2(r.URL)
	md.PlainText("")

	passed, failed := r.Counts()
	rows := make([][]string, len(r.Results))
	for i, res := range r.Results {
		rows[i] = []string{escapeText(res.Check), statusText(res), strconv.Itoa(len(res.Details))}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Check", "Status", "Offenders"},
		Rows:   rows,
	})
	md.PlainText("")

	if failed == 0 {
		md.Tip("All " + strconv.Itoa(passed) + " checks passed.")
	} else {
		md.Warningf("%d of %d checks failed.", failed, passed+failed)
	}
	md.PlainText("")

	for _, res := range r.Results {
		if res.Passed() {
			continue
		}
		md.H3(escapeText(res.Check))
		md.PlainText("")
		if res.Error != "" {
			md.Cautionf("Check could not be evaluated: %s", res.Error)
			md.PlainText("")
			continue
		}
		md.CodeBlocks(markupHighlight, strings.Join(res.Details, "\n"))
		md.PlainText("")
	}

	md.H3("Console")
	md.PlainText("")
	if len(r.Logs) == 0 {
		md.PlainText("No console output.")
	} else {
		md.CodeBlocks(markdown.SyntaxHighlight("text"), strings.Join(r.Logs, "\n"))
	}
	md.PlainText("")
}

func statusText(res types.Result) string {
	switch {
	case res.Passed():
		return "✅ PASS"
	case res.Error != "":
		return "⚠️ FAIL (error)"
	default:
		return "❌ FAIL"
	}
}

var textEscaper = strings.NewReplacer("|", `\|`, "<", "&lt;", ">", "&gt;")

// escapeText keeps check names such as "no <div> buttons" from rendering as HTML.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}
