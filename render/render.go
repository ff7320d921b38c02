// Package render turns highlighted Guardián documents into HTML or
// colored terminal text.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"guardian.dev/guardian"
)

// Document is a text together with what the language service found in it.
type Document struct {
	Text        string
	Spans       []guardian.StyledSpan
	Diagnostics []guardian.Diagnostic
}

// Analyze highlights and validates text. With strict set, diagnostics
// come from [guardian.Lexicon.Lint] instead of Validate.
func Analyze(lex *guardian.Lexicon, text string, strict bool) Document {
	doc := Document{Text: text, Spans: lex.Highlight(text)}
	if strict {
		doc.Diagnostics = lex.Lint(text)
	} else {
		doc.Diagnostics = lex.Validate(text)
	}
	return doc
}

// lines groups the spans and diagnostics of doc by line.
func (doc Document) lines() []line {
	texts := strings.Split(doc.Text, "\n")
	out := make([]line, len(texts))
	for i, t := range texts {
		out[i].text = t
	}
	for _, s := range doc.Spans {
		if s.Line >= 1 && s.Line <= len(out) {
			out[s.Line-1].spans = append(out[s.Line-1].spans, s)
		}
	}
	for _, d := range doc.Diagnostics {
		if d.Line >= 1 && d.Line <= len(out) {
			out[d.Line-1].diags = append(out[d.Line-1].diags, d)
		}
	}
	return out
}

type line struct {
	text  string
	spans []guardian.StyledSpan
	diags []guardian.Diagnostic
}

func (l line) severity() guardian.Severity {
	var sev guardian.Severity
	for _, d := range l.diags {
		if d.Severity == guardian.SeverityError {
			return d.Severity
		}
		sev = d.Severity
	}
	return sev
}

// HTML writes doc as a <pre class="guardian"> element. Each line is a
// <span class="line"> holding one <span> per styled span, with the style
// as its class; plain text is left bare. Lines with diagnostics also get
// the class of their worst severity and the messages as title.
func HTML(w io.Writer, doc Document) error {
	pre := element(atom.Pre, "guardian")
	for i, l := range doc.lines() {
		if i > 0 {
			pre.AppendChild(&html.Node{Type: html.TextNode, Data: "\n"})
		}
		class := "line"
		if sev := l.severity(); sev != "" {
			class += " " + string(sev)
		}
		ln := element(atom.Span, class)
		ln.Attr = append(ln.Attr, html.Attribute{Key: "data-line", Val: strconv.Itoa(i + 1)})
		if len(l.diags) > 0 {
			var msgs []string
			for _, d := range l.diags {
				msgs = append(msgs, d.Message)
			}
			ln.Attr = append(ln.Attr, html.Attribute{Key: "title", Val: strings.Join(msgs, "\n")})
		}
		for _, s := range l.spans {
			text := &html.Node{Type: html.TextNode, Data: s.Text}
			if s.Style == guardian.StylePlain {
				ln.AppendChild(text)
				continue
			}
			sp := element(atom.Span, string(s.Style))
			sp.AppendChild(text)
			ln.AppendChild(sp)
		}
		pre.AppendChild(ln)
	}
	if err := html.Render(w, pre); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func element(a atom.Atom, class string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
}

// Theme holds the terminal styles used by [Theme.ANSI].
type Theme struct {
	Keyword   lipgloss.Style
	Parameter lipgloss.Style
	IP        lipgloss.Style
	Number    lipgloss.Style
	String    lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Muted     lipgloss.Style
}

// NewTheme returns the default theme bound to r, which decides whether
// and how colors are emitted.
func NewTheme(r *lipgloss.Renderer) *Theme {
	return &Theme{
		Keyword:   r.NewStyle().Foreground(lipgloss.Color("#8B5CF6")).Bold(true),
		Parameter: r.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		IP:        r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		Number:    r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		String:    r.NewStyle().Foreground(lipgloss.Color("#94A3B8")).Italic(true),
		Error:     r.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		Warning:   r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		Muted:     r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	}
}

func (t *Theme) style(s guardian.Style) (lipgloss.Style, bool) {
	switch s {
	case guardian.StyleKeyword:
		return t.Keyword, true
	case guardian.StyleParameter:
		return t.Parameter, true
	case guardian.StyleIP:
		return t.IP, true
	case guardian.StyleNumber:
		return t.Number, true
	case guardian.StyleString:
		return t.String, true
	}
	return lipgloss.Style{}, false
}

// Line renders the spans of one line.
func (t *Theme) Line(spans []guardian.StyledSpan) string {
	var b strings.Builder
	for _, s := range spans {
		if st, ok := t.style(s.Style); ok {
			b.WriteString(st.Render(s.Text))
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// ANSI writes the text of doc with terminal colors, one line per line.
func (t *Theme) ANSI(w io.Writer, doc Document) error {
	for i, l := range doc.lines() {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, t.Line(l.spans)); err != nil {
			return err
		}
	}
	return nil
}

// Diagnostic formats d as "line:col: severity: message (hint)",
// coloring the severity.
func (t *Theme) Diagnostic(d guardian.Diagnostic) string {
	sev := t.Warning
	if d.Severity == guardian.SeverityError {
		sev = t.Error
	}
	s := fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Column, sev.Render(string(d.Severity)), d.Message)
	if d.Hint != "" {
		s += " " + t.Muted.Render("("+d.Hint+")")
	}
	return s
}

// WriteHelp lists suggestions in rank order under "Possible completions:",
// with descriptions aligned in a column.
func WriteHelp(w io.Writer, ss []guardian.Suggestion) {
	width := 20
	for _, s := range ss {
		if len(s.Label)+2 > width {
			width = len(s.Label) + 2
		}
	}
	var b strings.Builder
	b.WriteString("Possible completions:\n")
	for _, s := range ss {
		if s.Description != "" {
			fmt.Fprintf(&b, "  %-*s %s\n", width, s.Label, s.Description)
		} else {
			fmt.Fprintf(&b, "  %s\n", s.Label)
		}
	}
	io.WriteString(w, b.String())
}

// Help writes h as plain text, highlighting its examples with lex.
func (t *Theme) Help(w io.Writer, lex *guardian.Lexicon, h guardian.Help) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n  %s\n\n  %s\n", h.Title, h.Description, t.Muted.Render(h.Syntax))
	for _, ex := range h.Examples {
		fmt.Fprintf(&b, "    %s\n", t.Line(lex.HighlightLine(ex)))
	}
	if h.Category != "" {
		fmt.Fprintf(&b, "\n  Categoría: %s\n", h.Category.DisplayName())
	}
	io.WriteString(w, b.String())
}
