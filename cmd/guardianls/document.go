package main

import (
	"strings"

	"go.lsp.dev/protocol"

	"guardian.dev/guardian"
)

// Document

type document struct {
	uri    protocol.DocumentURI
	lex    *guardian.Lexicon
	strict bool

	text   string
	lines  []string // split on "\n"; a trailing "\r" stays on its line
	starts []int    // byte offset of each line in text
	diags  []guardian.Diagnostic
	stmts  []guardian.Statement
}

func newDocument(lex *guardian.Lexicon, uri protocol.DocumentURI, text string, strict bool) *document {
	d := &document{uri: uri, lex: lex, strict: strict}
	d.setText(text)
	return d
}

func (d *document) setText(text string) {
	d.text = text
	d.lines = strings.Split(text, "\n")
	d.starts = d.starts[:0]
	off := 0
	for _, l := range d.lines {
		d.starts = append(d.starts, off)
		off += len(l) + 1
	}
	d.stmts = guardian.Statements(text)
	if d.strict {
		d.diags = d.lex.Lint(text)
	} else {
		d.diags = d.lex.Validate(text)
	}
}

// offset converts an LSP position, counted in UTF-16 units, to a byte
// offset in d.text. Positions past the end of a line or of the document
// are clamped.
func (d *document) offset(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(d.lines) {
		return len(d.text)
	}
	text := d.lines[line]
	want := int(pos.Character)
	n := 0
	for i, r := range text {
		if n >= want {
			return d.starts[line] + i
		}
		n += utf16RuneLen(r)
	}
	return d.starts[line] + len(text)
}

// position converts a byte offset in d.text to an LSP position.
func (d *document) position(offset int) protocol.Position {
	offset = min(max(offset, 0), len(d.text))
	line := 0
	for line+1 < len(d.starts) && d.starts[line+1] <= offset {
		line++
	}
	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(utf16Len(d.text[d.starts[line]:offset])),
	}
}

// diagnosticRange returns the range a diagnostic covers: the bytes it
// names, or its whole line when it has no column.
func (d *document) diagnosticRange(diag guardian.Diagnostic) protocol.Range {
	line := diag.Line - 1
	if line < 0 || line >= len(d.lines) {
		return protocol.Range{}
	}
	text := strings.TrimRight(d.lines[line], "\r")
	start, end := 0, len(text)
	if diag.Column > 0 {
		start = min(diag.Column-1, len(text))
		end = min(start+diag.Length, len(text))
	}
	return protocol.Range{
		Start: protocol.Position{Line: uint32(line), Character: uint32(utf16Len(text[:start]))},
		End:   protocol.Position{Line: uint32(line), Character: uint32(utf16Len(text[:end]))},
	}
}

// comment returns the "#" lines written above the statement on line,
// without their markers, or "" if there are none.
func (d *document) comment(line int) string {
	for _, st := range d.stmts {
		if st.Line != line+1 {
			continue
		}
		var lines []string
		for _, c := range strings.Split(strings.TrimSuffix(st.Comment, "\n"), "\n") {
			if c = strings.TrimSpace(strings.TrimPrefix(c, "#")); c != "" {
				lines = append(lines, c)
			}
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

// Semantic token types, in legend order.
const (
	tokKeyword = iota
	tokParameter
	tokNumber
	tokString
)

var tokenLegend = []protocol.SemanticTokenTypes{
	tokKeyword:   protocol.SemanticTokenKeyword,
	tokParameter: protocol.SemanticTokenParameter,
	tokNumber:    protocol.SemanticTokenNumber,
	tokString:    protocol.SemanticTokenString,
}

// Editors have no token type for addresses, so they are shown as numbers.
var tokenTypes = map[guardian.Style]int{
	guardian.StyleKeyword:   tokKeyword,
	guardian.StyleParameter: tokParameter,
	guardian.StyleIP:        tokNumber,
	guardian.StyleNumber:    tokNumber,
	guardian.StyleString:    tokString,
}

func (d *document) semanticTokens() []uint32 {
	var data []uint32
	prevLine, prevChar := 0, 0
	for _, sp := range d.lex.Highlight(d.text) {
		typ, ok := tokenTypes[sp.Style]
		if !ok {
			continue
		}
		line := sp.Line - 1
		start := utf16Len(d.lines[line][:sp.Start])
		deltaLine := line - prevLine
		deltaChar := start
		if deltaLine == 0 {
			deltaChar = start - prevChar
		}
		data = append(data, uint32(deltaLine), uint32(deltaChar), uint32(utf16Len(sp.Text)), uint32(typ), 0)
		prevLine, prevChar = line, start
	}
	return data
}

// Helpers

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16RuneLen(r)
	}
	return n
}

func utf16RuneLen(r rune) int {
	if r > 0xFFFF {
		return 2
	}
	return 1
}
