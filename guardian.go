// Package guardian is an editor language service for the Guardián
// security-operations command language.
//
// A Guardián document is a sequence of lines. Each non-blank line that does
// not start with "#" is a command: a verb followed by whitespace-separated
// words, some of which introduce a value with a trailing colon.
//
//	# Configuración básica de firewall
//	crear regla firewall puerto: 22 protocolo: TCP accion: permitir
//	alertar "Firewall configurado" nivel: alto
//	analizar puertos de 192.168.1.1
//
// The package never executes commands. It answers questions an editor asks
// about surface syntax, given the full document text and a cursor offset:
//
//   - [ResolveContext] splits the text around the cursor into a [DocumentContext].
//   - [Lexicon.Classify] decides which grammatical [Slot] the cursor occupies.
//   - [Lexicon.Suggest] ranks completions for that slot; [Accept] applies one.
//   - [Lexicon.Validate] reports unknown commands as [Diagnostic] values.
//   - [Lexicon.Highlight] splits every line into styled spans for rendering.
//
// [Lexicon.Complete] chains the first three steps for the common case:
//
//	lex := guardian.Default()
//	for _, s := range lex.Complete("analiz", 6, guardian.Typing) {
//		fmt.Println(s.Label) // analizar
//	}
//
// # Purity
//
// Every entry point is a synchronous function of its arguments. There is no
// hidden state, so calling any of them twice with the same input yields the
// same output, and callers are free to debounce, cancel or discard results
// as they see fit. A [Lexicon] is read-only after loading.
//
// # Offsets
//
// Cursor offsets and span columns are byte offsets into UTF-8 text.
// Offsets outside the text are clamped to it, and an offset that falls
// inside a multi-byte character is moved back to the start of that
// character. Line numbers are 1-based.
//
// # Validation
//
// Validation is shallow on purpose: it checks only that the first word of
// each command line names a known command. Parameter completeness and value
// legality are reported only by the opt-in [Lexicon.Lint], and only as
// warnings.
package guardian

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DocumentContext describes the text around the cursor.
//
// It is derived from the document on every query and never stored.
type DocumentContext struct {
	// Text is the full document.
	Text string

	// Offset is the cursor position after clamping.
	Offset int

	// Line is the text of the current line up to the cursor.
	Line string

	// Words are the whitespace-separated words of Line.
	Words []string

	// WordUnderCursor is the partial word immediately before the cursor.
	// It is empty when Line is empty or ends in whitespace, which marks
	// the start of a new word.
	WordUnderCursor string

	// LineNumber is the 1-based number of the current line.
	LineNumber int
}

// ResolveContext splits text around offset.
//
// It is total: any offset is clamped into [0, len(text)].
func ResolveContext(text string, offset int) DocumentContext {
	offset = clampOffset(text, offset)
	before := text[:offset]

	start := strings.LastIndexByte(before, '\n') + 1
	line := before[start:]
	if start == 0 {
		line = strings.TrimPrefix(line, byteOrderMark)
	}
	words := strings.Fields(line)
	if len(words) == 0 {
		words = nil
	}

	return DocumentContext{
		Text:            text,
		Offset:          offset,
		Line:            line,
		Words:           words,
		WordUnderCursor: lastField(line),
		LineNumber:      1 + strings.Count(before, "\n"),
	}
}

// CompletedWords reports how many words on the line are finished, that is,
// not still being typed under the cursor.
func (c DocumentContext) CompletedWords() int {
	n := len(c.Words)
	if c.WordUnderCursor != "" {
		n--
	}
	return n
}

// ReplaceStart returns the offset where the word under the cursor begins.
// Accepting a suggestion replaces the text between it and Offset.
func (c DocumentContext) ReplaceStart() int {
	return c.Offset - len(c.WordUnderCursor)
}

// lastField returns the text after the last whitespace character of s,
// which is the last element of s split on runs of whitespace.
func lastField(s string) string {
	i := strings.LastIndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s
	}
	_, size := utf8.DecodeRuneInString(s[i:])
	return s[i+size:]
}

// clampOffset moves offset into the text and onto a character boundary.
func clampOffset(text string, offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(text) {
		return len(text)
	}
	for offset > 0 && offset < len(text) && !utf8.RuneStart(text[offset]) {
		offset--
	}
	return offset
}

func isSpace(r rune) bool { return unicode.IsSpace(r) }
