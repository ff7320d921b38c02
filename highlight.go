package guardian

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Style classifies a span of highlighted text.
type Style string

const (
	StylePlain     Style = "plain"
	StyleKeyword   Style = "keyword"   // command verbs and their sub-words
	StyleParameter Style = "parameter" // particles such as "de" and "puerto"
	StyleIP        Style = "ip"
	StyleNumber    Style = "number"
	StyleString    Style = "string"
)

// StyledSpan is a run of one line sharing a style.
// Start and End are byte offsets within the line, End exclusive.
type StyledSpan struct {
	Line  int    `json:"line"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Style Style  `json:"style"`
	Text  string `json:"text"`
}

// Highlight splits every line of text into styled spans.
// Lines are separated by "\n"; empty lines have no spans.
func (l *Lexicon) Highlight(text string) []StyledSpan {
	var spans []StyledSpan
	for i, line := range strings.Split(text, "\n") {
		spans = l.appendLine(spans, i+1, line)
	}
	return spans
}

// HighlightLine splits a single line into styled spans numbered as line 1.
//
// The spans cover the line exactly, in order, so concatenating their Text
// yields the line. The line is scanned once from left to right; at each
// position the first rule that applies decides the style of the whole
// token there:
//
//   - whitespace is plain
//   - a double-quoted string is a string; a quote without a partner is plain
//   - a word in the keyword vocabulary is a keyword
//   - a word in the particle vocabulary is a parameter
//   - four dot-separated groups of one to three digits are an IP address
//   - a word of digits is a number
//
// Anything else is plain. Vocabulary matching ignores case.
func (l *Lexicon) HighlightLine(line string) []StyledSpan {
	return l.appendLine(nil, 1, line)
}

func (l *Lexicon) appendLine(spans []StyledSpan, lineno int, line string) []StyledSpan {
	emit := func(start, end int, style Style) {
		if n := len(spans); style == StylePlain && n > 0 {
			last := &spans[n-1]
			if last.Line == lineno && last.Style == StylePlain && last.End == start {
				last.End = end
				last.Text = line[last.Start:end]
				return
			}
		}
		spans = append(spans, StyledSpan{
			Line:  lineno,
			Start: start,
			End:   end,
			Style: style,
			Text:  line[start:end],
		})
	}

	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		switch {
		case unicode.IsSpace(r):
			j := i + size
			for j < len(line) {
				r, n := utf8.DecodeRuneInString(line[j:])
				if !unicode.IsSpace(r) {
					break
				}
				j += n
			}
			emit(i, j, StylePlain)
			i = j

		case r == '"':
			k := strings.IndexByte(line[i+1:], '"')
			if k < 0 {
				emit(i, i+1, StylePlain)
				i++
				continue
			}
			j := i + 1 + k + 1
			emit(i, j, StyleString)
			i = j

		case isWordRune(r):
			if j, ok := scanIPv4(line, i); ok {
				emit(i, j, StyleIP)
				i = j
				continue
			}
			j := wordEnd(line, i)
			emit(i, j, l.wordStyle(line[i:j]))
			i = j

		default:
			j := i + size
			for j < len(line) {
				r, n := utf8.DecodeRuneInString(line[j:])
				if unicode.IsSpace(r) || r == '"' || isWordRune(r) {
					break
				}
				j += n
			}
			emit(i, j, StylePlain)
			i = j
		}
	}
	return spans
}

func (l *Lexicon) wordStyle(word string) Style {
	lower := strings.ToLower(word)
	switch {
	case l.keywords[lower]:
		return StyleKeyword
	case l.particles[lower]:
		return StyleParameter
	case isDigits(word):
		return StyleNumber
	}
	return StylePlain
}

// scanIPv4 matches four dot-separated groups of one to three ASCII digits
// starting at the beginning of a word and ending at a word boundary.
// It returns the offset just past the match.
func scanIPv4(line string, i int) (int, bool) {
	for group := range 4 {
		if group > 0 {
			if i >= len(line) || line[i] != '.' {
				return 0, false
			}
			i++
		}
		n := 0
		for i < len(line) && isDigit(line[i]) {
			i++
			n++
		}
		if n == 0 || n > 3 {
			return 0, false
		}
	}
	if i < len(line) {
		r, _ := utf8.DecodeRuneInString(line[i:])
		if isWordRune(r) {
			return 0, false
		}
	}
	return i, true
}

func wordEnd(line string, i int) int {
	for i < len(line) {
		r, n := utf8.DecodeRuneInString(line[i:])
		if !isWordRune(r) {
			break
		}
		i += n
	}
	return i
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}
