package repl

import (
	"io"
	"strings"

	"github.com/chzyer/readline"

	"guardian.dev/guardian"
	"guardian.dev/guardian/render"
)

// Completer completes Guardián commands on Tab.
type Completer struct {
	lex *guardian.Lexicon
	out io.Writer // receives the candidate list when there are several

	// pending is the word the last completion should leave before the
	// cursor, spelled as in the lexicon. start is where that word begins.
	pending []rune
	start   int
}

var (
	_ readline.AutoCompleter = (*Completer)(nil)
	_ readline.Listener      = (*Completer)(nil)
)

// NewCompleter returns a completer that lists ambiguous candidates on out.
func NewCompleter(lex *guardian.Lexicon, out io.Writer) *Completer {
	return &Completer{lex: lex, out: out}
}

// Do implements readline.AutoCompleter.
//
// Only suggestions that extend the word under the cursor can be applied by
// appending text, so others are left out. The word is matched ignoring
// case. A single candidate is completed with a trailing space; several are
// listed and completed up to their common prefix.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	c.pending = nil
	if pos < 0 || pos > len(line) {
		return nil, 0
	}
	text := string(line[:pos])
	ctx := guardian.ResolveContext(text, len(text))
	partial := []rune(ctx.WordUnderCursor)
	n := len(partial)

	var cands []guardian.Suggestion
	for _, s := range c.lex.Complete(text, len(text), guardian.Typing) {
		if !s.Multiline && hasFoldPrefix([]rune(s.InsertText), partial) {
			cands = append(cands, s)
		}
	}

	var word []rune
	switch len(cands) {
	case 0:
		return nil, 0
	case 1:
		word = []rune(cands[0].InsertText)
	default:
		render.WriteHelp(c.out, cands)
		texts := make([]string, len(cands))
		for i, s := range cands {
			texts[i] = s.InsertText
		}
		word = []rune(commonPrefix(texts))
		if len(word) < n {
			return nil, 0
		}
	}

	if string(word[:n]) != string(partial) {
		c.pending, c.start = word, pos-n
	}
	suffix := string(word[n:])
	if len(cands) == 1 {
		return [][]rune{[]rune(suffix + " ")}, n
	}
	if suffix == "" {
		return nil, 0
	}
	return [][]rune{[]rune(suffix)}, n
}

// OnChange implements readline.Listener. After a Tab that completed a word
// typed in another case, it respells the word as the lexicon does.
func (c *Completer) OnChange(line []rune, pos int, key rune) ([]rune, int, bool) {
	word, start := c.pending, c.start
	c.pending = nil
	if key != readline.CharTab || word == nil {
		return line, pos, false
	}
	end := start + len(word)
	if start < 0 || end > len(line) || !strings.EqualFold(string(line[start:end]), string(word)) {
		return line, pos, false
	}
	fixed := make([]rune, 0, len(line))
	fixed = append(fixed, line[:start]...)
	fixed = append(fixed, word...)
	fixed = append(fixed, line[end:]...)
	return fixed, pos, true
}

func hasFoldPrefix(s, prefix []rune) bool {
	return len(s) >= len(prefix) && strings.EqualFold(string(s[:len(prefix)]), string(prefix))
}

// keyListeners runs each listener on the line the previous one left.
type keyListeners []readline.Listener

func (ls keyListeners) OnChange(line []rune, pos int, key rune) ([]rune, int, bool) {
	changed := false
	for _, l := range ls {
		if nl, np, ok := l.OnChange(line, pos, key); ok {
			line, pos, changed = nl, np, true
		}
	}
	return line, pos, changed
}

// commonPrefix returns the longest common byte prefix, cut back to a
// whole character.
func commonPrefix(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	p := ss[0]
	for _, s := range ss[1:] {
		i := 0
		for i < len(p) && i < len(s) && p[i] == s[i] {
			i++
		}
		p = p[:i]
	}
	return strings.ToValidUTF8(p, "")
}
