package guardian

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SlotKind is the grammatical position of the cursor.
type SlotKind int

const (
	// SlotNone means nothing can be suggested: the line starts with a word
	// that is not a command.
	SlotNone SlotKind = iota

	// SlotEmptyLine is a line with no text at all. Suggestions appear here
	// only when the user asks for them explicitly.
	SlotEmptyLine

	// SlotCommand expects a command name.
	SlotCommand

	// SlotParameter expects one of the command's parameter keywords.
	SlotParameter

	// SlotValue expects a value for a "keyword:" earlier on the line.
	// Parameter keywords are still offered.
	SlotValue
)

var slotNames = [...]string{
	SlotNone:      "none",
	SlotEmptyLine: "empty-line",
	SlotCommand:   "command",
	SlotParameter: "parameter",
	SlotValue:     "value",
}

func (k SlotKind) String() string {
	if k < 0 || int(k) >= len(slotNames) {
		return "SlotKind(" + strconv.Itoa(int(k)) + ")"
	}
	return slotNames[k]
}

// Slot is the result of classifying a cursor position.
type Slot struct {
	Kind SlotKind

	// Command is the canonical name of the line's command.
	// It is set for SlotParameter and SlotValue.
	Command string

	// Parameter is the value set keyword, without the colon.
	// It is set for SlotValue.
	Parameter string
}

func (s Slot) String() string {
	switch s.Kind {
	case SlotParameter:
		return "parameter(" + s.Command + ")"
	case SlotValue:
		return "value(" + s.Command + ", " + s.Parameter + ")"
	}
	return s.Kind.String()
}

// Classify decides which slot the cursor of ctx occupies.
//
// A line whose words are all still being typed is a command position.
// Once the first word is complete, the line belongs to that command if it
// is known (ignoring case). A value position additionally needs a
// "keyword:" before the word under the cursor whose keyword has a value
// set that some command refers to; the last one on the line wins.
func (l *Lexicon) Classify(ctx DocumentContext) Slot {
	if len(ctx.Words) == 0 && ctx.Line == "" {
		return Slot{Kind: SlotEmptyLine}
	}
	if ctx.CompletedWords() == 0 {
		return Slot{Kind: SlotCommand}
	}
	cmd, ok := l.lookup(ctx.Words[0])
	if !ok {
		return Slot{Kind: SlotNone}
	}
	if key, ok := l.valueKeywordBefore(ctx); ok {
		return Slot{Kind: SlotValue, Command: cmd.Name, Parameter: key}
	}
	return Slot{Kind: SlotParameter, Command: cmd.Name}
}

// valueKeywordBefore finds the keyword whose "k:" appears last on the
// line before the word under the cursor, wherever it sits in a word, as in
// "puerto:22,protocolo:" or "(puerto:".
func (l *Lexicon) valueKeywordBefore(ctx DocumentContext) (string, bool) {
	before := strings.ToLower(ctx.Line[:len(ctx.Line)-len(ctx.WordUnderCursor)])
	key, at := "", -1
	for _, k := range l.valueKeys {
		if !l.live[k] {
			continue
		}
		if i := strings.LastIndex(before, k+":"); i > at {
			key, at = k, i
		}
	}
	return key, at >= 0
}

// ShouldSuggest reports whether suggestions should be shown while typing,
// without an explicit request: a word is being typed, or the line ends in
// whitespace or a colon.
func ShouldSuggest(ctx DocumentContext) bool {
	if ctx.WordUnderCursor != "" {
		return true
	}
	r, size := utf8.DecodeLastRuneInString(ctx.Line)
	if size == 0 {
		return false
	}
	return unicode.IsSpace(r) || r == ':'
}
