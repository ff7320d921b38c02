package guardian

import "strings"

// MaxSuggestions caps the length of every suggestion list.
const MaxSuggestions = 15

// Kind says what a suggestion completes.
type Kind string

const (
	KindCommand   Kind = "command"
	KindParameter Kind = "parameter"
	KindValue     Kind = "value"
	KindSnippet   Kind = "snippet"
)

// Suggestion is one candidate completion.
type Suggestion struct {
	// InsertText replaces the word under the cursor when accepted.
	// For snippets it is the whole multi-line body.
	InsertText  string   `json:"insertText"`
	Kind        Kind     `json:"kind"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Syntax      string   `json:"syntax"`
	Category    Category `json:"category"`
	Multiline   bool     `json:"multiline,omitempty"`
}

// TriggerMode says how a completion request was started.
type TriggerMode int

const (
	// Typing requests come from ordinary keystrokes and are dropped
	// when [ShouldSuggest] says so.
	Typing TriggerMode = iota

	// Forced requests come from an explicit user action, such as
	// Ctrl+Space, and widen what is offered.
	Forced
)

func (m TriggerMode) String() string {
	if m == Forced {
		return "forced"
	}
	return "typing"
}

// Complete resolves the context at offset and returns the suggestions
// for it. In Typing mode it returns nil when [ShouldSuggest] is false.
func (l *Lexicon) Complete(text string, offset int, mode TriggerMode) []Suggestion {
	ctx := ResolveContext(text, offset)
	if mode == Typing && !ShouldSuggest(ctx) {
		return nil
	}
	return l.Suggest(ctx, l.Classify(ctx), mode == Forced)
}

// Suggest lists completions for the cursor described by ctx and slot.
//
// Candidates are gathered in a fixed order: every command (forced, no
// words yet) or commands starting with the word under the cursor, then
// the command's parameter keywords containing it, then values of the
// active value set containing it, then snippets (forced, at most one
// word). Matching ignores case and forced requests skip the filters.
// The first occurrence of each (InsertText, Kind) pair is kept and the
// list is cut to [MaxSuggestions].
func (l *Lexicon) Suggest(ctx DocumentContext, slot Slot, forced bool) []Suggestion {
	word := strings.ToLower(ctx.WordUnderCursor)
	b := suggestions{seen: make(map[suggestionKey]bool)}

	switch {
	case forced && len(ctx.Words) == 0:
		for _, c := range l.commands {
			b.add(commandSuggestion(c))
		}
	case slot.Kind == SlotCommand:
		for _, c := range l.commands {
			if strings.HasPrefix(c.Name, word) {
				b.add(commandSuggestion(c))
			}
		}
	}

	if slot.Kind == SlotParameter || slot.Kind == SlotValue {
		if cmd, ok := l.lookup(slot.Command); ok {
			for _, p := range cmd.Parameters {
				if forced || strings.Contains(strings.ToLower(p), word) {
					b.add(Suggestion{
						InsertText:  p,
						Kind:        KindParameter,
						Label:       p,
						Description: "Parámetro para " + cmd.Name,
						Syntax:      cmd.Syntax,
						Category:    cmd.Category,
					})
				}
			}
		}
	}

	if slot.Kind == SlotValue {
		for _, v := range l.values[slot.Parameter] {
			if forced || strings.Contains(strings.ToLower(v), word) {
				b.add(Suggestion{
					InsertText:  v,
					Kind:        KindValue,
					Label:       v,
					Description: "Valor para " + slot.Parameter,
					Syntax:      v,
					Category:    CategoryValue,
				})
			}
		}
	}

	if forced && len(ctx.Words) <= 1 {
		for _, s := range l.snippets {
			if word == "" || strings.Contains(strings.ToLower(s.Name), word) {
				b.add(Suggestion{
					InsertText:  s.Body,
					Kind:        KindSnippet,
					Label:       s.Name,
					Description: s.Description,
					Syntax:      s.Name,
					Category:    s.Category,
					Multiline:   true,
				})
			}
		}
	}

	if len(b.list) > MaxSuggestions {
		b.list = b.list[:MaxSuggestions]
	}
	return b.list
}

func commandSuggestion(c CommandSpec) Suggestion {
	return Suggestion{
		InsertText:  c.Name,
		Kind:        KindCommand,
		Label:       c.Name,
		Description: c.Description,
		Syntax:      c.Syntax,
		Category:    c.Category,
	}
}

type suggestionKey struct {
	text string
	kind Kind
}

// suggestions accumulates a list without duplicates.
type suggestions struct {
	list []Suggestion
	seen map[suggestionKey]bool
}

func (b *suggestions) add(s Suggestion) {
	k := suggestionKey{s.InsertText, s.Kind}
	if b.seen[k] {
		return
	}
	b.seen[k] = true
	b.list = append(b.list, s)
}

// Accept applies s to text with the cursor at offset. It replaces the
// word under the cursor, and nothing else, with s.InsertText and returns
// the new text and the cursor offset just past the inserted text.
func Accept(text string, offset int, s Suggestion) (string, int) {
	ctx := ResolveContext(text, offset)
	start := ctx.ReplaceStart()
	out := text[:start] + s.InsertText + text[ctx.Offset:]
	return out, start + len(s.InsertText)
}
