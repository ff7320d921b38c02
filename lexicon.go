package guardian

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Category groups commands in help output and suggestion lists.
type Category string

const (
	CategoryAnalysis Category = "analysis"
	CategorySecurity Category = "security"
	CategoryAI       Category = "ai"

	// CategoryValue is only carried by value suggestions.
	CategoryValue Category = "value"
)

// DisplayName returns the title shown for c in the help panel.
func (c Category) DisplayName() string {
	switch c {
	case CategoryAnalysis:
		return "Análisis y Gestión"
	case CategorySecurity:
		return "Escudos y Seguridad"
	case CategoryAI:
		return "Programación y Gestión IA"
	}
	return string(c)
}

func (c Category) valid() bool {
	switch c {
	case CategoryAnalysis, CategorySecurity, CategoryAI:
		return true
	}
	return false
}

// CommandSpec defines the grammar of one command.
type CommandSpec struct {
	Name        string   `yaml:"name"`
	Syntax      string   `yaml:"syntax"`
	Description string   `yaml:"description"`
	Parameters  []string `yaml:"parameters"`
	Examples    []string `yaml:"examples"`
	Category    Category `yaml:"category"`
	Icon        string   `yaml:"icon"`
}

// SnippetSpec is a canned multi-line fragment inserted as a unit.
type SnippetSpec struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Body        string   `yaml:"body"`
	Category    Category `yaml:"category"`
}

// valueSet is the on-disk form of one parameter value set.
type valueSet struct {
	Keyword string   `yaml:"keyword"`
	Values  []string `yaml:"values"`
}

type lexiconFile struct {
	Commands  []CommandSpec `yaml:"commands"`
	Values    []valueSet    `yaml:"values"`
	Snippets  []SnippetSpec `yaml:"snippets"`
	Highlight struct {
		Keywords  []string `yaml:"keywords"`
		Particles []string `yaml:"particles"`
	} `yaml:"highlight"`
}

// LexiconError reports an inconsistency found while loading a lexicon.
type LexiconError struct {
	Field   string // offending entry, e.g. `commands[3]` or `values.puerto`
	Message string
}

func (e *LexiconError) Error() string {
	return fmt.Sprintf("lexicon: %s: %s", e.Field, e.Message)
}

// Lexicon is the static grammar of the command language.
//
// A Lexicon is immutable once loaded and safe for concurrent use.
// All methods that return slices return copies.
type Lexicon struct {
	commands  []CommandSpec
	byName    map[string]int
	values    map[string][]string
	valueKeys []string // declaration order
	live      map[string]bool
	snippets  []SnippetSpec
	keywords  map[string]bool
	particles map[string]bool
}

//go:embed lexicon.yaml
var builtinLexicon []byte

var defaultLexicon = sync.OnceValue(func() *Lexicon {
	lex, err := LoadLexicon(bytes.NewReader(builtinLexicon))
	if err != nil {
		panic(err)
	}
	return lex
})

// Default returns the built-in lexicon. It is loaded on first use and
// panics if the embedded data is inconsistent.
func Default() *Lexicon {
	return defaultLexicon()
}

// LoadLexicon reads a YAML lexicon from r and validates it.
//
// Command names must be unique and lower case. A parameter keyword ending in
// ":" refers to the value set of the same name, which must exist and be
// non-empty. Value sets nobody refers to are accepted and reported by
// [Lexicon.DeadValueSets].
func LoadLexicon(r io.Reader) (*Lexicon, error) {
	var f lexiconFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("lexicon: %w", err)
	}

	lex := &Lexicon{
		byName:    make(map[string]int),
		values:    make(map[string][]string),
		live:      make(map[string]bool),
		keywords:  make(map[string]bool),
		particles: make(map[string]bool),
	}

	if len(f.Commands) == 0 {
		return nil, &LexiconError{"commands", "no commands defined"}
	}
	for i, c := range f.Commands {
		field := fmt.Sprintf("commands[%d]", i)
		name := strings.TrimSpace(c.Name)
		switch {
		case name == "":
			return nil, &LexiconError{field, "empty name"}
		case strings.ContainsFunc(name, isSpace):
			return nil, &LexiconError{field, fmt.Sprintf("name %q contains whitespace", name)}
		case name != strings.ToLower(name):
			return nil, &LexiconError{field, fmt.Sprintf("name %q is not lower case", name)}
		}
		if _, dup := lex.byName[name]; dup {
			return nil, &LexiconError{field, fmt.Sprintf("duplicate command %q", name)}
		}
		if !c.Category.valid() {
			return nil, &LexiconError{field, fmt.Sprintf("unknown category %q", c.Category)}
		}
		c.Name = name
		lex.byName[name] = len(lex.commands)
		lex.commands = append(lex.commands, c)
	}

	for _, vs := range f.Values {
		field := "values." + vs.Keyword
		if vs.Keyword == "" {
			return nil, &LexiconError{"values", "value set without keyword"}
		}
		if vs.Keyword != strings.ToLower(vs.Keyword) {
			return nil, &LexiconError{field, "keyword is not lower case"}
		}
		if _, dup := lex.values[vs.Keyword]; dup {
			return nil, &LexiconError{field, "duplicate value set"}
		}
		if len(vs.Values) == 0 {
			return nil, &LexiconError{field, "empty value set"}
		}
		lex.values[vs.Keyword] = slices.Clone(vs.Values)
		lex.valueKeys = append(lex.valueKeys, vs.Keyword)
	}

	// Keywords of the form "k:" introduce a value; resolve them now so a
	// missing set fails here instead of producing empty suggestions later.
	for i, c := range lex.commands {
		for _, p := range c.Parameters {
			key, ok := valueKeyword(p)
			if !ok {
				continue
			}
			field := fmt.Sprintf("commands[%d].parameters", i)
			if key != strings.ToLower(key) {
				return nil, &LexiconError{field, fmt.Sprintf("keyword %q is not lower case", p)}
			}
			if _, ok := lex.values[key]; !ok {
				return nil, &LexiconError{field, fmt.Sprintf("%q has no value set %q", p, key)}
			}
			lex.live[key] = true
		}
	}

	seen := make(map[string]bool)
	for i, s := range f.Snippets {
		field := fmt.Sprintf("snippets[%d]", i)
		switch {
		case s.Key == "":
			return nil, &LexiconError{field, "empty key"}
		case seen[s.Key]:
			return nil, &LexiconError{field, fmt.Sprintf("duplicate snippet %q", s.Key)}
		case s.Body == "":
			return nil, &LexiconError{field, "empty body"}
		}
		seen[s.Key] = true
		lex.snippets = append(lex.snippets, s)
	}

	for _, w := range f.Highlight.Keywords {
		lex.keywords[strings.ToLower(w)] = true
	}
	for _, w := range f.Highlight.Particles {
		lex.particles[strings.ToLower(w)] = true
	}
	return lex, nil
}

// valueKeyword reports the value set name a parameter keyword refers to.
func valueKeyword(param string) (string, bool) {
	key, ok := strings.CutSuffix(param, ":")
	if !ok || key == "" || strings.ContainsFunc(key, isSpace) {
		return "", false
	}
	return key, true
}

// Commands returns all commands in declaration order.
func (l *Lexicon) Commands() []CommandSpec {
	out := make([]CommandSpec, len(l.commands))
	for i, c := range l.commands {
		out[i] = c.clone()
	}
	return out
}

// Command looks up a command by its exact name.
func (l *Lexicon) Command(name string) (CommandSpec, bool) {
	i, ok := l.byName[name]
	if !ok {
		return CommandSpec{}, false
	}
	return l.commands[i].clone(), true
}

// lookup finds a command ignoring case.
func (l *Lexicon) lookup(word string) (*CommandSpec, bool) {
	i, ok := l.byName[strings.ToLower(word)]
	if !ok {
		return nil, false
	}
	return &l.commands[i], true
}

// ValueSets returns the keywords of all value sets in declaration order.
func (l *Lexicon) ValueSets() []string {
	return slices.Clone(l.valueKeys)
}

// Values returns the accepted values of a parameter keyword, or nil.
func (l *Lexicon) Values(keyword string) []string {
	return slices.Clone(l.values[keyword])
}

// Snippets returns all snippets in declaration order.
func (l *Lexicon) Snippets() []SnippetSpec {
	return slices.Clone(l.snippets)
}

// DeadValueSets returns the value sets that no command keyword refers to.
// Their values can never be suggested.
func (l *Lexicon) DeadValueSets() []string {
	var dead []string
	for _, k := range l.valueKeys {
		if !l.live[k] {
			dead = append(dead, k)
		}
	}
	return dead
}

func (c CommandSpec) clone() CommandSpec {
	c.Parameters = slices.Clone(c.Parameters)
	c.Examples = slices.Clone(c.Examples)
	return c
}
