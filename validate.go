package guardian

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic codes.
const (
	CodeUnknownCommand     = "unknown-command"
	CodeMissingValue       = "missing-value"
	CodeInvalidValue       = "invalid-value"
	CodeDuplicateParameter = "duplicate-parameter"
)

// maxHintDistance bounds the edit distance of "did you mean" hints.
const maxHintDistance = 2

// Diagnostic is an issue found on one line of a document.
type Diagnostic struct {
	Line     int      `json:"line"`             // 1-based
	Column   int      `json:"column,omitempty"` // 1-based byte column; 0 if unknown
	Length   int      `json:"length,omitempty"` // bytes covered from Column
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Hint     string   `json:"hint,omitempty"`
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Column, d.Severity, d.Message)
	if d.Hint != "" {
		s += " (" + d.Hint + ")"
	}
	return s
}

// Validate reports every line whose first word is not a command name.
//
// Blank lines and lines starting with "#" are skipped. Names are matched
// exactly, so "Analizar" is unknown. Nothing else about a line is checked;
// see [Lexicon.Lint] for more.
func (l *Lexicon) Validate(text string) []Diagnostic {
	var diags []Diagnostic
	for _, s := range Statements(text) {
		if d, ok := l.checkName(s); ok {
			diags = append(diags, d)
		}
	}
	return diags
}

func (l *Lexicon) checkName(s Statement) (Diagnostic, bool) {
	if _, ok := l.byName[s.Name]; ok {
		return Diagnostic{}, false
	}
	d := Diagnostic{
		Line:     s.Line,
		Column:   s.Column,
		Length:   len(s.Name),
		Severity: SeverityError,
		Code:     CodeUnknownCommand,
		Message:  "Comando desconocido: " + s.Name,
	}
	if name, ok := l.closest(s.Name); ok {
		d.Hint = "¿Quisiste decir «" + name + "»?"
	}
	return d, true
}

// closest returns the command nearest to word by edit distance,
// preferring earlier commands on ties.
func (l *Lexicon) closest(word string) (string, bool) {
	word = strings.ToLower(word)
	best, bestDist := "", maxHintDistance+1
	for _, c := range l.commands {
		if d := levenshtein.ComputeDistance(word, c.Name); d < bestDist {
			best, bestDist = c.Name, d
		}
	}
	return best, best != ""
}

// Lint reports everything [Lexicon.Validate] does plus warnings about
// "keyword: value" pairs on lines with a known command: a keyword with no
// value, a value outside the keyword's value set, and a keyword given
// more than once. Values are compared ignoring case. A value set made of
// numbers only, like puerto, accepts any port number.
//
// Diagnostics are ordered by line and column.
func (l *Lexicon) Lint(text string) []Diagnostic {
	lines := strings.Split(text, "\n")
	var diags []Diagnostic
	for _, s := range Statements(text) {
		if d, ok := l.checkName(s); ok {
			diags = append(diags, d)
			continue
		}
		line := strings.TrimRight(lines[s.Line-1], "\r")
		diags = append(diags, l.lintLine(s.Line, Fields(line))...)
	}
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		return cmp.Or(cmp.Compare(a.Line, b.Line), cmp.Compare(a.Column, b.Column))
	})
	return diags
}

// valueParam is a "keyword:" occurrence and the word holding its value.
type valueParam struct {
	key   string
	at    Field
	value Field // zero if missing
}

func (l *Lexicon) lintLine(lineno int, fields []Field) []Diagnostic {
	var params []valueParam
	for i := 1; i < len(fields); i++ {
		key, ok := l.valueKey(fields[i].Text)
		if !ok {
			continue
		}
		p := valueParam{key: key, at: fields[i]}
		_, glued, _ := strings.Cut(fields[i].Text, ":")
		switch {
		case glued != "":
			p.value = Field{Text: glued, Start: fields[i].End() - len(glued)}
		case i+1 < len(fields):
			if _, isKey := l.valueKey(fields[i+1].Text); !isKey {
				p.value = fields[i+1]
				i++
			}
		}
		params = append(params, p)
	}

	var diags []Diagnostic
	count := make(map[string]int)
	for _, p := range params {
		count[p.key]++
	}
	seen := make(map[string]int)
	for _, p := range params {
		seen[p.key]++
		if seen[p.key] == 2 {
			diags = append(diags, Diagnostic{
				Line:     lineno,
				Column:   p.at.Start + 1,
				Length:   len(p.at.Text),
				Severity: SeverityWarning,
				Code:     CodeDuplicateParameter,
				Message:  fmt.Sprintf("El parámetro %q aparece %d veces. Solo se usará la primera.", p.key, count[p.key]),
			})
		}
		if p.value.Text == "" {
			diags = append(diags, Diagnostic{
				Line:     lineno,
				Column:   p.at.Start + 1,
				Length:   len(p.at.Text),
				Severity: SeverityWarning,
				Code:     CodeMissingValue,
				Message:  fmt.Sprintf("El parámetro %q requiere un valor", p.key),
			})
			continue
		}
		if !l.acceptsValue(p.key, p.value.Text) {
			diags = append(diags, Diagnostic{
				Line:     lineno,
				Column:   p.value.Start + 1,
				Length:   len(p.value.Text),
				Severity: SeverityWarning,
				Code:     CodeInvalidValue,
				Message: fmt.Sprintf("Valor inválido para %q: %q. Valores válidos: %s",
					p.key, p.value.Text, strings.Join(l.values[p.key], ", ")),
			})
		}
	}
	return diags
}

// valueKey reports whether word starts with "keyword:" for a keyword
// that commands use to introduce values.
func (l *Lexicon) valueKey(word string) (string, bool) {
	key, _, ok := strings.Cut(word, ":")
	if !ok {
		return "", false
	}
	key = strings.ToLower(key)
	return key, l.live[key]
}

func (l *Lexicon) acceptsValue(key, v string) bool {
	set := l.values[key]
	if slices.ContainsFunc(set, func(s string) bool { return strings.EqualFold(s, v) }) {
		return true
	}
	if numeric(set) {
		n, err := strconv.Atoi(v)
		return err == nil && n > 0 && n <= 65535
	}
	return false
}

func numeric(set []string) bool {
	for _, s := range set {
		if _, err := strconv.Atoi(s); err != nil {
			return false
		}
	}
	return len(set) > 0
}
