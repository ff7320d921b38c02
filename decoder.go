package guardian

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode"
)

// Statement is one command line of a document together with the
// comment lines directly above it.
type Statement struct {
	// Line is the line number of the command (1-indexed).
	Line int

	// Column is the 1-based byte column where Name starts.
	Column int

	// Comment holds the "#" lines immediately preceding the command,
	// each terminated by a newline. A blank line detaches earlier comments.
	Comment string

	// Name is the first word of the line, as written.
	Name string

	// Body is the rest of the line after Name and the whitespace
	// following it, without the line terminator.
	Body string
}

// Args splits the body into at most n arguments. See [ParseArgs].
func (s Statement) Args(n int) Args {
	return ParseArgs(s.Body, n)
}

const byteOrderMark = "\ufeff"

// Decoder reads statements from an input stream.
// A byte order mark at the start of the input is skipped; columns still
// count its bytes.
//
// Unlike a parser it never rejects input: every line is either blank,
// a comment, or a statement whose name may or may not be a command.
type Decoder struct {
	r    *bufio.Reader
	line int
	err  error // sticky read error
}

// NewDecoder returns a Decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode returns the next statement.
// At the end of the input it returns io.EOF; comments not followed by a
// statement are dropped. Other errors come from the underlying reader.
func (d *Decoder) Decode() (Statement, error) {
	var comment strings.Builder
	for {
		if d.err != nil {
			return Statement{}, d.err
		}
		raw, err := d.r.ReadString('\n')
		if err != nil {
			d.err = err
			if raw == "" {
				continue
			}
		}
		d.line++

		text := strings.TrimRight(raw, "\r\n")
		lead := text
		if d.line == 1 {
			lead = strings.TrimPrefix(text, byteOrderMark)
		}
		trimmed := strings.TrimLeftFunc(lead, unicode.IsSpace)
		switch {
		case trimmed == "":
			comment.Reset()
		case trimmed[0] == '#':
			comment.WriteString(strings.TrimSpace(trimmed))
			comment.WriteByte('\n')
		default:
			name, body := cutField(trimmed)
			return Statement{
				Line:    d.line,
				Column:  len(text) - len(trimmed) + 1,
				Comment: comment.String(),
				Name:    name,
				Body:    strings.TrimRightFunc(body, unicode.IsSpace),
			}, nil
		}
	}
}

// Statements decodes every statement in text.
func Statements(text string) []Statement {
	var stmts []Statement
	dec := NewDecoder(strings.NewReader(text))
	for {
		s, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return stmts
		}
		if err != nil {
			// strings.Reader only fails with io.EOF
			panic(err)
		}
		stmts = append(stmts, s)
	}
}
