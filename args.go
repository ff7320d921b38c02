package guardian

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field is a whitespace-separated word of a line.
type Field struct {
	Text  string
	Start int // byte offset of Text within the line
}

// End returns the byte offset just past the field.
func (f Field) End() int { return f.Start + len(f.Text) }

// Fields splits line on runs of whitespace like [strings.Fields],
// keeping the position of each word.
func Fields(line string) []Field {
	var fields []Field
	start := -1
	for i, r := range line {
		if unicode.IsSpace(r) {
			if start >= 0 {
				fields = append(fields, Field{Text: line[start:i], Start: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, Field{Text: line[start:], Start: start})
	}
	return fields
}

// ParseArgs splits s into at most n whitespace-separated arguments.
// The last argument keeps whatever text remains after the first n-1.
// A negative n means no limit; zero or an empty s yields nothing.
func ParseArgs(s string, n int) Args {
	var args Args
	for s != "" && n != 0 {
		if n == 1 {
			args = append(args, s)
			break
		}
		var arg string
		arg, s = cutField(s)
		if arg == "" {
			break
		}
		args = append(args, arg)
		n--
	}
	return args
}

// ParseArgs3 splits s into three arguments, the last keeping the remainder.
func ParseArgs3(s string) (a, b, c string) {
	args := ParseArgs(s, 3)
	return args.At(0), args.At(1), args.At(2)
}

// Args is a list of arguments taken from a statement body.
type Args []string

// At returns the i-th argument without trailing line terminators,
// or "" when i is out of range.
func (a Args) At(i int) string {
	if i < 0 || i >= len(a) {
		return ""
	}
	return strings.TrimRight(a[i], "\r\n")
}

// cutField returns the first word of s and the text after the
// whitespace that follows it.
func cutField(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	_, size := utf8.DecodeRuneInString(s[i:])
	return s[:i], strings.TrimLeftFunc(s[i+size:], unicode.IsSpace)
}
