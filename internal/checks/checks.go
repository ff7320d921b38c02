// Package checks holds one-line assertions used by tests across the
// module. A check is written "subject op want", for example
//
//	span.keyword == analizar
//	span.ip count 2
//
// and returns an empty string when it holds or a failure message.
package checks

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ericchiang/css"
	"golang.org/x/net/html"

	"guardian.dev/guardian"
)

// HTML checks the elements of an HTML document that match a CSS selector.
//
// The check is "selector op want". With the "count" operator want is the
// number of matching elements; any other operator is handled by [Text]
// against the inner HTML of the first match. Selectors cannot contain
// spaces, so use the child combinator ("pre>span") instead of descendant
// selection.
func HTML(check, body string) string {
	selector, op, want := guardian.ParseArgs3(check)
	if op != "count" {
		if msg, ok := Text(selector, op, "", want); !ok {
			return msg
		}
	}

	sel, err := css.Parse(selector)
	if err != nil {
		return fmt.Sprintf("error parsing selector %q: %v", selector, err)
	}
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return fmt.Sprintf("error parsing HTML: %v", err)
	}
	matches := sel.Select(doc)

	if op == "count" {
		if _, err := strconv.Atoi(want); err != nil {
			return fmt.Sprintf("count wants a number, got %q", want)
		}
		msg, _ := Text(selector+" count", "==", strconv.Itoa(len(matches)), want)
		return msg
	}
	if len(matches) == 0 {
		return fmt.Sprintf("no elements match selector %q", selector)
	}
	msg, _ := Text(selector, op, innerHTML(matches[0]), want)
	return msg
}

// All runs [HTML] for each check and joins the failures, one per line.
func All(body string, checks ...string) string {
	var failed []string
	for _, c := range checks {
		if msg := HTML(c, body); msg != "" {
			failed = append(failed, msg)
		}
	}
	return strings.Join(failed, "\n")
}

func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&buf, c)
	}
	return buf.String()
}

// Text compares got against want with op, one of
//
//	==  !=  ~  !~  contains  !contains
//
// where ~ is a regular expression match. It returns "" when the
// comparison holds. When valid is false the check itself is malformed:
// an unknown operator, a bad regular expression or an empty want for a
// non-regexp operator.
func Text(what, op, got, want string) (msg string, valid bool) {
	var re *regexp.Regexp
	switch op {
	case "~", "!~":
		var err error
		if re, err = regexp.Compile(want); err != nil {
			return fmt.Sprintf("error compiling regex %#q: %v", want, err), false
		}
	case "==", "!=", "contains", "!contains":
		if want == "" {
			return fmt.Sprintf("%s %s: empty want", what, op), false
		}
	default:
		return fmt.Sprintf("unknown operator %q", op), false
	}

	switch {
	case op == "==" && got != want:
		return fmt.Sprintf("%s = %#q, want %#q", what, got, want), true
	case op == "!=" && got == want:
		return fmt.Sprintf("%s == %#q (but should not)", what, want), true
	case op == "~" && !re.MatchString(got):
		return fmt.Sprintf("%s does not match %#q\t%s", what, want, indent(got)), true
	case op == "!~" && re.MatchString(got):
		return fmt.Sprintf("%s matches %#q (but should not)\t%s", what, want, indent(got)), true
	case op == "contains" && !strings.Contains(got, want):
		return fmt.Sprintf("%s does not contain %#q\t%s", what, want, indent(got)), true
	case op == "!contains" && strings.Contains(got, want):
		return fmt.Sprintf("%s contains %#q (but should not)\t%s", what, want, indent(got)), true
	}
	return "", true
}

func indent(text string) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return "(empty)"
	}
	return strings.ReplaceAll(text, "\n", "\n\t")
}
