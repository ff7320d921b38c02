package guardian

import (
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"testing/iotest"

	"kr.dev/diff"
)

func FuzzStatements(f *testing.F) {
	f.Add("analizar puertos de 1.2.3.4\nfoo bar\n# comment\n")
	f.Add("# a\n\n# b\nver procesos")
	f.Add("  \t x\r\n\r\n")
	f.Fuzz(func(t *testing.T, input string) {
		prev := 0
		for _, s := range Statements(input) {
			if s.Line <= prev {
				t.Errorf("Line %d after %d", s.Line, prev)
			}
			prev = s.Line
			if want := strings.Count(input, "\n") + 1; s.Line > want {
				t.Errorf("Line %d past last line %d", s.Line, want)
			}
			if s.Name == "" || strings.HasPrefix(s.Name, "#") {
				t.Errorf("bad statement %+v", s)
			}
		}
	})
}

func TestDecode(t *testing.T) {
	input := "" +
		"# Monitoreo\n" +
		"# completo\n" +
		"monitorear trafico en eth0\n" +
		"\n" +
		"# suelto\n" +
		"\n" +
		"  detectar   anomalias en trafico de eth0  \r\n" +
		"   # sangrado\n" +
		"predecir"
	want := []Statement{
		{Line: 3, Column: 1, Comment: "# Monitoreo\n# completo\n", Name: "monitorear", Body: "trafico en eth0"},
		{Line: 7, Column: 3, Name: "detectar", Body: "anomalias en trafico de eth0"},
		{Line: 9, Column: 1, Comment: "# sangrado\n", Name: "predecir"},
	}
	diff.Test(t, t.Errorf, Statements(input), want)
}

func TestDecodeByteOrderMark(t *testing.T) {
	got := Statements("\ufeffanalizar puertos de 1.2.3.4\n\ufeffver procesos")
	want := []Statement{
		{Line: 1, Column: 4, Name: "analizar", Body: "puertos de 1.2.3.4"},
		{Line: 2, Column: 1, Name: "\ufeffver", Body: "procesos"},
	}
	diff.Test(t, t.Errorf, got, want)

	got = Statements("\ufeff# cabecera\nver procesos")
	want = []Statement{{Line: 2, Column: 1, Comment: "# cabecera\n", Name: "ver", Body: "procesos"}}
	diff.Test(t, t.Errorf, got, want)
}

func TestDecodeEOF(t *testing.T) {
	dec := NewDecoder(strings.NewReader("# only a comment\n"))
	for range 2 {
		if _, err := dec.Decode(); !errors.Is(err, io.EOF) {
			t.Fatalf("err = %v, want io.EOF", err)
		}
	}
}

func TestDecodeReadError(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader("ver procesos\n"), iotest.ErrReader(boom))
	dec := NewDecoder(r)
	s, err := dec.Decode()
	if err != nil || s.Name != "ver" {
		t.Fatalf("Decode() = %+v, %v", s, err)
	}
	if _, err := dec.Decode(); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestStatementArgs(t *testing.T) {
	s := Statements("crear regla firewall puerto: 22")[0]
	if got, want := s.Args(-1), (Args{"regla", "firewall", "puerto:", "22"}); !slices.Equal(got, want) {
		t.Errorf("Args(-1) = %q, want %q", got, want)
	}
	if got := s.Args(2).At(1); got != "firewall puerto: 22" {
		t.Errorf("Args(2).At(1) = %q", got)
	}
}

func TestParseArgs(t *testing.T) {
	cases := []struct {
		n    int
		s    string
		want Args
	}{
		{-1, "", nil},
		{0, "", nil},
		{1, "", nil},
		{-1, "arg1 arg2", Args{"arg1", "arg2"}},
		{0, "arg1 arg2", nil},
		{1, "arg1 arg2", Args{"arg1 arg2"}},
		{2, "arg1 arg2", Args{"arg1", "arg2"}},
		{3, "arg1 arg2", Args{"arg1", "arg2"}},
		{2, "arg1 arg2\t\t\t", Args{"arg1", "arg2\t\t\t"}},
		{3, "arg1 arg2\t\t\t", Args{"arg1", "arg2"}},
		{-1, "  a  b ", Args{"a", "b"}},
	}
	for _, tt := range cases {
		got := ParseArgs(tt.s, tt.n)
		if !slices.Equal(got, tt.want) {
			t.Errorf("ParseArgs(%q, %d) = %#v, want %#v", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestFields(t *testing.T) {
	got := Fields("  ñu\tde  1.1.1.1 ")
	want := []Field{
		{Text: "ñu", Start: 2},
		{Text: "de", Start: 6},
		{Text: "1.1.1.1", Start: 10},
	}
	diff.Test(t, t.Errorf, got, want)
	if got[0].End() != 5 {
		t.Errorf("End() = %d, want 5", got[0].End())
	}
	if Fields(" \t ") != nil {
		t.Error("Fields of blanks is not nil")
	}
}
