package render_test

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"guardian.dev/guardian"
	"guardian.dev/guardian/internal/checks"
	"guardian.dev/guardian/render"
)

const sample = "analizar puertos de 10.0.0.1\nfoo bar\n# alertar \"x\"\n\ncrear regla firewall puerto: 99999"

func TestHTML(t *testing.T) {
	var b strings.Builder
	doc := render.Analyze(guardian.Default(), sample, false)
	if err := render.HTML(&b, doc); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	msg := checks.All(out,
		"pre.guardian>.line count 5",
		".keyword count 6",
		".ip == 10.0.0.1",
		".number == 99999",
		".string == &#34;x&#34;",
		".error count 1",
		".error == foo bar",
		".error ~ ^foo",
		".warning count 0",
	)
	if msg != "" {
		t.Errorf("%s\n\n%s", msg, out)
	}
	if !strings.Contains(out, `title="Comando desconocido: foo"`) {
		t.Errorf("missing diagnostic title:\n%s", out)
	}
}

func TestHTMLStrict(t *testing.T) {
	var b strings.Builder
	doc := render.Analyze(guardian.Default(), sample, true)
	if err := render.HTML(&b, doc); err != nil {
		t.Fatal(err)
	}
	if msg := checks.All(b.String(), ".error count 1", ".warning count 1", ".warning>.number == 99999"); msg != "" {
		t.Errorf("%s\n\n%s", msg, b.String())
	}
}

func TestHTMLEscapes(t *testing.T) {
	var b strings.Builder
	text := `alertar "<b>" nivel: alto`
	if err := render.HTML(&b, render.Analyze(guardian.Default(), text, false)); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(b.String(), "<b>") {
		t.Errorf("unescaped markup in %s", b.String())
	}
	if msg := checks.HTML(".string contains &lt;b&gt;", b.String()); msg != "" {
		t.Error(msg)
	}
}

var escapes = regexp.MustCompile("\x1b\\[[0-9;]*m")

func TestANSI(t *testing.T) {
	doc := render.Analyze(guardian.Default(), sample, false)
	for _, profile := range []termenv.Profile{termenv.Ascii, termenv.ANSI256, termenv.TrueColor} {
		r := lipgloss.NewRenderer(io.Discard)
		r.SetColorProfile(profile)
		var b strings.Builder
		if err := render.NewTheme(r).ANSI(&b, doc); err != nil {
			t.Fatal(err)
		}
		colored := escapes.MatchString(b.String())
		if colored != (profile != termenv.Ascii) {
			t.Errorf("profile %v: colored = %v", profile, colored)
		}
		if got := escapes.ReplaceAllString(b.String(), ""); got != sample {
			t.Errorf("profile %v: text = %q, want %q", profile, got, sample)
		}
	}
}

func TestDiagnostic(t *testing.T) {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	theme := render.NewTheme(r)
	d := guardian.Default().Validate("Ver procesos")[0]
	want := "1:1: error: Comando desconocido: Ver (¿Quisiste decir «ver»?)"
	if got := theme.Diagnostic(d); got != want {
		t.Errorf("Diagnostic() = %q, want %q", got, want)
	}
}

func TestWriteHelp(t *testing.T) {
	var b strings.Builder
	render.WriteHelp(&b, []guardian.Suggestion{
		{Label: "ver", Description: "Listar procesos"},
		{Label: "una etiqueta bastante larga", Description: "larga"},
		{Label: "sola"},
	})
	// The column widens to the longest label plus two.
	want := "Possible completions:\n" +
		fmt.Sprintf("  %-29s Listar procesos\n", "ver") +
		"  una etiqueta bastante larga   larga\n" +
		"  sola\n"
	if got := b.String(); got != want {
		t.Errorf("WriteHelp =\n%s\nwant:\n%s", got, want)
	}
}

func TestThemeHelp(t *testing.T) {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	lex := guardian.Default()
	c, _ := lex.Command("ver")

	var b strings.Builder
	render.NewTheme(r).Help(&b, lex, guardian.CommandHelp(c))
	want := "ver\n" +
		"  Listar todos los procesos activos del sistema\n\n" +
		"  ver procesos activos\n" +
		"    ver procesos activos\n\n" +
		"  Categoría: Análisis y Gestión\n"
	if got := b.String(); got != want {
		t.Errorf("Help =\n%s\nwant:\n%s", got, want)
	}
}
