package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"guardian.dev/guardian"
	"guardian.dev/guardian/internal/checks"
	"guardian.dev/guardian/internal/config"
)

// setup writes a configuration logging to a file in a fresh directory and
// returns the directory and the log path.
func setup(t *testing.T, extra string) (dir, logPath string) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	t.Setenv("GUARDIAN_LOG_LEVEL", "")
	t.Setenv("GUARDIAN_LEXICON", "")
	dir = t.TempDir()
	logPath = filepath.Join(dir, "guardian.log")
	cfg := "log:\n  level: debug\n  file: " + logPath + "\n" + extra
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, logPath
}

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "config.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck(t *testing.T) {
	dir, logPath := setup(t, "")
	good := writeFile(t, dir, "good.gd", "# red\nanalizar puertos de 10.0.0.1\n\nver procesos\n")
	bad := writeFile(t, dir, "bad.gd", "ver procesos\n  escanear red\n")

	out, err := run(t, dir, "", "check", good)
	if err != nil || out != "" {
		t.Errorf("check good = %q, %v", out, err)
	}

	out, err = run(t, dir, "", "check", good, bad)
	var ee exitError
	if !errors.As(err, &ee) || ee.code != 1 {
		t.Errorf("check bad: err = %v, want exit status 1", err)
	}
	want := bad + ":2:3: error: Comando desconocido: escanear\n"
	if out != want {
		t.Errorf("check bad = %q, want %q", out, want)
	}

	log, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(log, []byte(`"msg":"checked"`)) {
		t.Errorf("log missing check entries:\n%s", log)
	}
}

func TestCheckStdin(t *testing.T) {
	dir, _ := setup(t, "")
	out, err := run(t, dir, "Ver procesos\n", "check", "-")
	if err == nil {
		t.Error("no error for unknown command")
	}
	if want := "-:1:1: error: Comando desconocido: Ver (¿Quisiste decir «ver»?)\n"; out != want {
		t.Errorf("check - = %q, want %q", out, want)
	}
}

func TestCheckStrict(t *testing.T) {
	dir, _ := setup(t, "")
	text := "crear regla firewall puerto: 22 protocolo: SCTP accion:\n"

	out, err := run(t, dir, text, "check", "-")
	if err != nil || out != "" {
		t.Errorf("check = %q, %v", out, err)
	}

	out, err = run(t, dir, text, "check", "--strict", "-")
	if err != nil {
		t.Errorf("warnings changed exit status: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("check --strict:\n%s", out)
	}
	for i, code := range []string{`Valor inválido para "protocolo"`, `"accion" requiere un valor`} {
		if !strings.Contains(lines[i], "warning: ") || !strings.Contains(lines[i], code) {
			t.Errorf("line %d = %q, want warning containing %q", i+1, lines[i], code)
		}
	}
}

func TestCheckStrictFromConfig(t *testing.T) {
	dir, _ := setup(t, "lsp:\n  strict: true\n  source: guardian\n")
	out, _ := run(t, dir, "alertar \"x\" nivel: extremo\n", "check", "-")
	if !strings.Contains(out, "warning:") {
		t.Errorf("lsp.strict ignored: %q", out)
	}
}

func TestCheckMissingFile(t *testing.T) {
	dir, _ := setup(t, "")
	_, err := run(t, dir, "", "check", filepath.Join(dir, "nope.gd"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestHighlight(t *testing.T) {
	dir, _ := setup(t, "")
	text := "alertar \"hola\" nivel: alto\nfoo 10.0.0.1"

	out, err := run(t, dir, text, "highlight", "-")
	if err != nil {
		t.Fatal(err)
	}
	if out != text+"\n" {
		t.Errorf("highlight without color = %q", out)
	}

	out, err = run(t, dir, text, "highlight", "--html", "-")
	if err != nil {
		t.Fatal(err)
	}
	msg := checks.All(out,
		".line count 2",
		".keyword == alertar",
		".string == &#34;hola&#34;",
		".parameter == nivel",
		".ip == 10.0.0.1",
		".error count 1",
	)
	if msg != "" {
		t.Errorf("%s\n\n%s", msg, out)
	}
}

func TestSuggest(t *testing.T) {
	dir, _ := setup(t, "")

	decode := func(out string) []guardian.Suggestion {
		t.Helper()
		var ss []guardian.Suggestion
		if err := json.Unmarshal([]byte(out), &ss); err != nil {
			t.Fatalf("%v\n%s", err, out)
		}
		return ss
	}

	out, err := run(t, dir, "analiz", "suggest", "-")
	if err != nil {
		t.Fatal(err)
	}
	ss := decode(out)
	if len(ss) != 1 || ss[0].InsertText != "analizar" || ss[0].Kind != guardian.KindCommand {
		t.Errorf("suggest analiz = %+v", ss)
	}

	out, err = run(t, dir, "", "suggest", "--forced", "-")
	if err != nil {
		t.Fatal(err)
	}
	if ss := decode(out); len(ss) != guardian.MaxSuggestions || !ss[len(ss)-1].Multiline {
		t.Errorf("suggest --forced on empty input returned %d suggestions", len(ss))
	}

	// The cursor sits inside the first line.
	out, err = run(t, dir, "crear regla firewall protocolo: \nver", "suggest", "--offset", "32", "-")
	if err != nil {
		t.Fatal(err)
	}
	var values []string
	for _, s := range decode(out) {
		if s.Kind == guardian.KindValue {
			values = append(values, s.InsertText)
		}
	}
	if strings.Join(values, " ") != "TCP UDP ICMP" {
		t.Errorf("values = %q", values)
	}

	out, err = run(t, dir, "analizar puertos de 10.0.0.1", "suggest", "-")
	if err != nil || strings.TrimSpace(out) != "[]" {
		t.Errorf("suggest after an address = %q, %v", out, err)
	}
}

func TestLexicon(t *testing.T) {
	dir, _ := setup(t, "")

	out, err := run(t, dir, "", "lexicon")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Possible completions:\n  analizar ",
		"  recomendar ",
		"Values:\n",
		"  nivel:     bajo, medio, alto, critico\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("lexicon missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, dir, "", "lexicon", "Alertar")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "alertar\n") || !strings.Contains(out, "Categoría: Escudos y Seguridad") {
		t.Errorf("lexicon alertar:\n%s", out)
	}

	if _, err := run(t, dir, "", "lexicon", "escanear"); err == nil {
		t.Error("lexicon escanear: no error")
	}
}

func TestCustomLexicon(t *testing.T) {
	dir, _ := setup(t, "")
	lexPath := writeFile(t, dir, "lexicon.yaml", `
commands:
  - name: escanear
    syntax: "escanear [host]"
    description: "Escanear un host"
    category: analysis
`)
	t.Setenv("GUARDIAN_LEXICON", lexPath)

	out, err := run(t, dir, "escanear host\nver procesos\n", "check", "-")
	if err == nil {
		t.Error("no error for a command missing from the custom lexicon")
	}
	if want := "-:2:1: error: Comando desconocido: ver\n"; out != want {
		t.Errorf("check = %q, want %q", out, want)
	}
}

func TestBadConfig(t *testing.T) {
	dir, _ := setup(t, "")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: loud\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := run(t, dir, "", "lexicon")
	if err == nil || !strings.Contains(err.Error(), "log.level") {
		t.Errorf("err = %v, want invalid log.level", err)
	}
}

func TestConfigInit(t *testing.T) {
	dir, _ := setup(t, "")
	path := filepath.Join(dir, "config.yaml")

	if _, err := run(t, dir, "", "config", "init"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("init over existing file: err = %v", err)
	}

	// A broken file can still be replaced.
	if err := os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, dir, "", "config", "init", "--force")
	if err != nil || out != "wrote "+path+"\n" {
		t.Fatalf("init --force = %q, %v", out, err)
	}
	got, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := config.DefaultConfig(); !reflect.DeepEqual(got, want) {
		t.Errorf("written config = %+v, want %+v", got, want)
	}

	if _, err := run(t, dir, "", "lexicon"); err != nil {
		t.Errorf("lexicon with the written config: %v", err)
	}
}
