// Package repl implements an interactive Guardián prompt.
//
// Each entered line is echoed with syntax colors followed by its
// diagnostics. Tab completes the word under the cursor and "?" lists what
// could come next. Nothing is executed.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"guardian.dev/guardian"
	"guardian.dev/guardian/render"
)

// ErrQuit is returned by [Session.Eval] when the user asks to leave.
var ErrQuit = errors.New("quit")

// Entry is one evaluated command line.
type Entry struct {
	Line        string
	Diagnostics []guardian.Diagnostic
	At          time.Time
}

// Session is the state of one interactive run. It belongs to the caller;
// nothing in this package keeps sessions around.
type Session struct {
	ID      uuid.UUID
	Started time.Time
	History []Entry

	lex    *guardian.Lexicon
	theme  *render.Theme
	strict bool
	now    func() time.Time
}

// NewSession starts a session. With strict set, lines are linted
// rather than only validated.
func NewSession(lex *guardian.Lexicon, theme *render.Theme, strict bool) *Session {
	return &Session{
		ID:      uuid.New(),
		Started: time.Now(),
		lex:     lex,
		theme:   theme,
		strict:  strict,
		now:     time.Now,
	}
}

// Eval handles one input line, writing any output to w.
// It returns ErrQuit for "quit" and "exit".
func (s *Session) Eval(w io.Writer, line string) error {
	line = strings.TrimSpace(line)
	args := guardian.ParseArgs(line, 2)
	name, rest := args.At(0), args.At(1)

	switch name {
	case "":
		return nil
	case "quit", "exit":
		return ErrQuit
	case "history":
		for i, e := range s.History {
			fmt.Fprintf(w, "%4d  %s\n", i+1, s.theme.Line(s.lex.HighlightLine(e.Line)))
		}
		return nil
	case "help":
		return s.help(w, rest)
	}
	if strings.HasPrefix(line, "#") {
		return nil
	}

	var diags []guardian.Diagnostic
	if s.strict {
		diags = s.lex.Lint(line)
	} else {
		diags = s.lex.Validate(line)
	}
	fmt.Fprintln(w, s.theme.Line(s.lex.HighlightLine(line)))
	for _, d := range diags {
		fmt.Fprintln(w, "  "+s.theme.Diagnostic(d))
	}
	s.History = append(s.History, Entry{Line: line, Diagnostics: diags, At: s.now()})
	return nil
}

func (s *Session) help(w io.Writer, command string) error {
	if command == "" {
		var ss []guardian.Suggestion
		for _, c := range s.lex.Commands() {
			ss = append(ss, guardian.Suggestion{Label: c.Name, Description: c.Description})
		}
		render.WriteHelp(w, ss)
		fmt.Fprintln(w, "\nhelp COMANDO, history, quit")
		return nil
	}
	c, ok := s.lex.Command(strings.ToLower(command))
	if !ok {
		return fmt.Errorf("comando desconocido: %s", command)
	}
	s.theme.Help(w, s.lex, guardian.CommandHelp(c))
	return nil
}

// onKey lists forced suggestions when "?" is typed, without changing the
// line. It is installed as a readline listener.
func (s *Session) onKey(out io.Writer) readline.Listener {
	return readline.FuncListener(func(line []rune, pos int, key rune) ([]rune, int, bool) {
		if key != '?' || pos < 1 || pos > len(line) || line[pos-1] != '?' {
			return line, pos, false
		}
		// Remove the '?' readline already inserted.
		clean := make([]rune, 0, len(line)-1)
		clean = append(clean, line[:pos-1]...)
		clean = append(clean, line[pos:]...)

		text := string(clean[:pos-1])
		ss := s.lex.Complete(text, len(text), guardian.Forced)
		if len(ss) == 0 {
			fmt.Fprintln(out, "  (sin sugerencias)")
		} else {
			fmt.Fprintln(out)
			render.WriteHelp(out, ss)
		}
		return clean, pos - 1, true
	})
}

// painter colors the line being edited.
type painter struct {
	lex   *guardian.Lexicon
	theme *render.Theme
}

func (p painter) Paint(line []rune, pos int) []rune {
	return []rune(p.theme.Line(p.lex.HighlightLine(string(line))))
}

// Options configure [Run].
type Options struct {
	Prompt      string
	HistoryFile string

	Stdin  io.ReadCloser // defaults to os.Stdin
	Stdout io.Writer     // defaults to os.Stdout
	Stderr io.Writer     // defaults to os.Stderr
	Logger *zap.Logger
}

// Run reads lines until EOF or quit and evaluates them in s.
func Run(s *Session, opts Options) error {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	completer := NewCompleter(s.lex, opts.Stdout)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          opts.Prompt,
		HistoryFile:     opts.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
		Listener:        keyListeners{completer, s.onKey(opts.Stdout)},
		Painter:         painter{s.lex, s.theme},
		Stdin:           opts.Stdin,
		Stdout:          opts.Stdout,
		Stderr:          opts.Stderr,
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer rl.Close()

	log.Debug("repl session started", zap.String("session", s.ID.String()))
	fmt.Fprintf(rl.Stdout(), "Guardián (sesión %s)\n", s.ID)
	fmt.Fprintln(rl.Stdout(), "Escribe 'help' para ver los comandos, '?' para sugerencias.")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		err = s.Eval(rl.Stdout(), line)
		if errors.Is(err, ErrQuit) {
			break
		}
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
		}
	}
	log.Debug("repl session ended",
		zap.String("session", s.ID.String()),
		zap.Int("lines", len(s.History)),
		zap.Duration("elapsed", time.Since(s.Started)))
	return nil
}
