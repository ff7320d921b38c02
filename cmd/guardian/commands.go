package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"guardian.dev/guardian"
	"guardian.dev/guardian/internal/config"
	"guardian.dev/guardian/internal/repl"
	"guardian.dev/guardian/render"
)

func (a *app) checkCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check [--strict] FILE...",
		Short: "Report unknown commands",
		Long: `check prints one line per diagnostic as

	file:line:column: severity: message (hint)

and exits with status 1 when any error was found. With --strict, values
given to keywords such as "nivel:" are checked as well; those findings are
warnings.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strict = strict || a.cfg.LSP.Strict
			failed := false
			for _, name := range args {
				text, err := readInput(cmd, name)
				if err != nil {
					return err
				}
				doc := render.Analyze(a.lex, text, strict)
				a.logger.Debug("checked",
					zap.String("file", name),
					zap.Bool("strict", strict),
					zap.Int("diagnostics", len(doc.Diagnostics)))
				for _, d := range doc.Diagnostics {
					fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", name, d)
					if d.Severity == guardian.SeverityError {
						failed = true
					}
				}
			}
			if failed {
				return exitError{1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "also check keyword values")
	return cmd
}

func (a *app) highlightCmd() *cobra.Command {
	var asHTML bool
	cmd := &cobra.Command{
		Use:   "highlight [--html] FILE",
		Short: "Print a file with syntax colors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			doc := render.Analyze(a.lex, text, a.cfg.LSP.Strict)
			w := cmd.OutOrStdout()
			if asHTML {
				err = render.HTML(w, doc)
			} else {
				err = render.NewTheme(lipgloss.NewRenderer(w)).ANSI(w, doc)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(w)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "write an HTML fragment instead of terminal colors")
	return cmd
}

func (a *app) suggestCmd() *cobra.Command {
	var (
		offset int
		forced bool
	)
	cmd := &cobra.Command{
		Use:   "suggest [--offset N] [--forced] FILE",
		Short: "Print completions at a byte offset as JSON",
		Long: `suggest prints the suggestions for a cursor at byte offset N of FILE,
or at its end when --offset is negative. --forced asks as if the user had
pressed Ctrl+Space.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if offset < 0 {
				offset = len(text)
			}
			mode := guardian.Typing
			if forced {
				mode = guardian.Forced
			}
			ss := a.lex.Complete(text, offset, mode)
			if ss == nil {
				ss = []guardian.Suggestion{}
			}
			a.logger.Debug("suggest",
				zap.Int("offset", offset),
				zap.Stringer("mode", mode),
				zap.Int("suggestions", len(ss)))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(ss)
		},
	}
	cmd.Flags().IntVar(&offset, "offset", -1, "cursor byte offset")
	cmd.Flags().BoolVar(&forced, "forced", false, "request every candidate")
	return cmd
}

func (a *app) lexiconCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lexicon [COMMAND]",
		Short: "List the known commands, or describe one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				c, ok := a.lex.Command(strings.ToLower(args[0]))
				if !ok {
					return fmt.Errorf("unknown command %q", args[0])
				}
				theme := render.NewTheme(lipgloss.NewRenderer(w))
				theme.Help(w, a.lex, guardian.CommandHelp(c))
				return nil
			}

			var ss []guardian.Suggestion
			for _, c := range a.lex.Commands() {
				ss = append(ss, guardian.Suggestion{Label: c.Name, Description: c.Description})
			}
			render.WriteHelp(w, ss)

			fmt.Fprintln(w, "\nValues:")
			for _, k := range a.lex.ValueSets() {
				fmt.Fprintf(w, "  %-10s %s\n", k+":", strings.Join(a.lex.Values(k), ", "))
			}
			for _, k := range a.lex.DeadValueSets() {
				a.logger.Debug("value set not used by any command", zap.String("keyword", k))
			}
			return nil
		},
	}
}

func (a *app) replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			theme := render.NewTheme(lipgloss.NewRenderer(out))
			s := repl.NewSession(a.lex, theme, a.cfg.LSP.Strict)
			return repl.Run(s, repl.Options{
				Prompt:      a.cfg.REPL.Prompt,
				HistoryFile: a.cfg.REPL.HistoryFile,
				Stdout:      out,
				Stderr:      cmd.ErrOrStderr(),
				Logger:      a.logger,
			})
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		// The file may be missing or broken; that is what init is for.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the --config path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", a.configPath)
			}
			if err := config.DefaultConfig().Save(a.configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", a.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

// readInput returns the contents of the named file, or of standard input
// for "-".
func readInput(cmd *cobra.Command, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
