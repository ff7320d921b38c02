// Command guardian checks, highlights and completes Guardián command files.
//
// Usage:
//
//	guardian check [--strict] FILE...
//	guardian highlight [--html] FILE
//	guardian suggest [--offset N] [--forced] FILE
//	guardian lexicon [COMMAND]
//	guardian repl
//	guardian config init [--force]
//
// A FILE of "-" reads standard input. Settings come from the YAML file
// named by --config, by default guardian/config.yaml in the user
// configuration directory.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"guardian.dev/guardian"
	"guardian.dev/guardian/internal/config"
	"guardian.dev/guardian/internal/logging"
)

// exitError sets the process exit status without printing anything.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	err := newRootCmd().Execute()
	var ee exitError
	switch {
	case errors.As(err, &ee):
		os.Exit(ee.code)
	case err != nil:
		fmt.Fprintln(os.Stderr, "guardian:", err)
		os.Exit(1)
	}
}

// app is the state shared by the subcommands once the root command has
// loaded it.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	lex    *guardian.Lexicon
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "guardian",
		Short: "Guardián command language tools",
		Long: `guardian validates, highlights and completes files written in the
Guardián security command language.

Nothing is executed: every subcommand only analyzes text.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath(), "configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.checkCmd(),
		a.highlightCmd(),
		a.suggestCmd(),
		a.lexiconCmd(),
		a.replCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log, a.verbose)
	if err != nil {
		return err
	}
	lex, err := cfg.OpenLexicon()
	if err != nil {
		return err
	}
	a.cfg, a.logger, a.lex = cfg, logger, lex
	a.logger.Debug("configuration loaded",
		zap.String("path", a.configPath),
		zap.String("lexicon", cfg.LexiconPath),
		zap.Int("commands", len(lex.Commands())))
	return nil
}
