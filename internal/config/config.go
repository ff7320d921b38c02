// Package config loads the YAML configuration shared by the guardian
// command and language server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"guardian.dev/guardian"
)

// Config holds all settings.
type Config struct {
	Log LogConfig `yaml:"log"`

	// LexiconPath names a YAML lexicon that replaces the built-in one.
	LexiconPath string `yaml:"lexicon,omitempty"`

	LSP  LSPConfig  `yaml:"lsp"`
	REPL REPLConfig `yaml:"repl"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string `yaml:"level"`          // debug, info, warn or error
	File  string `yaml:"file,omitempty"` // empty means stderr
}

// LSPConfig configures the language server.
type LSPConfig struct {
	// Strict publishes lint warnings in addition to unknown commands.
	Strict bool `yaml:"strict"`

	// Source labels published diagnostics.
	Source string `yaml:"source"`
}

// REPLConfig configures the interactive session.
type REPLConfig struct {
	Prompt      string `yaml:"prompt"`
	HistoryFile string `yaml:"history_file,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		LSP: LSPConfig{
			Source: "guardian",
		},
		REPL: REPLConfig{
			Prompt: "guardian> ",
		},
	}
}

// DefaultPath returns the per-user configuration file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "guardian", "config.yaml")
}

// Load reads configuration from path on top of the defaults, then applies
// environment overrides and validates the result. A missing file, or an
// empty path, yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("GUARDIAN_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if path := os.Getenv("GUARDIAN_LEXICON"); path != "" {
		c.LexiconPath = path
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	if c.LSP.Source == "" {
		return errors.New("lsp.source must not be empty")
	}
	if c.REPL.Prompt == "" {
		return errors.New("repl.prompt must not be empty")
	}
	return nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// OpenLexicon returns the lexicon named by LexiconPath,
// or the built-in one when it is empty.
func (c *Config) OpenLexicon() (*guardian.Lexicon, error) {
	if c.LexiconPath == "" {
		return guardian.Default(), nil
	}
	f, err := os.Open(c.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon: %w", err)
	}
	defer f.Close()
	lex, err := guardian.LoadLexicon(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.LexiconPath, err)
	}
	return lex, nil
}
