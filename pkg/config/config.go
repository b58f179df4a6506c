// Package config loads sack settings from YAML files.
//
// Lookup precedence: an explicit path, then the project file (.sack.yml in
// the working directory), then the user file (~/.sack/config.yml), then the
// built-in defaults. Only the first file found is read; fields it leaves out
// keep their default values.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/sack/pkg/diagnostics"
)

const (
	// ProjectFile is looked up in the project directory.
	ProjectFile = ".sack.yml"
	// UserFile is looked up under the user's home directory.
	UserFile = ".sack/config.yml"
)

// Config holds interpreter and REPL settings.
type Config struct {
	CommentMarker string     `yaml:"comment_marker"`
	Trace         bool       `yaml:"trace"`
	Pretty        bool       `yaml:"pretty"`
	MaxIterations int64      `yaml:"max_iterations"`
	REPL          REPLConfig `yaml:"repl"`

	// Path is the file the settings came from, empty for the defaults.
	Path string `yaml:"-"`
}

// REPLConfig holds interactive session settings.
type REPLConfig struct {
	// HistoryFile is relative to the home directory unless absolute.
	HistoryFile  string `yaml:"history_file"`
	Prompt       string `yaml:"prompt"`
	Continuation string `yaml:"continuation"`
}

// Error reports an unreadable or invalid config file.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Diag converts the error to an E_CONFIG diagnostic.
func (e *Error) Diag() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EConfig, e.Error(), nil, "")
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		CommentMarker: "#",
		REPL: REPLConfig{
			HistoryFile:  ".sack_history",
			Prompt:       "sack> ",
			Continuation: "....> ",
		},
	}
}

// Load resolves the config file by precedence and reads it. An explicit path
// must exist; the project and user files are optional.
func Load(explicit, projectDir string) (*Config, error) {
	if explicit != "" {
		return LoadFile(explicit)
	}

	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, UserFile))
	}
	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return Default(), nil
}

// LoadFile reads settings from path on top of the defaults. Unknown keys are
// rejected.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}
	if err := cfg.validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	cfg.Path = path
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.CommentMarker) != 1 {
		return fmt.Errorf("comment_marker must be a single character, got %q", c.CommentMarker)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative, got %d", c.MaxIterations)
	}
	return nil
}

// Marker returns the comment marker byte.
func (c *Config) Marker() byte {
	return c.CommentMarker[0]
}

// HistoryPath returns the absolute REPL history path, or "" when history is
// disabled or the home directory is unknown.
func (c *Config) HistoryPath() string {
	p := c.REPL.HistoryFile
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, p)
}
