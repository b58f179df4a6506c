package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thomasrohde/sack/pkg/config"
	"github.com/thomasrohde/sack/pkg/diagnostics"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// isolate points the home directory at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestDefaults(t *testing.T) {
	isolate(t)
	cfg, err := config.Load("", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" {
		t.Errorf("expected defaults, got config from %s", cfg.Path)
	}
	if cfg.Marker() != '#' || cfg.Trace || cfg.Pretty || cfg.MaxIterations != 0 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.REPL.Prompt != "sack> " || cfg.REPL.Continuation != "....> " {
		t.Errorf("unexpected repl defaults %+v", cfg.REPL)
	}
}

func TestProjectFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), "comment_marker: \";\"\npretty: true\nrepl:\n  prompt: \"> \"\n")

	cfg, err := config.Load("", dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Marker() != ';' || !cfg.Pretty {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.REPL.Prompt != "> " {
		t.Errorf("prompt %q", cfg.REPL.Prompt)
	}
	if cfg.REPL.Continuation != "....> " {
		t.Errorf("unset field lost its default: %q", cfg.REPL.Continuation)
	}
}

func TestUserFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, config.UserFile), "trace: true\n")

	cfg, err := config.Load("", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Trace {
		t.Error("expected user config to enable trace")
	}
}

func TestPrecedence(t *testing.T) {
	home := isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(home, config.UserFile), "max_iterations: 1\n")
	writeFile(t, filepath.Join(dir, config.ProjectFile), "max_iterations: 2\n")
	explicit := filepath.Join(t.TempDir(), "explicit.yml")
	writeFile(t, explicit, "max_iterations: 3\n")

	cfg, err := config.Load(explicit, dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxIterations != 3 || cfg.Path != explicit {
		t.Errorf("explicit file not used: %+v", cfg)
	}

	cfg, err = config.Load("", dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxIterations != 2 {
		t.Errorf("project file not preferred over user file: %d", cfg.MaxIterations)
	}
}

func TestEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yml")
	writeFile(t, path, "")
	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Marker() != '#' {
		t.Errorf("expected default marker, got %q", cfg.CommentMarker)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", "colour: red\n", "colour"},
		{"bad marker", "comment_marker: \"//\"\n", "single character"},
		{"empty marker", "comment_marker: \"\"\n", "single character"},
		{"negative budget", "max_iterations: -1\n", "must not be negative"},
		{"bad yaml", "trace: [\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yml")
			writeFile(t, path, tt.content)
			_, err := config.LoadFile(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
			var cerr *config.Error
			if !errors.As(err, &cerr) || cerr.Diag().Code != diagnostics.EConfig {
				t.Errorf("expected *config.Error with E_CONFIG, got %T", err)
			}
		})
	}
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"), t.TempDir())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestInvalidProjectFileIsReported(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), "nope: 1\n")
	if _, err := config.Load("", dir); err == nil {
		t.Error("expected error from invalid project file")
	}
}

func TestHistoryPath(t *testing.T) {
	home := isolate(t)
	cfg := config.Default()
	if got := cfg.HistoryPath(); got != filepath.Join(home, ".sack_history") {
		t.Errorf("got %q", got)
	}
	cfg.REPL.HistoryFile = "/tmp/h"
	if got := cfg.HistoryPath(); got != "/tmp/h" {
		t.Errorf("got %q", got)
	}
	cfg.REPL.HistoryFile = ""
	if got := cfg.HistoryPath(); got != "" {
		t.Errorf("got %q", got)
	}
}
