package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScenario(t *testing.T, root, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ScenarioFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadScenario(t *testing.T) {
	root := t.TempDir()
	dir := writeScenario(t, root, "hello", "cmd: [run, main.sk]\nexpect:\n  exitCode: 0\n  stdout: \"\"\n  codes: [E_PARSE]\n")

	s, err := LoadScenario(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Cmd) != 2 || s.Cmd[1] != "main.sk" {
		t.Errorf("cmd %v", s.Cmd)
	}
	if s.Expect.Stdout == nil || *s.Expect.Stdout != "" {
		t.Error("explicit empty stdout must be kept")
	}
	if s.Expect.StdoutContains != "" || len(s.Expect.Codes) != 1 {
		t.Errorf("expect %+v", s.Expect)
	}
}

func TestLoadScenarioErrors(t *testing.T) {
	root := t.TempDir()
	for name, content := range map[string]string{
		"unknown-key": "cmd: [run]\nexpectt: {}\n",
		"no-cmd":      "expect:\n  exitCode: 1\n",
		"empty":       "",
	} {
		dir := writeScenario(t, root, name, content)
		if _, err := LoadScenario(dir); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestListScenarios(t *testing.T) {
	root := t.TempDir()
	writeScenario(t, root, "b", "cmd: [run]\n")
	writeScenario(t, root, "a", "cmd: [run]\n")
	if err := os.MkdirAll(filepath.Join(root, "not-a-scenario"), 0o755); err != nil {
		t.Fatal(err)
	}

	dirs, err := ListScenarios(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 2 || !strings.HasSuffix(dirs[0], "a") || !strings.HasSuffix(dirs[1], "b") {
		t.Errorf("dirs %v", dirs)
	}
}
