// Package testutil provides shared test helpers for sack Go tests.
package testutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ScenariosDir is the relative path from the module root to the scenarios.
const ScenariosDir = "testdata/scenarios"

// ScenarioFile is the name of the scenario description in each directory.
const ScenarioFile = "scenario.yml"

// Scenario describes one conformance case loaded from scenario.yml.
type Scenario struct {
	// Cmd is the command followed by its arguments, for example
	// [run, main.sk, --pretty]. Supported commands: run, check, dump-ast, repl.
	Cmd []string `yaml:"cmd"`
	// Inputs are fed one by one to a repl session.
	Inputs []string       `yaml:"inputs,omitempty"`
	Tags   []string       `yaml:"tags,omitempty"`
	Expect ExpectedResult `yaml:"expect"`
}

// ExpectedResult describes the expected outcome of running a scenario.
// Unset fields are not checked.
type ExpectedResult struct {
	ExitCode       int      `yaml:"exitCode"`
	Stdout         *string  `yaml:"stdout,omitempty"`
	StdoutContains string   `yaml:"stdoutContains,omitempty"`
	StderrContains string   `yaml:"stderrContains,omitempty"`
	Codes          []string `yaml:"codes,omitempty"`
}

// LoadScenario loads a scenario from a directory containing scenario.yml.
func LoadScenario(dir string) (*Scenario, error) {
	f, err := os.Open(filepath.Join(dir, ScenarioFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s Scenario
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty scenario", dir)
		}
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	if len(s.Cmd) == 0 {
		return nil, fmt.Errorf("%s: missing cmd", dir)
	}
	return &s, nil
}

// ListScenarios returns all scenario directories under root, sorted by name.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			if _, err := os.Stat(filepath.Join(root, e.Name(), ScenarioFile)); err == nil {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ReadProgramFile reads the program file named by the second cmd element.
func ReadProgramFile(scenarioDir string, cmd []string) (string, string, error) {
	if len(cmd) < 2 {
		return "", "", nil
	}
	filename := cmd[1]
	source, err := os.ReadFile(filepath.Join(scenarioDir, filename))
	if err != nil {
		return "", "", err
	}
	return string(source), filename, nil
}
