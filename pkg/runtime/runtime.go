// Package runtime provides the top-level sack runtime orchestrator.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thomasrohde/sack/pkg/ast"
	"github.com/thomasrohde/sack/pkg/config"
	"github.com/thomasrohde/sack/pkg/diagnostics"
	"github.com/thomasrohde/sack/pkg/evaluator"
	"github.com/thomasrohde/sack/pkg/formatter"
	"github.com/thomasrohde/sack/pkg/parser"
	"github.com/thomasrohde/sack/pkg/preprocess"
	"github.com/thomasrohde/sack/pkg/validator"
)

// Result holds the outcome of a program execution.
type Result struct {
	Value   evaluator.Value
	Tracker evaluator.BudgetTracker
}

// Runtime wires together the sack components for program execution.
type Runtime struct {
	stdout io.Writer
	marker byte
	budget evaluator.Budget
	runID  string
	trace  func(event evaluator.TraceEvent)
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdout sets the writer that receives print output.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithCommentMarker sets the character that starts a comment line.
func WithCommentMarker(m byte) Option {
	return func(rt *Runtime) {
		rt.marker = m
	}
}

// WithBudget sets execution limits.
func WithBudget(b evaluator.Budget) Option {
	return func(rt *Runtime) {
		rt.budget = b
	}
}

// WithConfig applies the comment marker and budget from loaded settings.
func WithConfig(cfg *config.Config) Option {
	return func(rt *Runtime) {
		WithCommentMarker(cfg.Marker())(rt)
		WithBudget(evaluator.Budget{MaxIterations: cfg.MaxIterations})(rt)
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// New creates a new Runtime with the given options. By default output goes
// to os.Stdout and '#' starts a comment line.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		stdout: os.Stdout,
		marker: preprocess.DefaultMarker,
		runID:  "cli",
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Parse preprocesses and parses source.
func (rt *Runtime) Parse(source, filename string) (*ast.Program, error) {
	program, diags := parser.Parse(preprocess.Clean(source, rt.marker), filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	return program, nil
}

// Run parses and executes a sack program. Lint warnings never block a run.
func (rt *Runtime) Run(ctx context.Context, source, filename string) (*Result, error) {
	program, err := rt.Parse(source, filename)
	if err != nil {
		return nil, err
	}

	result, err := evaluator.Execute(ctx, program, rt.execOptions())
	if err != nil {
		if result != nil {
			return &Result{Tracker: result.Tracker}, err
		}
		return nil, err
	}
	return &Result{Value: result.Value, Tracker: result.Tracker}, nil
}

// Check parses and lints a sack program without executing it. Parse errors
// are returned alone; otherwise the result holds lint warnings.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, err := rt.Parse(source, filename)
	if err != nil {
		return DiagnosticsOf(err)
	}
	return validator.Validate(program)
}

// Format parses a program and prints it in canonical layout.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, err := rt.Parse(source, filename)
	if err != nil {
		return "", err
	}
	return formatter.Format(program), nil
}

// DumpAST parses a program and renders each top-level statement as an
// S-expression.
func (rt *Runtime) DumpAST(source, filename string) (string, error) {
	program, err := rt.Parse(source, filename)
	if err != nil {
		return "", err
	}
	return formatter.SExprProgram(program), nil
}

func (rt *Runtime) execOptions() evaluator.ExecOptions {
	return evaluator.ExecOptions{
		Stdout: rt.stdout,
		Trace:  rt.trace,
		RunID:  rt.runID,
		Budget: rt.budget,
	}
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// DiagnosticsOf extracts the diagnostics carried by err. Errors that carry
// none are reported under E_IO.
func DiagnosticsOf(err error) []diagnostics.Diagnostic {
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de.Diagnostics
	}
	var re *evaluator.RuntimeError
	if errors.As(err, &re) {
		return []diagnostics.Diagnostic{re.Diag()}
	}
	var ce *config.Error
	if errors.As(err, &ce) {
		return []diagnostics.Diagnostic{ce.Diag()}
	}
	return []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, "")}
}
