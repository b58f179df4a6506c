package runtime

import (
	"context"
	"errors"

	"github.com/thomasrohde/sack/pkg/ast"
	"github.com/thomasrohde/sack/pkg/diagnostics"
	"github.com/thomasrohde/sack/pkg/evaluator"
	"github.com/thomasrohde/sack/pkg/formatter"
	"github.com/thomasrohde/sack/pkg/parser"
	"github.com/thomasrohde/sack/pkg/preprocess"
	"github.com/thomasrohde/sack/pkg/validator"
)

// ErrIncomplete is returned by Session.Eval when the input ends inside an
// unfinished construct and more lines could complete it.
var ErrIncomplete = errors.New("incomplete input")

// Session evaluates a sequence of inputs against one root environment. The
// parser state and every binding carry over from one input to the next.
type Session struct {
	rt       *Runtime
	env      *evaluator.Env
	state    *parser.State
	filename string
}

// NewSession starts an empty session. filename labels diagnostics.
func (rt *Runtime) NewSession(filename string) *Session {
	return &Session{
		rt:       rt,
		env:      evaluator.NewEnv(),
		state:    parser.NewState(),
		filename: filename,
	}
}

// Eval parses and runs one input. Parse failures leave the session
// unchanged; a runtime error keeps whatever the input bound before failing.
func (s *Session) Eval(ctx context.Context, input string) (*Result, error) {
	st := s.state.Clone()
	program, err := parser.ParseSource(preprocess.Clean(input, s.rt.marker), s.filename, st)
	if err != nil {
		if parser.Incomplete(err) {
			return nil, ErrIncomplete
		}
		return nil, &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{parser.ErrorDiag(err)}}
	}
	s.state = st

	result, err := evaluator.ExecuteEnv(ctx, program, s.env, s.rt.execOptions())
	if err != nil {
		return &Result{Tracker: result.Tracker}, err
	}
	return &Result{Value: result.Value, Tracker: result.Tracker}, nil
}

// parse reads input against a copy of the session's parser state.
func (s *Session) parse(input string) (*ast.Program, error) {
	program, err := parser.ParseSource(preprocess.Clean(input, s.rt.marker), s.filename, s.state.Clone())
	if err != nil {
		return nil, &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{parser.ErrorDiag(err)}}
	}
	return program, nil
}

// Check lints one input against the names the session already knows,
// without running it or changing the session.
func (s *Session) Check(input string) []diagnostics.Diagnostic {
	program, err := s.parse(input)
	if err != nil {
		return DiagnosticsOf(err)
	}
	vars, fns := s.env.Names()
	return validator.Validate(program, validator.WithBindings(vars...), validator.WithFunctions(fns...))
}

// DumpAST renders the parse of input as S-expressions, calls to the
// session's functions included.
func (s *Session) DumpAST(input string) (string, error) {
	program, err := s.parse(input)
	if err != nil {
		return "", err
	}
	return formatter.SExprProgram(program), nil
}

// Names returns the sorted variable and function names bound so far.
func (s *Session) Names() (vars, fns []string) {
	return s.env.Names()
}

// Reset discards every binding and declared function.
func (s *Session) Reset() {
	s.env = evaluator.NewEnv()
	s.state = parser.NewState()
}
