package evaluator

import (
	"fmt"

	"github.com/thomasrohde/sack/pkg/ast"
	"github.com/thomasrohde/sack/pkg/diagnostics"
)

// builtinFn implements a function provided by the interpreter. It receives
// the raw argument nodes and evaluates what it needs.
type builtinFn func(ev *evaluator, call *ast.FunctionCall, env *Env) (Value, error)

var builtins map[string]builtinFn

func init() {
	builtins = map[string]builtinFn{
		"print":  builtinPrint,
		"return": builtinReturn,
	}
}

// IsBuiltin reports whether name is provided by the interpreter.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// firstArg evaluates the first argument; further arguments are ignored.
func (ev *evaluator) firstArg(call *ast.FunctionCall, env *Env) (Value, error) {
	if len(call.Args) == 0 {
		return NoneVal{}, nil
	}
	return ev.exec(call.Args[0], env)
}

// builtinPrint writes a number, text or boolean followed by a newline.
// Anything else prints nothing.
func builtinPrint(ev *evaluator, call *ast.FunctionCall, env *Env) (Value, error) {
	val, err := ev.firstArg(call, env)
	if err != nil {
		return nil, err
	}
	switch val.(type) {
	case NumberVal, TextVal, BoolVal:
		if _, err := fmt.Fprintln(ev.stdout, Render(val)); err != nil {
			span := call.Span
			return nil, &RuntimeError{
				Code:    diagnostics.EIO,
				Message: fmt.Sprintf("print: %s", err),
				Span:    &span,
			}
		}
	}
	return NoneVal{}, nil
}

// builtinReturn yields its argument as the value of the statement it is in.
// It does not leave the enclosing function.
func builtinReturn(ev *evaluator, call *ast.FunctionCall, env *Env) (Value, error) {
	return ev.firstArg(call, env)
}
