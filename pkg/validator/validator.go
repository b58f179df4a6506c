// Package validator implements static lint checks over sack programs.
//
// Every check reports a warning: a program that lints badly still runs. The
// scope model follows execution: if branches and while loops share their
// surrounding scope, range loops work on a copy, and function bodies see only
// their parameters and the functions known where they were declared.
package validator

import (
	"fmt"

	"github.com/thomasrohde/sack/pkg/ast"
	"github.com/thomasrohde/sack/pkg/diagnostics"
	"github.com/thomasrohde/sack/pkg/evaluator"
)

type scope struct {
	bindings map[string]bool
	// fns maps a declared function to whether it is declared on every path.
	fns    map[string]bool
	parent *scope
	// isolated scopes are function bodies: variable lookup stops here.
	isolated bool
}

func newScope(parent *scope) *scope {
	return &scope{
		bindings: make(map[string]bool),
		fns:      make(map[string]bool),
		parent:   parent,
	}
}

func (s *scope) has(name string) bool {
	if s.bindings[name] {
		return true
	}
	if s.parent != nil && !s.isolated {
		return s.parent.has(name)
	}
	return false
}

func (s *scope) hasLocal(name string) bool {
	return s.bindings[name]
}

func (s *scope) add(name string) {
	s.bindings[name] = true
}

func (s *scope) fn(name string) (declared, always bool) {
	if always, ok := s.fns[name]; ok {
		return true, always
	}
	if s.parent != nil {
		return s.parent.fn(name)
	}
	return false, false
}

func (s *scope) declare(name string, always bool) {
	s.fns[name] = s.fns[name] || always
}

type validator struct {
	diags []diagnostics.Diagnostic
	// allFns holds every function name declared anywhere in the program.
	allFns map[string]bool
	// conditional counts enclosing if branches and while bodies.
	conditional int
}

// Option seeds the validator with names bound before the program runs.
type Option func(*scope)

// WithBindings marks variables as already bound.
func WithBindings(names ...string) Option {
	return func(sc *scope) {
		for _, n := range names {
			sc.add(n)
		}
	}
}

// WithFunctions marks functions as already declared.
func WithFunctions(names ...string) Option {
	return func(sc *scope) {
		for _, n := range names {
			sc.declare(n, true)
		}
	}
}

// Validate lints a parsed program and returns warnings in source order.
func Validate(program *ast.Program, opts ...Option) []diagnostics.Diagnostic {
	root := newScope(nil)
	for _, opt := range opts {
		opt(root)
	}
	v := &validator{allFns: make(map[string]bool)}
	collectFns(program.Statements, v.allFns)
	v.validateStatements(program.Statements, root)
	return v.diags
}

func collectFns(stmts []ast.Node, into map[string]bool) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.FunctionDecl:
			into[s.Name] = true
			collectFns(s.Body, into)
		case *ast.IfStatement:
			collectFns(s.Then, into)
			collectFns(s.Else, into)
		case *ast.ConditionalLoop:
			collectFns(s.Body, into)
		case *ast.IncrementingLoop:
			collectFns(s.Body, into)
		}
	}
}

func (v *validator) addDiag(code, msg string, span ast.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, hint))
}

func (v *validator) validateStatements(stmts []ast.Node, sc *scope) {
	for _, stmt := range stmts {
		v.validateNode(stmt, sc)
	}
}

func (v *validator) validateNode(node ast.Node, sc *scope) {
	switch n := node.(type) {
	case *ast.Variable:
		v.validateRead(n, sc)

	case *ast.SetStmt:
		v.validateNode(n.Value, sc)
		if !sc.hasLocal(n.Name) && sc.has(n.Name) {
			v.addDiag(diagnostics.WLoopEscape,
				fmt.Sprintf("binding '%s' inside a range loop does not survive the loop", n.Name),
				n.Span, "range loops run on a copy of the surrounding variables")
		}
		sc.add(n.Name)

	case *ast.Assign:
		v.validateNode(n.Value, sc)
		v.validateAssign(n, sc)

	case *ast.BinaryExpr:
		v.validateNode(n.Left, sc)
		v.validateNode(n.Right, sc)

	case *ast.FunctionCall:
		v.validateCall(n, sc)

	case *ast.FunctionDecl:
		sc.declare(n.Name, v.conditional == 0)
		body := newScope(sc)
		body.isolated = true
		body.declare(n.Name, true)
		for _, p := range n.Params {
			body.add(p)
		}
		saved := v.conditional
		v.conditional = 0
		v.validateStatements(n.Body, body)
		v.conditional = saved

	case *ast.IfStatement:
		v.validateNode(n.Cond, sc)
		v.conditional++
		v.validateStatements(n.Then, sc)
		v.validateStatements(n.Else, sc)
		v.conditional--

	case *ast.ConditionalLoop:
		v.validateNode(n.Cond, sc)
		v.conditional++
		v.validateStatements(n.Body, sc)
		v.conditional--

	case *ast.IncrementingLoop:
		v.validateNode(n.Lower, sc)
		v.validateNode(n.Upper, sc)
		body := newScope(sc)
		body.add(n.Iter)
		v.validateStatements(n.Body, body)
	}
}

func (v *validator) validateRead(n *ast.Variable, sc *scope) {
	if sc.has(n.Name) {
		return
	}
	if v.allFns[n.Name] {
		v.addDiag(diagnostics.WForwardCall,
			fmt.Sprintf("'%s' is not a known function here and reads as a variable", n.Name),
			n.Span, fmt.Sprintf("declare '%s' before the first call", n.Name))
		return
	}
	v.addDiag(diagnostics.WUnboundRead,
		fmt.Sprintf("variable '%s' is never bound and reads as none", n.Name),
		n.Span, "")
}

func (v *validator) validateAssign(n *ast.Assign, sc *scope) {
	switch {
	case n.Name == "":
		v.addDiag(diagnostics.WNoopAssign, "assignment target is not a variable", n.Span, "")
	case !sc.has(n.Name):
		v.addDiag(diagnostics.WNoopAssign,
			fmt.Sprintf("assignment to '%s' has no effect: it is not bound", n.Name),
			n.Span, fmt.Sprintf("use 'let %s = ...' for the first binding", n.Name))
	case !sc.hasLocal(n.Name):
		v.addDiag(diagnostics.WLoopEscape,
			fmt.Sprintf("assignment to '%s' inside a range loop does not survive the loop", n.Name),
			n.Span, "use 'loop while' to update outer variables")
	}
}

func (v *validator) validateCall(n *ast.FunctionCall, sc *scope) {
	for _, arg := range n.Args {
		v.validateNode(arg, sc)
	}
	if evaluator.IsBuiltin(n.Name) {
		return
	}

	declared, always := sc.fn(n.Name)
	switch {
	case !declared:
		v.addDiag(diagnostics.WUndefinedFn,
			fmt.Sprintf("function '%s' is not declared where it is called", n.Name), n.Span, "")
	case !always:
		v.addDiag(diagnostics.WUndefinedFn,
			fmt.Sprintf("function '%s' may not be declared when this call runs", n.Name), n.Span,
			"its declaration is inside a branch or loop")
	}

	for i, arg := range n.Args {
		switch arg.(type) {
		case *ast.NumberLit, *ast.TextLit, *ast.Variable:
			continue
		}
		v.addDiag(diagnostics.WCompoundArg,
			fmt.Sprintf("argument %d to '%s' is not a literal or variable; its parameter stays unbound", i+1, n.Name),
			arg.NodeSpan(), "bind the value with let and pass the variable")
	}
}
