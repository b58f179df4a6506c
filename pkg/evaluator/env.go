package evaluator

import (
	"sort"

	"github.com/thomasrohde/sack/pkg/ast"
)

// Env is an execution environment: one flat variable scope plus the table of
// declared functions. There is no parent chain; a call gets a fresh Env that
// shares nothing with its caller but a copy of the function table.
type Env struct {
	vars map[string]Value
	fns  map[string]*ast.FunctionDecl
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{
		vars: make(map[string]Value),
		fns:  make(map[string]*ast.FunctionDecl),
	}
}

// Get looks up a variable. An unbound name reads as NoneVal.
func (e *Env) Get(name string) (Value, bool) {
	if val, ok := e.vars[name]; ok {
		return val, true
	}
	return NoneVal{}, false
}

// Set binds a variable, replacing any previous value of any shape.
func (e *Env) Set(name string, val Value) {
	e.vars[name] = val
}

// Clone returns a full copy of the environment. Writes to the copy never
// reach the original.
func (e *Env) Clone() *Env {
	c := &Env{
		vars: make(map[string]Value, len(e.vars)),
		fns:  e.copyFns(),
	}
	for k, v := range e.vars {
		c.vars[k] = v
	}
	return c
}

// Frame returns the environment for a function call: no variables and a
// copy of the function table.
func (e *Env) Frame() *Env {
	return &Env{
		vars: make(map[string]Value),
		fns:  e.copyFns(),
	}
}

func (e *Env) copyFns() map[string]*ast.FunctionDecl {
	fns := make(map[string]*ast.FunctionDecl, len(e.fns))
	for k, v := range e.fns {
		fns[k] = v
	}
	return fns
}

// DefineFunc stores a declaration under its name, replacing any previous one.
// The stored copy has its own name erased; the table key is its identity.
func (e *Env) DefineFunc(decl *ast.FunctionDecl) {
	stored := *decl
	stored.Name = ""
	e.fns[decl.Name] = &stored
}

// Func looks up a declared function.
func (e *Env) Func(name string) (*ast.FunctionDecl, bool) {
	decl, ok := e.fns[name]
	return decl, ok
}

// Names returns the sorted names of bound variables and declared functions.
func (e *Env) Names() (vars, fns []string) {
	for k := range e.vars {
		vars = append(vars, k)
	}
	for k := range e.fns {
		fns = append(fns, k)
	}
	sort.Strings(vars)
	sort.Strings(fns)
	return vars, fns
}
