package evaluator

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/thomasrohde/sack/pkg/ast"
	"github.com/thomasrohde/sack/pkg/diagnostics"
	"github.com/thomasrohde/sack/pkg/formatter"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart    TraceEventType = "run_start"
	TraceRunEnd      TraceEventType = "run_end"
	TraceStmtStart   TraceEventType = "stmt_start"
	TraceStmtEnd     TraceEventType = "stmt_end"
	TraceFnCallStart TraceEventType = "fn_call_start"
	TraceFnCallEnd   TraceEventType = "fn_call_end"
	TraceLoopStart   TraceEventType = "loop_start"
	TraceLoopEnd     TraceEventType = "loop_end"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string         `json:"ts"`
	RunID     string         `json:"runId"`
	Event     TraceEventType `json:"event"`
	Span      *ast.Span      `json:"span,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// ExecOptions configures program execution.
type ExecOptions struct {
	// Stdout receives print output. Defaults to os.Stdout.
	Stdout io.Writer
	Trace  func(event TraceEvent)
	RunID  string
	Budget Budget
}

// ExecResult holds the result of a program execution.
type ExecResult struct {
	// Value is the result of the last top-level statement.
	Value   Value
	Env     *Env
	Tracker BudgetTracker
}

// RuntimeError represents an error raised while executing a program.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Diag converts the error to a diagnostic.
func (e *RuntimeError) Diag() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

type evaluator struct {
	ctx     context.Context
	opts    ExecOptions
	stdout  io.Writer
	tracker BudgetTracker
}

func (ev *evaluator) emit(event TraceEventType, span *ast.Span, data map[string]any) {
	if ev.opts.Trace != nil {
		ev.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     ev.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

func (ev *evaluator) checkContext(span ast.Span) error {
	if err := ev.ctx.Err(); err != nil {
		return &RuntimeError{
			Code:    diagnostics.ECanceled,
			Message: fmt.Sprintf("execution canceled: %s", err),
			Span:    &span,
		}
	}
	return nil
}

func (ev *evaluator) checkIterationBudget(span ast.Span) error {
	ev.tracker.Iterations++
	if limit := ev.opts.Budget.MaxIterations; limit > 0 && ev.tracker.Iterations > limit {
		return &RuntimeError{
			Code:    diagnostics.EBudget,
			Message: fmt.Sprintf("iteration budget exceeded (max %d)", limit),
			Span:    &span,
		}
	}
	return nil
}

// Execute runs a program against a fresh root environment.
func Execute(ctx context.Context, program *ast.Program, opts ExecOptions) (*ExecResult, error) {
	return ExecuteEnv(ctx, program, NewEnv(), opts)
}

// ExecuteEnv runs a program's top-level statements in order against env,
// which keeps every binding the program makes.
func ExecuteEnv(ctx context.Context, program *ast.Program, env *Env, opts ExecOptions) (*ExecResult, error) {
	ev := &evaluator{
		ctx:    ctx,
		opts:   opts,
		stdout: opts.Stdout,
	}
	if ev.stdout == nil {
		ev.stdout = os.Stdout
	}

	span := program.Span
	ev.emit(TraceRunStart, &span, nil)

	var last Value = NoneVal{}
	var runErr error
	for _, stmt := range program.Statements {
		stmtSpan := stmt.NodeSpan()
		if runErr = ev.checkContext(stmtSpan); runErr != nil {
			break
		}
		ev.emit(TraceStmtStart, &stmtSpan, map[string]any{"node": formatter.SExpr(stmt)})
		last, runErr = ev.exec(stmt, env)
		if runErr != nil {
			break
		}
		ev.emit(TraceStmtEnd, &stmtSpan, map[string]any{
			"value": valueToRaw(last),
			"type":  TypeName(last),
		})
	}

	ev.emit(TraceRunEnd, &span, map[string]any{
		"iterations": ev.tracker.Iterations,
		"fnCalls":    ev.tracker.FnCalls,
	})

	if runErr != nil {
		return &ExecResult{Env: env, Tracker: ev.tracker}, runErr
	}
	return &ExecResult{Value: last, Env: env, Tracker: ev.tracker}, nil
}

func (ev *evaluator) exec(node ast.Node, env *Env) (Value, error) {
	switch n := node.(type) {
	case *ast.NoneLit:
		return NewNone(), nil
	case *ast.NumberLit:
		return NewNumber(n.Value), nil
	case *ast.TextLit:
		return NewText(n.Value), nil
	case *ast.BoolLit:
		return NewBool(n.Value), nil
	case *ast.LoopBreak:
		return BreakVal{}, nil
	case *ast.Variable:
		val, _ := env.Get(n.Name)
		return val, nil
	case *ast.SetStmt:
		val, err := ev.exec(n.Value, env)
		if err != nil {
			return nil, err
		}
		env.Set(n.Name, val)
		return NoneVal{}, nil
	case *ast.Assign:
		return ev.execAssign(n, env)
	case *ast.BinaryExpr:
		return ev.evalBinary(n, env)
	case *ast.FunctionDecl:
		env.DefineFunc(n)
		return NoneVal{}, nil
	case *ast.FunctionCall:
		return ev.execCall(n, env)
	case *ast.IfStatement:
		return ev.execIf(n, env)
	case *ast.ConditionalLoop:
		return ev.execConditionalLoop(n, env)
	case *ast.IncrementingLoop:
		return ev.execIncrementingLoop(n, env)
	}
	return NoneVal{}, nil
}

// execBody runs statements in order and returns the value of the last one.
func (ev *evaluator) execBody(stmts []ast.Node, env *Env) (Value, error) {
	var last Value = NoneVal{}
	for _, stmt := range stmts {
		val, err := ev.exec(stmt, env)
		if err != nil {
			return nil, err
		}
		last = val
	}
	return last, nil
}

// execLoopBody runs one iteration. A statement that yields BreakVal ends it.
func (ev *evaluator) execLoopBody(stmts []ast.Node, env *Env) error {
	for _, stmt := range stmts {
		val, err := ev.exec(stmt, env)
		if err != nil {
			return err
		}
		if _, ok := val.(BreakVal); ok {
			return nil
		}
	}
	return nil
}

// execAssign updates an existing binding. Assignments to unbound names, and
// compound assignments whose shapes do not match, do nothing.
func (ev *evaluator) execAssign(n *ast.Assign, env *Env) (Value, error) {
	val, err := ev.exec(n.Value, env)
	if err != nil {
		return nil, err
	}
	cur, bound := env.Get(n.Name)
	if !bound {
		return NoneVal{}, nil
	}

	switch n.Op {
	case ast.OpChange:
		env.Set(n.Name, val)
	case ast.OpAddEq:
		switch c := cur.(type) {
		case NumberVal:
			if v, ok := val.(NumberVal); ok {
				env.Set(n.Name, NewNumber(c.Value+v.Value))
			}
		case TextVal:
			if v, ok := val.(TextVal); ok {
				env.Set(n.Name, NewText(c.Value+v.Value))
			}
		}
	case ast.OpSubEq:
		c, ok1 := cur.(NumberVal)
		v, ok2 := val.(NumberVal)
		if ok1 && ok2 {
			env.Set(n.Name, NewNumber(c.Value-v.Value))
		}
	}
	return NoneVal{}, nil
}

func (ev *evaluator) evalBinary(n *ast.BinaryExpr, env *Env) (Value, error) {
	left, err := ev.exec(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.exec(n.Right, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case ast.OpAdd:
		ln, lok := left.(NumberVal)
		rn, rok := right.(NumberVal)
		if lok && rok {
			return NewNumber(ln.Value + rn.Value), nil
		}
		return NewText(concatText(left) + concatText(right)), nil
	case ast.OpEqEq:
		return NewBool(Equal(left, right)), nil
	case ast.OpNeq:
		return NewBool(!Equal(left, right)), nil
	}

	l, r := toNumber(left), toNumber(right)
	switch n.Op {
	case ast.OpSub:
		return NewNumber(l - r), nil
	case ast.OpMul:
		return NewNumber(l * r), nil
	case ast.OpDiv:
		return NewNumber(l / r), nil
	case ast.OpMod:
		return NewNumber(math.Mod(l, r)), nil
	case ast.OpGt:
		return NewBool(l > r), nil
	case ast.OpLt:
		return NewBool(l < r), nil
	case ast.OpGtEq:
		return NewBool(l >= r), nil
	case ast.OpLtEq:
		return NewBool(l <= r), nil
	}
	return NoneVal{}, nil
}

func (ev *evaluator) execCall(n *ast.FunctionCall, env *Env) (Value, error) {
	if fn, ok := builtins[n.Name]; ok {
		return fn(ev, n, env)
	}

	span := n.Span
	decl, ok := env.Func(n.Name)
	if !ok {
		return nil, &RuntimeError{
			Code:    diagnostics.EUndefinedFn,
			Message: fmt.Sprintf("undefined function '%s'", n.Name),
			Span:    &span,
		}
	}

	ev.tracker.FnCalls++
	ev.emit(TraceFnCallStart, &span, map[string]any{"name": n.Name})

	frame := env.Frame()
	bindParams(frame, decl.Params, n.Args, env)
	result, err := ev.execBody(decl.Body, frame)

	ev.emit(TraceFnCallEnd, &span, map[string]any{"name": n.Name})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// bindParams binds parameters positionally from the unevaluated argument
// nodes. Number and text literals bind directly and variables are read from
// the caller. Any other argument leaves its parameter unbound.
func bindParams(frame *Env, params []string, args []ast.Node, caller *Env) {
	for i, param := range params {
		if i >= len(args) {
			return
		}
		switch a := args[i].(type) {
		case *ast.NumberLit:
			frame.Set(param, NewNumber(a.Value))
		case *ast.TextLit:
			frame.Set(param, NewText(a.Value))
		case *ast.Variable:
			if val, ok := caller.Get(a.Name); ok {
				frame.Set(param, val)
			}
		}
	}
}

func (ev *evaluator) execIf(n *ast.IfStatement, env *Env) (Value, error) {
	cond, err := ev.exec(n.Cond, env)
	if err != nil {
		return nil, err
	}
	branch := n.Then
	if !Truthy(cond) {
		if !n.HasElse {
			return NoneVal{}, nil
		}
		branch = n.Else
	}
	if _, err := ev.execBody(branch, env); err != nil {
		return nil, err
	}
	return NoneVal{}, nil
}

// execConditionalLoop runs in the surrounding environment, so every binding
// made in the body is visible after the loop. It continues only while the
// condition is the boolean true.
func (ev *evaluator) execConditionalLoop(n *ast.ConditionalLoop, env *Env) (Value, error) {
	span := n.Span
	ev.emit(TraceLoopStart, &span, map[string]any{"kind": "while"})

	var err error
	for {
		if err = ev.checkContext(span); err != nil {
			break
		}
		var cond Value
		if cond, err = ev.exec(n.Cond, env); err != nil {
			break
		}
		if b, ok := cond.(BoolVal); !ok || !b.Value {
			break
		}
		if err = ev.checkIterationBudget(span); err != nil {
			break
		}
		if err = ev.execLoopBody(n.Body, env); err != nil {
			break
		}
	}

	ev.emit(TraceLoopEnd, &span, map[string]any{"kind": "while"})
	if err != nil {
		return nil, err
	}
	return NoneVal{}, nil
}

// execIncrementingLoop runs against a copy of the environment taken once
// before the first iteration. Nothing the body binds survives the loop.
func (ev *evaluator) execIncrementingLoop(n *ast.IncrementingLoop, env *Env) (Value, error) {
	lowerVal, err := ev.exec(n.Lower, env)
	if err != nil {
		return nil, err
	}
	upperVal, err := ev.exec(n.Upper, env)
	if err != nil {
		return nil, err
	}
	lower, upper := loopBound(lowerVal), loopBound(upperVal)

	span := n.Span
	ev.emit(TraceLoopStart, &span, map[string]any{"kind": "range", "lower": lower, "upper": upper})

	scope := env.Clone()
	scope.Set(n.Iter, NewNumber(float64(lower)))
	for i := lower; i < upper; i++ {
		if err = ev.checkContext(span); err != nil {
			break
		}
		if err = ev.checkIterationBudget(span); err != nil {
			break
		}
		scope.Set(n.Iter, NewNumber(float64(i)))
		if err = ev.execLoopBody(n.Body, scope); err != nil {
			break
		}
	}

	ev.emit(TraceLoopEnd, &span, map[string]any{"kind": "range"})
	if err != nil {
		return nil, err
	}
	return NoneVal{}, nil
}

// loopBound converts a bound to a 32-bit integer: non-numbers and NaN are 0,
// fractions truncate toward zero and out-of-range values saturate.
func loopBound(v Value) int64 {
	f := toNumber(v)
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int64(f)
}
