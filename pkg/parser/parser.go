// Package parser implements the sack language parser.
//
// The grammar has a single production: parse(current, previous) consumes
// exactly the tokens of the construct that starts at current. Operators have
// no precedence; every chain groups as left op (rest).
package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/thomasrohde/sack/pkg/ast"
	"github.com/thomasrohde/sack/pkg/diagnostics"
	"github.com/thomasrohde/sack/pkg/lexer"
)

// Builtins are the function names every parser state starts with.
var Builtins = []string{"print", "return"}

// State holds the names the parser has seen. Fns decides whether an
// identifier starts a call; Vars is informational.
type State struct {
	Vars map[string]bool
	Fns  map[string]bool
}

// NewState returns a state that knows only the builtin functions.
func NewState() *State {
	s := &State{Vars: map[string]bool{}, Fns: map[string]bool{}}
	for _, name := range Builtins {
		s.Fns[name] = true
	}
	return s
}

// Clone returns an independent copy of the state.
func (s *State) Clone() *State {
	c := &State{Vars: make(map[string]bool, len(s.Vars)), Fns: make(map[string]bool, len(s.Fns))}
	for k := range s.Vars {
		c.Vars[k] = true
	}
	for k := range s.Fns {
		c.Fns[k] = true
	}
	return c
}

// child is the state used for a function body: the same known functions, and
// only the parameters as known variables.
func (s *State) child(params []string) *State {
	c := &State{Vars: map[string]bool{}, Fns: make(map[string]bool, len(s.Fns))}
	for k := range s.Fns {
		c.Fns[k] = true
	}
	for _, p := range params {
		c.Vars[p] = true
	}
	return c
}

// UnexpectedTokenError reports a token that does not fit the construct being
// parsed.
type UnexpectedTokenError struct {
	Expected string
	Found    lexer.Token
}

func (e *UnexpectedTokenError) Error() string {
	found := e.Found.Type.String()
	if e.Found.Type != lexer.TokEOF {
		found = fmt.Sprintf("'%s'", e.Found.Value)
	}
	return fmt.Sprintf("expected %s, got %s", e.Expected, found)
}

// AtEOF reports whether the input ended before the construct was complete.
func (e *UnexpectedTokenError) AtEOF() bool {
	return e.Found.Type == lexer.TokEOF
}

// Diag converts the error to an E_PARSE diagnostic.
func (e *UnexpectedTokenError) Diag() diagnostics.Diagnostic {
	span := e.Found.Span
	return diagnostics.MakeDiag(diagnostics.EParse, e.Error(), &span, "")
}

type parser struct {
	tokens []lexer.Token
	pos    int
	state  *State
}

// Parse tokenizes source and parses it into an AST with a fresh state.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	return ParseWithState(source, filename, NewState())
}

// ParseWithState parses source against a caller-owned state, which keeps the
// names it learns. On failure the state may hold names from the partial parse.
func ParseWithState(source, filename string, state *State) (*ast.Program, []diagnostics.Diagnostic) {
	prog, err := parseSource(source, filename, state)
	if err != nil {
		return nil, []diagnostics.Diagnostic{ErrorDiag(err)}
	}
	return prog, nil
}

// ParseSource is like ParseWithState but returns the typed error, which lets
// callers tell incomplete input apart from invalid input.
func ParseSource(source, filename string, state *State) (*ast.Program, error) {
	return parseSource(source, filename, state)
}

// ErrorDiag converts a lex or parse error to a diagnostic.
func ErrorDiag(err error) diagnostics.Diagnostic {
	var le *lexer.LexError
	if errors.As(err, &le) {
		return le.Diag
	}
	var ue *UnexpectedTokenError
	if errors.As(err, &ue) {
		return ue.Diag()
	}
	return diagnostics.MakeDiag(diagnostics.EParse, err.Error(), nil, "")
}

// Incomplete reports whether err means the input stopped before a construct
// was finished, so that more input could complete it.
func Incomplete(err error) bool {
	var le *lexer.LexError
	if errors.As(err, &le) {
		return le.AtEOF
	}
	var ue *UnexpectedTokenError
	return errors.As(err, &ue) && ue.AtEOF()
}

func parseSource(source, filename string, state *State) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, state: state}
	return p.parseProgram()
}

func (p *parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) next() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// last returns the most recently consumed token.
func (p *parser) last() lexer.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, error) {
	tok := p.next()
	if tok.Type != typ {
		return tok, &UnexpectedTokenError{Expected: typ.String(), Found: tok}
	}
	return tok, nil
}

func spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func (p *parser) parseProgram() (*ast.Program, error) {
	var stmts []ast.Node
	start := p.peek().Span
	origin := lexer.Token{Type: lexer.TokEOF, Span: start}

	for p.peek().Type != lexer.TokEOF {
		cur := p.next()
		node, err := p.parse(cur, origin)
		if err != nil {
			return nil, err
		}
		if keep(cur, node) {
			stmts = append(stmts, node)
		}
	}

	return &ast.Program{
		Span:       spanFromTo(start, p.peek().Span),
		Statements: stmts,
	}, nil
}

// keep reports whether a statement result belongs in a statement list. Only
// an explicit `none` survives as a None node.
func keep(cur lexer.Token, node ast.Node) bool {
	return !ast.IsNone(node) || cur.Type == lexer.TokNone
}

// parseBlock reads statements after an already consumed '{' up to and
// including the matching '}'.
func (p *parser) parseBlock(open lexer.Token) ([]ast.Node, error) {
	var body []ast.Node
	for {
		tok := p.peek()
		switch tok.Type {
		case lexer.TokRBrace:
			p.next()
			return body, nil
		case lexer.TokEOF:
			return nil, &UnexpectedTokenError{Expected: lexer.TokRBrace.String(), Found: tok}
		}
		cur := p.next()
		node, err := p.parse(cur, open)
		if err != nil {
			return nil, err
		}
		if keep(cur, node) {
			body = append(body, node)
		}
	}
}

func (p *parser) expectBlock() ([]ast.Node, error) {
	open, err := p.expect(lexer.TokLBrace)
	if err != nil {
		return nil, err
	}
	return p.parseBlock(open)
}

// parse is the single grammar production. cur has already been consumed;
// prev is the token before it, used to rebuild the left operand of an
// operator.
func (p *parser) parse(cur, prev lexer.Token) (ast.Node, error) {
	if cur.Type == lexer.TokIdent && p.state.Fns[cur.Value] {
		return p.parseCall(cur)
	}
	if cur.Type.IsAtom() {
		return p.parseAtom(cur)
	}
	switch cur.Type {
	case lexer.TokNone:
		return &ast.NoneLit{Span: cur.Span}, nil
	case lexer.TokBreak:
		return &ast.LoopBreak{Span: cur.Span}, nil
	case lexer.TokLet:
		return p.parseLet(cur)
	case lexer.TokFn:
		return p.parseFnDecl(cur)
	case lexer.TokIf:
		return p.parseIf(cur)
	case lexer.TokLoop:
		return p.parseLoop(cur)
	case lexer.TokEquals, lexer.TokPlusEq, lexer.TokMinusEq:
		return p.parseAssign(cur, prev)
	case lexer.TokEOF:
		return nil, &UnexpectedTokenError{Expected: "expression", Found: cur}
	}
	if cur.Type.IsOperator() {
		return p.parseBinary(cur, prev)
	}
	// Stray punctuation or keywords in statement position.
	return &ast.NoneLit{Span: cur.Span}, nil
}

// atomNode builds the node for an atom token. Non-atom tokens yield None.
func atomNode(tok lexer.Token) ast.Node {
	if !tok.Type.IsAtom() {
		return &ast.NoneLit{Span: tok.Span}
	}
	switch tok.Type {
	case lexer.TokNumber, lexer.TokDecimal:
		// Digit runs always parse; overflow saturates to +Inf.
		v, _ := strconv.ParseFloat(tok.Value, 64)
		return &ast.NumberLit{Span: tok.Span, Value: v}
	case lexer.TokText:
		return &ast.TextLit{Span: tok.Span, Value: tok.Value}
	case lexer.TokTrue:
		return &ast.BoolLit{Span: tok.Span, Value: true}
	case lexer.TokFalse:
		return &ast.BoolLit{Span: tok.Span, Value: false}
	default:
		return &ast.Variable{Span: tok.Span, Name: tok.Value}
	}
}

// parseAtom returns the atom when the next token ends it. Any other token is
// consumed and becomes the operator of an infix expression with the atom on
// the left.
func (p *parser) parseAtom(cur lexer.Token) (ast.Node, error) {
	switch p.peek().Type {
	case lexer.TokSemicolon, lexer.TokComma, lexer.TokTo, lexer.TokLBrace,
		lexer.TokRParen, lexer.TokRBrace, lexer.TokEOF:
		return atomNode(cur), nil
	}
	op := p.next()
	return p.parse(op, cur)
}

var binaryOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TokPlus:    ast.OpAdd,
	lexer.TokMinus:   ast.OpSub,
	lexer.TokStar:    ast.OpMul,
	lexer.TokSlash:   ast.OpDiv,
	lexer.TokPercent: ast.OpMod,
	lexer.TokEqEq:    ast.OpEqEq,
	lexer.TokBangEq:  ast.OpNeq,
	lexer.TokGt:      ast.OpGt,
	lexer.TokLt:      ast.OpLt,
	lexer.TokGtEq:    ast.OpGtEq,
	lexer.TokLtEq:    ast.OpLtEq,
}

var assignOps = map[lexer.TokenType]ast.AssignOp{
	lexer.TokEquals:  ast.OpChange,
	lexer.TokPlusEq:  ast.OpAddEq,
	lexer.TokMinusEq: ast.OpSubEq,
}

// operand parses the right-hand side of an operator.
func (p *parser) operand(op lexer.Token) (ast.Node, error) {
	return p.parse(p.next(), op)
}

func (p *parser) parseBinary(op, prev lexer.Token) (ast.Node, error) {
	right, err := p.operand(op)
	if err != nil {
		return nil, err
	}
	left := atomNode(prev)
	return &ast.BinaryExpr{
		Span:  spanFromTo(left.NodeSpan(), right.NodeSpan()),
		Op:    binaryOps[op.Type],
		Left:  left,
		Right: right,
	}, nil
}

func (p *parser) parseAssign(op, prev lexer.Token) (ast.Node, error) {
	value, err := p.operand(op)
	if err != nil {
		return nil, err
	}
	// Only an identifier can be assigned to; anything else leaves a name
	// that never matches a binding.
	name := ""
	start := op.Span
	if prev.Type == lexer.TokIdent {
		name = prev.Value
		start = prev.Span
	}
	return &ast.Assign{
		Span:  spanFromTo(start, value.NodeSpan()),
		Op:    assignOps[op.Type],
		Name:  name,
		Value: value,
	}, nil
}

func (p *parser) parseLet(start lexer.Token) (ast.Node, error) {
	name, err := p.expect(lexer.TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokEquals); err != nil {
		return nil, err
	}
	value, err := p.parse(p.next(), start)
	if err != nil {
		return nil, err
	}
	p.state.Vars[name.Value] = true
	return &ast.SetStmt{
		Span:  spanFromTo(start.Span, value.NodeSpan()),
		Name:  name.Value,
		Value: value,
	}, nil
}

// parseCall reads the argument list of a known function. Each argument is one
// parse; None results, including those of the separating commas, are dropped.
func (p *parser) parseCall(name lexer.Token) (ast.Node, error) {
	open, err := p.expect(lexer.TokLParen)
	if err != nil {
		return nil, err
	}
	var args []ast.Node
	for {
		tok := p.peek()
		if tok.Type == lexer.TokRParen {
			end := p.next()
			return &ast.FunctionCall{
				Span: spanFromTo(name.Span, end.Span),
				Name: name.Value,
				Args: args,
			}, nil
		}
		if tok.Type == lexer.TokEOF {
			return nil, &UnexpectedTokenError{Expected: lexer.TokRParen.String(), Found: tok}
		}
		arg, err := p.parse(p.next(), open)
		if err != nil {
			return nil, err
		}
		if !ast.IsNone(arg) {
			args = append(args, arg)
		}
	}
}

func (p *parser) parseFnDecl(start lexer.Token) (ast.Node, error) {
	name, err := p.expect(lexer.TokIdent)
	if err != nil {
		return nil, err
	}
	// Registered before the body so the function can call itself.
	p.state.Fns[name.Value] = true

	if _, err := p.expect(lexer.TokLParen); err != nil {
		return nil, err
	}
	var params []string
params:
	for {
		tok := p.next()
		switch tok.Type {
		case lexer.TokIdent:
			params = append(params, tok.Value)
		case lexer.TokComma:
		case lexer.TokRParen:
			break params
		default:
			return nil, &UnexpectedTokenError{Expected: "parameter name or ')'", Found: tok}
		}
	}

	outer := p.state
	p.state = outer.child(params)
	body, err := p.expectBlock()
	p.state = outer
	if err != nil {
		return nil, err
	}

	return &ast.FunctionDecl{
		Span:   spanFromTo(start.Span, p.last().Span),
		Name:   name.Value,
		Params: params,
		Body:   body,
	}, nil
}

func (p *parser) parseIf(start lexer.Token) (ast.Node, error) {
	cond, err := p.parse(p.next(), start)
	if err != nil {
		return nil, err
	}
	then, err := p.expectBlock()
	if err != nil {
		return nil, err
	}

	node := &ast.IfStatement{Cond: cond, Then: then}
	if p.peek().Type == lexer.TokElse {
		elseTok := p.next()
		node.HasElse = true
		cur := p.next()
		if cur.Type == lexer.TokLBrace {
			node.Else, err = p.parseBlock(cur)
			if err != nil {
				return nil, err
			}
		} else {
			// else if ... and other single-statement forms
			stmt, err := p.parse(cur, elseTok)
			if err != nil {
				return nil, err
			}
			node.Else = []ast.Node{stmt}
		}
	}
	node.Span = spanFromTo(start.Span, p.last().Span)
	return node, nil
}

func (p *parser) parseLoop(start lexer.Token) (ast.Node, error) {
	kind := p.next()
	switch kind.Type {
	case lexer.TokWhile:
		cond, err := p.parse(p.next(), kind)
		if err != nil {
			return nil, err
		}
		body, err := p.expectBlock()
		if err != nil {
			return nil, err
		}
		return &ast.ConditionalLoop{
			Span: spanFromTo(start.Span, p.last().Span),
			Cond: cond,
			Body: body,
		}, nil

	case lexer.TokIdent:
		in, err := p.expect(lexer.TokIn)
		if err != nil {
			return nil, err
		}
		lower, err := p.parse(p.next(), in)
		if err != nil {
			return nil, err
		}
		to, err := p.expect(lexer.TokTo)
		if err != nil {
			return nil, err
		}
		upper, err := p.parse(p.next(), to)
		if err != nil {
			return nil, err
		}
		p.state.Vars[kind.Value] = true
		body, err := p.expectBlock()
		if err != nil {
			return nil, err
		}
		return &ast.IncrementingLoop{
			Span:  spanFromTo(start.Span, p.last().Span),
			Iter:  kind.Value,
			Lower: lower,
			Upper: upper,
			Body:  body,
		}, nil
	}
	return nil, &UnexpectedTokenError{Expected: "'while' or loop variable", Found: kind}
}
