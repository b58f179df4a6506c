// Package lexer implements the sack language tokenizer.
package lexer

import (
	"fmt"

	"github.com/thomasrohde/sack/pkg/ast"
	"github.com/thomasrohde/sack/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokLet TokenType = iota
	TokFn
	TokIf
	TokElse
	TokLoop
	TokWhile
	TokIn
	TokTo
	TokBreak
	TokTrue
	TokFalse
	TokNone

	// Literals
	TokNumber
	TokDecimal
	TokText

	// Identifiers
	TokIdent

	// Punctuation
	TokSemicolon // ;
	TokComma     // ,
	TokLParen    // (
	TokRParen    // )
	TokLBrace    // {
	TokRBrace    // }

	// Operators
	TokPlus    // +
	TokMinus   // -
	TokStar    // *
	TokSlash   // /
	TokPercent // %
	TokEqEq    // ==
	TokBangEq  // !=
	TokEquals  // =
	TokPlusEq  // +=
	TokMinusEq // -=
	TokGt      // >
	TokLt      // <
	TokGtEq    // >=
	TokLtEq    // <=

	// Special
	TokEOF
)

var tokenNames = map[TokenType]string{
	TokLet:       "let",
	TokFn:        "fn",
	TokIf:        "if",
	TokElse:      "else",
	TokLoop:      "loop",
	TokWhile:     "while",
	TokIn:        "in",
	TokTo:        "to",
	TokBreak:     "break",
	TokTrue:      "true",
	TokFalse:     "false",
	TokNone:      "none",
	TokNumber:    "number",
	TokDecimal:   "decimal number",
	TokText:      "text",
	TokIdent:     "identifier",
	TokSemicolon: "';'",
	TokComma:     "','",
	TokLParen:    "'('",
	TokRParen:    "')'",
	TokLBrace:    "'{'",
	TokRBrace:    "'}'",
	TokPlus:      "'+'",
	TokMinus:     "'-'",
	TokStar:      "'*'",
	TokSlash:     "'/'",
	TokPercent:   "'%'",
	TokEqEq:      "'=='",
	TokBangEq:    "'!='",
	TokEquals:    "'='",
	TokPlusEq:    "'+='",
	TokMinusEq:   "'-='",
	TokGt:        "'>'",
	TokLt:        "'<'",
	TokGtEq:      "'>='",
	TokLtEq:      "'<='",
	TokEOF:       "end of input",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// IsOperator reports whether the token type is an infix operator.
func (t TokenType) IsOperator() bool {
	return t >= TokPlus && t <= TokLtEq
}

// IsAtom reports whether the token type starts an atom: a literal, a boolean
// or an identifier.
func (t TokenType) IsAtom() bool {
	switch t {
	case TokNumber, TokDecimal, TokText, TokTrue, TokFalse, TokIdent:
		return true
	}
	return false
}

// Token represents a single lexer token. For text literals Value holds the
// content between the quotes.
type Token struct {
	Type  TokenType
	Value string
	Span  ast.Span
}

var keywords = map[string]TokenType{
	"let":   TokLet,
	"fn":    TokFn,
	"if":    TokIf,
	"else":  TokElse,
	"loop":  TokLoop,
	"while": TokWhile,
	"in":    TokIn,
	"to":    TokTo,
	"break": TokBreak,
	"true":  TokTrue,
	"false": TokFalse,
	"none":  TokNone,
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) skipWhitespace() {
	for !s.atEnd() {
		switch s.peek() {
		case ' ', '\t', '\r', '\n', '\f':
			s.advance()
		default:
			return
		}
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentPart(ch byte) bool {
	return isAlpha(ch) || isDigit(ch) || ch == '_'
}

func (s *scanner) scanText() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // consume opening "
	start := s.pos
	for !s.atEnd() {
		if s.peek() == '"' {
			value := s.source[start:s.pos]
			s.advance() // consume closing "
			return Token{
				Type:  TokText,
				Value: value,
				Span:  s.span(startLine, startCol),
			}, nil
		}
		s.advance()
	}
	err := s.lexError(startLine, startCol, "unterminated text literal")
	err.AtEOF = true
	return Token{}, err
}

func (s *scanner) scanNumber() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	tokType := TokNumber

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		tokType = TokDecimal
		s.advance() // consume '.'
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	return Token{
		Type:  tokType,
		Value: s.source[startPos:s.pos],
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isIdentPart(s.peek()) {
		s.advance()
	}

	text := s.source[startPos:s.pos]
	tokType := TokIdent
	if kw, ok := keywords[text]; ok {
		tokType = kw
	}
	return Token{
		Type:  tokType,
		Value: text,
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) lexError(line, col int, msg string) *LexError {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
	// AtEOF is set when the input ended inside a token.
	AtEOF bool
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

// single maps one-character tokens that never start a longer token.
var single = map[byte]TokenType{
	';': TokSemicolon,
	',': TokComma,
	'(': TokLParen,
	')': TokRParen,
	'{': TokLBrace,
	'}': TokRBrace,
	'*': TokStar,
	'/': TokSlash,
	'%': TokPercent,
}

// pairs maps characters that may be followed by '=' to their one- and
// two-character token types.
var pairs = map[byte][2]TokenType{
	'+': {TokPlus, TokPlusEq},
	'-': {TokMinus, TokMinusEq},
	'=': {TokEquals, TokEqEq},
	'>': {TokGt, TokGtEq},
	'<': {TokLt, TokLtEq},
}

func (s *scanner) nextToken() (Token, error) {
	s.skipWhitespace()

	if s.atEnd() {
		return Token{
			Type:  TokEOF,
			Value: "",
			Span:  s.span(s.line, s.col),
		}, nil
	}

	ch := s.peek()
	startLine, startCol := s.line, s.col

	if typ, ok := single[ch]; ok {
		s.advance()
		return Token{Type: typ, Value: string(ch), Span: s.span(startLine, startCol)}, nil
	}

	if types, ok := pairs[ch]; ok {
		s.advance()
		if s.peek() == '=' {
			s.advance()
			return Token{Type: types[1], Value: string(ch) + "=", Span: s.span(startLine, startCol)}, nil
		}
		return Token{Type: types[0], Value: string(ch), Span: s.span(startLine, startCol)}, nil
	}

	if ch == '!' {
		s.advance()
		if s.peek() == '=' {
			s.advance()
			return Token{Type: TokBangEq, Value: "!=", Span: s.span(startLine, startCol)}, nil
		}
		return Token{}, s.lexError(startLine, startCol, "unexpected character '!'")
	}

	if isDigit(ch) {
		return s.scanNumber(), nil
	}

	if ch == '"' {
		return s.scanText()
	}

	if isAlpha(ch) {
		return s.scanIdentOrKeyword(), nil
	}

	s.advance()
	return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character '%c'", ch))
}

// Tokenize breaks source code into a slice of tokens ending with TokEOF.
func Tokenize(source, filename string) ([]Token, error) {
	s := newScanner(source, filename)
	var tokens []Token

	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
