package lexer

import (
	"errors"
	"strings"
	"testing"

	"github.com/thomasrohde/sack/pkg/diagnostics"
)

// helper to tokenize and fail on error
func mustTokenize(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := Tokenize(source, "test.sk")
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return tokens
}

// helper that strips the trailing EOF for easier assertions
func mustTokenizeNoEOF(t *testing.T, source string) []Token {
	t.Helper()
	tokens := mustTokenize(t, source)
	if len(tokens) == 0 {
		t.Fatal("expected at least one token (EOF)")
	}
	if tokens[len(tokens)-1].Type != TokEOF {
		t.Fatal("last token is not EOF")
	}
	return tokens[:len(tokens)-1]
}

func types(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func assertTypes(t *testing.T, source string, want ...TokenType) {
	t.Helper()
	got := types(mustTokenizeNoEOF(t, source))
	if len(got) != len(want) {
		t.Fatalf("%q: got %d tokens %v, want %d %v", source, len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%q: token %d: got %v, want %v", source, i, got[i], want[i])
		}
	}
}

func TestEmptyInput(t *testing.T) {
	tokens := mustTokenize(t, "")
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token (EOF), got %d", len(tokens))
	}
	if tokens[0].Type != TokEOF {
		t.Errorf("expected TokEOF, got %v", tokens[0].Type)
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		keyword  string
		expected TokenType
	}{
		{"let", TokLet},
		{"fn", TokFn},
		{"if", TokIf},
		{"else", TokElse},
		{"loop", TokLoop},
		{"while", TokWhile},
		{"in", TokIn},
		{"to", TokTo},
		{"break", TokBreak},
		{"true", TokTrue},
		{"false", TokFalse},
		{"none", TokNone},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.keyword)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected token type %v, got %v", tt.expected, tokens[0].Type)
			}
			if tokens[0].Value != tt.keyword {
				t.Errorf("expected value %q, got %q", tt.keyword, tokens[0].Value)
			}
		})
	}
}

func TestKeywordVsIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"lettuce", TokIdent},
		{"iffy", TokIdent},
		{"into", TokIdent},
		{"tofu", TokIdent},
		{"loops", TokIdent},
		{"nonesuch", TokIdent},
		{"trueish", TokIdent},
		{"breaker", TokIdent},
		{"fname", TokIdent},
		{"in", TokIn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected %v for %q, got %v", tt.expected, tt.input, tokens[0].Type)
			}
		})
	}
}

func TestIdentifiers(t *testing.T) {
	for _, input := range []string{"x", "foo", "myVar", "name123", "snake_case", "a1b2c3"} {
		t.Run(input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != TokIdent || tokens[0].Value != input {
				t.Errorf("got %v %q, want identifier %q", tokens[0].Type, tokens[0].Value, input)
			}
		})
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"0", TokNumber},
		{"42", TokNumber},
		{"007", TokNumber},
		{"3.14", TokDecimal},
		{"0.5", TokDecimal},
		{"10.0", TokDecimal},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.typ {
				t.Errorf("expected %v, got %v", tt.typ, tokens[0].Type)
			}
			if tokens[0].Value != tt.input {
				t.Errorf("expected value %q, got %q", tt.input, tokens[0].Value)
			}
		})
	}
}

func TestDotWithoutFractionIsError(t *testing.T) {
	if _, err := Tokenize("1.", "test.sk"); err == nil {
		t.Fatal("expected error for trailing dot")
	}
	if _, err := Tokenize(".5", "test.sk"); err == nil {
		t.Fatal("expected error for leading dot")
	}
}

func TestTextLiterals(t *testing.T) {
	tests := []struct {
		input string
		value string
	}{
		{`"hello"`, "hello"},
		{`""`, ""},
		{`"a b  c"`, "a b  c"},
		{`"no \n escapes"`, `no \n escapes`},
		{"\"two\nlines\"", "two\nlines"},
		{`"# not a comment"`, "# not a comment"},
		{`"héllo 🌍"`, "héllo 🌍"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != TokText {
				t.Fatalf("expected TokText, got %v", tokens[0].Type)
			}
			if tokens[0].Value != tt.value {
				t.Errorf("expected %q, got %q", tt.value, tokens[0].Value)
			}
		})
	}
}

func TestPunctuationAndOperators(t *testing.T) {
	assertTypes(t, "; , ( ) { }",
		TokSemicolon, TokComma, TokLParen, TokRParen, TokLBrace, TokRBrace)
	assertTypes(t, "+ - * / %",
		TokPlus, TokMinus, TokStar, TokSlash, TokPercent)
	assertTypes(t, "== != = += -= > < >= <=",
		TokEqEq, TokBangEq, TokEquals, TokPlusEq, TokMinusEq, TokGt, TokLt, TokGtEq, TokLtEq)
}

func TestOperatorDisambiguation(t *testing.T) {
	tests := []struct {
		input string
		want  []TokenType
	}{
		{"x+=1", []TokenType{TokIdent, TokPlusEq, TokNumber}},
		{"x+ =1", []TokenType{TokIdent, TokPlus, TokEquals, TokNumber}},
		{"a===b", []TokenType{TokIdent, TokEqEq, TokEquals, TokIdent}},
		{"a>=-1", []TokenType{TokIdent, TokGtEq, TokMinus, TokNumber}},
		{"a-=-1", []TokenType{TokIdent, TokMinusEq, TokMinus, TokNumber}},
		{"1<2", []TokenType{TokNumber, TokLt, TokNumber}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assertTypes(t, tt.input, tt.want...)
		})
	}
}

func TestWhitespace(t *testing.T) {
	assertTypes(t, " \t\r\n\f let\n\n  x\t=\r\n1 ", TokLet, TokIdent, TokEquals, TokNumber)
}

func TestStatementSequence(t *testing.T) {
	assertTypes(t, `let x = 5; x = "hi"; print(x);`,
		TokLet, TokIdent, TokEquals, TokNumber, TokSemicolon,
		TokIdent, TokEquals, TokText, TokSemicolon,
		TokIdent, TokLParen, TokIdent, TokRParen, TokSemicolon)

	assertTypes(t, "loop i in 0 to 3 { break; }",
		TokLoop, TokIdent, TokIn, TokNumber, TokTo, TokNumber, TokLBrace, TokBreak, TokSemicolon, TokRBrace)

	assertTypes(t, "fn add(a, b) { return(a + b); }",
		TokFn, TokIdent, TokLParen, TokIdent, TokComma, TokIdent, TokRParen,
		TokLBrace, TokIdent, TokLParen, TokIdent, TokPlus, TokIdent, TokRParen, TokSemicolon, TokRBrace)
}

func TestSpanTracking(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "let x\n  = \"a\nb\" 42")
	want := []struct {
		line, col, endLine, endCol int
	}{
		{1, 1, 1, 4},
		{1, 5, 1, 6},
		{2, 3, 2, 4},
		{2, 5, 3, 3},
		{3, 4, 3, 6},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, w := range want {
		s := tokens[i].Span
		if s.File != "test.sk" {
			t.Errorf("token %d: file %q", i, s.File)
		}
		if s.StartLine != w.line || s.StartCol != w.col || s.EndLine != w.endLine || s.EndCol != w.endCol {
			t.Errorf("token %d (%q): got %d:%d-%d:%d, want %d:%d-%d:%d", i, tokens[i].Value,
				s.StartLine, s.StartCol, s.EndLine, s.EndCol, w.line, w.col, w.endLine, w.endCol)
		}
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		line    int
		col     int
		atEOF   bool
	}{
		{"comment marker", "let x = 1;\n# note", "unexpected character '#'", 2, 1, false},
		{"unterminated text", `print("abc`, "unterminated text literal", 1, 7, true},
		{"bare bang", "a ! b", "unexpected character '!'", 1, 3, false},
		{"underscore start", "_x", "unexpected character '_'", 1, 1, false},
		{"bracket", "[1]", "unexpected character '['", 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input, "test.sk")
			if err == nil {
				t.Fatal("expected lex error")
			}
			var le *LexError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LexError, got %T", err)
			}
			if le.Diag.Code != diagnostics.ELex {
				t.Errorf("expected E_LEX, got %s", le.Diag.Code)
			}
			if !strings.Contains(le.Error(), tt.message) {
				t.Errorf("expected message containing %q, got %q", tt.message, le.Error())
			}
			if le.Diag.Span == nil || le.Diag.Span.StartLine != tt.line || le.Diag.Span.StartCol != tt.col {
				t.Errorf("expected error at %d:%d, got %+v", tt.line, tt.col, le.Diag.Span)
			}
			if le.AtEOF != tt.atEOF {
				t.Errorf("AtEOF = %v, want %v", le.AtEOF, tt.atEOF)
			}
		})
	}
}

func TestEOFAlwaysLast(t *testing.T) {
	for _, src := range []string{"", "x", "let x = 1;", "  \n  "} {
		tokens := mustTokenize(t, src)
		if tokens[len(tokens)-1].Type != TokEOF {
			t.Errorf("%q: last token is %v", src, tokens[len(tokens)-1].Type)
		}
		for _, tok := range tokens[:len(tokens)-1] {
			if tok.Type == TokEOF {
				t.Errorf("%q: EOF before end", src)
			}
		}
	}
}

func TestTokenTypePredicates(t *testing.T) {
	for _, typ := range []TokenType{TokPlus, TokMinus, TokStar, TokSlash, TokPercent, TokEqEq, TokBangEq,
		TokEquals, TokPlusEq, TokMinusEq, TokGt, TokLt, TokGtEq, TokLtEq} {
		if !typ.IsOperator() {
			t.Errorf("%v should be an operator", typ)
		}
	}
	for _, typ := range []TokenType{TokSemicolon, TokRBrace, TokIdent, TokEOF, TokLet} {
		if typ.IsOperator() {
			t.Errorf("%v should not be an operator", typ)
		}
	}
	for _, typ := range []TokenType{TokNumber, TokDecimal, TokText, TokTrue, TokFalse, TokIdent} {
		if !typ.IsAtom() {
			t.Errorf("%v should be an atom", typ)
		}
	}
	if TokNone.IsAtom() {
		t.Error("none is not an atom")
	}
}

func TestTokenTypeNames(t *testing.T) {
	seen := map[string]TokenType{}
	for typ := TokLet; typ <= TokEOF; typ++ {
		name := typ.String()
		if strings.HasPrefix(name, "token(") {
			t.Errorf("token type %d has no name", int(typ))
		}
		if prev, ok := seen[name]; ok {
			t.Errorf("types %d and %d share name %q", int(prev), int(typ), name)
		}
		seen[name] = typ
	}
}
