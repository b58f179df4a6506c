package parser_test

import (
	"testing"

	"github.com/thomasrohde/sack/pkg/formatter"
	"github.com/thomasrohde/sack/pkg/parser"
)

// FuzzParse feeds random inputs to the parser to catch panics.
// The parser should never panic; invalid input yields diagnostics. Accepted
// input must parse to the same tree twice.
func FuzzParse(f *testing.F) {
	seeds := []string{
		`print(42);`,
		`let x = 5; x = "hi"; print(x);`,
		`x += 1;`,
		`let x = 0; loop i in 0 to 3 { x = 99; } print(x);`,
		`let x = 0; loop while x < 3 { x += 1; } print(x);`,
		`fn f(a) { print(a); } f(1+1); f(2);`,
		`if a { print(1); } else if b { print(2); } else { print(3); }`,
		`print("a" + 1 + "b");`,
		`fn f(n) { if n > 0 { f(n - 1); } }`,
		`loop while true { break; }`,
		// Edge cases
		``,
		`;;;`,
		`print(`,
		`print(1`,
		`if {`,
		`loop`,
		`let`,
		`fn`,
		`fn f(`,
		`} ) else to`,
		`- - - -`,
		`1 = = 2`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		prog, diags := parser.Parse(input, "fuzz.sk")
		if prog == nil {
			if len(diags) == 0 {
				t.Fatalf("nil program without diagnostics for %q", input)
			}
			return
		}
		again, _ := parser.Parse(input, "fuzz.sk")
		if formatter.SExprProgram(prog) != formatter.SExprProgram(again) {
			t.Fatalf("non-deterministic parse of %q", input)
		}
	})
}
