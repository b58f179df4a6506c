// Package formatter renders sack ASTs as source code or S-expressions.
package formatter

import (
	"math"
	"strconv"
	"strings"

	"github.com/thomasrohde/sack/pkg/ast"
)

const indent = "  "

// overflowLiteral is a digit run past the float64 range. A literal that
// overflowed when parsed is written back this way so it still reads as +Inf;
// "inf" would read as a variable.
var overflowLiteral = "1" + strings.Repeat("0", 309)

// Format pretty-prints a program back to source code. Every left operand is
// an atom, so expressions print flat without parentheses and re-parse to the
// same tree.
func Format(program *ast.Program) string {
	lines := make([]string, len(program.Statements))
	for i, s := range program.Statements {
		lines[i] = formatStmt(s, 0)
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// HasComments reports whether source contains comment lines that Format
// would drop.
func HasComments(source string, marker byte) bool {
	for _, line := range strings.Split(source, "\n") {
		if len(line) > 0 && line[0] == marker {
			return true
		}
	}
	return false
}

func formatStmt(n ast.Node, depth int) string {
	prefix := strings.Repeat(indent, depth)
	switch n.(type) {
	case *ast.FunctionDecl, *ast.IfStatement, *ast.ConditionalLoop, *ast.IncrementingLoop:
		return prefix + formatNode(n, depth)
	}
	return prefix + formatNode(n, depth) + ";"
}

func formatBlock(stmts []ast.Node, depth int) string {
	if len(stmts) == 0 {
		return "{}"
	}
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = formatStmt(s, depth+1)
	}
	return "{\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat(indent, depth) + "}"
}

func formatNode(n ast.Node, depth int) string {
	switch node := n.(type) {
	case *ast.NoneLit:
		return "none"
	case *ast.NumberLit:
		if math.IsInf(node.Value, 1) {
			return overflowLiteral
		}
		return FormatNumber(node.Value)
	case *ast.TextLit:
		return `"` + node.Value + `"`
	case *ast.BoolLit:
		return strconv.FormatBool(node.Value)
	case *ast.Variable:
		return node.Name
	case *ast.LoopBreak:
		return "break"
	case *ast.SetStmt:
		return "let " + node.Name + " = " + formatNode(node.Value, depth)
	case *ast.Assign:
		target := node.Name
		if target != "" {
			target += " "
		}
		return target + string(node.Op) + " " + formatNode(node.Value, depth)
	case *ast.BinaryExpr:
		right := string(node.Op) + " " + formatNode(node.Right, depth)
		if ast.IsNone(node.Left) {
			return right
		}
		return formatNode(node.Left, depth) + " " + right
	case *ast.FunctionCall:
		args := make([]string, len(node.Args))
		for i, a := range node.Args {
			args[i] = formatNode(a, depth)
		}
		return node.Name + "(" + strings.Join(args, ", ") + ")"
	case *ast.FunctionDecl:
		return "fn " + node.Name + "(" + strings.Join(node.Params, ", ") + ") " + formatBlock(node.Body, depth)
	case *ast.IfStatement:
		out := "if " + formatNode(node.Cond, depth) + " " + formatBlock(node.Then, depth)
		if node.HasElse {
			if len(node.Else) == 1 {
				if elif, ok := node.Else[0].(*ast.IfStatement); ok {
					return out + " else " + formatNode(elif, depth)
				}
			}
			out += " else " + formatBlock(node.Else, depth)
		}
		return out
	case *ast.ConditionalLoop:
		return "loop while " + formatNode(node.Cond, depth) + " " + formatBlock(node.Body, depth)
	case *ast.IncrementingLoop:
		return "loop " + node.Iter + " in " + formatNode(node.Lower, depth) +
			" to " + formatNode(node.Upper, depth) + " " + formatBlock(node.Body, depth)
	}
	return ""
}

// FormatNumber renders a number the way print does: shortest decimal form
// without exponent, "inf", "-inf" or "NaN".
func FormatNumber(v float64) string {
	switch s := strconv.FormatFloat(v, 'f', -1, 64); s {
	case "+Inf":
		return "inf"
	case "-Inf":
		return "-inf"
	default:
		return s
	}
}

// SExpr renders a node as an S-expression labelled with node kinds, for
// example (Set x (Add 1 2)).
func SExpr(n ast.Node) string {
	var b strings.Builder
	writeSExpr(&b, n)
	return b.String()
}

// SExprProgram renders each top-level statement on its own line.
func SExprProgram(program *ast.Program) string {
	lines := make([]string, len(program.Statements))
	for i, s := range program.Statements {
		lines[i] = SExpr(s)
	}
	return strings.Join(lines, "\n")
}

func writeList(b *strings.Builder, label string, nodes []ast.Node) {
	b.WriteString(" (")
	b.WriteString(label)
	for _, n := range nodes {
		b.WriteByte(' ')
		writeSExpr(b, n)
	}
	b.WriteByte(')')
}

func writeSExpr(b *strings.Builder, n ast.Node) {
	switch node := n.(type) {
	case *ast.NoneLit:
		b.WriteString("None")
		return
	case *ast.NumberLit:
		b.WriteString(FormatNumber(node.Value))
		return
	case *ast.TextLit:
		b.WriteString(strconv.Quote(node.Value))
		return
	case *ast.BoolLit:
		b.WriteString(strconv.FormatBool(node.Value))
		return
	case *ast.Variable:
		b.WriteString(node.Name)
		return
	case *ast.LoopBreak:
		b.WriteString("LoopBreak")
		return
	}

	b.WriteByte('(')
	b.WriteString(n.Kind())
	switch node := n.(type) {
	case *ast.SetStmt:
		b.WriteString(" " + node.Name + " ")
		writeSExpr(b, node.Value)
	case *ast.Assign:
		name := node.Name
		if name == "" {
			name = `""`
		}
		b.WriteString(" " + name + " ")
		writeSExpr(b, node.Value)
	case *ast.BinaryExpr:
		b.WriteByte(' ')
		writeSExpr(b, node.Left)
		b.WriteByte(' ')
		writeSExpr(b, node.Right)
	case *ast.FunctionCall:
		b.WriteString(" " + node.Name)
		for _, a := range node.Args {
			b.WriteByte(' ')
			writeSExpr(b, a)
		}
	case *ast.FunctionDecl:
		b.WriteString(" " + node.Name + " (" + strings.Join(node.Params, " ") + ")")
		writeList(b, "body", node.Body)
	case *ast.IfStatement:
		b.WriteByte(' ')
		writeSExpr(b, node.Cond)
		writeList(b, "then", node.Then)
		if node.HasElse {
			writeList(b, "else", node.Else)
		}
	case *ast.ConditionalLoop:
		b.WriteByte(' ')
		writeSExpr(b, node.Cond)
		writeList(b, "body", node.Body)
	case *ast.IncrementingLoop:
		b.WriteString(" " + node.Iter + " ")
		writeSExpr(b, node.Lower)
		b.WriteByte(' ')
		writeSExpr(b, node.Upper)
		writeList(b, "body", node.Body)
	}
	b.WriteByte(')')
}
