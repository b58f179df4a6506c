// Package ast defines the sack language AST node types.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
//
// The grammar does not separate statements from expressions: any node may
// appear in a statement list and any node may be evaluated for a value.
type Node interface {
	Kind() string
	NodeSpan() Span
	node() // sealed marker
}

// BinaryOp represents a binary operator.
type BinaryOp string

const (
	OpAdd  BinaryOp = "+"
	OpSub  BinaryOp = "-"
	OpMul  BinaryOp = "*"
	OpDiv  BinaryOp = "/"
	OpMod  BinaryOp = "%"
	OpEqEq BinaryOp = "=="
	OpNeq  BinaryOp = "!="
	OpGt   BinaryOp = ">"
	OpLt   BinaryOp = "<"
	OpGtEq BinaryOp = ">="
	OpLtEq BinaryOp = "<="
)

var binaryKinds = map[BinaryOp]string{
	OpAdd:  "Add",
	OpSub:  "Sub",
	OpMul:  "Mul",
	OpDiv:  "Div",
	OpMod:  "Modulo",
	OpEqEq: "EqCheck",
	OpNeq:  "NeqCheck",
	OpGt:   "GtCheck",
	OpLt:   "LtCheck",
	OpGtEq: "GteCheck",
	OpLtEq: "LteCheck",
}

// AssignOp represents an update-only assignment operator.
type AssignOp string

const (
	OpChange AssignOp = "="
	OpAddEq  AssignOp = "+="
	OpSubEq  AssignOp = "-="
)

var assignKinds = map[AssignOp]string{
	OpChange: "Change",
	OpAddEq:  "AddEq",
	OpSubEq:  "SubEq",
}

// --- Atoms ---

type NoneLit struct {
	Span Span
}

func (n *NoneLit) Kind() string   { return "None" }
func (n *NoneLit) NodeSpan() Span { return n.Span }
func (n *NoneLit) node()          {}

type NumberLit struct {
	Span  Span
	Value float64
}

func (n *NumberLit) Kind() string   { return "Number" }
func (n *NumberLit) NodeSpan() Span { return n.Span }
func (n *NumberLit) node()          {}

type TextLit struct {
	Span  Span
	Value string
}

func (n *TextLit) Kind() string   { return "Text" }
func (n *TextLit) NodeSpan() Span { return n.Span }
func (n *TextLit) node()          {}

type BoolLit struct {
	Span  Span
	Value bool
}

func (n *BoolLit) Kind() string   { return "Boolean" }
func (n *BoolLit) NodeSpan() Span { return n.Span }
func (n *BoolLit) node()          {}

type Variable struct {
	Span Span
	Name string
}

func (n *Variable) Kind() string   { return "Variable" }
func (n *Variable) NodeSpan() Span { return n.Span }
func (n *Variable) node()          {}

// --- Bindings ---

// SetStmt is a `let` binding. It always (re)creates the binding.
type SetStmt struct {
	Span  Span
	Name  string
	Value Node
}

func (n *SetStmt) Kind() string   { return "Set" }
func (n *SetStmt) NodeSpan() Span { return n.Span }
func (n *SetStmt) node()          {}

// Assign updates an existing binding. An empty Name never matches a binding.
type Assign struct {
	Span  Span
	Op    AssignOp
	Name  string
	Value Node
}

func (n *Assign) Kind() string   { return assignKinds[n.Op] }
func (n *Assign) NodeSpan() Span { return n.Span }
func (n *Assign) node()          {}

// --- Operators ---

type BinaryExpr struct {
	Span  Span
	Op    BinaryOp
	Left  Node
	Right Node
}

func (n *BinaryExpr) Kind() string   { return binaryKinds[n.Op] }
func (n *BinaryExpr) NodeSpan() Span { return n.Span }
func (n *BinaryExpr) node()          {}

// --- Functions ---

type FunctionCall struct {
	Span Span
	Name string
	Args []Node
}

func (n *FunctionCall) Kind() string   { return "FunctionCall" }
func (n *FunctionCall) NodeSpan() Span { return n.Span }
func (n *FunctionCall) node()          {}

type FunctionDecl struct {
	Span   Span
	Name   string
	Params []string
	Body   []Node
}

func (n *FunctionDecl) Kind() string   { return "FunctionDecl" }
func (n *FunctionDecl) NodeSpan() Span { return n.Span }
func (n *FunctionDecl) node()          {}

// --- Control Flow ---

type IfStatement struct {
	Span    Span
	Cond    Node
	Then    []Node
	HasElse bool
	Else    []Node
}

func (n *IfStatement) Kind() string   { return "IfStatement" }
func (n *IfStatement) NodeSpan() Span { return n.Span }
func (n *IfStatement) node()          {}

type ConditionalLoop struct {
	Span Span
	Cond Node
	Body []Node
}

func (n *ConditionalLoop) Kind() string   { return "ConditionalLoop" }
func (n *ConditionalLoop) NodeSpan() Span { return n.Span }
func (n *ConditionalLoop) node()          {}

type IncrementingLoop struct {
	Span  Span
	Iter  string
	Lower Node
	Upper Node
	Body  []Node
}

func (n *IncrementingLoop) Kind() string   { return "IncrementingLoop" }
func (n *IncrementingLoop) NodeSpan() Span { return n.Span }
func (n *IncrementingLoop) node()          {}

type LoopBreak struct {
	Span Span
}

func (n *LoopBreak) Kind() string   { return "LoopBreak" }
func (n *LoopBreak) NodeSpan() Span { return n.Span }
func (n *LoopBreak) node()          {}

// --- Program ---

type Program struct {
	Span       Span
	Statements []Node
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
func (n *Program) node()          {}

// IsNone reports whether n is a None node.
func IsNone(n Node) bool {
	_, ok := n.(*NoneLit)
	return ok
}
