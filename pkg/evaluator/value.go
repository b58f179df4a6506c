// Package evaluator implements the sack tree-walking evaluator.
package evaluator

import (
	"github.com/thomasrohde/sack/pkg/formatter"
)

// Value is the interface for all sack runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	value() // sealed marker
}

// NoneVal is the absence of a value. Unbound variables read as NoneVal.
type NoneVal struct{}

func (NoneVal) value() {}

// NumberVal represents a numeric value.
type NumberVal struct {
	Value float64
}

func (NumberVal) value() {}

// TextVal represents a text value.
type TextVal struct {
	Value string
}

func (TextVal) value() {}

// BoolVal represents a boolean value.
type BoolVal struct {
	Value bool
}

func (BoolVal) value() {}

// BreakVal is the result of a break statement. A loop body that produces it
// ends the current iteration.
type BreakVal struct{}

func (BreakVal) value() {}

// NewNone creates a none value.
func NewNone() Value {
	return NoneVal{}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return NumberVal{Value: n}
}

// NewText creates a text value.
func NewText(s string) Value {
	return TextVal{Value: s}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return BoolVal{Value: b}
}

// Truthy reports whether v selects the then-branch of an if: numbers are
// truthy when nonzero, booleans as-is, everything else is false.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case NumberVal:
		return val.Value != 0
	case BoolVal:
		return val.Value
	}
	return false
}

// Render returns the text form of v used by print. None and break render as
// the empty string.
func Render(v Value) string {
	switch val := v.(type) {
	case NumberVal:
		return formatter.FormatNumber(val.Value)
	case TextVal:
		return val.Value
	case BoolVal:
		if val.Value {
			return "true"
		}
		return "false"
	}
	return ""
}

// Equal reports whether a and b have the same shape and value. Values of
// different shapes are never equal.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case NumberVal:
		bv, ok := b.(NumberVal)
		return ok && av.Value == bv.Value
	case TextVal:
		bv, ok := b.(TextVal)
		return ok && av.Value == bv.Value
	case BoolVal:
		bv, ok := b.(BoolVal)
		return ok && av.Value == bv.Value
	case NoneVal:
		_, ok := b.(NoneVal)
		return ok
	case BreakVal:
		_, ok := b.(BreakVal)
		return ok
	}
	return false
}

// TypeName returns the shape name of v.
func TypeName(v Value) string {
	switch v.(type) {
	case NumberVal:
		return "number"
	case TextVal:
		return "text"
	case BoolVal:
		return "boolean"
	case BreakVal:
		return "break"
	}
	return "none"
}

// concatText is the text an operand contributes to a text addition. Only
// numbers and text contribute anything.
func concatText(v Value) string {
	switch val := v.(type) {
	case NumberVal:
		return formatter.FormatNumber(val.Value)
	case TextVal:
		return val.Value
	}
	return ""
}

// toNumber coerces v for arithmetic and ordering: non-numbers count as 0.
func toNumber(v Value) float64 {
	if n, ok := v.(NumberVal); ok {
		return n.Value
	}
	return 0
}
