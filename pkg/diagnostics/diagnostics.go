// Package diagnostics defines sack diagnostic types for lex, parse, lint and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thomasrohde/sack/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex         = "E_LEX"
	EParse       = "E_PARSE"
	EUndefinedFn = "E_UNDEFINED_FN"
	EIO          = "E_IO"
	EConfig      = "E_CONFIG"
	ECanceled    = "E_CANCELED"
	EBudget      = "E_BUDGET"
	WUnboundRead = "W_UNBOUND_READ"
	WNoopAssign  = "W_NOOP_ASSIGN"
	WForwardCall = "W_FORWARD_CALL"
	WLoopEscape  = "W_LOOP_ESCAPE"
	WCompoundArg = "W_COMPOUND_ARG"
	WUndefinedFn = "W_UNDEFINED_FN"
)

// Diagnostic represents a lex, parse, lint, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// IsWarning reports whether the diagnostic is a lint warning rather than an error.
func (d Diagnostic) IsWarning() bool {
	return strings.HasPrefix(d.Code, "W_")
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	level := "error"
	if d.IsWarning() {
		level = "warning"
	}
	out := fmt.Sprintf("%s[%s]: %s\n  --> %s", level, d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
