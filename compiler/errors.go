// errors.go implements the "report and continue" diagnostic model: every
// detected problem is appended to a list and parsing carries on with the
// current lookahead. Nothing here ever aborts a compilation.
//
// Grounded on lookbusy1344-arm_emulator/parser/errors.go's Error/
// ErrorList pair, with the position tracking dropped: a Diagnostic only
// carries a message and an optional "near" lexeme hint, rather than a
// line/column.
package compiler

import (
	"fmt"
	"strings"
)

// Kind categorises a Diagnostic by the stage that detected it.
type Kind int

const (
	KindIO Kind = iota
	KindSyntax
	KindRedeclaration
	KindUndeclared
	KindSemantic
	KindIncomplete
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "I/O error"
	case KindSyntax:
		return "syntax error"
	case KindRedeclaration:
		return "redeclaration"
	case KindUndeclared:
		return "undeclared identifier"
	case KindSemantic:
		return "semantic error"
	case KindIncomplete:
		return "incomplete feature"
	}
	return "error"
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Kind    Kind
	Message string
	Near    string // the lexeme or context the caller was looking at, if any
}

func (d Diagnostic) String() string {
	if d.Near != "" {
		return fmt.Sprintf("%s: %s (near %q)", d.Kind, d.Message, d.Near)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Diagnostics accumulates every Diagnostic reported during a compilation.
type Diagnostics struct {
	items []Diagnostic
}

// Report appends a diagnostic; this never returns an error and never
// aborts anything, matching the "report and continue" design.
func (d *Diagnostics) Report(kind Kind, near, format string, args ...any) {
	d.items = append(d.items, Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Near:    near,
	})
}

// HasErrors reports whether anything at all has been reported.
func (d *Diagnostics) HasErrors() bool {
	return len(d.items) > 0
}

// All returns every reported diagnostic, in report order.
func (d *Diagnostics) All() []Diagnostic {
	return d.items
}

// String renders every diagnostic, one per line, for display on
// standard error.
func (d *Diagnostics) String() string {
	var sb strings.Builder
	for _, item := range d.items {
		sb.WriteString(item.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
