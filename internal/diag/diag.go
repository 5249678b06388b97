// Package diag provides the diagnostic accumulator shared by the pipeline
// stages: parser, type checker and ownership checker collect into a Bag
// rather than returning on the first error, so a single run can surface
// every problem it safely can. The lexer reports errors in-band as Unknown
// tokens, which internal/core turns into diagnostics.
package diag

import (
	"fmt"
	"strings"

	"github.com/zenlang/zenc/internal/token"
)

// Severity distinguishes a hard failure from an advisory warning. Warnings
// never block compilation.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a single, positioned compiler message.
type Diagnostic struct {
	Severity Severity
	Pos      token.Position
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %s: %s", d.Severity, d.Pos, d.Message)
}

// Bag accumulates diagnostics across a single pass. Each pass keeps one Bag
// and hands it back to its caller when it finishes.
type Bag struct {
	items []Diagnostic
}

// Addf appends a new error-severity diagnostic at pos.
func (b *Bag) Addf(pos token.Position, format string, args ...any) {
	b.items = append(b.items, Diagnostic{Severity: Error, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Warnf appends a new warning-severity diagnostic at pos.
func (b *Bag) Warnf(pos token.Position, format string, args ...any) {
	b.items = append(b.items, Diagnostic{Severity: Warning, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Add appends an already-built Diagnostic.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Merge appends every diagnostic in other onto b, in order.
func (b *Bag) Merge(other Bag) {
	b.items = append(b.items, other.items...)
}

// All returns every diagnostic recorded so far, errors and warnings alike.
func (b *Bag) All() []Diagnostic {
	return b.items
}

// Errors returns only the error-severity diagnostics.
func (b *Bag) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range b.items {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any error-severity diagnostic was recorded.
// Warnings alone never halt the pipeline.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Format renders diagnostics in the compiler's standard presentation: each line reads
// "<severity> at L:C: message" ("error at ..." or "warning at ..."),
// optionally followed by the offending source line
// and a caret under the column, with a summary header when there is more
// than one error.
func Format(diags []Diagnostic, source string) string {
	var sb strings.Builder

	errCount := 0
	for _, d := range diags {
		if d.Severity == Error {
			errCount++
		}
	}
	if errCount > 1 {
		fmt.Fprintf(&sb, "%d errors found\n", errCount)
	}

	lines := strings.Split(source, "\n")
	for i, d := range diags {
		fmt.Fprintf(&sb, "%s at %s: %s\n", d.Severity, d.Pos, d.Message)

		if d.Pos.Line >= 1 && d.Pos.Line <= len(lines) {
			srcLine := lines[d.Pos.Line-1]
			sb.WriteString(srcLine)
			sb.WriteString("\n")

			col := d.Pos.Column
			if col < 1 {
				col = 1
			}
			sb.WriteString(strings.Repeat(" ", col-1))
			sb.WriteString("^\n")
		}

		if i != len(diags)-1 {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
