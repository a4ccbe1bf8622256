// Package diagnostics defines the typed error hierarchy the front end and
// middle end raise (spec.md 7) and a colorized sink for rendering them,
// grounded on the teacher's per-package Error types (e.g.
// typesystem.SymbolNotFoundError) generalized into one shared hierarchy
// with a common Diagnostic interface, plus the teacher's isatty-gated
// color detection from evaluator/builtins_term.go.
package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/clay-lang/clayc/internal/source"
)

// Diagnostic is any compiler error carrying a source location (spec.md 7).
type Diagnostic interface {
	error
	Loc() source.Location
	Kind() string
}

type base struct {
	At  source.Location
	Msg string
}

func (b base) Loc() source.Location { return b.At }
func (b base) Error() string        { return fmt.Sprintf("%s: %s", b.At, b.Msg) }

// LexError reports a malformed token (spec.md 7, 4.1).
type LexError struct{ base }

func (LexError) Kind() string { return "lex" }

func NewLexError(at source.Location, format string, args ...any) *LexError {
	return &LexError{base{At: at, Msg: fmt.Sprintf(format, args...)}}
}

// ParseError reports a grammar violation (spec.md 7, 4.2).
type ParseError struct{ base }

func (ParseError) Kind() string { return "parse" }

func NewParseError(at source.Location, format string, args ...any) *ParseError {
	return &ParseError{base{At: at, Msg: fmt.Sprintf(format, args...)}}
}

// LookupError reports an unresolved name (spec.md 7, 4.5).
type LookupError struct{ base }

func (LookupError) Kind() string { return "lookup" }

func NewLookupError(at source.Location, format string, args ...any) *LookupError {
	return &LookupError{base{At: at, Msg: fmt.Sprintf(format, args...)}}
}

// ImportError reports a cyclic or missing module import (spec.md 7, 4.5).
type ImportError struct{ base }

func (ImportError) Kind() string { return "import" }

func NewImportError(at source.Location, format string, args ...any) *ImportError {
	return &ImportError{base{At: at, Msg: fmt.Sprintf(format, args...)}}
}

// MatchError reports that no overload's pattern matched a call's argument
// types (spec.md 7, 4.9, 4.10).
type MatchError struct {
	base
	// Candidates holds one formatted rejection reason per overload tried;
	// it is populated whether or not --full-match-errors is given.
	Candidates []string
}

func (MatchError) Kind() string { return "match" }

func NewMatchError(at source.Location, candidates []string, format string, args ...any) *MatchError {
	return &MatchError{base{At: at, Msg: fmt.Sprintf(format, args...)}, candidates}
}

// AmbiguousMatchError reports that more than one overload matched with no
// strict specificity ordering between them (spec.md 7, 4.9 "Ambiguity").
type AmbiguousMatchError struct {
	base
	Candidates []string
}

func (AmbiguousMatchError) Kind() string { return "ambiguous-match" }

func NewAmbiguousMatchError(at source.Location, candidates []string) *AmbiguousMatchError {
	return &AmbiguousMatchError{
		base{At: at, Msg: fmt.Sprintf("ambiguous call: %d overloads match with no most-specific winner", len(candidates))},
		candidates,
	}
}

// TypeError reports a type mismatch detected by the analyzer (spec.md 7, 4.8).
type TypeError struct{ base }

func (TypeError) Kind() string { return "type" }

func NewTypeError(at source.Location, format string, args ...any) *TypeError {
	return &TypeError{base{At: at, Msg: fmt.Sprintf(format, args...)}}
}

// EvalError reports a failure during compile-time evaluation (spec.md 7, 4.7).
type EvalError struct{ base }

func (EvalError) Kind() string { return "eval" }

func NewEvalError(at source.Location, format string, args ...any) *EvalError {
	return &EvalError{base{At: at, Msg: fmt.Sprintf(format, args...)}}
}

// RecursionError reports a load or analysis cycle caught by the compile
// context's in-progress tracking (spec.md 7, 4.5, 9 Open Questions).
type RecursionError struct {
	base
	Cycle []string // module or symbol names in cycle order
}

func (RecursionError) Kind() string { return "recursion" }

func NewRecursionError(at source.Location, cycle []string) *RecursionError {
	return &RecursionError{
		base{At: at, Msg: fmt.Sprintf("cycle detected: %v", cycle)},
		cycle,
	}
}

// StaticAssertError reports a failed `static_assert` (spec.md 7, 4.7).
type StaticAssertError struct{ base }

func (StaticAssertError) Kind() string { return "static-assert" }

func NewStaticAssertError(at source.Location, format string, args ...any) *StaticAssertError {
	return &StaticAssertError{base{At: at, Msg: fmt.Sprintf(format, args...)}}
}

// Sink renders diagnostics to a writer, colorizing kind labels when the
// writer is a real terminal (spec.md 7 "Rendering" — mirrors the teacher's
// isatty + go-isatty.IsCygwinTerminal double check for Windows consoles).
type Sink struct {
	Out   io.Writer
	Color bool
}

// NewStderrSink builds a Sink over os.Stderr, auto-detecting color support
// the same way the teacher's term builtins probe os.Stdout.
func NewStderrSink() *Sink {
	color := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return &Sink{Out: os.Stderr, Color: color}
}

const (
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// Report writes one diagnostic, then (for MatchError/AmbiguousMatchError)
// every candidate rejection reason indented beneath it.
func (s *Sink) Report(d Diagnostic) {
	label := d.Kind()
	if s.Color {
		label = colorRed + label + colorReset
	}
	fmt.Fprintf(s.Out, "[%s] %s\n", label, d.Error())
	switch e := d.(type) {
	case *MatchError:
		s.reportCandidates(e.Candidates)
	case *AmbiguousMatchError:
		s.reportCandidates(e.Candidates)
	}
}

func (s *Sink) reportCandidates(candidates []string) {
	for _, c := range candidates {
		line := "  - " + c
		if s.Color {
			line = "  " + colorYellow + "- " + c + colorReset
		}
		fmt.Fprintln(s.Out, line)
	}
}
