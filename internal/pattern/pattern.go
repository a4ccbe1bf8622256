// Package pattern implements pattern terms, pattern cells, and Robinson-style
// unification over static objects and type terms (spec.md 3.5, 4.6).
package pattern

import "github.com/clay-lang/clayc/internal/types"

// Pattern is either a unification variable (Cell) or a constructor
// application (Struct) — spec.md 3.5.
type Pattern interface {
	patternNode()
}

// Cell is a single-value unification variable. Obj is nil (unbound) until
// Unify binds it; Bound distinguishes "bound to nil" from "unbound" for the
// (currently unused but representable) case of a nil static object.
type Cell struct {
	Name  string
	Bound bool
	Obj   any
}

func (*Cell) patternNode() {}

// NewCell creates a fresh, unbound pattern cell named for diagnostics.
func NewCell(name string) *Cell { return &Cell{Name: name} }

// Struct is a constructor application: Head names a type constructor or a
// record/variant declaration head (spec.md 3.5); Params is the ordered
// multi-pattern of its arguments.
type Struct struct {
	Head   types.Head
	Params MultiPattern
}

func (*Struct) patternNode() {}

// MultiPattern is either a variadic unification variable (MultiCell) or an
// ordered List of single patterns with an optional variadic Tail.
type MultiPattern interface {
	multiPatternNode()
}

// MultiCell binds to an entire remaining sequence of objects at once
// (spec.md 3.5 "MultiPattern Cell").
type MultiCell struct {
	Name  string
	Bound bool
	Data  []any
}

func (*MultiCell) multiPatternNode() {}

func NewMultiCell(name string) *MultiCell { return &MultiCell{Name: name} }

// List is items..tail: Tail is nil for a closed (non-variadic) list.
type List struct {
	Items []Pattern
	Tail  MultiPattern // nil if closed
}

func (*List) multiPatternNode() {}
