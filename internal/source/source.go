// Package source holds the immutable byte buffers the rest of the compiler
// points into, plus the (source, offset) pair used for every diagnostic and
// AST node location (spec.md 3.1).
package source

import "fmt"

// Source is an immutable named byte buffer.
type Source struct {
	Name string
	Data []byte
}

// New wraps data under name. The caller must not mutate data afterwards.
func New(name string, data []byte) *Source {
	return &Source{Name: name, Data: data}
}

// Location is a (source, byte-offset) pair. The zero value has a nil Src and
// means "no location"; callers that carry locations optionally should test
// Src == nil before using Line/Column.
type Location struct {
	Src    *Source
	Offset int
}

// Valid reports whether the location names a real source.
func (l Location) Valid() bool { return l.Src != nil }

// LineCol walks the buffer up to Offset and returns 1-based line/column.
// Intended for diagnostics only; callers on a hot path should cache this.
func (l Location) LineCol() (line, col int) {
	if l.Src == nil {
		return 0, 0
	}
	line, col = 1, 1
	limit := l.Offset
	if limit > len(l.Src.Data) {
		limit = len(l.Src.Data)
	}
	for _, b := range l.Src.Data[:limit] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func (l Location) String() string {
	if l.Src == nil {
		return "<unknown>"
	}
	line, col := l.LineCol()
	return fmt.Sprintf("%s:%d:%d", l.Src.Name, line, col)
}
