package types

import (
	"sync"

	"github.com/clay-lang/clayc/internal/ast"
)

// Types may themselves be callable (record/variant construction, operator
// overloads attached to a builtin type). AttachOverload/Overloads give the
// invoke engine a place to find a type's overload set without growing the
// Type interface itself (spec.md 3.3 "types may be callable").
var (
	overloadsMu sync.Mutex
	overloads   = map[Type][]*ast.Overload{}
)

func AttachOverload(t Type, ov *ast.Overload) {
	overloadsMu.Lock()
	defer overloadsMu.Unlock()
	overloads[t] = append(overloads[t], ov)
}

func Overloads(t Type) []*ast.Overload {
	overloadsMu.Lock()
	defer overloadsMu.Unlock()
	return append([]*ast.Overload(nil), overloads[t]...)
}
