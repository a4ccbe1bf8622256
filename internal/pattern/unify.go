package pattern

import "github.com/clay-lang/clayc/internal/types"

// Trail records every cell bound during one Unify/UnifyMulti call so the
// caller can Reset them on failure (spec.md 4.6 "Unify reset" — matchInvoke
// is the only caller allowed to keep bindings past a single attempt).
type Trail struct {
	cells      []*Cell
	multiCells []*MultiCell
}

// Reset clears every binding this trail recorded, restoring every touched
// cell to its pre-match state.
func (t *Trail) Reset() {
	for _, c := range t.cells {
		c.Bound = false
		c.Obj = nil
	}
	for _, mc := range t.multiCells {
		mc.Bound = false
		mc.Data = nil
	}
	t.cells = t.cells[:0]
	t.multiCells = t.multiCells[:0]
}

func (t *Trail) bindCell(c *Cell, obj any) {
	c.Bound = true
	c.Obj = obj
	t.cells = append(t.cells, c)
}

func (t *Trail) bindMultiCell(mc *MultiCell, data []any) {
	mc.Bound = true
	mc.Data = data
	t.multiCells = append(t.multiCells, mc)
}

// Unify attempts to bind p's cells so p matches obj, recording every new
// binding on trail. It is total: on failure it returns false having bound
// nothing beyond what trail.Reset can undo (spec.md 4.6 "Unify ... contract").
func Unify(p Pattern, obj any, trail *Trail) bool {
	switch x := p.(type) {
	case *Cell:
		if x.Bound {
			return ObjectsEqual(x.Obj, obj)
		}
		trail.bindCell(x, obj)
		return true
	case *Struct:
		head, params, ok := types.Decompose(obj)
		if !ok || head != x.Head {
			return false
		}
		return UnifyMulti(x.Params, params, trail)
	}
	return false
}

// UnifyMulti is Unify's variadic counterpart over MultiPattern vs an actual
// object sequence (spec.md 4.6 "Multi-pattern rules").
func UnifyMulti(mp MultiPattern, objs []any, trail *Trail) bool {
	switch x := mp.(type) {
	case *MultiCell:
		if x.Bound {
			return multiEqual(x.Data, objs)
		}
		trail.bindMultiCell(x, objs)
		return true
	case *List:
		return unifyList(x, objs, trail)
	}
	return false
}

func unifyList(x *List, objs []any, trail *Trail) bool {
	if x.Tail == nil {
		if len(objs) != len(x.Items) {
			return false
		}
		for i, item := range x.Items {
			if !Unify(item, objs[i], trail) {
				return false
			}
		}
		return true
	}
	if len(objs) < len(x.Items) {
		return false
	}
	for i, item := range x.Items {
		if !Unify(item, objs[i], trail) {
			return false
		}
	}
	return UnifyMulti(x.Tail, objs[len(x.Items):], trail)
}

// ObjectsEqual is the deep-equality fallback spec.md 4.6 calls
// "unify(obj, obj)" for two already-concrete static objects (including two
// bound cells re-encountered during the same match). Types compare by
// interned identity; everything else must supply its own StaticKey via
// types.StaticObject, or fall back to Go's `==` for simple comparable values.
func ObjectsEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ta, ok := a.(types.Type); ok {
		tb, ok := b.(types.Type)
		return ok && ta == tb
	}
	if sa, ok := a.(types.StaticObject); ok {
		sb, ok := b.(types.StaticObject)
		return ok && sa.StaticKey() == sb.StaticKey()
	}
	return a == b
}

func multiEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ObjectsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
