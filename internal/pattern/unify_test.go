package pattern

import (
	"testing"

	"github.com/clay-lang/clayc/internal/types"
)

func TestVariadicUnificationBindsPrefixAndTail(t *testing.T) {
	types.Reset()
	a, b, xs := NewCell("A"), NewCell("B"), NewMultiCell("Xs")
	list := &List{Items: []Pattern{a, b}, Tail: xs}

	trail := &Trail{}
	t1, t2, t3, t4 := types.Int(8), types.Int(16), types.Int(32), types.Int(64)
	ok := UnifyMulti(list, []any{t1, t2, t3, t4}, trail)
	if !ok {
		t.Fatal("expected unification to succeed")
	}
	if a.Obj != types.Type(t1) || b.Obj != types.Type(t2) {
		t.Fatalf("A/B bound wrong: A=%v B=%v", a.Obj, b.Obj)
	}
	if len(xs.Data) != 2 || xs.Data[0] != types.Type(t3) || xs.Data[1] != types.Type(t4) {
		t.Fatalf("Xs bound wrong: %v", xs.Data)
	}
}

func TestVariadicUnificationArityErrorOnShortInput(t *testing.T) {
	a, b := NewCell("A"), NewCell("B")
	list := &List{Items: []Pattern{a, b}} // closed, arity 2
	trail := &Trail{}
	ok := UnifyMulti(list, []any{types.Int(8)}, trail)
	if ok {
		t.Fatal("expected arity mismatch to fail")
	}
}

func TestUnifyArityMismatchLeavesCellUnbound(t *testing.T) {
	types.Reset()
	cell := NewCell("T")
	// Struct pattern requiring two args, but the actual Pointer only has one
	// parameter, so the closed list's arity check fails before any cell is
	// bound.
	s := &Struct{
		Head:   types.Head{Kind: types.HPointer},
		Params: &List{Items: []Pattern{cell, NewCell("unused")}},
	}
	trail := &Trail{}
	ok := Unify(s, types.Type(types.NewPointer(types.Int(8))), trail)
	if ok {
		t.Fatal("expected failure: Pointer has 1 param, pattern wants 2")
	}
	if cell.Bound {
		t.Fatal("cell should not remain bound after a failed match without an explicit Reset")
	}
}

func TestUnifyDeterministic(t *testing.T) {
	types.Reset()
	mk := func() (*Struct, *Trail) {
		return &Struct{
			Head:   types.Head{Kind: types.HPointer},
			Params: &List{Items: []Pattern{NewCell("T")}},
		}, &Trail{}
	}
	obj := types.Type(types.NewPointer(types.Int(32)))
	s1, tr1 := mk()
	s2, tr2 := mk()
	ok1 := Unify(s1, obj, tr1)
	ok2 := Unify(s2, obj, tr2)
	if ok1 != ok2 {
		t.Fatal("identical pattern/object pairs must match deterministically")
	}
}

func TestDerefDeepReconstructsType(t *testing.T) {
	types.Reset()
	elemCell := NewCell("T")
	s := &Struct{Head: types.Head{Kind: types.HPointer}, Params: &List{Items: []Pattern{elemCell}}}
	trail := &Trail{}
	want := types.NewPointer(types.Int(32))
	if !Unify(s, types.Type(want), trail) {
		t.Fatal("unify should succeed")
	}
	got, ok := DerefDeep(s)
	if !ok {
		t.Fatal("derefDeep should succeed once every cell is bound")
	}
	if got != types.Type(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDerefDeepFailsOnUnboundCell(t *testing.T) {
	cell := NewCell("unbound")
	_, ok := DerefDeep(cell)
	if ok {
		t.Fatal("expected derefDeep to fail on an unbound cell")
	}
}

func TestEmptyListOnlyMatchesEmpty(t *testing.T) {
	empty := &List{}
	trail := &Trail{}
	if !UnifyMulti(empty, nil, trail) {
		t.Fatal("empty pattern list should match an empty sequence")
	}
	trail2 := &Trail{}
	if UnifyMulti(empty, []any{types.Int(8)}, trail2) {
		t.Fatal("empty pattern list should not match a non-empty sequence")
	}
}
