package pattern

import "github.com/clay-lang/clayc/internal/types"

// DerefDeep walks a bound cell graph and reconstructs a concrete object,
// returning ok=false if any referenced cell remains unbound (spec.md 4.6).
func DerefDeep(p Pattern) (any, bool) {
	switch x := p.(type) {
	case *Cell:
		if !x.Bound {
			return nil, false
		}
		if inner, ok := x.Obj.(Pattern); ok {
			return DerefDeep(inner)
		}
		return x.Obj, true
	case *Struct:
		params, ok := DerefDeepMulti(x.Params)
		if !ok {
			return nil, false
		}
		return computeStruct(x.Head, params)
	}
	return nil, false
}

// DerefDeepMulti is DerefDeep's counterpart for MultiPattern.
func DerefDeepMulti(mp MultiPattern) ([]any, bool) {
	switch x := mp.(type) {
	case *MultiCell:
		if !x.Bound {
			return nil, false
		}
		return x.Data, true
	case *List:
		out := make([]any, 0, len(x.Items))
		for _, item := range x.Items {
			v, ok := DerefDeep(item)
			if !ok {
				return nil, false
			}
			out = append(out, v)
		}
		if x.Tail == nil {
			return out, true
		}
		rest, ok := DerefDeepMulti(x.Tail)
		if !ok {
			return nil, false
		}
		return append(out, rest...), true
	}
	return nil, false
}

// computeStruct rebuilds the concrete object a Struct pattern denotes: a
// Type if every param is itself a Type (the common case — patterns over
// type terms), or a raw tuple-of-statics otherwise (spec.md 4.6
// "computeStruct").
func computeStruct(head types.Head, params []any) (any, bool) {
	allTypes := true
	typeParams := make([]types.Type, len(params))
	for i, p := range params {
		t, ok := p.(types.Type)
		if !ok {
			allTypes = false
			break
		}
		typeParams[i] = t
	}
	if allTypes {
		if t, ok := types.Construct(head, typeParams); ok {
			return t, true
		}
	}
	return params, true
}
