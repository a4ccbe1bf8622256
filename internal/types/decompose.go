package types

import "github.com/clay-lang/clayc/internal/ast"

// Head identifies a type (or tuple-value) constructor for pattern lifting
// (spec.md 4.6 "Lifting rules"). Two Heads compare equal with `==` since all
// fields are comparable; nominal kinds additionally carry the declaration
// pointer so e.g. two different `record`s never collide.
type Head struct {
	Kind      HeadKind
	Decl      any // *ast.RecordDecl / *ast.VariantDecl / *ast.EnumDecl / a *NewType's Name string
	IntBits   int
	IntSigned bool
	FloatBits int
	Imaginary bool
	N         int64  // Array/Vec length
	CC        string // CCodePointer calling convention
}

type HeadKind int

const (
	HBool HeadKind = iota
	HInteger
	HFloat
	HComplex
	HPointer
	HCodePointer
	HCCodePointer
	HArray
	HVec
	HTuple
	HUnion
	HRecord
	HVariant
	HStatic
	HEnum
	HNewType
	HTupleValue // a static tuple *value*, as opposed to the Tuple *type*
)

// TupleValue is implemented by the evaluator's static tuple values so
// Decompose can lift them the same way it lifts types, without types
// importing evaluator (spec.md 4.6: "Tuple values whose elements are all
// static decompose analogously").
type TupleValue interface {
	// TupleElems returns the element static objects and whether every one of
	// them is itself fully static (a run-time element makes the whole value
	// lift to failure, not a partial match — see SPEC_FULL supplemented
	// features, grounded on original_source/compiler/src/patterns.cpp).
	TupleElems() (elems []any, allStatic bool)
}

// Decompose lifts obj (a Type, or a static TupleValue) to its Head and
// ordered parameter list, for Struct pattern matching (spec.md 4.6).
func Decompose(obj any) (Head, []any, bool) {
	if tv, ok := obj.(TupleValue); ok {
		elems, allStatic := tv.TupleElems()
		if !allStatic {
			return Head{}, nil, false
		}
		return Head{Kind: HTupleValue}, elems, true
	}
	t, ok := obj.(Type)
	if !ok {
		return Head{}, nil, false
	}
	switch tt := t.(type) {
	case Bool:
		return Head{Kind: HBool}, nil, true
	case Integer:
		return Head{Kind: HInteger, IntBits: tt.Bits, IntSigned: tt.Signed}, nil, true
	case Float:
		return Head{Kind: HFloat, FloatBits: tt.Bits, Imaginary: tt.Imaginary}, nil, true
	case Complex:
		return Head{Kind: HComplex, FloatBits: tt.Bits}, nil, true
	case *Pointer:
		return Head{Kind: HPointer}, []any{tt.Elem}, true
	case *CodePointer:
		params := make([]any, 0, len(tt.Args)+len(tt.Returns))
		for _, a := range tt.Args {
			params = append(params, a)
		}
		for _, r := range tt.Returns {
			params = append(params, r)
		}
		return Head{Kind: HCodePointer}, params, true
	case *CCodePointer:
		params := make([]any, 0, len(tt.Args)+1)
		for _, a := range tt.Args {
			params = append(params, a)
		}
		params = append(params, tt.Return)
		return Head{Kind: HCCodePointer, CC: tt.CC}, params, true
	case *Array:
		return Head{Kind: HArray, N: tt.N}, []any{tt.Elem}, true
	case *Vec:
		return Head{Kind: HVec, N: tt.N}, []any{tt.Elem}, true
	case *Tuple:
		params := make([]any, len(tt.Elems))
		for i, e := range tt.Elems {
			params[i] = e
		}
		return Head{Kind: HTuple}, params, true
	case *Union:
		params := make([]any, len(tt.Members))
		for i, e := range tt.Members {
			params[i] = e
		}
		return Head{Kind: HUnion}, params, true
	case *Record:
		params := make([]any, len(tt.Params))
		for i, e := range tt.Params {
			params[i] = e
		}
		return Head{Kind: HRecord, Decl: tt.Decl}, params, true
	case *Variant:
		params := make([]any, len(tt.Params))
		for i, e := range tt.Params {
			params[i] = e
		}
		return Head{Kind: HVariant, Decl: tt.Decl}, params, true
	case *Static:
		return Head{Kind: HStatic}, []any{tt.Obj}, true
	case *Enum:
		return Head{Kind: HEnum, Decl: tt.Decl}, nil, true
	case *NewType:
		return Head{Kind: HNewType, Decl: tt.Name}, []any{tt.Under}, true
	}
	return Head{}, nil, false
}

// Construct is the inverse of Decompose for the type kinds (not tuple
// values, which the evaluator reconstructs itself): given a Head and
// concrete Type parameters, builds the canonical interned Type.
func Construct(h Head, params []Type) (Type, bool) {
	switch h.Kind {
	case HBool:
		return Bool{}, true
	case HInteger:
		return Integer{Bits: h.IntBits, Signed: h.IntSigned}, true
	case HFloat:
		return Float{Bits: h.FloatBits, Imaginary: h.Imaginary}, true
	case HComplex:
		return Complex{Bits: h.FloatBits}, true
	case HPointer:
		if len(params) != 1 {
			return nil, false
		}
		return NewPointer(params[0]), true
	case HArray:
		if len(params) != 1 {
			return nil, false
		}
		return NewArray(params[0], h.N), true
	case HVec:
		if len(params) != 1 {
			return nil, false
		}
		return NewVec(params[0], h.N), true
	case HTuple:
		return NewTuple(params), true
	case HUnion:
		return NewUnion(params), true
	case HNewType:
		if len(params) != 1 {
			return nil, false
		}
		name, ok := h.Decl.(string)
		if !ok {
			return nil, false
		}
		return NewNewType(name, params[0]), true
	case HRecord:
		decl, ok := h.Decl.(*ast.RecordDecl)
		if !ok {
			return nil, false
		}
		return NewRecord(decl, params), true
	case HVariant:
		decl, ok := h.Decl.(*ast.VariantDecl)
		if !ok {
			return nil, false
		}
		return NewVariant(decl, params), true
	case HEnum:
		decl, ok := h.Decl.(*ast.EnumDecl)
		if !ok {
			return nil, false
		}
		return NewEnum(decl), true
	}
	return nil, false
}
