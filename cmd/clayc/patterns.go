package main

import (
	"fmt"

	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/diagnostics"
	"github.com/clay-lang/clayc/internal/env"
	"github.com/clay-lang/clayc/internal/evaluator"
	"github.com/clay-lang/clayc/internal/invoke"
	"github.com/clay-lang/clayc/internal/pattern"
	"github.com/clay-lang/clayc/internal/source"
	"github.com/clay-lang/clayc/internal/types"
)

// patternCompiler implements invoke.PatternCompiler (spec.md 3.5, 4.6),
// grounded on the original compiler's patterns.cpp: evaluateOnePattern walks
// a type-pattern expression — a pattern variable reference, a literal type
// name, or a generic constructor application like Pointer[T] — compiling it
// to a pattern.Pattern without ever running the general call-dispatch
// machinery (pattern compilation happens before an Entry's callable/argument
// patterns exist, so it cannot itself go through invoke.MatchInvoke).
type patternCompiler struct {
	Eval *evaluator.Evaluator
}

var _ invoke.PatternCompiler = (*patternCompiler)(nil)

// CompileOne compiles expr to a single-value pattern.
func (pc *patternCompiler) CompileOne(expr ast.Expression, e *env.Env) (pattern.Pattern, error) {
	switch x := expr.(type) {
	case *ast.NameRef:
		obj, ok := e.Lookup(x.Name)
		if !ok {
			return nil, diagnostics.NewLookupError(x.Loc(), "undefined name %q in pattern", x.Name)
		}
		return pc.objToPattern(obj, x.Loc())
	case *ast.Paren:
		return pc.CompileOne(x.Inner, e)
	case *ast.StaticExpr:
		v, err := pc.Eval.EvalOne(x.Inner, e)
		if err != nil {
			return nil, err
		}
		return &pattern.Cell{Bound: true, Obj: v.Value}, nil
	case *ast.Indexing:
		return pc.compileIndexing(x, e)
	case *ast.FieldRef:
		// Post-desugar this only remains when it resolved to a dotted module
		// reference (ast.ObjectExpr); anything else was already lowered to a
		// fieldRef(...) call, which is not a valid pattern expression.
		return nil, diagnostics.NewTypeError(x.Loc(), "field reference is not a valid type pattern")
	case *ast.ObjectExpr:
		return pc.objToPattern(x.Object, x.Loc())
	default:
		// Anything else (an arithmetic expression naming a static integer
		// bound, say `N` in `Array[T, N]`'s N slot) is evaluated directly and
		// lifted the same way a StaticExpr is.
		v, err := pc.Eval.EvalOne(expr, e)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %T: %w", expr, err)
		}
		return &pattern.Cell{Bound: true, Obj: v.Value}, nil
	}
}

func (pc *patternCompiler) objToPattern(obj env.Object, at source.Location) (pattern.Pattern, error) {
	switch o := obj.(type) {
	case *pattern.Cell:
		return o, nil
	case *pattern.MultiCell:
		return nil, diagnostics.NewTypeError(at, "multi pattern variable used where a single pattern was expected")
	case *ast.RecordDecl:
		if len(o.Params) == 0 {
			return &pattern.Struct{Head: types.Head{Kind: types.HRecord, Decl: o}}, nil
		}
		return &pattern.Struct{Head: types.Head{Kind: types.HRecord, Decl: o}, Params: &pattern.MultiCell{}}, nil
	case *ast.VariantDecl:
		if len(o.Params) == 0 {
			return &pattern.Struct{Head: types.Head{Kind: types.HVariant, Decl: o}}, nil
		}
		return &pattern.Struct{Head: types.Head{Kind: types.HVariant, Decl: o}, Params: &pattern.MultiCell{}}, nil
	case builtinTypeCtor:
		return nil, diagnostics.NewTypeError(at, "type constructor %q needs type arguments", o)
	default:
		// A concrete types.Type, a ValueHolder, or any other already-resolved
		// static object matches only itself (pattern.ObjectsEqual handles the
		// types.Type/StaticObject comparison rules).
		return &pattern.Cell{Bound: true, Obj: obj}, nil
	}
}

// compileIndexing handles `Ctor[arg, arg, ...]` pattern expressions:
// Pointer[T], Array[T, N], a record/variant's own generic parameters.
func (pc *patternCompiler) compileIndexing(ix *ast.Indexing, e *env.Env) (pattern.Pattern, error) {
	nr, ok := ix.Target.(*ast.NameRef)
	if !ok {
		return nil, diagnostics.NewTypeError(ix.Loc(), "only a plain name can be indexed in a type pattern")
	}
	obj, ok := e.Lookup(nr.Name)
	if !ok {
		return nil, diagnostics.NewLookupError(ix.Loc(), "undefined name %q in pattern", nr.Name)
	}
	head, err := pc.headOf(obj, ix.Loc())
	if err != nil {
		return nil, err
	}
	params, err := pc.compileList(ix.Args, e)
	if err != nil {
		return nil, err
	}
	return &pattern.Struct{Head: head, Params: params}, nil
}

func (pc *patternCompiler) headOf(obj env.Object, at source.Location) (types.Head, error) {
	switch o := obj.(type) {
	case builtinTypeCtor:
		switch o {
		case ctorPointer:
			return types.Head{Kind: types.HPointer}, nil
		case ctorArray:
			return types.Head{Kind: types.HArray}, nil
		case ctorVec:
			return types.Head{Kind: types.HVec}, nil
		case ctorTuple:
			return types.Head{Kind: types.HTuple}, nil
		case ctorUnion:
			return types.Head{Kind: types.HUnion}, nil
		case ctorStatic:
			return types.Head{Kind: types.HStatic}, nil
		case ctorCodePointer:
			return types.Head{Kind: types.HCodePointer}, nil
		case ctorExternalCodePointer:
			return types.Head{Kind: types.HCCodePointer}, nil
		}
	case *ast.RecordDecl:
		return types.Head{Kind: types.HRecord, Decl: o}, nil
	case *ast.VariantDecl:
		return types.Head{Kind: types.HVariant, Decl: o}, nil
	}
	return types.Head{}, diagnostics.NewTypeError(at, "%v is not a type constructor", obj)
}

// CompileMulti compiles expr to a multi-value (variadic-tail) pattern: a
// bare multi pattern variable, or a comma list with a trailing `..rest`
// splice.
func (pc *patternCompiler) CompileMulti(expr ast.Expression, e *env.Env) (pattern.MultiPattern, error) {
	if nr, ok := expr.(*ast.NameRef); ok {
		obj, ok := e.Lookup(nr.Name)
		if ok {
			if mc, ok := obj.(*pattern.MultiCell); ok {
				return mc, nil
			}
		}
	}
	if tup, ok := expr.(*ast.Tuple); ok {
		return pc.compileList(tup.Elements, e)
	}
	return pc.compileList([]ast.Expression{expr}, e)
}

// compileList compiles an ordered argument/element list into a closed List,
// unless its last element is an Unpack, which becomes the List's Tail.
func (pc *patternCompiler) compileList(exprs []ast.Expression, e *env.Env) (pattern.MultiPattern, error) {
	items := make([]pattern.Pattern, 0, len(exprs))
	var tail pattern.MultiPattern
	for i, x := range exprs {
		if up, ok := x.(*ast.Unpack); ok {
			t, err := pc.CompileMulti(up.Inner, e)
			if err != nil {
				return nil, err
			}
			tail = t
			if i != len(exprs)-1 {
				return nil, diagnostics.NewTypeError(x.Loc(), "splice pattern must be last")
			}
			continue
		}
		p, err := pc.CompileOne(x, e)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return &pattern.List{Items: items, Tail: tail}, nil
}

// DerefStatic turns a pattern var's bound object back into an env.Object
// once invoke.MatchInvoke binds a static env for a matched overload's body;
// every static object this package produces (types.Type, *evaluator.
// ValueHolder, raw Go statics) is already a valid env.Object as-is.
func (pc *patternCompiler) DerefStatic(obj any) env.Object {
	return obj
}

// EvalPredicate evaluates code's boolean predicate expression in e.
func (pc *patternCompiler) EvalPredicate(expr ast.Expression, e *env.Env) (bool, error) {
	v, err := pc.Eval.EvalOne(expr, e)
	if err != nil {
		return false, err
	}
	b, ok := v.Value.Data.(bool)
	if !ok {
		return false, diagnostics.NewTypeError(expr.Loc(), "predicate did not evaluate to a bool")
	}
	return b, nil
}
