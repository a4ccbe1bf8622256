package main

import (
	"fmt"
	"math/big"

	"github.com/clay-lang/clayc/internal/analyzer"
	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/cache"
	"github.com/clay-lang/clayc/internal/diagnostics"
	"github.com/clay-lang/clayc/internal/env"
	"github.com/clay-lang/clayc/internal/evaluator"
	"github.com/clay-lang/clayc/internal/invoke"
	"github.com/clay-lang/clayc/internal/source"
	"github.com/clay-lang/clayc/internal/types"
)

// resolver implements analyzer.CallResolver, mirroring dispatcher's matching
// logic one level up: types instead of values (spec.md 4.8's own framing of
// this package's relationship to internal/evaluator). A call's return type
// needs a StaticEnv and a matched invoke.Result exactly the way running it
// would, but never executes the body — it only analyzes declared
// (or, failing that, inferred) return types in that env.
type resolver struct {
	An *analyzer.Analyzer
	PC *patternCompiler
	Ev *evaluator.Evaluator

	// Cache, when set, persists every matchInvoke outcome across runs
	// (spec.md 4.8 "Caching"), keyed by each overload's own source location
	// (stable across runs, unlike a Table's address) plus its argument types.
	// A cached non-success Kind skips re-running pattern.Unify entirely for
	// an overload already known to reject these argument types, as long as
	// SourceHash still matches what was cached; a cached success still falls
	// through to a real MatchInvoke call since the resulting Code/StaticEnv
	// cannot be persisted, only the fact that it previously resolved.
	Cache      *cache.Store
	SourceHash string
}

var _ analyzer.CallResolver = (*resolver)(nil)

func (r *resolver) ResolveCall(an *analyzer.Analyzer, target ast.Expression, args []ast.Expression, e *env.Env, at source.Location) (analyzer.MultiPV, error) {
	callee, err := r.resolveCallee(target, e)
	if err != nil {
		return nil, err
	}
	switch c := callee.(type) {
	case builtinProc:
		return r.resolveBuiltin(c, args, e, at)
	case builtinTypeCtor:
		t, err := r.resolveTypeCtor(c, args, e, at)
		if err != nil {
			return nil, err
		}
		return analyzer.MultiPV{{Type: types.NewStatic(analyzer.StaticTypeWrap{T: t}), IsRValue: true}}, nil
	case *invoke.Table:
		return r.resolveTable(c, args, e, at)
	case types.Type:
		return r.resolveTypeCall(c, args, e, at)
	case *externalBoundary:
		return nil, diagnostics.NewTypeError(at, "external symbol %q has no analyzable compile-time signature", c.Name)
	default:
		return nil, diagnostics.NewTypeError(at, "value is not callable")
	}
}

// resolveCallee mirrors the evaluator's own callee lookup for the common
// case (a plain NameRef), and otherwise analyzes target, expecting a
// Static-wrapped type (the same shape analyzeNameRef gives a types.Type
// name) for generic instantiation on a computed expression.
func (r *resolver) resolveCallee(target ast.Expression, e *env.Env) (env.Object, error) {
	if nr, ok := target.(*ast.NameRef); ok {
		obj, ok := e.Lookup(nr.Name)
		if !ok {
			return nil, diagnostics.NewLookupError(nr.Loc(), "undefined name %q", nr.Name)
		}
		return obj, nil
	}
	pv, err := r.An.One(target, e)
	if err != nil {
		return nil, err
	}
	if st, ok := pv.Type.(*types.Static); ok {
		if sw, ok := st.Obj.(analyzer.StaticTypeWrap); ok {
			return sw.T, nil
		}
	}
	return nil, diagnostics.NewTypeError(target.Loc(), "callee does not resolve to a callable")
}

func (r *resolver) argTypes(args []ast.Expression, e *env.Env) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		pv, err := r.An.One(a, e)
		if err != nil {
			return nil, err
		}
		out[i] = pv.Type
	}
	return out, nil
}

func (r *resolver) resolveTable(table *invoke.Table, args []ast.Expression, e *env.Env, at source.Location) (analyzer.MultiPV, error) {
	argTypes, err := r.argTypes(args, e)
	if err != nil {
		return nil, err
	}

	if table.Interface != nil {
		result, err := invoke.MatchInvoke(table.Interface, r.PC, table, argTypes)
		if err != nil {
			return nil, err
		}
		if result.Kind != invoke.MatchSuccess {
			return nil, diagnostics.NewMatchError(at, []string{result.String()},
				"interface violation: %s", result.String())
		}
	}

	var rejections []string
	var matchEntries []*invoke.Entry
	var matchResults []*invoke.Result
	for _, entry := range table.Entries {
		key := r.cacheKey(entry, argTypes)
		if r.Cache != nil {
			if cached, ok, _ := r.Cache.Get(key, r.SourceHash); ok && cached.Kind != "matched" {
				rejections = append(rejections, cached.Detail)
				continue
			}
		}
		result, err := invoke.MatchInvoke(entry, r.PC, table, argTypes)
		if err != nil {
			return nil, err
		}
		if r.Cache != nil {
			kind := result.String()
			if result.Kind == invoke.MatchSuccess {
				kind = "matched"
			}
			r.Cache.Put(key, r.SourceHash, cache.Result{Kind: kind, Detail: result.String()})
		}
		if result.Kind == invoke.MatchSuccess {
			matchEntries = append(matchEntries, entry)
			matchResults = append(matchResults, result)
			continue
		}
		rejections = append(rejections, result.String())
	}
	if len(matchEntries) == 0 {
		return nil, diagnostics.NewMatchError(at, rejections, "no overload matched %d argument(s)", len(args))
	}
	_, winnerResult, tied, ok := selectAmongMatches(matchEntries, matchResults)
	if !ok {
		return nil, diagnostics.NewAmbiguousMatchError(at, tied)
	}
	return r.returnPV(winnerResult, at)
}

// selectAmongMatches applies spec.md 8's overload-order property: default
// overloads only compete among themselves when no non-default entry
// matched (a default is a fallback, not a candidate for specificity
// ranking against the rest of the table); otherwise the most specific
// non-default match wins regardless of declaration order.
func selectAmongMatches(entries []*invoke.Entry, results []*invoke.Result) (*invoke.Entry, *invoke.Result, []string, bool) {
	var nonDefault, defaults []*invoke.Entry
	var nonDefaultResults, defaultResults []*invoke.Result
	for i, en := range entries {
		if en.Overload.IsDefault {
			defaults = append(defaults, en)
			defaultResults = append(defaultResults, results[i])
		} else {
			nonDefault = append(nonDefault, en)
			nonDefaultResults = append(nonDefaultResults, results[i])
		}
	}
	if len(nonDefault) > 0 {
		return invoke.MostSpecific(nonDefault, nonDefaultResults)
	}
	return invoke.MostSpecific(defaults, defaultResults)
}

func (r *resolver) cacheKey(entry *invoke.Entry, argTypes []any) string {
	return fmt.Sprintf("%s|%v", entry.Overload.Loc(), argTypes)
}

// returnPV analyzes a matched overload's declared return types in its
// StaticEnv; when none are declared (fully inferred returns), it falls back
// to analyzing the first `return` statement found in the body, which is not
// exact for a body with divergent return types across branches but keeps
// the common single-return-shape case working without a full body-wide
// type-inference pass (documented in DESIGN.md).
func (r *resolver) returnPV(result *invoke.Result, at source.Location) (analyzer.MultiPV, error) {
	code := result.Code
	if len(code.ReturnSpecs) > 0 || code.VarReturnSpec != nil {
		out := make(analyzer.MultiPV, 0, len(code.ReturnSpecs)+1)
		for _, rs := range code.ReturnSpecs {
			pv, err := typePatternPV(r.An, rs.Type, result.StaticEnv)
			if err != nil {
				return nil, err
			}
			out = append(out, pv)
		}
		if code.VarReturnSpec != nil {
			pv, err := typePatternPV(r.An, code.VarReturnSpec.Type, result.StaticEnv)
			if err != nil {
				return nil, err
			}
			out = append(out, pv)
		}
		return out, nil
	}
	if ret := firstReturn(code.Body); ret != nil {
		out := make(analyzer.MultiPV, 0, len(ret.Values))
		for _, v := range ret.Values {
			pv, err := r.An.One(v, result.StaticEnv)
			if err != nil {
				return nil, err
			}
			out = append(out, pv)
		}
		return out, nil
	}
	return analyzer.MultiPV{}, nil
}

func typePatternPV(an *analyzer.Analyzer, typeExpr ast.Expression, e *env.Env) (analyzer.PV, error) {
	pv, err := an.One(typeExpr, e)
	if err != nil {
		return analyzer.PV{}, err
	}
	if st, ok := pv.Type.(*types.Static); ok {
		if sw, ok := st.Obj.(analyzer.StaticTypeWrap); ok {
			return analyzer.PV{Type: sw.T, IsRValue: true}, nil
		}
	}
	return pv, nil
}

// firstReturn walks stmt looking for the first *ast.Return reachable
// without crossing into a nested Lambda (whose own returns belong to it,
// not the enclosing Code).
func firstReturn(stmt ast.Statement) *ast.Return {
	switch s := stmt.(type) {
	case *ast.Return:
		return s
	case *ast.Block:
		for _, inner := range s.Statements {
			if r := firstReturn(inner); r != nil {
				return r
			}
		}
	case *ast.If:
		if r := firstReturn(s.Then); r != nil {
			return r
		}
		if s.Else != nil {
			return firstReturn(s.Else)
		}
	case *ast.While:
		return firstReturn(s.Body)
	case *ast.For:
		return firstReturn(s.Body)
	case *ast.Try:
		return firstReturn(s.Body)
	case *ast.Finally:
		return firstReturn(s.Body)
	case *ast.OnError:
		return firstReturn(s.Body)
	}
	return nil
}

func (r *resolver) resolveTypeCall(t types.Type, args []ast.Expression, e *env.Env, at source.Location) (analyzer.MultiPV, error) {
	rec, ok := t.(*types.Record)
	if !ok {
		return nil, diagnostics.NewTypeError(at, "%s is not constructible with call syntax", t)
	}
	if len(args) != len(rec.Decl.Body.Fields) {
		return nil, diagnostics.NewTypeError(at, "record %s takes %d field(s), got %d", t, len(rec.Decl.Body.Fields), len(args))
	}
	for _, a := range args {
		if _, err := r.An.One(a, e); err != nil {
			return nil, err
		}
	}
	return analyzer.MultiPV{{Type: t, IsRValue: true}}, nil
}

func (r *resolver) resolveTypeCtor(ctor builtinTypeCtor, args []ast.Expression, e *env.Env, at source.Location) (types.Type, error) {
	evargs := make([]evaluator.EValue, len(args))
	for i, a := range args {
		v, err := r.Ev.EvalOne(a, e)
		if err != nil {
			return nil, err
		}
		evargs[i] = v
	}
	return constructType(ctor, evargs, at)
}

// resolveBuiltin computes MultiPV for the structural kernel names without
// running them, mirroring each one's dispatch.go behavior at the type level.
func (r *resolver) resolveBuiltin(p builtinProc, args []ast.Expression, e *env.Env, at source.Location) (analyzer.MultiPV, error) {
	switch p {
	case procFieldRef:
		targetPV, err := r.An.One(args[0], e)
		if err != nil {
			return nil, err
		}
		rec, ok := targetPV.Type.(*types.Record)
		if !ok {
			return nil, diagnostics.NewTypeError(at, "fieldRef target is not a record type")
		}
		name, err := staticStringArg(r.Ev, args[1], e)
		if err != nil {
			return nil, err
		}
		for _, f := range rec.Decl.Body.Fields {
			if f.Name == name {
				return analyzer.MultiPV{{Type: targetPV.Type, IsRValue: targetPV.IsRValue}}, nil
			}
		}
		return nil, diagnostics.NewLookupError(at, "no field %q", name)
	case procStaticIndex:
		targetPV, err := r.An.One(args[0], e)
		if err != nil {
			return nil, err
		}
		tup, ok := targetPV.Type.(*types.Tuple)
		if !ok {
			return nil, diagnostics.NewTypeError(at, "staticIndex target is not a tuple type")
		}
		n, err := staticIntArg(r.Ev, args[1], e)
		if err != nil {
			return nil, err
		}
		if n < 0 || int(n) >= len(tup.Elems) {
			return nil, diagnostics.NewTypeError(at, "static index %d out of range", n)
		}
		return analyzer.MultiPV{{Type: tup.Elems[n], IsRValue: targetPV.IsRValue}}, nil
	case procBoolNot, procCaseMatch:
		for _, a := range args {
			if _, err := r.An.One(a, e); err != nil {
				return nil, err
			}
		}
		return analyzer.MultiPV{{Type: types.Bool{}, IsRValue: true}}, nil
	case procAddressOf:
		pv, err := r.An.One(args[0], e)
		if err != nil {
			return nil, err
		}
		return analyzer.MultiPV{{Type: types.NewPointer(pv.Type), IsRValue: true}}, nil
	case procPointerDeref:
		pv, err := r.An.One(args[0], e)
		if err != nil {
			return nil, err
		}
		ptr, ok := pv.Type.(*types.Pointer)
		if !ok {
			return nil, diagnostics.NewTypeError(at, "dereferencing a non-pointer type %s", pv.Type)
		}
		return analyzer.MultiPV{{Type: ptr.Elem, IsRValue: false}}, nil
	case procIterator, procNextValue, procHasValue, procGetValue:
		// These only ever appear inside internal/desugar's own For lowering
		// over a concrete sequence type the loop body never observes as a
		// named type (spec.md 9 Open Questions: no separate Iter-result type
		// is modeled since this module has no user-visible iterator
		// protocol type of its own); a permissive untyped PV lets the
		// surrounding for-body's own uses of the loop variable drive real
		// type checking instead.
		for _, a := range args {
			if _, err := r.An.One(a, e); err != nil {
				return nil, err
			}
		}
		return analyzer.MultiPV{{Type: nil, IsRValue: true}}, nil
	case procInfixOperator, procPrefixOperator:
		var last types.Type
		for i, a := range args {
			if i%2 == 1 {
				continue // operator-symbol static string slots carry no PV of interest
			}
			pv, err := r.An.One(a, e)
			if err != nil {
				return nil, err
			}
			last = pv.Type
		}
		return analyzer.MultiPV{{Type: last, IsRValue: true}}, nil
	default:
		return nil, diagnostics.NewTypeError(at, "builtin %q is not implemented", string(p))
	}
}

func staticStringArg(ev *evaluator.Evaluator, expr ast.Expression, e *env.Env) (string, error) {
	v, err := ev.EvalOne(expr, e)
	if err != nil {
		return "", err
	}
	s, ok := v.Value.Data.(string)
	if !ok {
		return "", diagnostics.NewTypeError(expr.Loc(), "expected a static string")
	}
	return s, nil
}

func staticIntArg(ev *evaluator.Evaluator, expr ast.Expression, e *env.Env) (int64, error) {
	v, err := ev.EvalOne(expr, e)
	if err != nil {
		return 0, err
	}
	n, ok := v.Value.Data.(*big.Int)
	if !ok {
		return 0, diagnostics.NewTypeError(expr.Loc(), "expected a static integer")
	}
	return n.Int64(), nil
}
