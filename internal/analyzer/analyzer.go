// Package analyzer computes propagation values (spec.md 3.4, 4.8): for every
// expression, a canonical MultiPV memoized on the node; for every statement,
// a StatementAnalysis tracking whether control falls through, terminates, or
// hits a still-analyzing recursive call.
//
// Grounded on the original compiler's analyzer2.cpp (the PVPtr/PValuePtr
// memoization scheme, the ANALYSIS_* statement-result enum, and the
// "recursive" sentinel that lets a fixed point over mutually recursive
// procedures converge) and on this module's own internal/evaluator, whose
// per-node-kind switch this package mirrors one level up — types instead of
// values.
package analyzer

import (
	"fmt"

	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/compilectx"
	"github.com/clay-lang/clayc/internal/diagnostics"
	"github.com/clay-lang/clayc/internal/env"
	"github.com/clay-lang/clayc/internal/source"
	"github.com/clay-lang/clayc/internal/types"
)

// PV is one propagation value: an expression's static type and whether it
// denotes an rvalue (a temporary) or an lvalue.
type PV struct {
	Type     types.Type
	IsRValue bool
}

// MultiPV is the ordered PV sequence a fully-analyzed expression produces;
// most expressions yield exactly one, calls/indexing may yield several.
type MultiPV []PV

// StatementAnalysis classifies how a statement's control flow behaves,
// mirroring spec.md 4.8 exactly.
type StatementAnalysis int

const (
	Fallthrough StatementAnalysis = iota
	Recursive
	Terminated
)

func (s StatementAnalysis) String() string {
	switch s {
	case Fallthrough:
		return "fallthrough"
	case Recursive:
		return "recursive"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// cacheEntry is what exprBase.Cache holds once an expression has been
// analyzed at least once in some environment. Results are keyed by the env
// pointer they were computed in, since the same expression node (a lambda
// body statement, say) can be analyzed against more than one environment
// across specializations (spec.md 4.8 "Caching").
type cacheEntry struct {
	byEnv map[*env.Env]MultiPV
}

// CallResolver resolves a Call/Indexing expression to its return MultiPV,
// supplied by the wiring layer that owns invoke-table lookup (internal/invoke)
// to avoid an analyzer -> invoke -> analyzer import cycle.
type CallResolver interface {
	ResolveCall(an *Analyzer, target ast.Expression, args []ast.Expression, e *env.Env, at source.Location) (MultiPV, error)
}

// Analyzer computes and memoizes PV/MultiPV over an environment.
type Analyzer struct {
	Stack         *compilectx.Stack
	Resolve       CallResolver
	CacheDisabled bool // process-wide toggle (spec.md 4.8); guarded by Disable/restore below
}

// New creates an Analyzer sharing stack with the loader/invoke packages so a
// recursive analysis cycle anywhere in the compile context is caught as one
// diagnostic.
func New(stack *compilectx.Stack, resolve CallResolver) *Analyzer {
	return &Analyzer{Stack: stack, Resolve: resolve}
}

// Disable runs fn with caching turned off, restoring the previous setting
// afterward — the "disabler" spec.md 4.8 calls for around speculative
// compile-time evaluation windows (e.g. trying a `static` argument pattern
// that might not end up being used).
func (an *Analyzer) Disable(fn func() error) error {
	prev := an.CacheDisabled
	an.CacheDisabled = true
	defer func() { an.CacheDisabled = prev }()
	return fn()
}

func cacheOf(expr ast.Expression) *cacheEntry {
	switch x := expr.(type) {
	case *ast.BoolLit:
		return cacheField(&x.Cache)
	case *ast.IntLit:
		return cacheField(&x.Cache)
	case *ast.FloatLit:
		return cacheField(&x.Cache)
	case *ast.CharLit:
		return cacheField(&x.Cache)
	case *ast.StringLit:
		return cacheField(&x.Cache)
	case *ast.NameRef:
		return cacheField(&x.Cache)
	case *ast.Tuple:
		return cacheField(&x.Cache)
	case *ast.Paren:
		return cacheField(&x.Cache)
	case *ast.Indexing:
		return cacheField(&x.Cache)
	case *ast.Call:
		return cacheField(&x.Cache)
	case *ast.FieldRef:
		return cacheField(&x.Cache)
	case *ast.StaticIndexing:
		return cacheField(&x.Cache)
	case *ast.VariadicOp:
		return cacheField(&x.Cache)
	case *ast.And:
		return cacheField(&x.Cache)
	case *ast.Or:
		return cacheField(&x.Cache)
	case *ast.Unpack:
		return cacheField(&x.Cache)
	case *ast.StaticExpr:
		return cacheField(&x.Cache)
	case *ast.DispatchExpr:
		return cacheField(&x.Cache)
	case *ast.ForeignExpr:
		return cacheField(&x.Cache)
	case *ast.ObjectExpr:
		return cacheField(&x.Cache)
	case *ast.EvalExpr:
		return cacheField(&x.Cache)
	default:
		return nil
	}
}

func cacheField(slot *any) *cacheEntry {
	if c, ok := (*slot).(*cacheEntry); ok {
		return c
	}
	c := &cacheEntry{byEnv: map[*env.Env]MultiPV{}}
	*slot = c
	return c
}

// Analyze computes expr's MultiPV in e, consulting and updating the
// per-node cache unless CacheDisabled is set.
func (an *Analyzer) Analyze(expr ast.Expression, e *env.Env) (MultiPV, error) {
	if !an.CacheDisabled {
		if c := cacheOf(expr); c != nil {
			if pv, ok := c.byEnv[e]; ok {
				return pv, nil
			}
		}
	}
	pv, err := an.analyzeUncached(expr, e)
	if err != nil {
		return nil, err
	}
	if !an.CacheDisabled {
		if c := cacheOf(expr); c != nil {
			c.byEnv[e] = pv
		}
	}
	return pv, nil
}

// One analyzes expr to exactly one PV, the common case for operand positions.
func (an *Analyzer) One(expr ast.Expression, e *env.Env) (PV, error) {
	pv, err := an.Analyze(expr, e)
	if err != nil {
		return PV{}, err
	}
	if len(pv) != 1 {
		return PV{}, diagnostics.NewTypeError(expr.Loc(), "expected a single value, got %d", len(pv))
	}
	return pv[0], nil
}

func (an *Analyzer) analyzeUncached(expr ast.Expression, e *env.Env) (MultiPV, error) {
	switch x := expr.(type) {
	case *ast.BoolLit:
		return one(PV{Type: types.Bool{}, IsRValue: true}), nil
	case *ast.IntLit:
		return one(PV{Type: intSuffixType(x.Suffix), IsRValue: true}), nil
	case *ast.FloatLit:
		return one(PV{Type: floatSuffixType(x.Suffix), IsRValue: true}), nil
	case *ast.CharLit:
		return one(PV{Type: types.Int(32), IsRValue: true}), nil
	case *ast.StringLit:
		return one(PV{Type: types.NewPointer(types.Int(8)), IsRValue: true}), nil
	case *ast.NameRef:
		return an.analyzeNameRef(x, e)
	case *ast.Tuple:
		out := make(MultiPV, 0, len(x.Elements))
		for _, el := range x.Elements {
			pv, err := an.Analyze(el, e)
			if err != nil {
				return nil, err
			}
			out = append(out, pv...)
		}
		return out, nil
	case *ast.Paren:
		return an.Analyze(x.Inner, e)
	case *ast.And:
		return an.analyzeAndOr(x.Left, x.Right, e)
	case *ast.Or:
		return an.analyzeAndOr(x.Left, x.Right, e)
	case *ast.Unpack:
		return an.Analyze(x.Inner, e)
	case *ast.StaticExpr:
		pv, err := an.Analyze(x.Inner, e)
		if err != nil {
			return nil, err
		}
		out := make(MultiPV, len(pv))
		for i, p := range pv {
			out[i] = PV{Type: p.Type, IsRValue: true}
		}
		return out, nil
	case *ast.DispatchExpr:
		return an.Analyze(x.Inner, e)
	case *ast.ForeignExpr:
		if home, ok := x.HomeEnv.(*env.Env); ok {
			return an.Analyze(x.Inner, home)
		}
		return an.Analyze(x.Inner, e)
	case *ast.ObjectExpr:
		if t, ok := x.Object.(types.Type); ok {
			return one(PV{Type: types.NewStatic(StaticTypeWrap{T: t}), IsRValue: true}), nil
		}
		return nil, diagnostics.NewTypeError(x.Loc(), "unsupported static object")
	case *ast.Call:
		return an.analyzeCall(x, e)
	case *ast.Indexing:
		return an.analyzeIndexing(x, e)
	case *ast.FieldRef:
		return an.analyzeFieldRef(x, e)
	case *ast.StaticIndexing:
		return an.analyzeStaticIndexing(x, e)
	case *ast.Lambda:
		return an.analyzeLambda(x, e)
	case *ast.EvalExpr:
		if x.Expanded == nil {
			return nil, diagnostics.NewEvalError(x.Loc(), "eval expression not yet expanded")
		}
		return an.Analyze(x.Expanded, e)
	default:
		return nil, fmt.Errorf("analyzer: unhandled expression kind %T", x)
	}
}

func one(pv PV) MultiPV { return MultiPV{pv} }

// StaticTypeWrap lifts a types.Type to a types.StaticObject so `Static[T]` can
// name a type itself, not just a value — types.Type already has a String
// method so only StaticKey needs adding.
type StaticTypeWrap struct{ T types.Type }

func (s StaticTypeWrap) String() string    { return s.T.String() }
func (s StaticTypeWrap) StaticKey() string { return "type:" + s.T.String() }

func intSuffixType(suffix string) types.Integer {
	switch suffix {
	case "i8":
		return types.Int(8)
	case "i16":
		return types.Int(16)
	case "i64":
		return types.Int(64)
	case "u8":
		return types.UInt(8)
	case "u16":
		return types.UInt(16)
	case "u32":
		return types.UInt(32)
	case "u64":
		return types.UInt(64)
	default:
		// Unsuffixed literals are always Int32: neither the module's
		// DefaultIntegerType nor the project's default_integer_type is
		// consulted here or anywhere else.
		return types.Int(32)
	}
}

func floatSuffixType(suffix string) types.Float {
	if suffix == "f32" {
		return types.FloatT(32)
	}
	return types.FloatT(64)
}

func (an *Analyzer) analyzeNameRef(x *ast.NameRef, e *env.Env) (MultiPV, error) {
	obj, ok := e.Lookup(x.Name)
	if !ok {
		return nil, diagnostics.NewLookupError(x.Loc(), "undefined name %q", x.Name)
	}
	switch o := obj.(type) {
	case types.Type:
		return one(PV{Type: types.NewStatic(StaticTypeWrap{T: o}), IsRValue: true}), nil
	case ast.Expression:
		// GlobalAlias bodies are wired into env as ForeignExpr(Inner, HomeEnv)
		// so they analyze in their defining module's env (spec.md 4.8
		// "NameRef ... analyze it in its home env").
		return an.Analyze(o, e)
	default:
		return nil, diagnostics.NewTypeError(x.Loc(), "name %q does not resolve to a typed value", x.Name)
	}
}

func (an *Analyzer) analyzeAndOr(left, right ast.Expression, e *env.Env) (MultiPV, error) {
	lpv, err := an.One(left, e)
	if err != nil {
		return nil, err
	}
	rpv, err := an.One(right, e)
	if err != nil {
		return nil, err
	}
	t := lpv.Type
	if t == nil {
		t = rpv.Type
	}
	return one(PV{Type: t, IsRValue: lpv.IsRValue || rpv.IsRValue}), nil
}

func (an *Analyzer) analyzeCall(c *ast.Call, e *env.Env) (MultiPV, error) {
	if an.Resolve == nil {
		return nil, diagnostics.NewEvalError(c.Loc(), "no call resolver wired for overload resolution")
	}
	key := callKey(c, e)
	_, cycle, ok := an.Stack.Push(compilectx.FrameOverloadAnalysis, key, c.Loc())
	if !ok {
		return nil, &RecursiveError{Cycle: compilectx.Names(cycle)}
	}
	defer an.Stack.Pop()
	return an.Resolve.ResolveCall(an, c.Target, c.Args, e, c.Loc())
}

func (an *Analyzer) analyzeIndexing(ix *ast.Indexing, e *env.Env) (MultiPV, error) {
	if an.Resolve == nil {
		return nil, diagnostics.NewEvalError(ix.Loc(), "no call resolver wired for overload resolution")
	}
	return an.Resolve.ResolveCall(an, ix.Target, ix.Args, e, ix.Loc())
}

func (an *Analyzer) analyzeFieldRef(fr *ast.FieldRef, e *env.Env) (MultiPV, error) {
	pv, err := an.One(fr.Target, e)
	if err != nil {
		return nil, err
	}
	rec, ok := pv.Type.(*types.Record)
	if !ok {
		return nil, diagnostics.NewTypeError(fr.Loc(), "field reference on a non-record type %s", pv.Type)
	}
	for _, f := range rec.Decl.Body.Fields {
		if f.Name == fr.Field {
			return one(PV{Type: pv.Type, IsRValue: pv.IsRValue}), nil
		}
	}
	return nil, diagnostics.NewLookupError(fr.Loc(), "no field %q on %s", fr.Field, pv.Type)
}

func (an *Analyzer) analyzeStaticIndexing(si *ast.StaticIndexing, e *env.Env) (MultiPV, error) {
	pv, err := an.One(si.Target, e)
	if err != nil {
		return nil, err
	}
	tup, ok := pv.Type.(*types.Tuple)
	if !ok || si.Index < 0 || si.Index >= len(tup.Elems) {
		return nil, diagnostics.NewTypeError(si.Loc(), "static index %d out of range", si.Index)
	}
	return one(PV{Type: tup.Elems[si.Index], IsRValue: pv.IsRValue}), nil
}

// RecursiveError is the "recursive" sentinel (spec.md 4.8): analyzing a call
// on a procedure whose specialization is still being analyzed returns this
// instead of committing result types. It is returned to the caller like any
// other error: no fixed-point loop catches it or retries the analysis.
type RecursiveError struct {
	Cycle []string
}

func (r *RecursiveError) Error() string {
	return fmt.Sprintf("analyzer: recursive analysis (cycle: %v)", r.Cycle)
}

func callKey(c *ast.Call, e *env.Env) string {
	return fmt.Sprintf("%p:%s", e, c.Loc())
}
