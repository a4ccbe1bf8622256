package evaluator

import (
	"fmt"
	"math/big"

	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/diagnostics"
	"github.com/clay-lang/clayc/internal/env"
	"github.com/clay-lang/clayc/internal/source"
	"github.com/clay-lang/clayc/internal/types"
)

// CallDispatcher resolves and evaluates a call's callee against its
// arguments, supplied by the wiring layer that owns invoke-table lookup
// (internal/invoke) and overload resolution (internal/analyzer) to avoid an
// evaluator -> invoke -> analyzer -> evaluator import cycle (spec.md 4.7
// "Call dispatch in the evaluator").
type CallDispatcher interface {
	Dispatch(ev *Evaluator, callee env.Object, args []EValue, at source.Location) ([]EValue, error)
}

// Splicer turns a compile-time string into re-parsed AST, used by `eval`
// (spec.md 4.4, 4.7). Implemented by the parser/loader wiring layer.
type Splicer interface {
	SpliceExpr(text string, at source.Location) (ast.Expression, error)
	SpliceStatements(text string, at source.Location) ([]ast.Statement, error)
}

// Evaluator walks statements and expressions over compile-time values.
type Evaluator struct {
	Stack    Stack
	Dispatch CallDispatcher
	Splice   Splicer
	labels   []labelScope
}

type labelInfo struct {
	env    *env.Env
	marker Marker
	index  int
}

type labelScope struct {
	statements []ast.Statement
	table      map[string]labelInfo
}

// EvalStatement runs one statement, returning a non-nil Termination if it
// unwound via return/break/continue/goto.
func (ev *Evaluator) EvalStatement(stmt ast.Statement, e *env.Env, ctx *EvalContext) (*Termination, error) {
	switch s := stmt.(type) {
	case *ast.Block:
		return ev.evalBlock(s, e, ctx)
	case *ast.ExprStatement:
		_, err := ev.evalExprMulti(s.Value, e)
		return nil, err
	case *ast.Binding:
		return nil, ev.evalBinding(s, e)
	case *ast.Assignment:
		return nil, ev.evalAssignment(s, e)
	case *ast.InitAssignment:
		vals, err := ev.evalExprMulti(s.Value, e)
		if err != nil {
			return nil, err
		}
		if len(vals) != 1 {
			return nil, diagnostics.NewEvalError(s.Loc(), "initializer must produce exactly one value")
		}
		e.Bind(s.Name, vals[0].Value)
		return nil, nil
	case *ast.If:
		cond, err := ev.evalBool(s.Cond, e)
		if err != nil {
			return nil, err
		}
		if cond {
			return ev.EvalStatement(s.Then, env.NewChild(e), ctx)
		}
		if s.Else != nil {
			return ev.EvalStatement(s.Else, env.NewChild(e), ctx)
		}
		return nil, nil
	case *ast.While:
		for {
			cond, err := ev.evalBool(s.Cond, e)
			if err != nil {
				return nil, err
			}
			if !cond {
				return nil, nil
			}
			m := ev.Stack.Mark()
			term, err := ev.EvalStatement(s.Body, env.NewChild(e), ctx)
			ev.Stack.PopTo(m)
			if err != nil {
				return nil, err
			}
			if term != nil {
				switch term.Kind {
				case TerminateBreak:
					return nil, nil
				case TerminateContinue:
					continue
				default:
					return term, nil
				}
			}
		}
	case *ast.For:
		return ev.evalFor(s, e, ctx)
	case *ast.Break:
		return &Termination{Kind: TerminateBreak}, nil
	case *ast.Continue:
		return &Termination{Kind: TerminateContinue}, nil
	case *ast.Goto:
		return &Termination{Kind: TerminateGoto, Label: s.Label}, nil
	case *ast.Label:
		return nil, nil
	case *ast.Return:
		return ev.evalReturn(s, e, ctx)
	case *ast.Switch:
		return ev.evalSwitch(s, e, ctx)
	case *ast.Try:
		return ev.evalTry(s, e, ctx)
	case *ast.Throw:
		val, err := ev.evalOne(s.Value, e)
		if err != nil {
			return nil, err
		}
		return nil, diagnostics.NewEvalError(s.Loc(), "uncaught compile-time exception: %v", val.Value)
	case *ast.StaticFor:
		return ev.evalStaticFor(s, e, ctx)
	case *ast.StaticAssert:
		return nil, ev.evalStaticAssert(s, e)
	case *ast.EvalStatement:
		return ev.evalEvalStatement(s, e, ctx)
	case *ast.Finally:
		term, err := ev.EvalStatement(s.Body, env.NewChild(e), ctx)
		if _, cerr := ev.EvalStatement(s.Cleanup, env.NewChild(e), ctx); cerr != nil && err == nil {
			err = cerr
		}
		return term, err
	case *ast.OnError:
		term, err := ev.EvalStatement(s.Body, env.NewChild(e), ctx)
		if err != nil {
			if _, herr := ev.EvalStatement(s.Handler, env.NewChild(e), ctx); herr != nil {
				return nil, herr
			}
		}
		return term, err
	case *ast.Unreachable:
		return nil, diagnostics.NewEvalError(s.Loc(), "unreachable statement executed")
	default:
		return nil, fmt.Errorf("evaluator: unhandled statement kind %T", s)
	}
}

func (ev *Evaluator) evalBlock(b *ast.Block, e *env.Env, ctx *EvalContext) (*Termination, error) {
	child := env.NewChild(e)
	scope := labelScope{statements: b.Statements, table: map[string]labelInfo{}}
	m := ev.Stack.Mark()
	for i, stmt := range b.Statements {
		if lbl, ok := stmt.(*ast.Label); ok {
			scope.table[lbl.Name] = labelInfo{env: child, marker: ev.Stack.Mark(), index: i}
		}
	}
	ev.labels = append(ev.labels, scope)
	defer func() { ev.labels = ev.labels[:len(ev.labels)-1] }()

	i := 0
	for i < len(b.Statements) {
		term, err := ev.EvalStatement(b.Statements[i], child, ctx)
		if err != nil {
			ev.Stack.PopTo(m)
			return nil, err
		}
		if term != nil {
			if term.Kind == TerminateGoto {
				if info, ok := scope.table[term.Label]; ok {
					ev.Stack.PopTo(info.marker)
					i = info.index
					continue
				}
			}
			ev.Stack.PopTo(m)
			return term, nil
		}
		i++
	}
	ev.Stack.PopTo(m)
	return nil, nil
}

func (ev *Evaluator) evalBinding(b *ast.Binding, e *env.Env) error {
	vals, err := ev.evalExprMulti(b.Value, e)
	if err != nil {
		return err
	}
	if len(b.Names) != len(vals) {
		return diagnostics.NewEvalError(b.Loc(), "binding expects %d values, got %d", len(b.Names), len(vals))
	}
	for i, name := range b.Names {
		e.Bind(name, vals[i].Value)
	}
	return nil
}

func (ev *Evaluator) evalAssignment(a *ast.Assignment, e *env.Env) error {
	nr, ok := a.Target.(*ast.NameRef)
	if !ok {
		return diagnostics.NewEvalError(a.Loc(), "compile-time assignment target must be a name")
	}
	val, err := ev.evalOne(a.Value, e)
	if err != nil {
		return err
	}
	if !e.Update(nr.Name, val.Value) {
		return diagnostics.NewLookupError(a.Loc(), "assignment to undeclared name %q", nr.Name)
	}
	return nil
}

func (ev *Evaluator) evalReturn(r *ast.Return, e *env.Env, ctx *EvalContext) (*Termination, error) {
	vals, err := ev.evalExprMulti(&ast.Tuple{Elements: r.Values}, e)
	if err != nil {
		return nil, err
	}
	byRef := r.Kind == ast.ReturnRef
	ctx.Returns = ctx.Returns[:0]
	for _, v := range vals {
		ctx.Returns = append(ctx.Returns, EReturn{ByRef: byRef, Type: v.Type, Value: v.Value})
	}
	return &Termination{Kind: TerminateReturn}, nil
}

func (ev *Evaluator) evalFor(f *ast.For, e *env.Env, ctx *EvalContext) (*Termination, error) {
	// Compile-time `for` is rare; it is desugared ahead of time by
	// internal/desugar in the full pipeline (spec.md 4.4). This fallback
	// evaluates a For node directly when one reaches the evaluator without
	// having been desugared.
	iterVal, err := ev.evalOne(f.Iter, e)
	if err != nil {
		return nil, err
	}
	items, ok := iterVal.Value.Data.([]*ValueHolder)
	if !ok {
		return nil, diagnostics.NewEvalError(f.Loc(), "compile-time for requires a static sequence")
	}
	for _, item := range items {
		child := env.NewChild(e)
		if len(f.Vars) == 1 {
			child.Bind(f.Vars[0], item)
		}
		m := ev.Stack.Mark()
		term, err := ev.EvalStatement(f.Body, child, ctx)
		ev.Stack.PopTo(m)
		if err != nil {
			return nil, err
		}
		if term != nil {
			if term.Kind == TerminateBreak {
				return nil, nil
			}
			if term.Kind != TerminateContinue {
				return term, nil
			}
		}
	}
	return nil, nil
}

func (ev *Evaluator) evalSwitch(sw *ast.Switch, e *env.Env, ctx *EvalContext) (*Termination, error) {
	subj, err := ev.evalOne(sw.Subject, e)
	if err != nil {
		return nil, err
	}
	for _, c := range sw.Cases {
		if c.IsDefault {
			continue
		}
		pv, err := ev.evalOne(c.Pattern, e)
		if err != nil {
			return nil, err
		}
		if valuesEqual(subj.Value, pv.Value) {
			return ev.EvalStatement(c.Body, env.NewChild(e), ctx)
		}
	}
	for _, c := range sw.Cases {
		if c.IsDefault {
			return ev.EvalStatement(c.Body, env.NewChild(e), ctx)
		}
	}
	return nil, nil
}

func valuesEqual(a, b *ValueHolder) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch av := a.Data.(type) {
	case *big.Int:
		bv, ok := b.Data.(*big.Int)
		return ok && av.Cmp(bv) == 0
	case bool:
		bv, ok := b.Data.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.Data.(string)
		return ok && av == bv
	default:
		return a.Data == b.Data
	}
}

func (ev *Evaluator) evalTry(t *ast.Try, e *env.Env, ctx *EvalContext) (*Termination, error) {
	term, err := ev.EvalStatement(t.Body, env.NewChild(e), ctx)
	if err == nil {
		return term, nil
	}
	for _, c := range t.Catches {
		child := env.NewChild(e)
		child.Bind(c.ExcName, &ValueHolder{Data: err.Error()})
		return ev.EvalStatement(c.Body, child, ctx)
	}
	return nil, err
}

func (ev *Evaluator) evalStaticFor(sf *ast.StaticFor, e *env.Env, ctx *EvalContext) (*Termination, error) {
	vals, err := ev.evalExprMulti(sf.Seq, e)
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		child := env.NewChild(e)
		child.Bind(sf.Var, v.Value)
		if term, err := ev.EvalStatement(sf.Body, child, ctx); err != nil || term != nil {
			return term, err
		}
	}
	return nil, nil
}

func (ev *Evaluator) evalStaticAssert(sa *ast.StaticAssert, e *env.Env) error {
	ok, err := ev.evalBool(sa.Cond, e)
	if err != nil {
		return err
	}
	if !ok {
		return diagnostics.NewStaticAssertError(sa.Loc(), "%s", sa.Message)
	}
	return nil
}

func (ev *Evaluator) evalEvalStatement(es *ast.EvalStatement, e *env.Env, ctx *EvalContext) (*Termination, error) {
	str, err := ev.evalStaticString(es.Source, e)
	if err != nil {
		return nil, err
	}
	stmts, err := ev.Splice.SpliceStatements(str, es.Loc())
	if err != nil {
		return nil, err
	}
	es.Expanded = stmts
	for _, s := range stmts {
		if term, err := ev.EvalStatement(s, e, ctx); err != nil || term != nil {
			return term, err
		}
	}
	return nil, nil
}

func (ev *Evaluator) evalStaticString(expr ast.Expression, e *env.Env) (string, error) {
	v, err := ev.evalOne(expr, e)
	if err != nil {
		return "", err
	}
	s, ok := v.Value.Data.(string)
	if !ok {
		return "", diagnostics.NewEvalError(expr.Loc(), "expected a compile-time string")
	}
	return s, nil
}

func (ev *Evaluator) evalBool(expr ast.Expression, e *env.Env) (bool, error) {
	v, err := ev.evalOne(expr, e)
	if err != nil {
		return false, err
	}
	b, ok := v.Value.Data.(bool)
	if !ok {
		return false, diagnostics.NewEvalError(expr.Loc(), "expected a compile-time bool")
	}
	return b, nil
}

// EvalExpr evaluates expr to zero or more EValues (a Tuple or Unpack may
// expand to several), the public entry point the wiring layer uses to drive
// PatternCompiler/CallDispatcher implementations from outside this package.
func (ev *Evaluator) EvalExpr(expr ast.Expression, e *env.Env) ([]EValue, error) {
	return ev.evalExprMulti(expr, e)
}

// EvalOne evaluates expr to exactly one EValue.
func (ev *Evaluator) EvalOne(expr ast.Expression, e *env.Env) (EValue, error) {
	return ev.evalOne(expr, e)
}

// evalOne evaluates expr to exactly one EValue.
func (ev *Evaluator) evalOne(expr ast.Expression, e *env.Env) (EValue, error) {
	vals, err := ev.evalExprMulti(expr, e)
	if err != nil {
		return EValue{}, err
	}
	if len(vals) != 1 {
		return EValue{}, diagnostics.NewEvalError(expr.Loc(), "expected a single value, got %d", len(vals))
	}
	return vals[0], nil
}

// evalExprMulti evaluates expr to zero or more EValues (a Tuple or Unpack
// may expand to several).
func (ev *Evaluator) evalExprMulti(expr ast.Expression, e *env.Env) ([]EValue, error) {
	switch x := expr.(type) {
	case nil:
		return nil, nil
	case *ast.BoolLit:
		return one(EValue{Type: types.Bool{}, Value: NewBoolHolder(x.Value)}), nil
	case *ast.IntLit:
		return ev.evalIntLit(x)
	case *ast.FloatLit:
		return ev.evalFloatLit(x)
	case *ast.CharLit:
		return one(EValue{Type: types.Int(32), Value: NewIntHolder(types.Int(32), big.NewInt(int64(x.Value)))}), nil
	case *ast.StringLit:
		return one(EValue{Value: &ValueHolder{Data: x.Value}}), nil
	case *ast.NameRef:
		return ev.evalNameRef(x, e)
	case *ast.Tuple:
		out := make([]EValue, 0, len(x.Elements))
		for _, el := range x.Elements {
			vs, err := ev.evalExprMulti(el, e)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil
	case *ast.Paren:
		return ev.evalExprMulti(x.Inner, e)
	case *ast.And:
		l, err := ev.evalBool(x.Left, e)
		if err != nil {
			return nil, err
		}
		if !l {
			return one(EValue{Type: types.Bool{}, Value: NewBoolHolder(false)}), nil
		}
		r, err := ev.evalBool(x.Right, e)
		if err != nil {
			return nil, err
		}
		return one(EValue{Type: types.Bool{}, Value: NewBoolHolder(r)}), nil
	case *ast.Or:
		l, err := ev.evalBool(x.Left, e)
		if err != nil {
			return nil, err
		}
		if l {
			return one(EValue{Type: types.Bool{}, Value: NewBoolHolder(true)}), nil
		}
		r, err := ev.evalBool(x.Right, e)
		if err != nil {
			return nil, err
		}
		return one(EValue{Type: types.Bool{}, Value: NewBoolHolder(r)}), nil
	case *ast.Unpack:
		return ev.evalExprMulti(x.Inner, e)
	case *ast.StaticExpr:
		return ev.evalExprMulti(x.Inner, e)
	case *ast.ObjectExpr:
		if vh, ok := x.Object.(*ValueHolder); ok {
			return one(EValue{Type: vh.Type, Value: vh}), nil
		}
		return nil, diagnostics.NewEvalError(x.Loc(), "unsupported static object in ObjectExpr")
	case *ast.ForeignExpr:
		if home, ok := x.HomeEnv.(*env.Env); ok {
			return ev.evalExprMulti(x.Inner, home)
		}
		return ev.evalExprMulti(x.Inner, e)
	case *ast.Call:
		return ev.evalCall(x, e)
	case *ast.Indexing:
		return ev.evalIndexing(x, e)
	case *ast.FieldRef:
		return ev.evalFieldRef(x, e)
	case *ast.StaticIndexing:
		return ev.evalStaticIndexing(x, e)
	case *ast.EvalExpr:
		return ev.evalEvalExpr(x, e)
	default:
		return nil, fmt.Errorf("evaluator: unhandled expression kind %T", x)
	}
}

func one(v EValue) []EValue { return []EValue{v} }

func (ev *Evaluator) evalIntLit(x *ast.IntLit) ([]EValue, error) {
	n, ok := new(big.Int).SetString(x.Text, 10)
	if !ok {
		return nil, diagnostics.NewEvalError(x.Loc(), "malformed integer literal %q", x.Text)
	}
	t := suffixIntType(x.Suffix)
	return one(EValue{Type: t, Value: NewIntHolder(t, n)}), nil
}

func suffixIntType(suffix string) types.Integer {
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
		return types.Int(32)
	}
}

func (ev *Evaluator) evalFloatLit(x *ast.FloatLit) ([]EValue, error) {
	f, _, err := big.ParseFloat(x.Text, 10, 200, big.ToNearestEven)
	if err != nil {
		return nil, diagnostics.NewEvalError(x.Loc(), "malformed float literal %q", x.Text)
	}
	bits := 64
	if x.Suffix == "f32" {
		bits = 32
	}
	t := types.FloatT(bits)
	return one(EValue{Type: t, Value: NewFloatHolder(t, f)}), nil
}

func (ev *Evaluator) evalNameRef(x *ast.NameRef, e *env.Env) ([]EValue, error) {
	obj, ok := e.Lookup(x.Name)
	if !ok {
		return nil, diagnostics.NewLookupError(x.Loc(), "undefined name %q", x.Name)
	}
	switch o := obj.(type) {
	case *ValueHolder:
		return one(EValue{Type: o.Type, Value: o}), nil
	case types.Type:
		// The type of a type is itself (mirrors analyzer.analyzeNameRef's
		// types.Type case); typeArg elsewhere assumes a type argument's
		// Value.Data is the types.Type it names.
		return one(EValue{Type: o, Value: &ValueHolder{Type: o, Data: o}}), nil
	case env.ImportSet:
		out := make([]EValue, 0, len(o))
		for _, item := range o {
			if vh, ok := item.(*ValueHolder); ok {
				out = append(out, EValue{Type: vh.Type, Value: vh})
			}
		}
		return out, nil
	case []env.Object:
		out := make([]EValue, 0, len(o))
		for _, item := range o {
			if vh, ok := item.(*ValueHolder); ok {
				out = append(out, EValue{Type: vh.Type, Value: vh})
			}
		}
		return out, nil
	case ast.Expression:
		// Covers GlobalAlias bodies wired in as ForeignExpr (the env binding
		// the loader installs for an alias pairs its RHS with the defining
		// module's env, per spec.md 4.8 "NameRef ... if it binds an
		// expression (alias), analyze it in its home env").
		return ev.evalExprMulti(o, e)
	default:
		return nil, diagnostics.NewEvalError(x.Loc(), "name %q does not resolve to a compile-time value", x.Name)
	}
}

func (ev *Evaluator) evalCall(c *ast.Call, e *env.Env) ([]EValue, error) {
	calleeRef, ok := c.Target.(*ast.NameRef)
	if !ok {
		return nil, diagnostics.NewEvalError(c.Loc(), "compile-time call target must be a name")
	}
	callee, ok := e.Lookup(calleeRef.Name)
	if !ok {
		return nil, diagnostics.NewLookupError(c.Loc(), "undefined callable %q", calleeRef.Name)
	}
	args := make([]EValue, 0, len(c.Args))
	for _, a := range c.Args {
		vs, err := ev.evalExprMulti(a, e)
		if err != nil {
			return nil, err
		}
		args = append(args, vs...)
	}
	if prim, handled, err := evalPrimitiveCall(calleeRef.Name, args, c.Loc()); handled {
		return prim, err
	}
	if ev.Dispatch == nil {
		return nil, diagnostics.NewEvalError(c.Loc(), "no call dispatcher wired for %q", calleeRef.Name)
	}
	return ev.Dispatch.Dispatch(ev, callee, args, c.Loc())
}

// evalIndexing evaluates `target[args]` (generic instantiation: `Array[Int32,
// 4]`, `Pointer[T]`, a record/variant's own generic parameters) by handing
// the unevaluated callee and evaluated args to the same CallDispatcher that
// serves plain calls (mirrors analyzer.analyzeIndexing's delegation to the
// same CallResolver that analyzeCall uses — indexing and calling share one
// resolution/dispatch mechanism, spec.md 4.9).
func (ev *Evaluator) evalIndexing(ix *ast.Indexing, e *env.Env) ([]EValue, error) {
	var callee env.Object
	if nr, ok := ix.Target.(*ast.NameRef); ok {
		obj, ok := e.Lookup(nr.Name)
		if !ok {
			return nil, diagnostics.NewLookupError(ix.Loc(), "undefined name %q", nr.Name)
		}
		callee = obj
	} else {
		v, err := ev.evalOne(ix.Target, e)
		if err != nil {
			return nil, err
		}
		callee = v.Value
	}
	args := make([]EValue, 0, len(ix.Args))
	for _, a := range ix.Args {
		vs, err := ev.evalExprMulti(a, e)
		if err != nil {
			return nil, err
		}
		args = append(args, vs...)
	}
	if ev.Dispatch == nil {
		return nil, diagnostics.NewEvalError(ix.Loc(), "no call dispatcher wired for indexing")
	}
	return ev.Dispatch.Dispatch(ev, callee, args, ix.Loc())
}

func (ev *Evaluator) evalFieldRef(fr *ast.FieldRef, e *env.Env) ([]EValue, error) {
	v, err := ev.evalOne(fr.Target, e)
	if err != nil {
		return nil, err
	}
	fields, ok := v.Value.Data.(map[string]*ValueHolder)
	if !ok {
		return nil, diagnostics.NewEvalError(fr.Loc(), "field reference on a non-record static value")
	}
	fv, ok := fields[fr.Field]
	if !ok {
		return nil, diagnostics.NewLookupError(fr.Loc(), "no field %q", fr.Field)
	}
	return one(EValue{Type: fv.Type, Value: fv}), nil
}

func (ev *Evaluator) evalStaticIndexing(si *ast.StaticIndexing, e *env.Env) ([]EValue, error) {
	v, err := ev.evalOne(si.Target, e)
	if err != nil {
		return nil, err
	}
	items, ok := v.Value.Data.([]*ValueHolder)
	if !ok || si.Index < 0 || si.Index >= len(items) {
		return nil, diagnostics.NewEvalError(si.Loc(), "static index %d out of range", si.Index)
	}
	item := items[si.Index]
	return one(EValue{Type: item.Type, Value: item}), nil
}

func (ev *Evaluator) evalEvalExpr(x *ast.EvalExpr, e *env.Env) ([]EValue, error) {
	str, err := ev.evalStaticString(x.Source, e)
	if err != nil {
		return nil, err
	}
	expanded, err := ev.Splice.SpliceExpr(str, x.Loc())
	if err != nil {
		return nil, err
	}
	x.Expanded = expanded
	return ev.evalExprMulti(expanded, e)
}
