package main

import (
	"math/big"

	"github.com/clay-lang/clayc/internal/diagnostics"
	"github.com/clay-lang/clayc/internal/env"
	"github.com/clay-lang/clayc/internal/evaluator"
	"github.com/clay-lang/clayc/internal/invoke"
	"github.com/clay-lang/clayc/internal/source"
	"github.com/clay-lang/clayc/internal/types"
)

// dispatcher implements evaluator.CallDispatcher (spec.md 4.9, 4.10):
// a call whose callee is not one of evaluator.evalPrimitiveCall's fixed
// primitive_*/reflection names reaches here. Three callee shapes are
// handled: a builtinProc/builtinTypeCtor sentinel from the prelude (spec.md
// 4.2's desugar targets, implemented in Go since no .clay kernel source
// ships with this module), a bare types.Type used as a record/variant
// constructor, and the general case — a *invoke.Table. Its interface
// overload (if any) is matched first and its failure is a hard error
// (spec.md 4.9 step 4); every ordinary entry is then tried against
// matchinvoke.cpp's own algorithm, and selectAmongMatches (resolver.go)
// picks the most specific of whatever matches rather than stopping at the
// first success (spec.md 8 "Overload order").
type dispatcher struct {
	PC *patternCompiler
}

var _ evaluator.CallDispatcher = (*dispatcher)(nil)

func (d *dispatcher) Dispatch(ev *evaluator.Evaluator, callee env.Object, args []evaluator.EValue, at source.Location) ([]evaluator.EValue, error) {
	switch c := callee.(type) {
	case builtinProc:
		return d.dispatchBuiltin(ev, c, args, at)
	case builtinTypeCtor:
		return d.dispatchTypeCtor(c, args, at)
	case *invoke.Table:
		return d.dispatchTable(ev, c, args, at)
	case types.Type:
		return d.dispatchTypeCall(ev, c, args, at)
	case *externalBoundary:
		return nil, diagnostics.NewEvalError(at, "external symbol %q has no compile-time body", c.Name)
	default:
		return nil, diagnostics.NewEvalError(at, "value of type %T is not callable", callee)
	}
}

func (d *dispatcher) dispatchTable(ev *evaluator.Evaluator, table *invoke.Table, args []evaluator.EValue, at source.Location) ([]evaluator.EValue, error) {
	argTypes := make([]any, len(args))
	for i, a := range args {
		argTypes[i] = a.Type
	}

	if table.Interface != nil {
		result, err := invoke.MatchInvoke(table.Interface, d.PC, table, argTypes)
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
		result, err := invoke.MatchInvoke(entry, d.PC, table, argTypes)
		if err != nil {
			return nil, err
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
	return runCode(ev, winnerResult, args, at)
}

// runCode binds a matched overload's formal arguments over result.StaticEnv
// and evaluates its body, mirroring the original's invokeCode: a fixed
// binding per FormalArg, then (for a variadic overload) the trailing
// arguments collected into one aggregate ValueHolder bound to the variadic
// arg's name, since the evaluator has no separate "argument pack" value
// kind of its own.
func runCode(ev *evaluator.Evaluator, result *invoke.Result, args []evaluator.EValue, at source.Location) ([]evaluator.EValue, error) {
	callEnv := env.NewChild(result.StaticEnv)
	code := result.Code
	for i, fa := range code.FormalArgs {
		callEnv.Bind(fa.Name, args[i].Value)
	}
	if code.VariadicArg != nil && code.VariadicArg.Name != "" {
		rest := args[len(code.FormalArgs):]
		holders := make([]*evaluator.ValueHolder, len(rest))
		for i, a := range rest {
			holders[i] = a.Value
		}
		callEnv.Bind(code.VariadicArg.Name, &evaluator.ValueHolder{Data: holders})
	}
	if code.Body == nil {
		return nil, diagnostics.NewEvalError(at, "overload has no compile-time body (__llvm__ only)")
	}
	ctx := &evaluator.EvalContext{}
	if _, err := ev.EvalStatement(code.Body, callEnv, ctx); err != nil {
		return nil, err
	}
	out := make([]evaluator.EValue, len(ctx.Returns))
	for i, r := range ctx.Returns {
		out[i] = evaluator.EValue{Type: r.Type, Value: r.Value}
	}
	return out, nil
}

func (d *dispatcher) dispatchTypeCtor(ctor builtinTypeCtor, args []evaluator.EValue, at source.Location) ([]evaluator.EValue, error) {
	t, err := constructType(ctor, args, at)
	if err != nil {
		return nil, err
	}
	return []evaluator.EValue{{Type: t, Value: &evaluator.ValueHolder{Type: t, Data: t}}}, nil
}

func constructType(ctor builtinTypeCtor, args []evaluator.EValue, at source.Location) (types.Type, error) {
	argType := func(i int) (types.Type, error) {
		t, ok := args[i].Value.Data.(types.Type)
		if !ok {
			return nil, diagnostics.NewTypeError(at, "argument %d to %s is not a type", i+1, ctor)
		}
		return t, nil
	}
	argInt := func(i int) (int64, error) {
		n, ok := args[i].Value.Data.(*big.Int)
		if !ok {
			return 0, diagnostics.NewTypeError(at, "argument %d to %s is not a static integer", i+1, ctor)
		}
		return n.Int64(), nil
	}
	switch ctor {
	case ctorPointer:
		elem, err := argType(0)
		if err != nil {
			return nil, err
		}
		return types.NewPointer(elem), nil
	case ctorArray:
		elem, err := argType(0)
		if err != nil {
			return nil, err
		}
		n, err := argInt(1)
		if err != nil {
			return nil, err
		}
		return types.NewArray(elem, n), nil
	case ctorVec:
		elem, err := argType(0)
		if err != nil {
			return nil, err
		}
		n, err := argInt(1)
		if err != nil {
			return nil, err
		}
		return types.NewVec(elem, n), nil
	case ctorTuple:
		elems := make([]types.Type, len(args))
		for i := range args {
			t, err := argType(i)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return types.NewTuple(elems), nil
	case ctorUnion:
		members := make([]types.Type, len(args))
		for i := range args {
			t, err := argType(i)
			if err != nil {
				return nil, err
			}
			members[i] = t
		}
		return types.NewUnion(members), nil
	case ctorStatic:
		return nil, diagnostics.NewTypeError(at, "Static[x] takes a static object, not a type argument list")
	default:
		return nil, diagnostics.NewTypeError(at, "constructor %s is not implemented without the C-ABI classifier collaborator", ctor)
	}
}

// dispatchTypeCall handles calling a record/variant type directly as its own
// constructor (`Point(1, 2)`), first honoring any overload attached via
// types.AttachOverload (spec.md 3.3 "type-attached overloads"), then
// falling back to positional field construction.
func (d *dispatcher) dispatchTypeCall(ev *evaluator.Evaluator, t types.Type, args []evaluator.EValue, at source.Location) ([]evaluator.EValue, error) {
	for _, ov := range types.Overloads(t) {
		// types.AttachOverload has no HomeEnv of its own; approximate with a
		// fresh empty env rooted at nothing
		// beyond the overload's own pattern vars, sufficient for constructor
		// overloads that only reference their own formal arguments.
		table := &invoke.Table{}
		home := env.New(&env.ModuleScope{Globals: map[string]env.Object{}})
		entry := table.Add(ov, home)
		argTypes := make([]any, len(args))
		for i, a := range args {
			argTypes[i] = a.Type
		}
		// The overload's Target names the type itself (it was attached via
		// types.AttachOverload(t, ov)), so t — not the throwaway table — is
		// the callable identity matchInvoke's callable pattern must unify
		// against.
		result, err := invoke.MatchInvoke(entry, d.PC, t, argTypes)
		if err != nil {
			return nil, err
		}
		if result.Kind == invoke.MatchSuccess {
			return runCode(ev, result, args, at)
		}
	}
	switch rt := t.(type) {
	case *types.Record:
		if len(args) != len(rt.Decl.Body.Fields) {
			return nil, diagnostics.NewTypeError(at, "record %s takes %d field(s), got %d", t, len(rt.Decl.Body.Fields), len(args))
		}
		data := make(map[string]*evaluator.ValueHolder, len(args))
		for i, f := range rt.Decl.Body.Fields {
			data[f.Name] = args[i].Value
		}
		return []evaluator.EValue{{Type: t, Value: &evaluator.ValueHolder{Type: t, Data: data}}}, nil
	default:
		return nil, diagnostics.NewEvalError(at, "%s is not constructible with call syntax", t)
	}
}

func (d *dispatcher) dispatchBuiltin(ev *evaluator.Evaluator, p builtinProc, args []evaluator.EValue, at source.Location) ([]evaluator.EValue, error) {
	switch p {
	case procFieldRef:
		return dispatchFieldRef(args, at)
	case procStaticIndex:
		return dispatchStaticIndex(args, at)
	case procBoolNot:
		b, err := boolArg(args, 0, at)
		if err != nil {
			return nil, err
		}
		return oneBool(!b), nil
	case procAddressOf:
		box := &evaluator.ValueHolder{Data: args[0].Value}
		return []evaluator.EValue{{Type: types.NewPointer(args[0].Type), Value: box}}, nil
	case procPointerDeref:
		inner, ok := args[0].Value.Data.(*evaluator.ValueHolder)
		if !ok {
			return nil, diagnostics.NewEvalError(at, "cannot dereference a non-static pointer at compile time")
		}
		return []evaluator.EValue{{Type: inner.Type, Value: inner}}, nil
	case procIterator:
		return []evaluator.EValue{{Value: &evaluator.ValueHolder{Data: &iterState{seq: args[0].Value}}}}, nil
	case procNextValue:
		it, ok := args[0].Value.Data.(*iterState)
		if !ok {
			return nil, diagnostics.NewEvalError(at, "nextValue called on a non-iterator")
		}
		return []evaluator.EValue{{Value: &evaluator.ValueHolder{Data: it.next()}}}, nil
	case procHasValue:
		mb, ok := args[0].Value.Data.(*maybeBox)
		if !ok {
			return nil, diagnostics.NewEvalError(at, "hasValue? called on a non-iteration-step value")
		}
		return oneBool(mb.has), nil
	case procGetValue:
		mb, ok := args[0].Value.Data.(*maybeBox)
		if !ok || !mb.has {
			return nil, diagnostics.NewEvalError(at, "getValue called on an exhausted iteration step")
		}
		return []evaluator.EValue{{Type: mb.val.Type, Value: mb.val}}, nil
	case procCaseMatch:
		return dispatchCaseMatch(args, at)
	case procInfixOperator:
		return dispatchInfixOperator(args, at)
	case procPrefixOperator:
		return dispatchPrefixOperator(args, at)
	default:
		return nil, diagnostics.NewEvalError(at, "builtin %q is not implemented", string(p))
	}
}

func dispatchFieldRef(args []evaluator.EValue, at source.Location) ([]evaluator.EValue, error) {
	name, ok := args[1].Value.Data.(string)
	if !ok {
		return nil, diagnostics.NewTypeError(at, "fieldRef's field name is not a static string")
	}
	data, ok := args[0].Value.Data.(map[string]*evaluator.ValueHolder)
	if !ok {
		return nil, diagnostics.NewTypeError(at, "fieldRef target is not a record value")
	}
	v, ok := data[name]
	if !ok {
		return nil, diagnostics.NewLookupError(at, "no field %q", name)
	}
	return []evaluator.EValue{{Type: v.Type, Value: v}}, nil
}

func dispatchStaticIndex(args []evaluator.EValue, at source.Location) ([]evaluator.EValue, error) {
	n, ok := args[1].Value.Data.(*big.Int)
	if !ok {
		return nil, diagnostics.NewTypeError(at, "staticIndex's index is not a static integer")
	}
	idx := int(n.Int64())
	elems, ok := args[0].Value.Data.([]*evaluator.ValueHolder)
	if !ok || idx < 0 || idx >= len(elems) {
		return nil, diagnostics.NewTypeError(at, "static index %d out of range", idx)
	}
	v := elems[idx]
	return []evaluator.EValue{{Type: v.Type, Value: v}}, nil
}

// iterState/maybeBox are compile-time-only bookkeeping values used solely to
// thread internal/desugar's for-loop lowering (iterator/nextValue/hasValue?/
// getValue) through the evaluator; they never leak into a value a program
// can observe any other way, so they carry no types.Type of their own.
type iterState struct {
	seq *evaluator.ValueHolder
	pos int
}

type maybeBox struct {
	has bool
	val *evaluator.ValueHolder
}

func (it *iterState) next() *maybeBox {
	elems, ok := it.seq.Data.([]*evaluator.ValueHolder)
	if !ok || it.pos >= len(elems) {
		return &maybeBox{has: false}
	}
	v := elems[it.pos]
	it.pos++
	return &maybeBox{has: true, val: v}
}

// dispatchCaseMatch implements `case?(subject, memberType)` (spec.md 4.2
// switch-desugaring target). Binding pattern variables from a case's own
// pattern (`case (Some(x))`) needs the full unification machinery run
// before its arguments are evaluated as ordinary expressions, which this
// evaluation-after-the-fact call shape cannot do; only the common "does the
// subject's runtime type match this member" form is implemented.
func dispatchCaseMatch(args []evaluator.EValue, at source.Location) ([]evaluator.EValue, error) {
	want, ok := args[1].Value.Data.(types.Type)
	if !ok {
		return nil, diagnostics.NewTypeError(at, "case pattern is not a type tag")
	}
	return oneBool(args[0].Type == want), nil
}

func boolArg(args []evaluator.EValue, i int, at source.Location) (bool, error) {
	b, ok := args[i].Value.Data.(bool)
	if !ok {
		return false, diagnostics.NewTypeError(at, "expected a bool argument")
	}
	return b, nil
}

func oneBool(b bool) []evaluator.EValue {
	return []evaluator.EValue{{Type: types.Bool{}, Value: evaluator.NewBoolHolder(b)}}
}

// dispatchInfixOperator implements the flattened `a op b op c ...` chain
// internal/desugar/variadicop.go lowers a VariadicOp into: args alternate
// value, operator-symbol-string, value, .... No operator precedence is
// resolved here (spec.md 4.2 says precedence is resolved by a real
// operator_+/operator_* overload network, supplied by kernel source this
// module doesn't ship); each step folds left-to-right instead, a documented
// simplification.
func dispatchInfixOperator(args []evaluator.EValue, at source.Location) ([]evaluator.EValue, error) {
	if len(args) == 0 {
		return nil, diagnostics.NewTypeError(at, "infixOperator called with no operands")
	}
	acc := args[0]
	for i := 1; i+1 < len(args); i += 2 {
		sym, ok := args[i].Value.Data.(string)
		if !ok {
			return nil, diagnostics.NewTypeError(at, "infixOperator's operator slot is not a static string")
		}
		res, err := applyBinaryOp(sym, acc, args[i+1], at)
		if err != nil {
			return nil, err
		}
		acc = res
	}
	return []evaluator.EValue{acc}, nil
}

// dispatchPrefixOperator implements a chain of unary operators applied
// right-to-left over one trailing operand: op, op, ..., value.
func dispatchPrefixOperator(args []evaluator.EValue, at source.Location) ([]evaluator.EValue, error) {
	if len(args) == 0 {
		return nil, diagnostics.NewTypeError(at, "prefixOperator called with no operands")
	}
	acc := args[len(args)-1]
	for i := len(args) - 2; i >= 0; i-- {
		sym, ok := args[i].Value.Data.(string)
		if !ok {
			return nil, diagnostics.NewTypeError(at, "prefixOperator's operator slot is not a static string")
		}
		res, err := applyUnaryOp(sym, acc, at)
		if err != nil {
			return nil, err
		}
		acc = res
	}
	return []evaluator.EValue{acc}, nil
}

func applyUnaryOp(sym string, x evaluator.EValue, at source.Location) (evaluator.EValue, error) {
	switch sym {
	case "-":
		switch n := x.Value.Data.(type) {
		case *big.Int:
			return evaluator.EValue{Type: x.Type, Value: evaluator.NewIntHolder(x.Type.(types.Integer), new(big.Int).Neg(n))}, nil
		case *big.Float:
			return evaluator.EValue{Type: x.Type, Value: evaluator.NewFloatHolder(x.Type.(types.Float), new(big.Float).Neg(n))}, nil
		}
	case "+":
		return x, nil
	}
	return evaluator.EValue{}, diagnostics.NewTypeError(at, "unsupported prefix operator %q", sym)
}

func applyBinaryOp(sym string, l, r evaluator.EValue, at source.Location) (evaluator.EValue, error) {
	li, lok := l.Value.Data.(*big.Int)
	ri, rok := r.Value.Data.(*big.Int)
	if lok && rok {
		switch sym {
		case "+":
			return intResult(l.Type, new(big.Int).Add(li, ri)), nil
		case "-":
			return intResult(l.Type, new(big.Int).Sub(li, ri)), nil
		case "*":
			return intResult(l.Type, new(big.Int).Mul(li, ri)), nil
		case "/":
			return intResult(l.Type, new(big.Int).Quo(li, ri)), nil
		case "%":
			return intResult(l.Type, new(big.Int).Rem(li, ri)), nil
		case "==":
			return boolResult(li.Cmp(ri) == 0), nil
		case "!=":
			return boolResult(li.Cmp(ri) != 0), nil
		case "<":
			return boolResult(li.Cmp(ri) < 0), nil
		case "<=":
			return boolResult(li.Cmp(ri) <= 0), nil
		case ">":
			return boolResult(li.Cmp(ri) > 0), nil
		case ">=":
			return boolResult(li.Cmp(ri) >= 0), nil
		}
	}
	lf, lfok := l.Value.Data.(*big.Float)
	rf, rfok := r.Value.Data.(*big.Float)
	if lfok && rfok {
		switch sym {
		case "+":
			return floatResult(l.Type, new(big.Float).Add(lf, rf)), nil
		case "-":
			return floatResult(l.Type, new(big.Float).Sub(lf, rf)), nil
		case "*":
			return floatResult(l.Type, new(big.Float).Mul(lf, rf)), nil
		case "/":
			return floatResult(l.Type, new(big.Float).Quo(lf, rf)), nil
		case "==":
			return boolResult(lf.Cmp(rf) == 0), nil
		case "<":
			return boolResult(lf.Cmp(rf) < 0), nil
		case "<=":
			return boolResult(lf.Cmp(rf) <= 0), nil
		case ">":
			return boolResult(lf.Cmp(rf) > 0), nil
		case ">=":
			return boolResult(lf.Cmp(rf) >= 0), nil
		}
	}
	lb, lbok := l.Value.Data.(bool)
	rb, rbok := r.Value.Data.(bool)
	if lbok && rbok {
		switch sym {
		case "&&":
			return boolResult(lb && rb), nil
		case "||":
			return boolResult(lb || rb), nil
		case "==":
			return boolResult(lb == rb), nil
		case "!=":
			return boolResult(lb != rb), nil
		}
	}
	return evaluator.EValue{}, diagnostics.NewTypeError(at, "unsupported infix operator %q for operand kinds", sym)
}

func intResult(t types.Type, v *big.Int) evaluator.EValue {
	it, _ := t.(types.Integer)
	return evaluator.EValue{Type: t, Value: evaluator.NewIntHolder(it, v)}
}

func floatResult(t types.Type, v *big.Float) evaluator.EValue {
	ft, _ := t.(types.Float)
	return evaluator.EValue{Type: t, Value: evaluator.NewFloatHolder(ft, v)}
}

func boolResult(b bool) evaluator.EValue {
	return evaluator.EValue{Type: types.Bool{}, Value: evaluator.NewBoolHolder(b)}
}
