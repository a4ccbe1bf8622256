package evaluator

import (
	"math/big"

	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/diagnostics"
	"github.com/clay-lang/clayc/internal/source"
	"github.com/clay-lang/clayc/internal/types"
)

// evalPrimitiveCall implements the fixed `primitive_*`/reflection name set
// spec.md 4.7 and 6 call out directly (arithmetic per kind/bits/signed,
// comparisons, bit ops, numeric conversions, identifier concat/slice,
// tuple/record/variant introspection, and the reflection predicates).
// handled is false for any other callee, so evalCall falls through to
// ordinary overload dispatch.
func evalPrimitiveCall(name string, args []EValue, at source.Location) (result []EValue, handled bool, err error) {
	switch name {
	case "primitive_addP", "primitive_add":
		return intBinOp(name, args, at, func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) })
	case "primitive_subtract":
		return intBinOp(name, args, at, func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) })
	case "primitive_multiply":
		return intBinOp(name, args, at, func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) })
	case "primitive_divide":
		return intBinOpChecked(name, args, at, func(a, b *big.Int) (*big.Int, bool) {
			if b.Sign() == 0 {
				return nil, false
			}
			return new(big.Int).Quo(a, b), true
		})
	case "primitive_remainder":
		return intBinOpChecked(name, args, at, func(a, b *big.Int) (*big.Int, bool) {
			if b.Sign() == 0 {
				return nil, false
			}
			return new(big.Int).Rem(a, b), true
		})
	case "primitive_negate":
		return intUnaryOp(name, args, at, func(a *big.Int) *big.Int { return new(big.Int).Neg(a) })
	case "primitive_andB":
		return intBinOp(name, args, at, func(a, b *big.Int) *big.Int { return new(big.Int).And(a, b) })
	case "primitive_orB":
		return intBinOp(name, args, at, func(a, b *big.Int) *big.Int { return new(big.Int).Or(a, b) })
	case "primitive_xorB":
		return intBinOp(name, args, at, func(a, b *big.Int) *big.Int { return new(big.Int).Xor(a, b) })
	case "primitive_notB":
		return intUnaryOp(name, args, at, func(a *big.Int) *big.Int { return new(big.Int).Not(a) })
	case "primitive_shiftLeft":
		return intBinOp(name, args, at, func(a, b *big.Int) *big.Int { return new(big.Int).Lsh(a, uint(b.Int64())) })
	case "primitive_shiftRight":
		return intBinOp(name, args, at, func(a, b *big.Int) *big.Int { return new(big.Int).Rsh(a, uint(b.Int64())) })
	case "primitive_numericEqualsP":
		return intCompare(name, args, at, func(c int) bool { return c == 0 })
	case "primitive_numericLesserP":
		return intCompare(name, args, at, func(c int) bool { return c < 0 })
	case "primitive_numericGreaterP":
		return intCompare(name, args, at, func(c int) bool { return c > 0 })
	case "primitive_numericLesserEqualsP":
		return intCompare(name, args, at, func(c int) bool { return c <= 0 })
	case "primitive_numericGreaterEqualsP":
		return intCompare(name, args, at, func(c int) bool { return c >= 0 })
	case "primitive_pointerOffset":
		return intBinOp(name, args, at, func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) })
	case "primitive_pointerToInt", "primitive_intToPointer":
		if len(args) != 1 {
			return nil, true, diagnostics.NewEvalError(at, "%s expects one argument", name)
		}
		return one(args[0]), true, nil
	case "primitive_numericConvert":
		return numericConvert(args, at)
	case "IdentifierConcat":
		return identifierConcat(args, at)
	case "IdentifierSlice":
		return identifierSlice(args, at)
	case "IdentifierSize":
		if len(args) != 1 {
			return nil, true, diagnostics.NewEvalError(at, "IdentifierSize expects one argument")
		}
		s, ok := args[0].Value.Data.(string)
		if !ok {
			return nil, true, diagnostics.NewEvalError(at, "IdentifierSize expects an identifier")
		}
		return one(EValue{Type: types.Int(32), Value: NewIntHolder(types.Int(32), big.NewInt(int64(len(s))))}), true, nil
	case "TypeSize":
		t, err := typeArg(args, at, name)
		if err != nil {
			return nil, true, err
		}
		n, ok := types.SizeOf(t)
		if !ok {
			return nil, true, diagnostics.NewEvalError(at, "%s: type has no defined size", name)
		}
		return one(EValue{Type: types.Int(64), Value: NewIntHolder(types.Int(64), big.NewInt(n))}), true, nil
	case "TypeAlignment":
		t, err := typeArg(args, at, name)
		if err != nil {
			return nil, true, err
		}
		return one(EValue{Type: types.Int(64), Value: NewIntHolder(types.Int(64), big.NewInt(types.AlignOf(t)))}), true, nil
	case "TupleElementCount":
		t, err := typeArg(args, at, name)
		if err != nil {
			return nil, true, err
		}
		tup, ok := t.(*types.Tuple)
		if !ok {
			return nil, true, diagnostics.NewEvalError(at, "%s expects a tuple type", name)
		}
		return one(intResult(len(tup.Elems))), true, nil
	case "RecordFieldCount":
		rec, err := recordArg(args, at, name)
		if err != nil {
			return nil, true, err
		}
		return one(intResult(len(rec.Decl.Body.Fields))), true, nil
	case "RecordFieldName":
		if len(args) != 2 {
			return nil, true, diagnostics.NewEvalError(at, "%s expects (RecordType, index)", name)
		}
		rec, err := recordArg(args[:1], at, name)
		if err != nil {
			return nil, true, err
		}
		idx, ok := args[1].Value.Data.(*big.Int)
		if !ok || idx.Sign() < 0 || idx.Int64() >= int64(len(rec.Decl.Body.Fields)) {
			return nil, true, diagnostics.NewEvalError(at, "%s: field index out of range", name)
		}
		return one(EValue{Value: &ValueHolder{Data: rec.Decl.Body.Fields[idx.Int64()].Name}}), true, nil
	case "VariantMemberCount":
		t, err := typeArg(args, at, name)
		if err != nil {
			return nil, true, err
		}
		v, ok := t.(*types.Variant)
		if !ok {
			return nil, true, diagnostics.NewEvalError(at, "%s expects a variant type", name)
		}
		return one(intResult(len(v.Decl.Members))), true, nil
	case "VariantMemberIndex":
		if len(args) != 2 {
			return nil, true, diagnostics.NewEvalError(at, "%s expects (VariantType, MemberType)", name)
		}
		vt, err := typeArg(args[:1], at, name)
		if err != nil {
			return nil, true, err
		}
		variant, ok := vt.(*types.Variant)
		if !ok {
			return nil, true, diagnostics.NewEvalError(at, "%s expects a variant type", name)
		}
		mt, err := typeArg(args[1:], at, name)
		if err != nil {
			return nil, true, err
		}
		// Only non-generic members resolve here: a member's type expression
		// is matched once it has been elaborated in place to an ObjectExpr
		// wrapping its resolved types.Type, the way exprBase.Cache memoizes
		// analysis results elsewhere. Generic member substitution against
		// variant.Params is the analyzer's job (spec.md 9 Open Questions,
		// resolved order note) and happens before this primitive runs.
		for i, m := range variant.Decl.Members {
			if oe, ok := m.Type.(*ast.ObjectExpr); ok {
				if resolved, ok := oe.Object.(types.Type); ok && resolved == mt {
					return one(intResult(i)), true, nil
				}
			}
		}
		return nil, true, diagnostics.NewEvalError(at, "%s: type is not a member of the variant", name)
	case "EnumMemberCount":
		t, err := typeArg(args, at, name)
		if err != nil {
			return nil, true, err
		}
		en, ok := t.(*types.Enum)
		if !ok {
			return nil, true, diagnostics.NewEvalError(at, "%s expects an enum type", name)
		}
		return one(intResult(len(en.Decl.Members))), true, nil
	case "Type?":
		return one(boolResult(len(args) == 1)), true, nil
	case "Record?":
		return predicateResult(args, at, name, func(t types.Type) bool { _, ok := t.(*types.Record); return ok })
	case "Variant?":
		return predicateResult(args, at, name, func(t types.Type) bool { _, ok := t.(*types.Variant); return ok })
	case "Enum?":
		return predicateResult(args, at, name, func(t types.Type) bool { _, ok := t.(*types.Enum); return ok })
	case "Static?":
		return predicateResult(args, at, name, func(t types.Type) bool { _, ok := t.(*types.Static); return ok })
	default:
		return nil, false, nil
	}
}

func typeArg(args []EValue, at source.Location, name string) (types.Type, error) {
	if len(args) != 1 {
		return nil, diagnostics.NewEvalError(at, "%s expects one type argument", name)
	}
	t, ok := args[0].Value.Data.(types.Type)
	if !ok {
		return nil, diagnostics.NewEvalError(at, "%s expects a static type argument", name)
	}
	return t, nil
}

func recordArg(args []EValue, at source.Location, name string) (*types.Record, error) {
	t, err := typeArg(args, at, name)
	if err != nil {
		return nil, err
	}
	rec, ok := t.(*types.Record)
	if !ok {
		return nil, diagnostics.NewEvalError(at, "%s expects a record type", name)
	}
	return rec, nil
}

func predicateResult(args []EValue, at source.Location, name string, pred func(types.Type) bool) ([]EValue, bool, error) {
	t, err := typeArg(args, at, name)
	if err != nil {
		return nil, true, err
	}
	return one(boolResult(pred(t))), true, nil
}

func intResult(n int) EValue {
	return EValue{Type: types.Int(32), Value: NewIntHolder(types.Int(32), big.NewInt(int64(n)))}
}

func boolResult(b bool) EValue {
	return EValue{Type: types.Bool{}, Value: NewBoolHolder(b)}
}

func intArgs(name string, args []EValue, at source.Location, n int) ([]*big.Int, types.Integer, error) {
	if len(args) != n {
		return nil, types.Integer{}, diagnostics.NewEvalError(at, "%s expects %d arguments", name, n)
	}
	out := make([]*big.Int, n)
	it, ok := args[0].Type.(types.Integer)
	if !ok {
		return nil, types.Integer{}, diagnostics.NewEvalError(at, "%s expects integer operands", name)
	}
	for i, a := range args {
		v, ok := a.Value.Data.(*big.Int)
		if !ok {
			return nil, types.Integer{}, diagnostics.NewEvalError(at, "%s expects integer operands", name)
		}
		out[i] = v
	}
	return out, it, nil
}

func intBinOp(name string, args []EValue, at source.Location, op func(a, b *big.Int) *big.Int) ([]EValue, bool, error) {
	vals, it, err := intArgs(name, args, at, 2)
	if err != nil {
		return nil, true, err
	}
	return one(EValue{Type: it, Value: NewIntHolder(it, wrap(it, op(vals[0], vals[1])))}), true, nil
}

func intBinOpChecked(name string, args []EValue, at source.Location, op func(a, b *big.Int) (*big.Int, bool)) ([]EValue, bool, error) {
	vals, it, err := intArgs(name, args, at, 2)
	if err != nil {
		return nil, true, err
	}
	v, ok := op(vals[0], vals[1])
	if !ok {
		return nil, true, diagnostics.NewEvalError(at, "%s: division by zero", name)
	}
	return one(EValue{Type: it, Value: NewIntHolder(it, wrap(it, v))}), true, nil
}

func intUnaryOp(name string, args []EValue, at source.Location, op func(a *big.Int) *big.Int) ([]EValue, bool, error) {
	vals, it, err := intArgs(name, args, at, 1)
	if err != nil {
		return nil, true, err
	}
	return one(EValue{Type: it, Value: NewIntHolder(it, wrap(it, op(vals[0])))}), true, nil
}

func intCompare(name string, args []EValue, at source.Location, pred func(int) bool) ([]EValue, bool, error) {
	vals, _, err := intArgs(name, args, at, 2)
	if err != nil {
		return nil, true, err
	}
	return one(boolResult(pred(vals[0].Cmp(vals[1])))), true, nil
}

// wrap truncates a result to it's declared bit width, matching the fixed
// (kind, bits, signed) semantics spec.md 4.7 calls for rather than Go's
// arbitrary-precision big.Int default.
func wrap(it types.Integer, v *big.Int) *big.Int {
	if it.Bits <= 0 {
		return v
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(it.Bits))
	v = new(big.Int).Mod(v, mod)
	if v.Sign() < 0 {
		v.Add(v, mod)
	}
	if it.Signed {
		half := new(big.Int).Rsh(mod, 1)
		if v.Cmp(half) >= 0 {
			v.Sub(v, mod)
		}
	}
	return v
}

func numericConvert(args []EValue, at source.Location) ([]EValue, bool, error) {
	if len(args) != 2 {
		return nil, true, diagnostics.NewEvalError(at, "primitive_numericConvert expects (value, TargetType)")
	}
	target, ok := args[1].Value.Data.(types.Type)
	if !ok {
		return nil, true, diagnostics.NewEvalError(at, "primitive_numericConvert expects a static target type")
	}
	switch t := target.(type) {
	case types.Integer:
		switch src := args[0].Value.Data.(type) {
		case *big.Int:
			return one(EValue{Type: t, Value: NewIntHolder(t, wrap(t, new(big.Int).Set(src)))}), true, nil
		case *big.Float:
			i, _ := src.Int(nil)
			return one(EValue{Type: t, Value: NewIntHolder(t, wrap(t, i))}), true, nil
		}
	case types.Float:
		switch src := args[0].Value.Data.(type) {
		case *big.Int:
			f := new(big.Float).SetInt(src)
			return one(EValue{Type: t, Value: NewFloatHolder(t, f)}), true, nil
		case *big.Float:
			return one(EValue{Type: t, Value: NewFloatHolder(t, new(big.Float).Copy(src))}), true, nil
		}
	}
	return nil, true, diagnostics.NewEvalError(at, "primitive_numericConvert: unsupported conversion")
}

func identifierConcat(args []EValue, at source.Location) ([]EValue, bool, error) {
	out := ""
	for _, a := range args {
		s, ok := a.Value.Data.(string)
		if !ok {
			return nil, true, diagnostics.NewEvalError(at, "IdentifierConcat expects identifier arguments")
		}
		out += s
	}
	return one(EValue{Value: &ValueHolder{Data: out}}), true, nil
}

func identifierSlice(args []EValue, at source.Location) ([]EValue, bool, error) {
	if len(args) != 3 {
		return nil, true, diagnostics.NewEvalError(at, "IdentifierSlice expects (identifier, begin, end)")
	}
	s, ok := args[0].Value.Data.(string)
	if !ok {
		return nil, true, diagnostics.NewEvalError(at, "IdentifierSlice expects an identifier first argument")
	}
	begin, ok1 := args[1].Value.Data.(*big.Int)
	end, ok2 := args[2].Value.Data.(*big.Int)
	if !ok1 || !ok2 {
		return nil, true, diagnostics.NewEvalError(at, "IdentifierSlice expects integer bounds")
	}
	b, e := begin.Int64(), end.Int64()
	if b < 0 || e > int64(len(s)) || b > e {
		return nil, true, diagnostics.NewEvalError(at, "IdentifierSlice: bounds out of range")
	}
	return one(EValue{Value: &ValueHolder{Data: s[b:e]}}), true, nil
}
