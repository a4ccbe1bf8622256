package desugar

import "github.com/clay-lang/clayc/internal/ast"

// desugarVariadicOp rewrites a chain of prefix or infix operator tokens into
// one call to prefixOperator or infixOperator over the interleaved
// operand/symbol argument list the parser already flattened, mirroring
// lookupCallable's PREFIX_OP/INFIX_OP cases (spec.md 4.4 "Prefix, infix,
// if-expression, &, *, ! → calls to operator_* or primitive_* names"). The
// prelude binds both names as builtins (cmd/clayc/dispatch.go) that apply
// the operators strictly left to right; no precedence is applied anywhere.
//
// The original's VariadicOp carries one operator-kind enum plus a single
// interleaved expr list; this module's ast.VariadicOp instead separates
// Operands from Operators (plural, one per infix join, or one per operand
// for a unary prefix chain), so this shape is used instead to decide which
// callable applies: Operands one longer than Operators is an infix chain
// (operand, op, operand, op, operand, ...); equal lengths is a prefix chain
// (op, operand, op, operand, ...), each operator preceding the operand it
// applies to, interleaved the same way in prefixOperator's argument list.
func (r *Rewriter) desugarVariadicOp(x *ast.VariadicOp) *ast.Call {
	operands := make([]ast.Expression, len(x.Operands))
	for i, o := range x.Operands {
		operands[i] = r.RewriteExpr(o)
	}

	switch {
	case len(operands) == 1 && len(x.Operators) == 1 && hardwiredUnary(x.Operators[0]) != "":
		// &, *, ! are hardwired primitives (lookupCallable's DEREFERENCE,
		// ADDRESS_OF, NOT cases), not overloadable operator_* procedures.
		return &ast.Call{Target: nameRef(hardwiredUnary(x.Operators[0])), Args: operands}
	case len(operands) == len(x.Operators)+1:
		return &ast.Call{Target: nameRef("infixOperator"), Args: interleaveInfix(operands, x.Operators)}
	case len(operands) == len(x.Operators):
		return &ast.Call{Target: nameRef("prefixOperator"), Args: interleavePrefix(operands, x.Operators)}
	default:
		// Malformed (operand/operator count mismatch); let downstream
		// analysis report it rather than panicking here.
		return &ast.Call{Target: nameRef("infixOperator"), Args: operands}
	}
}

func interleaveInfix(operands []ast.Expression, operators []string) []ast.Expression {
	args := make([]ast.Expression, 0, len(operands)+len(operators))
	args = append(args, operands[0])
	for i, op := range operators {
		args = append(args, operatorSymbolArg(op), operands[i+1])
	}
	return args
}

func interleavePrefix(operands []ast.Expression, operators []string) []ast.Expression {
	args := make([]ast.Expression, 0, len(operands)+len(operators))
	for i, op := range operators {
		args = append(args, operatorSymbolArg(op), operands[i])
	}
	return args
}

func operatorSymbolArg(symbol string) ast.Expression {
	return &ast.StaticExpr{Inner: &ast.StringLit{Value: symbol}}
}

// hardwiredUnary returns the primitive callable name for one of the three
// unary operators lookupCallable hardwires (DEREFERENCE, ADDRESS_OF, NOT),
// or "" for any operator that instead dispatches through the general
// prefixOperator overload network (unary +, unary -, and so on).
func hardwiredUnary(op string) string {
	switch op {
	case "*":
		return "primitive_pointerDereference"
	case "&":
		return "primitive_addressOf"
	case "!":
		return "primitive_boolNot"
	default:
		return ""
	}
}
