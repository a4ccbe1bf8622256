// Package clone implements structural deep copy over internal/ast, used
// whenever overload specialization installs a fresh copy of an overload's
// Code into an invoke-table entry so that per-call analysis state never
// leaks between instantiations (spec.md 4.3).
//
// Grounded directly on the original compiler's clone.cpp: one function per
// node kind, foreign expressions copied by reference rather than
// structurally, every location field carried over verbatim by copying the
// embedded base struct wholesale instead of touching it field-by-field.
package clone

import "github.com/clay-lang/clayc/internal/ast"

// Code deep-copies a procedure/overload body.
func Code(x ast.Code) ast.Code {
	return ast.Code{
		PatternVars:      append([]string(nil), x.PatternVars...),
		MultiPatternVars: append([]string(nil), x.MultiPatternVars...),
		Predicate:        Expr(x.Predicate),
		FormalArgs:       formalArgs(x.FormalArgs),
		VariadicArg:      formalArg(x.VariadicArg),
		ReturnSpecs:      returnSpecs(x.ReturnSpecs),
		VarReturnSpec:    returnSpec(x.VarReturnSpec),
		Body:             Stmt(x.Body),
		LLVMBody:         x.LLVMBody,
	}
}

func formalArg(a *ast.FormalArg) *ast.FormalArg {
	if a == nil {
		return nil
	}
	c := *a
	c.Type = Expr(a.Type)
	c.AsType = Expr(a.AsType)
	return &c
}

func formalArgs(xs []ast.FormalArg) []ast.FormalArg {
	if xs == nil {
		return nil
	}
	out := make([]ast.FormalArg, len(xs))
	for i, a := range xs {
		out[i] = a
		out[i].Type = Expr(a.Type)
		out[i].AsType = Expr(a.AsType)
	}
	return out
}

func returnSpec(r *ast.ReturnSpec) *ast.ReturnSpec {
	if r == nil {
		return nil
	}
	c := *r
	c.Type = Expr(r.Type)
	return &c
}

func returnSpecs(xs []ast.ReturnSpec) []ast.ReturnSpec {
	if xs == nil {
		return nil
	}
	out := make([]ast.ReturnSpec, len(xs))
	for i, r := range xs {
		out[i] = r
		out[i].Type = Expr(r.Type)
	}
	return out
}

func exprList(xs []ast.Expression) []ast.Expression {
	if xs == nil {
		return nil
	}
	out := make([]ast.Expression, len(xs))
	for i, e := range xs {
		out[i] = Expr(e)
	}
	return out
}

func stmtList(xs []ast.Statement) []ast.Statement {
	if xs == nil {
		return nil
	}
	out := make([]ast.Statement, len(xs))
	for i, s := range xs {
		out[i] = Stmt(s)
	}
	return out
}

// Expr deep-copies an expression node, preserving its location and analyzer
// cache slot (copied wholesale via struct-value copy, then cleared — a
// clone is a fresh instantiation site, so any cached propagation value from
// the overload template must not leak into the specialized copy).
func Expr(x ast.Expression) ast.Expression {
	if x == nil {
		return nil
	}
	switch y := x.(type) {
	case *ast.BoolLit:
		c := *y
		c.Cache = nil
		return &c
	case *ast.IntLit:
		c := *y
		c.Cache = nil
		return &c
	case *ast.FloatLit:
		c := *y
		c.Cache = nil
		return &c
	case *ast.CharLit:
		c := *y
		c.Cache = nil
		return &c
	case *ast.StringLit:
		c := *y
		c.Cache = nil
		return &c
	case *ast.NameRef:
		c := *y
		c.Cache = nil
		return &c
	case *ast.Tuple:
		c := *y
		c.Cache = nil
		c.Elements = exprList(y.Elements)
		return &c
	case *ast.Paren:
		c := *y
		c.Cache = nil
		c.Inner = Expr(y.Inner)
		return &c
	case *ast.Indexing:
		c := *y
		c.Cache = nil
		c.Target = Expr(y.Target)
		c.Args = exprList(y.Args)
		return &c
	case *ast.Call:
		c := *y
		c.Cache = nil
		c.Target = Expr(y.Target)
		c.Args = exprList(y.Args)
		return &c
	case *ast.FieldRef:
		c := *y
		c.Cache = nil
		c.Target = Expr(y.Target)
		return &c
	case *ast.StaticIndexing:
		c := *y
		c.Cache = nil
		c.Target = Expr(y.Target)
		return &c
	case *ast.VariadicOp:
		c := *y
		c.Cache = nil
		c.Operands = exprList(y.Operands)
		c.Operators = append([]string(nil), y.Operators...)
		return &c
	case *ast.And:
		c := *y
		c.Cache = nil
		c.Left, c.Right = Expr(y.Left), Expr(y.Right)
		return &c
	case *ast.Or:
		c := *y
		c.Cache = nil
		c.Left, c.Right = Expr(y.Left), Expr(y.Right)
		return &c
	case *ast.Lambda:
		c := *y
		c.Cache = nil
		c.Args = Code(y.Args)
		c.Body = Stmt(y.Body)
		return &c
	case *ast.Unpack:
		c := *y
		c.Cache = nil
		c.Inner = Expr(y.Inner)
		return &c
	case *ast.StaticExpr:
		c := *y
		c.Cache = nil
		c.Inner = Expr(y.Inner)
		return &c
	case *ast.DispatchExpr:
		c := *y
		c.Cache = nil
		c.Inner = Expr(y.Inner)
		return &c
	case *ast.ForeignExpr:
		// A ForeignExpr already carries a captured environment snapshot; the
		// original clones by reference here rather than structurally.
		return y
	case *ast.ObjectExpr:
		c := *y
		c.Cache = nil
		return &c
	case *ast.EvalExpr:
		c := *y
		c.Cache = nil
		c.Source = Expr(y.Source)
		c.Expanded = Expr(y.Expanded)
		return &c
	default:
		panic("clone: unhandled expression kind")
	}
}

func caseBlocks(xs []ast.CaseBlock) []ast.CaseBlock {
	if xs == nil {
		return nil
	}
	out := make([]ast.CaseBlock, len(xs))
	for i, cb := range xs {
		out[i] = ast.CaseBlock{
			Pattern:   Expr(cb.Pattern),
			IsDefault: cb.IsDefault,
			Body:      Stmt(cb.Body),
		}
	}
	return out
}

func catchClauses(xs []ast.CatchClause) []ast.CatchClause {
	if xs == nil {
		return nil
	}
	out := make([]ast.CatchClause, len(xs))
	for i, cc := range xs {
		out[i] = ast.CatchClause{
			ExcName: cc.ExcName,
			ExcType: Expr(cc.ExcType),
			Body:    Stmt(cc.Body),
		}
	}
	return out
}

// Stmt deep-copies a statement node, preserving its location.
func Stmt(x ast.Statement) ast.Statement {
	if x == nil {
		return nil
	}
	switch y := x.(type) {
	case *ast.Block:
		c := *y
		c.Statements = stmtList(y.Statements)
		return &c
	case *ast.Label:
		c := *y
		return &c
	case *ast.Binding:
		c := *y
		c.Names = append([]string(nil), y.Names...)
		c.Pattern = Expr(y.Pattern)
		c.Value = Expr(y.Value)
		return &c
	case *ast.Assignment:
		c := *y
		c.Target = Expr(y.Target)
		c.Value = Expr(y.Value)
		return &c
	case *ast.InitAssignment:
		c := *y
		c.Value = Expr(y.Value)
		return &c
	case *ast.VariadicAssignment:
		c := *y
		c.Targets = exprList(y.Targets)
		c.Value = Expr(y.Value)
		return &c
	case *ast.Goto:
		c := *y
		return &c
	case *ast.Switch:
		c := *y
		c.Subject = Expr(y.Subject)
		c.Cases = caseBlocks(y.Cases)
		return &c
	case *ast.Return:
		c := *y
		c.Values = exprList(y.Values)
		return &c
	case *ast.If:
		c := *y
		c.Cond = Expr(y.Cond)
		c.Then = Stmt(y.Then)
		c.Else = Stmt(y.Else)
		return &c
	case *ast.ExprStatement:
		c := *y
		c.Value = Expr(y.Value)
		return &c
	case *ast.While:
		c := *y
		c.Cond = Expr(y.Cond)
		c.Body = Stmt(y.Body)
		return &c
	case *ast.Break:
		c := *y
		return &c
	case *ast.Continue:
		c := *y
		return &c
	case *ast.For:
		c := *y
		c.Vars = append([]string(nil), y.Vars...)
		c.Iter = Expr(y.Iter)
		c.Body = Stmt(y.Body)
		return &c
	case *ast.Try:
		c := *y
		c.Body = Stmt(y.Body)
		c.Catches = catchClauses(y.Catches)
		return &c
	case *ast.Throw:
		c := *y
		c.Value = Expr(y.Value)
		return &c
	case *ast.StaticFor:
		c := *y
		c.Seq = Expr(y.Seq)
		c.Body = Stmt(y.Body)
		return &c
	case *ast.Finally:
		c := *y
		c.Body = Stmt(y.Body)
		c.Cleanup = Stmt(y.Cleanup)
		return &c
	case *ast.OnError:
		c := *y
		c.Body = Stmt(y.Body)
		c.Handler = Stmt(y.Handler)
		return &c
	case *ast.Unreachable:
		c := *y
		return &c
	case *ast.EvalStatement:
		c := *y
		c.Source = Expr(y.Source)
		c.Expanded = stmtList(y.Expanded)
		return &c
	case *ast.StaticAssert:
		c := *y
		c.Cond = Expr(y.Cond)
		return &c
	default:
		panic("clone: unhandled statement kind")
	}
}
