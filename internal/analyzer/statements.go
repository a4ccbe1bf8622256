package analyzer

import (
	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/diagnostics"
	"github.com/clay-lang/clayc/internal/env"
	"github.com/clay-lang/clayc/internal/types"
)

// ReturnInfo records one return statement's checked shape, accumulated on
// StmtContext as a body is analyzed (spec.md 4.8). The first Return seen in
// a body fixes the recorded arity and types; analyzeReturn checks every
// later Return against it for arity only, and their types are not compared.
type ReturnInfo struct {
	ByRef bool
	Type  types.Type
}

// StmtContext carries the in-progress return-type accumulation for one
// procedure/lambda body analysis.
type StmtContext struct {
	Returns []ReturnInfo
	fixed   bool
}

// AnalyzeStatement computes stmt's StatementAnalysis, checking and
// accumulating return shapes into ctx along the way (spec.md 4.8).
func (an *Analyzer) AnalyzeStatement(stmt ast.Statement, e *env.Env, ctx *StmtContext) (StatementAnalysis, error) {
	switch s := stmt.(type) {
	case nil:
		return Fallthrough, nil
	case *ast.Block:
		return an.analyzeBlock(s, e, ctx)
	case *ast.ExprStatement:
		if _, err := an.Analyze(s.Value, e); err != nil {
			return Fallthrough, err
		}
		return Fallthrough, nil
	case *ast.Binding:
		return Fallthrough, an.analyzeBinding(s, e)
	case *ast.Assignment:
		if _, err := an.One(s.Target, e); err != nil {
			return Fallthrough, err
		}
		if _, err := an.One(s.Value, e); err != nil {
			return Fallthrough, err
		}
		return Fallthrough, nil
	case *ast.InitAssignment:
		pv, err := an.Analyze(s.Value, e)
		if err != nil {
			return Fallthrough, err
		}
		if len(pv) != 1 {
			return Fallthrough, diagnostics.NewTypeError(s.Loc(), "initializer must produce exactly one value")
		}
		e.Bind(s.Name, pv[0].Type)
		return Fallthrough, nil
	case *ast.If:
		if _, err := an.One(s.Cond, e); err != nil {
			return Fallthrough, err
		}
		thenA, err := an.AnalyzeStatement(s.Then, env.NewChild(e), ctx)
		if err != nil {
			return Fallthrough, err
		}
		if s.Else == nil {
			return Fallthrough, nil
		}
		elseA, err := an.AnalyzeStatement(s.Else, env.NewChild(e), ctx)
		if err != nil {
			return Fallthrough, err
		}
		return joinBranches(thenA, elseA), nil
	case *ast.While:
		if _, err := an.One(s.Cond, e); err != nil {
			return Fallthrough, err
		}
		if _, err := an.AnalyzeStatement(s.Body, env.NewChild(e), ctx); err != nil {
			return Fallthrough, err
		}
		return Fallthrough, nil
	case *ast.For:
		if _, err := an.Analyze(s.Iter, e); err != nil {
			return Fallthrough, err
		}
		child := env.NewChild(e)
		for _, v := range s.Vars {
			child.Bind(v, types.Type(nil))
		}
		if _, err := an.AnalyzeStatement(s.Body, child, ctx); err != nil {
			return Fallthrough, err
		}
		return Fallthrough, nil
	case *ast.Break, *ast.Continue:
		return Terminated, nil
	case *ast.Goto:
		return Terminated, nil
	case *ast.Label:
		return Fallthrough, nil
	case *ast.Return:
		return Terminated, an.analyzeReturn(s, e, ctx)
	case *ast.Switch:
		return an.analyzeSwitch(s, e, ctx)
	case *ast.Try:
		if _, err := an.AnalyzeStatement(s.Body, env.NewChild(e), ctx); err != nil {
			return Fallthrough, err
		}
		for _, c := range s.Catches {
			child := env.NewChild(e)
			child.Bind(c.ExcName, types.Type(nil))
			if _, err := an.AnalyzeStatement(c.Body, child, ctx); err != nil {
				return Fallthrough, err
			}
		}
		return Fallthrough, nil
	case *ast.Throw:
		if _, err := an.Analyze(s.Value, e); err != nil {
			return Fallthrough, err
		}
		return Terminated, nil
	case *ast.StaticFor:
		if _, err := an.Analyze(s.Seq, e); err != nil {
			return Fallthrough, err
		}
		child := env.NewChild(e)
		child.Bind(s.Var, types.Type(nil))
		if _, err := an.AnalyzeStatement(s.Body, child, ctx); err != nil {
			return Fallthrough, err
		}
		return Fallthrough, nil
	case *ast.Finally:
		if _, err := an.AnalyzeStatement(s.Body, env.NewChild(e), ctx); err != nil {
			return Fallthrough, err
		}
		if _, err := an.AnalyzeStatement(s.Cleanup, env.NewChild(e), ctx); err != nil {
			return Fallthrough, err
		}
		return Fallthrough, nil
	case *ast.OnError:
		a, err := an.AnalyzeStatement(s.Body, env.NewChild(e), ctx)
		if err != nil {
			return Fallthrough, err
		}
		if _, err := an.AnalyzeStatement(s.Handler, env.NewChild(e), ctx); err != nil {
			return Fallthrough, err
		}
		return a, nil
	case *ast.Unreachable:
		return Terminated, nil
	case *ast.EvalStatement:
		for _, inner := range s.Expanded {
			if _, err := an.AnalyzeStatement(inner, e, ctx); err != nil {
				return Fallthrough, err
			}
		}
		return Fallthrough, nil
	case *ast.StaticAssert:
		if _, err := an.One(s.Cond, e); err != nil {
			return Fallthrough, err
		}
		return Fallthrough, nil
	default:
		return Fallthrough, diagnostics.NewTypeError(stmt.Loc(), "analyzer: unhandled statement kind")
	}
}

func (an *Analyzer) analyzeBlock(b *ast.Block, e *env.Env, ctx *StmtContext) (StatementAnalysis, error) {
	child := env.NewChild(e)
	result := Fallthrough
	for _, stmt := range b.Statements {
		a, err := an.AnalyzeStatement(stmt, child, ctx)
		if err != nil {
			return Fallthrough, err
		}
		if a == Recursive {
			return Recursive, nil
		}
		if a == Terminated {
			result = Terminated
			break
		}
	}
	return result, nil
}

func (an *Analyzer) analyzeBinding(b *ast.Binding, e *env.Env) error {
	pv, err := an.Analyze(b.Value, e)
	if err != nil {
		return err
	}
	if len(b.Names) != len(pv) {
		return diagnostics.NewTypeError(b.Loc(), "binding expects %d values, got %d", len(b.Names), len(pv))
	}
	for i, name := range b.Names {
		e.Bind(name, pv[i].Type)
	}
	return nil
}

func (an *Analyzer) analyzeReturn(r *ast.Return, e *env.Env, ctx *StmtContext) error {
	byRef := r.Kind == ast.ReturnRef
	infos := make([]ReturnInfo, 0, len(r.Values))
	for _, v := range r.Values {
		pv, err := an.One(v, e)
		if err != nil {
			return err
		}
		if byRef && pv.IsRValue {
			return diagnostics.NewTypeError(v.Loc(), "cannot return a temporary by reference")
		}
		infos = append(infos, ReturnInfo{ByRef: byRef, Type: pv.Type})
	}
	if !ctx.fixed {
		ctx.Returns = infos
		ctx.fixed = true
		return nil
	}
	if len(ctx.Returns) != len(infos) {
		return diagnostics.NewTypeError(r.Loc(), "return arity mismatch: expected %d values, got %d", len(ctx.Returns), len(infos))
	}
	return nil
}

func (an *Analyzer) analyzeSwitch(sw *ast.Switch, e *env.Env, ctx *StmtContext) (StatementAnalysis, error) {
	if _, err := an.One(sw.Subject, e); err != nil {
		return Fallthrough, err
	}
	hasDefault := false
	result := Terminated
	for _, c := range sw.Cases {
		if c.IsDefault {
			hasDefault = true
		} else if _, err := an.Analyze(c.Pattern, e); err != nil {
			return Fallthrough, err
		}
		a, err := an.AnalyzeStatement(c.Body, env.NewChild(e), ctx)
		if err != nil {
			return Fallthrough, err
		}
		if a == Fallthrough {
			result = Fallthrough
		}
	}
	if !hasDefault {
		result = Fallthrough
	}
	return result, nil
}

func joinBranches(a, b StatementAnalysis) StatementAnalysis {
	if a == Terminated && b == Terminated {
		return Terminated
	}
	if a == Recursive || b == Recursive {
		return Recursive
	}
	return Fallthrough
}
