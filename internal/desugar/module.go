package desugar

import "github.com/clay-lang/clayc/internal/ast"

// RewriteModule rewrites every expression and statement body across mod's
// top-level items in place, one pass over the whole module right after
// parsing and before the loader installs its symbols — so every later
// consumer (analyzer, evaluator, invoke) only ever sees the desugared form.
func RewriteModule(mod *ast.Module, modules ModuleResolver) {
	r := &Rewriter{Modules: modules}
	for i, item := range mod.TopLevelItems {
		mod.TopLevelItems[i] = r.rewriteTopLevel(item)
	}
}

func (r *Rewriter) rewriteTopLevel(item ast.TopLevel) ast.TopLevel {
	switch t := item.(type) {
	case *ast.RecordDecl:
		body := t.Body
		if body.Computed != nil {
			body.Computed = r.RewriteExpr(body.Computed)
		}
		for i, f := range body.Fields {
			body.Fields[i] = ast.RecordField{Name: f.Name, Type: r.RewriteExpr(f.Type)}
		}
		t.Body = body
		return t
	case *ast.VariantDecl:
		for i, m := range t.Members {
			t.Members[i] = ast.VariantMember{Type: r.RewriteExpr(m.Type)}
		}
		return t
	case *ast.InstanceDecl:
		t.MemberType = r.RewriteExpr(t.MemberType)
		return t
	case *ast.GlobalVariable:
		t.Type = r.RewriteExpr(t.Type)
		t.Value = r.RewriteExpr(t.Value)
		return t
	case *ast.GlobalAlias:
		t.Value = r.RewriteExpr(t.Value)
		return t
	case *ast.Procedure:
		return t
	case *ast.Overload:
		t.Target = r.RewriteExpr(t.Target)
		t.Code = rewriteCode(r, t.Code)
		return t
	case *ast.IntrinsicSymbol:
		return t
	case *ast.EnumDecl:
		return t
	case *ast.ExternalProcedure:
		for i, a := range t.Args {
			t.Args[i] = ast.FormalArg{Name: a.Name, Type: r.RewriteExpr(a.Type), Tempness: a.Tempness, Variadic: a.Variadic, AsType: r.RewriteExpr(a.AsType)}
		}
		t.Return = r.RewriteExpr(t.Return)
		return t
	case *ast.ExternalVariable:
		t.Type = r.RewriteExpr(t.Type)
		return t
	case *ast.EvalTopLevel:
		t.Source = r.RewriteExpr(t.Source)
		for i, inner := range t.Expanded {
			t.Expanded[i] = r.rewriteTopLevel(inner)
		}
		return t
	case *ast.StaticAssertTopLevel:
		t.Cond = r.RewriteExpr(t.Cond)
		return t
	case *ast.Documentation:
		return t
	default:
		return item
	}
}
