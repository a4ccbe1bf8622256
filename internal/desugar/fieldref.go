package desugar

import "github.com/clay-lang/clayc/internal/ast"

// desugarFieldRef rewrites `a.b.c` into either a module object (if the
// dotted chain names an imported module, per r.Modules) or a
// fieldRef(expr, #name) call. Like the original, the dotted-name check walks
// the FieldRef's own nested FieldRef/NameRef chain before anything in it is
// rewritten; only the fallback fieldRef call rewrites x.Target.
func (r *Rewriter) desugarFieldRef(x *ast.FieldRef) ast.Expression {
	if r.Modules != nil {
		if chain, ok := dottedChain(x); ok {
			if module, ok := r.Modules.ResolveDottedModule(chain); ok {
				return &ast.ObjectExpr{Object: module}
			}
		}
	}
	return &ast.Call{
		Target: nameRef("fieldRef"),
		Args:   []ast.Expression{r.RewriteExpr(x.Target), fieldNameArg(x.Field)},
	}
}

// dottedChain collects x's NameRef/FieldRef spine (outermost first) as a
// plain name chain, failing if any link is something other than a name or
// field access.
func dottedChain(x *ast.FieldRef) ([]string, bool) {
	var names []string
	var walk func(e ast.Expression) bool
	walk = func(e ast.Expression) bool {
		switch n := e.(type) {
		case *ast.NameRef:
			names = append(names, n.Name)
			return true
		case *ast.FieldRef:
			if !walk(n.Target) {
				return false
			}
			names = append(names, n.Field)
			return true
		default:
			return false
		}
	}
	if !walk(x.Target) {
		return nil, false
	}
	names = append(names, x.Field)
	return names, true
}

// fieldNameArg renders a field name as a static string argument rather than
// an ObjectExpr: internal/analyzer's ObjectExpr case accepts only a wrapped
// types.Type value, so a bare field-name symbol uses the plain StringLit literal
// fieldRef's static-member overloads already match against, wrapped in
// StaticExpr so it is known at compile time rather than treated as a
// runtime string value.
func fieldNameArg(name string) ast.Expression {
	return &ast.StaticExpr{Inner: &ast.StringLit{Value: name}}
}
