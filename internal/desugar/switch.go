package desugar

import "github.com/clay-lang/clayc/internal/ast"

// desugarSwitch rewrites `switch x { case (a,b): ...; default: ... }` into
// the chained if desugarSwitchStatement builds: the subject is bound once
// to %case, then each non-default CaseBlock becomes `if case?(%case,
// pattern) body else <next>`, with the default arm (if any) as the final
// else, matching spec.md 4.4 exactly.
// The parser guarantees at most one default arm and, when present, that it
// comes last — desugarSwitch does not re-check that here, matching the
// original, which only validates arm order at parse time too.
func (r *Rewriter) desugarSwitch(sw *ast.Switch) *ast.Block {
	subjectBinding := &ast.Binding{
		Kind:  ast.BindForward,
		Names: []string{"%case"},
		Value: r.RewriteExpr(sw.Subject),
	}

	var root ast.Statement
	tail := &root

	for _, c := range sw.Cases {
		body := r.RewriteStatement(c.Body)
		if c.IsDefault {
			*tail = body
			tail = nil
			continue
		}
		cond := &ast.Call{
			Target: nameRef("case?"),
			Args:   []ast.Expression{nameRef("%case"), r.RewriteExpr(c.Pattern)},
		}
		ifStmt := &ast.If{Cond: cond, Then: body}
		*tail = ifStmt
		tail = &ifStmt.Else
	}

	return &ast.Block{Statements: []ast.Statement{subjectBinding, root}}
}
