package desugar

import "github.com/clay-lang/clayc/internal/ast"

// Try is deliberately NOT collapsed into a structural if-chain the way For
// and Switch are. The original's desugarCatchBlocks produces a chain of
// `if exceptionIs?(T, %exc) { ... }` tests, but that chain only ever runs
// because the backend's codegen wires activeException/continueException to
// real stack-unwinding landing pads — catch dispatch is triggered by the
// unwinder arriving at a frame, not by ordinary sequential control flow.
// Since the LLVM backend is this module's one true external collaborator
// (spec.md 1), Try stays a first-class ast.Statement: internal/evaluator's
// evalTry runs it directly during compile-time evaluation (approximating
// unwinding with a plain Go error return, since the compile-time evaluator
// has no unwinder either), and internal/analyzer checks each catch body
// against the exception binding the same way. Rewrite only recurses into
// Try's children, preserving the node itself.
func (r *Rewriter) rewriteTry(t *ast.Try) *ast.Try {
	catches := make([]ast.CatchClause, len(t.Catches))
	for i, c := range t.Catches {
		catches[i] = ast.CatchClause{ExcName: c.ExcName, ExcType: r.RewriteExpr(c.ExcType), Body: r.RewriteStatement(c.Body)}
	}
	return &ast.Try{Body: r.RewriteStatement(t.Body), Catches: catches}
}
