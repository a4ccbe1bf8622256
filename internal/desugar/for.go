package desugar

import "github.com/clay-lang/clayc/internal/ast"

// desugarFor rewrites `for (vars in expr) body` into the iterator-protocol
// while-loop spec.md 4.4 names, reproducing desugarForStatement's shape:
//
//	{
//	    forward %expr = <expr>;
//	    forward %iter = iterator(%expr);
//	    while (var %value = nextValue(%iter); hasValue?(%value)) {
//	        forward <vars> = getValue(%value);
//	        <body>
//	    }
//	}
//
// The original's While node carries its own init-binding list alongside the
// condition; this module's ast.While has only Cond+Body, so the nextValue
// binding is folded into the loop body as its first statement, the loop
// condition is the literal `true`, and an If on hasValue?(%value) either
// runs the body or breaks out of the loop.
func (r *Rewriter) desugarFor(f *ast.For) *ast.Block {
	exprBinding := &ast.Binding{
		Kind:   ast.BindForward,
		Names:  []string{"%expr"},
		Value:  f.Iter,
	}
	iteratorBinding := &ast.Binding{
		Kind:  ast.BindForward,
		Names: []string{"%iter"},
		Value: &ast.Call{Target: nameRef("iterator"), Args: []ast.Expression{nameRef("%expr")}},
	}

	nextValueBinding := &ast.Binding{
		Kind:  ast.BindVar,
		Names: []string{"%value"},
		Value: &ast.Call{Target: nameRef("nextValue"), Args: []ast.Expression{nameRef("%iter")}},
	}
	hasValueCall := &ast.Call{Target: nameRef("hasValue?"), Args: []ast.Expression{nameRef("%value")}}
	getValueCall := &ast.Call{Target: nameRef("getValue"), Args: []ast.Expression{nameRef("%value")}}

	whileBody := &ast.Block{Statements: []ast.Statement{
		nextValueBinding,
		&ast.If{
			Cond: hasValueCall,
			Then: &ast.Block{Statements: []ast.Statement{
				&ast.Binding{Kind: ast.BindForward, Names: f.Vars, Value: getValueCall},
				f.Body,
			}},
			Else: &ast.Break{},
		},
	}}

	whileStmt := &ast.While{Cond: &ast.BoolLit{Value: true}, Body: whileBody}

	return &ast.Block{Statements: []ast.Statement{exprBinding, iteratorBinding, whileStmt}}
}
