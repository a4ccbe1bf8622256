package desugar

import (
	"testing"

	"github.com/clay-lang/clayc/internal/ast"
)

func TestForDesugarsToIteratorWhileLoop(t *testing.T) {
	f := &ast.For{
		Vars: []string{"x"},
		Iter: &ast.NameRef{Name: "xs"},
		Body: &ast.ExprStatement{Value: &ast.NameRef{Name: "x"}},
	}
	r := &Rewriter{}
	block, ok := r.RewriteStatement(f).(*ast.Block)
	if !ok {
		t.Fatalf("expected *ast.Block, got %T", r.RewriteStatement(f))
	}
	if len(block.Statements) != 3 {
		t.Fatalf("expected 3 statements (forward expr, forward iter, while), got %d", len(block.Statements))
	}
	exprBinding, ok := block.Statements[0].(*ast.Binding)
	if !ok || exprBinding.Kind != ast.BindForward || exprBinding.Names[0] != "%expr" {
		t.Fatalf("statement 0 should forward-bind %%expr, got %#v", block.Statements[0])
	}
	iterBinding, ok := block.Statements[1].(*ast.Binding)
	if !ok || iterBinding.Kind != ast.BindForward || iterBinding.Names[0] != "%iter" {
		t.Fatalf("statement 1 should forward-bind %%iter, got %#v", block.Statements[1])
	}
	call, ok := iterBinding.Value.(*ast.Call)
	if !ok {
		t.Fatalf("iter binding value should be a Call, got %T", iterBinding.Value)
	}
	if name, ok := call.Target.(*ast.NameRef); !ok || name.Name != "iterator" {
		t.Fatalf("iter binding should call iterator(), got %#v", call.Target)
	}
	if _, ok := block.Statements[2].(*ast.While); !ok {
		t.Fatalf("statement 2 should be a While loop, got %T", block.Statements[2])
	}
}

func TestSwitchDesugarsToChainedCaseCalls(t *testing.T) {
	sw := &ast.Switch{
		Subject: &ast.NameRef{Name: "n"},
		Cases: []ast.CaseBlock{
			{Pattern: &ast.IntLit{Text: "1"}, Body: &ast.ExprStatement{Value: &ast.IntLit{Text: "10"}}},
			{IsDefault: true, Body: &ast.ExprStatement{Value: &ast.IntLit{Text: "0"}}},
		},
	}
	r := &Rewriter{}
	block := r.RewriteStatement(sw).(*ast.Block)
	if len(block.Statements) != 2 {
		t.Fatalf("expected [forward-bind %%case, dispatch chain], got %d statements", len(block.Statements))
	}
	subjectBinding, ok := block.Statements[0].(*ast.Binding)
	if !ok || subjectBinding.Names[0] != "%case" {
		t.Fatalf("expected forward-bind of %%case, got %#v", block.Statements[0])
	}
	ifStmt, ok := block.Statements[1].(*ast.If)
	if !ok {
		t.Fatalf("expected an If chain head, got %T", block.Statements[1])
	}
	cond, ok := ifStmt.Cond.(*ast.Call)
	if !ok {
		t.Fatalf("expected If.Cond to be a case?() call, got %T", ifStmt.Cond)
	}
	if name, ok := cond.Target.(*ast.NameRef); !ok || name.Name != "case?" {
		t.Fatalf("expected case? callable, got %#v", cond.Target)
	}
	if _, ok := ifStmt.Else.(*ast.ExprStatement); !ok {
		t.Fatalf("expected the default arm as the chain's else, got %T", ifStmt.Else)
	}
}

func TestFieldRefDesugarsToFieldRefCallWithoutResolver(t *testing.T) {
	fr := &ast.FieldRef{Target: &ast.NameRef{Name: "point"}, Field: "x"}
	r := &Rewriter{}
	call, ok := r.RewriteExpr(fr).(*ast.Call)
	if !ok {
		t.Fatalf("expected *ast.Call, got %T", r.RewriteExpr(fr))
	}
	if name, ok := call.Target.(*ast.NameRef); !ok || name.Name != "fieldRef" {
		t.Fatalf("expected fieldRef callable, got %#v", call.Target)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 args (target, field name), got %d", len(call.Args))
	}
}

type stubResolver struct{ module any }

func (s stubResolver) ResolveDottedModule(chain []string) (any, bool) {
	if len(chain) == 2 && chain[0] == "io" && chain[1] == "println" {
		return s.module, true
	}
	return nil, false
}

func TestFieldRefResolvesDottedModuleName(t *testing.T) {
	fr := &ast.FieldRef{Target: &ast.NameRef{Name: "io"}, Field: "println"}
	mod := &ast.Module{Name: "io"}
	r := &Rewriter{Modules: stubResolver{module: mod}}
	obj, ok := r.RewriteExpr(fr).(*ast.ObjectExpr)
	if !ok {
		t.Fatalf("expected *ast.ObjectExpr wrapping the resolved module, got %T", r.RewriteExpr(fr))
	}
	if obj.Object != any(mod) {
		t.Fatalf("expected wrapped module to be the resolved one, got %#v", obj.Object)
	}
}

func TestStaticIndexingDesugarsToStaticIndexCall(t *testing.T) {
	si := &ast.StaticIndexing{Target: &ast.NameRef{Name: "t"}, Index: 2}
	r := &Rewriter{}
	call := r.RewriteExpr(si).(*ast.Call)
	if name, ok := call.Target.(*ast.NameRef); !ok || name.Name != "staticIndex" {
		t.Fatalf("expected staticIndex callable, got %#v", call.Target)
	}
	idx, ok := call.Args[1].(*ast.StaticExpr)
	if !ok {
		t.Fatalf("expected the index argument wrapped in StaticExpr, got %T", call.Args[1])
	}
	if lit, ok := idx.Inner.(*ast.IntLit); !ok || lit.Text != "2" {
		t.Fatalf("expected index literal \"2\", got %#v", idx.Inner)
	}
}

func TestVariadicOpInfixChainInterleavesOperators(t *testing.T) {
	op := &ast.VariadicOp{
		Operands:  []ast.Expression{&ast.NameRef{Name: "a"}, &ast.NameRef{Name: "b"}, &ast.NameRef{Name: "c"}},
		Operators: []string{"+", "-"},
	}
	r := &Rewriter{}
	call := r.RewriteExpr(op).(*ast.Call)
	if name, ok := call.Target.(*ast.NameRef); !ok || name.Name != "infixOperator" {
		t.Fatalf("expected infixOperator callable, got %#v", call.Target)
	}
	if len(call.Args) != 5 {
		t.Fatalf("expected 5 interleaved args (a,+,b,-,c), got %d", len(call.Args))
	}
}

func TestVariadicOpHardwiredUnaryDereference(t *testing.T) {
	op := &ast.VariadicOp{
		Operands:  []ast.Expression{&ast.NameRef{Name: "p"}},
		Operators: []string{"*"},
	}
	r := &Rewriter{}
	call := r.RewriteExpr(op).(*ast.Call)
	if name, ok := call.Target.(*ast.NameRef); !ok || name.Name != "primitive_pointerDereference" {
		t.Fatalf("expected primitive_pointerDereference, got %#v", call.Target)
	}
}

func TestTryPassesThroughAsFirstClassNode(t *testing.T) {
	tr := &ast.Try{
		Body: &ast.ExprStatement{Value: &ast.NameRef{Name: "risky"}},
		Catches: []ast.CatchClause{
			{ExcName: "e", ExcType: &ast.NameRef{Name: "IOError"}, Body: &ast.ExprStatement{Value: &ast.NameRef{Name: "e"}}},
		},
	}
	r := &Rewriter{}
	out, ok := r.RewriteStatement(tr).(*ast.Try)
	if !ok {
		t.Fatalf("expected Try to remain a first-class node, got %T", r.RewriteStatement(tr))
	}
	if len(out.Catches) != 1 || out.Catches[0].ExcName != "e" {
		t.Fatalf("catch clauses should survive rewriting intact, got %#v", out.Catches)
	}
}
