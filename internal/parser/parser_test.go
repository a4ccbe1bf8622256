package parser

import (
	"testing"

	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/lexer"
	"github.com/clay-lang/clayc/internal/source"
	"github.com/clay-lang/clayc/internal/token"
)

func lexString(t *testing.T, text string) []token.Token {
	t.Helper()
	toks, err := lexer.New(source.New("test.clay", []byte(text))).Tokens()
	if err != nil {
		t.Fatalf("lex error: %s", err.Msg)
	}
	return toks
}

func TestParseModuleHeaderAndImports(t *testing.T) {
	toks := lexString(t, `module geometry;
import io.(println);
import collections as coll;
`)
	p := New()
	mod, err := p.ParseModule(toks, "fallback")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if mod.Name != "geometry" {
		t.Fatalf("expected module name geometry, got %q", mod.Name)
	}
	if len(mod.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(mod.Imports))
	}
	if mod.Imports[0].Path[0] != "io" || mod.Imports[0].Symbols[0] != "println" {
		t.Fatalf("unexpected first import: %#v", mod.Imports[0])
	}
	if mod.Imports[1].Alias != "coll" {
		t.Fatalf("expected alias coll, got %q", mod.Imports[1].Alias)
	}
}

func TestParseRecordDecl(t *testing.T) {
	toks := lexString(t, `record Point[T](x: T, y: T);`)
	p := New()
	mod, err := p.ParseModule(toks, "m")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(mod.TopLevelItems) != 1 {
		t.Fatalf("expected 1 top-level item, got %d", len(mod.TopLevelItems))
	}
	rec, ok := mod.TopLevelItems[0].(*ast.RecordDecl)
	if !ok {
		t.Fatalf("expected *ast.RecordDecl, got %T", mod.TopLevelItems[0])
	}
	if rec.Name != "Point" || len(rec.Params) != 1 || rec.Params[0] != "T" {
		t.Fatalf("unexpected record decl: %#v", rec)
	}
	if len(rec.Body.Fields) != 2 || rec.Body.Fields[0].Name != "x" {
		t.Fatalf("unexpected record fields: %#v", rec.Body.Fields)
	}
}

func TestParseDefineWithBody(t *testing.T) {
	toks := lexString(t, `define add(x: Int, y: Int) -> Int { return x + y; }`)
	p := New()
	mod, err := p.ParseModule(toks, "m")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	ov, ok := mod.TopLevelItems[0].(*ast.Overload)
	if !ok {
		t.Fatalf("expected *ast.Overload, got %T", mod.TopLevelItems[0])
	}
	if len(ov.Code.FormalArgs) != 2 {
		t.Fatalf("expected 2 formal args, got %d", len(ov.Code.FormalArgs))
	}
	if len(ov.Code.ReturnSpecs) != 1 {
		t.Fatalf("expected 1 return spec, got %d", len(ov.Code.ReturnSpecs))
	}
	block, ok := ov.Code.Body.(*ast.Block)
	if !ok || len(block.Statements) != 1 {
		t.Fatalf("expected a 1-statement block body, got %#v", ov.Code.Body)
	}
	ret, ok := block.Statements[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected a Return statement, got %T", block.Statements[0])
	}
	op, ok := ret.Values[0].(*ast.VariadicOp)
	if !ok {
		t.Fatalf("expected return value to flatten into a VariadicOp, got %T", ret.Values[0])
	}
	if len(op.Operands) != 2 || len(op.Operators) != 1 || op.Operators[0] != "+" {
		t.Fatalf("unexpected VariadicOp shape: %#v", op)
	}
}

func TestParseVariadicOpDoesNotClimbPrecedence(t *testing.T) {
	toks, err := lexer.New(source.New("t.clay", []byte("a + b * c"))).Tokens()
	if err != nil {
		t.Fatalf("lex error: %s", err.Msg)
	}
	p := New()
	expr, perr := p.ParseExpression(toks)
	if perr != nil {
		t.Fatalf("unexpected parse error: %v", perr)
	}
	op, ok := expr.(*ast.VariadicOp)
	if !ok {
		t.Fatalf("expected one flat VariadicOp (no precedence grouping), got %T", expr)
	}
	if len(op.Operands) != 3 || len(op.Operators) != 2 {
		t.Fatalf("expected 3 operands/2 operators flattened together, got %#v", op)
	}
	if op.Operators[0] != "+" || op.Operators[1] != "*" {
		t.Fatalf("unexpected operator order: %#v", op.Operators)
	}
}

func TestParseIfWhileFor(t *testing.T) {
	toks := lexString(t, `
define loop() {
	if (x) {
		return;
	} else {
		return;
	}
	while (x) { break; }
	for (v in xs) { continue; }
}`)
	p := New()
	mod, err := p.ParseModule(toks, "m")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	ov := mod.TopLevelItems[0].(*ast.Overload)
	block := ov.Code.Body.(*ast.Block)
	if len(block.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(block.Statements))
	}
	if _, ok := block.Statements[0].(*ast.If); !ok {
		t.Fatalf("expected If, got %T", block.Statements[0])
	}
	if _, ok := block.Statements[1].(*ast.While); !ok {
		t.Fatalf("expected While, got %T", block.Statements[1])
	}
	forStmt, ok := block.Statements[2].(*ast.For)
	if !ok {
		t.Fatalf("expected For, got %T", block.Statements[2])
	}
	if len(forStmt.Vars) != 1 || forStmt.Vars[0] != "v" {
		t.Fatalf("unexpected for-loop vars: %#v", forStmt.Vars)
	}
}

func TestParseSwitchGuaranteesDefaultLast(t *testing.T) {
	toks := lexString(t, `
define classify() {
	switch (n) {
		case (1) { return; }
		default { return; }
	}
}`)
	p := New()
	mod, err := p.ParseModule(toks, "m")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	ov := mod.TopLevelItems[0].(*ast.Overload)
	block := ov.Code.Body.(*ast.Block)
	sw := block.Statements[0].(*ast.Switch)
	if len(sw.Cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(sw.Cases))
	}
	if sw.Cases[1].IsDefault != true {
		t.Fatalf("expected default arm last, got %#v", sw.Cases)
	}
}

func TestParseTryCatch(t *testing.T) {
	toks := lexString(t, `
define risky() {
	try {
		return;
	} catch (e: IOError) {
		return;
	}
}`)
	p := New()
	mod, err := p.ParseModule(toks, "m")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	ov := mod.TopLevelItems[0].(*ast.Overload)
	block := ov.Code.Body.(*ast.Block)
	tr := block.Statements[0].(*ast.Try)
	if len(tr.Catches) != 1 || tr.Catches[0].ExcName != "e" {
		t.Fatalf("unexpected catch clauses: %#v", tr.Catches)
	}
}

func TestParseDispatchExprOnlyInCallPosition(t *testing.T) {
	dispatchToks, err := lexer.New(source.New("t.clay", []byte("*f(x)"))).Tokens()
	if err != nil {
		t.Fatalf("lex error: %s", err.Msg)
	}
	p := New()
	expr, perr := p.ParseExpression(dispatchToks)
	if perr != nil {
		t.Fatalf("unexpected parse error: %v", perr)
	}
	call, ok := expr.(*ast.Call)
	if !ok {
		t.Fatalf("expected *ast.Call, got %T", expr)
	}
	if _, ok := call.Target.(*ast.DispatchExpr); !ok {
		t.Fatalf("expected DispatchExpr target for *f(x), got %T", call.Target)
	}

	derefToks, err := lexer.New(source.New("t.clay", []byte("*p"))).Tokens()
	if err != nil {
		t.Fatalf("lex error: %s", err.Msg)
	}
	p2 := New()
	expr2, perr2 := p2.ParseExpression(derefToks)
	if perr2 != nil {
		t.Fatalf("unexpected parse error: %v", perr2)
	}
	op, ok := expr2.(*ast.VariadicOp)
	if !ok || len(op.Operators) != 1 || op.Operators[0] != "*" {
		t.Fatalf("expected plain dereference VariadicOp for *p, got %#v", expr2)
	}
}

func TestParseLambdaSeparatesBodyFromArgs(t *testing.T) {
	toks, err := lexer.New(source.New("t.clay", []byte("[](x: Int) -> Int { return x; }"))).Tokens()
	if err != nil {
		t.Fatalf("lex error: %s", err.Msg)
	}
	p := New()
	expr, perr := p.ParseExpression(toks)
	if perr != nil {
		t.Fatalf("unexpected parse error: %v", perr)
	}
	lam, ok := expr.(*ast.Lambda)
	if !ok {
		t.Fatalf("expected *ast.Lambda, got %T", expr)
	}
	if lam.Args.Body != nil {
		t.Fatalf("expected Args.Body to be cleared once lifted into Lambda.Body, got %#v", lam.Args.Body)
	}
	if len(lam.Args.FormalArgs) != 1 || lam.Args.FormalArgs[0].Name != "x" {
		t.Fatalf("unexpected formal args: %#v", lam.Args.FormalArgs)
	}
	block, ok := lam.Body.(*ast.Block)
	if !ok || len(block.Statements) != 1 {
		t.Fatalf("expected Lambda.Body to carry the block, got %#v", lam.Body)
	}
}
