package parser

import (
	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/token"
)

// parseStatement dispatches on the leading keyword/token, mirroring the
// teacher's statements_control.go switch but over this module's own ast
// statement kinds (spec.md 3.2, 4.2). It attaches the statement's start
// location uniformly here so every parseXxxStatement helper below can stay
// focused on shape rather than bookkeeping.
func (p *Parser) parseStatement() ast.Statement {
	at := p.loc()
	stmt := p.parseStatementBody()
	stmt.SetLoc(at)
	return stmt
}

func (p *Parser) parseStatementBody() ast.Statement {
	switch {
	case p.at(token.LBRACE):
		return p.parseBlock()
	case p.atKeyword("var"):
		return p.parseBinding(ast.BindVar)
	case p.atKeyword("ref"):
		return p.parseBinding(ast.BindRef)
	case p.atKeyword("alias"):
		return p.parseBinding(ast.BindAlias)
	case p.atKeyword("forward"):
		return p.parseBinding(ast.BindForward)
	case p.atKeyword("return"):
		return p.parseReturn()
	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("while"):
		return p.parseWhile()
	case p.atKeyword("for"):
		return p.parseFor()
	case p.atKeyword("break"):
		return p.parseBreak()
	case p.atKeyword("continue"):
		return p.parseContinue()
	case p.atKeyword("goto"):
		return p.parseGoto()
	case p.atKeyword("switch"):
		return p.parseSwitch()
	case p.atKeyword("try"):
		return p.parseTry()
	case p.atKeyword("throw"):
		return p.parseThrow()
	case p.atKeyword("staticfor"):
		return p.parseStaticFor()
	case p.atKeyword("staticassert"):
		return p.parseStaticAssertStatement()
	case p.atKeyword("finally"):
		return p.parseFinally()
	case p.atKeyword("onerror"):
		return p.parseOnError()
	case p.atKeyword("unreachable"):
		p.next()
		p.expect(token.SEMI)
		return &ast.Unreachable{}
	case p.atKeyword("eval"):
		return p.parseEvalStatement()
	case p.at(token.IDENT) && p.peekAt(token.COLON):
		name := p.cur.Literal
		p.next()
		p.next()
		return &ast.Label{Name: name}
	default:
		return p.parseSimpleStatement()
	}
}

func (p *Parser) parseBlock() *ast.Block {
	b := &ast.Block{}
	if !p.expect(token.LBRACE) {
		return b
	}
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		b.Statements = append(b.Statements, p.parseStatement())
	}
	p.expect(token.RBRACE)
	return b
}

// parseBinding parses `var a, b = expr;` / `ref x = expr;` / `alias y = expr;`
// / `forward z = expr;`, all sharing one LHS-name-list/RHS-expr shape.
func (p *Parser) parseBinding(kind ast.BindingKind) *ast.Binding {
	p.next() // the binding keyword
	d := &ast.Binding{Kind: kind}
	for {
		if p.at(token.IDENT) {
			d.Names = append(d.Names, p.cur.Literal)
			p.next()
		}
		if p.at(token.COMMA) {
			p.next()
			continue
		}
		break
	}
	if p.at(token.COLON) {
		p.next()
		d.Pattern = p.parseExpr()
	}
	p.expect(token.ASSIGN)
	d.Value = p.parseExpr()
	p.expect(token.SEMI)
	return d
}

func (p *Parser) parseReturn() *ast.Return {
	p.next() // 'return'
	r := &ast.Return{Kind: ast.ReturnValue}
	switch {
	case p.atKeyword("ref"):
		r.Kind = ast.ReturnRef
		p.next()
	case p.atKeyword("forward"):
		r.Kind = ast.ReturnForward
		p.next()
	}
	if !p.at(token.SEMI) {
		for {
			r.Values = append(r.Values, p.parseExpr())
			if p.at(token.COMMA) {
				p.next()
				continue
			}
			break
		}
	}
	p.expect(token.SEMI)
	return r
}

func (p *Parser) parseIf() *ast.If {
	p.next() // 'if'
	n := &ast.If{}
	if p.expect(token.LPAREN) {
		n.Cond = p.parseExpr()
		p.expect(token.RPAREN)
	}
	n.Then = p.parseStatement()
	if p.atKeyword("else") {
		p.next()
		n.Else = p.parseStatement()
	}
	return n
}

func (p *Parser) parseWhile() *ast.While {
	p.next() // 'while'
	n := &ast.While{}
	if p.expect(token.LPAREN) {
		n.Cond = p.parseExpr()
		p.expect(token.RPAREN)
	}
	n.Body = p.parseStatement()
	return n
}

// parseFor parses `for (x in expr) body` and `for ((x, y) in expr) body`
// (tuple-destructuring iteration vars).
func (p *Parser) parseFor() *ast.For {
	p.next() // 'for'
	n := &ast.For{}
	p.expect(token.LPAREN)
	if p.at(token.LPAREN) {
		p.next()
		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			if p.at(token.IDENT) {
				n.Vars = append(n.Vars, p.cur.Literal)
				p.next()
			}
			if p.at(token.COMMA) {
				p.next()
			}
		}
		p.expect(token.RPAREN)
	} else if p.at(token.IDENT) {
		n.Vars = append(n.Vars, p.cur.Literal)
		p.next()
	}
	p.expectKeyword("in")
	n.Iter = p.parseExpr()
	p.expect(token.RPAREN)
	n.Body = p.parseStatement()
	return n
}

func (p *Parser) parseBreak() *ast.Break {
	p.next() // 'break'
	n := &ast.Break{}
	if p.at(token.IDENT) {
		n.Label = p.cur.Literal
		p.next()
	}
	p.expect(token.SEMI)
	return n
}

func (p *Parser) parseContinue() *ast.Continue {
	p.next() // 'continue'
	n := &ast.Continue{}
	if p.at(token.IDENT) {
		n.Label = p.cur.Literal
		p.next()
	}
	p.expect(token.SEMI)
	return n
}

func (p *Parser) parseGoto() *ast.Goto {
	p.next() // 'goto'
	n := &ast.Goto{}
	if p.at(token.IDENT) {
		n.Label = p.cur.Literal
		p.next()
	}
	p.expect(token.SEMI)
	return n
}

// parseSwitch parses `switch (subject) { case (pat) body ... default body }`.
// The parser guarantees a `default` arm, if present, is the last case — the
// same invariant internal/desugar's chained-if lowering relies on.
func (p *Parser) parseSwitch() *ast.Switch {
	p.next() // 'switch'
	n := &ast.Switch{}
	if p.expect(token.LPAREN) {
		n.Subject = p.parseExpr()
		p.expect(token.RPAREN)
	}
	p.expect(token.LBRACE)
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		if len(n.Cases) > 0 && n.Cases[len(n.Cases)-1].IsDefault {
			p.errorf("default must be the last case of a switch, got %s after it", p.cur)
		}
		var cb ast.CaseBlock
		if p.atKeyword("default") {
			p.next()
			cb.IsDefault = true
		} else if p.atKeyword("case") {
			p.next()
			p.expect(token.LPAREN)
			cb.Pattern = p.parseExpr()
			p.expect(token.RPAREN)
		} else {
			p.errorf("expected case or default, got %s", p.cur)
			p.next()
			continue
		}
		cb.Body = p.parseStatement()
		n.Cases = append(n.Cases, cb)
	}
	p.expect(token.RBRACE)
	return n
}

func (p *Parser) parseTry() *ast.Try {
	p.next() // 'try'
	n := &ast.Try{}
	n.Body = p.parseStatement()
	for p.atKeyword("catch") {
		p.next()
		p.expect(token.LPAREN)
		var cc ast.CatchClause
		if p.at(token.IDENT) {
			cc.ExcName = p.cur.Literal
			p.next()
		}
		if p.at(token.COLON) {
			p.next()
			cc.ExcType = p.parseExpr()
		}
		p.expect(token.RPAREN)
		cc.Body = p.parseStatement()
		n.Catches = append(n.Catches, cc)
	}
	return n
}

func (p *Parser) parseThrow() *ast.Throw {
	p.next() // 'throw'
	n := &ast.Throw{}
	if !p.at(token.SEMI) {
		n.Value = p.parseExpr()
	}
	p.expect(token.SEMI)
	return n
}

func (p *Parser) parseStaticFor() *ast.StaticFor {
	p.next() // 'staticfor'
	n := &ast.StaticFor{}
	p.expect(token.LPAREN)
	if p.at(token.IDENT) {
		n.Var = p.cur.Literal
		p.next()
	}
	p.expectKeyword("in")
	n.Seq = p.parseExpr()
	p.expect(token.RPAREN)
	n.Body = p.parseStatement()
	return n
}

func (p *Parser) parseStaticAssertStatement() *ast.StaticAssert {
	p.next() // 'staticassert'
	n := &ast.StaticAssert{}
	n.Cond = p.parseExpr()
	if p.at(token.COMMA) {
		p.next()
		if p.at(token.STRINGLIT) {
			n.Message = p.cur.Literal
			p.next()
		}
	}
	p.expect(token.SEMI)
	return n
}

func (p *Parser) parseFinally() *ast.Finally {
	p.next() // 'finally'
	n := &ast.Finally{}
	n.Body = p.parseStatement()
	p.expectKeyword("finally")
	n.Cleanup = p.parseStatement()
	return n
}

func (p *Parser) parseOnError() *ast.OnError {
	p.next() // 'onerror'
	n := &ast.OnError{}
	n.Body = p.parseStatement()
	p.expectKeyword("onerror")
	n.Handler = p.parseStatement()
	return n
}

func (p *Parser) parseEvalStatement() *ast.EvalStatement {
	p.next() // 'eval'
	n := &ast.EvalStatement{}
	n.Source = p.parseExpr()
	p.expect(token.SEMI)
	return n
}

// parseSimpleStatement handles the forms that only an expression/assignment
// grammar can disambiguate: a bare expression statement, a single-target
// assignment, or a variadic tuple-destructuring assignment.
func (p *Parser) parseSimpleStatement() ast.Statement {
	first := p.parseExpr()
	switch {
	case p.at(token.ASSIGN):
		p.next()
		value := p.parseExpr()
		p.expect(token.SEMI)
		return &ast.Assignment{Target: first, Value: value}
	case p.at(token.COMMA):
		targets := []ast.Expression{first}
		for p.at(token.COMMA) {
			p.next()
			targets = append(targets, p.parseExpr())
		}
		p.expect(token.ASSIGN)
		value := p.parseExpr()
		p.expect(token.SEMI)
		return &ast.VariadicAssignment{Targets: targets, Value: value}
	default:
		p.expect(token.SEMI)
		return &ast.ExprStatement{Value: first}
	}
}
