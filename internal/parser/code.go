package parser

import (
	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/token"
)

// parseCode parses the shared body bundle an Overload or Lambda carries:
// optional generic pattern vars, a formal argument list, an optional
// `where` predicate, optional return specs, and a body (either a braced
// statement block or a raw __llvm__ block already lexed whole by
// internal/lexer into a single LLVMBLOCK token).
//
//	[T, ..Ts](x: T, ref y: Int, forward ...args) static isComparable(T) -> T, Bool { ... }
//
// The predicate clause reuses the `static` keyword (there is no separate
// `where` keyword in this grammar) since a predicate is, like a `static`
// expression anywhere else, required to evaluate at compile time.
func (p *Parser) parseCode() ast.Code {
	var c ast.Code
	c.PatternVars, c.MultiPatternVars = p.parseOptionalPatternVars()

	if p.expect(token.LPAREN) {
		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			arg := p.parseFormalArg()
			if arg.Variadic {
				c.VariadicArg = &arg
			} else {
				c.FormalArgs = append(c.FormalArgs, arg)
			}
			if p.at(token.COMMA) {
				p.next()
			}
		}
		p.expect(token.RPAREN)
	}

	if p.atKeyword("static") {
		p.next()
		c.Predicate = p.parseExpr()
	}

	if p.at(token.ARROW) {
		p.next()
		for {
			c.ReturnSpecs = append(c.ReturnSpecs, p.parseReturnSpec())
			if p.at(token.COMMA) {
				p.next()
				continue
			}
			break
		}
	}

	if p.at(token.LLVMBLOCK) {
		c.LLVMBody = p.cur.Literal
		p.next()
		return c
	}
	c.Body = p.parseBlock()
	return c
}

// parseOptionalPatternVars parses `[T, U, ..Ts]`, splitting plain names into
// PatternVars and `..`-prefixed trailing ones into MultiPatternVars (spec.md
// 3.2 "PatternVars/MultiPatternVars").
func (p *Parser) parseOptionalPatternVars() (vars, multiVars []string) {
	if !p.at(token.LBRACKET) {
		return nil, nil
	}
	p.next()
	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		if p.at(token.DOTDOT) {
			p.next()
			if p.at(token.IDENT) {
				multiVars = append(multiVars, p.cur.Literal)
				p.next()
			}
		} else if p.at(token.IDENT) {
			vars = append(vars, p.cur.Literal)
			p.next()
		}
		if p.at(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RBRACKET)
	return vars, multiVars
}

func (p *Parser) parseFormalArg() ast.FormalArg {
	var arg ast.FormalArg
	switch {
	case p.atKeyword("ref"):
		arg.Tempness = ast.Lvalue
		p.next()
	case p.atKeyword("forward"):
		arg.Tempness = ast.Forward
		p.next()
	}
	if p.at(token.ELLIPSIS) {
		arg.Variadic = true
		p.next()
	}
	if p.at(token.IDENT) {
		arg.Name = p.cur.Literal
		p.next()
	}
	if p.at(token.COLON) {
		p.next()
		arg.Type = p.parseExpr()
	}
	if p.atKeyword("as") {
		p.next()
		arg.AsType = p.parseExpr()
	}
	return arg
}

func (p *Parser) parseReturnSpec() ast.ReturnSpec {
	var rs ast.ReturnSpec
	if p.atKeyword("ref") {
		rs.ByRef = true
		p.next()
	}
	rs.Type = p.parseExpr()
	return rs
}
