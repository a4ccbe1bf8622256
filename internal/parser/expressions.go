package parser

import (
	"strings"

	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/token"
)

// parseExpr is the expression grammar's entry point: `or`-level, the
// loosest-binding construct with dedicated AST nodes (And/Or are split out
// from the rest of the operator set because they short-circuit, spec.md
// 3.4 "PV" treats them specially during analysis). Everything binding
// tighter than and/or collapses into a flat VariadicOp; no precedence
// climbing happens here at all (spec.md 4.2), nor later: internal/desugar
// lowers the VariadicOp to one infixOperator/prefixOperator call that is
// evaluated strictly left to right.
func (p *Parser) parseExpr() ast.Expression {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expression {
	at := p.loc()
	left := p.parseAnd()
	for p.at(token.OROR) {
		p.next()
		right := p.parseAnd()
		node := &ast.Or{Left: left, Right: right}
		node.SetLoc(at)
		left = node
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	at := p.loc()
	left := p.parseOpChain()
	for p.at(token.ANDAND) {
		p.next()
		right := p.parseOpChain()
		node := &ast.And{Left: left, Right: right}
		node.SetLoc(at)
		left = node
	}
	return left
}

// parseOpChain collects a flat run of `operand operator operand operator
// operand ...` into a VariadicOp, exactly as the parser sees it — no
// grouping by precedence (spec.md 4.2). A chain with no operator at all
// collapses back to its single operand so callers never have to unwrap a
// degenerate one-operand VariadicOp.
func (p *Parser) parseOpChain() ast.Expression {
	at := p.loc()
	first := p.parseUnary()
	var operands []ast.Expression
	var operators []string
	for p.isInfixOperator() {
		op := p.cur.Lexeme
		p.next()
		operands = append(operands, p.parseUnary())
		operators = append(operators, op)
	}
	if len(operators) == 0 {
		return first
	}
	node := &ast.VariadicOp{Operands: append([]ast.Expression{first}, operands...), Operators: operators}
	node.SetLoc(at)
	return node
}

func (p *Parser) isInfixOperator() bool {
	switch p.cur.Kind {
	case token.OPIDENT, token.AMP, token.PIPE, token.STAR:
		return true
	}
	return false
}

// parseUnary handles the three prefix operators the grammar gives dedicated
// tokens to: `!` (boolean not), `&` (address-of), and `*`. `*` is
// ambiguous on its own — spec.md 3.4 "DispatchExpr marks *expr in call
// position" — so it is only treated as a dispatch marker when immediately
// followed by a call's argument list; otherwise it is plain pointer
// dereference, folded into a one-operand VariadicOp like the other two so
// internal/desugar's hardwired-unary lowering handles all three uniformly.
func (p *Parser) parseUnary() ast.Expression {
	at := p.loc()
	switch {
	case p.at(token.BANG):
		p.next()
		operand := p.parseUnary()
		node := &ast.VariadicOp{Operands: []ast.Expression{operand}, Operators: []string{"!"}}
		node.SetLoc(at)
		return node
	case p.at(token.AMP):
		p.next()
		operand := p.parseUnary()
		node := &ast.VariadicOp{Operands: []ast.Expression{operand}, Operators: []string{"&"}}
		node.SetLoc(at)
		return node
	case p.at(token.STAR):
		p.next()
		// Only a bare primary is inspected for the call-position marker —
		// `*(f())` (an explicit paren group) never looks like a call target
		// here and always means plain dereference, while `*f(x)` does.
		operand := p.parsePrimary()
		if p.at(token.LPAREN) {
			dispatch := &ast.DispatchExpr{Inner: operand}
			dispatch.SetLoc(at)
			return p.parsePostfix(dispatch)
		}
		operand = p.parsePostfix(operand)
		node := &ast.VariadicOp{Operands: []ast.Expression{operand}, Operators: []string{"*"}}
		node.SetLoc(at)
		return node
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

// parsePostfix applies field access (.name), static indexing (.12), call
// (...), and indexing ([...]) suffixes in a left-to-right loop.
func (p *Parser) parsePostfix(expr ast.Expression) ast.Expression {
	at := expr.Loc()
	for {
		switch {
		case p.at(token.DOT):
			p.next()
			if !p.at(token.IDENT) {
				p.errorf("expected field name after '.', got %s", p.cur)
				return expr
			}
			node := &ast.FieldRef{Target: expr, Field: p.cur.Literal}
			node.SetLoc(at)
			expr = node
			p.next()
		case p.at(token.STATICIDX):
			idx := parseStaticIdx(p.cur.Literal)
			node := &ast.StaticIndexing{Target: expr, Index: idx}
			node.SetLoc(at)
			expr = node
			p.next()
		case p.at(token.LPAREN):
			p.next()
			var args []ast.Expression
			for !p.at(token.RPAREN) && !p.at(token.EOF) {
				args = append(args, p.parseCallArg())
				if p.at(token.COMMA) {
					p.next()
				}
			}
			p.expect(token.RPAREN)
			node := &ast.Call{Target: expr, Args: args}
			node.SetLoc(at)
			expr = node
		case p.at(token.LBRACKET):
			p.next()
			var args []ast.Expression
			for !p.at(token.RBRACKET) && !p.at(token.EOF) {
				args = append(args, p.parseExpr())
				if p.at(token.COMMA) {
					p.next()
				}
			}
			p.expect(token.RBRACKET)
			node := &ast.Indexing{Target: expr, Args: args}
			node.SetLoc(at)
			expr = node
		default:
			return expr
		}
	}
}

// parseCallArg additionally accepts the `..expr` splice form inside a call's
// argument list (spec.md 3.4 Unpack).
func (p *Parser) parseCallArg() ast.Expression {
	if p.at(token.DOTDOT) {
		p.next()
		return &ast.Unpack{Inner: p.parseExpr()}
	}
	return p.parseExpr()
}

func parseStaticIdx(literal string) int {
	n := 0
	for _, c := range literal {
		if c < '0' || c > '9' {
			continue
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// parsePrimary parses a literal, name, parenthesized/tuple expression, a
// lambda, or one of the keyword-introduced expression forms (static, eval),
// attaching the expression's start location uniformly before returning.
func (p *Parser) parsePrimary() ast.Expression {
	at := p.loc()
	expr := p.parsePrimaryBody()
	expr.SetLoc(at)
	return expr
}

func (p *Parser) parsePrimaryBody() ast.Expression {
	switch {
	case p.at(token.INT):
		lit := &ast.IntLit{Text: p.cur.Literal}
		lit.Suffix, lit.Text = splitNumericSuffix(p.cur.Literal)
		p.next()
		return lit
	case p.at(token.FLOAT):
		lit := &ast.FloatLit{}
		lit.Suffix, lit.Text = splitNumericSuffix(p.cur.Literal)
		p.next()
		return lit
	case p.at(token.CHARLIT):
		r := rune(0)
		for _, c := range p.cur.Literal {
			r = c
			break
		}
		p.next()
		return &ast.CharLit{Value: r}
	case p.at(token.STRINGLIT):
		lit := &ast.StringLit{Value: p.cur.Literal}
		p.next()
		return lit
	case p.atKeyword("true"):
		p.next()
		return &ast.BoolLit{Value: true}
	case p.atKeyword("false"):
		p.next()
		return &ast.BoolLit{Value: false}
	case p.at(token.IDENT):
		name := p.cur.Literal
		p.next()
		return &ast.NameRef{Name: name}
	case p.at(token.OPIDENT):
		// An operator identifier used in value position (e.g. passing `+` as
		// a callable) is just a name reference to that overload set.
		name := p.cur.Literal
		p.next()
		return &ast.NameRef{Name: name}
	case p.at(token.LPAREN):
		return p.parseParenOrTuple()
	case p.atKeyword("static"):
		p.next()
		return &ast.StaticExpr{Inner: p.parseExpr()}
	case p.atKeyword("eval"):
		p.next()
		return &ast.EvalExpr{Source: p.parseExpr()}
	case p.at(token.LBRACKET):
		return p.parseLambda()
	default:
		p.errorf("unexpected token %s in expression", p.cur)
		p.next()
		return &ast.NameRef{Name: "<error>"}
	}
}

// parseParenOrTuple disambiguates `(expr)` from a tuple `(a, b)` and from a
// zero-element tuple `()`, and also covers a parenthesized Lambda whose
// argument list just happens to start with `(`.
func (p *Parser) parseParenOrTuple() ast.Expression {
	p.next() // '('
	if p.at(token.RPAREN) {
		p.next()
		if p.isLambdaArrowAhead() {
			return p.parseLambdaAfterEmptyArgs()
		}
		return &ast.Tuple{}
	}
	first := p.parseExpr()
	if p.at(token.COMMA) {
		elems := []ast.Expression{first}
		for p.at(token.COMMA) {
			p.next()
			if p.at(token.RPAREN) {
				break
			}
			elems = append(elems, p.parseExpr())
		}
		p.expect(token.RPAREN)
		return &ast.Tuple{Elements: elems}
	}
	p.expect(token.RPAREN)
	return &ast.Paren{Inner: first}
}

func (p *Parser) isLambdaArrowAhead() bool {
	return p.at(token.ARROW) || p.at(token.LBRACE)
}

func (p *Parser) parseLambdaAfterEmptyArgs() ast.Expression {
	lam := &ast.Lambda{}
	if p.at(token.ARROW) {
		p.next()
		for {
			lam.Args.ReturnSpecs = append(lam.Args.ReturnSpecs, p.parseReturnSpec())
			if p.at(token.COMMA) {
				p.next()
				continue
			}
			break
		}
	}
	lam.Body = p.parseBlock()
	return lam
}

// parseLambda parses `[patternVars](args) -> Ret { body }` (the bracket
// list is parseCode's optional pattern-var list; captures are never written,
// the analyzer computes them), reusing parseCode
// for everything up to and including the brace body, then splitting the
// result: ast.Lambda keeps its own Body field separate from Args (the
// analyzer walks lam.Body directly against a child env built from
// lam.Args.FormalArgs and the computed capture set, never lam.Args.Body —
// see internal/analyzer/lambda.go), so Args.Body is cleared once lifted out.
func (p *Parser) parseLambda() ast.Expression {
	lam := &ast.Lambda{}
	code := p.parseCode()
	lam.Body = code.Body
	code.Body = nil
	lam.Args = code
	return lam
}

// splitNumericSuffix separates a lexed numeric literal's digits from its
// trailing type suffix (e.g. "1000u32" -> "1000", "u32"; "0x1Fi64" ->
// "0x1F", "i64"). internal/lexer.readNumber already strips underscores but
// does not split the suffix off, so the parser does it here.
func splitNumericSuffix(literal string) (suffix, digits string) {
	body := literal
	if len(body) >= 2 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		i := 2
		for i < len(body) && isHexDigitByte(body[i]) {
			i++
		}
		return body[i:], body[:i]
	}
	i := strings.IndexFunc(body, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != 'e' && r != 'E' && r != '+' && r != '-'
	})
	if i < 0 {
		return "", body
	}
	return body[i:], body[:i]
}

func isHexDigitByte(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
