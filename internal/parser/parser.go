// Package parser turns a token stream into the ast package's tree by hand-
// written recursive descent (spec.md 4.2). It attaches locations, parses
// every top-level/statement/expression kind, and performs no desugaring: a
// char literal stays an ast.CharLit node, and nothing rewrites it into a
// Char(...) call. The rewrites spec.md 4.4 names run as a whole-module pass
// right after this package returns (internal/loader wires the two together).
//
// Grounded on the teacher's own recursive-descent shape: a Parser struct
// walking curToken/peekToken with nextToken()/expectPeek() helpers and an
// accumulated error list rather than a panic-on-first-error design, so
// parsing continues past a malformed item; the entry points still return
// only the first recorded error. Precedence for infix/prefix operator chains
// is NOT resolved here or later — spec.md 4.2 "Precedence... expressed via
// the VariadicOp node"; internal/desugar lowers the chain to one
// infixOperator/prefixOperator call that is evaluated strictly left to
// right, so the parser only ever flattens an operator chain into
// Operands/Operators, never climbs.
package parser

import (
	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/diagnostics"
	"github.com/clay-lang/clayc/internal/source"
	"github.com/clay-lang/clayc/internal/token"
)

// Parser parses one token stream per ParseModule/ParseExpression call. A
// single Parser value is safe to reuse sequentially (each entry point resets
// its own cursor state) but not concurrently.
type Parser struct {
	toks []token.Token
	pos  int
	cur  token.Token
	peek token.Token

	errors []error
}

// New returns a ready-to-use Parser. The zero value also works; New exists
// for symmetry with the rest of this module's constructors.
func New() *Parser { return &Parser{} }

func (p *Parser) reset(toks []token.Token) {
	p.toks = toks
	p.pos = 0
	p.errors = nil
	p.cur = p.tokAt(0)
	p.peek = p.tokAt(1)
}

func (p *Parser) tokAt(i int) token.Token {
	if i >= len(p.toks) {
		if len(p.toks) == 0 {
			return token.Token{Kind: token.EOF}
		}
		return token.Token{Kind: token.EOF, Loc: p.toks[len(p.toks)-1].Loc}
	}
	return p.toks[i]
}

func (p *Parser) next() {
	p.pos++
	p.cur = p.peek
	p.peek = p.tokAt(p.pos + 1)
}

func (p *Parser) at(k token.Kind) bool     { return p.cur.Kind == k }
func (p *Parser) peekAt(k token.Kind) bool { return p.peek.Kind == k }

func (p *Parser) atKeyword(kw string) bool {
	return p.cur.Kind == token.KEYWORD && p.cur.Lexeme == kw
}

func (p *Parser) peekKeyword(kw string) bool {
	return p.peek.Kind == token.KEYWORD && p.peek.Lexeme == kw
}

// expect requires the current token to be k, recording an error and
// returning false if not; on success it advances past it.
func (p *Parser) expect(k token.Kind) bool {
	if !p.at(k) {
		p.errorf("expected %s, got %s", token.Token{Kind: k}, p.cur)
		return false
	}
	p.next()
	return true
}

func (p *Parser) expectKeyword(kw string) bool {
	if !p.atKeyword(kw) {
		p.errorf("expected keyword %q, got %s", kw, p.cur)
		return false
	}
	p.next()
	return true
}

func (p *Parser) loc() source.Location { return p.cur.Loc }

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, diagnostics.NewParseError(p.cur.Loc, format, args...))
}

func (p *Parser) firstError() error {
	if len(p.errors) == 0 {
		return nil
	}
	return p.errors[0]
}

// ParseModule parses a complete module from toks, named name (the loader
// derives name from the file's base name). It implements loader.Parser.
func (p *Parser) ParseModule(toks []token.Token, name string) (*ast.Module, error) {
	p.reset(toks)
	mod := p.parseModule(name)
	if err := p.firstError(); err != nil {
		return nil, err
	}
	return mod, nil
}

// ParseExpression parses toks as a single standalone expression (an
// interactive/REPL entry point and the target of EvalExpr splicing).
func (p *Parser) ParseExpression(toks []token.Token) (ast.Expression, error) {
	p.reset(toks)
	expr := p.parseExpr()
	if err := p.firstError(); err != nil {
		return nil, err
	}
	return expr, nil
}

// ParseStatements parses toks as a statement list (EvalStatement splicing).
func (p *Parser) ParseStatements(toks []token.Token) ([]ast.Statement, error) {
	p.reset(toks)
	var stmts []ast.Statement
	for !p.at(token.EOF) {
		stmts = append(stmts, p.parseStatement())
	}
	if err := p.firstError(); err != nil {
		return nil, err
	}
	return stmts, nil
}

// ParseTopLevelItems parses toks as a list of top-level items (EvalTopLevel
// splicing, spec.md 4.2 "parse a top-level-item list into a given module
// handle").
func (p *Parser) ParseTopLevelItems(toks []token.Token) ([]ast.TopLevel, error) {
	p.reset(toks)
	var items []ast.TopLevel
	for !p.at(token.EOF) {
		items = append(items, p.parseTopLevelItem())
	}
	if err := p.firstError(); err != nil {
		return nil, err
	}
	return items, nil
}
