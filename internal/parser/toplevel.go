package parser

import (
	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/token"
)

// parseModule parses an entire file: an optional `module` header, an
// optional documentation block, a run of `import` clauses, then a flat list
// of top-level items, mirroring the teacher's processor.go top-level loop
// but against this module's own ast.Module shape.
func (p *Parser) parseModule(name string) *ast.Module {
	mod := &ast.Module{
		Name:                name,
		AttributeBuildFlags: map[string]bool{},
		PublicSymbols:       map[string]bool{},
	}

	if p.atKeyword("module") {
		p.next()
		if p.at(token.IDENT) {
			mod.Name = p.cur.Literal
			p.next()
		}
		p.expect(token.SEMI)
	}

	if p.at(token.DOC_START) {
		mod.ModuleDeclaration = p.parseDocumentation()
	}

	for p.atKeyword("import") {
		mod.Imports = append(mod.Imports, p.parseImport())
	}

	for !p.at(token.EOF) {
		if p.at(token.LLVMBLOCK) {
			mod.TopLevelLLVM = append(mod.TopLevelLLVM, p.cur.Literal)
			p.next()
			continue
		}
		item := p.parseTopLevelItem()
		mod.TopLevelItems = append(mod.TopLevelItems, item)
		if pub, ok := publicName(item); ok {
			mod.PublicSymbols[pub] = true
		}
		if sym, ok := anySymbolName(item); ok {
			mod.AllSymbols = append(mod.AllSymbols, sym)
		}
	}
	return mod
}

// parseImport parses `import a.b.c;`, `import a.b as alias;`, `import
// a.b.*;`, and `import a.b.(sym1, sym2);` — a dotted path ending in either
// nothing, `as alias`, `*`, or an explicit parenthesized symbol list
// (the `.` before the symbol list is part of the path-separator grammar,
// not a separate production).
func (p *Parser) parseImport() ast.ImportSpec {
	p.next() // consume 'import'
	spec := ast.ImportSpec{}
	for {
		if p.at(token.STAR) {
			spec.Star = true
			p.next()
			break
		}
		if p.at(token.LPAREN) {
			break
		}
		if !p.at(token.IDENT) {
			p.errorf("expected module path segment, got %s", p.cur)
			break
		}
		spec.Path = append(spec.Path, p.cur.Literal)
		p.next()
		if p.at(token.DOT) {
			p.next()
			continue
		}
		break
	}
	if p.atKeyword("as") {
		p.next()
		if p.at(token.IDENT) {
			spec.Alias = p.cur.Literal
			p.next()
		}
	}
	if p.at(token.LPAREN) {
		p.next()
		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			if p.at(token.IDENT) {
				spec.Symbols = append(spec.Symbols, p.cur.Literal)
				p.next()
			}
			if p.at(token.COMMA) {
				p.next()
			}
		}
		p.expect(token.RPAREN)
	}
	p.expect(token.SEMI)
	return spec
}

// parseTopLevelItem dispatches on the current keyword/token, the same way
// the teacher's ParserProcessor switches on a top-level keyword set. A
// leading doc block is parsed and returned as its own Documentation item
// rather than threaded through every declaration parser; nothing associates
// it with the item that follows, whose Doc field stays nil.
func (p *Parser) parseTopLevelItem() ast.TopLevel {
	at := p.loc()
	item := p.parseTopLevelItemBody()
	item.SetLoc(at)
	return item
}

func (p *Parser) parseTopLevelItemBody() ast.TopLevel {
	if p.at(token.DOC_START) {
		return p.parseDocumentation()
	}

	public := true
	if p.atKeyword("public") {
		p.next()
	} else if p.atKeyword("private") {
		public = false
		p.next()
	}

	switch {
	case p.atKeyword("record"):
		return p.parseRecordDecl(public)
	case p.atKeyword("variant") || p.atKeyword("open"):
		return p.parseVariantDecl(public)
	case p.atKeyword("instance"):
		return p.parseInstanceDecl(public)
	case p.atKeyword("enum"):
		return p.parseEnumDecl(public)
	case p.atKeyword("alias"):
		return p.parseGlobalAlias(public)
	case p.atKeyword("var"):
		return p.parseGlobalVariable(public)
	case p.atKeyword("define"):
		return p.parseProcedure(public)
	case p.atKeyword("overload"):
		return p.parseOverload(public)
	case p.atKeyword("external"):
		return p.parseExternal(public)
	case p.atKeyword("staticassert"):
		return p.parseStaticAssertTopLevel(public)
	case p.atKeyword("eval"):
		return p.parseEvalTopLevel(public)
	default:
		p.errorf("unexpected token %s at top level", p.cur)
		p.next()
		return &ast.Documentation{}
	}
}

func (p *Parser) parseDocumentation() *ast.Documentation {
	d := &ast.Documentation{}
	p.next() // DOC_START
	var text []byte
	for !p.at(token.DOC_END) && !p.at(token.EOF) {
		switch {
		case p.at(token.DOC_PROPERTY):
			d.Properties = append(d.Properties, ast.DocProperty{Name: p.cur.Literal})
			p.next()
		case p.at(token.DOC_TEXT):
			if len(d.Properties) > 0 {
				last := &d.Properties[len(d.Properties)-1]
				last.Text += p.cur.Literal
			} else {
				text = append(text, p.cur.Literal...)
			}
			p.next()
		default:
			p.next()
		}
	}
	p.expect(token.DOC_END)
	d.Text = string(text)
	return d
}

func (p *Parser) parseRecordDecl(public bool) *ast.RecordDecl {
	p.next() // 'record'
	d := &ast.RecordDecl{}
	d.Public = public
	if p.at(token.IDENT) {
		d.Name = p.cur.Literal
		p.next()
	}
	d.Params = p.parseOptionalGenericParams()
	d.Body = p.parseRecordBody()
	p.expect(token.SEMI)
	return d
}

func (p *Parser) parseRecordBody() ast.RecordBody {
	var body ast.RecordBody
	if !p.expect(token.LPAREN) {
		return body
	}
	if p.atKeyword("static") {
		p.next()
		body.Computed = p.parseExpr()
		p.expect(token.RPAREN)
		return body
	}
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		var f ast.RecordField
		if p.at(token.IDENT) {
			f.Name = p.cur.Literal
			p.next()
		}
		if p.at(token.COLON) {
			p.next()
			f.Type = p.parseExpr()
		}
		body.Fields = append(body.Fields, f)
		if p.at(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	return body
}

func (p *Parser) parseOptionalGenericParams() []string {
	if !p.at(token.LBRACKET) {
		return nil
	}
	p.next()
	var params []string
	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		if p.at(token.DOTDOT) {
			p.next()
			if p.at(token.IDENT) {
				params = append(params, ".."+p.cur.Literal)
				p.next()
			}
		} else if p.at(token.IDENT) {
			params = append(params, p.cur.Literal)
			p.next()
		}
		if p.at(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RBRACKET)
	return params
}

func (p *Parser) parseVariantDecl(public bool) *ast.VariantDecl {
	d := &ast.VariantDecl{}
	d.Public = public
	if p.atKeyword("open") {
		d.Open = true
		p.next()
	}
	p.expectKeyword("variant")
	if p.at(token.IDENT) {
		d.Name = p.cur.Literal
		p.next()
	}
	d.Params = p.parseOptionalGenericParams()
	if p.expect(token.LPAREN) {
		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			d.Members = append(d.Members, ast.VariantMember{Type: p.parseExpr()})
			if p.at(token.COMMA) {
				p.next()
			}
		}
		p.expect(token.RPAREN)
	}
	p.expect(token.SEMI)
	return d
}

func (p *Parser) parseInstanceDecl(public bool) *ast.InstanceDecl {
	p.next() // 'instance'
	d := &ast.InstanceDecl{}
	d.Public = public
	if p.at(token.IDENT) {
		d.VariantName = p.cur.Literal
		p.next()
	}
	if p.expect(token.LPAREN) {
		d.MemberType = p.parseExpr()
		p.expect(token.RPAREN)
	}
	p.expect(token.SEMI)
	return d
}

func (p *Parser) parseEnumDecl(public bool) *ast.EnumDecl {
	p.next() // 'enum'
	d := &ast.EnumDecl{}
	d.Public = public
	if p.at(token.IDENT) {
		d.Name = p.cur.Literal
		p.next()
	}
	if p.expect(token.LPAREN) {
		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			if p.at(token.IDENT) {
				d.Members = append(d.Members, ast.EnumMember{Name: p.cur.Literal})
				p.next()
			}
			if p.at(token.COMMA) {
				p.next()
			}
		}
		p.expect(token.RPAREN)
	}
	p.expect(token.SEMI)
	return d
}

func (p *Parser) parseGlobalAlias(public bool) *ast.GlobalAlias {
	p.next() // 'alias'
	d := &ast.GlobalAlias{}
	d.Public = public
	if p.at(token.IDENT) {
		d.Name = p.cur.Literal
		p.next()
	}
	p.expect(token.ASSIGN)
	d.Value = p.parseExpr()
	p.expect(token.SEMI)
	return d
}

func (p *Parser) parseGlobalVariable(public bool) *ast.GlobalVariable {
	p.next() // 'var'
	d := &ast.GlobalVariable{}
	d.Public = public
	if p.at(token.IDENT) {
		d.Name = p.cur.Literal
		p.next()
	}
	if p.at(token.COLON) {
		p.next()
		d.Type = p.parseExpr()
	}
	p.expect(token.ASSIGN)
	d.Value = p.parseExpr()
	p.expect(token.SEMI)
	return d
}

// parseProcedure handles both `define name;` (a bare Procedure declaration)
// and `define name(...)...` (sugar for an initial Overload), matching the
// Language's surface grammar where a definition can carry its first body
// inline (spec.md 4.5).
func (p *Parser) parseProcedure(public bool) ast.TopLevel {
	p.next() // 'define'
	name := ""
	if p.at(token.IDENT) || p.at(token.OPIDENT) {
		name = p.cur.Literal
		p.next()
	}
	if p.at(token.SEMI) {
		p.next()
		d := &ast.Procedure{Name: name}
		d.Public = public
		return d
	}
	ov := &ast.Overload{Target: &ast.NameRef{Name: name}}
	ov.Public = public
	ov.Code = p.parseCode()
	return ov
}

func (p *Parser) parseOverload(public bool) *ast.Overload {
	p.next() // 'overload'
	ov := &ast.Overload{}
	ov.Public = public
	if p.atKeyword("default") {
		ov.IsDefault = true
		p.next()
	} else if p.atKeyword("interface") {
		ov.IsInterface = true
		p.next()
	}
	ov.Target = p.parsePrimary()
	ov.Code = p.parseCode()
	return ov
}

func (p *Parser) parseExternal(public bool) ast.TopLevel {
	p.next() // 'external'
	cname := ""
	if p.at(token.STRINGLIT) {
		cname = p.cur.Literal
		p.next()
	}
	name := ""
	if p.at(token.IDENT) {
		name = p.cur.Literal
		p.next()
	}
	if cname == "" {
		cname = name
	}
	attrs := p.parseOptionalAttributes()

	if p.at(token.LPAREN) {
		ext := &ast.ExternalProcedure{Name: name, CName: cname, Attributes: attrs}
		ext.Public = public
		p.next()
		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			if p.at(token.ELLIPSIS) {
				ext.Variadic = true
				p.next()
				break
			}
			var arg ast.FormalArg
			if p.at(token.IDENT) {
				arg.Name = p.cur.Literal
				p.next()
			}
			if p.at(token.COLON) {
				p.next()
				arg.Type = p.parseExpr()
			}
			ext.Args = append(ext.Args, arg)
			if p.at(token.COMMA) {
				p.next()
			}
		}
		p.expect(token.RPAREN)
		if p.at(token.COLON) {
			p.next()
			ext.Return = p.parseExpr()
		}
		p.expect(token.SEMI)
		return ext
	}

	ext := &ast.ExternalVariable{Name: name, CName: cname, Attributes: attrs}
	ext.Public = public
	if p.at(token.COLON) {
		p.next()
		ext.Type = p.parseExpr()
	}
	p.expect(token.SEMI)
	return ext
}

func (p *Parser) parseOptionalAttributes() map[string]string {
	if !p.at(token.LBRACKET) {
		return nil
	}
	p.next()
	attrs := map[string]string{}
	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		if p.at(token.IDENT) {
			key := p.cur.Literal
			p.next()
			val := ""
			if p.at(token.ASSIGN) {
				p.next()
				if p.at(token.STRINGLIT) || p.at(token.IDENT) {
					val = p.cur.Literal
					p.next()
				}
			}
			attrs[key] = val
		}
		if p.at(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RBRACKET)
	return attrs
}

func (p *Parser) parseStaticAssertTopLevel(public bool) *ast.StaticAssertTopLevel {
	p.next() // 'staticassert'
	d := &ast.StaticAssertTopLevel{}
	d.Public = public
	d.Cond = p.parseExpr()
	if p.at(token.COMMA) {
		p.next()
		if p.at(token.STRINGLIT) {
			d.Message = p.cur.Literal
			p.next()
		}
	}
	p.expect(token.SEMI)
	return d
}

func (p *Parser) parseEvalTopLevel(public bool) *ast.EvalTopLevel {
	p.next() // 'eval'
	d := &ast.EvalTopLevel{}
	d.Public = public
	d.Source = p.parseExpr()
	p.expect(token.SEMI)
	return d
}

// publicName/anySymbolName surface the declared-name bookkeeping Module's
// PublicSymbols/AllSymbols need, grounded on the teacher's env-population
// pass which walks the same kind of declaration list.
func publicName(item ast.TopLevel) (string, bool) {
	name, ok := anySymbolName(item)
	if !ok {
		return "", false
	}
	switch t := item.(type) {
	case *ast.RecordDecl:
		return name, t.Public
	case *ast.VariantDecl:
		return name, t.Public
	case *ast.GlobalVariable:
		return name, t.Public
	case *ast.GlobalAlias:
		return name, t.Public
	case *ast.Procedure:
		return name, t.Public
	case *ast.EnumDecl:
		return name, t.Public
	case *ast.ExternalProcedure:
		return name, t.Public
	case *ast.ExternalVariable:
		return name, t.Public
	}
	return "", false
}

func anySymbolName(item ast.TopLevel) (string, bool) {
	switch t := item.(type) {
	case *ast.RecordDecl:
		return t.Name, true
	case *ast.VariantDecl:
		return t.Name, true
	case *ast.GlobalVariable:
		return t.Name, true
	case *ast.GlobalAlias:
		return t.Name, true
	case *ast.Procedure:
		return t.Name, true
	case *ast.EnumDecl:
		return t.Name, true
	case *ast.ExternalProcedure:
		return t.Name, true
	case *ast.ExternalVariable:
		return t.Name, true
	case *ast.IntrinsicSymbol:
		return t.Name, true
	}
	return "", false
}
