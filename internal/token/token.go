// Package token defines the lexical token kinds produced by internal/lexer
// and consumed by internal/parser (spec.md 4.1-4.2).
package token

import "github.com/clay-lang/clayc/internal/source"

// Kind is the lexical category of a Token.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	IDENT     // foo, Foo_bar
	OPIDENT   // +, <=, user-defined operator identifiers
	KEYWORD   // define, overload, record, variant, ...
	INT       // 123, 0x1F, 1_000u32
	FLOAT     // 1.5, 1.5f32
	CHARLIT   // 'a'
	STRINGLIT // "..." or """..."""
	STATICIDX // .12

	LLVMBLOCK // __llvm__ { ... } raw text

	DOC_START    // /// or /**
	DOC_PROPERTY // @section, @module, ...
	DOC_TEXT
	DOC_END

	// punctuation / operators, carried as their own kinds so the parser's
	// VariadicOp node can hold a flat token list (spec.md 4.2).
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	SEMI
	COLON
	DOT
	DOTDOT
	ELLIPSIS
	ARROW    // ->
	ASSIGN   // =
	QUESTION // ?
	AMP      // &
	STAR     // *
	BANG     // !
	PIPE     // |
	ANDAND   // and
	OROR     // or
)

// Keywords recognized by the lexer. Anything else lexes as IDENT.
var Keywords = map[string]Kind{
	"define": KEYWORD, "overload": KEYWORD, "record": KEYWORD, "variant": KEYWORD,
	"instance": KEYWORD, "external": KEYWORD, "alias": KEYWORD, "import": KEYWORD,
	"in": KEYWORD, "enum": KEYWORD, "var": KEYWORD, "ref": KEYWORD, "forward": KEYWORD,
	"return": KEYWORD, "if": KEYWORD, "else": KEYWORD, "while": KEYWORD, "for": KEYWORD,
	"break": KEYWORD, "continue": KEYWORD, "goto": KEYWORD, "switch": KEYWORD,
	"case": KEYWORD, "default": KEYWORD, "try": KEYWORD, "catch": KEYWORD,
	"throw": KEYWORD, "finally": KEYWORD, "onerror": KEYWORD, "static": KEYWORD,
	"staticfor": KEYWORD, "staticassert": KEYWORD, "eval": KEYWORD,
	"unreachable": KEYWORD, "and": ANDAND, "or": OROR, "true": KEYWORD, "false": KEYWORD,
	"open": KEYWORD, "module": KEYWORD, "as": KEYWORD, "public": KEYWORD, "private": KEYWORD,
	"interface": KEYWORD,
}

// Token is one lexical unit with its source location.
type Token struct {
	Kind    Kind
	Lexeme  string // raw source text
	Literal string // normalized value (e.g. string contents after escapes)
	Loc     source.Location
}

func (t Token) String() string {
	if t.Lexeme != "" {
		return t.Lexeme
	}
	return kindNames[t.Kind]
}

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", IDENT: "IDENT", OPIDENT: "OPIDENT",
	KEYWORD: "KEYWORD", INT: "INT", FLOAT: "FLOAT", CHARLIT: "CHAR",
	STRINGLIT: "STRING", STATICIDX: "STATICIDX", LLVMBLOCK: "LLVM",
	DOC_START: "DOC_START", DOC_PROPERTY: "DOC_PROPERTY", DOC_TEXT: "DOC_TEXT", DOC_END: "DOC_END",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}", LBRACKET: "[", RBRACKET: "]",
	COMMA: ",", SEMI: ";", COLON: ":", DOT: ".", DOTDOT: "..", ELLIPSIS: "...",
	ARROW: "->", ASSIGN: "=", QUESTION: "?", AMP: "&", STAR: "*", BANG: "!", PIPE: "|",
	ANDAND: "and", OROR: "or",
}
