// Package ast holds the tagged tree of nodes produced by internal/parser
// (spec.md 3.2). Node kinds are a closed set of concrete struct types; code
// that must handle every kind does so with an exhaustive type switch rather
// than a hand-rolled visitor — the teacher's ast package uses Accept(Visitor)
// double dispatch, but the Language's node set is wide enough (five families,
// dozens of kinds) that a visitor interface would mean one method per kind on
// every caller. A type switch gives the same "exhaustive match" design-note 9
// asks for with far less boilerplate, and is itself a teacher idiom: the
// parser dispatches on token kind with a plain switch the same way.
package ast

import "github.com/clay-lang/clayc/internal/source"

// Node is the base interface for every AST node.
type Node interface {
	Loc() source.Location
	SetLoc(source.Location)
}

// Expression is a Node occupying expression position. Every expression
// caches its analyzer result (spec.md 3.2); the cache lives on the node
// itself so repeated analysis in the same env is free (spec.md 4.8).
type Expression interface {
	Node
	exprNode()
}

// Statement is a Node occupying statement position.
type Statement interface {
	Node
	stmtNode()
}

// TopLevel is a Node at module scope.
type TopLevel interface {
	Node
	topLevelNode()
}

type base struct {
	At source.Location
}

func (b base) Loc() source.Location { return b.At }

// SetLoc is called once by internal/parser right after each node is built,
// attaching the token's start offset (spec.md 4.2 "attaches start/end
// locations"). A pointer receiver so it is promoted onto every concrete
// node type's pointer form, which is the only form the parser ever
// constructs.
func (b *base) SetLoc(at source.Location) { b.At = at }
