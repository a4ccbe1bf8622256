package ast

// Tempness selects how a formal argument binds to its actual (spec.md 3.2,
// GLOSSARY).
type Tempness int

const (
	Dontcare Tempness = iota
	Lvalue
	Rvalue
	Forward
)

// FormalArg is one parameter of a Code: a name, an optional type pattern
// expression, a tempness, and variadic/as-conversion flags.
type FormalArg struct {
	Name     string
	Type     Expression // nil if unconstrained
	Tempness Tempness
	Variadic bool
	AsType   Expression // non-nil if the arg carries an `as T` conversion
}

// ReturnSpec is one declared return slot: a type pattern and whether it is
// returned by reference.
type ReturnSpec struct {
	Type  Expression
	ByRef bool
}

// Code is the body bundle shared by Procedure and Overload declarations
// (spec.md 3.2). PatternVars/MultiPatternVars name the `[T, ..Ts]` slots a
// unification cell will be created for per invocation (spec.md 3.5).
type Code struct {
	PatternVars      []string
	MultiPatternVars []string // trailing `..Ts` style vars
	Predicate        Expression // nil if absent; must evaluate to bool at compile time
	FormalArgs       []FormalArg
	VariadicArg      *FormalArg // nil if the arg list is fixed-arity
	ReturnSpecs      []ReturnSpec
	VarReturnSpec    *ReturnSpec
	Body             Statement // nil if LLVMBody is set
	LLVMBody         string    // raw __llvm__ text, mutually exclusive with Body
}
