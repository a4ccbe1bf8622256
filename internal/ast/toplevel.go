package ast

type topLevelBase struct {
	base
	Public bool
	Doc    *Documentation // nil if undocumented
}

func (topLevelBase) topLevelNode() {}

// RecordBody is either an ordinary field list or a computed field-list
// expression (spec.md 3.2: "RecordBody that may be a computed expression
// list").
type RecordField struct {
	Name string
	Type Expression
}

type RecordBody struct {
	Fields   []RecordField // nil when Computed is set
	Computed Expression    // evaluates at compile time to a field-name/type list
}

type RecordDecl struct {
	topLevelBase
	Name    string
	Params  []string // generic pattern vars in scope for the body
	Body    RecordBody
}

// VariantMember is one arm of a closed variant, or an `instance`-declared
// extension of an open one (spec.md 4.5 "open variant").
type VariantMember struct {
	Type Expression
}

type VariantDecl struct {
	topLevelBase
	Name    string
	Params  []string
	Open    bool
	Members []VariantMember
}

// InstanceDecl extends an `open` variant declared in this or another module
// with one more member type; collection order across modules determines
// VariantMemberIndex (spec.md 9 Open Questions — resolved: source order
// within the defining module, then load order across modules).
type InstanceDecl struct {
	topLevelBase
	VariantName string
	MemberType  Expression
}

type GlobalVariable struct {
	topLevelBase
	Name  string
	Type  Expression // nil if inferred from Value
	Value Expression
}

type GlobalAlias struct {
	topLevelBase
	Name  string
	Value Expression // aliases are never evaluated eagerly; analyzed in their home env on use
}

// Procedure introduces a callable name with no code of its own (`define
// greet;`); Overload attaches one Code to an existing callable target.
type Procedure struct {
	topLevelBase
	Name string
}

type Overload struct {
	topLevelBase
	Target      Expression // the callable this overload attaches to (usually a NameRef)
	IsDefault   bool
	IsInterface bool // attached as the callable's interface overload (spec.md 4.9 step 4); matched first, its failure a hard error
	Code        Code
}

// IntrinsicSymbol names a fixed compiler primitive the prelude binds (spec.md
// 4.5 "Resolve intrinsic/prelude references").
type IntrinsicSymbol struct {
	topLevelBase
	Name string
}

type EnumMember struct {
	Name string
}

type EnumDecl struct {
	topLevelBase
	Name    string
	Members []EnumMember
}

// ExternalProcedure/ExternalVariable declare C-ABI symbols; Attributes
// carries the external linkage/calling-convention hints the C-ABI
// classifier collaborator consumes (spec.md 1, 6 — out of core scope beyond
// this boundary struct).
type ExternalProcedure struct {
	topLevelBase
	Name       string
	CName      string
	Args       []FormalArg
	Variadic   bool
	Return     Expression
	Attributes map[string]string
}

type ExternalVariable struct {
	topLevelBase
	Name       string
	CName      string
	Type       Expression
	Attributes map[string]string
}

type EvalTopLevel struct {
	topLevelBase
	Source   Expression
	Expanded []TopLevel
}

type StaticAssertTopLevel struct {
	topLevelBase
	Cond    Expression
	Message string
}

// Documentation is a `///` or `/** */` block: a sequence of free-text lines
// and `@property` tags (spec.md 4.1).
type DocProperty struct {
	Name string
	Text string
}

type Documentation struct {
	topLevelBase
	Text       string
	Properties []DocProperty
}
