package ast

// ImportSpec is one `import` clause: a dotted module path, optional alias,
// and optional explicit symbol list (spec.md 4.5).
type ImportSpec struct {
	Path    []string // dotted path segments
	Alias   string   // "" if unaliased
	Symbols []string // nil means import the whole module under its name/alias
	Star    bool     // import * : bring all public symbols into scope unqualified
}

// LoadState tracks a module's initializer lifecycle (spec.md 4.5 step 5);
// named Before/Running/Done to match the state machine design-note 9 asks
// for ({Unvisited, InProgress, Done}).
type LoadState int

const (
	LoadBefore LoadState = iota
	LoadRunning
	LoadDone
)

// Module is one parsed, loaded compilation unit (spec.md 3.2).
type Module struct {
	Name                string
	Imports             []ImportSpec
	TopLevelItems       []TopLevel
	ModuleDeclaration   *Documentation // the module-level doc block, if any
	TopLevelLLVM        []string      // verbatim top-level __llvm__ blocks
	Env                 any           // *env.Env; any to avoid ast -> env import cycle
	AttributeBuildFlags map[string]bool
	DefaultIntegerType  string // e.g. "Int32"; empty means the prelude default
	DefaultFloatType    string
	PublicSymbols       map[string]bool
	AllSymbols          []string
	LoadState           LoadState
}
