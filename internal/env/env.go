// Package env implements lexical name lookup with module/parent chaining
// and module symbol import sets (spec.md 3.6, 4.5).
//
// The teacher's evaluator.Environment (internal/evaluator/environment.go in
// the original funxy tree) guards its map with a sync.RWMutex because its
// LSP server may analyze concurrently; spec.md 5 makes the core core
// explicitly single-threaded and cooperative, so that locking is dropped
// here — this is the one point where the teacher's own idiom is
// intentionally not carried, logged in DESIGN.md.
package env

// Object is anything an environment can bind a name to: a procedure, a
// type, a value, or (for GlobalAlias) an unevaluated expression paired with
// its home environment. Kept as `any` so env has no dependency on ast/types/
// evaluator, which all depend on env.
type Object any

// Env is one lexical scope. Parent is either an enclosing Env or nil at
// module scope, where lookup instead falls through to the owning Module.
type Env struct {
	parent  *Env
	module  *ModuleScope
	entries map[string]Object
}

// ModuleScope is the subset of loader.Module state lookup needs: the
// module's own globals plus the set of symbols visible through its imports
// (spec.md 4.5 "Env lookup").
type ModuleScope struct {
	Globals map[string]Object
	// Imported maps a visible unqualified name to the set of candidate
	// bindings it could resolve to; more than one entry means an import
	// collision, narrowed later by overload resolution (spec.md 4.5).
	Imported map[string][]Object
}

// New creates a fresh top-level Env rooted at a module scope.
func New(mod *ModuleScope) *Env {
	return &Env{module: mod, entries: map[string]Object{}}
}

// NewChild creates a nested scope (a block, a lambda body, an overload's
// bound pattern vars).
func NewChild(parent *Env) *Env {
	return &Env{parent: parent, module: parent.module, entries: map[string]Object{}}
}

// Bind introduces or shadows a local name in this scope.
func (e *Env) Bind(name string, obj Object) {
	e.entries[name] = obj
}

// Lookup walks local entries -> parent env -> module globals -> module
// import set, matching spec.md 4.5 exactly. ok is false only when no
// binding exists anywhere in the chain; a name that resolves to more than
// one import candidate still returns ok=true with an ImportSet Object (the
// caller — overload resolution — is responsible for narrowing it).
func (e *Env) Lookup(name string) (Object, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if obj, ok := cur.entries[name]; ok {
			return obj, true
		}
	}
	if e.module == nil {
		return nil, false
	}
	if obj, ok := e.module.Globals[name]; ok {
		return obj, true
	}
	if cands, ok := e.module.Imported[name]; ok {
		if len(cands) == 1 {
			return cands[0], true
		}
		return ImportSet(cands), true
	}
	return nil, false
}

// ImportSet is what Lookup returns when an unqualified name resolves to
// more than one imported candidate (spec.md 4.5 "Import collisions resolve
// to an ImportSet of candidates").
type ImportSet []Object

// Update rebinds an existing name in the nearest enclosing scope that
// already has it (used for `var`-introduced locals on assignment); it never
// reaches into the module scope, which is write-once outside the loader.
func (e *Env) Update(name string, obj Object) bool {
	for cur := e; cur != nil; cur = cur.parent {
		if _, ok := cur.entries[name]; ok {
			cur.entries[name] = obj
			return true
		}
	}
	return false
}

// Module returns the owning ModuleScope, or nil for an Env with none
// (practically never, since New always takes one).
func (e *Env) Module() *ModuleScope { return e.module }
