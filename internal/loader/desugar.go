package loader

import (
	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/desugar"
)

// importResolver answers internal/desugar's dotted-module-name question
// (spec.md 4.4 "field.name → either a module-qualified reference... or
// fieldRef(...)") using the importing module's own Imports list: a chain
// matches if it is exactly an import's alias (or its last path segment,
// unaliased) possibly followed by more field accesses.
type importResolver struct {
	mod *ast.Module
	l   *Loader
}

func (r *importResolver) ResolveDottedModule(chain []string) (any, bool) {
	if len(chain) == 0 {
		return nil, false
	}
	head := chain[0]
	for _, imp := range r.mod.Imports {
		name := imp.Alias
		if name == "" {
			name = lastSegment(imp.Path)
		}
		if name != head {
			continue
		}
		impMod, ok := r.l.ModuleByName(lastSegment(imp.Path))
		if !ok {
			// Not yet loaded (recursive import cycle); the chain is still a
			// module reference, just not a resolvable one yet.
			return nil, false
		}
		return impMod, true
	}
	return nil, false
}

// desugarModule rewrites mod in place once it has been parsed, before its
// symbols are installed into an env.Env, so every later pass operates on
// the desugared tree exclusively (spec.md 4.4).
func (l *Loader) desugarModule(mod *ast.Module) {
	desugar.RewriteModule(mod, &importResolver{mod: mod, l: l})
}
