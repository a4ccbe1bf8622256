package main

import (
	"fmt"
	"strings"

	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/diagnostics"
	"github.com/clay-lang/clayc/internal/env"
	"github.com/clay-lang/clayc/internal/invoke"
	"github.com/clay-lang/clayc/internal/loader"
	"github.com/clay-lang/clayc/internal/source"
	"github.com/clay-lang/clayc/internal/types"
)

// Registry installs a loaded module's top-level declarations into an
// env.Env, the piece the teacher leaves to its own modules.Environment
// builder (moduleIR.go) but which here has to additionally route
// Procedure/Overload names through a shared invoke.Table and decide, per
// declaration kind, what env.Object a name resolves to (spec.md 4.5 "install
// top-level symbols").
//
// A Procedure's *invoke.Table is reached by every Overload that targets it
// purely through ordinary name lookup/import resolution — the same object
// reference flows into an importing module's env.Imported set, so two
// modules extending the same callable see one Table without this registry
// needing its own separate name-keyed index.
type Registry struct {
	installed map[*ast.Module]*env.Env
	variants  map[*ast.VariantDecl]bool // InstanceDecl source-order bookkeeping
	prelude   *env.Env
}

func NewRegistry() *Registry {
	return &Registry{installed: map[*ast.Module]*env.Env{}, variants: map[*ast.VariantDecl]bool{}}
}

// InstallPrelude installs the synthetic prelude module (prelude.go) and
// records its Env so every later InstallModule call implicitly imports it
// (spec.md 4.5 "Resolve intrinsic/prelude references"), without the loader
// itself needing to know the prelude exists.
func (r *Registry) InstallPrelude(ld *loader.Loader) (*env.Env, error) {
	mod := preludeModule()
	e, err := r.InstallModule(ld, mod)
	if err != nil {
		return nil, err
	}
	r.prelude = e
	return e, nil
}

// externalBoundary marks an ExternalProcedure/ExternalVariable name: the
// C-ABI classifier collaborator (spec.md 1) picks a calling convention and
// layout for these, out of this module's scope, so dispatch.go only needs
// to recognize the marker well enough to report a clear diagnostic if one
// is ever called directly from compile-time evaluation.
type externalBoundary struct {
	Name string
}

// InstallModule builds mod's Env, installing every import first (imports
// are already fully loaded and desugared by internal/loader.Load before
// InstallModule is ever called on a module that names them).
func (r *Registry) InstallModule(ld *loader.Loader, mod *ast.Module) (*env.Env, error) {
	if e, ok := r.installed[mod]; ok {
		return e, nil
	}
	for _, imp := range mod.Imports {
		impMod, ok := ld.ModuleByName(lastSegment(imp.Path))
		if !ok {
			return nil, diagnostics.NewImportError(source.Location{}, "cannot resolve import %q", strings.Join(imp.Path, "."))
		}
		if _, err := r.InstallModule(ld, impMod); err != nil {
			return nil, err
		}
	}

	globals := map[string]env.Object{}
	imported := map[string][]env.Object{}
	modEnv := loader.NewModuleEnv(mod, globals, imported)

	if r.prelude != nil && mod.Name != "prelude" {
		for name, obj := range r.prelude.Module().Globals {
			imported[name] = append(imported[name], obj)
		}
	}

	for _, imp := range mod.Imports {
		impMod, _ := ld.ModuleByName(lastSegment(imp.Path))
		impEnv := r.installed[impMod]
		r.importSymbols(imp, impMod, impEnv, imported)
	}

	// Pass 1: every declaration except Overload, so an Overload's Target
	// (almost always a bare NameRef to a sibling Procedure) always finds a
	// fully-installed binding regardless of source order within the module.
	for _, item := range mod.TopLevelItems {
		if err := r.installOne(modEnv, globals, item); err != nil {
			return nil, err
		}
	}
	// Pass 2: Overload, now that every Procedure name in scope resolves.
	for _, item := range mod.TopLevelItems {
		ov, ok := item.(*ast.Overload)
		if !ok {
			continue
		}
		if err := r.installOverload(modEnv, ov); err != nil {
			return nil, err
		}
	}

	r.installed[mod] = modEnv
	return modEnv, nil
}

// InstallExpanded installs items freshly produced by an EvalTopLevel splice
// (spec.md 4.8 "eval top level") into modEnv's own globals, reusing the same
// pass-1/pass-2 ordering InstallModule uses for a module's original
// TopLevelItems so a spliced Overload can still target a spliced Procedure
// regardless of their order within the expansion.
func (r *Registry) InstallExpanded(modEnv *env.Env, items []ast.TopLevel) error {
	globals := modEnv.Module().Globals
	for _, item := range items {
		if err := r.installOne(modEnv, globals, item); err != nil {
			return err
		}
	}
	for _, item := range items {
		if ov, ok := item.(*ast.Overload); ok {
			if err := r.installOverload(modEnv, ov); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) importSymbols(imp ast.ImportSpec, impMod *ast.Module, impEnv *env.Env, imported map[string][]env.Object) {
	if impEnv == nil {
		return
	}
	scope := impEnv.Module()
	switch {
	case imp.Star:
		for name := range impMod.PublicSymbols {
			if obj, ok := scope.Globals[name]; ok {
				imported[name] = append(imported[name], obj)
			}
		}
	case len(imp.Symbols) > 0:
		for _, name := range imp.Symbols {
			if obj, ok := scope.Globals[name]; ok {
				imported[name] = append(imported[name], obj)
			}
		}
	}
	// A plain `import foo.bar;` with neither `*` nor an explicit symbol list
	// brings only the dotted module reference into scope, already resolved
	// by internal/loader's desugar pass (FieldRef -> ObjectExpr); nothing
	// further is added to env.Imported for that form.
}

func (r *Registry) installOne(modEnv *env.Env, globals map[string]env.Object, item ast.TopLevel) error {
	switch x := item.(type) {
	case *ast.IntrinsicSymbol:
		globals[x.Name] = intrinsicValue(x.Name)
	case *ast.Procedure:
		globals[x.Name] = &invoke.Table{}
	case *ast.RecordDecl:
		if len(x.Params) == 0 {
			globals[x.Name] = types.NewRecord(x, nil)
		} else {
			globals[x.Name] = x
		}
	case *ast.VariantDecl:
		if len(x.Params) == 0 {
			globals[x.Name] = types.NewVariant(x, nil)
		} else {
			globals[x.Name] = x
		}
	case *ast.InstanceDecl:
		// Nothing to bind by name; the extension itself is recorded once all
		// of this module's declarations (and hence the target VariantDecl,
		// whether declared here or imported) are visible.
		return r.installInstance(modEnv, x)
	case *ast.EnumDecl:
		globals[x.Name] = types.NewEnum(x)
	case *ast.GlobalVariable:
		// Bound the same way as GlobalAlias: both analyzer.analyzeNameRef and
		// evaluator.evalNameRef already know how to resolve a name bound to an
		// *ast.ForeignExpr (analyze/evaluate Inner in HomeEnv), so a dedicated
		// global-storage-cell type isn't needed. This means a GlobalVariable's
		// initializer re-runs on every reference rather than once — a real
		// single-initialization global would instead cache one ValueHolder the
		// first time loader.Initializer runs it; recorded in DESIGN.md.
		globals[x.Name] = &ast.ForeignExpr{Inner: x.Value, HomeEnv: modEnv}
	case *ast.GlobalAlias:
		globals[x.Name] = &ast.ForeignExpr{Inner: x.Value, HomeEnv: modEnv}
	case *ast.ExternalProcedure:
		globals[x.Name] = &externalBoundary{Name: x.Name}
	case *ast.ExternalVariable:
		globals[x.Name] = &externalBoundary{Name: x.Name}
	case *ast.Overload, *ast.EvalTopLevel, *ast.StaticAssertTopLevel, *ast.Documentation:
		// Overload is installed in pass 2; the rest are effects with no name
		// to bind, run by the loader.Initializer the CLI driver supplies.
	default:
		return fmt.Errorf("registry: unhandled top-level kind %T", x)
	}
	return nil
}

func (r *Registry) installInstance(modEnv *env.Env, inst *ast.InstanceDecl) error {
	obj, ok := modEnv.Lookup(inst.VariantName)
	if !ok {
		return diagnostics.NewLookupError(inst.Loc(), "instance extends undeclared variant %q", inst.VariantName)
	}
	decl, ok := variantDeclOf(obj)
	if !ok {
		return diagnostics.NewTypeError(inst.Loc(), "%q is not an open variant", inst.VariantName)
	}
	if !decl.Open {
		return diagnostics.NewTypeError(inst.Loc(), "variant %q is not declared open", inst.VariantName)
	}
	// Source order within the defining module, then load order across
	// modules (spec.md 9 Open Questions) falls out for free here: this runs
	// once per InstanceDecl, in the order internal/loader visits modules and
	// installOne visits a module's own TopLevelItems.
	decl.Members = append(decl.Members, ast.VariantMember{Type: inst.MemberType})
	return nil
}

func variantDeclOf(obj env.Object) (*ast.VariantDecl, bool) {
	switch v := obj.(type) {
	case *ast.VariantDecl:
		return v, true
	case *types.Variant:
		return v.Decl, true
	default:
		return nil, false
	}
}

func (r *Registry) installOverload(modEnv *env.Env, ov *ast.Overload) error {
	nr, ok := ov.Target.(*ast.NameRef)
	if !ok {
		return diagnostics.NewTypeError(ov.Loc(), "overload target must be a plain name")
	}
	obj, ok := modEnv.Lookup(nr.Name)
	if !ok {
		return diagnostics.NewLookupError(ov.Loc(), "overload attaches to undeclared procedure %q", nr.Name)
	}
	table, ok := obj.(*invoke.Table)
	if !ok {
		return diagnostics.NewTypeError(ov.Loc(), "%q is not a procedure", nr.Name)
	}
	if ov.IsInterface {
		table.AddInterface(ov, modEnv)
		return nil
	}
	table.Add(ov, modEnv)
	return nil
}

func lastSegment(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

