// Package loader resolves import paths to parsed modules, installs their
// top-level symbols, and runs each module's global initializers exactly
// once in dependency order (spec.md 4.5 step 5).
//
// Grounded on the teacher's internal/modules.Loader: a path-keyed cache
// (LoadedModules), a name index (ModulesByName), and a Processing set used
// for O(1) cycle detection during recursive Load calls. Generalized here to
// drive the {before, running, done} initializer state machine design-note 9
// calls for, reporting a diagnostics.RecursionError with the full cycle
// instead of the teacher's flat "circular dependency detected" string.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/compilectx"
	"github.com/clay-lang/clayc/internal/config"
	"github.com/clay-lang/clayc/internal/diagnostics"
	"github.com/clay-lang/clayc/internal/env"
	"github.com/clay-lang/clayc/internal/lexer"
	"github.com/clay-lang/clayc/internal/source"
	"github.com/clay-lang/clayc/internal/token"
	"github.com/clay-lang/clayc/internal/utils"
)

// Parser is the subset of internal/parser's surface the loader depends on,
// declared here to avoid an import cycle (parser depends on ast only,
// loader depends on parser in the real wiring; the interface exists so this
// package's tests can supply a stub).
type Parser interface {
	ParseModule(toks []token.Token, name string) (*ast.Module, error)
}

// Loader resolves module paths to parsed, loaded modules.
type Loader struct {
	SearchPath []string
	Parser     Parser
	Stack      *compilectx.Stack

	byPath map[string]*ast.Module
	byName map[string]*ast.Module
}

// New creates a Loader that searches searchPath (in order) for modules not
// found relative to the importing file.
func New(searchPath []string, p Parser) *Loader {
	return &Loader{
		SearchPath: searchPath,
		Parser:     p,
		Stack:      compilectx.New(),
		byPath:     map[string]*ast.Module{},
		byName:     map[string]*ast.Module{},
	}
}

// Load resolves path to an absolute location, parses it if not already
// cached, and returns the resulting Module without running initializers —
// that happens in a second pass via InitializeAll once the whole import graph
// is loaded (spec.md 4.5 step 5).
func (l *Loader) Load(path string) (*ast.Module, error) {
	absPath, resolveErr := l.resolve(path)
	if resolveErr != nil {
		return nil, resolveErr
	}
	if mod, ok := l.byPath[absPath]; ok {
		return mod, nil
	}

	frame, cycle, ok := l.Stack.Push(compilectx.FrameModuleLoad, absPath, source.Location{})
	if !ok {
		return nil, diagnostics.NewRecursionError(source.Location{}, compilectx.Names(cycle))
	}
	defer l.Stack.Pop()
	_ = frame

	mod, err := l.parseFile(absPath)
	if err != nil {
		return nil, err
	}
	l.byPath[absPath] = mod
	l.byName[mod.Name] = mod

	for _, imp := range mod.Imports {
		impPath := strings.Join(imp.Path, string(filepath.Separator)) + config.SourceFileExt
		if _, err := l.Load(impPath); err != nil {
			return nil, fmt.Errorf("loading import %q from %s: %w", strings.Join(imp.Path, "."), mod.Name, err)
		}
	}

	// Desugaring happens after every import this module names is itself
	// loaded, so desugarFieldRef's dotted-module-name check (spec.md 4.4)
	// can actually find those modules rather than always falling back to a
	// fieldRef() call for a chain that is genuinely a module reference.
	l.desugarModule(mod)

	return mod, nil
}

func (l *Loader) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		if _, err := os.Stat(abs); err == nil {
			return abs, nil
		}
	}
	for _, dir := range l.SearchPath {
		candidate := filepath.Join(dir, path)
		if _, err := os.Stat(candidate); err == nil {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return "", err
			}
			return abs, nil
		}
	}
	return "", fmt.Errorf("loader: module %q not found on search path %v", path, l.SearchPath)
}

func (l *Loader) parseFile(absPath string) (*ast.Module, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	src := source.New(absPath, data)
	toks, lexErr := lexer.New(src).Tokens()
	if lexErr != nil {
		return nil, diagnostics.NewLexError(lexErr.Loc, "%s", lexErr.Msg)
	}
	mod, err := l.Parser.ParseModule(toks, utils.ExtractModuleName(absPath))
	if err != nil {
		return nil, err
	}
	mod.LoadState = ast.LoadBefore
	return mod, nil
}

// ModuleByName looks up an already-loaded module by its bare name, used to
// resolve dotted import paths that refer to a package rather than a file.
func (l *Loader) ModuleByName(name string) (*ast.Module, bool) {
	mod, ok := l.byName[name]
	return mod, ok
}

// Initializer runs one module's top-level GlobalVariable initializers and
// EvalTopLevel/StaticAssertTopLevel effects; supplied by the caller
// (internal/evaluator in the real pipeline) to keep loader decoupled from
// the evaluator package.
type Initializer func(mod *ast.Module) error

// InitializeAll runs run on every loaded module exactly once, in dependency
// order (a module's imports are always initialized before the module
// itself), tracking each module's ast.LoadState (spec.md 4.5 step 5,
// "{before, running, done}") and reporting an initializer cycle as a
// RecursionError that lists the modules along it in order.
func (l *Loader) InitializeAll(entry *ast.Module, run Initializer) error {
	return l.initModule(entry, run, nil)
}

// initModule initializes mod after its imports; chain lists the modules
// whose initialization is in progress, outermost first.
func (l *Loader) initModule(mod *ast.Module, run Initializer, chain []string) error {
	switch mod.LoadState {
	case ast.LoadDone:
		return nil
	case ast.LoadRunning:
		cycle := []string{mod.Name}
		for i, n := range chain {
			if n == mod.Name {
				cycle = append(append([]string{}, chain[i:]...), mod.Name)
				break
			}
		}
		return diagnostics.NewRecursionError(source.Location{}, cycle)
	}
	mod.LoadState = ast.LoadRunning
	chain = append(chain, mod.Name)
	for _, imp := range mod.Imports {
		impName := strings.Join(imp.Path, ".")
		impMod, ok := l.ModuleByName(lastSegment(imp.Path))
		if !ok {
			return diagnostics.NewImportError(source.Location{}, "cannot resolve import %q", impName)
		}
		if err := l.initModule(impMod, run, chain); err != nil {
			return err
		}
	}
	if err := run(mod); err != nil {
		return err
	}
	mod.LoadState = ast.LoadDone
	return nil
}

func lastSegment(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

// NewModuleEnv builds the env.Env for a loaded module once its public
// symbols are known, wiring the env package's ModuleScope to the module's
// globals and its resolved import set (spec.md 4.5 "Env lookup").
func NewModuleEnv(mod *ast.Module, globals map[string]env.Object, imported map[string][]env.Object) *env.Env {
	scope := &env.ModuleScope{Globals: globals, Imported: imported}
	e := env.New(scope)
	mod.Env = e
	return e
}

// SortedNames lists every module loaded so far, sorted by name — used by
// callers building deterministic output (the CLI driver's `check` walk
// order and its source digest).
func (l *Loader) SortedNames() []string {
	names := make([]string, 0, len(l.byName))
	for n := range l.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
