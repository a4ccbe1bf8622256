// Command clayc drives the semantic core (spec.md 6 "CLI driver"): load a
// module graph, install its symbols, run global initializers, then either
// type-check every overload body (clayc check) or evaluate a named
// compile-time procedure (clayc eval), mirroring the teacher's cmd/funxy
// hand-rolled os.Args subcommand dispatch rather than the stdlib flag
// package, since this compiler's "subcommand, then positional args, then
// --flag=value options" shape is the same one the teacher's CLI uses.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clay-lang/clayc/internal/analyzer"
	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/backend"
	"github.com/clay-lang/clayc/internal/cache"
	"github.com/clay-lang/clayc/internal/compilectx"
	"github.com/clay-lang/clayc/internal/config"
	"github.com/clay-lang/clayc/internal/diagnostics"
	"github.com/clay-lang/clayc/internal/env"
	"github.com/clay-lang/clayc/internal/evaluator"
	"github.com/clay-lang/clayc/internal/loader"
	"github.com/clay-lang/clayc/internal/parser"
	"github.com/clay-lang/clayc/internal/source"
	"github.com/clay-lang/clayc/internal/types"
)

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	entryPath := os.Args[2]
	optArgs := os.Args[3:]
	if cmd == "eval" && len(optArgs) > 0 {
		optArgs = optArgs[1:] // the procName positional argument
	}
	opts, err := parseOptions(optArgs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sink := diagnostics.NewStderrSink()
	c, err := newCompiler(entryPath, opts)
	if err != nil {
		sink.Report(asDiagnostic(err))
		os.Exit(1)
	}

	switch cmd {
	case "check":
		ok := c.check(sink)
		if !ok {
			os.Exit(1)
		}
	case "eval":
		if len(os.Args) < 4 {
			usage()
			os.Exit(1)
		}
		if err := c.evalNamed(os.Args[3]); err != nil {
			sink.Report(asDiagnostic(err))
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s check <entry.clay> [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "       %s eval <entry.clay> <procName> [options]\n", os.Args[0])
}

// asDiagnostic wraps a plain Go error (e.g. os.ReadFile failure, a yaml
// parse error from config.LoadProject) so it still flows through the same
// Sink every typed diagnostics.Diagnostic does.
type wrappedErr struct{ err error }

func (w wrappedErr) Error() string          { return w.err.Error() }
func (w wrappedErr) Loc() source.Location   { return source.Location{} }
func (w wrappedErr) Kind() string           { return "error" }

func asDiagnostic(err error) diagnostics.Diagnostic {
	if d, ok := err.(diagnostics.Diagnostic); ok {
		return d
	}
	return wrappedErr{err}
}

// options collects every --flag=value clayc accepts, parsed by hand the way
// the teacher's cmd/funxy parses its own trailing arguments rather than
// through the stdlib flag package (spec.md 6's CLI surface is a thin shell
// over the core, not its own subsystem worth a dependency).
type options struct {
	searchPath      []string
	project         string
	noCache         bool
	fullMatchErrors bool
	logMatch        string
	cacheDB         string
	backendTarget   string
	backendProto    string
}

func parseOptions(args []string) (options, error) {
	var o options
	for _, a := range args {
		switch {
		case a == "--no-cache":
			o.noCache = true
		case a == "--full-match-errors":
			o.fullMatchErrors = true
		case strings.HasPrefix(a, "--search-path="):
			o.searchPath = append(o.searchPath, strings.TrimPrefix(a, "--search-path="))
		case strings.HasPrefix(a, "--project="):
			o.project = strings.TrimPrefix(a, "--project=")
		case strings.HasPrefix(a, "--log-match="):
			o.logMatch = strings.TrimPrefix(a, "--log-match=")
		case strings.HasPrefix(a, "--cache-db="):
			o.cacheDB = strings.TrimPrefix(a, "--cache-db=")
		case strings.HasPrefix(a, "--backend-target="):
			o.backendTarget = strings.TrimPrefix(a, "--backend-target=")
		case strings.HasPrefix(a, "--backend-proto="):
			o.backendProto = strings.TrimPrefix(a, "--backend-proto=")
		default:
			return o, fmt.Errorf("clayc: unrecognized option %q", a)
		}
	}
	return o, nil
}

// compiler bundles every wiring-layer piece one compilation run needs: the
// loader and its shared recursion stack, the Registry that installs symbols,
// the analyzer/evaluator pair and their CallResolver/CallDispatcher
// implementations, and (when configured) the cross-run match cache and the
// external backend handoff client.
type compiler struct {
	project  *config.Project
	stack    *compilectx.Stack
	ld       *loader.Loader
	reg      *Registry
	an       *analyzer.Analyzer
	ev       *evaluator.Evaluator
	res      *resolver
	entry    *ast.Module
	store    *cache.Store
	schema   *backend.Schema
}

func newCompiler(entryPath string, o options) (*compiler, error) {
	project := config.DefaultProject()
	if o.project != "" {
		p, err := config.LoadProject(o.project)
		if err != nil {
			return nil, err
		}
		project = p
	}
	config.DisableAnalyzerCache = o.noCache
	config.FullMatchErrors = o.fullMatchErrors
	if o.logMatch != "" {
		config.LogMatchSymbols = o.logMatch
	}

	searchPath := append(append([]string{}, project.SearchPath...), o.searchPath...)
	searchPath = append(searchPath, filepath.Dir(entryPath))

	stack := compilectx.New()
	p := parser.New()
	ld := loader.New(searchPath, p)
	ld.Stack = stack

	entry, err := ld.Load(entryPath)
	if err != nil {
		return nil, err
	}

	reg := NewRegistry()
	if _, err := reg.InstallPrelude(ld); err != nil {
		return nil, err
	}
	if _, err := reg.InstallModule(ld, entry); err != nil {
		return nil, err
	}

	pc := &patternCompiler{}
	disp := &dispatcher{PC: pc}
	ev := &evaluator.Evaluator{Dispatch: disp, Splice: newSplicer()}
	pc.Eval = ev

	an := analyzer.New(stack, nil)
	an.CacheDisabled = config.DisableAnalyzerCache
	res := &resolver{An: an, PC: pc, Ev: ev}
	an.Resolve = res

	cacheDB := o.cacheDB
	if cacheDB == "" {
		cacheDB = project.CacheDB
	}
	var store *cache.Store
	if cacheDB != "" && !o.noCache {
		s, err := cache.Open(cacheDB)
		if err != nil {
			return nil, err
		}
		store = s
		res.Cache = store
		res.SourceHash = sourceHash(ld)
	}

	backendTarget := o.backendTarget
	if backendTarget == "" {
		backendTarget = project.BackendTarget
	}
	var schema *backend.Schema
	if backendTarget != "" && o.backendProto != "" {
		s, err := backend.LoadSchema(o.backendProto, searchPath)
		if err != nil {
			return nil, err
		}
		schema = s
	}

	c := &compiler{
		project: project, stack: stack, ld: ld, reg: reg,
		an: an, ev: ev, res: res, entry: entry, store: store, schema: schema,
	}

	if err := ld.InitializeAll(entry, c.initModule); err != nil {
		return nil, err
	}
	return c, nil
}

// initModule runs one module's GlobalVariable/EvalTopLevel/StaticAssertTopLevel
// effects (spec.md 4.5 step 5), wired as a loader.Initializer. GlobalVariable
// bodies are evaluated once here purely to surface initializer errors early;
// the ForeignExpr binding registry.go installs still re-evaluates them lazily
// per reference (a documented simplification), so this pass never caches the
// result anywhere.
func (c *compiler) initModule(mod *ast.Module) error {
	e, ok := mod.Env.(*env.Env)
	if !ok {
		return fmt.Errorf("clayc: module %q has no installed environment", mod.Name)
	}
	return c.runEffects(mod.TopLevelItems, e)
}

func (c *compiler) runEffects(items []ast.TopLevel, e *env.Env) error {
	for _, item := range items {
		switch x := item.(type) {
		case *ast.GlobalVariable:
			if _, err := c.ev.EvalOne(x.Value, e); err != nil {
				return fmt.Errorf("initializing %q: %w", x.Name, err)
			}
		case *ast.EvalTopLevel:
			v, err := c.ev.EvalOne(x.Source, e)
			if err != nil {
				return err
			}
			text, ok := v.Value.Data.(string)
			if !ok {
				return diagnostics.NewEvalError(x.Loc(), "eval top-level source is not a static string")
			}
			sp, ok := c.ev.Splice.(*splicer)
			var items []ast.TopLevel
			if ok {
				items, err = sp.SpliceTopLevel(text, x.Loc())
			} else {
				err = fmt.Errorf("clayc: splicer does not support top-level expansion")
			}
			if err != nil {
				return err
			}
			x.Expanded = items
			if err := c.reg.InstallExpanded(e, items); err != nil {
				return err
			}
			if err := c.runEffects(items, e); err != nil {
				return err
			}
		case *ast.StaticAssertTopLevel:
			v, err := c.ev.EvalOne(x.Cond, e)
			if err != nil {
				return err
			}
			ok, _ := v.Value.Data.(bool)
			if !ok {
				msg := x.Message
				if msg == "" {
					msg = "static assertion failed"
				}
				return diagnostics.NewStaticAssertError(x.Loc(), "%s", msg)
			}
		}
	}
	return nil
}

// check type-analyzes every Overload body reachable from c.entry's module
// graph, reporting every diagnostic it finds through sink (spec.md 4.9/4.10's
// "a call with no matching overload reports every candidate's rejection
// reason" surfaces here via diagnostics.MatchError's Candidates).
func (c *compiler) check(sink *diagnostics.Sink) bool {
	ok := true
	for _, mod := range c.loadedModules() {
		e, isEnv := mod.Env.(*env.Env)
		if !isEnv {
			continue
		}
		for _, item := range mod.TopLevelItems {
			ov, isOv := item.(*ast.Overload)
			if !isOv {
				continue
			}
			bodyEnv := c.overloadBodyEnv(ov, e)
			ctx := &analyzer.StmtContext{}
			if _, err := c.an.AnalyzeStatement(ov.Code.Body, bodyEnv, ctx); err != nil {
				sink.Report(asDiagnostic(err))
				ok = false
			}
		}
	}
	return ok
}

// overloadBodyEnv binds an overload's formal argument names as plain locals
// the same way analyzeBinding/InitAssignment already bind every other local
// variable in this package (directly to a types.Type, not to a runtime
// value — analyzer.analyzeNameRef only ever resolves a local name through
// its `case types.Type` arm), so a `check` pass can walk a body's statements
// without a concrete call's arguments on hand. An argument with no declared
// type pattern, or one analyzer can't resolve to a concrete type ahead of a
// real call (e.g. a pattern variable only bound inside invoke.MatchInvoke),
// binds to a nil types.Type; this is necessarily approximate for any body
// that inspects an argument's static structure rather than just its
// declared type, recorded in DESIGN.md.
func (c *compiler) overloadBodyEnv(ov *ast.Overload, modEnv *env.Env) *env.Env {
	bodyEnv := env.NewChild(modEnv)
	for _, fa := range ov.Code.FormalArgs {
		if fa.Name == "" {
			continue
		}
		bodyEnv.Bind(fa.Name, c.formalArgType(fa, modEnv))
	}
	return bodyEnv
}

// formalArgType analyzes fa's declared type pattern to a concrete types.Type,
// unwrapping the *types.Static a type-denoting NameRef analyzes to the same
// way resolver.typePatternPV does for a matched overload's return type.
func (c *compiler) formalArgType(fa ast.FormalArg, e *env.Env) types.Type {
	if fa.Type == nil {
		return nil
	}
	pv, err := c.an.One(fa.Type, e)
	if err != nil {
		return nil
	}
	if st, ok := pv.Type.(*types.Static); ok {
		if sw, ok := st.Obj.(analyzer.StaticTypeWrap); ok {
			return sw.T
		}
	}
	return nil
}

// evalNamed runs a declared nullary compile-time procedure attached to name,
// printing every value it returns — the CLI's hook for exercising the
// evaluator end to end without a backend. It reuses ev.EvalExpr's own call
// path (NameRef lookup, argument evaluation, CallDispatcher.Dispatch) rather
// than re-finding the invoke.Table entry itself.
func (c *compiler) evalNamed(name string) error {
	e, ok := c.entry.Env.(*env.Env)
	if !ok {
		return fmt.Errorf("clayc: entry module has no installed environment")
	}
	if _, ok := e.Lookup(name); !ok {
		return fmt.Errorf("clayc: undefined name %q", name)
	}
	out, err := c.ev.EvalExpr(&ast.Call{Target: &ast.NameRef{Name: name}}, e)
	if err != nil {
		return err
	}
	for _, v := range out {
		fmt.Println(v.Value)
	}
	return nil
}

// loadedModules returns every module the loader has parsed, in a stable
// sorted order (this check pass wants a deterministic walk order across a
// run, not map-iteration order).
func (c *compiler) loadedModules() []*ast.Module {
	names := c.ld.SortedNames()
	mods := make([]*ast.Module, 0, len(names))
	for _, n := range names {
		if m, ok := c.ld.ModuleByName(n); ok {
			mods = append(mods, m)
		}
	}
	return mods
}

// sourceHash digests every loaded module's name and the source text its
// top-level items were parsed from, so a changed file invalidates the whole
// run's cache.Store entries rather than serving a stale match result
// computed against different source (spec.md 4.8 "Caching" — result
// validity is tied to source, not just the key).
func sourceHash(ld *loader.Loader) string {
	names := ld.SortedNames()
	h := sha256.New()
	seen := map[*source.Source]bool{}
	for _, n := range names {
		mod, ok := ld.ModuleByName(n)
		if !ok {
			continue
		}
		fmt.Fprintf(h, "%s\n", mod.Name)
		for _, item := range mod.TopLevelItems {
			if src := item.Loc().Src; src != nil && !seen[src] {
				seen[src] = true
				h.Write(src.Data)
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
