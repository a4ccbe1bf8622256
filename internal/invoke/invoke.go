// Package invoke implements per-callable invoke tables and the matchInvoke
// algorithm that tries one overload against one call's argument types
// (spec.md 3.7, 4.9, 4.10).
//
// Grounded directly on the original compiler's invoketables.cpp (table
// structure, lazy per-overload pattern initialization with a tri-state
// guard against "unholy recursion") and matchinvoke.cpp (the match
// algorithm itself: callable pattern, arity, per-argument unification,
// variadic tail unification, pattern-var deref into a static env, then the
// predicate check) — reworked around internal/pattern's Trail-based
// reset instead of the original's destructor-run PatternReseter.
package invoke

import (
	"fmt"

	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/clone"
	"github.com/clay-lang/clayc/internal/env"
	"github.com/clay-lang/clayc/internal/pattern"
)

// patternInitState mirrors the original's patternsInitializedState tri-state
// (0 uninitialized, -1 in progress, 1 done), catching the case where
// evaluating an overload's own pattern/predicate recursively re-enters
// initializePatterns for the same overload.
type patternInitState int

const (
	patternUninit patternInitState = iota
	patternInitializing
	patternInit
)

// Entry is one overload installed against a callable target, lazily
// compiled into unification patterns on first use (spec.md 3.7).
type Entry struct {
	Overload *ast.Overload
	HomeEnv  *env.Env // the env the overload declaration was parsed in

	initState    patternInitState
	patternEnv   *env.Env
	callablePat  pattern.Pattern
	argPatterns  []pattern.Pattern // one per fixed formal arg; nil entry means "no type given"
	varArgPat    pattern.MultiPattern
	cells        []*pattern.Cell      // one per non-multi pattern var, in PatternVars order
	multiCells   []*pattern.MultiCell // one per multi pattern var, in PatternVars order
}

// PatternCompiler evaluates a type-pattern-producing expression in an env to
// a pattern.Pattern, supplied by internal/analyzer+evaluator's
// evaluateOnePattern equivalent to keep invoke decoupled from eval.
type PatternCompiler interface {
	CompileOne(expr ast.Expression, e *env.Env) (pattern.Pattern, error)
	CompileMulti(expr ast.Expression, e *env.Env) (pattern.MultiPattern, error)
	// DerefStatic turns a bound cell's object back into an env.Object once
	// matchInvoke needs to bind a pattern var name into the static env.
	DerefStatic(obj any) env.Object
	// EvalPredicate evaluates code's boolean predicate expression in e.
	EvalPredicate(expr ast.Expression, e *env.Env) (bool, error)
}

func (en *Entry) initializePatterns(pc PatternCompiler) error {
	if en.initState == patternInit {
		return nil
	}
	if en.initState == patternInitializing {
		return fmt.Errorf("invoke: recursive pattern initialization for overload at %s", en.Overload.Loc())
	}
	en.initState = patternInitializing

	code := en.Overload.Code
	en.patternEnv = env.NewChild(en.HomeEnv)
	en.cells = make([]*pattern.Cell, 0, len(code.PatternVars))
	en.multiCells = make([]*pattern.MultiCell, 0, len(code.MultiPatternVars))
	for _, name := range code.PatternVars {
		c := pattern.NewCell(name)
		en.cells = append(en.cells, c)
		en.patternEnv.Bind(name, c)
	}
	for _, name := range code.MultiPatternVars {
		mc := pattern.NewMultiCell(name)
		en.multiCells = append(en.multiCells, mc)
		en.patternEnv.Bind(name, mc)
	}

	callablePat, err := pc.CompileOne(en.Overload.Target, en.patternEnv)
	if err != nil {
		return err
	}
	en.callablePat = callablePat

	en.argPatterns = make([]pattern.Pattern, len(code.FormalArgs))
	for i, arg := range code.FormalArgs {
		if arg.Type == nil {
			continue
		}
		p, err := pc.CompileOne(arg.Type, en.patternEnv)
		if err != nil {
			return err
		}
		en.argPatterns[i] = p
	}

	if code.VariadicArg != nil && code.VariadicArg.Type != nil {
		mp, err := pc.CompileMulti(code.VariadicArg.Type, en.patternEnv)
		if err != nil {
			return err
		}
		en.varArgPat = mp
	}

	en.initState = patternInit
	return nil
}

// ResultKind enumerates why matchInvoke did or didn't succeed (spec.md 4.10
// "MatchResult", mirroring the original's MATCH_* enum for diagnostics).
type ResultKind int

const (
	MatchSuccess ResultKind = iota
	MatchCallableError
	MatchArityError
	MatchArgumentError
	MatchMultiArgumentError
	MatchPredicateError
)

// Result is matchInvoke's outcome: either a fully-resolved call site
// (Kind == MatchSuccess) or a typed rejection reason used to build a
// diagnostics.MatchError when every overload for a call fails.
type Result struct {
	Kind ResultKind

	// Populated on MatchSuccess.
	Code        ast.Code
	StaticEnv   *env.Env
	FixedArgTypes []any
	VarArgTypes   []any

	// Populated on rejection, one set per Kind.
	ArgIndex      int
	ExpectedArgs  int
	GotArgs       int
	Variadic      bool
}

func (r *Result) String() string {
	switch r.Kind {
	case MatchSuccess:
		return "matched"
	case MatchCallableError:
		return "callable pattern did not match"
	case MatchArityError:
		if r.Variadic {
			return fmt.Sprintf("incorrect number of arguments: expected at least %d, got %d", r.ExpectedArgs, r.GotArgs)
		}
		return fmt.Sprintf("incorrect number of arguments: expected %d, got %d", r.ExpectedArgs, r.GotArgs)
	case MatchArgumentError:
		return fmt.Sprintf("argument pattern did not match type of argument %d", r.ArgIndex+1)
	case MatchMultiArgumentError:
		return fmt.Sprintf("variadic argument pattern did not match arguments starting at %d", r.ArgIndex+1)
	case MatchPredicateError:
		return "predicate failed"
	default:
		return "unknown match result"
	}
}

// MatchInvoke tries one overload entry against callable and argsKey,
// following the original's order exactly: lazily compile patterns, unify
// the callable pattern, check arity, unify each fixed argument, unify the
// variadic tail, deref every pattern var into a fresh static env, then
// evaluate the predicate in that env. The trail is reset by a deferred call
// when MatchInvoke returns, so the next overload tried starts clean.
func MatchInvoke(en *Entry, pc PatternCompiler, callable any, argsKey []any) (*Result, error) {
	if err := en.initializePatterns(pc); err != nil {
		return nil, err
	}

	trail := &pattern.Trail{}
	defer trail.Reset()

	if !pattern.Unify(en.callablePat, callable, trail) {
		return &Result{Kind: MatchCallableError}, nil
	}

	code := en.Overload.Code
	fixed := len(code.FormalArgs)
	if code.VariadicArg != nil {
		if len(argsKey) < fixed {
			return &Result{Kind: MatchArityError, ExpectedArgs: fixed, GotArgs: len(argsKey), Variadic: true}, nil
		}
	} else if len(argsKey) != fixed {
		return &Result{Kind: MatchArityError, ExpectedArgs: fixed, GotArgs: len(argsKey), Variadic: false}, nil
	}

	for i := 0; i < fixed; i++ {
		p := en.argPatterns[i]
		if p == nil {
			continue
		}
		if !pattern.Unify(p, argsKey[i], trail) {
			return &Result{Kind: MatchArgumentError, ArgIndex: i}, nil
		}
	}

	if code.VariadicArg != nil && en.varArgPat != nil {
		rest := argsKey[fixed:]
		if !pattern.UnifyMulti(en.varArgPat, rest, trail) {
			return &Result{Kind: MatchMultiArgumentError, ArgIndex: fixed}, nil
		}
	}

	staticEnv := env.NewChild(en.HomeEnv)
	for i, name := range code.PatternVars {
		v, ok := pattern.DerefDeep(en.cells[i])
		if !ok {
			return nil, fmt.Errorf("invoke: unbound pattern variable %q at %s", name, en.Overload.Loc())
		}
		staticEnv.Bind(name, pc.DerefStatic(v))
	}
	for i, name := range code.MultiPatternVars {
		v, ok := pattern.DerefDeepMulti(en.multiCells[i])
		if !ok {
			return nil, fmt.Errorf("invoke: unbound multi pattern variable %q at %s", name, en.Overload.Loc())
		}
		objs := make([]env.Object, len(v))
		for j, x := range v {
			objs[j] = pc.DerefStatic(x)
		}
		staticEnv.Bind(name, objs)
	}

	if code.Predicate != nil {
		ok, err := pc.EvalPredicate(code.Predicate, staticEnv)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &Result{Kind: MatchPredicateError}, nil
		}
	}

	result := &Result{
		Kind:          MatchSuccess,
		Code:          clone.Code(code),
		StaticEnv:     staticEnv,
		FixedArgTypes: append([]any(nil), argsKey[:fixed]...),
	}
	if code.VariadicArg != nil {
		result.VarArgTypes = append([]any(nil), argsKey[fixed:]...)
	}
	return result, nil
}

// Table holds every Entry installed against one callable target, in
// declaration order. Candidates are tried in this order (spec.md 4.9 step
// 5), with default overloads always sorted last, but declaration order only
// breaks ties between equally-specific matches: when two non-default
// entries both match a call, the one whose callable and formal-arg patterns
// accept a strict subset of the other's wins regardless of which was
// declared first (spec.md 8 "Overload order"). Callers needing this
// resolution (cmd/clayc's resolver and dispatcher) gather every match
// first, then call MostSpecific rather than stopping at the first success.
type Table struct {
	Entries []*Entry

	// Interface, when non-nil, is matched before every ordinary entry
	// (spec.md 4.9 step 4); its failure is a hard, distinctly-reported
	// error rather than a rejection that falls through to the rest of the
	// table.
	Interface *Entry
}

// AddInterface installs ov as the table's interface overload (spec.md 4.9
// step 4), replacing any previously-attached one — a callable has at most
// one, matching the original's single `interface` field on Procedure.
func (t *Table) AddInterface(ov *ast.Overload, homeEnv *env.Env) *Entry {
	e := &Entry{Overload: ov, HomeEnv: homeEnv}
	t.Interface = e
	return e
}

// Add installs ov (with its declaring env) at the end of the table,
// preserving source order the way the original's overloads vector does.
func (t *Table) Add(ov *ast.Overload, homeEnv *env.Env) *Entry {
	e := &Entry{Overload: ov, HomeEnv: homeEnv}
	if ov.IsDefault {
		// Default overloads are tried last regardless of declaration order
		// (spec.md 4.9 "default overload").
		t.Entries = append(t.Entries, e)
		return e
	}
	// Insert before any already-installed default entries.
	for i, existing := range t.Entries {
		if existing.Overload.IsDefault {
			t.Entries = append(t.Entries[:i], append([]*Entry{e}, t.Entries[i:]...)...)
			return e
		}
	}
	t.Entries = append(t.Entries, e)
	return e
}

// MoreSpecificThan reports whether en's callable and fixed-argument
// patterns each accept a subset of what other's equivalent pattern
// accepts, strictly narrower in at least one position (spec.md 8 "Overload
// order"). Both entries must already have initializePatterns run (callers
// only compare entries that matched the same call, which guarantees this).
func (en *Entry) MoreSpecificThan(other *Entry) bool {
	if len(en.argPatterns) != len(other.argPatterns) {
		return false
	}
	strictlyNarrower := false
	for i := -1; i < len(en.argPatterns); i++ {
		var a, b pattern.Pattern
		if i < 0 {
			a, b = en.callablePat, other.callablePat
		} else {
			a, b = en.argPatterns[i], other.argPatterns[i]
		}
		if !pattern.Subsumes(b, a) {
			// other does not accept everything en accepts at this
			// position, so en cannot be the narrower (more specific) one.
			return false
		}
		if !pattern.Subsumes(a, b) {
			strictlyNarrower = true
		}
	}
	if en.varArgPat != nil || other.varArgPat != nil {
		if !pattern.MultiSubsumes(other.varArgPat, en.varArgPat) {
			return false
		}
		if !pattern.MultiSubsumes(en.varArgPat, other.varArgPat) {
			strictlyNarrower = true
		}
	}
	return strictlyNarrower
}

// MostSpecific picks the single match among entries (each already matched
// the same call, results holding their respective MatchSuccess Result) that
// is strictly more specific than every other, the way spec.md 8's overload
// order property demands regardless of declaration order. It reports ok
// false when two or more entries are mutually non-subsuming, i.e.
// genuinely ambiguous, along with every tied candidate's source location.
func MostSpecific(entries []*Entry, results []*Result) (*Entry, *Result, []string, bool) {
	if len(entries) == 1 {
		return entries[0], results[0], nil, true
	}
	dominated := make([]bool, len(entries))
	for i := range entries {
		for j := range entries {
			if i == j {
				continue
			}
			if entries[j].MoreSpecificThan(entries[i]) {
				dominated[i] = true
				break
			}
		}
	}
	var winner int = -1
	var tied []string
	for i, d := range dominated {
		if d {
			continue
		}
		if winner == -1 {
			winner = i
		} else {
			tied = append(tied, entries[i].Overload.Loc().String())
		}
	}
	if winner == -1 {
		return nil, nil, nil, false
	}
	if len(tied) > 0 {
		tied = append([]string{entries[winner].Overload.Loc().String()}, tied...)
		return nil, nil, tied, false
	}
	return entries[winner], results[winner], nil, true
}
