package main

import (
	"github.com/clay-lang/clayc/internal/ast"
	"github.com/clay-lang/clayc/internal/types"
)

// builtinTypeCtor names a generic type constructor the prelude binds
// (Pointer[T], Array[T, N], ...). It only carries enough to pick the right
// branch in dispatch.go/patterns.go; the actual types.Head comes from
// types.Decompose/Construct once the constructor's arguments are known.
type builtinTypeCtor string

const (
	ctorPointer            builtinTypeCtor = "Pointer"
	ctorArray              builtinTypeCtor = "Array"
	ctorVec                builtinTypeCtor = "Vec"
	ctorTuple              builtinTypeCtor = "Tuple"
	ctorUnion              builtinTypeCtor = "Union"
	ctorStatic             builtinTypeCtor = "Static"
	ctorCodePointer        builtinTypeCtor = "CodePointer"
	ctorExternalCodePointer builtinTypeCtor = "ExternalCodePointer"
)

// builtinProc names one of the structural kernel procedures internal/desugar
// lowers FieldRef/StaticIndexing/For/Switch/VariadicOp into (spec.md 4.2,
// 4.9). They are ordinary callables by name — internal/desugar never
// special-cases them — but their bodies are Go-level rather than Language-
// level since no kernel .clay source ships with this module; dispatch.go
// implements each one directly instead of through an invoke.Table.
type builtinProc string

const (
	procFieldRef        builtinProc = "fieldRef"
	procStaticIndex      builtinProc = "staticIndex"
	procIterator          builtinProc = "iterator"
	procNextValue         builtinProc = "nextValue"
	procHasValue          builtinProc = "hasValue?"
	procGetValue          builtinProc = "getValue"
	procCaseMatch         builtinProc = "case?"
	procInfixOperator     builtinProc = "infixOperator"
	procPrefixOperator    builtinProc = "prefixOperator"
	procPointerDeref      builtinProc = "primitive_pointerDereference"
	procAddressOf         builtinProc = "primitive_addressOf"
	procBoolNot           builtinProc = "primitive_boolNot"
)

// atomicTypes lists the fixed integer/float/bool names the prelude resolves
// directly to a types.Type (spec.md 3.3 "builtin atomic types").
var atomicTypes = map[string]types.Type{
	"Bool":    types.Bool{},
	"Int8":    types.Int(8),
	"Int16":   types.Int(16),
	"Int32":   types.Int(32),
	"Int64":   types.Int(64),
	"UInt8":   types.UInt(8),
	"UInt16":  types.UInt(16),
	"UInt32":  types.UInt(32),
	"UInt64":  types.UInt(64),
	"Float32": types.FloatT(32),
	"Float64": types.FloatT(64),
	"Imag32":  types.ImagT(32),
	"Imag64":  types.ImagT(64),
	"Complex32": types.ComplexT(32),
	"Complex64": types.ComplexT(64),
}

// typeCtors lists the generic type constructors the prelude binds as
// IntrinsicSymbols (spec.md 3.3 "Pointer/Array/Vec/Tuple/Union/Static/
// CodePointer/ExternalCodePointer").
var typeCtors = map[string]builtinTypeCtor{
	"Pointer":             ctorPointer,
	"Array":               ctorArray,
	"Vec":                 ctorVec,
	"Tuple":                ctorTuple,
	"Union":                ctorUnion,
	"Static":               ctorStatic,
	"CodePointer":          ctorCodePointer,
	"ExternalCodePointer":  ctorExternalCodePointer,
}

// structuralProcs lists the names internal/desugar's lowering targets
// (spec.md 4.2 desugaring notes); see builtinProc's doc comment.
var structuralProcs = map[string]builtinProc{
	string(procFieldRef):     procFieldRef,
	string(procStaticIndex):  procStaticIndex,
	string(procIterator):     procIterator,
	string(procNextValue):    procNextValue,
	string(procHasValue):     procHasValue,
	string(procGetValue):     procGetValue,
	string(procCaseMatch):    procCaseMatch,
	string(procInfixOperator):  procInfixOperator,
	string(procPrefixOperator): procPrefixOperator,
	string(procPointerDeref):   procPointerDeref,
	string(procAddressOf):      procAddressOf,
	string(procBoolNot):        procBoolNot,
}

// intrinsicValue resolves one IntrinsicSymbol's bound env.Object. Everything
// the prelude exposes this way is listed in exactly one of the three tables
// above; an unknown name is a bug in preludeModule, not a user error, so it
// panics rather than threading an error through the whole loader path.
func intrinsicValue(name string) any {
	if t, ok := atomicTypes[name]; ok {
		return t
	}
	if c, ok := typeCtors[name]; ok {
		return c
	}
	if p, ok := structuralProcs[name]; ok {
		return p
	}
	panic("clayc: unknown intrinsic symbol " + name)
}

// preludeModule synthesizes the one module every other module implicitly
// imports (spec.md 4.5 "Resolve intrinsic/prelude references"). Reusing
// ast.Module/TopLevelItems here, rather than inventing a bespoke prelude
// structure, means registry.go's ordinary per-module globals walk installs
// the prelude exactly the way it installs any other module — IntrinsicSymbol
// is a TopLevel node for exactly this reason.
func preludeModule() *ast.Module {
	mod := &ast.Module{Name: "prelude", PublicSymbols: map[string]bool{}}
	add := func(name string) {
		mod.TopLevelItems = append(mod.TopLevelItems, &ast.IntrinsicSymbol{Name: name})
		mod.PublicSymbols[name] = true
		mod.AllSymbols = append(mod.AllSymbols, name)
	}
	for name := range atomicTypes {
		add(name)
	}
	for name := range typeCtors {
		add(name)
	}
	for name := range structuralProcs {
		add(name)
	}
	mod.LoadState = ast.LoadDone
	return mod
}
