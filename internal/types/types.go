// Package types implements the Language's interned type universe (spec.md
// 3.3). Two occurrences of the same structural type are the same Go value
// (by construction, since every Type here is an immutable, comparable
// struct or pointer obtained only through the New* constructors below) —
// this is the "intern canonicality" property spec.md 8 asks for.
package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/clay-lang/clayc/internal/ast"
)

// Type is the common interface for every type kind. Concrete kinds are
// plain comparable structs (not pointers) so `==` already implements
// structural equality for the atomic kinds; the composite kinds (Record,
// Variant, Pointer, ...) are interned through handles so `==` on the handle
// is still equality on the underlying *Type value.
type Type interface {
	String() string
	typeNode()
}

// Bool is the boolean type.
type Bool struct{}

func (Bool) String() string { return "Bool" }
func (Bool) typeNode()      {}

// Integer is a fixed-width integer type, signed or not.
type Integer struct {
	Bits   int
	Signed bool
}

func (t Integer) String() string {
	if t.Signed {
		return fmt.Sprintf("Int%d", t.Bits)
	}
	return fmt.Sprintf("UInt%d", t.Bits)
}
func (Integer) typeNode() {}

// Float is a fixed-width floating point type, optionally imaginary.
type Float struct {
	Bits      int
	Imaginary bool
}

func (t Float) String() string {
	if t.Imaginary {
		return fmt.Sprintf("Imag%d", t.Bits)
	}
	return fmt.Sprintf("Float%d", t.Bits)
}
func (Float) typeNode() {}

// Complex is a fixed-width complex number type.
type Complex struct{ Bits int }

func (t Complex) String() string { return fmt.Sprintf("Complex%d", t.Bits) }
func (Complex) typeNode()        {}

// StaticObject is anything the evaluator can hand back as a compile-time
// value (an interned literal, an identifier, a type, ...). It lives here as
// a minimal interface — rather than importing the evaluator's concrete
// value type — precisely to break the types <-> evaluator import cycle
// (evaluator.Type == types.Type, types.Static.Obj == some evaluator value).
type StaticObject interface {
	// StaticKey returns a string that is equal for two static objects iff
	// they should be treated as the same Static[T] singleton (spec.md 3.3).
	StaticKey() string
	String() string
}

// handle types below are interned: constructed only via the package-level
// New* functions, which consult/populate internTable.

// Pointer is *T.
type Pointer struct{ Elem Type }

func (t *Pointer) String() string { return "Pointer[" + t.Elem.String() + "]" }
func (*Pointer) typeNode()        {}

// CodePointer is the type of a closure/procedure value: args, whether each
// return is by-ref, and the return types.
type CodePointer struct {
	Args        []Type
	ReturnIsRef []bool
	Returns     []Type
}

func (t *CodePointer) String() string {
	return fmt.Sprintf("CodePointer[(%s), (%s)]", joinTypes(t.Args), joinTypes(t.Returns))
}
func (*CodePointer) typeNode() {}

// CCodePointer is a C-ABI function pointer type; CC names the calling
// convention the external classifier collaborator uses (spec.md 1, 6).
type CCodePointer struct {
	CC      string
	Args    []Type
	Vararg  bool
	Return  Type
}

func (t *CCodePointer) String() string {
	return fmt.Sprintf("CCodePointer[%s, (%s), %s]", t.CC, joinTypes(t.Args), t.Return)
}
func (*CCodePointer) typeNode() {}

// Array is a fixed-length, statically-sized homogeneous sequence.
type Array struct {
	Elem Type
	N    int64
}

func (t *Array) String() string { return fmt.Sprintf("Array[%s, %d]", t.Elem, t.N) }
func (*Array) typeNode()        {}

// Vec is a fixed-length SIMD vector type.
type Vec struct {
	Elem Type
	N    int64
}

func (t *Vec) String() string { return fmt.Sprintf("Vec[%s, %d]", t.Elem, t.N) }
func (*Vec) typeNode()        {}

// Tuple is a fixed heterogeneous product.
type Tuple struct{ Elems []Type }

func (t *Tuple) String() string { return "Tuple[" + joinTypes(t.Elems) + "]" }
func (*Tuple) typeNode()        {}

// Union is used internally by the analyzer when a compile-time-constant
// branch still needs one static type for an unreachable arm; not user
// syntax.
type Union struct{ Members []Type }

func (t *Union) String() string { return "Union[" + joinTypes(t.Members) + "]" }
func (*Union) typeNode()        {}

// Record is a nominal record type applied to zero or more parameters.
type Record struct {
	Decl   *ast.RecordDecl
	Params []Type
}

func (t *Record) String() string { return declString(t.Decl.Name, t.Params) }
func (*Record) typeNode()        {}

// Variant is a nominal variant type applied to zero or more parameters.
type Variant struct {
	Decl   *ast.VariantDecl
	Params []Type
}

func (t *Variant) String() string { return declString(t.Decl.Name, t.Params) }
func (*Variant) typeNode()        {}

// Static lifts a single compile-time object to its own singleton type
// (spec.md 3.3 `Static(obj)`); used for `Static[T]` formal-arg parameters
// and phantom-type dispatch.
type Static struct{ Obj StaticObject }

func (t *Static) String() string { return "Static[" + t.Obj.String() + "]" }
func (*Static) typeNode()        {}

// Enum is a nominal, closed set of nullary tags.
type Enum struct{ Decl *ast.EnumDecl }

func (t *Enum) String() string { return t.Decl.Name }
func (*Enum) typeNode()        {}

// NewType is a distinct nominal wrapper over an existing representation
// type (a "newtype", not a type alias — GlobalAlias is the alias form and
// carries no Type of its own).
type NewType struct {
	Name string
	Under Type
}

func (t *NewType) String() string { return t.Name }
func (*NewType) typeNode()        {}

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func declString(name string, params []Type) string {
	if len(params) == 0 {
		return name
	}
	return name + "[" + joinTypes(params) + "]"
}

// intern holds the process-global tables for every composite kind, guarded
// by a mutex only out of defensiveness — spec.md 5 guarantees a single
// compilation thread mutates these, so the lock is never contended.
type intern struct {
	mu        sync.Mutex
	pointers  map[string]*Pointer
	arrays    map[string]*Array
	vecs      map[string]*Vec
	tuples    map[string]*Tuple
	unions    map[string]*Union
	records   map[string]*Record
	variants  map[string]*Variant
	statics   map[string]*Static
	enums     map[string]*Enum
	newtypes  map[string]*NewType
	codeptrs  map[string]*CodePointer
	ccodeptrs map[string]*CCodePointer
}

var tab = &intern{
	pointers:  map[string]*Pointer{},
	arrays:    map[string]*Array{},
	vecs:      map[string]*Vec{},
	tuples:    map[string]*Tuple{},
	unions:    map[string]*Union{},
	records:   map[string]*Record{},
	variants:  map[string]*Variant{},
	statics:   map[string]*Static{},
	enums:     map[string]*Enum{},
	newtypes:  map[string]*NewType{},
	codeptrs:  map[string]*CodePointer{},
	ccodeptrs: map[string]*CCodePointer{},
}

// Reset clears every intern table. Exposed for tests that need a fresh
// universe; production compilation never calls it mid-run.
func Reset() {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	tab.pointers, tab.arrays, tab.vecs = map[string]*Pointer{}, map[string]*Array{}, map[string]*Vec{}
	tab.tuples, tab.unions, tab.records = map[string]*Tuple{}, map[string]*Union{}, map[string]*Record{}
	tab.variants, tab.statics, tab.enums = map[string]*Variant{}, map[string]*Static{}, map[string]*Enum{}
	tab.newtypes, tab.codeptrs, tab.ccodeptrs = map[string]*NewType{}, map[string]*CodePointer{}, map[string]*CCodePointer{}
}

func NewPointer(elem Type) *Pointer {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	key := elem.String()
	if t, ok := tab.pointers[key]; ok {
		return t
	}
	t := &Pointer{Elem: elem}
	tab.pointers[key] = t
	return t
}

func NewArray(elem Type, n int64) *Array {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	key := fmt.Sprintf("%s,%d", elem, n)
	if t, ok := tab.arrays[key]; ok {
		return t
	}
	t := &Array{Elem: elem, N: n}
	tab.arrays[key] = t
	return t
}

func NewVec(elem Type, n int64) *Vec {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	key := fmt.Sprintf("%s,%d", elem, n)
	if t, ok := tab.vecs[key]; ok {
		return t
	}
	t := &Vec{Elem: elem, N: n}
	tab.vecs[key] = t
	return t
}

func NewTuple(elems []Type) *Tuple {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	key := joinTypes(elems)
	if t, ok := tab.tuples[key]; ok {
		return t
	}
	t := &Tuple{Elems: elems}
	tab.tuples[key] = t
	return t
}

func NewUnion(members []Type) *Union {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	key := joinTypes(members)
	if t, ok := tab.unions[key]; ok {
		return t
	}
	t := &Union{Members: members}
	tab.unions[key] = t
	return t
}

func NewRecord(decl *ast.RecordDecl, params []Type) *Record {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	key := fmt.Sprintf("%p,%s", decl, joinTypes(params))
	if t, ok := tab.records[key]; ok {
		return t
	}
	t := &Record{Decl: decl, Params: params}
	tab.records[key] = t
	return t
}

func NewVariant(decl *ast.VariantDecl, params []Type) *Variant {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	key := fmt.Sprintf("%p,%s", decl, joinTypes(params))
	if t, ok := tab.variants[key]; ok {
		return t
	}
	t := &Variant{Decl: decl, Params: params}
	tab.variants[key] = t
	return t
}

func NewStatic(obj StaticObject) *Static {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	key := obj.StaticKey()
	if t, ok := tab.statics[key]; ok {
		return t
	}
	t := &Static{Obj: obj}
	tab.statics[key] = t
	return t
}

func NewEnum(decl *ast.EnumDecl) *Enum {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	key := fmt.Sprintf("%p", decl)
	if t, ok := tab.enums[key]; ok {
		return t
	}
	t := &Enum{Decl: decl}
	tab.enums[key] = t
	return t
}

func NewNewType(name string, under Type) *NewType {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	key := name
	if t, ok := tab.newtypes[key]; ok {
		return t
	}
	t := &NewType{Name: name, Under: under}
	tab.newtypes[key] = t
	return t
}

func NewCodePointer(args []Type, returnIsRef []bool, returns []Type) *CodePointer {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	key := fmt.Sprintf("%s|%v|%s", joinTypes(args), returnIsRef, joinTypes(returns))
	if t, ok := tab.codeptrs[key]; ok {
		return t
	}
	t := &CodePointer{Args: args, ReturnIsRef: returnIsRef, Returns: returns}
	tab.codeptrs[key] = t
	return t
}

func NewCCodePointer(cc string, args []Type, vararg bool, ret Type) *CCodePointer {
	tab.mu.Lock()
	defer tab.mu.Unlock()
	key := fmt.Sprintf("%s|%s|%v|%s", cc, joinTypes(args), vararg, ret)
	if t, ok := tab.ccodeptrs[key]; ok {
		return t
	}
	t := &CCodePointer{CC: cc, Args: args, Vararg: vararg, Return: ret}
	tab.ccodeptrs[key] = t
	return t
}

// Common atomic singletons — Bool/Integer/Float/Complex are plain value
// types and thus naturally comparable with `==`, but exposing canonical
// constructors keeps call sites uniform with the composite New* family.
func Int(bits int) Integer    { return Integer{Bits: bits, Signed: true} }
func UInt(bits int) Integer   { return Integer{Bits: bits, Signed: false} }
func FloatT(bits int) Float   { return Float{Bits: bits} }
func ImagT(bits int) Float    { return Float{Bits: bits, Imaginary: true} }
func ComplexT(bits int) Complex { return Complex{Bits: bits} }
