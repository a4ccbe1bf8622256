// Package evaluator implements the compile-time interpreter (spec.md 3.8,
// 4.7): it runs procedure bodies over EValues on a marker/pop evaluator
// stack, backed by ValueHolder constants, to answer `static` arguments,
// `eval` splices, and `staticassert`.
//
// Grounded on the original compiler's evaluator.cpp: the TerminationKind
// enum and Termination tagged value, the EReturn/EvalContext return
// bookkeeping, and the stack-marker discipline around scope exit — CValue
// (the backend's run-time value view) is deliberately not modeled here,
// since code generation is the LLVM backend collaborator's job and out of
// this module's scope.
package evaluator

import (
	"fmt"
	"math/big"

	"github.com/clay-lang/clayc/internal/types"
)

// ValueHolder is a typed compile-time constant (spec.md 3.8). Data is one
// of: *big.Int (any Integer type), *big.Float (any Float type), bool,
// string (Identifier/Bytes-like statics), []*ValueHolder (Tuple/Array
// aggregates), or map[string]*ValueHolder (Record aggregates).
type ValueHolder struct {
	Type types.Type
	Data any
}

func (v *ValueHolder) String() string {
	return fmt.Sprintf("%s(%v)", v.Type, v.Data)
}

// StaticKey implements types.StaticObject so a ValueHolder can back a
// Static[T] singleton type (spec.md 3.3).
func (v *ValueHolder) StaticKey() string {
	return fmt.Sprintf("%s:%v", v.Type, v.Data)
}

func NewIntHolder(t types.Integer, v *big.Int) *ValueHolder {
	return &ValueHolder{Type: t, Data: v}
}

func NewBoolHolder(v bool) *ValueHolder {
	return &ValueHolder{Type: types.Bool{}, Data: v}
}

func NewFloatHolder(t types.Float, v *big.Float) *ValueHolder {
	return &ValueHolder{Type: t, Data: v}
}

// EValue is one slot on the evaluator stack: a type and the ValueHolder
// currently occupying it (spec.md 3.8 "{type, address}" — the managed
// stack plays the role of "address" since there is no real memory layer
// without the backend).
type EValue struct {
	Type  types.Type
	Value *ValueHolder
}

// Stack is the evaluator's marker/pop value stack (spec.md 4.7 "marker-based
// ... destroy-to-marker").
type Stack struct {
	slots []EValue
}

// Marker identifies a stack depth to later pop back to.
type Marker int

// Mark returns the current depth.
func (s *Stack) Mark() Marker { return Marker(len(s.slots)) }

// PopTo truncates the stack back to m. Running destructors is the
// analyzer/prelude's job in the full pipeline (destroy is invoked by the
// caller before PopTo; this method only reclaims the slots).
func (s *Stack) PopTo(m Marker) {
	s.slots = s.slots[:m]
}

// Push allocates a new slot holding v.
func (s *Stack) Push(v EValue) {
	s.slots = append(s.slots, v)
}

// Top returns the most recently pushed slot.
func (s *Stack) Top() (EValue, bool) {
	if len(s.slots) == 0 {
		return EValue{}, false
	}
	return s.slots[len(s.slots)-1], true
}

// TerminationKind enumerates the four ways a statement's evaluation
// unwinds (spec.md 4.7).
type TerminationKind int

const (
	TerminateReturn TerminationKind = iota
	TerminateBreak
	TerminateContinue
	TerminateGoto
)

// Termination is returned by statement evaluation instead of Go's own
// control flow, so evaluating a Block can tell a return/break/continue/goto
// apart from an ordinary fallthrough (nil Termination).
type Termination struct {
	Kind  TerminationKind
	Label string // only set for TerminateGoto
}

// EReturn records one return value instance collected while evaluating a
// procedure body: whether it is returned by reference and its computed
// type, mirroring the original's EReturn.
type EReturn struct {
	ByRef bool
	Type  types.Type
	Value *ValueHolder
}

// EvalContext carries the in-progress return slots for one procedure-body
// evaluation (spec.md 4.7 "EvalContext").
type EvalContext struct {
	Returns []EReturn
}
