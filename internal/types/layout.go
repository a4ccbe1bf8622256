package types

import "sync"

// layout caches a type's lazily-computed size/alignment in bytes, per
// spec.md 3.3 ("Each type carries lazily-computed size, alignment...").
// Pointer/array/etc. sizes are platform-dependent in the real compiler (the
// backend collaborator owns the authoritative ABI); these are the
// front-end's best-effort values, used by compile-time TypeSize/
// TypeAlignment reflection (spec.md 6) before a backend is attached.
const pointerSize = 8

var (
	layoutMu    sync.Mutex
	sizeCache   = map[Type]int64{}
	alignCache  = map[Type]int64{}
)

// SizeOf returns t's size in bytes, computing and memoizing it on first use.
func SizeOf(t Type) int64 {
	layoutMu.Lock()
	if s, ok := sizeCache[t]; ok {
		layoutMu.Unlock()
		return s
	}
	layoutMu.Unlock()
	s := computeSize(t)
	layoutMu.Lock()
	sizeCache[t] = s
	layoutMu.Unlock()
	return s
}

// AlignOf returns t's required alignment in bytes.
func AlignOf(t Type) int64 {
	layoutMu.Lock()
	if a, ok := alignCache[t]; ok {
		layoutMu.Unlock()
		return a
	}
	layoutMu.Unlock()
	a := computeAlign(t)
	layoutMu.Lock()
	alignCache[t] = a
	layoutMu.Unlock()
	return a
}

func computeSize(t Type) int64 {
	switch tt := t.(type) {
	case Bool:
		return 1
	case Integer:
		return int64(tt.Bits) / 8
	case Float:
		return int64(tt.Bits) / 8
	case Complex:
		return int64(tt.Bits) / 4
	case *Pointer, *CodePointer, *CCodePointer:
		return pointerSize
	case *Array:
		return computeSize(tt.Elem) * tt.N
	case *Vec:
		return computeSize(tt.Elem) * tt.N
	case *Tuple:
		return sumAligned(tt.Elems)
	case *Record:
		return sumAligned(tt.Params) // placeholder until field layout is resolved by the analyzer
	case *Variant:
		return maxSize(tt.Params) + 8 // tag word + widest member
	case *Enum:
		return 4
	case *NewType:
		return computeSize(tt.Under)
	case *Static:
		return 0
	default:
		return 0
	}
}

func computeAlign(t Type) int64 {
	switch tt := t.(type) {
	case *Array:
		return computeAlign(tt.Elem)
	case *Vec:
		return computeAlign(tt.Elem)
	case *NewType:
		return computeAlign(tt.Under)
	default:
		s := computeSize(t)
		if s == 0 {
			return 1
		}
		if s > 8 {
			return 8
		}
		return s
	}
}

func sumAligned(ts []Type) int64 {
	var total int64
	for _, t := range ts {
		a := computeAlign(t)
		if a > 0 && total%a != 0 {
			total += a - total%a
		}
		total += computeSize(t)
	}
	return total
}

func maxSize(ts []Type) int64 {
	var m int64
	for _, t := range ts {
		if s := computeSize(t); s > m {
			m = s
		}
	}
	return m
}
