package pattern

// Subsumes reports whether general's match set is a superset of (or equal
// to) specific's: every object specific accepts, general accepts too. A nil
// Pattern stands for "no constraint" — an untyped formal arg — and behaves
// like an always-matching Cell.
func Subsumes(general, specific Pattern) bool {
	if general == nil {
		return true
	}
	switch g := general.(type) {
	case *Cell:
		return true
	case *Struct:
		if specific == nil {
			return false
		}
		s, ok := specific.(*Struct)
		if !ok || s.Head != g.Head {
			return false
		}
		return MultiSubsumes(g.Params, s.Params)
	}
	return false
}

// MultiSubsumes is Subsumes' counterpart over MultiPattern, used to compare
// variadic tails and a Struct's argument list.
func MultiSubsumes(general, specific MultiPattern) bool {
	if general == nil {
		return true
	}
	switch g := general.(type) {
	case *MultiCell:
		return true
	case *List:
		if specific == nil {
			return false
		}
		s, ok := specific.(*List)
		if !ok {
			return false
		}
		return listSubsumes(g, s)
	}
	return false
}

func listSubsumes(g, s *List) bool {
	if g.Tail == nil {
		if s.Tail != nil || len(g.Items) != len(s.Items) {
			return false
		}
		for i, item := range g.Items {
			if !Subsumes(item, s.Items[i]) {
				return false
			}
		}
		return true
	}
	if len(s.Items) < len(g.Items) {
		return false
	}
	for i, item := range g.Items {
		if !Subsumes(item, s.Items[i]) {
			return false
		}
	}
	return MultiSubsumes(g.Tail, tailOf(s, len(g.Items)))
}

// tailOf views s's items past n plus its own Tail as one MultiPattern, so a
// longer specific list can still be compared against a shorter general
// list's variadic remainder.
func tailOf(s *List, n int) MultiPattern {
	if n == 0 {
		return s
	}
	return &List{Items: s.Items[n:], Tail: s.Tail}
}
