package derive

// IsEmpty decides whether g recognizes no strings at all: L(g) = ∅.
//
// This is a fixed-point analysis (§4.C) because Alt and Seq recurse into
// their children, and those children may cyclically refer back to g.
func IsEmpty(g *Term) bool {
	fp := newFixpoint(false, equalBool, isEmptyStep)
	return fp.eval(g)
}

func isEmptyStep(self func(*Term) bool, g *Term) bool {
	switch g.Kind() {
	case KindNil:
		return true
	case KindEps, KindTok:
		return false
	case KindRep:
		return false // the empty string is always accepted
	case KindAlt:
		l, r := g.Children()
		return self(l) && self(r)
	case KindSeq:
		l, r := g.Children()
		return self(l) || self(r)
	case KindRed:
		return self(g.Child())
	default:
		panic("derive: unreachable term kind in IsEmpty")
	}
}

// IsNullable decides whether g recognizes the empty string, i.e. whether
// ParseNull(g) is non-empty.
func IsNullable(g *Term) bool {
	fp := newFixpoint(true, equalBool, isNullableStep)
	return fp.eval(g)
}

func isNullableStep(self func(*Term) bool, g *Term) bool {
	switch g.Kind() {
	case KindNil:
		return false
	case KindEps:
		return true
	case KindTok:
		return false
	case KindRep:
		// Rep always accepts the empty string in practice; the is_empty
		// disjunct is kept (rather than hard-coding true) because it is
		// what the fixed-point combinator needs to stay monotone starting
		// from bottom=true - see SPEC_FULL.md §9.
		return self(g.Child()) || IsEmpty(g.Child())
	case KindAlt:
		l, r := g.Children()
		return self(l) || self(r)
	case KindSeq:
		l, r := g.Children()
		return self(l) && self(r)
	case KindRed:
		return self(g.Child())
	default:
		panic("derive: unreachable term kind in IsNullable")
	}
}

func equalTreeSlice(a, b []Tree) bool {
	// Trees store arbitrary reduction payloads and so aren't comparable in
	// general; within one fixpoint refinement loop, a node's parse-null set
	// only ever grows, so equal length is sufficient to detect that the
	// iteration has stabilized.
	return len(a) == len(b)
}

// ParseNull enumerates the parse trees g assigns to the empty string.
func ParseNull(g *Term) []Tree {
	fp := newFixpoint[[]Tree](nil, equalTreeSlice, parseNullStep)
	return fp.eval(g)
}

func parseNullStep(self func(*Term) []Tree, g *Term) []Tree {
	switch g.Kind() {
	case KindNil:
		return nil
	case KindEps:
		return g.EpsTrees()
	case KindTok:
		return nil
	case KindRep:
		return []Tree{EmptyTree()}
	case KindAlt:
		l, r := g.Children()
		out := make([]Tree, 0, 4)
		out = append(out, self(l)...)
		out = append(out, self(r)...)
		return out
	case KindSeq:
		l, r := g.Children()
		lefts := self(l)
		rights := self(r)
		out := make([]Tree, 0, len(lefts)*len(rights))
		for _, lt := range lefts {
			for _, rt := range rights {
				out = append(out, Branch(lt, rt))
			}
		}
		return out
	case KindRed:
		in := self(g.Child())
		f := g.Reducer()
		out := make([]Tree, len(in))
		for i, t := range in {
			out[i] = Reduced(f(t))
		}
		return out
	default:
		panic("derive: unreachable term kind in ParseNull")
	}
}

// nullableSingleton reports whether g is nullable and parse_null(g) has
// exactly one tree, returning that tree alongside true. This replaces the
// original implementation's nullp_t global scratch variable (flagged as a
// code smell in spec.md §9) with an ordinary paired return.
func nullableSingleton(g *Term) (Tree, bool) {
	ts := ParseNull(g)
	if len(ts) == 1 {
		return ts[0], true
	}
	return Tree{}, false
}
