package derive

// Derive produces the grammar recognizing { w : c·w ∈ L(g) }, the Brzozowski
// derivative of g with respect to token c.
//
// Unlike IsEmpty/IsNullable/ParseNull, Derive's result is itself a grammar
// term, and that term may need to refer back to nodes still under
// construction (deriving a cyclic grammar yields a cyclic derivative). This
// is handled the same way self-referential grammars are built by hand: a
// Placeholder is registered for each node before recursing into it, and
// filled in via Become once its derivative is fully computed, so a cycle
// reached mid-computation gets back the same node it will eventually become.
//
// The memo table (keyed by node identity; c is fixed for the whole call) is
// scoped to this one call, per SPEC_FULL.md §9 - the service layer builds a
// fresh Term graph per request, so nothing is gained by caching derivatives
// beyond a single top-level call.
func Derive(g *Term, c Value) *Term {
	memo := make(map[*Term]*Term)
	var eval func(g *Term) *Term
	eval = func(g *Term) *Term {
		if t, ok := memo[g]; ok {
			return t
		}
		ph := Placeholder()
		memo[g] = ph
		result := deriveStep(eval, g, c)
		ph.Become(result)
		return ph
	}
	return eval(g)
}

func deriveStep(self func(*Term) *Term, g *Term, c Value) *Term {
	switch g.Kind() {
	case KindNil:
		return Nil()
	case KindEps:
		return Nil()
	case KindTok:
		if g.Tok().Equal(c) {
			return Eps(Leaf(c))
		}
		return Nil()
	case KindRep:
		inner := g.Child()
		return Seq(self(inner), Rep(inner))
	case KindAlt:
		l, r := g.Children()
		return Alt(self(l), self(r))
	case KindSeq:
		g1, g2 := g.Children()
		// derive(g1, c) is computed once and shared between both arms of
		// the alt below so the two occurrences are the same node, not
		// structurally-equal copies - the laziness spec.md §3.1/§9 calls
		// for falls out here because Go evaluates eval(g1) exactly once
		// and the resulting pointer is reused.
		left := Seq(self(g1), g2)
		if IsNullable(g1) {
			return Alt(left, Seq(Eps(ParseNull(g1)...), self(g2)))
		}
		return left
	case KindRed:
		f := g.Reducer()
		return Red(self(g.Child()), f)
	default:
		panic("derive: unreachable term kind in Derive")
	}
}
