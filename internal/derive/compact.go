package derive

// Compact produces a semantically equivalent but smaller grammar: L(Compact(g))
// = L(g), and parse results are bijectively related. Running Compact after
// every Derive during a parse is the only practical way to keep the working
// grammar bounded on long inputs (§4.E).
//
// Like Derive, the result may need to be cyclic, so the same
// Placeholder/Become memoization is used, keyed by node identity and scoped
// to this one call.
func Compact(g *Term) *Term {
	memo := make(map[*Term]*Term)
	var eval func(g *Term) *Term
	eval = func(g *Term) *Term {
		if t, ok := memo[g]; ok {
			return t
		}
		ph := Placeholder()
		memo[g] = ph
		result := compactStep(eval, g)
		ph.Become(result)
		return ph
	}
	return eval(g)
}

func compactStep(self func(*Term) *Term, g *Term) *Term {
	switch g.Kind() {
	case KindNil, KindEps:
		return g

	case KindTok:
		if IsEmpty(g) {
			// defensive; rarely triggers, a Tok term is never actually
			// empty, but the rewrite table names the case explicitly.
			return Nil()
		}
		return g

	case KindRep:
		inner := g.Child()
		if IsEmpty(inner) {
			return Eps(EmptyTree())
		}
		return Rep(self(inner))

	case KindAlt:
		g1, g2 := g.Children()
		if IsEmpty(g1) {
			return self(g2)
		}
		if IsEmpty(g2) {
			return self(g1)
		}
		return Alt(self(g1), self(g2))

	case KindSeq:
		g1, g2 := g.Children()
		if IsEmpty(g1) || IsEmpty(g2) {
			return Nil()
		}
		// These two rewrites drop a Seq term in favor of a Red over the
		// surviving half, reapplying the matched-out singleton with Branch.
		// ParseNull always wraps a Red's result in one Reduced(...) layer
		// (analysis.go), so trees parsed from the compacted grammar come out
		// as Reduced(Branch(...)) here versus the uncompacted Seq's bare
		// Branch(...) - one Payload() call away from the same tree, never a
		// different one (see DESIGN.md, Compact).
		if t, ok := nullableSingleton(g1); ok {
			tCopy := t
			return Red(self(g2), func(w Tree) any { return Branch(tCopy, w) })
		}
		if t, ok := nullableSingleton(g2); ok {
			tCopy := t
			return Red(self(g1), func(w Tree) any { return Branch(w, tCopy) })
		}
		return Seq(self(g1), self(g2))

	case KindRed:
		inner := g.Child()
		f := g.Reducer()

		if inner.Kind() == KindEps {
			ts := inner.EpsTrees()
			out := make([]Tree, len(ts))
			for i, t := range ts {
				out[i] = Reduced(f(t))
			}
			return Eps(out...)
		}

		if inner.Kind() == KindSeq {
			g1, g2 := inner.Children()
			if t, ok := nullableSingleton(g1); ok {
				tCopy := t
				return Red(self(g2), func(w Tree) any { return f(Branch(tCopy, w)) })
			}
		}

		if inner.Kind() == KindRed {
			h := inner.Reducer()
			return Red(self(inner.Child()), func(w Tree) any { return f(Reduced(h(w))) })
		}

		return Red(self(inner), f)

	default:
		panic("derive: unreachable term kind in Compact")
	}
}
