package derive

// Kind discriminates the seven variants of Term, plus the internal
// placeholder state used while building self-referential grammars.
type Kind int

const (
	// kindUnresolved marks a node created by Placeholder and not yet filled
	// in by Become. It is never a legal argument to any exported analysis.
	kindUnresolved Kind = iota
	// KindNil recognizes the empty language.
	KindNil
	// KindEps recognizes only the empty string, with a fixed set of trees.
	KindEps
	// KindTok recognizes exactly the one-token string [t].
	KindTok
	// KindRep is the Kleene star of a sub-grammar.
	KindRep
	// KindAlt is the union of two sub-grammars.
	KindAlt
	// KindSeq is the concatenation of two sub-grammars.
	KindSeq
	// KindRed applies a reduction function to every tree a sub-grammar
	// produces.
	KindRed
)

// Term is a grammar term: one node in a graph that may contain cycles.
// Terms are built only through the smart constructors below (Nil, Eps, Tok,
// Rep, Alt, Seq, Red) or, for self-referential grammars, through Placeholder
// paired with Become. Two Terms are identical iff they are the same *Term -
// this identity, not structural equality, is the key every memoization table
// in this package uses.
//
// A Term is immutable after construction (or after Become resolves a
// Placeholder); nothing in this package mutates one again.
type Term struct {
	kind Kind

	// Eps
	trees []Tree

	// Tok
	tok Value

	// Rep, Red
	child *Term

	// Alt, Seq
	left, right *Term

	// Red
	reduce func(Tree) any

	resolved bool
}

// Kind returns which of the seven grammar variants g is. It panics if g is
// an unresolved Placeholder.
func (g *Term) Kind() Kind {
	if g.kind == kindUnresolved {
		panic("derive: traversed an unresolved Term placeholder; call Become before use")
	}
	return g.kind
}

// Tok returns the token an Tok-variant term matches. Panics if g is not Tok.
func (g *Term) Tok() Value {
	if g.Kind() != KindTok {
		panic("derive: Tok called on non-Tok term")
	}
	return g.tok
}

// EpsTrees returns the fixed set of trees an Eps-variant term yields. Panics
// if g is not Eps.
func (g *Term) EpsTrees() []Tree {
	if g.Kind() != KindEps {
		panic("derive: EpsTrees called on non-Eps term")
	}
	return g.trees
}

// Child returns the sub-grammar of a Rep or Red term. Panics otherwise.
func (g *Term) Child() *Term {
	switch g.Kind() {
	case KindRep, KindRed:
		return g.child
	default:
		panic("derive: Child called on a term with no single child")
	}
}

// Children returns the two sub-grammars of an Alt or Seq term. Panics
// otherwise.
func (g *Term) Children() (*Term, *Term) {
	switch g.Kind() {
	case KindAlt, KindSeq:
		return g.left, g.right
	default:
		panic("derive: Children called on a term with no pair of children")
	}
}

// Reducer returns the reduction function of a Red term. Panics otherwise.
func (g *Term) Reducer() func(Tree) any {
	if g.Kind() != KindRed {
		panic("derive: Reducer called on non-Red term")
	}
	return g.reduce
}

// Nil builds the term recognizing the empty language, i.e. no strings at
// all.
func Nil() *Term {
	return &Term{kind: KindNil, resolved: true}
}

// Eps builds the term recognizing only the empty string, yielding ts as its
// parse trees. ts may be empty, in which case the term is nullable but
// parse_null returns no trees for it (a degenerate but legal Eps).
func Eps(ts ...Tree) *Term {
	cp := make([]Tree, len(ts))
	copy(cp, ts)
	return &Term{kind: KindEps, trees: cp, resolved: true}
}

// Tok builds the term recognizing exactly the one-token string [t].
func Tok(t Value) *Term {
	return &Term{kind: KindTok, tok: t, resolved: true}
}

// Rep builds the Kleene star of g: zero or more concatenations of strings
// from L(g).
func Rep(g *Term) *Term {
	return &Term{kind: KindRep, child: g, resolved: true}
}

// Alt builds the union L(g1) ∪ L(g2).
func Alt(g1, g2 *Term) *Term {
	return &Term{kind: KindAlt, left: g1, right: g2, resolved: true}
}

// Seq builds the concatenation { xy : x∈L(g1), y∈L(g2) }.
func Seq(g1, g2 *Term) *Term {
	return &Term{kind: KindSeq, left: g1, right: g2, resolved: true}
}

// Red builds a term that applies f to every tree g produces. f receives the
// tree g matched and returns an arbitrary caller-domain value; the engine
// wraps that value in a Reduced tree.
func Red(g *Term, f func(Tree) any) *Term {
	return &Term{kind: KindRed, child: g, reduce: f, resolved: true}
}

// Placeholder allocates an unresolved Term node for use in self-referential
// grammars. Build the recursive structure referring to the placeholder by
// its pointer, then call Become exactly once to fill it in - e.g. a grammar
// equivalent to g = Alt(Tok(x), Seq(g, g)) is built as:
//
//	g := Placeholder()
//	g.Become(Alt(Tok(x), Seq(g, g)))
//
// Because Become overwrites g's fields in place rather than creating a new
// node, every reference taken to g before Become runs still denotes the same
// node afterward - this is how identity-sharing survives the construction of
// cyclic grammars (spec ref: "allocate nodes first and mutate their children
// through interior mutability once").
func Placeholder() *Term {
	return &Term{kind: kindUnresolved}
}

// Become resolves a Placeholder by copying real's variant and fields into g.
// It panics if g was already resolved, or if real is itself an unresolved
// Placeholder.
func (g *Term) Become(real *Term) {
	if g.resolved {
		panic("derive: Become called on an already-resolved Term")
	}
	if real.kind == kindUnresolved {
		panic("derive: Become given an unresolved Term")
	}
	*g = *real
	g.resolved = true
}
