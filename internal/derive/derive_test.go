package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokA() Value { return NewValue("a") }
func tokB() Value { return NewValue("b") }

func TestIsEmpty_Variants(t *testing.T) {
	assert.True(t, IsEmpty(Nil()))
	assert.False(t, IsEmpty(Eps(Leaf(tokA()))))
	assert.False(t, IsEmpty(Tok(tokA())))
	assert.False(t, IsEmpty(Rep(Tok(tokA()))))
}

func TestIsNullable_EquivalentToNonEmptyParseNull(t *testing.T) {
	cases := []*Term{
		Nil(),
		Eps(Leaf(tokA())),
		Tok(tokA()),
		Rep(Tok(tokA())),
		Alt(Tok(tokA()), Eps(Leaf(tokB()))),
		Seq(Eps(Leaf(tokA())), Eps(Leaf(tokB()))),
	}
	for _, g := range cases {
		assert.Equal(t, IsNullable(g), len(ParseNull(g)) != 0)
	}
}

// Scenario 1: tok('a') on [] -> []
func TestScenario1_TokOnEmptyInput(t *testing.T) {
	trees := Parse(nil, Tok(tokA()))
	assert.Empty(t, trees)
}

// Scenario 2: tok('a') on ['a'] -> [Leaf('a')]
func TestScenario2_TokMatches(t *testing.T) {
	trees := Parse([]Value{tokA()}, Tok(tokA()))
	require.Len(t, trees, 1)
	assert.Equal(t, KindLeaf, trees[0].Kind())
	assert.True(t, trees[0].Token().Equal(tokA()))
}

// Scenario 3: tok('a') on ['b'] -> []
func TestScenario3_TokMismatch(t *testing.T) {
	trees := Parse([]Value{tokB()}, Tok(tokA()))
	assert.Empty(t, trees)
}

// Scenario 4: alt(tok('a'), tok('b')) on ['b'] -> [Leaf('b')]
func TestScenario4_AltPicksMatchingBranch(t *testing.T) {
	trees := Parse([]Value{tokB()}, Alt(Tok(tokA()), Tok(tokB())))
	require.Len(t, trees, 1)
	assert.True(t, trees[0].Token().Equal(tokB()))
}

// Scenario 5: seq(tok('a'), tok('b')) on ['a','b'] -> [Branch(Leaf('a'), Leaf('b'))]
func TestScenario5_SeqConcatenates(t *testing.T) {
	trees := Parse([]Value{tokA(), tokB()}, Seq(Tok(tokA()), Tok(tokB())))
	require.Len(t, trees, 1)
	require.Equal(t, KindBranch, trees[0].Kind())
	assert.True(t, trees[0].Left().Token().Equal(tokA()))
	assert.True(t, trees[0].Right().Token().Equal(tokB()))
}

// Scenario 6: rep(tok('a')) on [] -> [Empty]
func TestScenario6_RepOnEmptyInput(t *testing.T) {
	trees := Parse(nil, Rep(Tok(tokA())))
	require.Len(t, trees, 1)
	assert.Equal(t, KindEmptyTree, trees[0].Kind())
}

// Scenario 7: rep(tok('a')) on ['a','a'] -> one tree, nested Branches over
// two Leaf('a')s.
func TestScenario7_RepOnRepeatedInput(t *testing.T) {
	trees := Parse([]Value{tokA(), tokA()}, Rep(Tok(tokA())))
	require.Len(t, trees, 1)

	tree := trees[0]
	require.Equal(t, KindBranch, tree.Kind())
	assert.True(t, tree.Left().Token().Equal(tokA()))

	inner := tree.Right()
	require.Equal(t, KindBranch, inner.Kind())
	assert.True(t, inner.Left().Token().Equal(tokA()))
	assert.Equal(t, KindEmptyTree, inner.Right().Kind())
}

// Scenario 8: ambiguous S -> S S | 'a' on ['a','a','a'] yields exactly 2
// distinct parse trees (Catalan C_2). Built with Placeholder/Become so the
// grammar is genuinely cyclic, exercising the fixed-point saturation that
// IsNullable/ParseNull need over a self-referential graph.
func TestScenario8_AmbiguousSelfReferentialGrammar(t *testing.T) {
	s := Placeholder()
	s.Become(Alt(Seq(s, s), Tok(tokA())))

	trees := ParseCompact([]Value{tokA(), tokA(), tokA()}, s)
	assert.Len(t, trees, 2)
}

// Scenario 9: left-recursive E -> E '+' 'n' | 'n' on ['n','+','n','+','n']
// terminates and returns exactly 1 tree.
func TestScenario9_LeftRecursiveGrammar(t *testing.T) {
	n := NewValue("n")
	plus := NewValue("+")

	e := Placeholder()
	e.Become(Alt(Seq(Seq(e, Tok(plus)), Tok(n)), Tok(n)))

	input := []Value{n, plus, n, plus, n}
	trees := ParseCompact(input, e)
	assert.Len(t, trees, 1)
}

// Law: is_empty(g) => parse(w, g) = [] for all w.
func TestLaw_EmptyGrammarNeverParses(t *testing.T) {
	g := Nil()
	assert.Empty(t, Parse([]Value{tokA(), tokB()}, g))
	assert.Empty(t, Parse(nil, g))
}

// Law: parse(w, alt(g1, g2)) = parse(w, g1) ++ parse(w, g2) as multisets.
func TestLaw_AltIsUnionOfParses(t *testing.T) {
	g1 := Tok(tokA())
	g2 := Eps(Leaf(tokB()))
	combined := Parse(nil, Alt(g1, g2))
	separate := append(Parse(nil, g1), Parse(nil, g2)...)
	assert.Len(t, combined, len(separate))
}

// Law: parse(w, compact(g)) = parse(w, g) as multisets.
func TestLaw_CompactPreservesParse(t *testing.T) {
	g := Seq(Tok(tokA()), Tok(tokB()))
	input := []Value{tokA(), tokB()}

	uncompacted := Parse(input, g)
	compacted := Parse(input, Compact(g))
	assert.Equal(t, len(uncompacted), len(compacted))
}

// Law: derive is pure - two calls with identity-equal arguments recognize
// the same language (checked operationally via parse, since this package
// scopes memo tables per top-level call rather than process-global; see
// DESIGN.md).
func TestLaw_DeriveIsOperationallyPure(t *testing.T) {
	g := Seq(Tok(tokA()), Tok(tokB()))
	d1 := Derive(g, tokA())
	d2 := Derive(g, tokA())

	assert.Equal(t, len(ParseNull(d1)), len(ParseNull(d2)))
}

func TestValue_PanicsOnIncomparableToken(t *testing.T) {
	assert.Panics(t, func() {
		NewValue([]int{1, 2, 3})
	})
}
