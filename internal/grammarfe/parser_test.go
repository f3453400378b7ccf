package grammarfe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SectionsAndAlternatives(t *testing.T) {
	src := `
[tokens]
NUM ~= /[0-9]+/
PLUS = '+'

[rules]
expr ::= expr PLUS NUM
       | NUM

[start]
expr
`
	g, err := Parse(src)
	require.NoError(t, err)

	require.Contains(t, g.Rules, "expr")
	assert.Len(t, g.Rules["expr"].Productions, 2)

	require.Contains(t, g.TokenMatchers, "NUM")
	assert.Equal(t, MatcherKindRegex, g.TokenMatchers["NUM"].Kind)
	require.Contains(t, g.TokenMatchers, "PLUS")
	assert.Equal(t, MatcherKindLiteral, g.TokenMatchers["PLUS"].Kind)

	assert.True(t, g.StartSymbols["expr"])
}

func TestParse_DefaultsStartSymbolToFirstRule(t *testing.T) {
	src := `
[tokens]
A = 'a'

[rules]
first ::= A
second ::= A
`
	g, err := Parse(src)
	require.NoError(t, err)
	assert.Len(t, g.StartSymbols, 1)
}

func TestParse_BracketForms(t *testing.T) {
	src := `
[tokens]
A = 'a'
B = 'b'

[rules]
r ::= (A B) [A] {B} <A>
`
	g, err := Parse(src)
	require.NoError(t, err)

	prod := g.Rules["r"].Productions[0]
	require.Len(t, prod.Parts, 4)
	assert.Equal(t, SeqPlain, prod.Parts[0].Sequence.Type)
	assert.Equal(t, SeqOptional, prod.Parts[1].Sequence.Type)
	assert.Equal(t, SeqRepetition, prod.Parts[2].Sequence.Type)
	assert.Equal(t, SeqNonemptyRepetition, prod.Parts[3].Sequence.Type)
}

func TestParse_NamedFieldMatch(t *testing.T) {
	src := `
[tokens]
NUM ~= /[0-9]+/

[rules]
r ::= value: NUM
`
	g, err := Parse(src)
	require.NoError(t, err)

	prod := g.Rules["r"].Productions[0]
	require.Len(t, prod.Parts, 1)
	require.Equal(t, PartKindPatternMatch, prod.Parts[0].Kind)
	assert.Equal(t, "value", prod.Parts[0].FieldName)
	assert.Equal(t, PartKindDeclaredToken, prod.Parts[0].FieldMatch.Kind)
}

func TestParse_UndeclaredTokenIsCaughtAtTranslateNotParse(t *testing.T) {
	src := `
[rules]
r ::= MISSING
`
	g, err := Parse(src)
	require.NoError(t, err)

	_, _, err = Translate(g, TranslateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhaustedAlternatives)
}

func TestParse_MalformedSourceIsReported(t *testing.T) {
	_, err := Parse(`[rules]` + "\n" + `::= oops`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedGrammar)
}
