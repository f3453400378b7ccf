package grammarfe

import (
	"testing"

	"github.com/dekarrin/derivparse/internal/derive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate_LeftRecursiveExprGrammarParsesEndToEnd(t *testing.T) {
	src := `
[tokens]
NUM  ~= /[0-9]+/
PLUS = '+'

[rules]
expr ::= expr PLUS NUM
       | NUM

[start]
expr
`
	g, err := Parse(src)
	require.NoError(t, err)

	_, start, err := Translate(g, TranslateOptions{})
	require.NoError(t, err)
	require.Len(t, start, 1)

	input := []derive.Value{
		derive.NewValue("NUM"),
		derive.NewValue("PLUS"),
		derive.NewValue("NUM"),
		derive.NewValue("PLUS"),
		derive.NewValue("NUM"),
	}
	trees := derive.ParseCompact(input, start[0])
	assert.Len(t, trees, 1)
}

func TestTranslate_OptionalAndRepetitionForms(t *testing.T) {
	src := `
[tokens]
A = 'a'

[rules]
r ::= {A}

[start]
r
`
	g, err := Parse(src)
	require.NoError(t, err)

	_, start, err := Translate(g, TranslateOptions{})
	require.NoError(t, err)

	noneTrees := derive.ParseCompact(nil, start[0])
	require.Len(t, noneTrees, 1)

	threeTrees := derive.ParseCompact([]derive.Value{
		derive.NewValue("A"), derive.NewValue("A"), derive.NewValue("A"),
	}, start[0])
	assert.Len(t, threeTrees, 1)
}

func TestTranslate_CustomReduceSeesFlattenedParts(t *testing.T) {
	src := `
[tokens]
NUM ~= /[0-9]+/
PLUS = '+'

[rules]
sum ::= NUM PLUS NUM

[start]
sum
`
	g, err := Parse(src)
	require.NoError(t, err)

	var sawParts int
	opts := TranslateOptions{
		Reduce: func(ruleName, productionName string, parts []derive.Tree) any {
			sawParts = len(parts)
			return "matched"
		},
	}

	_, start, err := Translate(g, opts)
	require.NoError(t, err)

	input := []derive.Value{derive.NewValue("NUM"), derive.NewValue("PLUS"), derive.NewValue("NUM")}
	trees := derive.ParseCompact(input, start[0])
	require.Len(t, trees, 1)
	assert.Equal(t, 3, sawParts)
	assert.Equal(t, "matched", trees[0].Payload())
}
