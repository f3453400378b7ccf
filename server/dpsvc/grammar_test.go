package dpsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/dekarrin/derivparse/server/dao/inmem"
	"github.com/dekarrin/derivparse/server/serr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGrammarSource = `
[tokens]
A = 'a'
B = 'b'

[rules]
S ::= A B
    | A

[start]
S
`

func newTestService() Service {
	return Service{DB: inmem.NewDatastore()}
}

func TestCreateGrammar_RejectsBlankName(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateGrammar(context.Background(), uuid.New(), "", testGrammarSource)
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}

func TestCreateGrammar_RejectsUncompilableSource(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateGrammar(context.Background(), uuid.New(), "broken", "this is not a grammar")
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}

func TestCreateAndGetGrammar_RoundTrip(t *testing.T) {
	svc := newTestService()
	owner := uuid.New()

	created, err := svc.CreateGrammar(context.Background(), owner, "ab", testGrammarSource)
	require.NoError(t, err)
	assert.Equal(t, owner, created.OwnerID)
	assert.Equal(t, "ab", created.Name)

	fetched, err := svc.GetGrammar(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestGetGrammar_NotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetGrammar(context.Background(), uuid.New())
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func TestGetAllGrammars_FiltersByOwnerUnlessNil(t *testing.T) {
	svc := newTestService()
	ownerA := uuid.New()
	ownerB := uuid.New()

	_, err := svc.CreateGrammar(context.Background(), ownerA, "a-grammar", testGrammarSource)
	require.NoError(t, err)
	_, err = svc.CreateGrammar(context.Background(), ownerB, "b-grammar", testGrammarSource)
	require.NoError(t, err)

	onlyA, err := svc.GetAllGrammars(context.Background(), ownerA)
	require.NoError(t, err)
	assert.Len(t, onlyA, 1)

	all, err := svc.GetAllGrammars(context.Background(), uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteGrammar_RemovesIt(t *testing.T) {
	svc := newTestService()
	owner := uuid.New()

	created, err := svc.CreateGrammar(context.Background(), owner, "ab", testGrammarSource)
	require.NoError(t, err)

	_, err = svc.DeleteGrammar(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = svc.GetGrammar(context.Background(), created.ID)
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func TestParseInput_RecordsMatchingTrees(t *testing.T) {
	svc := newTestService()
	owner := uuid.New()

	g, err := svc.CreateGrammar(context.Background(), owner, "ab", testGrammarSource)
	require.NoError(t, err)

	run, err := svc.ParseInput(context.Background(), owner, g.ID, "a b", "")
	require.NoError(t, err)
	assert.NotEmpty(t, run.Trees)
	assert.Equal(t, "a b", run.Input)

	fetched, err := svc.GetParseRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, fetched.ID)

	runs, err := svc.GetAllParseRunsForGrammar(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestParseInput_NoParseYieldsEmptyTrees(t *testing.T) {
	svc := newTestService()
	owner := uuid.New()

	g, err := svc.CreateGrammar(context.Background(), owner, "ab", testGrammarSource)
	require.NoError(t, err)

	run, err := svc.ParseInput(context.Background(), owner, g.ID, "b a", "")
	require.NoError(t, err)
	assert.Empty(t, run.Trees)
}

func TestParseInput_UnknownGrammarNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.ParseInput(context.Background(), uuid.New(), uuid.New(), "a b", "")
	assert.True(t, errors.Is(err, serr.ErrNotFound))
}

func TestParseInput_UnknownStartSymbolIsBadArgument(t *testing.T) {
	svc := newTestService()
	owner := uuid.New()

	g, err := svc.CreateGrammar(context.Background(), owner, "ab", testGrammarSource)
	require.NoError(t, err)

	_, err = svc.ParseInput(context.Background(), owner, g.ID, "a b", "NoSuchRule")
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}
