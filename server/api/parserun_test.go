package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dekarrin/derivparse/server/dao"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpParseWithGrammar_RecordsRun(t *testing.T) {
	api, db := newTestAPI()
	owner := dao.User{ID: uuid.New(), Username: "alice"}

	g, err := db.Grammars().Create(context.Background(), dao.Grammar{OwnerID: owner.ID, Name: "ab", Source: testGrammarSrc})
	require.NoError(t, err)

	req := withUser(withURLParam(jsonRequest(http.MethodPost, "/grammars/"+g.ID.String()+"/parse", ParseRequest{
		Input: "a",
	}), "id", g.ID.String()), owner)

	r := api.epParseWithGrammar(req)
	require.Equal(t, http.StatusCreated, r.Status)

	var run ParseRunModel
	decodeBody(t, r, &run)
	assert.Equal(t, "a", run.Input)
	assert.NotEmpty(t, run.Trees)
}

func TestEpParseWithGrammar_ForbidsNonOwner(t *testing.T) {
	api, db := newTestAPI()
	owner := dao.User{ID: uuid.New(), Username: "alice"}
	other := dao.User{ID: uuid.New(), Username: "mallory", Role: dao.Normal}

	g, err := db.Grammars().Create(context.Background(), dao.Grammar{OwnerID: owner.ID, Name: "ab", Source: testGrammarSrc})
	require.NoError(t, err)

	req := withUser(withURLParam(jsonRequest(http.MethodPost, "/grammars/"+g.ID.String()+"/parse", ParseRequest{
		Input: "a",
	}), "id", g.ID.String()), other)

	r := api.epParseWithGrammar(req)
	assert.Equal(t, http.StatusForbidden, r.Status)
}

func TestEpGetGrammarParseRuns_ListsForGrammar(t *testing.T) {
	api, db := newTestAPI()
	owner := dao.User{ID: uuid.New(), Username: "alice"}

	g, err := db.Grammars().Create(context.Background(), dao.Grammar{OwnerID: owner.ID, Name: "ab", Source: testGrammarSrc})
	require.NoError(t, err)

	_, err = db.ParseRuns().Create(context.Background(), dao.ParseRun{GrammarID: g.ID, OwnerID: owner.ID, Input: "a", Trees: []string{"leaf"}})
	require.NoError(t, err)

	req := withUser(withURLParam(httptest.NewRequest(http.MethodGet, "/grammars/"+g.ID.String()+"/runs", nil), "id", g.ID.String()), owner)

	r := api.epGetGrammarParseRuns(req)
	require.Equal(t, http.StatusOK, r.Status)

	var runs []ParseRunModel
	decodeBody(t, r, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, "a", runs[0].Input)
}

func TestEpGetParseRun_OwnerCanFetch(t *testing.T) {
	api, db := newTestAPI()
	owner := dao.User{ID: uuid.New(), Username: "alice"}

	g, err := db.Grammars().Create(context.Background(), dao.Grammar{OwnerID: owner.ID, Name: "ab", Source: testGrammarSrc})
	require.NoError(t, err)

	run, err := db.ParseRuns().Create(context.Background(), dao.ParseRun{GrammarID: g.ID, OwnerID: owner.ID, Input: "a", Trees: []string{"leaf"}})
	require.NoError(t, err)

	req := withUser(withURLParam(httptest.NewRequest(http.MethodGet, "/parse-runs/"+run.ID.String(), nil), "id", run.ID.String()), owner)

	r := api.epGetParseRun(req)
	require.Equal(t, http.StatusOK, r.Status)

	var model ParseRunModel
	decodeBody(t, r, &model)
	assert.Equal(t, run.ID.String(), model.ID)
}
