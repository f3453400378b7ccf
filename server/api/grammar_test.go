package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dekarrin/derivparse/server/dao"
	"github.com/dekarrin/derivparse/server/dao/inmem"
	"github.com/dekarrin/derivparse/server/dpsvc"
	"github.com/dekarrin/derivparse/server/middle"
	"github.com/dekarrin/derivparse/server/result"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGrammarSrc = `
[tokens]
A = 'a'

[rules]
S ::= A

[start]
S
`

func newTestAPI() (API, dao.Store) {
	db := inmem.NewDatastore()
	return API{Backend: dpsvc.Service{DB: db}}, db
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withUser(req *http.Request, user dao.User) *http.Request {
	ctx := context.WithValue(req.Context(), middle.AuthUser, user)
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody writes r's response to a recorder and decodes its JSON body
// into v, the way an actual HTTP client would observe it.
func decodeBody(t *testing.T, r result.Result, v interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.WriteResponse(rec)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestEpCreateGrammar_StoresForOwner(t *testing.T) {
	api, _ := newTestAPI()
	owner := dao.User{ID: uuid.New(), Username: "alice"}

	req := withUser(jsonRequest(http.MethodPost, "/grammars", GrammarCreateRequest{
		Name:   "ab",
		Source: testGrammarSrc,
	}), owner)

	r := api.epCreateGrammar(req)
	require.Equal(t, http.StatusCreated, r.Status)

	var created GrammarModel
	decodeBody(t, r, &created)
	assert.Equal(t, owner.ID.String(), created.OwnerID)
	assert.Equal(t, "ab", created.Name)
}

func TestEpCreateGrammar_RejectsBadSource(t *testing.T) {
	api, _ := newTestAPI()
	owner := dao.User{ID: uuid.New(), Username: "alice"}

	req := withUser(jsonRequest(http.MethodPost, "/grammars", GrammarCreateRequest{
		Name:   "bad",
		Source: "not a grammar",
	}), owner)

	r := api.epCreateGrammar(req)
	assert.Equal(t, http.StatusBadRequest, r.Status)
}

func TestEpGetGrammar_ForbidsNonOwner(t *testing.T) {
	api, db := newTestAPI()
	owner := dao.User{ID: uuid.New(), Username: "alice"}
	other := dao.User{ID: uuid.New(), Username: "mallory", Role: dao.Normal}

	g, err := db.Grammars().Create(context.Background(), dao.Grammar{OwnerID: owner.ID, Name: "ab", Source: testGrammarSrc})
	require.NoError(t, err)

	req := withUser(withURLParam(httptest.NewRequest(http.MethodGet, "/grammars/"+g.ID.String(), nil), "id", g.ID.String()), other)

	r := api.epGetGrammar(req)
	assert.Equal(t, http.StatusForbidden, r.Status)
}

func TestEpGetGrammar_AllowsAdmin(t *testing.T) {
	api, db := newTestAPI()
	owner := dao.User{ID: uuid.New(), Username: "alice"}
	admin := dao.User{ID: uuid.New(), Username: "root", Role: dao.Admin}

	g, err := db.Grammars().Create(context.Background(), dao.Grammar{OwnerID: owner.ID, Name: "ab", Source: testGrammarSrc})
	require.NoError(t, err)

	req := withUser(withURLParam(httptest.NewRequest(http.MethodGet, "/grammars/"+g.ID.String(), nil), "id", g.ID.String()), admin)

	r := api.epGetGrammar(req)
	assert.Equal(t, http.StatusOK, r.Status)
}

func TestEpGetGrammar_NotFound(t *testing.T) {
	api, _ := newTestAPI()
	admin := dao.User{ID: uuid.New(), Username: "root", Role: dao.Admin}
	missingID := uuid.New()

	req := withUser(withURLParam(httptest.NewRequest(http.MethodGet, "/grammars/"+missingID.String(), nil), "id", missingID.String()), admin)

	r := api.epGetGrammar(req)
	assert.Equal(t, http.StatusNotFound, r.Status)
}

func TestEpGetAllGrammars_NonAdminSeesOnlyOwn(t *testing.T) {
	api, db := newTestAPI()
	owner := dao.User{ID: uuid.New(), Username: "alice", Role: dao.Normal}
	other := dao.User{ID: uuid.New(), Username: "bob", Role: dao.Normal}

	_, err := db.Grammars().Create(context.Background(), dao.Grammar{OwnerID: owner.ID, Name: "mine", Source: testGrammarSrc})
	require.NoError(t, err)
	_, err = db.Grammars().Create(context.Background(), dao.Grammar{OwnerID: other.ID, Name: "theirs", Source: testGrammarSrc})
	require.NoError(t, err)

	req := withUser(httptest.NewRequest(http.MethodGet, "/grammars", nil), owner)

	r := api.epGetAllGrammars(req)
	require.Equal(t, http.StatusOK, r.Status)
	var resp []GrammarModel
	decodeBody(t, r, &resp)
	assert.Len(t, resp, 1)
	assert.Equal(t, "mine", resp[0].Name)
}

func TestEpDeleteGrammar_OwnerCanDelete(t *testing.T) {
	api, db := newTestAPI()
	owner := dao.User{ID: uuid.New(), Username: "alice"}

	g, err := db.Grammars().Create(context.Background(), dao.Grammar{OwnerID: owner.ID, Name: "ab", Source: testGrammarSrc})
	require.NoError(t, err)

	req := withUser(withURLParam(httptest.NewRequest(http.MethodDelete, "/grammars/"+g.ID.String(), nil), "id", g.ID.String()), owner)

	r := api.epDeleteGrammar(req)
	assert.Equal(t, http.StatusNoContent, r.Status)

	_, err = db.Grammars().GetByID(context.Background(), g.ID)
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
