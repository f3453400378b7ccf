package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dekarrin/derivparse/server/dao"
	"github.com/dekarrin/derivparse/server/middle"
	"github.com/dekarrin/derivparse/server/result"
	"github.com/dekarrin/derivparse/server/serr"
	"github.com/google/uuid"
)

func grammarToModel(g dao.Grammar) GrammarModel {
	return GrammarModel{
		URI:      PathPrefix + "/grammars/" + g.ID.String(),
		ID:       g.ID.String(),
		OwnerID:  g.OwnerID.String(),
		Name:     g.Name,
		Source:   g.Source,
		Created:  g.Created.Format(time.RFC3339),
		Modified: g.Modified.Format(time.RFC3339),
	}
}

// HTTPCreateGrammar returns a HandlerFunc that compiles and stores a new
// grammar owned by the logged-in user.
func (api API) HTTPCreateGrammar() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateGrammar)
}

func (api API) epCreateGrammar(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	var createReq GrammarCreateRequest
	if err := parseJSON(req, &createReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	g, err := api.Backend.CreateGrammar(req.Context(), user.ID, createReq.Name, createReq.Source)
	if err != nil {
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(grammarToModel(g), "user '%s' created grammar '%s' (%s)", user.Username, g.Name, g.ID)
}

// HTTPGetAllGrammars returns a HandlerFunc that lists grammars. Non-admin
// users only see their own; admins may pass ?all=1 to see every grammar.
func (api API) HTTPGetAllGrammars() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetAllGrammars)
}

func (api API) epGetAllGrammars(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	ownerFilter := user.ID
	if user.Role == dao.Admin && req.URL.Query().Get("all") != "" {
		ownerFilter = uuid.Nil
	}

	grammars, err := api.Backend.GetAllGrammars(req.Context(), ownerFilter)
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]GrammarModel, len(grammars))
	for i := range grammars {
		resp[i] = grammarToModel(grammars[i])
	}

	return result.OK(resp, "user '%s' listed grammars", user.Username)
}

// HTTPGetGrammar returns a HandlerFunc that gets a single grammar. A
// non-admin user may only retrieve grammars they own.
func (api API) HTTPGetGrammar() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetGrammar)
}

func (api API) epGetGrammar(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	g, err := api.Backend.GetGrammar(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	if g.OwnerID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) get grammar %s: forbidden", user.Username, user.Role, id)
	}

	return result.OK(grammarToModel(g), "user '%s' got grammar '%s'", user.Username, g.Name)
}

// HTTPDeleteGrammar returns a HandlerFunc that deletes a grammar. A
// non-admin user may only delete grammars they own.
func (api API) HTTPDeleteGrammar() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epDeleteGrammar)
}

func (api API) epDeleteGrammar(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	existing, err := api.Backend.GetGrammar(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	if existing.OwnerID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) delete grammar %s: forbidden", user.Username, user.Role, id)
	}

	deleted, err := api.Backend.DeleteGrammar(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	return result.NoContent("user '%s' deleted grammar '%s'", user.Username, deleted.Name)
}
