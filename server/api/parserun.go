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

func parseRunToModel(r dao.ParseRun) ParseRunModel {
	return ParseRunModel{
		URI:       PathPrefix + "/parse-runs/" + r.ID.String(),
		ID:        r.ID.String(),
		GrammarID: r.GrammarID.String(),
		OwnerID:   r.OwnerID.String(),
		Input:     r.Input,
		Trees:     r.Trees,
		Ambiguous: len(r.Trees) > 1,
		Created:   r.Created.Format(time.RFC3339),
	}
}

// HTTPParseWithGrammar returns a HandlerFunc that parses input against the
// grammar named in the URI and records the result as a new parse run.
func (api API) HTTPParseWithGrammar() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epParseWithGrammar)
}

func (api API) epParseWithGrammar(req *http.Request) result.Result {
	grammarID := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	g, err := api.Backend.GetGrammar(req.Context(), grammarID)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if g.OwnerID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) parse with grammar %s: forbidden", user.Username, user.Role, grammarID)
	}

	var parseReq ParseRequest
	if err := parseJSON(req, &parseReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	run, err := api.Backend.ParseInput(req.Context(), user.ID, grammarID, parseReq.Input, parseReq.StartSymbol)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(parseRunToModel(run), "user '%s' parsed input against grammar '%s'", user.Username, g.Name)
}

// HTTPGetGrammarParseRuns returns a HandlerFunc that lists all parse runs
// recorded against the grammar named in the URI.
func (api API) HTTPGetGrammarParseRuns() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetGrammarParseRuns)
}

func (api API) epGetGrammarParseRuns(req *http.Request) result.Result {
	grammarID := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	g, err := api.Backend.GetGrammar(req.Context(), grammarID)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if g.OwnerID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) list parse runs of grammar %s: forbidden", user.Username, user.Role, grammarID)
	}

	runs, err := api.Backend.GetAllParseRunsForGrammar(req.Context(), grammarID)
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]ParseRunModel, len(runs))
	for i := range runs {
		resp[i] = parseRunToModel(runs[i])
	}

	return result.OK(resp, "user '%s' listed parse runs for grammar '%s'", user.Username, g.Name)
}

// HTTPGetParseRun returns a HandlerFunc that gets a single parse run by its
// own ID.
func (api API) HTTPGetParseRun() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetParseRun)
}

func (api API) epGetParseRun(req *http.Request) result.Result {
	id, err := getURLParam(req, "id", uuid.Parse)
	if err != nil {
		return result.BadRequest("id: not a valid ID", err.Error())
	}
	user := req.Context().Value(middle.AuthUser).(dao.User)

	run, err := api.Backend.GetParseRun(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	if run.OwnerID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) get parse run %s: forbidden", user.Username, user.Role, id)
	}

	return result.OK(parseRunToModel(run), "user '%s' got parse run %s", user.Username, id)
}
