// Package server contains the HTTP server for derivparse: a service that
// stores grammars and records the results of parsing input against them.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dekarrin/derivparse/server/api"
	"github.com/dekarrin/derivparse/server/dao"
	"github.com/dekarrin/derivparse/server/dpsvc"
	"github.com/dekarrin/derivparse/server/middle"
	"github.com/go-chi/chi/v5"
)

// Server is a derivparse HTTP server. Use New to create one ready for use.
type Server struct {
	api    api.API
	db     dao.Store
	router chi.Router
}

// New creates a new Server from cfg. The returned Server has already
// connected to the configured persistence layer and mounted all routes.
func New(cfg Config) (Server, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return Server{}, fmt.Errorf("invalid config: %w", err)
	}

	db, err := cfg.DB.Connect()
	if err != nil {
		return Server{}, fmt.Errorf("connect to DB: %w", err)
	}

	srv := Server{
		api: api.API{
			Backend:     dpsvc.Service{DB: db},
			UnauthDelay: cfg.UnauthDelay(),
			Secret:      cfg.TokenSecret,
		},
		db: db,
	}

	srv.router = srv.routes()

	return srv, nil
}

func (s Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Route(api.PathPrefix, func(r chi.Router) {
		r.With(s.optionalAuth()).Get("/info", s.api.HTTPGetInfo())

		r.Post("/login", s.api.HTTPCreateLogin())
		r.With(s.requireAuth()).Delete("/login/{id}", s.api.HTTPDeleteLogin())

		r.With(s.requireAuth()).Post("/tokens", s.api.HTTPCreateToken())

		r.Route("/users", func(r chi.Router) {
			r.Use(s.requireAuth())
			r.Get("/", s.api.HTTPGetAllUsers())
			r.Post("/", s.api.HTTPCreateUser())
			r.Get("/{id}", s.api.HTTPGetUser())
			r.Patch("/{id}", s.api.HTTPUpdateUser())
			r.Put("/{id}", s.api.HTTPReplaceUser())
			r.Delete("/{id}", s.api.HTTPDeleteUser())
		})

		r.Route("/grammars", func(r chi.Router) {
			r.Use(s.requireAuth())
			r.Get("/", s.api.HTTPGetAllGrammars())
			r.Post("/", s.api.HTTPCreateGrammar())
			r.Get("/{id}", s.api.HTTPGetGrammar())
			r.Delete("/{id}", s.api.HTTPDeleteGrammar())
			r.Post("/{id}/parse", s.api.HTTPParseWithGrammar())
			r.Get("/{id}/runs", s.api.HTTPGetGrammarParseRuns())
		})

		r.With(s.requireAuth()).Get("/parse-runs/{id}", s.api.HTTPGetParseRun())
	})

	return r
}

// requireAuth returns middleware that requires a valid token for all
// requests it wraps.
func (s Server) requireAuth() middle.Middleware {
	return middle.RequireAuth(s.db.Users(), s.api.Secret, s.api.UnauthDelay, dao.User{})
}

// optionalAuth returns middleware that extracts auth info if present but
// does not require it.
func (s Server) optionalAuth() middle.Middleware {
	return middle.OptionalAuth(s.db.Users(), s.api.Secret, s.api.UnauthDelay, dao.User{})
}

// Backend returns the service backing the server's HTTP API, for direct
// programmatic access (e.g. to seed an initial admin user at startup).
func (s Server) Backend() dpsvc.Service {
	return s.api.Backend
}

// ServeForever starts the server listening on the given address and blocks
// until the server exits or an unrecoverable error occurs.
func (s Server) ServeForever(address string, port int) error {
	addr := fmt.Sprintf("%s:%d", address, port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      middle.DontPanic()(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return httpServer.ListenAndServe()
}

// Close shuts down the persistence layer backing the server.
func (s Server) Close() error {
	return s.db.Close()
}

// Shutdown is provided for symmetry with context-aware shutdown patterns;
// derivparse's HTTP server does not currently hold any state that requires
// context-scoped teardown beyond closing the DB.
func (s Server) Shutdown(ctx context.Context) error {
	return s.Close()
}
