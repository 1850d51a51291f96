// Package api exposes the tax return store and calculation engine over a
// small JSON REST surface intended for a local UI.
package api

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/gallaway-jp/freedomtax/audit"
	"github.com/gallaway-jp/freedomtax/calc"
	"github.com/gallaway-jp/freedomtax/taxreturn"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	store  *taxreturn.Store
	engine *calc.Engine
	tables calc.Tables
	audit  *audit.Store
	log    *slog.Logger
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for request diagnostics.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) {
		a.log = log
	}
}

// WithAudit records save/load/calculate events in the given audit log.
func WithAudit(store *audit.Store) Option {
	return func(a *API) {
		a.audit = store
	}
}

// New creates a new API instance.
func New(store *taxreturn.Store, tables calc.Tables, opts ...Option) *API {
	a := &API{
		store:  store,
		engine: calc.NewEngine(),
		tables: tables,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", a.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/return", a.GetReturn)
		r.Get("/return/field", a.GetField)
		r.Put("/return/field", a.SetField)
		r.Post("/return/list", a.AppendToList)
		r.Post("/return/save", a.SaveReturn)
		r.Post("/return/load", a.LoadReturn)
		r.Post("/return/calculate", a.Calculate)
		r.Get("/audit", a.ListAuditEntries)
	})

	return r
}

// recordAudit appends an audit entry if an audit store is configured.
// Audit failures are logged, never surfaced to the caller.
func (a *API) recordAudit(action audit.Action, detail string) {
	if a.audit == nil {
		return
	}
	if err := a.audit.Append(a.store.Return().Metadata.ReturnID, action, detail); err != nil {
		a.log.Warn("audit append failed", "action", string(action), "error", err)
	}
}
