// Package api provides HTTP handlers for the tierguard permission engine.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/middleware"
)

// API wires all tierguard HTTP handlers together.
type API struct {
	eng    *tierguard.Engine
	router forge.Router
	authz  *middleware.Authorizer
}

// Option configures the API.
type Option func(*API)

// WithAuthorizer gates every handler by the caller's tier. Without one,
// handlers only pass the caller on to the engine.
func WithAuthorizer(a *middleware.Authorizer) Option {
	return func(api *API) { api.authz = a }
}

// New creates an API from an Engine and a Forge router.
func New(eng *tierguard.Engine, router forge.Router, opts ...Option) *API {
	a := &API{eng: eng, router: router}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("tierguard: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerCatalogRoutes,
		a.registerPermissionRoutes,
		a.registerBulkRoutes,
		a.registerSessionRoutes,
		a.registerAuditRoutes,
		a.registerTransferRoutes,
		a.registerAccessRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}
