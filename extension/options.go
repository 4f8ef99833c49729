package extension

import (
	"log/slog"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/middleware"
	"github.com/xraph/tierguard/plugin"
	"github.com/xraph/tierguard/store"
)

// ExtOption configures the tierguard Forge extension.
type ExtOption func(*Extension)

// WithConfig replaces the extension configuration.
func WithConfig(cfg Config) ExtOption { return func(e *Extension) { e.config = cfg } }

// WithLogger sets the structured logger handed to the engine.
func WithLogger(l *slog.Logger) ExtOption { return func(e *Extension) { e.logger = l } }

// WithStore sets the persistence backend. It wins over a store found in
// the DI container.
func WithStore(s store.Store) ExtOption {
	return WithEngineOptions(tierguard.WithStore(s))
}

// WithEngineOptions adds engine options applied after the config-derived
// ones.
func WithEngineOptions(opts ...tierguard.Option) ExtOption {
	return func(e *Extension) { e.engineOpts = append(e.engineOpts, opts...) }
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) { e.plugins = append(e.plugins, x) }
}

// WithAuthorizer gates the API with a. It takes precedence over the authz
// files of the config.
func WithAuthorizer(a *middleware.Authorizer) ExtOption {
	return func(e *Extension) { e.authz = a }
}

// WithBasePath sets the URL prefix of the routes.
func WithBasePath(path string) ExtOption { return func(e *Extension) { e.config.BasePath = path } }

// WithMetrics registers the Prometheus plugin.
func WithMetrics() ExtOption { return func(e *Extension) { e.config.EnableMetrics = true } }

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption { return func(e *Extension) { e.config.DisableRoutes = true } }

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption { return func(e *Extension) { e.config.DisableMigrate = true } }
