// Package extension provides a Forge extension entry point for tierguard.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/api"
	"github.com/xraph/tierguard/cache"
	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/metrics"
	"github.com/xraph/tierguard/middleware"
	"github.com/xraph/tierguard/plugin"
	"github.com/xraph/tierguard/store"
	"github.com/xraph/tierguard/template"
	"github.com/xraph/tierguard/validate"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "tierguard"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Tier-based page, section and field permissions with inheritance and validation"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts tierguard as a Forge extension.
type Extension struct {
	config     Config
	eng        *tierguard.Engine
	apiHandler *api.API
	logger     *slog.Logger
	engineOpts []tierguard.Option
	plugins    []plugin.Plugin
	authz      *middleware.Authorizer
}

// New creates a tierguard Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying tierguard engine.
func (e *Extension) Engine() *tierguard.Engine { return e.eng }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*tierguard.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("tierguard: register engine in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := e.engineOptions(logger)
	if err != nil {
		return err
	}

	// Resolve the store from the container; an option-provided store wins.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append([]tierguard.Option{tierguard.WithStore(s)}, opts...)
	}

	eng, err := tierguard.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("tierguard: create engine: %w", err)
	}
	e.eng = eng

	var apiOpts []api.Option
	if !e.config.DisableAuthz {
		authz, err := e.authorizer()
		if err != nil {
			return err
		}
		apiOpts = append(apiOpts, api.WithAuthorizer(authz))
	}
	e.apiHandler = api.New(eng, fapp.Router(), apiOpts...)

	if !e.config.DisableRoutes {
		router := fapp.Router()
		if e.config.BasePath != "" {
			router = router.Group(e.config.BasePath)
		}
		if err := e.apiHandler.RegisterRoutes(router); err != nil {
			return fmt.Errorf("tierguard: register routes: %w", err)
		}
	}

	return nil
}

// engineOptions builds the engine options from the extension config. Files
// named in the config are read here so that a bad file fails registration.
func (e *Extension) engineOptions(logger *slog.Logger) ([]tierguard.Option, error) {
	opts := []tierguard.Option{tierguard.WithLogger(logger)}

	cfg := tierguard.DefaultConfig()
	if e.config.EngineConfigFile != "" {
		loaded, err := tierguard.LoadConfigFile(e.config.EngineConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	opts = append(opts, tierguard.WithConfig(cfg))
	if cfg.CacheTTL > 0 {
		opts = append(opts, tierguard.WithCache(cache.NewMemory(cache.WithTTL(cfg.CacheTTL))))
	}

	if e.config.TemplatesFile != "" {
		reg := template.NewRegistry()
		if err := loadFile(e.config.TemplatesFile, func(f *os.File) error {
			_, err := reg.LoadYAML(f)
			return err
		}); err != nil {
			return nil, fmt.Errorf("tierguard: templates: %w", err)
		}
		opts = append(opts, tierguard.WithTemplates(reg))
	}

	if e.config.RulesFile != "" {
		var rules []*validate.CustomRule
		if err := loadFile(e.config.RulesFile, func(f *os.File) error {
			var err error
			rules, err = validate.LoadRules(f)
			return err
		}); err != nil {
			return nil, fmt.Errorf("tierguard: rules: %w", err)
		}
		opts = append(opts, tierguard.WithValidator(validate.New(validate.WithCustomRules(rules...))))
	}

	if e.config.CatalogFile != "" {
		seed, err := catalog.LoadSeedFile(e.config.CatalogFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tierguard.WithCatalogSeed(seed))
	}

	if e.config.EnableMetrics {
		opts = append(opts, tierguard.WithPlugin(metrics.New(prometheus.DefaultRegisterer)))
	}

	// User-provided options may override the store and anything above.
	opts = append(opts, e.engineOpts...)
	for _, x := range e.plugins {
		opts = append(opts, tierguard.WithPlugin(x))
	}
	return opts, nil
}

func (e *Extension) authorizer() (*middleware.Authorizer, error) {
	switch {
	case e.authz != nil:
		return e.authz, nil
	case e.config.AuthzModelFile != "" && e.config.AuthzPolicyFile != "":
		return middleware.NewAuthorizerFromFiles(e.config.AuthzModelFile, e.config.AuthzPolicyFile)
	case e.config.AuthzModelFile != "" || e.config.AuthzPolicyFile != "":
		return nil, errors.New("tierguard: authz_model_file and authz_policy_file must be set together")
	default:
		return middleware.NewAuthorizer()
	}
}

func loadFile(path string, fn func(*os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

// Start runs migrations if enabled, then starts the engine.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("tierguard: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.eng.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("tierguard: migration failed: %w", err)
		}
	}

	return e.eng.Start(ctx)
}

// Stop gracefully shuts down the tierguard engine.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	return e.eng.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("tierguard: extension not initialized")
	}
	return e.eng.Store().Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all tierguard API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
