package tierguard

import (
	"log/slog"
	"time"

	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/plugin"
	"github.com/xraph/tierguard/store"
	"github.com/xraph/tierguard/template"
	"github.com/xraph/tierguard/validate"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithCache sets the resolution cache.
func WithCache(c Cache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithValidator replaces the default validator, typically to add custom
// rules.
func WithValidator(v *validate.Validator) Option { return func(e *Engine) { e.validator = v } }

// WithTemplates replaces the default template registry.
func WithTemplates(r *template.Registry) Option { return func(e *Engine) { e.templates = r } }

// WithCatalogSeed creates any missing catalog entity of seed on Start.
func WithCatalogSeed(seed *catalog.Seed) Option { return func(e *Engine) { e.seed = seed } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(x)
	}
}
