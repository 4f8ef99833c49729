package tierguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/plugin"
	"github.com/xraph/tierguard/store"
	"github.com/xraph/tierguard/template"
	"github.com/xraph/tierguard/validate"
)

// Engine is the central permission engine. It resolves effective
// permissions over the catalog hierarchy, validates and applies changes,
// records the audit trail, and fires plugin hooks.
type Engine struct {
	store     store.Store
	cache     Cache
	plugins   *plugin.Registry
	logger    *slog.Logger
	config    Config
	validator *validate.Validator
	templates *template.Registry
	seed      *catalog.Seed
	now       func() time.Time

	mu      sync.RWMutex
	catalog *catalog.Catalog

	sessMu   sync.Mutex
	sessions map[string]*Session
}

// NewEngine creates a new tierguard engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:   slog.Default(),
		config:   DefaultConfig(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("tierguard: store is required")
	}
	if e.validator == nil {
		e.validator = validate.New()
	}
	if e.templates == nil {
		e.templates = template.NewRegistry()
	}
	e.config = e.config.withDefaults()
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Templates returns the template registry.
func (e *Engine) Templates() *template.Registry { return e.templates }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// Start seeds the catalog when a seed was configured and loads it.
func (e *Engine) Start(ctx context.Context) error {
	if e.seed != nil {
		n, err := e.seed.Apply(ctx, e.store)
		if err != nil {
			return fmt.Errorf("tierguard: seed catalog: %w", err)
		}
		if n > 0 {
			e.logger.Info("tierguard: catalog seeded", slog.Int("created", n))
		}
	}
	return e.ReloadCatalog(ctx)
}

// Stop notifies plugins of shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// ReloadCatalog re-reads the catalog from the store and drops every cached
// resolution.
func (e *Engine) ReloadCatalog(ctx context.Context) error {
	cat, err := catalog.Load(ctx, e.store)
	if err != nil {
		return fmt.Errorf("tierguard: load catalog: %w", err)
	}
	e.mu.Lock()
	e.catalog = cat
	e.mu.Unlock()

	if e.cache != nil {
		e.cache.InvalidateAll(ctx)
	}
	return nil
}

// Catalog returns the loaded catalog, loading it on first use.
func (e *Engine) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	e.mu.RLock()
	cat := e.catalog
	e.mu.RUnlock()
	if cat != nil {
		return cat, nil
	}
	if err := e.ReloadCatalog(ctx); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog, nil
}

// Matrix returns a snapshot of the catalog with every unexpired explicit
// permission applied.
func (e *Engine) Matrix(ctx context.Context) (*inherit.Matrix, error) {
	cat, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return e.matrixFor(ctx, cat, nil)
}

// matrixFor builds a matrix from the records matching filter.
func (e *Engine) matrixFor(ctx context.Context, cat *catalog.Catalog, filter *permission.ListFilter) (*inherit.Matrix, error) {
	records, err := e.store.ListPermissions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("tierguard: list permissions: %w", err)
	}
	return inherit.NewMatrix(cat, records, e.now()), nil
}

// lookup validates ref against the catalog.
func (e *Engine) lookup(ctx context.Context, ref permission.Ref) (*catalog.Catalog, error) {
	if !ref.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEntityType, ref.Type)
	}
	cat, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if !cat.Has(ref) {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, ref)
	}
	return cat, nil
}

// resolveRef turns a bare entity id into a reference by catalog lookup.
func (e *Engine) resolveRef(cat *catalog.Catalog, entityID string) (permission.Ref, error) {
	kind, ok := cat.Kind(entityID)
	if !ok {
		return permission.Ref{}, fmt.Errorf("%w: %s", ErrEntityNotFound, entityID)
	}
	return permission.Ref{Type: kind, ID: entityID}, nil
}

func checkTier(tier permission.Tier) error {
	if !tier.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTier, tier)
	}
	return nil
}

func checkType(t permission.Type) error {
	if !t.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPermission, t)
	}
	return nil
}
