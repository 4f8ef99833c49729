package tierguard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/validate"
)

// EffectivePermission resolves the effective permission of ref for tier.
// This is the hot path: only records on the ancestor chain are loaded.
func (e *Engine) EffectivePermission(ctx context.Context, ref permission.Ref, tier permission.Tier) (*Resolution, error) {
	if err := checkTier(tier); err != nil {
		return nil, err
	}
	cat, err := e.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, ref, tier); ok {
			return cached, nil
		}
	}

	chain := []string{ref.ID}
	for cur := ref; ; {
		parent, ok := cat.Parent(cur)
		if !ok {
			break
		}
		chain = append(chain, parent.ID)
		cur = parent
	}

	records, err := e.store.ListPermissions(ctx, &permission.ListFilter{EntityIDs: chain, Tier: tier})
	if err != nil {
		return nil, fmt.Errorf("tierguard: list permissions: %w", err)
	}
	now := e.now()
	res := inherit.NewMatrix(cat, records, now).Effective(ref, tier)

	// A resolution resting on an expiring record would outlive it in the cache.
	if e.cache != nil && !expiring(records, now) {
		e.cache.Set(ctx, &res)
	}
	return &res, nil
}

func expiring(records []*permission.Record, now time.Time) bool {
	for _, r := range records {
		if r.ExpiresAt != nil && !r.Expired(now) {
			return true
		}
	}
	return false
}

// Validate runs the validator over the current matrix with pending
// overlaid. Nothing is persisted.
func (e *Engine) Validate(ctx context.Context, pending []change.Change) (*validate.Report, error) {
	m, err := e.Matrix(ctx)
	if err != nil {
		return nil, err
	}
	report := e.validator.Validate(m, pending)

	counts := report.Counts()
	e.logger.Debug("tierguard: validation completed",
		slog.Int("pending", len(pending)),
		slog.Int("errors", counts[validate.TypeError]),
		slog.Int("warnings", counts[validate.TypeWarning]),
	)
	if e.plugins != nil {
		e.plugins.EmitValidationCompleted(ctx, report)
	}
	return report, nil
}

// SearchPages filters the catalog pages. KindRestricted keeps pages that
// explicitly deny mid or external users.
func (e *Engine) SearchPages(ctx context.Context, filter catalog.PageFilter) ([]*catalog.Page, error) {
	cat, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if filter.Kind != catalog.KindRestricted {
		return cat.Search(filter), nil
	}

	m, err := e.matrixFor(ctx, cat, &permission.ListFilter{EntityType: permission.EntityPage})
	if err != nil {
		return nil, err
	}
	var out []*catalog.Page
	for _, p := range cat.Search(catalog.PageFilter{Search: filter.Search}) {
		ref := permission.PageRef(p.ID)
		for _, tier := range []permission.Tier{permission.TierMid, permission.TierExternal} {
			if v, ok := m.Explicit(ref, tier); ok && v == permission.None {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}
