package tierguard

import (
	"context"

	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
)

// Cache provides caching for effective permission resolutions.
//
// A write to (entity, tier) can change the resolution of every descendant
// for the same tier, so the engine invalidates whole tiers on mutation and
// everything on catalog reloads.
type Cache interface {
	// Get returns a cached resolution, if available.
	Get(ctx context.Context, ref permission.Ref, tier permission.Tier) (*inherit.Resolution, bool)

	// Set stores a resolution in the cache.
	Set(ctx context.Context, res *inherit.Resolution)

	// InvalidateTier removes all cached resolutions for a tier.
	InvalidateTier(ctx context.Context, tier permission.Tier)

	// InvalidateAll empties the cache.
	InvalidateAll(ctx context.Context)
}
