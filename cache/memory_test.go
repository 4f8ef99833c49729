package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
)

func resolution(id string, tier permission.Tier, v permission.Type) *inherit.Resolution {
	return &inherit.Resolution{Ref: permission.PageRef(id), Tier: tier, Value: v, IsValid: true}
}

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	_, ok := c.Get(ctx, permission.PageRef("p1"), permission.TierMid)
	assert.False(t, ok)

	c.Set(ctx, resolution("p1", permission.TierMid, permission.ReadOnly))
	got, ok := c.Get(ctx, permission.PageRef("p1"), permission.TierMid)
	require.True(t, ok)
	assert.Equal(t, permission.ReadOnly, got.Value)

	// The returned value is a copy.
	got.Value = permission.Full
	again, _ := c.Get(ctx, permission.PageRef("p1"), permission.TierMid)
	assert.Equal(t, permission.ReadOnly, again.Value)
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(WithTTL(time.Second), WithClock(func() time.Time { return now }))

	c.Set(ctx, resolution("p1", permission.TierMid, permission.ReadOnly))
	now = now.Add(2 * time.Second)

	_, ok := c.Get(ctx, permission.PageRef("p1"), permission.TierMid)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheInvalidateTier(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, resolution("p1", permission.TierMid, permission.ReadOnly))
	c.Set(ctx, resolution("p2", permission.TierMid, permission.None))
	c.Set(ctx, resolution("p1", permission.TierSenior, permission.Full))

	c.InvalidateTier(ctx, permission.TierMid)

	_, ok := c.Get(ctx, permission.PageRef("p1"), permission.TierMid)
	assert.False(t, ok)
	_, ok = c.Get(ctx, permission.PageRef("p1"), permission.TierSenior)
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())

	c.InvalidateAll(ctx)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	c.Set(ctx, resolution("p1", permission.TierMid, permission.ReadOnly))
	c.Set(ctx, resolution("p2", permission.TierMid, permission.ReadOnly))
	c.Set(ctx, resolution("p3", permission.TierMid, permission.ReadOnly))

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(ctx, permission.PageRef("p3"), permission.TierMid)
	assert.True(t, ok)
}

func TestMemoryCacheFullWithNewTier(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(WithMaxSize(2), WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	c.Set(ctx, resolution("p1", permission.TierMid, permission.ReadOnly))
	c.Set(ctx, resolution("p2", permission.TierMid, permission.ReadOnly))

	// A full cache receiving the first entry of another tier.
	c.Set(ctx, resolution("p3", permission.TierSenior, permission.Full))
	got, ok := c.Get(ctx, permission.PageRef("p3"), permission.TierSenior)
	require.True(t, ok)
	assert.Equal(t, permission.Full, got.Value)
	assert.Equal(t, 2, c.Len())

	// Same again after every entry expired, which empties the buckets.
	now = now.Add(2 * time.Minute)
	c.Set(ctx, resolution("p4", permission.TierMid, permission.ReadOnly))
	c.Set(ctx, resolution("p5", permission.TierExternal, permission.None))
	_, ok = c.Get(ctx, permission.PageRef("p5"), permission.TierExternal)
	assert.True(t, ok)
	_, ok = c.Get(ctx, permission.PageRef("p4"), permission.TierMid)
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCacheSetAfterInvalidateOnFullCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	c.Set(ctx, resolution("p1", permission.TierMid, permission.ReadOnly))
	c.Set(ctx, resolution("p2", permission.TierSenior, permission.Full))
	c.InvalidateTier(ctx, permission.TierMid)
	c.Set(ctx, resolution("p3", permission.TierExternal, permission.None))
	c.Set(ctx, resolution("p1", permission.TierMid, permission.None))

	_, ok := c.Get(ctx, permission.PageRef("p1"), permission.TierMid)
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}
