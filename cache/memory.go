// Package cache provides caching implementations for tierguard resolutions.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
)

// Compile-time interface check.
var _ tierguard.Cache = (*Memory)(nil)

// Memory is an in-memory cache with TTL-based expiration, partitioned by
// tier so a tier can be dropped in one step.
type Memory struct {
	mu      sync.RWMutex
	tiers   map[permission.Tier]map[permission.Ref]*entry
	size    int
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

type entry struct {
	res       inherit.Resolution
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		tiers:   make(map[permission.Tier]map[permission.Ref]*entry),
		ttl:     5 * time.Minute,
		maxSize: 10000,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the cached resolution.
func (m *Memory) Get(_ context.Context, ref permission.Ref, tier permission.Tier) (*inherit.Resolution, bool) {
	m.mu.RLock()
	e, ok := m.tiers[tier][ref]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		m.remove(tier, ref)
		m.mu.Unlock()
		return nil, false
	}
	res := e.res
	return &res, true
}

// Set stores a resolution in the cache.
func (m *Memory) Set(_ context.Context, res *inherit.Resolution) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tiers[res.Tier][res.Ref]; !exists {
		// Eviction may drop empty buckets, so it runs before the bucket
		// for res.Tier is looked up.
		if m.size >= m.maxSize {
			m.evictExpired()
			if m.size >= m.maxSize {
				m.evictOne()
			}
		}
		m.size++
	}
	bucket, ok := m.tiers[res.Tier]
	if !ok {
		bucket = make(map[permission.Ref]*entry)
		m.tiers[res.Tier] = bucket
	}
	bucket[res.Ref] = &entry{res: *res, expiresAt: m.now().Add(m.ttl)}
}

// InvalidateTier removes all cached resolutions for a tier.
func (m *Memory) InvalidateTier(_ context.Context, tier permission.Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.size -= len(m.tiers[tier])
	delete(m.tiers, tier)
}

// InvalidateAll empties the cache.
func (m *Memory) InvalidateAll(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers = make(map[permission.Tier]map[permission.Ref]*entry)
	m.size = 0
}

// Len returns the number of cached entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

// remove drops one entry. Must hold write lock.
func (m *Memory) remove(tier permission.Tier, ref permission.Ref) {
	if _, ok := m.tiers[tier][ref]; ok {
		delete(m.tiers[tier], ref)
		m.size--
	}
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := m.now()
	for tier, bucket := range m.tiers {
		for ref, e := range bucket {
			if now.After(e.expiresAt) {
				delete(bucket, ref)
				m.size--
			}
		}
		if len(bucket) == 0 {
			delete(m.tiers, tier)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for tier, bucket := range m.tiers {
		for ref := range bucket {
			delete(bucket, ref)
			m.size--
			if len(bucket) == 0 {
				delete(m.tiers, tier)
			}
			return
		}
	}
}
