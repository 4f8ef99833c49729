package permission

import (
	"context"
	"time"
)

// Store defines persistence operations for explicit permission records.
type Store interface {
	// UpsertPermission creates or replaces the record for (entity, tier).
	// The stored record keeps the ID of an existing record for the same key.
	UpsertPermission(ctx context.Context, r *Record) error

	// GetPermission returns the explicit record for (entity, tier).
	GetPermission(ctx context.Context, ref Ref, tier Tier) (*Record, error)

	// ListPermissions returns records matching the filter.
	ListPermissions(ctx context.Context, filter *ListFilter) ([]*Record, error)

	// DeletePermission removes the explicit record for (entity, tier).
	DeletePermission(ctx context.Context, ref Ref, tier Tier) error

	// DeleteExpiredPermissions removes records whose expiry is before now.
	DeleteExpiredPermissions(ctx context.Context, now time.Time) (int64, error)
}
