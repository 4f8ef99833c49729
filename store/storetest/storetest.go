// Package storetest holds the behaviour every tierguard store backend must
// share. Backends run it from their own tests:
//
//	func TestContract(t *testing.T) {
//	    storetest.Run(t, func(t *testing.T) store.Store { return New() })
//	}
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/catalog/catalogtest"
	"github.com/xraph/tierguard/id"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/store"
)

// Factory returns an empty, migrated store. It is called once per subtest.
type Factory func(t *testing.T) store.Store

// Run runs the contract against the stores made by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(*testing.T, store.Store)
	}{
		{"CatalogSeedAndLoad", testCatalogSeedAndLoad},
		{"UpsertKeepsID", testUpsertKeepsID},
		{"ListPermissionsFilter", testListPermissionsFilter},
		{"DeleteExpiredPermissions", testDeleteExpiredPermissions},
		{"AuditNewestFirst", testAuditNewestFirst},
		{"AuditFilters", testAuditFilters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func record(ref permission.Ref, tier permission.Tier, typ permission.Type) *permission.Record {
	return &permission.Record{
		ID:         id.NewPermissionID(),
		EntityType: ref.Type,
		EntityID:   ref.ID,
		Tier:       tier,
		Type:       typ,
		GrantedAt:  time.Now().UTC(),
	}
}

func testCatalogSeedAndLoad(t *testing.T, s store.Store) {
	ctx := context.Background()

	n, err := catalogtest.Seed().Apply(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	n, err = catalogtest.Seed().Apply(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	cat, err := catalog.Load(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, catalogtest.PageROI, cat.Pages()[0].ID)
	assert.True(t, cat.Has(permission.FieldRef(catalogtest.FieldClientContact)))
	assert.True(t, cat.IsSensitive(permission.FieldRef(catalogtest.FieldClientContact)))

	err = s.CreatePage(ctx, &catalog.Page{ID: catalogtest.PageROI, PageName: "dup", DisplayName: "dup"})
	assert.True(t, errors.Is(err, store.ErrAlreadyExists), "got %v", err)

	err = s.UpdatePage(ctx, &catalog.Page{ID: "ghost", PageName: "ghost", DisplayName: "ghost"})
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func testUpsertKeepsID(t *testing.T, s store.Store) {
	ctx := context.Background()
	ref := permission.PageRef("p1")

	first := record(ref, permission.TierMid, permission.ReadOnly)
	require.NoError(t, s.UpsertPermission(ctx, first))

	updated := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	second := record(ref, permission.TierMid, permission.Full)
	second.UpdatedAt = updated
	second.Reason = "promotion"
	require.NoError(t, s.UpsertPermission(ctx, second))
	assert.Equal(t, first.ID.String(), second.ID.String())

	got, err := s.GetPermission(ctx, ref, permission.TierMid)
	require.NoError(t, err)
	assert.Equal(t, first.ID.String(), got.ID.String())
	assert.Equal(t, permission.Full, got.Type)
	assert.Equal(t, "promotion", got.Reason)
	assert.True(t, updated.Equal(got.UpdatedAt), "updated_at %s", got.UpdatedAt)

	all, err := s.ListPermissions(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeletePermission(ctx, ref, permission.TierMid))
	_, err = s.GetPermission(ctx, ref, permission.TierMid)
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
	err = s.DeletePermission(ctx, ref, permission.TierMid)
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func testListPermissionsFilter(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, entityID := range []string{"a", "b", "c"} {
		for _, tier := range []permission.Tier{permission.TierMaster, permission.TierMid} {
			require.NoError(t, s.UpsertPermission(ctx, record(permission.PageRef(entityID), tier, permission.Full)))
		}
	}
	require.NoError(t, s.UpsertPermission(ctx, record(permission.SectionRef("s"), permission.TierMid, permission.None)))

	all, err := s.ListPermissions(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 7)

	pages, err := s.ListPermissions(ctx, &permission.ListFilter{EntityType: permission.EntityPage, EntityIDs: []string{"a", "c"}})
	require.NoError(t, err)
	assert.Len(t, pages, 4)

	chain, err := s.ListPermissions(ctx, &permission.ListFilter{EntityIDs: []string{"b", "s"}, Tier: permission.TierMid})
	require.NoError(t, err)
	assert.Len(t, chain, 2)

	mids, err := s.ListPermissions(ctx, &permission.ListFilter{Tier: permission.TierMid, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, mids, 2)
}

func testDeleteExpiredPermissions(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := record(permission.PageRef("a"), permission.TierMid, permission.Full)
	expired.ExpiresAt = &past
	live := record(permission.PageRef("b"), permission.TierMid, permission.Full)
	live.ExpiresAt = &future
	open := record(permission.PageRef("c"), permission.TierMid, permission.Full)
	for _, r := range []*permission.Record{expired, live, open} {
		require.NoError(t, s.UpsertPermission(ctx, r))
	}

	n, err := s.DeleteExpiredPermissions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rest, err := s.ListPermissions(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
	_, err = s.GetPermission(ctx, permission.PageRef("a"), permission.TierMid)
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func appendEntries(t *testing.T, s store.Store, base time.Time, entityIDs ...string) []id.AuditID {
	t.Helper()
	ids := make([]id.AuditID, 0, len(entityIDs))
	for i, entityID := range entityIDs {
		newPerm := permission.ReadOnly
		e := &audit.Entry{
			ID:            id.NewAuditID(),
			EntityType:    permission.EntityPage,
			EntityID:      entityID,
			EntityName:    "Page " + entityID,
			Tier:          permission.TierMid,
			Action:        audit.ActionGrant,
			NewPermission: &newPerm,
			ChangedBy:     "u-1",
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.AppendAuditEntry(context.Background(), e))
		ids = append(ids, e.ID)
	}
	return ids
}

func testAuditNewestFirst(t *testing.T, s store.Store) {
	ctx := context.Background()
	ids := appendEntries(t, s, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), "a", "b", "a")

	list, err := s.ListAuditEntries(ctx, &audit.QueryFilter{EntityID: "a"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2].String(), list[0].ID.String())
	assert.Equal(t, ids[0].String(), list[1].ID.String())

	limited, err := s.ListAuditEntries(ctx, &audit.QueryFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	count, err := s.CountAuditEntries(ctx, &audit.QueryFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	got, err := s.GetAuditEntry(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, "b", got.EntityID)
	assert.Equal(t, permission.ReadOnly, *got.NewPermission)
	assert.Nil(t, got.OldPermission)

	_, err = s.GetAuditEntry(ctx, id.NewAuditID())
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func testAuditFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	appendEntries(t, s, base, "a", "b", "c", "d")

	after := base.Add(90 * time.Second)
	recent, err := s.ListAuditEntries(ctx, &audit.QueryFilter{After: &after})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	none, err := s.ListAuditEntries(ctx, &audit.QueryFilter{Action: audit.ActionRevoke})
	require.NoError(t, err)
	assert.Empty(t, none)

	mids, err := s.CountAuditEntries(ctx, &audit.QueryFilter{Tier: permission.TierMid})
	require.NoError(t, err)
	assert.Equal(t, int64(4), mids)
}
