package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/id"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/store"
	"github.com/xraph/tierguard/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return New() })
}

func TestFailUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()
	ref := permission.PageRef("p1")
	boom := errors.New("boom")
	s.FailUpsert(ref, permission.TierMid, boom)

	rec := &permission.Record{EntityType: ref.Type, EntityID: ref.ID, Tier: permission.TierMid, Type: permission.Full}
	assert.ErrorIs(t, s.UpsertPermission(ctx, rec), boom)

	s.FailUpsert(ref, permission.TierMid, nil)
	require.NoError(t, s.UpsertPermission(ctx, rec))
}

func TestFailAudit(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")
	s.FailAudit(boom)

	entry := &audit.Entry{ID: id.NewAuditID(), EntityType: permission.EntityPage, EntityID: "p1", Tier: permission.TierMid, Action: audit.ActionGrant}
	assert.ErrorIs(t, s.AppendAuditEntry(ctx, entry), boom)
	n, err := s.CountAuditEntries(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	s.FailAudit(nil)
	require.NoError(t, s.AppendAuditEntry(ctx, entry))
}
