package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/store"
	"github.com/xraph/tierguard/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "tierguard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

func TestMigrateIsRepeatable(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Ping(context.Background()))
}

func TestConcurrentFirstWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ref := permission.PageRef("p1")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.UpsertPermission(ctx, &permission.Record{
				EntityType: ref.Type, EntityID: ref.ID, Tier: permission.TierMid, Type: permission.ReadOnly,
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	all, err := s.ListPermissions(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestInList(t *testing.T) {
	expr, args := inList("entity_id", []string{"a", "b", "c"})
	assert.Equal(t, "entity_id IN (?, ?, ?)", expr)
	assert.Equal(t, []any{"a", "b", "c"}, args)
}
