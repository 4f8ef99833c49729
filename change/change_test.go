package change

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/catalog/catalogtest"
	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
)

func pageChange(id string, tier permission.Tier, oldP, newP permission.Type) Change {
	return Change{
		EntityType:    permission.EntityPage,
		EntityID:      id,
		Tier:          tier,
		OldPermission: oldP,
		NewPermission: newP,
	}
}

func TestQueue_CollapsesToLatest(t *testing.T) {
	q := NewQueue()
	require.True(t, q.Put(pageChange("p1", permission.TierMid, permission.None, permission.ReadOnly)))
	require.True(t, q.Put(pageChange("p2", permission.TierMid, permission.None, permission.Full)))
	require.True(t, q.Put(pageChange("p1", permission.TierMid, permission.ReadOnly, permission.Full)))

	changes := q.Changes()
	require.Len(t, changes, 2)
	assert.Equal(t, "p1", changes[0].EntityID)
	assert.Equal(t, permission.None, changes[0].OldPermission)
	assert.Equal(t, permission.Full, changes[0].NewPermission)
}

func TestQueue_ReturnToOriginalDrops(t *testing.T) {
	q := NewQueue()
	q.Put(pageChange("p1", permission.TierMid, permission.None, permission.ReadOnly))
	assert.False(t, q.Put(pageChange("p1", permission.TierMid, permission.ReadOnly, permission.None)))
	assert.Equal(t, 0, q.Len())

	assert.False(t, q.Put(pageChange("p1", permission.TierMid, permission.Full, permission.Full)))
	assert.Equal(t, 0, q.Len())
}

func TestQueue_RemoveAndClear(t *testing.T) {
	q := NewQueue()
	c := pageChange("p1", permission.TierSenior, permission.None, permission.Full)
	q.Put(c)
	q.Put(pageChange("p2", permission.TierSenior, permission.None, permission.Full))

	got, ok := q.Get(c.Key())
	require.True(t, ok)
	assert.Equal(t, permission.Full, got.NewPermission)

	q.Remove(c.Key())
	assert.Equal(t, 1, q.Len())
	q.Remove(c.Key())
	assert.Equal(t, 1, q.Len())

	q.Clear()
	assert.Empty(t, q.Changes())
}

func TestOverlay(t *testing.T) {
	m := inherit.NewMatrix(catalogtest.Catalog(), nil, time.Now())
	c := pageChange(catalogtest.PageROI, permission.TierMid, permission.None, permission.ReadOnly)

	over := Overlay(m, []Change{c})
	assert.Equal(t, permission.ReadOnly, over.Value(permission.PageRef(catalogtest.PageROI), permission.TierMid))
	assert.Equal(t, permission.None, m.Value(permission.PageRef(catalogtest.PageROI), permission.TierMid))
}
