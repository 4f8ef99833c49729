package inherit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/catalog/catalogtest"
	"github.com/xraph/tierguard/permission"
)

func TestValidateInheritance_AllPairs(t *testing.T) {
	for _, child := range permission.Types() {
		for _, parent := range permission.Types() {
			want := child.Rank() <= parent.Rank()
			assert.Equal(t, want, ValidateInheritance(child, parent), "child=%s parent=%s", child, parent)
		}
	}
}

func TestValidChildPermissions(t *testing.T) {
	assert.Equal(t, []permission.Type{permission.None}, ValidChildPermissions(permission.None))
	assert.Equal(t, permission.Types(), ValidChildPermissions(permission.Full))
	assert.Equal(t,
		[]permission.Type{permission.AssignedOnly, permission.OwnOnly, permission.None},
		ValidChildPermissions(permission.AssignedOnly))
}

func TestCascadePermissionChange(t *testing.T) {
	children := []Child{
		{ID: "a", Permission: permission.Full},
		{ID: "b", Permission: permission.ReadOnly},
		{ID: "c", Permission: permission.OwnOnly},
		{ID: "d", Permission: permission.None},
	}

	for _, parent := range permission.Types() {
		fixes := CascadePermissionChange(parent, children)
		fixed := map[string]Fix{}
		for _, f := range fixes {
			fixed[f.ID] = f
			assert.LessOrEqual(t, f.NewPermission.Rank(), parent.Rank())
			assert.Equal(t, parent, f.NewPermission, "downgrade goes to the most permissive valid type")
		}
		for _, c := range children {
			_, has := fixed[c.ID]
			assert.Equal(t, c.Permission.Rank() > parent.Rank(), has, "parent=%s child=%s", parent, c.ID)
		}
	}

	fixes := CascadePermissionChange(permission.ReadOnly, children)
	require.Len(t, fixes, 1)
	assert.Equal(t, "Cascaded from parent: read_only → read_only", fixes[0].Reason)
	assert.Equal(t, permission.Full, fixes[0].OldPermission)
}

func TestEffective_InheritsToRoot(t *testing.T) {
	m := NewMatrix(catalogtest.Catalog(), nil, time.Now())

	res := m.Effective(permission.FieldRef(catalogtest.FieldTotalRevenue), permission.TierExternal)
	assert.Equal(t, permission.None, res.Value)
	assert.True(t, res.IsInherited)

	page := m.Effective(permission.PageRef(catalogtest.PageROI), permission.TierExternal)
	assert.Equal(t, permission.None, page.Value)
	assert.False(t, page.IsInherited)
	assert.Nil(t, page.Parent)

	m.Set(permission.PageRef(catalogtest.PageROI), permission.TierSenior, permission.ReadOnly)
	for _, ref := range []permission.Ref{
		permission.SectionRef(catalogtest.SectionROIAnalysis),
		permission.FieldRef(catalogtest.FieldTotalRevenue),
	} {
		res := m.Effective(ref, permission.TierSenior)
		assert.Equal(t, permission.ReadOnly, res.Value)
		assert.True(t, res.IsInherited)
		assert.False(t, res.IsOverridden)
	}
}

func TestEffective_OverrideAndValidity(t *testing.T) {
	m := NewMatrix(catalogtest.Catalog(), nil, time.Now())
	page := permission.PageRef(catalogtest.PageSales)
	section := permission.SectionRef(catalogtest.SectionSalesOpps)
	field := permission.FieldRef(catalogtest.FieldDealValue)

	m.Set(page, permission.TierMid, permission.ReadOnly)
	m.Set(section, permission.TierMid, permission.Full)

	res := m.Effective(section, permission.TierMid)
	assert.Equal(t, permission.Full, res.Value)
	assert.True(t, res.IsOverridden)
	assert.False(t, res.IsInherited)
	assert.False(t, res.IsValid)

	// The field inherits the section's override, not the page value.
	assert.Equal(t, permission.Full, m.Value(field, permission.TierMid))

	m.Set(section, permission.TierMid, permission.ReadOnly)
	res = m.Effective(section, permission.TierMid)
	assert.False(t, res.IsOverridden)
	assert.True(t, res.IsValid)

	m.Unset(section, permission.TierMid)
	assert.True(t, m.Effective(section, permission.TierMid).IsInherited)
}

func TestNewMatrix_IgnoresExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	records := []*permission.Record{
		{EntityType: permission.EntityPage, EntityID: catalogtest.PageCrew, Tier: permission.TierMid, Type: permission.Full, ExpiresAt: &past},
		{EntityType: permission.EntityPage, EntityID: catalogtest.PageCrew, Tier: permission.TierSenior, Type: permission.Full},
	}
	m := NewMatrix(catalogtest.Catalog(), records, now)
	_, ok := m.Explicit(permission.PageRef(catalogtest.PageCrew), permission.TierMid)
	assert.False(t, ok)
	assert.Equal(t, permission.Full, m.Value(permission.PageRef(catalogtest.PageCrew), permission.TierSenior))
}

func TestCloneIsIndependent(t *testing.T) {
	m := NewMatrix(catalogtest.Catalog(), nil, time.Now())
	page := permission.PageRef(catalogtest.PageCrew)
	cp := m.Clone()
	cp.Set(page, permission.TierMaster, permission.Full)
	assert.Equal(t, permission.None, m.Value(page, permission.TierMaster))
	assert.Equal(t, permission.Full, cp.Value(page, permission.TierMaster))
}

func TestExplicitChildren(t *testing.T) {
	m := NewMatrix(catalogtest.Catalog(), nil, time.Now())
	page := permission.PageRef(catalogtest.PageROI)
	m.Set(permission.SectionRef(catalogtest.SectionROIEstimates), permission.TierMid, permission.Full)

	children := m.ExplicitChildren(page, permission.TierMid)
	require.Len(t, children, 1)
	assert.Equal(t, catalogtest.SectionROIEstimates, children[0].ID)
	assert.Empty(t, m.ExplicitChildren(page, permission.TierSenior))
}
