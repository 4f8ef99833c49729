package permission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeRanking(t *testing.T) {
	order := []Type{None, OwnOnly, AssignedOnly, ReadOnly, Full}
	for i := 1; i < len(order); i++ {
		assert.True(t, order[i].Exceeds(order[i-1]), "%s should exceed %s", order[i], order[i-1])
	}
	assert.Equal(t, 0, Type("bogus").Rank())
	assert.Equal(t, ReadOnly, Min(Full, ReadOnly))
	assert.Equal(t, Full, Max(Full, ReadOnly))
	assert.Equal(t, None, Type("").OrNone())
}

func TestParse(t *testing.T) {
	for _, tier := range Tiers() {
		got, err := ParseTier(string(tier))
		require.NoError(t, err)
		assert.Equal(t, tier, got)
	}
	_, err := ParseTier("admin")
	require.Error(t, err)

	for _, typ := range Types() {
		got, err := ParseType(string(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	_, err = ParseType("write")
	require.Error(t, err)

	_, err = ParseEntityType("widget")
	require.Error(t, err)
}

func TestTierLevels(t *testing.T) {
	tiers := Tiers()
	for i, tier := range tiers {
		assert.Equal(t, 5-i, tier.Level())
	}
	assert.True(t, TierMid.IsRestricted())
	assert.True(t, TierExternal.IsRestricted())
	assert.False(t, TierSenior.IsRestricted())
	assert.True(t, TierHRFinance.CanAccessFinancialData())
	assert.False(t, TierMid.CanAccessFinancialData())
}

func TestCapabilities(t *testing.T) {
	full := CapabilitiesOf(Full)
	assert.True(t, full.Allows(CapApprove))
	assert.Equal(t, ScopeAll, full.Scope)

	ro := CapabilitiesOf(ReadOnly)
	assert.True(t, ro.Allows(CapRead))
	assert.False(t, ro.Allows(CapUpdate))

	assigned := CapabilitiesOf(AssignedOnly)
	assert.True(t, assigned.Allows(CapUpdate))
	assert.False(t, assigned.Allows(CapDelete))
	assert.Equal(t, ScopeAssigned, assigned.Scope)

	assert.Equal(t, ScopeOwn, CapabilitiesOf(OwnOnly).Scope)
	assert.False(t, CapabilitiesOf(None).Allows(CapRead))

	assert.False(t, CapabilitiesFor(EntityField, TierMaster, Full).CanApprove)
	assert.False(t, CapabilitiesFor(EntityPage, TierMid, Full).CanApprove)
	assert.True(t, CapabilitiesFor(EntityPage, TierSenior, Full).CanApprove)
}

func TestRecordExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &Record{EntityType: EntityPage, EntityID: "p1", Tier: TierMid}
	assert.False(t, r.Expired(now))

	past := now.Add(-time.Minute)
	r.ExpiresAt = &past
	assert.True(t, r.Expired(now))

	future := now.Add(time.Minute)
	r.ExpiresAt = &future
	assert.False(t, r.Expired(now))

	assert.Equal(t, Key{Ref: PageRef("p1"), Tier: TierMid}, r.Key())
}
