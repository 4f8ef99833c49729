package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/permission"
)

func ptr(t permission.Type) *permission.Type { return &t }

func TestActionFor(t *testing.T) {
	assert.Equal(t, ActionGrant, ActionFor(nil, permission.Full))
	assert.Equal(t, ActionGrant, ActionFor(ptr(permission.None), permission.ReadOnly))
	assert.Equal(t, ActionRevoke, ActionFor(ptr(permission.Full), permission.None))
	assert.Equal(t, ActionRevoke, ActionFor(nil, permission.None))
	assert.Equal(t, ActionModify, ActionFor(ptr(permission.Full), permission.ReadOnly))
}

func TestView(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []*Entry{
		{EntityName: "ROI Management", ChangedByName: "Alice", Reason: "quarterly review", Action: ActionGrant, CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{EntityName: "Sales Pipeline", ChangedByName: "Bob", Action: ActionRevoke, CreatedAt: now.Add(-20 * 24 * time.Hour)},
		{EntityName: "Crew Management", ChangedByName: "system", Action: ActionModify, IsSystemChange: true, CreatedAt: now.Add(-time.Hour)},
		{EntityName: "Archive", ChangedByName: "Alice", Action: ActionModify, CreatedAt: now.Add(-200 * 24 * time.Hour)},
	}

	assert.Len(t, View{}.Apply(entries, now), 3)
	assert.Len(t, View{ShowSystem: true, Window: WindowAll}.Apply(entries, now), 4)
	assert.Len(t, View{Window: Window7Days}.Apply(entries, now), 1)
	assert.Len(t, View{Window: Window30Days}.Apply(entries, now), 2)
	assert.Len(t, View{Window: Window90Days, ShowSystem: true}.Apply(entries, now), 3)

	got := View{Search: "alice"}.Apply(entries, now)
	require.Len(t, got, 2)
	assert.Equal(t, "ROI Management", got[0].EntityName)

	assert.Len(t, View{Search: "QUARTERLY"}.Apply(entries, now), 1)
	assert.Len(t, View{Action: ActionRevoke}.Apply(entries, now), 1)
	assert.Len(t, View{Action: "all"}.Apply(entries, now), 3)
}

func TestExportCSV(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	entries := []*Entry{
		{
			EntityType: permission.EntityPage, EntityName: "ROI Management", Tier: permission.TierSenior,
			Action: ActionGrant, NewPermission: ptr(permission.Full), ChangedByName: "Alice",
			Reason: `said "ok"`, CreatedAt: at,
		},
		{
			EntityType: permission.EntityField, EntityName: "Deal Value", Tier: permission.TierMid,
			Action: ActionModify, OldPermission: ptr(permission.Full), NewPermission: ptr(permission.ReadOnly),
			ChangedByName: "Bob", CreatedAt: at,
		},
	}

	out := ExportCSV(entries)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"Date","Entity Type","Entity Name","User Tier","Action","Old Permission","New Permission","Changed By","Reason"`, lines[0])
	assert.Equal(t, `"2026-02-03 04:05:06","page","ROI Management","senior","grant","None","full","Alice","said ""ok"""`, lines[1])
	assert.Equal(t, `"2026-02-03 04:05:06","field","Deal Value","mid","modify","full","read_only","Bob",""`, lines[2])

	var b strings.Builder
	require.NoError(t, WriteCSV(&b, nil))
	assert.Equal(t, lines[0], b.String())
}
