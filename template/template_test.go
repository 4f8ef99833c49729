package template

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/permission"
)

func TestBuiltIns(t *testing.T) {
	want := map[string][5]permission.Type{
		FinancialRestricted: {permission.Full, permission.Full, permission.ReadOnly, permission.None, permission.None},
		ProjectStandard:     {permission.Full, permission.Full, permission.ReadOnly, permission.Full, permission.AssignedOnly},
		SalesTeam:           {permission.Full, permission.Full, permission.ReadOnly, permission.Full, permission.None},
		ExternalLimited:     {permission.Full, permission.Full, permission.ReadOnly, permission.ReadOnly, permission.AssignedOnly},
		HRCompliance:        {permission.Full, permission.ReadOnly, permission.Full, permission.ReadOnly, permission.None},
		SystemAdmin:         {permission.Full, permission.ReadOnly, permission.None, permission.None, permission.None},
	}

	builtIns := BuiltIns()
	require.Len(t, builtIns, len(want))
	for _, tmpl := range builtIns {
		require.NoError(t, tmpl.Validate())
		row, ok := want[tmpl.Name]
		require.True(t, ok, tmpl.Name)
		for i, tier := range permission.Tiers() {
			assert.Equal(t, row[i], tmpl.Permissions[tier], "%s/%s", tmpl.Name, tier)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	tmpl, ok := r.Get(FinancialRestricted)
	require.True(t, ok)
	assert.Equal(t, "Financial Restricted", tmpl.Label)

	err := r.Register(&Template{Name: SalesTeam, Permissions: BuiltIns()[0].Permissions})
	require.Error(t, err)

	err = r.Register(&Template{Name: "partial", Permissions: map[permission.Tier]permission.Type{permission.TierMaster: permission.Full}})
	require.Error(t, err)

	custom := &Template{Name: "aaa", Permissions: BuiltIns()[0].Permissions}
	require.NoError(t, r.Register(custom))

	list := r.List()
	require.Len(t, list, 7)
	assert.Equal(t, FinancialRestricted, list[0].Name)
	assert.Equal(t, "aaa", list[6].Name)
}

func TestLoadYAML(t *testing.T) {
	f, err := os.Open("testdata/custom.yaml")
	require.NoError(t, err)
	defer f.Close()

	r := NewRegistry()
	n, err := r.LoadYAML(f)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tmpl, ok := r.Get("contractor_view")
	require.True(t, ok)
	assert.Equal(t, permission.OwnOnly, tmpl.Permissions[permission.TierExternal])
	assert.False(t, tmpl.BuiltIn)

	_, err = r.LoadYAML(strings.NewReader("templates:\n  - name: bad\n    permissions:\n      master: write\n"))
	require.Error(t, err)
}
