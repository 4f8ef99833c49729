package middleware

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/permission"
)

func TestDefaultAuthorizer(t *testing.T) {
	a, err := NewAuthorizer()
	require.NoError(t, err)

	tests := []struct {
		tier   permission.Tier
		object string
		action string
		want   bool
	}{
		{permission.TierMaster, ObjectPermissions, ActionWrite, true},
		{permission.TierMaster, ObjectTransfer, ActionRead, true},
		{permission.TierSenior, ObjectAudit, ActionRead, true},
		{permission.TierSenior, ObjectPermissions, ActionWrite, false},
		{permission.TierHRFinance, ObjectAudit, ActionRead, true},
		{permission.TierHRFinance, ObjectTransfer, ActionRead, false},
		{permission.TierMid, ObjectCatalog, ActionRead, true},
		{permission.TierMid, ObjectAudit, ActionRead, false},
		{permission.TierExternal, ObjectAccess, ActionRead, true},
		{permission.TierExternal, ObjectCatalog, ActionRead, false},
		{permission.TierMaster, ObjectSessions, ActionBypass, true},
		{permission.TierSenior, ObjectSessions, ActionBypass, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier)+"/"+tt.object+"/"+tt.action, func(t *testing.T) {
			got, err := a.Allow(tt.tier, tt.object, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthorizerFromFiles(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.conf")
	policyPath := filepath.Join(dir, "policy.csv")
	require.NoError(t, os.WriteFile(modelPath, []byte(defaultModel), 0o644))
	require.NoError(t, os.WriteFile(policyPath, []byte("p, senior, permissions, write\n"), 0o644))

	a, err := NewAuthorizerFromFiles(modelPath, policyPath)
	require.NoError(t, err)

	ok, err := a.Allow(permission.TierSenior, ObjectPermissions, ActionWrite)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Allow(permission.TierMaster, ObjectPermissions, ActionWrite)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllowBypass(t *testing.T) {
	a, err := NewAuthorizer()
	require.NoError(t, err)

	ok, err := a.AllowBypass(permission.TierMaster)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.AllowBypass(permission.TierSenior)
	require.NoError(t, err)
	assert.False(t, ok)

	// Write access to sessions does not carry bypass.
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.conf")
	policyPath := filepath.Join(dir, "policy.csv")
	require.NoError(t, os.WriteFile(modelPath, []byte(defaultModel), 0o644))
	require.NoError(t, os.WriteFile(policyPath, []byte("p, mid, sessions, write\n"), 0o644))
	custom, err := NewAuthorizerFromFiles(modelPath, policyPath)
	require.NoError(t, err)

	ok, err = custom.Allow(permission.TierMid, ObjectSessions, ActionWrite)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = custom.AllowBypass(permission.TierMid)
	require.NoError(t, err)
	assert.False(t, ok)

	// Without an authorizer only master may bypass.
	var none *Authorizer
	ok, err = none.AllowBypass(permission.TierMaster)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = none.AllowBypass(permission.TierMid)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "10.0.0.1", clientIP("10.0.0.1, 172.16.0.1", "192.168.1.5:4411"))
	assert.Equal(t, "192.168.1.5", clientIP("", "192.168.1.5:4411"))
	assert.Equal(t, "pipe", clientIP("", "pipe"))
}
