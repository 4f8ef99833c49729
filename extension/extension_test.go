package extension

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/store/memory"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEngineOptionsFromFiles(t *testing.T) {
	dir := t.TempDir()
	ext := New(WithConfig(Config{
		EngineConfigFile: writeFile(t, dir, "engine.yaml", "audit_query_limit: 25\ncache_ttl: 1m\n"),
		TemplatesFile: writeFile(t, dir, "templates.yaml", `
templates:
  - name: contractor_view
    label: Contractor View
    permissions:
      master: full
      senior: full
      hr_finance: read_only
      mid: read_only
      external: own_only
`),
		RulesFile: writeFile(t, dir, "rules.yaml", `
rules:
  - id: no-mid-full
    expression: tier == "mid" && permission == "full"
    type: warning
    severity: medium
    category: business_rule
    message: Mid users rarely need full access
`),
		CatalogFile: writeFile(t, dir, "catalog.yaml", `
pages:
  - id: page-ops
    page_name: ops
    display_name: Operations
    sort_order: 1
`),
	}))

	opts, err := ext.engineOptions(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	eng, err := tierguard.NewEngine(append(opts, tierguard.WithStore(memory.New()))...)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, eng.Start(ctx))

	assert.Equal(t, 25, eng.Config().AuditQueryLimit)

	_, ok := eng.Templates().Get("contractor_view")
	assert.True(t, ok)

	cat, err := eng.Catalog(ctx)
	require.NoError(t, err)
	_, ok = cat.Page("page-ops")
	assert.True(t, ok)

	_, err = eng.ApplyPermission(ctx, tierguard.ApplyRequest{
		Ref: permission.PageRef("page-ops"), Tier: permission.TierMid, Permission: permission.Full,
	})
	require.NoError(t, err)
	report, err := eng.Validate(ctx, nil)
	require.NoError(t, err)
	var found bool
	for _, i := range report.Issues {
		if i.ID == "no-mid-full-page-ops-mid" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEngineOptionsMissingFile(t *testing.T) {
	ext := New(WithConfig(Config{TemplatesFile: filepath.Join(t.TempDir(), "missing.yaml")}))
	_, err := ext.engineOptions(slog.Default())
	assert.Error(t, err)
}

func TestAuthorizerConfig(t *testing.T) {
	ext := New(WithConfig(Config{AuthzModelFile: "model.conf"}))
	_, err := ext.authorizer()
	assert.Error(t, err)

	ext = New()
	a, err := ext.authorizer()
	require.NoError(t, err)
	ok, err := a.Allow(permission.TierMaster, "permissions", "write")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDefaults(t *testing.T) {
	ext := New()
	assert.Equal(t, "/tierguard", ext.config.BasePath)
	assert.Equal(t, ExtensionName, ext.Name())
	assert.Nil(t, ext.Engine())
	assert.NoError(t, ext.Stop(context.Background()))
	assert.Error(t, ext.Start(context.Background()))
}
