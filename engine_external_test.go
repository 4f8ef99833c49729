package tierguard_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/cache"
	"github.com/xraph/tierguard/catalog/catalogtest"
	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/store/memory"
	"github.com/xraph/tierguard/transfer"
	"github.com/xraph/tierguard/validate"
)

func startEngine(t *testing.T, opts ...tierguard.Option) *tierguard.Engine {
	t.Helper()
	base := []tierguard.Option{
		tierguard.WithStore(memory.New()),
		tierguard.WithCatalogSeed(catalogtest.Seed()),
	}
	eng, err := tierguard.NewEngine(append(base, opts...)...)
	require.NoError(t, err)
	require.NoError(t, eng.Start(context.Background()))
	return eng
}

func TestCacheInvalidatedOnMutation(t *testing.T) {
	c := cache.NewMemory()
	eng := startEngine(t, tierguard.WithCache(c))
	ctx := context.Background()
	field := permission.FieldRef(catalogtest.FieldCrewHours)

	res, err := eng.EffectivePermission(ctx, field, permission.TierSenior)
	require.NoError(t, err)
	assert.Equal(t, permission.None, res.Value)
	assert.Equal(t, 1, c.Len())

	_, err = eng.ApplyPermission(ctx, tierguard.ApplyRequest{
		Ref: permission.PageRef(catalogtest.PageCrew), Tier: permission.TierSenior, Permission: permission.ReadOnly,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	res, err = eng.EffectivePermission(ctx, field, permission.TierSenior)
	require.NoError(t, err)
	assert.Equal(t, permission.ReadOnly, res.Value)

	require.NoError(t, eng.ReloadCatalog(ctx))
	assert.Equal(t, 0, c.Len())
}

func TestExpiringResolutionNotCached(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := cache.NewMemory(cache.WithTTL(24*time.Hour), cache.WithClock(clock))
	eng := startEngine(t, tierguard.WithCache(c), tierguard.WithClock(clock))
	ctx := context.Background()
	page := permission.PageRef(catalogtest.PageCrew)
	field := permission.FieldRef(catalogtest.FieldCrewHours)

	until := now.Add(time.Hour)
	_, err := eng.ApplyPermission(ctx, tierguard.ApplyRequest{
		Ref: page, Tier: permission.TierMid, Permission: permission.ReadOnly, ExpiresAt: &until,
	})
	require.NoError(t, err)

	res, err := eng.EffectivePermission(ctx, field, permission.TierMid)
	require.NoError(t, err)
	assert.Equal(t, permission.ReadOnly, res.Value)
	assert.Equal(t, 0, c.Len())

	now = now.Add(2 * time.Hour)
	res, err = eng.EffectivePermission(ctx, field, permission.TierMid)
	require.NoError(t, err)
	assert.Equal(t, permission.None, res.Value)
	assert.Equal(t, 1, c.Len())
}

func TestAuditFailureKeepsChangeVisible(t *testing.T) {
	s := memory.New()
	c := cache.NewMemory()
	eng := startEngine(t, tierguard.WithStore(s), tierguard.WithCache(c))
	ctx := context.Background()
	page := permission.PageRef(catalogtest.PageCrew)

	res, err := eng.EffectivePermission(ctx, page, permission.TierSenior)
	require.NoError(t, err)
	assert.Equal(t, permission.None, res.Value)

	boom := errors.New("audit table locked")
	s.FailAudit(boom)
	_, err = eng.ApplyPermission(ctx, tierguard.ApplyRequest{
		Ref: page, Tier: permission.TierSenior, Permission: permission.Full,
	})
	require.Error(t, err)
	var sf *tierguard.StoreFailure
	require.True(t, errors.As(err, &sf))
	assert.True(t, sf.Unaudited)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, catalogtest.PageCrew, sf.Change.EntityID)

	res, err = eng.EffectivePermission(ctx, page, permission.TierSenior)
	require.NoError(t, err)
	assert.Equal(t, permission.Full, res.Value)
}

// ──────────────────────────────────────────────────
// Plugins
// ──────────────────────────────────────────────────

type recorder struct {
	applied   []string
	bulk      []string
	blocked   int
	committed int
	templates []string
	previews  int
	shutdown  bool
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnPermissionApplied(_ context.Context, rec *permission.Record, _ *audit.Entry) error {
	r.applied = append(r.applied, rec.EntityID+"/"+string(rec.Tier))
	return nil
}

func (r *recorder) OnBulkCompleted(_ context.Context, op string, applied, failed int) error {
	r.bulk = append(r.bulk, op)
	return nil
}

func (r *recorder) OnTemplateApplied(_ context.Context, name string, _ []string) error {
	r.templates = append(r.templates, name)
	return nil
}

func (r *recorder) OnCommitBlocked(_ context.Context, _ string, _ []validate.Issue) error {
	r.blocked++
	return nil
}

func (r *recorder) OnChangesCommitted(_ context.Context, _ string, committed []change.Change) error {
	r.committed += len(committed)
	return nil
}

func (r *recorder) OnImportPreviewed(_ context.Context, _ *transfer.Preview) error {
	r.previews++
	return nil
}

func (r *recorder) OnShutdown(context.Context) error {
	r.shutdown = true
	return errors.New("already closed")
}

func TestPluginHooks(t *testing.T) {
	rec := &recorder{}
	eng := startEngine(t, tierguard.WithPlugin(rec))
	ctx := context.Background()

	_, err := eng.ApplyTemplate(ctx, "system_admin", []string{catalogtest.PageCrew})
	require.NoError(t, err)
	assert.Len(t, rec.applied, 5)
	assert.Equal(t, []string{tierguard.OpTemplate}, rec.bulk)
	assert.Equal(t, []string{"system_admin"}, rec.templates)

	sess := eng.OpenSession()
	_, err = sess.QueueChange(ctx, permission.PageRef(catalogtest.PageROI), permission.TierExternal, permission.ReadOnly, "")
	require.NoError(t, err)
	_, err = sess.CommitAll(ctx, tierguard.CommitOptions{})
	require.Error(t, err)
	assert.Equal(t, 1, rec.blocked)

	_, err = sess.DiscardAll()
	require.NoError(t, err)
	_, err = sess.QueueChange(ctx, permission.PageRef(catalogtest.PageROI), permission.TierSenior, permission.Full, "")
	require.NoError(t, err)
	_, err = sess.CommitAll(ctx, tierguard.CommitOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.committed)

	// A failing hook is logged, never returned.
	require.NoError(t, eng.Stop(ctx))
	assert.True(t, rec.shutdown)
}

// ──────────────────────────────────────────────────
// Import and export
// ──────────────────────────────────────────────────

func TestExportImportRoundTrip(t *testing.T) {
	rec := &recorder{}
	eng := startEngine(t, tierguard.WithPlugin(rec))
	ctx := tierguard.WithActor(context.Background(), tierguard.Actor{ID: "admin", Tier: permission.TierMaster})

	_, err := eng.ApplyTemplate(ctx, "sales_team", []string{catalogtest.PageSales})
	require.NoError(t, err)
	_, err = eng.ApplyPermission(ctx, tierguard.ApplyRequest{
		Ref: permission.FieldRef(catalogtest.FieldClientContact), Tier: permission.TierMid, Permission: permission.ReadOnly,
	})
	require.NoError(t, err)

	doc, err := eng.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, "admin", doc.ExportedBy)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	preview, err := eng.PreviewImport(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 0, preview.Changes)
	assert.Equal(t, 1, rec.previews)

	// Downgrade senior on the sales page and import it into a session.
	for _, p := range doc.Pages {
		if p.ID == catalogtest.PageSales {
			p.Permissions[permission.TierSenior] = permission.ReadOnly
		}
	}
	data, err = json.Marshal(doc)
	require.NoError(t, err)

	sess := eng.OpenSession()
	preview, queued, err := eng.QueueImport(ctx, sess, data)
	require.NoError(t, err)
	assert.Equal(t, 1, preview.Changes)
	assert.Equal(t, 1, queued)

	changes := sess.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, permission.Full, changes[0].OldPermission)
	assert.Equal(t, permission.ReadOnly, changes[0].NewPermission)
	assert.Equal(t, "Imported from file", changes[0].Reason)
}

func TestPreviewImport_FormatError(t *testing.T) {
	eng := startEngine(t)
	_, err := eng.PreviewImport(context.Background(), []byte(`{"version": "1.0", "pages": [{"id": "page-roi"}]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tierguard.ErrImportFormat))
}

func TestExportAuditCSV(t *testing.T) {
	eng := startEngine(t)
	ctx := tierguard.WithActor(context.Background(), tierguard.Actor{ID: "u-1", Name: "Dana \"DJ\" Jones", Tier: permission.TierMaster})

	_, err := eng.ApplyPermission(ctx, tierguard.ApplyRequest{
		Ref: permission.PageRef(catalogtest.PageCrew), Tier: permission.TierMid, Permission: permission.ReadOnly, Reason: "rollout",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, eng.ExportAuditCSV(ctx, &buf, nil, audit.View{ShowSystem: true}))
	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"Date","Entity Type","Entity Name","User Tier","Action","Old Permission","New Permission","Changed By","Reason"`, lines[0])
	assert.Contains(t, lines[1], `"page","Crew Management","mid","grant","None","read_only","Dana ""DJ"" Jones","rollout"`)
}
