package metrics_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/catalog/catalogtest"
	"github.com/xraph/tierguard/metrics"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/store/memory"
)

func newEngine(t *testing.T, reg *prometheus.Registry) *tierguard.Engine {
	t.Helper()
	eng, err := tierguard.NewEngine(
		tierguard.WithStore(memory.New()),
		tierguard.WithCatalogSeed(catalogtest.Seed()),
		tierguard.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		tierguard.WithPlugin(metrics.New(reg)),
	)
	require.NoError(t, err)
	require.NoError(t, eng.Start(context.Background()))
	return eng
}

func counter(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metric
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return float64(m.GetHistogram().GetSampleCount())
		}
	}
	return 0
}

func TestPermissionChanges(t *testing.T) {
	reg := prometheus.NewRegistry()
	eng := newEngine(t, reg)
	ctx := context.Background()
	crew := permission.PageRef(catalogtest.PageCrew)

	_, err := eng.ApplyPermission(ctx, tierguard.ApplyRequest{Ref: crew, Tier: permission.TierMid, Permission: permission.ReadOnly})
	require.NoError(t, err)
	_, err = eng.ClearPermission(ctx, crew, permission.TierMid, "")
	require.NoError(t, err)

	assert.Equal(t, 1.0, counter(t, reg, "tierguard_permission_changes_total",
		map[string]string{"entity_type": "page", "tier": "mid", "action": "grant"}))
	assert.Equal(t, 1.0, counter(t, reg, "tierguard_permission_changes_total",
		map[string]string{"entity_type": "page", "tier": "mid", "action": "delete"}))
}

func TestCommits(t *testing.T) {
	reg := prometheus.NewRegistry()
	eng := newEngine(t, reg)
	ctx := context.Background()
	roi := permission.PageRef(catalogtest.PageROI)

	sess := eng.OpenSession()
	_, err := sess.QueueChange(ctx, roi, permission.TierExternal, permission.ReadOnly, "")
	require.NoError(t, err)
	_, err = sess.CommitAll(ctx, tierguard.CommitOptions{})
	require.ErrorIs(t, err, tierguard.ErrValidationFailed)

	_, err = sess.DiscardAll()
	require.NoError(t, err)
	_, err = sess.QueueChange(ctx, roi, permission.TierSenior, permission.Full, "")
	require.NoError(t, err)
	_, err = sess.QueueChange(ctx, permission.PageRef(catalogtest.PageSales), permission.TierSenior, permission.Full, "")
	require.NoError(t, err)
	_, err = sess.CommitAll(ctx, tierguard.CommitOptions{AcknowledgeWarnings: true})
	require.NoError(t, err)

	assert.Equal(t, 1.0, counter(t, reg, "tierguard_commits_total", map[string]string{"result": metrics.ResultBlocked}))
	assert.Equal(t, 1.0, counter(t, reg, "tierguard_commits_total", map[string]string{"result": metrics.ResultCommitted}))
	assert.Equal(t, 1.0, counter(t, reg, "tierguard_commit_size", nil))
	assert.GreaterOrEqual(t, counter(t, reg, "tierguard_validation_issues_total",
		map[string]string{"type": "error", "category": "security"}), 1.0)
}

func TestBulkResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	eng := newEngine(t, reg)
	ctx := context.Background()

	_, err := eng.BulkApply(ctx, []string{catalogtest.PageCrew, "ghost"}, permission.TierSenior, permission.ReadOnly)
	require.Error(t, err)
	_, err = eng.BulkApply(ctx, []string{catalogtest.PageSales}, permission.TierSenior, permission.Full)
	require.NoError(t, err)

	assert.Equal(t, 1.0, counter(t, reg, "tierguard_bulk_operations_total",
		map[string]string{"operation": tierguard.OpBulkApply, "result": metrics.ResultPartial}))
	assert.Equal(t, 1.0, counter(t, reg, "tierguard_bulk_operations_total",
		map[string]string{"operation": tierguard.OpBulkApply, "result": metrics.ResultOK}))
}

func TestCollectorsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = metrics.New(reg)
	// Vectors without observations are not gathered; only the histogram is.
	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
