// Package metrics exposes tierguard activity as Prometheus metrics through
// the plugin hooks.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/plugin"
	"github.com/xraph/tierguard/validate"
)

const namespace = "tierguard"

// Commit results.
const (
	ResultCommitted = "committed"
	ResultBlocked   = "blocked"
	ResultFailed    = "failed"
)

// Bulk results.
const (
	ResultOK      = "ok"
	ResultPartial = "partial"
)

// Compile-time checks.
var (
	_ plugin.Plugin              = (*Plugin)(nil)
	_ plugin.PermissionApplied   = (*Plugin)(nil)
	_ plugin.PermissionCleared   = (*Plugin)(nil)
	_ plugin.BulkCompleted       = (*Plugin)(nil)
	_ plugin.ChangesCommitted    = (*Plugin)(nil)
	_ plugin.CommitBlocked       = (*Plugin)(nil)
	_ plugin.CommitFailed        = (*Plugin)(nil)
	_ plugin.ValidationCompleted = (*Plugin)(nil)
)

// Plugin records engine activity in Prometheus collectors.
type Plugin struct {
	changes    *prometheus.CounterVec
	issues     *prometheus.CounterVec
	commits    *prometheus.CounterVec
	bulk       *prometheus.CounterVec
	commitSize prometheus.Histogram
}

// New registers the tierguard collectors with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Plugin {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Plugin{
		changes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_changes_total",
			Help:      "Permission changes written, by entity type, user tier and audit action.",
		}, []string{"entity_type", "tier", "action"}),
		issues: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_issues_total",
			Help:      "Validation issues reported, by issue type and category.",
		}, []string{"type", "category"}),
		commits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Session commits by result.",
		}, []string{"result"}),
		bulk: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_operations_total",
			Help:      "Bulk operations by operation and result.",
		}, []string{"operation", "result"}),
		commitSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_size",
			Help:      "Changes written per successful commit.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),
	}
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "prometheus" }

// OnPermissionApplied implements plugin.PermissionApplied.
func (p *Plugin) OnPermissionApplied(_ context.Context, r *permission.Record, e *audit.Entry) error {
	p.changes.WithLabelValues(string(r.EntityType), string(r.Tier), string(e.Action)).Inc()
	return nil
}

// OnPermissionCleared implements plugin.PermissionCleared.
func (p *Plugin) OnPermissionCleared(_ context.Context, ref permission.Ref, tier permission.Tier, e *audit.Entry) error {
	p.changes.WithLabelValues(string(ref.Type), string(tier), string(e.Action)).Inc()
	return nil
}

// OnBulkCompleted implements plugin.BulkCompleted.
func (p *Plugin) OnBulkCompleted(_ context.Context, operation string, applied, failed int) error {
	result := ResultOK
	switch {
	case failed > 0 && applied == 0:
		result = ResultFailed
	case failed > 0:
		result = ResultPartial
	}
	p.bulk.WithLabelValues(operation, result).Inc()
	return nil
}

// OnChangesCommitted implements plugin.ChangesCommitted.
func (p *Plugin) OnChangesCommitted(_ context.Context, _ string, committed []change.Change) error {
	p.commits.WithLabelValues(ResultCommitted).Inc()
	p.commitSize.Observe(float64(len(committed)))
	return nil
}

// OnCommitBlocked implements plugin.CommitBlocked.
func (p *Plugin) OnCommitBlocked(context.Context, string, []validate.Issue) error {
	p.commits.WithLabelValues(ResultBlocked).Inc()
	return nil
}

// OnCommitFailed implements plugin.CommitFailed.
func (p *Plugin) OnCommitFailed(context.Context, string, change.Change, error) error {
	p.commits.WithLabelValues(ResultFailed).Inc()
	return nil
}

// OnValidationCompleted implements plugin.ValidationCompleted.
func (p *Plugin) OnValidationCompleted(_ context.Context, report *validate.Report) error {
	for _, i := range report.Issues {
		p.issues.WithLabelValues(string(i.Type), string(i.Category)).Inc()
	}
	return nil
}
