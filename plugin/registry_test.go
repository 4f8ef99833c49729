package plugin

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/validate"
)

// testPlugin implements Plugin + PermissionApplied + CommitBlocked.
type testPlugin struct {
	appliedCalled bool
	blockedIssues int
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnPermissionApplied(_ context.Context, _ *permission.Record, _ *audit.Entry) error {
	t.appliedCalled = true
	return nil
}

func (t *testPlugin) OnCommitBlocked(_ context.Context, _ string, issues []validate.Issue) error {
	t.blockedIssues = len(issues)
	return nil
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

// failingPlugin returns an error from its only hook.
type failingPlugin struct{}

func (f *failingPlugin) Name() string { return "failing" }

func (f *failingPlugin) OnChangesCommitted(_ context.Context, _ string, _ []change.Change) error {
	return errors.New("boom")
}

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	require.Len(t, reg.Plugins(), 2)

	reg.EmitPermissionApplied(ctx, &permission.Record{}, &audit.Entry{})
	assert.True(t, tp.appliedCalled, "OnPermissionApplied was not called")

	reg.EmitCommitBlocked(ctx, "s1", []validate.Issue{{ID: "a"}, {ID: "b"}})
	assert.Equal(t, 2, tp.blockedIssues)

	// Hooks with no listeners are no-ops.
	assert.NotPanics(t, func() {
		reg.EmitPermissionCleared(ctx, permission.PageRef("p"), permission.TierMid, nil)
		reg.EmitBulkCompleted(ctx, "apply", 1, 0)
		reg.EmitValidationCompleted(ctx, &validate.Report{})
		reg.EmitShutdown(ctx)
	})
}

func TestRegistryLogsHookErrors(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry(slog.New(slog.NewTextHandler(&buf, nil)))
	reg.Register(&failingPlugin{})

	reg.EmitChangesCommitted(context.Background(), "s1", nil)

	out := buf.String()
	assert.Contains(t, out, "plugin hook error")
	assert.Contains(t, out, "plugin=failing")
}
