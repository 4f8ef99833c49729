// Package plugin defines the plugin system for tierguard.
// Plugins are notified of lifecycle events (permission applied, changes
// committed, commit blocked, bulk operation finished, etc.) and can react
// with logging, metrics or notifications.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/transfer"
	"github.com/xraph/tierguard/validate"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Mutation hooks
// ──────────────────────────────────────────────────

// PermissionApplied is called after an explicit record is written and its
// audit entry appended.
type PermissionApplied interface {
	OnPermissionApplied(ctx context.Context, r *permission.Record, e *audit.Entry) error
}

// PermissionCleared is called after an explicit record is removed so the
// slot inherits from its parent again.
type PermissionCleared interface {
	OnPermissionCleared(ctx context.Context, ref permission.Ref, tier permission.Tier, e *audit.Entry) error
}

// BulkCompleted is called after a bulk operation has visited every target.
type BulkCompleted interface {
	OnBulkCompleted(ctx context.Context, operation string, applied, failed int) error
}

// TemplateApplied is called after a template was applied to its targets.
type TemplateApplied interface {
	OnTemplateApplied(ctx context.Context, name string, targets []string) error
}

// ──────────────────────────────────────────────────
// Session hooks
// ──────────────────────────────────────────────────

// ChangesCommitted is called after a session commit wrote at least one
// change.
type ChangesCommitted interface {
	OnChangesCommitted(ctx context.Context, sessionID string, committed []change.Change) error
}

// CommitBlocked is called when validation refuses a commit.
type CommitBlocked interface {
	OnCommitBlocked(ctx context.Context, sessionID string, issues []validate.Issue) error
}

// CommitFailed is called when the store rejects a change during commit.
type CommitFailed interface {
	OnCommitFailed(ctx context.Context, sessionID string, failed change.Change, err error) error
}

// ──────────────────────────────────────────────────
// Validation and transfer hooks
// ──────────────────────────────────────────────────

// ValidationCompleted is called after every validation run.
type ValidationCompleted interface {
	OnValidationCompleted(ctx context.Context, report *validate.Report) error
}

// ImportPreviewed is called after an import document was diffed.
type ImportPreviewed interface {
	OnImportPreviewed(ctx context.Context, p *transfer.Preview) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
