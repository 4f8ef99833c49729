package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/transfer"
	"github.com/xraph/tierguard/validate"
)

// Named entry types pair a hook with the plugin name for logging.

type permissionAppliedEntry struct {
	name string
	hook PermissionApplied
}
type permissionClearedEntry struct {
	name string
	hook PermissionCleared
}
type bulkCompletedEntry struct {
	name string
	hook BulkCompleted
}
type templateAppliedEntry struct {
	name string
	hook TemplateApplied
}
type changesCommittedEntry struct {
	name string
	hook ChangesCommitted
}
type commitBlockedEntry struct {
	name string
	hook CommitBlocked
}
type commitFailedEntry struct {
	name string
	hook CommitFailed
}
type validationCompletedEntry struct {
	name string
	hook ValidationCompleted
}
type importPreviewedEntry struct {
	name string
	hook ImportPreviewed
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	permissionApplied   []permissionAppliedEntry
	permissionCleared   []permissionClearedEntry
	bulkCompleted       []bulkCompletedEntry
	templateApplied     []templateAppliedEntry
	changesCommitted    []changesCommittedEntry
	commitBlocked       []commitBlockedEntry
	commitFailed        []commitFailedEntry
	validationCompleted []validationCompletedEntry
	importPreviewed     []importPreviewedEntry
	shutdown            []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(PermissionApplied); ok {
		r.permissionApplied = append(r.permissionApplied, permissionAppliedEntry{name, h})
	}
	if h, ok := p.(PermissionCleared); ok {
		r.permissionCleared = append(r.permissionCleared, permissionClearedEntry{name, h})
	}
	if h, ok := p.(BulkCompleted); ok {
		r.bulkCompleted = append(r.bulkCompleted, bulkCompletedEntry{name, h})
	}
	if h, ok := p.(TemplateApplied); ok {
		r.templateApplied = append(r.templateApplied, templateAppliedEntry{name, h})
	}
	if h, ok := p.(ChangesCommitted); ok {
		r.changesCommitted = append(r.changesCommitted, changesCommittedEntry{name, h})
	}
	if h, ok := p.(CommitBlocked); ok {
		r.commitBlocked = append(r.commitBlocked, commitBlockedEntry{name, h})
	}
	if h, ok := p.(CommitFailed); ok {
		r.commitFailed = append(r.commitFailed, commitFailedEntry{name, h})
	}
	if h, ok := p.(ValidationCompleted); ok {
		r.validationCompleted = append(r.validationCompleted, validationCompletedEntry{name, h})
	}
	if h, ok := p.(ImportPreviewed); ok {
		r.importPreviewed = append(r.importPreviewed, importPreviewedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Mutation event emitters
// ──────────────────────────────────────────────────

// EmitPermissionApplied notifies all plugins that implement PermissionApplied.
func (r *Registry) EmitPermissionApplied(ctx context.Context, rec *permission.Record, e *audit.Entry) {
	for _, h := range r.permissionApplied {
		if err := h.hook.OnPermissionApplied(ctx, rec, e); err != nil {
			r.logHookError("OnPermissionApplied", h.name, err)
		}
	}
}

// EmitPermissionCleared notifies all plugins that implement PermissionCleared.
func (r *Registry) EmitPermissionCleared(ctx context.Context, ref permission.Ref, tier permission.Tier, e *audit.Entry) {
	for _, h := range r.permissionCleared {
		if err := h.hook.OnPermissionCleared(ctx, ref, tier, e); err != nil {
			r.logHookError("OnPermissionCleared", h.name, err)
		}
	}
}

// EmitBulkCompleted notifies all plugins that implement BulkCompleted.
func (r *Registry) EmitBulkCompleted(ctx context.Context, operation string, applied, failed int) {
	for _, h := range r.bulkCompleted {
		if err := h.hook.OnBulkCompleted(ctx, operation, applied, failed); err != nil {
			r.logHookError("OnBulkCompleted", h.name, err)
		}
	}
}

// EmitTemplateApplied notifies all plugins that implement TemplateApplied.
func (r *Registry) EmitTemplateApplied(ctx context.Context, name string, targets []string) {
	for _, h := range r.templateApplied {
		if err := h.hook.OnTemplateApplied(ctx, name, targets); err != nil {
			r.logHookError("OnTemplateApplied", h.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Session event emitters
// ──────────────────────────────────────────────────

// EmitChangesCommitted notifies all plugins that implement ChangesCommitted.
func (r *Registry) EmitChangesCommitted(ctx context.Context, sessionID string, committed []change.Change) {
	for _, h := range r.changesCommitted {
		if err := h.hook.OnChangesCommitted(ctx, sessionID, committed); err != nil {
			r.logHookError("OnChangesCommitted", h.name, err)
		}
	}
}

// EmitCommitBlocked notifies all plugins that implement CommitBlocked.
func (r *Registry) EmitCommitBlocked(ctx context.Context, sessionID string, issues []validate.Issue) {
	for _, h := range r.commitBlocked {
		if err := h.hook.OnCommitBlocked(ctx, sessionID, issues); err != nil {
			r.logHookError("OnCommitBlocked", h.name, err)
		}
	}
}

// EmitCommitFailed notifies all plugins that implement CommitFailed.
func (r *Registry) EmitCommitFailed(ctx context.Context, sessionID string, failed change.Change, cause error) {
	for _, h := range r.commitFailed {
		if err := h.hook.OnCommitFailed(ctx, sessionID, failed, cause); err != nil {
			r.logHookError("OnCommitFailed", h.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Validation and transfer event emitters
// ──────────────────────────────────────────────────

// EmitValidationCompleted notifies all plugins that implement ValidationCompleted.
func (r *Registry) EmitValidationCompleted(ctx context.Context, report *validate.Report) {
	for _, h := range r.validationCompleted {
		if err := h.hook.OnValidationCompleted(ctx, report); err != nil {
			r.logHookError("OnValidationCompleted", h.name, err)
		}
	}
}

// EmitImportPreviewed notifies all plugins that implement ImportPreviewed.
func (r *Registry) EmitImportPreviewed(ctx context.Context, p *transfer.Preview) {
	for _, h := range r.importPreviewed {
		if err := h.hook.OnImportPreviewed(ctx, p); err != nil {
			r.logHookError("OnImportPreviewed", h.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, h := range r.shutdown {
		if err := h.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", h.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
