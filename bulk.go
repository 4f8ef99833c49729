package tierguard

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/permission"
)

// Bulk operation names, as reported to plugins.
const (
	OpBulkApply = "bulk_apply"
	OpCopy      = "copy"
	OpReset     = "reset"
	OpTemplate  = "template"
)

// BulkItem is the outcome for one (entity, tier) pair of a bulk operation.
type BulkItem struct {
	EntityID   string          `json:"entity_id"`
	Tier       permission.Tier `json:"user_tier"`
	Permission permission.Type `json:"permission_type"`
	Error      string          `json:"error,omitempty"`
}

// BulkResult reports every item of a bulk operation. Items are processed
// in order and one failure never stops the rest.
type BulkResult struct {
	Operation string     `json:"operation"`
	Applied   []BulkItem `json:"applied"`
	Failed    []BulkItem `json:"failed"`

	err error
}

// Err returns the combined item failures, or nil.
func (r *BulkResult) Err() error { return r.err }

func (r *BulkResult) record(item BulkItem, err error) {
	if err == nil {
		r.Applied = append(r.Applied, item)
		return
	}
	item.Error = err.Error()
	r.Failed = append(r.Failed, item)
	r.err = multierr.Append(r.err, fmt.Errorf("%s/%s: %w", item.EntityID, item.Tier, err))
}

// BulkApply applies the same permission for tier to every entity id. The
// entity type of each id is resolved from the catalog.
func (e *Engine) BulkApply(ctx context.Context, entityIDs []string, tier permission.Tier, perm permission.Type) (*BulkResult, error) {
	if err := e.bulkPreflight(ctx, &tier, &perm); err != nil {
		return nil, err
	}
	cat, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	res := &BulkResult{Operation: OpBulkApply}
	for _, entityID := range entityIDs {
		item := BulkItem{EntityID: entityID, Tier: tier, Permission: perm}
		res.record(item, e.bulkApplyOne(ctx, cat, entityID, tier, perm, "Bulk apply"))
	}
	return e.finishBulk(ctx, res)
}

// CopyPermissions copies the explicit permission a source page holds for
// tier onto every target page. A source without an explicit record copies
// none. Only the page-level value is copied.
func (e *Engine) CopyPermissions(ctx context.Context, sourcePageID string, targetIDs []string, tier permission.Tier) (*BulkResult, error) {
	if err := e.bulkPreflight(ctx, &tier, nil); err != nil {
		return nil, err
	}
	source := permission.PageRef(sourcePageID)
	cat, err := e.lookup(ctx, source)
	if err != nil {
		return nil, err
	}
	m, err := e.matrixFor(ctx, cat, &permission.ListFilter{EntityIDs: []string{sourcePageID}, Tier: tier})
	if err != nil {
		return nil, err
	}
	value := m.ExplicitOrNone(source, tier)
	reason := "Copied from page " + cat.Name(source)

	res := &BulkResult{Operation: OpCopy}
	for _, targetID := range targetIDs {
		_, err := e.ApplyPermission(ctx, ApplyRequest{
			Ref: permission.PageRef(targetID), Tier: tier, Permission: value, Reason: reason,
		})
		res.record(BulkItem{EntityID: targetID, Tier: tier, Permission: value}, err)
	}
	return e.finishBulk(ctx, res)
}

// ResetToDefaults sets every tier of every listed entity to none.
func (e *Engine) ResetToDefaults(ctx context.Context, entityIDs []string, entityType permission.EntityType) (*BulkResult, error) {
	if !entityType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEntityType, entityType)
	}
	if err := e.bulkPreflight(ctx, nil, nil); err != nil {
		return nil, err
	}

	res := &BulkResult{Operation: OpReset}
	for _, entityID := range entityIDs {
		ref := permission.Ref{Type: entityType, ID: entityID}
		for _, tier := range permission.Tiers() {
			_, err := e.ApplyPermission(ctx, ApplyRequest{
				Ref: ref, Tier: tier, Permission: permission.None, Reason: "Reset to defaults",
			})
			res.record(BulkItem{EntityID: entityID, Tier: tier, Permission: permission.None}, err)
		}
	}
	return e.finishBulk(ctx, res)
}

// ApplyTemplate applies every tier value of the named template to each
// target entity.
func (e *Engine) ApplyTemplate(ctx context.Context, name string, targetIDs []string) (*BulkResult, error) {
	tpl, ok := e.templates.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	if err := e.bulkPreflight(ctx, nil, nil); err != nil {
		return nil, err
	}
	cat, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	reason := "Applied template " + tpl.Label
	res := &BulkResult{Operation: OpTemplate}
	for _, targetID := range targetIDs {
		for _, tier := range permission.Tiers() {
			perm := tpl.Permissions[tier]
			item := BulkItem{EntityID: targetID, Tier: tier, Permission: perm}
			res.record(item, e.bulkApplyOne(ctx, cat, targetID, tier, perm, reason))
		}
	}
	if e.plugins != nil {
		e.plugins.EmitTemplateApplied(ctx, name, targetIDs)
	}
	return e.finishBulk(ctx, res)
}

// bulkPreflight checks the arguments shared by every item so that a bad
// request fails once instead of per item.
func (e *Engine) bulkPreflight(ctx context.Context, tier *permission.Tier, perm *permission.Type) error {
	if tier != nil {
		if err := checkTier(*tier); err != nil {
			return err
		}
	}
	if perm != nil {
		if err := checkType(*perm); err != nil {
			return err
		}
	}
	if skipValidation(ctx) {
		return nil
	}
	return e.authorize(ctx)
}

func (e *Engine) bulkApplyOne(ctx context.Context, cat *catalog.Catalog, entityID string, tier permission.Tier, perm permission.Type, reason string) error {
	ref, err := e.resolveRef(cat, entityID)
	if err != nil {
		return err
	}
	_, err = e.ApplyPermission(ctx, ApplyRequest{Ref: ref, Tier: tier, Permission: perm, Reason: reason})
	return err
}

func (e *Engine) finishBulk(ctx context.Context, res *BulkResult) (*BulkResult, error) {
	for _, item := range res.Failed {
		e.logger.Warn("tierguard: bulk item failed",
			slog.String("operation", res.Operation),
			slog.String("entity_id", item.EntityID),
			slog.String("tier", string(item.Tier)),
			slog.String("error", item.Error),
		)
	}
	if e.plugins != nil {
		e.plugins.EmitBulkCompleted(ctx, res.Operation, len(res.Applied), len(res.Failed))
	}
	return res, res.err
}
