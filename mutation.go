package tierguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/id"
	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/store"
	"github.com/xraph/tierguard/validate"
)

const (
	systemActorID   = "system"
	systemActorName = "System"

	reasonCleared = "Cleared to inherit from parent"
)

// ApplyRequest describes a single permission change.
type ApplyRequest struct {
	Ref        permission.Ref  `json:"entity"`
	Tier       permission.Tier `json:"user_tier"`
	Permission permission.Type `json:"permission_type"`
	Reason     string          `json:"reason,omitempty"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`

	// Cascade downgrades explicit descendants that would exceed the new
	// value, each with its own audit entry.
	Cascade bool `json:"cascade,omitempty"`

	// SkipValidation bypasses the security checks. Operation checks always
	// run. WithSkipValidation on the context has the same effect.
	SkipValidation bool `json:"skip_validation,omitempty"`
}

// ApplyResult is the outcome of ApplyPermission.
type ApplyResult struct {
	Record   *permission.Record `json:"record"`
	Entry    *audit.Entry       `json:"audit_entry"`
	Cascaded []*ApplyResult     `json:"cascaded,omitempty"`
}

// ApplyPermission writes the explicit permission of req.Ref for req.Tier
// and records one audit entry. It does not run the full validator; only the
// operation checks and, unless skipped, the security checks.
func (e *Engine) ApplyPermission(ctx context.Context, req ApplyRequest) (*ApplyResult, error) {
	cat, err := e.checkOperation(ctx, req.Ref, req.Tier, req.Permission, req.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if !req.SkipValidation && !skipValidation(ctx) {
		if err := e.authorize(ctx); err != nil {
			return nil, err
		}
		if issue := validate.CheckCritical(cat, req.Ref, req.Tier, req.Permission); issue != nil {
			return nil, &ValidationError{Issues: []validate.Issue{*issue}}
		}
	}
	return e.apply(ctx, cat, req)
}

// ClearPermission removes the explicit permission of ref for tier so that
// it inherits from its parent again. The removal is audited as a delete.
func (e *Engine) ClearPermission(ctx context.Context, ref permission.Ref, tier permission.Tier, reason string) (*audit.Entry, error) {
	if err := checkTier(tier); err != nil {
		return nil, err
	}
	cat, err := e.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !skipValidation(ctx) {
		if err := e.authorize(ctx); err != nil {
			return nil, err
		}
	}

	existing, err := e.store.GetPermission(ctx, ref, tier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrPermissionNotFound, ref, tier)
		}
		return nil, fmt.Errorf("tierguard: get permission: %w", err)
	}
	if err := e.store.DeletePermission(ctx, ref, tier); err != nil {
		return nil, &StoreFailure{
			Change: change.Change{EntityType: ref.Type, EntityID: ref.ID, Tier: tier, OldPermission: existing.Type},
			Err:    err,
		}
	}

	if reason == "" {
		reason = reasonCleared
	}
	old := existing.Type
	entry := e.newEntry(ctx, cat, ref, tier, audit.ActionDelete, &old, nil, reason)
	if err := e.store.AppendAuditEntry(ctx, entry); err != nil {
		c := change.Change{EntityType: ref.Type, EntityID: ref.ID, Tier: tier, OldPermission: old, Reason: reason}
		return nil, e.unaudited(ctx, c, err)
	}

	e.invalidate(ctx, tier)
	if e.plugins != nil {
		e.plugins.EmitPermissionCleared(ctx, ref, tier, entry)
	}
	e.logger.Info("tierguard: permission cleared",
		slog.String("entity_type", string(ref.Type)),
		slog.String("entity_id", ref.ID),
		slog.String("tier", string(tier)),
		slog.String("old", string(old)),
	)
	return entry, nil
}

// PurgeExpired deletes every record whose expiry has passed.
func (e *Engine) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := e.store.DeleteExpiredPermissions(ctx, e.now())
	if err != nil {
		return 0, fmt.Errorf("tierguard: purge expired: %w", err)
	}
	if n > 0 {
		if e.cache != nil {
			e.cache.InvalidateAll(ctx)
		}
		e.logger.Info("tierguard: expired permissions purged", slog.Int64("count", n))
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Checks
// ──────────────────────────────────────────────────

// checkOperation runs the checks that hold even when validation is
// skipped.
func (e *Engine) checkOperation(ctx context.Context, ref permission.Ref, tier permission.Tier, t permission.Type, expiresAt *time.Time) (*catalog.Catalog, error) {
	if err := checkTier(tier); err != nil {
		return nil, err
	}
	if err := checkType(t); err != nil {
		return nil, err
	}
	cat, err := e.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}
	if tier == permission.TierExternal && t == permission.Full {
		return nil, fmt.Errorf("%w: external users cannot have full access", ErrInvalidOperation)
	}
	if expiresAt != nil && !expiresAt.After(e.now()) {
		return nil, fmt.Errorf("%w: expiration date must be in the future", ErrInvalidOperation)
	}
	return cat, nil
}

// authorize refuses actors below master when RequireMasterActor is set.
// A context without an actor is a system change and always passes.
func (e *Engine) authorize(ctx context.Context) error {
	if !e.config.masterActorRequired() {
		return nil
	}
	a, ok := ActorFromContext(ctx)
	if !ok || a.Tier == permission.TierMaster {
		return nil
	}
	return fmt.Errorf("%w: %s has tier %s", ErrUnauthorizedActor, a.ID, a.Tier)
}

// ──────────────────────────────────────────────────
// Writes
// ──────────────────────────────────────────────────

// apply persists req after every check passed.
func (e *Engine) apply(ctx context.Context, cat *catalog.Catalog, req ApplyRequest) (*ApplyResult, error) {
	var old *permission.Type
	existing, err := e.store.GetPermission(ctx, req.Ref, req.Tier)
	switch {
	case err == nil:
		if !existing.Expired(e.now()) {
			v := existing.Type
			old = &v
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, fmt.Errorf("tierguard: get permission: %w", err)
	}

	now := e.now()
	rec := &permission.Record{
		ID:           id.NewPermissionID(),
		EntityType:   req.Ref.Type,
		EntityID:     req.Ref.ID,
		Tier:         req.Tier,
		Type:         req.Permission,
		Capabilities: permission.CapabilitiesFor(req.Ref.Type, req.Tier, req.Permission),
		GrantedBy:    actorID(ctx),
		GrantedAt:    now,
		ExpiresAt:    req.ExpiresAt,
		Reason:       req.Reason,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c := change.Change{
		EntityType: req.Ref.Type, EntityID: req.Ref.ID, Tier: req.Tier,
		NewPermission: req.Permission, Reason: req.Reason,
	}
	if old != nil {
		c.OldPermission = *old
	}
	if err := e.store.UpsertPermission(ctx, rec); err != nil {
		e.logger.Warn("tierguard: store rejected permission",
			slog.String("entity_id", req.Ref.ID),
			slog.String("tier", string(req.Tier)),
			slog.String("error", err.Error()),
		)
		return nil, &StoreFailure{Change: c, Err: err}
	}

	newPerm := req.Permission
	entry := e.newEntry(ctx, cat, req.Ref, req.Tier, audit.ActionFor(old, newPerm), old, &newPerm, req.Reason)
	if err := e.store.AppendAuditEntry(ctx, entry); err != nil {
		return nil, e.unaudited(ctx, c, err)
	}

	e.invalidate(ctx, req.Tier)
	if e.plugins != nil {
		e.plugins.EmitPermissionApplied(ctx, rec, entry)
	}
	e.logger.Info("tierguard: permission applied",
		slog.String("entity_type", string(req.Ref.Type)),
		slog.String("entity_id", req.Ref.ID),
		slog.String("tier", string(req.Tier)),
		slog.String("old", typeString(old)),
		slog.String("new", string(newPerm)),
	)

	result := &ApplyResult{Record: rec, Entry: entry}
	if req.Cascade {
		cascaded, err := e.cascade(ctx, cat, req)
		result.Cascaded = cascaded
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// cascade downgrades the explicit children of req.Ref that no longer fit
// under the new value, recursing into their own children.
func (e *Engine) cascade(ctx context.Context, cat *catalog.Catalog, req ApplyRequest) ([]*ApplyResult, error) {
	children := cat.Children(req.Ref)
	if len(children) == 0 {
		return nil, nil
	}
	ids := make([]string, len(children))
	for i, c := range children {
		ids[i] = c.ID
	}
	m, err := e.matrixFor(ctx, cat, &permission.ListFilter{EntityIDs: ids, Tier: req.Tier})
	if err != nil {
		return nil, err
	}

	var out []*ApplyResult
	for _, fix := range inherit.CascadePermissionChange(req.Permission, m.ExplicitChildren(req.Ref, req.Tier)) {
		ref, err := e.resolveRef(cat, fix.ID)
		if err != nil {
			return out, err
		}
		res, err := e.apply(ctx, cat, ApplyRequest{
			Ref:        ref,
			Tier:       req.Tier,
			Permission: fix.NewPermission,
			Reason:     fix.Reason,
			Cascade:    true,
		})
		if err != nil {
			return out, err
		}
		out = append(out, res)
		out = append(out, res.Cascaded...)
		res.Cascaded = nil
	}
	return out, nil
}

// unaudited handles a write that reached the store while its audit entry
// did not. The write stays in effect, so cached resolutions are dropped.
func (e *Engine) unaudited(ctx context.Context, c change.Change, err error) error {
	e.invalidate(ctx, c.Tier)
	e.logger.Warn("tierguard: audit entry not recorded",
		slog.String("entity_id", c.EntityID),
		slog.String("tier", string(c.Tier)),
		slog.String("error", err.Error()),
	)
	return &StoreFailure{Change: c, Err: fmt.Errorf("append audit entry: %w", err), Unaudited: true}
}

// newEntry builds an audit entry attributed to the actor in ctx.
func (e *Engine) newEntry(ctx context.Context, cat *catalog.Catalog, ref permission.Ref, tier permission.Tier,
	action audit.Action, old, newPerm *permission.Type, reason string,
) *audit.Entry {
	entry := &audit.Entry{
		ID:            id.NewAuditID(),
		EntityType:    ref.Type,
		EntityID:      ref.ID,
		EntityName:    cat.Name(ref),
		Tier:          tier,
		Action:        action,
		OldPermission: old,
		NewPermission: newPerm,
		Reason:        reason,
		CreatedAt:     e.now(),
	}
	if a, ok := ActorFromContext(ctx); ok {
		entry.ChangedBy = a.ID
		entry.ChangedByName = a.Name
		entry.IPAddress = a.IPAddress
		entry.UserAgent = a.UserAgent
	} else {
		entry.ChangedBy = systemActorID
		entry.ChangedByName = systemActorName
		entry.IsSystemChange = true
	}
	return entry
}

func (e *Engine) invalidate(ctx context.Context, tier permission.Tier) {
	if e.cache != nil {
		e.cache.InvalidateTier(ctx, tier)
	}
}

func actorID(ctx context.Context) string {
	if a, ok := ActorFromContext(ctx); ok {
		return a.ID
	}
	return systemActorID
}

func typeString(t *permission.Type) string {
	if t == nil {
		return ""
	}
	return string(*t)
}
