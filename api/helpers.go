package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/middleware"
	"github.com/xraph/tierguard/permission"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, tierguard.ErrUnauthorizedActor) {
		return forge.Forbidden(err.Error())
	}
	if isBadRequest(err) {
		return forge.BadRequest(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, tierguard.ErrEntityNotFound) ||
		errors.Is(err, tierguard.ErrPermissionNotFound) ||
		errors.Is(err, tierguard.ErrAuditEntryNotFound) ||
		errors.Is(err, tierguard.ErrSessionNotFound) ||
		errors.Is(err, tierguard.ErrUnknownTemplate)
}

func isBadRequest(err error) bool {
	return errors.Is(err, tierguard.ErrInvalidTier) ||
		errors.Is(err, tierguard.ErrInvalidPermission) ||
		errors.Is(err, tierguard.ErrInvalidEntityType) ||
		errors.Is(err, tierguard.ErrInvalidOperation) ||
		errors.Is(err, tierguard.ErrValidationFailed) ||
		errors.Is(err, tierguard.ErrWarningsNotAcknowledged) ||
		errors.Is(err, tierguard.ErrCommitInProgress) ||
		errors.Is(err, tierguard.ErrImportFormat)
}

// actorContext returns the request context carrying the caller, if the
// request names one. When an Authorizer is configured the caller must be
// allowed to perform action on object.
func (a *API) actorContext(ctx forge.Context, object, action string) (context.Context, error) {
	c := ctx.Context()
	actor, ok := middleware.ResolveActor(ctx)
	if a.authz != nil {
		if !ok {
			return nil, forge.Forbidden("user tier required")
		}
		allowed, err := a.authz.Allow(actor.Tier, object, action)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, forge.Forbidden(fmt.Sprintf("%s may not %s %s", actor.Tier, action, object))
		}
	}
	if ok {
		c = tierguard.WithActor(c, actor)
	}
	return c, nil
}

// checkBypass refuses skip-validation commits from callers the authorizer
// does not trust with bypass. It applies even when route authorization is
// disabled.
func (a *API) checkBypass(ctx forge.Context) error {
	actor, ok := middleware.ResolveActor(ctx)
	if !ok {
		return forge.Forbidden("user tier required to skip validation")
	}
	allowed, err := a.authz.AllowBypass(actor.Tier)
	if err != nil {
		return err
	}
	if !allowed {
		return forge.Forbidden(fmt.Sprintf("%s may not skip validation", actor.Tier))
	}
	return nil
}

func parseRef(entityType, entityID string) (permission.Ref, error) {
	et, err := permission.ParseEntityType(entityType)
	if err != nil {
		return permission.Ref{}, forge.BadRequest(err.Error())
	}
	if entityID == "" {
		return permission.Ref{}, forge.BadRequest("entity id is required")
	}
	return permission.Ref{Type: et, ID: entityID}, nil
}

func parseTier(s string) (permission.Tier, error) {
	tier, err := permission.ParseTier(s)
	if err != nil {
		return "", forge.BadRequest(err.Error())
	}
	return tier, nil
}

func parseType(s string) (permission.Type, error) {
	t, err := permission.ParseType(s)
	if err != nil {
		return "", forge.BadRequest(err.Error())
	}
	return t, nil
}

// clampLimit caps a requested page size. Zero leaves the engine default.
func clampLimit(limit int) int {
	if limit < 0 {
		return 0
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
