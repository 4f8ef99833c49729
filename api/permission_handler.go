package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/middleware"
)

func (a *API) registerPermissionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("permissions"))

	if err := g.GET("/effective/:entityType/:entityId", a.effectivePermission,
		forge.WithSummary("Effective permission"),
		forge.WithDescription("Resolves the permission a tier holds on an entity, following inheritance."),
		forge.WithOperationID("effectivePermission"),
		forge.WithRequestSchema(EntityTierRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Resolution", &tierguard.Resolution{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/permissions", a.applyPermission,
		forge.WithSummary("Apply permission"),
		forge.WithDescription("Sets the explicit permission of one entity for one tier."),
		forge.WithOperationID("applyPermission"),
		forge.WithRequestSchema(ApplyPermissionRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Applied permission", &tierguard.ApplyResult{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/permissions", a.clearPermission,
		forge.WithSummary("Clear permission"),
		forge.WithDescription("Removes an explicit permission so the entity inherits from its parent."),
		forge.WithOperationID("clearPermission"),
		forge.WithRequestSchema(ClearPermissionRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Audit entry", &audit.Entry{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) effectivePermission(ctx forge.Context, req *EntityTierRequest) (*tierguard.Resolution, error) {
	ref, err := parseRef(ctx.Param("entityType"), ctx.Param("entityId"))
	if err != nil {
		return nil, err
	}
	tier, err := parseTier(req.Tier)
	if err != nil {
		return nil, err
	}
	c, err := a.actorContext(ctx, middleware.ObjectPermissions, middleware.ActionRead)
	if err != nil {
		return nil, err
	}

	res, err := a.eng.EffectivePermission(c, ref, tier)
	if err != nil {
		return nil, mapError(err)
	}
	return res, ctx.JSON(http.StatusOK, res)
}

func (a *API) applyPermission(ctx forge.Context, req *ApplyPermissionRequest) (*tierguard.ApplyResult, error) {
	ref, err := parseRef(req.EntityType, req.EntityID)
	if err != nil {
		return nil, err
	}
	tier, err := parseTier(req.Tier)
	if err != nil {
		return nil, err
	}
	perm, err := parseType(req.PermissionType)
	if err != nil {
		return nil, err
	}
	c, err := a.actorContext(ctx, middleware.ObjectPermissions, middleware.ActionWrite)
	if err != nil {
		return nil, err
	}

	res, err := a.eng.ApplyPermission(c, tierguard.ApplyRequest{
		Ref:        ref,
		Tier:       tier,
		Permission: perm,
		Reason:     req.Reason,
		ExpiresAt:  req.ExpiresAt,
		Cascade:    req.Cascade,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return res, ctx.JSON(http.StatusOK, res)
}

func (a *API) clearPermission(ctx forge.Context, req *ClearPermissionRequest) (*audit.Entry, error) {
	ref, err := parseRef(req.EntityType, req.EntityID)
	if err != nil {
		return nil, err
	}
	tier, err := parseTier(req.Tier)
	if err != nil {
		return nil, err
	}
	c, err := a.actorContext(ctx, middleware.ObjectPermissions, middleware.ActionWrite)
	if err != nil {
		return nil, err
	}

	entry, err := a.eng.ClearPermission(c, ref, tier, req.Reason)
	if err != nil {
		return nil, mapError(err)
	}
	return entry, ctx.JSON(http.StatusOK, entry)
}
