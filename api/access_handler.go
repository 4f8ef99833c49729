package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/middleware"
	"github.com/xraph/tierguard/permission"
)

func (a *API) registerAccessRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("access"))

	if err := g.GET("/access/:entityType/:entityId", a.access,
		forge.WithSummary("Access check"),
		forge.WithDescription("Returns what a tier may do on an entity after the tier guard. With a capability, answers that single check."),
		forge.WithOperationID("access"),
		forge.WithRequestSchema(AccessRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Access", &AccessResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/access/pages", a.accessiblePages,
		forge.WithSummary("Accessible pages"),
		forge.WithDescription("Lists the active pages a tier can read."),
		forge.WithOperationID("accessiblePages"),
		forge.WithRequestSchema(AccessiblePagesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Page list", []*catalog.Page{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) access(ctx forge.Context, req *AccessRequest) (*AccessResponse, error) {
	ref, err := parseRef(ctx.Param("entityType"), ctx.Param("entityId"))
	if err != nil {
		return nil, err
	}
	tier, err := parseTier(req.Tier)
	if err != nil {
		return nil, err
	}
	c, err := a.actorContext(ctx, middleware.ObjectAccess, middleware.ActionRead)
	if err != nil {
		return nil, err
	}

	acc, err := a.eng.Access(c, tier, ref)
	if err != nil {
		return nil, mapError(err)
	}
	resp := &AccessResponse{Access: acc}
	if req.Capability != "" {
		allowed := acc.Capabilities.Allows(permission.Capability(req.Capability))
		resp.Allowed = &allowed
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) accessiblePages(ctx forge.Context, req *AccessiblePagesRequest) ([]*catalog.Page, error) {
	tier, err := parseTier(req.Tier)
	if err != nil {
		return nil, err
	}
	c, err := a.actorContext(ctx, middleware.ObjectAccess, middleware.ActionRead)
	if err != nil {
		return nil, err
	}

	pages, err := a.eng.AccessiblePages(c, tier)
	if err != nil {
		return nil, mapError(err)
	}
	if pages == nil {
		pages = []*catalog.Page{}
	}
	return pages, ctx.JSON(http.StatusOK, pages)
}
