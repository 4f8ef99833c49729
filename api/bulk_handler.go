package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/middleware"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/template"
)

func (a *API) registerBulkRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("bulk"))

	if err := g.POST("/bulk/apply", a.bulkApply,
		forge.WithSummary("Bulk apply"),
		forge.WithDescription("Applies one permission for one tier to many entities. Item failures are reported, not fatal."),
		forge.WithOperationID("bulkApply"),
		forge.WithRequestSchema(BulkApplyRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Bulk result", &tierguard.BulkResult{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/bulk/copy", a.copyPermissions,
		forge.WithSummary("Copy permissions"),
		forge.WithDescription("Copies a page's explicit permission for one tier onto other pages."),
		forge.WithOperationID("copyPermissions"),
		forge.WithRequestSchema(CopyPermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Bulk result", &tierguard.BulkResult{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/bulk/reset", a.resetToDefaults,
		forge.WithSummary("Reset to defaults"),
		forge.WithDescription("Sets every tier of the listed entities to none."),
		forge.WithOperationID("resetToDefaults"),
		forge.WithRequestSchema(ResetRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Bulk result", &tierguard.BulkResult{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/bulk/template", a.applyTemplate,
		forge.WithSummary("Apply template"),
		forge.WithDescription("Applies every tier value of a template to the listed entities."),
		forge.WithOperationID("applyTemplate"),
		forge.WithRequestSchema(ApplyTemplateRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Bulk result", &tierguard.BulkResult{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/templates", a.listTemplates,
		forge.WithSummary("List templates"),
		forge.WithDescription("Lists the built-in and custom permission templates."),
		forge.WithOperationID("listTemplates"),
		forge.WithResponseSchema(http.StatusOK, "Template list", []*template.Template{}),
		forge.WithErrorResponses(),
	)
}

// bulkResponse writes a bulk result. Item failures travel inside the
// result; only request-level failures, which produce no result, are
// returned as errors.
func bulkResponse(ctx forge.Context, res *tierguard.BulkResult, err error) (*tierguard.BulkResult, error) {
	if res == nil {
		return nil, mapError(err)
	}
	return res, ctx.JSON(http.StatusOK, res)
}

func (a *API) bulkApply(ctx forge.Context, req *BulkApplyRequest) (*tierguard.BulkResult, error) {
	if len(req.EntityIDs) == 0 {
		return nil, forge.BadRequest("entity_ids cannot be empty")
	}
	tier, err := parseTier(req.Tier)
	if err != nil {
		return nil, err
	}
	perm, err := parseType(req.PermissionType)
	if err != nil {
		return nil, err
	}
	c, err := a.actorContext(ctx, middleware.ObjectBulk, middleware.ActionWrite)
	if err != nil {
		return nil, err
	}

	res, err := a.eng.BulkApply(c, req.EntityIDs, tier, perm)
	return bulkResponse(ctx, res, err)
}

func (a *API) copyPermissions(ctx forge.Context, req *CopyPermissionsRequest) (*tierguard.BulkResult, error) {
	if req.SourcePageID == "" || len(req.TargetIDs) == 0 {
		return nil, forge.BadRequest("source_page_id and target_ids are required")
	}
	tier, err := parseTier(req.Tier)
	if err != nil {
		return nil, err
	}
	c, err := a.actorContext(ctx, middleware.ObjectBulk, middleware.ActionWrite)
	if err != nil {
		return nil, err
	}

	res, err := a.eng.CopyPermissions(c, req.SourcePageID, req.TargetIDs, tier)
	return bulkResponse(ctx, res, err)
}

func (a *API) resetToDefaults(ctx forge.Context, req *ResetRequest) (*tierguard.BulkResult, error) {
	if len(req.EntityIDs) == 0 {
		return nil, forge.BadRequest("entity_ids cannot be empty")
	}
	et, err := permission.ParseEntityType(req.EntityType)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}
	c, err := a.actorContext(ctx, middleware.ObjectBulk, middleware.ActionWrite)
	if err != nil {
		return nil, err
	}

	res, err := a.eng.ResetToDefaults(c, req.EntityIDs, et)
	return bulkResponse(ctx, res, err)
}

func (a *API) applyTemplate(ctx forge.Context, req *ApplyTemplateRequest) (*tierguard.BulkResult, error) {
	if req.Template == "" || len(req.TargetIDs) == 0 {
		return nil, forge.BadRequest("template and target_ids are required")
	}
	c, err := a.actorContext(ctx, middleware.ObjectBulk, middleware.ActionWrite)
	if err != nil {
		return nil, err
	}

	res, err := a.eng.ApplyTemplate(c, req.Template, req.TargetIDs)
	return bulkResponse(ctx, res, err)
}

func (a *API) listTemplates(ctx forge.Context, _ *struct{}) ([]*template.Template, error) {
	if _, err := a.actorContext(ctx, middleware.ObjectBulk, middleware.ActionRead); err != nil {
		return nil, err
	}
	templates := a.eng.Templates().List()
	return templates, ctx.JSON(http.StatusOK, templates)
}
