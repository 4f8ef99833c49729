package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/middleware"
	"github.com/xraph/tierguard/permission"
)

func (a *API) registerAuditRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("audit"))

	if err := g.GET("/audit", a.listAudit,
		forge.WithSummary("Query audit log"),
		forge.WithDescription("Returns audit entries newest first with optional filters."),
		forge.WithOperationID("listAudit"),
		forge.WithRequestSchema(ListAuditRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Audit entries", []*audit.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/audit/export", a.exportAudit,
		forge.WithSummary("Export audit log"),
		forge.WithDescription("Writes the filtered audit entries as CSV."),
		forge.WithOperationID("exportAudit"),
		forge.WithRequestSchema(ListAuditRequest{}),
		forge.WithErrorResponses(),
	)
}

func (r *ListAuditRequest) filter() (*audit.QueryFilter, audit.View, error) {
	f := &audit.QueryFilter{
		EntityType: permission.EntityType(r.EntityType),
		EntityID:   r.EntityID,
		Tier:       permission.Tier(r.Tier),
		Limit:      clampLimit(r.Limit),
		Offset:     r.Offset,
	}
	if r.After != "" {
		t, err := time.Parse(time.RFC3339, r.After)
		if err != nil {
			return nil, audit.View{}, forge.BadRequest("invalid after timestamp")
		}
		f.After = &t
	}
	if r.Before != "" {
		t, err := time.Parse(time.RFC3339, r.Before)
		if err != nil {
			return nil, audit.View{}, forge.BadRequest("invalid before timestamp")
		}
		f.Before = &t
	}
	view := audit.View{
		Search:     r.Search,
		Action:     audit.Action(r.Action),
		Window:     audit.Window(r.Window),
		ShowSystem: r.ShowSystem,
	}
	return f, view, nil
}

func (a *API) listAudit(ctx forge.Context, req *ListAuditRequest) ([]*audit.Entry, error) {
	c, err := a.actorContext(ctx, middleware.ObjectAudit, middleware.ActionRead)
	if err != nil {
		return nil, err
	}
	filter, view, err := req.filter()
	if err != nil {
		return nil, err
	}

	entries, err := a.eng.ViewAudit(c, filter, view)
	if err != nil {
		return nil, mapError(err)
	}
	return entries, ctx.JSON(http.StatusOK, entries)
}

func (a *API) exportAudit(ctx forge.Context, req *ListAuditRequest) (*struct{}, error) {
	c, err := a.actorContext(ctx, middleware.ObjectAudit, middleware.ActionRead)
	if err != nil {
		return nil, err
	}
	filter, view, err := req.filter()
	if err != nil {
		return nil, err
	}

	ctx.SetHeader("Content-Type", "text/csv; charset=utf-8")
	ctx.SetHeader("Content-Disposition", `attachment; filename="permission-audit.csv"`)
	return nil, a.eng.ExportAuditCSV(c, ctx.Response(), filter, view)
}
