package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tierguard/middleware"
	"github.com/xraph/tierguard/transfer"
)

func (a *API) registerTransferRoutes(router forge.Router) error {
	g := router.Group("/v1/transfer", forge.WithGroupTags("transfer"))

	if err := g.GET("/export", a.exportDocument,
		forge.WithSummary("Export permissions"),
		forge.WithDescription("Returns the explicit permission state of the whole catalog."),
		forge.WithOperationID("exportPermissions"),
		forge.WithResponseSchema(http.StatusOK, "Export document", &transfer.Document{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/preview", a.previewImport,
		forge.WithSummary("Preview import"),
		forge.WithDescription("Diffs an export document against the current state without changing anything."),
		forge.WithOperationID("previewImport"),
		forge.WithRequestSchema(PreviewImportRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Import preview", &transfer.Preview{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) exportDocument(ctx forge.Context, _ *struct{}) (*transfer.Document, error) {
	c, err := a.actorContext(ctx, middleware.ObjectTransfer, middleware.ActionRead)
	if err != nil {
		return nil, err
	}
	doc, err := a.eng.Export(c)
	if err != nil {
		return nil, mapError(err)
	}
	return doc, ctx.JSON(http.StatusOK, doc)
}

func (a *API) previewImport(ctx forge.Context, req *PreviewImportRequest) (*transfer.Preview, error) {
	if req.Data == "" {
		return nil, forge.BadRequest("data is required")
	}
	c, err := a.actorContext(ctx, middleware.ObjectTransfer, middleware.ActionRead)
	if err != nil {
		return nil, err
	}
	preview, err := a.eng.PreviewImport(c, []byte(req.Data))
	if err != nil {
		return nil, mapError(err)
	}
	return preview, ctx.JSON(http.StatusOK, preview)
}
