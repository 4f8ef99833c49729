package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/middleware"
)

func (a *API) registerCatalogRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("catalog"))

	if err := g.GET("/catalog", a.getCatalog,
		forge.WithSummary("Get catalog"),
		forge.WithDescription("Returns every page with its sections and fields."),
		forge.WithOperationID("getCatalog"),
		forge.WithResponseSchema(http.StatusOK, "Catalog", CatalogResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/catalog/pages", a.searchPages,
		forge.WithSummary("Search pages"),
		forge.WithDescription("Filters pages by text and kind."),
		forge.WithOperationID("searchPages"),
		forge.WithRequestSchema(SearchPagesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Page list", []*catalog.Page{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/catalog/pages", a.createPage,
		forge.WithSummary("Create page"),
		forge.WithDescription("Adds a page to the catalog."),
		forge.WithOperationID("createPage"),
		forge.WithRequestSchema(CreatePageRequest{}),
		forge.WithCreatedResponse(&catalog.Page{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/catalog/sections", a.createSection,
		forge.WithSummary("Create section"),
		forge.WithDescription("Adds a section under an existing page."),
		forge.WithOperationID("createSection"),
		forge.WithRequestSchema(CreateSectionRequest{}),
		forge.WithCreatedResponse(&catalog.Section{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/catalog/fields", a.createField,
		forge.WithSummary("Create field"),
		forge.WithDescription("Adds a field under an existing section."),
		forge.WithOperationID("createField"),
		forge.WithRequestSchema(CreateFieldRequest{}),
		forge.WithCreatedResponse(&catalog.Field{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) getCatalog(ctx forge.Context, _ *struct{}) (*CatalogResponse, error) {
	c, err := a.actorContext(ctx, middleware.ObjectCatalog, middleware.ActionRead)
	if err != nil {
		return nil, err
	}
	cat, err := a.eng.Catalog(c)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &CatalogResponse{Pages: make([]PageNode, 0, len(cat.Pages()))}
	for _, p := range cat.Pages() {
		node := PageNode{Page: p, Sections: []SectionNode{}}
		for _, s := range cat.Sections(p.ID) {
			fields := cat.Fields(s.ID)
			if fields == nil {
				fields = []*catalog.Field{}
			}
			node.Sections = append(node.Sections, SectionNode{Section: s, Fields: fields})
		}
		resp.Pages = append(resp.Pages, node)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) searchPages(ctx forge.Context, req *SearchPagesRequest) ([]*catalog.Page, error) {
	c, err := a.actorContext(ctx, middleware.ObjectCatalog, middleware.ActionRead)
	if err != nil {
		return nil, err
	}
	pages, err := a.eng.SearchPages(c, catalog.PageFilter{Search: req.Search, Kind: catalog.Kind(req.Kind)})
	if err != nil {
		return nil, mapError(err)
	}
	if pages == nil {
		pages = []*catalog.Page{}
	}
	return pages, ctx.JSON(http.StatusOK, pages)
}

func (a *API) createPage(ctx forge.Context, req *CreatePageRequest) (*catalog.Page, error) {
	if req.PageName == "" || req.DisplayName == "" {
		return nil, forge.BadRequest("page_name and display_name are required")
	}
	c, err := a.actorContext(ctx, middleware.ObjectCatalog, middleware.ActionWrite)
	if err != nil {
		return nil, err
	}

	p := &catalog.Page{
		ID:          req.ID,
		PageName:    req.PageName,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Section:     req.Section,
		IsCritical:  req.IsCritical,
		RoutePath:   req.RoutePath,
		IconName:    req.IconName,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	if err := a.eng.CreatePage(c, p); err != nil {
		return nil, mapError(err)
	}
	return p, ctx.JSON(http.StatusCreated, p)
}

func (a *API) createSection(ctx forge.Context, req *CreateSectionRequest) (*catalog.Section, error) {
	if req.PageID == "" || req.SectionName == "" || req.DisplayName == "" {
		return nil, forge.BadRequest("page_id, section_name and display_name are required")
	}
	c, err := a.actorContext(ctx, middleware.ObjectCatalog, middleware.ActionWrite)
	if err != nil {
		return nil, err
	}

	s := &catalog.Section{
		ID:               req.ID,
		PageID:           req.PageID,
		SectionName:      req.SectionName,
		DisplayName:      req.DisplayName,
		Description:      req.Description,
		IsFinancial:      req.IsFinancial,
		RequiresApproval: req.RequiresApproval,
		ComponentName:    req.ComponentName,
		SortOrder:        req.SortOrder,
		IsActive:         true,
	}
	if err := a.eng.CreateSection(c, s); err != nil {
		return nil, mapError(err)
	}
	return s, ctx.JSON(http.StatusCreated, s)
}

func (a *API) createField(ctx forge.Context, req *CreateFieldRequest) (*catalog.Field, error) {
	if req.SectionID == "" || req.FieldName == "" || req.DisplayName == "" {
		return nil, forge.BadRequest("section_id, field_name and display_name are required")
	}
	c, err := a.actorContext(ctx, middleware.ObjectCatalog, middleware.ActionWrite)
	if err != nil {
		return nil, err
	}

	f := &catalog.Field{
		ID:              req.ID,
		SectionID:       req.SectionID,
		FieldName:       req.FieldName,
		DisplayName:     req.DisplayName,
		FieldType:       req.FieldType,
		IsSensitive:     req.IsSensitive,
		IsRequired:      req.IsRequired,
		ValidationRules: req.ValidationRules,
		DefaultValue:    req.DefaultValue,
		SortOrder:       req.SortOrder,
	}
	if err := a.eng.CreateField(c, f); err != nil {
		return nil, mapError(err)
	}
	return f, ctx.JSON(http.StatusCreated, f)
}
