package tierguard

import (
	"context"
	"fmt"

	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/id"
	"github.com/xraph/tierguard/permission"
)

// CreatePage persists a new page and reloads the catalog. An empty ID is
// generated.
func (e *Engine) CreatePage(ctx context.Context, p *catalog.Page) error {
	if p.ID == "" {
		p.ID = id.NewPageID().String()
	}
	if err := e.checkFreeID(ctx, p.ID); err != nil {
		return err
	}
	now := e.now()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := e.store.CreatePage(ctx, p); err != nil {
		return fmt.Errorf("tierguard: create page: %w", err)
	}
	return e.ReloadCatalog(ctx)
}

// UpdatePage persists changes to an existing page and reloads the catalog.
func (e *Engine) UpdatePage(ctx context.Context, p *catalog.Page) error {
	cat, err := e.lookup(ctx, permission.PageRef(p.ID))
	if err != nil {
		return err
	}
	existing, _ := cat.Page(p.ID)
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = e.now()
	if err := e.store.UpdatePage(ctx, p); err != nil {
		return fmt.Errorf("tierguard: update page: %w", err)
	}
	return e.ReloadCatalog(ctx)
}

// CreateSection persists a new section under an existing page and reloads
// the catalog.
func (e *Engine) CreateSection(ctx context.Context, s *catalog.Section) error {
	if _, err := e.lookup(ctx, permission.PageRef(s.PageID)); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = id.NewSectionID().String()
	}
	if err := e.checkFreeID(ctx, s.ID); err != nil {
		return err
	}
	now := e.now()
	s.CreatedAt, s.UpdatedAt = now, now
	if err := e.store.CreateSection(ctx, s); err != nil {
		return fmt.Errorf("tierguard: create section: %w", err)
	}
	return e.ReloadCatalog(ctx)
}

// CreateField persists a new field under an existing section and reloads
// the catalog. An empty field type defaults to text.
func (e *Engine) CreateField(ctx context.Context, f *catalog.Field) error {
	if _, err := e.lookup(ctx, permission.SectionRef(f.SectionID)); err != nil {
		return err
	}
	if f.FieldType == "" {
		f.FieldType = catalog.FieldText
	}
	if !f.FieldType.IsValid() {
		return fmt.Errorf("%w: unknown field type %q", ErrInvalidOperation, f.FieldType)
	}
	if f.ID == "" {
		f.ID = id.NewFieldID().String()
	}
	if err := e.checkFreeID(ctx, f.ID); err != nil {
		return err
	}
	now := e.now()
	f.CreatedAt, f.UpdatedAt = now, now
	if err := e.store.CreateField(ctx, f); err != nil {
		return fmt.Errorf("tierguard: create field: %w", err)
	}
	return e.ReloadCatalog(ctx)
}

// checkFreeID refuses an id already used by any catalog entity. Ids are
// unique across pages, sections and fields.
func (e *Engine) checkFreeID(ctx context.Context, entityID string) error {
	cat, err := e.Catalog(ctx)
	if err != nil {
		return err
	}
	if kind, ok := cat.Kind(entityID); ok {
		return fmt.Errorf("%w: id %s is already used by a %s", ErrInvalidOperation, entityID, kind)
	}
	return nil
}
