package catalog

import "context"

// Store defines persistence operations for catalog entities.
type Store interface {
	// CreatePage persists a new page.
	CreatePage(ctx context.Context, p *Page) error

	// UpdatePage persists changes to a page.
	UpdatePage(ctx context.Context, p *Page) error

	// ListPages returns all pages ordered by sort order.
	ListPages(ctx context.Context) ([]*Page, error)

	// CreateSection persists a new section.
	CreateSection(ctx context.Context, s *Section) error

	// ListSections returns all sections ordered by sort order.
	ListSections(ctx context.Context) ([]*Section, error)

	// CreateField persists a new field.
	CreateField(ctx context.Context, f *Field) error

	// ListFields returns all fields ordered by sort order.
	ListFields(ctx context.Context) ([]*Field, error)
}

// Load fetches every entity from s and builds an indexed catalog.
func Load(ctx context.Context, s Store) (*Catalog, error) {
	pages, err := s.ListPages(ctx)
	if err != nil {
		return nil, err
	}
	sections, err := s.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	fields, err := s.ListFields(ctx)
	if err != nil {
		return nil, err
	}
	return New(pages, sections, fields)
}
