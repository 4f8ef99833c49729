package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xraph/tierguard/permission"
)

// ErrDanglingParent is returned when a section or field references a parent
// that is not part of the catalog.
var ErrDanglingParent = errors.New("catalog: dangling parent reference")

// ErrDuplicateID is returned when two entities share an id.
var ErrDuplicateID = errors.New("catalog: duplicate entity id")

// Catalog is an immutable, indexed snapshot of the entity hierarchy.
type Catalog struct {
	pages    []*Page
	pageByID map[string]*Page
	sections map[string]*Section
	fields   map[string]*Field

	sectionsByPage  map[string][]*Section
	fieldsBySection map[string][]*Field
}

// New builds an indexed catalog. Every section must reference a page in
// pages and every field a section in sections.
func New(pages []*Page, sections []*Section, fields []*Field) (*Catalog, error) {
	c := &Catalog{
		pageByID:        make(map[string]*Page, len(pages)),
		sections:        make(map[string]*Section, len(sections)),
		fields:          make(map[string]*Field, len(fields)),
		sectionsByPage:  make(map[string][]*Section),
		fieldsBySection: make(map[string][]*Field),
	}
	seen := make(map[string]bool, len(pages)+len(sections)+len(fields))
	claim := func(id string) error {
		if id == "" {
			return fmt.Errorf("catalog: empty entity id")
		}
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = true
		return nil
	}

	for _, p := range pages {
		if err := claim(p.ID); err != nil {
			return nil, err
		}
		c.pages = append(c.pages, p)
		c.pageByID[p.ID] = p
	}
	for _, s := range sections {
		if err := claim(s.ID); err != nil {
			return nil, err
		}
		if _, ok := c.pageByID[s.PageID]; !ok {
			return nil, fmt.Errorf("%w: section %s references page %q", ErrDanglingParent, s.ID, s.PageID)
		}
		c.sections[s.ID] = s
		c.sectionsByPage[s.PageID] = append(c.sectionsByPage[s.PageID], s)
	}
	for _, f := range fields {
		if err := claim(f.ID); err != nil {
			return nil, err
		}
		if _, ok := c.sections[f.SectionID]; !ok {
			return nil, fmt.Errorf("%w: field %s references section %q", ErrDanglingParent, f.ID, f.SectionID)
		}
		c.fields[f.ID] = f
		c.fieldsBySection[f.SectionID] = append(c.fieldsBySection[f.SectionID], f)
	}

	sort.SliceStable(c.pages, func(i, j int) bool { return c.pages[i].SortOrder < c.pages[j].SortOrder })
	for _, list := range c.sectionsByPage {
		sort.SliceStable(list, func(i, j int) bool { return list[i].SortOrder < list[j].SortOrder })
	}
	for _, list := range c.fieldsBySection {
		sort.SliceStable(list, func(i, j int) bool { return list[i].SortOrder < list[j].SortOrder })
	}
	return c, nil
}

// Empty returns a catalog with no entities.
func Empty() *Catalog {
	c, _ := New(nil, nil, nil) //nolint:errcheck // an empty catalog is always valid
	return c
}

// Pages returns all pages in sort order.
func (c *Catalog) Pages() []*Page { return c.pages }

// Page returns the page with the given id.
func (c *Catalog) Page(id string) (*Page, bool) {
	p, ok := c.pageByID[id]
	return p, ok
}

// Section returns the section with the given id.
func (c *Catalog) Section(id string) (*Section, bool) {
	s, ok := c.sections[id]
	return s, ok
}

// Field returns the field with the given id.
func (c *Catalog) Field(id string) (*Field, bool) {
	f, ok := c.fields[id]
	return f, ok
}

// Sections returns the sections of a page in sort order.
func (c *Catalog) Sections(pageID string) []*Section { return c.sectionsByPage[pageID] }

// Fields returns the fields of a section in sort order.
func (c *Catalog) Fields(sectionID string) []*Field { return c.fieldsBySection[sectionID] }

// Kind resolves the entity type of an id, checking pages, then sections,
// then fields.
func (c *Catalog) Kind(id string) (permission.EntityType, bool) {
	if _, ok := c.pageByID[id]; ok {
		return permission.EntityPage, true
	}
	if _, ok := c.sections[id]; ok {
		return permission.EntitySection, true
	}
	if _, ok := c.fields[id]; ok {
		return permission.EntityField, true
	}
	return "", false
}

// Has reports whether ref names an entity of the catalog.
func (c *Catalog) Has(ref permission.Ref) bool {
	switch ref.Type {
	case permission.EntityPage:
		_, ok := c.pageByID[ref.ID]
		return ok
	case permission.EntitySection:
		_, ok := c.sections[ref.ID]
		return ok
	case permission.EntityField:
		_, ok := c.fields[ref.ID]
		return ok
	}
	return false
}

// Parent returns the parent of ref. Pages have no parent.
func (c *Catalog) Parent(ref permission.Ref) (permission.Ref, bool) {
	switch ref.Type {
	case permission.EntitySection:
		if s, ok := c.sections[ref.ID]; ok {
			return permission.PageRef(s.PageID), true
		}
	case permission.EntityField:
		if f, ok := c.fields[ref.ID]; ok {
			return permission.SectionRef(f.SectionID), true
		}
	}
	return permission.Ref{}, false
}

// Children returns the direct children of ref.
func (c *Catalog) Children(ref permission.Ref) []permission.Ref {
	var out []permission.Ref
	switch ref.Type {
	case permission.EntityPage:
		for _, s := range c.sectionsByPage[ref.ID] {
			out = append(out, permission.SectionRef(s.ID))
		}
	case permission.EntitySection:
		for _, f := range c.fieldsBySection[ref.ID] {
			out = append(out, permission.FieldRef(f.ID))
		}
	}
	return out
}

// Name returns the display name of ref, or its id when unknown.
func (c *Catalog) Name(ref permission.Ref) string {
	switch ref.Type {
	case permission.EntityPage:
		if p, ok := c.pageByID[ref.ID]; ok {
			return p.DisplayName
		}
	case permission.EntitySection:
		if s, ok := c.sections[ref.ID]; ok {
			return s.DisplayName
		}
	case permission.EntityField:
		if f, ok := c.fields[ref.ID]; ok {
			return f.DisplayName
		}
	}
	return ref.ID
}

// IsFinancial reports whether ref is a financial section or a field of one.
func (c *Catalog) IsFinancial(ref permission.Ref) bool {
	switch ref.Type {
	case permission.EntitySection:
		s, ok := c.sections[ref.ID]
		return ok && s.IsFinancial
	case permission.EntityField:
		f, ok := c.fields[ref.ID]
		if !ok {
			return false
		}
		s, ok := c.sections[f.SectionID]
		return ok && s.IsFinancial
	}
	return false
}

// IsCritical reports whether ref is, or belongs to, a critical page.
func (c *Catalog) IsCritical(ref permission.Ref) bool {
	for cur, ok := ref, true; ok; cur, ok = c.Parent(cur) {
		if cur.Type == permission.EntityPage {
			p, found := c.pageByID[cur.ID]
			return found && p.IsCritical
		}
	}
	return false
}

// IsSensitive reports whether ref is a sensitive field.
func (c *Catalog) IsSensitive(ref permission.Ref) bool {
	if ref.Type != permission.EntityField {
		return false
	}
	f, ok := c.fields[ref.ID]
	return ok && f.IsSensitive
}

// HasFinancialSection reports whether any section of the page is financial.
func (c *Catalog) HasFinancialSection(pageID string) bool {
	for _, s := range c.sectionsByPage[pageID] {
		if s.IsFinancial {
			return true
		}
	}
	return false
}

// Search returns pages matching the filter. The search term matches display
// name, page name and grouping case-insensitively. KindRestricted only
// applies the search term.
func (c *Catalog) Search(filter PageFilter) []*Page {
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []*Page
	for _, p := range c.pages {
		if term != "" &&
			!strings.Contains(strings.ToLower(p.DisplayName), term) &&
			!strings.Contains(strings.ToLower(p.PageName), term) &&
			!strings.Contains(strings.ToLower(p.Section), term) {
			continue
		}
		switch filter.Kind {
		case KindCritical:
			if !p.IsCritical {
				continue
			}
		case KindFinancial:
			if !c.HasFinancialSection(p.ID) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// Walk calls fn for every entity in hierarchy order: each page, then its
// sections, each followed by its fields.
func (c *Catalog) Walk(fn func(ref permission.Ref)) {
	for _, p := range c.pages {
		fn(permission.PageRef(p.ID))
		for _, s := range c.sectionsByPage[p.ID] {
			fn(permission.SectionRef(s.ID))
			for _, f := range c.fieldsBySection[s.ID] {
				fn(permission.FieldRef(f.ID))
			}
		}
	}
}

// Len returns the number of entities in the catalog.
func (c *Catalog) Len() int { return len(c.pageByID) + len(c.sections) + len(c.fields) }
