// Package transfer exports the permission matrix to a versioned document
// and previews documents before import.
package transfer

import (
	"time"

	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
)

// DefaultVersion is the document version written by Export.
const DefaultVersion = "1.0"

// Permissions maps tiers to explicit permission types.
type Permissions map[permission.Tier]permission.Type

// Document is the export format.
type Document struct {
	Version    string    `json:"version" validate:"required"`
	ExportedAt time.Time `json:"exportedAt"`
	ExportedBy string    `json:"exportedBy"`
	Pages      []*Page   `json:"pages" validate:"required"`
}

// Page is one exported page with its subtree.
type Page struct {
	ID          string      `json:"id" validate:"required"`
	PageName    string      `json:"page_name" validate:"required"`
	DisplayName string      `json:"display_name" validate:"required"`
	Permissions Permissions `json:"permissions" validate:"required,dive,keys,oneof=master senior hr_finance mid external,endkeys,oneof=full read_only assigned_only own_only none"`
	Sections    []*Section  `json:"sections,omitempty" validate:"omitempty,dive"`
}

// Section is one exported section.
type Section struct {
	ID          string      `json:"id"`
	SectionName string      `json:"section_name,omitempty"`
	DisplayName string      `json:"display_name"`
	Permissions Permissions `json:"permissions,omitempty" validate:"omitempty,dive,keys,oneof=master senior hr_finance mid external,endkeys,oneof=full read_only assigned_only own_only none"`
	Fields      []*Field    `json:"fields,omitempty" validate:"omitempty,dive"`
}

// Field is one exported field.
type Field struct {
	ID          string      `json:"id"`
	FieldName   string      `json:"field_name,omitempty"`
	DisplayName string      `json:"display_name"`
	Permissions Permissions `json:"permissions,omitempty" validate:"omitempty,dive,keys,oneof=master senior hr_finance mid external,endkeys,oneof=full read_only assigned_only own_only none"`
}

// Meta describes who produced an export.
type Meta struct {
	Version    string
	ExportedBy string
	ExportedAt time.Time
}

// Export writes the explicit permissions of m. Tiers without an explicit
// record are omitted, so importing the result reproduces the same explicit
// state. Pages always carry a permissions object.
func Export(m *inherit.Matrix, meta Meta) *Document {
	if meta.Version == "" {
		meta.Version = DefaultVersion
	}
	cat := m.Catalog()
	doc := &Document{
		Version:    meta.Version,
		ExportedAt: meta.ExportedAt,
		ExportedBy: meta.ExportedBy,
		Pages:      make([]*Page, 0, len(cat.Pages())),
	}
	for _, p := range cat.Pages() {
		page := &Page{
			ID:          p.ID,
			PageName:    p.PageName,
			DisplayName: p.DisplayName,
			Permissions: explicit(m, permission.PageRef(p.ID)),
		}
		for _, s := range cat.Sections(p.ID) {
			section := &Section{
				ID:          s.ID,
				SectionName: s.SectionName,
				DisplayName: s.DisplayName,
				Permissions: nilIfEmpty(explicit(m, permission.SectionRef(s.ID))),
			}
			for _, f := range cat.Fields(s.ID) {
				section.Fields = append(section.Fields, &Field{
					ID:          f.ID,
					FieldName:   f.FieldName,
					DisplayName: f.DisplayName,
					Permissions: nilIfEmpty(explicit(m, permission.FieldRef(f.ID))),
				})
			}
			page.Sections = append(page.Sections, section)
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc
}

func explicit(m *inherit.Matrix, ref permission.Ref) Permissions {
	return Permissions(m.ExplicitTiers(ref))
}

func nilIfEmpty(p Permissions) Permissions {
	if len(p) == 0 {
		return nil
	}
	return p
}
