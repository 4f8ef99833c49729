package transfer

import (
	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
)

// TierChange is one tier value of a previewed entity.
type TierChange struct {
	UserTier permission.Tier `json:"userTier"`

	NewPermission permission.Type `json:"newPermission"`

	// CurrentPermission is the current explicit value, empty when the slot
	// only inherits.
	CurrentPermission permission.Type `json:"currentPermission,omitempty"`

	IsChange bool `json:"isChange"`
}

// EntityPreview is the import preview of one entity.
type EntityPreview struct {
	Type     permission.EntityType `json:"type"`
	Name     string                `json:"name"`
	ID       string                `json:"id"`
	Known    bool                  `json:"known"`
	Changes  []TierChange          `json:"changes"`
	Sections []*EntityPreview      `json:"sections,omitempty"`
	Fields   []*EntityPreview      `json:"fields,omitempty"`
}

// Preview is the diff of a document against the current explicit state.
type Preview struct {
	Version string           `json:"version"`
	Pages   []*EntityPreview `json:"pages"`
	Changes int              `json:"changes"`
	Unknown int              `json:"unknown"`
}

// BuildPreview diffs doc against the explicit values of m. Entities missing
// from the catalog are reported with Known false and never count as changes.
func BuildPreview(doc *Document, m *inherit.Matrix) *Preview {
	p := &Preview{Version: doc.Version, Pages: make([]*EntityPreview, 0, len(doc.Pages))}
	for _, page := range doc.Pages {
		pp := p.entity(m, permission.PageRef(page.ID), page.DisplayName, page.Permissions)
		for _, section := range page.Sections {
			sp := p.entity(m, permission.SectionRef(section.ID), section.DisplayName, section.Permissions)
			for _, field := range section.Fields {
				sp.Fields = append(sp.Fields, p.entity(m, permission.FieldRef(field.ID), field.DisplayName, field.Permissions))
			}
			pp.Sections = append(pp.Sections, sp)
		}
		p.Pages = append(p.Pages, pp)
	}
	return p
}

func (p *Preview) entity(m *inherit.Matrix, ref permission.Ref, name string, perms Permissions) *EntityPreview {
	ep := &EntityPreview{
		Type:    ref.Type,
		Name:    name,
		ID:      ref.ID,
		Known:   m.Catalog().Has(ref),
		Changes: make([]TierChange, 0, len(perms)),
	}
	if !ep.Known {
		p.Unknown++
	}
	for _, tier := range permission.Tiers() {
		v, ok := perms[tier]
		if !ok {
			continue
		}
		tc := TierChange{UserTier: tier, NewPermission: v}
		if cur, ok := m.Explicit(ref, tier); ok {
			tc.CurrentPermission = cur
		}
		tc.IsChange = ep.Known && tc.CurrentPermission != v
		if tc.IsChange {
			p.Changes++
		}
		ep.Changes = append(ep.Changes, tc)
	}
	return ep
}

// PendingChanges returns a pending change for every changed tier value of
// the preview, in document order.
func (p *Preview) PendingChanges(reason string) []change.Change {
	var out []change.Change
	var walk func(ep *EntityPreview)
	walk = func(ep *EntityPreview) {
		for _, tc := range ep.Changes {
			if !tc.IsChange {
				continue
			}
			out = append(out, change.Change{
				EntityType:    ep.Type,
				EntityID:      ep.ID,
				Tier:          tc.UserTier,
				OldPermission: tc.CurrentPermission,
				NewPermission: tc.NewPermission,
				Reason:        reason,
			})
		}
		for _, s := range ep.Sections {
			walk(s)
		}
		for _, f := range ep.Fields {
			walk(f)
		}
	}
	for _, page := range p.Pages {
		walk(page)
	}
	return out
}
