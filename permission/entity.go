package permission

import "fmt"

// EntityType is the level of the catalog hierarchy a permission attaches to.
type EntityType string

const (
	EntityPage    EntityType = "page"
	EntitySection EntityType = "section"
	EntityField   EntityType = "field"
)

// ParseEntityType parses an entity type name.
func ParseEntityType(s string) (EntityType, error) {
	et := EntityType(s)
	if !et.IsValid() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return et, nil
}

// IsValid reports whether et is page, section or field.
func (et EntityType) IsValid() bool {
	return et == EntityPage || et == EntitySection || et == EntityField
}

func (et EntityType) String() string { return string(et) }

// Ref addresses one catalog entity.
type Ref struct {
	Type EntityType `json:"entity_type"`
	ID   string     `json:"entity_id"`
}

// PageRef returns a reference to a page.
func PageRef(id string) Ref { return Ref{Type: EntityPage, ID: id} }

// SectionRef returns a reference to a section.
func SectionRef(id string) Ref { return Ref{Type: EntitySection, ID: id} }

// FieldRef returns a reference to a field.
func FieldRef(id string) Ref { return Ref{Type: EntityField, ID: id} }

// IsZero reports whether r is unset.
func (r Ref) IsZero() bool { return r.Type == "" && r.ID == "" }

func (r Ref) String() string { return string(r.Type) + ":" + r.ID }
