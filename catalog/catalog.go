// Package catalog defines the page, section and field hierarchy that
// permissions attach to.
package catalog

import "time"

// FieldType is the data type of a field.
type FieldType string

const (
	FieldCurrency   FieldType = "currency"
	FieldPercentage FieldType = "percentage"
	FieldText       FieldType = "text"
	FieldNumber     FieldType = "number"
	FieldDate       FieldType = "date"
	FieldBoolean    FieldType = "boolean"
)

// IsValid reports whether ft is a known field type.
func (ft FieldType) IsValid() bool {
	switch ft {
	case FieldCurrency, FieldPercentage, FieldText, FieldNumber, FieldDate, FieldBoolean:
		return true
	}
	return false
}

// Page is a top-level resource.
type Page struct {
	ID          string    `json:"id" yaml:"id" db:"id"`
	PageName    string    `json:"page_name" yaml:"page_name" db:"page_name"`
	DisplayName string    `json:"display_name" yaml:"display_name" db:"display_name"`
	Description string    `json:"description,omitempty" yaml:"description" db:"description"`
	Section     string    `json:"section,omitempty" yaml:"section" db:"section"`
	IsCritical  bool      `json:"is_critical" yaml:"is_critical" db:"is_critical"`
	RoutePath   string    `json:"route_path,omitempty" yaml:"route_path" db:"route_path"`
	IconName    string    `json:"icon_name,omitempty" yaml:"icon_name" db:"icon_name"`
	SortOrder   int       `json:"sort_order" yaml:"sort_order" db:"sort_order"`
	IsActive    bool      `json:"is_active" yaml:"-" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" yaml:"-" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-" db:"updated_at"`
}

// Section belongs to exactly one page.
type Section struct {
	ID               string    `json:"id" yaml:"id" db:"id"`
	PageID           string    `json:"page_id" yaml:"page_id" db:"page_id"`
	SectionName      string    `json:"section_name" yaml:"section_name" db:"section_name"`
	DisplayName      string    `json:"display_name" yaml:"display_name" db:"display_name"`
	Description      string    `json:"description,omitempty" yaml:"description" db:"description"`
	IsFinancial      bool      `json:"is_financial" yaml:"is_financial" db:"is_financial"`
	RequiresApproval bool      `json:"requires_approval" yaml:"requires_approval" db:"requires_approval"`
	ComponentName    string    `json:"component_name,omitempty" yaml:"component_name" db:"component_name"`
	SortOrder        int       `json:"sort_order" yaml:"sort_order" db:"sort_order"`
	IsActive         bool      `json:"is_active" yaml:"-" db:"is_active"`
	CreatedAt        time.Time `json:"created_at" yaml:"-" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" yaml:"-" db:"updated_at"`
}

// Field belongs to exactly one section.
type Field struct {
	ID              string         `json:"id" yaml:"id" db:"id"`
	SectionID       string         `json:"section_id" yaml:"section_id" db:"section_id"`
	FieldName       string         `json:"field_name" yaml:"field_name" db:"field_name"`
	DisplayName     string         `json:"display_name" yaml:"display_name" db:"display_name"`
	FieldType       FieldType      `json:"field_type" yaml:"field_type" db:"field_type"`
	IsSensitive     bool           `json:"is_sensitive" yaml:"is_sensitive" db:"is_sensitive"`
	IsRequired      bool           `json:"is_required" yaml:"is_required" db:"is_required"`
	ValidationRules map[string]any `json:"validation_rules,omitempty" yaml:"validation_rules" db:"validation_rules"`
	DefaultValue    string         `json:"default_value,omitempty" yaml:"default_value" db:"default_value"`
	SortOrder       int            `json:"sort_order" yaml:"sort_order" db:"sort_order"`
	CreatedAt       time.Time      `json:"created_at" yaml:"-" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" yaml:"-" db:"updated_at"`
}

// Kind selects pages by flag in Search.
type Kind string

const (
	KindAll       Kind = "all"
	KindCritical  Kind = "critical"
	KindFinancial Kind = "financial"

	// KindRestricted selects pages that deny mid or external explicitly.
	// It depends on permission state and is applied by the engine.
	KindRestricted Kind = "restricted"
)

// PageFilter narrows Search results.
type PageFilter struct {
	Search string `json:"search,omitempty"`
	Kind   Kind   `json:"kind,omitempty"`
}
