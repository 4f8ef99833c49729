package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/id"
	"github.com/xraph/tierguard/permission"
)

// ──────────────────────────────────────────────────
// Catalog models
// ──────────────────────────────────────────────────

type pageModel struct {
	grove.BaseModel `grove:"table:tierguard_pages"`
	ID              string    `grove:"id,pk"        bson:"_id"`
	PageName        string    `grove:"page_name"    bson:"page_name"`
	DisplayName     string    `grove:"display_name" bson:"display_name"`
	Description     string    `grove:"description"  bson:"description,omitempty"`
	Section         string    `grove:"section"      bson:"section,omitempty"`
	IsCritical      bool      `grove:"is_critical"  bson:"is_critical"`
	RoutePath       string    `grove:"route_path"   bson:"route_path,omitempty"`
	IconName        string    `grove:"icon_name"    bson:"icon_name,omitempty"`
	SortOrder       int       `grove:"sort_order"   bson:"sort_order"`
	IsActive        bool      `grove:"is_active"    bson:"is_active"`
	CreatedAt       time.Time `grove:"created_at"   bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"   bson:"updated_at"`
}

func pageToModel(p *catalog.Page) *pageModel {
	return &pageModel{
		ID:          p.ID,
		PageName:    p.PageName,
		DisplayName: p.DisplayName,
		Description: p.Description,
		Section:     p.Section,
		IsCritical:  p.IsCritical,
		RoutePath:   p.RoutePath,
		IconName:    p.IconName,
		SortOrder:   p.SortOrder,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func pageFromModel(m *pageModel) *catalog.Page {
	return &catalog.Page{
		ID:          m.ID,
		PageName:    m.PageName,
		DisplayName: m.DisplayName,
		Description: m.Description,
		Section:     m.Section,
		IsCritical:  m.IsCritical,
		RoutePath:   m.RoutePath,
		IconName:    m.IconName,
		SortOrder:   m.SortOrder,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type sectionModel struct {
	grove.BaseModel  `grove:"table:tierguard_sections"`
	ID               string    `grove:"id,pk"             bson:"_id"`
	PageID           string    `grove:"page_id"           bson:"page_id"`
	SectionName      string    `grove:"section_name"      bson:"section_name"`
	DisplayName      string    `grove:"display_name"      bson:"display_name"`
	Description      string    `grove:"description"       bson:"description,omitempty"`
	IsFinancial      bool      `grove:"is_financial"      bson:"is_financial"`
	RequiresApproval bool      `grove:"requires_approval" bson:"requires_approval"`
	ComponentName    string    `grove:"component_name"    bson:"component_name,omitempty"`
	SortOrder        int       `grove:"sort_order"        bson:"sort_order"`
	IsActive         bool      `grove:"is_active"         bson:"is_active"`
	CreatedAt        time.Time `grove:"created_at"        bson:"created_at"`
	UpdatedAt        time.Time `grove:"updated_at"        bson:"updated_at"`
}

func sectionToModel(s *catalog.Section) *sectionModel {
	return &sectionModel{
		ID:               s.ID,
		PageID:           s.PageID,
		SectionName:      s.SectionName,
		DisplayName:      s.DisplayName,
		Description:      s.Description,
		IsFinancial:      s.IsFinancial,
		RequiresApproval: s.RequiresApproval,
		ComponentName:    s.ComponentName,
		SortOrder:        s.SortOrder,
		IsActive:         s.IsActive,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func sectionFromModel(m *sectionModel) *catalog.Section {
	return &catalog.Section{
		ID:               m.ID,
		PageID:           m.PageID,
		SectionName:      m.SectionName,
		DisplayName:      m.DisplayName,
		Description:      m.Description,
		IsFinancial:      m.IsFinancial,
		RequiresApproval: m.RequiresApproval,
		ComponentName:    m.ComponentName,
		SortOrder:        m.SortOrder,
		IsActive:         m.IsActive,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type fieldModel struct {
	grove.BaseModel `grove:"table:tierguard_fields"`
	ID              string         `grove:"id,pk"            bson:"_id"`
	SectionID       string         `grove:"section_id"       bson:"section_id"`
	FieldName       string         `grove:"field_name"       bson:"field_name"`
	DisplayName     string         `grove:"display_name"     bson:"display_name"`
	FieldType       string         `grove:"field_type"       bson:"field_type"`
	IsSensitive     bool           `grove:"is_sensitive"     bson:"is_sensitive"`
	IsRequired      bool           `grove:"is_required"      bson:"is_required"`
	ValidationRules map[string]any `grove:"validation_rules" bson:"validation_rules,omitempty"`
	DefaultValue    string         `grove:"default_value"    bson:"default_value,omitempty"`
	SortOrder       int            `grove:"sort_order"       bson:"sort_order"`
	CreatedAt       time.Time      `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at"       bson:"updated_at"`
}

func fieldToModel(f *catalog.Field) *fieldModel {
	return &fieldModel{
		ID:              f.ID,
		SectionID:       f.SectionID,
		FieldName:       f.FieldName,
		DisplayName:     f.DisplayName,
		FieldType:       string(f.FieldType),
		IsSensitive:     f.IsSensitive,
		IsRequired:      f.IsRequired,
		ValidationRules: f.ValidationRules,
		DefaultValue:    f.DefaultValue,
		SortOrder:       f.SortOrder,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

func fieldFromModel(m *fieldModel) *catalog.Field {
	return &catalog.Field{
		ID:              m.ID,
		SectionID:       m.SectionID,
		FieldName:       m.FieldName,
		DisplayName:     m.DisplayName,
		FieldType:       catalog.FieldType(m.FieldType),
		IsSensitive:     m.IsSensitive,
		IsRequired:      m.IsRequired,
		ValidationRules: m.ValidationRules,
		DefaultValue:    m.DefaultValue,
		SortOrder:       m.SortOrder,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Permission record model
// ──────────────────────────────────────────────────

// permissionModel carries the tier level so listings can sort from master
// down without a lookup table.
type permissionModel struct {
	grove.BaseModel `grove:"table:tierguard_permissions"`
	ID              string     `grove:"id,pk"           bson:"_id"`
	EntityType      string     `grove:"entity_type"     bson:"entity_type"`
	EntityID        string     `grove:"entity_id"       bson:"entity_id"`
	UserTier        string     `grove:"user_tier"       bson:"user_tier"`
	TierLevel       int        `grove:"tier_level"      bson:"tier_level"`
	PermissionType  string     `grove:"permission_type" bson:"permission_type"`
	GrantedBy       string     `grove:"granted_by"      bson:"granted_by,omitempty"`
	GrantedAt       time.Time  `grove:"granted_at"      bson:"granted_at"`
	ExpiresAt       *time.Time `grove:"expires_at"      bson:"expires_at,omitempty"`
	Reason          string     `grove:"reason"          bson:"reason,omitempty"`
	CreatedAt       time.Time  `grove:"created_at"      bson:"created_at"`
	UpdatedAt       time.Time  `grove:"updated_at"      bson:"updated_at"`
}

func permissionToModel(r *permission.Record) *permissionModel {
	return &permissionModel{
		ID:             r.ID.String(),
		EntityType:     string(r.EntityType),
		EntityID:       r.EntityID,
		UserTier:       string(r.Tier),
		TierLevel:      r.Tier.Level(),
		PermissionType: string(r.Type),
		GrantedBy:      r.GrantedBy,
		GrantedAt:      r.GrantedAt,
		ExpiresAt:      r.ExpiresAt,
		Reason:         r.Reason,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func permissionFromModel(m *permissionModel) *permission.Record {
	pid, _ := id.ParsePermissionID(m.ID) //nolint:errcheck // stored IDs are always valid
	et := permission.EntityType(m.EntityType)
	tier := permission.Tier(m.UserTier)
	typ := permission.Type(m.PermissionType)
	return &permission.Record{
		ID:           pid,
		EntityType:   et,
		EntityID:     m.EntityID,
		Tier:         tier,
		Type:         typ,
		Capabilities: permission.CapabilitiesFor(et, tier, typ),
		GrantedBy:    m.GrantedBy,
		GrantedAt:    m.GrantedAt,
		ExpiresAt:    m.ExpiresAt,
		Reason:       m.Reason,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Audit entry model
// ──────────────────────────────────────────────────

type auditModel struct {
	grove.BaseModel `grove:"table:tierguard_audit_log"`
	ID              string    `grove:"id,pk"            bson:"_id"`
	EntityType      string    `grove:"entity_type"      bson:"entity_type"`
	EntityID        string    `grove:"entity_id"        bson:"entity_id"`
	EntityName      string    `grove:"entity_name"      bson:"entity_name,omitempty"`
	UserTier        string    `grove:"user_tier"        bson:"user_tier"`
	ActionType      string    `grove:"action_type"      bson:"action_type"`
	OldPermission   *string   `grove:"old_permission"   bson:"old_permission,omitempty"`
	NewPermission   *string   `grove:"new_permission"   bson:"new_permission,omitempty"`
	ChangedBy       string    `grove:"changed_by"       bson:"changed_by,omitempty"`
	ChangedByName   string    `grove:"changed_by_name"  bson:"changed_by_name,omitempty"`
	ChangeReason    string    `grove:"change_reason"    bson:"change_reason,omitempty"`
	IsSystemChange  bool      `grove:"is_system_change" bson:"is_system_change"`
	IPAddress       string    `grove:"ip_address"       bson:"ip_address,omitempty"`
	UserAgent       string    `grove:"user_agent"       bson:"user_agent,omitempty"`
	CreatedAt       time.Time `grove:"created_at"       bson:"created_at"`
}

func auditToModel(e *audit.Entry) *auditModel {
	m := &auditModel{
		ID:             e.ID.String(),
		EntityType:     string(e.EntityType),
		EntityID:       e.EntityID,
		EntityName:     e.EntityName,
		UserTier:       string(e.Tier),
		ActionType:     string(e.Action),
		ChangedBy:      e.ChangedBy,
		ChangedByName:  e.ChangedByName,
		ChangeReason:   e.Reason,
		IsSystemChange: e.IsSystemChange,
		IPAddress:      e.IPAddress,
		UserAgent:      e.UserAgent,
		CreatedAt:      e.CreatedAt,
	}
	if e.OldPermission != nil {
		v := string(*e.OldPermission)
		m.OldPermission = &v
	}
	if e.NewPermission != nil {
		v := string(*e.NewPermission)
		m.NewPermission = &v
	}
	return m
}

func auditFromModel(m *auditModel) *audit.Entry {
	aid, _ := id.ParseAuditID(m.ID) //nolint:errcheck // stored IDs are always valid
	e := &audit.Entry{
		ID:             aid,
		EntityType:     permission.EntityType(m.EntityType),
		EntityID:       m.EntityID,
		EntityName:     m.EntityName,
		Tier:           permission.Tier(m.UserTier),
		Action:         audit.Action(m.ActionType),
		ChangedBy:      m.ChangedBy,
		ChangedByName:  m.ChangedByName,
		Reason:         m.ChangeReason,
		IsSystemChange: m.IsSystemChange,
		IPAddress:      m.IPAddress,
		UserAgent:      m.UserAgent,
		CreatedAt:      m.CreatedAt,
	}
	if m.OldPermission != nil {
		v := permission.Type(*m.OldPermission)
		e.OldPermission = &v
	}
	if m.NewPermission != nil {
		v := permission.Type(*m.NewPermission)
		e.NewPermission = &v
	}
	return e
}
