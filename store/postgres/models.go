package postgres

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
	ID              string    `grove:"id,pk"`
	PageName        string    `grove:"page_name,notnull"`
	DisplayName     string    `grove:"display_name,notnull"`
	Description     string    `grove:"description"`
	Section         string    `grove:"section"`
	IsCritical      bool      `grove:"is_critical,notnull"`
	RoutePath       string    `grove:"route_path"`
	IconName        string    `grove:"icon_name"`
	SortOrder       int       `grove:"sort_order,notnull"`
	IsActive        bool      `grove:"is_active,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
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
	ID               string    `grove:"id,pk"`
	PageID           string    `grove:"page_id,notnull"`
	SectionName      string    `grove:"section_name,notnull"`
	DisplayName      string    `grove:"display_name,notnull"`
	Description      string    `grove:"description"`
	IsFinancial      bool      `grove:"is_financial,notnull"`
	RequiresApproval bool      `grove:"requires_approval,notnull"`
	ComponentName    string    `grove:"component_name"`
	SortOrder        int       `grove:"sort_order,notnull"`
	IsActive         bool      `grove:"is_active,notnull"`
	CreatedAt        time.Time `grove:"created_at,notnull"`
	UpdatedAt        time.Time `grove:"updated_at,notnull"`
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
	ID              string         `grove:"id,pk"`
	SectionID       string         `grove:"section_id,notnull"`
	FieldName       string         `grove:"field_name,notnull"`
	DisplayName     string         `grove:"display_name,notnull"`
	FieldType       string         `grove:"field_type,notnull"`
	IsSensitive     bool           `grove:"is_sensitive,notnull"`
	IsRequired      bool           `grove:"is_required,notnull"`
	ValidationRules map[string]any `grove:"validation_rules,type:jsonb"`
	DefaultValue    string         `grove:"default_value"`
	SortOrder       int            `grove:"sort_order,notnull"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
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

type permissionModel struct {
	grove.BaseModel `grove:"table:tierguard_permissions"`
	ID              string     `grove:"id,pk"`
	EntityType      string     `grove:"entity_type,notnull"`
	EntityID        string     `grove:"entity_id,notnull"`
	UserTier        string     `grove:"user_tier,notnull"`
	PermissionType  string     `grove:"permission_type,notnull"`
	GrantedBy       string     `grove:"granted_by"`
	GrantedAt       time.Time  `grove:"granted_at,notnull"`
	ExpiresAt       *time.Time `grove:"expires_at"`
	Reason          string     `grove:"reason"`
	CreatedAt       time.Time  `grove:"created_at,notnull"`
	UpdatedAt       time.Time  `grove:"updated_at,notnull"`
}

func permissionToModel(r *permission.Record) *permissionModel {
	return &permissionModel{
		ID:             r.ID.String(),
		EntityType:     string(r.EntityType),
		EntityID:       r.EntityID,
		UserTier:       string(r.Tier),
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
	ID              string    `grove:"id,pk"`
	EntityType      string    `grove:"entity_type,notnull"`
	EntityID        string    `grove:"entity_id,notnull"`
	EntityName      string    `grove:"entity_name"`
	UserTier        string    `grove:"user_tier,notnull"`
	ActionType      string    `grove:"action_type,notnull"`
	OldPermission   *string   `grove:"old_permission"`
	NewPermission   *string   `grove:"new_permission"`
	ChangedBy       string    `grove:"changed_by"`
	ChangedByName   string    `grove:"changed_by_name"`
	ChangeReason    string    `grove:"change_reason"`
	IsSystemChange  bool      `grove:"is_system_change,notnull"`
	IPAddress       string    `grove:"ip_address"`
	UserAgent       string    `grove:"user_agent"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func auditToModel(e *audit.Entry) *auditModel {
	return &auditModel{
		ID:             e.ID.String(),
		EntityType:     string(e.EntityType),
		EntityID:       e.EntityID,
		EntityName:     e.EntityName,
		UserTier:       string(e.Tier),
		ActionType:     string(e.Action),
		OldPermission:  typeToString(e.OldPermission),
		NewPermission:  typeToString(e.NewPermission),
		ChangedBy:      e.ChangedBy,
		ChangedByName:  e.ChangedByName,
		ChangeReason:   e.Reason,
		IsSystemChange: e.IsSystemChange,
		IPAddress:      e.IPAddress,
		UserAgent:      e.UserAgent,
		CreatedAt:      e.CreatedAt,
	}
}

func auditFromModel(m *auditModel) *audit.Entry {
	aid, _ := id.ParseAuditID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &audit.Entry{
		ID:             aid,
		EntityType:     permission.EntityType(m.EntityType),
		EntityID:       m.EntityID,
		EntityName:     m.EntityName,
		Tier:           permission.Tier(m.UserTier),
		Action:         audit.Action(m.ActionType),
		OldPermission:  stringToType(m.OldPermission),
		NewPermission:  stringToType(m.NewPermission),
		ChangedBy:      m.ChangedBy,
		ChangedByName:  m.ChangedByName,
		Reason:         m.ChangeReason,
		IsSystemChange: m.IsSystemChange,
		IPAddress:      m.IPAddress,
		UserAgent:      m.UserAgent,
		CreatedAt:      m.CreatedAt,
	}
}

func typeToString(t *permission.Type) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

func stringToType(s *string) *permission.Type {
	if s == nil {
		return nil
	}
	t := permission.Type(*s)
	return &t
}
