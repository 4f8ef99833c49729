package api

import (
	"time"

	"github.com/xraph/tierguard/catalog"
)

// ──────────────────────────────────────────────────
// Catalog requests
// ──────────────────────────────────────────────────

// SearchPagesRequest holds query parameters for searching pages.
type SearchPagesRequest struct {
	Search string `query:"search" description:"Match page name, display name or grouping"`
	Kind   string `query:"kind" description:"all, critical, financial or restricted"`
}

// CreatePageRequest is the body for creating a page.
type CreatePageRequest struct {
	ID          string `json:"id,omitempty" description:"Page ID (generated when empty)"`
	PageName    string `json:"page_name" description:"Unique page key"`
	DisplayName string `json:"display_name" description:"Display name"`
	Description string `json:"description,omitempty" description:"Human-readable description"`
	Section     string `json:"section,omitempty" description:"Navigation grouping"`
	IsCritical  bool   `json:"is_critical,omitempty" description:"Critical pages deny mid and external users"`
	RoutePath   string `json:"route_path,omitempty" description:"Application route"`
	IconName    string `json:"icon_name,omitempty" description:"Icon name"`
	SortOrder   int    `json:"sort_order,omitempty" description:"Display order"`
}

// CreateSectionRequest is the body for creating a section.
type CreateSectionRequest struct {
	ID               string `json:"id,omitempty" description:"Section ID (generated when empty)"`
	PageID           string `json:"page_id" description:"Parent page ID"`
	SectionName      string `json:"section_name" description:"Section key"`
	DisplayName      string `json:"display_name" description:"Display name"`
	Description      string `json:"description,omitempty" description:"Human-readable description"`
	IsFinancial      bool   `json:"is_financial,omitempty" description:"Financial sections are restricted to senior and hr_finance"`
	RequiresApproval bool   `json:"requires_approval,omitempty" description:"Changes need approval"`
	ComponentName    string `json:"component_name,omitempty" description:"UI component"`
	SortOrder        int    `json:"sort_order,omitempty" description:"Display order"`
}

// CreateFieldRequest is the body for creating a field.
type CreateFieldRequest struct {
	ID              string            `json:"id,omitempty" description:"Field ID (generated when empty)"`
	SectionID       string            `json:"section_id" description:"Parent section ID"`
	FieldName       string            `json:"field_name" description:"Field key"`
	DisplayName     string            `json:"display_name" description:"Display name"`
	FieldType       catalog.FieldType `json:"field_type,omitempty" description:"currency, percentage, text, number, date or boolean"`
	IsSensitive     bool              `json:"is_sensitive,omitempty" description:"Sensitive fields are hidden from restricted tiers"`
	IsRequired      bool              `json:"is_required,omitempty" description:"Required field"`
	ValidationRules map[string]any    `json:"validation_rules,omitempty" description:"Client-side validation rules"`
	DefaultValue    string            `json:"default_value,omitempty" description:"Default value"`
	SortOrder       int               `json:"sort_order,omitempty" description:"Display order"`
}

// ──────────────────────────────────────────────────
// Permission requests
// ──────────────────────────────────────────────────

// EntityTierRequest addresses one (entity, tier) pair.
type EntityTierRequest struct {
	EntityType string `path:"entityType" description:"page, section or field"`
	EntityID   string `path:"entityId" description:"Entity ID"`
	Tier       string `query:"tier" description:"User tier"`
}

// ApplyPermissionRequest is the body for applying a single permission.
type ApplyPermissionRequest struct {
	EntityType     string     `json:"entity_type" description:"page, section or field"`
	EntityID       string     `json:"entity_id" description:"Entity ID"`
	Tier           string     `json:"user_tier" description:"User tier"`
	PermissionType string     `json:"permission_type" description:"full, read_only, assigned_only, own_only or none"`
	Reason         string     `json:"reason,omitempty" description:"Reason recorded in the audit log"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty" description:"Expiry of the grant"`
	Cascade        bool       `json:"cascade,omitempty" description:"Also apply to descendants"`
}

// ClearPermissionRequest holds query parameters for clearing a permission.
type ClearPermissionRequest struct {
	EntityType string `query:"entity_type" description:"page, section or field"`
	EntityID   string `query:"entity_id" description:"Entity ID"`
	Tier       string `query:"user_tier" description:"User tier"`
	Reason     string `query:"reason" description:"Reason recorded in the audit log"`
}

// AccessRequest holds the parameters of an access check.
type AccessRequest struct {
	EntityType string `path:"entityType" description:"page, section or field"`
	EntityID   string `path:"entityId" description:"Entity ID"`
	Tier       string `query:"tier" description:"User tier"`
	Capability string `query:"capability" description:"create, read, update, delete or approve"`
}

// AccessiblePagesRequest holds query parameters for listing readable pages.
type AccessiblePagesRequest struct {
	Tier string `query:"tier" description:"User tier"`
}

// ──────────────────────────────────────────────────
// Bulk requests
// ──────────────────────────────────────────────────

// BulkApplyRequest is the body for a bulk apply.
type BulkApplyRequest struct {
	EntityIDs      []string `json:"entity_ids" description:"Target entity IDs"`
	Tier           string   `json:"user_tier" description:"User tier"`
	PermissionType string   `json:"permission_type" description:"Permission type"`
}

// CopyPermissionsRequest is the body for copying page permissions.
type CopyPermissionsRequest struct {
	SourcePageID string   `json:"source_page_id" description:"Source page ID"`
	TargetIDs    []string `json:"target_ids" description:"Target page IDs"`
	Tier         string   `json:"user_tier" description:"User tier"`
}

// ResetRequest is the body for resetting entities to none.
type ResetRequest struct {
	EntityIDs  []string `json:"entity_ids" description:"Target entity IDs"`
	EntityType string   `json:"entity_type" description:"page, section or field"`
}

// ApplyTemplateRequest is the body for applying a template.
type ApplyTemplateRequest struct {
	Template  string   `json:"template" description:"Template name"`
	TargetIDs []string `json:"target_ids" description:"Target entity IDs"`
}

// ──────────────────────────────────────────────────
// Session requests
// ──────────────────────────────────────────────────

// SessionRequest is the path parameter naming a session.
type SessionRequest struct {
	SessionID string `path:"sessionId" description:"Session ID"`
}

// QueueChangeRequest is the body for queueing a change.
type QueueChangeRequest struct {
	EntityType     string `json:"entity_type" description:"page, section or field"`
	EntityID       string `json:"entity_id" description:"Entity ID"`
	Tier           string `json:"user_tier" description:"User tier"`
	PermissionType string `json:"permission_type" description:"Permission type"`
	Reason         string `json:"reason,omitempty" description:"Reason recorded in the audit log"`
}

// CommitRequest is the body for committing a session.
type CommitRequest struct {
	AcknowledgeWarnings bool `json:"acknowledge_warnings,omitempty" description:"Proceed past warnings"`
	SkipValidation      bool `json:"skip_validation,omitempty" description:"Bypass validation"`
}

// ValidateRequest is the body for validating a hypothetical change set.
type ValidateRequest struct {
	Changes []QueueChangeRequest `json:"changes,omitempty" description:"Pending changes to overlay"`
}

// ──────────────────────────────────────────────────
// Audit and transfer requests
// ──────────────────────────────────────────────────

// ListAuditRequest holds query parameters for audit queries.
type ListAuditRequest struct {
	EntityType string `query:"entity_type" description:"Filter by entity type"`
	EntityID   string `query:"entity_id" description:"Filter by entity ID"`
	Tier       string `query:"user_tier" description:"Filter by user tier"`
	Action     string `query:"action" description:"grant, revoke, modify, create, delete or all"`
	Search     string `query:"search" description:"Match entity name, changer or reason"`
	Window     string `query:"window" description:"7days, 30days, 90days or all"`
	ShowSystem bool   `query:"show_system" description:"Include system changes"`
	After      string `query:"after" description:"RFC 3339 lower bound"`
	Before     string `query:"before" description:"RFC 3339 upper bound"`
	Limit      int    `query:"limit" description:"Maximum results"`
	Offset     int    `query:"offset" description:"Results to skip"`
}

// PreviewImportRequest carries the text of an export document. Comments
// and trailing commas are tolerated.
type PreviewImportRequest struct {
	Data string `json:"data" description:"Export document text"`
}

// ImportRequest queues an export document on a session.
type ImportRequest struct {
	SessionID string `path:"sessionId" description:"Session ID"`
	Data      string `json:"data" description:"Export document text"`
}
