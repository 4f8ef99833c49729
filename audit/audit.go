// Package audit defines the append-only permission change log.
package audit

import (
	"time"

	"github.com/xraph/tierguard/id"
	"github.com/xraph/tierguard/permission"
)

// Action classifies a committed change.
type Action string

const (
	ActionGrant  Action = "grant"
	ActionRevoke Action = "revoke"
	ActionModify Action = "modify"
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
)

// ActionFor classifies a change from old to new. A nil old means no explicit
// record existed before.
func ActionFor(old *permission.Type, newPerm permission.Type) Action {
	switch {
	case newPerm == permission.None:
		return ActionRevoke
	case old == nil || *old == permission.None:
		return ActionGrant
	default:
		return ActionModify
	}
}

// Entry is an immutable record of one committed change.
type Entry struct {
	ID             id.AuditID            `json:"id" db:"id"`
	EntityType     permission.EntityType `json:"entity_type" db:"entity_type"`
	EntityID       string                `json:"entity_id" db:"entity_id"`
	EntityName     string                `json:"entity_name" db:"entity_name"`
	Tier           permission.Tier       `json:"user_tier" db:"user_tier"`
	Action         Action                `json:"action_type" db:"action_type"`
	OldPermission  *permission.Type      `json:"old_permission,omitempty" db:"old_permission"`
	NewPermission  *permission.Type      `json:"new_permission,omitempty" db:"new_permission"`
	ChangedBy      string                `json:"changed_by" db:"changed_by"`
	ChangedByName  string                `json:"changed_by_name" db:"changed_by_name"`
	Reason         string                `json:"change_reason,omitempty" db:"change_reason"`
	IsSystemChange bool                  `json:"is_system_change" db:"is_system_change"`
	IPAddress      string                `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent      string                `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt      time.Time             `json:"created_at" db:"created_at"`
}

// Ref returns the entity the entry describes.
func (e *Entry) Ref() permission.Ref { return permission.Ref{Type: e.EntityType, ID: e.EntityID} }

// QueryFilter contains filters for querying audit entries. Results are
// returned newest first.
type QueryFilter struct {
	EntityType permission.EntityType `json:"entity_type,omitempty"`
	EntityID   string                `json:"entity_id,omitempty"`
	Tier       permission.Tier       `json:"user_tier,omitempty"`
	Action     Action                `json:"action_type,omitempty"`
	After      *time.Time            `json:"after,omitempty"`
	Before     *time.Time            `json:"before,omitempty"`
	Limit      int                   `json:"limit,omitempty"`
	Offset     int                   `json:"offset,omitempty"`
}
