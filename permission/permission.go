// Package permission defines tiers, permission types and the explicit
// permission record with its store interface.
//
// A record exists only where an operator granted something explicitly.
// Absence of a record for an (entity, tier) pair means the value is inherited
// from the nearest ancestor.
package permission

import (
	"time"

	"github.com/xraph/tierguard/id"
)

// Record is an explicit permission for one tier on one catalog entity.
type Record struct {
	ID           id.PermissionID `json:"id" db:"id"`
	EntityType   EntityType      `json:"entity_type" db:"entity_type"`
	EntityID     string          `json:"entity_id" db:"entity_id"`
	Tier         Tier            `json:"user_tier" db:"user_tier"`
	Type         Type            `json:"permission_type" db:"permission_type"`
	Capabilities Capabilities    `json:"capabilities" db:"-"`
	GrantedBy    string          `json:"granted_by,omitempty" db:"granted_by"`
	GrantedAt    time.Time       `json:"granted_at" db:"granted_at"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty" db:"expires_at"`
	Reason       string          `json:"reason,omitempty" db:"reason"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Ref returns the entity the record is attached to.
func (r *Record) Ref() Ref { return Ref{Type: r.EntityType, ID: r.EntityID} }

// Key returns the (entity, tier) key of the record.
func (r *Record) Key() Key { return Key{Ref: r.Ref(), Tier: r.Tier} }

// Expired reports whether the record has an expiry at or before now.
func (r *Record) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// Key identifies the single slot an explicit record can occupy.
type Key struct {
	Ref  Ref  `json:"entity"`
	Tier Tier `json:"user_tier"`
}

// ListFilter contains filters for listing permission records.
type ListFilter struct {
	EntityType EntityType `json:"entity_type,omitempty"`
	EntityIDs  []string   `json:"entity_ids,omitempty"`
	Tier       Tier       `json:"user_tier,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}
