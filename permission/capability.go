package permission

// Capability is a single operation a permission type may allow.
type Capability string

const (
	CapCreate  Capability = "create"
	CapRead    Capability = "read"
	CapUpdate  Capability = "update"
	CapDelete  Capability = "delete"
	CapApprove Capability = "approve"
)

// Scope narrows which items a capability applies to.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeAssigned Scope = "assigned"
	ScopeOwn      Scope = "own"
	ScopeNone     Scope = "none"
)

// Capabilities is the capability set implied by a permission type.
type Capabilities struct {
	CanCreate  bool  `json:"can_create"`
	CanRead    bool  `json:"can_read"`
	CanUpdate  bool  `json:"can_update"`
	CanDelete  bool  `json:"can_delete"`
	CanApprove bool  `json:"can_approve"`
	Scope      Scope `json:"scope"`
}

// CapabilitiesOf returns the capability set implied by t.
func CapabilitiesOf(t Type) Capabilities {
	switch t {
	case Full:
		return Capabilities{CanCreate: true, CanRead: true, CanUpdate: true, CanDelete: true, CanApprove: true, Scope: ScopeAll}
	case ReadOnly:
		return Capabilities{CanRead: true, Scope: ScopeAll}
	case AssignedOnly:
		return Capabilities{CanRead: true, CanUpdate: true, Scope: ScopeAssigned}
	case OwnOnly:
		return Capabilities{CanRead: true, CanUpdate: true, Scope: ScopeOwn}
	default:
		return Capabilities{Scope: ScopeNone}
	}
}

// CapabilitiesFor returns the capability set for t held by tier on an
// entity of type et. Fields never carry approve, and neither do tiers that
// cannot approve.
func CapabilitiesFor(et EntityType, tier Tier, t Type) Capabilities {
	c := CapabilitiesOf(t)
	if et == EntityField || !tier.CanApprove() {
		c.CanApprove = false
	}
	return c
}

// Allows reports whether the set includes capability c.
func (c Capabilities) Allows(capability Capability) bool {
	switch capability {
	case CapCreate:
		return c.CanCreate
	case CapRead:
		return c.CanRead
	case CapUpdate:
		return c.CanUpdate
	case CapDelete:
		return c.CanDelete
	case CapApprove:
		return c.CanApprove
	default:
		return false
	}
}
