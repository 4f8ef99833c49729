package permission

import "fmt"

// Type is a permission level attached to an (entity, tier) pair.
type Type string

const (
	// Full grants create, read, update, delete and approve.
	Full Type = "full"

	// ReadOnly grants read.
	ReadOnly Type = "read_only"

	// AssignedOnly grants read and update on assigned items.
	AssignedOnly Type = "assigned_only"

	// OwnOnly grants read and update on the caller's own items.
	OwnOnly Type = "own_only"

	// None grants nothing.
	None Type = "none"
)

// Canonical ranking: none < own_only < assigned_only < read_only < full.
var typeRanks = map[Type]int{
	None:         0,
	OwnOnly:      1,
	AssignedOnly: 2,
	ReadOnly:     3,
	Full:         4,
}

// Types returns all permission types from most to least permissive.
func Types() []Type {
	return []Type{Full, ReadOnly, AssignedOnly, OwnOnly, None}
}

// ParseType parses a permission type name.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown permission type %q", s)
	}
	return t, nil
}

// IsValid reports whether t is one of the five known types.
func (t Type) IsValid() bool {
	_, ok := typeRanks[t]
	return ok
}

// Rank returns the position of t in the canonical ranking. Unknown types
// rank as none.
func (t Type) Rank() int { return typeRanks[t] }

// Exceeds reports whether t is strictly more permissive than other.
func (t Type) Exceeds(other Type) bool { return t.Rank() > other.Rank() }

// OrNone returns t, or None when t is empty.
func (t Type) OrNone() Type {
	if t == "" {
		return None
	}
	return t
}

// Min returns the less permissive of a and b.
func Min(a, b Type) Type {
	if a.Rank() <= b.Rank() {
		return a
	}
	return b
}

// Max returns the more permissive of a and b.
func Max(a, b Type) Type {
	if a.Rank() >= b.Rank() {
		return a
	}
	return b
}

func (t Type) String() string { return string(t) }
