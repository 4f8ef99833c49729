package inherit

import (
	"time"

	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/permission"
)

// Resolution is the effective permission of one (entity, tier) pair.
type Resolution struct {
	Ref          permission.Ref  `json:"entity"`
	Tier         permission.Tier `json:"user_tier"`
	Value        permission.Type `json:"value"`
	IsInherited  bool            `json:"is_inherited"`
	IsOverridden bool            `json:"is_overridden"`
	IsValid      bool            `json:"is_valid"`

	// Parent is the effective value of the parent, when one is resolvable.
	Parent *permission.Type `json:"parent,omitempty"`
}

// Matrix is a catalog together with the explicit permission values that
// apply to it. It is not safe for concurrent mutation.
type Matrix struct {
	cat      *catalog.Catalog
	explicit map[permission.Key]permission.Type
}

// NewMatrix builds a matrix from explicit records. Records that expired at
// or before now are treated as absent.
func NewMatrix(cat *catalog.Catalog, records []*permission.Record, now time.Time) *Matrix {
	m := &Matrix{cat: cat, explicit: make(map[permission.Key]permission.Type, len(records))}
	for _, r := range records {
		if r.Expired(now) {
			continue
		}
		m.explicit[r.Key()] = r.Type
	}
	return m
}

// Catalog returns the catalog the matrix resolves against.
func (m *Matrix) Catalog() *catalog.Catalog { return m.cat }

// Clone returns an independent copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	cp := &Matrix{cat: m.cat, explicit: make(map[permission.Key]permission.Type, len(m.explicit))}
	for k, v := range m.explicit {
		cp.explicit[k] = v
	}
	return cp
}

// Explicit returns the explicit value for (ref, tier).
func (m *Matrix) Explicit(ref permission.Ref, tier permission.Tier) (permission.Type, bool) {
	v, ok := m.explicit[permission.Key{Ref: ref, Tier: tier}]
	return v, ok
}

// ExplicitOrNone returns the explicit value for (ref, tier) or none.
func (m *Matrix) ExplicitOrNone(ref permission.Ref, tier permission.Tier) permission.Type {
	if v, ok := m.Explicit(ref, tier); ok {
		return v
	}
	return permission.None
}

// Set records an explicit value.
func (m *Matrix) Set(ref permission.Ref, tier permission.Tier, t permission.Type) {
	m.explicit[permission.Key{Ref: ref, Tier: tier}] = t
}

// Unset removes an explicit value so that (ref, tier) inherits again.
func (m *Matrix) Unset(ref permission.Ref, tier permission.Tier) {
	delete(m.explicit, permission.Key{Ref: ref, Tier: tier})
}

// ExplicitTiers returns the explicit values held by ref.
func (m *Matrix) ExplicitTiers(ref permission.Ref) map[permission.Tier]permission.Type {
	out := make(map[permission.Tier]permission.Type)
	for _, tier := range permission.Tiers() {
		if v, ok := m.Explicit(ref, tier); ok {
			out[tier] = v
		}
	}
	return out
}

// Effective resolves the effective permission of (ref, tier).
//
// An explicit value wins. Without one the value of the nearest ancestor is
// inherited, and the walk ends at none when nothing on the chain is explicit.
func (m *Matrix) Effective(ref permission.Ref, tier permission.Tier) Resolution {
	res := Resolution{Ref: ref, Tier: tier, IsValid: true}

	var parentValue *permission.Type
	if parent, ok := m.cat.Parent(ref); ok {
		v := m.Effective(parent, tier).Value
		parentValue = &v
	}
	res.Parent = parentValue

	if v, ok := m.Explicit(ref, tier); ok {
		res.Value = v
		if parentValue != nil {
			res.IsOverridden = v != *parentValue
			res.IsValid = ValidateInheritance(v, *parentValue)
		}
		return res
	}

	if parentValue != nil {
		res.Value = *parentValue
		res.IsInherited = true
		return res
	}

	res.Value = permission.None
	return res
}

// Value is shorthand for Effective(ref, tier).Value.
func (m *Matrix) Value(ref permission.Ref, tier permission.Tier) permission.Type {
	return m.Effective(ref, tier).Value
}

// ExplicitChildren returns the direct children of ref that hold an explicit
// value for tier.
func (m *Matrix) ExplicitChildren(ref permission.Ref, tier permission.Tier) []Child {
	var out []Child
	for _, c := range m.cat.Children(ref) {
		if v, ok := m.Explicit(c, tier); ok {
			out = append(out, Child{ID: c.ID, Permission: v})
		}
	}
	return out
}
