// Package inherit implements permission inheritance over the page, section
// and field hierarchy.
//
// All functions are pure. The canonical ranking
// none < own_only < assigned_only < read_only < full is used throughout.
package inherit

import (
	"fmt"

	"github.com/xraph/tierguard/permission"
)

// ValidateInheritance reports whether child is allowed under parent, that is
// whether child is not more permissive than parent.
func ValidateInheritance(child, parent permission.Type) bool {
	return child.Rank() <= parent.Rank()
}

// ValidChildPermissions returns the types a child may hold under parent,
// most permissive first.
func ValidChildPermissions(parent permission.Type) []permission.Type {
	var out []permission.Type
	for _, t := range permission.Types() {
		if t.Rank() <= parent.Rank() {
			out = append(out, t)
		}
	}
	return out
}

// Child is a child entity with its current permission.
type Child struct {
	ID         string          `json:"id"`
	Permission permission.Type `json:"permission"`
}

// Fix is a proposed downgrade for a child that no longer fits its parent.
type Fix struct {
	ID            string          `json:"id"`
	OldPermission permission.Type `json:"old_permission"`
	NewPermission permission.Type `json:"new_permission"`
	Reason        string          `json:"reason"`
}

// CascadePermissionChange proposes a fix for every child that violates
// newParent. Each fix downgrades to the most permissive valid type.
// Compliant children produce no entry.
func CascadePermissionChange(newParent permission.Type, children []Child) []Fix {
	var fixes []Fix
	for _, c := range children {
		if ValidateInheritance(c.Permission, newParent) {
			continue
		}
		target := permission.None
		if valid := ValidChildPermissions(newParent); len(valid) > 0 {
			target = valid[0]
		}
		fixes = append(fixes, Fix{
			ID:            c.ID,
			OldPermission: c.Permission,
			NewPermission: target,
			Reason:        fmt.Sprintf("Cascaded from parent: %s → %s", newParent, target),
		})
	}
	return fixes
}
