package validate

import (
	"fmt"

	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
)

// ──────────────────────────────────────────────────
// Hierarchy rules
// ──────────────────────────────────────────────────

func criticalPage(p *catalog.Page, tier permission.Tier, value permission.Type) *Issue {
	if !p.IsCritical || !tier.IsRestricted() || value == permission.None {
		return nil
	}
	return &Issue{
		ID:                fmt.Sprintf("critical-access-%s-%s", p.ID, tier),
		Type:              TypeError,
		Severity:          SeverityHigh,
		Category:          CategorySecurity,
		EntityType:        permission.EntityPage,
		EntityID:          p.ID,
		EntityName:        p.DisplayName,
		Tier:              tier,
		CurrentPermission: value,
		Message:           fmt.Sprintf("Critical page %q should not be accessible to %s users", p.DisplayName, tier),
		Recommendation:    `Set permission to "none" for security compliance`,
		AutoFixable:       true,
		Fix:               typePtr(permission.None),
	}
}

func masterNoAccess(p *catalog.Page, tier permission.Tier, value permission.Type) *Issue {
	if tier != permission.TierMaster || value != permission.None {
		return nil
	}
	return &Issue{
		ID:                "master-no-access-" + p.ID,
		Type:              TypeWarning,
		Severity:          SeverityHigh,
		Category:          CategoryBusinessRule,
		EntityType:        permission.EntityPage,
		EntityID:          p.ID,
		EntityName:        p.DisplayName,
		Tier:              tier,
		CurrentPermission: value,
		Message:           fmt.Sprintf("Master user has no access to %q - this may cause management issues", p.DisplayName),
		Recommendation:    "Consider granting at least read-only access to Master users",
		AutoFixable:       true,
		Fix:               typePtr(permission.ReadOnly),
	}
}

func sectionInheritance(s *catalog.Section, tier permission.Tier, value, parent permission.Type) *Issue {
	if inherit.ValidateInheritance(value, parent) {
		return nil
	}
	return &Issue{
		ID:                fmt.Sprintf("inheritance-violation-section-%s-%s", s.ID, tier),
		Type:              TypeError,
		Severity:          SeverityMedium,
		Category:          CategoryInheritance,
		EntityType:        permission.EntitySection,
		EntityID:          s.ID,
		EntityName:        s.DisplayName,
		Tier:              tier,
		CurrentPermission: value,
		Message:           fmt.Sprintf("Section %q has more permissive access (%s) than its parent page (%s)", s.DisplayName, value, parent),
		Recommendation:    fmt.Sprintf("Reduce section permission to %s or increase page permission", parent),
		AutoFixable:       true,
		Fix:               typePtr(parent),
	}
}

func financialSection(s *catalog.Section, tier permission.Tier, value permission.Type) *Issue {
	if !s.IsFinancial || !tier.IsRestricted() || value == permission.None || value == permission.ReadOnly {
		return nil
	}
	return &Issue{
		ID:                fmt.Sprintf("financial-access-%s-%s", s.ID, tier),
		Type:              TypeWarning,
		Severity:          SeverityMedium,
		Category:          CategorySecurity,
		EntityType:        permission.EntitySection,
		EntityID:          s.ID,
		EntityName:        s.DisplayName,
		Tier:              tier,
		CurrentPermission: value,
		Message:           fmt.Sprintf("Financial section %q grants write access to %s users", s.DisplayName, tier),
		Recommendation:    "Consider limiting to read-only or no access for financial data protection",
	}
}

func fieldInheritance(f *catalog.Field, tier permission.Tier, value, parent permission.Type) *Issue {
	if inherit.ValidateInheritance(value, parent) {
		return nil
	}
	return &Issue{
		ID:                fmt.Sprintf("inheritance-violation-field-%s-%s", f.ID, tier),
		Type:              TypeError,
		Severity:          SeverityMedium,
		Category:          CategoryInheritance,
		EntityType:        permission.EntityField,
		EntityID:          f.ID,
		EntityName:        f.DisplayName,
		Tier:              tier,
		CurrentPermission: value,
		Message:           fmt.Sprintf("Field %q has more permissive access (%s) than its parent section (%s)", f.DisplayName, value, parent),
		Recommendation:    fmt.Sprintf("Reduce field permission to %s or increase section permission", parent),
		AutoFixable:       true,
		Fix:               typePtr(parent),
	}
}

func sensitiveField(f *catalog.Field, tier permission.Tier, value permission.Type) *Issue {
	if !f.IsSensitive || !tier.IsRestricted() || value == permission.None {
		return nil
	}
	return &Issue{
		ID:                fmt.Sprintf("sensitive-access-%s-%s", f.ID, tier),
		Type:              TypeWarning,
		Severity:          SeverityMedium,
		Category:          CategorySecurity,
		EntityType:        permission.EntityField,
		EntityID:          f.ID,
		EntityName:        f.DisplayName,
		Tier:              tier,
		CurrentPermission: value,
		Message:           fmt.Sprintf("Sensitive field %q is accessible to %s users", f.DisplayName, tier),
		Recommendation:    "Consider restricting access to sensitive fields for lower privilege users",
	}
}

// ──────────────────────────────────────────────────
// Pending change rules
// ──────────────────────────────────────────────────

func pendingMasterRemoval(cat *catalog.Catalog, c change.Change) *Issue {
	if c.Tier != permission.TierMaster || c.NewPermission != permission.None {
		return nil
	}
	name := cat.Name(c.Ref())
	return &Issue{
		ID:                "pending-master-removal-" + c.EntityID,
		Type:              TypeWarning,
		Severity:          SeverityHigh,
		Category:          CategoryBusinessRule,
		EntityType:        c.EntityType,
		EntityID:          c.EntityID,
		EntityName:        name,
		Tier:              c.Tier,
		CurrentPermission: c.NewPermission,
		Message:           fmt.Sprintf("Pending change will remove Master access from %q", name),
		Recommendation:    "Ensure this is intentional as it may impact system management",
	}
}

// CheckCritical returns the blocking issue raised when tier would hold value
// on a critical page, or nil. Sections and fields never trigger it.
func CheckCritical(cat *catalog.Catalog, ref permission.Ref, tier permission.Tier, value permission.Type) *Issue {
	if ref.Type != permission.EntityPage {
		return nil
	}
	p, ok := cat.Page(ref.ID)
	if !ok {
		return nil
	}
	return criticalPage(p, tier, value)
}
