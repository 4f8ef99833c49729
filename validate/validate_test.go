package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/catalog/catalogtest"
	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
)

// baseline grants master full on every page so the master rule stays quiet.
func baseline() *inherit.Matrix {
	cat := catalogtest.Catalog()
	m := inherit.NewMatrix(cat, nil, time.Now())
	for _, p := range cat.Pages() {
		m.Set(permission.PageRef(p.ID), permission.TierMaster, permission.Full)
	}
	return m
}

func issuesFor(r *Report, t IssueType, ref permission.Ref, tier permission.Tier) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Type == t && i.Ref() == ref && i.Tier == tier {
			out = append(out, i)
		}
	}
	return out
}

func TestCleanBaseline(t *testing.T) {
	report := New().Validate(baseline(), nil)
	assert.Empty(t, report.Issues)
}

func TestCriticalPage_ExactlyOneError(t *testing.T) {
	page := permission.PageRef(catalogtest.PageROI)
	for _, tier := range []permission.Tier{permission.TierMid, permission.TierExternal} {
		for _, typ := range permission.Types() {
			if typ == permission.None {
				continue
			}
			pending := []change.Change{{
				EntityType: page.Type, EntityID: page.ID, Tier: tier,
				OldPermission: permission.None, NewPermission: typ,
			}}
			report := New().Validate(baseline(), pending)

			errs := issuesFor(report, TypeError, page, tier)
			require.Len(t, errs, 1, "tier=%s type=%s", tier, typ)
			assert.Equal(t, "critical-access-page-roi-"+string(tier), errs[0].ID)
			assert.Equal(t, CategorySecurity, errs[0].Category)
			require.NotNil(t, errs[0].Fix)
			assert.Equal(t, permission.None, *errs[0].Fix)
		}
	}
}

func TestMasterNoAccess(t *testing.T) {
	m := inherit.NewMatrix(catalogtest.Catalog(), nil, time.Now())
	report := New().Validate(m, nil)

	warnings := report.Warnings()
	require.Len(t, warnings, 3)
	for _, w := range warnings {
		assert.Equal(t, permission.TierMaster, w.Tier)
		assert.True(t, strings.HasPrefix(w.ID, "master-no-access-"))
		assert.True(t, w.AutoFixable)
	}
}

func TestInheritanceViolations(t *testing.T) {
	m := baseline()
	m.Set(permission.PageRef(catalogtest.PageCrew), permission.TierMid, permission.OwnOnly)
	m.Set(permission.FieldRef(catalogtest.FieldCrewHours), permission.TierMid, permission.ReadOnly)
	m.Set(permission.SectionRef(catalogtest.SectionSalesOpps), permission.TierSenior, permission.Full)

	report := New().Validate(m, nil)

	fieldErrs := issuesFor(report, TypeError, permission.FieldRef(catalogtest.FieldCrewHours), permission.TierMid)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, CategoryInheritance, fieldErrs[0].Category)
	assert.Equal(t, permission.OwnOnly, *fieldErrs[0].Fix)
	assert.Equal(t, "Reduce field permission to own_only or increase section permission", fieldErrs[0].Recommendation)

	sectionErrs := issuesFor(report, TypeError, permission.SectionRef(catalogtest.SectionSalesOpps), permission.TierSenior)
	require.Len(t, sectionErrs, 1)
	assert.Equal(t, permission.None, *sectionErrs[0].Fix)
}

func TestFinancialAndSensitiveWarnings(t *testing.T) {
	m := baseline()
	m.Set(permission.SectionRef(catalogtest.SectionROIEstimates), permission.TierMid, permission.AssignedOnly)
	m.Set(permission.PageRef(catalogtest.PageSales), permission.TierExternal, permission.ReadOnly)

	report := New().Validate(m, nil)

	fin := issuesFor(report, TypeWarning, permission.SectionRef(catalogtest.SectionROIEstimates), permission.TierMid)
	require.Len(t, fin, 1)
	assert.False(t, fin[0].AutoFixable)
	assert.Nil(t, fin[0].Fix)

	sens := issuesFor(report, TypeWarning, permission.FieldRef(catalogtest.FieldClientContact), permission.TierExternal)
	require.Len(t, sens, 1)
	assert.Equal(t, "sensitive-access-fld-client-contact-external", sens[0].ID)

	// A read-only financial section is tolerated.
	m.Set(permission.SectionRef(catalogtest.SectionROIEstimates), permission.TierMid, permission.ReadOnly)
	report = New().Validate(m, nil)
	assert.Empty(t, issuesFor(report, TypeWarning, permission.SectionRef(catalogtest.SectionROIEstimates), permission.TierMid))
}

func TestPendingMasterRemoval(t *testing.T) {
	pending := []change.Change{{
		EntityType: permission.EntitySection, EntityID: catalogtest.SectionSalesOpps,
		Tier: permission.TierMaster, OldPermission: permission.Full, NewPermission: permission.None,
	}}
	report := New().Validate(baseline(), pending)

	var found bool
	for _, i := range report.Warnings() {
		if i.ID == "pending-master-removal-"+catalogtest.SectionSalesOpps {
			found = true
			assert.Equal(t, "Pending change will remove Master access from \"Sales Opportunities\"", i.Message)
		}
	}
	assert.True(t, found)
}

func TestValidateDoesNotMutate(t *testing.T) {
	m := baseline()
	page := permission.PageRef(catalogtest.PageROI)
	pending := []change.Change{{
		EntityType: page.Type, EntityID: page.ID, Tier: permission.TierMid,
		OldPermission: permission.None, NewPermission: permission.Full,
	}}
	New().Validate(m, pending)
	_, ok := m.Explicit(page, permission.TierMid)
	assert.False(t, ok)
}

func TestCustomRule(t *testing.T) {
	rule, err := Compile(RuleSpec{
		ID:         "hr-no-delete",
		Expression: `tier == "hr_finance" && permission == "full" && entity_type == "page"`,
		Type:       TypeError,
		Message:    "HR finance cannot hold full page access",
	})
	require.NoError(t, err)
	assert.Equal(t, "hr-no-delete", rule.ID())

	m := baseline()
	m.Set(permission.PageRef(catalogtest.PageCrew), permission.TierHRFinance, permission.Full)

	report := New(WithCustomRules(rule)).Validate(m, nil)
	errs := report.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "hr-no-delete-page-crew-hr_finance", errs[0].ID)
	assert.Equal(t, CategoryBusinessRule, errs[0].Category)
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(RuleSpec{ID: "x", Expression: "tier_level + 1"})
	require.Error(t, err)

	_, err = Compile(RuleSpec{ID: "x", Expression: "unknown_var == 1"})
	require.Error(t, err)

	_, err = Compile(RuleSpec{Expression: "true"})
	require.Error(t, err)
}

func TestLoadRules(t *testing.T) {
	doc := `
rules:
  - id: critical-field
    expression: is_critical && is_sensitive && tier_level < 4 && permission_rank > 0
    message: Sensitive data on a critical page
`
	rules, err := LoadRules(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, rules, 1)

	m := baseline()
	m.Set(permission.PageRef(catalogtest.PageROI), permission.TierHRFinance, permission.ReadOnly)
	report := New(WithCustomRules(rules...)).Validate(m, nil)

	hits := 0
	for _, i := range report.Warnings() {
		if strings.HasPrefix(i.ID, "critical-field-") {
			hits++
		}
	}
	// Two sensitive fields on the critical page, visible to hr_finance.
	assert.Equal(t, 2, hits)
}
