package validate

import (
	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
)

// Validator evaluates the built-in rules and any custom rules.
// It never mutates its inputs.
type Validator struct {
	custom []*CustomRule
}

// Option configures a Validator.
type Option func(*Validator)

// WithCustomRules adds compiled custom rules evaluated for every
// (entity, tier) pair after the built-in rules.
func WithCustomRules(rules ...*CustomRule) Option {
	return func(v *Validator) { v.custom = append(v.custom, rules...) }
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every rule over base with pending applied on top. Rules are
// independent, so one (entity, tier) pair can collect several issues.
func (v *Validator) Validate(base *inherit.Matrix, pending []change.Change) *Report {
	m := base
	if len(pending) > 0 {
		m = change.Overlay(base, pending)
	}
	cat := m.Catalog()
	report := &Report{}
	add := func(i *Issue) {
		if i != nil {
			report.Issues = append(report.Issues, *i)
		}
	}

	for _, page := range cat.Pages() {
		pageRef := permission.PageRef(page.ID)
		for _, tier := range permission.Tiers() {
			pageValue := m.Value(pageRef, tier)
			add(criticalPage(page, tier, pageValue))
			add(masterNoAccess(page, tier, pageValue))
			v.evalCustom(report, m, pageRef, tier, pageValue, nil)

			for _, section := range cat.Sections(page.ID) {
				sectionRef := permission.SectionRef(section.ID)
				sectionValue := m.Value(sectionRef, tier)
				add(sectionInheritance(section, tier, sectionValue, pageValue))
				add(financialSection(section, tier, sectionValue))
				v.evalCustom(report, m, sectionRef, tier, sectionValue, &pageValue)

				for _, field := range cat.Fields(section.ID) {
					fieldRef := permission.FieldRef(field.ID)
					fieldValue := m.Value(fieldRef, tier)
					add(fieldInheritance(field, tier, fieldValue, sectionValue))
					add(sensitiveField(field, tier, fieldValue))
					v.evalCustom(report, m, fieldRef, tier, fieldValue, &sectionValue)
				}
			}
		}
	}

	for _, c := range pending {
		add(pendingMasterRemoval(cat, c))
	}
	return report
}

func (v *Validator) evalCustom(report *Report, m *inherit.Matrix, ref permission.Ref, tier permission.Tier, value permission.Type, parent *permission.Type) {
	for _, rule := range v.custom {
		if issue := rule.evaluate(m.Catalog(), ref, tier, value, parent); issue != nil {
			report.Issues = append(report.Issues, *issue)
		}
	}
}
