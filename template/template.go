// Package template provides named tier-to-permission mappings that can be
// applied in bulk.
package template

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/xraph/tierguard/permission"
)

// Built-in template names.
const (
	FinancialRestricted = "financial_restricted"
	ProjectStandard     = "project_standard"
	SalesTeam           = "sales_team"
	ExternalLimited     = "external_limited"
	HRCompliance        = "hr_compliance"
	SystemAdmin         = "system_admin"
)

// Template maps every tier to a permission type.
type Template struct {
	Name        string                              `json:"name" yaml:"name"`
	Label       string                              `json:"label" yaml:"label"`
	Description string                              `json:"description" yaml:"description"`
	Permissions map[permission.Tier]permission.Type `json:"permissions" yaml:"permissions"`
	BuiltIn     bool                                `json:"built_in" yaml:"-"`
}

// Validate checks that the template names every tier with a known type.
func (t *Template) Validate() error {
	if t.Name == "" {
		return errors.New("template: name is required")
	}
	for _, tier := range permission.Tiers() {
		v, ok := t.Permissions[tier]
		if !ok {
			return fmt.Errorf("template %s: missing tier %s", t.Name, tier)
		}
		if !v.IsValid() {
			return fmt.Errorf("template %s: tier %s: unknown permission type %q", t.Name, tier, v)
		}
	}
	for tier := range t.Permissions {
		if !tier.IsValid() {
			return fmt.Errorf("template %s: unknown tier %q", t.Name, tier)
		}
	}
	return nil
}

func mapping(master, senior, hrFinance, mid, external permission.Type) map[permission.Tier]permission.Type {
	return map[permission.Tier]permission.Type{
		permission.TierMaster:    master,
		permission.TierSenior:    senior,
		permission.TierHRFinance: hrFinance,
		permission.TierMid:       mid,
		permission.TierExternal:  external,
	}
}

// BuiltIns returns fresh copies of the six built-in templates.
func BuiltIns() []*Template {
	const (
		full     = permission.Full
		ro       = permission.ReadOnly
		assigned = permission.AssignedOnly
		none     = permission.None
	)
	return []*Template{
		{
			Name: FinancialRestricted, Label: "Financial Restricted", BuiltIn: true,
			Description: "Strict financial data protection - suitable for ROI, accounting pages",
			Permissions: mapping(full, full, ro, none, none),
		},
		{
			Name: ProjectStandard, Label: "Standard Project Access", BuiltIn: true,
			Description: "Standard project permissions - suitable for most project pages",
			Permissions: mapping(full, full, ro, full, assigned),
		},
		{
			Name: SalesTeam, Label: "Sales Team Access", BuiltIn: true,
			Description: "Sales-focused permissions - suitable for pipeline, opportunities",
			Permissions: mapping(full, full, ro, full, none),
		},
		{
			Name: ExternalLimited, Label: "External Limited", BuiltIn: true,
			Description: "Limited access for external users - assigned items only",
			Permissions: mapping(full, full, ro, ro, assigned),
		},
		{
			Name: HRCompliance, Label: "HR Compliance", BuiltIn: true,
			Description: "HR and compliance access pattern - suitable for team, user management",
			Permissions: mapping(full, ro, full, ro, none),
		},
		{
			Name: SystemAdmin, Label: "System Administration", BuiltIn: true,
			Description: "Administrative access - suitable for system settings, configuration",
			Permissions: mapping(full, ro, none, none, none),
		},
	}
}

// Registry holds the built-in templates plus any custom ones.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry returns a registry preloaded with the built-ins.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]*Template)}
	for _, t := range BuiltIns() {
		r.templates[t.Name] = t
	}
	return r
}

// Register adds or replaces a custom template. Built-ins cannot be replaced.
func (r *Registry) Register(t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.templates[t.Name]; ok && existing.BuiltIn {
		return fmt.Errorf("template %s: cannot replace a built-in template", t.Name)
	}
	t.BuiltIn = false
	r.templates[t.Name] = t
	return nil
}

// Get returns the template with the given name.
func (r *Registry) Get(name string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	return t, ok
}

// List returns built-ins first in their fixed order, then custom templates
// sorted by name.
func (r *Registry) List() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Template, 0, len(r.templates))
	for _, b := range BuiltIns() {
		out = append(out, r.templates[b.Name])
	}
	var custom []*Template
	for _, t := range r.templates {
		if !t.BuiltIn {
			custom = append(custom, t)
		}
	}
	sort.Slice(custom, func(i, j int) bool { return custom[i].Name < custom[j].Name })
	return append(out, custom...)
}

// LoadYAML decodes custom templates from r and registers them.
//
//	templates:
//	  - name: contractor_view
//	    label: Contractor View
//	    permissions:
//	      master: full
//	      senior: full
//	      hr_finance: read_only
//	      mid: read_only
//	      external: own_only
func (r *Registry) LoadYAML(src io.Reader) (int, error) {
	var doc struct {
		Templates []*Template `yaml:"templates"`
	}
	if err := yaml.NewDecoder(src).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("template: decode: %w", err)
	}
	for i, t := range doc.Templates {
		if err := r.Register(t); err != nil {
			return i, err
		}
	}
	return len(doc.Templates), nil
}
