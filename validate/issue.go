// Package validate runs business rules over permission state and pending
// changes and reports typed issues.
package validate

import "github.com/xraph/tierguard/permission"

// IssueType is the blocking level of an issue.
type IssueType string

const (
	TypeError   IssueType = "error"
	TypeWarning IssueType = "warning"
	TypeInfo    IssueType = "info"
)

// Severity ranks issues within a type.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Category groups issues by concern.
type Category string

const (
	CategorySecurity     Category = "security"
	CategoryConsistency  Category = "consistency"
	CategoryInheritance  Category = "inheritance"
	CategoryBusinessRule Category = "business_rule"
)

// Issue is one rule violation.
type Issue struct {
	ID                string                `json:"id"`
	Type              IssueType             `json:"type"`
	Severity          Severity              `json:"severity"`
	Category          Category              `json:"category"`
	EntityType        permission.EntityType `json:"entity_type"`
	EntityID          string                `json:"entity_id"`
	EntityName        string                `json:"entity_name"`
	Tier              permission.Tier       `json:"user_tier"`
	CurrentPermission permission.Type       `json:"current_permission"`
	Message           string                `json:"message"`
	Recommendation    string                `json:"recommendation,omitempty"`
	AutoFixable       bool                  `json:"auto_fixable"`

	// Fix is the value an automatic fix would set. It is nil unless
	// AutoFixable is true.
	Fix *permission.Type `json:"fix,omitempty"`
}

// Ref returns the entity the issue refers to.
func (i Issue) Ref() permission.Ref { return permission.Ref{Type: i.EntityType, ID: i.EntityID} }

// Key returns the (entity, tier) slot the issue refers to.
func (i Issue) Key() permission.Key { return permission.Key{Ref: i.Ref(), Tier: i.Tier} }

// Report is the result of one validation run.
type Report struct {
	Issues []Issue `json:"issues"`
}

// Errors returns the error-level issues.
func (r *Report) Errors() []Issue { return r.ofType(TypeError) }

// Warnings returns the warning-level issues.
func (r *Report) Warnings() []Issue { return r.ofType(TypeWarning) }

// HasErrors reports whether any issue is an error.
func (r *Report) HasErrors() bool { return len(r.Errors()) > 0 }

// AutoFixes returns the issues that carry an automatic fix.
func (r *Report) AutoFixes() []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.AutoFixable && i.Fix != nil {
			out = append(out, i)
		}
	}
	return out
}

// Counts returns the number of issues per type.
func (r *Report) Counts() map[IssueType]int {
	out := make(map[IssueType]int, 3)
	for _, i := range r.Issues {
		out[i.Type]++
	}
	return out
}

func (r *Report) ofType(t IssueType) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Type == t {
			out = append(out, i)
		}
	}
	return out
}

func typePtr(t permission.Type) *permission.Type { return &t }
