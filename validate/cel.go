package validate

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/permission"
)

// RuleSpec describes a custom rule. Expression is a CEL boolean expression
// that is true when the (entity, tier) pair violates the rule.
//
// Variables available to the expression:
//
//	entity_type        string  page, section or field
//	entity_id          string
//	entity_name        string
//	tier               string
//	tier_level         int     master=5 … external=1
//	permission         string  effective permission
//	permission_rank    int     none=0 … full=4
//	parent_permission  string  empty for pages
//	is_critical        bool    page flag, inherited by sections and fields
//	is_financial       bool    section flag, inherited by fields
//	is_sensitive       bool    field flag
type RuleSpec struct {
	ID             string    `json:"id" yaml:"id"`
	Expression     string    `json:"expression" yaml:"expression"`
	Type           IssueType `json:"type" yaml:"type"`
	Severity       Severity  `json:"severity" yaml:"severity"`
	Category       Category  `json:"category" yaml:"category"`
	Message        string    `json:"message" yaml:"message"`
	Recommendation string    `json:"recommendation,omitempty" yaml:"recommendation"`
}

// CustomRule is a compiled RuleSpec.
type CustomRule struct {
	spec    RuleSpec
	program cel.Program
}

var newRuleEnv = func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("entity_type", cel.StringType),
		cel.Variable("entity_id", cel.StringType),
		cel.Variable("entity_name", cel.StringType),
		cel.Variable("tier", cel.StringType),
		cel.Variable("tier_level", cel.IntType),
		cel.Variable("permission", cel.StringType),
		cel.Variable("permission_rank", cel.IntType),
		cel.Variable("parent_permission", cel.StringType),
		cel.Variable("is_critical", cel.BoolType),
		cel.Variable("is_financial", cel.BoolType),
		cel.Variable("is_sensitive", cel.BoolType),
	)
}

// Compile type-checks spec and returns a rule ready for evaluation.
func Compile(spec RuleSpec) (*CustomRule, error) {
	if spec.ID == "" {
		return nil, errors.New("validate: rule id is required")
	}
	if spec.Type == "" {
		spec.Type = TypeWarning
	}
	if spec.Severity == "" {
		spec.Severity = SeverityMedium
	}
	if spec.Category == "" {
		spec.Category = CategoryBusinessRule
	}

	env, err := newRuleEnv()
	if err != nil {
		return nil, fmt.Errorf("validate: rule %s: %w", spec.ID, err)
	}
	ast, issues := env.Compile(spec.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("validate: rule %s: %w", spec.ID, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("validate: rule %s: expression must evaluate to bool", spec.ID)
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("validate: rule %s: %w", spec.ID, err)
	}
	return &CustomRule{spec: spec, program: program}, nil
}

// LoadRules decodes a YAML list of rule specs and compiles each one.
//
//	rules:
//	  - id: no-external-writes
//	    expression: tier == "external" && permission_rank > 3
//	    type: error
//	    message: External users cannot hold full access
func LoadRules(r io.Reader) ([]*CustomRule, error) {
	var doc struct {
		Rules []RuleSpec `yaml:"rules"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("validate: decode rules: %w", err)
	}
	out := make([]*CustomRule, 0, len(doc.Rules))
	for _, spec := range doc.Rules {
		rule, err := Compile(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

// ID returns the rule id.
func (r *CustomRule) ID() string { return r.spec.ID }

func (r *CustomRule) evaluate(cat *catalog.Catalog, ref permission.Ref, tier permission.Tier, value permission.Type, parent *permission.Type) *Issue {
	vars := map[string]any{
		"entity_type":       string(ref.Type),
		"entity_id":         ref.ID,
		"entity_name":       cat.Name(ref),
		"tier":              string(tier),
		"tier_level":        int64(tier.Level()),
		"permission":        string(value),
		"permission_rank":   int64(value.Rank()),
		"parent_permission": "",
		"is_critical":       cat.IsCritical(ref),
		"is_financial":      cat.IsFinancial(ref),
		"is_sensitive":      cat.IsSensitive(ref),
	}
	if parent != nil {
		vars["parent_permission"] = string(*parent)
	}

	issue := &Issue{
		ID:                fmt.Sprintf("%s-%s-%s", r.spec.ID, ref.ID, tier),
		Type:              r.spec.Type,
		Severity:          r.spec.Severity,
		Category:          r.spec.Category,
		EntityType:        ref.Type,
		EntityID:          ref.ID,
		EntityName:        cat.Name(ref),
		Tier:              tier,
		CurrentPermission: value,
		Message:           r.spec.Message,
		Recommendation:    r.spec.Recommendation,
	}

	out, _, err := r.program.Eval(vars)
	if err != nil {
		issue.Type = TypeInfo
		issue.Severity = SeverityLow
		issue.Message = fmt.Sprintf("Rule %s could not be evaluated: %v", r.spec.ID, err)
		return issue
	}
	if hit, ok := out.Value().(bool); !ok || !hit {
		return nil
	}
	return issue
}
