package middleware

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/xraph/tierguard/permission"
)

// Administrative objects guarded by the Authorizer.
const (
	ObjectCatalog     = "catalog"
	ObjectPermissions = "permissions"
	ObjectBulk        = "bulk"
	ObjectSessions    = "sessions"
	ObjectAudit       = "audit"
	ObjectTransfer    = "transfer"
	ObjectAccess      = "access"
)

// Actions on administrative objects.
const (
	ActionRead  = "read"
	ActionWrite = "write"

	// ActionBypass commits changes without validation or the actor check.
	ActionBypass = "bypass"
)

const defaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// defaultPolicy lets master do everything, bypass included, senior read
// everything, and the lower tiers read what concerns their own access.
var defaultPolicy = [][]string{
	{string(permission.TierMaster), "*", "*"},
	{string(permission.TierSenior), "*", ActionRead},
	{string(permission.TierHRFinance), ObjectCatalog, ActionRead},
	{string(permission.TierHRFinance), ObjectAudit, ActionRead},
	{string(permission.TierHRFinance), ObjectAccess, ActionRead},
	{string(permission.TierMid), ObjectCatalog, ActionRead},
	{string(permission.TierMid), ObjectAccess, ActionRead},
	{string(permission.TierExternal), ObjectAccess, ActionRead},
}

// Authorizer decides which user tiers may use the administrative API.
// Subjects are tier names.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizer returns an Authorizer with the built-in model and policy.
func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(defaultModel)
	if err != nil {
		return nil, fmt.Errorf("tierguard: authz model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("tierguard: authz enforcer: %w", err)
	}
	if _, err := enforcer.AddPolicies(defaultPolicy); err != nil {
		return nil, fmt.Errorf("tierguard: authz policy: %w", err)
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// NewAuthorizerFromFiles loads a casbin model and a CSV policy from disk.
// The model must accept (sub, obj, act) requests.
func NewAuthorizerFromFiles(modelPath, policyPath string) (*Authorizer, error) {
	enforcer, err := casbin.NewEnforcer(modelPath)
	if err != nil {
		return nil, fmt.Errorf("tierguard: authz model %s: %w", modelPath, err)
	}
	enforcer.SetAdapter(fileadapter.NewAdapter(policyPath))
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("tierguard: authz policy %s: %w", policyPath, err)
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// Allow reports whether tier may perform action on object.
func (a *Authorizer) Allow(tier permission.Tier, object, action string) (bool, error) {
	return a.enforcer.Enforce(string(tier), object, action)
}

// AllowBypass reports whether tier may commit with validation skipped. A nil
// Authorizer admits master only.
func (a *Authorizer) AllowBypass(tier permission.Tier) (bool, error) {
	if a == nil {
		return tier == permission.TierMaster, nil
	}
	return a.Allow(tier, ObjectSessions, ActionBypass)
}
