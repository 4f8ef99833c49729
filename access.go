package tierguard

import (
	"context"
	"fmt"

	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/permission"
)

// Access is what a tier may do on one entity once the tier guard has been
// applied to the resolved permission.
type Access struct {
	Resolution   *Resolution             `json:"resolution"`
	Permission   permission.Type         `json:"permission_type"`
	Capabilities permission.Capabilities `json:"capabilities"`

	// Clamped is set when the tier guard changed the resolved value.
	Clamped bool `json:"clamped"`
}

// Access resolves what tier may do on ref.
func (e *Engine) Access(ctx context.Context, tier permission.Tier, ref permission.Ref) (*Access, error) {
	res, err := e.EffectivePermission(ctx, ref, tier)
	if err != nil {
		return nil, err
	}
	value := res.Value
	if e.config.tierGuardEnforced() {
		cat, err := e.Catalog(ctx)
		if err != nil {
			return nil, err
		}
		value = clamp(cat, ref, tier, value)
	}
	return &Access{
		Resolution:   res,
		Permission:   value,
		Capabilities: permission.CapabilitiesFor(ref.Type, tier, value),
		Clamped:      value != res.Value,
	}, nil
}

// Can reports whether tier holds capability on ref.
func (e *Engine) Can(ctx context.Context, tier permission.Tier, ref permission.Ref, capability permission.Capability) (bool, error) {
	a, err := e.Access(ctx, tier, ref)
	if err != nil {
		return false, err
	}
	return a.Capabilities.Allows(capability), nil
}

// AccessiblePages returns the active pages tier can read, in catalog order.
func (e *Engine) AccessiblePages(ctx context.Context, tier permission.Tier) ([]*catalog.Page, error) {
	if err := checkTier(tier); err != nil {
		return nil, err
	}
	cat, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	m, err := e.matrixFor(ctx, cat, &permission.ListFilter{EntityType: permission.EntityPage, Tier: tier})
	if err != nil {
		return nil, fmt.Errorf("tierguard: accessible pages: %w", err)
	}

	var out []*catalog.Page
	for _, p := range cat.Pages() {
		if !p.IsActive {
			continue
		}
		ref := permission.PageRef(p.ID)
		value := m.Value(ref, tier)
		if e.config.tierGuardEnforced() {
			value = clamp(cat, ref, tier, value)
		}
		if permission.CapabilitiesOf(value).CanRead {
			out = append(out, p)
		}
	}
	return out, nil
}

// clamp applies the tier guard. Financial flags live on sections and are
// inherited by their fields; critical flags live on pages and are inherited
// by everything below. Master always holds full. External users
// never see financial, sensitive or critical data and otherwise see at most
// assigned items. Mid users never see financial or critical data and only
// read sensitive fields. HR finance only reads critical data outside the
// financial sections.
func clamp(cat *catalog.Catalog, ref permission.Ref, tier permission.Tier, value permission.Type) permission.Type {
	financial := cat.IsFinancial(ref)
	critical := cat.IsCritical(ref)
	sensitive := cat.IsSensitive(ref)

	switch tier {
	case permission.TierMaster:
		return permission.Full
	case permission.TierExternal:
		if financial || sensitive || critical {
			return permission.None
		}
		return permission.Min(value, permission.AssignedOnly)
	case permission.TierMid:
		if financial || critical {
			return permission.None
		}
		if sensitive {
			return permission.Min(value, permission.ReadOnly)
		}
	case permission.TierHRFinance:
		if critical && !financial {
			return permission.Min(value, permission.ReadOnly)
		}
	}
	return value
}
