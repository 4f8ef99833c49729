package permission

import "fmt"

// Tier is the privilege class of a user.
type Tier string

const (
	// TierMaster is the top administrative tier.
	TierMaster Tier = "master"

	// TierSenior is senior staff.
	TierSenior Tier = "senior"

	// TierHRFinance is HR and finance staff.
	TierHRFinance Tier = "hr_finance"

	// TierMid is mid-level staff.
	TierMid Tier = "mid"

	// TierExternal is contractors and other external users.
	TierExternal Tier = "external"
)

var tierLevels = map[Tier]int{
	TierMaster:    5,
	TierSenior:    4,
	TierHRFinance: 3,
	TierMid:       2,
	TierExternal:  1,
}

// Tiers returns all tiers from most to least privileged.
func Tiers() []Tier {
	return []Tier{TierMaster, TierSenior, TierHRFinance, TierMid, TierExternal}
}

// ParseTier parses a tier name.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}

// IsValid reports whether t is one of the five known tiers.
func (t Tier) IsValid() bool {
	_, ok := tierLevels[t]
	return ok
}

// Level returns the privilege level (master=5 … external=1, unknown=0).
// It orders tiers only and is never compared with a permission rank.
func (t Tier) Level() int { return tierLevels[t] }

// IsRestricted reports whether t is one of the low-privilege tiers that the
// critical, financial and sensitive rules apply to.
func (t Tier) IsRestricted() bool { return t == TierMid || t == TierExternal }

// CanAccessFinancialData reports whether t may see financial data at all.
func (t Tier) CanAccessFinancialData() bool {
	return t == TierMaster || t == TierSenior || t == TierHRFinance
}

// CanApprove reports whether t may ever hold the approve capability.
func (t Tier) CanApprove() bool { return t != TierMid && t != TierExternal }

func (t Tier) String() string { return string(t) }
