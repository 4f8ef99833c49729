// Package tierguard provides hierarchical, tier-based permission management
// for page, section and field entities.
//
// Every entity carries an optional explicit permission per user tier
// (master, senior, hr_finance, mid, external). Entities without an explicit
// value inherit the effective value of their parent, and the engine
// validates the resulting matrix against security, inheritance and
// business rules before changes are committed. Every committed change is
// recorded in an append-only audit log.
//
//	eng, err := tierguard.NewEngine(
//	    tierguard.WithStore(memory.New()),
//	)
//	_ = eng.Start(ctx)
//	res, err := eng.EffectivePermission(ctx, permission.SectionRef("sec-roi"), permission.TierMid)
package tierguard

import (
	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
)

// Resolution is the effective permission of one (entity, tier) pair.
type Resolution = inherit.Resolution

// Ref identifies an entity of the catalog.
type Ref = permission.Ref
