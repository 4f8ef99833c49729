// Package change holds uncommitted permission changes.
package change

import (
	"time"

	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
)

// Change is a pending permission change for one (entity, tier) pair.
// OldPermission is empty when the slot had no explicit record, so an
// explicit none over an inherited value is still a change.
type Change struct {
	EntityType    permission.EntityType `json:"entity_type"`
	EntityID      string                `json:"entity_id"`
	Tier          permission.Tier       `json:"user_tier"`
	OldPermission permission.Type       `json:"old_permission,omitempty"`
	NewPermission permission.Type       `json:"new_permission"`
	Reason        string                `json:"reason,omitempty"`
	QueuedAt      time.Time             `json:"queued_at"`
}

// Ref returns the entity the change targets.
func (c Change) Ref() permission.Ref { return permission.Ref{Type: c.EntityType, ID: c.EntityID} }

// Key returns the (entity, tier) slot the change targets.
func (c Change) Key() permission.Key { return permission.Key{Ref: c.Ref(), Tier: c.Tier} }

// IsNoop reports whether the change leaves the value unchanged.
func (c Change) IsNoop() bool { return c.OldPermission == c.NewPermission }

// Queue is an ordered set of pending changes keyed by (entity, tier).
// Queueing a second change for the same key replaces its new value and
// keeps its original old value and position. It is not safe for concurrent
// use.
type Queue struct {
	order []permission.Key
	byKey map[permission.Key]Change
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{byKey: make(map[permission.Key]Change)}
}

// Put queues c, collapsing with any pending change for the same key. When
// the collapsed change returns the slot to its old value the pending change
// is dropped. Put reports whether a change remains queued for the key.
func (q *Queue) Put(c Change) bool {
	k := c.Key()
	if prev, ok := q.byKey[k]; ok {
		c.OldPermission = prev.OldPermission
		if c.IsNoop() {
			q.Remove(k)
			return false
		}
		q.byKey[k] = c
		return true
	}
	if c.IsNoop() {
		return false
	}
	q.order = append(q.order, k)
	q.byKey[k] = c
	return true
}

// Get returns the pending change for k.
func (q *Queue) Get(k permission.Key) (Change, bool) {
	c, ok := q.byKey[k]
	return c, ok
}

// Remove drops the pending change for k.
func (q *Queue) Remove(k permission.Key) {
	if _, ok := q.byKey[k]; !ok {
		return
	}
	delete(q.byKey, k)
	for i, o := range q.order {
		if o == k {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Changes returns the pending changes in queue order.
func (q *Queue) Changes() []Change {
	out := make([]Change, 0, len(q.order))
	for _, k := range q.order {
		out = append(out, q.byKey[k])
	}
	return out
}

// Len returns the number of pending changes.
func (q *Queue) Len() int { return len(q.order) }

// Clear drops every pending change.
func (q *Queue) Clear() {
	q.order = nil
	q.byKey = make(map[permission.Key]Change)
}

// Overlay returns a copy of m with every pending change applied.
func Overlay(m *inherit.Matrix, changes []Change) *inherit.Matrix {
	out := m.Clone()
	for _, c := range changes {
		out.Set(c.Ref(), c.Tier, c.NewPermission)
	}
	return out
}
