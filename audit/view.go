package audit

import (
	"strings"
	"time"
)

// Window is a relative time range used by View.
type Window string

const (
	Window7Days  Window = "7days"
	Window30Days Window = "30days"
	Window90Days Window = "90days"
	WindowAll    Window = "all"
)

// Days returns the length of the window in days, or 0 for all.
func (w Window) Days() int {
	switch w {
	case Window7Days:
		return 7
	case Window30Days:
		return 30
	case Window90Days:
		return 90
	default:
		return 0
	}
}

// View filters an already materialized list of entries.
type View struct {
	// Search matches entity name, changer name and reason, case-insensitively.
	Search string `json:"search,omitempty" query:"search"`

	// Action keeps entries of one action kind. Empty or "all" keeps every kind.
	Action Action `json:"action,omitempty" query:"action"`

	// Window keeps entries no older than the window. Empty means all.
	Window Window `json:"window,omitempty" query:"window"`

	// ShowSystem keeps system changes.
	ShowSystem bool `json:"show_system" query:"show_system"`
}

// Apply returns the entries that pass every filter, preserving order.
func (v View) Apply(entries []*Entry, now time.Time) []*Entry {
	term := strings.ToLower(strings.TrimSpace(v.Search))
	days := v.Window.Days()

	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if term != "" &&
			!strings.Contains(strings.ToLower(e.EntityName), term) &&
			!strings.Contains(strings.ToLower(e.ChangedByName), term) &&
			!strings.Contains(strings.ToLower(e.Reason), term) {
			continue
		}
		if v.Action != "" && v.Action != "all" && e.Action != v.Action {
			continue
		}
		if !v.ShowSystem && e.IsSystemChange {
			continue
		}
		if days > 0 && now.Sub(e.CreatedAt) > time.Duration(days)*24*time.Hour {
			continue
		}
		out = append(out, e)
	}
	return out
}
