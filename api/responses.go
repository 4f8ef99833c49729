package api

import (
	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/transfer"
)

// CatalogResponse is the page hierarchy.
type CatalogResponse struct {
	Pages []PageNode `json:"pages" description:"Pages in display order"`
}

// PageNode is a page with its sections.
type PageNode struct {
	*catalog.Page
	Sections []SectionNode `json:"sections" description:"Sections in display order"`
}

// SectionNode is a section with its fields.
type SectionNode struct {
	*catalog.Section
	Fields []*catalog.Field `json:"fields" description:"Fields in display order"`
}

// SessionResponse describes a session and its pending changes.
type SessionResponse struct {
	SessionID string          `json:"session_id" description:"Session ID"`
	Changes   []change.Change `json:"changes" description:"Pending changes in queue order"`
}

// QueueChangeResponse reports the outcome of queueing a change.
type QueueChangeResponse struct {
	Queued  bool `json:"queued" description:"Whether a change remains queued for the slot"`
	Pending int  `json:"pending" description:"Number of pending changes"`
}

// DiscardResponse reports how many changes were dropped.
type DiscardResponse struct {
	Discarded int `json:"discarded" description:"Dropped changes"`
}

// ImportResponse reports a queued import.
type ImportResponse struct {
	Preview *transfer.Preview `json:"preview" description:"Import diff"`
	Queued  int               `json:"queued" description:"Changes queued on the session"`
}

// AccessResponse is the access of a tier on an entity. Allowed is set when
// a capability was asked for.
type AccessResponse struct {
	*tierguard.Access
	Allowed *bool `json:"allowed,omitempty" description:"Whether the tier holds the requested capability"`
}
