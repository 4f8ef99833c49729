package audit

import (
	"context"

	"github.com/xraph/tierguard/id"
)

// Store defines persistence operations for audit entries. Entries are never
// updated or deleted.
type Store interface {
	// AppendAuditEntry persists a new entry.
	AppendAuditEntry(ctx context.Context, e *Entry) error

	// GetAuditEntry retrieves an entry by ID.
	GetAuditEntry(ctx context.Context, entryID id.AuditID) (*Entry, error)

	// ListAuditEntries returns entries matching the filter, newest first.
	ListAuditEntries(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// CountAuditEntries returns the number of entries matching the filter.
	CountAuditEntries(ctx context.Context, filter *QueryFilter) (int64, error)
}
