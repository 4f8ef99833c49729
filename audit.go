package tierguard

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/id"
	"github.com/xraph/tierguard/store"
)

// QueryAudit returns audit entries matching filter, newest first. A zero
// limit uses Config.AuditQueryLimit.
func (e *Engine) QueryAudit(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	f := audit.QueryFilter{}
	if filter != nil {
		f = *filter
	}
	if f.Limit <= 0 {
		f.Limit = e.config.AuditQueryLimit
	}
	entries, err := e.store.ListAuditEntries(ctx, &f)
	if err != nil {
		return nil, fmt.Errorf("tierguard: query audit: %w", err)
	}
	return entries, nil
}

// ViewAudit queries the store and then applies the view filters to the
// materialized result.
func (e *Engine) ViewAudit(ctx context.Context, filter *audit.QueryFilter, view audit.View) ([]*audit.Entry, error) {
	entries, err := e.QueryAudit(ctx, filter)
	if err != nil {
		return nil, err
	}
	return view.Apply(entries, e.now()), nil
}

// AuditEntry returns one audit entry.
func (e *Engine) AuditEntry(ctx context.Context, entryID id.AuditID) (*audit.Entry, error) {
	entry, err := e.store.GetAuditEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAuditEntryNotFound, entryID)
		}
		return nil, fmt.Errorf("tierguard: get audit entry: %w", err)
	}
	return entry, nil
}

// ExportAuditCSV writes the entries matching filter and view to w as CSV.
func (e *Engine) ExportAuditCSV(ctx context.Context, w io.Writer, filter *audit.QueryFilter, view audit.View) error {
	entries, err := e.ViewAudit(ctx, filter, view)
	if err != nil {
		return err
	}
	return audit.WriteCSV(w, entries)
}
