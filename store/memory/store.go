// Package memory provides an in-memory implementation of the tierguard
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/id"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/store"
)

// Compile-time interface checks.
var (
	_ store.Store      = (*Store)(nil)
	_ catalog.Store    = (*Store)(nil)
	_ permission.Store = (*Store)(nil)
	_ audit.Store      = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all tierguard entities.
type Store struct {
	mu sync.RWMutex

	pages       map[string]*catalog.Page
	sections    map[string]*catalog.Section
	fields      map[string]*catalog.Field
	permissions map[permission.Key]*permission.Record
	audit       []*audit.Entry

	// failUpsert makes UpsertPermission fail for the given keys. Tests use
	// it to simulate a rejecting backend.
	failUpsert map[permission.Key]error
	failAudit  error
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		pages:       make(map[string]*catalog.Page),
		sections:    make(map[string]*catalog.Section),
		fields:      make(map[string]*catalog.Field),
		permissions: make(map[permission.Key]*permission.Record),
		failUpsert:  make(map[permission.Key]error),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// FailUpsert makes subsequent upserts for (ref, tier) return err. A nil err
// clears the failure.
func (s *Store) FailUpsert(ref permission.Ref, tier permission.Tier, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := permission.Key{Ref: ref, Tier: tier}
	if err == nil {
		delete(s.failUpsert, k)
		return
	}
	s.failUpsert[k] = err
}

// ──────────────────────────────────────────────────
// Catalog Store
// ──────────────────────────────────────────────────

func (s *Store) CreatePage(_ context.Context, p *catalog.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[p.ID]; ok {
		return fmt.Errorf("page %s: %w", p.ID, errAlreadyExists)
	}
	s.pages[p.ID] = copyPage(p)
	return nil
}

func (s *Store) UpdatePage(_ context.Context, p *catalog.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[p.ID]; !ok {
		return fmt.Errorf("page %s: %w", p.ID, errNotFound)
	}
	s.pages[p.ID] = copyPage(p)
	return nil
}

func (s *Store) ListPages(_ context.Context) ([]*catalog.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*catalog.Page, 0, len(s.pages))
	for _, p := range s.pages {
		result = append(result, copyPage(p))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SortOrder != result[j].SortOrder {
			return result[i].SortOrder < result[j].SortOrder
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *Store) CreateSection(_ context.Context, sec *catalog.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sections[sec.ID]; ok {
		return fmt.Errorf("section %s: %w", sec.ID, errAlreadyExists)
	}
	c := *sec
	s.sections[sec.ID] = &c
	return nil
}

func (s *Store) ListSections(_ context.Context) ([]*catalog.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*catalog.Section, 0, len(s.sections))
	for _, sec := range s.sections {
		c := *sec
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SortOrder != result[j].SortOrder {
			return result[i].SortOrder < result[j].SortOrder
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *Store) CreateField(_ context.Context, f *catalog.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fields[f.ID]; ok {
		return fmt.Errorf("field %s: %w", f.ID, errAlreadyExists)
	}
	s.fields[f.ID] = copyField(f)
	return nil
}

func (s *Store) ListFields(_ context.Context) ([]*catalog.Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*catalog.Field, 0, len(s.fields))
	for _, f := range s.fields {
		result = append(result, copyField(f))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SortOrder != result[j].SortOrder {
			return result[i].SortOrder < result[j].SortOrder
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ──────────────────────────────────────────────────
// Permission Store
// ──────────────────────────────────────────────────

func (s *Store) UpsertPermission(_ context.Context, r *permission.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := r.Key()
	if err, ok := s.failUpsert[k]; ok {
		return err
	}
	c := *r
	if existing, ok := s.permissions[k]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		r.ID = existing.ID
		r.CreatedAt = existing.CreatedAt
	}
	s.permissions[k] = &c
	return nil
}

func (s *Store) GetPermission(_ context.Context, ref permission.Ref, tier permission.Tier) (*permission.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.permissions[permission.Key{Ref: ref, Tier: tier}]
	if !ok {
		return nil, fmt.Errorf("permission %s/%s: %w", ref, tier, errNotFound)
	}
	return copyRecord(r), nil
}

func (s *Store) ListPermissions(_ context.Context, filter *permission.ListFilter) ([]*permission.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids map[string]struct{}
	if filter != nil && len(filter.EntityIDs) > 0 {
		ids = make(map[string]struct{}, len(filter.EntityIDs))
		for _, v := range filter.EntityIDs {
			ids[v] = struct{}{}
		}
	}

	result := make([]*permission.Record, 0, len(s.permissions))
	for _, r := range s.permissions {
		if filter != nil {
			if filter.EntityType != "" && r.EntityType != filter.EntityType {
				continue
			}
			if ids != nil {
				if _, ok := ids[r.EntityID]; !ok {
					continue
				}
			}
			if filter.Tier != "" && r.Tier != filter.Tier {
				continue
			}
		}
		result = append(result, copyRecord(r))
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.EntityType != b.EntityType {
			return a.EntityType < b.EntityType
		}
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		return a.Tier.Level() > b.Tier.Level()
	})
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, pagOpts{limit: filter.Limit, offset: filter.Offset}), nil
}

func (s *Store) DeletePermission(_ context.Context, ref permission.Ref, tier permission.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := permission.Key{Ref: ref, Tier: tier}
	if _, ok := s.permissions[k]; !ok {
		return fmt.Errorf("permission %s/%s: %w", ref, tier, errNotFound)
	}
	delete(s.permissions, k)
	return nil
}

func (s *Store) DeleteExpiredPermissions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for k, r := range s.permissions {
		if r.Expired(now) {
			delete(s.permissions, k)
			count++
		}
	}
	return count, nil
}

// FailAudit makes subsequent audit appends return err. A nil err clears
// the failure.
func (s *Store) FailAudit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAudit = err
}

// ──────────────────────────────────────────────────
// Audit Store
// ──────────────────────────────────────────────────

func (s *Store) AppendAuditEntry(_ context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAudit != nil {
		return s.failAudit
	}
	s.audit = append(s.audit, copyEntry(e))
	return nil
}

func (s *Store) GetAuditEntry(_ context.Context, entryID id.AuditID) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.audit {
		if e.ID.String() == entryID.String() {
			return copyEntry(e), nil
		}
	}
	return nil, fmt.Errorf("audit entry %s: %w", entryID, errNotFound)
}

func (s *Store) ListAuditEntries(_ context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*audit.Entry, 0, len(s.audit))
	// Newest first: entries are appended in commit order.
	for i := len(s.audit) - 1; i >= 0; i-- {
		e := s.audit[i]
		if filter != nil {
			if filter.EntityType != "" && e.EntityType != filter.EntityType {
				continue
			}
			if filter.EntityID != "" && e.EntityID != filter.EntityID {
				continue
			}
			if filter.Tier != "" && e.Tier != filter.Tier {
				continue
			}
			if filter.Action != "" && e.Action != filter.Action {
				continue
			}
			if filter.After != nil && e.CreatedAt.Before(*filter.After) {
				continue
			}
			if filter.Before != nil && e.CreatedAt.After(*filter.Before) {
				continue
			}
		}
		result = append(result, copyEntry(e))
	}
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, pagOpts{limit: filter.Limit, offset: filter.Offset}), nil
}

func (s *Store) CountAuditEntries(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	var f audit.QueryFilter
	if filter != nil {
		f = *filter
	}
	f.Limit, f.Offset = 0, 0
	list, err := s.ListAuditEntries(ctx, &f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

var (
	errNotFound      = store.ErrNotFound
	errAlreadyExists = store.ErrAlreadyExists
)

func copyPage(p *catalog.Page) *catalog.Page {
	c := *p
	return &c
}

func copyField(f *catalog.Field) *catalog.Field {
	c := *f
	if f.ValidationRules != nil {
		c.ValidationRules = make(map[string]any, len(f.ValidationRules))
		for k, v := range f.ValidationRules {
			c.ValidationRules[k] = v
		}
	}
	return &c
}

func copyRecord(r *permission.Record) *permission.Record {
	c := *r
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func copyEntry(e *audit.Entry) *audit.Entry {
	c := *e
	if e.OldPermission != nil {
		v := *e.OldPermission
		c.OldPermission = &v
	}
	if e.NewPermission != nil {
		v := *e.NewPermission
		c.NewPermission = &v
	}
	return &c
}

type pagOpts struct{ limit, offset int }

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 && p.offset < len(items) {
		items = items[p.offset:]
	} else if p.offset >= len(items) && p.offset > 0 {
		return nil
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}
