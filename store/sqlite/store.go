// Package sqlite implements the tierguard composite store on SQLite via grove.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/id"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

var (
	errNotFound      = store.ErrNotFound
	errAlreadyExists = store.ErrAlreadyExists
)

// tierOrder sorts records from master down to external.
const tierOrder = `CASE user_tier
    WHEN 'master' THEN 0 WHEN 'senior' THEN 1 WHEN 'hr_finance' THEN 2
    WHEN 'mid' THEN 3 ELSE 4 END`

// Store is a SQLite implementation of the composite tierguard store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Open opens the SQLite database file at path and returns a store on it.
// Writers wait up to five seconds for the file lock.
func Open(ctx context.Context, path string) (*Store, error) {
	drv := sqlitedriver.New()
	if err := drv.Open(ctx, "file:"+path+"?_pragma=busy_timeout(5000)"); err != nil {
		return nil, fmt.Errorf("tierguard/sqlite: open %s: %w", path, err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("tierguard/sqlite: open grove: %w", err)
	}
	return New(db), nil
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("tierguard/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("tierguard/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// Catalog operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePage(ctx context.Context, p *catalog.Page) error {
	if err := s.ensureAbsent(ctx, (*pageModel)(nil), "page", p.ID); err != nil {
		return err
	}
	stamp(&p.CreatedAt, &p.UpdatedAt)
	if _, err := s.sdb.NewInsert(pageToModel(p)).Exec(ctx); err != nil {
		return fmt.Errorf("tierguard: create page: %w", err)
	}
	return nil
}

func (s *Store) UpdatePage(ctx context.Context, p *catalog.Page) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.sdb.NewUpdate(pageToModel(p)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("tierguard: update page: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("page %s: %w", p.ID, errNotFound)
	}
	return nil
}

func (s *Store) ListPages(ctx context.Context) ([]*catalog.Page, error) {
	var models []pageModel
	if err := s.sdb.NewSelect(&models).OrderExpr("sort_order ASC, id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("tierguard: list pages: %w", err)
	}
	result := make([]*catalog.Page, len(models))
	for i := range models {
		result[i] = pageFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CreateSection(ctx context.Context, sec *catalog.Section) error {
	if err := s.ensureAbsent(ctx, (*sectionModel)(nil), "section", sec.ID); err != nil {
		return err
	}
	stamp(&sec.CreatedAt, &sec.UpdatedAt)
	if _, err := s.sdb.NewInsert(sectionToModel(sec)).Exec(ctx); err != nil {
		return fmt.Errorf("tierguard: create section: %w", err)
	}
	return nil
}

func (s *Store) ListSections(ctx context.Context) ([]*catalog.Section, error) {
	var models []sectionModel
	if err := s.sdb.NewSelect(&models).OrderExpr("sort_order ASC, id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("tierguard: list sections: %w", err)
	}
	result := make([]*catalog.Section, len(models))
	for i := range models {
		result[i] = sectionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CreateField(ctx context.Context, f *catalog.Field) error {
	if err := s.ensureAbsent(ctx, (*fieldModel)(nil), "field", f.ID); err != nil {
		return err
	}
	stamp(&f.CreatedAt, &f.UpdatedAt)
	m, err := fieldToModel(f)
	if err != nil {
		return fmt.Errorf("tierguard: create field: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("tierguard: create field: %w", err)
	}
	return nil
}

func (s *Store) ListFields(ctx context.Context) ([]*catalog.Field, error) {
	var models []fieldModel
	if err := s.sdb.NewSelect(&models).OrderExpr("sort_order ASC, id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("tierguard: list fields: %w", err)
	}
	result := make([]*catalog.Field, len(models))
	for i := range models {
		f, err := fieldFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("tierguard: list fields: %w", err)
		}
		result[i] = f
	}
	return result, nil
}

func (s *Store) ensureAbsent(ctx context.Context, model any, kind, entityID string) error {
	n, err := s.sdb.NewSelect(model).Where("id = ?", entityID).Count(ctx)
	if err != nil {
		return fmt.Errorf("tierguard: check %s: %w", kind, err)
	}
	if n > 0 {
		return fmt.Errorf("%s %s: %w", kind, entityID, errAlreadyExists)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permission operations
// ──────────────────────────────────────────────────

// UpsertPermission inserts the record or, when (entity, tier) already has
// one, overwrites its value in place. The stored ID and creation time are
// read back onto r.
func (s *Store) UpsertPermission(ctx context.Context, r *permission.Record) error {
	if r.ID.IsNil() {
		r.ID = id.NewPermissionID()
	}
	stamp(&r.CreatedAt, &r.UpdatedAt)
	if r.ExpiresAt != nil {
		utc := r.ExpiresAt.UTC()
		r.ExpiresAt = &utc
	}
	_, err := s.sdb.NewInsert(permissionToModel(r)).
		OnConflict(`(entity_type, entity_id, user_tier) DO UPDATE SET
    permission_type = excluded.permission_type,
    granted_by = excluded.granted_by,
    granted_at = excluded.granted_at,
    expires_at = excluded.expires_at,
    reason = excluded.reason,
    updated_at = excluded.updated_at`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tierguard: upsert permission: %w", err)
	}
	stored, err := s.GetPermission(ctx, r.Ref(), r.Tier)
	if err != nil {
		return fmt.Errorf("tierguard: upsert permission: %w", err)
	}
	r.ID = stored.ID
	r.CreatedAt = stored.CreatedAt
	return nil
}

func (s *Store) GetPermission(ctx context.Context, ref permission.Ref, tier permission.Tier) (*permission.Record, error) {
	m := new(permissionModel)
	err := s.sdb.NewSelect(m).
		Where("entity_type = ?", string(ref.Type)).
		Where("entity_id = ?", ref.ID).
		Where("user_tier = ?", string(tier)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("permission %s/%s: %w", ref, tier, errNotFound)
		}
		return nil, fmt.Errorf("tierguard: get permission: %w", err)
	}
	return permissionFromModel(m), nil
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Record, error) {
	var models []permissionModel
	q := s.sdb.NewSelect(&models).OrderExpr("entity_type ASC, entity_id ASC, " + tierOrder)
	if filter != nil {
		if filter.EntityType != "" {
			q = q.Where("entity_type = ?", string(filter.EntityType))
		}
		if len(filter.EntityIDs) > 0 {
			expr, args := inList("entity_id", filter.EntityIDs)
			q = q.Where(expr, args...)
		}
		if filter.Tier != "" {
			q = q.Where("user_tier = ?", string(filter.Tier))
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tierguard: list permissions: %w", err)
	}
	result := make([]*permission.Record, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeletePermission(ctx context.Context, ref permission.Ref, tier permission.Tier) error {
	res, err := s.sdb.NewDelete((*permissionModel)(nil)).
		Where("entity_type = ?", string(ref.Type)).
		Where("entity_id = ?", ref.ID).
		Where("user_tier = ?", string(tier)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tierguard: delete permission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tierguard: delete permission rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("permission %s/%s: %w", ref, tier, errNotFound)
	}
	return nil
}

func (s *Store) DeleteExpiredPermissions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*permissionModel)(nil)).
		Where("expires_at IS NOT NULL").
		Where("expires_at <= ?", now.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("tierguard: delete expired permissions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("tierguard: delete expired permissions rows: %w", err)
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Audit operations
// ──────────────────────────────────────────────────

func (s *Store) AppendAuditEntry(ctx context.Context, e *audit.Entry) error {
	if e.ID.IsNil() {
		e.ID = id.NewAuditID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.sdb.NewInsert(auditToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("tierguard: append audit entry: %w", err)
	}
	return nil
}

func (s *Store) GetAuditEntry(ctx context.Context, entryID id.AuditID) (*audit.Entry, error) {
	m := new(auditModel)
	err := s.sdb.NewSelect(m).Where("id = ?", entryID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("audit entry %s: %w", entryID, errNotFound)
		}
		return nil, fmt.Errorf("tierguard: get audit entry: %w", err)
	}
	return auditFromModel(m), nil
}

func (s *Store) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	var models []auditModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at DESC, id DESC")
	if filter != nil {
		for _, c := range auditConditions(filter) {
			q = q.Where(c.expr, c.arg)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tierguard: list audit entries: %w", err)
	}
	result := make([]*audit.Entry, len(models))
	for i := range models {
		result[i] = auditFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAuditEntries(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	q := s.sdb.NewSelect((*auditModel)(nil))
	if filter != nil {
		for _, c := range auditConditions(filter) {
			q = q.Where(c.expr, c.arg)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tierguard: count audit entries: %w", err)
	}
	return count, nil
}

type condition struct {
	expr string
	arg  any
}

func auditConditions(filter *audit.QueryFilter) []condition {
	var conds []condition
	if filter.EntityType != "" {
		conds = append(conds, condition{"entity_type = ?", string(filter.EntityType)})
	}
	if filter.EntityID != "" {
		conds = append(conds, condition{"entity_id = ?", filter.EntityID})
	}
	if filter.Tier != "" {
		conds = append(conds, condition{"user_tier = ?", string(filter.Tier)})
	}
	if filter.Action != "" {
		conds = append(conds, condition{"action_type = ?", string(filter.Action)})
	}
	if filter.After != nil {
		conds = append(conds, condition{"created_at >= ?", filter.After.UTC()})
	}
	if filter.Before != nil {
		conds = append(conds, condition{"created_at <= ?", filter.Before.UTC()})
	}
	return conds
}

// inList builds "column IN (?, ...)" with one placeholder per value. The
// driver binds each argument to a single placeholder.
func inList(column string, values []string) (string, []any) {
	marks := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = v
	}
	return column + " IN (" + strings.Join(marks, ", ") + ")", args
}

// stamp fills zero timestamps with the current time.
func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
}
