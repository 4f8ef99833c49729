// Package mongo implements the tierguard composite store on MongoDB via
// grove's mongo driver. Migrate only creates indexes.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/id"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/store"
)

// Collection name constants.
const (
	colPages       = "tierguard_pages"
	colSections    = "tierguard_sections"
	colFields      = "tierguard_fields"
	colPermissions = "tierguard_permissions"
	colAudit       = "tierguard_audit_log"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

var (
	errNotFound      = store.ErrNotFound
	errAlreadyExists = store.ErrAlreadyExists
)

// Store is a MongoDB implementation of the composite tierguard store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all tierguard collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("tierguard/mongo: migrate %s indexes: %w", col, err)
		}
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

func now() time.Time {
	return time.Now().UTC()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colPages: {
			{Keys: bson.D{{Key: "sort_order", Value: 1}}},
		},
		colSections: {
			{Keys: bson.D{{Key: "page_id", Value: 1}, {Key: "sort_order", Value: 1}}},
		},
		colFields: {
			{Keys: bson.D{{Key: "section_id", Value: 1}, {Key: "sort_order", Value: 1}}},
		},
		colPermissions: {
			{
				Keys: bson.D{
					{Key: "entity_type", Value: 1},
					{Key: "entity_id", Value: 1},
					{Key: "user_tier", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "user_tier", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		colAudit: {
			{Keys: bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "action_type", Value: 1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Catalog operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePage(ctx context.Context, p *catalog.Page) error {
	if err := s.ensureAbsent(ctx, (*pageModel)(nil), "page", p.ID); err != nil {
		return err
	}
	stamp(&p.CreatedAt, &p.UpdatedAt)
	if _, err := s.mdb.NewInsert(pageToModel(p)).Exec(ctx); err != nil {
		return fmt.Errorf("tierguard: create page: %w", err)
	}
	return nil
}

func (s *Store) UpdatePage(ctx context.Context, p *catalog.Page) error {
	p.UpdatedAt = now()
	m := pageToModel(p)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tierguard: update page: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("page %s: %w", p.ID, errNotFound)
	}
	return nil
}

func (s *Store) ListPages(ctx context.Context) ([]*catalog.Page, error) {
	var models []pageModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bySortOrder()).
		Scan(ctx); err != nil {
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
	if _, err := s.mdb.NewInsert(sectionToModel(sec)).Exec(ctx); err != nil {
		return fmt.Errorf("tierguard: create section: %w", err)
	}
	return nil
}

func (s *Store) ListSections(ctx context.Context) ([]*catalog.Section, error) {
	var models []sectionModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bySortOrder()).
		Scan(ctx); err != nil {
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
	if _, err := s.mdb.NewInsert(fieldToModel(f)).Exec(ctx); err != nil {
		return fmt.Errorf("tierguard: create field: %w", err)
	}
	return nil
}

func (s *Store) ListFields(ctx context.Context) ([]*catalog.Field, error) {
	var models []fieldModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bySortOrder()).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("tierguard: list fields: %w", err)
	}
	result := make([]*catalog.Field, len(models))
	for i := range models {
		result[i] = fieldFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) ensureAbsent(ctx context.Context, model any, kind, entityID string) error {
	n, err := s.mdb.NewFind(model).Filter(bson.M{"_id": entityID}).Count(ctx)
	if err != nil {
		return fmt.Errorf("tierguard: check %s: %w", kind, err)
	}
	if n > 0 {
		return fmt.Errorf("%s %s: %w", kind, entityID, errAlreadyExists)
	}
	return nil
}

func bySortOrder() bson.D {
	return bson.D{{Key: "sort_order", Value: 1}, {Key: "_id", Value: 1}}
}

// ──────────────────────────────────────────────────
// Permission operations
// ──────────────────────────────────────────────────

func keyFilter(ref permission.Ref, tier permission.Tier) bson.M {
	return bson.M{
		"entity_type": string(ref.Type),
		"entity_id":   ref.ID,
		"user_tier":   string(tier),
	}
}

// UpsertPermission writes the value fields of r in one atomic upsert keyed
// by (entity, tier). Identity fields are only written on insert. The stored
// ID and creation time are read back onto r.
func (s *Store) UpsertPermission(ctx context.Context, r *permission.Record) error {
	if r.ID.IsNil() {
		r.ID = id.NewPermissionID()
	}
	stamp(&r.CreatedAt, &r.UpdatedAt)
	m := permissionToModel(r)
	_, err := s.mdb.NewUpdate(m).
		Filter(keyFilter(r.Ref(), r.Tier)).
		SetUpdate(bson.M{
			"$set": bson.M{
				"permission_type": m.PermissionType,
				"granted_by":      m.GrantedBy,
				"granted_at":      m.GrantedAt,
				"expires_at":      m.ExpiresAt,
				"reason":          m.Reason,
				"updated_at":      m.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"_id":         m.ID,
				"entity_type": m.EntityType,
				"entity_id":   m.EntityID,
				"user_tier":   m.UserTier,
				"tier_level":  m.TierLevel,
				"created_at":  m.CreatedAt,
			},
		}).
		Upsert().
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
	var m permissionModel
	err := s.mdb.NewFind(&m).
		Filter(keyFilter(ref, tier)).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("permission %s/%s: %w", ref, tier, errNotFound)
		}
		return nil, fmt.Errorf("tierguard: get permission: %w", err)
	}
	return permissionFromModel(&m), nil
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Record, error) {
	var models []permissionModel
	f := bson.M{}
	if filter != nil {
		if filter.EntityType != "" {
			f["entity_type"] = string(filter.EntityType)
		}
		if len(filter.EntityIDs) > 0 {
			f["entity_id"] = bson.M{"$in": filter.EntityIDs}
		}
		if filter.Tier != "" {
			f["user_tier"] = string(filter.Tier)
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{
			{Key: "entity_type", Value: 1},
			{Key: "entity_id", Value: 1},
			{Key: "tier_level", Value: -1},
		})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	res, err := s.mdb.NewDelete((*permissionModel)(nil)).
		Filter(keyFilter(ref, tier)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tierguard: delete permission: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("permission %s/%s: %w", ref, tier, errNotFound)
	}
	return nil
}

func (s *Store) DeleteExpiredPermissions(ctx context.Context, at time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*permissionModel)(nil)).
		Many().
		Filter(bson.M{"expires_at": bson.M{"$ne": nil, "$lte": at.UTC()}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("tierguard: delete expired permissions: %w", err)
	}
	return res.DeletedCount(), nil
}

// ──────────────────────────────────────────────────
// Audit operations
// ──────────────────────────────────────────────────

func (s *Store) AppendAuditEntry(ctx context.Context, e *audit.Entry) error {
	if e.ID.IsNil() {
		e.ID = id.NewAuditID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	if _, err := s.mdb.NewInsert(auditToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("tierguard: append audit entry: %w", err)
	}
	return nil
}

func (s *Store) GetAuditEntry(ctx context.Context, entryID id.AuditID) (*audit.Entry, error) {
	var m auditModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": entryID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("audit entry %s: %w", entryID, errNotFound)
		}
		return nil, fmt.Errorf("tierguard: get audit entry: %w", err)
	}
	return auditFromModel(&m), nil
}

func (s *Store) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	var models []auditModel
	q := s.mdb.NewFind(&models).
		Filter(auditFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*auditModel)(nil)).
		Filter(auditFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tierguard: count audit entries: %w", err)
	}
	return count, nil
}

func auditFilter(filter *audit.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.EntityType != "" {
		f["entity_type"] = string(filter.EntityType)
	}
	if filter.EntityID != "" {
		f["entity_id"] = filter.EntityID
	}
	if filter.Tier != "" {
		f["user_tier"] = string(filter.Tier)
	}
	if filter.Action != "" {
		f["action_type"] = string(filter.Action)
	}
	if filter.After != nil || filter.Before != nil {
		window := bson.M{}
		if filter.After != nil {
			window["$gte"] = filter.After.UTC()
		}
		if filter.Before != nil {
			window["$lte"] = filter.Before.UTC()
		}
		f["created_at"] = window
	}
	return f
}

func stamp(created, updated *time.Time) {
	t := now()
	if created.IsZero() {
		*created = t
	}
	if updated.IsZero() {
		*updated = t
	}
}
