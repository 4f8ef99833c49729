package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the tierguard store (SQLite).
var Migrations = migrate.NewGroup("tierguard")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_pages",
			Version: "20250301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tierguard_pages (
    id              TEXT PRIMARY KEY,
    page_name       TEXT NOT NULL,
    display_name    TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    section         TEXT NOT NULL DEFAULT '',
    is_critical     INTEGER NOT NULL DEFAULT 0,
    route_path      TEXT NOT NULL DEFAULT '',
    icon_name       TEXT NOT NULL DEFAULT '',
    sort_order      INTEGER NOT NULL DEFAULT 0,
    is_active       INTEGER NOT NULL DEFAULT 1,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_tierguard_pages_sort ON tierguard_pages (sort_order);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tierguard_pages`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sections",
			Version: "20250301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tierguard_sections (
    id                  TEXT PRIMARY KEY,
    page_id             TEXT NOT NULL REFERENCES tierguard_pages(id) ON DELETE CASCADE,
    section_name        TEXT NOT NULL,
    display_name        TEXT NOT NULL,
    description         TEXT NOT NULL DEFAULT '',
    is_financial        INTEGER NOT NULL DEFAULT 0,
    requires_approval   INTEGER NOT NULL DEFAULT 0,
    component_name      TEXT NOT NULL DEFAULT '',
    sort_order          INTEGER NOT NULL DEFAULT 0,
    is_active           INTEGER NOT NULL DEFAULT 1,
    created_at          TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at          TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_tierguard_sections_page ON tierguard_sections (page_id, sort_order);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tierguard_sections`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_fields",
			Version: "20250301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tierguard_fields (
    id                  TEXT PRIMARY KEY,
    section_id          TEXT NOT NULL REFERENCES tierguard_sections(id) ON DELETE CASCADE,
    field_name          TEXT NOT NULL,
    display_name        TEXT NOT NULL,
    field_type          TEXT NOT NULL DEFAULT 'text',
    is_sensitive        INTEGER NOT NULL DEFAULT 0,
    is_required         INTEGER NOT NULL DEFAULT 0,
    validation_rules    TEXT NOT NULL DEFAULT '{}',
    default_value       TEXT NOT NULL DEFAULT '',
    sort_order          INTEGER NOT NULL DEFAULT 0,
    created_at          TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at          TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_tierguard_fields_section ON tierguard_fields (section_id, sort_order);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tierguard_fields`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_permissions",
			Version: "20250301000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tierguard_permissions (
    id                  TEXT PRIMARY KEY,
    entity_type         TEXT NOT NULL CHECK (entity_type IN ('page', 'section', 'field')),
    entity_id           TEXT NOT NULL,
    user_tier           TEXT NOT NULL CHECK (user_tier IN ('master', 'senior', 'hr_finance', 'mid', 'external')),
    permission_type     TEXT NOT NULL CHECK (permission_type IN ('full', 'read_only', 'assigned_only', 'own_only', 'none')),
    granted_by          TEXT NOT NULL DEFAULT '',
    granted_at          TEXT NOT NULL DEFAULT (datetime('now')),
    expires_at          TEXT,
    reason              TEXT NOT NULL DEFAULT '',
    created_at          TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at          TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(entity_type, entity_id, user_tier)
);

CREATE INDEX IF NOT EXISTS idx_tierguard_permissions_entity ON tierguard_permissions (entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_tierguard_permissions_tier ON tierguard_permissions (user_tier);
CREATE INDEX IF NOT EXISTS idx_tierguard_permissions_expires ON tierguard_permissions (expires_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tierguard_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_audit_log",
			Version: "20250301000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tierguard_audit_log (
    id                  TEXT PRIMARY KEY,
    entity_type         TEXT NOT NULL,
    entity_id           TEXT NOT NULL,
    entity_name         TEXT NOT NULL DEFAULT '',
    user_tier           TEXT NOT NULL,
    action_type         TEXT NOT NULL,
    old_permission      TEXT,
    new_permission      TEXT,
    changed_by          TEXT NOT NULL DEFAULT '',
    changed_by_name     TEXT NOT NULL DEFAULT '',
    change_reason       TEXT NOT NULL DEFAULT '',
    is_system_change    INTEGER NOT NULL DEFAULT 0,
    ip_address          TEXT NOT NULL DEFAULT '',
    user_agent          TEXT NOT NULL DEFAULT '',
    created_at          TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_tierguard_audit_entity ON tierguard_audit_log (entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_tierguard_audit_created ON tierguard_audit_log (created_at);
CREATE INDEX IF NOT EXISTS idx_tierguard_audit_action ON tierguard_audit_log (action_type);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tierguard_audit_log`)
				return err
			},
		},
	)
}
