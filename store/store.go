// Package store defines the aggregate persistence interface. Each subsystem
// (catalog, permission, audit) defines its own store interface and the
// composite Store composes them. Backends: Memory, SQLite, Postgres, Mongo.
package store

import (
	"context"
	"errors"

	"github.com/xraph/tierguard/audit"
	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/permission"
)

// ErrNotFound is wrapped by every backend when a lookup matches nothing.
var ErrNotFound = errors.New("store: not found")

// ErrAlreadyExists is wrapped by every backend when a create collides with
// an existing id.
var ErrAlreadyExists = errors.New("store: already exists")

// Store is the aggregate persistence interface.
// A single backend implements all of the subsystem stores.
type Store interface {
	catalog.Store
	permission.Store
	audit.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
