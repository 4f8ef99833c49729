// Package id defines TypeID-based identifiers for tierguard records.
//
// Permission records and audit entries carry an ID whose prefix names the
// record kind. Catalog entities store plain strings; when the caller
// leaves them empty they are generated here with their own prefix. IDs
// are K-sortable (UUIDv7-based) and render as "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix names the record kind encoded in an ID.
type Prefix string

const (
	PrefixPermission Prefix = "perm"
	PrefixAudit      Prefix = "paudit"
	PrefixPage       Prefix = "page"
	PrefixSection    Prefix = "sect"
	PrefixField      Prefix = "fld"
)

// ID is a prefix-qualified identifier. The zero value is Nil and stores as
// NULL.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	tid typeid.TypeID
	ok  bool
}

// PermissionID identifies an explicit permission record.
type PermissionID = ID

// AuditID identifies an audit log entry.
type AuditID = ID

// Nil is the zero ID.
var Nil ID

// New generates an ID with prefix. An invalid prefix is a programming
// error and panics.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{tid: tid, ok: true}
}

func NewPermissionID() ID { return New(PrefixPermission) }
func NewAuditID() ID      { return New(PrefixAudit) }
func NewPageID() ID       { return New(PrefixPage) }
func NewSectionID() ID    { return New(PrefixSection) }
func NewFieldID() ID      { return New(PrefixField) }

// Parse parses any "prefix_suffix" string.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse: empty string")
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{tid: tid, ok: true}, nil
}

// ParseWithPrefix parses s and requires its prefix to be want.
func ParseWithPrefix(s string, want Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if got := parsed.Prefix(); got != want {
		return Nil, fmt.Errorf("id: %q has prefix %q, want %q", s, got, want)
	}
	return parsed, nil
}

func ParsePermissionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPermission) }
func ParseAuditID(s string) (ID, error)      { return ParseWithPrefix(s, PrefixAudit) }

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.ok {
		return ""
	}
	return i.tid.String()
}

// Prefix returns the record kind, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.ok {
		return ""
	}
	return Prefix(i.tid.Prefix())
}

// IsNil reports whether i is the zero ID.
func (i ID) IsNil() bool { return !i.ok }

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer. Nil stores as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.ok {
		return nil, nil //nolint:nilnil // NULL
	}
	return i.tid.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
