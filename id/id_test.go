package id_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/id"
)

func TestConstructorsCarryPrefix(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"PermissionID", id.NewPermissionID, "perm_"},
		{"AuditID", id.NewAuditID, "paudit_"},
		{"PageID", id.NewPageID, "page_"},
		{"SectionID", id.NewSectionID, "sect_"},
		{"FieldID", id.NewFieldID, "fld_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			require.True(t, strings.HasPrefix(got, tt.prefix), "got %q", got)
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	perm := id.NewPermissionID()
	parsed, err := id.ParsePermissionID(perm.String())
	require.NoError(t, err)
	require.Equal(t, perm.String(), parsed.String())

	entry := id.NewAuditID()
	parsed, err = id.ParseAuditID(entry.String())
	require.NoError(t, err)
	require.Equal(t, entry, parsed)
}

func TestParseRejectsWrongPrefix(t *testing.T) {
	_, err := id.ParsePermissionID(id.NewAuditID().String())
	require.Error(t, err)

	_, err = id.ParseAuditID(id.NewPermissionID().String())
	require.Error(t, err)

	_, err = id.Parse(id.NewPageID().String())
	require.NoError(t, err)
}

func TestParseEmpty(t *testing.T) {
	_, err := id.Parse("")
	require.Error(t, err)
}

func TestNilID(t *testing.T) {
	var i id.ID
	require.True(t, i.IsNil())
	require.Empty(t, i.String())
	require.Empty(t, i.Prefix())

	v, err := i.Value()
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestTextAndSQLRoundTrip(t *testing.T) {
	original := id.NewAuditID()

	data, err := original.MarshalText()
	require.NoError(t, err)

	var restored id.ID
	require.NoError(t, restored.UnmarshalText(data))
	require.Equal(t, original.String(), restored.String())

	val, err := original.Value()
	require.NoError(t, err)

	var scanned id.ID
	require.NoError(t, scanned.Scan(val))
	require.Equal(t, original.String(), scanned.String())

	var fromBytes id.ID
	require.NoError(t, fromBytes.Scan([]byte(original.String())))
	require.Equal(t, original.String(), fromBytes.String())

	var empty id.ID
	require.NoError(t, empty.Scan(nil))
	require.True(t, empty.IsNil())

	require.Error(t, empty.Scan(42))
}
