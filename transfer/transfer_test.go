package transfer

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/catalog/catalogtest"
	"github.com/xraph/tierguard/inherit"
	"github.com/xraph/tierguard/permission"
)

func sampleMatrix() *inherit.Matrix {
	m := inherit.NewMatrix(catalogtest.Catalog(), nil, time.Now())
	m.Set(permission.PageRef(catalogtest.PageROI), permission.TierMaster, permission.Full)
	m.Set(permission.PageRef(catalogtest.PageROI), permission.TierMid, permission.None)
	m.Set(permission.SectionRef(catalogtest.SectionROIAnalysis), permission.TierHRFinance, permission.ReadOnly)
	m.Set(permission.FieldRef(catalogtest.FieldHourlyRate), permission.TierSenior, permission.OwnOnly)
	return m
}

func TestExport(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := Export(sampleMatrix(), Meta{ExportedBy: "alice", ExportedAt: at})

	assert.Equal(t, DefaultVersion, doc.Version)
	assert.Equal(t, "alice", doc.ExportedBy)
	require.Len(t, doc.Pages, 3)

	roi := doc.Pages[0]
	assert.Equal(t, catalogtest.PageROI, roi.ID)
	assert.Equal(t, Permissions{permission.TierMaster: permission.Full, permission.TierMid: permission.None}, roi.Permissions)
	assert.Equal(t, permission.ReadOnly, roi.Sections[0].Permissions[permission.TierHRFinance])
	assert.Nil(t, roi.Sections[1].Permissions)

	sales := doc.Pages[1]
	assert.NotNil(t, sales.Permissions)
	assert.Empty(t, sales.Permissions)
}

func TestRoundTripHasNoChanges(t *testing.T) {
	m := sampleMatrix()
	data, err := json.Marshal(Export(m, Meta{ExportedBy: "system"}))
	require.NoError(t, err)

	doc, err := Decode(data)
	require.NoError(t, err)

	preview := BuildPreview(doc, m)
	assert.Equal(t, 0, preview.Changes)
	assert.Equal(t, 0, preview.Unknown)
	assert.Empty(t, preview.PendingChanges("import"))

	var entries int
	for _, p := range preview.Pages {
		entries += len(p.Changes)
		for _, s := range p.Sections {
			entries += len(s.Changes)
			for _, f := range s.Fields {
				entries += len(f.Changes)
				for _, c := range f.Changes {
					assert.False(t, c.IsChange)
				}
			}
		}
	}
	assert.Equal(t, 4, entries)
}

func TestDecodeJSONCAndPreview(t *testing.T) {
	data, err := os.ReadFile("testdata/import.jsonc")
	require.NoError(t, err)

	doc, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)

	m := sampleMatrix()
	preview := BuildPreview(doc, m)
	assert.Equal(t, 1, preview.Unknown)
	assert.Equal(t, 4, preview.Changes)
	assert.False(t, preview.Pages[1].Known)

	changes := preview.PendingChanges("bulk import")
	require.Len(t, changes, 4)
	assert.Equal(t, catalogtest.PageSales, changes[0].EntityID)
	assert.Equal(t, permission.TierMaster, changes[0].Tier)
	assert.Equal(t, permission.Type(""), changes[0].OldPermission)
	assert.Equal(t, catalogtest.FieldClientContact, changes[3].EntityID)
	assert.Equal(t, "bulk import", changes[3].Reason)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"not json", `{"version": `, "Invalid permission export format"},
		{"missing version", `{"pages": []}`, "Invalid permission export format"},
		{"missing pages", `{"version": "1.0"}`, "Invalid permission export format"},
		{"pages not array", `{"version": "1.0", "pages": {}}`, "Invalid permission export format"},
		{
			"missing page name stops at first page",
			`{"version": "1.0", "pages": [
				{"id": "a", "page_name": "a", "display_name": "A", "permissions": {}},
				{"id": "b", "display_name": "B", "permissions": {}},
				{"page_name": "c"}
			]}`,
			"Missing page_name in page 1",
		},
		{"missing permissions", `{"version": "1.0", "pages": [{"id": "a", "page_name": "a", "display_name": "A"}]}`, "Missing permissions in page 0"},
		{"missing id first", `{"version": "1.0", "pages": [{"display_name": "A"}]}`, "Missing id in page 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat))
			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Contains(t, fe.Message, tc.want)
		})
	}
}

func TestDecodeRejectsUnknownValues(t *testing.T) {
	_, err := Decode([]byte(`{"version": "1.0", "pages": [{"id": "a", "page_name": "a", "display_name": "A", "permissions": {"admin": "full"}}]}`))
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Message, "Invalid")
	assert.Contains(t, fe.Path, "pages[0]")

	_, err = Decode([]byte(`{"version": "1.0", "pages": [{"id": "a", "page_name": "a", "display_name": "A", "permissions": {},
		"sections": [{"id": "s", "display_name": "S", "permissions": {"mid": "write"}}]}]}`))
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Path, "sections[0]")
}
