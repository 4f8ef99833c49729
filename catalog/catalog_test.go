package catalog_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard/catalog"
	"github.com/xraph/tierguard/catalog/catalogtest"
	"github.com/xraph/tierguard/permission"
)

func TestNew_RejectsDanglingParents(t *testing.T) {
	_, err := catalog.New(nil, []*catalog.Section{{ID: "s1", PageID: "missing"}}, nil)
	require.True(t, errors.Is(err, catalog.ErrDanglingParent))

	pages := []*catalog.Page{{ID: "p1"}}
	sections := []*catalog.Section{{ID: "s1", PageID: "p1"}}
	_, err = catalog.New(pages, sections, []*catalog.Field{{ID: "f1", SectionID: "nope"}})
	require.True(t, errors.Is(err, catalog.ErrDanglingParent))
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	pages := []*catalog.Page{{ID: "x"}}
	_, err := catalog.New(pages, []*catalog.Section{{ID: "x", PageID: "x"}}, nil)
	require.True(t, errors.Is(err, catalog.ErrDuplicateID))
}

func TestLookups(t *testing.T) {
	c := catalogtest.Catalog()

	kind, ok := c.Kind(catalogtest.SectionROIAnalysis)
	require.True(t, ok)
	assert.Equal(t, permission.EntitySection, kind)

	_, ok = c.Kind("ghost")
	assert.False(t, ok)

	parent, ok := c.Parent(permission.FieldRef(catalogtest.FieldTotalRevenue))
	require.True(t, ok)
	assert.Equal(t, permission.SectionRef(catalogtest.SectionROIAnalysis), parent)

	parent, ok = c.Parent(permission.SectionRef(catalogtest.SectionROIAnalysis))
	require.True(t, ok)
	assert.Equal(t, permission.PageRef(catalogtest.PageROI), parent)

	_, ok = c.Parent(permission.PageRef(catalogtest.PageROI))
	assert.False(t, ok)

	children := c.Children(permission.PageRef(catalogtest.PageROI))
	assert.Equal(t, []permission.Ref{
		permission.SectionRef(catalogtest.SectionROIAnalysis),
		permission.SectionRef(catalogtest.SectionROIEstimates),
	}, children)

	assert.True(t, c.IsFinancial(permission.FieldRef(catalogtest.FieldEquipmentCost)))
	assert.False(t, c.IsFinancial(permission.FieldRef(catalogtest.FieldDealValue)))
	assert.Equal(t, "ROI Management", c.Name(permission.PageRef(catalogtest.PageROI)))
	assert.Equal(t, 14, c.Len())
}

func TestSearch(t *testing.T) {
	c := catalogtest.Catalog()

	assert.Len(t, c.Search(catalog.PageFilter{}), 3)
	assert.Len(t, c.Search(catalog.PageFilter{Kind: catalog.KindCritical}), 1)

	fin := c.Search(catalog.PageFilter{Kind: catalog.KindFinancial})
	require.Len(t, fin, 1)
	assert.Equal(t, catalogtest.PageROI, fin[0].ID)

	ops := c.Search(catalog.PageFilter{Search: "operations"})
	require.Len(t, ops, 1)
	assert.Equal(t, catalogtest.PageCrew, ops[0].ID)
}

func TestWalkOrder(t *testing.T) {
	c := catalogtest.Catalog()
	var refs []string
	c.Walk(func(ref permission.Ref) { refs = append(refs, ref.ID) })
	require.Len(t, refs, c.Len())
	assert.Equal(t, catalogtest.PageROI, refs[0])
	assert.Equal(t, catalogtest.SectionROIAnalysis, refs[1])
	assert.Equal(t, catalogtest.FieldTotalRevenue, refs[2])
}

func TestLoadSeedFile(t *testing.T) {
	seed, err := catalog.LoadSeedFile("testdata/seed.yaml")
	require.NoError(t, err)
	require.Len(t, seed.Pages, 2)
	assert.True(t, seed.Pages[0].IsActive)
	assert.False(t, seed.Pages[1].IsActive)
	assert.True(t, seed.Sections[0].IsActive)
	assert.Equal(t, catalog.FieldText, seed.Fields[1].FieldType)

	c, err := seed.Catalog()
	require.NoError(t, err)
	assert.True(t, c.Has(permission.FieldRef("fld-notes")))
}

func TestLoadSeed_Errors(t *testing.T) {
	_, err := catalog.LoadSeed(strings.NewReader("sections:\n  - id: s\n    page_id: none\n"))
	require.True(t, errors.Is(err, catalog.ErrDanglingParent))

	_, err = catalog.LoadSeed(strings.NewReader("pages:\n  - id: p\nsections:\n  - id: s\n    page_id: p\nfields:\n  - id: f\n    section_id: s\n    field_type: blob\n"))
	require.Error(t, err)

	_, err = catalog.LoadSeedFile("testdata/" + "missing.yaml")
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCriticalAndSensitive(t *testing.T) {
	c := catalogtest.Catalog()

	assert.True(t, c.IsCritical(permission.PageRef(catalogtest.PageROI)))
	assert.True(t, c.IsCritical(permission.SectionRef(catalogtest.SectionROIEstimates)))
	assert.True(t, c.IsCritical(permission.FieldRef(catalogtest.FieldEquipmentCost)))
	assert.False(t, c.IsCritical(permission.FieldRef(catalogtest.FieldDealValue)))
	assert.False(t, c.IsCritical(permission.PageRef("ghost")))

	assert.True(t, c.IsSensitive(permission.FieldRef(catalogtest.FieldClientContact)))
	assert.False(t, c.IsSensitive(permission.FieldRef(catalogtest.FieldDealValue)))
	assert.False(t, c.IsSensitive(permission.SectionRef(catalogtest.SectionSalesOpps)))
}
