package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is a catalog description loaded from YAML.
//
//	pages:
//	  - id: page-roi
//	    page_name: roi
//	    display_name: ROI Management
//	    is_critical: true
//	sections:
//	  - id: sect-roi-analysis
//	    page_id: page-roi
//	    ...
type Seed struct {
	Pages    []*Page    `yaml:"pages"`
	Sections []*Section `yaml:"sections"`
	Fields   []*Field   `yaml:"fields"`
}

// LoadSeed decodes a YAML seed and checks that it forms a valid catalog.
// Pages and sections default to active.
func LoadSeed(r io.Reader) (*Seed, error) {
	var raw struct {
		Pages    []*seedPage    `yaml:"pages"`
		Sections []*seedSection `yaml:"sections"`
		Fields   []*Field       `yaml:"fields"`
	}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("catalog: decode seed: %w", err)
	}

	seed := &Seed{Fields: raw.Fields}
	for _, p := range raw.Pages {
		p.Page.IsActive = p.Active == nil || *p.Active
		seed.Pages = append(seed.Pages, &p.Page)
	}
	for _, s := range raw.Sections {
		s.Section.IsActive = s.Active == nil || *s.Active
		seed.Sections = append(seed.Sections, &s.Section)
	}
	for _, f := range seed.Fields {
		if f.FieldType == "" {
			f.FieldType = FieldText
		}
		if !f.FieldType.IsValid() {
			return nil, fmt.Errorf("catalog: field %s: unknown field type %q", f.ID, f.FieldType)
		}
	}
	if _, err := seed.Catalog(); err != nil {
		return nil, err
	}
	return seed, nil
}

// LoadSeedFile reads a YAML seed from path.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open seed: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

// Catalog builds an indexed catalog from the seed.
func (s *Seed) Catalog() (*Catalog, error) {
	return New(s.Pages, s.Sections, s.Fields)
}

// Apply creates every seeded entity that the store does not hold yet.
// Existing entities are left untouched.
func (s *Seed) Apply(ctx context.Context, store Store) (int, error) {
	existing, err := Load(ctx, store)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, p := range s.Pages {
		if _, ok := existing.Page(p.ID); ok {
			continue
		}
		if err := store.CreatePage(ctx, p); err != nil {
			return created, fmt.Errorf("catalog: seed page %s: %w", p.ID, err)
		}
		created++
	}
	for _, sec := range s.Sections {
		if _, ok := existing.Section(sec.ID); ok {
			continue
		}
		if err := store.CreateSection(ctx, sec); err != nil {
			return created, fmt.Errorf("catalog: seed section %s: %w", sec.ID, err)
		}
		created++
	}
	for _, f := range s.Fields {
		if _, ok := existing.Field(f.ID); ok {
			continue
		}
		if err := store.CreateField(ctx, f); err != nil {
			return created, fmt.Errorf("catalog: seed field %s: %w", f.ID, err)
		}
		created++
	}
	return created, nil
}

type seedPage struct {
	Page   `yaml:",inline"`
	Active *bool `yaml:"active"`
}

type seedSection struct {
	Section `yaml:",inline"`
	Active  *bool `yaml:"active"`
}
