package pset

import (
	"fmt"
	"strings"

	"bim-gateway/internal/assembler/ident"
	"bim-gateway/internal/assembler/models"
)

// ============================================================
// Property Set Builder
// ============================================================

const (
	CustomGeometryName = "Pset_CustomGeometry"
	CustomMeshProperty = "Custom_Mesh"
)

type Builder struct {
	ids ident.Generator
}

func NewBuilder(ids ident.Generator) *Builder {
	return &Builder{ids: ids}
}

// Build returns a complete property set with its own identifier. Property
// order is preserved; names must be unique within the set.
func (b *Builder) Build(name string, properties []models.Property) (models.PropertySet, error) {
	if strings.TrimSpace(name) == "" {
		return models.PropertySet{}, fmt.Errorf("%w: property set name required", models.ErrInvalidSpec)
	}

	seen := make(map[string]struct{}, len(properties))
	props := make([]models.Property, 0, len(properties))
	for _, p := range properties {
		if strings.TrimSpace(p.Name) == "" {
			return models.PropertySet{}, fmt.Errorf("%w: property without name in %s", models.ErrInvalidSpec, name)
		}
		if _, dup := seen[p.Name]; dup {
			return models.PropertySet{}, fmt.Errorf("%w: %q in %s", models.ErrDuplicatePropertyName, p.Name, name)
		}
		if err := p.Value.Validate(); err != nil {
			return models.PropertySet{}, fmt.Errorf("property %s.%s: %w", name, p.Name, err)
		}
		seen[p.Name] = struct{}{}
		props = append(props, p)
	}

	return models.PropertySet{
		ID:         b.ids.Next(),
		Name:       name,
		Properties: props,
	}, nil
}

// BuildAll builds every set of an element description in order.
func (b *Builder) BuildAll(specs []models.PropertySetSpec) ([]models.PropertySet, error) {
	sets := make([]models.PropertySet, 0, len(specs))
	for _, spec := range specs {
		ps, err := b.Build(spec.Name, spec.Properties)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ps)
	}
	return sets, nil
}

// CustomGeometry wraps a serialized mesh fragment into Pset_CustomGeometry.
func (b *Builder) CustomGeometry(meshJSON string) (models.PropertySet, error) {
	return b.Build(CustomGeometryName, []models.Property{
		{Name: CustomMeshProperty, Value: models.Text(meshJSON)},
	})
}
