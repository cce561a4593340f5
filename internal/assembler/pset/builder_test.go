package pset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bim-gateway/internal/assembler/ident"
	"bim-gateway/internal/assembler/models"
)

func TestBuildPreservesOrder(t *testing.T) {
	b := NewBuilder(ident.NewSequence())

	ps, err := b.Build("Pset_WallCommon", []models.Property{
		{Name: "Reference", Value: models.Label("WAL001")},
		{Name: "IsExternal", Value: models.Boolean(true)},
		{Name: "LoadBearing", Value: models.Boolean(true)},
		{Name: "FireRating", Value: models.Label("FR-60")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Pset_WallCommon", ps.Name)
	assert.NotEmpty(t, ps.ID)
	require.Len(t, ps.Properties, 4)
	names := []string{ps.Properties[0].Name, ps.Properties[1].Name, ps.Properties[2].Name, ps.Properties[3].Name}
	assert.Equal(t, []string{"Reference", "IsExternal", "LoadBearing", "FireRating"}, names)

	v, ok := ps.Lookup("FireRating")
	require.True(t, ok)
	assert.Equal(t, models.Label("FR-60"), v)
}

func TestBuildDuplicatePropertyName(t *testing.T) {
	b := NewBuilder(ident.NewSequence())

	_, err := b.Build("Pset_ColumnCommon", []models.Property{
		{Name: "Slope", Value: models.Real(0)},
		{Name: "Slope", Value: models.Real(1)},
	})
	assert.ErrorIs(t, err, models.ErrDuplicatePropertyName)
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	b := NewBuilder(ident.NewSequence())

	_, err := b.Build("  ", nil)
	assert.ErrorIs(t, err, models.ErrInvalidSpec)

	_, err = b.Build("Pset", []models.Property{{Name: "", Value: models.Label("x")}})
	assert.ErrorIs(t, err, models.ErrInvalidSpec)

	_, err = b.Build("Pset", []models.Property{{Name: "Untyped"}})
	assert.ErrorIs(t, err, models.ErrInvalidSpec)
}

func TestBuildEmptySetIsAllowed(t *testing.T) {
	ps, err := NewBuilder(ident.NewSequence()).Build("Pset_Empty", nil)
	require.NoError(t, err)
	assert.Empty(t, ps.Properties)
}

func TestBuildAllAssignsDistinctIDs(t *testing.T) {
	b := NewBuilder(ident.NewSequence())

	sets, err := b.BuildAll([]models.PropertySetSpec{
		{Name: "A", Properties: []models.Property{{Name: "x", Value: models.Real(1)}}},
		{Name: "B", Properties: []models.Property{{Name: "x", Value: models.Real(2)}}},
	})
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.NotEqual(t, sets[0].ID, sets[1].ID)
}

func TestCustomGeometry(t *testing.T) {
	ps, err := NewBuilder(ident.NewSequence()).CustomGeometry(`{"meshes":[]}`)
	require.NoError(t, err)

	assert.Equal(t, CustomGeometryName, ps.Name)
	v, ok := ps.Lookup(CustomMeshProperty)
	require.True(t, ok)
	assert.Equal(t, models.ValueText, v.Type)
	assert.Equal(t, `{"meshes":[]}`, v.Str)
}
