package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bim-gateway/internal/assembler/ident"
	"bim-gateway/internal/assembler/models"
)

func newWall(ctx *Context, name string) models.Entity {
	return models.Entity{ID: ctx.NextID(), Kind: models.KindWall, Name: name}
}

func TestAddEntityRejectsReusedIdentifier(t *testing.T) {
	ctx := NewContext(ident.NewSequence())
	wall := newWall(ctx, "Wall_1")

	require.NoError(t, ctx.AddEntity(wall))
	err := ctx.AddEntity(models.Entity{ID: wall.ID, Kind: models.KindColumn, Name: "Column_1"})
	assert.ErrorIs(t, err, models.ErrConsistency)
}

func TestAddEntityRejectsRelationshipKinds(t *testing.T) {
	ctx := NewContext(ident.NewSequence())
	err := ctx.AddEntity(models.Entity{ID: ctx.NextID(), Kind: models.KindRelAggregates})
	assert.ErrorIs(t, err, models.ErrInvalidSpec)
}

func TestElementsKeepRegistrationOrder(t *testing.T) {
	ctx := NewContext(ident.NewSequence())
	names := []string{"c", "a", "b"}
	for _, n := range names {
		require.NoError(t, ctx.AddEntity(newWall(ctx, n)))
	}
	require.NoError(t, ctx.AddEntity(models.Entity{ID: ctx.NextID(), Kind: models.KindSite, Name: "site"}))

	elements := ctx.Elements()
	require.Len(t, elements, 3)
	for i, e := range elements {
		assert.Equal(t, names[i], e.Name)
	}
}

func TestAttachPropertySet(t *testing.T) {
	ctx := NewContext(ident.NewSequence())
	wall := newWall(ctx, "Wall_1")
	require.NoError(t, ctx.AddEntity(wall))

	ps := models.PropertySet{ID: ctx.NextID(), Name: "Pset_WallCommon"}
	require.NoError(t, ctx.AttachPropertySet(wall.ID, ps))
	assert.True(t, ctx.HasPropertySet(wall.ID, "Pset_WallCommon"))

	err := ctx.AttachPropertySet(wall.ID, models.PropertySet{ID: ctx.NextID(), Name: "Pset_WallCommon"})
	assert.ErrorIs(t, err, models.ErrDuplicatePropertySetName)

	other := newWall(ctx, "Wall_2")
	require.NoError(t, ctx.AddEntity(other))
	assert.NoError(t, ctx.AttachPropertySet(other.ID, models.PropertySet{ID: ctx.NextID(), Name: "Pset_WallCommon"}))
}

func TestAttachPropertySetOncePerInstance(t *testing.T) {
	ctx := NewContext(ident.NewSequence())
	wall := newWall(ctx, "Wall_1")
	other := newWall(ctx, "Wall_2")
	require.NoError(t, ctx.AddEntity(wall))
	require.NoError(t, ctx.AddEntity(other))

	ps := models.PropertySet{ID: ctx.NextID(), Name: "Pset_WallCommon"}
	assert.False(t, ctx.PropertySetAttached(ps.ID))
	require.NoError(t, ctx.AttachPropertySet(wall.ID, ps))
	assert.True(t, ctx.PropertySetAttached(ps.ID))

	err := ctx.AttachPropertySet(other.ID, ps)
	assert.ErrorIs(t, err, models.ErrConsistency)
	assert.False(t, ctx.HasPropertySet(other.ID, "Pset_WallCommon"))
}

func TestGraphRequiresHierarchy(t *testing.T) {
	ctx := NewContext(ident.NewSequence())
	_, err := ctx.Graph()
	assert.ErrorIs(t, err, models.ErrConsistency)

	require.NoError(t, ctx.SetHierarchy(models.Hierarchy{}))
	assert.ErrorIs(t, ctx.SetHierarchy(models.Hierarchy{}), models.ErrConsistency)

	g, err := ctx.Graph()
	require.NoError(t, err)
	assert.Empty(t, g.Elements)
}

func TestGraphSnapshotCarriesDefinesRelationships(t *testing.T) {
	ctx := NewContext(ident.NewSequence())
	require.NoError(t, ctx.SetHierarchy(models.Hierarchy{}))
	wall := newWall(ctx, "Wall_1")
	require.NoError(t, ctx.AddEntity(wall))
	ps := models.PropertySet{ID: ctx.NextID(), Name: "Pset_WallCommon"}
	require.NoError(t, ctx.AttachPropertySet(wall.ID, ps))

	g, err := ctx.Graph()
	require.NoError(t, err)
	require.Len(t, g.Relationships, 1)
	assert.Equal(t, models.KindRelDefinesByProperties, g.Relationships[0].Kind)
	assert.Equal(t, ps.ID, g.Relationships[0].Relating)
	assert.Equal(t, []string{wall.ID}, g.Relationships[0].Related)
	assert.Equal(t, []models.PropertySet{ps}, g.PropertySetsOf(wall.ID))
}
