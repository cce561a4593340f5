package assemble

import (
	"bim-gateway/internal/assembler/mesh"
	"bim-gateway/internal/assembler/models"
)

// DemoSpec describes a one-storey model with a wall and a column.
func DemoSpec() models.ModelSpec {
	identity := models.Identity()
	return models.ModelSpec{
		Hierarchy: models.HierarchySpec{
			Project:   "My Project",
			Site:      "My Site",
			Building:  "My Building",
			Storey:    "Level 1",
			Elevation: 0.0,
		},
		Elements: []models.ElementSpec{
			{
				Kind:     models.KindWall,
				Name:     "Wall_1",
				Type:     "Standard Wall",
				MeshID:   mesh.WallMeshID,
				Rotation: &identity,
				PropertySets: []models.PropertySetSpec{{
					Name: "Pset_WallCommon",
					Properties: []models.Property{
						{Name: "Reference", Value: models.Label("WAL001")},
						{Name: "IsExternal", Value: models.Boolean(true)},
						{Name: "LoadBearing", Value: models.Boolean(true)},
						{Name: "FireRating", Value: models.Label("FR-60")},
					},
				}},
			},
			{
				Kind:        models.KindColumn,
				Name:        "Column_1",
				Type:        "Concrete Column",
				MeshID:      mesh.ColumnMeshID,
				Translation: models.Vector{X: 4.0},
				Rotation:    &identity,
				PropertySets: []models.PropertySetSpec{{
					Name: "Pset_ColumnCommon",
					Properties: []models.Property{
						{Name: "Reference", Value: models.Label("COL001")},
						{Name: "IsExternal", Value: models.Boolean(false)},
						{Name: "LoadBearing", Value: models.Boolean(true)},
						{Name: "Slope", Value: models.Real(0.0)},
					},
				}},
			},
		},
	}
}
