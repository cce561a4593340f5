package render

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bim-gateway/internal/assembler/assemble"
	"bim-gateway/internal/assembler/mesh"
	"bim-gateway/internal/assembler/models"
)

func TestRenderDemoPlan(t *testing.T) {
	res, err := assemble.New(mesh.Default(), zap.NewNop()).Assemble(context.Background(), assemble.DemoSpec())
	require.NoError(t, err)

	svg, err := NewPlanRenderer().Render(res.Mesh)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(svg, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, svg, `width="890" height="90" viewBox="0 0 890 90"`)
	assert.True(t, strings.HasSuffix(svg, "</svg>"))

	for _, el := range res.Mesh.Elements {
		assert.Contains(t, svg, `<path id="`+el.GUID+`"`)
	}
	assert.Contains(t, svg, `class="wall" d="M 20 70 L `)
	assert.Contains(t, svg, `fill="#c8c8c8"`)
	assert.Contains(t, svg, `fill="#969696"`)
	assert.Equal(t, 2, strings.Count(svg, "<path "))
}

func TestRenderEmptyDocument(t *testing.T) {
	svg, err := NewPlanRenderer().Render(&models.MeshDocument{})
	require.NoError(t, err)
	assert.Contains(t, svg, `width="40" height="40"`)
	assert.NotContains(t, svg, "<path")
}

func TestRenderNilDocument(t *testing.T) {
	_, err := NewPlanRenderer().Render(nil)
	assert.Error(t, err)
}

func TestRenderMissingMesh(t *testing.T) {
	doc := &models.MeshDocument{
		Elements: []models.MeshElement{{MeshID: 7, GUID: "x", Rotation: models.Identity()}},
	}
	_, err := NewPlanRenderer().Render(doc)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRenderAppliesRotation(t *testing.T) {
	coords, indices := mesh.Box(models.Vector{}, models.Vector{X: 2, Y: 1, Z: 1})
	box := models.MeshEntry{MeshID: 3, Coordinates: coords, Indices: indices}
	half := math.Sqrt2 / 2
	doc := &models.MeshDocument{
		Meshes: []models.MeshEntry{box},
		Elements: []models.MeshElement{{
			MeshID:   box.MeshID,
			GUID:     "rotated",
			Type:     "IfcBeam",
			Rotation: models.Quaternion{QZ: half, QW: half}, // 90 degrees about z
		}},
	}

	shapes, err := NewPlanRenderer().footprints(doc)
	require.NoError(t, err)
	require.Len(t, shapes, 1)

	minX, minY, maxX, maxY := bounds(shapes)
	assert.InDelta(t, -1, minX, 1e-9)
	assert.InDelta(t, 0, minY, 1e-9)
	assert.InDelta(t, 0, maxX, 1e-9)
	assert.InDelta(t, 2, maxY, 1e-9)
	assert.Equal(t, "beam", shapes[0].kind)
}

func TestWithScale(t *testing.T) {
	r := NewPlanRenderer()
	scaled := r.WithScale(10)
	assert.Equal(t, DefaultScale, r.scale)
	assert.Equal(t, 10.0, scaled.scale)
	assert.Equal(t, DefaultScale, r.WithScale(-1).scale)
}

func TestConvexHull(t *testing.T) {
	square := []point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0.5, 0.5}, {0, 0}, {1, 0.5}}
	hull := convexHull(square)
	assert.Equal(t, []point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, hull)

	line := convexHull([]point{{0, 0}, {1, 1}})
	assert.Len(t, line, 2)
}
