package step

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bim-gateway/internal/assembler/assemble"
	"bim-gateway/internal/assembler/ident"
	"bim-gateway/internal/assembler/mesh"
	"bim-gateway/internal/assembler/models"
)

var fixedHeader = Header{
	FileName:    "demo.ifc",
	Author:      "tester",
	Application: "bim-gateway",
	Timestamp:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
}

func assembleDemo(t *testing.T) *models.EntityGraph {
	t.Helper()
	a := assemble.New(mesh.Default(), zap.NewNop(),
		assemble.WithIdentifiers(func() ident.Generator { return ident.NewSequence() }))
	res, err := a.Assemble(context.Background(), assemble.DemoSpec())
	require.NoError(t, err)
	return res.Graph
}

func dataLines(t *testing.T, out string) []string {
	t.Helper()
	_, data, ok := strings.Cut(out, "DATA;\n")
	require.True(t, ok)
	data, _, ok = strings.Cut(data, "ENDSEC;\nEND-ISO-10303-21;")
	require.True(t, ok)
	return strings.Split(strings.TrimSpace(data), "\n")
}

func TestMarshalDemoModel(t *testing.T) {
	g := assembleDemo(t)

	raw, err := Marshal(g, fixedHeader)
	require.NoError(t, err)
	out := string(raw)

	assert.True(t, strings.HasPrefix(out, "ISO-10303-21;\nHEADER;\n"))
	assert.Contains(t, out, "FILE_NAME('demo.ifc','2024-05-01T12:00:00',('tester'),(''),'bim-gateway','bim-gateway','');")
	assert.Contains(t, out, "FILE_SCHEMA(('IFC4'));")
	assert.True(t, strings.HasSuffix(out, "END-ISO-10303-21;\n"))

	lines := dataLines(t, out)
	assert.Equal(t, "#1=IFCOWNERHISTORY($,$,$,$,$,$,$,$);", lines[0])

	count := func(prefix string) int {
		n := 0
		for _, l := range lines {
			_, rest, _ := strings.Cut(l, "=")
			if strings.HasPrefix(rest, prefix+"(") {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, count("IFCPROJECT"))
	assert.Equal(t, 1, count("IFCSITE"))
	assert.Equal(t, 1, count("IFCBUILDING"))
	assert.Equal(t, 1, count("IFCBUILDINGSTOREY"))
	assert.Equal(t, 1, count("IFCWALL"))
	assert.Equal(t, 1, count("IFCCOLUMN"))
	assert.Equal(t, 2, count("IFCPROPERTYSET"))
	assert.Equal(t, 8, count("IFCPROPERTYSINGLEVALUE"))
	assert.Equal(t, 3, count("IFCRELAGGREGATES"))
	assert.Equal(t, 2, count("IFCRELCONTAINEDINSPATIALSTRUCTURE"))
	assert.Equal(t, 2, count("IFCRELDEFINESBYPROPERTIES"))

	assert.Contains(t, out, "IFCPROPERTYSINGLEVALUE('FireRating',$,IFCLABEL('FR-60'),$)")
	assert.Contains(t, out, "IFCPROPERTYSINGLEVALUE('IsExternal',$,IFCBOOLEAN(.T.),$)")
	assert.Contains(t, out, "IFCPROPERTYSINGLEVALUE('IsExternal',$,IFCBOOLEAN(.F.),$)")
	assert.Contains(t, out, "IFCPROPERTYSINGLEVALUE('Slope',$,IFCREAL(0.),$)")
	assert.Contains(t, out, ",'Level 1',$,$,$,$,$,.ELEMENT.,0.);")
}

func TestMarshalUsesCompressedGlobalIDs(t *testing.T) {
	g := assembleDemo(t)

	raw, err := Marshal(g, fixedHeader)
	require.NoError(t, err)

	wall := g.Elements[0]
	guid, err := CompressGUID(wall.ID)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "IFCWALL('"+guid+"',#1,'Wall_1',$,'Standard Wall',$,$,$,$)")
}

func TestMarshalContainmentReferencesInstances(t *testing.T) {
	g := assembleDemo(t)

	raw, err := Marshal(g, fixedHeader)
	require.NoError(t, err)
	lines := dataLines(t, string(raw))

	ref := func(prefix string) string {
		for _, l := range lines {
			num, rest, _ := strings.Cut(l, "=")
			if strings.HasPrefix(rest, prefix+"(") {
				return num
			}
		}
		t.Fatalf("no %s instance", prefix)
		return ""
	}
	storey, wall, column := ref("IFCBUILDINGSTOREY"), ref("IFCWALL"), ref("IFCCOLUMN")

	var containment []string
	for _, l := range lines {
		if strings.Contains(l, "IFCRELCONTAINEDINSPATIALSTRUCTURE(") {
			containment = append(containment, l)
		}
	}
	require.Len(t, containment, 2)
	assert.True(t, strings.HasSuffix(containment[0], ",("+wall+"),"+storey+");"), containment[0])
	assert.True(t, strings.HasSuffix(containment[1], ",("+column+"),"+storey+");"), containment[1])
}

func TestMarshalReferenceProperty(t *testing.T) {
	g := assembleDemo(t)
	wall := g.Elements[0]
	g.PropertySets = append(g.PropertySets, models.PropertySet{
		ID:         "00000000-0000-4000-8000-0000000000ff",
		Name:       "Pset_Links",
		Properties: []models.Property{{Name: "Host", Value: models.Reference(wall.ID)}},
	})

	raw, err := Marshal(g, fixedHeader)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "IFCPROPERTYREFERENCEVALUE('Host',$,$,#")
}

func TestMarshalUnknownReference(t *testing.T) {
	g := assembleDemo(t)
	g.PropertySets = append(g.PropertySets, models.PropertySet{
		ID:         "00000000-0000-4000-8000-0000000000ff",
		Name:       "Pset_Links",
		Properties: []models.Property{{Name: "Host", Value: models.Reference("00000000-0000-4000-8000-000000000fff")}},
	})

	_, err := Marshal(g, fixedHeader)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMarshalRejectsNonUUIDIdentifiers(t *testing.T) {
	g := assembleDemo(t)
	g.Elements[0].ID = "wall-1"

	_, err := Marshal(g, fixedHeader)
	assert.Error(t, err)
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "'plain'"},
		{"it's", "'it''s'"},
		{`a\b`, `'a\\b'`},
		{"Wand ä", `'Wand \X2\00E4\X0\'`},
		{"tab\t", `'tab\X2\0009\X0\'`},
		{"🧱", `'\X4\0001F9F1\X0\'`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quote(tt.in), tt.in)
	}
}

func TestFormatReal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0."},
		{4, "4."},
		{-2.5, "-2.5"},
		{0.125, "0.125"},
		{1e21, "1.E+21"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatReal(tt.in))
	}
}

func TestMarshalEmbeddedGeometry(t *testing.T) {
	a := assemble.New(mesh.Default(), zap.NewNop(), assemble.WithEmbeddedGeometry(true))
	res, err := a.Assemble(context.Background(), assemble.DemoSpec())
	require.NoError(t, err)

	raw, err := Marshal(res.Graph, fixedHeader)
	require.NoError(t, err)
	out := string(raw)

	assert.Equal(t, 4, strings.Count(out, "IFCPROPERTYSET('"))
	assert.Equal(t, 2, strings.Count(out, "IFCPROPERTYSINGLEVALUE('Custom_Mesh',$,IFCTEXT('{"))
	assert.Contains(t, out, "'Pset_CustomGeometry'")
}

func TestMarshalRejectsNonFiniteReals(t *testing.T) {
	g := assembleDemo(t)
	g.PropertySets[0].Properties[0].Value = models.Value{Type: models.ValueReal, Real: math.NaN()}

	_, err := Marshal(g, fixedHeader)
	assert.ErrorIs(t, err, models.ErrInvalidSpec)

	g = assembleDemo(t)
	g.Hierarchy.Storey.Attributes["Elevation"] = models.Value{Type: models.ValueReal, Real: math.Inf(1)}

	_, err = Marshal(g, fixedHeader)
	assert.ErrorIs(t, err, models.ErrInvalidSpec)
}
