package render

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"bim-gateway/internal/assembler/models"
)

// ============================================================
// Plan renderer
// ============================================================

const (
	DefaultScale  = 100.0 // pixels per model unit
	DefaultMargin = 20.0
)

type point struct {
	X, Y float64
}

type footprint struct {
	guid   string
	kind   string
	fill   string
	points []point
}

type PlanRenderer struct {
	scale  float64
	margin float64
}

func NewPlanRenderer() *PlanRenderer {
	return &PlanRenderer{scale: DefaultScale, margin: DefaultMargin}
}

// WithScale returns a copy drawing scale pixels per model unit.
func (r *PlanRenderer) WithScale(scale float64) *PlanRenderer {
	out := *r
	if scale > 0 {
		out.scale = scale
	}
	return &out
}

// Render draws the top-down footprint of every placed element. Each element
// becomes a filled path whose id is the element identifier.
func (r *PlanRenderer) Render(doc *models.MeshDocument) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("mesh document is nil")
	}

	shapes, err := r.footprints(doc)
	if err != nil {
		return "", err
	}

	minX, minY, maxX, maxY := bounds(shapes)
	width := (maxX-minX)*r.scale + 2*r.margin
	height := (maxY-minY)*r.scale + 2*r.margin

	// model y grows north, svg y grows down
	project := func(p point) point {
		return point{
			X: (p.X-minX)*r.scale + r.margin,
			Y: (maxY-p.Y)*r.scale + r.margin,
		}
	}

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(width), formatFloat(height), formatFloat(width), formatFloat(height)))
	builder.WriteString("\n")

	for _, s := range shapes {
		builder.WriteString("  ")
		builder.WriteString(`<path id="`)
		builder.WriteString(s.guid)
		builder.WriteString(`" class="`)
		builder.WriteString(s.kind)
		builder.WriteString(`" d="M `)
		builder.WriteString(formatPoint(project(s.points[0])))
		for _, p := range s.points[1:] {
			builder.WriteString(" L ")
			builder.WriteString(formatPoint(project(p)))
		}
		builder.WriteString(` Z" fill="`)
		builder.WriteString(s.fill)
		builder.WriteString(`" stroke="#000" />`)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

func (r *PlanRenderer) footprints(doc *models.MeshDocument) ([]footprint, error) {
	var out []footprint
	for _, el := range doc.Elements {
		entry, ok := doc.Mesh(el.MeshID)
		if !ok {
			return nil, fmt.Errorf("element %s: mesh %d: %w", el.GUID, el.MeshID, models.ErrNotFound)
		}

		projected := make([]point, 0, entry.VertexCount())
		for i := 0; i < entry.VertexCount(); i++ {
			v := el.Rotation.Rotate(entry.Vertex(i))
			projected = append(projected, point{X: v.X + el.Vector.X, Y: v.Y + el.Vector.Y})
		}

		hull := convexHull(projected)
		if len(hull) < 3 {
			continue
		}
		out = append(out, footprint{
			guid:   el.GUID,
			kind:   strings.ToLower(strings.TrimPrefix(el.Type, "Ifc")),
			fill:   el.Color.Hex(),
			points: hull,
		})
	}
	return out, nil
}

// ============================================================
// Geometry helpers
// ============================================================

func bounds(shapes []footprint) (minX, minY, maxX, maxY float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY = -math.MaxFloat64, -math.MaxFloat64

	for _, s := range shapes {
		for _, p := range s.points {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}

	if minX == math.MaxFloat64 {
		return 0, 0, 0, 0
	}
	return minX, minY, maxX, maxY
}

// convexHull returns the hull counter-clockwise in model coordinates
// (monotone chain). Collinear points are dropped.
func convexHull(points []point) []point {
	pts := append([]point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	uniq := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			uniq = append(uniq, p)
		}
	}
	pts = uniq
	if len(pts) < 3 {
		return pts
	}

	cross := func(o, a, b point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// ============================================================
// Formatting helpers
// ============================================================

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p point) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}
