package models

import (
	"fmt"
	"math"
)

// ============================================================
// Geometry primitives
// ============================================================

// RotationTolerance bounds how far a rotation's magnitude may stray from 1.
const RotationTolerance = 1e-3

type Vector struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Validate fails with ErrInvalidSpec when a component is NaN or infinite.
func (v Vector) Validate() error {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if !isFinite(c) {
			return fmt.Errorf("%w: vector (%g, %g, %g) is not finite", ErrInvalidSpec, v.X, v.Y, v.Z)
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type Quaternion struct {
	QX float64 `json:"qx" yaml:"qx"`
	QY float64 `json:"qy" yaml:"qy"`
	QZ float64 `json:"qz" yaml:"qz"`
	QW float64 `json:"qw" yaml:"qw"`
}

func Identity() Quaternion {
	return Quaternion{QW: 1}
}

func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.QX*q.QX + q.QY*q.QY + q.QZ*q.QZ + q.QW*q.QW)
}

// Validate fails with ErrInvalidRotation unless |q| is within RotationTolerance of 1.
func (q Quaternion) Validate() error {
	n := q.Norm()
	if math.IsNaN(n) || math.Abs(n-1) > RotationTolerance {
		return fmt.Errorf("%w: magnitude %g", ErrInvalidRotation, n)
	}
	return nil
}

// Rotate applies q to v (q assumed unit).
func (q Quaternion) Rotate(v Vector) Vector {
	// t = 2 * cross(q.xyz, v); v' = v + w*t + cross(q.xyz, t)
	tx := 2 * (q.QY*v.Z - q.QZ*v.Y)
	ty := 2 * (q.QZ*v.X - q.QX*v.Z)
	tz := 2 * (q.QX*v.Y - q.QY*v.X)
	return Vector{
		X: v.X + q.QW*tx + (q.QY*tz - q.QZ*ty),
		Y: v.Y + q.QW*ty + (q.QZ*tx - q.QX*tz),
		Z: v.Z + q.QW*tz + (q.QX*ty - q.QY*tx),
	}
}

type Color struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
	A uint8 `json:"a" yaml:"a"`
}

// Hex renders the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ============================================================
// Mesh document
// ============================================================

type MeshEntry struct {
	MeshID      int       `json:"mesh_id"`
	Coordinates []float64 `json:"coordinates"`
	Indices     []int     `json:"indices"`
}

func (m MeshEntry) VertexCount() int {
	return len(m.Coordinates) / 3
}

// Vertex returns the i-th vertex.
func (m MeshEntry) Vertex(i int) Vector {
	return Vector{X: m.Coordinates[3*i], Y: m.Coordinates[3*i+1], Z: m.Coordinates[3*i+2]}
}

// Validate checks triple counts, index range and degenerate triangles.
func (m MeshEntry) Validate() error {
	if m.MeshID < 0 {
		return fmt.Errorf("%w: negative mesh id %d", ErrMalformedMesh, m.MeshID)
	}
	if len(m.Coordinates)%3 != 0 {
		return fmt.Errorf("%w: mesh %d has %d coordinates, not a multiple of 3", ErrMalformedMesh, m.MeshID, len(m.Coordinates))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: mesh %d has %d indices, not a multiple of 3", ErrMalformedMesh, m.MeshID, len(m.Indices))
	}
	for _, c := range m.Coordinates {
		if !isFinite(c) {
			return fmt.Errorf("%w: mesh %d has non-finite coordinate", ErrMalformedMesh, m.MeshID)
		}
	}

	vertices := m.VertexCount()
	for i, idx := range m.Indices {
		if idx < 0 || idx >= vertices {
			return fmt.Errorf("%w: mesh %d index %d at %d out of range [0,%d)", ErrMalformedMesh, m.MeshID, idx, i, vertices)
		}
	}
	for t := 0; t < len(m.Indices); t += 3 {
		a, b, c := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		if a == b || b == c || a == c {
			return fmt.Errorf("%w: mesh %d triangle %d is degenerate", ErrMalformedMesh, m.MeshID, t/3)
		}
	}
	return nil
}

// MeshElement places a mesh entry in the model for one physical element.
type MeshElement struct {
	MeshID   int               `json:"mesh_id"`
	GUID     string            `json:"guid"`
	Type     string            `json:"type"`
	Color    Color             `json:"color"`
	Info     map[string]string `json:"info"`
	Vector   Vector            `json:"vector"`
	Rotation Quaternion        `json:"rotation"`
}

type MeshDocument struct {
	Meshes   []MeshEntry   `json:"meshes"`
	Elements []MeshElement `json:"elements"`
}

// Mesh returns the entry with the given id.
func (d *MeshDocument) Mesh(id int) (MeshEntry, bool) {
	for _, m := range d.Meshes {
		if m.MeshID == id {
			return m, true
		}
	}
	return MeshEntry{}, false
}

// Validate checks every entry, unique mesh ids, unique guids, element mesh
// references, translations and rotations.
func (d *MeshDocument) Validate() error {
	ids := make(map[int]struct{}, len(d.Meshes))
	for _, m := range d.Meshes {
		if err := m.Validate(); err != nil {
			return err
		}
		if _, dup := ids[m.MeshID]; dup {
			return fmt.Errorf("%w: mesh id %d defined twice", ErrMalformedMesh, m.MeshID)
		}
		ids[m.MeshID] = struct{}{}
	}

	guids := make(map[string]struct{}, len(d.Elements))
	for _, e := range d.Elements {
		if e.GUID == "" {
			return fmt.Errorf("%w: element without guid", ErrConsistency)
		}
		if _, dup := guids[e.GUID]; dup {
			return fmt.Errorf("%w: guid %s appears twice", ErrConsistency, e.GUID)
		}
		guids[e.GUID] = struct{}{}

		if _, ok := ids[e.MeshID]; !ok {
			return fmt.Errorf("%w: element %s references mesh %d", ErrNotFound, e.GUID, e.MeshID)
		}
		if err := e.Vector.Validate(); err != nil {
			return fmt.Errorf("element %s translation: %w", e.GUID, err)
		}
		if err := e.Rotation.Validate(); err != nil {
			return fmt.Errorf("element %s: %w", e.GUID, err)
		}
	}
	return nil
}
