package mesh

import (
	"errors"
	"fmt"
	"sort"

	"bim-gateway/internal/assembler/models"
)

// ============================================================
// Mesh Library
// ============================================================

const (
	WallMeshID   = 0
	ColumnMeshID = 1
)

var ErrFrozen = errors.New("mesh library is frozen")

// Library holds named geometric primitives keyed by mesh id. It is filled
// once and then frozen; a frozen library is safe for concurrent reads.
type Library struct {
	entries map[int]models.MeshEntry
	frozen  bool
}

func NewLibrary() *Library {
	return &Library{entries: make(map[int]models.MeshEntry)}
}

// Default returns a frozen library with the wall and column boxes.
func Default() *Library {
	lib := NewLibrary()

	wall, wallIdx := Box(models.Vector{}, models.Vector{X: 2.0, Y: 0.3, Z: 3.0})
	column, columnIdx := Box(models.Vector{X: 4.0}, models.Vector{X: 4.5, Y: 0.5, Z: 4.0})

	// Static primitives are known to be valid.
	if _, err := lib.Define(WallMeshID, wall, wallIdx); err != nil {
		panic(err)
	}
	if _, err := lib.Define(ColumnMeshID, column, columnIdx); err != nil {
		panic(err)
	}

	lib.Freeze()
	return lib
}

// Define registers a primitive. Coordinates are flat x/y/z triples and
// indices flat triangle triples.
func (l *Library) Define(meshID int, coordinates []float64, indices []int) (models.MeshEntry, error) {
	if l.frozen {
		return models.MeshEntry{}, fmt.Errorf("define mesh %d: %w", meshID, ErrFrozen)
	}
	if _, exists := l.entries[meshID]; exists {
		return models.MeshEntry{}, fmt.Errorf("%w: mesh %d already defined", models.ErrMalformedMesh, meshID)
	}

	entry := models.MeshEntry{
		MeshID:      meshID,
		Coordinates: append([]float64(nil), coordinates...),
		Indices:     append([]int(nil), indices...),
	}
	if err := entry.Validate(); err != nil {
		return models.MeshEntry{}, err
	}

	l.entries[meshID] = entry
	return entry, nil
}

// Get returns a copy of the entry so callers cannot mutate the library.
func (l *Library) Get(meshID int) (models.MeshEntry, error) {
	entry, ok := l.entries[meshID]
	if !ok {
		return models.MeshEntry{}, fmt.Errorf("mesh %d: %w", meshID, models.ErrNotFound)
	}
	return models.MeshEntry{
		MeshID:      entry.MeshID,
		Coordinates: append([]float64(nil), entry.Coordinates...),
		Indices:     append([]int(nil), entry.Indices...),
	}, nil
}

func (l *Library) Freeze() {
	l.frozen = true
}

// IDs lists defined mesh ids in ascending order.
func (l *Library) IDs() []int {
	ids := make([]int, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ============================================================
// Primitives
// ============================================================

// Box builds an axis-aligned box between min and max: 8 vertices, 12 triangles.
func Box(min, max models.Vector) ([]float64, []int) {
	coordinates := []float64{
		// bottom
		min.X, min.Y, min.Z,
		max.X, min.Y, min.Z,
		max.X, max.Y, min.Z,
		min.X, max.Y, min.Z,
		// top
		min.X, min.Y, max.Z,
		max.X, min.Y, max.Z,
		max.X, max.Y, max.Z,
		min.X, max.Y, max.Z,
	}
	indices := []int{
		0, 1, 2, 2, 3, 0, // bottom
		4, 5, 6, 6, 7, 4, // top
		0, 1, 5, 5, 4, 0,
		1, 2, 6, 6, 5, 1,
		2, 3, 7, 7, 6, 2,
		3, 0, 4, 4, 7, 3,
	}
	return coordinates, indices
}
