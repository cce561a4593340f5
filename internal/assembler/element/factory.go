package element

import (
	"encoding/json"
	"fmt"
	"strings"

	"bim-gateway/internal/assembler/graph"
	"bim-gateway/internal/assembler/mesh"
	"bim-gateway/internal/assembler/models"
	"bim-gateway/internal/assembler/pset"
)

// ============================================================
// Element Factory
// ============================================================

type Factory struct {
	library       *mesh.Library
	embedGeometry bool
}

type Option func(*Factory)

// WithEmbeddedGeometry attaches Pset_CustomGeometry holding the element's
// mesh fragment as JSON text.
func WithEmbeddedGeometry(enabled bool) Option {
	return func(f *Factory) {
		f.embedGeometry = enabled
	}
}

func NewFactory(library *mesh.Library, opts ...Option) *Factory {
	f := &Factory{library: library}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Request describes one element to create. PropertySets are already built.
type Request struct {
	Kind         models.Kind
	Name         string
	Type         string
	MeshID       int
	Color        *models.Color
	Info         map[string]string
	Translation  models.Vector
	Rotation     models.Quaternion
	PropertySets []models.PropertySet
}

// RequestFromSpec converts a declarative element into a Request; a missing
// rotation becomes the identity.
func RequestFromSpec(spec models.ElementSpec, sets []models.PropertySet) Request {
	rotation := models.Identity()
	if spec.Rotation != nil {
		rotation = *spec.Rotation
	}
	return Request{
		Kind:         spec.Kind,
		Name:         spec.Name,
		Type:         spec.Type,
		MeshID:       spec.MeshID,
		Color:        spec.Color,
		Info:         spec.Info,
		Translation:  spec.Translation,
		Rotation:     rotation,
		PropertySets: sets,
	}
}

// CreateElement allocates one identifier and returns the entity and its mesh
// element carrying it. Everything is validated before ctx is modified.
func (f *Factory) CreateElement(ctx *graph.Context, req Request) (models.Entity, models.MeshElement, error) {
	if !req.Kind.IsElement() {
		return models.Entity{}, models.MeshElement{}, fmt.Errorf("%w: %s is not a physical element", models.ErrInvalidSpec, req.Kind)
	}
	if strings.TrimSpace(req.Name) == "" {
		return models.Entity{}, models.MeshElement{}, fmt.Errorf("%w: element name required", models.ErrInvalidSpec)
	}

	entry, err := f.library.Get(req.MeshID)
	if err != nil {
		return models.Entity{}, models.MeshElement{}, fmt.Errorf("element %q: %w", req.Name, err)
	}
	if err := req.Rotation.Validate(); err != nil {
		return models.Entity{}, models.MeshElement{}, fmt.Errorf("element %q: %w", req.Name, err)
	}
	if err := req.Translation.Validate(); err != nil {
		return models.Entity{}, models.MeshElement{}, fmt.Errorf("element %q translation: %w", req.Name, err)
	}

	names := make(map[string]struct{}, len(req.PropertySets)+1)
	seen := make(map[string]struct{}, len(req.PropertySets))
	for _, ps := range req.PropertySets {
		if _, reused := seen[ps.ID]; reused || ctx.PropertySetAttached(ps.ID) {
			return models.Entity{}, models.MeshElement{}, fmt.Errorf("element %q: %w: property set %s already attached", req.Name, models.ErrConsistency, ps.ID)
		}
		seen[ps.ID] = struct{}{}
		if _, dup := names[ps.Name]; dup {
			return models.Entity{}, models.MeshElement{}, fmt.Errorf("element %q: %w: %q", req.Name, models.ErrDuplicatePropertySetName, ps.Name)
		}
		names[ps.Name] = struct{}{}
	}
	if _, clash := names[pset.CustomGeometryName]; clash && f.embedGeometry {
		return models.Entity{}, models.MeshElement{}, fmt.Errorf("element %q: %w: %q is reserved", req.Name, models.ErrDuplicatePropertySetName, pset.CustomGeometryName)
	}

	id := ctx.NextID()
	typeLabel := req.Type
	if typeLabel == "" {
		typeLabel = defaultTypeLabel(req.Kind)
	}

	entity := models.Entity{
		ID:   id,
		Kind: req.Kind,
		Name: req.Name,
		Attributes: map[string]models.Value{
			"ObjectType": models.Label(typeLabel),
		},
	}
	meshElement := models.MeshElement{
		MeshID:   entry.MeshID,
		GUID:     id,
		Type:     req.Kind.String(),
		Color:    colorFor(req.Kind, req.Color),
		Info:     info(req.Name, typeLabel, req.Info),
		Vector:   req.Translation,
		Rotation: req.Rotation,
	}

	sets := req.PropertySets
	if f.embedGeometry {
		geometry, err := f.customGeometry(ctx, entry, meshElement)
		if err != nil {
			return models.Entity{}, models.MeshElement{}, fmt.Errorf("element %q: %w", req.Name, err)
		}
		sets = append(append([]models.PropertySet(nil), sets...), geometry)
	}

	if err := ctx.AddEntity(entity); err != nil {
		return models.Entity{}, models.MeshElement{}, err
	}
	for _, ps := range sets {
		if err := ctx.AttachPropertySet(id, ps); err != nil {
			return models.Entity{}, models.MeshElement{}, err
		}
	}

	return entity, meshElement, nil
}

func (f *Factory) customGeometry(ctx *graph.Context, entry models.MeshEntry, el models.MeshElement) (models.PropertySet, error) {
	fragment := models.MeshDocument{
		Meshes:   []models.MeshEntry{entry},
		Elements: []models.MeshElement{el},
	}
	data, err := json.Marshal(fragment)
	if err != nil {
		return models.PropertySet{}, fmt.Errorf("encode mesh fragment: %w", err)
	}
	return pset.NewBuilder(ctx.IDs()).CustomGeometry(string(data))
}

// ============================================================
// Defaults
// ============================================================

var defaultColors = map[models.Kind]models.Color{
	models.KindWall:   {R: 200, G: 200, B: 200, A: 255},
	models.KindColumn: {R: 150, G: 150, B: 150, A: 255},
	models.KindSlab:   {R: 180, G: 180, B: 170, A: 255},
	models.KindBeam:   {R: 160, G: 140, B: 120, A: 255},
}

var defaultTypeLabels = map[models.Kind]string{
	models.KindWall:   "Standard Wall",
	models.KindColumn: "Concrete Column",
	models.KindSlab:   "Floor Slab",
	models.KindBeam:   "Steel Beam",
}

func colorFor(kind models.Kind, override *models.Color) models.Color {
	if override != nil {
		return *override
	}
	return defaultColors[kind]
}

func defaultTypeLabel(kind models.Kind) string {
	return defaultTypeLabels[kind]
}

func info(name, typeLabel string, extra map[string]string) map[string]string {
	out := make(map[string]string, len(extra)+2)
	for k, v := range extra {
		out[k] = v
	}
	out["Name"] = name
	out["Type"] = typeLabel
	return out
}
