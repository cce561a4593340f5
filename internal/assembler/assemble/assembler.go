package assemble

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bim-gateway/internal/assembler/element"
	"bim-gateway/internal/assembler/graph"
	"bim-gateway/internal/assembler/ident"
	"bim-gateway/internal/assembler/mesh"
	"bim-gateway/internal/assembler/models"
	"bim-gateway/internal/assembler/pset"
	"bim-gateway/internal/assembler/spatial"
	"bim-gateway/internal/common/metrics"
)

// ============================================================
// Dual-Representation Assembler
// ============================================================

// Recorder receives one observation per Assemble call.
type Recorder interface {
	ObserveAssembly(outcome string, elements int, d time.Duration)
}

type Assembler struct {
	library       *mesh.Library
	newIDs        func() ident.Generator
	embedGeometry bool
	recorder      Recorder
	logger        *zap.Logger
}

type Option func(*Assembler)

// WithIdentifiers sets the generator factory; one generator is created per
// assembly.
func WithIdentifiers(newIDs func() ident.Generator) Option {
	return func(a *Assembler) {
		a.newIDs = newIDs
	}
}

func WithEmbeddedGeometry(enabled bool) Option {
	return func(a *Assembler) {
		a.embedGeometry = enabled
	}
}

func WithRecorder(r Recorder) Option {
	return func(a *Assembler) {
		a.recorder = r
	}
}

func New(library *mesh.Library, logger *zap.Logger, opts ...Option) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Assembler{
		library: library,
		newIDs:  func() ident.Generator { return ident.UUID{} },
		logger:  logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Result is the pair of synchronized representations of one model.
type Result struct {
	Graph *models.EntityGraph  `json:"graph"`
	Mesh  *models.MeshDocument `json:"mesh"`
}

// Assemble builds the entity graph and the mesh document for spec. On any
// error nothing is returned.
func (a *Assembler) Assemble(ctx context.Context, spec models.ModelSpec) (*Result, error) {
	start := time.Now()
	res, err := a.assemble(ctx, spec)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		a.observe(metrics.OutcomeSuccess, len(res.Graph.Elements), elapsed)
		a.logger.Debug("model assembled",
			zap.String("project", spec.Hierarchy.Project),
			zap.Int("elements", len(res.Graph.Elements)),
			zap.Int("meshes", len(res.Mesh.Meshes)),
			zap.Duration("elapsed", elapsed))
	case errors.Is(err, models.ErrConsistency):
		a.observe(metrics.OutcomeDefect, 0, elapsed)
		a.logger.Error("assembler invariant violated",
			zap.String("project", spec.Hierarchy.Project),
			zap.Error(err))
	default:
		a.observe(metrics.OutcomeRejected, 0, elapsed)
		a.logger.Info("model spec rejected",
			zap.String("project", spec.Hierarchy.Project),
			zap.Error(err))
	}
	return res, err
}

func (a *Assembler) assemble(ctx context.Context, spec models.ModelSpec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	mctx := graph.NewContext(a.newIDs())
	hierarchy, err := spatial.BuildHierarchy(mctx, spec.Hierarchy)
	if err != nil {
		return nil, fmt.Errorf("build hierarchy: %w", err)
	}

	psets := pset.NewBuilder(mctx.IDs())
	factory := element.NewFactory(a.library, element.WithEmbeddedGeometry(a.embedGeometry))

	doc := &models.MeshDocument{
		Meshes:   []models.MeshEntry{},
		Elements: make([]models.MeshElement, 0, len(spec.Elements)),
	}
	used := make(map[int]struct{})

	for i, es := range spec.Elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sets, err := psets.BuildAll(es.PropertySets)
		if err != nil {
			return nil, fmt.Errorf("element %d (%s): %w", i, es.Name, err)
		}
		entity, meshElement, err := factory.CreateElement(mctx, element.RequestFromSpec(es, sets))
		if err != nil {
			return nil, fmt.Errorf("element %d (%s): %w", i, es.Name, err)
		}
		if _, err := spatial.AttachToStorey(mctx, hierarchy.Storey.ID, entity.ID); err != nil {
			return nil, fmt.Errorf("element %d (%s): %w", i, es.Name, err)
		}

		doc.Elements = append(doc.Elements, meshElement)
		used[meshElement.MeshID] = struct{}{}
	}

	for _, id := range a.library.IDs() {
		if _, ok := used[id]; !ok {
			continue
		}
		entry, err := a.library.Get(id)
		if err != nil {
			return nil, err
		}
		doc.Meshes = append(doc.Meshes, entry)
	}

	g, err := mctx.Graph()
	if err != nil {
		return nil, err
	}
	if err := CheckConsistency(g, doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrConsistency, err)
	}

	return &Result{Graph: g, Mesh: doc}, nil
}

func (a *Assembler) observe(outcome string, elements int, d time.Duration) {
	if a.recorder == nil {
		return
	}
	a.recorder.ObserveAssembly(outcome, elements, d)
}

// ============================================================
// Consistency
// ============================================================

// CheckConsistency verifies the bijection between physical elements and mesh
// elements, their shared order, and that every element sits in the storey.
func CheckConsistency(g *models.EntityGraph, doc *models.MeshDocument) error {
	if len(g.Elements) != len(doc.Elements) {
		return fmt.Errorf("%w: %d elements vs %d mesh elements", models.ErrConsistency, len(g.Elements), len(doc.Elements))
	}

	entities := make(map[string]struct{}, len(g.Elements))
	for _, e := range g.Elements {
		entities[e.ID] = struct{}{}
	}
	if len(entities) != len(g.Elements) {
		return fmt.Errorf("%w: duplicate element identifiers", models.ErrConsistency)
	}

	for i, me := range doc.Elements {
		if _, ok := entities[me.GUID]; !ok {
			return fmt.Errorf("%w: mesh element %s has no entity", models.ErrConsistency, me.GUID)
		}
		delete(entities, me.GUID)

		e := g.Elements[i]
		if e.ID != me.GUID {
			return fmt.Errorf("%w: position %d holds %s and %s", models.ErrConsistency, i, e.ID, me.GUID)
		}
		if e.Kind.String() != me.Type {
			return fmt.Errorf("%w: %s is %s but mesh type is %s", models.ErrConsistency, e.ID, e.Kind, me.Type)
		}
		if storey, ok := g.ContainerOf(e.ID); !ok || storey != g.Hierarchy.Storey.ID {
			return fmt.Errorf("%w: %s not contained in storey", models.ErrConsistency, e.ID)
		}
	}
	if len(entities) != 0 {
		return fmt.Errorf("%w: %d entities without mesh element", models.ErrConsistency, len(entities))
	}
	return nil
}
