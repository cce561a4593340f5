package spatial

import (
	"fmt"

	"bim-gateway/internal/assembler/graph"
	"bim-gateway/internal/assembler/models"
)

// ============================================================
// Spatial Hierarchy Builder
// ============================================================

// BuildHierarchy creates the single chain project -> site -> building -> storey
// and the three aggregation relationships linking it.
func BuildHierarchy(ctx *graph.Context, spec models.HierarchySpec) (models.Hierarchy, error) {
	project := newSpatial(ctx, models.KindProject, spec.Project)
	site := newSpatial(ctx, models.KindSite, spec.Site)
	building := newSpatial(ctx, models.KindBuilding, spec.Building)
	storey := newSpatial(ctx, models.KindBuildingStorey, spec.Storey)
	storey.Attributes = map[string]models.Value{
		"Elevation": models.Real(spec.Elevation),
	}

	chain := []models.Entity{project, site, building, storey}
	for _, e := range chain {
		if err := ctx.AddEntity(e); err != nil {
			return models.Hierarchy{}, fmt.Errorf("add %s: %w", e.Kind, err)
		}
	}

	h := models.Hierarchy{
		Project:  project,
		Site:     site,
		Building: building,
		Storey:   storey,
	}
	for i := 0; i < len(chain)-1; i++ {
		rel := models.Relationship{
			ID:       ctx.NextID(),
			Kind:     models.KindRelAggregates,
			Relating: chain[i].ID,
			Related:  []string{chain[i+1].ID},
		}
		h.Relationships = append(h.Relationships, rel)
		ctx.AddRelationship(rel)
	}

	if err := ctx.SetHierarchy(h); err != nil {
		return models.Hierarchy{}, err
	}
	return h, nil
}

func newSpatial(ctx *graph.Context, kind models.Kind, name string) models.Entity {
	return models.Entity{
		ID:   ctx.NextID(),
		Kind: kind,
		Name: name,
	}
}

// AttachToStorey relates an element to its containing storey. An element is
// contained exactly once; attaching it again to the same storey returns the
// existing relationship.
func AttachToStorey(ctx *graph.Context, storeyID, elementID string) (models.Relationship, error) {
	storey, ok := ctx.Entity(storeyID)
	if !ok {
		return models.Relationship{}, fmt.Errorf("storey %s: %w", storeyID, models.ErrNotFound)
	}
	if storey.Kind != models.KindBuildingStorey {
		return models.Relationship{}, fmt.Errorf("%w: %s is a %s, not a storey", models.ErrInvalidSpec, storeyID, storey.Kind)
	}

	element, ok := ctx.Entity(elementID)
	if !ok {
		return models.Relationship{}, fmt.Errorf("element %s: %w", elementID, models.ErrNotFound)
	}
	if !element.Kind.IsElement() {
		return models.Relationship{}, fmt.Errorf("%w: %s is a %s, not a physical element", models.ErrInvalidSpec, elementID, element.Kind)
	}

	if existing, contained := ctx.Container(elementID); contained {
		if existing.Relating == storeyID {
			return existing, nil
		}
		return models.Relationship{}, fmt.Errorf("%w: %s is in storey %s", models.ErrAlreadyContained, elementID, existing.Relating)
	}

	rel := models.Relationship{
		ID:       ctx.NextID(),
		Kind:     models.KindRelContainedInSpatialStructure,
		Relating: storeyID,
		Related:  []string{elementID},
	}
	ctx.AttachContainment(elementID, rel)
	return rel, nil
}
