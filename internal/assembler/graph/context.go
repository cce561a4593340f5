package graph

import (
	"fmt"

	"bim-gateway/internal/assembler/ident"
	"bim-gateway/internal/assembler/models"
)

// ============================================================
// Model Context
// ============================================================

// Context is the registry of one model under construction. Every builder
// receives it explicitly; nothing is shared between contexts.
type Context struct {
	ids ident.Generator

	entities      map[string]models.Entity
	elementOrder  []string
	hierarchy     *models.Hierarchy
	propertySets  []models.PropertySet
	relationships []models.Relationship

	containedIn map[string]int             // element id -> index into relationships
	definedBy   map[string]map[string]bool // element id -> attached property set names
	attached    map[string]bool            // property set ids already related
}

func NewContext(ids ident.Generator) *Context {
	return &Context{
		ids:         ids,
		entities:    make(map[string]models.Entity),
		containedIn: make(map[string]int),
		definedBy:   make(map[string]map[string]bool),
		attached:    make(map[string]bool),
	}
}

func (c *Context) NextID() string {
	return c.ids.Next()
}

func (c *Context) IDs() ident.Generator {
	return c.ids
}

// AddEntity registers a spatial or element entity. Reusing an identifier is
// an invariant violation.
func (c *Context) AddEntity(e models.Entity) error {
	if e.ID == "" {
		return fmt.Errorf("%w: %s %q has no identifier", models.ErrConsistency, e.Kind, e.Name)
	}
	if _, exists := c.entities[e.ID]; exists {
		return fmt.Errorf("%w: identifier %s reused", models.ErrConsistency, e.ID)
	}
	if !e.Kind.IsSpatial() && !e.Kind.IsElement() {
		return fmt.Errorf("%w: cannot register %s as entity", models.ErrInvalidSpec, e.Kind)
	}

	c.entities[e.ID] = e
	if e.Kind.IsElement() {
		c.elementOrder = append(c.elementOrder, e.ID)
	}
	return nil
}

func (c *Context) Entity(id string) (models.Entity, bool) {
	e, ok := c.entities[id]
	return e, ok
}

func (c *Context) SetHierarchy(h models.Hierarchy) error {
	if c.hierarchy != nil {
		return fmt.Errorf("%w: spatial hierarchy already built", models.ErrConsistency)
	}
	c.hierarchy = &h
	return nil
}

func (c *Context) Hierarchy() (models.Hierarchy, bool) {
	if c.hierarchy == nil {
		return models.Hierarchy{}, false
	}
	return *c.hierarchy, true
}

func (c *Context) AddRelationship(r models.Relationship) {
	c.relationships = append(c.relationships, r)
}

// ============================================================
// Attach helpers
// ============================================================

// Container returns the containment relationship of an element.
func (c *Context) Container(elementID string) (models.Relationship, bool) {
	idx, ok := c.containedIn[elementID]
	if !ok {
		return models.Relationship{}, false
	}
	return c.relationships[idx], true
}

// AttachContainment records rel as the single containment of elementID.
func (c *Context) AttachContainment(elementID string, rel models.Relationship) {
	c.relationships = append(c.relationships, rel)
	c.containedIn[elementID] = len(c.relationships) - 1
}

// HasPropertySet reports whether a set with that name is attached to the element.
func (c *Context) HasPropertySet(elementID, name string) bool {
	return c.definedBy[elementID][name]
}

// PropertySetAttached reports whether a set with that identifier is already
// related to some element.
func (c *Context) PropertySetAttached(id string) bool {
	return c.attached[id]
}

// AttachPropertySet stores ps and relates it to the element. A set instance
// belongs to exactly one element.
func (c *Context) AttachPropertySet(elementID string, ps models.PropertySet) error {
	if c.PropertySetAttached(ps.ID) {
		return fmt.Errorf("%w: property set %s already attached", models.ErrConsistency, ps.ID)
	}
	if c.HasPropertySet(elementID, ps.Name) {
		return fmt.Errorf("%w: %q on %s", models.ErrDuplicatePropertySetName, ps.Name, elementID)
	}

	names := c.definedBy[elementID]
	if names == nil {
		names = make(map[string]bool)
		c.definedBy[elementID] = names
	}
	names[ps.Name] = true
	c.attached[ps.ID] = true

	c.propertySets = append(c.propertySets, ps)
	c.relationships = append(c.relationships, models.Relationship{
		ID:       c.NextID(),
		Kind:     models.KindRelDefinesByProperties,
		Relating: ps.ID,
		Related:  []string{elementID},
	})
	return nil
}

// ============================================================
// Snapshot
// ============================================================

// Elements returns physical elements in registration order.
func (c *Context) Elements() []models.Entity {
	out := make([]models.Entity, 0, len(c.elementOrder))
	for _, id := range c.elementOrder {
		out = append(out, c.entities[id])
	}
	return out
}

// Graph freezes the context content into an EntityGraph.
func (c *Context) Graph() (*models.EntityGraph, error) {
	h, ok := c.Hierarchy()
	if !ok {
		return nil, fmt.Errorf("%w: spatial hierarchy missing", models.ErrConsistency)
	}
	return &models.EntityGraph{
		Hierarchy:     h,
		Elements:      c.Elements(),
		PropertySets:  append([]models.PropertySet(nil), c.propertySets...),
		Relationships: append([]models.Relationship(nil), c.relationships...),
	}, nil
}
