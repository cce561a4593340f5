package models

import (
	"fmt"
	"strings"
)

// ============================================================
// Entity kinds
// ============================================================

// Kind is the closed set of schema entity types the assembler produces.
type Kind int

const (
	KindUnknown Kind = iota
	KindProject
	KindSite
	KindBuilding
	KindBuildingStorey
	KindWall
	KindColumn
	KindSlab
	KindBeam
	KindPropertySet
	KindRelAggregates
	KindRelContainedInSpatialStructure
	KindRelDefinesByProperties
)

var kindNames = map[Kind]string{
	KindProject:                        "IfcProject",
	KindSite:                           "IfcSite",
	KindBuilding:                       "IfcBuilding",
	KindBuildingStorey:                 "IfcBuildingStorey",
	KindWall:                           "IfcWall",
	KindColumn:                         "IfcColumn",
	KindSlab:                           "IfcSlab",
	KindBeam:                           "IfcBeam",
	KindPropertySet:                    "IfcPropertySet",
	KindRelAggregates:                  "IfcRelAggregates",
	KindRelContainedInSpatialStructure: "IfcRelContainedInSpatialStructure",
	KindRelDefinesByProperties:         "IfcRelDefinesByProperties",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsSpatial reports whether k is a level of the spatial hierarchy.
func (k Kind) IsSpatial() bool {
	switch k {
	case KindProject, KindSite, KindBuilding, KindBuildingStorey:
		return true
	}
	return false
}

// IsElement reports whether k is a physical building element.
func (k Kind) IsElement() bool {
	switch k {
	case KindWall, KindColumn, KindSlab, KindBeam:
		return true
	}
	return false
}

func (k Kind) IsRelationship() bool {
	switch k {
	case KindRelAggregates, KindRelContainedInSpatialStructure, KindRelDefinesByProperties:
		return true
	}
	return false
}

// ParseElementKind accepts "IfcWall", "Wall" or "wall".
func ParseElementKind(s string) (Kind, error) {
	needle := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "Ifc"))
	for k, name := range kindNames {
		if !k.IsElement() {
			continue
		}
		if strings.ToLower(strings.TrimPrefix(name, "Ifc")) == needle {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: unknown element kind %q", ErrInvalidSpec, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("marshal kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText only admits element kinds: spatial and relationship
// entities are never declared by callers.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseElementKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ============================================================
// Entity graph
// ============================================================

type Entity struct {
	ID         string           `json:"id"`
	Kind       Kind             `json:"kind"`
	Name       string           `json:"name"`
	Attributes map[string]Value `json:"attributes,omitempty"`
}

// Relationship is a typed edge: Relating contains or is defined for Related.
type Relationship struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Relating string   `json:"relating"`
	Related  []string `json:"related"`
}

type Property struct {
	Name  string `json:"name" yaml:"name"`
	Value Value  `json:"value" yaml:"value"`
}

type PropertySet struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`
}

// Lookup returns the property with the given name.
func (ps PropertySet) Lookup(name string) (Value, bool) {
	for _, p := range ps.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return Value{}, false
}

type Hierarchy struct {
	Project       Entity         `json:"project"`
	Site          Entity         `json:"site"`
	Building      Entity         `json:"building"`
	Storey        Entity         `json:"building_storey"`
	Relationships []Relationship `json:"relationships"`
}

// EntityGraph is the finished semantic model handed to writers.
type EntityGraph struct {
	Hierarchy     Hierarchy      `json:"hierarchy"`
	Elements      []Entity       `json:"elements"`
	PropertySets  []PropertySet  `json:"property_sets"`
	Relationships []Relationship `json:"relationships"`
}

// Entity finds any entity of the graph by identifier.
func (g *EntityGraph) Entity(id string) (Entity, bool) {
	h := g.Hierarchy
	for _, e := range []Entity{h.Project, h.Site, h.Building, h.Storey} {
		if e.ID == id {
			return e, true
		}
	}
	for _, e := range g.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// PropertySetsOf returns the property sets attached to an element, in attachment order.
func (g *EntityGraph) PropertySetsOf(elementID string) []PropertySet {
	byID := make(map[string]PropertySet, len(g.PropertySets))
	for _, ps := range g.PropertySets {
		byID[ps.ID] = ps
	}

	var out []PropertySet
	for _, rel := range g.Relationships {
		if rel.Kind != KindRelDefinesByProperties {
			continue
		}
		for _, id := range rel.Related {
			if id == elementID {
				if ps, ok := byID[rel.Relating]; ok {
					out = append(out, ps)
				}
			}
		}
	}
	return out
}

// ContainerOf returns the storey containing the element.
func (g *EntityGraph) ContainerOf(elementID string) (string, bool) {
	for _, rel := range g.Relationships {
		if rel.Kind != KindRelContainedInSpatialStructure {
			continue
		}
		for _, id := range rel.Related {
			if id == elementID {
				return rel.Relating, true
			}
		}
	}
	return "", false
}
