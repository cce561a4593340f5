package models

import (
	"fmt"
	"strings"
)

// ============================================================
// Declarative model description
// ============================================================

type ModelSpec struct {
	Hierarchy HierarchySpec `json:"hierarchy" yaml:"hierarchy"`
	Elements  []ElementSpec `json:"elements" yaml:"elements"`
}

type HierarchySpec struct {
	Project   string  `json:"project" yaml:"project"`
	Site      string  `json:"site" yaml:"site"`
	Building  string  `json:"building" yaml:"building"`
	Storey    string  `json:"storey" yaml:"storey"`
	Elevation float64 `json:"elevation" yaml:"elevation"`
}

type ElementSpec struct {
	Kind         Kind              `json:"kind" yaml:"kind"`
	Name         string            `json:"name" yaml:"name"`
	Type         string            `json:"type,omitempty" yaml:"type,omitempty"` // free-form type label, e.g. "Standard Wall"
	MeshID       int               `json:"mesh_id" yaml:"mesh_id"`
	Color        *Color            `json:"color,omitempty" yaml:"color,omitempty"`
	Info         map[string]string `json:"info,omitempty" yaml:"info,omitempty"`
	Translation  Vector            `json:"translation" yaml:"translation"`
	Rotation     *Quaternion       `json:"rotation,omitempty" yaml:"rotation,omitempty"` // nil means identity
	PropertySets []PropertySetSpec `json:"property_sets,omitempty" yaml:"property_sets,omitempty"`
}

type PropertySetSpec struct {
	Name       string     `json:"name" yaml:"name"`
	Properties []Property `json:"properties" yaml:"properties"`
}

// Validate checks the shape of the description, including that every number
// is finite. Semantic rules (mesh references, duplicate names, rotations) are
// enforced during assembly.
func (s ModelSpec) Validate() error {
	h := s.Hierarchy
	levels := []struct{ level, name string }{
		{"project", h.Project},
		{"site", h.Site},
		{"building", h.Building},
		{"storey", h.Storey},
	}
	for _, l := range levels {
		if strings.TrimSpace(l.name) == "" {
			return fmt.Errorf("%w: %s name required", ErrInvalidSpec, l.level)
		}
	}
	if !isFinite(h.Elevation) {
		return fmt.Errorf("%w: storey elevation %g is not finite", ErrInvalidSpec, h.Elevation)
	}

	for i, e := range s.Elements {
		if !e.Kind.IsElement() {
			return fmt.Errorf("%w: element %d has kind %s", ErrInvalidSpec, i, e.Kind)
		}
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("%w: element %d name required", ErrInvalidSpec, i)
		}
		if err := e.Translation.Validate(); err != nil {
			return fmt.Errorf("element %q translation: %w", e.Name, err)
		}
		for _, ps := range e.PropertySets {
			for _, p := range ps.Properties {
				if err := p.Value.Validate(); err != nil {
					return fmt.Errorf("element %q property %s.%s: %w", e.Name, ps.Name, p.Name, err)
				}
			}
		}
	}
	return nil
}
