package models

import "time"

// ============================================================
// Stored models
// ============================================================

// ModelRecord is an assembled model as persisted by the repository.
type ModelRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Elements     int       `json:"elements"`
	PropertySets int       `json:"property_sets"`
	IFC          string    `json:"-"`
	Mesh         []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
