package models

import "errors"

var (
	ErrMalformedMesh            = errors.New("malformed mesh")
	ErrNotFound                 = errors.New("not found")
	ErrDuplicatePropertyName    = errors.New("duplicate property name")
	ErrDuplicatePropertySetName = errors.New("duplicate property set name")
	ErrAlreadyContained         = errors.New("element already contained in another storey")
	ErrInvalidRotation          = errors.New("rotation is not a unit quaternion")
	ErrInvalidSpec              = errors.New("invalid model spec")

	// ErrConsistency marks a broken internal invariant of the assembler,
	// never a problem with caller input.
	ErrConsistency = errors.New("entity graph and mesh document are inconsistent")
)
