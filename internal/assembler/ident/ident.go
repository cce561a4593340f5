package ident

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator hands out identifiers unique across a model.
type Generator interface {
	Next() string
}

// UUID generates random version 4 identifiers in canonical form.
// Safe for concurrent use.
type UUID struct{}

func (UUID) Next() string {
	return uuid.NewString()
}

// Sequence yields predictable UUID-shaped identifiers, for tests and
// reproducible fixtures.
type Sequence struct {
	n atomic.Uint64
}

func NewSequence() *Sequence {
	return &Sequence{}
}

func (s *Sequence) Next() string {
	n := s.n.Add(1)
	return fmt.Sprintf("00000000-0000-4000-8000-%012x", n)
}
