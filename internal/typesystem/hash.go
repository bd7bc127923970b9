package typesystem

import (
	"iter"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Hash returns a hash consistent with Type.Equals: equal types hash equally.
func Hash(t Type) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(t.Kind().String())
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(t.ReflectionName())
	return d.Sum64()
}

// TypeSet is an insertion-ordered set of types under Type.Equals.
type TypeSet struct {
	buckets map[uint64][]Type
	order   []Type
}

// NewTypeSet creates a set holding the given types.
func NewTypeSet(types ...Type) *TypeSet {
	s := &TypeSet{buckets: make(map[uint64][]Type)}
	for _, t := range types {
		s.Add(t)
	}
	return s
}

// Add inserts t and reports whether it was not already present.
func (s *TypeSet) Add(t Type) bool {
	h := Hash(t)
	for _, existing := range s.buckets[h] {
		if existing.Equals(t) {
			return false
		}
	}
	s.buckets[h] = append(s.buckets[h], t)
	s.order = append(s.order, t)
	return true
}

// Contains reports whether a type equal to t is present.
func (s *TypeSet) Contains(t Type) bool {
	for _, existing := range s.buckets[Hash(t)] {
		if existing.Equals(t) {
			return true
		}
	}
	return false
}

// Len returns the number of types.
func (s *TypeSet) Len() int { return len(s.order) }

// Slice returns the types in insertion order.
func (s *TypeSet) Slice() []Type { return slices.Clone(s.order) }

// All yields the types in insertion order.
func (s *TypeSet) All() iter.Seq[Type] { return slices.Values(s.order) }
