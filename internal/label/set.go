package label

import (
	"iter"
	"slices"
)

// Set is an insertion-ordered collection of labels with no two members
// sharing canonical text. The zero value is an empty set ready to use.
//
// Set is not safe for concurrent mutation.
type Set struct {
	labels []Label
	index  map[string]struct{}
}

// New returns a set holding labels in first-occurrence order.
func New(labels ...Label) *Set {
	s := NewWithCapacity(len(labels))
	s.Extend(labels...)
	return s
}

// NewWithCapacity returns an empty set with room for n labels.
func NewWithCapacity(n int) *Set {
	return &Set{
		labels: make([]Label, 0, n),
		index:  make(map[string]struct{}, n),
	}
}

// Add inserts l unless a label with the same canonical text is present.
// It reports whether l was inserted.
func (s *Set) Add(l Label) bool {
	key := Canonical(l)
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.labels = append(s.labels, l)
	return true
}

// Contains reports whether a label with l's canonical text is present.
func (s *Set) Contains(l Label) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[Canonical(l)]
	return ok
}

// ContainsText reports whether a label with the given canonical text is
// present.
func (s *Set) ContainsText(text string) bool {
	return s.Contains(Name(text))
}

// Retain keeps only the labels for which keep returns true, preserving
// their relative order.
func (s *Set) Retain(keep func(Label) bool) {
	if s == nil {
		return
	}
	s.labels = slices.DeleteFunc(s.labels, func(l Label) bool {
		if keep(l) {
			return false
		}
		delete(s.index, Canonical(l))
		return true
	})
}

// All iterates the labels in insertion order. The sequence may be ranged
// over any number of times.
func (s *Set) All() iter.Seq[Label] {
	return func(yield func(Label) bool) {
		if s == nil {
			return
		}
		for _, l := range s.labels {
			if !yield(l) {
				return
			}
		}
	}
}

// Strings returns the canonical text of every label in insertion order.
// The result is never nil.
func (s *Set) Strings() []string {
	out := make([]string, 0, s.Len())
	for l := range s.All() {
		out = append(out, Canonical(l))
	}
	return out
}

// Labels returns a copy of the labels in insertion order.
func (s *Set) Labels() []Label {
	if s == nil {
		return nil
	}
	return slices.Clone(s.labels)
}

// Extend adds every label in order, skipping duplicates.
func (s *Set) Extend(labels ...Label) {
	for _, l := range labels {
		s.Add(l)
	}
}

// Merge adds every label of other in its insertion order.
func (s *Set) Merge(other *Set) {
	for l := range other.All() {
		s.Add(l)
	}
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	c := NewWithCapacity(s.Len())
	c.Merge(s)
	return c
}

// Clear removes every label.
func (s *Set) Clear() {
	if s == nil {
		return
	}
	s.labels = s.labels[:0]
	clear(s.index)
}

// Len returns the number of labels.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// IsEmpty reports whether the set has no labels.
func (s *Set) IsEmpty() bool {
	return s.Len() == 0
}
