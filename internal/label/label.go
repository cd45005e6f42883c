// Package label provides ordering labels and the deduplicated label set that
// systems and workloads use to declare before/after constraints.
//
// A label is identified by its canonical text: the NFC-normalized Key. Two
// labels of different kinds with the same key are the same label, which lets
// a "before: move" constraint written as plain text match the system named
// move.
package label

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/workplan/internal/ir"
)

// Label is an ordering tag. Key is the identity used for deduplication and
// matching; String is for display.
type Label interface {
	Key() string
	String() string
}

// Canonical returns the canonical text of l.
func Canonical(l Label) string {
	return norm.NFC.String(l.Key())
}

// Name is a free-form text label.
type Name string

// Key implements Label.
func (n Name) Key() string { return string(n) }

func (n Name) String() string { return string(n) }

// System labels a specific system by identity. Its key is the TypeID, so it
// matches however the system is displayed.
type System ir.SystemID

// Key implements Label.
func (s System) Key() string { return string(s.TypeID) }

func (s System) String() string {
	if s.Name == "" {
		return string(s.TypeID)
	}
	return s.Name
}

// Workload labels a workload by name.
type Workload string

// Key implements Label.
func (w Workload) Key() string { return string(w) }

func (w Workload) String() string { return string(w) }

// Names converts raw label text to Name labels.
func Names(texts ...string) []Label {
	out := make([]Label, len(texts))
	for i, t := range texts {
		out[i] = Name(t)
	}
	return out
}
