package scheduler

import (
	"slices"

	"github.com/roach88/workplan/internal/ir"
	"github.com/roach88/workplan/internal/label"
)

// System is a unit of work as registered with a Builder. Planning never
// mutates a System; the report carries its own copy.
type System struct {
	ID     ir.SystemID
	Borrow []ir.TypeInfo

	// Before lists labels of systems this one must run before.
	Before *label.Set
	// After lists labels of systems this one must run after.
	After *label.Set
	// Tags are extra labels other systems may order against.
	Tags *label.Set
}

// NewSystem returns a system with empty label sets.
func NewSystem(name string, typeID ir.TypeID, borrow ...ir.TypeInfo) System {
	return System{
		ID:     ir.SystemID{Name: name, TypeID: typeID},
		Borrow: borrow,
		Before: label.New(),
		After:  label.New(),
		Tags:   label.New(),
	}
}

// RunBefore adds before constraints and returns s for chaining.
func (s System) RunBefore(labels ...label.Label) System {
	s.Before = extend(s.Before, labels)
	return s
}

// RunAfter adds after constraints and returns s for chaining.
func (s System) RunAfter(labels ...label.Label) System {
	s.After = extend(s.After, labels)
	return s
}

// Tag adds tags and returns s for chaining.
func (s System) Tag(labels ...label.Label) System {
	s.Tags = extend(s.Tags, labels)
	return s
}

// Labels returns every label the system answers to: its name, its identity
// and its tags.
func (s System) Labels() *label.Set {
	set := label.NewWithCapacity(2 + s.Tags.Len())
	set.Add(label.Name(s.ID.Name))
	set.Add(label.System(s.ID))
	set.Merge(s.Tags)
	return set
}

// info returns the report's working copy of the system.
func (s System) info() ir.SystemInfo {
	return ir.SystemInfo{
		Name:   s.ID.Name,
		TypeID: s.ID.TypeID,
		Borrow: slices.Clone(s.Borrow),
		Before: s.Before.Strings(),
		After:  s.After.Strings(),
	}
}

// Workload is a named, ordered collection of systems. Systems run in
// declaration order unless before/after constraints say otherwise.
type Workload struct {
	Name    string
	Systems []System

	// Before, After and Tags order workloads among themselves. Before and
	// After are also recorded on every system's report.
	Before *label.Set
	After  *label.Set
	Tags   *label.Set
}

// NewWorkload returns a workload with empty label sets.
func NewWorkload(name string, systems ...System) Workload {
	return Workload{
		Name:    name,
		Systems: systems,
		Before:  label.New(),
		After:   label.New(),
		Tags:    label.New(),
	}
}

// Labels returns every label the workload answers to.
func (w Workload) Labels() *label.Set {
	set := label.NewWithCapacity(1 + w.Tags.Len())
	set.Add(label.Workload(w.Name))
	set.Merge(w.Tags)
	return set
}

// FromSpec converts a loaded workload declaration into a Workload.
// A system without a TypeID gets "<workload>.<system>".
func FromSpec(spec ir.WorkloadSpec) Workload {
	w := NewWorkload(spec.Name)
	w.Before.Extend(label.Names(spec.Before...)...)
	w.After.Extend(label.Names(spec.After...)...)
	w.Tags.Extend(label.Names(spec.Tags...)...)

	for _, ss := range spec.Systems {
		typeID := ss.TypeID
		if typeID == "" {
			typeID = ir.DefaultTypeID(spec.Name, ss.Name)
		}
		sys := NewSystem(ss.Name, typeID, ss.Borrow...).
			RunBefore(label.Names(ss.Before...)...).
			RunAfter(label.Names(ss.After...)...).
			Tag(label.Names(ss.Tags...)...)
		w.Systems = append(w.Systems, sys)
	}
	return w
}

func extend(s *label.Set, labels []label.Label) *label.Set {
	out := s.Clone()
	out.Extend(labels...)
	return out
}
