package ir

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// SystemInfo is the report's copy of a system: its identity, its storage
// accesses in declared order, the ordering constraints it was planned under
// and, when it could not join the batch before it, the reason.
type SystemInfo struct {
	Name   string     `json:"name"`
	TypeID TypeID     `json:"type_id"`
	Borrow []TypeInfo `json:"borrow"`
	// Conflict explains why this system could not be part of the previous
	// batch. Nil for systems that opened an empty batch or joined one.
	Conflict Conflict `json:"conflict,omitempty"`
	Before   []string `json:"before"`
	After    []string `json:"after"`
}

// ID returns the system's identity.
func (s SystemInfo) ID() SystemID {
	return SystemID{Name: s.Name, TypeID: s.TypeID}
}

// ThreadImmobile returns the first access to a storage that is not
// thread-mobile.
func (s SystemInfo) ThreadImmobile() (TypeInfo, bool) {
	for _, t := range s.Borrow {
		if !t.ThreadMobile {
			return t, true
		}
	}
	return TypeInfo{}, false
}

// Equal compares two systems structurally. Borrow entries use TypeInfo
// equality and the conflict uses ConflictsEqual.
func (s SystemInfo) Equal(o SystemInfo) bool {
	return s.Name == o.Name &&
		s.TypeID == o.TypeID &&
		slices.EqualFunc(s.Borrow, o.Borrow, TypeInfo.Equal) &&
		ConflictsEqual(s.Conflict, o.Conflict) &&
		slices.Equal(s.Before, o.Before) &&
		slices.Equal(s.After, o.After)
}

func (s SystemInfo) String() string {
	if s.Conflict != nil {
		return fmt.Sprintf("%s %v (conflict: %v)", s.Name, s.Borrow, s.Conflict)
	}
	return fmt.Sprintf("%s %v", s.Name, s.Borrow)
}

// UnmarshalJSON decodes the Conflict interface field by its kind.
func (s *SystemInfo) UnmarshalJSON(data []byte) error {
	type plain SystemInfo
	var aux struct {
		*plain
		Conflict json.RawMessage `json:"conflict,omitempty"`
	}
	aux.plain = (*plain)(s)
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Conflict = nil
	if len(aux.Conflict) > 0 && string(aux.Conflict) != "null" {
		c, err := UnmarshalConflict(aux.Conflict)
		if err != nil {
			return fmt.Errorf("system %s: %w", s.Name, err)
		}
		s.Conflict = c
	}
	return nil
}

// BatchInfo is a group of systems that run together before the next batch
// starts. Either Solo is set and Parallel is empty, or Solo is nil and every
// pair of Parallel members may run concurrently.
type BatchInfo struct {
	Solo     *SystemInfo  `json:"solo,omitempty"`
	Parallel []SystemInfo `json:"parallel"`
}

// Systems returns every member of the batch, solo first.
func (b BatchInfo) Systems() []SystemInfo {
	out := make([]SystemInfo, 0, len(b.Parallel)+1)
	if b.Solo != nil {
		out = append(out, *b.Solo)
	}
	return append(out, b.Parallel...)
}

// Len returns the number of systems in the batch.
func (b BatchInfo) Len() int {
	if b.Solo != nil {
		return 1 + len(b.Parallel)
	}
	return len(b.Parallel)
}

// IsEmpty reports whether the batch has no members.
func (b BatchInfo) IsEmpty() bool {
	return b.Len() == 0
}

// Equal compares two batches structurally.
func (b BatchInfo) Equal(o BatchInfo) bool {
	if (b.Solo == nil) != (o.Solo == nil) {
		return false
	}
	if b.Solo != nil && !b.Solo.Equal(*o.Solo) {
		return false
	}
	return slices.EqualFunc(b.Parallel, o.Parallel, SystemInfo.Equal)
}

// WorkloadInfo is the planned schedule for one named workload.
type WorkloadInfo struct {
	Name    string      `json:"name"`
	Batches []BatchInfo `json:"batch_info"`
}

// Equal compares two reports structurally.
func (w WorkloadInfo) Equal(o WorkloadInfo) bool {
	return w.Name == o.Name && slices.EqualFunc(w.Batches, o.Batches, BatchInfo.Equal)
}

// Find returns the batch index and copy of the system with the given name.
func (w WorkloadInfo) Find(name string) (int, SystemInfo, bool) {
	for i, b := range w.Batches {
		for _, s := range b.Systems() {
			if s.Name == name {
				return i, s, true
			}
		}
	}
	return -1, SystemInfo{}, false
}

// SystemCount returns the number of systems across all batches.
func (w WorkloadInfo) SystemCount() int {
	n := 0
	for _, b := range w.Batches {
		n += b.Len()
	}
	return n
}

// WorkloadsInfo holds the reports of every built workload, keyed by name.
type WorkloadsInfo map[string]WorkloadInfo

// Names returns the workload names in sorted order.
func (w WorkloadsInfo) Names() []string {
	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
