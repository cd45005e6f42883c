package ir

// WorkloadSpec is a workload declaration as loaded from CUE or HCL.
// Systems keep their declared order; ordering labels are raw label text.
type WorkloadSpec struct {
	Name    string       `json:"name"`
	Before  []string     `json:"before"`
	After   []string     `json:"after"`
	Tags    []string     `json:"tags"`
	Systems []SystemSpec `json:"systems"`
}

// SystemSpec is a system declaration within a WorkloadSpec.
type SystemSpec struct {
	Name   string     `json:"name"`
	TypeID TypeID     `json:"type_id"`
	Borrow []TypeInfo `json:"borrow"`
	Before []string   `json:"before"`
	After  []string   `json:"after"`
	Tags   []string   `json:"tags"`
}

// StorageSpec declares a data store. Accesses name storages by ID; the
// declaration supplies the display name and thread mobility.
type StorageSpec struct {
	ID           StorageID `json:"id"`
	Name         string    `json:"name"`
	ThreadMobile bool      `json:"thread_mobile"`
}

// Canonical returns the canonical form of a system declaration.
func (s SystemSpec) Canonical() map[string]any {
	borrow := make([]any, len(s.Borrow))
	for i, t := range s.Borrow {
		borrow[i] = t.Canonical()
	}
	return map[string]any{
		"name":    s.Name,
		"type_id": string(s.TypeID),
		"borrow":  borrow,
		"before":  nonNil(s.Before),
		"after":   nonNil(s.After),
		"tags":    nonNil(s.Tags),
	}
}

// Canonical returns the canonical form of a workload declaration.
func (w WorkloadSpec) Canonical() map[string]any {
	systems := make([]any, len(w.Systems))
	for i, s := range w.Systems {
		systems[i] = s.Canonical()
	}
	return map[string]any{
		"name":    w.Name,
		"before":  nonNil(w.Before),
		"after":   nonNil(w.After),
		"tags":    nonNil(w.Tags),
		"systems": systems,
	}
}
