package compiler

import (
	"fmt"
	"slices"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/workplan/internal/ir"
)

// Storages maps storage id to its declaration.
type Storages map[ir.StorageID]ir.StorageSpec

// Resolve returns the access descriptor for storage under mode. Undeclared
// storages are treated as thread-mobile and named by their id; Validate
// reports them. AllStorages never needs declaring.
func (s Storages) Resolve(storage ir.StorageID, mode ir.AccessMode) ir.TypeInfo {
	t := ir.TypeInfo{Name: string(storage), Mode: mode, StorageID: storage, ThreadMobile: true}
	if decl, ok := s[storage]; ok {
		if decl.Name != "" {
			t.Name = decl.Name
		}
		t.ThreadMobile = decl.ThreadMobile
	}
	return t
}

// Merge adds other's declarations to s. Redeclaring an id is allowed only
// when both declarations agree.
func (s Storages) Merge(other Storages) error {
	ids := make([]ir.StorageID, 0, len(other))
	for id := range other {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		decl := other[id]
		if prev, ok := s[id]; ok && prev != decl {
			return &CompileError{
				Field:   "storage",
				Message: fmt.Sprintf("storage %s declared twice with different settings (name %q thread_mobile %t, name %q thread_mobile %t)", id, prev.Name, prev.ThreadMobile, decl.Name, decl.ThreadMobile),
			}
		}
		s[id] = decl
	}
	return nil
}

// CompileStorages parses the storage declarations under v, e.g.:
//
//	storage: {
//		pos:    {name: "Position"}
//		window: {thread_mobile: false}
//	}
//
// thread_mobile defaults to true.
func CompileStorages(v cue.Value) (Storages, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	out := make(Storages)
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		id := ir.StorageID(iter.Label())
		spec := ir.StorageSpec{ID: id, ThreadMobile: true}

		if nameVal := iter.Value().LookupPath(cue.ParsePath("name")); nameVal.Exists() {
			name, err := nameVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			spec.Name = name
		}
		if tmVal := iter.Value().LookupPath(cue.ParsePath("thread_mobile")); tmVal.Exists() {
			tm, err := tmVal.Bool()
			if err != nil {
				return nil, formatCUEError(err)
			}
			spec.ThreadMobile = tm
		}
		out[id] = spec
	}
	return out, nil
}

// CompileWorkload parses a CUE value into a WorkloadSpec.
//
// The CUE value should be the workload struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`workload: physics: { systems: [...] }`)
//	spec, err := CompileWorkload(v.LookupPath(cue.ParsePath("workload.physics")), storages)
//
// Accesses resolve their display name and thread mobility through storages.
func CompileWorkload(v cue.Value, storages Storages) (*ir.WorkloadSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.WorkloadSpec{}

	// Workload name comes from the struct label.
	selectors := v.Path().Selectors()
	if len(selectors) > 0 {
		spec.Name = selectors[len(selectors)-1].String()
		if unquoted, err := strconv.Unquote(spec.Name); err == nil {
			spec.Name = unquoted
		}
	}

	var err error
	if spec.Before, err = stringList(v, "before"); err != nil {
		return nil, err
	}
	if spec.After, err = stringList(v, "after"); err != nil {
		return nil, err
	}
	if spec.Tags, err = stringList(v, "tags"); err != nil {
		return nil, err
	}

	systemsVal := v.LookupPath(cue.ParsePath("systems"))
	if !systemsVal.Exists() {
		return nil, &CompileError{
			Field:   "systems",
			Message: "systems list is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := systemsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		sys, err := compileSystem(iter.Value(), spec.Name, storages)
		if err != nil {
			return nil, err
		}
		spec.Systems = append(spec.Systems, sys)
	}

	return spec, nil
}

func compileSystem(v cue.Value, workload string, storages Storages) (ir.SystemSpec, error) {
	var sys ir.SystemSpec

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return sys, &CompileError{
			Field:   "system.name",
			Message: "system name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return sys, formatCUEError(err)
	}
	sys.Name = name

	sys.TypeID = ir.DefaultTypeID(workload, name)
	if idVal := v.LookupPath(cue.ParsePath("type_id")); idVal.Exists() {
		id, err := idVal.String()
		if err != nil {
			return sys, formatCUEError(err)
		}
		sys.TypeID = ir.TypeID(id)
	}

	if sys.Before, err = stringList(v, "before"); err != nil {
		return sys, err
	}
	if sys.After, err = stringList(v, "after"); err != nil {
		return sys, err
	}
	if sys.Tags, err = stringList(v, "tags"); err != nil {
		return sys, err
	}

	borrowVal := v.LookupPath(cue.ParsePath("borrow"))
	if !borrowVal.Exists() {
		return sys, nil
	}
	iter, err := borrowVal.List()
	if err != nil {
		return sys, formatCUEError(err)
	}
	for iter.Next() {
		t, err := compileAccess(iter.Value(), storages)
		if err != nil {
			return sys, err
		}
		sys.Borrow = append(sys.Borrow, t)
	}
	return sys, nil
}

// compileAccess parses {storage: "pos", mode: "exclusive"}. mode defaults
// to shared.
func compileAccess(v cue.Value, storages Storages) (ir.TypeInfo, error) {
	storageVal := v.LookupPath(cue.ParsePath("storage"))
	if !storageVal.Exists() {
		return ir.TypeInfo{}, &CompileError{
			Field:   "borrow.storage",
			Message: "storage is required",
			Pos:     v.Pos(),
		}
	}
	storage, err := storageVal.String()
	if err != nil {
		return ir.TypeInfo{}, formatCUEError(err)
	}

	mode := ir.Shared
	if modeVal := v.LookupPath(cue.ParsePath("mode")); modeVal.Exists() {
		text, err := modeVal.String()
		if err != nil {
			return ir.TypeInfo{}, formatCUEError(err)
		}
		if mode, err = ir.ParseAccessMode(text); err != nil {
			return ir.TypeInfo{}, &CompileError{
				Field:   "borrow.mode",
				Message: err.Error(),
				Pos:     modeVal.Pos(),
			}
		}
	}

	return storages.Resolve(ir.StorageID(storage), mode), nil
}

// stringList reads an optional list of strings at field.
func stringList(v cue.Value, field string) ([]string, error) {
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return []string{}, nil
	}
	iter, err := val.List()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: "must be a list of strings",
			Pos:     val.Pos(),
		}
	}
	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("label must be a string: %v", err),
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
