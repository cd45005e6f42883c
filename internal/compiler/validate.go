package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/workplan/internal/ir"
	"github.com/roach88/workplan/internal/label"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported type for validation

	// Workload errors (E101-E109)
	ErrWorkloadNameInvalid = "E101" // workload name empty or malformed
	ErrSystemNameInvalid   = "E102" // system name empty or malformed
	ErrDuplicateSystem     = "E103" // duplicate system name in workload
	ErrDuplicateTypeID     = "E104" // duplicate type id in workload
	ErrUnknownStorage      = "E105" // access names an undeclared storage
	ErrDuplicateAccess     = "E106" // same storage borrowed twice by one system
	ErrDanglingLabel       = "E107" // system before/after matches no system

	// Cross-workload errors (E110-E119)
	ErrDuplicateWorkload     = "E110" // two workloads share a name
	ErrDanglingWorkloadLabel = "E111" // workload before/after matches no workload
	ErrConflictingStorage    = "E112" // one storage id declared with different settings
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// namePattern allows identifiers with dots and dashes, e.g. "physics.move".
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// Validate validates a compiled workload against schema rules.
// Returns all errors found (does not fail-fast).
// storages may be nil, in which case storage references are not checked.
func Validate(v any, storages Storages) []ValidationError {
	switch spec := v.(type) {
	case *ir.WorkloadSpec:
		return validateWorkload(spec, storages)
	case ir.WorkloadSpec:
		return validateWorkload(&spec, storages)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

// ValidateAll validates every workload and the constraints between them.
func ValidateAll(specs []ir.WorkloadSpec, storages Storages) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]bool)
	workloadLabels := make([]*label.Set, len(specs))
	for i, spec := range specs {
		errs = append(errs, validateWorkload(&spec, storages)...)

		// E110: duplicate workload name
		if seen[spec.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("workload.%s", spec.Name),
				Message: fmt.Sprintf("duplicate workload name: %q", spec.Name),
				Code:    ErrDuplicateWorkload,
			})
		}
		seen[spec.Name] = true

		workloadLabels[i] = label.New(label.Workload(spec.Name))
		workloadLabels[i].Extend(label.Names(spec.Tags...)...)
	}

	// E111: workload-level before/after must match some workload
	for _, spec := range specs {
		for _, field := range []struct {
			name   string
			labels []string
		}{{"before", spec.Before}, {"after", spec.After}} {
			for _, text := range field.labels {
				if !anyContains(workloadLabels, text) {
					errs = append(errs, ValidationError{
						Field:   fmt.Sprintf("workload.%s.%s", spec.Name, field.name),
						Message: fmt.Sprintf("label %q matches no workload", text),
						Code:    ErrDanglingWorkloadLabel,
					})
				}
			}
		}
	}

	return errs
}

// validateWorkload validates one workload declaration.
func validateWorkload(spec *ir.WorkloadSpec, storages Storages) []ValidationError {
	var errs []ValidationError

	// E101: workload name
	if !namePattern.MatchString(spec.Name) {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("invalid workload name %q", spec.Name),
			Code:    ErrWorkloadNameInvalid,
		})
	}

	names := make(map[string]bool)
	typeIDs := make(map[ir.TypeID]bool)
	systemLabels := make([]*label.Set, len(spec.Systems))

	for i, sys := range spec.Systems {
		path := fmt.Sprintf("workload.%s.systems[%d]", spec.Name, i)

		// E102: system name
		if !namePattern.MatchString(sys.Name) {
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: fmt.Sprintf("invalid system name %q", sys.Name),
				Code:    ErrSystemNameInvalid,
			})
		}

		// E103: duplicate system name
		if names[sys.Name] {
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: fmt.Sprintf("duplicate system name: %q", sys.Name),
				Code:    ErrDuplicateSystem,
			})
		}
		names[sys.Name] = true

		// E104: duplicate type id
		if strings.TrimSpace(string(sys.TypeID)) != "" {
			if typeIDs[sys.TypeID] {
				errs = append(errs, ValidationError{
					Field:   path + ".type_id",
					Message: fmt.Sprintf("duplicate type id: %q", sys.TypeID),
					Code:    ErrDuplicateTypeID,
				})
			}
			typeIDs[sys.TypeID] = true
		}

		borrowed := make(map[ir.StorageID]bool)
		for j, t := range sys.Borrow {
			field := fmt.Sprintf("%s.borrow[%d]", path, j)

			// E105: storage must be declared
			if storages != nil && t.StorageID != ir.AllStorages {
				if _, ok := storages[t.StorageID]; !ok {
					errs = append(errs, ValidationError{
						Field:   field,
						Message: fmt.Sprintf("unknown storage %q", t.StorageID),
						Code:    ErrUnknownStorage,
					})
				}
			}

			// E106: one access per storage
			if borrowed[t.StorageID] {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("storage %q borrowed more than once", t.StorageID),
					Code:    ErrDuplicateAccess,
				})
			}
			borrowed[t.StorageID] = true
		}

		systemLabels[i] = label.New(label.Name(sys.Name), label.System(ir.SystemID{Name: sys.Name, TypeID: sys.TypeID}))
		systemLabels[i].Extend(label.Names(sys.Tags...)...)
	}

	// E107: system before/after must match some system in the workload
	for i, sys := range spec.Systems {
		path := fmt.Sprintf("workload.%s.systems[%d]", spec.Name, i)
		for _, field := range []struct {
			name   string
			labels []string
		}{{"before", sys.Before}, {"after", sys.After}} {
			for _, text := range field.labels {
				if !anyContains(systemLabels, text) {
					errs = append(errs, ValidationError{
						Field:   fmt.Sprintf("%s.%s", path, field.name),
						Message: fmt.Sprintf("label %q matches no system", text),
						Code:    ErrDanglingLabel,
					})
				}
			}
		}
	}

	return errs
}

func anyContains(sets []*label.Set, text string) bool {
	for _, set := range sets {
		if set.ContainsText(text) {
			return true
		}
	}
	return false
}
