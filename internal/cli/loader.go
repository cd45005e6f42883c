package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/workplan/internal/compiler"
	"github.com/roach88/workplan/internal/ir"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the workloads loaded from a specs directory.
type LoadResult struct {
	Storages  compiler.Storages
	Workloads []ir.WorkloadSpec
	FileCount int // Number of CUE and HCL files found
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE or HCL files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // Archive write error
	ErrCodeHCLFailed   = "E008" // HCL parse or decode failed
	ErrCodeNoWorkloads = "E009" // Specs declare no workloads
)

// LoadWorkloads loads storage and workload declarations from every .cue and
// .hcl file under dir. The CUE files form one package; HCL files are decoded
// together. Storages from both front ends are merged first, and every
// workload is then compiled against the merged set.
func LoadWorkloads(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, hclFiles, err := FindSpecFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 && len(hclFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE or HCL files found in %s", dir)}}
	}

	result := &LoadResult{
		Storages:  make(compiler.Storages),
		FileCount: len(cueFiles) + len(hclFiles),
	}
	var errs []error
	failed := func() bool { return len(errs) > 0 && mode == LoadModeFailFast }

	// Declarations: collect storages from both front ends.
	var cueValue cue.Value
	if len(cueFiles) > 0 {
		var loadErr *LoadError
		if cueValue, loadErr = buildCUE(dir); loadErr != nil {
			errs = append(errs, loadErr)
		} else if storageVal := cueValue.LookupPath(cue.ParsePath("storage")); storageVal.Exists() {
			storages, err := compiler.CompileStorages(storageVal)
			if err == nil {
				err = result.Storages.Merge(storages)
			}
			if err != nil {
				errs = append(errs, convertCompileError(err, ErrCodeGeneric, "storage"))
			}
		}
		if failed() {
			return result, errs
		}
	}

	var doc *compiler.HCLDocument
	if len(hclFiles) > 0 {
		doc, err = compiler.DecodeHCLFiles(hclFiles...)
		if err == nil {
			var storages compiler.Storages
			if storages, err = doc.Storages(); err == nil {
				err = result.Storages.Merge(storages)
			}
		}
		if err != nil {
			errs = append(errs, convertCompileError(err, ErrCodeHCLFailed, "hcl"))
			doc = nil
		}
		if failed() {
			return result, errs
		}
	}

	// Workloads: compile against every declared storage.
	if cueValue.Exists() {
		errs = append(errs, compileCUEWorkloads(cueValue, mode, result)...)
		if failed() {
			return result, errs
		}
	}
	if doc != nil {
		workloads, err := doc.Workloads(result.Storages)
		if err != nil {
			errs = append(errs, convertCompileError(err, ErrCodeHCLFailed, "hcl"))
		} else {
			result.Workloads = append(result.Workloads, workloads...)
		}
	}

	if len(result.Workloads) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoWorkloads, Message: "no workloads found in specs"})
	}
	return result, errs
}

// buildCUE loads and builds the CUE package in dir.
func buildCUE(dir string) (cue.Value, *LoadError) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}

	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	return value, nil
}

// compileCUEWorkloads compiles each field under "workload" against
// result.Storages.
func compileCUEWorkloads(value cue.Value, mode LoadMode, result *LoadResult) []error {
	workloadsVal := value.LookupPath(cue.ParsePath("workload"))
	if !workloadsVal.Exists() {
		return nil
	}
	iter, err := workloadsVal.Fields()
	if err != nil {
		return []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating workloads: %v", err)}}
	}

	var errs []error
	for iter.Next() {
		spec, err := compiler.CompileWorkload(iter.Value(), result.Storages)
		if err != nil {
			errs = append(errs, convertCompileError(err, ErrCodeGeneric, "workload."+iter.Label()))
			if mode == LoadModeFailFast {
				return errs
			}
			continue
		}
		result.Workloads = append(result.Workloads, *spec)
	}
	return errs
}

// FindSpecFiles walks the directory and returns all .cue and .hcl file
// paths, each sorted.
func FindSpecFiles(dir string) (cueFiles, hclFiles []string, err error) {
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".cue":
			cueFiles = append(cueFiles, path)
		case ".hcl":
			hclFiles = append(hclFiles, path)
		}
		return nil
	})
	sort.Strings(cueFiles)
	sort.Strings(hclFiles)
	return cueFiles, hclFiles, err
}

// convertCompileError converts a compiler error to a LoadError with position
// info. Errors without a known field fall back to fallback.
func convertCompileError(err error, fallback, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field, fallback),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    fallback,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// MapFieldToErrorCode maps a compiler error field to a validation code.
func MapFieldToErrorCode(field, fallback string) string {
	switch field {
	case "system.name":
		return compiler.ErrSystemNameInvalid
	case "borrow.storage":
		return compiler.ErrUnknownStorage
	case "storage":
		return compiler.ErrConflictingStorage
	case "systems", "borrow.mode", "before", "after", "tags":
		return compiler.ErrUnsupportedType
	default:
		return fallback
	}
}
