package compiler

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/roach88/workplan/internal/ir"
)

// HCLResult holds the declarations decoded from HCL files.
type HCLResult struct {
	Storages  Storages
	Workloads []ir.WorkloadSpec
}

// hclRoot decodes every top-level block an HCL workload file may hold:
//
//	storage "window" {
//	  thread_mobile = false
//	}
//
//	workload "physics" {
//	  before = ["render"]
//	  system "integrate" {
//	    borrow "pos" { mode = exclusive }
//	    borrow "vel" {}
//	  }
//	}
//
// Any other block or attribute fails decoding.
type hclRoot struct {
	Storages  []*hclStorage  `hcl:"storage,block"`
	Workloads []*hclWorkload `hcl:"workload,block"`
}

type hclStorage struct {
	ID           string  `hcl:"id,label"`
	Name         *string `hcl:"name,optional"`
	ThreadMobile *bool   `hcl:"thread_mobile,optional"`
}

type hclWorkload struct {
	Name    string       `hcl:"name,label"`
	Before  []string     `hcl:"before,optional"`
	After   []string     `hcl:"after,optional"`
	Tags    []string     `hcl:"tags,optional"`
	Systems []*hclSystem `hcl:"system,block"`
}

type hclSystem struct {
	Name   string       `hcl:"name,label"`
	TypeID *string      `hcl:"type_id,optional"`
	Before []string     `hcl:"before,optional"`
	After  []string     `hcl:"after,optional"`
	Tags   []string     `hcl:"tags,optional"`
	Borrow []*hclBorrow `hcl:"borrow,block"`
}

type hclBorrow struct {
	Storage string  `hcl:"storage,label"`
	Mode    *string `hcl:"mode,optional"`
}

// hclEvalContext lets access modes be written as bare words.
var hclEvalContext = &hcl.EvalContext{
	Variables: map[string]cty.Value{
		"shared":    cty.StringVal("shared"),
		"exclusive": cty.StringVal("exclusive"),
		"read":      cty.StringVal("read"),
		"write":     cty.StringVal("write"),
	},
}

// HCLDocument holds decoded HCL files whose workloads have not been
// compiled yet. Callers merge its storages with declarations from elsewhere
// before compiling, so every access resolves against the full set.
type HCLDocument struct {
	roots []hclRoot
}

// DecodeHCLFiles parses and decodes the given files without compiling
// workloads.
func DecodeHCLFiles(paths ...string) (*HCLDocument, error) {
	parser := hclparse.NewParser()
	doc := &HCLDocument{}

	for _, path := range paths {
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
		}
		root, err := decodeHCLRoot(file.Body, path)
		if err != nil {
			return nil, err
		}
		doc.roots = append(doc.roots, root)
	}
	return doc, nil
}

// DecodeHCL parses and decodes a single in-memory HCL document. filename is
// used in diagnostics only.
func DecodeHCL(src []byte, filename string) (*HCLDocument, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}
	root, err := decodeHCLRoot(file.Body, filename)
	if err != nil {
		return nil, err
	}
	return &HCLDocument{roots: []hclRoot{root}}, nil
}

func decodeHCLRoot(body hcl.Body, filename string) (hclRoot, error) {
	var root hclRoot
	if diags := gohcl.DecodeBody(body, hclEvalContext, &root); diags.HasErrors() {
		return root, fmt.Errorf("failed to decode HCL %s: %w", filename, diags)
	}
	return root, nil
}

// Storages returns every storage declared in the document. Declaring one id
// twice with different settings is an error.
func (d *HCLDocument) Storages() (Storages, error) {
	out := make(Storages)
	for _, root := range d.roots {
		decl := make(Storages, len(root.Storages))
		for _, s := range root.Storages {
			spec := ir.StorageSpec{ID: ir.StorageID(s.ID), ThreadMobile: true}
			if s.Name != nil {
				spec.Name = *s.Name
			}
			if s.ThreadMobile != nil {
				spec.ThreadMobile = *s.ThreadMobile
			}
			if err := decl.Merge(Storages{spec.ID: spec}); err != nil {
				return nil, err
			}
		}
		if err := out.Merge(decl); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Workloads compiles the document's workloads, resolving accesses against
// storages.
func (d *HCLDocument) Workloads(storages Storages) ([]ir.WorkloadSpec, error) {
	var out []ir.WorkloadSpec
	for _, root := range d.roots {
		for _, w := range root.Workloads {
			spec, err := translateHCLWorkload(w, storages)
			if err != nil {
				return nil, err
			}
			out = append(out, spec)
		}
	}
	return out, nil
}

// ParseHCLFiles decodes and compiles the given files on their own.
// Storages are collected from every file before any workload is compiled,
// so a workload may use a storage declared in another file.
func ParseHCLFiles(paths ...string) (*HCLResult, error) {
	doc, err := DecodeHCLFiles(paths...)
	if err != nil {
		return nil, err
	}
	return doc.compile()
}

// ParseHCL decodes and compiles a single in-memory HCL document.
func ParseHCL(src []byte, filename string) (*HCLResult, error) {
	doc, err := DecodeHCL(src, filename)
	if err != nil {
		return nil, err
	}
	return doc.compile()
}

func (d *HCLDocument) compile() (*HCLResult, error) {
	storages, err := d.Storages()
	if err != nil {
		return nil, err
	}
	workloads, err := d.Workloads(storages)
	if err != nil {
		return nil, err
	}
	return &HCLResult{Storages: storages, Workloads: workloads}, nil
}

func translateHCLWorkload(w *hclWorkload, storages Storages) (ir.WorkloadSpec, error) {
	spec := ir.WorkloadSpec{
		Name:   w.Name,
		Before: orEmpty(w.Before),
		After:  orEmpty(w.After),
		Tags:   orEmpty(w.Tags),
	}

	for _, s := range w.Systems {
		sys := ir.SystemSpec{
			Name:   s.Name,
			TypeID: ir.DefaultTypeID(w.Name, s.Name),
			Before: orEmpty(s.Before),
			After:  orEmpty(s.After),
			Tags:   orEmpty(s.Tags),
		}
		if s.TypeID != nil {
			sys.TypeID = ir.TypeID(*s.TypeID)
		}
		for _, b := range s.Borrow {
			mode := ir.Shared
			if b.Mode != nil {
				var err error
				if mode, err = ir.ParseAccessMode(*b.Mode); err != nil {
					return spec, &CompileError{
						Field:   "borrow.mode",
						Message: fmt.Sprintf("workload %s system %s: %v", w.Name, s.Name, err),
					}
				}
			}
			sys.Borrow = append(sys.Borrow, storages.Resolve(ir.StorageID(b.Storage), mode))
		}
		spec.Systems = append(spec.Systems, sys)
	}
	return spec, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
