// Package compiler turns CUE and HCL workload declarations into
// ir.WorkloadSpec values and validates them.
//
// CUE layout:
//
//	storage: window: {thread_mobile: false}
//	workload: physics: {
//		before: ["render"]
//		systems: [{name: "integrate", borrow: [{storage: "pos", mode: "exclusive"}]}]
//	}
//
// HCL files carry the same declarations as storage and workload blocks;
// see ParseHCLFiles. Both front ends produce identical specs for identical
// declarations. To resolve accesses across formats, merge CompileStorages
// and HCLDocument.Storages with Storages.Merge, then compile workloads
// from both against the merged set.
//
// Compilation fails on the first structural error (CompileError).
// Validate collects every semantic error it finds (ValidationError, E1xx).
package compiler
