// Package scheduler turns registered workloads into batch schedules.
//
// ARCHITECTURE:
//
// Build pipeline, per workload:
//  1. validateSystems rejects empty names and duplicate TypeIDs
//  2. Resolve orders systems by their before/after labels
//  3. Plan groups the ordered systems into batches
//  4. The batches become the workload's ir.WorkloadInfo report
//
// Workloads themselves are ordered by the same Resolve step before any of
// them is planned.
//
// Batch Planning:
// Plan makes one greedy pass. A batch is either a single Solo system that
// holds a storage which is not thread-mobile, or a Parallel set whose
// members pass Check against each other. When a system cannot join the open
// batch, the batch closes and the system records the Conflict that stopped
// it.
//
// INVARIANTS:
//   - Declaration order is kept wherever constraints leave a choice
//   - Every pair in a Parallel set is conflict-free
//   - A Solo batch has no Parallel members
//   - Planning the same input twice yields equal reports
//   - A failed build yields no report
//
// Planning is synchronous and single-threaded.
package scheduler
