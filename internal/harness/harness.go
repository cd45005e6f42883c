package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/workplan/internal/ir"
	"github.com/roach88/workplan/internal/scheduler"
	"github.com/roach88/workplan/internal/store"
	"github.com/roach88/workplan/internal/testutil"
)

// Harness runs scenarios against the scheduler.
type Harness struct {
	store  *store.Store
	runIDs *testutil.SequenceGenerator
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory archive for isolation.
//
// Execution flow:
// 1. Convert the inline workload to a spec and build it
// 2. On success, rebuild and check the canonical report is byte-identical
// 3. Archive the report and check it reads back with the same fingerprint
// 4. Check report invariants, then evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		runIDs: testutil.NewSequenceGenerator(scenario.Name),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	spec, err := scenario.Spec()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	report, buildErr := h.build(spec)
	if buildErr != nil {
		var se *scheduler.ScheduleError
		if !errors.As(buildErr, &se) {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, buildErr)
		}
		result.BuildError = string(se.Code)
		h.logger.Info("build failed", "scenario", scenario.Name, "code", se.Code)
	} else {
		result.Report = &report
		if err := h.checkDeterminism(spec, report); err != nil {
			result.AddError(err.Error())
		}
		if err := h.checkArchive(ctx, spec, report); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		for _, msg := range CheckInvariants(report) {
			result.AddError(msg)
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) build(spec ir.WorkloadSpec) (ir.WorkloadInfo, error) {
	return scheduler.BuildWorkload(scheduler.FromSpec(spec), scheduler.WithLogger(h.logger))
}

// checkDeterminism rebuilds spec and compares canonical encodings.
func (h *Harness) checkDeterminism(spec ir.WorkloadSpec, report ir.WorkloadInfo) error {
	again, err := h.build(spec)
	if err != nil {
		return fmt.Errorf("rebuild failed: %v", err)
	}
	first, err := ir.MarshalReport(report)
	if err != nil {
		return err
	}
	second, err := ir.MarshalReport(again)
	if err != nil {
		return err
	}
	if !bytes.Equal(first, second) {
		return fmt.Errorf("rebuilding produced a different report:\n  first:  %s\n  second: %s", first, second)
	}
	return nil
}

// checkArchive stores the report and reads it back.
func (h *Harness) checkArchive(ctx context.Context, spec ir.WorkloadSpec, report ir.WorkloadInfo) error {
	specHash, err := ir.SpecHash(spec)
	if err != nil {
		return err
	}
	if _, err := h.store.Archive(ctx, h.runIDs, store.Entry{Report: report, SpecHash: specHash}); err != nil {
		return err
	}
	rec, err := h.store.LatestReport(ctx, report.Name)
	if err != nil {
		return err
	}
	if !rec.Report.Equal(report) {
		return fmt.Errorf("archived report %s does not match the planned one", report.Name)
	}
	return nil
}

// CheckInvariants verifies properties every report must have: a Solo batch
// has no parallel members, no batch is empty, and every parallel member is
// compatible with the rest of its batch.
func CheckInvariants(report ir.WorkloadInfo) []string {
	var errs []string
	for i, b := range report.Batches {
		if b.IsEmpty() {
			errs = append(errs, fmt.Sprintf("batch %d is empty", i))
		}
		if b.Solo != nil && len(b.Parallel) > 0 {
			errs = append(errs, fmt.Sprintf("batch %d has solo %s and %d parallel systems", i, b.Solo.Name, len(b.Parallel)))
		}
		for j, s := range b.Parallel {
			others := make([]ir.SystemInfo, 0, len(b.Parallel)-1)
			others = append(others, b.Parallel[:j]...)
			others = append(others, b.Parallel[j+1:]...)
			if c := scheduler.Check(s, others); c != nil {
				errs = append(errs, fmt.Sprintf("batch %d: %s cannot run with the rest of its batch: %v", i, s.Name, c))
			}
		}
	}
	return errs
}
