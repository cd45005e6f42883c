package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/workplan/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the planned batches to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Report   *ir.WorkloadInfo // Planned report, nil when building failed
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Report != nil {
		fmt.Fprintf(&buf, "\nBatches:\n")
		for i, b := range e.Report.Batches {
			fmt.Fprintf(&buf, "  [%d] %s\n", i, describeBatch(b))
		}
	}
	return buf.String()
}

func describeBatch(b ir.BatchInfo) string {
	if b.Solo != nil {
		return "solo " + b.Solo.Name
	}
	names := make([]string, len(b.Parallel))
	for i, s := range b.Parallel {
		names[i] = s.Name
	}
	return "parallel [" + strings.Join(names, ", ") + "]"
}

// EvaluateAssertions runs every assertion against result and returns the
// failure messages. A scenario whose build failed only satisfies
// build_error assertions; a build failure nobody expected is reported once.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	expectedFailure := false

	for _, a := range assertions {
		if a.Type == AssertBuildError {
			expectedFailure = true
		}
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if result.Report == nil && !expectedFailure {
		errs = append(errs, fmt.Sprintf("build failed unexpectedly: %s", result.BuildError))
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	if a.Type == AssertBuildError {
		return assertBuildError(result, a)
	}
	if result.Report == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: "a planned report",
			Actual:   "build failed with " + result.BuildError,
		}
	}

	report := result.Report
	switch a.Type {
	case AssertBatchCount:
		return assertBatchCount(report, a)
	case AssertSameBatch:
		return assertSameBatch(report, a)
	case AssertSeparateBatches:
		return assertSeparateBatches(report, a)
	case AssertBatchOrder:
		return assertBatchOrder(report, a)
	case AssertSolo:
		return assertSolo(report, a)
	case AssertConflict:
		return assertConflict(report, a)
	case AssertNoConflict:
		return assertNoConflict(report, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertBuildError(result *Result, a Assertion) error {
	if result.BuildError == a.Code {
		return nil
	}
	actual := "build succeeded"
	if result.BuildError != "" {
		actual = "build failed with " + result.BuildError
	}
	return &AssertionError{
		Type:     AssertBuildError,
		Expected: "build failed with " + a.Code,
		Actual:   actual,
		Report:   result.Report,
	}
}

func assertBatchCount(report *ir.WorkloadInfo, a Assertion) error {
	if len(report.Batches) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertBatchCount,
		Expected: fmt.Sprintf("%d batches", a.Count),
		Actual:   fmt.Sprintf("%d batches", len(report.Batches)),
		Report:   report,
	}
}

// batchIndexes locates every named system, failing on the first missing one.
func batchIndexes(report *ir.WorkloadInfo, kind string, names []string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		idx, _, ok := report.Find(name)
		if !ok {
			return nil, &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("system %s in the report", name),
				Actual:   "not found",
				Report:   report,
			}
		}
		out[i] = idx
	}
	return out, nil
}

func assertSameBatch(report *ir.WorkloadInfo, a Assertion) error {
	idx, err := batchIndexes(report, AssertSameBatch, a.Systems)
	if err != nil {
		return err
	}
	for i := 1; i < len(idx); i++ {
		if idx[i] != idx[0] {
			return &AssertionError{
				Type:     AssertSameBatch,
				Expected: fmt.Sprintf("%s in one batch", strings.Join(a.Systems, ", ")),
				Actual:   fmt.Sprintf("%s in batch %d, %s in batch %d", a.Systems[0], idx[0], a.Systems[i], idx[i]),
				Report:   report,
			}
		}
	}
	return nil
}

func assertSeparateBatches(report *ir.WorkloadInfo, a Assertion) error {
	idx, err := batchIndexes(report, AssertSeparateBatches, a.Systems)
	if err != nil {
		return err
	}
	seen := make(map[int]string)
	for i, b := range idx {
		if prev, ok := seen[b]; ok {
			return &AssertionError{
				Type:     AssertSeparateBatches,
				Expected: fmt.Sprintf("%s in different batches", strings.Join(a.Systems, ", ")),
				Actual:   fmt.Sprintf("%s and %s share batch %d", prev, a.Systems[i], b),
				Report:   report,
			}
		}
		seen[b] = a.Systems[i]
	}
	return nil
}

func assertBatchOrder(report *ir.WorkloadInfo, a Assertion) error {
	idx, err := batchIndexes(report, AssertBatchOrder, a.Systems)
	if err != nil {
		return err
	}
	for i := 1; i < len(idx); i++ {
		if idx[i] <= idx[i-1] {
			return &AssertionError{
				Type:     AssertBatchOrder,
				Expected: fmt.Sprintf("%s in strictly later batches", strings.Join(a.Systems, " < ")),
				Actual:   fmt.Sprintf("%s in batch %d, %s in batch %d", a.Systems[i-1], idx[i-1], a.Systems[i], idx[i]),
				Report:   report,
			}
		}
	}
	return nil
}

func assertSolo(report *ir.WorkloadInfo, a Assertion) error {
	for _, b := range report.Batches {
		if b.Solo != nil && b.Solo.Name == a.System {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertSolo,
		Expected: fmt.Sprintf("%s as the solo member of a batch", a.System),
		Actual:   "not solo",
		Report:   report,
	}
}

func assertConflict(report *ir.WorkloadInfo, a Assertion) error {
	_, sys, ok := report.Find(a.System)
	if !ok {
		return &AssertionError{
			Type:     AssertConflict,
			Expected: fmt.Sprintf("system %s in the report", a.System),
			Actual:   "not found",
			Report:   report,
		}
	}

	expected := describeExpectedConflict(a)
	if sys.Conflict == nil {
		return &AssertionError{Type: AssertConflict, Expected: expected, Actual: "no conflict", Report: report}
	}

	other, on := conflictParties(sys.Conflict)
	if string(sys.Conflict.Kind()) != a.Kind ||
		(a.Other != "" && a.Other != other) ||
		(a.On != "" && a.On != on) {
		return &AssertionError{
			Type:     AssertConflict,
			Expected: expected,
			Actual:   fmt.Sprintf("%s conflict (other=%s on=%s)", sys.Conflict.Kind(), other, on),
			Report:   report,
		}
	}
	return nil
}

func describeExpectedConflict(a Assertion) string {
	s := fmt.Sprintf("%s conflict on %s", a.Kind, a.System)
	if a.Other != "" {
		s += " with " + a.Other
	}
	if a.On != "" {
		s += " over " + a.On
	}
	return s
}

// conflictParties returns the other system's name (empty when there is
// none) and the storage the conflict is about.
func conflictParties(c ir.Conflict) (other, on string) {
	switch x := c.(type) {
	case *ir.BorrowConflict:
		on = string(x.OtherOn.StorageID)
		if x.On != nil {
			on = string(x.On.StorageID)
		}
		return x.OtherSystem.Name, on
	case *ir.NotThreadMobileConflict:
		return "", string(x.TypeInfo.StorageID)
	case *ir.OtherNotThreadMobileConflict:
		return x.System.Name, string(x.TypeInfo.StorageID)
	default:
		return "", ""
	}
}

func assertNoConflict(report *ir.WorkloadInfo, a Assertion) error {
	_, sys, ok := report.Find(a.System)
	if !ok {
		return &AssertionError{
			Type:     AssertNoConflict,
			Expected: fmt.Sprintf("system %s in the report", a.System),
			Actual:   "not found",
			Report:   report,
		}
	}
	if sys.Conflict != nil {
		return &AssertionError{
			Type:     AssertNoConflict,
			Expected: fmt.Sprintf("no conflict on %s", a.System),
			Actual:   sys.Conflict.Error(),
			Report:   report,
		}
	}
	return nil
}
