package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

// ScheduleError reports why a workload could not be built.
//
// Schedule errors cover:
//   - Cycle detection: ordering constraints that cannot all hold
//   - Dangling labels: before/after naming nothing in the workload
//   - Registration misuse: empty names, duplicate systems or workloads
//
// Conflicts between systems are never errors; they are recorded on the
// report. A ScheduleError means no report was produced.
type ScheduleError struct {
	// Code identifies the error category.
	Code ScheduleErrorCode

	// Message is a human-readable description.
	Message string

	// Workload names the affected workload, empty for workload-level
	// ordering failures.
	Workload string

	// Systems lists the systems involved. For cycles this is the cycle path
	// with the first system repeated at the end.
	Systems []string

	// Labels lists the offending label text.
	Labels []string
}

// ScheduleErrorCode categorizes schedule errors.
type ScheduleErrorCode string

const (
	// ErrCodeCycleDetected indicates the ordering constraints form a cycle.
	ErrCodeCycleDetected ScheduleErrorCode = "CYCLE_DETECTED"

	// ErrCodeDuplicateSystem indicates two systems share a TypeID.
	ErrCodeDuplicateSystem ScheduleErrorCode = "DUPLICATE_SYSTEM"

	// ErrCodeDuplicateWorkload indicates two workloads share a name.
	ErrCodeDuplicateWorkload ScheduleErrorCode = "DUPLICATE_WORKLOAD"

	// ErrCodeDanglingLabel indicates a before/after label matches nothing.
	ErrCodeDanglingLabel ScheduleErrorCode = "DANGLING_LABEL"

	// ErrCodeEmptyName indicates a workload or system without a name.
	ErrCodeEmptyName ScheduleErrorCode = "EMPTY_NAME"
)

// Error implements the error interface.
func (e *ScheduleError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Code == ErrCodeCycleDetected && len(e.Systems) > 0 {
		msg += " [" + strings.Join(e.Systems, " → ") + "]"
	}
	if e.Workload != "" {
		msg += fmt.Sprintf(" (workload=%s)", e.Workload)
	}
	return msg
}

// IsCycleError returns true if the error is a cycle detection error.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	return hasCode(err, ErrCodeCycleDetected)
}

// IsDanglingLabelError returns true if a before/after label matched nothing.
func IsDanglingLabelError(err error) bool {
	return hasCode(err, ErrCodeDanglingLabel)
}

// IsCallerError returns true for registration misuse: empty names and
// duplicate systems or workloads. Ordering failures are not caller errors.
func IsCallerError(err error) bool {
	var se *ScheduleError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case ErrCodeDuplicateSystem, ErrCodeDuplicateWorkload, ErrCodeEmptyName:
		return true
	default:
		return false
	}
}

func hasCode(err error, code ScheduleErrorCode) bool {
	var se *ScheduleError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// NewCycleError creates a ScheduleError for an ordering cycle.
func NewCycleError(workload string, path, labels []string) *ScheduleError {
	return &ScheduleError{
		Code:     ErrCodeCycleDetected,
		Message:  "ordering constraints form a cycle",
		Workload: workload,
		Systems:  path,
		Labels:   labels,
	}
}

// NewDanglingLabelError creates a ScheduleError for labels matching nothing.
func NewDanglingLabelError(workload string, labels []string) *ScheduleError {
	return &ScheduleError{
		Code:     ErrCodeDanglingLabel,
		Message:  fmt.Sprintf("label(s) %s match nothing", strings.Join(labels, ", ")),
		Workload: workload,
		Labels:   labels,
	}
}
