package harness

import "github.com/roach88/workplan/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions and report self-checks hold.
	Pass bool `json:"pass"`

	// Report is the planned workload report, nil when building failed.
	Report *ir.WorkloadInfo `json:"report,omitempty"`

	// BuildError is the schedule error code when building failed.
	BuildError string `json:"build_error,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
