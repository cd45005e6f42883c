package ir

// Version constants for the report schema and planner.
const (
	// ReportVersion is the report schema version.
	ReportVersion = "1"

	// PlannerVersion is the workplan planner version.
	PlannerVersion = "0.1.0"
)
