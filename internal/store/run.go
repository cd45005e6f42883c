package store

import (
	"github.com/google/uuid"

	"github.com/roach88/workplan/internal/ir"
)

// RunIDGenerator produces archive run ids.
// Implemented by UUIDv7Generator (production) and testutil.SequenceGenerator (tests).
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if UUID generation fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Run identifies one archive write.
type Run struct {
	ID             string `json:"id"`
	Seq            int64  `json:"seq"`
	PlannerVersion string `json:"planner_version"`
	ReportVersion  string `json:"report_version"`
}

// Entry is a report to archive together with the fingerprint of the
// declaration it was built from. SpecHash may be empty for reports built
// programmatically.
type Entry struct {
	Report   ir.WorkloadInfo
	SpecHash string
}

// Record is an archived report.
type Record struct {
	RunID      string          `json:"run_id"`
	Seq        int64           `json:"seq"`
	Workload   string          `json:"workload"`
	ReportHash string          `json:"report_hash"`
	SpecHash   string          `json:"spec_hash"`
	Report     ir.WorkloadInfo `json:"report"`
}

// HistoryEntry is one archived fingerprint of a workload. Changed is set
// when the report differs from the previous archived one.
type HistoryEntry struct {
	RunID      string `json:"run_id"`
	Seq        int64  `json:"seq"`
	ReportHash string `json:"report_hash"`
	SpecHash   string `json:"spec_hash"`
	Changed    bool   `json:"changed"`
}
