package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/roach88/workplan/internal/ir"
	"github.com/roach88/workplan/internal/label"
	"github.com/roach88/workplan/internal/scheduler"
)

// QuietLogger discards all log output.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Access returns a thread-mobile access descriptor named after its storage.
func Access(storage string, mode ir.AccessMode) ir.TypeInfo {
	return ir.TypeInfo{Name: storage, Mode: mode, StorageID: ir.StorageID(storage), ThreadMobile: true}
}

// PhysicsWorkload is a small workload exercising every batch outcome:
//
//	integrate: pos exclusive, vel shared  -> batch 1
//	gravity:   vel exclusive              -> batch 2 (borrow conflict on vel)
//	present:   window (immobile)          -> batch 3 solo
//	audio:     sound shared               -> batch 4
func PhysicsWorkload() scheduler.Workload {
	window := ir.TypeInfo{Name: "Window", Mode: ir.Exclusive, StorageID: "window", ThreadMobile: false}
	return scheduler.NewWorkload("physics",
		scheduler.NewSystem("integrate", "physics.integrate", Access("pos", ir.Exclusive), Access("vel", ir.Shared)),
		scheduler.NewSystem("gravity", "physics.gravity", Access("vel", ir.Exclusive)).
			RunAfter(label.Name("integrate")),
		scheduler.NewSystem("present", "physics.present", window),
		scheduler.NewSystem("audio", "physics.audio", Access("sound", ir.Shared)),
	)
}

// BuildReport builds w with a quiet logger and fails the test on error.
func BuildReport(t testing.TB, w scheduler.Workload) ir.WorkloadInfo {
	t.Helper()
	report, err := scheduler.BuildWorkload(w, scheduler.WithLogger(QuietLogger()))
	if err != nil {
		t.Fatalf("BuildWorkload(%s) failed: %v", w.Name, err)
	}
	return report
}
