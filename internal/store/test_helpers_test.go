package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/workplan/internal/ir"
	"github.com/roach88/workplan/internal/scheduler"
	"github.com/roach88/workplan/internal/testutil"
)

// createTestStore opens a fresh archive that is closed when the test ends.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func physicsEntry(t *testing.T) Entry {
	t.Helper()
	return Entry{Report: testutil.BuildReport(t, testutil.PhysicsWorkload()), SpecHash: "spec-physics"}
}

// renderEntry builds a second, distinct workload.
func renderEntry(t *testing.T, shared bool) Entry {
	t.Helper()
	mode := ir.Exclusive
	if shared {
		mode = ir.Shared
	}
	w := scheduler.NewWorkload("render",
		scheduler.NewSystem("cull", "render.cull", testutil.Access("mesh", ir.Shared)),
		scheduler.NewSystem("draw", "render.draw", testutil.Access("mesh", mode)),
	)
	return Entry{Report: testutil.BuildReport(t, w), SpecHash: "spec-render"}
}

// schemaVersion is the user_version of a fully migrated archive.
func schemaVersion() int {
	return migrations[len(migrations)-1].version
}

func (s *Store) pragmaValue(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "PRAGMA "+name).Scan(&value)
	return value, err
}

func (s *Store) hasIndex(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, name).Scan(&n)
	return n == 1, err
}
