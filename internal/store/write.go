package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/workplan/internal/ir"
)

// Archive records entries as one new run. The run gets the next logical seq
// and an id from gen. All rows are written in a single transaction; on error
// nothing is archived.
func (s *Store) Archive(ctx context.Context, gen RunIDGenerator, entries ...Entry) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("archive: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return Run{}, fmt.Errorf("archive: next seq: %w", err)
	}

	run := Run{
		ID:             gen.Generate(),
		Seq:            seq,
		PlannerVersion: ir.PlannerVersion,
		ReportVersion:  ir.ReportVersion,
	}
	if err := writeRun(ctx, tx, run); err != nil {
		return Run{}, err
	}
	for _, e := range entries {
		if err := writeReport(ctx, tx, run.ID, e); err != nil {
			return Run{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("archive: commit: %w", err)
	}
	return run, nil
}

func writeRun(ctx context.Context, tx *sql.Tx, run Run) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, planner_version, report_version)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Seq, run.PlannerVersion, run.ReportVersion)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// writeReport inserts one report row. A second report for the same workload
// in the same run is an error.
func writeReport(ctx context.Context, tx *sql.Tx, runID string, e Entry) error {
	body, hash, err := marshalReport(e.Report)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (run_id, workload, report_hash, spec_hash, body)
		VALUES (?, ?, ?, ?, ?)
	`, runID, e.Report.Name, hash, e.SpecHash, body)
	if err != nil {
		return fmt.Errorf("write report %s: %w", e.Report.Name, err)
	}
	return nil
}
