package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no archived report matches a lookup.
var ErrNotFound = errors.New("not found")

// LatestReport returns the most recently archived report for workload.
// Returns ErrNotFound if the workload was never archived.
func (s *Store) LatestReport(ctx context.Context, workload string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.run_id, u.seq, r.workload, r.report_hash, r.spec_hash, r.body
		FROM reports r
		JOIN runs u ON r.run_id = u.id
		WHERE r.workload = ?
		ORDER BY u.seq DESC
		LIMIT 1
	`, workload)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("latest report %s: %w", workload, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("latest report %s: %w", workload, err)
	}
	return rec, nil
}

// ReadRun returns every report archived by runID, ordered by workload name.
// Returns an empty slice (not nil) if the run holds no reports.
func (s *Store) ReadRun(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, u.seq, r.workload, r.report_hash, r.spec_hash, r.body
		FROM reports r
		JOIN runs u ON r.run_id = u.id
		WHERE r.run_id = ?
		ORDER BY r.workload COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("read run %s: %w", runID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run %s: %w", runID, err)
	}
	return records, nil
}

// History lists the archived fingerprints of workload in seq order.
// Changed is false for the first entry and true for every later entry whose
// fingerprint differs from its predecessor.
func (s *Store) History(ctx context.Context, workload string) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, u.seq, r.report_hash, r.spec_hash
		FROM reports r
		JOIN runs u ON r.run_id = u.id
		WHERE r.workload = ?
		ORDER BY u.seq ASC
	`, workload)
	if err != nil {
		return nil, fmt.Errorf("query history %s: %w", workload, err)
	}
	defer rows.Close()

	history := []HistoryEntry{}
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.RunID, &h.Seq, &h.ReportHash, &h.SpecHash); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if n := len(history); n > 0 {
			h.Changed = history[n-1].ReportHash != h.ReportHash
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history %s: %w", workload, err)
	}
	return history, nil
}

// Runs lists every archived run in seq order.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, planner_version, report_version
		FROM runs
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Seq, &r.PlannerVersion, &r.ReportVersion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Workloads lists the distinct archived workload names in byte order.
func (s *Store) Workloads(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT workload
		FROM reports
		ORDER BY workload COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query workloads: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan workload: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workloads: %w", err)
	}
	return names, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var body string
	if err := row.Scan(&rec.RunID, &rec.Seq, &rec.Workload, &rec.ReportHash, &rec.SpecHash, &body); err != nil {
		return Record{}, err
	}

	report, err := unmarshalReport(body, rec.ReportHash)
	if err != nil {
		return Record{}, err
	}
	rec.Report = report
	return rec, nil
}
