package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/workplan/internal/ir"
	"github.com/roach88/workplan/internal/testutil"
)

func TestLatestReport_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	entry := physicsEntry(t)

	run, err := s.Archive(ctx, testutil.NewSequenceGenerator(""), entry)
	require.NoError(t, err)

	rec, err := s.LatestReport(ctx, "physics")
	require.NoError(t, err)

	assert.Equal(t, run.ID, rec.RunID)
	assert.Equal(t, run.Seq, rec.Seq)
	assert.Equal(t, "physics", rec.Workload)
	assert.Equal(t, "spec-physics", rec.SpecHash)
	assert.Equal(t, ir.MustReportHash(entry.Report), rec.ReportHash)
	assert.True(t, entry.Report.Equal(rec.Report), "archived report must decode to the original")
}

func TestLatestReport_PicksHighestSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	gen := testutil.NewSequenceGenerator("")

	_, err := s.Archive(ctx, gen, renderEntry(t, true))
	require.NoError(t, err)
	_, err = s.Archive(ctx, gen, renderEntry(t, false))
	require.NoError(t, err)

	rec, err := s.LatestReport(ctx, "render")
	require.NoError(t, err)
	assert.Equal(t, "run-0002", rec.RunID)
	assert.Len(t, rec.Report.Batches, 2, "exclusive draw splits the batch")
}

func TestLatestReport_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LatestReport(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLatestReport_DetectsTampering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Archive(ctx, testutil.NewSequenceGenerator(""), physicsEntry(t))
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `UPDATE reports SET body = replace(body, 'gravity', 'gravitz')`)
	require.NoError(t, err)

	_, err = s.LatestReport(ctx, "physics")
	require.ErrorIs(t, err, ErrIntegrity)
}

func TestReadRun_OrderedByWorkload(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, err := s.Archive(ctx, testutil.NewSequenceGenerator(""), renderEntry(t, true), physicsEntry(t))
	require.NoError(t, err)

	records, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "physics", records[0].Workload)
	assert.Equal(t, "render", records[1].Workload)
}

func TestHistory_FlagsChanges(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	gen := testutil.NewSequenceGenerator("")

	for _, shared := range []bool{true, true, false, false, true} {
		_, err := s.Archive(ctx, gen, renderEntry(t, shared))
		require.NoError(t, err)
	}

	history, err := s.History(ctx, "render")
	require.NoError(t, err)
	require.Len(t, history, 5)

	changed := make([]bool, len(history))
	for i, h := range history {
		changed[i] = h.Changed
		assert.Equal(t, int64(i+1), h.Seq)
	}
	assert.Equal(t, []bool{false, false, true, false, true}, changed)
	assert.Equal(t, history[0].ReportHash, history[4].ReportHash)
}

func TestHistory_Empty(t *testing.T) {
	s := createTestStore(t)

	history, err := s.History(context.Background(), "render")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestWorkloads(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	gen := testutil.NewSequenceGenerator("")

	_, err := s.Archive(ctx, gen, renderEntry(t, true))
	require.NoError(t, err)
	_, err = s.Archive(ctx, gen, physicsEntry(t), renderEntry(t, true))
	require.NoError(t, err)

	names, err := s.Workloads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"physics", "render"}, names)
}
