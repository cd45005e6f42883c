package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/workplan/internal/testutil"
)

func TestOpen_CreatesArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.FileExists(t, path)

	v, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schemaVersion(), v)

	ok, err := s.hasIndex(context.Background(), "idx_reports_hash")
	require.NoError(t, err)
	assert.True(t, ok, "fresh archives run every migration")
}

func TestOpen_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	_, err = s1.Archive(ctx, testutil.NewSequenceGenerator(""), physicsEntry(t))
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	for i := 0; i < 2; i++ {
		s, err := Open(path)
		require.NoError(t, err, "reopen %d", i)

		runs, err := s.Runs(ctx)
		require.NoError(t, err)
		assert.Len(t, runs, 1)
		require.NoError(t, s.Close())
	}
}

func TestOpen_MigratesOldArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, `DROP INDEX idx_reports_hash`)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, `PRAGMA user_version = 0`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	ok, err := s.hasIndex(ctx, "idx_reports_hash")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "plans.db"))
	require.Error(t, err)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, p := range archivePragmas {
		t.Run(p.name, func(t *testing.T) {
			got, err := s.pragmaValue(ctx, p.name)
			require.NoError(t, err)
			assert.Equal(t, p.report, got)
		})
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}
