package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "plans.db")
	for i := 0; i < 2; i++ {
		_, err := execute(t, NewPlanCommand(&RootOptions{Format: "text"}), specsDir, "--db", dbPath)
		require.NoError(t, err)
	}

	out, err := execute(t, NewHistoryCommand(&RootOptions{Format: "json"}), dbPath, "--workload", "physics")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "physics", resp.Data.Workload)
	require.Len(t, resp.Data.Entries, 2)
	assert.Equal(t, 0, resp.Data.Changes, "unchanged specs plan identically")
	assert.Equal(t, resp.Data.Entries[0].ReportHash, resp.Data.Entries[1].ReportHash)

	out, err = execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), dbPath, "--workload", "physics")
	require.NoError(t, err)
	assert.Contains(t, out, "history of physics (2 runs, 0 changes)")
	assert.Contains(t, out, resp.Data.Entries[0].ReportHash[:12])
}

func TestHistory_NoReports(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "plans.db")
	_, err := execute(t, NewPlanCommand(&RootOptions{Format: "text"}), specsDir, "--db", dbPath)
	require.NoError(t, err)

	out, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), dbPath, "--workload", "audio")
	require.NoError(t, err)
	assert.Contains(t, out, "no archived reports for audio")
}

func TestHistory_MissingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing.db")

	out, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), dbPath, "--workload", "physics")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "database not found")
	assert.NoFileExists(t, dbPath, "history must not create an archive")
}

func TestHistory_RequiresWorkload(t *testing.T) {
	_, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "plans.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workload")
}
