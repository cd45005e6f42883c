package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/workplan/internal/testutil"
)

func TestOutputFormatterJSONEnvelope(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Error("CYCLE_DETECTED", "a -> b -> a", map[string]any{"workload": "loop"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CYCLE_DETECTED", resp.Error.Code)
	assert.Equal(t, map[string]any{"workload": "loop"}, resp.Error.Details)
	assert.Nil(t, resp.Data)
}

func TestOutputFormatterTextError(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, f.Error("E005", "specs directory not found: x", "stat failed"))
	assert.Contains(t, buf.String(), "✗ [E005] specs directory not found: x")
	assert.Contains(t, buf.String(), "details: stat failed")
}

func TestOutputFormatterVerboseLogGoesToErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	f.VerboseLog("Found %d spec file(s)", 3)
	assert.Empty(t, out.String())
	assert.Equal(t, "Found 3 spec file(s)\n", errOut.String())

	f.Verbose = false
	f.VerboseLog("hidden")
	assert.Equal(t, "Found 3 spec file(s)\n", errOut.String())
}

func TestPrintReport(t *testing.T) {
	report := testutil.BuildReport(t, testutil.PhysicsWorkload())

	buf := &bytes.Buffer{}
	printReport(buf, report)
	out := buf.String()

	assert.Contains(t, out, "workload physics (4 systems, 4 batches)")
	assert.Contains(t, out, "[2] solo")
	assert.Contains(t, out, "present")
	assert.Contains(t, out, "⚠ borrow:")
	assert.Contains(t, out, "(exclusive)")
}
