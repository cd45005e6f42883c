package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const specsDir = "testdata/specs"

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeSpecs writes files into a fresh directory and returns its path.
func writeSpecs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

const cycleSpec = `
package workloads

workload: loop: {
	systems: [
		{name: "a", before: ["b"]},
		{name: "b", before: ["a"]},
	]
}
`

const danglingSpec = `
package workloads

workload: physics: {
	systems: [
		{name: "integrate", after: ["ghost"]},
	]
}
`
