package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/workplan/internal/ir"
)

// Snapshot returns the canonical JSON golden form of a result: the planned
// report, or the build error code when building failed.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	m := map[string]any{
		"scenario_name": scenarioName,
	}
	if result.Report != nil {
		m["report"] = result.Report.Canonical()
	} else {
		m["build_error"] = result.BuildError
	}
	return ir.MarshalCanonical(m)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)
	return nil
}
