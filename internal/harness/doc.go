// Package harness runs conformance scenarios against the scheduler.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: borrow_split
//	description: "An exclusive writer and a shared reader never share a batch"
//	storages:
//	  window: { name: Window, thread_mobile: false }
//	workload:
//	  name: physics
//	  systems:
//	    - name: integrate
//	      borrow: [{ storage: pos, mode: exclusive }]
//	    - name: render
//	      after: [integrate]
//	      borrow: [{ storage: pos }]
//	assertions:
//	  - type: batch_count
//	    count: 2
//	  - type: conflict
//	    system: render
//	    kind: borrow
//	    other: integrate
//	    on: pos
//
// Unknown fields are rejected so typos fail loudly.
//
// # Assertion Types
//
//   - batch_count: the report has exactly count batches
//   - same_batch / separate_batches: placement of the listed systems
//   - batch_order: the listed systems land in strictly increasing batches
//   - solo: the system runs alone
//   - conflict / no_conflict: the conflict recorded on a system
//   - build_error: building fails with the given schedule error code
//
// # Self-checks
//
// Every successful build is also rebuilt and compared byte for byte,
// archived to an in-memory store and read back, and checked against
// CheckInvariants. Any failure there fails the scenario.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/borrow_split.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
