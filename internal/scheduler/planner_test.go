package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/workplan/internal/ir"
)

// =============================================================================
// Plan: documented scenarios
// =============================================================================

func TestPlan_ExclusiveThenShared(t *testing.T) {
	u1 := sys("u1", exclusive("a"))
	u2 := sys("u2", shared("a"))

	batches := Plan([]ir.SystemInfo{u1, u2}, quietLogger())

	require.Len(t, batches, 2)
	assert.Equal(t, [][]string{{"u1"}, {"u2"}}, batchNames(batches))
	assert.Nil(t, batches[0].Solo)
	assert.Nil(t, batches[0].Parallel[0].Conflict, "batch opener carries no conflict")

	want := &ir.BorrowConflict{On: &u2.Borrow[0], OtherSystem: u1.ID(), OtherOn: u1.Borrow[0]}
	assert.True(t, ir.ConflictsEqual(want, batches[1].Parallel[0].Conflict))
}

func TestPlan_SharedShared(t *testing.T) {
	batches := Plan([]ir.SystemInfo{sys("u1", shared("a")), sys("u2", shared("a"))}, quietLogger())

	require.Len(t, batches, 1)
	assert.Equal(t, [][]string{{"u1", "u2"}}, batchNames(batches))
	assert.Nil(t, batches[0].Solo)
}

func TestPlan_ImmobileThenEmpty(t *testing.T) {
	u1 := sys("u1", immobile(shared("b")))
	u2 := sys("u2")

	batches := Plan([]ir.SystemInfo{u1, u2}, quietLogger())

	require.Len(t, batches, 2)
	require.NotNil(t, batches[0].Solo)
	assert.Equal(t, "u1", batches[0].Solo.Name)
	assert.Empty(t, batches[0].Parallel)
	assert.Nil(t, batches[0].Solo.Conflict)

	require.Len(t, batches[1].Parallel, 1)
	assert.Equal(t, "u2", batches[1].Parallel[0].Name)
	assert.IsType(t, &ir.OtherNotThreadMobileConflict{}, batches[1].Parallel[0].Conflict)
}

func TestPlan_EmptyThenImmobile(t *testing.T) {
	u1 := sys("u1", immobile(shared("b")))
	u2 := sys("u2")

	batches := Plan([]ir.SystemInfo{u2, u1}, quietLogger())

	require.Len(t, batches, 2)
	assert.Equal(t, [][]string{{"u2"}, {"u1"}}, batchNames(batches))
	require.NotNil(t, batches[1].Solo)
	assert.Equal(t, "u1", batches[1].Solo.Name)
	assert.IsType(t, &ir.NotThreadMobileConflict{}, batches[1].Solo.Conflict)
}

func TestPlan_ConsecutiveImmobileSystems(t *testing.T) {
	batches := Plan([]ir.SystemInfo{
		sys("u1", immobile(shared("a"))),
		sys("u2", immobile(shared("b"))),
	}, quietLogger())

	require.Len(t, batches, 2)
	for _, b := range batches {
		assert.NotNil(t, b.Solo)
		assert.Empty(t, b.Parallel)
	}
	assert.IsType(t, &ir.NotThreadMobileConflict{}, batches[1].Solo.Conflict)
}

func TestPlan_Empty(t *testing.T) {
	assert.Empty(t, Plan(nil, quietLogger()))
}

func TestPlan_GreedyKeepsOrder(t *testing.T) {
	// u3 could share a batch with u1 but never jumps over u2.
	batches := Plan([]ir.SystemInfo{
		sys("u1", exclusive("a")),
		sys("u2", shared("a")),
		sys("u3", exclusive("b")),
	}, quietLogger())

	assert.Equal(t, [][]string{{"u1"}, {"u2", "u3"}}, batchNames(batches))
	assert.Nil(t, batches[1].Parallel[1].Conflict)
}

// =============================================================================
// Plan: properties
// =============================================================================

func mixedWorkload() []ir.SystemInfo {
	return []ir.SystemInfo{
		sys("input", exclusive("input")),
		sys("move", exclusive("pos"), shared("vel")),
		sys("gravity", exclusive("vel")),
		sys("collide", shared("pos"), exclusive("contacts")),
		sys("window", immobile(exclusive("window"))),
		sys("log"),
		sys("render", shared("pos"), shared("mesh")),
		sys("audio", shared("pos"), exclusive("mixer")),
		sys("save", ir.TypeInfo{Name: "world", Mode: ir.Shared, StorageID: ir.AllStorages, ThreadMobile: true}),
		sys("reset", ir.TypeInfo{Name: "world", Mode: ir.Exclusive, StorageID: ir.AllStorages, ThreadMobile: true}),
	}
}

func TestPlan_ParallelMembersPairwiseCompatible(t *testing.T) {
	for _, b := range Plan(mixedWorkload(), quietLogger()) {
		for i, s := range b.Parallel {
			others := append([]ir.SystemInfo{}, b.Parallel[:i]...)
			others = append(others, b.Parallel[i+1:]...)
			assert.Nil(t, Check(s, others), "%s must be compatible with its batch", s.Name)
		}
	}
}

func TestPlan_SoloBatchesHaveNoParallel(t *testing.T) {
	for _, b := range Plan(mixedWorkload(), quietLogger()) {
		if b.Solo != nil {
			assert.Empty(t, b.Parallel)
		}
		assert.False(t, b.IsEmpty())
	}
}

func TestPlan_PreservesEverySystemInOrder(t *testing.T) {
	input := mixedWorkload()
	var got []string
	for _, b := range Plan(input, quietLogger()) {
		for _, s := range b.Systems() {
			got = append(got, s.Name)
		}
	}

	want := make([]string, len(input))
	for i, s := range input {
		want[i] = s.Name
	}
	assert.Equal(t, want, got)
}

func TestPlan_ConflictRecordedOnlyWhenBatchClosed(t *testing.T) {
	batches := Plan(mixedWorkload(), quietLogger())
	for i, b := range batches {
		members := b.Systems()
		if i == 0 {
			assert.Nil(t, members[0].Conflict)
		} else {
			assert.NotNil(t, members[0].Conflict, "batch %d opener %s", i, members[0].Name)
		}
		for _, s := range members[1:] {
			assert.Nil(t, s.Conflict, "joined member %s", s.Name)
		}
	}
}

func TestPlan_Idempotent(t *testing.T) {
	first := ir.WorkloadInfo{Name: "w", Batches: Plan(mixedWorkload(), quietLogger())}
	second := ir.WorkloadInfo{Name: "w", Batches: Plan(mixedWorkload(), quietLogger())}

	assert.True(t, first.Equal(second))

	b1, err := ir.MarshalReport(first)
	require.NoError(t, err)
	b2, err := ir.MarshalReport(second)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestPlan_DoesNotMutateInput(t *testing.T) {
	input := mixedWorkload()
	input[3].Conflict = &ir.NotThreadMobileConflict{TypeInfo: shared("stale")}

	Plan(input, quietLogger())

	assert.IsType(t, &ir.NotThreadMobileConflict{}, input[3].Conflict)
	assert.Nil(t, input[1].Conflict)
}

func TestPlan_StaleConflictReplaced(t *testing.T) {
	input := []ir.SystemInfo{sys("u1", shared("a"))}
	input[0].Conflict = &ir.NotThreadMobileConflict{TypeInfo: shared("stale")}

	batches := Plan(input, quietLogger())
	assert.Nil(t, batches[0].Parallel[0].Conflict)
}
