package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() WorkloadInfo {
	a := TypeInfo{Name: "A", Mode: Exclusive, StorageID: "a", ThreadMobile: true}
	shared := TypeInfo{Name: "A", Mode: Shared, StorageID: "a", ThreadMobile: true}
	u1 := SystemInfo{Name: "u1", TypeID: "w.u1", Borrow: []TypeInfo{a}}
	u2 := SystemInfo{
		Name: "u2", TypeID: "w.u2", Borrow: []TypeInfo{shared},
		Conflict: &BorrowConflict{On: &shared, OtherSystem: u1.ID(), OtherOn: a},
	}
	return WorkloadInfo{
		Name:    "w",
		Batches: []BatchInfo{{Parallel: []SystemInfo{u1}}, {Parallel: []SystemInfo{u2}}},
	}
}

func TestReportHashDeterminism(t *testing.T) {
	h1, err := ReportHash(sampleReport())
	require.NoError(t, err)
	h2, err := ReportHash(sampleReport())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "BLAKE3-256 hex digest")
}

func TestReportHashChangesWithSchedule(t *testing.T) {
	base := MustReportHash(sampleReport())

	tests := []struct {
		name   string
		mutate func(*WorkloadInfo)
	}{
		{"renamed workload", func(w *WorkloadInfo) { w.Name = "other" }},
		{"merged batches", func(w *WorkloadInfo) {
			w.Batches = []BatchInfo{{Parallel: append(w.Batches[0].Parallel, w.Batches[1].Parallel...)}}
		}},
		{"dropped conflict", func(w *WorkloadInfo) { w.Batches[1].Parallel[0].Conflict = nil }},
		{"added label", func(w *WorkloadInfo) { w.Batches[0].Parallel[0].Before = []string{"u2"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := sampleReport()
			tt.mutate(&w)
			assert.NotEqual(t, base, MustReportHash(w))
		})
	}
}

func TestReportHashIgnoresNilVersusEmpty(t *testing.T) {
	w := sampleReport()
	w.Batches[0].Parallel[0].Before = []string{}
	w.Batches[0].Parallel[0].After = nil

	assert.Equal(t, MustReportHash(sampleReport()), MustReportHash(w))
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"name":"w"}`)

	assert.NotEqual(t, hashWithDomain(DomainReport, data), hashWithDomain(DomainWorkload, data))
	// Without the separator "ab"+"c" and "a"+"bc" would collide.
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestSpecHash(t *testing.T) {
	spec := WorkloadSpec{
		Name: "w",
		Systems: []SystemSpec{
			{Name: "u1", TypeID: "w.u1", Borrow: []TypeInfo{{Name: "A", StorageID: "a", Mode: Exclusive, ThreadMobile: true}}},
		},
	}
	h1, err := SpecHash(spec)
	require.NoError(t, err)

	spec.Systems[0].Borrow[0].Mode = Shared
	h2, err := SpecHash(spec)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestMustReportHashPanicsOnBadConflict(t *testing.T) {
	w := sampleReport()
	w.Batches[0].Parallel[0].Conflict = badConflict{}

	assert.Panics(t, func() { MustReportHash(w) })
}

// badConflict satisfies Conflict from inside the package but has no
// canonical form.
type badConflict struct{}

func (badConflict) Error() string      { return "bad" }
func (badConflict) Kind() ConflictKind { return "bad" }
func (badConflict) conflict()          {}
