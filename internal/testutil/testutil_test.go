package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("")
	assert.Equal(t, "run-0001", gen.Generate())
	assert.Equal(t, "run-0002", gen.Generate())

	gen.Reset()
	assert.Equal(t, "run-0001", gen.Generate())
}

func TestSequenceGenerator_Concurrent(t *testing.T) {
	gen := NewSequenceGenerator("c")

	var wg sync.WaitGroup
	ids := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- gen.Generate()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 100)
}

func TestPhysicsWorkloadReport(t *testing.T) {
	report := BuildReport(t, PhysicsWorkload())

	require.Len(t, report.Batches, 4)
	assert.Equal(t, 4, report.SystemCount())
	require.NotNil(t, report.Batches[2].Solo)
	assert.Equal(t, "present", report.Batches[2].Solo.Name)
}
