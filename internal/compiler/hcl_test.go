package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/workplan/internal/ir"
)

const physicsHCL = `
storage "pos" {
  name = "Position"
}

storage "window" {
  thread_mobile = false
}

workload "physics" {
  before = ["render"]

  system "integrate" {
    borrow "pos" {
      mode = exclusive
    }
    borrow "vel" {}
  }

  system "present" {
    type_id = "custom.present"
    after   = ["integrate"]
    borrow "window" {
      mode = "write"
    }
  }
}
`

func TestParseHCL(t *testing.T) {
	result, err := ParseHCL([]byte(physicsHCL), "physics.hcl")
	require.NoError(t, err)

	require.Len(t, result.Storages, 2)
	assert.False(t, result.Storages["window"].ThreadMobile)
	assert.Equal(t, "Position", result.Storages["pos"].Name)

	require.Len(t, result.Workloads, 1)
	spec := result.Workloads[0]
	assert.Equal(t, "physics", spec.Name)
	assert.Equal(t, []string{"render"}, spec.Before)
	assert.Equal(t, []string{}, spec.Tags)

	require.Len(t, spec.Systems, 2)
	integrate := spec.Systems[0]
	assert.Equal(t, ir.TypeID("physics.integrate"), integrate.TypeID)
	assert.True(t, integrate.Borrow[0].Matches("pos", ir.Exclusive))
	assert.Equal(t, "Position", integrate.Borrow[0].Name)
	assert.True(t, integrate.Borrow[1].Matches("vel", ir.Shared))

	present := spec.Systems[1]
	assert.Equal(t, ir.TypeID("custom.present"), present.TypeID)
	assert.False(t, present.Borrow[0].ThreadMobile)
}

func TestParseHCLMatchesCUE(t *testing.T) {
	hclResult, err := ParseHCL([]byte(physicsHCL), "physics.hcl")
	require.NoError(t, err)

	v := compileCUE(t, `
		storage: {
			pos:    {name: "Position"}
			window: {thread_mobile: false}
		}
		workload: physics: {
			before: ["render"]
			systems: [
				{name: "integrate", borrow: [{storage: "pos", mode: "exclusive"}, {storage: "vel"}]},
				{name: "present", type_id: "custom.present", after: ["integrate"], borrow: [{storage: "window", mode: "write"}]},
			]
		}
	`)
	storages, err := CompileStorages(v.LookupPath(cue.ParsePath("storage")))
	require.NoError(t, err)
	cueSpec, err := CompileWorkload(v.LookupPath(cue.ParsePath("workload.physics")), storages)
	require.NoError(t, err)

	h1, err := ir.SpecHash(hclResult.Workloads[0])
	require.NoError(t, err)
	h2, err := ir.SpecHash(*cueSpec)
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "both front ends produce the same declaration")
}

func TestParseHCLFilesSharesStorages(t *testing.T) {
	dir := t.TempDir()
	storagePath := filepath.Join(dir, "storage.hcl")
	workloadPath := filepath.Join(dir, "render.hcl")
	require.NoError(t, os.WriteFile(storagePath, []byte(`storage "gpu" { thread_mobile = false }`), 0o644))
	require.NoError(t, os.WriteFile(workloadPath, []byte(`
workload "render" {
  system "draw" {
    borrow "gpu" { mode = exclusive }
  }
}
`), 0o644))

	// Workload file first: storages are still collected before compiling.
	result, err := ParseHCLFiles(workloadPath, storagePath)
	require.NoError(t, err)
	require.Len(t, result.Workloads, 1)
	assert.False(t, result.Workloads[0].Systems[0].Borrow[0].ThreadMobile)
}

func TestParseHCLErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `workload "w" {`},
		{"unknown attribute", `workload "w" { colour = "red" }`},
		{"missing label", `workload { }`},
		{"bad mode", `workload "w" { system "a" { borrow "x" { mode = "mutable" } } }`},
		{"unknown block", `workloads "w" {}`},
		{"unknown top-level attribute", `colour = "red"`},
		{"storage redeclared", "storage \"gpu\" {}\nstorage \"gpu\" {\n  thread_mobile = false\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHCL([]byte(tt.src), "bad.hcl")
			require.Error(t, err)
		})
	}
}

func TestHCLDocumentCompilesAgainstMergedStorages(t *testing.T) {
	doc, err := DecodeHCL([]byte(`
workload "hud" {
  system "blit" {
    borrow "overlay" { mode = exclusive }
  }
}
`), "hud.hcl")
	require.NoError(t, err)

	own, err := doc.Storages()
	require.NoError(t, err)
	assert.Empty(t, own)

	storages := Storages{"overlay": {ID: "overlay", Name: "Overlay", ThreadMobile: false}}
	workloads, err := doc.Workloads(storages)
	require.NoError(t, err)
	require.Len(t, workloads, 1)
	access := workloads[0].Systems[0].Borrow[0]
	assert.Equal(t, "Overlay", access.Name)
	assert.False(t, access.ThreadMobile)
}

func TestStoragesMerge(t *testing.T) {
	window := ir.StorageSpec{ID: "window", Name: "Window", ThreadMobile: false}
	s := Storages{"pos": {ID: "pos", ThreadMobile: true}}

	require.NoError(t, s.Merge(Storages{"window": window}))
	require.NoError(t, s.Merge(Storages{"window": window}), "identical redeclaration")
	assert.Len(t, s, 2)

	mobile := window
	mobile.ThreadMobile = true
	err := s.Merge(Storages{"window": mobile})
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "storage", compileErr.Field)
	assert.Contains(t, compileErr.Message, "window")
	assert.False(t, s["window"].ThreadMobile, "conflicting declaration is not applied")
}
