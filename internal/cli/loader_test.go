package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/workplan/internal/compiler"
	"github.com/roach88/workplan/internal/ir"
)

func TestLoadWorkloads_CUEAndHCL(t *testing.T) {
	result, errs := LoadWorkloads(specsDir, LoadModeFailFast)
	require.Empty(t, errs)
	require.NotNil(t, result)

	assert.Equal(t, 3, result.FileCount)
	require.Len(t, result.Workloads, 2)
	assert.Equal(t, "physics", result.Workloads[0].Name, "CUE workloads load before HCL ones")
	assert.Equal(t, "render", result.Workloads[1].Name)

	for _, id := range []ir.StorageID{"pos", "vel", "window", "mesh", "gpu"} {
		assert.Contains(t, result.Storages, id)
	}
	assert.False(t, result.Storages["window"].ThreadMobile)

	present := result.Workloads[0].Systems[2]
	require.Len(t, present.Borrow, 1)
	assert.Equal(t, "Window", present.Borrow[0].Name)
	assert.False(t, present.Borrow[0].ThreadMobile)

	draw := result.Workloads[1].Systems[1]
	require.Len(t, draw.Borrow, 2)
	assert.Equal(t, ir.Exclusive, draw.Borrow[1].Mode)
}

func TestLoadWorkloads_Errors(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
		code string
	}{
		{"missing directory", func(*testing.T) string { return "/nonexistent/specs" }, ErrCodeNotFound},
		{"not a directory", func(*testing.T) string { return "testdata/specs/storage.cue" }, ErrCodeNotFound},
		{"no files", func(t *testing.T) string { return t.TempDir() }, ErrCodeNoFiles},
		{"no workloads", func(t *testing.T) string {
			return writeSpecs(t, map[string]string{"s.cue": "package workloads\n\nstorage: pos: {}\n"})
		}, ErrCodeNoWorkloads},
		{"bad hcl", func(t *testing.T) string {
			return writeSpecs(t, map[string]string{"w.hcl": `workload "w" {`})
		}, ErrCodeHCLFailed},
		{"unknown hcl block", func(t *testing.T) string {
			return writeSpecs(t, map[string]string{"w.hcl": `workloads "physics" {}`})
		}, ErrCodeHCLFailed},
		{"storage declared differently", func(t *testing.T) string {
			return writeSpecs(t, map[string]string{
				"s.cue": "package workloads\n\nstorage: window: {thread_mobile: true}\n",
				"s.hcl": "storage \"window\" {\n  thread_mobile = false\n}\n",
			})
		}, compiler.ErrConflictingStorage},
		{"missing systems", func(t *testing.T) string {
			return writeSpecs(t, map[string]string{"w.cue": "package workloads\n\nworkload: w: {}\n"})
		}, compiler.ErrUnsupportedType},
		{"missing storage", func(t *testing.T) string {
			return writeSpecs(t, map[string]string{"w.cue": "package workloads\n\nworkload: w: systems: [{name: \"a\", borrow: [{mode: \"shared\"}]}]\n"})
		}, compiler.ErrUnknownStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := LoadWorkloads(tt.dir(t), LoadModeFailFast)
			require.NotEmpty(t, errs)

			var loadErr *LoadError
			require.True(t, errors.As(errs[0], &loadErr), "got %T", errs[0])
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}

func TestLoadWorkloads_StoragesShared(t *testing.T) {
	result, errs := LoadWorkloads("testdata/mixed", LoadModeFailFast)
	require.Empty(t, errs)

	require.Len(t, result.Workloads, 1)
	blit := result.Workloads[0].Systems[1]
	require.Len(t, blit.Borrow, 1)
	assert.Equal(t, "Overlay", blit.Borrow[0].Name, "CUE access resolves an HCL declaration")
	assert.False(t, blit.Borrow[0].ThreadMobile)

	dir := writeSpecs(t, map[string]string{
		"s.cue": "package workloads\n\nstorage: gpu: {name: \"GPU\", thread_mobile: false}\n",
		"w.hcl": "storage \"gpu\" {\n  name          = \"GPU\"\n  thread_mobile = false\n}\n\nworkload \"render\" {\n  system \"draw\" {\n    borrow \"gpu\" {}\n  }\n}\n",
	})
	result, errs = LoadWorkloads(dir, LoadModeFailFast)
	require.Empty(t, errs, "matching redeclarations are allowed")
	assert.False(t, result.Workloads[0].Systems[0].Borrow[0].ThreadMobile)
}

func TestLoadWorkloads_CollectAll(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"w.cue": `
package workloads

workload: a: {}
workload: b: {}
workload: c: systems: [{name: "ok"}]
`})

	result, errs := LoadWorkloads(dir, LoadModeCollectAll)
	require.NotNil(t, result)
	assert.Len(t, errs, 2)
	require.Len(t, result.Workloads, 1)
	assert.Equal(t, "c", result.Workloads[0].Name)

	_, errs = LoadWorkloads(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)
}

func TestFindSpecFiles(t *testing.T) {
	cueFiles, hclFiles, err := FindSpecFiles(specsDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"testdata/specs/physics.cue", "testdata/specs/storage.cue"}, cueFiles)
	assert.Equal(t, []string{"testdata/specs/render.hcl"}, hclFiles)
}

func TestLoadErrorFormat(t *testing.T) {
	err := &LoadError{Code: ErrCodeNotFound, Message: "specs directory not found: x"}
	assert.Equal(t, "E005: specs directory not found: x", err.Error())
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, compiler.ErrSystemNameInvalid, MapFieldToErrorCode("system.name", ErrCodeGeneric))
	assert.Equal(t, compiler.ErrUnknownStorage, MapFieldToErrorCode("borrow.storage", ErrCodeGeneric))
	assert.Equal(t, compiler.ErrConflictingStorage, MapFieldToErrorCode("storage", ErrCodeHCLFailed))
	assert.Equal(t, compiler.ErrUnsupportedType, MapFieldToErrorCode("borrow.mode", ErrCodeGeneric))
	assert.Equal(t, ErrCodeHCLFailed, MapFieldToErrorCode("cue", ErrCodeHCLFailed))
}
