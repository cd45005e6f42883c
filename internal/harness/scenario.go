package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/workplan/internal/compiler"
	"github.com/roach88/workplan/internal/ir"
)

// Scenario defines a conformance test scenario: one workload declared
// inline, the batches it must plan into, or the error building it must fail
// with.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Storages declares display names and thread mobility. Accesses to
	// undeclared storages are thread-mobile.
	Storages map[string]StorageDecl `yaml:"storages,omitempty"`

	// Workload is the workload under test.
	Workload WorkloadDecl `yaml:"workload"`

	// Assertions validate the planned report or the build error.
	Assertions []Assertion `yaml:"assertions"`
}

// StorageDecl declares one storage.
type StorageDecl struct {
	Name         string `yaml:"name,omitempty"`
	ThreadMobile *bool  `yaml:"thread_mobile,omitempty"`
}

// WorkloadDecl is the YAML form of a workload.
type WorkloadDecl struct {
	Name    string       `yaml:"name"`
	Systems []SystemDecl `yaml:"systems"`
}

// SystemDecl is the YAML form of a system.
type SystemDecl struct {
	Name   string       `yaml:"name"`
	TypeID string       `yaml:"type_id,omitempty"`
	Before []string     `yaml:"before,omitempty"`
	After  []string     `yaml:"after,omitempty"`
	Tags   []string     `yaml:"tags,omitempty"`
	Borrow []AccessDecl `yaml:"borrow,omitempty"`
}

// AccessDecl is the YAML form of a storage access. Mode defaults to shared.
type AccessDecl struct {
	Storage string `yaml:"storage"`
	Mode    string `yaml:"mode,omitempty"`
}

// Assertion validates the planned report or the build error.
type Assertion struct {
	// Type specifies the assertion type:
	// - "batch_count": the report has exactly Count batches
	// - "same_batch": Systems all land in one batch
	// - "separate_batches": Systems each land in a different batch
	// - "batch_order": Systems land in strictly increasing batches
	// - "solo": System runs as the Solo member of its batch
	// - "conflict": System carries a conflict of Kind (with Other and On if given)
	// - "no_conflict": System carries no conflict
	// - "build_error": building fails with Code
	Type string `yaml:"type"`

	Count   int      `yaml:"count,omitempty"`
	System  string   `yaml:"system,omitempty"`
	Systems []string `yaml:"systems,omitempty"`
	Kind    string   `yaml:"kind,omitempty"`
	Other   string   `yaml:"other,omitempty"`
	On      string   `yaml:"on,omitempty"`
	Code    string   `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertBatchCount      = "batch_count"
	AssertSameBatch       = "same_batch"
	AssertSeparateBatches = "separate_batches"
	AssertBatchOrder      = "batch_order"
	AssertSolo            = "solo"
	AssertConflict        = "conflict"
	AssertNoConflict      = "no_conflict"
	AssertBuildError      = "build_error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// CompiledStorages converts the storage declarations.
func (s *Scenario) CompiledStorages() compiler.Storages {
	out := make(compiler.Storages, len(s.Storages))
	for id, decl := range s.Storages {
		spec := ir.StorageSpec{ID: ir.StorageID(id), Name: decl.Name, ThreadMobile: true}
		if decl.ThreadMobile != nil {
			spec.ThreadMobile = *decl.ThreadMobile
		}
		out[spec.ID] = spec
	}
	return out
}

// Spec converts the inline workload to a WorkloadSpec, resolving accesses
// through the scenario's storages.
func (s *Scenario) Spec() (ir.WorkloadSpec, error) {
	storages := s.CompiledStorages()
	spec := ir.WorkloadSpec{
		Name:   s.Workload.Name,
		Before: []string{},
		After:  []string{},
		Tags:   []string{},
	}

	for _, sys := range s.Workload.Systems {
		out := ir.SystemSpec{
			Name:   sys.Name,
			TypeID: ir.TypeID(sys.TypeID),
			Before: nonNil(sys.Before),
			After:  nonNil(sys.After),
			Tags:   nonNil(sys.Tags),
		}
		if out.TypeID == "" {
			out.TypeID = ir.DefaultTypeID(s.Workload.Name, sys.Name)
		}
		for _, a := range sys.Borrow {
			mode := ir.Shared
			if a.Mode != "" {
				var err error
				if mode, err = ir.ParseAccessMode(a.Mode); err != nil {
					return ir.WorkloadSpec{}, fmt.Errorf("system %s: %w", sys.Name, err)
				}
			}
			out.Borrow = append(out.Borrow, storages.Resolve(ir.StorageID(a.Storage), mode))
		}
		spec.Systems = append(spec.Systems, out)
	}
	return spec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Workload.Name == "" {
		return fmt.Errorf("workload.name is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, sys := range s.Workload.Systems {
		if sys.Name == "" {
			return fmt.Errorf("workload.systems[%d]: name is required", i)
		}
		for j, a := range sys.Borrow {
			if a.Storage == "" {
				return fmt.Errorf("workload.systems[%d].borrow[%d]: storage is required", i, j)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertBatchCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for batch_count", index)
		}
	case AssertSameBatch, AssertSeparateBatches, AssertBatchOrder:
		if len(a.Systems) < 2 {
			return fmt.Errorf("assertions[%d]: at least two systems are required for %s", index, a.Type)
		}
	case AssertSolo, AssertNoConflict:
		if a.System == "" {
			return fmt.Errorf("assertions[%d]: system is required for %s", index, a.Type)
		}
	case AssertConflict:
		if a.System == "" {
			return fmt.Errorf("assertions[%d]: system is required for conflict", index)
		}
		switch ir.ConflictKind(a.Kind) {
		case ir.ConflictBorrow, ir.ConflictNotThreadMobile, ir.ConflictOtherNotThreadMobile:
		default:
			return fmt.Errorf("assertions[%d]: unknown conflict kind %q", index, a.Kind)
		}
	case AssertBuildError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for build_error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
