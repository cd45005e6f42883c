package scheduler

import (
	"errors"
	"fmt"

	"github.com/roach88/workplan/internal/ir"
	"github.com/roach88/workplan/internal/label"
)

// Builder collects workloads and produces their reports.
//
// A Builder is not safe for concurrent use. Building does not consume the
// registered workloads, so Build may be called repeatedly and yields equal
// reports each time.
type Builder struct {
	cfg       config
	workloads []Workload
	names     map[string]struct{}
}

// NewBuilder creates an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{
		cfg:   newConfig(opts),
		names: make(map[string]struct{}),
	}
}

// AddWorkload registers w. Workload names must be non-empty and unique.
func (b *Builder) AddWorkload(w Workload) error {
	if w.Name == "" {
		return &ScheduleError{Code: ErrCodeEmptyName, Message: "workload has no name"}
	}
	if _, ok := b.names[w.Name]; ok {
		return &ScheduleError{
			Code:     ErrCodeDuplicateWorkload,
			Message:  fmt.Sprintf("workload %q already registered", w.Name),
			Workload: w.Name,
		}
	}
	b.names[w.Name] = struct{}{}
	b.workloads = append(b.workloads, w)
	return nil
}

// Len returns the number of registered workloads.
func (b *Builder) Len() int {
	return len(b.workloads)
}

// Build plans every registered workload. On any failure it returns the
// first error and no reports.
func (b *Builder) Build() (ir.WorkloadsInfo, error) {
	reports, err := b.BuildOrdered()
	if err != nil {
		return nil, err
	}
	out := make(ir.WorkloadsInfo, len(reports))
	for _, r := range reports {
		out[r.Name] = r
	}
	return out, nil
}

// BuildOrdered plans every registered workload and returns the reports in
// workload execution order: registration order, adjusted by workload-level
// before/after constraints.
func (b *Builder) BuildOrdered() ([]ir.WorkloadInfo, error) {
	nodes := make([]Node, len(b.workloads))
	for i, w := range b.workloads {
		nodes[i] = Node{Name: w.Name, Labels: w.Labels(), Before: w.Before, After: w.After}
	}
	order, err := Resolve(nodes)
	if err != nil {
		b.cfg.logger.Error("workload ordering failed", "error", err)
		return nil, err
	}

	reports := make([]ir.WorkloadInfo, 0, len(order))
	for _, i := range order {
		report, err := buildWorkload(b.workloads[i], b.cfg)
		if err != nil {
			b.cfg.logger.Error("workload build failed",
				"workload", b.workloads[i].Name,
				"error", err,
			)
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// BuildWorkload plans a single workload. Workload-level ordering against
// other workloads is not checked.
func BuildWorkload(w Workload, opts ...Option) (ir.WorkloadInfo, error) {
	if w.Name == "" {
		return ir.WorkloadInfo{}, &ScheduleError{Code: ErrCodeEmptyName, Message: "workload has no name"}
	}
	return buildWorkload(w, newConfig(opts))
}

func buildWorkload(w Workload, cfg config) (ir.WorkloadInfo, error) {
	if err := validateSystems(w); err != nil {
		return ir.WorkloadInfo{}, err
	}

	nodes := make([]Node, len(w.Systems))
	for i, s := range w.Systems {
		nodes[i] = Node{Name: s.ID.Name, Labels: s.Labels(), Before: s.Before, After: s.After}
	}
	order, err := Resolve(nodes)
	if err != nil {
		var se *ScheduleError
		if errors.As(err, &se) {
			se.Workload = w.Name
		}
		return ir.WorkloadInfo{}, err
	}

	infos := make([]ir.SystemInfo, len(order))
	for i, idx := range order {
		s := w.Systems[idx]
		info := s.info()
		info.Before = inherit(s.Before, w.Before)
		info.After = inherit(s.After, w.After)
		infos[i] = info
	}

	report := ir.WorkloadInfo{
		Name:    w.Name,
		Batches: Plan(infos, WithLogger(cfg.logger.With("workload", w.Name))),
	}

	cfg.logger.Info("workload built",
		"workload", w.Name,
		"systems", len(infos),
		"batches", len(report.Batches),
	)
	return report, nil
}

func validateSystems(w Workload) error {
	seen := make(map[ir.TypeID]string, len(w.Systems))
	for _, s := range w.Systems {
		if s.ID.Name == "" || s.ID.TypeID == "" {
			return &ScheduleError{
				Code:     ErrCodeEmptyName,
				Message:  fmt.Sprintf("system %q has an empty name or type id", s.ID.Name),
				Workload: w.Name,
				Systems:  []string{s.ID.Name},
			}
		}
		if prev, ok := seen[s.ID.TypeID]; ok {
			return &ScheduleError{
				Code:     ErrCodeDuplicateSystem,
				Message:  fmt.Sprintf("type id %q registered twice", s.ID.TypeID),
				Workload: w.Name,
				Systems:  []string{prev, s.ID.Name},
			}
		}
		seen[s.ID.TypeID] = s.ID.Name
	}
	return nil
}

// inherit returns the system's labels followed by the workload's.
func inherit(system, workload *label.Set) []string {
	merged := system.Clone()
	merged.Merge(workload)
	return merged.Strings()
}
