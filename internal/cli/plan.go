package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/workplan/internal/compiler"
	"github.com/roach88/workplan/internal/ir"
	"github.com/roach88/workplan/internal/scheduler"
	"github.com/roach88/workplan/internal/store"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Workload string // plan only this workload
	DBPath   string // archive reports here when set
}

// PlanResult is the JSON payload of the plan command.
type PlanResult struct {
	Run     *store.Run        `json:"run,omitempty"`
	Reports []PlannedWorkload `json:"reports"`
}

// PlannedWorkload is one planned report with its fingerprints.
type PlannedWorkload struct {
	Name       string          `json:"name"`
	ReportHash string          `json:"report_hash"`
	SpecHash   string          `json:"spec_hash"`
	Report     ir.WorkloadInfo `json:"report"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <specs-dir>",
		Short: "Plan workloads into batches",
		Long: `Load CUE and HCL workload specs, validate them, and plan each workload
into batches of systems that can run concurrently.

Workloads are planned in execution order. With --db the reports are
archived as one run in a SQLite database.`,
		Example: `  # Plan every workload
  workplan plan ./specs

  # Plan one workload and archive the report
  workplan plan ./specs --workload physics --db plans.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Workload, "workload", "", "plan only the named workload")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "archive reports to this SQLite database")

	return cmd
}

func runPlan(opts *PlanOptions, specsDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	loadResult, loadErrors := LoadWorkloads(specsDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		if loadResult == nil {
			return outputLoadError(formatter, loadErrors[0])
		}
		return outputValidationErrors(formatter, len(loadResult.Workloads),
			[]compiler.ValidationError{loadErrorToValidation(loadErrors[0])})
	}
	formatter.VerboseLog("Found %d spec file(s) in %s", loadResult.FileCount, specsDir)

	if errs := compiler.ValidateAll(loadResult.Workloads, loadResult.Storages); len(errs) > 0 {
		return outputValidationErrors(formatter, len(loadResult.Workloads), errs)
	}

	reports, err := buildReports(loadResult.Workloads, opts.Workload, logger)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			_ = formatter.Error(ErrCodeNotFound, exitErr.Message, nil)
			return exitErr
		}
		return outputScheduleError(formatter, err)
	}

	result := PlanResult{Reports: make([]PlannedWorkload, 0, len(reports))}
	specs := make(map[string]ir.WorkloadSpec, len(loadResult.Workloads))
	for _, spec := range loadResult.Workloads {
		specs[spec.Name] = spec
	}
	for _, report := range reports {
		planned, err := fingerprint(report, specs[report.Name])
		if err != nil {
			return WrapExitError(ExitCommandError, "fingerprinting report", err)
		}
		result.Reports = append(result.Reports, planned)
	}

	if opts.DBPath != "" {
		run, err := archiveReports(cmd, opts.DBPath, result.Reports)
		if err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "archiving reports", err)
		}
		logger.Info("reports archived", "run", run.ID, "seq", run.Seq, "db", opts.DBPath)
		result.Run = &run
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	for _, p := range result.Reports {
		printReport(formatter.Writer, p.Report)
		printLabelValue(formatter.Writer, "report", p.ReportHash)
		fmt.Fprintln(formatter.Writer)
	}
	if result.Run != nil {
		printSuccess(formatter.Writer, fmt.Sprintf("Archived run %s (seq %d)", result.Run.ID, result.Run.Seq))
	}
	return nil
}

// buildReports plans every workload in execution order, or only the named
// one when only is set.
func buildReports(specs []ir.WorkloadSpec, only string, logger *slog.Logger) ([]ir.WorkloadInfo, error) {
	if only != "" {
		for _, spec := range specs {
			if spec.Name == only {
				report, err := scheduler.BuildWorkload(scheduler.FromSpec(spec), scheduler.WithLogger(logger))
				if err != nil {
					return nil, err
				}
				return []ir.WorkloadInfo{report}, nil
			}
		}
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("workload not found: %s", only))
	}

	b := scheduler.NewBuilder(scheduler.WithLogger(logger))
	for _, spec := range specs {
		if err := b.AddWorkload(scheduler.FromSpec(spec)); err != nil {
			return nil, err
		}
	}
	return b.BuildOrdered()
}

func fingerprint(report ir.WorkloadInfo, spec ir.WorkloadSpec) (PlannedWorkload, error) {
	reportHash, err := ir.ReportHash(report)
	if err != nil {
		return PlannedWorkload{}, err
	}
	specHash, err := ir.SpecHash(spec)
	if err != nil {
		return PlannedWorkload{}, err
	}
	return PlannedWorkload{
		Name:       report.Name,
		ReportHash: reportHash,
		SpecHash:   specHash,
		Report:     report,
	}, nil
}

func archiveReports(cmd *cobra.Command, path string, planned []PlannedWorkload) (store.Run, error) {
	st, err := store.Open(path)
	if err != nil {
		return store.Run{}, err
	}
	defer st.Close()

	entries := make([]store.Entry, len(planned))
	for i, p := range planned {
		entries[i] = store.Entry{Report: p.Report, SpecHash: p.SpecHash}
	}
	return st.Archive(cmd.Context(), store.UUIDv7Generator{}, entries...)
}

// outputScheduleError reports a workload that could not be built.
func outputScheduleError(formatter *OutputFormatter, err error) error {
	var se *scheduler.ScheduleError
	if !errors.As(err, &se) {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "planning failed", err)
	}

	details := map[string]any{}
	if se.Workload != "" {
		details["workload"] = se.Workload
	}
	if len(se.Systems) > 0 {
		details["systems"] = se.Systems
	}
	if len(se.Labels) > 0 {
		details["labels"] = se.Labels
	}
	_ = formatter.Error(string(se.Code), se.Error(), details)
	return WrapExitError(ExitFailure, "planning failed", err)
}
