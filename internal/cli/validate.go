package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/workplan/internal/compiler"
	"github.com/roach88/workplan/internal/scheduler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                       `json:"valid"`
	Workloads int                        `json:"workloads"`
	Errors    []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate workload specs without planning",
		Long: `Validate CUE and HCL workload specs.

Checks names, storage references and ordering labels, then resolves
ordering to catch cycles. Every error is reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, loadErrors := LoadWorkloads(specsDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputLoadError(formatter, loadErrors[0])
	}

	formatter.VerboseLog("Found %d spec file(s) in %s", loadResult.FileCount, specsDir)

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		validationErrors = append(validationErrors, loadErrorToValidation(err))
	}

	validationErrors = append(validationErrors, compiler.ValidateAll(loadResult.Workloads, loadResult.Storages)...)

	// Ordering is only resolvable once labels are known to match something.
	if len(validationErrors) == 0 {
		validationErrors = append(validationErrors, checkOrdering(loadResult, opts.Logger(cmd.ErrOrStderr()))...)
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, len(loadResult.Workloads), validationErrors)
	}
	return outputValidateSuccess(formatter, len(loadResult.Workloads))
}

// checkOrdering builds every workload to surface cycles, which schema
// validation cannot see.
func checkOrdering(result *LoadResult, logger *slog.Logger) []compiler.ValidationError {
	var errs []compiler.ValidationError

	b := scheduler.NewBuilder(scheduler.WithLogger(logger))
	for _, spec := range result.Workloads {
		logger.Debug("resolving ordering", "workload", spec.Name, "systems", len(spec.Systems))
		if err := b.AddWorkload(scheduler.FromSpec(spec)); err != nil {
			errs = append(errs, scheduleErrorToValidation(err))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	if _, err := b.Build(); err != nil {
		errs = append(errs, scheduleErrorToValidation(err))
	}
	return errs
}

func scheduleErrorToValidation(err error) compiler.ValidationError {
	var se *scheduler.ScheduleError
	if errors.As(err, &se) {
		field := "workload"
		if se.Workload != "" {
			field = "workload." + se.Workload
		}
		return compiler.ValidationError{Field: field, Message: se.Message, Code: string(se.Code)}
	}
	return compiler.ValidationError{Field: "workload", Message: err.Error(), Code: ErrCodeGeneric}
}

func loadErrorToValidation(err error) compiler.ValidationError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		line := 0
		if loadErr.Pos.IsValid() {
			line = loadErr.Pos.Line()
		}
		return compiler.ValidationError{
			Field:   "load",
			Message: loadErr.Message,
			Code:    loadErr.Code,
			Line:    line,
		}
	}
	return compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
}

// outputLoadError reports a load failure that left nothing to work with.
func outputLoadError(formatter *OutputFormatter, err error) error {
	code, message := ErrCodeGeneric, err.Error()
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code, message = loadErr.Code, loadErr.Message
	}
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

func outputValidateSuccess(formatter *OutputFormatter, workloads int) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Workloads: workloads})
	}
	printSuccess(formatter.Writer, fmt.Sprintf("All specs valid (%d workloads)", workloads))
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, workloads int, errs []compiler.ValidationError) error {
	if formatter.JSON() {
		result := ValidationResult{Valid: false, Workloads: workloads, Errors: errs}
		_ = formatter.Failure("VALIDATION_FAILED", fmt.Sprintf("%d validation error(s)", len(errs)), result)
	} else {
		for _, e := range errs {
			printError(formatter.Writer, e.Error())
		}
		fmt.Fprintf(formatter.Writer, "\n%d validation error(s)\n", len(errs))
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(errs)))
}
