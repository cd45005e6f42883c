package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/roach88/workplan/internal/ir"
)

var (
	// fatih/color disables these when the output is not a TTY
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

// printHeader prints a section header.
func printHeader(w io.Writer, title string) {
	_, _ = headerColor.Fprintf(w, "▸ %s\n", title)
}

// printSuccess prints a success message with a checkmark.
func printSuccess(w io.Writer, msg string) {
	_, _ = successColor.Fprintf(w, "✓ %s\n", msg)
}

// printWarning prints a warning message with a warning symbol.
func printWarning(w io.Writer, msg string) {
	_, _ = warningColor.Fprintf(w, "⚠ %s\n", msg)
}

// printError prints an error message with a cross.
func printError(w io.Writer, msg string) {
	_, _ = errorColor.Fprintf(w, "✗ %s\n", msg)
}

// printLabelValue prints an indented label-value pair.
func printLabelValue(w io.Writer, label, value string) {
	_, _ = labelColor.Fprintf(w, "  %s: ", label)
	_, _ = dimColor.Fprintln(w, value)
}

// printReport renders a workload report as numbered batches. Systems that
// carry a conflict show why they could not join the batch before.
func printReport(w io.Writer, report ir.WorkloadInfo) {
	printHeader(w, fmt.Sprintf("workload %s (%d systems, %d batches)",
		report.Name, report.SystemCount(), len(report.Batches)))

	for i, b := range report.Batches {
		if b.Solo != nil {
			_, _ = labelColor.Fprintf(w, "  [%d] solo\n", i)
			printSystem(w, *b.Solo)
		}
		if len(b.Parallel) > 0 {
			_, _ = labelColor.Fprintf(w, "  [%d] parallel\n", i)
			for _, s := range b.Parallel {
				printSystem(w, s)
			}
		}
	}
}

func printSystem(w io.Writer, s ir.SystemInfo) {
	fmt.Fprintf(w, "      %s", s.Name)
	if len(s.Borrow) > 0 {
		_, _ = dimColor.Fprintf(w, " %s", describeBorrow(s.Borrow))
	}
	fmt.Fprintln(w)
	if s.Conflict != nil {
		_, _ = warningColor.Fprintf(w, "        ⚠ %s: %s\n", s.Conflict.Kind(), s.Conflict.Error())
	}
}

func describeBorrow(borrow []ir.TypeInfo) string {
	parts := make([]string, len(borrow))
	for i, t := range borrow {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
