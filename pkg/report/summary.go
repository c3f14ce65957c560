package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/dpf-ci/dpf-version/pkg/compare"
	"github.com/dpf-ci/dpf-version/pkg/updater"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
)

// PrintUpdateSummary writes a short terminal summary of an update run
func PrintUpdateSummary(w io.Writer, res *updater.Result, validationErr error) {
	mode := ""
	if res.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "Update to %s%s\n", res.TargetVersion, mode)
	fmt.Fprintf(w, "  %s %d files\n", successColor.Sprint("updated:  "), len(res.Success))
	fmt.Fprintf(w, "  %s %d files\n", "unchanged:", len(res.Unchanged))
	fmt.Fprintf(w, "  %s %d files\n", warnColor.Sprint("skipped:  "), len(res.Skipped))
	fmt.Fprintf(w, "  %s %d files\n", failColor.Sprint("failed:   "), len(res.Failed))
	for _, f := range res.Failed {
		fmt.Fprintf(w, "    %s %s: %s\n", failColor.Sprint("✗"), f.Path, f.Error)
	}

	switch {
	case validationErr != nil:
		fmt.Fprintln(w, failColor.Sprint("Validation failed: ")+validationErr.Error())
	case res.HasFailures():
		fmt.Fprintln(w, failColor.Sprint("Update completed with failures"))
	case res.DryRun:
		fmt.Fprintln(w, warnColor.Sprint("Dry run complete, no files were written"))
	default:
		fmt.Fprintln(w, successColor.Sprint("Update complete"))
	}
}

// PrintComparisonSummary writes the headline counts and breaking changes of a comparison
func PrintComparisonSummary(w io.Writer, c *compare.Comparison) {
	fmt.Fprintf(w, "Compared %s → %s: %d API, %d Helm, %d file changes\n",
		c.OldVersion, c.NewVersion,
		c.Summary.APIChanges, c.Summary.HelmChanges, c.Summary.FileChanges)
	for _, b := range c.Summary.BreakingChanges {
		fmt.Fprintf(w, "  %s %s\n", failColor.Sprint("⚠"), b)
	}
	for _, r := range c.Summary.Recommendations {
		fmt.Fprintf(w, "  %s %s\n", warnColor.Sprint("→"), r)
	}
}
