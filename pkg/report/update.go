package report

import (
	"io"
	"time"

	"github.com/dpf-ci/dpf-version/pkg/updater"
)

// UpdateReport is the machine-readable form of an update run
type UpdateReport struct {
	GeneratedAt     time.Time       `json:"generated_at"`
	RunID           string          `json:"run_id,omitempty"`
	ValidationError string          `json:"validation_error,omitempty"`
	Result          *updater.Result `json:"result"`
}

// WriteUpdate renders r to w in the given format
func WriteUpdate(w io.Writer, r *UpdateReport, format Format) error {
	if format == FormatJSON {
		return WriteJSON(w, r)
	}
	_, err := io.WriteString(w, UpdateMarkdown(r))
	return err
}

// UpdateMarkdown renders the update records grouped by file, in first-touched order
func UpdateMarkdown(r *UpdateReport) string {
	m := &markdown{}
	m.line("# DPF Version Update Report")
	m.line("")
	m.line("Generated: %s", r.GeneratedAt.Format(dateLayout))
	res := r.Result
	if res == nil {
		return m.String()
	}
	m.line("")
	m.line("Target version: %s", res.TargetVersion)
	if res.PreviousVersion != "" {
		m.line("Previous version: %s", res.PreviousVersion)
	}
	if res.DryRun {
		m.line("Mode: dry run")
	}
	m.line("")
	m.line("Total updates: %d", len(res.Records))

	if len(res.Records) > 0 {
		m.section(2, "Updates Made")
		var order []string
		grouped := map[string][]updater.UpdateRecord{}
		for _, rec := range res.Records {
			if _, ok := grouped[rec.File]; !ok {
				order = append(order, rec.File)
			}
			grouped[rec.File] = append(grouped[rec.File], rec)
		}
		for _, file := range order {
			m.section(3, file)
			for _, rec := range grouped[file] {
				if rec.IsBulk() {
					m.line("- %s: %d updates", rec.FieldPath, rec.MutationCount)
				} else {
					m.line("- %s: `%s` → `%s`", rec.FieldPath, rec.OldValue, rec.NewValue)
				}
			}
		}
	}

	if len(res.Failed) > 0 {
		m.section(2, "Failed Files")
		for _, f := range res.Failed {
			m.line("- %s: %s", f.Path, f.Error)
		}
	}
	if len(res.Skipped) > 0 {
		m.section(2, "Skipped Files")
		m.bullets(res.Skipped)
	}
	if r.ValidationError != "" {
		m.section(2, "Validation")
		m.line("- %s", r.ValidationError)
	}
	return m.String()
}
