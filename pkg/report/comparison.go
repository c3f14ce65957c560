package report

import (
	"io"
	"strings"

	"github.com/dpf-ci/dpf-version/pkg/compare"
	"github.com/dpf-ci/dpf-version/pkg/delta"
	"github.com/dpf-ci/dpf-version/pkg/utils"
)

const dateLayout = "2006-01-02 15:04:05"

// WriteComparison renders c to w in the given format
func WriteComparison(w io.Writer, c *compare.Comparison, format Format) error {
	if format == FormatJSON {
		return WriteJSON(w, c)
	}
	_, err := io.WriteString(w, ComparisonMarkdown(c))
	return err
}

// ComparisonMarkdown renders the comparison as a markdown document. Empty facets are omitted.
func ComparisonMarkdown(c *compare.Comparison) string {
	m := &markdown{}
	m.line("# DPF Version Comparison Report")
	m.line("")
	m.line("**Date**: %s", c.ComparisonDate.Format(dateLayout))
	m.line("**Versions**: %s → %s", c.OldVersion, c.NewVersion)

	m.section(2, "Summary")
	m.line("- Total API changes: %d", c.Summary.APIChanges)
	m.line("- Total Helm changes: %d", c.Summary.HelmChanges)
	m.line("- Total file changes: %d", c.Summary.FileChanges)

	if len(c.Summary.BreakingChanges) > 0 {
		m.section(3, "⚠️ Breaking Changes")
		m.bullets(c.Summary.BreakingChanges)
	}
	if len(c.Summary.Recommendations) > 0 {
		m.section(3, "📋 Recommendations")
		m.bullets(c.Summary.Recommendations)
	}

	d := c.Delta
	if d == nil {
		return m.String()
	}

	if len(d.VersionChanges) > 0 {
		m.section(2, "Version Changes")
		for _, key := range utils.SortedKeys(d.VersionChanges) {
			change := d.VersionChanges[key]
			m.line("- **%s**: %s → %s", key, orNone(change.Old), orNone(change.New))
		}
	}

	if !d.APIVersions.IsEmpty() {
		m.section(2, "API Changes")
		listSection(m, "Added APIs", d.APIVersions.Added, joinVersions)
		listSection(m, "Removed APIs", d.APIVersions.Removed, joinVersions)
		if len(d.APIVersions.Modified) > 0 {
			m.section(3, "Modified APIs")
			for _, kind := range utils.SortedKeys(d.APIVersions.Modified) {
				change := d.APIVersions.Modified[kind]
				m.line("- **%s**: %s → %s", kind, joinVersions(change.Old), joinVersions(change.New))
			}
		}
	}

	if !d.HelmCharts.IsEmpty() {
		m.section(2, "Helm Chart Changes")
		chartSection(m, "Upgraded Charts", d.HelmCharts.Upgraded)
		chartSection(m, "Downgraded Charts", d.HelmCharts.Downgraded)
		listSection(m, "Added Charts", d.HelmCharts.Added, identity)
		listSection(m, "Removed Charts", d.HelmCharts.Removed, identity)
	}

	valueDeltaSection(m, "Environment Variable Changes", d.EnvironmentVariables)
	valueDeltaSection(m, "Helm Value Changes", d.ChartValues)

	if !d.NetworkConfiguration.IsEmpty() {
		m.section(2, "Network Configuration Changes")
		listSection(m, "Added", d.NetworkConfiguration.Added, joinVersions)
		listSection(m, "Removed", d.NetworkConfiguration.Removed, joinVersions)
		if len(d.NetworkConfiguration.Modified) > 0 {
			m.section(3, "Modified")
			for _, key := range utils.SortedKeys(d.NetworkConfiguration.Modified) {
				change := d.NetworkConfiguration.Modified[key]
				m.line("- **%s**: %s → %s", key, joinVersions(change.Old), joinVersions(change.New))
			}
		}
	}

	if len(d.NewValuesFiles) > 0 {
		m.section(2, "New Values Files")
		m.bullets(d.NewValuesFiles)
	}
	if len(d.NewPrerequisites) > 0 {
		m.section(2, "New Prerequisites")
		m.bullets(d.NewPrerequisites)
	}
	if len(d.NewKnownIssues) > 0 {
		m.section(2, "New Known Issues")
		m.bullets(d.NewKnownIssues)
	}

	if len(d.FileChanges) > 0 {
		m.section(2, "File Changes")
		for _, fc := range d.FileChanges {
			m.section(3, fc.File)
			m.bullets(fc.Changes)
		}
	}

	return m.String()
}

func listSection[V any](m *markdown, title string, entries map[string]V, render func(V) string) {
	if len(entries) == 0 {
		return
	}
	m.section(3, title)
	for _, key := range utils.SortedKeys(entries) {
		m.line("- **%s**: %s", key, render(entries[key]))
	}
}

func chartSection(m *markdown, title string, charts map[string]delta.ChartChange) {
	if len(charts) == 0 {
		return
	}
	m.section(3, title)
	for _, name := range utils.SortedKeys(charts) {
		change := charts[name]
		suffix := ""
		if change.Ambiguous {
			suffix = " (version order unknown)"
		}
		m.line("- **%s**: %s → %s%s", name, change.From, change.To, suffix)
	}
}

func valueDeltaSection(m *markdown, title string, d delta.MapDelta[string]) {
	if d.IsEmpty() {
		return
	}
	m.section(2, title)
	for _, key := range utils.SortedKeys(d.Added) {
		m.line("- Added `%s=%s`", key, d.Added[key])
	}
	for _, key := range utils.SortedKeys(d.Removed) {
		m.line("- Removed `%s=%s`", key, d.Removed[key])
	}
	for _, key := range utils.SortedKeys(d.Modified) {
		change := d.Modified[key]
		m.line("- Modified `%s`: `%s` → `%s`", key, change.Old, change.New)
	}
}

func joinVersions(v []string) string {
	if len(v) == 0 {
		return "(none)"
	}
	return strings.Join(v, ", ")
}

func identity(s string) string { return s }

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
