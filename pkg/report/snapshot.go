package report

import (
	"io"
	"strings"
	"time"

	"github.com/dpf-ci/dpf-version/pkg/snapshot"
	"github.com/dpf-ci/dpf-version/pkg/utils"
)

// WriteSnapshot renders snap to w in the given format
func WriteSnapshot(w io.Writer, snap *snapshot.ConfigSnapshot, generated time.Time, format Format) error {
	if format == FormatJSON {
		return WriteJSON(w, snap)
	}
	_, err := io.WriteString(w, SnapshotMarkdown(snap, generated))
	return err
}

// SnapshotMarkdown renders a documentation snapshot for human review
func SnapshotMarkdown(snap *snapshot.ConfigSnapshot, generated time.Time) string {
	m := &markdown{}
	m.line("# RDG Documentation Analysis")
	m.line("")
	m.line("**Date**: %s", generated.Format(dateLayout))
	if v := snap.Versions[snapshot.VersionKeyPlatform]; v != "" {
		m.line("**DPF Version**: %s", v)
	}
	if v := snap.Versions[snapshot.VersionKeyOrchestrator]; v != "" {
		m.line("**OpenShift Version**: %s", v)
	}

	if len(snap.HelmCharts) > 0 {
		m.section(2, "Helm Charts")
		for _, name := range utils.SortedKeys(snap.HelmCharts) {
			m.line("- **%s**: %s", name, snap.HelmCharts[name])
		}
	}
	if len(snap.APIVersions) > 0 {
		m.section(2, "API Versions")
		for _, kind := range utils.SortedKeys(snap.APIVersions) {
			m.line("- **%s**: %s", kind, strings.Join(snap.APIVersions[kind], ", "))
		}
	}
	if len(snap.EnvironmentVariables) > 0 {
		m.section(2, "Environment Variables")
		for _, name := range utils.SortedKeys(snap.EnvironmentVariables) {
			m.line("- `%s=%s`", name, snap.EnvironmentVariables[name])
		}
	}
	if len(snap.ChartValues) > 0 || len(snap.ValuesFiles) > 0 {
		m.section(2, "Helm Values")
		for _, key := range utils.SortedKeys(snap.ChartValues) {
			m.line("- `%s`: %s", key, snap.ChartValues[key])
		}
		if len(snap.ValuesFiles) > 0 {
			m.section(3, "Values Files")
			m.bullets(snap.ValuesFiles)
		}
	}
	if len(snap.NetworkConfiguration) > 0 {
		m.section(2, "Network Configuration")
		for _, key := range utils.SortedKeys(snap.NetworkConfiguration) {
			m.line("- **%s**: %s", key, strings.Join(snap.NetworkConfiguration[key], ", "))
		}
	}
	if len(snap.Prerequisites) > 0 {
		m.section(2, "Prerequisites")
		m.bullets(snap.Prerequisites)
	}
	if len(snap.KnownIssues) > 0 {
		m.section(2, "Known Issues")
		m.bullets(snap.KnownIssues)
	}
	return m.String()
}
