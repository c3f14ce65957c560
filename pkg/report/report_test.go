package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpf-ci/dpf-version/pkg/compare"
	"github.com/dpf-ci/dpf-version/pkg/snapshot"
	"github.com/dpf-ci/dpf-version/pkg/updater"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"Markdown", FormatMarkdown, false},
		{"JSON", FormatJSON, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, ".json", FormatJSON.Extension())
	assert.Equal(t, ".md", FormatMarkdown.Extension())
}

func sampleComparison() *compare.Comparison {
	old := snapshot.New(snapshot.SourceManifests, "old")
	old.APIVersions["Foo"] = []string{"v1"}
	old.APIVersions["Bar"] = []string{"v1alpha1"}
	old.HelmCharts["ovn"] = "1.3.0"
	old.HelmCharts["flannel"] = "0.9.0"
	old.TrackedFiles = map[string]string{"manifests/cfg.yaml": "a: 1\n"}

	new := snapshot.New(snapshot.SourceManifests, "new")
	new.APIVersions["Bar"] = []string{"v1beta1"}
	new.HelmCharts["ovn"] = "1.2.0"
	new.HelmCharts["flannel"] = "0.10.0"
	new.HelmCharts["nvidia"] = "2.0.0"
	new.TrackedFiles = map[string]string{"manifests/cfg.yaml": "a: 2\n"}

	c := compare.Build(old, new, "v25.1.1", "v25.4.0")
	c.ComparisonDate = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	return c
}

func TestComparisonMarkdown(t *testing.T) {
	out := ComparisonMarkdown(sampleComparison())

	for _, want := range []string{
		"# DPF Version Comparison Report",
		"**Date**: 2025-04-01 12:00:00",
		"**Versions**: v25.1.1 → v25.4.0",
		"- Total API changes: 2",
		"- Total Helm changes: 3",
		"- Total file changes: 1",
		"### ⚠️ Breaking Changes",
		"- API resources removed",
		"- Helm charts downgraded - verify compatibility",
		"### 📋 Recommendations",
		"### Removed APIs\n- **Foo**: v1",
		"### Modified APIs\n- **Bar**: v1alpha1 → v1beta1",
		"### Upgraded Charts\n- **flannel**: 0.9.0 → 0.10.0",
		"### Downgraded Charts\n- **ovn**: 1.3.0 → 1.2.0",
		"### Added Charts\n- **nvidia**: 2.0.0",
		"## File Changes\n\n### manifests/cfg.yaml\n- Field modified: a",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Environment Variable Changes")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestComparisonMarkdown_EmptyDelta(t *testing.T) {
	s := snapshot.New(snapshot.SourceManifests, "x")
	out := ComparisonMarkdown(compare.Build(s, s, "a", "b"))
	assert.Contains(t, out, "- Total API changes: 0")
	assert.NotContains(t, out, "Breaking Changes")
	assert.NotContains(t, out, "## API Changes")
}

func TestWriteComparison_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteComparison(&buf, sampleComparison(), FormatJSON))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "v25.1.1", decoded["old_version"])
	summary := decoded["summary"].(map[string]interface{})
	assert.EqualValues(t, 3, summary["total_helm_changes"])
}

func sampleResult() *updater.Result {
	return &updater.Result{
		TargetVersion:   "25.4.0",
		PreviousVersion: "25.1.1",
		Records: []updater.UpdateRecord{
			{File: "manifests/ovn-template.yaml", FieldPath: "spec.helmChart.source.version", OldValue: "v25.1.1", NewValue: "v25.4.0"},
			{File: "manifests/operator.yaml", FieldPath: "imagePullSpecs.ovn", OldValue: "img:v25.1.1", NewValue: "img:v25.4.0"},
			{File: "manifests/ovn-template.yaml", FieldPath: "image tags", MutationCount: 3},
		},
		Success: []string{"manifests/ovn-template.yaml", "manifests/operator.yaml"},
		Failed: []updater.Failure{
			{Path: "manifests/broken.yaml", Error: "failed to parse"},
		},
		Skipped:   []string{"manifests/flannel-template.yaml"},
		Unchanged: []string{},
	}
}

func TestUpdateMarkdown(t *testing.T) {
	r := &UpdateReport{
		GeneratedAt: time.Date(2025, 4, 1, 8, 30, 0, 0, time.UTC),
		Result:      sampleResult(),
	}
	out := UpdateMarkdown(r)

	assert.Contains(t, out, "Generated: 2025-04-01 08:30:00")
	assert.Contains(t, out, "Total updates: 3")
	assert.Contains(t, out, "### manifests/ovn-template.yaml\n"+
		"- spec.helmChart.source.version: `v25.1.1` → `v25.4.0`\n"+
		"- image tags: 3 updates")
	assert.Contains(t, out, "### manifests/operator.yaml\n- imagePullSpecs.ovn: `img:v25.1.1` → `img:v25.4.0`")
	assert.Less(t, strings.Index(out, "ovn-template.yaml"), strings.Index(out, "operator.yaml"))
	assert.Contains(t, out, "## Failed Files\n- manifests/broken.yaml: failed to parse")
	assert.Contains(t, out, "## Skipped Files\n- manifests/flannel-template.yaml")
	assert.NotContains(t, out, "Validation")
}

func TestUpdateMarkdown_NoRecords(t *testing.T) {
	res := &updater.Result{TargetVersion: "25.4.0", DryRun: true}
	out := UpdateMarkdown(&UpdateReport{Result: res, ValidationError: "bad file"})
	assert.Contains(t, out, "Total updates: 0")
	assert.Contains(t, out, "Mode: dry run")
	assert.NotContains(t, out, "## Updates Made")
	assert.Contains(t, out, "## Validation\n- bad file")
}

func TestSnapshotMarkdown(t *testing.T) {
	snap := snapshot.New(snapshot.SourceDocumentation, "page.html")
	snap.Versions[snapshot.VersionKeyPlatform] = "v25.4.0"
	snap.EnvironmentVariables["CLUSTER_NAME"] = "dpf"
	snap.ChartValues["ovn.mtu"] = "1400"
	snap.ValuesFiles = []string{"values.yaml"}
	snap.NetworkConfiguration["MTU"] = []string{"1500"}
	snap.Prerequisites = []string{"OpenShift cluster"}

	out := SnapshotMarkdown(snap, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Contains(t, out, "**DPF Version**: v25.4.0")
	assert.NotContains(t, out, "OpenShift Version")
	assert.Contains(t, out, "## Environment Variables\n- `CLUSTER_NAME=dpf`")
	assert.Contains(t, out, "## Helm Values\n- `ovn.mtu`: 1400\n\n### Values Files\n- values.yaml")
	assert.Contains(t, out, "## Network Configuration\n- **MTU**: 1500")
	assert.Contains(t, out, "## Prerequisites\n- OpenShift cluster")
	assert.NotContains(t, out, "Known Issues")
}

func TestPrintUpdateSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintUpdateSummary(&buf, sampleResult(), nil)
	out := buf.String()
	assert.Contains(t, out, "Update to 25.4.0")
	assert.Contains(t, out, "failed:    1 files")
	assert.Contains(t, out, "✗ manifests/broken.yaml: failed to parse")
	assert.Contains(t, out, "Update completed with failures")

	buf.Reset()
	PrintUpdateSummary(&buf, &updater.Result{TargetVersion: "1"}, errors.New("bad"))
	assert.Contains(t, buf.String(), "Validation failed: bad")
}

func TestPrintComparisonSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintComparisonSummary(&buf, sampleComparison())
	assert.Contains(t, buf.String(), "Compared v25.1.1 → v25.4.0: 2 API, 3 Helm, 1 file changes")
	assert.Contains(t, buf.String(), "⚠ API resources removed")
}
