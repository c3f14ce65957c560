package snapshot

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpf-ci/dpf-version/pkg/manifest"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeTree(t *testing.T, files map[string]string) manifest.Tree {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return manifest.NewDirTree(root)
}

func chartTemplate(chart, version string) string {
	return "apiVersion: svc.dpu.nvidia.com/v1alpha1\n" +
		"kind: DPUServiceTemplate\n" +
		"spec:\n" +
		"  helmChart:\n" +
		"    source:\n" +
		"      repoURL: https://helm.ngc.nvidia.com/nvidia/doca\n" +
		"      chart: " + chart + "\n" +
		"      version: " + version + "\n"
}

func TestExtractor_Extract(t *testing.T) {
	tree := writeTree(t, map[string]string{
		"manifests/post-installation/ovn-template.yaml": chartTemplate("ovn-kubernetes-chart", "v25.1.1"),
		"examples/dpf/flannel-template.yaml":            chartTemplate("flannel", "v0.9.0"),
		"examples/dpf/ovn-template.yaml":                chartTemplate("ovn-kubernetes-chart", "v1.0.0"),
		"manifests/post-installation/hbn-template.yaml": "spec: [broken",
		"manifests/dpf-installation/deploy.yaml": "apiVersion: apps/v1\nkind: Deployment\n---\n" +
			"apiVersion: apps/v1beta1\nkind: Deployment\n---\napiVersion: v1\nkind: Service\n",
		"manifests/broken.yaml":   "kind: [",
		"ci/config/versions.yaml": "dpf_versions:\n  current: v25.1.1\n",
	})

	opts := DefaultOptions()
	opts.TrackedFiles = []string{"ci/config/versions.yaml", "missing.yaml"}
	snap, err := NewExtractor(quietLogger(), opts).Extract(context.Background(), tree)
	require.NoError(t, err)

	assert.Equal(t, SourceManifests, snap.Source)
	assert.Equal(t, map[string]string{
		"ovn-kubernetes-chart": "v25.1.1",
		"flannel":              "v0.9.0",
	}, snap.HelmCharts)
	assert.Equal(t, []string{"apps/v1", "apps/v1beta1"}, snap.APIVersions["Deployment"])
	assert.Equal(t, []string{"v1"}, snap.APIVersions["Service"])
	assert.Equal(t, []string{"svc.dpu.nvidia.com/v1alpha1"}, snap.APIVersions["DPUServiceTemplate"])
	assert.Equal(t, map[string]string{"ci/config/versions.yaml": "dpf_versions:\n  current: v25.1.1\n"}, snap.TrackedFiles)
}

func TestExtractor_Deterministic(t *testing.T) {
	tree := writeTree(t, map[string]string{
		"manifests/post-installation/ovn-template.yaml": chartTemplate("ovn", "v1.2.0"),
		"manifests/a.yaml": "apiVersion: v1\nkind: ConfigMap\n",
		"manifests/b.yaml": "apiVersion: v2\nkind: ConfigMap\n",
	})
	extractor := NewExtractor(quietLogger(), DefaultOptions())

	first, err := extractor.Extract(context.Background(), tree)
	require.NoError(t, err)
	second, err := extractor.Extract(context.Background(), tree)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtractor_CustomEnricher(t *testing.T) {
	tree := writeTree(t, map[string]string{"manifests/a.yaml": "apiVersion: v1\nkind: ConfigMap\n"})
	extractor := NewExtractor(quietLogger(), DefaultOptions())
	extractor.AddEnricher(nil)
	extractor.AddEnricher(func(_ context.Context, _ manifest.Tree, snap *ConfigSnapshot) error {
		snap.Versions[VersionKeyPlatform] = "v25.4.0"
		return nil
	})

	snap, err := extractor.Extract(context.Background(), tree)
	require.NoError(t, err)
	assert.Equal(t, "v25.4.0", snap.Versions[VersionKeyPlatform])
}

func TestExtractor_CancelledContext(t *testing.T) {
	tree := writeTree(t, map[string]string{"manifests/a.yaml": "apiVersion: v1\nkind: ConfigMap\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor(quietLogger(), DefaultOptions()).Extract(ctx, tree)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshot_MarshalRoundTrip(t *testing.T) {
	snap := New(SourceManifests, "/tmp/tree")
	snap.AddAPIVersion("Foo", "v2")
	snap.AddAPIVersion("Foo", "v1")
	snap.AddAPIVersion("Foo", "v2")
	snap.HelmCharts["ovn"] = "1.2.0"
	snap.AddNetworkLiteral("subnet", "10.0.0.0/16")
	snap.AddNetworkLiteral("subnet", "10.0.0.0/16")

	assert.Equal(t, []string{"v1", "v2"}, snap.APIVersions["Foo"])
	assert.Equal(t, []string{"10.0.0.0/16"}, snap.NetworkConfiguration["subnet"])

	data, err := snap.Marshal()
	require.NoError(t, err)
	decoded, err := Unmarshal("snap.json", data)
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)
}

func TestUnmarshal_FillsMissingFacets(t *testing.T) {
	snap, err := Unmarshal("old.json", []byte(`{"schema_version": 1, "helm_charts": {"ovn": "1.0.0"}, "api_versions": {"Foo": ["v2", "v1", "v2"]}}`))
	require.NoError(t, err)
	assert.NotNil(t, snap.EnvironmentVariables)
	assert.NotNil(t, snap.Prerequisites)
	assert.Equal(t, []string{"v1", "v2"}, snap.APIVersions["Foo"])

	_, err = Unmarshal("bad.json", []byte(`{`))
	assert.Error(t, err)

	_, err = Unmarshal("future.json", []byte(`{"schema_version": 99}`))
	assert.Error(t, err)
}
