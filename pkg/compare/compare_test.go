package compare

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
	"github.com/dpf-ci/dpf-version/pkg/signals"
	"github.com/dpf-ci/dpf-version/pkg/snapshot"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func template(chart, version string) string {
	return "spec:\n  helmChart:\n    source:\n      chart: " + chart + "\n      version: " + version + "\n"
}

func TestLoader_CompareDirectories(t *testing.T) {
	oldDir, newDir := t.TempDir(), t.TempDir()
	writeFiles(t, oldDir, map[string]string{
		"manifests/post-installation/ovn-template.yaml": template("ovn", "1.2.0"),
		"manifests/a.yaml": "apiVersion: v1\nkind: Foo\n",
	})
	writeFiles(t, newDir, map[string]string{
		"manifests/post-installation/ovn-template.yaml":     template("ovn", "1.3.0"),
		"manifests/post-installation/flannel-template.yaml": template("flannel", "0.9.0"),
	})

	loader := NewLoader(quietLogger(), snapshot.DefaultOptions())
	c, err := loader.Compare(context.Background(), oldDir, newDir, "v25.1.1", "v25.4.0")
	require.NoError(t, err)

	assert.Equal(t, "v25.1.1", c.OldVersion)
	assert.Equal(t, "v25.4.0", c.NewVersion)
	assert.Contains(t, c.Delta.HelmCharts.Upgraded, "ovn")
	assert.Contains(t, c.Delta.HelmCharts.Added, "flannel")
	assert.Contains(t, c.Delta.APIVersions.Removed, "Foo")
	assert.Equal(t, 2, c.Summary.HelmChanges)
	assert.Equal(t, 1, c.Summary.APIChanges)
	assert.Equal(t, []string{signals.BreakingAPIRemoved}, c.Summary.BreakingChanges)
	assert.Equal(t, []string{signals.RecommendReviewRemovedAPIs, signals.RecommendTestUpgrades}, c.Summary.Recommendations)
}

func TestLoader_LoadSnapshotJSON(t *testing.T) {
	snap := snapshot.New(snapshot.SourceManifests, "saved")
	snap.HelmCharts["ovn"] = "1.2.0"
	snap.Versions[snapshot.VersionKeyPlatform] = "v25.1.1"
	data, err := snap.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loader := NewLoader(quietLogger(), snapshot.DefaultOptions())
	loaded, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	c := Build(loaded, loaded, "", "")
	assert.Equal(t, "v25.1.1", c.OldVersion)
	assert.True(t, c.Delta.IsEmpty())
}

func TestLoader_LoadErrors(t *testing.T) {
	loader := NewLoader(quietLogger(), snapshot.DefaultOptions())
	ctx := context.Background()

	_, err := loader.Load(ctx, "")
	assert.Error(t, err)

	_, err = loader.Load(ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errdefs.IsNotFound(err))

	txt := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = loader.Load(ctx, txt)
	assert.Error(t, err)
}

func TestBuild_JSONShape(t *testing.T) {
	old := snapshot.New(snapshot.SourceManifests, "/tmp/old-tree")
	new := snapshot.New(snapshot.SourceManifests, "/tmp/new-tree")
	c := Build(old, new, "", "")
	assert.Equal(t, "old-tree", c.OldVersion)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	summary, ok := decoded["summary"].(map[string]interface{})
	require.True(t, ok)
	for _, key := range []string{"total_api_changes", "total_helm_changes", "total_file_changes", "breaking_changes", "recommendations"} {
		assert.Contains(t, summary, key)
	}
	assert.Contains(t, decoded, "delta")
	assert.Contains(t, decoded, "comparison_date")
}
