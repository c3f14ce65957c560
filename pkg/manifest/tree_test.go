package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
)

func TestDirTree_Documents(t *testing.T) {
	root := writeTree(t, map[string]string{
		"manifests/b.yaml":        "kind: B",
		"manifests/a.yml":         "kind: A",
		"manifests/readme.md":     "# docs",
		".git/config.yaml":        "ignored: true",
		"examples/dpf/ovn.yaml":   ovnTemplate,
		"examples/.hidden/x.yaml": "ignored: true",
	})

	docs, err := NewDirTree(root).Documents()
	require.NoError(t, err)
	assert.Equal(t, []string{"examples/dpf/ovn.yaml", "manifests/a.yml", "manifests/b.yaml"}, docs)
}

func TestDirTree_ReadWrite(t *testing.T) {
	root := writeTree(t, map[string]string{"manifests/a.yaml": "a: 1\n"})
	require.NoError(t, os.Chmod(filepath.Join(root, "manifests/a.yaml"), 0o600))
	tree := NewDirTree(root)

	assert.True(t, tree.Exists("manifests/a.yaml"))
	assert.False(t, tree.Exists("manifests"))
	assert.False(t, tree.Exists("manifests/missing.yaml"))

	_, err := tree.Read("manifests/missing.yaml")
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))

	require.NoError(t, tree.Write("manifests/a.yaml", []byte("a: 2\n")))
	data, err := tree.Read("manifests/a.yaml")
	require.NoError(t, err)
	assert.Equal(t, "a: 2\n", string(data))

	info, err := os.Stat(filepath.Join(root, "manifests/a.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLayouts_Resolve(t *testing.T) {
	layouts := DefaultLayouts()

	tests := []struct {
		name     string
		files    map[string]string
		wantPath string
		wantOK   bool
	}{
		{
			name: "first layout wins",
			files: map[string]string{
				"manifests/post-installation/ovn-template.yaml": ovnTemplate,
				"examples/dpf/ovn-template.yaml":                ovnTemplate,
			},
			wantPath: "manifests/post-installation/ovn-template.yaml",
			wantOK:   true,
		},
		{
			name:     "falls back to examples layout",
			files:    map[string]string{"examples/dpf/ovn-template.yaml": ovnTemplate},
			wantPath: "examples/dpf/ovn-template.yaml",
			wantOK:   true,
		},
		{
			name:   "absent from every layout",
			files:  map[string]string{"other/ovn-template.yaml": ovnTemplate},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewDirTree(writeTree(t, tt.files))
			got, ok := layouts.Resolve(tree, "ovn-template.yaml")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPath, got)
		})
	}

	assert.Equal(t, "manifests/post-installation/x.yaml", layouts.Primary("x.yaml"))
	assert.Equal(t, "x.yaml", Layouts{}.Primary("x.yaml"))
	assert.Equal(t, Layouts{{Name: "dpf", Dir: "examples/dpf"}}, LayoutsFromDirs([]string{"examples/dpf"}))
}

func TestComponentForTemplate(t *testing.T) {
	assert.Equal(t, "ovn-kubernetes", ComponentForTemplate("ovn-template.yaml", DefaultComponentAliases))
	assert.Equal(t, "flannel", ComponentForTemplate("flannel-template.yaml", DefaultComponentAliases))
	assert.Equal(t, "ovn", ComponentForTemplate("ovn-template.yaml", nil))
}
