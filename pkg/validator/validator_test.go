package validator

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
	"github.com/dpf-ci/dpf-version/pkg/manifest"
	"github.com/dpf-ci/dpf-version/pkg/updater"
)

func newValidator(t *testing.T, files map[string]string) (*Validator, string) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(manifest.NewDirTree(root), logger), root
}

func TestValidate(t *testing.T) {
	v, _ := newValidator(t, map[string]string{
		"a.yaml":         "a: 1\n",
		"b.json":         `{"b": 1}`,
		"truncated.yaml": "spec:\n  helmChart: [\n",
		"script.sh":      "echo {{",
	})

	tests := []struct {
		name      string
		records   []updater.UpdateRecord
		wantErr   bool
		wantPath  string
		wantField string
	}{
		{
			name:    "no records",
			records: nil,
		},
		{
			name: "all valid",
			records: []updater.UpdateRecord{
				{File: "a.yaml", FieldPath: manifest.ChartVersionField},
				{File: "b.json", FieldPath: "x"},
			},
		},
		{
			name:    "unstructured files are not re-validated",
			records: []updater.UpdateRecord{{File: "script.sh", FieldPath: manifest.ImageTagsField, MutationCount: 1}},
		},
		{
			name: "first failure reported",
			records: []updater.UpdateRecord{
				{File: "a.yaml", FieldPath: manifest.ChartVersionField},
				{File: "truncated.yaml", FieldPath: manifest.ChartVersionField},
				{File: "missing.yaml", FieldPath: "other"},
			},
			wantErr:   true,
			wantPath:  "truncated.yaml",
			wantField: manifest.ChartVersionField,
		},
		{
			name:      "file removed after update",
			records:   []updater.UpdateRecord{{File: "missing.yaml", FieldPath: "imagePullSpecs.a"}},
			wantErr:   true,
			wantPath:  "missing.yaml",
			wantField: "imagePullSpecs.a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(context.Background(), tt.records)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *errdefs.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantPath, verr.Path)
			assert.Equal(t, tt.wantField, verr.FieldPath)
		})
	}
}

func TestValidate_DoesNotModify(t *testing.T) {
	v, root := newValidator(t, map[string]string{"a.yaml": "a:   1 # keep\n"})
	require.NoError(t, v.Validate(context.Background(), []updater.UpdateRecord{{File: "a.yaml"}}))

	data, err := os.ReadFile(filepath.Join(root, "a.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "a:   1 # keep\n", string(data))
}
