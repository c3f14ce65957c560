package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const ovnTemplate = `# OVN service template
apiVersion: svc.dpu.nvidia.com/v1alpha1
kind: DPUServiceTemplate
metadata:
  name: ovn
  namespace: dpf-operator-system
spec:
  deploymentServiceName: ovn
  helmChart:
    source:
      repoURL: https://helm.ngc.nvidia.com/nvidia/doca
      chart: ovn-kubernetes-chart
      version: v25.1.1
`

const operatorConfig = `apiVersion: operator.dpu.nvidia.com/v1alpha1
kind: DPFOperatorConfig
metadata:
  name: dpfoperatorconfig
spec:
  imagePullSpecs:
    dpuServiceController: nvcr.io/nvidia/doca/dpu-service-controller:v25.1.1
    provisioning: registry.local:5000/dpf/provisioning:v25.1.1
    helper: nvcr.io/nvidia/doca/helper:latest
`

// writeTree creates files under a temporary root and returns the root
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}
