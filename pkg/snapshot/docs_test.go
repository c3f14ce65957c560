package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rdgPage = `<html><head><title>RDG for DPF 25.4.0</title><style>.subnet{color:red}</style></head>
<body>
<h1>RDG for DPF v25.4.0 with OVN-Kubernetes and HBN Services</h1>
<p>Validated with OpenShift 4.18 clusters.</p>

<h2>Prerequisites</h2>
<ul>
  <li>A DPU with   BlueField-3</li>
  <li>Helm 3.16 or later</li>
</ul>
<p>Access to NGC.</p>
<h3>Hardware</h3>
<p>Two servers.</p>
<h2>Network</h2>
<p>The pod CIDR is 10.233.0.0/16 and the service subnet is 10.96.0.0/12.</p>
<p>Management VLAN uses 192.168.10.1.</p>

<pre><code>export TARGETCLUSTER_API_SERVER_HOST=10.0.110.10
export DPF_VERSION="v25.4.0"
REGISTRY='nvcr.io/nvidia/doca'
not_upper=ignored</code></pre>

<pre>helm upgrade --install -n dpf-operator-system dpf-operator $REGISTRY/dpf-operator --version=$TAG \
  --set kamaji-etcd.persistentVolumeClaim.storageClassName=local-path \
  --set node-feature-discovery.enabled=true \
  -f values.yaml</pre>

<pre>apiVersion: operator.dpu.nvidia.com/v1alpha1
kind: DPFOperatorConfig
metadata:
  name: dpfoperatorconfig
---
apiVersion: v1
kind: Namespace</pre>

<p>Run <code>kubectl get pods</code> to check.</p>

<h2>Known Issues and Limitations</h2>
<ul><li>OVN pods may restart once during installation.</li></ul>
<p>Short note.</p>
<p>DPU reboot is required after changing the firmware configuration.</p>
<h2>Next Steps</h2>
<p>This paragraph is long enough but belongs to another section.</p>
</body></html>`

func TestDocumentExtractor_Extract(t *testing.T) {
	snap, err := NewDocumentExtractor(quietLogger()).Extract("rdg.html", []byte(rdgPage))
	require.NoError(t, err)

	assert.Equal(t, SourceDocumentation, snap.Source)
	assert.Equal(t, map[string]string{
		VersionKeyPlatform:     "v25.4.0",
		VersionKeyOrchestrator: "4.18",
	}, snap.Versions)

	assert.Equal(t, map[string]string{
		"TARGETCLUSTER_API_SERVER_HOST": "10.0.110.10",
		"DPF_VERSION":                   "v25.4.0",
		"REGISTRY":                      "nvcr.io/nvidia/doca",
	}, snap.EnvironmentVariables)

	assert.Equal(t, map[string]string{
		"kamaji-etcd.persistentVolumeClaim.storageClassName": "local-path",
		"node-feature-discovery.enabled":                     "true",
	}, snap.ChartValues)
	assert.Equal(t, []string{"values.yaml"}, snap.ValuesFiles)

	assert.Equal(t, []string{"operator.dpu.nvidia.com/v1alpha1"}, snap.APIVersions["DPFOperatorConfig"])
	assert.Equal(t, []string{"v1"}, snap.APIVersions["Namespace"])

	assert.Equal(t, []string{"10.233.0.0/16", "10.96.0.0/12"}, snap.NetworkConfiguration["CIDR"])
	assert.Equal(t, []string{"10.233.0.0/16", "10.96.0.0/12"}, snap.NetworkConfiguration["subnet"])
	assert.Equal(t, []string{"192.168.10.1"}, snap.NetworkConfiguration["VLAN"])
	assert.NotContains(t, snap.NetworkConfiguration, "MTU")

	assert.Equal(t, []string{
		"A DPU with BlueField-3",
		"Helm 3.16 or later",
		"Access to NGC.",
		"Two servers.",
	}, snap.Prerequisites)
	assert.Equal(t, []string{
		"OVN pods may restart once during installation.",
		"DPU reboot is required after changing the firmware configuration.",
	}, snap.KnownIssues)
}

func TestDocumentExtractor_Deterministic(t *testing.T) {
	extractor := NewDocumentExtractor(quietLogger())
	first, err := extractor.Extract("rdg.html", []byte(rdgPage))
	require.NoError(t, err)
	second, err := extractor.Extract("rdg.html", []byte(rdgPage))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClassifyBlock(t *testing.T) {
	tests := []struct {
		content string
		want    blockKind
	}{
		{"apiVersion: v1\nkind: Pod", blockManifest},
		{"metadata:\n  kind: x", blockManifest},
		{"helm install foo --set a=b", blockHelm},
		{"something --set a=b", blockHelm},
		{"export FOO=bar", blockEnv},
		{"FOO=bar", blockEnv},
		{"kubectl get pods", blockOther},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyBlock(tt.content))
		})
	}
}
