package manifest

import (
	"gopkg.in/yaml.v3"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
)

// ChartSource is the helm chart reference pinned by a service template.
type ChartSource struct {
	RepoURL string `json:"repoURL,omitempty"`
	Chart   string `json:"chart"`
	Version string `json:"version"`
}

// ChartTemplate is a parsed service template whose chart version can be edited in place.
// Editing works on the YAML node tree, so comments and key order survive a rewrite.
type ChartTemplate struct {
	path   string
	docs   []*yaml.Node
	source *yaml.Node
}

// ParseChartTemplate parses a service template and locates its spec.helmChart.source block
func ParseChartTemplate(path string, data []byte) (*ChartTemplate, error) {
	docs, err := decodeNodes(data)
	if err != nil {
		return nil, &errdefs.ParseError{Path: path, Err: err}
	}
	for _, doc := range docs {
		source := lookup(doc, "spec", "helmChart", "source")
		if source != nil && source.Kind == yaml.MappingNode {
			return &ChartTemplate{path: path, docs: docs, source: source}, nil
		}
	}
	return nil, &errdefs.NotFoundError{Path: path, What: "spec.helmChart.source"}
}

// Source returns the chart reference
func (c *ChartTemplate) Source() ChartSource {
	return ChartSource{
		RepoURL: scalar(mappingValue(c.source, "repoURL")),
		Chart:   scalar(mappingValue(c.source, "chart")),
		Version: scalar(mappingValue(c.source, "version")),
	}
}

// Version returns the pinned chart version, empty when absent
func (c *ChartTemplate) Version() string {
	return scalar(mappingValue(c.source, "version"))
}

// SetVersion pins the chart to version and returns the previous value
func (c *ChartTemplate) SetVersion(version string) (old string, changed bool) {
	old = c.Version()
	if old == version {
		return old, false
	}
	setScalar(c.source, "version", version)
	return old, true
}

// Encode serializes the template, including any sibling documents
func (c *ChartTemplate) Encode() ([]byte, error) {
	data, err := encodeNodes(c.docs)
	if err != nil {
		return nil, &errdefs.ParseError{Path: c.path, Err: err}
	}
	return data, nil
}

// ReadChartSource parses data and returns its chart reference
func ReadChartSource(path string, data []byte) (ChartSource, error) {
	tmpl, err := ParseChartTemplate(path, data)
	if err != nil {
		return ChartSource{}, err
	}
	return tmpl.Source(), nil
}

func scalar(node *yaml.Node) string {
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}
