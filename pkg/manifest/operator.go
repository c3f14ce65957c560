package manifest

import (
	"gopkg.in/yaml.v3"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
)

// ImageChange is one rewritten image reference in the operator config.
type ImageChange struct {
	Component string
	Old       string
	New       string
}

// FieldPath returns the record field path for the change
func (c ImageChange) FieldPath() string {
	return ImagePullSpecsField + "." + c.Component
}

// OperatorConfig is a parsed DPFOperatorConfig with editable spec.imagePullSpecs.
type OperatorConfig struct {
	path  string
	docs  []*yaml.Node
	specs *yaml.Node
}

// ParseOperatorConfig parses the operator config and locates spec.imagePullSpecs
func ParseOperatorConfig(path string, data []byte) (*OperatorConfig, error) {
	docs, err := decodeNodes(data)
	if err != nil {
		return nil, &errdefs.ParseError{Path: path, Err: err}
	}
	for _, doc := range docs {
		specs := lookup(doc, "spec", "imagePullSpecs")
		if specs != nil && specs.Kind == yaml.MappingNode {
			return &OperatorConfig{path: path, docs: docs, specs: specs}, nil
		}
	}
	return nil, &errdefs.NotFoundError{Path: path, What: "spec.imagePullSpecs"}
}

// PendingChanges lists the image fields that Retag would change, in document order
func (o *OperatorConfig) PendingChanges(target string) []ImageChange {
	var changes []ImageChange
	for i := 0; i+1 < len(o.specs.Content); i += 2 {
		key, value := o.specs.Content[i], o.specs.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			continue
		}
		retagged, ok := RetagImage(value.Value, target)
		if !ok || retagged == value.Value {
			continue
		}
		changes = append(changes, ImageChange{Component: key.Value, Old: value.Value, New: retagged})
	}
	return changes
}

// Retag rewrites every version-tagged image reference to target and returns the changes
func (o *OperatorConfig) Retag(target string) []ImageChange {
	changes := o.PendingChanges(target)
	for _, change := range changes {
		setScalar(o.specs, change.Component, change.New)
	}
	return changes
}

// Encode serializes the operator config
func (o *OperatorConfig) Encode() ([]byte, error) {
	data, err := encodeNodes(o.docs)
	if err != nil {
		return nil, &errdefs.ParseError{Path: o.path, Err: err}
	}
	return data, nil
}
