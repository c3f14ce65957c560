package manifest

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
)

// TypeMeta is the (kind, apiVersion) pair of one manifest document.
type TypeMeta struct {
	Kind       string
	APIVersion string
}

// ReadTypeMetas decodes every document in data and returns the kind/apiVersion pairs found.
// Documents decoded before a syntax error are still returned alongside the error.
func ReadTypeMetas(path string, data []byte) ([]TypeMeta, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var metas []TypeMeta
	for {
		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return metas, nil
			}
			return metas, &errdefs.ParseError{Path: path, Err: err}
		}
		doc, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		kind, _ := doc["kind"].(string)
		apiVersion, _ := doc["apiVersion"].(string)
		if kind == "" || apiVersion == "" {
			continue
		}
		metas = append(metas, TypeMeta{Kind: kind, APIVersion: apiVersion})
	}
}

// ValidateDocument decodes every document in data, returning the first syntax error
func ValidateDocument(path string, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc interface{}
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return &errdefs.ParseError{Path: path, Err: err}
		}
	}
}

// ParseSingleMapping decodes data as exactly one mapping document.
// ok is false when data holds several documents or a non-mapping value.
func ParseSingleMapping(data []byte) (doc map[string]interface{}, ok bool, err error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var first interface{}
	if err := dec.Decode(&first); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var second interface{}
	if err := dec.Decode(&second); err == nil {
		return nil, false, nil
	} else if !errors.Is(err, io.EOF) {
		return nil, false, err
	}
	mapping, isMap := first.(map[string]interface{})
	return mapping, isMap, nil
}
