package versionconfig

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
)

// DefaultPath is the version config location relative to the project root
const DefaultPath = "ci/config/versions.yaml"

// PlatformVersions tracks the platform release currently in use and the releases tested so far.
type PlatformVersions struct {
	Current              string   `yaml:"current"`
	Tested               []string `yaml:"tested"`
	Repository           string   `yaml:"repository,omitempty"`
	ReleaseBranchPattern string   `yaml:"release_branch_pattern,omitempty"`

	Extra map[string]interface{} `yaml:",inline"`
}

// ChartVersions tracks the current and tested versions of one helm chart component.
type ChartVersions struct {
	Current string   `yaml:"current"`
	Tested  []string `yaml:"tested,omitempty"`

	Extra map[string]interface{} `yaml:",inline"`
}

// VersionConfig is the persisted record of current and tested versions.
// Keys this tool does not know about are preserved across a load/save cycle.
type VersionConfig struct {
	DPFVersions           PlatformVersions          `yaml:"dpf_versions"`
	HelmCharts            map[string]*ChartVersions `yaml:"helm_charts,omitempty"`
	VersionSensitiveFiles []string                  `yaml:"version_sensitive_files,omitempty"`

	Extra map[string]interface{} `yaml:",inline"`
}

// Parse decodes a version config document
func Parse(path string, data []byte) (*VersionConfig, error) {
	var cfg VersionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &errdefs.ParseError{Path: path, Err: err}
	}
	if cfg.DPFVersions.Current == "" && len(cfg.DPFVersions.Tested) == 0 && len(cfg.HelmCharts) == 0 {
		return nil, &errdefs.ParseError{Path: path, Err: fmt.Errorf("dpf_versions section is missing")}
	}
	return &cfg, nil
}

// Encode serializes the config with two-space indentation
func (c *VersionConfig) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode version config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode version config: %w", err)
	}
	return buf.Bytes(), nil
}

// Promote records target as the current platform version and as the current version
// of every listed component that has a helm_charts entry. target is prepended to each
// tested list that does not already contain it. Unknown components are ignored.
func (c *VersionConfig) Promote(target string, components []string) {
	c.DPFVersions.Current = target
	c.DPFVersions.Tested = prependUnique(c.DPFVersions.Tested, target)

	for _, component := range components {
		chart, ok := c.HelmCharts[component]
		if !ok || chart == nil {
			continue
		}
		chart.Current = target
		chart.Tested = prependUnique(chart.Tested, target)
	}
}

// PreviousVersion returns the current platform version before any promotion
func (c *VersionConfig) PreviousVersion() string {
	return c.DPFVersions.Current
}

func prependUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append([]string{value}, values...)
}
