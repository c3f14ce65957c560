package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
	"github.com/dpf-ci/dpf-version/pkg/utils"
)

// SchemaVersion is bumped whenever the persisted snapshot layout changes
const SchemaVersion = 1

// Source identifies what a snapshot was extracted from.
type Source string

const (
	SourceManifests     Source = "manifests"
	SourceDocumentation Source = "documentation"
)

// Well-known keys of the Versions facet
const (
	VersionKeyPlatform     = "dpf"
	VersionKeyOrchestrator = "openshift"
)

// ConfigSnapshot is a normalized, comparable view of one version's configuration.
// Set-valued facets are kept sorted and deduplicated so that two extractions of
// the same input compare equal.
type ConfigSnapshot struct {
	SchemaVersion int    `json:"schema_version"`
	Source        Source `json:"source"`
	Location      string `json:"location,omitempty"`

	// Versions holds the tracked top-level version fields (platform, orchestrator)
	Versions map[string]string `json:"versions"`

	APIVersions          map[string][]string `json:"api_versions"`
	HelmCharts           map[string]string   `json:"helm_charts"`
	EnvironmentVariables map[string]string   `json:"environment_variables"`

	// ChartValues holds "--set key=value" pairs found in documented helm commands
	ChartValues map[string]string `json:"chart_values"`
	ValuesFiles []string          `json:"values_files"`

	NetworkConfiguration map[string][]string `json:"network_configuration"`
	Prerequisites        []string            `json:"prerequisites"`
	KnownIssues          []string            `json:"known_issues"`

	// TrackedFiles maps each present version-sensitive file to its raw content
	TrackedFiles map[string]string `json:"tracked_files,omitempty"`
}

// New returns an empty snapshot with every facet initialized
func New(source Source, location string) *ConfigSnapshot {
	return &ConfigSnapshot{
		SchemaVersion:        SchemaVersion,
		Source:               source,
		Location:             location,
		Versions:             map[string]string{},
		APIVersions:          map[string][]string{},
		HelmCharts:           map[string]string{},
		EnvironmentVariables: map[string]string{},
		ChartValues:          map[string]string{},
		ValuesFiles:          []string{},
		NetworkConfiguration: map[string][]string{},
		Prerequisites:        []string{},
		KnownIssues:          []string{},
		TrackedFiles:         map[string]string{},
	}
}

// AddAPIVersion records apiVersion for kind, keeping the set sorted
func (s *ConfigSnapshot) AddAPIVersion(kind, apiVersion string) {
	versions := s.APIVersions[kind]
	for _, v := range versions {
		if v == apiVersion {
			return
		}
	}
	versions = append(versions, apiVersion)
	sort.Strings(versions)
	s.APIVersions[kind] = versions
}

// AddNetworkLiteral appends an address literal under keyword unless it was already seen
func (s *ConfigSnapshot) AddNetworkLiteral(keyword, literal string) {
	s.NetworkConfiguration[keyword] = utils.AppendUnique(s.NetworkConfiguration[keyword], literal)
}

// normalize fills facets missing from older or hand-written snapshot files
func (s *ConfigSnapshot) normalize() {
	if s.Versions == nil {
		s.Versions = map[string]string{}
	}
	if s.APIVersions == nil {
		s.APIVersions = map[string][]string{}
	}
	for kind, versions := range s.APIVersions {
		s.APIVersions[kind] = utils.UniqueSorted(versions)
	}
	if s.HelmCharts == nil {
		s.HelmCharts = map[string]string{}
	}
	if s.EnvironmentVariables == nil {
		s.EnvironmentVariables = map[string]string{}
	}
	if s.ChartValues == nil {
		s.ChartValues = map[string]string{}
	}
	if s.ValuesFiles == nil {
		s.ValuesFiles = []string{}
	}
	if s.NetworkConfiguration == nil {
		s.NetworkConfiguration = map[string][]string{}
	}
	if s.Prerequisites == nil {
		s.Prerequisites = []string{}
	}
	if s.KnownIssues == nil {
		s.KnownIssues = []string{}
	}
	if s.TrackedFiles == nil {
		s.TrackedFiles = map[string]string{}
	}
}

// Marshal encodes the snapshot as indented JSON with a trailing newline
func (s *ConfigSnapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes a snapshot previously written by Marshal
func Unmarshal(path string, data []byte) (*ConfigSnapshot, error) {
	var s ConfigSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &errdefs.ParseError{Path: path, Err: err}
	}
	if s.SchemaVersion > SchemaVersion {
		return nil, &errdefs.ParseError{
			Path: path,
			Err:  fmt.Errorf("unsupported snapshot schema version %d", s.SchemaVersion),
		}
	}
	s.normalize()
	return &s, nil
}
