package delta

// ValueChange is the old and new value of a key present on both sides.
type ValueChange[V any] struct {
	Old V `json:"old"`
	New V `json:"new"`
}

// MapDelta partitions the keys of a mapping facet. A key appears in at most one of
// Added, Removed and Modified.
type MapDelta[V any] struct {
	Added    map[string]V              `json:"added"`
	Removed  map[string]V              `json:"removed"`
	Modified map[string]ValueChange[V] `json:"modified"`
}

func newMapDelta[V any]() MapDelta[V] {
	return MapDelta[V]{
		Added:    map[string]V{},
		Removed:  map[string]V{},
		Modified: map[string]ValueChange[V]{},
	}
}

// Len returns the number of changed keys
func (d MapDelta[V]) Len() int {
	return len(d.Added) + len(d.Removed) + len(d.Modified)
}

// IsEmpty reports whether no key changed
func (d MapDelta[V]) IsEmpty() bool {
	return d.Len() == 0
}

// ChartChange is a chart whose pinned version differs between the two sides.
// Ambiguous is set when the versions could not be ordered and the change was
// classified as an upgrade by default.
type ChartChange struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Ambiguous bool   `json:"ambiguous,omitempty"`
}

// ChartDelta refines modified chart versions into upgrades and downgrades.
type ChartDelta struct {
	Added      map[string]string      `json:"added"`
	Removed    map[string]string      `json:"removed"`
	Upgraded   map[string]ChartChange `json:"upgraded"`
	Downgraded map[string]ChartChange `json:"downgraded"`
}

// Len returns the number of changed charts
func (d ChartDelta) Len() int {
	return len(d.Added) + len(d.Removed) + len(d.Upgraded) + len(d.Downgraded)
}

// IsEmpty reports whether no chart changed
func (d ChartDelta) IsEmpty() bool {
	return d.Len() == 0
}

// FileChange lists the differences found in one version-sensitive file.
type FileChange struct {
	File    string   `json:"file"`
	Changes []string `json:"changes"`
}

// ConfigDelta is the categorized difference between an old and a new snapshot.
type ConfigDelta struct {
	VersionChanges       map[string]ValueChange[string] `json:"version_changes"`
	APIVersions          MapDelta[[]string]             `json:"api_versions"`
	HelmCharts           ChartDelta                     `json:"helm_charts"`
	EnvironmentVariables MapDelta[string]               `json:"environment_variables"`
	ChartValues          MapDelta[string]               `json:"chart_values"`
	NetworkConfiguration MapDelta[[]string]             `json:"network_configuration"`
	NewValuesFiles       []string                       `json:"new_values_files"`
	NewPrerequisites     []string                       `json:"new_prerequisites"`
	NewKnownIssues       []string                       `json:"new_known_issues"`
	FileChanges          []FileChange                   `json:"file_changes"`
}

// IsEmpty reports whether every facet of the delta is empty
func (d *ConfigDelta) IsEmpty() bool {
	return len(d.VersionChanges) == 0 &&
		d.APIVersions.IsEmpty() &&
		d.HelmCharts.IsEmpty() &&
		d.EnvironmentVariables.IsEmpty() &&
		d.ChartValues.IsEmpty() &&
		d.NetworkConfiguration.IsEmpty() &&
		len(d.NewValuesFiles) == 0 &&
		len(d.NewPrerequisites) == 0 &&
		len(d.NewKnownIssues) == 0 &&
		len(d.FileChanges) == 0
}

// Totals summarizes the size of a delta for reports
type Totals struct {
	APIChanges  int `json:"total_api_changes"`
	HelmChanges int `json:"total_helm_changes"`
	FileChanges int `json:"total_file_changes"`
}

// Totals counts changed kinds, charts and tracked files
func (d *ConfigDelta) Totals() Totals {
	return Totals{
		APIChanges:  d.APIVersions.Len(),
		HelmChanges: d.HelmCharts.Len(),
		FileChanges: len(d.FileChanges),
	}
}
