package updater

import "github.com/dpf-ci/dpf-version/pkg/manifest"

// UpdateRecord is one mutation applied to the manifest tree. Field edits carry the old
// and new value; bulk textual substitutions carry a MutationCount instead.
type UpdateRecord struct {
	File          string `json:"file"`
	FieldPath     string `json:"field_path"`
	OldValue      string `json:"old_value,omitempty"`
	NewValue      string `json:"new_value,omitempty"`
	MutationCount int    `json:"mutation_count,omitempty"`
}

// IsBulk reports whether the record describes a bulk substitution
func (r UpdateRecord) IsBulk() bool {
	return r.MutationCount > 0
}

// Recorder accumulates update records in the order mutations are applied.
// Records are never reordered or deduplicated.
type Recorder struct {
	records []UpdateRecord
}

// Record appends r
func (r *Recorder) Record(rec UpdateRecord) {
	r.records = append(r.records, rec)
}

// Records returns a copy of the accumulated records
func (r *Recorder) Records() []UpdateRecord {
	out := make([]UpdateRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Failure is a file that could not be updated, with the reason
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`

	Err error `json:"-"`
}

// Result is the outcome of one Apply call
type Result struct {
	TargetVersion   string         `json:"target_version"`
	PreviousVersion string         `json:"previous_version,omitempty"`
	Components      []string       `json:"components"`
	DryRun          bool           `json:"dry_run"`
	Records         []UpdateRecord `json:"records"`
	Success         []string       `json:"success"`
	Failed          []Failure      `json:"failed"`
	Skipped         []string       `json:"skipped"`
	Unchanged       []string       `json:"unchanged"`
}

func newResult(target string, components []string, dryRun bool) *Result {
	return &Result{
		TargetVersion: target,
		Components:    components,
		DryRun:        dryRun,
		Records:       []UpdateRecord{},
		Success:       []string{},
		Failed:        []Failure{},
		Skipped:       []string{},
		Unchanged:     []string{},
	}
}

// HasFailures reports whether any file failed to update
func (r *Result) HasFailures() bool {
	return len(r.Failed) > 0
}

// FailedPaths returns the paths of failed files
func (r *Result) FailedPaths() []string {
	paths := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		paths = append(paths, f.Path)
	}
	return paths
}

// Options configure an Applier
type Options struct {
	// TemplateFiles are the service templates whose chart version follows the target
	TemplateFiles []string
	// Layouts are probed in order for each template file
	Layouts manifest.Layouts
	// OperatorConfigPath is the operator config whose image tags follow the target
	OperatorConfigPath string
	// Aliases map template component names to version config keys
	Aliases map[string]string
	// DefaultComponents are updated when the caller selects none
	DefaultComponents []string
	// ImageTagMapping rewrites image tags old version -> new version across all manifests
	ImageTagMapping map[string]string
	// DryRun computes records without writing anything
	DryRun bool
}

// DefaultOptions returns the built-in file lists, layouts and aliases
func DefaultOptions() Options {
	return Options{
		TemplateFiles:      manifest.DefaultTemplateFiles,
		Layouts:            manifest.DefaultLayouts(),
		OperatorConfigPath: manifest.OperatorConfigPath,
		Aliases:            manifest.DefaultComponentAliases,
		DefaultComponents:  manifest.DefaultComponents,
	}
}
