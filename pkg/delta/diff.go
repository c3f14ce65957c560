package delta

import (
	"slices"
	"sort"

	"github.com/dpf-ci/dpf-version/pkg/snapshot"
	"github.com/dpf-ci/dpf-version/pkg/utils"
)

// Diff compares two snapshots. It is pure and total: nil snapshots are treated as empty.
func Diff(old, new *snapshot.ConfigSnapshot) *ConfigDelta {
	if old == nil {
		old = snapshot.New("", "")
	}
	if new == nil {
		new = snapshot.New("", "")
	}

	return &ConfigDelta{
		VersionChanges:       diffVersions(old.Versions, new.Versions),
		APIVersions:          diffMap(old.APIVersions, new.APIVersions, sameSet),
		HelmCharts:           diffCharts(old.HelmCharts, new.HelmCharts),
		EnvironmentVariables: diffMap(old.EnvironmentVariables, new.EnvironmentVariables, sameString),
		ChartValues:          diffMap(old.ChartValues, new.ChartValues, sameString),
		NetworkConfiguration: diffMap(old.NetworkConfiguration, new.NetworkConfiguration, sameSequence),
		NewValuesFiles:       newEntries(old.ValuesFiles, new.ValuesFiles),
		NewPrerequisites:     newEntries(old.Prerequisites, new.Prerequisites),
		NewKnownIssues:       newEntries(old.KnownIssues, new.KnownIssues),
		FileChanges:          diffTrackedFiles(old.TrackedFiles, new.TrackedFiles),
	}
}

// diffMap applies the three-way added/removed/modified rule to a mapping facet
func diffMap[V any](old, new map[string]V, equal func(a, b V) bool) MapDelta[V] {
	d := newMapDelta[V]()
	for key, oldValue := range old {
		newValue, ok := new[key]
		switch {
		case !ok:
			d.Removed[key] = oldValue
		case !equal(oldValue, newValue):
			d.Modified[key] = ValueChange[V]{Old: oldValue, New: newValue}
		}
	}
	for key, newValue := range new {
		if _, ok := old[key]; !ok {
			d.Added[key] = newValue
		}
	}
	return d
}

func diffCharts(old, new map[string]string) ChartDelta {
	d := ChartDelta{
		Added:      map[string]string{},
		Removed:    map[string]string{},
		Upgraded:   map[string]ChartChange{},
		Downgraded: map[string]ChartChange{},
	}
	for chart, from := range old {
		to, ok := new[chart]
		if !ok {
			d.Removed[chart] = from
			continue
		}
		if from == to {
			continue
		}
		change, upgraded := classifyChart(from, to)
		if upgraded {
			d.Upgraded[chart] = change
		} else {
			d.Downgraded[chart] = change
		}
	}
	for chart, to := range new {
		if _, ok := old[chart]; !ok {
			d.Added[chart] = to
		}
	}
	return d
}

// diffVersions reports each tracked version field whose value differs, including
// fields present on one side only
func diffVersions(old, new map[string]string) map[string]ValueChange[string] {
	changes := map[string]ValueChange[string]{}
	for key, from := range old {
		if to := new[key]; to != from {
			changes[key] = ValueChange[string]{Old: from, New: to}
		}
	}
	for key, to := range new {
		if _, ok := old[key]; !ok && to != "" {
			changes[key] = ValueChange[string]{Old: "", New: to}
		}
	}
	return changes
}

// newEntries returns the sorted set of entries in new that are absent from old
func newEntries(old, new []string) []string {
	seen := make(map[string]bool, len(old))
	for _, entry := range old {
		seen[entry] = true
	}
	out := []string{}
	for _, entry := range new {
		if !seen[entry] {
			out = append(out, entry)
		}
	}
	return utils.UniqueSorted(out)
}

func sameString(a, b string) bool { return a == b }

func sameSequence(a, b []string) bool { return slices.Equal(a, b) }

// sameSet compares two string slices as sets
func sameSet(a, b []string) bool {
	return slices.Equal(utils.UniqueSorted(a), utils.UniqueSorted(b))
}

func diffTrackedFiles(old, new map[string]string) []FileChange {
	paths := make([]string, 0, len(old)+len(new))
	for p := range old {
		paths = append(paths, p)
	}
	for p := range new {
		if _, ok := old[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	changes := []FileChange{}
	for _, p := range paths {
		oldContent, inOld := old[p]
		newContent, inNew := new[p]
		if diffs := CompareFile(p, []byte(oldContent), inOld, []byte(newContent), inNew); len(diffs) > 0 {
			changes = append(changes, FileChange{File: p, Changes: diffs})
		}
	}
	return changes
}
