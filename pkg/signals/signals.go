package signals

import "github.com/dpf-ci/dpf-version/pkg/delta"

const (
	BreakingAPIRemoved = "API resources removed"
	BreakingAPIChanged = "API versions changed"

	RecommendReviewRemovedAPIs = "Review removed APIs and update manifests"
	RecommendUpdateAPIVersions = "Update API versions in manifests"
	RecommendVerifyDowngrades  = "Helm charts downgraded - verify compatibility"
	RecommendTestUpgrades      = "Test with new Helm chart versions"
	RecommendReviewFiles       = "Review file changes and update automation scripts"
)

// Signals are the higher-level conclusions drawn from a delta.
type Signals struct {
	BreakingChanges []string `json:"breaking_changes"`
	Recommendations []string `json:"recommendations"`
}

// Rule inspects a delta and adds to the signals when it applies
type Rule func(d *delta.ConfigDelta, s *Signals)

// DefaultRules are applied in this order; every applicable rule fires
var DefaultRules = []Rule{
	removedAPIs,
	changedAPIs,
	downgradedCharts,
	upgradedCharts,
	changedFiles,
}

// Derive applies DefaultRules to d
func Derive(d *delta.ConfigDelta) Signals {
	return DeriveWith(d, DefaultRules)
}

// DeriveWith applies rules to d in order
func DeriveWith(d *delta.ConfigDelta, rules []Rule) Signals {
	s := Signals{BreakingChanges: []string{}, Recommendations: []string{}}
	if d == nil {
		return s
	}
	for _, rule := range rules {
		rule(d, &s)
	}
	return s
}

// IsBreaking reports whether any breaking change was derived
func (s Signals) IsBreaking() bool {
	return len(s.BreakingChanges) > 0
}

func removedAPIs(d *delta.ConfigDelta, s *Signals) {
	if len(d.APIVersions.Removed) > 0 {
		s.BreakingChanges = append(s.BreakingChanges, BreakingAPIRemoved)
		s.Recommendations = append(s.Recommendations, RecommendReviewRemovedAPIs)
	}
}

func changedAPIs(d *delta.ConfigDelta, s *Signals) {
	if len(d.APIVersions.Modified) > 0 {
		s.BreakingChanges = append(s.BreakingChanges, BreakingAPIChanged)
		s.Recommendations = append(s.Recommendations, RecommendUpdateAPIVersions)
	}
}

func downgradedCharts(d *delta.ConfigDelta, s *Signals) {
	if len(d.HelmCharts.Downgraded) > 0 {
		s.Recommendations = append(s.Recommendations, RecommendVerifyDowngrades)
	}
}

func upgradedCharts(d *delta.ConfigDelta, s *Signals) {
	if len(d.HelmCharts.Upgraded) > 0 {
		s.Recommendations = append(s.Recommendations, RecommendTestUpgrades)
	}
}

func changedFiles(d *delta.ConfigDelta, s *Signals) {
	if len(d.FileChanges) > 0 {
		s.Recommendations = append(s.Recommendations, RecommendReviewFiles)
	}
}
