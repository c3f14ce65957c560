package delta

import (
	"strings"

	"golang.org/x/mod/semver"
)

// canonicalVersion returns v in the "vMAJOR.MINOR.PATCH[-pre]" form understood by
// x/mod/semver, or "" when v is not a semantic version
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

// CompareChartVersions orders two chart versions. Release numbers are compared first;
// pre-release precedence only breaks ties between equal release numbers. ok is false
// when either side is not a semantic version or the two cannot be told apart.
func CompareChartVersions(from, to string) (cmp int, ok bool) {
	a, b := canonicalVersion(from), canonicalVersion(to)
	if a == "" || b == "" {
		return 0, false
	}
	if c := semver.Compare(release(a), release(b)); c != 0 {
		return c, true
	}
	if c := semver.Compare(a, b); c != 0 {
		return c, true
	}
	return 0, false
}

func release(v string) string {
	return strings.TrimSuffix(v, semver.Prerelease(v))
}

// classifyChart reports whether a change from -> to is an upgrade. Versions that
// cannot be ordered are treated as upgrades and flagged ambiguous.
func classifyChart(from, to string) (change ChartChange, upgraded bool) {
	change = ChartChange{From: from, To: to}
	cmp, ok := CompareChartVersions(from, to)
	if !ok {
		change.Ambiguous = true
		return change, true
	}
	return change, cmp < 0
}
