package delta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareChartVersions(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		to     string
		want   int
		wantOK bool
	}{
		{"patch upgrade", "1.2.0", "1.2.1", -1, true},
		{"minor downgrade", "v1.3.0", "v1.2.9", 1, true},
		{"mixed prefix", "v25.1.1", "25.4.0", -1, true},
		{"numeric not lexical", "1.9.0", "1.10.0", -1, true},
		{"release beats prerelease core", "1.2.0-rc1", "1.3.0", -1, true},
		{"prerelease before release", "1.2.0-rc1", "1.2.0", -1, true},
		{"build metadata only", "1.2.0+a", "1.2.0+b", 0, false},
		{"not semver", "latest", "1.2.0", 0, false},
		{"empty", "", "1.2.0", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CompareChartVersions(tt.from, tt.to)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyChart(t *testing.T) {
	change, upgraded := classifyChart("1.3.0", "1.2.0")
	assert.False(t, upgraded)
	assert.False(t, change.Ambiguous)

	change, upgraded = classifyChart("main", "dev")
	assert.True(t, upgraded)
	assert.True(t, change.Ambiguous)
}
