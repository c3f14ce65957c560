package compare

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dpf-ci/dpf-version/pkg/delta"
	"github.com/dpf-ci/dpf-version/pkg/errdefs"
	"github.com/dpf-ci/dpf-version/pkg/manifest"
	"github.com/dpf-ci/dpf-version/pkg/signals"
	"github.com/dpf-ci/dpf-version/pkg/snapshot"
	"github.com/dpf-ci/dpf-version/pkg/utils"
)

// Summary is the headline of a comparison
type Summary struct {
	delta.Totals
	signals.Signals
}

// Comparison is the full result of comparing two versions
type Comparison struct {
	OldVersion     string             `json:"old_version"`
	NewVersion     string             `json:"new_version"`
	ComparisonDate time.Time          `json:"comparison_date"`
	OldSource      string             `json:"old_source,omitempty"`
	NewSource      string             `json:"new_source,omitempty"`
	Delta          *delta.ConfigDelta `json:"delta"`
	Summary        Summary            `json:"summary"`
}

// Build diffs two snapshots and derives the summary
func Build(old, new *snapshot.ConfigSnapshot, oldVersion, newVersion string) *Comparison {
	d := delta.Diff(old, new)
	c := &Comparison{
		OldVersion:     versionLabel(oldVersion, old),
		NewVersion:     versionLabel(newVersion, new),
		ComparisonDate: time.Now().UTC(),
		Delta:          d,
		Summary: Summary{
			Totals:  d.Totals(),
			Signals: signals.Derive(d),
		},
	}
	if old != nil {
		c.OldSource = old.Location
	}
	if new != nil {
		c.NewSource = new.Location
	}
	return c
}

// versionLabel prefers an explicit label, then the snapshot's platform version, then its location
func versionLabel(label string, s *snapshot.ConfigSnapshot) string {
	if label = strings.TrimSpace(label); label != "" {
		return label
	}
	if s == nil {
		return ""
	}
	if v := s.Versions[snapshot.VersionKeyPlatform]; v != "" {
		return v
	}
	return filepath.Base(s.Location)
}

// Loader turns a source path into a snapshot. A source is a manifest tree directory,
// a snapshot JSON file written earlier, or a saved HTML documentation page.
type Loader struct {
	logger    *logrus.Logger
	extractor *snapshot.Extractor
	documents *snapshot.DocumentExtractor
}

// NewLoader creates a loader that extracts manifest trees with opts
func NewLoader(logger *logrus.Logger, opts snapshot.Options) *Loader {
	if logger == nil {
		logger = logrus.New()
	}
	return &Loader{
		logger:    logger,
		extractor: snapshot.NewExtractor(logger, opts),
		documents: snapshot.NewDocumentExtractor(logger),
	}
}

// Load returns the snapshot of source
func (l *Loader) Load(ctx context.Context, source string) (*snapshot.ConfigSnapshot, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("source path is required")
	}
	if utils.DirectoryExists(source) {
		return l.extractor.Extract(ctx, manifest.NewDirTree(source))
	}

	data, err := os.ReadFile(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errdefs.NotFoundError{Path: source}
		}
		return nil, &errdefs.StoreError{Op: "read", Path: source, Err: err}
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".json":
		return snapshot.Unmarshal(source, data)
	case ".html", ".htm":
		return l.documents.Extract(source, data)
	default:
		return nil, fmt.Errorf("unsupported source %s: expected a directory, a snapshot .json or an .html page", source)
	}
}

// Compare loads both sources and builds their comparison
func (l *Loader) Compare(ctx context.Context, oldSource, newSource, oldVersion, newVersion string) (*Comparison, error) {
	l.logger.Infof("Comparing DPF versions: %s -> %s", oldSource, newSource)
	old, err := l.Load(ctx, oldSource)
	if err != nil {
		return nil, fmt.Errorf("failed to load old source: %w", err)
	}
	new, err := l.Load(ctx, newSource)
	if err != nil {
		return nil, fmt.Errorf("failed to load new source: %w", err)
	}
	return Build(old, new, oldVersion, newVersion), nil
}
