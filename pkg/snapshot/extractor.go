package snapshot

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
	"github.com/dpf-ci/dpf-version/pkg/manifest"
)

// TreeEnricher adds one facet to a snapshot being extracted from a manifest tree.
// Enrichers run in order; an enricher returns an error only when the tree itself
// cannot be read, never for a single malformed file.
type TreeEnricher func(ctx context.Context, tree manifest.Tree, snap *ConfigSnapshot) error

// Options control which files the Extractor looks at
type Options struct {
	// Layouts are probed in order for each template file
	Layouts manifest.Layouts
	// TemplateFiles are the service template file names carrying a chart source
	TemplateFiles []string
	// TrackedFiles are version-sensitive files whose raw content is captured
	TrackedFiles []string
}

// DefaultOptions returns the built-in layouts and template list with no tracked files
func DefaultOptions() Options {
	return Options{
		Layouts:       manifest.DefaultLayouts(),
		TemplateFiles: manifest.DefaultTemplateFiles,
	}
}

// Extractor builds a ConfigSnapshot from a manifest tree.
type Extractor struct {
	logger    *logrus.Logger
	opts      Options
	enrichers []TreeEnricher
}

// NewExtractor creates an extractor with the api version, helm chart and tracked file enrichers
func NewExtractor(logger *logrus.Logger, opts Options) *Extractor {
	if logger == nil {
		logger = logrus.New()
	}
	if len(opts.Layouts) == 0 {
		opts.Layouts = manifest.DefaultLayouts()
	}
	if opts.TemplateFiles == nil {
		opts.TemplateFiles = manifest.DefaultTemplateFiles
	}
	e := &Extractor{logger: logger, opts: opts}
	e.enrichers = []TreeEnricher{e.enrichAPIVersions, e.enrichHelmCharts, e.enrichTrackedFiles}
	return e
}

// AddEnricher appends an enricher that runs after the built-in ones
func (e *Extractor) AddEnricher(enricher TreeEnricher) {
	if e == nil || enricher == nil {
		return
	}
	e.enrichers = append(e.enrichers, enricher)
}

// Extract reads the tree and returns its snapshot. Malformed files are skipped
// with a warning; only failures to enumerate or read the tree abort extraction.
func (e *Extractor) Extract(ctx context.Context, tree manifest.Tree) (*ConfigSnapshot, error) {
	if tree == nil {
		return nil, fmt.Errorf("manifest tree is nil")
	}
	snap := New(SourceManifests, tree.Root())
	for _, enricher := range e.enrichers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := enricher(ctx, tree, snap); err != nil {
			return nil, err
		}
	}
	e.logger.Infof("Extracted snapshot from %s (kinds: %d, charts: %d, tracked files: %d)",
		tree.Root(), len(snap.APIVersions), len(snap.HelmCharts), len(snap.TrackedFiles))
	return snap, nil
}

func (e *Extractor) enrichAPIVersions(ctx context.Context, tree manifest.Tree, snap *ConfigSnapshot) error {
	docs, err := tree.Documents()
	if err != nil {
		return fmt.Errorf("failed to list manifest documents: %w", err)
	}
	for _, rel := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := tree.Read(rel)
		if err != nil {
			e.logger.Warnf("Skipping %s: %v", rel, err)
			continue
		}
		// Documents parsed before a syntax error still count
		metas, err := manifest.ReadTypeMetas(rel, data)
		if err != nil {
			e.logger.Warnf("Error parsing %s: %v", rel, err)
		}
		for _, meta := range metas {
			snap.AddAPIVersion(meta.Kind, meta.APIVersion)
		}
	}
	return nil
}

func (e *Extractor) enrichHelmCharts(_ context.Context, tree manifest.Tree, snap *ConfigSnapshot) error {
	for _, file := range e.opts.TemplateFiles {
		rel, ok := e.opts.Layouts.Resolve(tree, file)
		if !ok {
			e.logger.Debugf("Service template %s not present in any layout", file)
			continue
		}
		data, err := tree.Read(rel)
		if err != nil {
			e.logger.Warnf("Skipping %s: %v", rel, err)
			continue
		}
		source, err := manifest.ReadChartSource(rel, data)
		if err != nil {
			if errdefs.IsNotFound(err) {
				e.logger.Debugf("Skipping %s: %v", rel, err)
			} else {
				e.logger.Warnf("Error parsing %s: %v", rel, err)
			}
			continue
		}
		if source.Chart == "" || source.Version == "" {
			e.logger.Debugf("Skipping %s: chart source has no name or version", rel)
			continue
		}
		snap.HelmCharts[source.Chart] = source.Version
	}
	return nil
}

func (e *Extractor) enrichTrackedFiles(_ context.Context, tree manifest.Tree, snap *ConfigSnapshot) error {
	for _, rel := range e.opts.TrackedFiles {
		if !tree.Exists(rel) {
			continue
		}
		data, err := tree.Read(rel)
		if err != nil {
			e.logger.Warnf("Skipping tracked file %s: %v", rel, err)
			continue
		}
		snap.TrackedFiles[rel] = string(data)
	}
	return nil
}
