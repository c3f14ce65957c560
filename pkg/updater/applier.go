package updater

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dpf-ci/dpf-version/pkg/executor"
	"github.com/dpf-ci/dpf-version/pkg/manifest"
	"github.com/dpf-ci/dpf-version/pkg/utils"
	"github.com/dpf-ci/dpf-version/pkg/versionconfig"
)

// Applier advances a manifest tree to a target platform version.
type Applier struct {
	tree     manifest.Tree
	versions *versionconfig.Store
	logger   *logrus.Logger
	opts     Options
	executor *executor.BaseExecutor
}

// NewApplier creates an applier for tree whose version record lives in versions
func NewApplier(tree manifest.Tree, versions *versionconfig.Store, logger *logrus.Logger, opts Options) *Applier {
	if logger == nil {
		logger = logrus.New()
	}
	defaults := DefaultOptions()
	if opts.TemplateFiles == nil {
		opts.TemplateFiles = defaults.TemplateFiles
	}
	if len(opts.Layouts) == 0 {
		opts.Layouts = defaults.Layouts
	}
	if opts.OperatorConfigPath == "" {
		opts.OperatorConfigPath = defaults.OperatorConfigPath
	}
	if opts.Aliases == nil {
		opts.Aliases = defaults.Aliases
	}
	if len(opts.DefaultComponents) == 0 {
		opts.DefaultComponents = defaults.DefaultComponents
	}
	return &Applier{
		tree:     tree,
		versions: versions,
		logger:   logger,
		opts:     opts,
		executor: executor.NewBaseExecutor(logger),
	}
}

// Apply updates every service template, the operator config and, when a mapping is
// configured, image tags across the tree. Per-file failures are collected in the result
// and processing continues. Loading or saving the version config is fatal: a load
// failure aborts before any file is touched.
func (a *Applier) Apply(ctx context.Context, target string, components []string) (*Result, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("target version is required")
	}

	cfg, err := a.versions.Load(ctx)
	if err != nil {
		return nil, err
	}

	selected := a.normalizeComponents(components)
	result := newResult(target, selected, a.opts.DryRun)
	result.PreviousVersion = cfg.PreviousVersion()
	a.logger.Infof("Updating to DPF version %s (previous: %s, components: %s, dryRun: %t)",
		target, result.PreviousVersion, strings.Join(selected, ", "), a.opts.DryRun)

	recorder := &Recorder{}
	steps, err := a.buildSteps(target, selected, recorder)
	if err != nil {
		return nil, err
	}

	execResult, err := a.executor.ExecuteSteps(ctx, steps, "update", executor.ContinueOnError)
	if err != nil {
		return nil, err
	}

	for i, stepResult := range execResult.StepResults {
		_, bulk := steps[i].(*imageStep)
		switch stepResult.Status {
		case executor.StatusSuccess:
			result.Success = append(result.Success, stepResult.StepName)
		case executor.StatusFailed:
			result.Failed = append(result.Failed, Failure{
				Path:  stepResult.StepName,
				Error: stepResult.Error,
				Err:   stepResult.Err,
			})
		case executor.StatusSkipped:
			result.Skipped = append(result.Skipped, stepResult.StepName)
		case executor.StatusUnchanged:
			if !bulk {
				result.Unchanged = append(result.Unchanged, stepResult.StepName)
			}
		}
	}
	result.Records = recorder.Records()

	if a.opts.DryRun {
		a.logger.Infof("Dry run: version config %s left untouched", a.versions.Location())
		return result, nil
	}

	cfg.Promote(target, selected)
	if err := a.versions.Save(ctx, cfg); err != nil {
		return result, err
	}
	result.Success = append(result.Success, a.versions.Key())

	return result, nil
}

// normalizeComponents applies the alias map to the requested components, falling back
// to the defaults when none were requested
func (a *Applier) normalizeComponents(components []string) []string {
	if len(components) == 0 {
		components = a.opts.DefaultComponents
	}
	var out []string
	for _, c := range components {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if alias, ok := a.opts.Aliases[c]; ok && alias != "" {
			c = alias
		}
		out = utils.AppendUnique(out, c)
	}
	return out
}

func (a *Applier) buildSteps(target string, selected []string, recorder *Recorder) ([]executor.Executor, error) {
	isSelected := make(map[string]bool, len(selected))
	for _, c := range selected {
		isSelected[c] = true
	}

	steps := make([]executor.Executor, 0, len(a.opts.TemplateFiles)+1)
	for _, file := range a.opts.TemplateFiles {
		path, present := a.opts.Layouts.Resolve(a.tree, file)
		if !present {
			path = a.opts.Layouts.Primary(file)
		}
		component := manifest.ComponentForTemplate(file, a.opts.Aliases)
		steps = append(steps, &templateStep{
			tree:      a.tree,
			path:      path,
			present:   present,
			component: component,
			selected:  isSelected[component],
			target:    target,
			dryRun:    a.opts.DryRun,
			recorder:  recorder,
		})
	}

	steps = append(steps, &operatorStep{
		tree:     a.tree,
		path:     a.opts.OperatorConfigPath,
		target:   target,
		dryRun:   a.opts.DryRun,
		recorder: recorder,
	})

	if len(a.opts.ImageTagMapping) == 0 {
		return steps, nil
	}
	docs, err := a.tree.Documents()
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests for image tag rewrite: %w", err)
	}
	for _, doc := range docs {
		steps = append(steps, &imageStep{
			tree:     a.tree,
			path:     doc,
			mapping:  a.opts.ImageTagMapping,
			dryRun:   a.opts.DryRun,
			recorder: recorder,
		})
	}
	return steps, nil
}

// ParseImageMapping parses "old=new" pairs such as "25.1.1=25.4.0"
func ParseImageMapping(pairs []string) (map[string]string, error) {
	mapping := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		old, new, ok := strings.Cut(strings.TrimSpace(pair), "=")
		old, new = strings.TrimSpace(old), strings.TrimSpace(new)
		if !ok || old == "" || new == "" {
			return nil, fmt.Errorf("invalid image mapping %q, expected old=new", pair)
		}
		if !manifest.IsVersionTag(old) || !manifest.IsVersionTag(new) {
			return nil, fmt.Errorf("invalid image mapping %q, both sides must be versions", pair)
		}
		mapping[old] = new
	}
	return mapping, nil
}
