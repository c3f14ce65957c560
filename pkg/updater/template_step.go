package updater

import (
	"context"

	"github.com/dpf-ci/dpf-version/pkg/executor"
	"github.com/dpf-ci/dpf-version/pkg/manifest"
)

// templateStep pins the helm chart version of one service template
type templateStep struct {
	tree      manifest.Tree
	path      string
	present   bool
	component string
	selected  bool
	target    string
	dryRun    bool
	recorder  *Recorder

	tmpl *manifest.ChartTemplate
}

var _ executor.StepExecutor = (*templateStep)(nil)
var _ executor.Selector = (*templateStep)(nil)

func (s *templateStep) GetName() string {
	return s.path
}

// Validate loads the template; a template missing from every layout is skipped
func (s *templateStep) Validate(_ context.Context) error {
	if !s.present {
		return executor.ErrSkipped
	}
	data, err := s.tree.Read(s.path)
	if err != nil {
		return err
	}
	tmpl, err := manifest.ParseChartTemplate(s.path, data)
	if err != nil {
		return err
	}
	s.tmpl = tmpl
	return nil
}

func (s *templateStep) IsCompleted(_ context.Context) bool {
	return s.tmpl != nil && s.tmpl.Version() == s.target
}

func (s *templateStep) ShouldSkip(_ context.Context) bool {
	return !s.selected
}

func (s *templateStep) Execute(_ context.Context) error {
	old, changed := s.tmpl.SetVersion(s.target)
	if !changed {
		return nil
	}
	data, err := s.tmpl.Encode()
	if err != nil {
		return err
	}
	if !s.dryRun {
		if err := s.tree.Write(s.path, data); err != nil {
			return err
		}
	}
	s.recorder.Record(UpdateRecord{
		File:      s.path,
		FieldPath: manifest.ChartVersionField,
		OldValue:  old,
		NewValue:  s.target,
	})
	return nil
}
