package updater

import (
	"context"
	"fmt"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
	"github.com/dpf-ci/dpf-version/pkg/executor"
	"github.com/dpf-ci/dpf-version/pkg/manifest"
)

// operatorStep retags every versioned image of the operator config to the target
type operatorStep struct {
	tree     manifest.Tree
	path     string
	target   string
	dryRun   bool
	recorder *Recorder

	cfg *manifest.OperatorConfig
}

var _ executor.StepExecutor = (*operatorStep)(nil)

func (s *operatorStep) GetName() string {
	return s.path
}

func (s *operatorStep) Validate(_ context.Context) error {
	if !s.tree.Exists(s.path) {
		return fmt.Errorf("operator config not found: %w", executor.ErrSkipped)
	}
	data, err := s.tree.Read(s.path)
	if err != nil {
		return err
	}
	cfg, err := manifest.ParseOperatorConfig(s.path, data)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return fmt.Errorf("%v: %w", err, executor.ErrSkipped)
		}
		return err
	}
	s.cfg = cfg
	return nil
}

func (s *operatorStep) IsCompleted(_ context.Context) bool {
	return s.cfg != nil && len(s.cfg.PendingChanges(s.target)) == 0
}

func (s *operatorStep) Execute(_ context.Context) error {
	changes := s.cfg.Retag(s.target)
	if len(changes) == 0 {
		return nil
	}
	data, err := s.cfg.Encode()
	if err != nil {
		return err
	}
	if !s.dryRun {
		if err := s.tree.Write(s.path, data); err != nil {
			return err
		}
	}
	for _, change := range changes {
		s.recorder.Record(UpdateRecord{
			File:      s.path,
			FieldPath: change.FieldPath(),
			OldValue:  change.Old,
			NewValue:  change.New,
		})
	}
	return nil
}
