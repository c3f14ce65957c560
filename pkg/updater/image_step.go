package updater

import (
	"context"

	"github.com/dpf-ci/dpf-version/pkg/executor"
	"github.com/dpf-ci/dpf-version/pkg/manifest"
)

// imageStep rewrites image tags of one manifest according to an explicit version mapping
type imageStep struct {
	tree     manifest.Tree
	path     string
	mapping  map[string]string
	dryRun   bool
	recorder *Recorder

	rewritten []byte
	count     int
}

var _ executor.StepExecutor = (*imageStep)(nil)

func (s *imageStep) GetName() string {
	return s.path
}

// Validate reads the file at execution time so earlier steps' edits are seen
func (s *imageStep) Validate(_ context.Context) error {
	data, err := s.tree.Read(s.path)
	if err != nil {
		return err
	}
	s.rewritten, s.count = manifest.RewriteImageTags(data, s.mapping)
	return nil
}

func (s *imageStep) IsCompleted(_ context.Context) bool {
	return s.count == 0
}

func (s *imageStep) Execute(_ context.Context) error {
	if !s.dryRun {
		if err := s.tree.Write(s.path, s.rewritten); err != nil {
			return err
		}
	}
	s.recorder.Record(UpdateRecord{
		File:          s.path,
		FieldPath:     manifest.ImageTagsField,
		MutationCount: s.count,
	})
	return nil
}
