package validator

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
	"github.com/dpf-ci/dpf-version/pkg/executor"
	"github.com/dpf-ci/dpf-version/pkg/manifest"
	"github.com/dpf-ci/dpf-version/pkg/updater"
	"github.com/dpf-ci/dpf-version/pkg/utils"
)

// Validator re-parses every structured file touched by an update. It stops at the
// first file that no longer parses and never modifies the tree.
type Validator struct {
	tree     manifest.Tree
	logger   *logrus.Logger
	executor *executor.BaseExecutor
}

// New creates a validator for tree
func New(tree manifest.Tree, logger *logrus.Logger) *Validator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Validator{tree: tree, logger: logger, executor: executor.NewBaseExecutor(logger)}
}

// Validate checks the file of every record with a structured extension, in record order.
// The first failure is returned as an *errdefs.ValidationError naming the file and record.
func (v *Validator) Validate(ctx context.Context, records []updater.UpdateRecord) error {
	steps := make([]executor.Executor, 0, len(records))
	checks := make([]*parseCheck, 0, len(records))
	for _, rec := range records {
		if !utils.IsStructuredFile(rec.File) {
			v.logger.Debugf("Not re-validating unstructured file %s", rec.File)
			continue
		}
		check := &parseCheck{tree: v.tree, record: rec}
		steps = append(steps, check)
		checks = append(checks, check)
	}

	result, err := v.executor.ExecuteSteps(ctx, steps, "validation", executor.FailFast)
	if err == nil {
		return nil
	}
	if result == nil || len(result.StepResults) == 0 {
		return err
	}
	failedAt := len(result.StepResults) - 1
	last := result.StepResults[failedAt]
	if last.Status != executor.StatusFailed {
		// interrupted before the step ran
		return err
	}
	rec := checks[failedAt].record
	cause := last.Err
	if cause == nil {
		cause = errors.New(last.Error)
	}
	return &errdefs.ValidationError{Path: rec.File, FieldPath: rec.FieldPath, Err: cause}
}

// parseCheck re-parses the file of one record
type parseCheck struct {
	tree   manifest.Tree
	record updater.UpdateRecord
}

func (c *parseCheck) GetName() string {
	return c.record.File
}

func (c *parseCheck) IsCompleted(_ context.Context) bool {
	return false
}

func (c *parseCheck) Execute(_ context.Context) error {
	data, err := c.tree.Read(c.record.File)
	if err != nil {
		return err
	}
	return manifest.ValidateDocument(c.record.File, data)
}
