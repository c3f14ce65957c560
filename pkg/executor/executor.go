package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrSkipped is returned by Validate when a step does not apply and should be reported as skipped
var ErrSkipped = errors.New("step skipped")

// Executor is a common base interface for all steps
type Executor interface {
	// Execute performs the step's main operation
	Execute(ctx context.Context) error

	// IsCompleted checks if the step has already been completed
	IsCompleted(ctx context.Context) bool

	// GetName returns the step name
	GetName() string
}

// StepExecutor is implemented by steps that check preconditions before running
type StepExecutor interface {
	Executor

	// Validate validates preconditions before execution.
	// Returning ErrSkipped marks the step skipped instead of failed.
	Validate(ctx context.Context) error
}

// Selector is implemented by steps that can be deselected after validation
type Selector interface {
	// ShouldSkip reports whether the step was not selected for this run
	ShouldSkip(ctx context.Context) bool
}

// Policy decides what happens when a step fails
type Policy int

const (
	// FailFast stops at the first failed step
	FailFast Policy = iota
	// ContinueOnError runs every step and reports failures at the end
	ContinueOnError
)

func (p Policy) String() string {
	if p == FailFast {
		return "fail-fast"
	}
	return "continue-on-error"
}

// Status is the terminal state of a step
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusUnchanged Status = "unchanged"
)

// ExecutionResult represents the result of running a list of steps
type ExecutionResult struct {
	Success     bool          `json:"success"`
	StepCount   int           `json:"step_count"`
	Duration    time.Duration `json:"duration"`
	StepResults []StepResult  `json:"step_results"`
	Error       string        `json:"error,omitempty"`
}

// Count returns the number of steps that ended in status
func (r *ExecutionResult) Count(status Status) int {
	count := 0
	for _, result := range r.StepResults {
		if result.Status == status {
			count++
		}
	}
	return count
}

// StepResult represents the result of a single step
type StepResult struct {
	StepName string        `json:"step_name"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`

	// Err keeps the underlying cause for callers that inspect error kinds
	Err error `json:"-"`
}

// BaseExecutor runs steps under a failure policy
type BaseExecutor struct {
	logger *logrus.Logger
}

// NewBaseExecutor creates a new base executor
func NewBaseExecutor(logger *logrus.Logger) *BaseExecutor {
	if logger == nil {
		logger = logrus.New()
	}
	return &BaseExecutor{logger: logger}
}

// ExecuteSteps executes a list of steps and returns results.
// Under FailFast the first failure ends the run and is returned as an error; under
// ContinueOnError every step runs and failures are only reported in the result.
func (be *BaseExecutor) ExecuteSteps(ctx context.Context, steps []Executor, stepType string, policy Policy) (*ExecutionResult, error) {
	be.logger.Infof("Starting %s (%d steps, %s)", stepType, len(steps), policy)

	startTime := time.Now()
	result := &ExecutionResult{
		StepResults: make([]StepResult, 0, len(steps)),
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(startTime)
			result.StepCount = len(result.StepResults)
			result.Error = err.Error()
			return result, fmt.Errorf("%s interrupted: %w", stepType, err)
		}

		stepResult := be.executeStep(ctx, step, stepType)
		result.StepResults = append(result.StepResults, stepResult)

		if stepResult.Status != StatusFailed {
			continue
		}
		if policy == FailFast {
			result.Success = false
			result.Error = stepResult.Error
			result.Duration = time.Since(startTime)
			result.StepCount = len(result.StepResults)

			be.logger.Errorf("%s failed at step %s: %s (completedSteps: %d, totalSteps: %d)",
				stepType, stepResult.StepName, stepResult.Error, len(result.StepResults), len(steps))

			return result, fmt.Errorf("%s failed at step %s: %w", stepType, stepResult.StepName, stepResult.Err)
		}
		be.logger.Warnf("%s step %s failed: %s (continuing with remaining steps)",
			stepType, stepResult.StepName, stepResult.Error)
	}

	failed := result.Count(StatusFailed)
	result.Success = failed == 0
	result.Duration = time.Since(startTime)
	result.StepCount = len(result.StepResults)

	if result.Success {
		be.logger.Infof("%s completed successfully (duration: %v, stepCount: %d)",
			stepType, result.Duration, result.StepCount)
	} else {
		be.logger.Warnf("%s completed with some failures (duration: %v, failedSteps: %d, totalSteps: %d)",
			stepType, result.Duration, failed, len(steps))
		result.Error = fmt.Sprintf("completed with %d failed steps out of %d total steps", failed, len(steps))
	}

	return result, nil
}

// executeStep runs one step through validate, completion check, selection and execution
func (be *BaseExecutor) executeStep(ctx context.Context, step Executor, stepType string) StepResult {
	stepName := step.GetName()
	startTime := time.Now()

	be.logger.Debugf("Executing %s step %s", stepType, stepName)

	if validated, ok := step.(StepExecutor); ok {
		if err := validated.Validate(ctx); err != nil {
			if errors.Is(err, ErrSkipped) {
				be.logger.Infof("%s step: %s skipped (%v)", stepType, stepName, err)
				return be.createStepResult(stepName, startTime, StatusSkipped, nil)
			}
			be.logger.Errorf("%s step %s validation failed with error: %s", stepType, stepName, err)
			return be.createStepResult(stepName, startTime, StatusFailed, err)
		}
	}

	if step.IsCompleted(ctx) {
		be.logger.Infof("%s step: %s already completed", stepType, stepName)
		return be.createStepResult(stepName, startTime, StatusUnchanged, nil)
	}

	if selector, ok := step.(Selector); ok && selector.ShouldSkip(ctx) {
		be.logger.Infof("%s step: %s not selected, skipping", stepType, stepName)
		return be.createStepResult(stepName, startTime, StatusSkipped, nil)
	}

	if err := step.Execute(ctx); err != nil {
		be.logger.Errorf("%s step: %s failed with error: %s with duration %s", stepType, stepName, err, time.Since(startTime))
		return be.createStepResult(stepName, startTime, StatusFailed, err)
	}

	be.logger.Infof("%s step: %s completed successfully with duration %s", stepType, stepName, time.Since(startTime))
	return be.createStepResult(stepName, startTime, StatusSuccess, nil)
}

// createStepResult creates a StepResult with consistent formatting
func (be *BaseExecutor) createStepResult(stepName string, startTime time.Time, status Status, err error) StepResult {
	result := StepResult{
		StepName: stepName,
		Status:   status,
		Duration: time.Since(startTime),
		Err:      err,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}
