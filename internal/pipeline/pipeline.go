package pipeline

import (
	"context"
	"log/slog"
)

// Step is one stage of a page run.
type Step interface {
	// Do executes the step against run. Returning an error stops the
	// pipeline unless continue-on-error is set.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails.
	continueOnError bool

	// beforeStep is called right before each step runs.
	beforeStep func(Step)
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Early-halt errors always stop the pipeline.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// WithBeforeStep registers a hook called right before each step runs.
// The lifecycle controller uses it to track which stage a page is in.
func WithBeforeStep(hook func(Step)) Option {
	return func(p *Pipeline) {
		p.beforeStep = hook
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence, checking for cancellation
// before each one. It returns the first error, or the last one when
// continue-on-error is set.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	var lastErr error

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		if p.beforeStep != nil {
			p.beforeStep(step)
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", run.Page.URL,
		)

		if err := step.Do(ctx, run); err != nil {
			if IsHalt(err) {
				p.logger.Debug("pipeline halted",
					"step", step.Name(),
					"url", run.Page.URL,
					"reason", err,
				)
				return err
			}

			p.logger.Error("step failed",
				"step", step.Name(),
				"url", run.Page.URL,
				"error", err,
			)

			if !p.continueOnError {
				return err
			}
			lastErr = err
			continue
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"url", run.Page.URL,
		)
		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}

	return lastErr
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
