package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/forumscan/internal/model"
)

// Step is one stage of topic processing. Steps run in order and each one
// reads what earlier steps stored on the job.
type Step interface {
	// Do executes the step. A returned error stops the pipeline for
	// this topic.
	Do(ctx context.Context, job *model.TopicJob) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in sequence over one topic.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
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

// Execute runs all steps in order. The context is checked before each
// step; steps handle their own timeouts. On failure the error is stored
// on the job and returned. The job is marked completed only when every
// step succeeded.
func (p *Pipeline) Execute(ctx context.Context, job *model.TopicJob) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Debug("pipeline cancelled",
				"step", step.Name(),
				"topic_id", job.Topic.ID,
				"reason", err,
			)
			job.Err = err
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"topic_id", job.Topic.ID,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"topic_id", job.Topic.ID,
				"error", err,
			)
			job.Err = err
			return err
		}
	}

	job.Completed = true
	return nil
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
