package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nao1215/forumscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of topics processed at once.
const DefaultConcurrency = 4

// BatchProcessor runs one pipeline per topic with bounded parallelism.
//
// Design decision: Results are written into a slice pre-allocated by
// listing index, so the output order never depends on which worker finished
// first and no reordering pass is needed.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each topic.
	pipelineFactory func() *Pipeline

	concurrency     int
	continueOnError bool
	logger          *slog.Logger
	progress        func(done, total int)
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of topics in flight.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithContinueOnError logs and skips failed topics instead of aborting
// the batch on the first failure.
func WithContinueOnError(continueOnError bool) BatchOption {
	return func(b *BatchProcessor) {
		b.continueOnError = continueOnError
	}
}

// WithProgress registers a function called after each topic finishes,
// successfully or not. It may be called from several goroutines.
func WithProgress(fn func(done, total int)) BatchOption {
	return func(b *BatchProcessor) {
		b.progress = fn
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessTopics runs the pipeline for every topic and returns one job per
// topic in listing order. Jobs that never started are nil.
//
// In fail-fast mode the first topic error cancels the remaining work and
// is returned. With continue-on-error, failed topics keep their error on
// the job and the batch goes on; only cancellation of ctx is returned.
func (bp *BatchProcessor) ProcessTopics(ctx context.Context, topics []model.TopicSummary) ([]*model.TopicJob, error) {
	bp.logger.Info("processing topics",
		"topics", len(topics),
		"concurrency", bp.concurrency,
		"continue_on_error", bp.continueOnError,
	)
	startTime := time.Now()

	jobs := make([]*model.TopicJob, len(topics))
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, topic := range topics {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			job := model.NewTopicJob(i, topic)
			err := bp.pipelineFactory().Execute(gctx, job)
			jobs[i] = job

			if bp.progress != nil {
				bp.progress(int(done.Add(1)), len(topics))
			}

			if err == nil {
				return nil
			}
			if bp.continueOnError && ctx.Err() == nil {
				bp.logger.Warn("skipping failed topic",
					"topic_id", topic.ID,
					"slug", topic.Slug,
					"error", err,
				)
				return nil
			}
			return fmt.Errorf("topic %d (%s): %w", topic.ID, topic.Slug, err)
		})
	}

	err := g.Wait()

	bp.logger.Info("topic processing finished",
		"topics", len(topics),
		"completed", len(CompletedJobs(jobs)),
		"elapsed", time.Since(startTime),
	)

	return jobs, err
}

// CompletedJobs returns the jobs whose pipeline finished, in order.
func CompletedJobs(jobs []*model.TopicJob) []*model.TopicJob {
	out := make([]*model.TopicJob, 0, len(jobs))
	for _, job := range jobs {
		if job != nil && job.Completed {
			out = append(out, job)
		}
	}
	return out
}

// CollectRecords flattens the records of completed jobs in listing order.
// Partially processed topics contribute nothing.
func CollectRecords(jobs []*model.TopicJob) []model.Record {
	records := make([]model.Record, 0)
	for _, job := range CompletedJobs(jobs) {
		records = append(records, job.Records...)
	}
	return records
}
