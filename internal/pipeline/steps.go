package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/forumscan/internal/extract"
	"github.com/nao1215/forumscan/internal/model"
	"github.com/nao1215/forumscan/internal/record"
	"github.com/nao1215/forumscan/internal/replygraph"
)

// TopicSource fetches one topic document. *crawler.Client implements it.
type TopicSource interface {
	FetchTopic(ctx context.Context, id int64, slug string) (model.TopicMeta, []model.Post, error)
}

// FetchTopicStep loads the topic's accepted answer and post stream.
type FetchTopicStep struct {
	source TopicSource
	logger *slog.Logger
}

// NewFetchTopicStep creates a FetchTopicStep reading from source.
func NewFetchTopicStep(source TopicSource, logger *slog.Logger) *FetchTopicStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchTopicStep{source: source, logger: logger}
}

// Name implements Step.
func (s *FetchTopicStep) Name() string {
	return "fetch-topic"
}

// Do implements Step.
func (s *FetchTopicStep) Do(ctx context.Context, job *model.TopicJob) error {
	meta, posts, err := s.source.FetchTopic(ctx, job.Topic.ID, job.Topic.Slug)
	if err != nil {
		return fmt.Errorf("fetch topic %d: %w", job.Topic.ID, err)
	}
	job.Meta = meta
	job.Posts = posts

	s.logger.Debug("topic fetched",
		"topic_id", job.Topic.ID,
		"posts", len(posts),
		"accepted_answer", meta.HasAcceptedAnswer(),
	)
	return nil
}

// ReplyGraphStep counts direct replies per post and builds the topic's
// summary text.
type ReplyGraphStep struct {
	plain func(cooked string) string
}

// NewReplyGraphStep creates a ReplyGraphStep. Plain text is derived with
// extract.PlainText.
func NewReplyGraphStep() *ReplyGraphStep {
	return &ReplyGraphStep{plain: extract.PlainText}
}

// Name implements Step.
func (s *ReplyGraphStep) Name() string {
	return "reply-graph"
}

// Do implements Step.
func (s *ReplyGraphStep) Do(_ context.Context, job *model.TopicJob) error {
	graph := replygraph.Build(job.Posts)
	job.ReplyCounts = graph.Counts()
	job.SummaryText = replygraph.TopSummaryText(job.Posts, s.plain)
	return nil
}

// AssembleStep classifies every post and produces the topic's records.
type AssembleStep struct {
	assembler *record.Assembler
}

// NewAssembleStep creates an AssembleStep.
func NewAssembleStep(assembler *record.Assembler) *AssembleStep {
	return &AssembleStep{assembler: assembler}
}

// Name implements Step.
func (s *AssembleStep) Name() string {
	return "assemble"
}

// Do implements Step.
func (s *AssembleStep) Do(_ context.Context, job *model.TopicJob) error {
	if s.assembler == nil {
		return errors.New("assemble step has no assembler")
	}
	job.Records = s.assembler.AssembleTopic(job)
	return nil
}

// DefaultPipeline returns the standard topic pipeline:
// fetch-topic, reply-graph, assemble.
func DefaultPipeline(source TopicSource, assembler *record.Assembler, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewFetchTopicStep(source, p.logger),
		NewReplyGraphStep(),
		NewAssembleStep(assembler),
	)
	return p
}
