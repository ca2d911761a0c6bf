package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/forumscan/internal/model"
	"github.com/nao1215/forumscan/internal/record"
)

// SessionProvider yields a validated session. *session.Manager implements it.
type SessionProvider interface {
	EnsureSession(ctx context.Context) (*model.Session, error)
}

// Source is the forum API as seen by one run. *crawler.Client implements it.
type Source interface {
	TopicSource
	FetchAllTopics(ctx context.Context) ([]model.TopicSummary, error)
	BaseURL() string
	CategoryID() int64
}

// SourceFactory builds the API client for a validated session.
type SourceFactory func(s *model.Session) (Source, error)

// Harvester performs one complete run: session, listing, window filter,
// per-topic processing and ordered record collection.
type Harvester struct {
	sessions  SessionProvider
	newSource SourceFactory
	assembler *record.Assembler
	window    model.DateWindow
	batchOpts []BatchOption
	logger    *slog.Logger
	now       func() time.Time
}

// HarvesterOption configures a Harvester.
type HarvesterOption func(*Harvester)

// WithWindow restricts processing to topics created inside w.
// The zero window admits every topic.
func WithWindow(w model.DateWindow) HarvesterOption {
	return func(h *Harvester) {
		h.window = w
	}
}

// WithBatchOptions passes options to the topic BatchProcessor.
func WithBatchOptions(opts ...BatchOption) HarvesterOption {
	return func(h *Harvester) {
		h.batchOpts = append(h.batchOpts, opts...)
	}
}

// WithHarvesterLogger sets the logger.
func WithHarvesterLogger(logger *slog.Logger) HarvesterOption {
	return func(h *Harvester) {
		h.logger = logger
	}
}

// NewHarvester creates a Harvester.
func NewHarvester(sessions SessionProvider, newSource SourceFactory, assembler *record.Assembler, opts ...HarvesterOption) *Harvester {
	h := &Harvester{
		sessions:  sessions,
		newSource: newSource,
		assembler: assembler,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Run executes one crawl. When topic processing fails or ctx is cancelled
// after the listing was read, the returned result still holds the records
// of every fully processed topic together with the error.
func (h *Harvester) Run(ctx context.Context) (*model.CrawlResult, error) {
	started := h.now().UTC()

	s, err := h.sessions.EnsureSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensure session: %w", err)
	}

	src, err := h.newSource(s)
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}

	topics, err := src.FetchAllTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	if unique := model.UniqueTopics(topics); len(unique) != len(topics) {
		h.logger.Debug("dropped repeated topics", "repeated", len(topics)-len(unique))
		topics = unique
	}

	inWindow := topics
	if !h.window.From.IsZero() || !h.window.To.IsZero() {
		inWindow = h.window.FilterTopics(topics)
	}
	h.logger.Info("topics listed",
		"listed", len(topics),
		"in_window", len(inWindow),
	)

	factory := func() *Pipeline {
		return DefaultPipeline(src, h.assembler, WithLogger(h.logger))
	}
	opts := append([]BatchOption{WithBatchLogger(h.logger)}, h.batchOpts...)
	jobs, batchErr := NewBatchProcessor(factory, opts...).ProcessTopics(ctx, inWindow)

	records := CollectRecords(jobs)
	result := &model.CrawlResult{
		Run: model.CrawlRun{
			BaseURL:         src.BaseURL(),
			CategoryID:      src.CategoryID(),
			Window:          h.window,
			StartedAt:       started,
			FinishedAt:      h.now().UTC(),
			ListedTopics:    len(topics),
			ProcessedTopics: len(CompletedJobs(jobs)),
			RecordCount:     len(records),
		},
		Records: records,
	}

	if batchErr != nil {
		if errors.Is(batchErr, context.Canceled) || errors.Is(batchErr, context.DeadlineExceeded) {
			h.logger.Warn("run interrupted", "completed_topics", result.Run.ProcessedTopics)
		}
		return result, batchErr
	}
	return result, nil
}
