package record

import (
	"fmt"
	"strings"

	"github.com/nao1215/forumscan/internal/classify"
	"github.com/nao1215/forumscan/internal/extract"
	"github.com/nao1215/forumscan/internal/model"
	"github.com/nao1215/forumscan/internal/replygraph"
)

// Input is everything needed to build the record of one post.
type Input struct {
	Topic       model.TopicSummary
	Meta        model.TopicMeta
	Post        model.Post
	ReplyCount  int
	SummaryText string
}

// Assembler builds records for one forum.
type Assembler struct {
	baseURL       string
	fingerprinter *classify.Fingerprinter
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithFingerprinter selects the fingerprint algorithm. SHA-256 is used otherwise.
func WithFingerprinter(f *classify.Fingerprinter) Option {
	return func(a *Assembler) {
		if f != nil {
			a.fingerprinter = f
		}
	}
}

// NewAssembler creates an Assembler for the forum at baseURL.
func NewAssembler(baseURL string, opts ...Option) *Assembler {
	a := &Assembler{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.fingerprinter == nil {
		// SHA-256 is always supported.
		a.fingerprinter, _ = classify.NewFingerprinter(classify.AlgorithmSHA256) //nolint:errcheck
	}
	return a
}

// PostURL returns the canonical URL of a post.
func (a *Assembler) PostURL(slug string, topicID int64, postNumber int) string {
	return fmt.Sprintf("%s/t/%s/%d/%d", a.baseURL, slug, topicID, postNumber)
}

// Assemble builds the record of one post.
func (a *Assembler) Assemble(in Input) model.Record {
	content := extract.PlainText(in.Post.Cooked)

	tags := in.Topic.Tags
	if tags == nil {
		tags = []string{}
	}
	mentioned := in.Post.MentionedUsers
	if mentioned == nil {
		mentioned = []string{}
	}

	return model.Record{
		TopicID:           in.Topic.ID,
		TopicTitle:        in.Topic.Title,
		SummaryText:       in.SummaryText,
		CategoryID:        in.Topic.CategoryID,
		Tags:              tags,
		PostID:            in.Post.ID,
		PostNumber:        in.Post.PostNumber,
		Author:            in.Post.Username,
		CreatedAt:         in.Post.CreatedAt,
		UpdatedAt:         in.Post.UpdatedAt,
		ReplyToPostNumber: in.Post.ReplyToPostNumber,
		IsReply:           in.Post.IsReply(),
		ReplyCount:        in.ReplyCount,
		LikeCount:         in.Post.LikeCount,
		IsAcceptedAnswer:  replygraph.IsAcceptedAnswer(in.Post, in.Meta.AcceptedAnswerID),
		MentionedUsers:    mentioned,
		URL:               a.PostURL(in.Topic.Slug, in.Topic.ID, in.Post.PostNumber),
		Content:           content,
		Markdown:          extract.Markdown(in.Post.Cooked),
		Hash:              a.fingerprinter.Fingerprint(content),
		Type:              classify.Classify(content),
		AutoTags:          classify.ExtractTags(content),
		PopularityScore:   classify.PopularityScore(in.Post.LikeCount, in.ReplyCount),
	}
}

// AssembleTopic builds one record per post of a processed topic job,
// keeping post-stream order.
func (a *Assembler) AssembleTopic(job *model.TopicJob) []model.Record {
	records := make([]model.Record, 0, len(job.Posts))
	for _, post := range job.Posts {
		records = append(records, a.Assemble(Input{
			Topic:       job.Topic,
			Meta:        job.Meta,
			Post:        post,
			ReplyCount:  job.ReplyCount(post.PostNumber),
			SummaryText: job.SummaryText,
		}))
	}
	return records
}
