package model

import "time"

// Category is the coarse kind assigned to a post by the classifier.
type Category string

// Post categories in classifier priority order.
const (
	// CategoryQuestion is a short post containing a question mark.
	CategoryQuestion Category = "question"
	// CategoryGratitude is a post thanking others or marking a thread resolved.
	CategoryGratitude Category = "gratitude"
	// CategoryExplanation is a long post.
	CategoryExplanation Category = "explanation"
	// CategoryOther is everything else.
	CategoryOther Category = "other"
)

// Categories lists every category in classifier priority order.
var Categories = []Category{
	CategoryQuestion,
	CategoryGratitude,
	CategoryExplanation,
	CategoryOther,
}

// String returns the category name.
func (c Category) String() string {
	return string(c)
}

// Record is the flat output row: one per post, carrying the topic
// fields, the reply-graph aggregates and the classifier output.
//
// Design decision: Record is a flat union rather than a nested
// topic/post pair because every consumer (JSON, CSV, SQLite) wants
// one row per post with identical keys. Field order here defines
// the JSON key order and RecordColumns mirrors it for CSV.
type Record struct {
	TopicID           int64      `json:"topic_id"`
	TopicTitle        string     `json:"topic_title"`
	SummaryText       string     `json:"summary_text"`
	CategoryID        int64      `json:"category_id"`
	Tags              []string   `json:"tags"`
	PostID            int64      `json:"post_id"`
	PostNumber        int        `json:"post_number"`
	Author            string     `json:"author"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at"`
	ReplyToPostNumber *int       `json:"reply_to_post_number"`
	IsReply           bool       `json:"is_reply"`
	ReplyCount        int        `json:"reply_count"`
	LikeCount         int        `json:"like_count"`
	IsAcceptedAnswer  bool       `json:"is_accepted_answer"`
	MentionedUsers    []string   `json:"mentioned_users"`
	URL               string     `json:"url"`
	Content           string     `json:"content"`
	Markdown          string     `json:"markdown"`
	Hash              string     `json:"hash"`
	Type              Category   `json:"type"`
	AutoTags          []string   `json:"auto_tags"`
	PopularityScore   int        `json:"popularity_score"`
}

// RecordColumns is the column order shared by every tabular output.
var RecordColumns = []string{
	"topic_id",
	"topic_title",
	"summary_text",
	"category_id",
	"tags",
	"post_id",
	"post_number",
	"author",
	"created_at",
	"updated_at",
	"reply_to_post_number",
	"is_reply",
	"reply_count",
	"like_count",
	"is_accepted_answer",
	"mentioned_users",
	"url",
	"content",
	"markdown",
	"hash",
	"type",
	"auto_tags",
	"popularity_score",
}
