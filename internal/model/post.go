package model

import "time"

// Post is a single message inside a topic's post stream.
// Post numbers are unique within a topic; IDs are unique forum-wide.
type Post struct {
	// ID is the forum-wide post identifier.
	ID int64 `json:"id"`

	// PostNumber is the 1-based position of the post within its topic.
	PostNumber int `json:"post_number"`

	// Username is the author's handle.
	Username string `json:"username"`

	// CreatedAt is the post creation time in UTC.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the last edit time. Nil when the API omitted it.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// ReplyToPostNumber is the post number this post replies to.
	// Nil for top-level posts.
	ReplyToPostNumber *int `json:"reply_to_post_number,omitempty"`

	// LikeCount is the number of likes. Missing values decode as zero.
	LikeCount int `json:"like_count"`

	// MentionedUsers are the usernames mentioned in the post body.
	MentionedUsers []string `json:"mentioned_users"`

	// Cooked is the rendered HTML body of the post.
	Cooked string `json:"cooked"`
}

// IsReply reports whether the post replies to another post.
func (p Post) IsReply() bool {
	return p.ReplyToPostNumber != nil
}
