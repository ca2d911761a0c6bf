package crawler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/forumscan/internal/extract"
	"github.com/nao1215/forumscan/internal/model"
)

// timestampLayouts are tried in order. The API emits RFC 3339 with
// milliseconds; the zone-less layout covers hand-edited fixtures.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// parseTimestamp parses an API timestamp into UTC.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// listingDocument is the category listing page.
type listingDocument struct {
	TopicList *struct {
		Topics *[]wireTopic `json:"topics"`
	} `json:"topic_list"`
}

// wireTopic is one listing entry as sent by the API.
type wireTopic struct {
	ID         *int64            `json:"id"`
	Slug       string            `json:"slug"`
	Title      string            `json:"title"`
	CategoryID *int64            `json:"category_id"`
	Tags       []json.RawMessage `json:"tags"`
	CreatedAt  *string           `json:"created_at"`
}

// toModel converts a listing entry. fallbackCategory is used when the
// entry does not name its category.
func (w wireTopic) toModel(fallbackCategory int64) (model.TopicSummary, error) {
	if w.ID == nil {
		return model.TopicSummary{}, fmt.Errorf("%w: topic id", ErrMissingField)
	}
	if w.CreatedAt == nil {
		return model.TopicSummary{}, fmt.Errorf("%w: created_at of topic %d", ErrMissingField, *w.ID)
	}
	created, err := parseTimestamp(*w.CreatedAt)
	if err != nil {
		return model.TopicSummary{}, fmt.Errorf("topic %d: %w", *w.ID, err)
	}

	categoryID := fallbackCategory
	if w.CategoryID != nil {
		categoryID = *w.CategoryID
	}

	return model.TopicSummary{
		ID:         *w.ID,
		Slug:       w.Slug,
		Title:      w.Title,
		CategoryID: categoryID,
		Tags:       decodeTags(w.Tags),
		CreatedAt:  created,
	}, nil
}

// decodeTags accepts both tag encodings seen in the wild: plain strings
// and objects carrying a "name".
func decodeTags(raw []json.RawMessage) []string {
	tags := make([]string, 0, len(raw))
	for _, r := range raw {
		var name string
		if err := json.Unmarshal(r, &name); err == nil {
			tags = append(tags, name)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(r, &obj); err == nil && obj.Name != "" {
			tags = append(tags, obj.Name)
		}
	}
	return tags
}

// topicDocument is the topic detail document.
//
// The accepted answer is exposed under two names depending on the forum
// version. "accepted_answer" is consulted first and may be a post ID or an
// object carrying "post_id" or only "post_number"; a post number is
// resolved against the decoded post stream. When it yields no ID, the
// legacy "accepted_answer_post_id" is used. The first present identifier
// wins.
type topicDocument struct {
	ID                   *int64          `json:"id"`
	AcceptedAnswer       json.RawMessage `json:"accepted_answer"`
	AcceptedAnswerPostID json.RawMessage `json:"accepted_answer_post_id"`
	PostStream           *struct {
		Posts *[]wirePost `json:"posts"`
	} `json:"post_stream"`
}

// acceptedAnswerID resolves the accepted answer fallback chain. posts is
// the decoded stream used to turn a post number into a post ID.
func (d topicDocument) acceptedAnswerID(posts []model.Post) (*int64, error) {
	if id, ok := postIDFrom(d.AcceptedAnswer, posts); ok {
		return id, nil
	}

	legacy := bytes.TrimSpace(d.AcceptedAnswerPostID)
	if len(legacy) == 0 || bytes.Equal(legacy, []byte("null")) {
		return nil, nil
	}
	var id int64
	if err := json.Unmarshal(legacy, &id); err != nil {
		return nil, fmt.Errorf("accepted_answer_post_id: %w", err)
	}
	return &id, nil
}

// postIDFrom extracts a post ID from a number, or from an object with
// "post_id" or "post_number". A post number outside posts yields no ID.
func postIDFrom(raw json.RawMessage, posts []model.Post) (*int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}

	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		return &id, true
	}

	var obj struct {
		PostID     *int64 `json:"post_id"`
		PostNumber *int   `json:"post_number"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	if obj.PostID != nil {
		return obj.PostID, true
	}
	if obj.PostNumber != nil {
		for _, p := range posts {
			if p.PostNumber == *obj.PostNumber {
				id := p.ID
				return &id, true
			}
		}
	}
	return nil, false
}

// wirePost is one post of the post stream as sent by the API.
type wirePost struct {
	ID                *int64          `json:"id"`
	PostNumber        *int            `json:"post_number"`
	Username          string          `json:"username"`
	CreatedAt         *string         `json:"created_at"`
	UpdatedAt         *string         `json:"updated_at"`
	ReplyToPostNumber *int            `json:"reply_to_post_number"`
	LikeCount         int             `json:"like_count"`
	MentionedUsers    json.RawMessage `json:"mentioned_users"`
	Cooked            string          `json:"cooked"`
}

// toModel converts a post.
func (w wirePost) toModel() (model.Post, error) {
	if w.ID == nil {
		return model.Post{}, fmt.Errorf("%w: post id", ErrMissingField)
	}
	if w.PostNumber == nil {
		return model.Post{}, fmt.Errorf("%w: post_number of post %d", ErrMissingField, *w.ID)
	}
	if w.CreatedAt == nil {
		return model.Post{}, fmt.Errorf("%w: created_at of post %d", ErrMissingField, *w.ID)
	}

	created, err := parseTimestamp(*w.CreatedAt)
	if err != nil {
		return model.Post{}, fmt.Errorf("post %d: %w", *w.ID, err)
	}

	var updated *time.Time
	if w.UpdatedAt != nil && *w.UpdatedAt != "" {
		t, err := parseTimestamp(*w.UpdatedAt)
		if err != nil {
			return model.Post{}, fmt.Errorf("post %d: %w", *w.ID, err)
		}
		updated = &t
	}

	return model.Post{
		ID:                *w.ID,
		PostNumber:        *w.PostNumber,
		Username:          w.Username,
		CreatedAt:         created,
		UpdatedAt:         updated,
		ReplyToPostNumber: w.ReplyToPostNumber,
		LikeCount:         w.LikeCount,
		MentionedUsers:    decodeMentions(w.MentionedUsers, w.Cooked),
		Cooked:            w.Cooked,
	}, nil
}

// decodeMentions reads mentioned usernames from the API field, which holds
// user objects or plain names. When the field is absent the @mentions are
// read from the cooked body instead.
func decodeMentions(raw json.RawMessage, cooked string) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return extract.Mentions(cooked)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return extract.Mentions(cooked)
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
			continue
		}
		var user struct {
			Username string `json:"username"`
		}
		if err := json.Unmarshal(item, &user); err == nil && user.Username != "" {
			names = append(names, user.Username)
		}
	}
	return names
}
