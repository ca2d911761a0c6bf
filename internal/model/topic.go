package model

import "time"

// TopicSummary is one entry of the paginated category listing.
// Values are immutable once decoded and are copied verbatim into
// every record produced for the topic.
type TopicSummary struct {
	// ID is the forum topic identifier.
	ID int64 `json:"id"`

	// Slug is the URL slug used to build topic and post URLs.
	Slug string `json:"slug"`

	// Title is the human-readable topic title.
	Title string `json:"title"`

	// CategoryID is the category the topic belongs to.
	CategoryID int64 `json:"category_id"`

	// Tags are the forum-assigned tags of the topic. Never nil after decoding.
	Tags []string `json:"tags"`

	// CreatedAt is the topic creation time in UTC.
	CreatedAt time.Time `json:"created_at"`
}

// TopicMeta holds topic-level fields from the topic detail document.
type TopicMeta struct {
	// ID is the topic identifier.
	ID int64 `json:"id"`

	// AcceptedAnswerID is the post ID of the accepted answer.
	// Nil when the topic has no accepted answer.
	AcceptedAnswerID *int64 `json:"accepted_answer_id,omitempty"`
}

// HasAcceptedAnswer reports whether the topic carries an accepted answer.
func (m TopicMeta) HasAcceptedAnswer() bool {
	return m.AcceptedAnswerID != nil
}

// DateWindow is an inclusive [From, To] range on topic creation time.
type DateWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t lies within the window. Both ends are inclusive
// and a zero bound leaves that side open.
func (w DateWindow) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	return w.To.IsZero() || !t.After(w.To)
}

// FilterTopics returns the topics created within the window, keeping
// listing order.
func (w DateWindow) FilterTopics(topics []TopicSummary) []TopicSummary {
	filtered := make([]TopicSummary, 0, len(topics))
	for _, topic := range topics {
		if w.Contains(topic.CreatedAt) {
			filtered = append(filtered, topic)
		}
	}
	return filtered
}

// UniqueTopics drops repeated topic IDs, keeping the first occurrence.
// A topic bumped while the listing is paged can appear on two pages.
func UniqueTopics(topics []TopicSummary) []TopicSummary {
	seen := make(map[int64]struct{}, len(topics))
	unique := make([]TopicSummary, 0, len(topics))
	for _, topic := range topics {
		if _, ok := seen[topic.ID]; ok {
			continue
		}
		seen[topic.ID] = struct{}{}
		unique = append(unique, topic)
	}
	return unique
}
