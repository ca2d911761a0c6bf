package model

// TopicJob is the unit of work for one topic. The pipeline steps fill it
// in order: posts and meta first, then reply aggregates, then records.
type TopicJob struct {
	// Index is the topic's position in the filtered listing.
	Index int

	// Topic is the listing entry being processed.
	Topic TopicSummary

	// Meta and Posts come from the topic detail document.
	Meta  TopicMeta
	Posts []Post

	// ReplyCounts maps a post number to the number of direct replies it received.
	ReplyCounts map[int]int

	// SummaryText is the joined plain text of the most-liked posts.
	SummaryText string

	// Records holds one record per post once assembly finished.
	Records []Record

	// Completed is set when every step ran successfully.
	Completed bool

	// Err is the error that stopped processing, if any.
	Err error
}

// NewTopicJob creates a job for the topic at index.
func NewTopicJob(index int, topic TopicSummary) *TopicJob {
	return &TopicJob{
		Index: index,
		Topic: topic,
	}
}

// ReplyCount returns the direct reply count for a post number.
// Unknown post numbers have zero replies.
func (j *TopicJob) ReplyCount(postNumber int) int {
	return j.ReplyCounts[postNumber]
}
