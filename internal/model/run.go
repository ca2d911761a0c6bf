package model

import "time"

// CrawlRun describes one completed "run once" invocation.
type CrawlRun struct {
	// ID is assigned by the run database. Zero before the run is saved.
	ID int64 `json:"id"`

	// BaseURL is the forum origin that was crawled.
	BaseURL string `json:"base_url"`

	// CategoryID is the crawled category.
	CategoryID int64 `json:"category_id"`

	// Window is the topic creation window applied to the listing.
	Window DateWindow `json:"window"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// ListedTopics is the number of topics returned by the listing.
	ListedTopics int `json:"listed_topics"`

	// ProcessedTopics is the number of in-window topics fully processed.
	ProcessedTopics int `json:"processed_topics"`

	// RecordCount is the number of records emitted.
	RecordCount int `json:"record_count"`
}

// Duration returns the wall-clock time the run took.
func (r CrawlRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// CrawlResult is the outcome of a run: its metadata and the ordered records.
type CrawlResult struct {
	Run     CrawlRun `json:"run"`
	Records []Record `json:"records"`
}
